package weather_test

import (
	"context"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/parley/pkg/tools"
	"github.com/papercomputeco/parley/pkg/tools/weather"
)

const hanoi = `{
	"name": "Hanoi",
	"dt": 1700000000,
	"sys": {"country": "VN"},
	"main": {"temp": 31.2, "feels_like": 35.0, "humidity": 70, "pressure": 1008},
	"wind": {"speed": 3.5},
	"weather": [{"main": "Clouds", "description": "broken clouds"}]
}`

var _ = Describe("Weather tool", func() {
	var (
		server *httptest.Server
		tool   *weather.Tool
		query  map[string]string
	)

	BeforeEach(func() {
		query = map[string]string{}
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for k := range r.URL.Query() {
				query[k] = r.URL.Query().Get(k)
			}
			switch r.URL.Query().Get("q") {
			case "Hanoi":
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(hanoi))
			case "Atlantis":
				w.WriteHeader(http.StatusNotFound)
			default:
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte("oops"))
			}
		}))

		var err error
		tool, err = weather.New(weather.Config{APIKey: "key", BaseURL: server.URL})
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		server.Close()
	})

	It("requires an API key", func() {
		_, err := weather.New(weather.Config{})
		Expect(err).To(HaveOccurred())
	})

	It("declares the city_name argument", func() {
		Expect(tool.Name()).To(Equal("get_weather"))
		Expect(tool.Parameters()).To(HaveKeyWithValue("required", []string{"city_name"}))
	})

	It("formats current conditions in metric units", func() {
		out, err := tool.Invoke(context.Background(), map[string]any{"city_name": "Hanoi"})
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("Weather information for Hanoi, VN"))
		Expect(out).To(ContainSubstring("Current temperature: 31.2°C"))
		Expect(out).To(ContainSubstring("Conditions: broken clouds"))
		Expect(out).To(ContainSubstring("Humidity: 70%"))

		Expect(query).To(HaveKeyWithValue("units", "metric"))
		Expect(query).To(HaveKeyWithValue("appid", "key"))
	})

	It("tells the caller when a city is unknown", func() {
		out, err := tool.Invoke(context.Background(), map[string]any{"city_name": "Atlantis"})
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(HavePrefix("City 'Atlantis' not found"))
	})

	It("returns an error for other API failures", func() {
		_, err := tool.Invoke(context.Background(), map[string]any{"city_name": "Elsewhere"})
		Expect(err).To(MatchError(ContainSubstring("status 500")))
	})

	It("rejects a missing city", func() {
		_, err := tool.Invoke(context.Background(), map[string]any{})
		Expect(err).To(MatchError(tools.ErrInvalidArguments))
	})
})

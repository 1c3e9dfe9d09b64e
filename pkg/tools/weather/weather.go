// Package weather provides the get_weather tool backed by the OpenWeatherMap
// current weather API.
package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/papercomputeco/parley/pkg/tools"
)

const (
	Name = "get_weather"

	DefaultBaseURL = "https://api.openweathermap.org/data/2.5/weather"
)

// Config configures the weather tool.
type Config struct {
	APIKey  string
	BaseURL string

	HTTPClient *http.Client
}

// Tool is the get_weather capability.
type Tool struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// New creates the weather tool. An API key is required.
func New(c Config) (*Tool, error) {
	if c.APIKey == "" {
		return nil, errors.New("openweather api key is required")
	}

	baseURL := c.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	client := c.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}

	return &Tool{
		apiKey:     c.APIKey,
		baseURL:    baseURL,
		httpClient: client,
	}, nil
}

func (t *Tool) Name() string { return Name }

func (t *Tool) Description() string {
	return "Get current weather information for a city."
}

func (t *Tool) Parameters() map[string]any {
	return tools.ObjectSchema(map[string]string{
		"city_name": "Name of the city to get weather for, e.g. \"Hanoi\".",
	}, "city_name")
}

type response struct {
	Name string `json:"name"`
	Dt   int64  `json:"dt"`
	Sys  struct {
		Country string `json:"country"`
	} `json:"sys"`
	Main struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		Humidity  int     `json:"humidity"`
		Pressure  int     `json:"pressure"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
	Weather []struct {
		Main        string `json:"main"`
		Description string `json:"description"`
	} `json:"weather"`
}

// Invoke fetches current conditions in metric units. An unknown city is a
// successful result telling the generator so, not an error.
func (t *Tool) Invoke(ctx context.Context, args map[string]any) (string, error) {
	city, err := tools.StringArg(args, "city_name")
	if err != nil {
		return "", err
	}

	q := url.Values{}
	q.Set("q", city)
	q.Set("appid", t.apiKey)
	q.Set("units", "metric")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("requesting weather: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Sprintf("City '%s' not found. Please check the spelling or try another city.", city), nil
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("weather api returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var w response
	if err := json.NewDecoder(resp.Body).Decode(&w); err != nil {
		return "", fmt.Errorf("decoding weather: %w", err)
	}

	return format(w), nil
}

func format(w response) string {
	conditions := "N/A"
	if len(w.Weather) > 0 {
		conditions = w.Weather[0].Description
	}
	observed := "N/A"
	if w.Dt > 0 {
		observed = time.Unix(w.Dt, 0).UTC().Format("2006-01-02 15:04:05 MST")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Weather information for %s, %s:\n", w.Name, w.Sys.Country)
	fmt.Fprintf(&b, "- Current temperature: %.1f°C\n", w.Main.Temp)
	fmt.Fprintf(&b, "- Feels like: %.1f°C\n", w.Main.FeelsLike)
	fmt.Fprintf(&b, "- Conditions: %s\n", conditions)
	fmt.Fprintf(&b, "- Humidity: %d%%\n", w.Main.Humidity)
	fmt.Fprintf(&b, "- Wind speed: %.1f m/s\n", w.Wind.Speed)
	fmt.Fprintf(&b, "- Pressure: %d hPa\n", w.Main.Pressure)
	fmt.Fprintf(&b, "- Time: %s", observed)
	return b.String()
}

var _ tools.Tool = (*Tool)(nil)

package webfetch_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/parley/pkg/tools"
	"github.com/papercomputeco/parley/pkg/tools/webfetch"
)

const page = `<!DOCTYPE html>
<html>
<head><title>Pho in Hanoi</title></head>
<body>
<nav>Home | About</nav>
<article>
<h1>Pho in Hanoi</h1>
<p>Pho is a Vietnamese soup consisting of broth, rice noodles and herbs. It is a popular street food in Hanoi and is served at breakfast in many households across the city.</p>
<p>The northern style keeps the broth clear and the garnish simple, with green onion and a squeeze of lime. Visitors often queue at dawn for a bowl at the oldest stalls.</p>
<p>Many stalls in the Old Quarter have served the same recipe for generations, and the best known among them open before sunrise and close once the pot is empty.</p>
</article>
</body>
</html>`

var _ = Describe("Web fetch tool", func() {
	var (
		server *httptest.Server
		tool   *webfetch.Tool
	)

	BeforeEach(func() {
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/pho":
				w.Header().Set("Content-Type", "text/html; charset=utf-8")
				_, _ = w.Write([]byte(page))
			case "/plain":
				w.Header().Set("Content-Type", "text/plain")
				_, _ = w.Write([]byte(strings.Repeat("a", 100)))
			default:
				w.WriteHeader(http.StatusNotFound)
			}
		}))
		tool = webfetch.New(webfetch.Config{MaxChars: 50})
	})

	AfterEach(func() {
		server.Close()
	})

	It("extracts the readable text of an HTML page", func() {
		tool = webfetch.New(webfetch.Config{})
		url := server.URL + "/pho"
		out, err := tool.Invoke(context.Background(), map[string]any{"url": url})
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(HavePrefix("URL :" + url + "\n\n"))
		Expect(out).To(ContainSubstring("Vietnamese soup"))
		Expect(out).NotTo(ContainSubstring("<p>"))

		Expect(tool.Citations(map[string]any{"url": url}, out)).To(Equal([]string{url}))
	})

	It("truncates long bodies", func() {
		out, err := tool.Invoke(context.Background(), map[string]any{"url": server.URL + "/plain"})
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(HaveSuffix(strings.Repeat("a", 50) + "..."))
	})

	It("fails on non-2xx responses", func() {
		_, err := tool.Invoke(context.Background(), map[string]any{"url": server.URL + "/missing"})
		Expect(err).To(MatchError(ContainSubstring("status 404")))
	})

	It("rejects relative and non-http URLs", func() {
		_, err := tool.Invoke(context.Background(), map[string]any{"url": "/etc/passwd"})
		Expect(err).To(MatchError(tools.ErrInvalidArguments))

		_, err = tool.Invoke(context.Background(), map[string]any{"url": "file:///etc/passwd"})
		Expect(err).To(MatchError(tools.ErrInvalidArguments))
	})
})

// Package webfetch provides the fetch_web tool: an HTTP GET followed by
// readability extraction of the page's main text.
package webfetch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"

	"github.com/papercomputeco/parley/pkg/tools"
	"github.com/papercomputeco/parley/pkg/utils"
)

const (
	Name = "fetch_web"

	// DefaultMaxChars bounds the extracted text handed back to the generator.
	DefaultMaxChars = 20000

	userAgent = "Mozilla/5.0 (compatible; parley/1.0; +https://github.com/papercomputeco/parley)"

	maxBodyBytes = 5 << 20
)

// Config configures the fetch tool.
type Config struct {
	MaxChars   int
	HTTPClient *http.Client
}

// Tool is the fetch_web capability.
type Tool struct {
	maxChars   int
	httpClient *http.Client
}

// New creates the fetch tool.
func New(c Config) *Tool {
	t := &Tool{maxChars: c.MaxChars, httpClient: c.HTTPClient}
	if t.maxChars <= 0 {
		t.maxChars = DefaultMaxChars
	}
	if t.httpClient == nil {
		t.httpClient = &http.Client{Timeout: 20 * time.Second}
	}
	return t
}

func (t *Tool) Name() string { return Name }

func (t *Tool) Description() string {
	return "Fetches the content of a webpage given its URL."
}

func (t *Tool) Parameters() map[string]any {
	return tools.ObjectSchema(map[string]string{
		"url": "Absolute http(s) URL of the page to fetch.",
	}, "url")
}

func (t *Tool) Invoke(ctx context.Context, args map[string]any) (string, error) {
	raw, err := tools.StringArg(args, "url")
	if err != nil {
		return "", err
	}

	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("%w: %q is not an absolute http(s) URL", tools.ErrInvalidArguments, raw)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching %s: %w", raw, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("fetching %s: status %d", raw, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", raw, err)
	}

	var text string
	if isHTML(resp.Header.Get("Content-Type"), body) {
		text = extract(body, u)
	} else {
		text = strings.TrimSpace(string(body))
	}

	return "URL :" + raw + "\n\n" + utils.Truncate(text, t.maxChars), nil
}

// Citations cites the fetched URL.
func (t *Tool) Citations(args map[string]any, _ string) []string {
	if u := tools.OptionalStringArg(args, "url"); u != "" {
		return []string{u}
	}
	return nil
}

func extract(body []byte, u *url.URL) string {
	article, err := readability.FromReader(bytes.NewReader(body), u)
	if err != nil {
		return strings.TrimSpace(string(body))
	}

	var b strings.Builder
	if article.Title != "" {
		fmt.Fprintf(&b, "Title: %s\n\n", article.Title)
	}
	if article.Excerpt != "" {
		fmt.Fprintf(&b, "Description: %s\n\n", article.Excerpt)
	}
	if content := collapse(article.TextContent); content != "" {
		fmt.Fprintf(&b, "Content: %s", content)
	}
	return strings.TrimSpace(b.String())
}

// collapse trims every line and drops blank runs.
func collapse(s string) string {
	lines := strings.Split(s, "\n")
	out := lines[:0]
	for _, l := range lines {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return strings.Join(out, "\n")
}

func isHTML(contentType string, body []byte) bool {
	if strings.Contains(contentType, "text/html") {
		return true
	}
	prefix := strings.ToLower(strings.TrimSpace(string(body[:min(256, len(body))])))
	return strings.HasPrefix(prefix, "<!doctype") || strings.HasPrefix(prefix, "<html")
}

var (
	_ tools.Tool  = (*Tool)(nil)
	_ tools.Citer = (*Tool)(nil)
)

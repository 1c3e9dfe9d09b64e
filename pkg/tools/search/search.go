// Package search provides the google_search tool backed by the Google
// Custom Search JSON API.
package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/papercomputeco/parley/pkg/tools"
)

const (
	Name = "google_search"

	DefaultBaseURL = "https://www.googleapis.com/customsearch/v1"

	// DefaultResults is how many results a search returns.
	DefaultResults = 3
)

// Config configures the search tool.
type Config struct {
	APIKey   string
	EngineID string
	BaseURL  string
	Results  int

	HTTPClient *http.Client
}

// Tool is the google_search capability.
type Tool struct {
	apiKey     string
	engineID   string
	baseURL    string
	results    int
	httpClient *http.Client
}

// Result is one search hit.
type Result struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
}

// New creates the search tool. Both the API key and engine ID are required.
func New(c Config) (*Tool, error) {
	if c.APIKey == "" || c.EngineID == "" {
		return nil, errors.New("google api key and custom search engine id are required")
	}

	t := &Tool{
		apiKey:     c.APIKey,
		engineID:   c.EngineID,
		baseURL:    c.BaseURL,
		results:    c.Results,
		httpClient: c.HTTPClient,
	}
	if t.baseURL == "" {
		t.baseURL = DefaultBaseURL
	}
	if t.results <= 0 {
		t.results = DefaultResults
	}
	if t.httpClient == nil {
		t.httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return t, nil
}

func (t *Tool) Name() string { return Name }

func (t *Tool) Description() string {
	return "Search Google for recent results."
}

func (t *Tool) Parameters() map[string]any {
	return tools.ObjectSchema(map[string]string{
		"query": "The search query.",
	}, "query")
}

// Search returns the top results for q.
func (t *Tool) Search(ctx context.Context, q string) ([]Result, error) {
	params := url.Values{}
	params.Set("key", t.apiKey)
	params.Set("cx", t.engineID)
	params.Set("q", q)
	params.Set("num", strconv.Itoa(t.results))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("requesting search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("search api returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var body struct {
		Items []Result `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decoding search results: %w", err)
	}

	if len(body.Items) > t.results {
		body.Items = body.Items[:t.results]
	}
	return body.Items, nil
}

func (t *Tool) Invoke(ctx context.Context, args map[string]any) (string, error) {
	q, err := tools.StringArg(args, "query")
	if err != nil {
		return "", err
	}

	results, err := t.Search(ctx, q)
	if err != nil {
		return "", err
	}
	if len(results) == 0 {
		return "No good Google Search Result was found", nil
	}

	var b strings.Builder
	for i, r := range results {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "%d. %s\n%s\n%s", i+1, r.Title, r.Link, r.Snippet)
	}
	return b.String(), nil
}

// Citations returns the result links in output order.
func (t *Tool) Citations(_ map[string]any, output string) []string {
	var links []string
	for _, line := range strings.Split(output, "\n") {
		if strings.HasPrefix(line, "http://") || strings.HasPrefix(line, "https://") {
			links = append(links, line)
		}
	}
	return links
}

var (
	_ tools.Tool  = (*Tool)(nil)
	_ tools.Citer = (*Tool)(nil)
)

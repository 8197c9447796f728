package websearch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	ProviderDuckDuckGo = "duckduckgo"
	ProviderGoogle     = "google"

	defaultDuckDuckGoEndpoint = "https://api.duckduckgo.com/"
	defaultGoogleEndpoint     = "https://www.googleapis.com/customsearch/v1"
	maxTitleLength            = 100
	maxGoogleResults          = 10
)

var ErrNoResults = errors.New("web search returned no results")

type Config struct {
	Provider   string        `envconfig:"PROVIDER" split_words:"true" default:"duckduckgo"`
	Endpoint   string        `envconfig:"ENDPOINT" split_words:"true"`
	APIKey     string        `envconfig:"API_KEY" split_words:"true"`
	EngineID   string        `envconfig:"ENGINE_ID" split_words:"true"`
	MaxResults int           `envconfig:"MAX_RESULTS" split_words:"true" default:"3"`
	Timeout    time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"10s"`
}

type Result struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

type Option func(*Searcher)

func WithHTTPClient(client *http.Client) Option {
	return func(s *Searcher) {
		if client != nil {
			s.httpClient = client
		}
	}
}

// Searcher queries one configured web search provider.
type Searcher struct {
	provider   string
	endpoint   string
	apiKey     string
	engineID   string
	maxResults int
	httpClient *http.Client
}

func New(cfg Config, opts ...Option) (*Searcher, error) {
	provider := strings.ToLower(strings.TrimSpace(cfg.Provider))
	if provider == "" {
		provider = ProviderDuckDuckGo
	}

	endpoint := strings.TrimSpace(cfg.Endpoint)
	switch provider {
	case ProviderDuckDuckGo:
		if endpoint == "" {
			endpoint = defaultDuckDuckGoEndpoint
		}
	case ProviderGoogle:
		if endpoint == "" {
			endpoint = defaultGoogleEndpoint
		}
		if strings.TrimSpace(cfg.APIKey) == "" || strings.TrimSpace(cfg.EngineID) == "" {
			return nil, errors.New("google search requires api key and engine id")
		}
	default:
		return nil, fmt.Errorf("unsupported search provider %q", cfg.Provider)
	}
	if _, err := url.ParseRequestURI(endpoint); err != nil {
		return nil, fmt.Errorf("invalid search endpoint: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 3
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	s := &Searcher{
		provider:   provider,
		endpoint:   endpoint,
		apiKey:     strings.TrimSpace(cfg.APIKey),
		engineID:   strings.TrimSpace(cfg.EngineID),
		maxResults: maxResults,
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

// Search returns at most n results (the configured maximum when n <= 0),
// de-duplicated by URL. An empty result set is ErrNoResults.
func (s *Searcher) Search(ctx context.Context, query string, n int) ([]Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("search query is empty")
	}
	if n <= 0 {
		n = s.maxResults
	}

	var (
		results []Result
		err     error
	)
	switch s.provider {
	case ProviderGoogle:
		results, err = s.searchGoogle(ctx, query, n)
	default:
		results, err = s.searchDuckDuckGo(ctx, query, n)
	}
	if err != nil {
		return nil, fmt.Errorf("%s search: %w", s.provider, err)
	}

	results = dedupe(results)
	if len(results) == 0 {
		return nil, ErrNoResults
	}
	if len(results) > n {
		results = results[:n]
	}
	return results, nil
}

func (s *Searcher) searchDuckDuckGo(ctx context.Context, query string, n int) ([]Result, error) {
	u, err := url.Parse(s.endpoint)
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("q", query)
	q.Set("format", "json")
	q.Set("no_html", "1")
	q.Set("skip_disambig", "1")
	u.RawQuery = q.Encode()

	var payload struct {
		Heading        string `json:"Heading"`
		AbstractText   string `json:"AbstractText"`
		AbstractSource string `json:"AbstractSource"`
		AbstractURL    string `json:"AbstractURL"`
		RelatedTopics  []struct {
			Text     string `json:"Text"`
			FirstURL string `json:"FirstURL"`
		} `json:"RelatedTopics"`
	}
	if err := s.getJSON(ctx, u.String(), &payload); err != nil {
		return nil, err
	}

	results := make([]Result, 0, n)
	if text := strings.TrimSpace(payload.AbstractText); text != "" {
		title := strings.TrimSpace(payload.Heading)
		if title == "" {
			title = payload.AbstractSource
		}
		results = append(results, Result{Title: title, URL: payload.AbstractURL, Snippet: text})
	}
	for _, topic := range payload.RelatedTopics {
		if len(results) >= n {
			break
		}
		text := strings.TrimSpace(topic.Text)
		if text == "" || topic.FirstURL == "" {
			continue
		}
		results = append(results, Result{Title: truncate(text, maxTitleLength), URL: topic.FirstURL, Snippet: text})
	}
	return results, nil
}

func (s *Searcher) searchGoogle(ctx context.Context, query string, n int) ([]Result, error) {
	u, err := url.Parse(s.endpoint)
	if err != nil {
		return nil, err
	}
	params := url.Values{}
	params.Set("key", s.apiKey)
	params.Set("cx", s.engineID)
	params.Set("q", query)
	params.Set("num", fmt.Sprintf("%d", googleNum(n)))
	u.RawQuery = params.Encode()

	var payload struct {
		Items []struct {
			Link    string `json:"link"`
			Title   string `json:"title"`
			Snippet string `json:"snippet"`
			Mime    string `json:"mime"`
		} `json:"items"`
	}
	if err := s.getJSON(ctx, u.String(), &payload); err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(payload.Items))
	for _, item := range payload.Items {
		if item.Mime != "" && !strings.Contains(item.Mime, "html") {
			continue
		}
		results = append(results, Result{Title: item.Title, URL: item.Link, Snippet: strings.TrimSpace(item.Snippet)})
	}
	return results, nil
}

// googleNum clamps n to the 1..10 range the Custom Search API accepts.
func googleNum(n int) int {
	switch {
	case n < 1:
		return 1
	case n > maxGoogleResults:
		return maxGoogleResults
	default:
		return n
	}
}

func (s *Searcher) getJSON(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "agentic-query-router/1.0")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("search api returned status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func dedupe(in []Result) []Result {
	seen := make(map[string]struct{}, len(in))
	out := make([]Result, 0, len(in))
	for _, r := range in {
		if strings.TrimSpace(r.Snippet) == "" {
			continue
		}
		if r.URL != "" {
			if _, ok := seen[r.URL]; ok {
				continue
			}
			seen[r.URL] = struct{}{}
		}
		out = append(out, r)
	}
	return out
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

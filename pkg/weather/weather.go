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
)

var (
	ErrCityNotFound = errors.New("city not found")
	ErrRateLimited  = errors.New("weather quota exhausted")
	ErrUpstream     = errors.New("weather service failed")
)

const maxResponseSizeBytes = 1 << 20

type Config struct {
	BaseURL string        `envconfig:"BASE_URL" split_words:"true" default:"https://api.openweathermap.org/data/2.5"`
	APIKey  string        `envconfig:"API_KEY" split_words:"true" required:"true"`
	Units   string        `envconfig:"UNITS" split_words:"true" default:"metric"`
	Timeout time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"10s"`
}

// Summary is the normalized current weather for one city.
type Summary struct {
	City        string  `json:"city"`
	Group       string  `json:"group"`
	Condition   string  `json:"condition"`
	Temperature float64 `json:"temperature"`
	Humidity    int     `json:"humidity"`
	Units       string  `json:"units"`
}

func (s Summary) String() string {
	return fmt.Sprintf("Weather in %s: %s, Temp: %s", s.City, s.Description(), s.Temp())
}

// Description is the condition text, falling back to the lowered group.
func (s Summary) Description() string {
	if condition := strings.TrimSpace(s.Condition); condition != "" {
		return condition
	}
	return strings.ToLower(strings.TrimSpace(s.Group))
}

// Temp renders the temperature with its unit symbol, e.g. "29.5°C".
func (s Summary) Temp() string {
	return fmt.Sprintf("%.1f%s", s.Temperature, unitSymbol(s.Units))
}

func unitSymbol(units string) string {
	switch strings.ToLower(strings.TrimSpace(units)) {
	case "imperial":
		return "°F"
	case "standard":
		return "K"
	default:
		return "°C"
	}
}

type Option func(*Client)

func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// Client talks to the OpenWeatherMap current weather endpoint. Every Fetch
// is a live request.
type Client struct {
	baseURL    string
	apiKey     string
	units      string
	httpClient *http.Client
}

func NewClient(cfg Config, opts ...Option) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("weather base url is required")
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid weather base url: %w", err)
	}
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("weather api key is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	units := strings.TrimSpace(cfg.Units)
	if units == "" {
		units = "metric"
	}

	c := &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		units:   units,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c, nil
}

func MustNew(cfg Config, opts ...Option) *Client {
	c, err := NewClient(cfg, opts...)
	if err != nil {
		panic(err)
	}
	return c
}

type currentWeatherResponse struct {
	Name    string `json:"name"`
	Weather []struct {
		Main        string `json:"main"`
		Description string `json:"description"`
	} `json:"weather"`
	Main struct {
		Temp     float64 `json:"temp"`
		Humidity int     `json:"humidity"`
	} `json:"main"`
	Message string `json:"message"`
}

func (c *Client) Fetch(ctx context.Context, city string) (Summary, error) {
	city = strings.TrimSpace(city)
	if city == "" {
		return Summary{}, fmt.Errorf("%w: empty city name", ErrCityNotFound)
	}

	q := url.Values{}
	q.Set("q", city)
	q.Set("appid", c.apiKey)
	q.Set("units", c.units)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/weather?"+q.Encode(), nil)
	if err != nil {
		return Summary{}, fmt.Errorf("%w: build request: %v", ErrUpstream, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Summary{}, fmt.Errorf("%w: execute request: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSizeBytes))
	if err != nil {
		return Summary{}, fmt.Errorf("%w: read response: %v", ErrUpstream, err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return Summary{}, fmt.Errorf("%w: city=%q", ErrCityNotFound, city)
	case resp.StatusCode == http.StatusTooManyRequests:
		return Summary{}, ErrRateLimited
	case resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices:
		return Summary{}, fmt.Errorf("%w: http status=%d", ErrUpstream, resp.StatusCode)
	}

	var parsed currentWeatherResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return Summary{}, fmt.Errorf("%w: decode response: %v", ErrUpstream, err)
	}
	if len(parsed.Weather) == 0 {
		return Summary{}, fmt.Errorf("%w: response has no weather conditions", ErrUpstream)
	}

	name := strings.TrimSpace(parsed.Name)
	if name == "" {
		name = city
	}
	return Summary{
		City:        name,
		Group:       strings.TrimSpace(parsed.Weather[0].Main),
		Condition:   strings.TrimSpace(parsed.Weather[0].Description),
		Temperature: parsed.Main.Temp,
		Humidity:    parsed.Main.Humidity,
		Units:       c.units,
	}, nil
}

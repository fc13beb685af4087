package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"
)

const (
	DefaultURL       = "https://cccsonline.click/gia-vang-giao-thuy"
	DefaultTimeout   = 15 * time.Second
	DefaultUserAgent = "giavang-mcp/1.0"

	DefaultMaxBodyBytes = 4 << 20
)

type FetcherConfig struct {
	URL       string
	Timeout   time.Duration
	RateLimit float64 // requests per second, shared by all tool calls
	UserAgent string
	// MaxBodyBytes rejects larger pages instead of parsing a truncated table.
	MaxBodyBytes int64
	Client       *http.Client
}

// Fetcher downloads the gold-price page. It holds no per-request state and is
// safe for concurrent use.
type Fetcher struct {
	config  FetcherConfig
	client  *http.Client
	limiter *rate.Limiter
}

func NewWithConfig(config FetcherConfig) (*Fetcher, error) {
	if config.URL == "" {
		config.URL = DefaultURL
	}
	if config.Timeout == 0 {
		config.Timeout = DefaultTimeout
	}
	if config.RateLimit == 0 {
		config.RateLimit = 1
	}
	if config.UserAgent == "" {
		config.UserAgent = DefaultUserAgent
	}
	if config.MaxBodyBytes == 0 {
		config.MaxBodyBytes = DefaultMaxBodyBytes
	}

	parsedURL, err := url.Parse(config.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid source URL %q: %w", config.URL, err)
	}
	if !parsedURL.IsAbs() || parsedURL.Host == "" {
		return nil, fmt.Errorf("source URL must be absolute: %q", config.URL)
	}

	client := &http.Client{}
	if config.Client != nil {
		c := *config.Client
		client = &c
	}
	client.Timeout = config.Timeout

	return &Fetcher{
		config:  config,
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(config.RateLimit), 1),
	}, nil
}

func New() *Fetcher {
	f, _ := NewWithConfig(FetcherConfig{})
	return f
}

func (f *Fetcher) URL() string {
	return f.config.URL
}

// Fetch performs a single GET against the configured URL. Any non-2xx status
// is reported as an error, the same as a transport failure. There is no retry.
// The configured timeout covers the limiter wait as well as the request, so a
// call never blocks longer than Timeout.
func (f *Fetcher) Fetch(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, f.config.Timeout)
	defer cancel()

	if err := f.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("waiting for fetch slot: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.config.URL, http.NoBody)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", f.config.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("received status code %d for URL: %s", resp.StatusCode, f.config.URL)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.config.MaxBodyBytes+1))
	if err != nil {
		return "", fmt.Errorf("reading response body: %w", err)
	}
	if int64(len(body)) > f.config.MaxBodyBytes {
		return "", fmt.Errorf("response body exceeds %d bytes for URL: %s", f.config.MaxBodyBytes, f.config.URL)
	}

	return string(body), nil
}

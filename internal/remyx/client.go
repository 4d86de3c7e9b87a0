// Package remyx talks to the Remyx engine API: model summaries (to learn a
// model's kind) and deployment package downloads.
package remyx

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog"
)

// DefaultBaseURL is the public engine API.
const DefaultBaseURL = "https://engine.remyx.ai/api/v1.0/"

// ErrMissingAPIKey is returned by calls made without REMYXAI_API_KEY.
var ErrMissingAPIKey = errors.New("REMYXAI_API_KEY is not set")

// Config configures a Client.
type Config struct {
	BaseURL string
	APIKey  string
	Logger  zerolog.Logger
	// RetryMax bounds retries of idempotent requests on 5xx and transport errors.
	RetryMax     int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
	UserAgent    string
}

// Client is a thin engine API client.
type Client struct {
	base   *url.URL
	apiKey string
	ua     string
	http   *retryablehttp.Client
	log    zerolog.Logger
}

// New builds a Client. It fails only on a malformed base URL.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if !strings.HasSuffix(cfg.BaseURL, "/") {
		cfg.BaseURL += "/"
	}
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url %q: %w", cfg.BaseURL, err)
	}
	rc := retryablehttp.NewClient()
	rc.Logger = leveledLogger{log: cfg.Logger}
	if cfg.RetryMax > 0 {
		rc.RetryMax = cfg.RetryMax
	}
	if cfg.RetryWaitMin > 0 {
		rc.RetryWaitMin = cfg.RetryWaitMin
	}
	if cfg.RetryWaitMax > 0 {
		rc.RetryWaitMax = cfg.RetryWaitMax
	}
	ua := cfg.UserAgent
	if ua == "" {
		ua = "remyxai-cli"
	}
	return &Client{base: base, apiKey: cfg.APIKey, ua: ua, http: rc, log: cfg.Logger}, nil
}

// Close releases idle connections.
func (c *Client) Close() { c.http.HTTPClient.CloseIdleConnections() }

func (c *Client) get(ctx context.Context, elem ...string) (*http.Response, error) {
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	u := c.base.JoinPath(elem...)
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("User-Agent", c.ua)
	c.log.Debug().Str("event", "api_request").Str("url", u.String()).Msg("remyx")
	return c.http.Do(req)
}

// apiError describes a non-2xx engine response.
type apiError struct {
	URL    string
	Status int
	Body   string
}

func (e *apiError) Error() string {
	msg := fmt.Sprintf("remyx api %s: %d %s", e.URL, e.Status, http.StatusText(e.Status))
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

func checkResponse(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	return &apiError{URL: resp.Request.URL.String(), Status: resp.StatusCode, Body: strings.TrimSpace(string(b))}
}

// Package meta implements the Graph API client used for the OAuth token
// lifecycle, business media fetching and oEmbed lookups.
package meta

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/feedgrid/feedgrid/internal/apperr"
)

// DefaultGraphBase is the production Graph API endpoint.
const DefaultGraphBase = "https://graph.facebook.com/v18.0"

// tokenExpiredCode is the Graph API error code for expired or invalidated
// access tokens.
const tokenExpiredCode = 190

// Config carries the app credentials and transport settings for a Client.
type Config struct {
	AppID       string
	AppSecret   string
	RedirectURI string
	// GraphBase overrides DefaultGraphBase, mainly for tests.
	GraphBase string
	Timeout   time.Duration
}

func (c Config) graphBase() string {
	if c.GraphBase != "" {
		return c.GraphBase
	}
	return DefaultGraphBase
}

// fingerprint identifies a configuration for the factory cache. Tokens and
// secrets participate so a rotated secret drops the cached client.
func (c Config) fingerprint() string {
	return c.AppID + "|" + c.AppSecret + "|" + c.RedirectURI + "|" + c.graphBase()
}

// Client performs Graph API calls with one configuration.
type Client struct {
	cfg  Config
	http *http.Client
}

// NewClient builds a Client. It fails with apperr.ErrConfiguration when app
// credentials are missing, so a misconfigured deployment surfaces as
// service-unavailable instead of leaking partial OAuth flows.
func NewClient(cfg Config) (*Client, error) {
	if cfg.AppID == "" || cfg.AppSecret == "" || cfg.RedirectURI == "" {
		return nil, fmt.Errorf("%w: meta app credentials are not configured", apperr.ErrConfiguration)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: timeout},
	}, nil
}

// Factory hands out a Client for the current configuration. Clients are
// constructed on demand, cached by configuration fingerprint, and dropped
// when the configuration changes — no hidden process-wide client handle.
type Factory struct {
	mu          sync.Mutex
	cfg         Config
	fingerprint string
	client      *Client
}

// NewFactory returns a Factory seeded with cfg.
func NewFactory(cfg Config) *Factory {
	return &Factory{cfg: cfg}
}

// Client returns the cached client for the current configuration, building
// it on first use.
func (f *Factory) Client() (*Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	fp := f.cfg.fingerprint()
	if f.client != nil && f.fingerprint == fp {
		return f.client, nil
	}

	client, err := NewClient(f.cfg)
	if err != nil {
		return nil, err
	}
	f.client = client
	f.fingerprint = fp
	return client, nil
}

// Update swaps in a new configuration and invalidates the cached client.
func (f *Factory) Update(cfg Config) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cfg = cfg
	f.client = nil
	f.fingerprint = ""
}

// apiError is the decoded Graph API error body.
type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    int    `json:"code"`
}

type errorEnvelope struct {
	Error *apiError `json:"error"`
}

// get performs a GET against path with params and decodes the JSON response
// into out. Non-2xx responses are classified onto the error taxonomy; the
// raw upstream body never crosses out of this package.
func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.cfg.graphBase()+path+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("%w: build request: %v", apperr.ErrUpstream, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrUpstream, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%w: read response: %v", apperr.ErrUpstream, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var envelope errorEnvelope
		_ = json.Unmarshal(body, &envelope)
		if envelope.Error != nil {
			if envelope.Error.Code == tokenExpiredCode {
				return fmt.Errorf("%w: graph api code %d", apperr.ErrTokenExpired, envelope.Error.Code)
			}
			if envelope.Error.Type == "OAuthException" {
				return fmt.Errorf("%w: graph api code %d", apperr.ErrOAuth, envelope.Error.Code)
			}
		}
		return fmt.Errorf("%w: graph api status %d", apperr.ErrUpstream, resp.StatusCode)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: decode response: %v", apperr.ErrUpstream, err)
	}
	return nil
}

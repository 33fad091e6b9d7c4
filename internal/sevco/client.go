package sevco

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL is the fixed base of the versioned asset API.
	DefaultBaseURL = "https://api.sev.co"

	// DefaultConsoleURL is the base of the web console, used to build
	// deep links into the device inventory.
	DefaultConsoleURL = "https://my.sev.co"

	defaultFacetTimeout = 10 * time.Second
)

// Credentials holds the static API credentials read from the settings
// store. All three fields must be present before any API call is made.
type Credentials struct {
	APIKey  string `json:"api_key"`
	OrgID   string `json:"org_id"`
	OrgSlug string `json:"org_slug"`
}

// Complete reports whether every credential field is set.
func (c Credentials) Complete() bool {
	return c.APIKey != "" && c.OrgID != "" && c.OrgSlug != ""
}

// missing lists the unset credential fields for error messages.
func (c Credentials) missing() string {
	var fields []string
	if c.APIKey == "" {
		fields = append(fields, "api_key")
	}
	if c.OrgID == "" {
		fields = append(fields, "org_id")
	}
	if c.OrgSlug == "" {
		fields = append(fields, "org_slug")
	}
	return strings.Join(fields, ", ")
}

// RateLimiter wraps a token-bucket limiter applied to outgoing API calls.
type RateLimiter struct {
	Limiter *rate.Limiter
	Burst   int
	Rate    rate.Limit // Requests per second
}

// Client talks to the Sevco asset-inventory REST API. Credentials are
// passed into every call rather than held on the client so callers stay
// testable in isolation.
type Client struct {
	BaseURL      string
	ConsoleURL   string
	Client       *http.Client
	RateLimiter  *RateLimiter
	FacetTimeout time.Duration
}

// NewClient initializes a Client against the production API.
func NewClient() *Client {
	return &Client{
		BaseURL:      DefaultBaseURL,
		ConsoleURL:   DefaultConsoleURL,
		Client:       &http.Client{Timeout: 30 * time.Second},
		FacetTimeout: defaultFacetTimeout,
	}
}

// SetRateLimiter sets the rate limiter for the client.
func (c *Client) SetRateLimiter(limiter *RateLimiter) {
	c.RateLimiter = limiter
}

// DeviceConsoleURL builds the console deep link for a device.
func (c *Client) DeviceConsoleURL(orgSlug, deviceID string) string {
	slug := orgSlug
	if slug == "" {
		slug = "org"
	}
	return fmt.Sprintf("%s/%s/inventory/%s", c.ConsoleURL, slug, deviceID)
}

// postJSON sends an authenticated POST to path and decodes the response
// into out. Error mapping follows the client contract: transport failures
// become NetworkError, 401/403 AuthError, 404 EndpointError, any other
// non-2xx APIError with the body text, and a malformed body ParseError.
func (c *Client) postJSON(ctx context.Context, creds Credentials, path string, body interface{}, out interface{}) error {
	if c.RateLimiter != nil {
		if err := c.RateLimiter.Limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter error: %w", err)
		}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("authorization", "Token "+creds.APIKey)
	req.Header.Set("x-sevco-target-org", creds.OrgID)

	resp, err := c.Client.Do(req)
	if err != nil {
		return &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	if err := checkStatus(resp, path); err != nil {
		return err
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &ParseError{Err: err}
	}
	return nil
}

// checkStatus maps a non-success HTTP status to the error taxonomy.
func checkStatus(resp *http.Response, path string) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return &AuthError{Status: resp.StatusCode}
	case http.StatusNotFound:
		return &EndpointError{Path: path}
	default:
		text, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if err != nil {
			text = []byte("unknown error")
		}
		return &APIError{Status: resp.StatusCode, Body: strings.TrimSpace(string(text))}
	}
}

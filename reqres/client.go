// Package reqres implements the HTTP client used to exercise the reqres.in REST API.
package reqres

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

	"github.com/ethereum/go-ethereum/log"

	"github.com/ethereum-optimism/infra/api-acceptor/metrics"
)

const (
	DefaultBaseURL   = "https://reqres.in"
	DefaultAPIKey    = "reqres-free-v1"
	DefaultTimeout   = 30 * time.Second
	DefaultUserAgent = "api-acceptor/dev"

	APIKeyHeader    = "x-api-key"
	UserAgentHeader = "User-Agent"

	UsersEndpoint = "/api/users"
)

// ExchangeRecorder receives the details of every HTTP exchange.
// *reporting.TestCase satisfies it.
type ExchangeRecorder interface {
	LogRequest(method, url, body string)
	LogResponse(statusCode int, method, endpoint, body string)
	LogHeader(name, value string)
}

type nopRecorder struct{}

func (nopRecorder) LogRequest(string, string, string) {}

func (nopRecorder) LogResponse(int, string, string, string) {}

func (nopRecorder) LogHeader(string, string) {}

// Config holds the client configuration
type Config struct {
	Log        log.Logger
	BaseURL    string
	APIKey     string
	UserAgent  string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client talks to the reqres API
type Client struct {
	log       log.Logger
	baseURL   *url.URL
	apiKey    string
	userAgent string
	http      *http.Client
}

// NewClient creates a new reqres client
func NewClient(cfg Config) (*Client, error) {
	if cfg.Log == nil {
		cfg.Log = log.New()
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL '%s': %w", cfg.BaseURL, err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("invalid base URL '%s': scheme must be http or https", cfg.BaseURL)
	}
	if base.Host == "" {
		return nil, fmt.Errorf("invalid base URL '%s': missing host", cfg.BaseURL)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &Client{
		log:       cfg.Log,
		baseURL:   base,
		apiKey:    cfg.APIKey,
		userAgent: cfg.UserAgent,
		http:      httpClient,
	}, nil
}

// BaseURL returns the base URL requests are resolved against
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// Get performs a GET request for the given path and reads the full body.
// Non-2xx responses are not errors; callers assert on the status code.
func (c *Client) Get(ctx context.Context, rec ExchangeRecorder, path string) (*Response, error) {
	return c.do(ctx, rec, http.MethodGet, path, nil)
}

// ListUsers fetches one page of the users list
func (c *Client) ListUsers(ctx context.Context, rec ExchangeRecorder, page int) (*UsersPage, *Response, error) {
	resp, err := c.Get(ctx, rec, fmt.Sprintf("%s?page=%d", UsersEndpoint, page))
	if err != nil {
		return nil, nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, resp, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, resp.Endpoint)
	}

	var users UsersPage
	if err := json.Unmarshal(resp.Body, &users); err != nil {
		return nil, resp, fmt.Errorf("failed to decode users page: %w", err)
	}
	return &users, resp, nil
}

func (c *Client) do(ctx context.Context, rec ExchangeRecorder, method, path string, body []byte) (*Response, error) {
	if rec == nil {
		rec = nopRecorder{}
	}

	ref, err := url.Parse(path)
	if err != nil {
		return nil, fmt.Errorf("invalid request path '%s': %w", path, err)
	}
	target := c.baseURL.ResolveReference(ref)

	var reqBody io.Reader
	if body != nil {
		reqBody = strings.NewReader(string(body))
	}
	req, err := http.NewRequestWithContext(ctx, method, target.String(), reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set(UserAgentHeader, c.userAgent)
	if c.apiKey != "" {
		req.Header.Set(APIKeyHeader, c.apiKey)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	rec.LogRequest(method, target.String(), string(body))
	rec.LogHeader(UserAgentHeader, c.userAgent)
	if c.apiKey != "" {
		rec.LogHeader(APIKeyHeader, MaskSecret(c.apiKey))
	}

	endpoint := ref.Path
	start := time.Now()
	httpResp, err := c.http.Do(req)
	if err != nil {
		metrics.RecordHTTPRequest(method, endpoint, 0, time.Since(start))
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("request %s %s aborted: %w", method, path, err)
		}
		return nil, fmt.Errorf("request %s %s failed: %w", method, path, err)
	}
	defer func() {
		_ = httpResp.Body.Close()
	}()

	respBody, err := io.ReadAll(httpResp.Body)
	duration := time.Since(start)
	metrics.RecordHTTPRequest(method, endpoint, httpResp.StatusCode, duration)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body from %s %s: %w", method, path, err)
	}

	rec.LogResponse(httpResp.StatusCode, method, path, string(respBody))
	c.log.Debug("HTTP exchange",
		"method", method,
		"url", target.String(),
		"status", httpResp.StatusCode,
		"duration", duration,
		"bytes", len(respBody))

	return &Response{
		Method:     method,
		Endpoint:   path,
		StatusCode: httpResp.StatusCode,
		Body:       respBody,
		Duration:   duration,
	}, nil
}

// MaskSecret keeps the first four characters of a secret
func MaskSecret(secret string) string {
	if len(secret) <= 4 {
		return strings.Repeat("*", len(secret))
	}
	return secret[:4] + strings.Repeat("*", len(secret)-4)
}

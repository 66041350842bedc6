package redmine

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/redwiki/redwiki/internal/throttle"
)

// Default client settings.
const (
	// defaultMaxBodySize caps response bodies to prevent memory
	// exhaustion from a misbehaving server. Attachments dominate, and
	// 100MB covers anything a wiki realistically embeds.
	defaultMaxBodySize = 100 * 1024 * 1024

	// defaultUserAgent identifies redwiki in server logs.
	defaultUserAgent = "redwiki/1.0 (+https://github.com/redwiki/redwiki)"
)

// Client issues GET requests against a Redmine server, serializing every
// request through a shared throttle lane and retrying transient failures.
//
// Design decision: We hold the throttle and retry policy inside the client
// rather than in the crawler because:
//  1. Every network call must pass through them, without exception
//  2. The crawler stays focused on API semantics and pagination
//  3. Tests can disable throttling by constructing a zero-interval lane
type Client struct {
	// baseURL is the Redmine server root, without trailing slash.
	baseURL string

	// httpClient performs the actual requests.
	httpClient *http.Client

	// user and password are optional basic-auth credentials.
	user     string
	password string

	// lane is the single throttle lane shared by all requests.
	lane *throttle.Throttle

	// retry wraps each request with bounded exponential backoff.
	retry *RetryPolicy

	// maxBodySize limits response bodies read into memory.
	maxBodySize int64

	// userAgent is sent with every request.
	userAgent string

	// logger records request activity at debug level.
	logger *slog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithBasicAuth sets basic-auth credentials for all requests.
func WithBasicAuth(user, password string) ClientOption {
	return func(c *Client) {
		c.user = user
		c.password = password
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithInsecureTLS disables TLS certificate verification.
// Intended for self-signed internal Redmine instances.
func WithInsecureTLS(insecure bool) ClientOption {
	return func(c *Client) {
		if !insecure {
			return
		}
		c.httpClient.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true}, //nolint:gosec // Explicit user opt-in for self-signed servers
		}
	}
}

// WithRetryPolicy sets the retry policy for all requests.
func WithRetryPolicy(policy *RetryPolicy) ClientOption {
	return func(c *Client) {
		c.retry = policy
	}
}

// WithMaxBodySize sets the maximum response body size.
func WithMaxBodySize(size int64) ClientOption {
	return func(c *Client) {
		c.maxBodySize = size
	}
}

// WithUserAgent sets a custom User-Agent header.
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithLogger sets the logger for request activity.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a Client for the given Redmine base URL. All requests
// pass through the given throttle lane; the caller owns the lane and must
// Close it after the crawl.
func NewClient(baseURL string, lane *throttle.Throttle, opts ...ClientOption) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid server URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid server URL %q: scheme must be http or https", baseURL)
	}

	c := &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		httpClient:  &http.Client{},
		lane:        lane,
		maxBodySize: defaultMaxBodySize,
		userAgent:   defaultUserAgent,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.retry == nil {
		c.retry = NewRetryPolicy(0, 0, c.logger)
	}

	return c, nil
}

// BaseURL returns the configured server root without trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Get fetches path (server-relative, starting with "/") with the given
// query values. The request passes through the retry policy, and each
// attempt occupies one slot in the throttle lane, so backoff waits do not
// block other queued requests.
//
// The returned response has its body already consumed and closed; status
// and headers remain readable. Interpreting the status code is the
// caller's responsibility.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (*http.Response, []byte, error) {
	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	return c.retry.Do(ctx, func(ctx context.Context) (*http.Response, []byte, error) {
		var (
			resp *http.Response
			body []byte
			err  error
		)
		laneErr := c.lane.Do(ctx, func() {
			resp, body, err = c.get(ctx, reqURL)
		})
		if laneErr != nil {
			return nil, nil, laneErr
		}
		return resp, body, err
	})
}

// get performs one raw request attempt.
func (c *Client) get(ctx context.Context, reqURL string) (*http.Response, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, nil, err
	}

	req.Header.Set("User-Agent", c.userAgent)
	if c.user != "" {
		req.SetBasicAuth(c.user, c.password)
	}

	c.logger.Debug("request", "url", reqURL)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodySize))
	if err != nil {
		return resp, nil, err
	}

	return resp, body, nil
}

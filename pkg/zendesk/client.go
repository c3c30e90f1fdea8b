package zendesk

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	apperrors "github.com/kagent-dev/zendesk-mcp/pkg/errors"
)

const (
	apiPrefix            = "/api/v2"
	DefaultTimeout       = 30 * time.Second
	DefaultSearchTimeout = 10 * time.Second
	maxErrorBody         = 512
)

// RequestObserver is told about every completed outbound call. status is 0
// when no response was received.
type RequestObserver func(method string, status int)

// Client issues authenticated requests against one Zendesk deployment.
// It performs no retries: a failed call is reported once.
type Client struct {
	origin        string
	baseURL       string
	authorization string
	httpClient    *http.Client
	limiter       *rate.Limiter
	timeout       time.Duration
	searchTimeout time.Duration
	observer      RequestObserver
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithOrigin overrides the origin derived from the subdomain
func WithOrigin(origin string) Option {
	return func(c *Client) {
		if origin != "" {
			c.origin = strings.TrimRight(origin, "/")
		}
	}
}

// WithTimeout bounds every call that has no more specific timeout
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithSearchTimeout bounds the latency-sensitive help center calls
func WithSearchTimeout(d time.Duration) Option {
	return func(c *Client) { c.searchTimeout = d }
}

// WithRateLimit caps outbound calls per second. Zero disables the limiter.
func WithRateLimit(perSecond float64) Option {
	return func(c *Client) {
		if perSecond > 0 {
			burst := int(perSecond)
			if burst < 1 {
				burst = 1
			}
			c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
		}
	}
}

// WithRequestObserver registers a callback for completed calls
func WithRequestObserver(observer RequestObserver) Option {
	return func(c *Client) { c.observer = observer }
}

// NewClient creates a new Client
func NewClient(creds Credentials, opts ...Option) (*Client, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}

	c := &Client{
		origin:        creds.Origin(),
		authorization: creds.Authorization(),
		httpClient:    &http.Client{},
		timeout:       DefaultTimeout,
		searchTimeout: DefaultSearchTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.baseURL = c.origin + apiPrefix

	return c, nil
}

// Origin returns the deployment origin, e.g. https://acme.zendesk.com
func (c *Client) Origin() string {
	return c.origin
}

// RelativePath turns an absolute continuation URL served by Zendesk into a
// path relative to the API base so it can be fed back into Get.
func (c *Client) RelativePath(ref string) string {
	if strings.HasPrefix(ref, c.baseURL) {
		return strings.TrimPrefix(ref, c.baseURL)
	}
	if strings.HasPrefix(ref, c.origin) {
		return strings.TrimPrefix(strings.TrimPrefix(ref, c.origin), apiPrefix)
	}

	u, err := url.Parse(ref)
	if err != nil || u.Path == "" {
		return ref
	}
	rel := strings.TrimPrefix(u.Path, apiPrefix)
	if u.RawQuery != "" {
		rel += "?" + u.RawQuery
	}
	return rel
}

// Get issues a GET for path (relative to the API base) and decodes into out
func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, out, c.timeout)
}

// Post issues a POST with a JSON body and decodes the response into out
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, nil, body, out, c.timeout)
}

// Put issues a PUT with a JSON body and decodes the response into out
func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPut, path, nil, body, out, c.timeout)
}

func (c *Client) search(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, out, c.searchTimeout)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any, timeout time.Duration) error {
	target, err := c.resolve(path, query)
	if err != nil {
		return remoteError(method, path, "invalid request path", err)
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return remoteError(method, path, "rate limiter", err)
		}
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return remoteError(method, path, "failed to marshal request", err)
		}
		reader = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return remoteError(method, path, "failed to create request", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Authorization", c.authorization)
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.observe(method, 0)
		if errors.Is(err, context.DeadlineExceeded) {
			return remoteError(method, path, fmt.Sprintf("timed out after %v", timeout), err)
		}
		return remoteError(method, path, "failed to send request", err)
	}
	defer resp.Body.Close()
	c.observe(method, resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return remoteError(method, path,
			fmt.Sprintf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(excerpt))), nil)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return remoteError(method, path, "failed to decode response", err)
	}
	return nil
}

func (c *Client) resolve(path string, query url.Values) (string, error) {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		return "", err
	}
	if len(query) > 0 {
		q := u.Query()
		for key, values := range query {
			for _, v := range values {
				q.Add(key, v)
			}
		}
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

func (c *Client) observe(method string, status int) {
	if c.observer != nil {
		c.observer(method, status)
	}
}

func remoteError(method, path, message string, cause error) error {
	return apperrors.New(apperrors.ErrCodeRemoteCall,
		fmt.Sprintf("Zendesk %s %s: %s", method, path, message), cause)
}

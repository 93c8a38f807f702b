package connect

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"

	"kosmos/internal/platform/config"
	"kosmos/internal/platform/metrics"
	"kosmos/internal/platform/redis"
)

// Client is the HTTP client shared by all connectors. It enforces the
// per-source minimum inter-request interval, retries transient failures
// with bounded exponential backoff, classifies HTTP outcomes into the
// connector error taxonomy, and optionally serves repeated GETs from a
// Redis read-through cache.
type Client struct {
	httpc   *http.Client
	limiter *rate.Limiter
	source  string
	baseURL string
	headers map[string]string
	retry   config.Retry
	cache   *redis.Client
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// Option configures the Client.
type Option func(*Client)

// WithLogger sets a logger for retry and failure reporting.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithCache sets the optional response cache. A nil client disables it.
func WithCache(cache *redis.Client) Option {
	return func(c *Client) { c.cache = cache }
}

// WithHeader adds a header to every request, e.g. an API key.
func WithHeader(key, value string) Option {
	return func(c *Client) { c.headers[key] = value }
}

// WithHTTPClient swaps the underlying http.Client, mainly for tests.
func WithHTTPClient(httpc *http.Client) Option {
	return func(c *Client) { c.httpc = httpc }
}

// NewClient builds a client for one source. The limiter is sized from
// the source's configured minimum interval and burst.
func NewClient(src config.Source, retry config.Retry, opts ...Option) *Client {
	burst := src.Burst
	if burst < 1 {
		burst = 1
	}
	limit := rate.Inf
	if src.MinInterval > 0 {
		limit = rate.Every(src.MinInterval)
	}
	c := &Client{
		httpc:   &http.Client{Timeout: src.Timeout},
		limiter: rate.NewLimiter(limit, burst),
		source:  src.Name,
		baseURL: src.BaseURL,
		headers: map[string]string{"Accept": "application/json"},
		retry:   retry,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetJSON fetches path with params and decodes the JSON body into v.
// A body that does not parse is a permanent (malformed payload) error.
func (c *Client) GetJSON(ctx context.Context, path string, params url.Values, v any) error {
	body, err := c.GetBytes(ctx, path, params)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return NewError(ClassPermanent, c.source, "malformed payload", err)
	}
	return nil
}

// GetBytes fetches path with params and returns the raw body. Transient
// failures (timeout, 429, 5xx) are retried up to the configured attempt
// budget before being surfaced.
func (c *Client) GetBytes(ctx context.Context, path string, params url.Values) ([]byte, error) {
	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	cacheKey := "kosmos:http:" + reqURL
	if body, ok := c.cache.GetBody(ctx, cacheKey); ok {
		return body, nil
	}

	var body []byte
	operation := func() error {
		var err error
		body, err = c.doOnce(ctx, reqURL)
		if err != nil && !IsRetryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	notify := func(err error, next time.Duration) {
		c.metrics.IncRetry(c.source)
		if c.logger != nil {
			c.logger.WarnContext(ctx, "transient connector error, retrying",
				"source", c.source,
				"url", reqURL,
				"backoff", next,
				"error", err,
			)
		}
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.retry.InitialInterval
	bo.MaxInterval = c.retry.MaxInterval

	attempts := uint64(c.retry.MaxAttempts)
	if attempts > 0 {
		attempts-- // MaxRetries counts retries, not attempts
	}
	err := backoff.RetryNotify(operation, backoff.WithContext(backoff.WithMaxRetries(bo, attempts), ctx), notify)
	if err != nil {
		if IsRetryable(err) {
			// Retry budget exhausted on a transient error: it is now
			// permanent for this page.
			err = NewError(ClassPermanent, c.source, "retries exhausted", err)
		}
		c.metrics.IncError(c.source, string(ClassOf(err)))
		return nil, err
	}

	c.cache.PutBody(ctx, cacheKey, body)
	return body, nil
}

// doOnce performs a single rate-limited request and classifies the
// outcome.
func (c *Client) doOnce(ctx context.Context, reqURL string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, NewError(ClassPermanent, c.source, "cancelled while rate limited", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, NewError(ClassPermanent, c.source, "build request", err)
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := c.httpc.Do(req)
	c.metrics.ObserveRequest(c.source, time.Since(start))
	if err != nil {
		if ctx.Err() != nil {
			return nil, NewError(ClassPermanent, c.source, "cancelled", ctx.Err())
		}
		// Network-level failures and client timeouts are transient.
		return nil, NewError(ClassTransient, c.source, "request failed", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, NewError(ClassTransient, c.source, fmt.Sprintf("status %d", resp.StatusCode), nil)
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, NewError(ClassAuth, c.source, fmt.Sprintf("status %d", resp.StatusCode), nil)
	default:
		return nil, NewError(ClassPermanent, c.source, fmt.Sprintf("status %d", resp.StatusCode), nil)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, NewError(ClassTransient, c.source, "read body", err)
	}
	return body, nil
}

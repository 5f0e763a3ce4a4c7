package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/altmunch/SocialSchedule-sub011/pkg/limits/ratelimit"
)

// Request describes one platform HTTP call relative to Config.BaseURL.
type Request struct {
	Method  string
	Path    string
	Query   url.Values
	Body    any
	Headers map[string]string
}

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Client is the base implementation shared by the platform adapters. It
// owns a paced request queue, a pooled HTTP client and health bookkeeping.
//
// Concrete adapters embed *Client and pass themselves as Hooks so the client
// can apply their auth headers and rate limit parsing to every response.
type Client struct {
	config Config
	hooks  Hooks
	logger *slog.Logger

	// client is the HTTP client with connection pooling
	client *http.Client

	// queue paces every request this client sends
	queue *ratelimit.Queue

	// healthMu protects concurrent access to health
	healthMu sync.RWMutex
	health   Health
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithLogger sets the client logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithHTTPClient replaces the pooled HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.client = hc
		}
	}
}

// NewClient creates a client for cfg. hooks may be nil, in which case bearer
// auth is used and responses carry no rate limit snapshot.
func NewClient(cfg Config, hooks Hooks, opts ...ClientOption) (*Client, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	transport := &http.Transport{
		MaxIdleConns:        cfg.MaxIdleConns,
		MaxIdleConnsPerHost: cfg.MaxIdleConnsPerHost,
		IdleConnTimeout:     cfg.IdleConnTimeout,
		ForceAttemptHTTP2:   true,
	}

	c := &Client{
		config: cfg,
		hooks:  hooks,
		logger: slog.Default(),
		client: &http.Client{
			Transport: transport,
			Timeout:   cfg.Timeout,
		},
		health: Health{
			IsHealthy: true, // Start optimistic
			LastCheck: time.Now(),
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.hooks == nil {
		c.hooks = c
	}

	attrs := []any{"platform", cfg.Name}
	if cfg.Account != "" {
		attrs = append(attrs, "account", cfg.Account)
	}
	base := c.logger.With(attrs...)
	c.logger = base.With("component", "platform.client")

	q, err := ratelimit.New(cfg.Name, cfg.RateLimit, ratelimit.WithLogger(base))
	if err != nil {
		return nil, err
	}
	c.queue = q

	return c, nil
}

// Name returns the platform name.
func (c *Client) Name() string {
	return c.config.Name
}

// Config returns the client configuration with defaults applied.
func (c *Client) Config() Config {
	return c.config
}

// Logger returns the client logger.
func (c *Client) Logger() *slog.Logger {
	return c.logger
}

// AuthHeaders returns a bearer Authorization header.
func (c *Client) AuthHeaders() map[string]string {
	return map[string]string{"Authorization": "Bearer " + c.config.AccessToken}
}

// HandleRateLimit is the default for platforms without usage headers.
func (c *Client) HandleRateLimit(http.Header) *RateLimitSnapshot {
	return nil
}

// Defer pushes every pending request on the client queue back by d.
func (c *Client) Defer(d time.Duration) {
	c.queue.Delay(d)
}

// ObserveUsage defers the queue by Config.BackoffDelay when usage (a
// fraction in [0, 1]) is above Config.UsageThreshold. It reports whether it
// deferred.
func (c *Client) ObserveUsage(usage float64) bool {
	if usage <= c.config.UsageThreshold {
		return false
	}
	c.logger.Warn("quota usage above threshold, deferring queue",
		"usage", usage,
		"threshold", c.config.UsageThreshold,
		"delay", c.config.BackoffDelay,
	)
	c.Defer(c.config.BackoffDelay)
	return true
}

// QueueStats returns the client queue counters.
func (c *Client) QueueStats() ratelimit.Stats {
	return c.queue.Stats()
}

// Health returns request outcome bookkeeping.
func (c *Client) Health() Health {
	c.healthMu.RLock()
	defer c.healthMu.RUnlock()
	return c.health
}

// IsHealthy returns the current health status.
func (c *Client) IsHealthy() bool {
	c.healthMu.RLock()
	defer c.healthMu.RUnlock()
	return c.health.IsHealthy
}

// Do submits req to the client queue and waits for its response. It never
// retries. Transport errors and non-2xx responses become failures; the
// rate limit hook runs on every response regardless of status.
//
// When ctx ends first, Do returns a transport failure carrying ctx.Err()
// without waiting for the queue. The queued task still runs in turn and
// returns immediately without sending anything.
func (c *Client) Do(ctx context.Context, req Request) Result[*Response] {
	fut := c.queue.Enqueue(func() (any, error) {
		return c.send(ctx, req), nil
	})

	select {
	case <-fut.Done():
	case <-ctx.Done():
		return Fail[*Response](TransportFailure(c.config.Name, ctx.Err()), nil)
	}

	v, err := fut.Wait()
	if err != nil {
		// Queue closed or the task panicked.
		return Fail[*Response](TransportFailure(c.config.Name, err), nil)
	}
	res, ok := v.(Result[*Response])
	if !ok {
		return Fail[*Response](TransportFailure(c.config.Name, fmt.Errorf("unexpected task result %T", v)), nil)
	}
	return res
}

// send performs one HTTP round trip. It runs on the queue worker.
func (c *Client) send(ctx context.Context, r Request) Result[*Response] {
	if err := ctx.Err(); err != nil {
		return Fail[*Response](TransportFailure(c.config.Name, err), nil)
	}

	target := c.config.BaseURL + r.Path
	if len(r.Query) > 0 {
		sep := "?"
		if strings.Contains(r.Path, "?") {
			sep = "&"
		}
		target += sep + r.Query.Encode()
	}

	var body io.Reader
	if r.Body != nil {
		raw, err := json.Marshal(r.Body)
		if err != nil {
			return Fail[*Response](TransportFailure(c.config.Name, fmt.Errorf("failed to marshal request: %w", err)), nil)
		}
		body = bytes.NewReader(raw)
	}

	method := r.Method
	if method == "" {
		method = http.MethodGet
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return Fail[*Response](TransportFailure(c.config.Name, fmt.Errorf("failed to create request: %w", err)), nil)
	}
	for key, value := range c.hooks.AuthHeaders() {
		httpReq.Header.Set(key, value)
	}
	for key, value := range r.Headers {
		httpReq.Header.Set(key, value)
	}
	httpReq.Header.Set("Accept", "application/json")
	if body != nil && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	c.logger.DebugContext(ctx, "sending request to platform",
		"method", method,
		"url", target,
	)

	start := time.Now()
	resp, err := c.client.Do(httpReq)
	if err != nil {
		f := TransportFailure(c.config.Name, err)
		c.recordOutcome(f)
		c.logger.WarnContext(ctx, "platform request failed",
			"method", method,
			"path", r.Path,
			"error", err,
		)
		return Fail[*Response](f, nil)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		f := TransportFailure(c.config.Name, fmt.Errorf("failed to read response: %w", err))
		c.recordOutcome(f)
		return Fail[*Response](f, nil)
	}

	snapshot := c.hooks.HandleRateLimit(resp.Header)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		message, details := decodeErrorBody(raw)
		f := RejectionFailure(c.config.Name, resp.StatusCode, message, details)
		if resp.StatusCode == http.StatusTooManyRequests {
			f.RetryAfter = parseRetryAfter(resp.Header.Get("Retry-After"))
		}
		c.recordOutcome(f)
		c.logger.WarnContext(ctx, "platform rejected request",
			"method", method,
			"path", r.Path,
			"status", resp.StatusCode,
			"message", f.Message,
		)
		return Fail[*Response](f, snapshot)
	}

	c.recordOutcome(nil)
	c.logger.DebugContext(ctx, "platform request succeeded",
		"method", method,
		"path", r.Path,
		"status", resp.StatusCode,
		"latency", time.Since(start),
	)

	return Success(&Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       raw,
	}, snapshot)
}

// recordOutcome updates health bookkeeping. Only transport failures, 429 and
// 5xx count towards marking the client unhealthy.
func (c *Client) recordOutcome(f *Failure) {
	c.healthMu.Lock()
	defer c.healthMu.Unlock()

	now := time.Now()
	c.health.TotalRequests++
	c.health.LastCheck = now

	if f == nil {
		c.health.IsHealthy = true
		c.health.ConsecutiveFailures = 0
		c.health.LastError = nil
		c.health.LastSuccessfulRequest = now
		return
	}

	c.health.FailedRequests++
	c.health.LastError = f
	if !f.Retryable() {
		return
	}

	c.health.ConsecutiveFailures++
	// Mark unhealthy after 3 consecutive failures
	if c.health.ConsecutiveFailures >= 3 && c.health.IsHealthy {
		c.health.IsHealthy = false
		c.logger.Warn("platform marked unhealthy",
			"consecutive_failures", c.health.ConsecutiveFailures,
			"error", f,
		)
	}
}

// Close stops the queue and closes idle connections.
func (c *Client) Close() error {
	err := c.queue.Close()
	c.client.CloseIdleConnections()
	c.logger.Info("platform client closed")
	return err
}

// GetJSON issues a GET and decodes a successful body into T.
func GetJSON[T any](ctx context.Context, c *Client, path string, query url.Values) Result[T] {
	return DecodeJSON[T](c.Name(), c.Do(ctx, Request{
		Method: http.MethodGet,
		Path:   path,
		Query:  query,
	}))
}

// PostJSON issues a POST with a JSON body and decodes a successful body into T.
func PostJSON[T any](ctx context.Context, c *Client, path string, query url.Values, body any) Result[T] {
	return DecodeJSON[T](c.Name(), c.Do(ctx, Request{
		Method: http.MethodPost,
		Path:   path,
		Query:  query,
		Body:   body,
	}))
}

// DecodeJSON converts a raw response result into a typed one.
func DecodeJSON[T any](platform string, res Result[*Response]) Result[T] {
	return Then(res, func(resp *Response) (T, *Failure) {
		var out T
		if err := json.Unmarshal(resp.Body, &out); err != nil {
			return out, ParseFailure(platform, err, resp.Body)
		}
		return out, nil
	})
}

// decodeErrorBody extracts a message and structured details from a non-2xx
// body. All three platforms nest errors as {"error": {"message": ...}}.
func decodeErrorBody(raw []byte) (string, any) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return "", nil
	}

	var details any
	if err := json.Unmarshal(raw, &details); err != nil {
		return truncate(string(raw), 256), truncate(string(raw), 512)
	}

	var envelope struct {
		Message string `json:"message"`
		Error   struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	// error may be a string on some endpoints; ignore decode failures here.
	_ = json.Unmarshal(raw, &envelope)

	switch {
	case envelope.Error.Message != "":
		return envelope.Error.Message, details
	case envelope.Message != "":
		return envelope.Message, details
	}
	return "", details
}

// parseRetryAfter parses the Retry-After header value.
// It supports both delay-seconds and HTTP-date formats.
func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}

	var seconds int
	if _, err := fmt.Sscanf(header, "%d", &seconds); err == nil {
		return time.Duration(seconds) * time.Second
	}

	if t, err := http.ParseTime(header); err == nil {
		return time.Until(t)
	}

	return 0
}

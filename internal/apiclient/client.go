// Package apiclient is the gateway to the remote portal REST service. Every call
// resolves to a Result: transport failures, timeouts and non-2xx answers are
// normalised into an APIError instead of being returned as Go errors.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"consular/internal/credentials"
	"consular/pkg/config"
	"consular/pkg/logger"

	"github.com/google/uuid"
)

const (
	defaultTimeout       = 30 * time.Second
	defaultRetryAttempts = 3
)

// Config is merged field by field: zero values in an override keep the base value.
// RetryAttempts is carried for callers that inspect it; every request is attempted
// exactly once.
type Config struct {
	BaseURL       string
	Timeout       time.Duration
	RetryAttempts int
}

func DefaultConfig() Config {
	return Config{
		BaseURL:       config.DefaultAPIBaseURL,
		Timeout:       defaultTimeout,
		RetryAttempts: defaultRetryAttempts,
	}
}

// FromPortalConfig adapts the environment configuration.
func FromPortalConfig(c config.PortalAPIConfig) Config {
	return Config{BaseURL: c.BaseURL, Timeout: c.Timeout, RetryAttempts: c.RetryAttempts}
}

func (c Config) merge(override Config) Config {
	if override.BaseURL != "" {
		c.BaseURL = override.BaseURL
	}
	if override.Timeout > 0 {
		c.Timeout = override.Timeout
	}
	if override.RetryAttempts > 0 {
		c.RetryAttempts = override.RetryAttempts
	}
	return c
}

// RequestOptions describes a single call. Body is JSON encoded; Multipart, when set,
// is sent as-is with its own content type and Body is ignored.
type RequestOptions struct {
	Method    string
	Body      any
	Multipart *Multipart
	Headers   map[string]string
	Query     url.Values
	Config    Config
}

type RequestOption func(*RequestOptions)

func WithBaseURL(baseURL string) RequestOption {
	return func(o *RequestOptions) { o.Config.BaseURL = baseURL }
}

func WithTimeout(d time.Duration) RequestOption {
	return func(o *RequestOptions) { o.Config.Timeout = d }
}

func WithRetryAttempts(n int) RequestOption {
	return func(o *RequestOptions) { o.Config.RetryAttempts = n }
}

func WithHeader(key, value string) RequestOption {
	return func(o *RequestOptions) {
		if o.Headers == nil {
			o.Headers = make(map[string]string)
		}
		o.Headers[key] = value
	}
}

func WithQuery(key, value string) RequestOption {
	return func(o *RequestOptions) {
		if o.Query == nil {
			o.Query = url.Values{}
		}
		o.Query.Add(key, value)
	}
}

type Client struct {
	cfg     Config
	http    *http.Client
	creds   credentials.Store
	log     logger.Logger
	metrics *Metrics
	now     func() time.Time
}

type ClientOption func(*Client)

// WithHTTPClient replaces the transport. Its own Timeout should be left at zero; the
// per-request timeout is enforced through the request context.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.http = hc }
}

func WithMetrics(m *Metrics) ClientOption {
	return func(c *Client) { c.metrics = m }
}

func New(cfg Config, creds credentials.Store, log logger.Logger, opts ...ClientOption) *Client {
	if creds == nil {
		creds = credentials.NewMemoryStore()
	}
	if log == nil {
		log = logger.NewNop()
	}
	c := &Client{
		cfg:   DefaultConfig().merge(cfg),
		http:  &http.Client{},
		creds: creds,
		log:   log,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Config returns the client defaults after merging.
func (c *Client) Config() Config {
	return c.cfg
}

func (c *Client) Get(ctx context.Context, endpoint string, opts ...RequestOption) Result[json.RawMessage] {
	return c.Request(ctx, endpoint, build(http.MethodGet, nil, opts))
}

func (c *Client) Post(ctx context.Context, endpoint string, body any, opts ...RequestOption) Result[json.RawMessage] {
	return c.Request(ctx, endpoint, build(http.MethodPost, body, opts))
}

func (c *Client) Put(ctx context.Context, endpoint string, body any, opts ...RequestOption) Result[json.RawMessage] {
	return c.Request(ctx, endpoint, build(http.MethodPut, body, opts))
}

func (c *Client) Patch(ctx context.Context, endpoint string, body any, opts ...RequestOption) Result[json.RawMessage] {
	return c.Request(ctx, endpoint, build(http.MethodPatch, body, opts))
}

func (c *Client) Delete(ctx context.Context, endpoint string, opts ...RequestOption) Result[json.RawMessage] {
	return c.Request(ctx, endpoint, build(http.MethodDelete, nil, opts))
}

// Upload posts a prebuilt multipart payload.
func (c *Client) Upload(ctx context.Context, endpoint string, payload *Multipart, opts ...RequestOption) Result[json.RawMessage] {
	o := build(http.MethodPost, nil, opts)
	o.Multipart = payload
	return c.Request(ctx, endpoint, o)
}

func build(method string, body any, opts []RequestOption) RequestOptions {
	o := RequestOptions{Method: method, Body: body}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Request performs one HTTP exchange and normalises the outcome.
func (c *Client) Request(ctx context.Context, endpoint string, opts RequestOptions) Result[json.RawMessage] {
	cfg := c.cfg.merge(opts.Config)
	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}
	requestID := uuid.NewString()
	fields := map[string]interface{}{
		"request_id": requestID,
		"method":     method,
		"endpoint":   endpoint,
	}

	target, err := resolveURL(cfg.BaseURL, endpoint, opts.Query)
	if err != nil {
		return c.finish(method, c.now(), fields, failure[json.RawMessage](CodeServerError, 0, err.Error()), "transport_error")
	}

	body, contentType, err := encodeBody(opts)
	if err != nil {
		return c.finish(method, c.now(), fields, failure[json.RawMessage](CodeServerError, 0, err.Error()), "transport_error")
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return c.finish(method, c.now(), fields, failure[json.RawMessage](CodeServerError, 0, err.Error()), "transport_error")
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for k, v := range opts.Headers {
		req.Header.Set(k, v)
	}
	if opts.Multipart != nil {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("X-Request-ID", requestID)
	if token := c.bearerToken(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := c.now()
	resp, err := c.http.Do(req)
	if err != nil {
		return c.transportFailure(method, start, fields, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return c.transportFailure(method, start, fields, err)
	}
	fields["status"] = resp.StatusCode

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		data = bytes.TrimSpace(data)
		if len(data) == 0 {
			return c.finish(method, start, fields, success[json.RawMessage](nil, resp.StatusCode), "success")
		}
		if !json.Valid(data) {
			return c.finish(method, start, fields,
				failure[json.RawMessage](CodeServerError, 0, "malformed response body"), "transport_error")
		}
		return c.finish(method, start, fields, success(json.RawMessage(data), resp.StatusCode), "success")
	}

	return c.finish(method, start, fields, errorResult(resp.StatusCode, data), "error")
}

// bearerToken prefers the citizen token over the admin token.
func (c *Client) bearerToken(ctx context.Context) string {
	for _, kind := range []credentials.Kind{credentials.Citizen, credentials.Admin} {
		token, err := c.creds.Token(ctx, kind)
		if err != nil {
			c.log.Warn("Failed to read stored credential", map[string]interface{}{
				"kind":  string(kind),
				"error": err.Error(),
			})
			// an unreadable citizen token must not fall through to admin scope
			return ""
		}
		if token == "" {
			continue
		}
		if claims := credentials.Inspect(token); claims.Expired(c.now()) {
			c.log.Debug("Stored credential has expired", map[string]interface{}{
				"kind":    string(kind),
				"subject": claims.Subject,
			})
		}
		return token
	}
	return ""
}

func (c *Client) transportFailure(method string, start time.Time, fields map[string]interface{}, err error) Result[json.RawMessage] {
	if isTimeout(err) {
		return c.finish(method, start, fields, failure[json.RawMessage](CodeServiceUnavailable, 0, err.Error()), "timeout")
	}
	return c.finish(method, start, fields, failure[json.RawMessage](CodeServerError, 0, err.Error()), "transport_error")
}

func (c *Client) finish(method string, start time.Time, fields map[string]interface{}, res Result[json.RawMessage], outcome string) Result[json.RawMessage] {
	elapsed := c.now().Sub(start)
	c.metrics.ObserveRequest(method, outcome, elapsed)

	fields["duration_ms"] = elapsed.Milliseconds()
	if res.Err != nil {
		fields["code"] = res.Err.Code
		if res.Err.Details != nil {
			fields["details"] = res.Err.Details
		}
		c.log.Warn("Portal API request failed", fields)
		return res
	}
	c.log.Debug("Portal API request completed", fields)
	return res
}

type errorEnvelope struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details"`
}

func errorResult(status int, body []byte) Result[json.RawMessage] {
	var env errorEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return failure[json.RawMessage](CodeServerError, status, nil)
	}

	code := env.Code
	if code == "" {
		code = CodeServerError
	}
	res := failure[json.RawMessage](code, status, env.Details)
	if env.Message != "" {
		res.Err.Message = env.Message
	}
	return res
}

func resolveURL(baseURL, endpoint string, query url.Values) (string, error) {
	if strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://") {
		return withQuery(endpoint, query)
	}
	base := strings.TrimRight(baseURL, "/")
	if base == "" {
		return "", errors.New("portal API base URL is empty")
	}
	return withQuery(base+"/"+strings.TrimLeft(endpoint, "/"), query)
}

func withQuery(raw string, query url.Values) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid request URL: %w", err)
	}
	if len(query) > 0 {
		q := u.Query()
		for k, vs := range query {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

func encodeBody(opts RequestOptions) (io.Reader, string, error) {
	if opts.Multipart != nil {
		return opts.Multipart.body, opts.Multipart.contentType, nil
	}
	if opts.Body == nil {
		return nil, "", nil
	}
	data, err := json.Marshal(opts.Body)
	if err != nil {
		return nil, "", fmt.Errorf("encode request body: %w", err)
	}
	return bytes.NewReader(data), "application/json", nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// Package client is the authenticated HTTP transport to the CyberGuard API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/net/publicsuffix"
	"golang.org/x/sync/singleflight"

	"cyberguard/internal/auth"
	apperrors "cyberguard/internal/errors"
)

// RefreshPath is the endpoint that exchanges the refresh cookie for a new access token.
const RefreshPath = "/auth/refresh"

// HeaderRequestID carries a per-request correlation id.
const HeaderRequestID = "X-Request-ID"

const maxErrorBody = 64 << 10

// defaultRefreshTimeout bounds a refresh when the client has no timeout.
const defaultRefreshTimeout = 30 * time.Second

// ErrRefreshFailed is returned by Refresh when the backend does not issue a token.
var ErrRefreshFailed = errors.New("token refresh failed")

// Request describes one API call. Path is relative to the base URL.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   interface{}
	// Public requests never carry the bearer token and never refresh.
	Public bool
}

// Response is a successful (2xx) API answer.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Decode unmarshals the body into out. An empty body leaves out untouched.
func (r *Response) Decode(out interface{}) error {
	if out == nil || len(bytes.TrimSpace(r.Body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. A cookie jar is added
// when it has none.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithTimeout bounds every request. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithAuthLostHook registers fn to run when a refresh fails.
func WithAuthLostHook(fn func()) Option {
	return func(c *Client) { c.onAuthLost = fn }
}

// Client sends requests with the stored bearer token and recovers once from a
// 401 by refreshing it.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  auth.TokenStore
	logger  *zap.Logger
	timeout time.Duration

	refreshes singleflight.Group

	mu         sync.RWMutex
	onAuthLost func()
}

// New creates a client for baseURL backed by tokens.
func New(baseURL string, tokens auth.TokenStore, opts ...Option) (*Client, error) {
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid base url %q: %w", baseURL, err)
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		tokens:  tokens,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = &http.Client{}
	}
	if c.http.Jar == nil {
		jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
		if err != nil {
			return nil, fmt.Errorf("cookie jar: %w", err)
		}
		c.http.Jar = jar
	}
	return c, nil
}

// BaseURL returns the API root requests are resolved against.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// SetAuthLostHook replaces the auth-lost hook.
func (c *Client) SetAuthLostHook(fn func()) {
	c.mu.Lock()
	c.onAuthLost = fn
	c.mu.Unlock()
}

func (c *Client) authLost() {
	c.mu.RLock()
	fn := c.onAuthLost
	c.mu.RUnlock()
	if fn != nil {
		fn()
	}
}

// JSON performs an authenticated call, decoding the answer into out.
func (c *Client) JSON(ctx context.Context, method, path string, body, out interface{}) error {
	resp, err := c.Do(ctx, &Request{Method: method, Path: path, Body: body})
	if err != nil {
		return err
	}
	return resp.Decode(out)
}

// PublicJSON performs a call without credentials, decoding the answer into out.
func (c *Client) PublicJSON(ctx context.Context, method, path string, body, out interface{}) error {
	resp, err := c.Do(ctx, &Request{Method: method, Path: path, Body: body, Public: true})
	if err != nil {
		return err
	}
	return resp.Decode(out)
}

// Do sends req. A 401 on a request that carried a token triggers one refresh
// and one retry; a failed refresh clears the token store.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var payload []byte
	if req.Body != nil {
		var err error
		if payload, err = json.Marshal(req.Body); err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
	}

	var token string
	if !req.Public {
		var err error
		if token, err = c.tokens.Token(ctx); err != nil {
			return nil, err
		}
	}

	resp, err := c.send(ctx, req, payload, token)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized || token == "" {
		return finish(resp)
	}

	c.logger.Debug("access token rejected, refreshing",
		zap.String("method", req.Method), zap.String("path", req.Path))
	fresh, rerr := c.refreshAfter(ctx, token)
	if rerr != nil {
		if errors.Is(rerr, context.Canceled) || errors.Is(rerr, context.DeadlineExceeded) {
			return nil, rerr
		}
		c.logger.Info("session lost", zap.Error(rerr))
		return finish(resp)
	}

	retry, err := c.send(ctx, req, payload, fresh)
	if err != nil {
		return nil, err
	}
	return finish(retry)
}

// Refresh exchanges the refresh cookie for a new access token and stores it.
func (c *Client) Refresh(ctx context.Context) (string, error) {
	return c.shared(ctx, func(ctx context.Context) (interface{}, error) {
		return c.doRefresh(ctx)
	})
}

// refreshAfter refreshes unless the token that was rejected has already been
// replaced or cleared by a concurrent caller.
func (c *Client) refreshAfter(ctx context.Context, stale string) (string, error) {
	return c.shared(ctx, func(ctx context.Context) (interface{}, error) {
		current, err := c.tokens.Token(ctx)
		if err != nil {
			return nil, err
		}
		switch current {
		case stale:
			return c.doRefresh(ctx)
		case "":
			return nil, apperrors.ErrUnauthenticated
		default:
			return current, nil
		}
	})
}

// shared runs fn once for every concurrent caller. The flight is detached from
// the caller that started it and bounded by the client's own timeout, so one
// caller giving up does not fail the others; each caller still returns as
// soon as its own ctx is done.
func (c *Client) shared(ctx context.Context, fn func(ctx context.Context) (interface{}, error)) (string, error) {
	ch := c.refreshes.DoChan("refresh", func() (interface{}, error) {
		flightCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.refreshTimeout())
		defer cancel()
		return fn(flightCtx)
	})
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		if res.Shared {
			c.logger.Debug("joined in-flight refresh")
		}
		return res.Val.(string), nil
	}
}

func (c *Client) refreshTimeout() time.Duration {
	if c.timeout > 0 {
		return c.timeout
	}
	return defaultRefreshTimeout
}

func (c *Client) doRefresh(ctx context.Context) (string, error) {
	resp, err := c.send(ctx, &Request{Method: http.MethodPost, Path: RefreshPath, Public: true}, nil, "")
	if err == nil && resp.StatusCode/100 == 2 {
		var body struct {
			AccessToken string `json:"accessToken"`
			Token       string `json:"token"`
		}
		_ = json.Unmarshal(resp.Body, &body)
		fresh := body.AccessToken
		if fresh == "" {
			fresh = body.Token
		}
		if fresh != "" {
			if err := c.tokens.SetToken(ctx, fresh); err != nil {
				return "", err
			}
			return fresh, nil
		}
	}

	// An abandoned call says nothing about the refresh cookie.
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return "", err
	}
	if err == nil {
		err = fmt.Errorf("%w: status %d", ErrRefreshFailed, resp.StatusCode)
	} else {
		err = fmt.Errorf("%w: %v", ErrRefreshFailed, err)
	}
	if cerr := c.tokens.Clear(ctx); cerr != nil {
		c.logger.Warn("clear token after failed refresh", zap.Error(cerr))
	}
	c.authLost()
	return "", err
}

func (c *Client) send(ctx context.Context, req *Request, payload []byte, token string) (*Response, error) {
	u := c.baseURL + "/" + strings.TrimLeft(req.Path, "/")
	if len(req.Query) > 0 {
		u += "?" + req.Query.Encode()
	}

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, u, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if payload != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}
	reqID := uuid.NewString()
	httpReq.Header.Set(HeaderRequestID, reqID)

	start := time.Now()
	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		c.logger.Debug("request failed",
			zap.String("method", req.Method), zap.String("path", req.Path),
			zap.String("request_id", reqID), zap.Error(err))
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.Path, err)
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	c.logger.Debug("request",
		zap.String("method", req.Method), zap.String("path", req.Path),
		zap.Int("status", httpResp.StatusCode), zap.String("request_id", reqID),
		zap.Duration("elapsed", time.Since(start)))

	return &Response{StatusCode: httpResp.StatusCode, Header: httpResp.Header, Body: data}, nil
}

func finish(resp *Response) (*Response, error) {
	if resp.StatusCode/100 == 2 {
		return resp, nil
	}
	body := resp.Body
	if len(body) > maxErrorBody {
		body = body[:maxErrorBody]
	}
	return nil, apperrors.FromResponse(resp.StatusCode, body)
}

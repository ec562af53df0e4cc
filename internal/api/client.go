// Package api is the HTTP client for the MyHome backend: a thin typed layer
// over the REST endpoints, with bearer-token attachment and a single
// reactive refresh-and-replay on 401.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

var (
	// ErrUnreachable marks transport-level failures: the backend could not
	// be reached at all.
	ErrUnreachable = errors.New("backend unreachable")

	// ErrConfig marks a malformed base URL or unsupported protocol.
	ErrConfig = errors.New("invalid backend configuration")
)

// APIError is a response the backend explicitly rejected. Message carries
// the backend's own message verbatim when one was provided.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("request failed with status %d", e.Status)
}

// TokenSource supplies the current access token, "" when logged out. The
// session manager implements it.
type TokenSource interface {
	Token() string
}

// Refresher renews the access token. The session manager implements it with
// single-flight semantics, so the reactive path here never stacks refresh
// calls on top of the proactive timer's.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// envelope is the backend's uniform response shape.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error,omitempty"`
	Message string          `json:"message,omitempty"`
}

func (e *envelope) errorMessage() string {
	if e.Error != "" {
		return e.Error
	}
	return e.Message
}

type Client struct {
	baseURL   *url.URL
	http      *http.Client
	tokens    TokenSource
	refresher Refresher
	logger    zerolog.Logger
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// New validates the base URL and returns a client. A malformed URL or an
// unsupported protocol is an ErrConfig, reported up front rather than on
// the first request.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot parse %q: %v", ErrConfig, baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: unsupported protocol %q in %q", ErrConfig, u.Scheme, baseURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%w: missing host in %q", ErrConfig, baseURL)
	}

	c := &Client{
		baseURL: u,
		http:    &http.Client{Timeout: 30 * time.Second},
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Bind attaches the session manager as the client's token source and
// refresher. Called once at wiring time; the client is constructed first
// because the manager needs it as its backend.
func (c *Client) Bind(s interface {
	TokenSource
	Refresher
}) {
	c.tokens = s
	c.refresher = s
}

func (c *Client) BaseURL() string { return c.baseURL.String() }

// get/post/put/del issue authenticated requests and decode the envelope's
// data field into out (out may be nil).
func (c *Client) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	return c.do(ctx, http.MethodGet, path, query, nil, out, true)
}

func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	return c.do(ctx, http.MethodPost, path, nil, body, out, true)
}

func (c *Client) put(ctx context.Context, path string, body, out interface{}) error {
	return c.do(ctx, http.MethodPut, path, nil, body, out, true)
}

func (c *Client) del(ctx context.Context, path string) error {
	return c.do(ctx, http.MethodDelete, path, nil, nil, nil, true)
}

// doAnon issues an unauthenticated request (the auth endpoints themselves).
// No bearer token is attached and a 401 is final, never retried.
func (c *Client) doAnon(ctx context.Context, method, path string, body, out interface{}) error {
	return c.do(ctx, method, path, nil, body, out, false)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out interface{}, authed bool) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
	}

	send := func(token string) (*http.Response, error) {
		u := *c.baseURL
		u.Path = strings.TrimRight(u.Path, "/") + path
		if query != nil {
			u.RawQuery = query.Encode()
		}
		var rd io.Reader
		if payload != nil {
			rd = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, u.String(), rd)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrConfig, err)
		}
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		resp, err := c.http.Do(req)
		if err != nil {
			return nil, c.classify(err)
		}
		return resp, nil
	}

	var token string
	if authed && c.tokens != nil {
		token = c.tokens.Token()
	}

	resp, err := send(token)
	if err != nil {
		return err
	}

	// Reactive refresh: at most one refresh and one replay per original
	// request. If the replay 401s again, that is final.
	if resp.StatusCode == http.StatusUnauthorized && authed && c.refresher != nil {
		rejected, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		if rerr := c.refresher.Refresh(ctx); rerr != nil {
			// The refresh could not rescue the request; surface what the
			// backend said about the original rejection.
			msg := "session expired"
			var env envelope
			if len(rejected) > 0 && json.Unmarshal(rejected, &env) == nil && env.errorMessage() != "" {
				msg = env.errorMessage()
			}
			return &APIError{Status: http.StatusUnauthorized, Message: msg}
		}
		if c.tokens != nil {
			token = c.tokens.Token()
		}
		c.logger.Debug().Str("path", path).Msg("replaying request with refreshed token")
		resp, err = send(token)
		if err != nil {
			return err
		}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	var env envelope
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil {
			if resp.StatusCode >= 400 {
				return &APIError{Status: resp.StatusCode}
			}
			return fmt.Errorf("decode response (status %d): %w", resp.StatusCode, err)
		}
	}

	if resp.StatusCode >= 400 || (len(raw) > 0 && !env.Success) {
		return &APIError{Status: resp.StatusCode, Message: env.errorMessage()}
	}

	if out != nil {
		if len(env.Data) == 0 {
			return fmt.Errorf("empty response data (status %d)", resp.StatusCode)
		}
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("decode response data: %w", err)
		}
	}
	return nil
}

// classify maps transport errors onto the error taxonomy: configuration
// errors (bad URL, unsupported scheme) vs. an unreachable backend.
func (c *Client) classify(err error) error {
	msg := err.Error()
	if strings.Contains(msg, "unsupported protocol scheme") || strings.Contains(msg, "invalid URL") {
		c.logger.Error().Str("base_url", c.baseURL.String()).Err(err).Msg("backend URL misconfigured")
		return fmt.Errorf("%w: %s", ErrConfig, c.baseURL.String())
	}
	var uerr *url.Error
	if errors.As(err, &uerr) && uerr.Timeout() {
		return fmt.Errorf("%w: request to %s timed out", ErrUnreachable, c.baseURL.Host)
	}
	return fmt.Errorf("%w: cannot reach %s, check that the backend server is running", ErrUnreachable, c.baseURL.Host)
}

// ListParams is limit/offset pagination for list endpoints.
type ListParams struct {
	Limit  int
	Offset int
}

func (p ListParams) query() url.Values {
	q := url.Values{}
	if p.Limit > 0 {
		q.Set("limit", strconv.Itoa(p.Limit))
	}
	if p.Offset > 0 {
		q.Set("offset", strconv.Itoa(p.Offset))
	}
	return q
}

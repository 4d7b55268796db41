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
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// RequestIDHeader is sent with every call so client and server logs line up.
const RequestIDHeader = "X-Request-ID"

// maxBodyBytes bounds how much of a response is read.
const maxBodyBytes = 8 << 20

// Credentials supplies the bearer token and is told when the server
// rejects it. *auth.Session satisfies it.
type Credentials interface {
	Token() string
	Clear()
}

// Client is the single gateway to the quiz API. It attaches the bearer
// token, unwraps the "data" envelope and classifies failures.
type Client struct {
	baseURL    string
	httpClient *http.Client
	creds      Credentials
	log        zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default *http.Client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.httpClient = h
		}
	}
}

// WithTimeout sets the per-request timeout on the default client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient = &http.Client{Timeout: d}
	}
}

// WithLogger sets the request logger.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) {
		c.log = log
	}
}

// New creates a Client for baseURL. creds may be nil for anonymous use.
func New(baseURL string, creds Credentials, opts ...Option) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 120 * time.Second},
		creds:      creds,
		log:        zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the API root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Get performs a GET and decodes the unwrapped payload into out.
func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.Do(ctx, http.MethodGet, withQuery(path, query), nil, out)
}

// Post performs a POST with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPost, path, body, out)
}

// Put performs a PUT with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPut, path, body, out)
}

// Do sends a request and decodes the unwrapped payload into out (when
// out is non-nil and the payload is non-empty).
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	raw, err := c.Raw(ctx, method, path, body)
	if err != nil {
		return err
	}
	if out == nil || len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

// Raw sends a request and returns the unwrapped payload undecoded, for
// callers that must cope with several response shapes.
func (c *Client) Raw(ctx context.Context, method, path string, body any) (json.RawMessage, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build %s %s: %w", method, path, err)
	}
	reqID := uuid.NewString()
	req.Header.Set(RequestIDHeader, reqID)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.creds != nil {
		if tok := c.creds.Token(); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil && errors.Is(err, context.Canceled) {
			return nil, fmt.Errorf("%s %s: %w", method, path, ctx.Err())
		}
		c.log.Warn().Err(err).
			Str("method", method).Str("path", path).Str("request_id", reqID).
			Dur("elapsed", time.Since(start)).
			Msg("api request failed")
		return nil, &Error{Method: method, Path: path, RequestID: reqID, kind: ErrTransient, cause: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &Error{Method: method, Path: path, Status: resp.StatusCode, RequestID: reqID, kind: ErrTransient, cause: err}
	}

	ev := c.log.Debug()
	if resp.StatusCode >= 400 {
		ev = c.log.Warn()
	}
	ev.Str("method", method).Str("path", path).Int("status", resp.StatusCode).
		Str("request_id", reqID).Dur("elapsed", time.Since(start)).
		Msg("api request")

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		apiErr := &Error{
			Method:    method,
			Path:      path,
			Status:    resp.StatusCode,
			Message:   messageFrom(data),
			RequestID: reqID,
			kind:      kindFor(resp.StatusCode),
		}
		if apiErr.kind == ErrUnauthorized && c.creds != nil {
			c.creds.Clear()
		}
		return nil, apiErr
	}

	return unwrapData(data), nil
}

func withQuery(path string, query url.Values) string {
	if len(query) == 0 {
		return path
	}
	return path + "?" + query.Encode()
}

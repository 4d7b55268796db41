package quiz

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/ambis/miniquiz/internal/api"
)

// Gateway is the slice of *api.Client the quiz client needs.
type Gateway interface {
	Raw(ctx context.Context, method, path string, body any) (json.RawMessage, error)
}

// Client wraps the quiz endpoints.
type Client struct {
	api Gateway
	log zerolog.Logger
}

// NewClient creates a Client.
func NewClient(gw Gateway, log zerolog.Logger) *Client {
	return &Client{api: gw, log: log}
}

// FetchActive returns the user's running session, or (nil, nil) when there
// is none. A not-found response and an empty payload both mean "none";
// every other failure is returned so callers can tell absence from error.
func (c *Client) FetchActive(ctx context.Context) (*Session, error) {
	raw, err := c.api.Raw(ctx, http.MethodGet, "/quiz/active", nil)
	if err != nil {
		if errors.Is(err, api.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch active session: %w", err)
	}

	s, err := parseSession(raw)
	if err != nil {
		return nil, fmt.Errorf("fetch active session: %w", err)
	}
	if s != nil {
		c.log.Debug().Str("session_id", s.ID).Int("questions", len(s.Questions)).Msg("active session loaded")
	}
	return s, nil
}

// Start begins a session for subtestID. When a session is already running
// the error matches api.ErrConflict and the caller should resume it. The
// returned session may be nil if the server acknowledged the start without
// echoing the session; callers then fetch it.
func (c *Client) Start(ctx context.Context, subtestID string) (*Session, error) {
	if subtestID == "" {
		return nil, fmt.Errorf("start quiz: %w: missing subtest id", ErrMalformed)
	}
	raw, err := c.api.Raw(ctx, http.MethodGet, "/quiz/start/"+url.PathEscape(subtestID), nil)
	if err != nil {
		return nil, fmt.Errorf("start quiz: %w", err)
	}
	s, err := parseSession(raw)
	if err != nil {
		return nil, fmt.Errorf("start quiz: %w", err)
	}
	c.log.Info().Str("subtest_id", subtestID).Msg("quiz started")
	return s, nil
}

// Submit sends the complete answer set. Scoring happens on the server.
func (c *Client) Submit(ctx context.Context, answers AnswerSet) error {
	body := struct {
		Answers AnswerSet `json:"answers"`
	}{Answers: answers}
	if _, err := c.api.Raw(ctx, http.MethodPost, "/quiz/submit", body); err != nil {
		return fmt.Errorf("submit quiz: %w", err)
	}
	c.log.Info().Int("answers", len(answers)).Msg("quiz submitted")
	return nil
}

// Subtests lists the topics available to start.
func (c *Client) Subtests(ctx context.Context) ([]Subtest, error) {
	raw, err := c.api.Raw(ctx, http.MethodGet, "/subtests", nil)
	if err != nil {
		return nil, fmt.Errorf("list subtests: %w", err)
	}
	items, err := listItems(raw)
	if err != nil {
		return nil, fmt.Errorf("list subtests: %w", err)
	}
	out := make([]Subtest, 0, len(items))
	for _, it := range items {
		if st, ok := parseSubtest(it); ok {
			out = append(out, st)
		}
	}
	return out, nil
}

// History lists past attempts, newest first as the server orders them.
func (c *Client) History(ctx context.Context, limit, offset int) ([]HistoryItem, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(offset))

	raw, err := c.api.Raw(ctx, http.MethodGet, "/quiz/history?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	items, err := listItems(raw)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	out := make([]HistoryItem, 0, len(items))
	for _, it := range items {
		if h, ok := parseHistoryItem(it); ok {
			out = append(out, h)
		}
	}
	return out, nil
}

// Result fetches the scored detail of one attempt.
func (c *Client) Result(ctx context.Context, sessionID string) (*Result, error) {
	raw, err := c.api.Raw(ctx, http.MethodGet, "/quiz/result/"+url.PathEscape(sessionID), nil)
	if err != nil {
		return nil, fmt.Errorf("load result: %w", err)
	}
	r, err := parseResult(raw)
	if err != nil {
		return nil, fmt.Errorf("load result: %w", err)
	}
	if r.SessionID == "" {
		r.SessionID = sessionID
	}
	return r, nil
}

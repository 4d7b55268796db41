package quiz

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ambis/miniquiz/internal/api"
)

func reply(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func newClient(t *testing.T, r chi.Router) *Client {
	t.Helper()
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return NewClient(api.New(srv.URL, nil), zerolog.Nop())
}

func TestFetchActive(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/quiz/active", func(w http.ResponseWriter, r *http.Request) {
		reply(w, 200, `{"data":{"session_id":"s-1","expires_at":"2026-03-01T10:00:00Z",
			"questions":[{"question_number":1,"question_text":"?","options":["A","B"]}]}}`)
	})
	c := newClient(t, r)

	s, err := c.FetchActive(context.Background())
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, "s-1", s.ID)
	assert.Len(t, s.Questions, 1)
}

func TestFetchActiveAbsence(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"not found", 404, `{"error":{"message":"no active session"}}`},
		{"null data", 200, `{"data":null}`},
		{"empty object", 200, `{"data":{}}`},
		{"no body", 200, ``},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := chi.NewRouter()
			r.Get("/quiz/active", func(w http.ResponseWriter, r *http.Request) {
				reply(w, tt.status, tt.body)
			})
			s, err := newClient(t, r).FetchActive(context.Background())
			assert.NoError(t, err)
			assert.Nil(t, s)
		})
	}
}

func TestFetchActiveFailureIsNotAbsence(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/quiz/active", func(w http.ResponseWriter, r *http.Request) {
		reply(w, 503, `{"error":"maintenance"}`)
	})
	s, err := newClient(t, r).FetchActive(context.Background())
	assert.Nil(t, s)
	assert.ErrorIs(t, err, api.ErrTransient)
}

func TestStartConflict(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/quiz/start/{id}", func(w http.ResponseWriter, r *http.Request) {
		reply(w, 409, `{"error":{"message":"an active session already exists"}}`)
	})
	s, err := newClient(t, r).Start(context.Background(), "3")
	assert.Nil(t, s)
	assert.ErrorIs(t, err, api.ErrConflict)
}

func TestStartReturnsSession(t *testing.T) {
	var gotID string
	r := chi.NewRouter()
	r.Get("/quiz/start/{id}", func(w http.ResponseWriter, r *http.Request) {
		gotID = chi.URLParam(r, "id")
		reply(w, 200, `{"data":{"sessionId":"s-2","expiresAt":"2026-03-01T10:30:00Z","questions":[]}}`)
	})
	s, err := newClient(t, r).Start(context.Background(), "sub 1")
	require.NoError(t, err)
	assert.Equal(t, "sub 1", gotID)
	require.NotNil(t, s)
	assert.Equal(t, "s-2", s.ID)
}

func TestStartRequiresID(t *testing.T) {
	_, err := NewClient(api.New("http://unused", nil), zerolog.Nop()).Start(context.Background(), "")
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestSubmitSendsFullAnswerSet(t *testing.T) {
	var body struct {
		Answers map[string]string `json:"answers"`
	}
	r := chi.NewRouter()
	r.Post("/quiz/submit", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&body)
		reply(w, 200, `{"data":{"message":"submitted"}}`)
	})

	answers := AnswerSet{1: "A", 3: "C"}
	require.NoError(t, newClient(t, r).Submit(context.Background(), answers))
	assert.Equal(t, map[string]string{"1": "A", "3": "C"}, body.Answers)
}

func TestSubmitRejectedAfterExpiry(t *testing.T) {
	r := chi.NewRouter()
	r.Post("/quiz/submit", func(w http.ResponseWriter, r *http.Request) {
		reply(w, 400, `{"error":{"message":"session has expired"}}`)
	})
	err := newClient(t, r).Submit(context.Background(), AnswerSet{1: "A"})
	require.ErrorIs(t, err, api.ErrRejected)
	assert.Equal(t, "session has expired", api.UserMessage(err, "fallback"))
}

func TestSubtests(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/subtests", func(w http.ResponseWriter, r *http.Request) {
		reply(w, 200, `{"data":[{"id":1,"name":"Numerical"},{"subtest_id":"2","subtest_name":"Verbal"},{"name":"no id"}]}`)
	})
	got, err := newClient(t, r).Subtests(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []Subtest{{ID: "1", Name: "Numerical"}, {ID: "2", Name: "Verbal"}}, got)
}

func TestHistory(t *testing.T) {
	var limit, offset string
	r := chi.NewRouter()
	r.Get("/quiz/history", func(w http.ResponseWriter, r *http.Request) {
		limit, offset = r.URL.Query().Get("limit"), r.URL.Query().Get("offset")
		reply(w, 200, `{"data":{"items":[{"session_id":"a","score":90},{"session_id":"b"}]}}`)
	})
	got, err := newClient(t, r).History(context.Background(), 20, 0)
	require.NoError(t, err)
	assert.Equal(t, "20", limit)
	assert.Equal(t, "0", offset)
	require.Len(t, got, 2)
	assert.Equal(t, 90.0, *got[0].Score)
	assert.Nil(t, got[1].Score)
}

func TestResultFillsMissingID(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/quiz/result/{id}", func(w http.ResponseWriter, r *http.Request) {
		reply(w, 200, `{"data":{"score":70}}`)
	})
	res, err := newClient(t, r).Result(context.Background(), "s-5")
	require.NoError(t, err)
	assert.Equal(t, "s-5", res.SessionID)
	assert.Equal(t, 70.0, *res.Score)
}

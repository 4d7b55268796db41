// Package auth holds the access token for the signed-in user.
package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// TokenKey is the persistence key for the access token.
const TokenKey = "ambis_access_token"

// TokenRepo persists the token between runs. store.CredentialRepo
// satisfies it.
type TokenRepo interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Put(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Session is the process-wide record of who is signed in. It is read by
// request goroutines and cleared by whichever of them first sees a 401,
// so all access is locked.
type Session struct {
	mu    sync.RWMutex
	token string
	repo  TokenRepo
	log   zerolog.Logger
	now   func() time.Time
}

// Open loads any persisted token. A stored JWT whose exp has already
// passed is discarded.
func Open(ctx context.Context, repo TokenRepo, log zerolog.Logger) (*Session, error) {
	s := &Session{repo: repo, log: log, now: time.Now}

	tok, ok, err := repo.Get(ctx, TokenKey)
	if err != nil {
		return nil, fmt.Errorf("load token: %w", err)
	}
	if !ok || tok == "" {
		return s, nil
	}

	if c, ok := ParseClaims(tok); ok && c.Expired(s.now()) {
		log.Info().Time("expired_at", *c.ExpiresAt).Msg("discarding expired access token")
		if err := repo.Delete(ctx, TokenKey); err != nil {
			return nil, fmt.Errorf("discard expired token: %w", err)
		}
		return s, nil
	}

	s.token = tok
	return s, nil
}

// Token returns the current bearer token, or "".
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// IsAuthed reports whether a token is held.
func (s *Session) IsAuthed() bool {
	return s.Token() != ""
}

// SetToken stores a freshly issued token in memory and on disk.
func (s *Session) SetToken(ctx context.Context, token string) error {
	if token == "" {
		return fmt.Errorf("set token: empty token")
	}
	if err := s.repo.Put(ctx, TokenKey, token); err != nil {
		return fmt.Errorf("persist token: %w", err)
	}
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
	return nil
}

// Clear forgets the token. The in-memory copy is dropped first so that
// concurrent readers see the signed-out state even if the disk write fails.
func (s *Session) Clear() {
	s.mu.Lock()
	had := s.token != ""
	s.token = ""
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.repo.Delete(ctx, TokenKey); err != nil {
		s.log.Error().Err(err).Msg("failed to delete persisted token")
		return
	}
	if had {
		s.log.Info().Msg("access token cleared")
	}
}

// Claims decodes the current token, if it is a JWT.
func (s *Session) Claims() (Claims, bool) {
	tok := s.Token()
	if tok == "" {
		return Claims{}, false
	}
	return ParseClaims(tok)
}

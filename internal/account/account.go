// Package account wraps the authentication and profile endpoints and keeps
// the local session in step with them.
package account

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ambis/miniquiz/internal/api"
	"github.com/ambis/miniquiz/internal/validate"
)

// ErrNoToken is returned when a login response carries no access token.
var ErrNoToken = errors.New("login response has no access token")

// ErrEmailTaken is returned by Register on a 409.
var ErrEmailTaken = errors.New("email already registered")

// Session is the slice of *auth.Session this package needs.
type Session interface {
	SetToken(ctx context.Context, token string) error
	Clear()
}

// Gateway is the slice of *api.Client this package needs.
type Gateway interface {
	Get(ctx context.Context, path string, query url.Values, out any) error
	Post(ctx context.Context, path string, body, out any) error
	Put(ctx context.Context, path string, body, out any) error
}

// Registration is the sign-up form.
type Registration struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// Credentials is the login form.
type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Profile is the signed-in user's editable details.
type Profile struct {
	Name  string `json:"name" validate:"required,max=100"`
	Email string `json:"email" validate:"required,email"`
}

// PasswordChange is the change-password form.
type PasswordChange struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8,max=72,nefield=OldPassword"`
}

type verifyRequest struct {
	Token string `json:"token" validate:"required"`
}

// Service performs account operations.
type Service struct {
	api     Gateway
	session Session
	log     zerolog.Logger
}

// New creates a Service.
func New(gw Gateway, sess Session, log zerolog.Logger) *Service {
	return &Service{api: gw, session: sess, log: log}
}

// Register creates an account. The user must verify their email before
// logging in.
func (s *Service) Register(ctx context.Context, r Registration) error {
	r.Email = strings.TrimSpace(r.Email)
	r.Name = strings.TrimSpace(r.Name)
	if err := validate.Struct(r); err != nil {
		return err
	}
	if err := s.api.Post(ctx, "/auth/register", r, nil); err != nil {
		if errors.Is(err, api.ErrConflict) {
			return fmt.Errorf("%w: %w", ErrEmailTaken, err)
		}
		return fmt.Errorf("register: %w", err)
	}
	return nil
}

// VerifyEmail confirms an email address with the emailed token.
func (s *Service) VerifyEmail(ctx context.Context, token string) error {
	req := verifyRequest{Token: strings.TrimSpace(token)}
	if err := validate.Struct(req); err != nil {
		return err
	}
	if err := s.api.Post(ctx, "/auth/verify-email", req, nil); err != nil {
		return fmt.Errorf("verify email: %w", err)
	}
	return nil
}

// Login exchanges credentials for a token and stores it.
func (s *Service) Login(ctx context.Context, c Credentials) error {
	c.Email = strings.TrimSpace(c.Email)
	if err := validate.Struct(c); err != nil {
		return err
	}

	var out struct {
		AccessToken string `json:"access_token"`
		Token       string `json:"token"`
	}
	if err := s.api.Post(ctx, "/auth/login", c, &out); err != nil {
		return fmt.Errorf("login: %w", err)
	}

	tok := out.AccessToken
	if tok == "" {
		tok = out.Token
	}
	if tok == "" {
		return ErrNoToken
	}
	if err := s.session.SetToken(ctx, tok); err != nil {
		return fmt.Errorf("login: %w", err)
	}
	s.log.Info().Str("email", c.Email).Msg("logged in")
	return nil
}

// Logout tells the server and then forgets the token. The local token is
// cleared even when the server call fails.
func (s *Service) Logout(ctx context.Context) {
	if err := s.api.Post(ctx, "/auth/logout", nil, nil); err != nil {
		s.log.Warn().Err(err).Msg("server logout failed; clearing local token anyway")
	}
	s.session.Clear()
}

// Profile fetches the signed-in user's details.
func (s *Service) Profile(ctx context.Context) (Profile, error) {
	var p Profile
	if err := s.api.Get(ctx, "/auth/profile", nil, &p); err != nil {
		return Profile{}, fmt.Errorf("get profile: %w", err)
	}
	return p, nil
}

// UpdateProfile saves new details.
func (s *Service) UpdateProfile(ctx context.Context, p Profile) error {
	p.Name = strings.TrimSpace(p.Name)
	p.Email = strings.TrimSpace(p.Email)
	if err := validate.Struct(p); err != nil {
		return err
	}
	if err := s.api.Put(ctx, "/auth/profile", p, nil); err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	return nil
}

// ChangePassword replaces the account password.
func (s *Service) ChangePassword(ctx context.Context, pc PasswordChange) error {
	if err := validate.Struct(pc); err != nil {
		return err
	}
	if err := s.api.Post(ctx, "/auth/change-password", pc, nil); err != nil {
		return fmt.Errorf("change password: %w", err)
	}
	return nil
}

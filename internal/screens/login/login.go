package login

import (
	"context"
	"errors"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/ambis/miniquiz/internal/account"
	"github.com/ambis/miniquiz/internal/api"
	"github.com/ambis/miniquiz/internal/router"
	"github.com/ambis/miniquiz/internal/screen"
	"github.com/ambis/miniquiz/internal/ui/components"
	"github.com/ambis/miniquiz/internal/ui/layout"
	"github.com/ambis/miniquiz/internal/ui/theme"
)

// Authenticator logs a user in and stores the token.
type Authenticator interface {
	Login(ctx context.Context, c account.Credentials) error
}

type loginDoneMsg struct {
	Err error
}

// LoginScreen asks for email and password.
type LoginScreen struct {
	screen.Lifetime
	auth   Authenticator
	form   components.Form
	busy   bool
	errMsg string
	notice string
}

var _ screen.Screen = (*LoginScreen)(nil)
var _ screen.KeyHintProvider = (*LoginScreen)(nil)

// New creates a LoginScreen. notice is shown above the form, e.g. after a
// session ended.
func New(auth Authenticator, notice string) *LoginScreen {
	return &LoginScreen{
		Lifetime: screen.NewLifetime(),
		auth:     auth,
		notice:   notice,
		form: components.NewForm(
			components.NewField("email", "Email", "you@example.com", false),
			components.NewField("password", "Password", "", true),
		),
	}
}

func (s *LoginScreen) Init() tea.Cmd {
	return s.form.Init()
}

func (s *LoginScreen) Title() string { return "Log in" }

func (s *LoginScreen) Route() string { return "/login" }

// CapturingText keeps global shortcuts away from the form.
func (s *LoginScreen) CapturingText() bool { return true }

func (s *LoginScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Tab", Description: "Next field"},
		{Key: "Enter", Description: "Log in"},
		{Key: "Ctrl+R", Description: "Register"},
		{Key: "Ctrl+V", Description: "Verify email"},
	}
}

func (s *LoginScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case loginDoneMsg:
		s.busy = false
		if msg.Err != nil {
			s.errMsg = loginError(msg.Err)
			return s, nil
		}
		return s, router.Navigate("/dashboard", router.Reset)

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+r":
			return s, router.Navigate("/register", router.Push)
		case "ctrl+v":
			return s, router.Navigate("/verify-email", router.Push)
		}
	}

	var cmd tea.Cmd
	var submit bool
	s.form, cmd, submit = s.form.Update(msg)
	if submit {
		return s, s.submit()
	}
	return s, cmd
}

func (s *LoginScreen) submit() tea.Cmd {
	if s.busy {
		return nil
	}
	s.busy = true
	s.errMsg = ""
	s.notice = ""
	creds := account.Credentials{
		Email:    s.form.Value("email"),
		Password: s.form.Raw("password"),
	}
	ctx := s.Context()
	return func() tea.Msg {
		return loginDoneMsg{Err: s.auth.Login(ctx, creds)}
	}
}

func loginError(err error) string {
	switch {
	case errors.Is(err, api.ErrUnauthorized):
		return "Incorrect email or password."
	case errors.Is(err, account.ErrNoToken):
		return "The server accepted the login but sent no token. Please try again."
	}
	return api.UserMessage(err, "Login failed. Please try again.")
}

func (s *LoginScreen) View(width, height int) string {
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(components.Banners(s.errMsg, s.notice, width))
	b.WriteString("\n")

	body := s.form.View()
	if s.busy {
		body += "\n\n" + theme.Hint.Render("Logging in...")
	} else {
		body += "\n\n" + components.NewButton("Log in", "Enter", true).View()
	}
	body += "\n\n" + lipgloss.NewStyle().Foreground(theme.TextDim).
		Render("No account yet? Press Ctrl+R to register.")
	b.WriteString(components.Panel("Welcome back", body, width))
	return b.String()
}

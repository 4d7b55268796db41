package register

import (
	"context"
	"errors"
	"strings"

	tea "charm.land/bubbletea/v2"

	"github.com/ambis/miniquiz/internal/account"
	"github.com/ambis/miniquiz/internal/api"
	"github.com/ambis/miniquiz/internal/router"
	"github.com/ambis/miniquiz/internal/screen"
	"github.com/ambis/miniquiz/internal/ui/components"
	"github.com/ambis/miniquiz/internal/ui/layout"
	"github.com/ambis/miniquiz/internal/ui/theme"
)

// Registrar creates accounts.
type Registrar interface {
	Register(ctx context.Context, r account.Registration) error
}

type registerDoneMsg struct {
	Email string
	Err   error
}

// RegisterScreen is the sign-up form.
type RegisterScreen struct {
	screen.Lifetime
	accounts Registrar
	form     components.Form
	busy     bool
	errMsg   string
	notice   string
}

var _ screen.Screen = (*RegisterScreen)(nil)
var _ screen.KeyHintProvider = (*RegisterScreen)(nil)

// New creates a RegisterScreen.
func New(accounts Registrar) *RegisterScreen {
	return &RegisterScreen{
		Lifetime: screen.NewLifetime(),
		accounts: accounts,
		form: components.NewForm(
			components.NewField("name", "Full name", "", false),
			components.NewField("email", "Email", "you@example.com", false),
			components.NewField("password", "Password", "at least 8 characters", true),
		),
	}
}

func (s *RegisterScreen) Init() tea.Cmd { return s.form.Init() }

func (s *RegisterScreen) Title() string { return "Register" }

func (s *RegisterScreen) Route() string { return "/register" }

func (s *RegisterScreen) CapturingText() bool { return true }

func (s *RegisterScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Tab", Description: "Next field"},
		{Key: "Enter", Description: "Create account"},
		{Key: "Ctrl+V", Description: "Verify email"},
		{Key: "Esc", Description: "Back"},
	}
}

func (s *RegisterScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case registerDoneMsg:
		s.busy = false
		if msg.Err != nil {
			s.errMsg = registerError(msg.Err)
			return s, nil
		}
		s.notice = "Account created for " + msg.Email + ". Check your inbox for the verification token, then press Ctrl+V."
		return s, s.form.Reset()

	case tea.KeyMsg:
		if msg.String() == "ctrl+v" {
			return s, router.Navigate("/verify-email", router.Replace)
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

func (s *RegisterScreen) submit() tea.Cmd {
	if s.busy {
		return nil
	}
	s.busy = true
	s.errMsg = ""
	s.notice = ""
	reg := account.Registration{
		Name:     s.form.Value("name"),
		Email:    s.form.Value("email"),
		Password: s.form.Raw("password"),
	}
	ctx := s.Context()
	return func() tea.Msg {
		return registerDoneMsg{Email: reg.Email, Err: s.accounts.Register(ctx, reg)}
	}
}

func registerError(err error) string {
	if errors.Is(err, account.ErrEmailTaken) {
		return "That email is already registered. Log in instead, or use another address."
	}
	return api.UserMessage(err, "Registration failed. Please try again.")
}

func (s *RegisterScreen) View(width, height int) string {
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(components.Banners(s.errMsg, s.notice, width))
	b.WriteString("\n")

	body := s.form.View()
	if s.busy {
		body += "\n\n" + theme.Hint.Render("Creating account...")
	} else {
		body += "\n\n" + components.NewButton("Create account", "Enter", true).View()
	}
	b.WriteString(components.Panel("Create your account", body, width))
	return b.String()
}

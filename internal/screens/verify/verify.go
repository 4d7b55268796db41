package verify

import (
	"context"
	"strings"

	tea "charm.land/bubbletea/v2"

	"github.com/ambis/miniquiz/internal/api"
	"github.com/ambis/miniquiz/internal/router"
	"github.com/ambis/miniquiz/internal/screen"
	"github.com/ambis/miniquiz/internal/ui/components"
	"github.com/ambis/miniquiz/internal/ui/layout"
	"github.com/ambis/miniquiz/internal/ui/theme"
)

// Verifier confirms email addresses.
type Verifier interface {
	VerifyEmail(ctx context.Context, token string) error
}

type verifyDoneMsg struct {
	Err error
}

// VerifyScreen takes the token from the verification email.
type VerifyScreen struct {
	screen.Lifetime
	accounts Verifier
	form     components.Form
	busy     bool
	errMsg   string
}

var _ screen.Screen = (*VerifyScreen)(nil)

// New creates a VerifyScreen.
func New(accounts Verifier) *VerifyScreen {
	return &VerifyScreen{
		Lifetime: screen.NewLifetime(),
		accounts: accounts,
		form:     components.NewForm(components.NewField("token", "Verification token", "paste the token from the email", false)),
	}
}

func (s *VerifyScreen) Init() tea.Cmd { return s.form.Init() }

func (s *VerifyScreen) Title() string { return "Verify email" }

func (s *VerifyScreen) Route() string { return "/verify-email" }

func (s *VerifyScreen) CapturingText() bool { return true }

func (s *VerifyScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Enter", Description: "Verify"},
		{Key: "Esc", Description: "Back"},
	}
}

func (s *VerifyScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	if msg, ok := msg.(verifyDoneMsg); ok {
		s.busy = false
		if msg.Err != nil {
			s.errMsg = api.UserMessage(msg.Err, "Verification failed. Check the token and try again.")
			return s, nil
		}
		return s, router.NavigateNotice("/login", router.Reset, "Email verified. You can log in now.")
	}

	var cmd tea.Cmd
	var submit bool
	s.form, cmd, submit = s.form.Update(msg)
	if submit && !s.busy {
		s.busy = true
		s.errMsg = ""
		token := s.form.Value("token")
		ctx := s.Context()
		return s, func() tea.Msg {
			return verifyDoneMsg{Err: s.accounts.VerifyEmail(ctx, token)}
		}
	}
	return s, cmd
}

func (s *VerifyScreen) View(width, height int) string {
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(components.Banners(s.errMsg, "", width))
	b.WriteString("\n")

	body := s.form.View()
	if s.busy {
		body += "\n\n" + theme.Hint.Render("Verifying...")
	}
	b.WriteString(components.Panel("Verify your email", body, width))
	return b.String()
}

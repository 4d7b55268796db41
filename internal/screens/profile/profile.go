package profile

import (
	"context"
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

// Accounts is what the profile screen needs from *account.Service.
type Accounts interface {
	Profile(ctx context.Context) (account.Profile, error)
	UpdateProfile(ctx context.Context, p account.Profile) error
	ChangePassword(ctx context.Context, pc account.PasswordChange) error
	Logout(ctx context.Context)
}

type mode int

const (
	modeView mode = iota
	modeEdit
	modePassword
)

type profileLoadedMsg struct {
	Profile account.Profile
	Err     error
}

type profileSavedMsg struct {
	Profile account.Profile
	Err     error
}

type passwordChangedMsg struct {
	Err error
}

type loggedOutMsg struct{}

// ProfileScreen shows and edits the signed-in user's account.
type ProfileScreen struct {
	screen.Lifetime
	accounts Accounts
	profile  account.Profile
	loaded   bool
	mode     mode
	form     components.Form
	busy     bool
	errMsg   string
	notice   string
}

var _ screen.Screen = (*ProfileScreen)(nil)
var _ screen.BackInterceptor = (*ProfileScreen)(nil)
var _ screen.TextEntry = (*ProfileScreen)(nil)

// New creates a ProfileScreen.
func New(accounts Accounts) *ProfileScreen {
	return &ProfileScreen{Lifetime: screen.NewLifetime(), accounts: accounts}
}

func (s *ProfileScreen) Init() tea.Cmd { return s.load() }

func (s *ProfileScreen) Title() string { return "Profile" }

func (s *ProfileScreen) Route() string { return "/profile" }

// CapturingText is true while a form is open.
func (s *ProfileScreen) CapturingText() bool { return s.mode != modeView }

// Back closes an open form instead of leaving the screen.
func (s *ProfileScreen) Back() bool {
	if s.mode == modeView {
		return false
	}
	s.mode = modeView
	s.errMsg = ""
	return true
}

func (s *ProfileScreen) KeyHints() []layout.KeyHint {
	if s.mode != modeView {
		return []layout.KeyHint{
			{Key: "Tab", Description: "Next field"},
			{Key: "Enter", Description: "Save"},
			{Key: "Esc", Description: "Cancel"},
		}
	}
	return []layout.KeyHint{
		{Key: "e", Description: "Edit"},
		{Key: "w", Description: "Change password"},
		{Key: "o", Description: "Log out"},
		{Key: "Esc", Description: "Back"},
	}
}

func (s *ProfileScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case profileLoadedMsg:
		s.busy = false
		if msg.Err != nil {
			s.errMsg = api.UserMessage(msg.Err, "Failed to load your profile.")
			return s, nil
		}
		s.profile = msg.Profile
		s.loaded = true
		return s, nil

	case profileSavedMsg:
		s.busy = false
		if msg.Err != nil {
			s.errMsg = api.UserMessage(msg.Err, "Failed to save your profile.")
			return s, nil
		}
		s.profile = msg.Profile
		s.mode = modeView
		s.notice = "Profile updated."
		return s, nil

	case passwordChangedMsg:
		s.busy = false
		if msg.Err != nil {
			s.errMsg = api.UserMessage(msg.Err, "Failed to change your password.")
			return s, nil
		}
		s.mode = modeView
		s.notice = "Password changed."
		return s, nil

	case loggedOutMsg:
		return s, router.NavigateNotice("/login", router.Reset, "You have been logged out.")

	case tea.KeyMsg:
		if s.mode == modeView {
			return s.handleViewKey(msg)
		}
	}

	if s.mode == modeView {
		return s, nil
	}
	var cmd tea.Cmd
	var submit bool
	s.form, cmd, submit = s.form.Update(msg)
	if submit && !s.busy {
		return s, s.save()
	}
	return s, cmd
}

func (s *ProfileScreen) handleViewKey(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	if s.busy {
		return s, nil
	}
	switch msg.String() {
	case "e":
		if !s.loaded {
			return s, nil
		}
		s.mode = modeEdit
		s.errMsg, s.notice = "", ""
		s.form = components.NewForm(
			components.NewField("name", "Full name", "", false),
			components.NewField("email", "Email", "", false),
		)
		s.form.SetValue("name", s.profile.Name)
		s.form.SetValue("email", s.profile.Email)
		return s, s.form.Init()
	case "w":
		s.mode = modePassword
		s.errMsg, s.notice = "", ""
		s.form = components.NewForm(
			components.NewField("old", "Current password", "", true),
			components.NewField("new", "New password", "at least 8 characters", true),
		)
		return s, s.form.Init()
	case "o":
		s.busy = true
		ctx := s.Context()
		return s, func() tea.Msg {
			s.accounts.Logout(ctx)
			return loggedOutMsg{}
		}
	case "r":
		return s, s.load()
	}
	return s, nil
}

func (s *ProfileScreen) load() tea.Cmd {
	s.busy = true
	ctx := s.Context()
	return func() tea.Msg {
		p, err := s.accounts.Profile(ctx)
		return profileLoadedMsg{Profile: p, Err: err}
	}
}

func (s *ProfileScreen) save() tea.Cmd {
	s.busy = true
	s.errMsg = ""
	ctx := s.Context()
	switch s.mode {
	case modeEdit:
		p := account.Profile{Name: s.form.Value("name"), Email: s.form.Value("email")}
		return func() tea.Msg {
			return profileSavedMsg{Profile: p, Err: s.accounts.UpdateProfile(ctx, p)}
		}
	case modePassword:
		pc := account.PasswordChange{OldPassword: s.form.Raw("old"), NewPassword: s.form.Raw("new")}
		return func() tea.Msg {
			return passwordChangedMsg{Err: s.accounts.ChangePassword(ctx, pc)}
		}
	}
	s.busy = false
	return nil
}

func (s *ProfileScreen) View(width, height int) string {
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(components.Banners(s.errMsg, s.notice, width))

	switch s.mode {
	case modeEdit:
		b.WriteString(components.Panel("Edit profile", s.formBody("Saving..."), width))
		return b.String()
	case modePassword:
		b.WriteString(components.Panel("Change password", s.formBody("Changing password..."), width))
		return b.String()
	}

	if !s.loaded {
		if s.busy {
			b.WriteString(components.Placeholder("Loading profile...", width))
		} else {
			b.WriteString(components.Placeholder("Press r to try again.", width))
		}
		return b.String()
	}

	body := theme.Label.Render("Name   ") + theme.Body.Render(s.profile.Name) + "\n" +
		theme.Label.Render("Email  ") + theme.Body.Render(s.profile.Email) + "\n\n" +
		components.NewButton("Edit", "e", false).View() + " " +
		components.NewButton("Change password", "w", false).View() + " " +
		components.NewButton("Log out", "o", false).View()
	b.WriteString(components.Panel("Your account", body, width))
	return b.String()
}

func (s *ProfileScreen) formBody(busyText string) string {
	body := s.form.View()
	if s.busy {
		body += "\n\n" + theme.Hint.Render(busyText)
	}
	return body
}

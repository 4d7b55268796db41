package app

import (
	"fmt"
	"net/url"
	"os"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/rs/zerolog"

	"github.com/ambis/miniquiz/internal/auth"
	"github.com/ambis/miniquiz/internal/countdown"
	"github.com/ambis/miniquiz/internal/router"
	"github.com/ambis/miniquiz/internal/screen"
	"github.com/ambis/miniquiz/internal/screens/dashboard"
	"github.com/ambis/miniquiz/internal/screens/history"
	"github.com/ambis/miniquiz/internal/screens/login"
	"github.com/ambis/miniquiz/internal/screens/profile"
	"github.com/ambis/miniquiz/internal/screens/quiz"
	"github.com/ambis/miniquiz/internal/screens/register"
	"github.com/ambis/miniquiz/internal/screens/result"
	"github.com/ambis/miniquiz/internal/screens/verify"
	"github.com/ambis/miniquiz/internal/ui/layout"
	"github.com/ambis/miniquiz/internal/ui/theme"
)

const (
	signInNotice = "Please log in to continue."
	endedNotice  = "Your session has ended. Please log in again."
)

// Auth is the slice of *auth.Session the app needs.
type Auth interface {
	IsAuthed() bool
	Claims() (auth.Claims, bool)
	Clear()
}

// Accounts is what the account screens need from *account.Service.
type Accounts interface {
	login.Authenticator
	register.Registrar
	verify.Verifier
	profile.Accounts
}

// Quiz is what the quiz screens need from *quiz.Client.
type Quiz interface {
	dashboard.QuizService
	history.Source
	result.Source
}

// Options holds the dependencies shared by every screen.
type Options struct {
	Auth            Auth
	Accounts        Accounts
	Quiz            Quiz
	HistoryPageSize int
	Logger          zerolog.Logger
	Clock           countdown.Clock
}

// AppModel is the root Bubble Tea model.
type AppModel struct {
	opts   Options
	router *router.Router
	width  int
	height int
}

// publicRoutes are reachable without a token.
var publicRoutes = map[string]bool{
	"/login":        true,
	"/register":     true,
	"/verify-email": true,
}

// Protected reports whether path requires a signed-in user.
func Protected(path string) bool {
	return !publicRoutes[path]
}

// newAppModel creates the root model, opening the dashboard when a token
// is already stored and the login form otherwise.
func newAppModel(opts Options) AppModel {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	m := AppModel{opts: opts}
	start := router.NavigateMsg{Path: "/login"}
	if opts.Auth.IsAuthed() {
		start.Path = "/dashboard"
	}
	initial, _ := m.resolve(start)
	m.router = router.New(initial, m.resolve)
	return m
}

// resolve maps a route to a fresh screen.
func (m AppModel) resolve(req router.NavigateMsg) (screen.Screen, bool) {
	o := m.opts
	switch req.Path {
	case "/login":
		return login.New(o.Accounts, req.Notice), true
	case "/register":
		return register.New(o.Accounts), true
	case "/verify-email":
		return verify.New(o.Accounts), true
	case "/dashboard":
		return dashboard.New(o.Quiz, o.Auth, o.Clock, o.Logger, req.Notice), true
	case "/quiz":
		return quiz.New(o.Quiz, o.Auth, o.Clock, o.Logger, req.Notice), true
	case "/history":
		return history.New(o.Quiz, o.HistoryPageSize, req.Notice), true
	case "/profile":
		return profile.New(o.Accounts), true
	}
	if params, ok := router.Match("/history/:id", req.Path); ok {
		id, err := url.PathUnescape(params["id"])
		if err != nil {
			return nil, false
		}
		return result.New(o.Quiz, id), true
	}
	o.Logger.Warn().Str("path", req.Path).Msg("unknown route")
	return nil, false
}

func (m AppModel) Init() tea.Cmd {
	return m.router.Active().Init()
}

func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "esc":
			if b, ok := m.router.Active().(screen.BackInterceptor); ok && b.Back() {
				return m, nil
			}
			if m.router.Depth() > 1 {
				return m, func() tea.Msg { return router.PopScreenMsg{} }
			}
			return m, nil
		}

	case router.NavigateMsg:
		if Protected(msg.Path) && !m.opts.Auth.IsAuthed() {
			m.opts.Logger.Debug().Str("path", msg.Path).Msg("redirecting to login")
			msg = router.NavigateMsg{Path: "/login", Mode: router.Reset, Notice: signInNotice}
		}
		m.opts.Logger.Debug().Str("path", msg.Path).Int("mode", int(msg.Mode)).Msg("navigate")
		return m, m.guard(m.router.Update(msg))
	}

	cmd := m.router.Update(msg)
	return m, m.guard(cmd)
}

// guard sends the user to the login screen once the token is gone, for
// example after the server answered 401 and the client dropped it.
func (m AppModel) guard(cmd tea.Cmd) tea.Cmd {
	if !Protected(m.router.Path()) || m.opts.Auth.IsAuthed() {
		return cmd
	}
	m.opts.Logger.Info().Str("path", m.router.Path()).Msg("credentials gone; returning to login")
	return tea.Batch(cmd, m.router.Reset(login.New(m.opts.Accounts, endedNotice)))
}

func (m AppModel) View() tea.View {
	v := tea.NewView("")
	v.AltScreen = true
	if m.width == 0 || m.height == 0 {
		return v
	}
	v.SetContent(m.render())
	return v
}

// render draws the full frame for the current window size.
func (m AppModel) render() string {
	if layout.IsTooSmall(m.width, m.height) {
		return layout.RenderMinSizeMessage(m.width, m.height)
	}

	active := m.router.Active()
	title := ""
	if active != nil {
		title = active.Title()
	}

	header := layout.RenderHeader(title, m.status(active), m.width)
	footer := layout.RenderFooter(m.hints(active), m.width)

	contentHeight := max(m.height-lipgloss.Height(header)-lipgloss.Height(footer), 0)
	content := m.router.View(m.width, contentHeight)
	return layout.RenderFrame(header, content, footer, m.width, m.height)
}

// status is the right side of the header: the screen's own status, or the
// signed-in user.
func (m AppModel) status(active screen.Screen) string {
	if sp, ok := active.(screen.StatusProvider); ok {
		if s := sp.Status(); s != "" {
			return s
		}
	}
	if !m.opts.Auth.IsAuthed() {
		return ""
	}
	c, ok := m.opts.Auth.Claims()
	if !ok {
		return ""
	}
	who := c.Email
	if who == "" {
		who = c.Name
	}
	return lipgloss.NewStyle().Foreground(theme.TextDim).Render(who)
}

func (m AppModel) hints(active screen.Screen) []layout.KeyHint {
	var hints []layout.KeyHint
	if hp, ok := active.(screen.KeyHintProvider); ok {
		hints = hp.KeyHints()
	} else if m.router.Depth() > 1 {
		hints = []layout.KeyHint{{Key: "Esc", Description: "Back"}}
	}
	return append(hints, layout.KeyHint{Key: "Ctrl+C", Description: "Quit"})
}

// Run starts the Bubble Tea program.
func Run(opts Options) error {
	p := tea.NewProgram(newAppModel(opts))
	_, err := p.Run()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error running program:", err)
		return err
	}
	return nil
}

package app

import (
	"context"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ambis/miniquiz/internal/account"
	"github.com/ambis/miniquiz/internal/auth"
	"github.com/ambis/miniquiz/internal/quiz"
	"github.com/ambis/miniquiz/internal/router"
	"github.com/ambis/miniquiz/internal/ui/layout"
)

type fakeAuth struct {
	authed bool
	email  string
}

func (f *fakeAuth) IsAuthed() bool { return f.authed }
func (f *fakeAuth) Clear()         { f.authed = false }
func (f *fakeAuth) Claims() (auth.Claims, bool) {
	return auth.Claims{Email: f.email}, f.authed
}

type fakeAccounts struct{}

func (fakeAccounts) Login(context.Context, account.Credentials) error          { return nil }
func (fakeAccounts) Register(context.Context, account.Registration) error      { return nil }
func (fakeAccounts) VerifyEmail(context.Context, string) error                 { return nil }
func (fakeAccounts) Profile(context.Context) (account.Profile, error)          { return account.Profile{}, nil }
func (fakeAccounts) UpdateProfile(context.Context, account.Profile) error      { return nil }
func (fakeAccounts) ChangePassword(context.Context, account.PasswordChange) error { return nil }
func (fakeAccounts) Logout(context.Context)                                    {}

type fakeQuiz struct{}

func (fakeQuiz) FetchActive(context.Context) (*quiz.Session, error)           { return nil, nil }
func (fakeQuiz) Start(context.Context, string) (*quiz.Session, error)         { return nil, nil }
func (fakeQuiz) Submit(context.Context, quiz.AnswerSet) error                 { return nil }
func (fakeQuiz) Subtests(context.Context) ([]quiz.Subtest, error)             { return nil, nil }
func (fakeQuiz) History(context.Context, int, int) ([]quiz.HistoryItem, error) { return nil, nil }
func (fakeQuiz) Result(context.Context, string) (*quiz.Result, error)         { return &quiz.Result{}, nil }

func newModel(a *fakeAuth) AppModel {
	return newAppModel(Options{
		Auth:     a,
		Accounts: fakeAccounts{},
		Quiz:     fakeQuiz{},
		Logger:   zerolog.Nop(),
		Clock:    func() time.Time { return time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC) },
	})
}

func update(t *testing.T, m AppModel, msg tea.Msg) AppModel {
	t.Helper()
	next, _ := m.Update(msg)
	am, ok := next.(AppModel)
	require.True(t, ok)
	return am
}

func TestInitialRoute(t *testing.T) {
	assert.Equal(t, "/login", newModel(&fakeAuth{}).router.Path())
	assert.Equal(t, "/dashboard", newModel(&fakeAuth{authed: true}).router.Path())
}

func TestNavigateToProtectedRouteRedirects(t *testing.T) {
	m := newModel(&fakeAuth{})
	m = update(t, m, router.NavigateMsg{Path: "/history", Mode: router.Push})
	assert.Equal(t, "/login", m.router.Path())
	assert.Equal(t, 1, m.router.Depth())
}

func TestPublicRoutesOpenWithoutToken(t *testing.T) {
	m := newModel(&fakeAuth{})
	m = update(t, m, router.NavigateMsg{Path: "/register", Mode: router.Push})
	assert.Equal(t, "/register", m.router.Path())
}

func TestGuardAfterCredentialsCleared(t *testing.T) {
	a := &fakeAuth{authed: true}
	m := newModel(a)
	m = update(t, m, router.NavigateMsg{Path: "/history", Mode: router.Push})
	require.Equal(t, "/history", m.router.Path())

	// A 401 somewhere dropped the token; the next message reaches the guard.
	a.Clear()
	m = update(t, m, tea.KeyPressMsg{Code: 'r', Text: "r"})
	assert.Equal(t, "/login", m.router.Path())
	assert.Equal(t, 1, m.router.Depth())
}

func TestResultRoute(t *testing.T) {
	m := newModel(&fakeAuth{authed: true})
	m = update(t, m, router.NavigateMsg{Path: "/history/s%2F1", Mode: router.Push})
	assert.Equal(t, "/history/s%2F1", m.router.Path())
	assert.Equal(t, "Result", m.router.Active().Title())
}

func TestUnknownRouteIgnored(t *testing.T) {
	m := newModel(&fakeAuth{authed: true})
	m = update(t, m, router.NavigateMsg{Path: "/nowhere", Mode: router.Push})
	assert.Equal(t, "/dashboard", m.router.Path())
}

func TestEscPops(t *testing.T) {
	m := newModel(&fakeAuth{authed: true})
	m = update(t, m, router.NavigateMsg{Path: "/profile", Mode: router.Push})

	next, cmd := m.Update(tea.KeyPressMsg{Code: tea.KeyEscape})
	require.NotNil(t, cmd)
	m = update(t, next.(AppModel), cmd())
	assert.Equal(t, "/dashboard", m.router.Path())
}

func TestEscAtBottomStays(t *testing.T) {
	m := newModel(&fakeAuth{authed: true})
	_, cmd := m.Update(tea.KeyPressMsg{Code: tea.KeyEscape})
	assert.Nil(t, cmd)
}

func TestCtrlCQuits(t *testing.T) {
	_, cmd := newModel(&fakeAuth{}).Update(tea.KeyPressMsg{Code: 'c', Mod: tea.ModCtrl})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestViewShowsBrandAndUser(t *testing.T) {
	m := newModel(&fakeAuth{authed: true, email: "ana@example.com"})
	m = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	content := m.render()
	assert.Contains(t, content, layout.Brand)
	assert.Contains(t, content, "ana@example.com")
	assert.Contains(t, content, "Dashboard")
}

func TestViewTooSmall(t *testing.T) {
	m := update(t, newModel(&fakeAuth{}), tea.WindowSizeMsg{Width: 40, Height: 10})
	assert.Contains(t, m.render(), "bigger window")
}

func TestProtected(t *testing.T) {
	assert.False(t, Protected("/login"))
	assert.False(t, Protected("/verify-email"))
	assert.True(t, Protected("/quiz"))
	assert.True(t, Protected("/history/1"))
}

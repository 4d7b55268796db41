package router

import (
	"strings"

	tea "charm.land/bubbletea/v2"

	"github.com/ambis/miniquiz/internal/screen"
)

// Mode says how a navigation changes the stack.
type Mode int

const (
	// Push opens the route on top of the current screen.
	Push Mode = iota
	// Replace swaps the current screen for the route.
	Replace
	// Reset clears the stack and opens the route alone.
	Reset
)

// NavigateMsg asks the router to open a route. Notice, when set, is handed
// to the opened screen as an informational banner.
type NavigateMsg struct {
	Path   string
	Mode   Mode
	Notice string
}

// PushScreenMsg requests the router to push a new screen onto the stack.
type PushScreenMsg struct {
	Screen screen.Screen
}

// PopScreenMsg requests the router to pop the current screen off the stack.
type PopScreenMsg struct{}

// ReplaceScreenMsg requests the router to swap the top screen.
type ReplaceScreenMsg struct {
	Screen screen.Screen
}

// ResetScreenMsg requests the router to clear the stack down to one screen.
type ResetScreenMsg struct {
	Screen screen.Screen
}

// Resolver builds the screen for a navigation. ok is false for unknown paths.
type Resolver func(req NavigateMsg) (s screen.Screen, ok bool)

// Navigate returns a command that opens path with mode.
func Navigate(path string, mode Mode) tea.Cmd {
	return func() tea.Msg { return NavigateMsg{Path: path, Mode: mode} }
}

// NavigateNotice is Navigate with a banner for the opened screen.
func NavigateNotice(path string, mode Mode, notice string) tea.Cmd {
	return func() tea.Msg { return NavigateMsg{Path: path, Mode: mode, Notice: notice} }
}

// Back returns a command that pops the current screen.
func Back() tea.Cmd {
	return func() tea.Msg { return PopScreenMsg{} }
}

// Router manages a stack of screens.
type Router struct {
	stack   []screen.Screen
	resolve Resolver
}

// New creates a new Router with the given initial screen. resolve may be
// nil when only screen messages are used.
func New(initial screen.Screen, resolve Resolver) *Router {
	return &Router{
		stack:   []screen.Screen{initial},
		resolve: resolve,
	}
}

func unmount(s screen.Screen) {
	if u, ok := s.(screen.Unmounter); ok {
		u.Unmount()
	}
}

func suspend(s screen.Screen) {
	if sp, ok := s.(screen.Suspender); ok {
		sp.Suspend()
	}
}

// Push adds a screen on top of the stack and calls its Init(). The covered
// screen is suspended.
func (r *Router) Push(s screen.Screen) tea.Cmd {
	if top := r.Active(); top != nil {
		suspend(top)
	}
	r.stack = append(r.stack, s)
	return s.Init()
}

// Pop removes the top screen. No-op if stack depth would become 0.
// The newly exposed screen is resumed.
func (r *Router) Pop() tea.Cmd {
	if len(r.stack) <= 1 {
		return nil
	}
	unmount(r.stack[len(r.stack)-1])
	r.stack = r.stack[:len(r.stack)-1]
	if res, ok := r.Active().(screen.Resumer); ok {
		return res.Resume()
	}
	return nil
}

// Replace swaps the top screen for s.
func (r *Router) Replace(s screen.Screen) tea.Cmd {
	if len(r.stack) == 0 {
		return r.Push(s)
	}
	unmount(r.stack[len(r.stack)-1])
	r.stack[len(r.stack)-1] = s
	return s.Init()
}

// Reset unmounts every screen and leaves s alone on the stack.
func (r *Router) Reset(s screen.Screen) tea.Cmd {
	for i := len(r.stack) - 1; i >= 0; i-- {
		unmount(r.stack[i])
	}
	r.stack = []screen.Screen{s}
	return s.Init()
}

// Open resolves req and applies its mode. Unknown paths are ignored.
func (r *Router) Open(req NavigateMsg) tea.Cmd {
	if r.resolve == nil {
		return nil
	}
	s, ok := r.resolve(req)
	if !ok {
		return nil
	}
	switch req.Mode {
	case Replace:
		return r.Replace(s)
	case Reset:
		return r.Reset(s)
	default:
		return r.Push(s)
	}
}

// Active returns the top screen on the stack.
func (r *Router) Active() screen.Screen {
	if len(r.stack) == 0 {
		return nil
	}
	return r.stack[len(r.stack)-1]
}

// Depth returns the number of screens on the stack.
func (r *Router) Depth() int {
	return len(r.stack)
}

// Path returns the route of the active screen.
func (r *Router) Path() string {
	if a := r.Active(); a != nil {
		return a.Route()
	}
	return ""
}

// Update forwards a message to the active screen and handles navigation messages.
func (r *Router) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case NavigateMsg:
		return r.Open(msg)
	case PushScreenMsg:
		return r.Push(msg.Screen)
	case PopScreenMsg:
		return r.Pop()
	case ReplaceScreenMsg:
		return r.Replace(msg.Screen)
	case ResetScreenMsg:
		return r.Reset(msg.Screen)
	}

	active := r.Active()
	if active == nil {
		return nil
	}

	updated, cmd := active.Update(msg)
	r.stack[len(r.stack)-1] = updated
	return cmd
}

// View renders the active screen.
func (r *Router) View(width, height int) string {
	active := r.Active()
	if active == nil {
		return ""
	}
	return active.View(width, height)
}

// Match reports whether path matches pattern, where a segment written as
// ":name" matches any single non-empty segment. Captured values are returned
// by name.
func Match(pattern, path string) (map[string]string, bool) {
	ps := strings.Split(strings.Trim(pattern, "/"), "/")
	xs := strings.Split(strings.Trim(path, "/"), "/")
	if len(ps) != len(xs) {
		return nil, false
	}
	params := map[string]string{}
	for i, p := range ps {
		if strings.HasPrefix(p, ":") {
			if xs[i] == "" {
				return nil, false
			}
			params[p[1:]] = xs[i]
			continue
		}
		if p != xs[i] {
			return nil, false
		}
	}
	return params, true
}

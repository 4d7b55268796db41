package screen

import (
	tea "charm.land/bubbletea/v2"

	"github.com/ambis/miniquiz/internal/ui/layout"
)

// Screen defines the interface for all application screens.
type Screen interface {
	// Init returns an initial command when the screen is first created.
	Init() tea.Cmd

	// Update handles messages and returns updated screen + command.
	Update(msg tea.Msg) (Screen, tea.Cmd)

	// View renders the screen content (excluding header/footer).
	View(width, height int) string

	// Title returns the screen name for the header.
	Title() string

	// Route returns the path the screen was opened with, e.g. "/history/42".
	Route() string
}

// KeyHintProvider is an optional interface that screens can implement
// to provide custom footer key hints.
type KeyHintProvider interface {
	KeyHints() []layout.KeyHint
}

// StatusProvider is an optional interface for screens that show something
// on the right side of the header, such as a countdown.
type StatusProvider interface {
	Status() string
}

// Unmounter is implemented by screens holding timers or requests that must
// stop once the screen leaves the stack.
type Unmounter interface {
	Unmount()
}

// Suspender is implemented by screens with requests in flight that must be
// abandoned when another screen is pushed on top. Results addressed to a
// covered screen reach the top screen instead and are lost.
type Suspender interface {
	Suspend()
}

// Resumer is implemented by screens that refresh when they become the top
// of the stack again after a pop.
type Resumer interface {
	Resume() tea.Cmd
}

// TextEntry is implemented by screens that are currently capturing typed
// text, so global single-key shortcuts must not fire.
type TextEntry interface {
	CapturingText() bool
}

// BackInterceptor is implemented by screens with nested modes. Back returns
// true when the screen handled esc itself and the router must not pop.
type BackInterceptor interface {
	Back() bool
}

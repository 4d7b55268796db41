package theme

import (
	"charm.land/lipgloss/v2"
)

// Color palette. Calm exam colours, readable on dark terminals.
var (
	Primary   = lipgloss.Color("#2563EB") // Exam Blue
	Secondary = lipgloss.Color("#0EA5E9") // Sky
	Accent    = lipgloss.Color("#F59E0B") // Amber
	Success   = lipgloss.Color("#22C55E") // Green
	Warning   = lipgloss.Color("#EAB308") // Yellow
	Error     = lipgloss.Color("#EF4444") // Red
	Text      = lipgloss.Color("#F8FAFC") // White
	TextDim   = lipgloss.Color("#94A3B8") // Slate
	BgDark    = lipgloss.Color("#0F172A") // Deep Navy
	BgCard    = lipgloss.Color("#1E293B") // Dark Slate
	Border    = lipgloss.Color("#334155") // Slate
)

// Typography
var (
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(Primary).
		Align(lipgloss.Center)

	Subtitle = lipgloss.NewStyle().
			Foreground(TextDim).
			Align(lipgloss.Center)

	Body = lipgloss.NewStyle().
		Foreground(Text)

	Hint = lipgloss.NewStyle().
		Foreground(TextDim).
		Italic(true)

	Label = lipgloss.NewStyle().
		Foreground(TextDim).
		Bold(true)
)

// Layout
var (
	Card = lipgloss.NewStyle().
		Background(BgCard).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Border).
		Padding(1, 2)

	ErrorBanner = lipgloss.NewStyle().
			Foreground(Error).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Error).
			Padding(0, 1)

	NoticeBanner = lipgloss.NewStyle().
			Foreground(Secondary).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Secondary).
			Padding(0, 1)
)

// States
var (
	Selected = lipgloss.NewStyle().
			Foreground(Primary).
			Bold(true)

	Unselected = lipgloss.NewStyle().
			Foreground(Text)

	Chosen = lipgloss.NewStyle().
		Foreground(Success).
		Bold(true)

	Disabled = lipgloss.NewStyle().
			Foreground(Border)
)

// Countdown
var (
	TimerOK = lipgloss.NewStyle().
		Foreground(Success).
		Bold(true)

	TimerLow = lipgloss.NewStyle().
			Foreground(Warning).
			Bold(true)

	TimerOut = lipgloss.NewStyle().
			Foreground(Error).
			Bold(true)

	TimerUnknown = lipgloss.NewStyle().
			Foreground(TextDim)
)

// Scores
var (
	ScoreGood = lipgloss.NewStyle().Foreground(Success).Bold(true)
	ScoreFair = lipgloss.NewStyle().Foreground(Warning).Bold(true)
	ScorePoor = lipgloss.NewStyle().Foreground(Error).Bold(true)
)

// Components
var (
	ProgressFilled = lipgloss.NewStyle().
			Background(Secondary)

	ProgressEmpty = lipgloss.NewStyle().
			Background(Border)

	ButtonActive = lipgloss.NewStyle().
			Background(Primary).
			Foreground(Text).
			Bold(true).
			Padding(0, 2)

	ButtonInactive = lipgloss.NewStyle().
			Background(BgCard).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Border).
			Padding(0, 2)
)

// Score picks the style for a percentage score.
func Score(pct float64) lipgloss.Style {
	switch {
	case pct >= 80:
		return ScoreGood
	case pct >= 60:
		return ScoreFair
	default:
		return ScorePoor
	}
}

// Timer picks the style for a countdown with the given seconds left.
// Unknown expiry renders dim.
func Timer(seconds int, known bool) lipgloss.Style {
	switch {
	case !known:
		return TimerUnknown
	case seconds <= 0:
		return TimerOut
	case seconds <= 60:
		return TimerLow
	default:
		return TimerOK
	}
}

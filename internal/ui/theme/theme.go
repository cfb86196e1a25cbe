package theme

import (
	"image/color"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/cefrquiz/internal/cefr"
)

// Color palette
var (
	Primary   = lipgloss.Color("#2563EB") // Blue
	Secondary = lipgloss.Color("#14B8A6") // Teal
	Accent    = lipgloss.Color("#F59E0B") // Amber
	Success   = lipgloss.Color("#22C55E") // Green
	Error     = lipgloss.Color("#F43F5E") // Rose
	Text      = lipgloss.Color("#F8FAFC") // White
	TextDim   = lipgloss.Color("#94A3B8") // Slate
	BgCard    = lipgloss.Color("#1E293B") // Dark Slate
	Border    = lipgloss.Color("#334155") // Slate
)

// bandColors runs cool to warm as the difficulty rises.
var bandColors = map[cefr.Band]color.Color{
	cefr.A1: lipgloss.Color("#38BDF8"),
	cefr.A2: lipgloss.Color("#22D3EE"),
	cefr.B1: lipgloss.Color("#34D399"),
	cefr.B2: lipgloss.Color("#A3E635"),
	cefr.C1: lipgloss.Color("#FBBF24"),
	cefr.C2: lipgloss.Color("#FB923C"),
}

// BandColor returns the accent color for a difficulty band.
func BandColor(b cefr.Band) color.Color {
	if c, ok := bandColors[b]; ok {
		return c
	}
	return Text
}

// Typography
var (
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(Primary)

	Subtitle = lipgloss.NewStyle().
			Foreground(TextDim)

	Body = lipgloss.NewStyle().
		Foreground(Text)

	Hint = lipgloss.NewStyle().
		Foreground(TextDim).
		Italic(true)

	Warning = lipgloss.NewStyle().
		Foreground(Accent)
)

// Layout
var (
	Card = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Border).
		Padding(0, 1)
)

// States
var (
	Selected = lipgloss.NewStyle().
			Foreground(Primary).
			Bold(true)

	Unselected = lipgloss.NewStyle().
			Foreground(Text)

	Correct = lipgloss.NewStyle().
		Foreground(Success).
		Bold(true)

	Incorrect = lipgloss.NewStyle().
			Foreground(Error).
			Bold(true)
)

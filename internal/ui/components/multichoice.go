package components

import (
	"fmt"
	"strconv"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/cefrquiz/internal/catalog"
	"github.com/abhisek/cefrquiz/internal/ui/theme"
)

// MultiChoice is a multiple-choice selector. The correct answer is not
// known to the component until Reveal is called after the engine has
// scored the selection.
type MultiChoice struct {
	Choices  []catalog.Choice
	Selected int
	Locked   bool

	revealed bool
	correct  string
}

// NewMultiChoice creates a selector over the given choices.
func NewMultiChoice(choices []catalog.Choice) MultiChoice {
	return MultiChoice{Choices: choices}
}

// Update handles keyboard navigation. Digits jump straight to a choice.
func (m MultiChoice) Update(msg tea.Msg) (MultiChoice, tea.Cmd) {
	if m.Locked {
		return m, nil
	}

	kmsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch key := kmsg.String(); key {
	case "up", "k":
		if m.Selected > 0 {
			m.Selected--
		}
	case "down", "j":
		if m.Selected < len(m.Choices)-1 {
			m.Selected++
		}
	default:
		if n, err := strconv.Atoi(key); err == nil && n >= 1 && n <= len(m.Choices) {
			m.Selected = n - 1
		}
	}

	return m, nil
}

// Value returns the text of the highlighted choice, or "" when there are
// no choices.
func (m MultiChoice) Value() string {
	if m.Selected < 0 || m.Selected >= len(m.Choices) {
		return ""
	}
	return m.Choices[m.Selected].Text
}

// Reveal locks the selector and marks the correct choice.
func (m *MultiChoice) Reveal(correct string) {
	m.Locked = true
	m.revealed = true
	m.correct = correct
}

// View renders the choices.
func (m MultiChoice) View() string {
	var s string
	for i, c := range m.Choices {
		label := c.Label
		if label == "" {
			label = string(rune('A' + i%26))
		}

		prefix := "  "
		if i == m.Selected && !m.Locked {
			prefix = "▸ "
		}
		line := fmt.Sprintf("%s%s)  %s", prefix, label, c.Text)

		style := theme.Unselected
		switch {
		case m.revealed && catalog.AnswersMatch(c.Text, m.correct):
			style = theme.Correct
		case m.revealed && i == m.Selected:
			style = theme.Incorrect
		case m.revealed:
			style = lipgloss.NewStyle().Foreground(theme.TextDim)
		case i == m.Selected:
			style = theme.Selected
		}
		s += style.Render(line) + "\n"
	}
	return s
}

package components

import (
	"fmt"

	"charm.land/bubbles/v2/textarea"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/cefrquiz/internal/catalog"
	"github.com/abhisek/cefrquiz/internal/ui/theme"
)

// WordArea is a multi-line editor for written answers with a live word
// counter against the question's minimum.
type WordArea struct {
	Model    textarea.Model
	Required int
}

// NewWordArea creates a focused editor.
func NewWordArea(required, width, height int) WordArea {
	ta := textarea.New()
	ta.Placeholder = "Write your answer here..."
	ta.ShowLineNumbers = false
	ta.SetWidth(width)
	ta.SetHeight(height)
	ta.Focus()
	return WordArea{Model: ta, Required: required}
}

// Init returns the initial command.
func (w WordArea) Init() tea.Cmd {
	return w.Model.Focus()
}

// Update handles messages.
func (w WordArea) Update(msg tea.Msg) (WordArea, tea.Cmd) {
	var cmd tea.Cmd
	w.Model, cmd = w.Model.Update(msg)
	return w, cmd
}

// Value returns the text typed so far.
func (w WordArea) Value() string {
	return w.Model.Value()
}

// Words returns the current word count.
func (w WordArea) Words() int {
	return catalog.WordCount(w.Model.Value())
}

// Blur stops accepting input.
func (w *WordArea) Blur() {
	w.Model.Blur()
}

// View renders the editor and the counter.
func (w WordArea) View() string {
	n := w.Words()
	style := lipgloss.NewStyle().Foreground(theme.TextDim)
	if n >= w.Required {
		style = lipgloss.NewStyle().Foreground(theme.Success)
	}
	return w.Model.View() + "\n" + style.Render(fmt.Sprintf("%d / %d words", n, w.Required))
}

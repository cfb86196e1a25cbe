package quiz

import (
	"fmt"
	"strconv"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/cefrquiz/internal/catalog"
	"github.com/abhisek/cefrquiz/internal/session"
	"github.com/abhisek/cefrquiz/internal/ui/components"
	"github.com/abhisek/cefrquiz/internal/ui/layout"
	"github.com/abhisek/cefrquiz/internal/ui/theme"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

func (s *Screen) View(width, height int) string {
	cols := layout.Columns(width)
	snap := s.engine.Snapshot()
	var b strings.Builder

	if s.finishing {
		b.WriteString("\n" + s.spinner() + " Wrapping up your session...\n")
		return pad(b.String())
	}
	if s.question == nil {
		b.WriteString("\n" + s.spinner() + " Loading the next question...\n")
		if s.message != "" {
			b.WriteString("\n" + theme.Warning.Render(s.message) + "\n")
		}
		return pad(b.String())
	}

	q := s.question
	b.WriteString("\n")
	b.WriteString(s.questionHeader(snap))
	b.WriteString("\n\n")

	if snap.Passage != "" {
		card := theme.Card.Width(cols)
		if layout.IsCompactHeight(height) {
			card = card.MaxHeight(6)
		}
		b.WriteString(card.Render(snap.Passage))
		b.WriteString("\n\n")
	}
	if q.Audio != "" {
		b.WriteString(theme.Hint.Render("Listen: " + s.deps.Backend.AudioURL(q.Audio)))
		b.WriteString("\n")
	}
	if q.Image != "" {
		b.WriteString(theme.Hint.Render("Image: " + q.Image))
		b.WriteString("\n")
	}

	b.WriteString(lipgloss.NewStyle().Foreground(theme.Text).Bold(true).Width(cols).Render(q.Text))
	b.WriteString("\n\n")

	switch q.AnswerType {
	case catalog.OpenEnded:
		if snap.Rubric != "" && !layout.IsCompactHeight(height) {
			b.WriteString(theme.Hint.Width(cols).MaxHeight(3).Render("Rubric: " + snap.Rubric))
			b.WriteString("\n")
		}
		b.WriteString(s.writing.View())
	case catalog.SpokenResponse:
		b.WriteString(theme.Subtitle.Render("Record your answer, then enter the file path:"))
		b.WriteString("\n")
		b.WriteString(s.recording.View())
	default:
		b.WriteString(s.choices.View())
	}
	b.WriteString("\n")

	if fb := s.feedback(snap); fb != "" {
		b.WriteString("\n" + lipgloss.NewStyle().Width(cols).Render(fb) + "\n")
	}
	if s.message != "" {
		b.WriteString("\n" + theme.Warning.Width(cols).Render(s.message) + "\n")
	}

	bar := components.NewProgressBar("Progress", float64(snap.Answered)/float64(max(snap.MaxQuestions, 1)), min(cols, 60))
	bar.Caption = fmt.Sprintf("%d of %d", snap.Answered, snap.MaxQuestions)
	b.WriteString("\n" + bar.View() + "\n")

	return pad(b.String())
}

func (s *Screen) questionHeader(snap session.Snapshot) string {
	band := lipgloss.NewStyle().Foreground(theme.BandColor(snap.Band)).Bold(true).Render(snap.Band.String())
	parts := []string{fmt.Sprintf("Question %d", snap.Served), band}
	if s.question.Category != "" {
		parts = append(parts, s.question.Category)
	}
	if s.question.WritingType != "" {
		parts = append(parts, s.question.WritingType)
	}
	return theme.Subtitle.Render(strings.Join(parts, "  ·  "))
}

// feedback describes the outcome of the current answer, if any.
func (s *Screen) feedback(snap session.Snapshot) string {
	if s.submitting {
		if s.question.AnswerType == catalog.SpokenResponse {
			return s.spinner() + " Transcribing your recording..."
		}
		return s.spinner() + " Checking..."
	}
	if s.entry == nil {
		return ""
	}

	switch s.entry.Correct {
	case session.Correct:
		return theme.Correct.Render("Correct!")
	case session.Incorrect:
		out := theme.Incorrect.Render("Not quite.")
		if s.entry.CorrectAnswer != "" {
			out += " " + theme.Body.Render("The answer is: "+s.entry.CorrectAnswer)
		}
		return out
	}

	if s.eval == nil {
		if snap.Pending {
			return s.spinner() + " Evaluating your answer..."
		}
		return theme.Hint.Render("Answer recorded.")
	}
	if s.eval.Failed() {
		return theme.Incorrect.Render("Evaluation failed: ") + theme.Body.Render(s.eval.Err.Error())
	}
	out := theme.Correct.Render(fmt.Sprintf("Score %s/5", formatScore(s.eval.Score)))
	if s.eval.Feedback != "" {
		out += "\n" + theme.Body.Render(s.eval.Feedback)
	}
	if s.entry.Payload != "" && s.question.AnswerType == catalog.SpokenResponse {
		out += "\n" + theme.Hint.Render("Transcript: "+s.entry.Payload)
	}
	return out
}

func (s *Screen) spinner() string {
	return lipgloss.NewStyle().Foreground(theme.Secondary).Render(spinnerFrames[s.frame%len(spinnerFrames)])
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func pad(content string) string {
	return lipgloss.NewStyle().Padding(0, 3).Render(content)
}

// Package summary shows the end-of-session report.
package summary

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/cefrquiz/internal/backend"
	"github.com/abhisek/cefrquiz/internal/catalog"
	"github.com/abhisek/cefrquiz/internal/cefr"
	"github.com/abhisek/cefrquiz/internal/export"
	"github.com/abhisek/cefrquiz/internal/router"
	"github.com/abhisek/cefrquiz/internal/screen"
	"github.com/abhisek/cefrquiz/internal/session"
	"github.com/abhisek/cefrquiz/internal/ui/components"
	"github.com/abhisek/cefrquiz/internal/ui/layout"
	"github.com/abhisek/cefrquiz/internal/ui/theme"
)

const reloadTimeout = 30 * time.Second

// Config holds what the summary screen needs.
type Config struct {
	Backend   backend.Backend
	Learner   string
	ExportDir string
	Summary   session.Summary

	// AggregateErr is set when the learner's aggregate could not be
	// fetched; the level is then unavailable.
	AggregateErr error

	// Restart resets the session with a freshly loaded catalog and returns
	// the screen that continues it.
	Restart func(*catalog.Catalog) screen.Screen
}

type exportedMsg struct {
	Path string
	Err  error
}

type reloadedMsg struct {
	Catalog *catalog.Catalog
	Err     error
}

// Screen displays the session summary.
type Screen struct {
	cfg     Config
	menu    components.Menu
	status  string
	busy    bool
	nowFunc func() time.Time
}

var _ screen.Screen = (*Screen)(nil)
var _ screen.KeyHintProvider = (*Screen)(nil)
var _ screen.StatusProvider = (*Screen)(nil)

// New creates the summary screen.
func New(cfg Config) *Screen {
	s := &Screen{cfg: cfg, nowFunc: time.Now}
	s.menu = components.NewMenu([]components.MenuItem{
		{Label: "Export PDF", Key: "p", Action: s.exportPDF},
		{Label: "Play again", Key: "r", Action: s.restart, Disabled: cfg.Restart == nil},
		{Label: "Quit", Key: "q", Action: func() tea.Cmd { return tea.Quit }},
	})
	return s
}

func (s *Screen) Init() tea.Cmd {
	return nil
}

func (s *Screen) Title() string {
	return "Session Summary"
}

func (s *Screen) Status() string {
	if s.cfg.Summary.Level == "" {
		return ""
	}
	return "Level " + string(s.cfg.Summary.Level)
}

func (s *Screen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Enter", Description: "Select"},
		{Key: "Ctrl+C", Description: "Quit"},
	}
}

func (s *Screen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case exportedMsg:
		s.busy = false
		if msg.Err != nil {
			s.status = "Export failed: " + msg.Err.Error()
		} else {
			s.status = "Saved " + msg.Path
		}
		return s, nil
	case reloadedMsg:
		s.busy = false
		if msg.Err != nil {
			s.status = "Could not reload the questions: " + msg.Err.Error()
			return s, nil
		}
		next := s.cfg.Restart(msg.Catalog)
		return s, func() tea.Msg { return router.ReplaceScreenMsg{Screen: next} }
	case tea.KeyMsg:
		if s.busy {
			return s, nil
		}
		var cmd tea.Cmd
		s.menu, cmd = s.menu.Update(msg)
		return s, cmd
	}
	return s, nil
}

func (s *Screen) exportPDF() tea.Cmd {
	s.busy = true
	s.status = "Exporting..."
	report := export.FromSummary(s.cfg.Learner, s.cfg.Summary)
	path := filepath.Join(s.cfg.ExportDir, export.FileName(s.cfg.Learner, s.nowFunc()))
	return func() tea.Msg {
		return exportedMsg{Path: path, Err: export.SavePDF(path, report)}
	}
}

func (s *Screen) restart() tea.Cmd {
	s.busy = true
	s.status = "Loading a new set of questions..."
	b := s.cfg.Backend
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), reloadTimeout)
		defer cancel()
		cat, err := b.LoadCatalog(ctx)
		return reloadedMsg{Catalog: cat, Err: err}
	}
}

func (s *Screen) View(width, height int) string {
	sum := s.cfg.Summary
	cols := layout.Columns(width)
	center := func(str string) string {
		return lipgloss.PlaceHorizontal(width, lipgloss.Center, str)
	}

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(center(theme.Title.Render("Session complete!")))
	b.WriteString("\n\n")

	stats := fmt.Sprintf("Answered: %d        Correct: %d        Accuracy: %.0f%%",
		sum.Answered, sum.Correct, sum.Accuracy*100)
	b.WriteString(center(theme.Body.Render(stats)))
	b.WriteString("\n\n")

	switch {
	case sum.Aggregate != nil && sum.Aggregate.TotalSubmissions > 0:
		agg := sum.Aggregate
		level := lipgloss.NewStyle().Foreground(theme.Accent).Bold(true).
			Render("Estimated CEFR level: " + string(sum.Level))
		b.WriteString(center(level))
		b.WriteString("\n")
		b.WriteString(center(theme.Subtitle.Render(sum.Encouragement)))
		b.WriteString("\n\n")

		bar := components.NewProgressBar("Average score", cefr.ScorePercent(agg.AverageScore)/100, min(cols, 60))
		bar.Caption = fmt.Sprintf("%s / 5", strconv.FormatFloat(agg.AverageScore, 'f', 2, 64))
		b.WriteString(center(bar.View()))
		b.WriteString("\n")
		b.WriteString(center(theme.Hint.Render(fmt.Sprintf("%d evaluated answers", agg.TotalSubmissions))))
		b.WriteString("\n\n")
	case s.cfg.AggregateErr != nil:
		b.WriteString(center(theme.Warning.Render("Your level is unavailable right now: " + s.cfg.AggregateErr.Error())))
		b.WriteString("\n\n")
	default:
		b.WriteString(center(theme.Hint.Render("No written or spoken answers were evaluated yet.")))
		b.WriteString("\n\n")
	}

	if review := s.reviewLines(cols); len(review) > 0 {
		room := max(height-lipgloss.Height(b.String())-len(s.menu.Items)-4, 3)
		if len(review) > room {
			omitted := theme.Hint.Render("  (earlier answers omitted)")
			review = append([]string{omitted}, review[len(review)-room+1:]...)
		}
		for _, line := range review {
			b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, lipgloss.NewStyle().Width(cols).Render(line)))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	b.WriteString(center(s.menu.View()))
	if s.status != "" {
		b.WriteString("\n" + center(theme.Hint.Render(s.status)))
	}
	return b.String()
}

// reviewLines renders one line per answer, newest last.
func (s *Screen) reviewLines(cols int) []string {
	sum := s.cfg.Summary
	grades := make(map[int]session.EvaluationResult, len(sum.Evaluations))
	for _, ev := range sum.Evaluations {
		grades[ev.Seq] = ev
	}

	lines := make([]string, 0, len(sum.Review))
	for _, e := range sum.Review {
		outcome := theme.Hint.Render("pending")
		switch e.Correct {
		case session.Correct:
			outcome = theme.Correct.Render("correct")
		case session.Incorrect:
			outcome = theme.Incorrect.Render("incorrect")
		default:
			if ev, ok := grades[e.Seq]; ok {
				if ev.Failed() {
					outcome = theme.Incorrect.Render("evaluation failed")
				} else {
					outcome = theme.Correct.Render(strconv.FormatFloat(ev.Score, 'f', -1, 64) + "/5")
				}
			}
		}
		band := lipgloss.NewStyle().Foreground(theme.BandColor(e.Band)).Render(e.Band.String())
		text := truncate(e.QuestionText, max(cols-30, 10))
		lines = append(lines, fmt.Sprintf("%3d. %s  %s  %s", e.Seq, band, theme.Body.Render(text), outcome))
	}
	return lines
}

func truncate(s string, n int) string {
	r := []rune(strings.Join(strings.Fields(s), " "))
	if len(r) <= n {
		return string(r)
	}
	return string(r[:n-1]) + "…"
}

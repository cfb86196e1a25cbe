// Package register asks for the learner's name, registers them and loads
// the question catalog before the quiz starts.
package register

import (
	"context"
	"errors"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/cefrquiz/internal/backend"
	"github.com/abhisek/cefrquiz/internal/catalog"
	"github.com/abhisek/cefrquiz/internal/router"
	"github.com/abhisek/cefrquiz/internal/screen"
	"github.com/abhisek/cefrquiz/internal/screens/quiz"
	"github.com/abhisek/cefrquiz/internal/session"
	"github.com/abhisek/cefrquiz/internal/ui/components"
	"github.com/abhisek/cefrquiz/internal/ui/layout"
	"github.com/abhisek/cefrquiz/internal/ui/theme"
)

const startTimeout = 30 * time.Second

const banner = `  ___ ___ ___ ___    ___       _
 / __| __| __| _ \  / _ \ _  _(_)___
| (__| _|| _||   / | (_) | || | |_ /
 \___|___|_| |_|_\  \__\_\\_,_|_/__|`

// Config configures the registration screen.
type Config struct {
	// Deps is passed on to the quiz; Learner and UserID are filled in here.
	Deps quiz.Deps

	// Session is the engine configuration; UserID is filled in here.
	Session session.Config

	// Name pre-fills the input.
	Name string
}

type startedMsg struct {
	Registration *backend.Registration
	Catalog      *catalog.Catalog
	Err          error
}

// Screen is the registration page.
type Screen struct {
	cfg     Config
	input   components.TextInput
	loading bool
	errMsg  string
}

var _ screen.Screen = (*Screen)(nil)
var _ screen.KeyHintProvider = (*Screen)(nil)

// New creates the registration screen.
func New(cfg Config) *Screen {
	in := components.NewTextInput("Your name", 64)
	if cfg.Name != "" {
		in.Model.SetValue(cfg.Name)
	}
	return &Screen{cfg: cfg, input: in}
}

func (s *Screen) Init() tea.Cmd {
	return s.input.Init()
}

func (s *Screen) Title() string {
	return "Welcome"
}

func (s *Screen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Enter", Description: "Start quiz"},
		{Key: "Ctrl+C", Description: "Quit"},
	}
}

func (s *Screen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case startedMsg:
		s.loading = false
		if msg.Err != nil {
			s.errMsg = describe(msg.Err)
			return s, nil
		}
		next := s.startQuiz(msg.Registration, msg.Catalog)
		return s, func() tea.Msg { return router.ReplaceScreenMsg{Screen: next} }

	case tea.KeyMsg:
		if s.loading {
			return s, nil
		}
		if msg.String() == "enter" {
			name := strings.TrimSpace(s.input.Value())
			if name == "" {
				s.errMsg = "Please enter your name."
				return s, nil
			}
			s.loading = true
			s.errMsg = ""
			return s, s.start(name)
		}
	}

	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)
	return s, cmd
}

// start registers the learner, then loads the catalog. Registration comes
// first so a server without a catalog still records the learner.
func (s *Screen) start(name string) tea.Cmd {
	b := s.cfg.Deps.Backend
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), startTimeout)
		defer cancel()
		reg, err := b.RegisterUser(ctx, name)
		if err != nil {
			return startedMsg{Err: err}
		}
		cat, err := b.LoadCatalog(ctx)
		if err != nil {
			return startedMsg{Err: err}
		}
		return startedMsg{Registration: reg, Catalog: cat}
	}
}

func (s *Screen) startQuiz(reg *backend.Registration, cat *catalog.Catalog) screen.Screen {
	deps := s.cfg.Deps
	deps.Learner = strings.TrimSpace(s.input.Value())
	deps.UserID = reg.UserID

	cfg := s.cfg.Session
	cfg.UserID = reg.UserID

	opts := []session.Option{
		session.WithEvaluator(deps.Backend),
		session.WithTranscriber(deps.Backend),
	}
	if deps.Logger != nil {
		opts = append(opts, session.WithLogger(deps.Logger))
	}
	return quiz.New(deps, session.New(cat, cfg, opts...), backend.ActionStart)
}

func describe(err error) string {
	switch {
	case errors.Is(err, backend.ErrEmptyName):
		return "Please enter your name."
	case errors.Is(err, catalog.ErrEmpty):
		return "No questions are available yet. Run `cefrquiz seed` to load one."
	case backend.IsUnavailable(err):
		return "Could not reach the quiz service: " + err.Error()
	}
	return "Could not start the quiz: " + err.Error()
}

func (s *Screen) View(width, height int) string {
	center := func(str string) string {
		return lipgloss.PlaceHorizontal(width, lipgloss.Center, str)
	}

	var b strings.Builder
	b.WriteString("\n")
	if !layout.IsCompactHeight(height) {
		b.WriteString(center(theme.Title.Render(banner)))
		b.WriteString("\n\n")
	}
	b.WriteString(center(theme.Subtitle.Render("Find your English level, from A1 to C2.")))
	b.WriteString("\n\n")
	b.WriteString(center(theme.Body.Render("What's your name?")))
	b.WriteString("\n\n")
	b.WriteString(center(theme.Card.Width(40).Render(s.input.View())))
	b.WriteString("\n\n")

	switch {
	case s.loading:
		b.WriteString(center(theme.Hint.Render("Getting your questions ready...")))
	case s.errMsg != "":
		b.WriteString(center(theme.Incorrect.Render(s.errMsg)))
	}
	return b.String()
}

// Package quiz is the question-answering screen of a quiz session.
package quiz

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/cefrquiz/internal/backend"
	"github.com/abhisek/cefrquiz/internal/catalog"
	"github.com/abhisek/cefrquiz/internal/router"
	"github.com/abhisek/cefrquiz/internal/screen"
	"github.com/abhisek/cefrquiz/internal/screens/summary"
	"github.com/abhisek/cefrquiz/internal/session"
	"github.com/abhisek/cefrquiz/internal/ui/components"
	"github.com/abhisek/cefrquiz/internal/ui/layout"
)

const (
	// callTimeout bounds each backend call made from the screen.
	callTimeout = 30 * time.Second

	// noteBuffer is how many engine notifications may queue up between
	// two reads of the update loop.
	noteBuffer = 32

	spinnerInterval = 120 * time.Millisecond
)

// Deps are the collaborators shared by the quiz flow screens.
type Deps struct {
	Backend backend.Backend
	Learner string
	UserID  string

	// ExportDir is where the summary screen writes PDF reports.
	ExportDir string

	Logger session.Logger

	// ReadFile loads a recording for spoken answers. Defaults to os.ReadFile.
	ReadFile func(string) ([]byte, error)
}

func (d Deps) withDefaults() Deps {
	if d.Logger == nil {
		d.Logger = log.New(io.Discard, "", 0)
	}
	if d.ReadFile == nil {
		d.ReadFile = os.ReadFile
	}
	return d
}

// Screen presents one question at a time and submits answers to the
// engine. It never mutates session state itself.
type Screen struct {
	deps    Deps
	engine  *session.Engine
	action  string
	started time.Time

	notes       chan session.Notification
	done        chan struct{}
	unsubscribe func()

	question  *catalog.Question
	choices   components.MultiChoice
	writing   components.WordArea
	recording components.TextInput

	// entry is the accepted answer to the current question, eval its grade.
	entry *session.ReviewEntry
	eval  *session.EvaluationResult

	message    string
	submitting bool
	finishing  bool
	frame      int
}

var _ screen.Screen = (*Screen)(nil)
var _ screen.KeyHintProvider = (*Screen)(nil)
var _ screen.StatusProvider = (*Screen)(nil)
var _ screen.EscapeHandler = (*Screen)(nil)

// New creates a quiz screen over eng. action is the session event recorded
// when the screen starts: backend.ActionStart or backend.ActionRestart.
func New(d Deps, eng *session.Engine, action string) *Screen {
	s := &Screen{
		deps:    d.withDefaults(),
		engine:  eng,
		action:  action,
		started: time.Now(),
		notes:   make(chan session.Notification, noteBuffer),
		done:    make(chan struct{}),
	}
	s.unsubscribe = eng.Subscribe(func(n session.Notification) {
		select {
		case s.notes <- n:
		default:
			s.deps.Logger.Printf("quiz: dropped %s notification", n.Kind)
		}
	})
	return s
}

func (s *Screen) Init() tea.Cmd {
	return tea.Batch(
		s.recordEvent(s.action),
		s.advance(),
		s.waitForNotification(),
		spinnerTick(),
	)
}

func (s *Screen) Title() string {
	return "Quiz"
}

func (s *Screen) HandlesEscape() bool { return true }

func (s *Screen) Status() string {
	snap := s.engine.Snapshot()
	return fmt.Sprintf("%s  %d/%d", snap.Band, snap.Answered, snap.MaxQuestions)
}

func (s *Screen) KeyHints() []layout.KeyHint {
	end := layout.KeyHint{Key: "Esc", Description: "End session"}
	switch {
	case s.finishing:
		return []layout.KeyHint{{Key: "Ctrl+C", Description: "Quit"}}
	case s.entry != nil:
		return []layout.KeyHint{{Key: "Enter", Description: "Next question"}, end}
	case s.question == nil:
		return []layout.KeyHint{end}
	}
	switch s.question.AnswerType {
	case catalog.OpenEnded:
		return []layout.KeyHint{{Key: "Ctrl+S", Description: "Submit"}, end}
	case catalog.SpokenResponse:
		return []layout.KeyHint{{Key: "Enter", Description: "Submit recording"}, end}
	}
	return []layout.KeyHint{
		{Key: "↑↓/1-9", Description: "Choose"},
		{Key: "Enter", Description: "Submit"},
		end,
	}
}

func (s *Screen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case advancedMsg:
		return s.handleAdvanced(msg)
	case submittedMsg:
		return s.handleSubmitted(msg)
	case notificationMsg:
		return s.handleNotification(session.Notification(msg))
	case finishedMsg:
		return s, s.showSummary(msg)
	case spinnerTickMsg:
		if s.finishing && !s.engine.Snapshot().Pending {
			return s, nil
		}
		s.frame++
		return s, spinnerTick()
	case tea.KeyMsg:
		return s.handleKey(msg)
	}
	return s.forward(msg)
}

func (s *Screen) handleAdvanced(msg advancedMsg) (screen.Screen, tea.Cmd) {
	switch {
	case errors.Is(msg.Err, session.ErrFinished):
		return s, s.finish()
	case errors.Is(msg.Err, session.ErrEvaluationPending):
		s.message = "Still evaluating your last answer. Try again in a moment."
		return s, nil
	case msg.Err != nil:
		s.message = "Could not load the next question: " + msg.Err.Error()
		return s, nil
	case msg.Question == nil:
		return s, s.finish()
	}

	q := msg.Question
	s.question = q
	s.entry = nil
	s.eval = nil
	s.message = ""

	switch q.AnswerType {
	case catalog.OpenEnded:
		s.writing = components.NewWordArea(q.RequiredWords(), 70, 8)
		return s, s.writing.Init()
	case catalog.SpokenResponse:
		s.recording = components.NewTextInput("path/to/recording.webm", 0)
		return s, s.recording.Init()
	}
	s.choices = components.NewMultiChoice(q.Choices)
	return s, nil
}

func (s *Screen) handleKey(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	if s.finishing {
		return s, nil
	}
	if msg.String() == "esc" {
		s.engine.Terminate()
		return s, s.finish()
	}
	if s.submitting || s.question == nil {
		return s, nil
	}

	if s.entry != nil {
		if msg.String() != "enter" {
			return s, nil
		}
		if s.engine.Snapshot().Pending {
			s.message = "Still evaluating your answer..."
			return s, nil
		}
		return s, s.advance()
	}

	var cmd tea.Cmd
	switch s.question.AnswerType {
	case catalog.OpenEnded:
		if msg.String() == "ctrl+s" {
			return s, s.submit(session.Response{Text: s.writing.Value()})
		}
		s.writing, cmd = s.writing.Update(msg)
	case catalog.SpokenResponse:
		if msg.String() == "enter" {
			return s, s.submitRecording(strings.TrimSpace(s.recording.Value()))
		}
		s.recording, cmd = s.recording.Update(msg)
	default:
		if msg.String() == "enter" {
			return s, s.submit(session.Response{Choice: s.choices.Value()})
		}
		s.choices, cmd = s.choices.Update(msg)
	}
	return s, cmd
}

// forward passes non-key messages such as cursor blinks to the live input.
func (s *Screen) forward(msg tea.Msg) (screen.Screen, tea.Cmd) {
	if s.question == nil || s.entry != nil {
		return s, nil
	}
	var cmd tea.Cmd
	switch s.question.AnswerType {
	case catalog.OpenEnded:
		s.writing, cmd = s.writing.Update(msg)
	case catalog.SpokenResponse:
		s.recording, cmd = s.recording.Update(msg)
	}
	return s, cmd
}

func (s *Screen) handleSubmitted(msg submittedMsg) (screen.Screen, tea.Cmd) {
	s.submitting = false
	if msg.Err != nil {
		switch {
		case errors.Is(msg.Err, session.ErrFinished):
			return s, s.finish()
		case errors.Is(msg.Err, session.ErrRejected):
			s.message = rejectionText(msg.Err)
		default:
			s.message = "Could not submit your answer: " + msg.Err.Error()
		}
		return s, nil
	}

	s.entry = msg.Entry
	s.message = ""
	switch s.question.AnswerType {
	case catalog.MultipleChoice:
		s.choices.Reveal(s.question.CorrectAnswer)
	case catalog.OpenEnded:
		s.writing.Blur()
	}
	return s, nil
}

func (s *Screen) handleNotification(n session.Notification) (screen.Screen, tea.Cmd) {
	next := s.waitForNotification()
	switch n.Kind {
	case session.EvaluationCompleted, session.EvaluationFailed:
		if s.entry != nil && n.Evaluation != nil && n.Evaluation.Seq == s.entry.Seq {
			s.eval = n.Evaluation
		}
	case session.SessionFinished:
		return s, tea.Batch(next, s.finish())
	}
	return s, next
}

func (s *Screen) showSummary(msg finishedMsg) tea.Cmd {
	scr := summary.New(summary.Config{
		Backend:      s.deps.Backend,
		Learner:      s.deps.Learner,
		ExportDir:    s.deps.ExportDir,
		Summary:      msg.Summary,
		AggregateErr: msg.Err,
		Restart: func(cat *catalog.Catalog) screen.Screen {
			s.engine.Restart(cat)
			return New(s.deps, s.engine, backend.ActionRestart)
		},
	})
	return func() tea.Msg { return router.ReplaceScreenMsg{Screen: scr} }
}

func (s *Screen) advance() tea.Cmd {
	eng := s.engine
	return func() tea.Msg {
		q, err := eng.Advance()
		return advancedMsg{Question: q, Err: err}
	}
}

func (s *Screen) submit(r session.Response) tea.Cmd {
	s.submitting = true
	eng := s.engine
	return func() tea.Msg {
		entry, err := eng.Submit(context.Background(), r)
		return submittedMsg{Entry: entry, Err: err}
	}
}

// submitRecording reads the file at path and submits it. An empty path
// submits an empty recording, which the engine rejects.
func (s *Screen) submitRecording(path string) tea.Cmd {
	s.submitting = true
	eng, read := s.engine, s.deps.ReadFile
	return func() tea.Msg {
		var audio []byte
		if path != "" {
			var err error
			if audio, err = read(path); err != nil {
				return submittedMsg{Err: fmt.Errorf("read recording: %w", err)}
			}
		}
		entry, err := eng.Submit(context.Background(), session.Response{Audio: audio})
		return submittedMsg{Entry: entry, Err: err}
	}
}

// finish stops listening to the engine and builds the summary once any
// evaluation still in flight has resolved.
func (s *Screen) finish() tea.Cmd {
	if s.finishing {
		return nil
	}
	s.finishing = true
	close(s.done)
	s.unsubscribe()

	eng, b, logger := s.engine, s.deps.Backend, s.deps.Logger
	record := s.recordEvent(backend.ActionEnd)
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
		defer cancel()
		if err := eng.Wait(ctx); err != nil {
			logger.Printf("quiz: wait for evaluation: %v", err)
		}
		record()
		agg, err := b.FetchSummary(ctx, eng.Config().UserID)
		if err != nil {
			logger.Printf("quiz: fetch summary: %v", err)
		}
		return finishedMsg{Summary: eng.Summary(agg), Err: err}
	}
}

func (s *Screen) recordEvent(action string) tea.Cmd {
	eng, b, logger, started := s.engine, s.deps.Backend, s.deps.Logger, s.started
	return func() tea.Msg {
		snap := eng.Snapshot()
		ev := backend.SessionEvent{
			SessionID: eng.ID(),
			UserID:    eng.Config().UserID,
			Action:    action,
			Answered:  snap.Answered,
			Correct:   snap.Correct,
		}
		if action == backend.ActionEnd {
			ev.Duration = time.Since(started)
		}
		ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
		defer cancel()
		if err := b.RecordSession(ctx, ev); err != nil {
			logger.Printf("quiz: record %s event: %v", action, err)
		}
		return nil
	}
}

func (s *Screen) waitForNotification() tea.Cmd {
	notes, done := s.notes, s.done
	return func() tea.Msg {
		select {
		case n := <-notes:
			return notificationMsg(n)
		case <-done:
			return nil
		}
	}
}

func spinnerTick() tea.Cmd {
	return tea.Tick(spinnerInterval, func(t time.Time) tea.Msg {
		return spinnerTickMsg(t)
	})
}

// rejectionText turns a rejection into a prompt for the learner.
func rejectionText(err error) string {
	var re *session.RejectionError
	if !errors.As(err, &re) {
		return err.Error()
	}
	switch re.Reason {
	case session.ReasonNoSelection:
		return "Pick one of the choices first."
	case session.ReasonUnknownChoice:
		return fmt.Sprintf("%q is not one of the choices.", re.Choice)
	case session.ReasonUnderWordCount:
		return fmt.Sprintf("Your answer has %d words. Write at least %d.", re.Words, re.Required)
	case session.ReasonEmptyRecording:
		return "That recording is empty. Enter the path of an audio file."
	case session.ReasonEmptyTranscript:
		return "We couldn't hear any speech in that recording. Please try again."
	case session.ReasonNoCurrentQuestion:
		return "There is no question waiting for an answer."
	}
	return err.Error()
}

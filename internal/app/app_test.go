package app

import (
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/cefrquiz/internal/screen"
	"github.com/abhisek/cefrquiz/internal/session"
	"github.com/abhisek/cefrquiz/internal/ui/layout"
)

type escScreen struct {
	handles bool
	escapes int
}

func (s *escScreen) Init() tea.Cmd { return nil }
func (s *escScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok && k.String() == "esc" {
		s.escapes++
	}
	return s, nil
}
func (s *escScreen) View(int, int) string       { return "" }
func (s *escScreen) Title() string              { return "esc" }
func (s *escScreen) HandlesEscape() bool        { return s.handles }
func (s *escScreen) KeyHints() []layout.KeyHint { return nil }

func TestAppModel_StartsOnRegistration(t *testing.T) {
	m := newAppModel(Options{Session: session.DefaultConfig()})
	if got := m.router.Active().Title(); got != "Welcome" {
		t.Errorf("first screen = %q, want Welcome", got)
	}
}

func TestAppModel_CtrlCQuits(t *testing.T) {
	m := newAppModel(Options{Session: session.DefaultConfig()})
	_, cmd := m.Update(tea.KeyPressMsg{Code: 'c', Mod: tea.ModCtrl})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
}

func TestAppModel_EscapeForwardedToHandler(t *testing.T) {
	m := newAppModel(Options{Session: session.DefaultConfig()})
	esc := &escScreen{handles: true}
	m.router.Push(esc)

	m.Update(tea.KeyPressMsg{Code: tea.KeyEscape})
	if esc.escapes != 1 {
		t.Errorf("screen saw %d escapes, want 1", esc.escapes)
	}
	if m.router.Depth() != 2 {
		t.Errorf("depth = %d, want 2", m.router.Depth())
	}
}

func TestAppModel_EscapePopsOtherwise(t *testing.T) {
	m := newAppModel(Options{Session: session.DefaultConfig()})
	esc := &escScreen{}
	m.router.Push(esc)

	_, cmd := m.Update(tea.KeyPressMsg{Code: tea.KeyEscape})
	if esc.escapes != 0 {
		t.Error("screen should not see Esc it does not handle")
	}
	if cmd == nil {
		t.Fatal("expected a pop command")
	}
	m.Update(cmd())
	if m.router.Depth() != 1 {
		t.Errorf("depth = %d, want 1", m.router.Depth())
	}
}

func TestAppModel_WindowSize(t *testing.T) {
	m := newAppModel(Options{Session: session.DefaultConfig()})
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	am := updated.(AppModel)
	if am.width != 100 || am.height != 40 {
		t.Errorf("size = %dx%d, want 100x40", am.width, am.height)
	}
}

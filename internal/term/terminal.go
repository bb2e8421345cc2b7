// Package term adapts a bubbletea program to the session's event/surface
// channel contract. The tea event loop stays free-running: input events are
// forwarded into a bounded channel, and frames arrive through an atomic cell
// plus a coalesced wake signal, so neither side can deadlock the other.
package term

import (
	"sync"
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"

	"todotree-cli/internal/tui"
)

const eventCap = 64

// redrawMsg wakes the tea loop so View picks up the latest frame.
type redrawMsg struct{}

type Terminal struct {
	prog   *tea.Program
	events chan tea.Msg
	wake   chan struct{}
	quit   chan struct{}
	frame  atomic.Value

	closeOnce sync.Once
}

func New() *Terminal {
	tui.ApplyTerminalPreferences()
	t := &Terminal{
		events: make(chan tea.Msg, eventCap),
		wake:   make(chan struct{}, 1),
		quit:   make(chan struct{}),
	}
	t.frame.Store("")
	t.prog = tea.NewProgram(uiModel{t: t}, tea.WithAltScreen())
	return t
}

// Events implements app.EventSource. The channel closes when the terminal
// program ends, which the session treats as an exit request.
func (t *Terminal) Events() <-chan tea.Msg { return t.events }

// Render implements app.Surface. Frames coalesce: only the newest one
// matters, so a slow terminal never backs up the renderer.
func (t *Terminal) Render(frame string) {
	t.frame.Store(frame)
	select {
	case t.wake <- struct{}{}:
	default:
	}
}

// Run drives the tea program until it ends, then closes the event channel.
func (t *Terminal) Run() error {
	stop := make(chan struct{})
	go func() {
		for {
			select {
			case <-stop:
				return
			case <-t.wake:
				t.prog.Send(redrawMsg{})
			}
		}
	}()
	_, err := t.prog.Run()
	close(stop)
	close(t.events)
	return err
}

// Close asks the tea program to quit. Closing the quit channel first
// releases any forward blocked on a full event channel, so the program can
// actually process the quit. Safe to call more than once.
func (t *Terminal) Close() {
	t.closeOnce.Do(func() {
		close(t.quit)
		t.prog.Quit()
	})
}

// forward hands an input event to the session. Sends block when the session
// falls behind: keystrokes are never dropped, the backpressure reaches the
// terminal instead. The quit escape keeps shutdown from deadlocking behind
// a full channel.
func (t *Terminal) forward(msg tea.Msg) {
	select {
	case t.events <- msg:
	case <-t.quit:
	}
}

type uiModel struct {
	t *Terminal
}

func (m uiModel) Init() tea.Cmd { return nil }

func (m uiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg.(type) {
	case tea.KeyMsg, tea.WindowSizeMsg:
		m.t.forward(msg)
	case redrawMsg:
		// View reads the frame cell; nothing to do here.
	}
	return m, nil
}

func (m uiModel) View() string {
	if f, ok := m.t.frame.Load().(string); ok {
		return f
	}
	return ""
}

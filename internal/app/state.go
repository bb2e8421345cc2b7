package app

import "sync"

// Focus names the pane that receives navigation and edit commands.
type Focus int

const (
	FocusWorkspace Focus = iota
	FocusTodoList
	FocusArchived
)

func (f Focus) String() string {
	switch f {
	case FocusTodoList:
		return "todolist"
	case FocusArchived:
		return "archived"
	default:
		return "workspace"
	}
}

// Next cycles Workspace -> TodoList -> Archived -> Workspace.
func (f Focus) Next() Focus {
	switch f {
	case FocusWorkspace:
		return FocusTodoList
	case FocusTodoList:
		return FocusArchived
	default:
		return FocusWorkspace
	}
}

// Mode is the key interpretation regime. Insert is session-scoped: the
// renderer enters it for the duration of a prompt and restores the previous
// mode when the prompt ends.
type Mode int

const (
	ModeNormal Mode = iota
	ModeInsert
	ModeSearch
	ModeHelp
	ModeSort
)

func (m Mode) String() string {
	switch m {
	case ModeInsert:
		return "insert"
	case ModeSearch:
		return "search"
	case ModeHelp:
		return "help"
	case ModeSort:
		return "sort"
	default:
		return "normal"
	}
}

// AppState is the shared focus/mode cell. The input reader classifies keys
// under the same lock the dispatcher and renderer mutate under; every
// critical section is a handful of field accesses, so contention stays
// bounded.
type AppState struct {
	mu    sync.Mutex
	focus Focus
	mode  Mode
	exit  bool
}

func NewAppState() *AppState {
	return &AppState{}
}

func (s *AppState) Snapshot() (Focus, Mode, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.focus, s.mode, s.exit
}

func (s *AppState) SetFocus(f Focus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.focus = f
}

func (s *AppState) SetMode(m Mode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mode = m
}

// SwapMode sets a new mode and returns the previous one, atomically, so
// prompts can restore whatever regime they interrupted.
func (s *AppState) SwapMode(m Mode) Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.mode
	s.mode = m
	return prev
}

func (s *AppState) SetExit() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exit = true
}

func (s *AppState) Exited() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exit
}

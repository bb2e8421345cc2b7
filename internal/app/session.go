package app

import (
	"context"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"todotree-cli/internal/forest"
	"todotree-cli/internal/model"
	"todotree-cli/internal/store"
	"todotree-cli/internal/tui"
)

// EventSource feeds terminal events into the session. The channel closing
// means the terminal is gone; the session treats it as an exit request.
type EventSource interface {
	Events() <-chan tea.Msg
}

// Surface displays rendered frames.
type Surface interface {
	Render(frame string)
}

const chanCap = 10

// Session wires the three actors together:
//
//   - the input reader classifies keys by the shared focus/mode state and
//     feeds the command channel (or the raw channel during prompts)
//   - the dispatcher is the only command consumer; it owns focus/mode
//     transitions and forwards gated commands to the renderer
//   - the renderer is the only owner of the forests; it mutates trees,
//     runs prompts (becoming the raw channel consumer for their duration)
//     and pushes frames to the surface
//
// All channels are bounded; every send selects on done so shutdown never
// blocks behind a full channel.
type Session struct {
	st  *AppState
	col *Collections

	store store.Store
	log   *logrus.Logger

	cmds chan Command
	acts chan Command
	raw  chan tea.KeyMsg
	done chan struct{}

	// Renderer-owned state. Only the renderer goroutine touches these.
	width, height int
	openWS        forest.ID
	filter        string
	filterPane    Focus
	helpScroll    int
	status        string
	prevMode      Mode
}

func NewSession(st store.Store, col *Collections, log *logrus.Logger) *Session {
	if log == nil {
		log = logrus.New()
	}
	return &Session{
		st:    NewAppState(),
		col:   col,
		store: st,
		log:   log,
		cmds:  make(chan Command, chanCap),
		acts:  make(chan Command, chanCap),
		raw:   make(chan tea.KeyMsg, chanCap),
		done:  make(chan struct{}),
	}
}

// State exposes the shared focus/mode cell (used by tests and the CLI).
func (s *Session) State() *AppState { return s.st }

// Run starts the actors and blocks until all of them have stopped. reload
// may be nil; when set, each tick enqueues a reload command (the store
// watcher feeds this).
func (s *Session) Run(ctx context.Context, src EventSource, dst Surface, reload <-chan struct{}) error {
	var wg sync.WaitGroup

	wg.Add(3)
	go func() {
		defer wg.Done()
		s.readInput(src)
	}()
	go func() {
		defer wg.Done()
		s.dispatch()
	}()
	go func() {
		defer wg.Done()
		s.render(dst)
	}()

	if reload != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-s.done:
					return
				case _, ok := <-reload:
					if !ok {
						return
					}
					s.send(Command{Kind: KindReload})
				}
			}
		}()
	}

	if ctx != nil {
		go func() {
			select {
			case <-ctx.Done():
				s.send(Command{Kind: KindExit})
			case <-s.done:
			}
		}()
	}

	wg.Wait()
	return nil
}

// send enqueues a command, giving up when shutdown has begun.
func (s *Session) send(cmd Command) {
	select {
	case s.cmds <- cmd:
	case <-s.done:
	}
}

// readInput is the input reader actor. It terminates when the event source
// closes (converting the closure into an exit request) or when shutdown has
// begun.
func (s *Session) readInput(src EventSource) {
	defer s.log.Debug("input reader stopped")
	events := src.Events()
	for {
		var msg tea.Msg
		var ok bool
		select {
		case <-s.done:
			return
		case msg, ok = <-events:
			if !ok {
				// Terminal gone: request an orderly shutdown.
				s.send(Command{Kind: KindExit})
				return
			}
		}
		switch m := msg.(type) {
		case tea.WindowSizeMsg:
			s.send(Command{Kind: KindUpdate, W: m.Width, H: m.Height})
		case tea.KeyMsg:
			focus, mode, exited := s.st.Snapshot()
			if exited {
				return
			}
			if mode == ModeInsert {
				select {
				case s.raw <- m:
				case <-s.done:
					return
				}
				continue
			}
			cmd, ok := Resolve(focus, mode, m.String())
			if !ok {
				continue
			}
			s.send(cmd)
		}
	}
}

// dispatch is the action dispatcher actor: the sole consumer of the command
// channel, processing strictly in FIFO order. It owns focus/mode/exit
// transitions and forwards commands (stamped with the state they were gated
// against) to the renderer. On exit it closes done and the action channel,
// which unwinds the other actors.
func (s *Session) dispatch() {
	defer s.log.Debug("dispatcher stopped")
	for cmd := range s.cmds {
		focus, mode, _ := s.st.Snapshot()
		cmd.Focus = focus
		cmd.Mode = mode

		switch cmd.Kind {
		case KindExit:
			s.st.SetExit()
			close(s.done)
			close(s.acts)
			return
		case KindCycleFocus:
			s.st.SetFocus(focus.Next())
		case KindEnter:
			if focus == FocusWorkspace {
				s.st.SetFocus(FocusTodoList)
			}
		case KindFilter:
			// The renderer flips to Insert itself when the prompt opens;
			// mode transitions for prompts stay with the prompt owner.
		case KindExitFilter:
			s.st.SetMode(ModeNormal)
		case KindHelp:
			s.st.SetMode(ModeHelp)
		case KindExitHelp:
			s.st.SetMode(ModeNormal)
		case KindSort:
			s.st.SetMode(ModeSort)
		case KindSortBy, KindCancelSort:
			s.st.SetMode(ModeNormal)
		}

		s.forward(cmd)
	}
}

// forward hands a gated command to the renderer, honoring shutdown.
func (s *Session) forward(cmd Command) {
	select {
	case s.acts <- cmd:
	case <-s.done:
	}
}

// render is the renderer actor: sole owner of the collections. It consumes
// gated commands until the channel closes, then pushes a final frame.
func (s *Session) render(dst Surface) {
	defer s.log.Debug("renderer stopped")
	s.redraw(dst)
	for cmd := range s.acts {
		s.apply(dst, cmd)
	}
	// Exit path: persist before the terminal goes away.
	if err := s.store.Save(ExportSnapshot(s.col)); err != nil {
		s.log.WithError(err).Error("saving snapshot on exit")
	}
}

func (s *Session) apply(dst Surface, cmd Command) {
	s.status = ""
	switch cmd.Kind {
	case KindUpdate:
		if cmd.W > 0 {
			s.width, s.height = cmd.W, cmd.H
		}
	case KindForward, KindBack:
		s.advance(cmd)
	case KindCycleFocus, KindEnter:
		s.enter(cmd)
	case KindToggleExpand:
		s.toggleExpand(cmd)
	case KindAdd, KindAddChild:
		s.addNode(dst, cmd)
	case KindRename:
		s.rename(dst, cmd)
	case KindDelete:
		s.deleteSelected(dst, cmd)
	case KindArchive:
		s.archive(dst, cmd)
	case KindSetStatus:
		s.setStatus(cmd)
	case KindSetDue:
		s.setDue(dst, cmd)
	case KindSortBy:
		if l, ok := s.openList(); ok {
			l.Sort(cmd.Sort)
		}
	case KindFilter:
		s.filterPrompt(dst, cmd)
	case KindExitFilter:
		s.filter = ""
	case KindSave:
		if err := s.store.Save(ExportSnapshot(s.col)); err != nil {
			s.log.WithError(err).Error("saving snapshot")
			s.status = "save failed: " + err.Error()
		} else {
			s.status = "saved"
		}
	case KindReload:
		s.reload()
	case KindHelp:
		s.helpScroll = 0
	}
	s.redraw(dst)
}

// advance moves the selection of whatever pane the command was gated
// against, or scrolls the help screen.
func (s *Session) advance(cmd Command) {
	dir := forest.Forward
	if cmd.Kind == KindBack {
		dir = forest.Back
	}
	if cmd.Mode == ModeHelp {
		if cmd.Kind == KindForward {
			s.helpScroll++
		} else if s.helpScroll > 0 {
			s.helpScroll--
		}
		return
	}

	switch cmd.Focus {
	case FocusWorkspace:
		rows := s.workspaceRows(s.col.Active)
		if id, _, ok := forest.Advance(rows, s.col.Active.Selection, dir); ok {
			s.col.Active.Selection = id
		}
	case FocusArchived:
		rows := s.workspaceRows(s.col.Archived)
		if id, _, ok := forest.Advance(rows, s.col.Archived.Selection, dir); ok {
			s.col.Archived.Selection = id
		}
	case FocusTodoList:
		l, ok := s.openList()
		if !ok {
			return
		}
		if id, _, ok := forest.Advance(s.taskRows(l), l.Selection, dir); ok {
			l.Selection = id
		}
	}
}

// workspaceRows returns the visible rows of a workspace pane, honoring the
// active filter when it targets this pane.
func (s *Session) workspaceRows(set *WorkspaceSet) []forest.FlatNode {
	if s.filter != "" && s.filterPane != FocusTodoList {
		return set.Forest.FlattenMatching(func(n *forest.Node[model.Workspace]) bool {
			return s.col.WorkspaceMatches(set, n.ID, s.filter)
		})
	}
	return set.Forest.FlattenVisible()
}

func (s *Session) taskRows(l *TaskList) []forest.FlatNode {
	if s.filter != "" && s.filterPane == FocusTodoList {
		return l.Forest.FlattenMatching(func(n *forest.Node[model.Task]) bool {
			return wordPrefixMatch(n.Label, s.filter)
		})
	}
	return l.Forest.FlattenVisible()
}

func (s *Session) openList() (*TaskList, bool) {
	l, ok := s.col.List(s.openWS)
	if !ok && s.openWS != "" {
		s.log.WithField("workspace", s.openWS).Debug("open list lookup miss")
	}
	return l, ok
}

func (s *Session) enter(cmd Command) {
	if cmd.Kind == KindEnter {
		switch cmd.Focus {
		case FocusWorkspace:
			if _, ok := s.col.Active.Forest.Get(s.col.Active.Selection); ok {
				s.openWS = s.col.Active.Selection
			}
		case FocusArchived:
			id := s.col.Archived.Selection
			if s.col.Recover(id) {
				s.col.Active.Selection = id
				s.col.Archived.RefreshSelection()
				s.status = "recovered"
			}
		case FocusTodoList:
			if l, ok := s.openList(); ok {
				l.Forest.ToggleExpanded(l.Selection)
			}
		}
	}
}

func (s *Session) toggleExpand(cmd Command) {
	switch cmd.Focus {
	case FocusWorkspace:
		s.col.Active.Forest.ToggleExpanded(s.col.Active.Selection)
	case FocusArchived:
		s.col.Archived.Forest.ToggleExpanded(s.col.Archived.Selection)
	case FocusTodoList:
		if l, ok := s.openList(); ok {
			l.Forest.ToggleExpanded(l.Selection)
		}
	}
}

func (s *Session) setStatus(cmd Command) {
	l, ok := s.openList()
	if !ok {
		return
	}
	if _, ok := l.Forest.Get(l.Selection); !ok {
		s.log.WithField("task", l.Selection).Debug("set-status on stale selection")
		return
	}
	l.SetStatus(l.Selection, cmd.Status)
}

func (s *Session) reload() {
	snap, err := s.store.Load()
	if err != nil {
		s.log.WithError(err).Error("reloading snapshot")
		s.status = "reload failed: " + err.Error()
		return
	}
	col, err := ImportSnapshot(snap)
	if err != nil {
		s.log.WithError(err).Error("importing reloaded snapshot")
		s.status = "reload failed: " + err.Error()
		return
	}
	// Carry selections over; refresh clears whatever died, and the next
	// navigation key re-anchors.
	col.Active.Selection = s.col.Active.Selection
	col.Archived.Selection = s.col.Archived.Selection
	for id, l := range col.Lists {
		if old, ok := s.col.Lists[id]; ok {
			l.Selection = old.Selection
		}
	}
	col.RefreshAll()
	s.col = col
	if _, ok := s.col.List(s.openWS); !ok {
		s.openWS = ""
	}
	s.status = "reloaded"
	s.log.Info("snapshot reloaded after external change")
}

// RefreshSelection drops a workspace set selection whose node is gone.
func (w *WorkspaceSet) RefreshSelection() {
	w.Selection, _ = forest.Refresh(w.Forest, w.Selection)
}

func (s *Session) redraw(dst Surface) {
	dst.Render(tui.Render(s.buildView(nil, nil)))
}

// buildView assembles the render snapshot. prompt/confirm are non-nil while
// the renderer runs a modal session.
func (s *Session) buildView(prompt *tui.PromptView, confirm *tui.ConfirmView) tui.View {
	focus, mode, _ := s.st.Snapshot()

	v := tui.View{
		Width:     s.width,
		Height:    s.height,
		Now:       time.Now(),
		ModeLabel: mode.String(),
		Filter:    s.filter,
		Status:    s.status,
		Prompt:    prompt,
		Confirm:   confirm,
	}
	switch focus {
	case FocusTodoList:
		v.ActivePane = tui.PaneTodoList
	case FocusArchived:
		v.ActivePane = tui.PaneArchived
	}
	if mode == ModeHelp {
		v.Help = &tui.HelpView{Scroll: s.helpScroll}
		return v
	}

	v.Workspaces = s.buildWorkspaceRows(s.col.Active)
	v.Archived = s.buildWorkspaceRows(s.col.Archived)
	if ws, ok := s.col.Active.Forest.Get(s.openWS); ok {
		v.TaskTitle = ws.Label
	}
	if l, ok := s.openList(); ok {
		v.Tasks = s.buildTaskRows(l)
	}
	return v
}

func (s *Session) buildWorkspaceRows(set *WorkspaceSet) []tui.Row {
	rows := s.workspaceRows(set)
	out := make([]tui.Row, 0, len(rows))
	for _, r := range rows {
		n, ok := set.Forest.Get(r.ID)
		if !ok {
			continue
		}
		out = append(out, tui.Row{
			Depth:       r.Depth,
			Label:       n.Label,
			Selected:    r.ID == set.Selection,
			Expanded:    n.Expanded,
			HasChildren: len(n.Children) > 0,
		})
	}
	return out
}

func (s *Session) buildTaskRows(l *TaskList) []tui.Row {
	rows := s.taskRows(l)
	out := make([]tui.Row, 0, len(rows))
	for _, r := range rows {
		n, ok := l.Forest.Get(r.ID)
		if !ok {
			continue
		}
		out = append(out, tui.Row{
			Depth:       r.Depth,
			Label:       n.Label,
			Glyph:       n.Value.Status.Glyph(),
			Due:         n.Value.Due,
			Urgency:     n.Value.Urgency,
			Done:        n.Value.Status.Closed(),
			Selected:    r.ID == l.Selection,
			Expanded:    n.Expanded,
			HasChildren: len(n.Children) > 0,
		})
	}
	return out
}

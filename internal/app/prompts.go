package app

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/textinput"

	"todotree-cli/internal/datemath"
	"todotree-cli/internal/forest"
	"todotree-cli/internal/tui"
)

// Prompts run inside the renderer goroutine. The renderer flips the shared
// mode to Insert so the input reader routes keys to the raw channel, becomes
// the raw channel's consumer for the duration of the prompt, and restores
// the previous mode when the prompt ends. Locks are never held across the
// blocking reads.

func newPromptInput(initial string) textinput.Model {
	ti := textinput.New()
	ti.SetValue(initial)
	ti.CursorEnd()
	ti.CharLimit = 200
	ti.Width = 48
	ti.Focus()
	return ti
}

// promptText collects one line of text. The second return is false when the
// prompt was cancelled or shutdown began.
// drainRaw discards keys that arrived between the end of the previous
// prompt and the start of this one, so stale input never leaks into a new
// prompt.
func (s *Session) drainRaw() {
	for {
		select {
		case <-s.raw:
		default:
			return
		}
	}
}

func (s *Session) promptText(dst Surface, title, initial string) (string, bool) {
	prev := s.st.SwapMode(ModeInsert)
	defer s.st.SetMode(prev)
	s.drainRaw()

	ti := newPromptInput(initial)
	errMsg := ""
	for {
		dst.Render(tui.Render(s.buildView(&tui.PromptView{
			Title: title,
			Input: ti.View(),
			Error: errMsg,
		}, nil)))

		select {
		case <-s.done:
			return "", false
		case key := <-s.raw:
			switch key.String() {
			case "enter":
				return ti.Value(), true
			case "esc", "ctrl+g":
				return "", false
			default:
				ti, _ = ti.Update(key)
			}
		}
	}
}

// confirm asks one yes/no question. Nothing is mutated until it answers
// true. Destructive commands chain two of these when the target is more
// than a single empty node.
func (s *Session) confirm(dst Surface, title, body string) bool {
	prev := s.st.SwapMode(ModeInsert)
	defer s.st.SetMode(prev)
	s.drainRaw()

	for {
		dst.Render(tui.Render(s.buildView(nil, &tui.ConfirmView{Title: title, Body: body})))

		select {
		case <-s.done:
			return false
		case key := <-s.raw:
			switch key.String() {
			case "y", "enter":
				return true
			case "n", "esc", "ctrl+g":
				return false
			}
		}
	}
}

func (s *Session) addNode(dst Surface, cmd Command) {
	title := "New workspace"
	if cmd.Kind == KindAddChild {
		title = "New child workspace"
	}
	if cmd.Focus == FocusTodoList {
		title = "New task"
		if cmd.Kind == KindAddChild {
			title = "New subtask"
		}
	}

	label, ok := s.promptText(dst, title, "")
	if !ok || label == "" {
		return
	}

	switch cmd.Focus {
	case FocusWorkspace:
		if cmd.Kind == KindAddChild {
			s.col.AddChildWorkspace(s.col.Active, label)
		} else {
			s.col.AddWorkspace(s.col.Active, label)
		}
	case FocusTodoList:
		l, ok := s.openList()
		if !ok {
			s.status = "open a workspace first (enter)"
			return
		}
		if cmd.Kind == KindAddChild {
			l.AddChild(label)
		} else {
			l.Add(label)
		}
	}
}

func (s *Session) rename(dst Surface, cmd Command) {
	var (
		f     interface{ Rename(forest.ID, string) bool }
		id    forest.ID
		label string
	)
	switch cmd.Focus {
	case FocusWorkspace:
		id = s.col.Active.Selection
		n, ok := s.col.Active.Forest.Get(id)
		if !ok {
			return
		}
		f, label = s.col.Active.Forest, n.Label
	case FocusTodoList:
		l, ok := s.openList()
		if !ok {
			return
		}
		id = l.Selection
		n, ok := l.Forest.Get(id)
		if !ok {
			return
		}
		f, label = l.Forest, n.Label
	default:
		return
	}

	next, ok := s.promptText(dst, "Rename", label)
	if !ok || next == "" {
		return
	}
	f.Rename(id, next)
}

func (s *Session) deleteSelected(dst Surface, cmd Command) {
	switch cmd.Focus {
	case FocusWorkspace, FocusArchived:
		set := s.col.Active
		if cmd.Focus == FocusArchived {
			set = s.col.Archived
		}
		n, ok := set.Forest.Get(set.Selection)
		if !ok {
			return
		}
		size := set.Forest.SubtreeSize(n.ID)
		tasks := s.col.SubtreeTaskCount(set, n.ID)
		if !s.confirm(dst, "Delete workspace", deleteBody(n.Label, size, tasks)) {
			return
		}
		// A second stage guards targets carrying more than the node itself.
		if size > 1 || tasks > 0 {
			body := fmt.Sprintf("Really delete %s and %s? This cannot be undone.",
				countNoun(size, "workspace"), countNoun(tasks, "task"))
			if !s.confirm(dst, "Delete workspace", body) {
				return
			}
		}
		s.col.DeleteWorkspace(set, n.ID)
		set.RefreshSelection()
	case FocusTodoList:
		l, ok := s.openList()
		if !ok {
			return
		}
		n, ok := l.Forest.Get(l.Selection)
		if !ok {
			return
		}
		size := l.Forest.SubtreeSize(n.ID)
		if !s.confirm(dst, "Delete task", taskDeleteBody(n.Label, size)) {
			return
		}
		if size > 1 {
			body := fmt.Sprintf("Really delete %s? This cannot be undone.", countNoun(size, "task"))
			if !s.confirm(dst, "Delete task", body) {
				return
			}
		}
		l.Forest.Delete(n.ID)
		l.Selection, _ = forest.Refresh(l.Forest, l.Selection)
	}
}

func deleteBody(label string, size, tasks int) string {
	if size > 1 || tasks > 0 {
		return fmt.Sprintf("Delete %q? The subtree holds %s and %s.",
			label, countNoun(size, "workspace"), countNoun(tasks, "task"))
	}
	return fmt.Sprintf("Delete %q?", label)
}

func taskDeleteBody(label string, size int) string {
	if size > 1 {
		return fmt.Sprintf("Delete %q and its subtree? This removes %d tasks.", label, size)
	}
	return fmt.Sprintf("Delete %q?", label)
}

func countNoun(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

func (s *Session) archive(dst Surface, cmd Command) {
	if cmd.Focus != FocusWorkspace {
		return
	}
	n, ok := s.col.Active.Forest.Get(s.col.Active.Selection)
	if !ok {
		return
	}
	if !s.confirm(dst, "Archive workspace", "Archive \""+n.Label+"\" and its subtree?") {
		return
	}
	size := s.col.Active.Forest.SubtreeSize(n.ID)
	tasks := s.col.SubtreeTaskCount(s.col.Active, n.ID)
	if size > 1 || tasks > 0 {
		body := fmt.Sprintf("Really archive %s and %s?",
			countNoun(size, "workspace"), countNoun(tasks, "task"))
		if !s.confirm(dst, "Archive workspace", body) {
			return
		}
	}
	if s.col.Archive(n.ID) {
		s.col.Active.RefreshSelection()
		if s.openWS == n.ID {
			s.openWS = ""
		}
		s.status = "archived"
	}
}

func (s *Session) setDue(dst Surface, cmd Command) {
	l, ok := s.openList()
	if !ok || cmd.Focus != FocusTodoList {
		return
	}
	n, ok := l.Forest.Get(l.Selection)
	if !ok {
		s.log.WithField("task", l.Selection).Debug("set-due on stale selection")
		return
	}

	initial := ""
	if n.Value.Due != nil {
		initial = n.Value.Due.String()
	}

	// Re-prompt on malformed input instead of failing the command.
	prev := s.st.SwapMode(ModeInsert)
	defer s.st.SetMode(prev)
	s.drainRaw()

	ti := newPromptInput(initial)
	errMsg := ""
	for {
		dst.Render(tui.Render(s.buildView(&tui.PromptView{
			Title: "Due date",
			Input: ti.View(),
			Hint:  "2006-01-02, today, tomorrow, \"3 days\", none",
			Error: errMsg,
		}, nil)))

		select {
		case <-s.done:
			return
		case key := <-s.raw:
			switch key.String() {
			case "enter":
				due, err := datemath.Parse(ti.Value(), time.Now())
				if err != nil {
					errMsg = err.Error()
					continue
				}
				l.SetDue(n.ID, due)
				return
			case "esc", "ctrl+g":
				return
			default:
				ti, _ = ti.Update(key)
			}
		}
	}
}

// filterPrompt collects a filter string, applying it live on every
// keystroke. Enter keeps the filter and switches to search mode; esc clears
// it.
func (s *Session) filterPrompt(dst Surface, cmd Command) {
	prevFilter := s.filter
	s.filterPane = cmd.Focus
	prev := s.st.SwapMode(ModeInsert)
	s.drainRaw()

	ti := newPromptInput(s.filter)
	for {
		s.filter = ti.Value()
		dst.Render(tui.Render(s.buildView(&tui.PromptView{
			Title: "Filter",
			Input: ti.View(),
			Hint:  "enter: keep filter   esc: clear",
		}, nil)))

		select {
		case <-s.done:
			s.st.SetMode(prev)
			return
		case key := <-s.raw:
			switch key.String() {
			case "enter":
				if s.filter == "" {
					s.st.SetMode(ModeNormal)
					return
				}
				s.st.SetMode(ModeSearch)
				s.refreshAfterFilter(cmd.Focus)
				return
			case "esc", "ctrl+g":
				s.filter = prevFilter
				s.st.SetMode(prev)
				return
			default:
				ti, _ = ti.Update(key)
			}
		}
	}
}

// refreshAfterFilter re-anchors the filtered pane's selection onto the
// filtered rows so navigation starts inside the match set.
func (s *Session) refreshAfterFilter(focus Focus) {
	switch focus {
	case FocusWorkspace:
		rows := s.workspaceRows(s.col.Active)
		if id, _, ok := forest.Advance(rows, s.col.Active.Selection, forest.Forward); ok {
			if !containsID(rows, s.col.Active.Selection) {
				s.col.Active.Selection = id
			}
		} else {
			s.col.Active.Selection = ""
		}
	case FocusArchived:
		rows := s.workspaceRows(s.col.Archived)
		if id, _, ok := forest.Advance(rows, s.col.Archived.Selection, forest.Forward); ok {
			if !containsID(rows, s.col.Archived.Selection) {
				s.col.Archived.Selection = id
			}
		} else {
			s.col.Archived.Selection = ""
		}
	case FocusTodoList:
		l, ok := s.openList()
		if !ok {
			return
		}
		rows := s.taskRows(l)
		if id, _, ok := forest.Advance(rows, l.Selection, forest.Forward); ok {
			if !containsID(rows, l.Selection) {
				l.Selection = id
			}
		} else {
			l.Selection = ""
		}
	}
}

func containsID(rows []forest.FlatNode, id forest.ID) bool {
	for _, r := range rows {
		if r.ID == id {
			return true
		}
	}
	return false
}

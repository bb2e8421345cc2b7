package app

import (
	"strings"

	"todotree-cli/internal/forest"
	"todotree-cli/internal/model"
)

// TaskList is the todo tree owned by a single workspace. Selection is an id
// into the forest; staleness is resolved by Advance/Refresh, never assumed
// away.
type TaskList struct {
	WorkspaceID forest.ID
	Forest      *forest.Forest[model.Task]
	Selection   forest.ID
}

// WorkspaceSet is one of the two workspace collections (active, archived).
type WorkspaceSet struct {
	Forest    *forest.Forest[model.Workspace]
	Selection forest.ID
}

func newWorkspaceSet() *WorkspaceSet {
	return &WorkspaceSet{Forest: forest.New[model.Workspace]("ws")}
}

// Collections holds every tree in the application. Exactly one TaskList
// exists per live workspace (active or archived); archiving moves the
// workspace subtree between sets while the lists stay keyed by workspace id.
type Collections struct {
	Active   *WorkspaceSet
	Archived *WorkspaceSet
	Lists    map[forest.ID]*TaskList
}

func NewCollections() *Collections {
	return &Collections{
		Active:   newWorkspaceSet(),
		Archived: newWorkspaceSet(),
		Lists:    map[forest.ID]*TaskList{},
	}
}

func (c *Collections) ensureList(ws forest.ID) *TaskList {
	if l, ok := c.Lists[ws]; ok {
		return l
	}
	l := &TaskList{WorkspaceID: ws, Forest: forest.New[model.Task]("task")}
	c.Lists[ws] = l
	return l
}

// List returns the task list for a workspace id. Unknown ids (stale
// selection, deleted workspace) report false.
func (c *Collections) List(ws forest.ID) (*TaskList, bool) {
	l, ok := c.Lists[ws]
	return l, ok
}

// AddWorkspace inserts a new root workspace into set and creates its list.
func (c *Collections) AddWorkspace(set *WorkspaceSet, label string) forest.ID {
	id := set.Forest.InsertRoot(label, model.Workspace{})
	c.ensureList(id)
	set.Selection = id
	return id
}

// AddChildWorkspace inserts a child under the current selection. A stale
// selection falls back to a root insert (forest semantics).
func (c *Collections) AddChildWorkspace(set *WorkspaceSet, label string) forest.ID {
	id := set.Forest.InsertChild(set.Selection, label, model.Workspace{})
	c.ensureList(id)
	set.Selection = id
	return id
}

// DeleteWorkspace removes the selected workspace subtree and every member's
// task list. Returns the number of workspaces removed.
func (c *Collections) DeleteWorkspace(set *WorkspaceSet, id forest.ID) int {
	set.Forest.Walk(id, func(n *forest.Node[model.Workspace]) bool {
		delete(c.Lists, n.ID)
		return true
	})
	return set.Forest.Delete(id)
}

// SubtreeTaskCount sums the tasks held by every member list of the
// workspace subtree rooted at id.
func (c *Collections) SubtreeTaskCount(set *WorkspaceSet, id forest.ID) int {
	total := 0
	set.Forest.Walk(id, func(n *forest.Node[model.Workspace]) bool {
		if l, ok := c.Lists[n.ID]; ok {
			total += l.Forest.Len()
		}
		return true
	})
	return total
}

// Archive moves a workspace subtree from the active set to the archived set.
// Lists are keyed by workspace id, so the association survives by
// construction. Returns false for stale ids.
func (c *Collections) Archive(id forest.ID) bool {
	return moveBetween(c.Active, c.Archived, id)
}

// Recover moves an archived workspace subtree back into the active set.
func (c *Collections) Recover(id forest.ID) bool {
	return moveBetween(c.Archived, c.Active, id)
}

func moveBetween(src, dst *WorkspaceSet, id forest.ID) bool {
	nodes := src.Forest.DetachRoot(id)
	if len(nodes) == 0 {
		return false
	}
	dst.Forest.AttachRoot(nodes)
	dst.Selection = id
	return true
}

// RefreshAll re-checks every selection after a reload or structural change,
// clearing the ones whose nodes are gone. Each forest is refreshed exactly
// once.
func (c *Collections) RefreshAll() {
	c.Active.Selection, _ = forest.Refresh(c.Active.Forest, c.Active.Selection)
	c.Archived.Selection, _ = forest.Refresh(c.Archived.Forest, c.Archived.Selection)
	for _, l := range c.Lists {
		l.Selection, _ = forest.Refresh(l.Forest, l.Selection)
	}
}

// wordPrefixMatch reports whether every word of filter prefixes some word of
// label, case-insensitively. An empty filter matches everything.
func wordPrefixMatch(label, filter string) bool {
	fwords := strings.Fields(strings.ToLower(filter))
	if len(fwords) == 0 {
		return true
	}
	lwords := strings.Fields(strings.ToLower(label))
	for _, fw := range fwords {
		found := false
		for _, lw := range lwords {
			if strings.HasPrefix(lw, fw) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// WorkspaceMatches reports whether a workspace node matches a filter: its own
// label, a descendant workspace label, or any task label in any member list.
func (c *Collections) WorkspaceMatches(set *WorkspaceSet, id forest.ID, filter string) bool {
	match := false
	set.Forest.Walk(id, func(n *forest.Node[model.Workspace]) bool {
		if match {
			return false
		}
		if wordPrefixMatch(n.Label, filter) {
			match = true
			return false
		}
		if l, ok := c.Lists[n.ID]; ok {
			for _, r := range l.Forest.Roots() {
				if l.Forest.ContainsMatching(r, func(tn *forest.Node[model.Task]) bool {
					return wordPrefixMatch(tn.Label, filter)
				}) {
					match = true
					return false
				}
			}
		}
		return true
	})
	return match
}

// TaskMatches reports whether a task node or any descendant matches a filter.
func (l *TaskList) TaskMatches(id forest.ID, filter string) bool {
	return l.Forest.ContainsMatching(id, func(n *forest.Node[model.Task]) bool {
		return wordPrefixMatch(n.Label, filter)
	})
}

// Add inserts a root task; AddChild inserts under the selection with root
// fallback. Both select the new task.
func (l *TaskList) Add(label string) forest.ID {
	id := l.Forest.InsertRoot(label, model.Task{Status: model.StatusTodo, Urgency: model.UrgencyCommon})
	l.Selection = id
	return id
}

func (l *TaskList) AddChild(label string) forest.ID {
	id := l.Forest.InsertChild(l.Selection, label, model.Task{Status: model.StatusTodo, Urgency: model.UrgencyCommon})
	l.Selection = id
	return id
}

// SetStatus marks the task and its entire subtree.
func (l *TaskList) SetStatus(id forest.ID, status model.Status) int {
	count := 0
	l.Forest.Walk(id, func(n *forest.Node[model.Task]) bool {
		n.Value.Status = status
		count++
		return true
	})
	return count
}

// SetDue sets (or clears, with nil) the due date of a single task.
func (l *TaskList) SetDue(id forest.ID, due *model.Date) bool {
	n, ok := l.Forest.Get(id)
	if !ok {
		return false
	}
	n.Value.Due = due
	return true
}

// Sort reorders every sibling group by key, stably, labels breaking ties.
func (l *TaskList) Sort(key SortKey) {
	l.Forest.SortSiblings(func(a, b *forest.Node[model.Task]) bool {
		switch key {
		case SortByDue:
			ad, bd := a.Value.Due, b.Value.Due
			if (ad == nil) != (bd == nil) {
				return ad != nil // dated tasks first
			}
			if ad != nil && bd != nil && !ad.Time().Equal(bd.Time()) {
				return ad.Time().Before(bd.Time())
			}
		case SortByUrgency:
			if a.Value.Urgency.Rank() != b.Value.Urgency.Rank() {
				return a.Value.Urgency.Rank() < b.Value.Urgency.Rank()
			}
		case SortByStatus:
			if a.Value.Status.Closed() != b.Value.Status.Closed() {
				return !a.Value.Status.Closed() // open tasks first
			}
		}
		return a.Label < b.Label
	})
}

package app

import (
	"strconv"
	"testing"

	"pgregory.net/rapid"

	"todotree-cli/internal/forest"
	"todotree-cli/internal/model"
)

func TestAddWorkspaceCreatesExactlyOneList(t *testing.T) {
	c := NewCollections()
	id := c.AddWorkspace(c.Active, "home")
	if _, ok := c.List(id); !ok {
		t.Fatalf("new workspace has no task list")
	}
	if len(c.Lists) != 1 {
		t.Fatalf("expected 1 list, have %d", len(c.Lists))
	}
	child := c.AddChildWorkspace(c.Active, "garden")
	if _, ok := c.List(child); !ok {
		t.Fatalf("child workspace has no task list")
	}
	n, _ := c.Active.Forest.Get(child)
	if n.Parent != id {
		t.Fatalf("child workspace not under the selection, parent %q", n.Parent)
	}
}

func TestDeleteWorkspaceRemovesMemberLists(t *testing.T) {
	c := NewCollections()
	root := c.AddWorkspace(c.Active, "root")
	child := c.AddChildWorkspace(c.Active, "child")
	other := c.AddWorkspace(c.Active, "other")

	removed := c.DeleteWorkspace(c.Active, root)
	if removed != 2 {
		t.Fatalf("deleted %d workspaces, want 2", removed)
	}
	if _, ok := c.List(root); ok {
		t.Fatalf("deleted workspace still has a list")
	}
	if _, ok := c.List(child); ok {
		t.Fatalf("deleted child workspace still has a list")
	}
	if _, ok := c.List(other); !ok {
		t.Fatalf("unrelated workspace lost its list")
	}
}

func TestArchiveRecoverMovesSubtreeWithLists(t *testing.T) {
	c := NewCollections()
	root := c.AddWorkspace(c.Active, "project")
	child := c.AddChildWorkspace(c.Active, "sub")
	l, _ := c.List(child)
	task := l.Add("write report")

	if !c.Archive(root) {
		t.Fatalf("archive failed")
	}
	if c.Active.Forest.Len() != 0 {
		t.Fatalf("active set still holds %d workspaces", c.Active.Forest.Len())
	}
	if c.Archived.Forest.Len() != 2 {
		t.Fatalf("archived set holds %d workspaces, want 2", c.Archived.Forest.Len())
	}
	// The lists and their contents survive the move untouched.
	l2, ok := c.List(child)
	if !ok {
		t.Fatalf("archived workspace lost its list")
	}
	if _, ok := l2.Forest.Get(task); !ok {
		t.Fatalf("task vanished during archive")
	}

	if !c.Recover(root) {
		t.Fatalf("recover failed")
	}
	if c.Active.Forest.Len() != 2 || c.Archived.Forest.Len() != 0 {
		t.Fatalf("recover did not restore the subtree (active %d, archived %d)",
			c.Active.Forest.Len(), c.Archived.Forest.Len())
	}
}

func TestRefreshAllClearsDeadSelections(t *testing.T) {
	c := NewCollections()
	ws := c.AddWorkspace(c.Active, "doomed")
	c.AddWorkspace(c.Active, "survivor")
	c.Active.Selection = ws
	c.DeleteWorkspace(c.Active, ws)

	c.RefreshAll()
	// A dead selection clears; it must not silently jump to another row.
	// The next navigation key re-anchors by direction.
	if c.Active.Selection != "" {
		t.Fatalf("dead selection resolved to %q, want none", c.Active.Selection)
	}
}

func TestSubtreeTaskCountSumsMemberLists(t *testing.T) {
	c := NewCollections()
	root := c.AddWorkspace(c.Active, "root")
	child := c.AddChildWorkspace(c.Active, "child")
	other := c.AddWorkspace(c.Active, "other")

	lr, _ := c.List(root)
	lr.Add("one")
	lc, _ := c.List(child)
	lc.Add("two")
	lc.Add("three")
	lo, _ := c.List(other)
	lo.Add("elsewhere")

	if got := c.SubtreeTaskCount(c.Active, root); got != 3 {
		t.Fatalf("subtree task count %d, want 3 (other workspace must not count)", got)
	}
	if got := c.SubtreeTaskCount(c.Active, "ws-gone"); got != 0 {
		t.Fatalf("stale id counted %d tasks, want 0", got)
	}
}

func TestArchiveStaleIDIsNoop(t *testing.T) {
	c := NewCollections()
	c.AddWorkspace(c.Active, "keep")
	if c.Archive("ws-gone") {
		t.Fatalf("archiving a stale id must report failure")
	}
	if c.Active.Forest.Len() != 1 {
		t.Fatalf("stale archive mutated the active set")
	}
}

func TestSetStatusMarksWholeSubtree(t *testing.T) {
	c := NewCollections()
	ws := c.AddWorkspace(c.Active, "w")
	l, _ := c.List(ws)
	root := l.Add("parent")
	l.Selection = root
	l.AddChild("child a")
	l.Selection = root
	grand := l.AddChild("child b")
	l.Selection = grand
	l.AddChild("grandchild")

	marked := l.SetStatus(root, model.StatusFinished)
	if marked != 4 {
		t.Fatalf("marked %d tasks, want the whole subtree of 4", marked)
	}
	l.Forest.Walk(root, func(n *forest.Node[model.Task]) bool {
		if n.Value.Status != model.StatusFinished {
			t.Fatalf("task %q kept status %q", n.Label, n.Value.Status)
		}
		return true
	})
}

func TestSetStatusCountMatchesSubtreeSize(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		c := NewCollections()
		ws := c.AddWorkspace(c.Active, "w")
		l, _ := c.List(ws)

		var ids []forest.ID
		n := rapid.IntRange(1, 40).Draw(rt, "n")
		for i := 0; i < n; i++ {
			if len(ids) == 0 || rapid.Bool().Draw(rt, "asRoot") {
				ids = append(ids, l.Add("task "+strconv.Itoa(i)))
			} else {
				l.Selection = ids[rapid.IntRange(0, len(ids)-1).Draw(rt, "parent")]
				ids = append(ids, l.AddChild("task "+strconv.Itoa(i)))
			}
		}

		target := ids[rapid.IntRange(0, len(ids)-1).Draw(rt, "target")]
		marked := l.SetStatus(target, model.StatusFinished)
		if want := l.Forest.SubtreeSize(target); marked != want {
			rt.Fatalf("marked %d tasks, subtree size is %d", marked, want)
		}
		l.Forest.Walk(target, func(tn *forest.Node[model.Task]) bool {
			if tn.Value.Status != model.StatusFinished {
				rt.Fatalf("descendant %q kept status %q", tn.Label, tn.Value.Status)
			}
			return true
		})
	})
}

func TestWordPrefixMatch(t *testing.T) {
	cases := []struct {
		label, filter string
		want          bool
	}{
		{"buy groceries", "gro", true},
		{"buy groceries", "buy gro", true},
		{"buy groceries", "GROC", true},
		{"buy groceries", "eries", false},
		{"buy groceries", "", true},
		{"fix the gate", "gate fix", true},
		{"fix the gate", "gates", false},
	}
	for _, c := range cases {
		if got := wordPrefixMatch(c.label, c.filter); got != c.want {
			t.Fatalf("wordPrefixMatch(%q, %q) = %v, want %v", c.label, c.filter, got, c.want)
		}
	}
}

func TestWorkspaceMatchesSeesMemberTasks(t *testing.T) {
	c := NewCollections()
	ws := c.AddWorkspace(c.Active, "chores")
	child := c.AddChildWorkspace(c.Active, "garden")
	l, _ := c.List(child)
	l.Add("prune roses")

	// Match via a task label deep inside a descendant workspace's list.
	if !c.WorkspaceMatches(c.Active, ws, "prune") {
		t.Fatalf("workspace must match via member task labels")
	}
	if !c.WorkspaceMatches(c.Active, ws, "garden") {
		t.Fatalf("workspace must match via descendant workspace labels")
	}
	if c.WorkspaceMatches(c.Active, ws, "nomatch") {
		t.Fatalf("workspace matched a filter nothing contains")
	}
}

func TestTaskMatchesSeesDescendants(t *testing.T) {
	c := NewCollections()
	ws := c.AddWorkspace(c.Active, "w")
	l, _ := c.List(ws)
	root := l.Add("errands")
	l.Selection = root
	l.AddChild("post office")

	if !l.TaskMatches(root, "post") {
		t.Fatalf("task must match via descendant labels")
	}
	if l.TaskMatches(root, "bank") {
		t.Fatalf("task matched a filter nothing contains")
	}
}

func TestSortTasks(t *testing.T) {
	c := NewCollections()
	ws := c.AddWorkspace(c.Active, "w")
	l, _ := c.List(ws)

	a := l.Add("zeta")
	b := l.Add("alpha")
	cc := l.Add("midway")

	setDue := func(id forest.ID, d model.Date) {
		n, _ := l.Forest.Get(id)
		n.Value.Due = &d
	}
	setDue(cc, model.Date{Year: 2026, Month: 1, Day: 1})
	setDue(a, model.Date{Year: 2026, Month: 6, Day: 1})

	l.Sort(SortByLabel)
	wantOrder(t, l, []forest.ID{b, cc, a})

	l.Sort(SortByDue)
	// Dated first (earliest first), undated last.
	wantOrder(t, l, []forest.ID{cc, a, b})

	n, _ := l.Forest.Get(b)
	n.Value.Urgency = model.UrgencyCritical
	l.Sort(SortByUrgency)
	wantOrder(t, l, []forest.ID{b, cc, a})
}

func wantOrder(t *testing.T, l *TaskList, want []forest.ID) {
	t.Helper()
	got := l.Forest.Roots()
	if len(got) != len(want) {
		t.Fatalf("root count %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

package app

import (
	"fmt"

	"todotree-cli/internal/forest"
	"todotree-cli/internal/model"
	"todotree-cli/internal/store"
)

// ImportSnapshot builds the in-memory collections from a wire snapshot,
// preserving persisted ids. Workspaces without a list record get an empty
// list, so the one-list-per-workspace invariant holds even for snapshots
// produced by older builds. Selections are refreshed exactly once.
func ImportSnapshot(snap *store.Snapshot) (*Collections, error) {
	c := NewCollections()

	if err := importWorkspaces(c.Active.Forest, snap.Workspaces); err != nil {
		return nil, err
	}
	if err := importWorkspaces(c.Archived.Forest, snap.Archived); err != nil {
		return nil, err
	}

	live := map[forest.ID]bool{}
	c.Active.Forest.WalkAll(func(n *forest.Node[model.Workspace]) bool {
		live[n.ID] = true
		return true
	})
	c.Archived.Forest.WalkAll(func(n *forest.Node[model.Workspace]) bool {
		live[n.ID] = true
		return true
	})

	for _, rec := range snap.Lists {
		ws := forest.ID(rec.WorkspaceID)
		if !live[ws] {
			return nil, fmt.Errorf("%w: list references unknown workspace %q", store.ErrMalformedSnapshot, rec.WorkspaceID)
		}
		l := c.ensureList(ws)
		if err := importTasks(l.Forest, rec.Tasks); err != nil {
			return nil, err
		}
	}
	for id := range live {
		c.ensureList(id)
	}

	c.RefreshAll()
	return c, nil
}

func importWorkspaces(f *forest.Forest[model.Workspace], ns []store.WSNode) error {
	for _, n := range ns {
		nodes, err := wsSubtree(n, "")
		if err != nil {
			return err
		}
		f.AttachRoot(nodes)
	}
	return nil
}

func wsSubtree(n store.WSNode, parent forest.ID) ([]*forest.Node[model.Workspace], error) {
	if n.ID == "" {
		return nil, fmt.Errorf("%w: workspace %q has no id", store.ErrMalformedSnapshot, n.Label)
	}
	root := &forest.Node[model.Workspace]{
		ID:       forest.ID(n.ID),
		Label:    n.Label,
		Expanded: n.Expanded,
		Parent:   parent,
	}
	out := []*forest.Node[model.Workspace]{root}
	for _, c := range n.Children {
		sub, err := wsSubtree(c, root.ID)
		if err != nil {
			return nil, err
		}
		root.Children = append(root.Children, sub[0].ID)
		out = append(out, sub...)
	}
	return out, nil
}

func importTasks(f *forest.Forest[model.Task], ns []store.TaskNode) error {
	for _, n := range ns {
		nodes, err := taskSubtree(n, "")
		if err != nil {
			return err
		}
		f.AttachRoot(nodes)
	}
	return nil
}

func taskSubtree(n store.TaskNode, parent forest.ID) ([]*forest.Node[model.Task], error) {
	if n.ID == "" {
		return nil, fmt.Errorf("%w: task %q has no id", store.ErrMalformedSnapshot, n.Label)
	}
	status, err := model.NormalizeStatus(string(n.Status))
	if err != nil {
		return nil, fmt.Errorf("%w: task %s: %v", store.ErrMalformedSnapshot, n.ID, err)
	}
	urgency, err := model.NormalizeUrgency(string(n.Urgency))
	if err != nil {
		return nil, fmt.Errorf("%w: task %s: %v", store.ErrMalformedSnapshot, n.ID, err)
	}
	root := &forest.Node[model.Task]{
		ID:       forest.ID(n.ID),
		Label:    n.Label,
		Expanded: n.Expanded,
		Parent:   parent,
		Value:    model.Task{Status: status, Due: n.Due, Urgency: urgency},
	}
	out := []*forest.Node[model.Task]{root}
	for _, c := range n.Children {
		sub, err := taskSubtree(c, root.ID)
		if err != nil {
			return nil, err
		}
		root.Children = append(root.Children, sub[0].ID)
		out = append(out, sub...)
	}
	return out, nil
}

// ExportSnapshot is the inverse of ImportSnapshot. List records follow the
// active-then-archived workspace order so exports are deterministic.
func ExportSnapshot(c *Collections) *store.Snapshot {
	snap := store.EmptySnapshot()
	snap.Workspaces = exportWorkspaces(c.Active.Forest)
	snap.Archived = exportWorkspaces(c.Archived.Forest)

	appendLists := func(f *forest.Forest[model.Workspace]) {
		f.WalkAll(func(n *forest.Node[model.Workspace]) bool {
			rec := store.ListRecord{WorkspaceID: string(n.ID)}
			if l, ok := c.Lists[n.ID]; ok {
				rec.Tasks = exportTasks(l.Forest)
			}
			snap.Lists = append(snap.Lists, rec)
			return true
		})
	}
	appendLists(c.Active.Forest)
	appendLists(c.Archived.Forest)
	return snap
}

func exportWorkspaces(f *forest.Forest[model.Workspace]) []store.WSNode {
	var build func(id forest.ID) (store.WSNode, bool)
	build = func(id forest.ID) (store.WSNode, bool) {
		n, ok := f.Get(id)
		if !ok {
			return store.WSNode{}, false
		}
		out := store.WSNode{ID: string(n.ID), Label: n.Label, Expanded: n.Expanded}
		for _, c := range n.Children {
			if cn, ok := build(c); ok {
				out.Children = append(out.Children, cn)
			}
		}
		return out, true
	}
	var out []store.WSNode
	for _, r := range f.Roots() {
		if n, ok := build(r); ok {
			out = append(out, n)
		}
	}
	return out
}

func exportTasks(f *forest.Forest[model.Task]) []store.TaskNode {
	var build func(id forest.ID) (store.TaskNode, bool)
	build = func(id forest.ID) (store.TaskNode, bool) {
		n, ok := f.Get(id)
		if !ok {
			return store.TaskNode{}, false
		}
		out := store.TaskNode{
			ID:       string(n.ID),
			Label:    n.Label,
			Status:   n.Value.Status,
			Due:      n.Value.Due,
			Urgency:  n.Value.Urgency,
			Expanded: n.Expanded,
		}
		for _, c := range n.Children {
			if cn, ok := build(c); ok {
				out.Children = append(out.Children, cn)
			}
		}
		return out, true
	}
	var out []store.TaskNode
	for _, r := range f.Roots() {
		if n, ok := build(r); ok {
			out = append(out, n)
		}
	}
	return out
}

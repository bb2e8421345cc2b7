// Package forest implements an arena-backed tree collection. Nodes live in a
// flat map keyed by generated ids; parents reference children by id. All
// lookups are by id and a miss is an ordinary miss, never a panic, so callers
// can hold on to ids across arbitrary mutations.
package forest

import (
	"errors"
	"fmt"
	"sort"
)

// ID identifies a node within a forest. The zero value is never a valid id.
type ID string

var ErrNotFound = errors.New("node not found")

// Node is a single entry in the arena. Children are ordered.
type Node[T any] struct {
	ID       ID
	Label    string
	Expanded bool
	Parent   ID // zero for roots
	Children []ID
	Value    T
}

// Forest owns a set of ordered root trees in a single arena.
type Forest[T any] struct {
	prefix string
	nodes  map[ID]*Node[T]
	roots  []ID
}

// New returns an empty forest. Generated ids carry the given prefix
// (e.g. "ws-k3j2m9xa").
func New[T any](prefix string) *Forest[T] {
	return &Forest[T]{prefix: prefix, nodes: map[ID]*Node[T]{}}
}

func (f *Forest[T]) newID() ID {
	for attempt := 1; ; attempt++ {
		id, err := newRandomID(f.prefix)
		if err != nil {
			// crypto/rand failing is effectively fatal; fall back to a
			// counter suffix so inserts still succeed.
			id = fmt.Sprintf("%s-n%d", f.prefix, len(f.nodes)+attempt)
		}
		if _, exists := f.nodes[ID(id)]; !exists {
			return ID(id)
		}
	}
}

func (f *Forest[T]) Len() int { return len(f.nodes) }

func (f *Forest[T]) Roots() []ID {
	out := make([]ID, len(f.roots))
	copy(out, f.roots)
	return out
}

// Get resolves an id. The second return is false for unknown or zero ids.
func (f *Forest[T]) Get(id ID) (*Node[T], bool) {
	n, ok := f.nodes[id]
	return n, ok
}

// InsertRoot appends a new root tree and returns its id.
func (f *Forest[T]) InsertRoot(label string, v T) ID {
	id := f.newID()
	f.nodes[id] = &Node[T]{ID: id, Label: label, Expanded: true, Value: v}
	f.roots = append(f.roots, id)
	return id
}

// InsertChild appends a child under parent. A stale or zero parent id falls
// back to inserting a root, so inserting into an empty or freshly reloaded
// forest always succeeds.
func (f *Forest[T]) InsertChild(parent ID, label string, v T) ID {
	p, ok := f.nodes[parent]
	if !ok {
		return f.InsertRoot(label, v)
	}
	id := f.newID()
	f.nodes[id] = &Node[T]{ID: id, Label: label, Expanded: true, Parent: parent, Value: v}
	p.Children = append(p.Children, id)
	return id
}

// Rename relabels a node. Returns false if the id is unknown.
func (f *Forest[T]) Rename(id ID, label string) bool {
	n, ok := f.nodes[id]
	if !ok {
		return false
	}
	n.Label = label
	return true
}

func (f *Forest[T]) SetExpanded(id ID, v bool) bool {
	n, ok := f.nodes[id]
	if !ok {
		return false
	}
	n.Expanded = v
	return true
}

func (f *Forest[T]) ToggleExpanded(id ID) bool {
	n, ok := f.nodes[id]
	if !ok {
		return false
	}
	n.Expanded = !n.Expanded
	return true
}

// Delete removes a node and its entire subtree, splicing the id out of its
// parent's child list (or the root list). Returns the number of nodes
// removed; 0 means the id was unknown.
func (f *Forest[T]) Delete(id ID) int {
	n, ok := f.nodes[id]
	if !ok {
		return 0
	}
	f.detach(n)
	return f.deleteSubtree(id)
}

func (f *Forest[T]) deleteSubtree(id ID) int {
	n, ok := f.nodes[id]
	if !ok {
		return 0
	}
	count := 1
	for _, c := range n.Children {
		count += f.deleteSubtree(c)
	}
	delete(f.nodes, id)
	return count
}

// detach removes the node's id from whatever list currently holds it.
func (f *Forest[T]) detach(n *Node[T]) {
	if n.Parent == "" {
		f.roots = splice(f.roots, n.ID)
		return
	}
	if p, ok := f.nodes[n.Parent]; ok {
		p.Children = splice(p.Children, n.ID)
	}
	n.Parent = ""
}

func splice(ids []ID, id ID) []ID {
	for i, v := range ids {
		if v == id {
			return append(ids[:i:i], ids[i+1:]...)
		}
	}
	return ids
}

// MoveSubtree reparents id under newParent. Moving a node into its own
// subtree (or onto itself) is rejected, as are unknown ids.
func (f *Forest[T]) MoveSubtree(id, newParent ID) error {
	n, ok := f.nodes[id]
	if !ok {
		return fmt.Errorf("move %q: %w", id, ErrNotFound)
	}
	p, ok := f.nodes[newParent]
	if !ok {
		return fmt.Errorf("move %q under %q: %w", id, newParent, ErrNotFound)
	}
	if f.inSubtree(newParent, id) {
		return fmt.Errorf("move %q under %q: destination is inside the moved subtree", id, newParent)
	}
	f.detach(n)
	n.Parent = newParent
	p.Children = append(p.Children, id)
	return nil
}

func (f *Forest[T]) inSubtree(candidate, root ID) bool {
	if candidate == root {
		return true
	}
	n, ok := f.nodes[root]
	if !ok {
		return false
	}
	for _, c := range n.Children {
		if f.inSubtree(candidate, c) {
			return true
		}
	}
	return false
}

// DetachRoot removes a root subtree from the forest without deleting its
// nodes, returning every node of the subtree for attachment elsewhere.
// Non-root ids are first detached from their parent. Returns nil for
// unknown ids.
func (f *Forest[T]) DetachRoot(id ID) []*Node[T] {
	n, ok := f.nodes[id]
	if !ok {
		return nil
	}
	f.detach(n)
	var out []*Node[T]
	var collect func(ID)
	collect = func(cur ID) {
		cn, ok := f.nodes[cur]
		if !ok {
			return
		}
		out = append(out, cn)
		delete(f.nodes, cur)
		for _, c := range cn.Children {
			collect(c)
		}
	}
	collect(id)
	return out
}

// AttachRoot adopts a subtree previously produced by DetachRoot, appending
// its first node as a new root. Node ids are preserved.
func (f *Forest[T]) AttachRoot(nodes []*Node[T]) {
	if len(nodes) == 0 {
		return
	}
	for _, n := range nodes {
		f.nodes[n.ID] = n
	}
	f.roots = append(f.roots, nodes[0].ID)
}

// Walk visits the subtree rooted at id in pre-order. Returning false from fn
// stops descending below that node (siblings are still visited).
func (f *Forest[T]) Walk(id ID, fn func(*Node[T]) bool) {
	n, ok := f.nodes[id]
	if !ok {
		return
	}
	if !fn(n) {
		return
	}
	for _, c := range n.Children {
		f.Walk(c, fn)
	}
}

// WalkAll visits every tree in root order.
func (f *Forest[T]) WalkAll(fn func(*Node[T]) bool) {
	for _, r := range f.roots {
		f.Walk(r, fn)
	}
}

// ContainsMatching reports whether the node or any descendant satisfies pred.
func (f *Forest[T]) ContainsMatching(id ID, pred func(*Node[T]) bool) bool {
	found := false
	f.Walk(id, func(n *Node[T]) bool {
		if found {
			return false
		}
		if pred(n) {
			found = true
			return false
		}
		return true
	})
	return found
}

// SubtreeSize counts the node and all descendants. Unknown ids count 0.
func (f *Forest[T]) SubtreeSize(id ID) int {
	count := 0
	f.Walk(id, func(*Node[T]) bool {
		count++
		return true
	})
	return count
}

// SortSiblings reorders every sibling group (including the roots) by less,
// stably, without changing parent/child relationships.
func (f *Forest[T]) SortSiblings(less func(a, b *Node[T]) bool) {
	f.roots = f.sortIDs(f.roots, less)
	for _, n := range f.nodes {
		n.Children = f.sortIDs(n.Children, less)
	}
}

func (f *Forest[T]) sortIDs(ids []ID, less func(a, b *Node[T]) bool) []ID {
	out := make([]ID, len(ids))
	copy(out, ids)
	// Unknown ids sort as equal, which keeps their relative order.
	sort.SliceStable(out, func(i, j int) bool {
		a, okA := f.nodes[out[i]]
		b, okB := f.nodes[out[j]]
		if !okA || !okB {
			return false
		}
		return less(a, b)
	})
	return out
}

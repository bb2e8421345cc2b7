package forest

// FlatNode is one visible row produced by flattening: the node id plus its
// depth (roots are depth 0).
type FlatNode struct {
	ID    ID
	Depth int
}

// Flatten returns the full pre-order of every node in the forest, ignoring
// Expanded. len(Flatten()) always equals Len().
func (f *Forest[T]) Flatten() []FlatNode {
	var out []FlatNode
	for _, r := range f.roots {
		out = f.flatten(r, 0, out, false)
	}
	return out
}

// FlattenVisible returns the pre-order restricted to visible rows: children
// of a collapsed node are skipped. Navigation and rendering share this view
// so the cursor can never land on a hidden row.
func (f *Forest[T]) FlattenVisible() []FlatNode {
	var out []FlatNode
	for _, r := range f.roots {
		out = f.flatten(r, 0, out, true)
	}
	return out
}

func (f *Forest[T]) flatten(id ID, depth int, out []FlatNode, respectCollapse bool) []FlatNode {
	n, ok := f.nodes[id]
	if !ok {
		return out
	}
	out = append(out, FlatNode{ID: id, Depth: depth})
	if respectCollapse && !n.Expanded {
		return out
	}
	for _, c := range n.Children {
		out = f.flatten(c, depth+1, out, respectCollapse)
	}
	return out
}

// FlattenMatching returns the visible rows restricted to trees whose root
// node matches pred directly or via a descendant. A matching tree keeps its
// whole visible subtree, so filtering never orphans children from context.
func (f *Forest[T]) FlattenMatching(pred func(*Node[T]) bool) []FlatNode {
	var out []FlatNode
	for _, r := range f.roots {
		if !f.ContainsMatching(r, pred) {
			continue
		}
		out = f.flatten(r, 0, out, true)
	}
	return out
}

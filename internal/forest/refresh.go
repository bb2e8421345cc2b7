package forest

// Refresh re-checks a possibly stale selection after the forest has been
// reloaded or mutated underneath it. A still-live id is kept as-is; a dead
// id yields no selection ("", false). Re-anchoring onto a row is Advance's
// job: the next navigation key picks the anchor by direction.
func Refresh[T any](f *Forest[T], stale ID) (ID, bool) {
	if _, ok := f.Get(stale); ok {
		return stale, true
	}
	return "", false
}

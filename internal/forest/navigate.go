package forest

// Direction moves the selection through a flattened row slice.
type Direction int

const (
	// Forward moves toward the end of the flattened order (visually down).
	Forward Direction = iota
	// Back moves toward the start (visually up).
	Back
)

// Advance computes the next selection given the current flattened rows.
//
// Rules:
//   - empty rows: no selection ("", -1, false)
//   - current missing from rows (stale id, fresh load, filter change):
//     re-anchor at the top for Forward and at the bottom for Back, without
//     applying the step itself
//   - otherwise step one row, clamping at both ends (never wraps)
func Advance(rows []FlatNode, current ID, dir Direction) (ID, int, bool) {
	if len(rows) == 0 {
		return "", -1, false
	}
	at := -1
	for i, r := range rows {
		if r.ID == current {
			at = i
			break
		}
	}
	if at < 0 {
		if dir == Forward {
			return rows[0].ID, 0, true
		}
		last := len(rows) - 1
		return rows[last].ID, last, true
	}
	switch dir {
	case Forward:
		if at < len(rows)-1 {
			at++
		}
	case Back:
		if at > 0 {
			at--
		}
	}
	return rows[at].ID, at, true
}

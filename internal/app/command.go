package app

import "todotree-cli/internal/model"

// CommandKind enumerates everything a key press (or terminal event) can ask
// the application to do.
type CommandKind int

const (
	KindExit CommandKind = iota
	KindForward
	KindBack
	KindCycleFocus
	KindEnter
	KindAdd
	KindAddChild
	KindDelete
	KindRename
	KindSetStatus
	KindSetDue
	KindToggleExpand
	KindArchive
	KindFilter
	KindExitFilter
	KindHelp
	KindExitHelp
	KindSort
	KindSortBy
	KindCancelSort
	KindSave
	KindUpdate
	KindReload
)

func (k CommandKind) String() string {
	switch k {
	case KindExit:
		return "exit"
	case KindForward:
		return "forward"
	case KindBack:
		return "back"
	case KindCycleFocus:
		return "cycle-focus"
	case KindEnter:
		return "enter"
	case KindAdd:
		return "add"
	case KindAddChild:
		return "add-child"
	case KindDelete:
		return "delete"
	case KindRename:
		return "rename"
	case KindSetStatus:
		return "set-status"
	case KindSetDue:
		return "set-due"
	case KindToggleExpand:
		return "toggle-expand"
	case KindArchive:
		return "archive"
	case KindFilter:
		return "filter"
	case KindExitFilter:
		return "exit-filter"
	case KindHelp:
		return "help"
	case KindExitHelp:
		return "exit-help"
	case KindSort:
		return "sort"
	case KindSortBy:
		return "sort-by"
	case KindCancelSort:
		return "cancel-sort"
	case KindSave:
		return "save"
	case KindUpdate:
		return "update"
	case KindReload:
		return "reload"
	default:
		return "unknown"
	}
}

// SortKey orders sibling groups in the todo tree.
type SortKey int

const (
	SortByLabel SortKey = iota
	SortByDue
	SortByUrgency
	SortByStatus
)

// Command is one unit of work on the dispatch channel. Focus and Mode are
// stamped by the dispatcher at receipt so the renderer acts on the state the
// command was gated against, not whatever the state is by the time it runs.
type Command struct {
	Kind   CommandKind
	Focus  Focus
	Mode   Mode
	Status model.Status // KindSetStatus
	Sort   SortKey      // KindSortBy
	W, H   int          // KindUpdate
}

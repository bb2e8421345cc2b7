package app

import "todotree-cli/internal/model"

// Resolve maps a key (bubbletea's KeyMsg.String() form) to a command for the
// given focus/mode pair. It is a pure lookup with no side effects; unbound
// keys resolve to nothing and are ignored.
//
// Insert mode never reaches the resolver: the input reader routes raw keys
// straight to the prompt owner.
func Resolve(focus Focus, mode Mode, key string) (Command, bool) {
	switch mode {
	case ModeInsert:
		return Command{}, false
	case ModeHelp:
		return resolveHelp(key)
	case ModeSort:
		return resolveSort(key)
	case ModeSearch:
		return resolveSearch(key)
	}
	return resolveNormal(focus, key)
}

func resolveHelp(key string) (Command, bool) {
	switch key {
	case "j", "down":
		return Command{Kind: KindForward}, true
	case "k", "up":
		return Command{Kind: KindBack}, true
	case "esc", "q", "h":
		return Command{Kind: KindExitHelp}, true
	}
	return Command{}, false
}

func resolveSort(key string) (Command, bool) {
	switch key {
	case "l":
		return Command{Kind: KindSortBy, Sort: SortByLabel}, true
	case "d":
		return Command{Kind: KindSortBy, Sort: SortByDue}, true
	case "u":
		return Command{Kind: KindSortBy, Sort: SortByUrgency}, true
	case "s":
		return Command{Kind: KindSortBy, Sort: SortByStatus}, true
	case "esc", "ctrl+g":
		return Command{Kind: KindCancelSort}, true
	}
	return Command{}, false
}

func resolveSearch(key string) (Command, bool) {
	switch key {
	case "j", "down":
		return Command{Kind: KindForward}, true
	case "k", "up":
		return Command{Kind: KindBack}, true
	case "enter":
		return Command{Kind: KindEnter}, true
	case "esc", "ctrl+g":
		return Command{Kind: KindExitFilter}, true
	case "q":
		return Command{Kind: KindExit}, true
	}
	return Command{}, false
}

func resolveNormal(focus Focus, key string) (Command, bool) {
	switch key {
	case "q", "ctrl+c":
		return Command{Kind: KindExit}, true
	case "tab":
		return Command{Kind: KindCycleFocus}, true
	case "j", "down":
		return Command{Kind: KindForward}, true
	case "k", "up":
		return Command{Kind: KindBack}, true
	case "enter":
		return Command{Kind: KindEnter}, true
	case " ":
		return Command{Kind: KindToggleExpand}, true
	case "f", "/":
		return Command{Kind: KindFilter}, true
	case "h", "?":
		return Command{Kind: KindHelp}, true
	case "w":
		return Command{Kind: KindSave}, true
	case "x":
		return Command{Kind: KindDelete}, true
	}

	// Editing keys are not bound on the archived pane; recover first.
	if focus == FocusArchived {
		return Command{}, false
	}

	switch key {
	case "a":
		return Command{Kind: KindAdd}, true
	case "i":
		return Command{Kind: KindAddChild}, true
	case "r":
		return Command{Kind: KindRename}, true
	}

	if focus == FocusWorkspace {
		if key == "A" {
			return Command{Kind: KindArchive}, true
		}
		return Command{}, false
	}

	// Todo-list specific bindings.
	switch key {
	case "t":
		return Command{Kind: KindSetStatus, Status: model.StatusTodo}, true
	case "p":
		return Command{Kind: KindSetStatus, Status: model.StatusInProcess}, true
	case "c":
		return Command{Kind: KindSetStatus, Status: model.StatusFinished}, true
	case "D":
		return Command{Kind: KindSetStatus, Status: model.StatusDeprecated}, true
	case "d":
		return Command{Kind: KindSetDue}, true
	case "s":
		return Command{Kind: KindSort}, true
	}
	return Command{}, false
}

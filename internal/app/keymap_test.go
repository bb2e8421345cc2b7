package app

import (
	"testing"

	"todotree-cli/internal/model"
)

func TestResolveNormalMode(t *testing.T) {
	cases := []struct {
		focus Focus
		key   string
		want  CommandKind
	}{
		{FocusWorkspace, "q", KindExit},
		{FocusWorkspace, "j", KindForward},
		{FocusWorkspace, "down", KindForward},
		{FocusWorkspace, "k", KindBack},
		{FocusWorkspace, "tab", KindCycleFocus},
		{FocusWorkspace, "enter", KindEnter},
		{FocusWorkspace, "a", KindAdd},
		{FocusWorkspace, "i", KindAddChild},
		{FocusWorkspace, "x", KindDelete},
		{FocusWorkspace, "r", KindRename},
		{FocusWorkspace, "A", KindArchive},
		{FocusWorkspace, "f", KindFilter},
		{FocusWorkspace, "h", KindHelp},
		{FocusWorkspace, "w", KindSave},
		{FocusWorkspace, " ", KindToggleExpand},
		{FocusTodoList, "d", KindSetDue},
		{FocusTodoList, "s", KindSort},
		{FocusArchived, "enter", KindEnter},
		{FocusArchived, "x", KindDelete},
	}
	for _, c := range cases {
		got, ok := Resolve(c.focus, ModeNormal, c.key)
		if !ok {
			t.Fatalf("Resolve(%v, normal, %q) unbound, want %v", c.focus, c.key, c.want)
		}
		if got.Kind != c.want {
			t.Fatalf("Resolve(%v, normal, %q) = %v, want %v", c.focus, c.key, got.Kind, c.want)
		}
	}
}

func TestResolveStatusKeys(t *testing.T) {
	cases := map[string]model.Status{
		"t": model.StatusTodo,
		"p": model.StatusInProcess,
		"c": model.StatusFinished,
		"D": model.StatusDeprecated,
	}
	for key, want := range cases {
		got, ok := Resolve(FocusTodoList, ModeNormal, key)
		if !ok || got.Kind != KindSetStatus {
			t.Fatalf("Resolve(todolist, normal, %q) = (%v, %v), want set-status", key, got.Kind, ok)
		}
		if got.Status != want {
			t.Fatalf("key %q resolved to status %q, want %q", key, got.Status, want)
		}
	}
	// Status keys only apply to the todo list.
	if _, ok := Resolve(FocusWorkspace, ModeNormal, "t"); ok {
		t.Fatalf("status key must be unbound on the workspace pane")
	}
}

func TestResolveUnboundKeysAreIgnored(t *testing.T) {
	for _, key := range []string{"z", "Q", "ctrl+x", "f1", "€"} {
		for _, mode := range []Mode{ModeNormal, ModeSearch, ModeHelp, ModeSort} {
			if cmd, ok := Resolve(FocusWorkspace, mode, key); ok {
				t.Fatalf("key %q in mode %v resolved to %v, want unbound", key, mode, cmd.Kind)
			}
		}
	}
}

func TestResolveInsertModeNeverResolves(t *testing.T) {
	for _, key := range []string{"q", "j", "enter", "esc", "a"} {
		if _, ok := Resolve(FocusWorkspace, ModeInsert, key); ok {
			t.Fatalf("insert mode must bypass resolution, key %q resolved", key)
		}
	}
}

func TestResolveHelpMode(t *testing.T) {
	for _, key := range []string{"esc", "q", "h"} {
		got, ok := Resolve(FocusTodoList, ModeHelp, key)
		if !ok || got.Kind != KindExitHelp {
			t.Fatalf("Resolve(help, %q) = (%v, %v), want exit-help", key, got.Kind, ok)
		}
	}
	// Editing keys are dead in help mode.
	if _, ok := Resolve(FocusTodoList, ModeHelp, "a"); ok {
		t.Fatalf("add must be unbound in help mode")
	}
}

func TestResolveSortMode(t *testing.T) {
	cases := map[string]SortKey{"l": SortByLabel, "d": SortByDue, "u": SortByUrgency, "s": SortByStatus}
	for key, want := range cases {
		got, ok := Resolve(FocusTodoList, ModeSort, key)
		if !ok || got.Kind != KindSortBy || got.Sort != want {
			t.Fatalf("Resolve(sort, %q) = (%v, %v, %v)", key, got.Kind, got.Sort, ok)
		}
	}
	got, ok := Resolve(FocusTodoList, ModeSort, "esc")
	if !ok || got.Kind != KindCancelSort {
		t.Fatalf("esc in sort mode must cancel, got (%v, %v)", got.Kind, ok)
	}
}

func TestFocusCycle(t *testing.T) {
	f := FocusWorkspace
	seq := []Focus{FocusTodoList, FocusArchived, FocusWorkspace}
	for i, want := range seq {
		f = f.Next()
		if f != want {
			t.Fatalf("cycle step %d = %v, want %v", i, f, want)
		}
	}
}

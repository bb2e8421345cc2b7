package store

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"testing"

	"todotree-cli/internal/model"

	"pgregory.net/rapid"
)

func sampleSnapshot() *Snapshot {
	due := model.Date{Year: 2026, Month: 9, Day: 1}
	return &Snapshot{
		Version: 1,
		Workspaces: []WSNode{
			{ID: "ws-aaaa", Label: "home", Expanded: true, Children: []WSNode{
				{ID: "ws-bbbb", Label: "garden", Expanded: true},
			}},
		},
		Archived: []WSNode{
			{ID: "ws-cccc", Label: "old project", Expanded: true},
		},
		Lists: []ListRecord{
			{WorkspaceID: "ws-aaaa", Tasks: []TaskNode{
				{ID: "task-1111", Label: "fix gate", Status: model.StatusTodo, Due: &due, Urgency: model.UrgencyImportant, Expanded: true, Children: []TaskNode{
					{ID: "task-2222", Label: "buy hinges", Status: model.StatusFinished, Urgency: model.UrgencyCommon, Expanded: true},
				}},
			}},
			{WorkspaceID: "ws-bbbb"},
			{WorkspaceID: "ws-cccc"},
		},
	}
}

func TestLoadMissingFileYieldsEmptySnapshot(t *testing.T) {
	s := Store{Dir: t.TempDir(), Backend: BackendJSON}
	snap, err := s.Load()
	if err != nil {
		t.Fatalf("load on a fresh dir: %v", err)
	}
	if len(snap.Workspaces) != 0 || len(snap.Archived) != 0 || len(snap.Lists) != 0 {
		t.Fatalf("fresh snapshot must be empty, got %+v", snap)
	}
}

func TestJSONRoundTrip(t *testing.T) {
	s := Store{Dir: t.TempDir(), Backend: BackendJSON}
	want := sampleSnapshot()
	if err := s.Save(want); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := s.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !reflect.DeepEqual(want, got) {
		t.Fatalf("snapshot changed across the round trip:\nwant %+v\ngot  %+v", want, got)
	}
}

func TestSQLiteRoundTrip(t *testing.T) {
	s := Store{Dir: t.TempDir(), Backend: BackendSQLite}
	want := sampleSnapshot()
	if err := s.Save(want); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := s.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !reflect.DeepEqual(want, got) {
		t.Fatalf("snapshot changed across the sqlite round trip:\nwant %+v\ngot  %+v", want, got)
	}
}

func TestLoadMalformedJSON(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, dbFileName), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	s := Store{Dir: dir, Backend: BackendJSON}
	_, err := s.Load()
	if !errors.Is(err, ErrMalformedSnapshot) {
		t.Fatalf("expected ErrMalformedSnapshot, got %v", err)
	}
	// The offending file must survive untouched for inspection.
	b, readErr := os.ReadFile(filepath.Join(dir, dbFileName))
	if readErr != nil || string(b) != "{not json" {
		t.Fatalf("malformed file was modified: %q, %v", b, readErr)
	}
}

func TestValidateRejectsDuplicateIDs(t *testing.T) {
	snap := sampleSnapshot()
	snap.Archived[0].ID = "ws-aaaa"
	s := Store{Dir: t.TempDir(), Backend: BackendJSON}
	if err := s.Save(snap); err == nil {
		t.Fatalf("saving a snapshot with duplicate ids must fail")
	}
}

func TestValidateRejectsDanglingList(t *testing.T) {
	snap := sampleSnapshot()
	snap.Lists = append(snap.Lists, ListRecord{WorkspaceID: "ws-ghost"})
	s := Store{Dir: t.TempDir(), Backend: BackendJSON}
	if err := s.Save(snap); err == nil {
		t.Fatalf("saving a list without its workspace must fail")
	}
}

func TestValidateRejectsSecondListForWorkspace(t *testing.T) {
	snap := sampleSnapshot()
	snap.Lists = append(snap.Lists, ListRecord{WorkspaceID: "ws-aaaa"})
	s := Store{Dir: t.TempDir(), Backend: BackendJSON}
	if err := s.Save(snap); err == nil {
		t.Fatalf("a workspace with two lists must be rejected")
	}
}

// TestSnapshotRoundTripProperty saves and reloads randomly generated
// snapshots through both backends and requires identity.
func TestSnapshotRoundTripProperty(t *testing.T) {
	gen := func(rt *rapid.T) *Snapshot {
		snap := EmptySnapshot()
		nextID := 0
		newID := func(prefix string) string {
			nextID++
			return prefix + "-" + strconv.Itoa(nextID)
		}

		var genTasks func(depth int) []TaskNode
		genTasks = func(depth int) []TaskNode {
			if depth > 2 {
				return nil
			}
			n := rapid.IntRange(0, 3).Draw(rt, "ntasks")
			var out []TaskNode
			for i := 0; i < n; i++ {
				task := TaskNode{
					ID:       newID("task"),
					Label:    rapid.StringMatching(`[a-z ]{1,12}`).Draw(rt, "tlabel"),
					Status:   rapid.SampledFrom([]model.Status{model.StatusTodo, model.StatusInProcess, model.StatusFinished, model.StatusDeprecated}).Draw(rt, "status"),
					Urgency:  rapid.SampledFrom([]model.Urgency{model.UrgencyCommon, model.UrgencyImportant, model.UrgencyCritical}).Draw(rt, "urgency"),
					Expanded: rapid.Bool().Draw(rt, "texp"),
					Children: genTasks(depth + 1),
				}
				if rapid.Bool().Draw(rt, "hasDue") {
					d := model.Date{Year: 2026, Month: 9, Day: rapid.IntRange(1, 28).Draw(rt, "day")}
					task.Due = &d
				}
				out = append(out, task)
			}
			return out
		}

		var wsIDs []string
		var genWS func(depth int) []WSNode
		genWS = func(depth int) []WSNode {
			if depth > 2 {
				return nil
			}
			n := rapid.IntRange(0, 3).Draw(rt, "nws")
			var out []WSNode
			for i := 0; i < n; i++ {
				ws := WSNode{
					ID:       newID("ws"),
					Label:    rapid.StringMatching(`[a-z ]{1,12}`).Draw(rt, "wslabel"),
					Expanded: rapid.Bool().Draw(rt, "wsexp"),
					Children: genWS(depth + 1),
				}
				wsIDs = append(wsIDs, ws.ID)
				out = append(out, ws)
			}
			return out
		}

		snap.Workspaces = genWS(0)
		snap.Archived = genWS(0)
		collect := func(id string) {
			snap.Lists = append(snap.Lists, ListRecord{WorkspaceID: id, Tasks: genTasks(0)})
		}
		var walk func(ns []WSNode)
		walk = func(ns []WSNode) {
			for _, n := range ns {
				collect(n.ID)
				walk(n.Children)
			}
		}
		walk(snap.Workspaces)
		walk(snap.Archived)
		return snap
	}

	rapid.Check(t, func(rt *rapid.T) {
		want := gen(rt)
		for _, backend := range []Backend{BackendJSON, BackendSQLite} {
			s := Store{Dir: t.TempDir(), Backend: backend}
			if err := s.Save(want); err != nil {
				rt.Fatalf("save (%s): %v", backend, err)
			}
			got, err := s.Load()
			if err != nil {
				rt.Fatalf("load (%s): %v", backend, err)
			}
			if !reflect.DeepEqual(normalize(want), normalize(got)) {
				rt.Fatalf("round trip (%s) not identity:\nwant %+v\ngot  %+v", backend, want, got)
			}
		}
	})
}

// normalize maps nil and empty slices onto one representation so DeepEqual
// compares structure, not encoding accidents.
func normalize(s *Snapshot) *Snapshot {
	out := *s
	if len(out.Workspaces) == 0 {
		out.Workspaces = nil
	}
	if len(out.Archived) == 0 {
		out.Archived = nil
	}
	if len(out.Lists) == 0 {
		out.Lists = nil
	}
	return &out
}

// Package store persists the workspace/todo forests as a snapshot on disk.
// Two backends share one wire format: a nested JSON document (db.json) and a
// SQLite database (index.sqlite) for setups that want concurrent readers.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"todotree-cli/internal/model"
)

const (
	dbFileName     = "db.json"
	sqliteFileName = "index.sqlite"
)

// ErrMalformedSnapshot marks a snapshot file that exists but cannot be
// decoded or violates structural invariants. Callers must surface it and
// refuse to overwrite the offending file.
var ErrMalformedSnapshot = errors.New("malformed snapshot")

// Backend selects the on-disk representation.
type Backend string

const (
	BackendJSON   Backend = "json"
	BackendSQLite Backend = "sqlite"
)

func NormalizeBackend(s string) (Backend, error) {
	switch s {
	case "", "json":
		return BackendJSON, nil
	case "sqlite":
		return BackendSQLite, nil
	default:
		return "", fmt.Errorf("invalid backend: %q (expected json|sqlite)", s)
	}
}

// Snapshot is the wire form of the whole application state: the active and
// archived workspace trees plus one task tree per workspace.
type Snapshot struct {
	Version    int          `json:"version"`
	Workspaces []WSNode     `json:"workspaces"`
	Archived   []WSNode     `json:"archived"`
	Lists      []ListRecord `json:"lists"`
}

type WSNode struct {
	ID       string   `json:"id"`
	Label    string   `json:"label"`
	Expanded bool     `json:"expanded"`
	Children []WSNode `json:"children,omitempty"`
}

type ListRecord struct {
	WorkspaceID string     `json:"workspaceId"`
	Tasks       []TaskNode `json:"tasks,omitempty"`
}

type TaskNode struct {
	ID       string        `json:"id"`
	Label    string        `json:"label"`
	Status   model.Status  `json:"status"`
	Due      *model.Date   `json:"due,omitempty"`
	Urgency  model.Urgency `json:"urgency,omitempty"`
	Expanded bool          `json:"expanded"`
	Children []TaskNode    `json:"children,omitempty"`
}

func EmptySnapshot() *Snapshot {
	return &Snapshot{Version: 1}
}

type Store struct {
	Dir     string
	Backend Backend
}

func (s Store) Ensure() error {
	return os.MkdirAll(s.Dir, 0o755)
}

func (s Store) dbPath() string     { return filepath.Join(s.Dir, dbFileName) }
func (s Store) sqlitePath() string { return filepath.Join(s.Dir, sqliteFileName) }

// SnapshotFile returns the filename (relative to Dir) the active backend
// persists to. The watcher filters events to this name.
func (s Store) SnapshotFile() string {
	if s.Backend == BackendSQLite {
		return sqliteFileName
	}
	return dbFileName
}

// Load reads the snapshot. A missing file is a valid first run and yields an
// empty snapshot; a file that exists but cannot be decoded wraps
// ErrMalformedSnapshot.
func (s Store) Load() (*Snapshot, error) {
	if err := s.Ensure(); err != nil {
		return nil, err
	}
	if s.Backend == BackendSQLite {
		return s.loadSQLite()
	}

	b, err := os.ReadFile(s.dbPath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return EmptySnapshot(), nil
		}
		return nil, err
	}
	var snap Snapshot
	if err := json.Unmarshal(b, &snap); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedSnapshot, s.dbPath(), err)
	}
	if err := validate(&snap); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedSnapshot, s.dbPath(), err)
	}
	if snap.Version == 0 {
		snap.Version = 1
	}
	return &snap, nil
}

// Save writes the snapshot. The JSON backend writes a temp file in the same
// directory and renames it over db.json so readers never observe a torn file.
func (s Store) Save(snap *Snapshot) error {
	if snap == nil {
		return errors.New("nil snapshot")
	}
	if err := s.Ensure(); err != nil {
		return err
	}
	if err := validate(snap); err != nil {
		return fmt.Errorf("refusing to save: %w", err)
	}
	if s.Backend == BackendSQLite {
		return s.saveSQLite(snap)
	}

	b, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(s.Dir, dbFileName+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(append(b, '\n')); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, s.dbPath())
}

// validate enforces the structural invariants the in-memory forests rely on:
// ids are globally unique and every list belongs to exactly one live
// workspace.
func validate(snap *Snapshot) error {
	seen := map[string]bool{}

	var walkWS func(ns []WSNode) error
	walkWS = func(ns []WSNode) error {
		for i := range ns {
			id := ns[i].ID
			if id == "" {
				return fmt.Errorf("workspace node with empty id (label %q)", ns[i].Label)
			}
			if seen[id] {
				return fmt.Errorf("duplicate id %q", id)
			}
			seen[id] = true
			if err := walkWS(ns[i].Children); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walkWS(snap.Workspaces); err != nil {
		return err
	}
	if err := walkWS(snap.Archived); err != nil {
		return err
	}

	var walkTasks func(ns []TaskNode) error
	walkTasks = func(ns []TaskNode) error {
		for i := range ns {
			id := ns[i].ID
			if id == "" {
				return fmt.Errorf("task node with empty id (label %q)", ns[i].Label)
			}
			if seen[id] {
				return fmt.Errorf("duplicate id %q", id)
			}
			seen[id] = true
			if err := walkTasks(ns[i].Children); err != nil {
				return err
			}
		}
		return nil
	}

	listSeen := map[string]bool{}
	for _, l := range snap.Lists {
		if l.WorkspaceID == "" {
			return errors.New("list record with empty workspace id")
		}
		if !seen[l.WorkspaceID] {
			return fmt.Errorf("list record references unknown workspace %q", l.WorkspaceID)
		}
		if listSeen[l.WorkspaceID] {
			return fmt.Errorf("workspace %q has more than one list", l.WorkspaceID)
		}
		listSeen[l.WorkspaceID] = true
		if err := walkTasks(l.Tasks); err != nil {
			return err
		}
	}
	return nil
}

package store

import (
	"database/sql"
	"fmt"

	"todotree-cli/internal/model"

	_ "modernc.org/sqlite"
)

// The SQLite backend stores one row per tree node. Nesting is rebuilt from
// parent_id + position on load, so the wire snapshot stays the single
// in-memory interchange form regardless of backend.

func (s Store) openSQLite() (*sql.DB, error) {
	// modernc.org/sqlite driver name is "sqlite".
	db, err := sql.Open("sqlite", s.sqlitePath())
	if err != nil {
		return nil, err
	}
	// WAL enables one writer + many readers; busy_timeout avoids
	// "database is locked" flakiness when another process holds the file.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	if err := migrateSQLite(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func migrateSQLite(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			k TEXT PRIMARY KEY,
			v TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS nodes (
			id TEXT PRIMARY KEY,
			kind TEXT NOT NULL,           -- workspace | task
			collection TEXT NOT NULL,     -- active | archived | list
			list_ws_id TEXT NOT NULL DEFAULT '',
			parent_id TEXT NOT NULL DEFAULT '',
			position INTEGER NOT NULL,
			label TEXT NOT NULL,
			expanded INTEGER NOT NULL DEFAULT 1,
			status TEXT NOT NULL DEFAULT '',
			due TEXT NOT NULL DEFAULT '',
			urgency TEXT NOT NULL DEFAULT ''
		);`,
		`CREATE INDEX IF NOT EXISTS idx_nodes_parent ON nodes(parent_id, position);`,
		`CREATE INDEX IF NOT EXISTS idx_nodes_list ON nodes(list_ws_id);`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s Store) loadSQLite() (*Snapshot, error) {
	db, err := s.openSQLite()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	type row struct {
		id, kind, collection, listWS, parent string
		position                             int
		label                                string
		expanded                             bool
		status, due, urgency                 string
	}

	rows, err := db.Query(`SELECT id, kind, collection, list_ws_id, parent_id, position, label, expanded, status, due, urgency
		FROM nodes ORDER BY parent_id, position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var all []row
	for rows.Next() {
		var r row
		if err := rows.Scan(&r.id, &r.kind, &r.collection, &r.listWS, &r.parent, &r.position, &r.label, &r.expanded, &r.status, &r.due, &r.urgency); err != nil {
			return nil, err
		}
		all = append(all, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	childrenOf := map[string][]row{}
	for _, r := range all {
		childrenOf[r.parent] = append(childrenOf[r.parent], r)
	}

	var buildWS func(r row) (WSNode, error)
	buildWS = func(r row) (WSNode, error) {
		n := WSNode{ID: r.id, Label: r.label, Expanded: r.expanded}
		for _, c := range childrenOf[r.id] {
			cn, err := buildWS(c)
			if err != nil {
				return WSNode{}, err
			}
			n.Children = append(n.Children, cn)
		}
		return n, nil
	}
	var buildTask func(r row) (TaskNode, error)
	buildTask = func(r row) (TaskNode, error) {
		status, err := model.NormalizeStatus(r.status)
		if err != nil {
			return TaskNode{}, fmt.Errorf("node %s: %w", r.id, err)
		}
		urgency, err := model.NormalizeUrgency(r.urgency)
		if err != nil {
			return TaskNode{}, fmt.Errorf("node %s: %w", r.id, err)
		}
		n := TaskNode{ID: r.id, Label: r.label, Status: status, Urgency: urgency, Expanded: r.expanded}
		if r.due != "" {
			d, err := model.ParseDate(r.due)
			if err != nil {
				return TaskNode{}, fmt.Errorf("node %s: %w", r.id, err)
			}
			n.Due = &d
		}
		for _, c := range childrenOf[r.id] {
			cn, err := buildTask(c)
			if err != nil {
				return TaskNode{}, err
			}
			n.Children = append(n.Children, cn)
		}
		return n, nil
	}

	snap := EmptySnapshot()
	listRoots := map[string][]row{}
	for _, r := range childrenOf[""] {
		switch r.collection {
		case "active", "archived":
			n, err := buildWS(r)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrMalformedSnapshot, err)
			}
			if r.collection == "active" {
				snap.Workspaces = append(snap.Workspaces, n)
			} else {
				snap.Archived = append(snap.Archived, n)
			}
		case "list":
			listRoots[r.listWS] = append(listRoots[r.listWS], r)
		default:
			return nil, fmt.Errorf("%w: node %s has collection %q", ErrMalformedSnapshot, r.id, r.collection)
		}
	}

	// Lists follow workspace order so the JSON and SQLite forms round-trip
	// byte-identically through the snapshot.
	appendList := func(wsID string) error {
		rec := ListRecord{WorkspaceID: wsID}
		for _, r := range listRoots[wsID] {
			n, err := buildTask(r)
			if err != nil {
				return fmt.Errorf("%w: %v", ErrMalformedSnapshot, err)
			}
			rec.Tasks = append(rec.Tasks, n)
		}
		delete(listRoots, wsID)
		snap.Lists = append(snap.Lists, rec)
		return nil
	}
	var walkIDs func(ns []WSNode) error
	walkIDs = func(ns []WSNode) error {
		for _, n := range ns {
			if err := appendList(n.ID); err != nil {
				return err
			}
			if err := walkIDs(n.Children); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walkIDs(snap.Workspaces); err != nil {
		return nil, err
	}
	if err := walkIDs(snap.Archived); err != nil {
		return nil, err
	}
	if len(listRoots) > 0 {
		for ws := range listRoots {
			return nil, fmt.Errorf("%w: list references unknown workspace %q", ErrMalformedSnapshot, ws)
		}
	}

	if err := validate(snap); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedSnapshot, err)
	}
	return snap, nil
}

func (s Store) saveSQLite(snap *Snapshot) error {
	db, err := s.openSQLite()
	if err != nil {
		return err
	}
	defer db.Close()

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM nodes`); err != nil {
		return err
	}

	insert := func(id, kind, collection, listWS, parent string, pos int, label string, expanded bool, status, due, urgency string) error {
		_, err := tx.Exec(`INSERT INTO nodes (id, kind, collection, list_ws_id, parent_id, position, label, expanded, status, due, urgency)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			id, kind, collection, listWS, parent, pos, label, expanded, status, due, urgency)
		return err
	}

	var putWS func(ns []WSNode, collection, parent string) error
	putWS = func(ns []WSNode, collection, parent string) error {
		for i, n := range ns {
			if err := insert(n.ID, "workspace", collection, "", parent, i, n.Label, n.Expanded, "", "", ""); err != nil {
				return err
			}
			if err := putWS(n.Children, collection, n.ID); err != nil {
				return err
			}
		}
		return nil
	}
	var putTasks func(ns []TaskNode, listWS, parent string) error
	putTasks = func(ns []TaskNode, listWS, parent string) error {
		for i, n := range ns {
			due := ""
			if n.Due != nil {
				due = n.Due.String()
			}
			if err := insert(n.ID, "task", "list", listWS, parent, i, n.Label, n.Expanded, string(n.Status), due, string(n.Urgency)); err != nil {
				return err
			}
			if err := putTasks(n.Children, listWS, n.ID); err != nil {
				return err
			}
		}
		return nil
	}

	if err := putWS(snap.Workspaces, "active", ""); err != nil {
		return err
	}
	if err := putWS(snap.Archived, "archived", ""); err != nil {
		return err
	}
	for _, l := range snap.Lists {
		if err := putTasks(l.Tasks, l.WorkspaceID, ""); err != nil {
			return err
		}
	}
	if _, err := tx.Exec(`INSERT INTO meta (k, v) VALUES ('version', ?)
		ON CONFLICT(k) DO UPDATE SET v=excluded.v`, fmt.Sprint(snap.Version)); err != nil {
		return err
	}
	return tx.Commit()
}

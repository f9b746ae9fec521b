package db

import (
	"database/sql"
	"fmt"
)

const runsTableDDL = `
CREATE TABLE IF NOT EXISTS runs (
    id TEXT PRIMARY KEY,
    job TEXT NOT NULL DEFAULT '',
    base_path TEXT NOT NULL,
    pattern TEXT NOT NULL,
    mode TEXT NOT NULL,
    policy TEXT NOT NULL DEFAULT '',
    start_time INTEGER NOT NULL,
    end_time INTEGER,
    candidates INTEGER DEFAULT 0,
    protected INTEGER DEFAULT 0,
    kept INTEGER DEFAULT 0,
    pruned INTEGER DEFAULT 0,
    deleted INTEGER DEFAULT 0,
    failed INTEGER DEFAULT 0,
    bytes_kept INTEGER DEFAULT 0,
    bytes_pruned INTEGER DEFAULT 0,
    bytes_freed INTEGER DEFAULT 0,
    status TEXT NOT NULL,
    error TEXT NOT NULL DEFAULT ''
);
`

const decisionsTableDDL = `
CREATE TABLE IF NOT EXISTS decisions (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    seq INTEGER NOT NULL,
    path TEXT NOT NULL,
    name TEXT NOT NULL,
    age_time INTEGER NOT NULL,
    size INTEGER NOT NULL,
    outcome TEXT NOT NULL,
    reason TEXT NOT NULL,
    detail TEXT NOT NULL DEFAULT '',
    is_primary INTEGER NOT NULL,
    keep INTEGER NOT NULL
);
`

const runsStartIndexDDL = `CREATE INDEX IF NOT EXISTS idx_runs_start ON runs(start_time DESC);`
const runsJobIndexDDL = `CREATE INDEX IF NOT EXISTS idx_runs_job ON runs(job, start_time DESC);`
const decisionsRunIndexDDL = `CREATE INDEX IF NOT EXISTS idx_decisions_run ON decisions(run_id, seq);`

// InitSchema creates all tables and indexes in the database.
func InitSchema(db *sql.DB) error {
	ddls := []string{
		runsTableDDL,
		decisionsTableDDL,
		runsStartIndexDDL,
		runsJobIndexDDL,
		decisionsRunIndexDDL,
	}

	for _, ddl := range ddls {
		if _, err := db.Exec(ddl); err != nil {
			return fmt.Errorf("failed to execute DDL: %w", err)
		}
	}

	return nil
}

// ApplyWritePragmas configures SQLite for journal writes.
func ApplyWritePragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA temp_store = MEMORY",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to apply pragma %q: %w", pragma, err)
		}
	}

	return nil
}

// ApplyReadPragmas configures SQLite for browsing the journal.
func ApplyReadPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA temp_store = MEMORY",
		"PRAGMA query_only = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to apply pragma %q: %w", pragma, err)
		}
	}

	return nil
}

// Open opens (creating if needed) the journal at path for writing.
func Open(path string) (*sql.DB, error) {
	database, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	// One writer at a time; modernc sqlite serializes anyway.
	database.SetMaxOpenConns(1)

	if err := ApplyWritePragmas(database); err != nil {
		database.Close()
		return nil, err
	}
	if err := InitSchema(database); err != nil {
		database.Close()
		return nil, err
	}
	return database, nil
}

// OpenReadOnly opens an existing journal for browsing.
func OpenReadOnly(path string) (*sql.DB, error) {
	database, err := sql.Open("sqlite", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	if err := database.Ping(); err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to open journal %s: %w", path, err)
	}
	if err := ApplyReadPragmas(database); err != nil {
		database.Close()
		return nil, err
	}
	return database, nil
}

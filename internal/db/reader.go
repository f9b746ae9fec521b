package db

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrRunNotFound is returned when no run matches an ID or ID prefix.
var ErrRunNotFound = errors.New("run not found")

const runColumns = `id, job, base_path, pattern, mode, policy, start_time, COALESCE(end_time, 0),
    candidates, protected, kept, pruned, deleted, failed, bytes_kept, bytes_pruned, bytes_freed, status, error`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*RunRecord, error) {
	var r RunRecord
	var start, end int64
	err := row.Scan(&r.ID, &r.Job, &r.Base, &r.Pattern, &r.Mode, &r.Policy, &start, &end,
		&r.Candidates, &r.Protected, &r.Kept, &r.Pruned, &r.Deleted, &r.Failed,
		&r.BytesKept, &r.BytesPruned, &r.BytesFreed, &r.Status, &r.Error)
	if err != nil {
		return nil, err
	}
	r.Start = time.Unix(start, 0)
	if end > 0 {
		r.End = time.Unix(end, 0)
	}
	return &r, nil
}

// ListRuns returns up to limit runs, newest first. A non-empty job filters
// by job name.
func ListRuns(db *sql.DB, job string, limit int) ([]*RunRecord, error) {
	if limit <= 0 {
		limit = -1
	}
	query := `SELECT ` + runColumns + ` FROM runs`
	args := []any{}
	if job != "" {
		query += ` WHERE job = ?`
		args = append(args, job)
	}
	query += ` ORDER BY start_time DESC, id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var runs []*RunRecord
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// GetRun returns the run whose ID equals or uniquely starts with id.
func GetRun(db *sql.DB, id string) (*RunRecord, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrRunNotFound
	}
	rows, err := db.Query(`SELECT `+runColumns+` FROM runs WHERE id = ? OR id LIKE ? ORDER BY id LIMIT 2`,
		id, stripWildcards(id)+"%")
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var found []*RunRecord
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		if r.ID == id {
			return r, nil
		}
		found = append(found, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	switch len(found) {
	case 0:
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	case 1:
		return found[0], nil
	default:
		return nil, fmt.Errorf("run id prefix %q is ambiguous", id)
	}
}

// LoadDecisions returns the decisions of a run in recorded order. With
// primaryOnly set, history decisions are omitted.
func LoadDecisions(db *sql.DB, runID string, primaryOnly bool) ([]DecisionRecord, error) {
	query := `SELECT seq, path, name, age_time, size, outcome, reason, detail, is_primary, keep
        FROM decisions WHERE run_id = ?`
	if primaryOnly {
		query += ` AND is_primary = 1`
	}
	query += ` ORDER BY seq`

	rows, err := db.Query(query, runID)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var out []DecisionRecord
	for rows.Next() {
		var d DecisionRecord
		if err := rows.Scan(&d.Seq, &d.Path, &d.Name, &d.Time, &d.Size, &d.Outcome, &d.Reason, &d.Detail, &d.Primary, &d.Keep); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func stripWildcards(s string) string {
	return strings.NewReplacer(`%`, ``, `_`, ``).Replace(s)
}

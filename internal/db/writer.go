package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	_ "modernc.org/sqlite"
)

const insertRunSQL = `INSERT INTO runs (id, job, base_path, pattern, mode, policy, start_time, status) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
const finishRunSQL = `UPDATE runs SET end_time = ?, candidates = ?, protected = ?, kept = ?, pruned = ?, deleted = ?, failed = ?,
    bytes_kept = ?, bytes_pruned = ?, bytes_freed = ?, status = ?, error = ? WHERE id = ?`
const insertDecisionSQL = `INSERT INTO decisions (run_id, seq, path, name, age_time, size, outcome, reason, detail, is_primary, keep)
    VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// Run statuses.
const (
	StatusRunning = "running"
	StatusOK      = "ok"
	StatusFailed  = "failed"
)

// DefaultBatchSize is the number of decisions written per transaction.
const DefaultBatchSize = 500

// RunRecord is one row of the runs table.
type RunRecord struct {
	ID      string
	Job     string
	Base    string
	Pattern string
	Mode    string
	Policy  string

	Start time.Time
	End   time.Time

	Candidates int
	Protected  int
	Kept       int
	Pruned     int
	Deleted    int
	Failed     int

	BytesKept   int64
	BytesPruned int64
	BytesFreed  int64

	Status string
	Error  string
}

// Duration returns the wall time of a finished run.
func (r *RunRecord) Duration() time.Duration {
	if r.End.IsZero() {
		return 0
	}
	return r.End.Sub(r.Start)
}

// DecisionRecord is one row of the decisions table.
type DecisionRecord struct {
	Seq     int
	Path    string
	Name    string
	Time    int64
	Size    int64
	Outcome string
	Reason  string
	Detail  string
	Primary bool
	Keep    bool
}

// Writer records runs and their decisions.
type Writer struct {
	db        *sql.DB
	batchSize int
}

// NewWriter creates a journal writer. batchSize <= 0 uses DefaultBatchSize.
func NewWriter(db *sql.DB, batchSize int) *Writer {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Writer{db: db, batchSize: batchSize}
}

// BeginRun inserts run with status running, assigning an ID and start time
// when they are unset.
func (w *Writer) BeginRun(ctx context.Context, run *RunRecord) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.Start.IsZero() {
		run.Start = time.Now()
	}
	run.Status = StatusRunning
	_, err := w.db.ExecContext(ctx, insertRunSQL,
		run.ID, run.Job, run.Base, run.Pattern, run.Mode, run.Policy, run.Start.Unix(), run.Status)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}
	return nil
}

// FinishRun stores the final counters and status of run.
func (w *Writer) FinishRun(ctx context.Context, run *RunRecord) error {
	if run.End.IsZero() {
		run.End = time.Now()
	}
	res, err := w.db.ExecContext(ctx, finishRunSQL,
		run.End.Unix(), run.Candidates, run.Protected, run.Kept, run.Pruned, run.Deleted, run.Failed,
		run.BytesKept, run.BytesPruned, run.BytesFreed, run.Status, run.Error, run.ID)
	if err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("failed to update run %s: %w", run.ID, sql.ErrNoRows)
	}
	return nil
}

// WriteDecisions appends decisions for runID in batched transactions.
func (w *Writer) WriteDecisions(ctx context.Context, runID string, decisions []DecisionRecord) error {
	stmt, err := w.db.PrepareContext(ctx, insertDecisionSQL)
	if err != nil {
		return fmt.Errorf("failed to prepare decision statement: %w", err)
	}
	defer stmt.Close()

	for start := 0; start < len(decisions); start += w.batchSize {
		end := min(start+w.batchSize, len(decisions))
		if err := w.flushDecisions(ctx, stmt, runID, decisions[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func (w *Writer) flushDecisions(ctx context.Context, stmt *sql.Stmt, runID string, batch []DecisionRecord) error {
	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin decision transaction: %w", err)
	}

	txStmt := tx.StmtContext(ctx, stmt)
	for _, d := range batch {
		_, err := txStmt.ExecContext(ctx, runID, d.Seq, d.Path, d.Name, d.Time, d.Size,
			d.Outcome, d.Reason, d.Detail, d.Primary, d.Keep)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to insert decision for %q: %w", d.Path, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit decision transaction: %w", err)
	}
	return nil
}

// PruneRuns deletes all but the newest keep runs together with their
// decisions and returns the number of runs removed.
func (w *Writer) PruneRuns(ctx context.Context, keep int) (int64, error) {
	if keep <= 0 {
		return 0, nil
	}
	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin prune transaction: %w", err)
	}
	defer tx.Rollback()

	const stale = `SELECT id FROM runs ORDER BY start_time DESC, id DESC LIMIT -1 OFFSET ?`
	if _, err := tx.ExecContext(ctx, `DELETE FROM decisions WHERE run_id IN (`+stale+`)`, keep); err != nil {
		return 0, fmt.Errorf("failed to delete old decisions: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM runs WHERE id IN (`+stale+`)`, keep)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old runs: %w", err)
	}
	n, _ := res.RowsAffected()
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit prune transaction: %w", err)
	}
	return n, nil
}

package runner

import (
	"context"
	"log/slog"

	"github.com/michaelscutari/retentions/internal/config"
	"github.com/michaelscutari/retentions/internal/db"
	"github.com/michaelscutari/retentions/internal/metrics"
	"github.com/michaelscutari/retentions/internal/prune"
	"github.com/michaelscutari/retentions/internal/report"
)

// finish records the run in the journal and the metrics. Failures here are
// logged, never returned: the filesystem work is already done. ctx must not
// be cancelled by the signal that interrupted the run.
func (r *Runner) finish(ctx context.Context, job *config.Job, run *db.RunRecord, rep *Report, runErr error, log *slog.Logger) {
	run.End = rep.End
	run.Status = db.StatusOK
	if runErr != nil {
		run.Status = db.StatusFailed
		run.Error = runErr.Error()
	}
	if rep.Plan != nil {
		t := rep.Plan.Totals()
		run.Candidates, run.Protected = t.Found, t.Protected
		run.Kept, run.Pruned = t.Keep, t.Prune
		run.BytesKept, run.BytesPruned = t.KeepSize, t.PruneSize
	}
	if rep.Execution != nil {
		run.Deleted = rep.Execution.Deleted
		run.Failed = rep.Execution.Failed
		run.BytesFreed = rep.Execution.BytesFreed
	}

	if r.journal != nil {
		r.stage(job, "journal")
		if rep.Plan != nil {
			if err := r.journal.WriteDecisions(ctx, run.ID, decisionRecords(rep.Plan)); err != nil {
				log.Warn("failed to journal decisions", "run", run.ID, "error", err)
			}
		}
		if err := r.journal.FinishRun(ctx, run); err != nil {
			log.Warn("failed to journal run", "run", run.ID, "error", err)
		}
		if r.journalKeep > 0 {
			if n, err := r.journal.PruneRuns(ctx, r.journalKeep); err != nil {
				log.Warn("failed to trim journal", "error", err)
			} else if n > 0 {
				log.Debug("trimmed journal", "runs", n)
			}
		}
	}

	if r.metrics != nil {
		freed := run.BytesFreed
		if rep.Execution != nil && rep.Execution.Mode != prune.Delete {
			freed = 0
		}
		status := metrics.StatusOK
		if runErr != nil {
			status = metrics.StatusFailed
		}
		r.metrics.ObserveRun(metrics.RunStats{
			Job:         job.Name,
			Status:      status,
			Kept:        run.Kept,
			Pruned:      run.Pruned,
			BytesPruned: freed,
			Failed:      run.Failed,
			At:          rep.End,
		})
		if r.metricsFile != "" {
			if err := r.metrics.WriteTextfile(r.metricsFile); err != nil {
				log.Warn("failed to write metrics", "file", r.metricsFile, "error", err)
			}
		}
	}
}

// decisionRecords flattens the trail: every decision of every entry in
// candidate order, oldest decision first, the primary one flagged.
func decisionRecords(plan *report.Plan) []db.DecisionRecord {
	res := plan.Result
	var out []db.DecisionRecord
	for _, c := range plan.Candidates {
		primary, hasPrimary := res.Trail.Primary(c.Path)
		history := res.Trail.History(c.Path)
		for i := len(history) - 1; i >= 0; i-- {
			d := history[i]
			out = append(out, db.DecisionRecord{
				Seq:     len(out),
				Path:    c.Path,
				Name:    c.Name,
				Time:    c.Time,
				Size:    c.Size,
				Outcome: d.Outcome.String(),
				Reason:  d.Reason(),
				Detail:  d.Detail,
				Primary: hasPrimary && d == primary,
				Keep:    res.Kept(c.Path),
			})
		}
	}
	return out
}

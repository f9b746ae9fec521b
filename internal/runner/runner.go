// Package runner drives one retention run of a job from lock to journal.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/michaelscutari/retentions/internal/config"
	"github.com/michaelscutari/retentions/internal/db"
	"github.com/michaelscutari/retentions/internal/filestat"
	"github.com/michaelscutari/retentions/internal/lock"
	"github.com/michaelscutari/retentions/internal/metrics"
	"github.com/michaelscutari/retentions/internal/prune"
	"github.com/michaelscutari/retentions/internal/report"
	"github.com/michaelscutari/retentions/internal/retention"
	"github.com/michaelscutari/retentions/internal/scan"
)

// ErrNoCandidates is returned for an empty listing when the job asks to
// fail on empty.
var ErrNoCandidates = errors.New("no candidates found")

// StageFunc is called when the run enters a new stage.
type StageFunc func(job, stage string)

// Output selects how a run reports its plan.
type Output string

const (
	OutputQuiet Output = ""     // nothing but list-only output
	OutputText  Output = "text" // decision lines and totals
	OutputJSON  Output = "json"
)

// Report is the outcome of one run.
type Report struct {
	RunID     string // empty without a journal
	Plan      *report.Plan
	Execution *prune.Summary
	Start     time.Time
	End       time.Time
}

// Runner executes jobs. A Runner may be shared by concurrent runs of
// different jobs; two runs of the same directory are serialized by the
// directory lock, not by the Runner.
type Runner struct {
	log *slog.Logger

	journal     *db.Writer
	journalKeep int

	metrics     *metrics.Collector
	metricsFile string

	out     io.Writer
	output  Output
	history bool
	dryRun  bool

	now       func() time.Time
	loc       *time.Location
	stageFunc StageFunc
}

// New creates a Runner writing reports to stdout.
func New(logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		log: logger.With("component", "runner"),
		out: os.Stdout,
		now: time.Now,
		loc: time.Local,
	}
}

// SetJournal records every run in w, keeping at most keep runs (0 keeps all).
func (r *Runner) SetJournal(w *db.Writer, keep int) {
	r.journal = w
	r.journalKeep = keep
}

// SetMetrics feeds c after every run and, when textfile is set, rewrites
// that file.
func (r *Runner) SetMetrics(c *metrics.Collector, textfile string) {
	r.metrics = c
	r.metricsFile = textfile
}

// SetOutput sets where and how plans are reported. history prints every
// superseded decision below each entry.
func (r *Runner) SetOutput(out io.Writer, output Output, history bool) {
	r.out = out
	r.output = output
	r.history = history
}

// SetDryRun forces every job into dry-run mode.
func (r *Runner) SetDryRun(on bool) {
	r.dryRun = on
}

// SetClock sets the reference time source and calendar zone.
func (r *Runner) SetClock(now func() time.Time, loc *time.Location) {
	if now != nil {
		r.now = now
	}
	if loc != nil {
		r.loc = loc
	}
}

// SetStageFunc sets a callback for stage changes.
func (r *Runner) SetStageFunc(f StageFunc) {
	r.stageFunc = f
}

func (r *Runner) stage(job *config.Job, name string) {
	if r.stageFunc != nil {
		r.stageFunc(job.Name, name)
	}
}

// Run performs lock, list, plan, report, execute, journal and metrics for
// job. The lock is released on every path.
func (r *Runner) Run(ctx context.Context, job *config.Job) (*Report, error) {
	j := *job
	job = &j
	config.ApplyJobDefaults(job)
	if err := config.ValidateJob(job); err != nil {
		return nil, err
	}
	policy, err := job.Policy()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", config.ErrInvalid, err)
	}
	stats, err := job.StatSource()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", config.ErrInvalid, err)
	}
	pruneOpts, err := job.PruneOptions(r.dryRun)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", config.ErrInvalid, err)
	}

	log := r.log.With("job", job.Name, "path", job.Path)
	rep := &Report{Start: r.now()}

	run := &db.RunRecord{
		Job:     job.Name,
		Base:    job.Path,
		Pattern: job.Pattern,
		Mode:    pruneOpts.Mode.String(),
		Policy:  job.Describe(),
		Start:   rep.Start,
	}
	if r.journal != nil {
		if err := r.journal.BeginRun(ctx, run); err != nil {
			return nil, fmt.Errorf("failed to record run: %w", err)
		}
		rep.RunID = run.ID
	}

	runErr := r.run(ctx, job, policy, stats, pruneOpts, rep, log)
	rep.End = r.now()

	r.finish(context.WithoutCancel(ctx), job, run, rep, runErr, log)
	if runErr != nil {
		return rep, runErr
	}
	return rep, nil
}

func (r *Runner) run(ctx context.Context, job *config.Job, policy retention.Policy, stats *filestat.Source, pruneOpts *prune.Options, rep *Report, log *slog.Logger) error {
	info, err := os.Stat(job.Path)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("%w: %s", scan.ErrNotDirectory, job.Path)
	}

	if !job.NoLock {
		r.stage(job, "lock")
		l, err := lock.Acquire(job.Path)
		if err != nil {
			return err
		}
		defer func() {
			if err := l.Release(); err != nil {
				log.Warn("failed to release lock", "lock", l.Path(), "error", err)
			}
		}()
	}

	r.stage(job, "list")
	lister := scan.NewLister(job.ListOptions(), stats, log)
	listing, err := lister.List(job.Path, job.Pattern)
	if err != nil {
		return err
	}
	if listing.Empty() {
		if job.FailOnEmpty {
			return fmt.Errorf("%w in %s matching %q", ErrNoCandidates, listing.Base, job.Pattern)
		}
		log.Info("no candidates found", "pattern", job.Pattern)
	}

	r.stage(job, "plan")
	eng, err := retention.NewEngine(policy,
		retention.WithNow(r.now()),
		retention.WithLocation(r.loc),
		retention.WithLogger(log))
	if err != nil {
		return err
	}
	result, err := eng.Run(listing.Candidates)
	if err != nil {
		return err
	}
	rep.Plan = &report.Plan{
		Job:        job.Name,
		Base:       listing.Base,
		Pattern:    job.Pattern,
		Policy:     job.Describe(),
		Candidates: listing.Candidates,
		Protected:  listing.Protected,
		Empty:      listing.EmptyDirs,
		Result:     result,
	}

	printer := report.NewPrinter(r.out).WithHistory(r.history).WithLocation(r.loc)
	if r.output == OutputText && pruneOpts.Mode != prune.ListOnly {
		if err := printer.PrintPlan(rep.Plan); err != nil {
			return err
		}
	}

	r.stage(job, "execute")
	pruneOpts.WithProtected(listing.Protected)
	executor := prune.NewExecutor(listing.Base, pruneOpts, r.out, log)
	rep.Execution, err = executor.Execute(ctx, result.Prune)

	switch {
	case r.output == OutputText && pruneOpts.Mode != prune.ListOnly:
		if perr := printer.PrintExecution(rep.Execution); perr != nil && err == nil {
			err = perr
		}
	case r.output == OutputJSON && pruneOpts.Mode != prune.ListOnly:
		if perr := report.WriteJSON(r.out, rep.Plan, rep.Execution, r.loc); perr != nil && err == nil {
			err = perr
		}
	}
	return err
}

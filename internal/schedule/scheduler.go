// Package schedule runs policy-file jobs on their cron schedules.
package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/michaelscutari/retentions/internal/config"
)

// RunFunc runs one job.
type RunFunc func(ctx context.Context, job *config.Job) error

// Scheduler runs jobs at their scheduled times. A job whose previous run
// is still in progress is skipped.
type Scheduler struct {
	run RunFunc
	log *slog.Logger

	mu      sync.Mutex
	cron    *cron.Cron
	entries map[string]cron.EntryID
	ctx     context.Context
	running bool
}

// New creates a Scheduler that calls run for every due job.
func New(run RunFunc, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	log := logger.With("component", "schedule")
	cl := cronLogger{log: log}
	return &Scheduler{
		run: run,
		log: log,
		cron: cron.New(
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		entries: make(map[string]cron.EntryID),
		ctx:     context.Background(),
	}
}

// Load replaces the registered jobs with the scheduled jobs of cfg and
// returns how many were registered. Jobs without a schedule are ignored.
func (s *Scheduler) Load(cfg *config.Config) (int, error) {
	type planned struct {
		job   config.Job
		sched cron.Schedule
	}
	var jobs []planned
	for _, job := range cfg.Jobs {
		if job.Schedule == "" {
			continue
		}
		sched, err := config.ParseSchedule(job.Schedule)
		if err != nil {
			return 0, fmt.Errorf("invalid schedule for job %s: %w", job.Name, err)
		}
		jobs = append(jobs, planned{job: job, sched: sched})
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for name, id := range s.entries {
		s.cron.Remove(id)
		delete(s.entries, name)
	}
	for _, p := range jobs {
		job := p.job
		id := s.cron.Schedule(p.sched, cron.FuncJob(func() { s.runJob(&job) }))
		s.entries[job.Name] = id
		s.log.Info("job scheduled", "job", job.Name, "schedule", job.Schedule)
	}
	return len(jobs), nil
}

func (s *Scheduler) runJob(job *config.Job) {
	s.mu.Lock()
	ctx := s.ctx
	s.mu.Unlock()

	start := time.Now()
	s.log.Info("starting scheduled run", "job", job.Name)
	if err := s.run(ctx, job); err != nil {
		s.log.Error("scheduled run failed", "job", job.Name, "error", err)
		return
	}
	s.log.Info("scheduled run completed", "job", job.Name, "duration", time.Since(start))
}

// Start begins running jobs. Runs receive ctx; cancelling it stops the
// scheduler.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.ctx = ctx
	s.cron.Start()
	s.running = true
	s.log.Info("scheduler started", "jobs", len(s.entries))

	go func() {
		<-ctx.Done()
		s.Stop()
	}()
}

// Stop stops the scheduler and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	<-s.cron.Stop().Done()
	s.log.Info("scheduler stopped")
}

// Running reports whether the scheduler is started.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Jobs returns the names of the registered jobs, sorted.
func (s *Scheduler) Jobs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.entries))
	for name := range s.entries {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// NextRun returns the next run time of job. The time is zero until the
// scheduler is started.
func (s *Scheduler) NextRun(job string) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.entries[job]
	if !ok {
		return time.Time{}, false
	}
	return s.cron.Entry(id).Next, true
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	log *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error(msg, append(keysAndValues, "error", err)...)
}

package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/michaelscutari/retentions/internal/config"
	"github.com/michaelscutari/retentions/internal/db"
	"github.com/michaelscutari/retentions/internal/metrics"
	"github.com/michaelscutari/retentions/internal/runner"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the jobs of a policy file once",
	Long: `Load a YAML or TOML policy file and run each of its jobs, or only
the one named by --job. Every job runs even if an earlier one fails.`,
	Args: exactArgs(0),
	RunE: runRun,
}

var (
	runConfig string
	runJob    string
	runDryRun bool
)

func init() {
	runCmd.Flags().StringVarP(&runConfig, "config", "c", "", "Policy file (.yaml, .yml or .toml)")
	runCmd.Flags().StringVarP(&runJob, "job", "j", "", "Run only this job")
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "Force every job into dry-run mode")
}

// newConfiguredRunner builds a runner with the journal and metrics of
// cfg. The returned close function releases the journal.
func newConfiguredRunner(cfg *config.Config, logger *slog.Logger, collector *metrics.Collector) (*runner.Runner, func(), error) {
	r := runner.New(logger)
	r.SetDryRun(cfg.DryRun)
	closeFn := func() {}

	if cfg.Journal != "" {
		database, err := db.Open(cfg.Journal)
		if err != nil {
			return nil, nil, err
		}
		r.SetJournal(db.NewWriter(database, 0), cfg.JournalKeep)
		closeFn = func() { database.Close() }
	}
	if collector != nil || cfg.MetricsFile != "" {
		if collector == nil {
			collector = metrics.NewCollector()
		}
		r.SetMetrics(collector, cfg.MetricsFile)
	}
	return r, closeFn, nil
}

func runRun(cmd *cobra.Command, args []string) error {
	if runConfig == "" {
		return usageError(errors.New("--config is required"))
	}
	cfg, err := config.LoadWithEnvOverrides(runConfig)
	if err != nil {
		return err
	}
	if runDryRun {
		cfg.DryRun = true
	}

	logger, level, err := setupLogger(cfg.LogLevel)
	if err != nil {
		return err
	}

	jobs := cfg.Jobs
	if runJob != "" {
		job, ok := cfg.FindJob(runJob)
		if !ok {
			return usageError(fmt.Errorf("no job named %q in %s", runJob, runConfig))
		}
		jobs = []config.Job{*job}
	}

	r, closeJournal, err := newConfiguredRunner(cfg, logger, nil)
	if err != nil {
		return err
	}
	defer closeJournal()
	if level <= slog.LevelInfo {
		r.SetOutput(os.Stdout, runner.OutputText, level <= slog.LevelDebug)
	}

	ctx, cancel := signalContext()
	defer cancel()

	var errs []error
	for i := range jobs {
		job := &jobs[i]
		if ctx.Err() != nil {
			break
		}
		logger.Info("running job", "job", job.Name, "path", job.Path, "rules", job.Describe())
		if _, err := r.Run(ctx, job); err != nil {
			logger.Error("job failed", "job", job.Name, "error", err)
			errs = append(errs, fmt.Errorf("job %s: %w", job.Name, err))
		}
	}
	return errors.Join(errs...)
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/michaelscutari/retentions/internal/config"
	"github.com/michaelscutari/retentions/internal/metrics"
	"github.com/michaelscutari/retentions/internal/schedule"
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run policy-file jobs on their cron schedules",
	Long: `Run every job that has a schedule, reload the policy file when it
changes and serve Prometheus metrics on /metrics.

Changes to journal, listen or dry_run take effect after a restart; jobs and
schedules are reloaded live.`,
	Args: exactArgs(0),
	RunE: runDaemon,
}

var (
	daemonConfig string
	daemonListen string
)

func init() {
	daemonCmd.Flags().StringVarP(&daemonConfig, "config", "c", "", "Policy file (.yaml, .yml or .toml)")
	daemonCmd.Flags().StringVar(&daemonListen, "listen", "", "Metrics listen address (default from policy file)")
}

func runDaemon(cmd *cobra.Command, args []string) error {
	if daemonConfig == "" {
		return usageError(errors.New("--config is required"))
	}
	cfg, err := config.LoadWithEnvOverrides(daemonConfig)
	if err != nil {
		return err
	}
	if daemonListen != "" {
		cfg.Listen = daemonListen
	}

	logger, _, err := setupLogger(cfg.LogLevel)
	if err != nil {
		return err
	}

	collector := metrics.NewCollector()
	r, closeJournal, err := newConfiguredRunner(cfg, logger, collector)
	if err != nil {
		return err
	}
	defer closeJournal()

	ctx, cancel := signalContext()
	defer cancel()

	sched := schedule.New(func(ctx context.Context, job *config.Job) error {
		_, err := r.Run(ctx, job)
		return err
	}, logger)
	n, err := sched.Load(cfg)
	if err != nil {
		return err
	}
	if n == 0 {
		logger.Warn("no job has a schedule", "config", daemonConfig)
	}
	sched.Start(ctx)
	defer sched.Stop()

	for _, name := range sched.Jobs() {
		if next, ok := sched.NextRun(name); ok {
			logger.Info("next run", "job", name, "at", next.Format(time.RFC3339))
		}
	}

	watcher := schedule.NewWatcher(daemonConfig, logger)
	go func() {
		err := watcher.Run(ctx, func() {
			newCfg, err := config.LoadWithEnvOverrides(daemonConfig)
			if err != nil {
				logger.Error("policy reload failed, keeping current jobs", "error", err)
				return
			}
			n, err := sched.Load(newCfg)
			if err != nil {
				logger.Error("policy reload failed", "error", err)
				return
			}
			logger.Info("policy reloaded", "jobs", n)
		})
		if err != nil {
			logger.Error("policy watcher stopped", "error", err)
		}
	}()

	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})
	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("serving metrics", "addr", cfg.Listen)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("metrics server failed: %w", err)
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	logger.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop metrics server: %w", err)
	}
	return nil
}

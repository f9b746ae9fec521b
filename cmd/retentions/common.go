package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/michaelscutari/retentions/internal/db"
	"github.com/michaelscutari/retentions/internal/logging"
)

// setupLogger installs the process logger. The --verbose flag wins over
// fallback, which is the level from a policy file or a mode default.
func setupLogger(fallback string) (*slog.Logger, slog.Level, error) {
	level := fallback
	if rootCmd.PersistentFlags().Changed("verbose") {
		level = verbose
	}
	logger, lvl, err := logging.Setup(os.Stderr, level, logging.Format(logFormat))
	if err != nil {
		return nil, 0, usageError(err)
	}
	return logger, lvl, nil
}

// signalContext is cancelled by SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// journalPathFlag defaults journal flags from RETENTIONS_JOURNAL.
func journalPathFlag() string {
	return os.Getenv("RETENTIONS_JOURNAL")
}

// openJournalReadOnly opens an existing journal for the browsing commands.
func openJournalReadOnly(path string) (*sql.DB, error) {
	if path == "" {
		return nil, usageError(errors.New("--journal is required (or set RETENTIONS_JOURNAL)"))
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	return db.OpenReadOnly(path)
}

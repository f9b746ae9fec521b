package main

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/spf13/cobra"

	"github.com/michaelscutari/retentions/internal/config"
	"github.com/michaelscutari/retentions/internal/filestat"
	"github.com/michaelscutari/retentions/internal/lock"
	"github.com/michaelscutari/retentions/internal/prune"
	"github.com/michaelscutari/retentions/internal/retention"
	"github.com/michaelscutari/retentions/internal/runner"
	"github.com/michaelscutari/retentions/internal/scan"
)

// Process exit codes.
const (
	exitOK         = 0
	exitIO         = 1
	exitConfig     = 2
	exitNoFiles    = 3
	exitLocked     = 5
	exitIntegrity  = 7
	exitUnexpected = 9
)

// usageError marks command-line mistakes as configuration errors.
func usageError(err error) error {
	return fmt.Errorf("%w: %w", config.ErrInvalid, err)
}

// exactArgs is cobra.ExactArgs with configuration-error classification.
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(n)(cmd, args); err != nil {
			return usageError(err)
		}
		return nil
	}
}

func exitCode(err error) int {
	var (
		integrity *retention.IntegrityError
		statErr   *filestat.StatError
		deleteErr *prune.DeleteError
		pathErr   *fs.PathError
	)
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, config.ErrInvalid),
		errors.Is(err, retention.ErrInvalidPolicy),
		errors.Is(err, retention.ErrNoRules),
		errors.Is(err, scan.ErrInvalidPattern),
		errors.Is(err, filestat.ErrUnsupportedAgeType):
		return exitConfig
	case errors.Is(err, runner.ErrNoCandidates):
		return exitNoFiles
	case errors.Is(err, lock.ErrLocked):
		return exitLocked
	case errors.As(err, &integrity),
		errors.Is(err, prune.ErrOutsideBase),
		errors.Is(err, scan.ErrNotDirectChild):
		return exitIntegrity
	case errors.As(err, &statErr),
		errors.As(err, &deleteErr),
		errors.Is(err, scan.ErrNotDirectory),
		errors.As(err, &pathErr):
		return exitIO
	default:
		return exitUnexpected
	}
}

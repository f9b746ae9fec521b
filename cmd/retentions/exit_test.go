package main

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/michaelscutari/retentions/internal/config"
	"github.com/michaelscutari/retentions/internal/filestat"
	"github.com/michaelscutari/retentions/internal/lock"
	"github.com/michaelscutari/retentions/internal/prune"
	"github.com/michaelscutari/retentions/internal/retention"
	"github.com/michaelscutari/retentions/internal/runner"
	"github.com/michaelscutari/retentions/internal/scan"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, exitOK},
		{"validation", config.ValidationError{Errors: []config.FieldError{{Field: "days", Message: "bad"}}}, exitConfig},
		{"usage", usageError(errors.New("accepts 2 arg(s)")), exitConfig},
		{"no rules", fmt.Errorf("plan: %w", retention.ErrNoRules), exitConfig},
		{"bad pattern", fmt.Errorf("%w: missing ]", scan.ErrInvalidPattern), exitConfig},
		{"unsupported age type", &filestat.StatError{Path: "/b/x", Err: filestat.ErrUnsupportedAgeType}, exitConfig},
		{"no candidates", fmt.Errorf("%w in /b", runner.ErrNoCandidates), exitNoFiles},
		{"locked", fmt.Errorf("%w: /b/.retentions.lock", lock.ErrLocked), exitLocked},
		{"integrity", &retention.IntegrityError{Candidates: 3, Keep: 1, Prune: 1}, exitIntegrity},
		{"outside base", fmt.Errorf("%w: /etc/passwd", prune.ErrOutsideBase), exitIntegrity},
		{"not direct child", fmt.Errorf("%w: /b/sub/x", scan.ErrNotDirectChild), exitIntegrity},
		{"stat", &filestat.StatError{Path: "/b/x", Err: fs.ErrPermission}, exitIO},
		{"delete", &prune.DeleteError{Path: "/b/x", Err: fs.ErrPermission}, exitIO},
		{"not a directory", fmt.Errorf("%w: /b", scan.ErrNotDirectory), exitIO},
		{"path error", &fs.PathError{Op: "open", Path: "/x", Err: fs.ErrNotExist}, exitIO},
		{"joined", errors.Join(errors.New("other"), lock.ErrLocked), exitLocked},
		{"unexpected", errors.New("boom"), exitUnexpected},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := exitCode(tt.err); got != tt.want {
				t.Errorf("exitCode(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

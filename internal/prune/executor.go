// Package prune turns a prune set into removals, or reports it.
package prune

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/michaelscutari/retentions/internal/entry"
	"github.com/michaelscutari/retentions/internal/pathutil"
)

// Mode selects what the executor does with the prune set.
type Mode uint8

const (
	Delete Mode = iota
	DryRun
	ListOnly
)

func (m Mode) String() string {
	switch m {
	case DryRun:
		return "dry-run"
	case ListOnly:
		return "list-only"
	default:
		return "delete"
	}
}

// ErrOutsideBase is returned, before anything is removed, when a prune
// target is not a direct child of the base directory.
var ErrOutsideBase = errors.New("prune target outside base directory")

// DeleteError reports one failed removal.
type DeleteError struct {
	Path string
	Err  error
}

func (e *DeleteError) Error() string {
	return fmt.Sprintf("failed to delete %s: %v", e.Path, e.Err)
}

func (e *DeleteError) Unwrap() error { return e.Err }

// Options configures an Executor.
type Options struct {
	Mode       Mode
	Separator  string // list-only
	FailFast   bool
	FolderMode bool
	Companions []CompanionRule
	Protected  []string // names never removed
}

// DefaultOptions deletes files, continuing past failures.
func DefaultOptions() *Options {
	return &Options{Separator: "\n"}
}

// WithMode sets the execution mode.
func (o *Options) WithMode(m Mode) *Options {
	o.Mode = m
	return o
}

// WithSeparator sets the list-only separator. The two-character sequence
// `\0` selects a NUL byte.
func (o *Options) WithSeparator(sep string) *Options {
	if sep == `\0` {
		sep = "\x00"
	}
	o.Separator = sep
	return o
}

// WithFailFast stops at the first failed removal.
func (o *Options) WithFailFast(on bool) *Options {
	o.FailFast = on
	return o
}

// WithFolderMode removes whole directory trees.
func (o *Options) WithFolderMode(on bool) *Options {
	o.FolderMode = on
	return o
}

// WithCompanions adds companion rules.
func (o *Options) WithCompanions(rules ...CompanionRule) *Options {
	o.Companions = append(o.Companions, rules...)
	return o
}

// WithProtected sets names that are never removed.
func (o *Options) WithProtected(names []string) *Options {
	o.Protected = names
	return o
}

// Summary totals an execution.
type Summary struct {
	Mode       Mode
	Deleted    int
	Failed     int
	Skipped    int // protected at execution time
	Companions int
	BytesFreed int64
	Errors     []error
}

// Executor applies Options to a prune set inside one base directory.
type Executor struct {
	base string
	opts *Options
	out  io.Writer
	log  *slog.Logger
}

// NewExecutor creates an Executor. List-only output goes to out.
func NewExecutor(base string, opts *Options, out io.Writer, logger *slog.Logger) *Executor {
	if opts == nil {
		opts = DefaultOptions()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{
		base: pathutil.Normalize(base),
		opts: opts,
		out:  out,
		log:  logger.With("component", "prune"),
	}
}

// Execute processes targets in order. Removal failures are collected in
// the Summary; with FailFast the first one is also returned as an error.
// A deletion failure never changes which entries were selected.
func (x *Executor) Execute(ctx context.Context, targets []entry.Entry) (*Summary, error) {
	for _, t := range targets {
		if !pathutil.IsDirectChild(x.base, t.Path) {
			return nil, fmt.Errorf("%w: %s not in %s", ErrOutsideBase, t.Path, x.base)
		}
	}

	protected := make(map[string]bool, len(x.opts.Protected))
	for _, name := range x.opts.Protected {
		protected[name] = true
	}

	sum := &Summary{Mode: x.opts.Mode}
	for _, t := range targets {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		if protected[t.Name] {
			x.log.Warn("refusing to delete protected entry", "path", t.Path)
			sum.Skipped++
			continue
		}

		switch x.opts.Mode {
		case ListOnly:
			if _, err := io.WriteString(x.out, t.Path+x.opts.Separator); err != nil {
				return sum, fmt.Errorf("failed to write list: %w", err)
			}
			continue
		case DryRun:
			x.log.Info("dry-run delete", "path", t.Path, "size", t.Size)
			sum.Deleted++
			sum.BytesFreed += t.Size
			sum.Companions += len(x.companionsOf(t))
			continue
		}

		x.log.Info("deleting", "path", t.Path, "size", t.Size)
		if err := x.remove(t); err != nil {
			sum.Failed++
			sum.Errors = append(sum.Errors, err)
			if x.opts.FailFast {
				return sum, err
			}
			x.log.Warn("delete failed, continuing", "path", t.Path, "error", err)
			continue
		}
		sum.Deleted++
		sum.BytesFreed += t.Size

		for _, c := range x.companionsOf(t) {
			x.log.Info("deleting companion", "path", c, "of", t.Path)
			if err := os.Remove(c); err != nil {
				derr := &DeleteError{Path: c, Err: err}
				sum.Failed++
				sum.Errors = append(sum.Errors, derr)
				if x.opts.FailFast {
					return sum, derr
				}
				x.log.Warn("companion delete failed, continuing", "path", c, "error", err)
				continue
			}
			sum.Companions++
		}
	}
	return sum, nil
}

func (x *Executor) remove(t entry.Entry) error {
	var err error
	if x.opts.FolderMode {
		err = os.RemoveAll(t.Path)
	} else {
		err = os.Remove(t.Path)
	}
	if err != nil {
		return &DeleteError{Path: t.Path, Err: err}
	}
	return nil
}

// companionsOf returns existing regular, non-symlink companion files of t.
func (x *Executor) companionsOf(t entry.Entry) []string {
	if x.opts.FolderMode {
		return nil
	}
	var out []string
	seen := map[string]bool{t.Path: true}
	for _, r := range x.opts.Companions {
		if !r.Matches(t.Path) {
			continue
		}
		c := r.Companion(t.Path)
		if seen[c] || !pathutil.IsDirectChild(x.base, c) {
			continue
		}
		seen[c] = true
		info, err := os.Lstat(c)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		out = append(out, c)
	}
	return out
}

// Package scan builds the ordered candidate list of a retention run.
package scan

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/michaelscutari/retentions/internal/entry"
	"github.com/michaelscutari/retentions/internal/filestat"
	"github.com/michaelscutari/retentions/internal/pathutil"
)

var (
	// ErrNotDirectory is returned when the base path is missing or is not a
	// directory.
	ErrNotDirectory = errors.New("not a directory")

	// ErrNotDirectChild is returned when a pattern matches something below
	// a subdirectory of the base.
	ErrNotDirectChild = errors.New("match is not a direct child of the base directory")

	// ErrInvalidPattern wraps pattern compilation failures.
	ErrInvalidPattern = errors.New("invalid pattern")
)

// Listing is the result of listing a base directory.
type Listing struct {
	Base       string
	Candidates []entry.Entry // newest first, ties by name
	Protected  []string      // names excluded by the protect pattern
	EmptyDirs  []string      // folders without files, folder mode only
}

// Empty reports whether no candidate was found. An empty listing is a valid
// result; callers decide whether it is an error.
func (l *Listing) Empty() bool {
	return len(l.Candidates) == 0
}

// Lister matches entries in a base directory and reads their stats.
type Lister struct {
	opts  *ListOptions
	stats *filestat.Source
	log   *slog.Logger
}

// NewLister creates a Lister. The stat source must be in folder mode iff
// opts.FolderMode is set.
func NewLister(opts *ListOptions, stats *filestat.Source, logger *slog.Logger) *Lister {
	if opts == nil {
		opts = DefaultOptions()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Lister{
		opts:  opts,
		stats: stats,
		log:   logger.With("component", "scan"),
	}
}

// List returns the candidates of base matching pattern.
func (l *Lister) List(base, pattern string) (*Listing, error) {
	base, err := resolveBase(base)
	if err != nil {
		return nil, err
	}

	matches, err := l.match(base, pattern)
	if err != nil {
		return nil, err
	}

	var protect func(string) bool
	if l.opts.Protect != "" {
		protect, err = l.matcher(l.opts.Protect)
		if err != nil {
			return nil, err
		}
	}

	listing := &Listing{Base: base}
	for _, path := range matches {
		if !pathutil.IsDirectChild(base, path) {
			return nil, fmt.Errorf("%w: %s", ErrNotDirectChild, path)
		}
		name := filepath.Base(path)
		if l.opts.LockFileName != "" && name == l.opts.LockFileName {
			continue
		}

		info, err := os.Lstat(path)
		if err != nil {
			return nil, &filestat.StatError{Path: path, Err: err}
		}
		kind := entry.KindFromMode(info.Mode())
		if l.opts.FolderMode {
			if kind != entry.KindDir {
				continue
			}
		} else if kind != entry.KindFile {
			if kind == entry.KindSymlink {
				l.log.Debug("ignoring symlink", "path", path)
			}
			continue
		}

		if protect != nil && protect(name) {
			listing.Protected = append(listing.Protected, name)
			continue
		}

		st, err := l.stats.Stat(path)
		if err != nil {
			return nil, err
		}
		if st.Empty {
			l.log.Warn("folder is empty, ignoring it", "path", path)
			listing.EmptyDirs = append(listing.EmptyDirs, name)
			continue
		}

		listing.Candidates = append(listing.Candidates, entry.Entry{
			Path: path,
			Name: name,
			Kind: kind,
			Time: st.Time,
			Size: st.Size,
		})
	}

	slices.SortFunc(listing.Candidates, func(a, b entry.Entry) int {
		switch {
		case entry.Newer(a, b):
			return -1
		case entry.Newer(b, a):
			return 1
		}
		return 0
	})

	l.log.Debug("listed candidates",
		"base", base,
		"pattern", pattern,
		"candidates", len(listing.Candidates),
		"protected", len(listing.Protected),
		"age_type", l.stats.AgeType())
	return listing, nil
}

func resolveBase(base string) (string, error) {
	abs, err := filepath.Abs(base)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", base, err)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrNotDirectory, base, err)
	}
	info, err := os.Stat(resolved)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrNotDirectory, base, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%w: %s", ErrNotDirectory, base)
	}
	return pathutil.Normalize(resolved), nil
}

// match returns the direct children of base whose names match pattern. The
// base path itself is never read as a pattern.
func (l *Lister) match(base, pattern string) ([]string, error) {
	if !l.opts.Regex && strings.ContainsAny(pattern, "/"+string(filepath.Separator)) {
		return nil, fmt.Errorf("%w: pattern %q spans directories", ErrNotDirectChild, pattern)
	}
	isMatch, err := l.matcher(pattern)
	if err != nil {
		return nil, err
	}
	dirEntries, err := os.ReadDir(base)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", base, err)
	}
	var matches []string
	for _, de := range dirEntries {
		if isMatch(de.Name()) {
			matches = append(matches, filepath.Join(base, de.Name()))
		}
	}
	return matches, nil
}

// matcher returns a name predicate for pattern in the configured mode.
func (l *Lister) matcher(pattern string) (func(string) bool, error) {
	if l.opts.Regex {
		re, err := l.opts.compileRegex(pattern)
		if err != nil {
			return nil, err
		}
		return re.MatchString, nil
	}
	if _, err := filepath.Match(pattern, ""); err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidPattern, pattern, err)
	}
	return func(name string) bool {
		ok, _ := filepath.Match(pattern, name)
		return ok
	}, nil
}

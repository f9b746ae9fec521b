package scan

import (
	"fmt"
	"regexp"

	"github.com/michaelscutari/retentions/internal/lock"
)

// ListOptions configures how candidates are matched in the base directory.
type ListOptions struct {
	// Regex treats the pattern (and the protect pattern) as a regular
	// expression matched against entry names instead of a glob.
	Regex bool

	// IgnoreCase makes regex matching case-insensitive.
	IgnoreCase bool

	// Protect excludes matching entries from the candidate set.
	Protect string

	// FolderMode lists top-level directories instead of files.
	FolderMode bool

	// LockFileName is never listed. Empty disables the exclusion.
	LockFileName string
}

// DefaultOptions returns glob matching of files with the lock file excluded.
func DefaultOptions() *ListOptions {
	return &ListOptions{
		LockFileName: lock.FileName,
	}
}

// WithRegex switches to regex matching.
func (o *ListOptions) WithRegex(ignoreCase bool) *ListOptions {
	o.Regex = true
	o.IgnoreCase = ignoreCase
	return o
}

// WithProtect sets the protect pattern.
func (o *ListOptions) WithProtect(pattern string) *ListOptions {
	o.Protect = pattern
	return o
}

// WithFolderMode enables folder mode.
func (o *ListOptions) WithFolderMode(on bool) *ListOptions {
	o.FolderMode = on
	return o
}

// compileRegex anchors the expression at the start of the name.
func (o *ListOptions) compileRegex(expr string) (*regexp.Regexp, error) {
	prefix := "^(?:"
	if o.IgnoreCase {
		prefix = "(?i)" + prefix
	}
	re, err := regexp.Compile(prefix + expr + ")")
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidPattern, expr, err)
	}
	return re, nil
}

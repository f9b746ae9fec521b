// Package filestat reads the age timestamp and byte size of retention
// candidates once per run and serves them from memory afterwards.
package filestat

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// AgeType selects which file timestamp counts as the entry's age.
type AgeType uint8

const (
	MTime AgeType = iota
	CTime
	ATime
	BirthTime
)

func (a AgeType) String() string {
	switch a {
	case MTime:
		return "mtime"
	case CTime:
		return "ctime"
	case ATime:
		return "atime"
	case BirthTime:
		return "birthtime"
	default:
		return fmt.Sprintf("agetype(%d)", uint8(a))
	}
}

// ErrUnsupportedAgeType is returned when the platform cannot provide the
// requested timestamp.
var ErrUnsupportedAgeType = errors.New("age type not supported on this platform")

// ParseAgeType parses mtime, ctime, atime or birthtime.
func ParseAgeType(s string) (AgeType, error) {
	for _, a := range []AgeType{MTime, CTime, ATime, BirthTime} {
		if s == a.String() {
			return a, nil
		}
	}
	return 0, fmt.Errorf("unknown age type %q (want mtime, ctime, atime or birthtime)", s)
}

// FolderKind is the strategy for dating a folder in folder mode.
type FolderKind uint8

const (
	// FolderOwn uses the directory's own timestamp.
	FolderOwn FolderKind = iota
	// YoungestFile uses the newest regular file anywhere below the folder.
	YoungestFile
	// OldestFile uses the oldest regular file anywhere below the folder.
	OldestFile
	// FolderPath uses one file at a fixed path relative to the folder.
	FolderPath
)

// FolderSource configures folder dating.
type FolderSource struct {
	Kind    FolderKind
	RelPath string // FolderPath only
}

// DefaultFolderSource is used when folder mode is enabled without a value.
var DefaultFolderSource = FolderSource{Kind: YoungestFile}

func (f FolderSource) String() string {
	switch f.Kind {
	case FolderOwn:
		return "folder"
	case YoungestFile:
		return "youngest-file"
	case OldestFile:
		return "oldest-file"
	case FolderPath:
		return "path=" + f.RelPath
	default:
		return "unknown"
	}
}

// ParseFolderSource parses folder, youngest-file, oldest-file or
// path=<relative path>. An empty string yields DefaultFolderSource.
func ParseFolderSource(s string) (FolderSource, error) {
	switch s {
	case "":
		return DefaultFolderSource, nil
	case "folder":
		return FolderSource{Kind: FolderOwn}, nil
	case "youngest-file":
		return FolderSource{Kind: YoungestFile}, nil
	case "oldest-file":
		return FolderSource{Kind: OldestFile}, nil
	}
	rel, ok := strings.CutPrefix(s, "path=")
	if !ok {
		return FolderSource{}, fmt.Errorf("unknown folder time source %q", s)
	}
	rel = filepath.Clean(rel)
	if rel == "." || filepath.IsAbs(rel) || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return FolderSource{}, fmt.Errorf("folder time path %q must be relative and inside the folder", s)
	}
	return FolderSource{Kind: FolderPath, RelPath: rel}, nil
}

// Stat is the frozen view of one entry.
type Stat struct {
	Time  int64 // Unix seconds
	Size  int64 // bytes, recursive for folders
	Files int   // regular files counted, folders only
	Empty bool  // folder without any regular file
}

// StatError reports a failed read of an entry. It is fatal for the run.
type StatError struct {
	Path string
	Err  error
}

func (e *StatError) Error() string {
	return fmt.Sprintf("stat %s: %v", e.Path, e.Err)
}

func (e *StatError) Unwrap() error { return e.Err }

// Source is a read-through cache of Stat values keyed by path. The first
// read of a path is final; there is no way to refresh or evict it. A Source
// belongs to one run and is not safe for concurrent use.
type Source struct {
	age    AgeType
	folder *FolderSource
	cache  map[string]Stat
}

// NewSource returns a Source reading timestamps of the given type.
func NewSource(age AgeType) *Source {
	return &Source{
		age:   age,
		cache: make(map[string]Stat),
	}
}

// WithFolderMode makes the Source treat every path as a folder dated by src.
func (s *Source) WithFolderMode(src FolderSource) *Source {
	s.folder = &src
	return s
}

// FolderMode reports whether the Source dates folders.
func (s *Source) FolderMode() bool {
	return s.folder != nil
}

// AgeType returns the configured timestamp kind.
func (s *Source) AgeType() AgeType {
	return s.age
}

// Stat returns the cached Stat for path, reading it on first use.
func (s *Source) Stat(path string) (Stat, error) {
	if st, ok := s.cache[path]; ok {
		return st, nil
	}
	var (
		st  Stat
		err error
	)
	if s.folder != nil {
		st, err = s.statFolder(path)
	} else {
		st, err = s.statFile(path)
	}
	if err != nil {
		return Stat{}, &StatError{Path: path, Err: err}
	}
	s.cache[path] = st
	return st, nil
}

// Seconds returns the age timestamp of path in Unix seconds.
func (s *Source) Seconds(path string) (int64, error) {
	st, err := s.Stat(path)
	return st.Time, err
}

// Bytes returns the byte size of path.
func (s *Source) Bytes(path string) (int64, error) {
	st, err := s.Stat(path)
	return st.Size, err
}

// Len returns the number of cached paths.
func (s *Source) Len() int {
	return len(s.cache)
}

func (s *Source) statFile(path string) (Stat, error) {
	info, err := os.Lstat(path)
	if err != nil {
		return Stat{}, err
	}
	t, err := timeOf(path, info, s.age)
	if err != nil {
		return Stat{}, err
	}
	return Stat{Time: t.Unix(), Size: info.Size()}, nil
}

func (s *Source) statFolder(path string) (Stat, error) {
	info, err := os.Lstat(path)
	if err != nil {
		return Stat{}, err
	}
	if !info.IsDir() {
		return Stat{}, errors.New("not a directory")
	}

	var (
		st               Stat
		youngest, oldest time.Time
	)
	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if !d.Type().IsRegular() {
			return nil
		}
		fi, err := d.Info()
		if err != nil {
			return err
		}
		st.Files++
		st.Size += fi.Size()
		if s.folder.Kind != YoungestFile && s.folder.Kind != OldestFile {
			return nil
		}
		t, err := timeOf(p, fi, s.age)
		if err != nil {
			return err
		}
		if youngest.IsZero() || t.After(youngest) {
			youngest = t
		}
		if oldest.IsZero() || t.Before(oldest) {
			oldest = t
		}
		return nil
	})
	if err != nil {
		return Stat{}, err
	}
	if st.Files == 0 {
		st.Empty = true
	}

	switch s.folder.Kind {
	case FolderOwn:
		t, err := timeOf(path, info, s.age)
		if err != nil {
			return Stat{}, err
		}
		st.Time = t.Unix()
	case YoungestFile:
		st.Time = youngest.Unix()
	case OldestFile:
		st.Time = oldest.Unix()
	case FolderPath:
		ref := filepath.Join(path, s.folder.RelPath)
		fi, err := os.Lstat(ref)
		if err != nil {
			return Stat{}, fmt.Errorf("folder time file: %w", err)
		}
		if !fi.Mode().IsRegular() {
			return Stat{}, fmt.Errorf("folder time file %s is not a regular file", ref)
		}
		t, err := timeOf(ref, fi, s.age)
		if err != nil {
			return Stat{}, err
		}
		st.Time = t.Unix()
	}
	if st.Empty && s.folder.Kind != FolderOwn {
		st.Time = 0
	}
	return st, nil
}

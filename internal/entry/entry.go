package entry

import (
	"os"
	"time"
)

// Kind represents the type of filesystem entry.
type Kind uint8

const (
	KindFile    Kind = 0
	KindDir     Kind = 1
	KindSymlink Kind = 2
	KindOther   Kind = 3
)

func (k Kind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindDir:
		return "dir"
	case KindSymlink:
		return "symlink"
	default:
		return "other"
	}
}

// KindFromMode derives the Kind from an os.FileMode.
func KindFromMode(mode os.FileMode) Kind {
	switch {
	case mode.IsRegular():
		return KindFile
	case mode.IsDir():
		return KindDir
	case mode&os.ModeSymlink != 0:
		return KindSymlink
	default:
		return KindOther
	}
}

// Entry is one retention unit: a file, or a top-level folder in folder mode.
// Time and Size are read once when the candidate list is built.
type Entry struct {
	Path string
	Name string
	Kind Kind
	Time int64 // Age timestamp in Unix seconds
	Size int64 // Bytes, recursive for folders
}

// ModTime returns the age timestamp as a time.Time in loc.
func (e Entry) ModTime(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	return time.Unix(e.Time, 0).In(loc)
}

// Newer reports whether a sorts before b in candidate order:
// newest first, ties broken by name.
func Newer(a, b Entry) bool {
	if a.Time != b.Time {
		return a.Time > b.Time
	}
	return a.Name < b.Name
}

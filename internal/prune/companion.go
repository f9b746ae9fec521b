package prune

import (
	"fmt"
	"path/filepath"
	"strings"
)

// CompanionKind says which end of a file name a companion rule rewrites.
type CompanionKind uint8

const (
	Prefix CompanionKind = iota
	Suffix
)

func (k CompanionKind) String() string {
	if k == Suffix {
		return "suffix"
	}
	return "prefix"
}

// CompanionRule derives the name of a companion file from a pruned file.
// "suffix:.tar:.md5" pairs archive.tar with archive.md5.
type CompanionRule struct {
	Kind    CompanionKind
	Match   string
	Replace string
}

// ParseCompanionRule parses "prefix:<match>:<replace>" or
// "suffix:<match>:<replace>". Match may be empty; replace may not.
func ParseCompanionRule(s string) (CompanionRule, error) {
	parts := strings.SplitN(s, ":", 3)
	if len(parts) != 3 {
		return CompanionRule{}, fmt.Errorf("invalid companion rule %q: want <prefix|suffix>:<match>:<replace>", s)
	}
	var r CompanionRule
	switch strings.ToLower(parts[0]) {
	case "prefix":
		r.Kind = Prefix
	case "suffix":
		r.Kind = Suffix
	default:
		return CompanionRule{}, fmt.Errorf("invalid companion rule %q: unknown type %q", s, parts[0])
	}
	r.Match, r.Replace = parts[1], parts[2]
	if r.Replace == "" && r.Match == "" {
		return CompanionRule{}, fmt.Errorf("invalid companion rule %q: match and replace are both empty", s)
	}
	if strings.ContainsRune(r.Match, filepath.Separator) || strings.ContainsRune(r.Replace, filepath.Separator) {
		return CompanionRule{}, fmt.Errorf("invalid companion rule %q: must not contain a path separator", s)
	}
	return r, nil
}

func (r CompanionRule) String() string {
	return r.Kind.String() + ":" + r.Match + ":" + r.Replace
}

// Matches reports whether the rule applies to the file name of path.
func (r CompanionRule) Matches(path string) bool {
	name := filepath.Base(path)
	if r.Kind == Prefix {
		return strings.HasPrefix(name, r.Match)
	}
	return strings.HasSuffix(name, r.Match)
}

// Companion returns the companion path next to path. The result is only
// meaningful when Matches(path) is true.
func (r CompanionRule) Companion(path string) string {
	dir, name := filepath.Split(path)
	if r.Kind == Prefix {
		name = r.Replace + strings.TrimPrefix(name, r.Match)
	} else {
		name = strings.TrimSuffix(name, r.Match) + r.Replace
	}
	return filepath.Join(dir, name)
}

package retention

import (
	"fmt"
	"time"
)

// Rule keeps one representative per bucket for the newest Count buckets of
// its granularity.
type Rule struct {
	Granularity Granularity
	Count       int
}

// NoRulesPolicy decides what a run without any retention rule means.
type NoRulesPolicy uint8

const (
	// KeepAll keeps every candidate when no rule is configured.
	KeepAll NoRulesPolicy = iota
	// RejectNoRules fails the run with ErrNoRules.
	RejectNoRules
)

func (p NoRulesPolicy) String() string {
	if p == RejectNoRules {
		return "reject"
	}
	return "keep-all"
}

// Policy is the full set of retention rules and filters for one run.
type Policy struct {
	Rules []Rule
	Last  int

	MaxFiles int
	MaxSize  int64 // bytes
	MaxAge   time.Duration

	NoRules NoRulesPolicy
}

// Validate checks that every configured count is positive and that no
// granularity appears twice.
func (p Policy) Validate() error {
	seen := make(map[Granularity]bool, len(p.Rules))
	for _, r := range p.Rules {
		if r.Granularity > Year {
			return fmt.Errorf("%w: unknown granularity %d", ErrInvalidPolicy, uint8(r.Granularity))
		}
		if r.Count <= 0 {
			return fmt.Errorf("%w: %s must be > 0, got %d", ErrInvalidPolicy, r.Granularity, r.Count)
		}
		if seen[r.Granularity] {
			return fmt.Errorf("%w: %s specified more than once", ErrInvalidPolicy, r.Granularity)
		}
		seen[r.Granularity] = true
	}
	if p.Last < 0 {
		return fmt.Errorf("%w: last must be > 0, got %d", ErrInvalidPolicy, p.Last)
	}
	if p.MaxFiles < 0 {
		return fmt.Errorf("%w: max files must be > 0, got %d", ErrInvalidPolicy, p.MaxFiles)
	}
	if p.MaxSize < 0 {
		return fmt.Errorf("%w: max size must be >= 0, got %d", ErrInvalidPolicy, p.MaxSize)
	}
	if p.MaxAge < 0 {
		return fmt.Errorf("%w: max age must be > 0, got %s", ErrInvalidPolicy, p.MaxAge)
	}
	return nil
}

// HasRules reports whether any granularity rule or a last-N rule is set.
// Filters alone do not count as rules.
func (p Policy) HasRules() bool {
	return len(p.Rules) > 0 || p.Last > 0
}

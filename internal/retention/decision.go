package retention

import (
	"fmt"
	"slices"
)

// Outcome is the kind of a single decision about an entry.
type Outcome uint8

const (
	KeptByRule Outcome = iota
	KeptByLast
	KeptNoRules
	PrunedByRule
	PrunedUnmatched
	PrunedByFilter
	// Skipped records that a rule passed over a bucket whose representative
	// was already kept. It only appears in the history.
	Skipped
)

func (o Outcome) String() string {
	switch o {
	case KeptByRule:
		return "kept-by-rule"
	case KeptByLast:
		return "kept-by-last"
	case KeptNoRules:
		return "kept-no-rules"
	case PrunedByRule:
		return "pruned-by-rule"
	case PrunedUnmatched:
		return "pruned-unmatched"
	case PrunedByFilter:
		return "pruned-by-filter"
	case Skipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// Keep reports whether the outcome leaves the entry in the keep set.
func (o Outcome) Keep() bool {
	return o == KeptByRule || o == KeptByLast || o == KeptNoRules
}

// FilterKind names the filter that demoted an entry.
type FilterKind uint8

const (
	FilterNone FilterKind = iota
	FilterMaxFiles
	FilterMaxSize
	FilterMaxAge
)

func (f FilterKind) String() string {
	switch f {
	case FilterMaxFiles:
		return "max-files"
	case FilterMaxSize:
		return "max-size"
	case FilterMaxAge:
		return "max-age"
	default:
		return "none"
	}
}

// Decision is one step in an entry's history.
type Decision struct {
	Path        string
	Outcome     Outcome
	Granularity Granularity // rule outcomes and Skipped
	By          Granularity // Skipped: the rule that kept the entry earlier
	Rank        int
	Of          int
	Key         string
	Filter      FilterKind
	Detail      string
}

// Reason renders the decision as a human-readable sentence.
func (d Decision) Reason() string {
	switch d.Outcome {
	case KeptByRule:
		return fmt.Sprintf("kept by %s rule (%d/%d, bucket %s)", d.Granularity, d.Rank, d.Of, d.Key)
	case KeptByLast:
		return fmt.Sprintf("kept by last rule (%d/%d)", d.Rank, d.Of)
	case KeptNoRules:
		return "no retention rules specified, keeping all"
	case PrunedByRule:
		return fmt.Sprintf("pruned by %s rule (bucket %s has a newer representative)", d.Granularity, d.Key)
	case PrunedUnmatched:
		return "not matched by any retention rule"
	case PrunedByFilter:
		switch d.Filter {
		case FilterMaxFiles:
			return "max count exceeded"
		case FilterMaxSize:
			return "max total size exceeded"
		case FilterMaxAge:
			return "max age exceeded"
		}
		return "filtered"
	case Skipped:
		return fmt.Sprintf("skipped for %s, already kept by %s (bucket %s)", d.Granularity, d.By, d.Key)
	default:
		return d.Outcome.String()
	}
}

// Trail is the decision history of one run. It is owned by the run's Result.
type Trail struct {
	history map[string][]Decision
}

func newTrail(n int) *Trail {
	return &Trail{history: make(map[string][]Decision, n)}
}

func (t *Trail) add(d Decision) {
	t.history[d.Path] = append(t.history[d.Path], d)
}

// Primary returns the decision that currently determines path's fate,
// which is the most recent non-skip decision.
func (t *Trail) Primary(path string) (Decision, bool) {
	h := t.history[path]
	for i := len(h) - 1; i >= 0; i-- {
		if h[i].Outcome != Skipped {
			return h[i], true
		}
	}
	return Decision{}, false
}

// History returns every decision about path, newest first.
func (t *Trail) History(path string) []Decision {
	h := slices.Clone(t.history[path])
	slices.Reverse(h)
	return h
}

// Len returns the total number of recorded decisions.
func (t *Trail) Len() int {
	n := 0
	for _, h := range t.history {
		n += len(h)
	}
	return n
}

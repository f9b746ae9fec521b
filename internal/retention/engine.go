package retention

import (
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/michaelscutari/retentions/internal/entry"
)

// Engine partitions a candidate list into keep and prune sets according to
// a Policy. An Engine holds no per-run state and may be reused.
type Engine struct {
	policy Policy
	now    time.Time
	loc    *time.Location
	log    *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithNow sets the run start time used by the max-age filter.
func WithNow(now time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithLocation sets the time zone used for calendar bucketing.
func WithLocation(loc *time.Location) Option {
	return func(e *Engine) {
		if loc != nil {
			e.loc = loc
		}
	}
}

// WithLogger sets the logger for debug output.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// NewEngine validates p and returns an Engine for it.
func NewEngine(p Policy, opts ...Option) (*Engine, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	rules := slices.Clone(p.Rules)
	slices.SortFunc(rules, func(a, b Rule) int { return int(a.Granularity) - int(b.Granularity) })
	p.Rules = rules

	e := &Engine{
		policy: p,
		now:    time.Now(),
		loc:    time.Local,
		log:    slog.Default().With("component", "retention"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Policy returns the policy the engine was built with.
func (e *Engine) Policy() Policy {
	return e.policy
}

// Result is the outcome of one engine run.
type Result struct {
	Keep  []entry.Entry // candidate order
	Prune []entry.Entry // candidate order
	Trail *Trail
}

// KeepSize returns the total bytes of the keep set.
func (r *Result) KeepSize() int64 { return sumSize(r.Keep) }

// PruneSize returns the total bytes of the prune set.
func (r *Result) PruneSize() int64 { return sumSize(r.Prune) }

// Kept reports whether path ended up in the keep set.
func (r *Result) Kept(path string) bool {
	d, ok := r.Trail.Primary(path)
	return ok && d.Outcome.Keep()
}

func sumSize(entries []entry.Entry) int64 {
	var n int64
	for _, e := range entries {
		n += e.Size
	}
	return n
}

// state is the mutable bookkeeping of a single Run call.
type state struct {
	trail  *Trail
	kept   map[string]bool
	keptBy map[string]Granularity
	noted  map[string]bool // provisional prune
}

func (s *state) keep(d Decision) {
	s.kept[d.Path] = true
	delete(s.noted, d.Path)
	s.trail.add(d)
}

func (s *state) prune(d Decision) {
	s.kept[d.Path] = false
	s.noted[d.Path] = true
	s.trail.add(d)
}

// Run applies the rules, the last-N rule, the unmatched sweep and the
// filters to candidates, then verifies the partition.
func (e *Engine) Run(candidates []entry.Entry) (*Result, error) {
	sorted := slices.Clone(candidates)
	slices.SortStableFunc(sorted, compareEntries)

	seen := make(map[string]bool, len(sorted))
	for _, c := range sorted {
		if seen[c.Path] {
			return nil, &IntegrityError{
				Candidates: len(sorted),
				Detail:     fmt.Sprintf("duplicate candidate %q", c.Path),
			}
		}
		seen[c.Path] = true
	}

	st := &state{
		trail:  newTrail(len(sorted)),
		kept:   make(map[string]bool, len(sorted)),
		keptBy: make(map[string]Granularity),
		noted:  make(map[string]bool),
	}

	if !e.policy.HasRules() {
		if e.policy.NoRules == RejectNoRules {
			return nil, ErrNoRules
		}
		for _, c := range sorted {
			st.keep(Decision{Path: c.Path, Outcome: KeptNoRules})
		}
	} else {
		e.applyRules(sorted, st)
		e.applyLast(sorted, st)
		for _, c := range sorted {
			if !st.kept[c.Path] && !st.noted[c.Path] {
				st.prune(Decision{Path: c.Path, Outcome: PrunedUnmatched})
			}
		}
	}

	e.applyFilters(sorted, st)

	res := &Result{Trail: st.trail}
	for _, c := range sorted {
		if st.kept[c.Path] {
			res.Keep = append(res.Keep, c)
		} else {
			res.Prune = append(res.Prune, c)
		}
	}
	if err := checkIntegrity(sorted, res); err != nil {
		return nil, err
	}

	e.log.Debug("retention run complete",
		"candidates", len(sorted),
		"keep", len(res.Keep),
		"prune", len(res.Prune))
	return res, nil
}

func (e *Engine) applyRules(sorted []entry.Entry, st *state) {
	var (
		cursor    int64
		hasCursor bool
	)
	for _, rule := range e.policy.Rules {
		g, n := rule.Granularity, rule.Count
		buckets := MakeBuckets(sorted, g, e.loc)

		limit := ""
		if hasCursor {
			limit = BucketKey(g, time.Unix(cursor, 0).In(e.loc))
		}

		consumed := 0
		for _, key := range buckets.Keys() {
			if consumed >= n {
				break
			}
			members := buckets[key]
			rep := members[0]
			if st.kept[rep.Path] {
				st.trail.add(Decision{
					Path:        rep.Path,
					Outcome:     Skipped,
					Granularity: g,
					By:          st.keptBy[rep.Path],
					Key:         key,
				})
				e.log.Debug("bucket already represented", "granularity", g, "bucket", key, "path", rep.Path)
				continue
			}
			// Only periods strictly older than the one holding the oldest
			// entry kept so far.
			if hasCursor && key >= limit {
				continue
			}
			consumed++
			st.keptBy[rep.Path] = g
			st.keep(Decision{
				Path:        rep.Path,
				Outcome:     KeptByRule,
				Granularity: g,
				Rank:        consumed,
				Of:          n,
				Key:         key,
			})
			for _, m := range members[1:] {
				if st.kept[m.Path] || st.noted[m.Path] {
					continue
				}
				st.prune(Decision{
					Path:        m.Path,
					Outcome:     PrunedByRule,
					Granularity: g,
					Key:         key,
				})
			}
		}

		for _, c := range sorted {
			if st.kept[c.Path] && (!hasCursor || c.Time < cursor) {
				cursor, hasCursor = c.Time, true
			}
		}
	}
}

func (e *Engine) applyLast(sorted []entry.Entry, st *state) {
	n := min(e.policy.Last, len(sorted))
	for i := 0; i < n; i++ {
		c := sorted[i]
		if st.kept[c.Path] {
			continue
		}
		st.keep(Decision{
			Path:    c.Path,
			Outcome: KeptByLast,
			Rank:    i + 1,
			Of:      e.policy.Last,
		})
	}
}

func checkIntegrity(candidates []entry.Entry, res *Result) error {
	unkept := 0
	for _, c := range candidates {
		if !res.Kept(c.Path) {
			unkept++
		}
	}
	if len(candidates) != len(res.Keep)+len(res.Prune) || len(res.Prune) != unkept {
		return &IntegrityError{
			Candidates: len(candidates),
			Keep:       len(res.Keep),
			Prune:      len(res.Prune),
			Unkept:     unkept,
		}
	}
	return nil
}

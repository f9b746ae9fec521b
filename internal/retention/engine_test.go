package retention

import (
	"errors"
	"fmt"
	"slices"
	"testing"
	"time"

	"github.com/michaelscutari/retentions/internal/entry"
)

var testNow = time.Date(2026, 3, 18, 12, 30, 0, 0, time.UTC)

// entriesAt builds candidates named fileNN, each offsets[i] seconds older
// than base.
func entriesAt(base time.Time, offsets ...int64) []entry.Entry {
	out := make([]entry.Entry, len(offsets))
	for i, off := range offsets {
		name := fmt.Sprintf("file%02d", i)
		out[i] = entry.Entry{
			Path: "/backups/" + name,
			Name: name,
			Kind: entry.KindFile,
			Time: base.Unix() - off,
			Size: 10,
		}
	}
	return out
}

func every(step int64, n int) []int64 {
	out := make([]int64, n)
	for i := range out {
		out[i] = int64(i) * step
	}
	return out
}

func daily(base time.Time, n int) []entry.Entry {
	return entriesAt(base, every(86400, n)...)
}

func runPolicy(t *testing.T, p Policy, candidates []entry.Entry) *Result {
	t.Helper()
	eng, err := NewEngine(p, WithNow(testNow), WithLocation(time.UTC))
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	res, err := eng.Run(candidates)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	return res
}

func names(entries []entry.Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Name
	}
	return out
}

func fileNames(idx ...int) []string {
	out := make([]string, len(idx))
	for i, n := range idx {
		out[i] = fmt.Sprintf("file%02d", n)
	}
	return out
}

func rangeNames(from, to int) []string {
	var idx []int
	for i := from; i <= to; i++ {
		idx = append(idx, i)
	}
	return fileNames(idx...)
}

func assertNames(t *testing.T, what string, got []entry.Entry, want []string) {
	t.Helper()
	if g := names(got); !slices.Equal(g, want) {
		t.Fatalf("%s = %v, want %v", what, g, want)
	}
}

func TestHoursKeepsOnePerHour(t *testing.T) {
	res := runPolicy(t, Policy{Rules: []Rule{{Hour, 2}}}, entriesAt(testNow, 0, 1, 3600, 7200))

	assertNames(t, "keep", res.Keep, fileNames(0, 2))
	assertNames(t, "prune", res.Prune, fileNames(1, 3))

	d, _ := res.Trail.Primary("/backups/file01")
	if d.Outcome != PrunedByRule || d.Granularity != Hour {
		t.Fatalf("file01 decision = %+v, want pruned by hours", d)
	}
	d, _ = res.Trail.Primary("/backups/file03")
	if d.Outcome != PrunedUnmatched {
		t.Fatalf("file03 decision = %+v, want unmatched", d)
	}
	d, _ = res.Trail.Primary("/backups/file02")
	if d.Outcome != KeptByRule || d.Rank != 2 || d.Of != 2 || d.Key != "2026-03-18 11" {
		t.Fatalf("file02 decision = %+v", d)
	}
}

func TestDaysContinueAfterHours(t *testing.T) {
	res := runPolicy(t, Policy{Rules: []Rule{{Hour, 2}, {Day, 3}}}, daily(testNow, 6))
	assertNames(t, "keep", res.Keep, rangeNames(0, 4))
	assertNames(t, "prune", res.Prune, fileNames(5))
}

func TestLastKeepsRemaining(t *testing.T) {
	res := runPolicy(t, Policy{Rules: []Rule{{Hour, 1}, {Day, 2}}, Last: 5}, daily(testNow, 4))
	assertNames(t, "keep", res.Keep, rangeNames(0, 3))
	if len(res.Prune) != 0 {
		t.Fatalf("prune = %v, want none", names(res.Prune))
	}
	d, _ := res.Trail.Primary("/backups/file03")
	if d.Outcome != KeptByLast || d.Rank != 4 || d.Of != 5 {
		t.Fatalf("file03 decision = %+v, want kept by last 4/5", d)
	}
}

func TestDaysWeeksMonths(t *testing.T) {
	base := time.Date(2026, 1, 14, 0, 0, 0, 0, time.UTC)
	res := runPolicy(t, Policy{Rules: []Rule{{Day, 7}, {Week, 4}, {Month, 3}}}, daily(base, 60))

	want := append(rangeNames(0, 6), fileNames(10, 17, 24, 31, 45)...)
	assertNames(t, "keep", res.Keep, want)
	if len(res.Prune) != 48 {
		t.Fatalf("prune count = %d, want 48", len(res.Prune))
	}

	// 2026-01-04 is a Sunday in ISO week 2026-W01, which starts in 2025.
	d, _ := res.Trail.Primary("/backups/file10")
	if d.Granularity != Week || d.Key != "2026-W01" || d.Rank != 1 {
		t.Fatalf("file10 decision = %+v", d)
	}
	d, _ = res.Trail.Primary("/backups/file45")
	if d.Granularity != Month || d.Key != "2025-11" {
		t.Fatalf("file45 decision = %+v", d)
	}
}

func TestDaysWeeksMonthsLongHistory(t *testing.T) {
	base := time.Date(2026, 3, 7, 0, 0, 0, 0, time.UTC)
	res := runPolicy(t, Policy{Rules: []Rule{{Day, 6}, {Week, 5}, {Month, 10}}}, daily(base, 100))

	want := append(rangeNames(0, 5), fileNames(6, 13, 20, 27, 34, 35, 66, 97)...)
	assertNames(t, "keep", res.Keep, want)
}

func TestMonthsQuartersYears(t *testing.T) {
	res := runPolicy(t,
		Policy{Rules: []Rule{{Month, 6}, {Quarter, 4}, {Year, 5}}},
		entriesAt(testNow, every(2592000, 60)...))

	want := append(rangeNames(0, 5), fileNames(6, 9, 12, 15, 27, 40, 52)...)
	assertNames(t, "keep", res.Keep, want)
	if len(res.Prune) != 47 {
		t.Fatalf("prune count = %d, want 47", len(res.Prune))
	}
	if len(res.Keep) >= 6+4+5 {
		t.Fatalf("keep count = %d, overlap not accounted for", len(res.Keep))
	}
}

func TestUnmatchedSweep(t *testing.T) {
	res := runPolicy(t, Policy{Rules: []Rule{{Day, 1}}}, daily(testNow, 3))
	assertNames(t, "keep", res.Keep, fileNames(0))
	assertNames(t, "prune", res.Prune, fileNames(1, 2))

	d, _ := res.Trail.Primary("/backups/file02")
	if d.Outcome != PrunedUnmatched {
		t.Fatalf("file02 decision = %+v, want unmatched", d)
	}
	if got := d.Reason(); got != "not matched by any retention rule" {
		t.Fatalf("reason = %q", got)
	}
}

func TestNoRulesKeepsAll(t *testing.T) {
	res := runPolicy(t, Policy{}, daily(testNow, 4))
	if len(res.Keep) != 4 || len(res.Prune) != 0 {
		t.Fatalf("keep=%d prune=%d, want 4/0", len(res.Keep), len(res.Prune))
	}
	d, _ := res.Trail.Primary("/backups/file00")
	if d.Outcome != KeptNoRules {
		t.Fatalf("decision = %+v, want kept-no-rules", d)
	}
}

func TestNoRulesRejected(t *testing.T) {
	eng, err := NewEngine(Policy{NoRules: RejectNoRules})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	if _, err := eng.Run(daily(testNow, 2)); !errors.Is(err, ErrNoRules) {
		t.Fatalf("err = %v, want ErrNoRules", err)
	}
}

func TestNoRulesStillFiltered(t *testing.T) {
	res := runPolicy(t, Policy{MaxFiles: 2}, daily(testNow, 4))
	assertNames(t, "keep", res.Keep, fileNames(0, 1))
	assertNames(t, "prune", res.Prune, fileNames(2, 3))
}

func TestEmptyCandidates(t *testing.T) {
	res := runPolicy(t, Policy{Rules: []Rule{{Day, 3}}}, nil)
	if len(res.Keep) != 0 || len(res.Prune) != 0 || res.Trail.Len() != 0 {
		t.Fatalf("expected empty result, got keep=%d prune=%d", len(res.Keep), len(res.Prune))
	}
}

func TestUnsortedInputIsOrdered(t *testing.T) {
	c := daily(testNow, 5)
	slices.Reverse(c)
	res := runPolicy(t, Policy{Last: 2}, c)
	assertNames(t, "keep", res.Keep, fileNames(0, 1))
	assertNames(t, "prune", res.Prune, rangeNames(2, 4))
}

func TestTieBrokenByName(t *testing.T) {
	c := entriesAt(testNow, 0, 0, 0)
	res := runPolicy(t, Policy{Rules: []Rule{{Day, 1}}}, []entry.Entry{c[2], c[0], c[1]})
	assertNames(t, "keep", res.Keep, fileNames(0))
	assertNames(t, "prune", res.Prune, fileNames(1, 2))
}

func TestDuplicatePathIsIntegrityError(t *testing.T) {
	c := daily(testNow, 2)
	c = append(c, c[0])
	eng, err := NewEngine(Policy{Last: 1})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	_, err = eng.Run(c)
	var ie *IntegrityError
	if !errors.As(err, &ie) {
		t.Fatalf("err = %v, want *IntegrityError", err)
	}
}

func TestSkippedHistory(t *testing.T) {
	res := runPolicy(t, Policy{Rules: []Rule{{Day, 2}, {Week, 2}}}, daily(testNow, 21))

	assertNames(t, "keep", res.Keep, fileNames(0, 1, 3, 10))

	h := res.Trail.History("/backups/file00")
	if len(h) != 2 {
		t.Fatalf("history len = %d, want 2: %+v", len(h), h)
	}
	if h[0].Outcome != Skipped || h[0].Granularity != Week || h[0].By != Day {
		t.Fatalf("newest decision = %+v, want skipped for weeks by days", h[0])
	}
	if h[1].Outcome != KeptByRule || h[1].Granularity != Day {
		t.Fatalf("oldest decision = %+v, want kept by days", h[1])
	}
	if got, want := h[0].Reason(), "skipped for weeks, already kept by days (bucket 2026-W12)"; got != want {
		t.Fatalf("reason = %q, want %q", got, want)
	}
	d, _ := res.Trail.Primary("/backups/file00")
	if d.Outcome != KeptByRule {
		t.Fatalf("primary = %+v, want kept by rule", d)
	}
}

func TestSkipDoesNotCostBudget(t *testing.T) {
	res := runPolicy(t, Policy{Rules: []Rule{{Day, 2}, {Week, 2}}}, daily(testNow, 21))

	weeks := map[string]bool{}
	for _, e := range res.Keep {
		d, _ := res.Trail.Primary(e.Path)
		if d.Granularity == Week && d.Outcome == KeptByRule {
			weeks[d.Key] = true
		}
	}
	if len(weeks) != 2 {
		t.Fatalf("weeks rule reached %d distinct weeks, want 2", len(weeks))
	}
}

func TestSingleRuleKeepsBucketRepresentatives(t *testing.T) {
	// Six-hourly entries over five days, newest first.
	c := entriesAt(testNow, every(6*3600, 20)...)
	for _, n := range []int{1, 3, 5, 8} {
		res := runPolicy(t, Policy{Rules: []Rule{{Day, n}}}, c)
		buckets := MakeBuckets(c, Day, time.UTC)
		want := min(n, len(buckets))
		if len(res.Keep) != want {
			t.Fatalf("days=%d: keep = %d, want %d", n, len(res.Keep), want)
		}
		for i, key := range buckets.Keys()[:want] {
			if res.Keep[i].Path != buckets[key][0].Path {
				t.Fatalf("days=%d: keep[%d] = %s, want representative of %s", n, i, res.Keep[i].Name, key)
			}
		}
	}
}

func TestLastDominates(t *testing.T) {
	c := entriesAt(testNow, every(3*3600, 40)...)
	for _, last := range []int{1, 4, 9} {
		res := runPolicy(t, Policy{Rules: []Rule{{Week, 1}, {Year, 1}}, Last: last}, c)
		for i := 0; i < last; i++ {
			if !res.Kept(c[i].Path) {
				t.Fatalf("last=%d: %s not kept", last, c[i].Name)
			}
		}
	}
}

func TestPartitionAndIdempotence(t *testing.T) {
	c := entriesAt(testNow, every(5*3600+17, 300)...)
	policies := []Policy{
		{Rules: []Rule{{Hour, 3}, {Day, 4}, {Week, 3}, {Month, 2}, {Year, 2}}},
		{Rules: []Rule{{Minute, 5}, {Week13, 2}}, Last: 7},
		{Rules: []Rule{{Quarter, 2}}, MaxFiles: 1},
		{Last: 12, MaxSize: 55, MaxAge: 48 * time.Hour},
	}
	for i, p := range policies {
		first := runPolicy(t, p, c)
		second := runPolicy(t, p, c)

		inKeep := map[string]bool{}
		for _, e := range first.Keep {
			inKeep[e.Path] = true
		}
		for _, e := range first.Prune {
			if inKeep[e.Path] {
				t.Fatalf("policy %d: %s in both keep and prune", i, e.Name)
			}
		}
		if len(first.Keep)+len(first.Prune) != len(c) {
			t.Fatalf("policy %d: keep+prune = %d, want %d", i, len(first.Keep)+len(first.Prune), len(c))
		}

		if !slices.Equal(names(first.Keep), names(second.Keep)) {
			t.Fatalf("policy %d: keep differs between runs", i)
		}
		for _, e := range c {
			a, _ := first.Trail.Primary(e.Path)
			b, _ := second.Trail.Primary(e.Path)
			if a.Reason() != b.Reason() {
				t.Fatalf("policy %d: %s reason %q vs %q", i, e.Name, a.Reason(), b.Reason())
			}
		}
	}
}

func TestResultSizes(t *testing.T) {
	res := runPolicy(t, Policy{Last: 3}, daily(testNow, 5))
	if res.KeepSize() != 30 || res.PruneSize() != 20 {
		t.Fatalf("sizes = %d/%d, want 30/20", res.KeepSize(), res.PruneSize())
	}
}

func TestInvalidPolicy(t *testing.T) {
	cases := []Policy{
		{Rules: []Rule{{Day, 0}}},
		{Rules: []Rule{{Day, 2}, {Day, 3}}},
		{Last: -1},
		{MaxFiles: -2},
		{MaxSize: -1},
		{MaxAge: -time.Second},
	}
	for i, p := range cases {
		if _, err := NewEngine(p); !errors.Is(err, ErrInvalidPolicy) {
			t.Fatalf("case %d: err = %v, want ErrInvalidPolicy", i, err)
		}
	}
}

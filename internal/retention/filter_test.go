package retention

import (
	"testing"
	"time"
)

func TestMaxFilesDemotesOldest(t *testing.T) {
	res := runPolicy(t, Policy{Last: 3, MaxFiles: 2}, daily(testNow, 3))

	assertNames(t, "keep", res.Keep, fileNames(0, 1))
	assertNames(t, "prune", res.Prune, fileNames(2))

	h := res.Trail.History("/backups/file02")
	if len(h) != 2 {
		t.Fatalf("history len = %d, want 2", len(h))
	}
	if h[0].Outcome != PrunedByFilter || h[0].Filter != FilterMaxFiles {
		t.Fatalf("newest decision = %+v, want max-files filter", h[0])
	}
	if got := h[0].Reason(); got != "max count exceeded" {
		t.Fatalf("reason = %q", got)
	}
	if h[1].Outcome != KeptByLast {
		t.Fatalf("first decision = %+v, want kept by last", h[1])
	}
	if n := len(res.Trail.History("/backups/file00")); n != 1 {
		t.Fatalf("file00 history len = %d, want 1", n)
	}
}

func TestMaxSizeCumulative(t *testing.T) {
	weekly := entriesAt(testNow, every(7*86400, 10)...)
	res := runPolicy(t, Policy{Rules: []Rule{{Day, 2}, {Week, 10}}, MaxSize: 50}, weekly)

	assertNames(t, "keep", res.Keep, rangeNames(0, 4))
	assertNames(t, "prune", res.Prune, rangeNames(5, 9))

	for _, e := range res.Prune {
		h := res.Trail.History(e.Path)
		if len(h) != 2 {
			t.Fatalf("%s history len = %d, want 2", e.Name, len(h))
		}
		if h[0].Filter != FilterMaxSize || h[1].Outcome != KeptByRule || h[1].Granularity != Week {
			t.Fatalf("%s history = %+v", e.Name, h)
		}
	}
}

func TestMaxSizeUsesRawBytes(t *testing.T) {
	c := daily(testNow, 4)
	for i := range c {
		c[i].Size = 1024
	}
	res := runPolicy(t, Policy{Last: 4, MaxSize: 3 * 1024}, c)
	assertNames(t, "keep", res.Keep, rangeNames(0, 2))
}

func TestMaxSizeDemotesAfterFirstOverflow(t *testing.T) {
	c := daily(testNow, 4)
	c[1].Size = 100
	res := runPolicy(t, Policy{Last: 4, MaxSize: 50}, c)
	// file02 and file03 would fit on their own but come after the overflow.
	assertNames(t, "keep", res.Keep, fileNames(0))
}

func TestMaxAge(t *testing.T) {
	res := runPolicy(t, Policy{Rules: []Rule{{Day, 5}}, MaxAge: 3 * 24 * time.Hour}, daily(testNow, 5))
	assertNames(t, "keep", res.Keep, rangeNames(0, 2))
	assertNames(t, "prune", res.Prune, fileNames(3, 4))

	d, _ := res.Trail.Primary("/backups/file03")
	if d.Filter != FilterMaxAge || d.Reason() != "max age exceeded" {
		t.Fatalf("file03 decision = %+v", d)
	}
}

func TestMaxAgeKeepsFraction(t *testing.T) {
	c := entriesAt(testNow, 0, 99, 100)
	res := runPolicy(t, Policy{Last: 3, MaxAge: 99*time.Second + 999*time.Millisecond}, c)
	assertNames(t, "keep", res.Keep, fileNames(0, 1))
	assertNames(t, "prune", res.Prune, fileNames(2))
}

func TestFiltersCompose(t *testing.T) {
	c := daily(testNow, 6)
	res := runPolicy(t, Policy{Last: 6, MaxFiles: 4, MaxSize: 30, MaxAge: 24 * time.Hour}, c)

	assertNames(t, "keep", res.Keep, fileNames(0))
	want := map[string]FilterKind{
		"/backups/file01": FilterMaxAge,
		"/backups/file02": FilterMaxAge,
		"/backups/file03": FilterMaxSize,
		"/backups/file04": FilterMaxFiles,
		"/backups/file05": FilterMaxFiles,
	}
	for path, kind := range want {
		h := res.Trail.History(path)
		if h[0].Filter != kind {
			t.Fatalf("%s filtered by %s, want %s", path, h[0].Filter, kind)
		}
		filters := 0
		for _, d := range h {
			if d.Outcome == PrunedByFilter {
				filters++
			}
		}
		if filters != 1 {
			t.Fatalf("%s filtered %d times, want once", path, filters)
		}
	}
}

func TestFiltersNeverReclaim(t *testing.T) {
	res := runPolicy(t, Policy{Rules: []Rule{{Day, 1}}, MaxFiles: 5}, daily(testNow, 4))
	assertNames(t, "keep", res.Keep, fileNames(0))
	for _, e := range res.Prune {
		d, _ := res.Trail.Primary(e.Path)
		if d.Outcome != PrunedUnmatched {
			t.Fatalf("%s decision = %+v, want unmatched", e.Name, d)
		}
	}
}

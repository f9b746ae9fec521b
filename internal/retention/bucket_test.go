package retention

import (
	"testing"
	"time"

	"github.com/michaelscutari/retentions/internal/entry"
)

func TestBucketKey(t *testing.T) {
	ts := time.Date(2026, 3, 18, 14, 7, 59, 0, time.UTC)
	cases := []struct {
		g    Granularity
		t    time.Time
		want string
	}{
		{Minute, ts, "2026-03-18 14:07"},
		{Hour, ts, "2026-03-18 14"},
		{Day, ts, "2026-03-18"},
		{Week, ts, "2026-W12"},
		{Month, ts, "2026-03"},
		{Quarter, ts, "2026-Q1"},
		{Week13, ts, "2026-B1"},
		{Year, ts, "2026"},
		{Quarter, time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC), "2025-Q4"},
		{Week13, time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC), "2025-B2"},
		{Week13, time.Date(2025, 12, 24, 0, 0, 0, 0, time.UTC), "2025-B4"},
		// ISO week 1 of 2026 starts on Monday 2025-12-29.
		{Week, time.Date(2025, 12, 29, 0, 0, 0, 0, time.UTC), "2026-W01"},
		{Week13, time.Date(2025, 12, 29, 0, 0, 0, 0, time.UTC), "2026-B1"},
		{Year, time.Date(2025, 12, 29, 0, 0, 0, 0, time.UTC), "2025"},
		// 2021-01-03 still belongs to ISO week 53 of 2020.
		{Week, time.Date(2021, 1, 3, 0, 0, 0, 0, time.UTC), "2020-W53"},
		{Week13, time.Date(2021, 1, 3, 0, 0, 0, 0, time.UTC), "2020-B5"},
	}
	for _, tc := range cases {
		if got := BucketKey(tc.g, tc.t); got != tc.want {
			t.Errorf("BucketKey(%s, %s) = %q, want %q", tc.g, tc.t, got, tc.want)
		}
	}
}

func TestBucketKeyUsesLocation(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*3600)
	ts := time.Date(2026, 3, 18, 22, 0, 0, 0, time.UTC)
	if got := BucketKey(Day, ts.In(loc)); got != "2026-03-19" {
		t.Fatalf("day key = %q, want 2026-03-19", got)
	}
}

func TestBucketKeysSortInTimeOrder(t *testing.T) {
	start := time.Date(2019, 11, 20, 5, 0, 0, 0, time.UTC)
	for _, g := range Granularities {
		prev := BucketKey(g, start)
		for i := 1; i < 2000; i++ {
			next := BucketKey(g, start.Add(time.Duration(i)*37*time.Hour))
			if next < prev {
				t.Fatalf("%s: key %q sorts before earlier key %q", g, next, prev)
			}
			prev = next
		}
	}
}

func TestMakeBuckets(t *testing.T) {
	c := entriesAt(testNow, every(6*3600, 12)...)
	buckets := MakeBuckets(c, Day, time.UTC)

	total := 0
	for key, members := range buckets {
		total += len(members)
		for i := 1; i < len(members); i++ {
			if !entry.Newer(members[i-1], members[i]) {
				t.Fatalf("bucket %s not sorted newest first", key)
			}
		}
	}
	if total != len(c) {
		t.Fatalf("buckets hold %d entries, want %d", total, len(c))
	}

	keys := buckets.Keys()
	want := []string{"2026-03-18", "2026-03-17", "2026-03-16", "2026-03-15"}
	if len(keys) != len(want) {
		t.Fatalf("keys = %v, want %v", keys, want)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("keys = %v, want %v", keys, want)
		}
	}
	if rep := buckets["2026-03-17"][0]; rep.Name != "file03" {
		t.Fatalf("representative of 2026-03-17 = %s, want file03", rep.Name)
	}
}

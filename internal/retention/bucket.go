package retention

import (
	"slices"
	"time"

	"github.com/michaelscutari/retentions/internal/entry"
)

// Buckets groups entries by bucket key. Each bucket is sorted newest first,
// so its first element is the bucket's representative.
type Buckets map[string][]entry.Entry

// MakeBuckets assigns every entry to exactly one bucket of granularity g.
func MakeBuckets(entries []entry.Entry, g Granularity, loc *time.Location) Buckets {
	if loc == nil {
		loc = time.Local
	}
	buckets := make(Buckets)
	for _, e := range entries {
		key := BucketKey(g, e.ModTime(loc))
		buckets[key] = append(buckets[key], e)
	}
	for _, members := range buckets {
		slices.SortStableFunc(members, compareEntries)
	}
	return buckets
}

// Keys returns the bucket keys newest first.
func (b Buckets) Keys() []string {
	keys := make([]string, 0, len(b))
	for k := range b {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	slices.Reverse(keys)
	return keys
}

func compareEntries(a, b entry.Entry) int {
	switch {
	case entry.Newer(a, b):
		return -1
	case entry.Newer(b, a):
		return 1
	default:
		return 0
	}
}

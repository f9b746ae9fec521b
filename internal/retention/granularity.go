package retention

import (
	"fmt"
	"time"
)

// Granularity is a calendar period used as a bucketing unit.
type Granularity uint8

const (
	Minute Granularity = iota
	Hour
	Day
	Week
	Month
	Quarter
	Week13
	Year
)

// Granularities lists every granularity from finest to coarsest. Rules are
// always applied in this order.
var Granularities = []Granularity{Minute, Hour, Day, Week, Month, Quarter, Week13, Year}

func (g Granularity) String() string {
	switch g {
	case Minute:
		return "minutes"
	case Hour:
		return "hours"
	case Day:
		return "days"
	case Week:
		return "weeks"
	case Month:
		return "months"
	case Quarter:
		return "quarters"
	case Week13:
		return "week13"
	case Year:
		return "years"
	default:
		return fmt.Sprintf("granularity(%d)", uint8(g))
	}
}

// BucketKey returns the calendar-aligned bucket key of t for granularity g.
// Keys of one granularity sort lexicographically in time order. Weeks and
// 13-week blocks use ISO week numbering, so the first days of January can
// belong to the last week of the previous ISO year.
func BucketKey(g Granularity, t time.Time) string {
	switch g {
	case Minute:
		return t.Format("2006-01-02 15:04")
	case Hour:
		return t.Format("2006-01-02 15")
	case Day:
		return t.Format("2006-01-02")
	case Week:
		year, week := t.ISOWeek()
		return fmt.Sprintf("%04d-W%02d", year, week)
	case Month:
		return t.Format("2006-01")
	case Quarter:
		return fmt.Sprintf("%04d-Q%d", t.Year(), 1+(int(t.Month())-1)/3)
	case Week13:
		year, week := t.ISOWeek()
		return fmt.Sprintf("%04d-B%d", year, 1+(week-1)/13)
	case Year:
		return fmt.Sprintf("%04d", t.Year())
	default:
		panic(fmt.Sprintf("retention: bucket key for unknown granularity %d", uint8(g)))
	}
}

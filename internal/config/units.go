package config

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

var sizePattern = regexp.MustCompile(`^([0-9]+(?:\.[0-9]+)?) ?([kKmMgGtTpPeE]?)$`)

// ParseSize parses a byte size such as 1024, 1K, 2.5M, "1 G" or 3t.
// Units are binary: 1K is 1024 bytes.
func ParseSize(s string) (int64, error) {
	m := sizePattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, fmt.Errorf("invalid size %q", s)
	}
	expr := m[1]
	if m[2] != "" {
		expr += " " + strings.ToUpper(m[2]) + "iB"
	}
	n, err := humanize.ParseBytes(expr)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q: %w", s, err)
	}
	if n > 1<<63-1 {
		return 0, fmt.Errorf("size %q out of range", s)
	}
	return int64(n), nil
}

var agePattern = regexp.MustCompile(`^([0-9]+(?:\.[0-9]+)?)(?: ?([hdwmy]))?$`)

var ageUnits = map[string]time.Duration{
	"":  time.Second,
	"h": time.Hour,
	"d": 24 * time.Hour,
	"w": 7 * 24 * time.Hour,
	"m": 30 * 24 * time.Hour,
	"y": 365 * 24 * time.Hour,
}

// ParseAge parses an age: plain seconds (3600, 99.999) or a number with
// one of the units h, d, w, m (30 days) or y (365 days), optionally
// separated by a single space. The result is at least one second.
func ParseAge(s string) (time.Duration, error) {
	m := agePattern.FindStringSubmatch(strings.Trim(s, " "))
	if m == nil {
		return 0, fmt.Errorf("invalid age %q: want seconds or <number>[h|d|w|m|y]", s)
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, fmt.Errorf("invalid age %q: %w", s, err)
	}
	d := time.Duration(math.Round(v * float64(ageUnits[m[2]])))
	if d < time.Second {
		return 0, fmt.Errorf("invalid age %q: must be at least 1 second", s)
	}
	return d, nil
}

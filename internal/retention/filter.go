package retention

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/michaelscutari/retentions/internal/entry"
)

// applyFilters runs max-files, max-size and max-age in that order. Each
// filter sees the keep set left by the previous one and only demotes.
func (e *Engine) applyFilters(sorted []entry.Entry, st *state) {
	p := e.policy

	if p.MaxFiles > 0 {
		pos := 0
		for _, c := range keptOf(sorted, st) {
			pos++
			if pos > p.MaxFiles {
				e.demote(st, c, FilterMaxFiles, fmt.Sprintf("position %d > %d", pos, p.MaxFiles))
			}
		}
	}

	if p.MaxSize > 0 {
		var total int64
		over := false
		for _, c := range keptOf(sorted, st) {
			total += c.Size
			if !over && total > p.MaxSize {
				over = true
			}
			if over {
				e.demote(st, c, FilterMaxSize, fmt.Sprintf("cumulative %s > %s",
					humanize.IBytes(uint64(total)), humanize.IBytes(uint64(p.MaxSize))))
			}
		}
	}

	if p.MaxAge > 0 {
		cutoff := e.now.Add(-p.MaxAge)
		for _, c := range keptOf(sorted, st) {
			if !time.Unix(c.Time, 0).After(cutoff) {
				e.demote(st, c, FilterMaxAge, fmt.Sprintf("older than %s", p.MaxAge))
			}
		}
	}
}

func (e *Engine) demote(st *state, c entry.Entry, kind FilterKind, detail string) {
	st.prune(Decision{Path: c.Path, Outcome: PrunedByFilter, Filter: kind, Detail: detail})
	e.log.Debug("filtered", "filter", kind, "path", c.Path, "detail", detail)
}

// keptOf returns the current keep set in candidate order.
func keptOf(sorted []entry.Entry, st *state) []entry.Entry {
	var out []entry.Entry
	for _, c := range sorted {
		if st.kept[c.Path] {
			out = append(out, c)
		}
	}
	return out
}

// Package report prints the decision trail and totals of a retention run.
package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/michaelscutari/retentions/internal/entry"
	"github.com/michaelscutari/retentions/internal/prune"
	"github.com/michaelscutari/retentions/internal/retention"
)

// TimeLayout is the timestamp layout of report lines.
const TimeLayout = "2006-01-02 15:04:05"

// Plan is what a run decided, before anything is removed.
type Plan struct {
	Job        string
	Base       string
	Pattern    string
	Policy     string
	Candidates []entry.Entry // newest first
	Protected  []string
	Empty      []string // folders skipped for having no files
	Result     *retention.Result
}

// Totals summarizes a plan.
type Totals struct {
	Found     int
	Protected int
	Empty     int
	Keep      int
	Prune     int
	KeepSize  int64
	PruneSize int64
}

// Totals computes the plan's totals.
func (p *Plan) Totals() Totals {
	t := Totals{
		Found:     len(p.Candidates),
		Protected: len(p.Protected),
		Empty:     len(p.Empty),
	}
	if p.Result != nil {
		t.Keep = len(p.Result.Keep)
		t.Prune = len(p.Result.Prune)
		t.KeepSize = p.Result.KeepSize()
		t.PruneSize = p.Result.PruneSize()
	}
	return t
}

// Printer writes plans as text.
type Printer struct {
	out     io.Writer
	styled  bool
	history bool
	loc     *time.Location
}

// NewPrinter creates a text printer. Styling is enabled when out is a
// terminal.
func NewPrinter(out io.Writer) *Printer {
	return &Printer{
		out:    out,
		styled: IsTerminal(out),
		loc:    time.Local,
	}
}

// WithHistory also prints every superseded decision below each entry.
func (p *Printer) WithHistory(on bool) *Printer {
	p.history = on
	return p
}

// WithStyle forces styling on or off.
func (p *Printer) WithStyle(on bool) *Printer {
	p.styled = on
	return p
}

// WithLocation sets the zone timestamps are printed in.
func (p *Printer) WithLocation(loc *time.Location) *Printer {
	if loc != nil {
		p.loc = loc
	}
	return p
}

func (p *Printer) render(s lipgloss.Style, text string) string {
	if !p.styled {
		return text
	}
	return s.Render(text)
}

// PrintPlan writes one primary line per candidate, newest first, followed
// by the totals.
func (p *Printer) PrintPlan(plan *Plan) error {
	if plan.Result == nil {
		return p.PrintTotals(plan.Totals())
	}

	width := 0
	for _, c := range plan.Candidates {
		width = max(width, lipgloss.Width(c.Name))
	}

	var sb strings.Builder
	for _, c := range plan.Candidates {
		action, style := "KEEP ", keepStyle
		if !plan.Result.Kept(c.Path) {
			action, style = "PRUNE", pruneStyle
		}
		reason := ""
		primary, ok := plan.Result.Trail.Primary(c.Path)
		if ok {
			reason = primary.Reason()
		}
		fmt.Fprintf(&sb, "%s  %s%s  %s  %s\n",
			p.render(style, action),
			c.Name,
			strings.Repeat(" ", width-lipgloss.Width(c.Name)),
			p.render(timeStyle, c.ModTime(p.loc).Format(TimeLayout)),
			reason,
		)
		if p.history {
			for _, d := range plan.Result.Trail.History(c.Path) {
				if ok && d == primary {
					continue
				}
				fmt.Fprintf(&sb, "       %s\n", p.render(historyStyle, "- "+d.Reason()))
			}
		}
	}
	for _, name := range plan.Protected {
		fmt.Fprintf(&sb, "%s  %s\n", p.render(warnStyle, "PROT "), name)
	}
	if _, err := io.WriteString(p.out, sb.String()); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return p.PrintTotals(plan.Totals())
}

// PrintTotals writes the one-line plan summary.
func (p *Printer) PrintTotals(t Totals) error {
	line := fmt.Sprintf("found %d, protected %d, keep %d (%s), prune %d (%s)",
		t.Found, t.Protected,
		t.Keep, humanize.IBytes(uint64(t.KeepSize)),
		t.Prune, humanize.IBytes(uint64(t.PruneSize)))
	if t.Empty > 0 {
		line += fmt.Sprintf(", empty folders %d", t.Empty)
	}
	if _, err := fmt.Fprintln(p.out, p.render(summaryStyle, line)); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// PrintExecution writes the executor's summary. List-only runs print
// nothing since their output is the list itself.
func (p *Printer) PrintExecution(sum *prune.Summary) error {
	if sum == nil || sum.Mode == prune.ListOnly {
		return nil
	}
	verb := "deleted"
	if sum.Mode == prune.DryRun {
		verb = "would delete"
	}
	line := fmt.Sprintf("%s %d (%s)", verb, sum.Deleted, humanize.IBytes(uint64(sum.BytesFreed)))
	if sum.Companions > 0 {
		line += fmt.Sprintf(", companions %d", sum.Companions)
	}
	if sum.Skipped > 0 {
		line += fmt.Sprintf(", skipped %d", sum.Skipped)
	}
	if sum.Failed > 0 {
		line += ", " + p.render(pruneStyle, fmt.Sprintf("failed %d", sum.Failed))
	}
	if _, err := fmt.Fprintln(p.out, line); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

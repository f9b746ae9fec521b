package report

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/michaelscutari/retentions/internal/prune"
)

type jsonEntry struct {
	Path    string    `json:"path"`
	Name    string    `json:"name"`
	Time    time.Time `json:"time"`
	Size    int64     `json:"size"`
	Action  string    `json:"action"`
	Reason  string    `json:"reason"`
	History []string  `json:"history,omitempty"`
}

type jsonExecution struct {
	Mode       string   `json:"mode"`
	Deleted    int      `json:"deleted"`
	Failed     int      `json:"failed"`
	Skipped    int      `json:"skipped"`
	Companions int      `json:"companions"`
	BytesFreed int64    `json:"bytes_freed"`
	Errors     []string `json:"errors,omitempty"`
}

type jsonPlan struct {
	Job       string         `json:"job,omitempty"`
	Base      string         `json:"base"`
	Pattern   string         `json:"pattern"`
	Policy    string         `json:"policy,omitempty"`
	Found     int            `json:"found"`
	Protected []string       `json:"protected,omitempty"`
	Empty     []string       `json:"empty_folders,omitempty"`
	Keep      int            `json:"keep"`
	Prune     int            `json:"prune"`
	KeepSize  int64          `json:"keep_size"`
	PruneSize int64          `json:"prune_size"`
	Entries   []jsonEntry    `json:"entries"`
	Execution *jsonExecution `json:"execution,omitempty"`
}

// WriteJSON writes the plan, with its full decision history and the
// optional execution summary, as one indented JSON document.
func WriteJSON(w io.Writer, plan *Plan, sum *prune.Summary, loc *time.Location) error {
	if loc == nil {
		loc = time.Local
	}
	t := plan.Totals()
	out := jsonPlan{
		Job:       plan.Job,
		Base:      plan.Base,
		Pattern:   plan.Pattern,
		Policy:    plan.Policy,
		Found:     t.Found,
		Protected: plan.Protected,
		Empty:     plan.Empty,
		Keep:      t.Keep,
		Prune:     t.Prune,
		KeepSize:  t.KeepSize,
		PruneSize: t.PruneSize,
		Entries:   make([]jsonEntry, 0, len(plan.Candidates)),
	}
	for _, c := range plan.Candidates {
		je := jsonEntry{
			Path: c.Path,
			Name: c.Name,
			Time: c.ModTime(loc),
			Size: c.Size,
		}
		if plan.Result != nil {
			je.Action = "prune"
			if plan.Result.Kept(c.Path) {
				je.Action = "keep"
			}
			if d, ok := plan.Result.Trail.Primary(c.Path); ok {
				je.Reason = d.Reason()
			}
			for _, d := range plan.Result.Trail.History(c.Path) {
				je.History = append(je.History, d.Reason())
			}
		}
		out.Entries = append(out.Entries, je)
	}
	if sum != nil {
		ex := &jsonExecution{
			Mode:       sum.Mode.String(),
			Deleted:    sum.Deleted,
			Failed:     sum.Failed,
			Skipped:    sum.Skipped,
			Companions: sum.Companions,
			BytesFreed: sum.BytesFreed,
		}
		for _, err := range sum.Errors {
			ex.Errors = append(ex.Errors, err.Error())
		}
		out.Execution = ex
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return nil
}

package config

import (
	"fmt"

	"github.com/michaelscutari/retentions/internal/filestat"
	"github.com/michaelscutari/retentions/internal/prune"
	"github.com/michaelscutari/retentions/internal/retention"
	"github.com/michaelscutari/retentions/internal/scan"
)

// Policy builds the retention policy of a validated job.
func (j *Job) Policy() (retention.Policy, error) {
	p := retention.Policy{
		Last:     j.Last,
		MaxFiles: j.MaxFiles,
	}
	if j.RequireRules {
		p.NoRules = retention.RejectNoRules
	}

	counts := map[retention.Granularity]int{
		retention.Minute:  j.Minutes,
		retention.Hour:    j.Hours,
		retention.Day:     j.Days,
		retention.Week:    j.Weeks,
		retention.Month:   j.Months,
		retention.Quarter: j.Quarters,
		retention.Week13:  j.Week13,
		retention.Year:    j.Years,
	}
	for _, g := range retention.Granularities {
		if n := counts[g]; n > 0 {
			p.Rules = append(p.Rules, retention.Rule{Granularity: g, Count: n})
		}
	}

	if j.MaxSize != "" {
		n, err := ParseSize(j.MaxSize)
		if err != nil {
			return retention.Policy{}, err
		}
		p.MaxSize = n
	}
	if j.MaxAge != "" {
		d, err := ParseAge(j.MaxAge)
		if err != nil {
			return retention.Policy{}, err
		}
		p.MaxAge = d
	}
	return p, p.Validate()
}

// StatSource builds the stat cache for one run of the job.
func (j *Job) StatSource() (*filestat.Source, error) {
	age, err := filestat.ParseAgeType(j.AgeType)
	if err != nil {
		return nil, err
	}
	src := filestat.NewSource(age)
	if j.FolderMode != "" {
		fs, err := filestat.ParseFolderSource(j.FolderMode)
		if err != nil {
			return nil, err
		}
		src.WithFolderMode(fs)
	}
	return src, nil
}

// ListOptions builds the lister options of the job.
func (j *Job) ListOptions() *scan.ListOptions {
	opts := scan.DefaultOptions().
		WithProtect(j.Protect).
		WithFolderMode(j.FolderMode != "")
	if j.Regex != "" {
		opts.WithRegex(j.Regex == "ignorecase")
	}
	return opts
}

// PruneOptions builds the executor options of the job. dryRun forces
// dry-run mode on top of the job's own setting.
func (j *Job) PruneOptions(dryRun bool) (*prune.Options, error) {
	opts := prune.DefaultOptions().
		WithFailFast(j.FailFast).
		WithFolderMode(j.FolderMode != "")
	switch {
	case j.ListOnly != nil:
		opts.WithMode(prune.ListOnly).WithSeparator(*j.ListOnly)
	case j.DryRun || dryRun:
		opts.WithMode(prune.DryRun)
	}
	for _, c := range j.Companions {
		rule, err := prune.ParseCompanionRule(c)
		if err != nil {
			return nil, err
		}
		opts.WithCompanions(rule)
	}
	return opts, nil
}

// Describe renders the active rules, e.g. "days=7 weeks=4 max_size=1G".
func (j *Job) Describe() string {
	s := ""
	add := func(k string, v any) {
		if s != "" {
			s += " "
		}
		s += fmt.Sprintf("%s=%v", k, v)
	}
	for _, kv := range []struct {
		k string
		v int
	}{
		{"minutes", j.Minutes}, {"hours", j.Hours}, {"days", j.Days}, {"weeks", j.Weeks},
		{"months", j.Months}, {"quarters", j.Quarters}, {"week13", j.Week13}, {"years", j.Years},
		{"last", j.Last}, {"max_files", j.MaxFiles},
	} {
		if kv.v > 0 {
			add(kv.k, kv.v)
		}
	}
	if j.MaxSize != "" {
		add("max_size", j.MaxSize)
	}
	if j.MaxAge != "" {
		add("max_age", j.MaxAge)
	}
	if s == "" {
		return "no rules"
	}
	return s
}

package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"

	"github.com/michaelscutari/retentions/internal/filestat"
	"github.com/michaelscutari/retentions/internal/logging"
	"github.com/michaelscutari/retentions/internal/prune"
)

// ErrInvalid matches every ValidationError via errors.Is.
var ErrInvalid = errors.New("invalid configuration")

// FieldError is a validation error for one configuration field.
type FieldError struct {
	// Field is the dotted path, e.g. "jobs[0].max_size".
	Field   string
	Message string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError collects every FieldError found.
type ValidationError struct {
	Errors []FieldError
}

func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "configuration validation failed with %d errors:\n", len(e.Errors))
	for _, err := range e.Errors {
		fmt.Fprintf(&sb, "  - %s\n", err.Error())
	}
	return sb.String()
}

// Is reports whether target is ErrInvalid.
func (e ValidationError) Is(target error) bool {
	return target == ErrInvalid
}

var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// ParseSchedule parses a standard five-field cron expression or a
// descriptor such as @daily.
func ParseSchedule(expr string) (cron.Schedule, error) {
	return cronParser.Parse(expr)
}

// Validate checks the whole configuration and returns a ValidationError
// listing all problems, or nil.
func Validate(cfg *Config) error {
	var errs []FieldError

	if cfg.JournalKeep < 0 {
		errs = append(errs, FieldError{Field: "journal_keep", Message: "must be >= 0"})
	}
	if _, err := logging.ParseLevel(cfg.LogLevel); err != nil {
		errs = append(errs, FieldError{Field: "log_level", Message: err.Error()})
	}

	names := make(map[string]bool, len(cfg.Jobs))
	for i := range cfg.Jobs {
		job := &cfg.Jobs[i]
		prefix := fmt.Sprintf("jobs[%d]", i)
		if job.Name == "" {
			errs = append(errs, FieldError{Field: prefix + ".name", Message: "name is required"})
		} else if names[job.Name] {
			errs = append(errs, FieldError{Field: prefix + ".name", Message: fmt.Sprintf("duplicate job name %q", job.Name)})
		}
		names[job.Name] = true

		if job.Schedule != "" {
			if _, err := ParseSchedule(job.Schedule); err != nil {
				errs = append(errs, FieldError{Field: prefix + ".schedule", Message: err.Error()})
			}
		}
		errs = append(errs, validateJob(prefix, job)...)
	}

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}

// ValidateJob checks one job on its own, as built from command-line flags.
func ValidateJob(job *Job) error {
	if errs := validateJob("", job); len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}

func validateJob(prefix string, job *Job) []FieldError {
	var errs []FieldError
	field := func(name string) string {
		if prefix == "" {
			return name
		}
		return prefix + "." + name
	}
	add := func(name, msg string) {
		errs = append(errs, FieldError{Field: field(name), Message: msg})
	}

	if job.Path == "" {
		add("path", "path is required")
	}
	if job.Pattern == "" {
		add("pattern", "pattern is required")
	}
	switch job.Regex {
	case "", "casesensitive", "ignorecase":
	default:
		add("regex", fmt.Sprintf("unknown regex mode %q (want casesensitive or ignorecase)", job.Regex))
	}
	if _, err := filestat.ParseAgeType(job.AgeType); err != nil {
		add("age_type", err.Error())
	}
	if job.FolderMode != "" {
		if _, err := filestat.ParseFolderSource(job.FolderMode); err != nil {
			add("folder_mode", err.Error())
		}
	}

	counts := []struct {
		name string
		v    int
	}{
		{"minutes", job.Minutes}, {"hours", job.Hours}, {"days", job.Days}, {"weeks", job.Weeks},
		{"months", job.Months}, {"quarters", job.Quarters}, {"week13", job.Week13}, {"years", job.Years},
		{"last", job.Last}, {"max_files", job.MaxFiles},
	}
	for _, c := range counts {
		if c.v < 0 {
			add(c.name, fmt.Sprintf("must be > 0, got %d", c.v))
		}
	}

	if job.MaxSize != "" {
		if _, err := ParseSize(job.MaxSize); err != nil {
			add("max_size", err.Error())
		}
	}
	if job.MaxAge != "" {
		if _, err := ParseAge(job.MaxAge); err != nil {
			add("max_age", err.Error())
		}
	}
	for j, c := range job.Companions {
		if _, err := prune.ParseCompanionRule(c); err != nil {
			add(fmt.Sprintf("delete_companions[%d]", j), err.Error())
		}
	}

	if job.ListOnly != nil && len(job.Companions) > 0 {
		add("list_only", "cannot be combined with delete_companions")
	}
	if job.FolderMode != "" && len(job.Companions) > 0 {
		add("folder_mode", "cannot be combined with delete_companions")
	}
	if job.RequireRules && !job.hasRules() {
		add("rules", "no retention rule specified")
	}
	return errs
}

func (j *Job) hasRules() bool {
	return j.Minutes > 0 || j.Hours > 0 || j.Days > 0 || j.Weeks > 0 || j.Months > 0 ||
		j.Quarters > 0 || j.Week13 > 0 || j.Years > 0 || j.Last > 0
}

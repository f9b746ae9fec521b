// Package config loads retention policy files.
//
// A policy file lists jobs, each describing one directory, the pattern of
// its backups and the retention rules that apply. Files are YAML or TOML,
// chosen by extension.
package config

// Config is the root of a policy file.
type Config struct {
	// Journal is the SQLite audit journal path. Empty disables the journal.
	Journal string `yaml:"journal" toml:"journal"`

	// JournalKeep bounds the number of runs kept in the journal.
	// Default: 1000
	JournalKeep int `yaml:"journal_keep" toml:"journal_keep"`

	// MetricsFile is a node-exporter textfile written after every run.
	MetricsFile string `yaml:"metrics_file" toml:"metrics_file"`

	// Listen is the daemon's metrics listen address.
	// Default: "127.0.0.1:9479"
	Listen string `yaml:"listen" toml:"listen"`

	// DryRun forces every job into dry-run mode.
	DryRun bool `yaml:"dry_run" toml:"dry_run"`

	// LogLevel is error, warn, info or debug.
	// Default: "warn"
	LogLevel string `yaml:"log_level" toml:"log_level"`

	Jobs []Job `yaml:"jobs" toml:"jobs"`
}

// Job is one retention target.
type Job struct {
	Name string `yaml:"name" toml:"name"`

	// Schedule is a cron expression used by the daemon. Jobs without a
	// schedule only run through `retentions run`.
	Schedule string `yaml:"schedule" toml:"schedule"`

	Path    string `yaml:"path" toml:"path"`
	Pattern string `yaml:"pattern" toml:"pattern"`

	// Regex is empty for glob patterns, or casesensitive / ignorecase.
	Regex   string `yaml:"regex" toml:"regex"`
	Protect string `yaml:"protect" toml:"protect"`

	// AgeType is mtime, ctime, atime or birthtime.
	// Default: "mtime"
	AgeType string `yaml:"age_type" toml:"age_type"`

	// FolderMode enables folder mode when set to folder, youngest-file,
	// oldest-file or path=<relative file>.
	FolderMode string `yaml:"folder_mode" toml:"folder_mode"`

	Minutes  int `yaml:"minutes" toml:"minutes"`
	Hours    int `yaml:"hours" toml:"hours"`
	Days     int `yaml:"days" toml:"days"`
	Weeks    int `yaml:"weeks" toml:"weeks"`
	Months   int `yaml:"months" toml:"months"`
	Quarters int `yaml:"quarters" toml:"quarters"`
	Week13   int `yaml:"week13" toml:"week13"`
	Years    int `yaml:"years" toml:"years"`
	Last     int `yaml:"last" toml:"last"`

	MaxFiles int    `yaml:"max_files" toml:"max_files"`
	MaxSize  string `yaml:"max_size" toml:"max_size"`
	MaxAge   string `yaml:"max_age" toml:"max_age"`

	// Companions are prefix:<match>:<replace> or suffix:<match>:<replace>
	// rules for files deleted together with each pruned file.
	Companions []string `yaml:"delete_companions" toml:"delete_companions"`

	DryRun       bool `yaml:"dry_run" toml:"dry_run"`
	FailFast     bool `yaml:"fail_fast" toml:"fail_fast"`
	NoLock       bool `yaml:"no_lock_file" toml:"no_lock_file"`
	RequireRules bool `yaml:"require_rules" toml:"require_rules"`
	FailOnEmpty  bool `yaml:"fail_on_empty" toml:"fail_on_empty"`

	// ListOnly prints the prune set joined by this separator instead of
	// deleting. Only meaningful for ad-hoc runs.
	ListOnly *string `yaml:"-" toml:"-"`
}

// FindJob returns the job with the given name.
func (c *Config) FindJob(name string) (*Job, bool) {
	for i := range c.Jobs {
		if c.Jobs[i].Name == name {
			return &c.Jobs[i], true
		}
	}
	return nil, false
}

package config

// Default values for configuration fields.
const (
	DefaultJournalKeep = 1000
	DefaultListen      = "127.0.0.1:9479"
	DefaultLogLevel    = "warn"
	DefaultAgeType     = "mtime"
)

// ApplyDefaults fills unset fields. It is idempotent.
func ApplyDefaults(cfg *Config) {
	if cfg.JournalKeep == 0 {
		cfg.JournalKeep = DefaultJournalKeep
	}
	if cfg.Listen == "" {
		cfg.Listen = DefaultListen
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
	}
	for i := range cfg.Jobs {
		ApplyJobDefaults(&cfg.Jobs[i])
	}
}

// ApplyJobDefaults fills unset fields of a single job.
func ApplyJobDefaults(job *Job) {
	if job.AgeType == "" {
		job.AgeType = DefaultAgeType
	}
}

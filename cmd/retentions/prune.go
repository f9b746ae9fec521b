package main

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/michaelscutari/retentions/internal/config"
	"github.com/michaelscutari/retentions/internal/db"
	"github.com/michaelscutari/retentions/internal/filestat"
	"github.com/michaelscutari/retentions/internal/lock"
	"github.com/michaelscutari/retentions/internal/metrics"
	"github.com/michaelscutari/retentions/internal/runner"
)

var pruneCmd = &cobra.Command{
	Use:   "prune PATH PATTERN",
	Short: "Apply retention rules to one directory",
	Long: `Select the entries of PATH matching PATTERN (a glob, or a regular
expression with --regex), keep what the rules ask for and delete the rest.

Rules are applied from the finest period to the coarsest. Each keeps the
newest entry of its newest N periods that are older than anything kept so
far. --last keeps the N newest entries. --max-files, --max-size and
--max-age then remove kept entries that exceed the limits.`,
	Example: `  retentions prune /backups 'db-*.tar.gz' --days 7 --weeks 4 --months 12
  retentions prune /backups '^db-\d+' --regex --last 3 --dry-run
  retentions prune /snapshots '*' --folder-mode --days 14 --list-only='\0'`,
	Args: exactArgs(2),
	RunE: runPrune,
}

var (
	pruneName         string
	pruneRegex        string
	pruneProtect      string
	pruneAgeType      string
	pruneFolderMode   string
	pruneMinutes      int
	pruneHours        int
	pruneDays         int
	pruneWeeks        int
	pruneMonths       int
	pruneQuarters     int
	pruneWeek13       int
	pruneYears        int
	pruneLast         int
	pruneMaxFiles     int
	pruneMaxSize      string
	pruneMaxAge       string
	pruneCompanions   []string
	pruneDryRun       bool
	pruneListOnly     string
	pruneNoLock       bool
	pruneFailFast     bool
	pruneRequireRules bool
	pruneFailOnEmpty  bool
	pruneJournal      string
	pruneJournalKeep  int
	pruneMetricsFile  string
	pruneOutput       string
)

func init() {
	f := pruneCmd.Flags()
	f.StringVar(&pruneName, "name", "", "Job name in the journal and metrics (default: base directory name)")
	f.StringVar(&pruneRegex, "regex", "", "Treat PATTERN and --protect as regular expressions: casesensitive or ignorecase")
	f.Lookup("regex").NoOptDefVal = "casesensitive"
	f.StringVar(&pruneProtect, "protect", "", "Never select entries matching this pattern")
	f.StringVar(&pruneAgeType, "age-type", config.DefaultAgeType, "Timestamp to date entries by: mtime, ctime, atime or birthtime")
	f.StringVar(&pruneFolderMode, "folder-mode", "", "Treat matching directories as entries, dated by folder, youngest-file, oldest-file or path=<rel>")
	f.Lookup("folder-mode").NoOptDefVal = filestat.DefaultFolderSource.String()

	f.IntVar(&pruneMinutes, "minutes", 0, "Keep one entry for each of the last N minutes")
	f.IntVar(&pruneHours, "hours", 0, "Keep one entry for each of the last N hours")
	f.IntVar(&pruneDays, "days", 0, "Keep one entry for each of the last N days")
	f.IntVar(&pruneWeeks, "weeks", 0, "Keep one entry for each of the last N ISO weeks")
	f.IntVar(&pruneMonths, "months", 0, "Keep one entry for each of the last N months")
	f.IntVar(&pruneQuarters, "quarters", 0, "Keep one entry for each of the last N quarters")
	f.IntVar(&pruneWeek13, "week13", 0, "Keep one entry for each of the last N 13-week blocks")
	f.IntVar(&pruneYears, "years", 0, "Keep one entry for each of the last N years")
	f.IntVar(&pruneLast, "last", 0, "Always keep the N newest entries")

	f.IntVar(&pruneMaxFiles, "max-files", 0, "Keep at most N entries")
	f.StringVar(&pruneMaxSize, "max-size", "", "Keep at most this many bytes, e.g. 500M or 2G")
	f.StringVar(&pruneMaxAge, "max-age", "", "Prune entries older than this, e.g. 36h, 90d or 1y")

	f.StringArrayVar(&pruneCompanions, "delete-companions", nil, "Also delete prefix:<match>:<replace> or suffix:<match>:<replace> companions (repeatable)")
	f.BoolVar(&pruneDryRun, "dry-run", false, "Report what would be deleted without deleting")
	f.StringVar(&pruneListOnly, "list-only", "", "Print the entries to prune joined by SEP instead of deleting (\\0 for NUL)")
	f.Lookup("list-only").NoOptDefVal = "\n"
	f.BoolVar(&pruneNoLock, "no-lock-file", false, "Do not create "+lock.FileName+" in PATH")
	f.BoolVar(&pruneFailFast, "fail-fast", false, "Stop at the first failed deletion")
	f.BoolVar(&pruneRequireRules, "require-rules", false, "Fail instead of keeping everything when no rule is given")
	f.BoolVar(&pruneFailOnEmpty, "fail-on-empty", false, "Exit with code 3 when nothing matches PATTERN")

	f.StringVar(&pruneJournal, "journal", "", "Record the run in this SQLite journal")
	f.IntVar(&pruneJournalKeep, "journal-keep", config.DefaultJournalKeep, "Runs kept in the journal (0 = unlimited)")
	f.StringVar(&pruneMetricsFile, "metrics-file", "", "Write Prometheus metrics to this textfile")
	f.StringVarP(&pruneOutput, "output", "o", "text", "Report format: text or json")
}

func pruneJob(cmd *cobra.Command, args []string) *config.Job {
	job := &config.Job{
		Name:         pruneName,
		Path:         args[0],
		Pattern:      args[1],
		Regex:        pruneRegex,
		Protect:      pruneProtect,
		AgeType:      pruneAgeType,
		FolderMode:   pruneFolderMode,
		Minutes:      pruneMinutes,
		Hours:        pruneHours,
		Days:         pruneDays,
		Weeks:        pruneWeeks,
		Months:       pruneMonths,
		Quarters:     pruneQuarters,
		Week13:       pruneWeek13,
		Years:        pruneYears,
		Last:         pruneLast,
		MaxFiles:     pruneMaxFiles,
		MaxSize:      pruneMaxSize,
		MaxAge:       pruneMaxAge,
		Companions:   pruneCompanions,
		DryRun:       pruneDryRun,
		FailFast:     pruneFailFast,
		NoLock:       pruneNoLock,
		RequireRules: pruneRequireRules,
		FailOnEmpty:  pruneFailOnEmpty,
	}
	if cmd.Flags().Changed("list-only") {
		sep := pruneListOnly
		job.ListOnly = &sep
	}
	if job.Name == "" {
		if abs, err := filepath.Abs(job.Path); err == nil {
			job.Name = filepath.Base(abs)
		}
	}
	return job
}

// pruneLogLevel is error for list-only runs, info for dry runs and warn
// otherwise.
func pruneLogLevel(job *config.Job) string {
	switch {
	case job.ListOnly != nil:
		return "error"
	case job.DryRun:
		return "info"
	default:
		return "warn"
	}
}

func runPrune(cmd *cobra.Command, args []string) error {
	job := pruneJob(cmd, args)

	logger, level, err := setupLogger(pruneLogLevel(job))
	if err != nil {
		return err
	}
	if job.ListOnly != nil && level < slog.LevelError {
		return config.ValidationError{Errors: []config.FieldError{
			{Field: "verbose", Message: "--list-only cannot be combined with a log level above error"},
		}}
	}

	var output runner.Output
	switch pruneOutput {
	case "json":
		if job.ListOnly != nil {
			return config.ValidationError{Errors: []config.FieldError{
				{Field: "output", Message: "--list-only cannot be combined with --output json"},
			}}
		}
		output = runner.OutputJSON
	case "text":
		if level <= slog.LevelInfo {
			output = runner.OutputText
		}
	default:
		return usageError(errors.New("--output must be text or json"))
	}

	r := runner.New(logger)
	r.SetOutput(os.Stdout, output, level <= slog.LevelDebug)
	r.SetStageFunc(func(job, stage string) {
		logger.Debug("stage", "job", job, "stage", stage)
	})

	if pruneJournal != "" {
		database, err := db.Open(pruneJournal)
		if err != nil {
			return err
		}
		defer database.Close()
		r.SetJournal(db.NewWriter(database, 0), pruneJournalKeep)
	}
	if pruneMetricsFile != "" {
		r.SetMetrics(metrics.NewCollector(), pruneMetricsFile)
	}

	ctx, cancel := signalContext()
	defer cancel()

	_, err = r.Run(ctx, job)
	return err
}

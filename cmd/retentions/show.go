package main

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/michaelscutari/retentions/internal/db"
)

var showCmd = &cobra.Command{
	Use:   "show RUN-ID",
	Short: "Display one recorded run and its decisions",
	Long: `Print the metadata of a run and the primary decision for each
entry. RUN-ID may be any unique prefix of the run ID.`,
	Args: exactArgs(1),
	RunE: runShow,
}

var (
	showJournal string
	showAll     bool
)

func init() {
	showCmd.Flags().StringVarP(&showJournal, "journal", "d", journalPathFlag(), "Path to journal file")
	showCmd.Flags().BoolVarP(&showAll, "all", "a", false, "Show every decision, not only the primary one")
}

func runShow(cmd *cobra.Command, args []string) error {
	database, err := openJournalReadOnly(showJournal)
	if err != nil {
		return err
	}
	defer database.Close()

	run, err := db.GetRun(database, args[0])
	if err != nil {
		if errors.Is(err, db.ErrRunNotFound) {
			return usageError(err)
		}
		return fmt.Errorf("failed to read run: %w", err)
	}

	fmt.Printf("Run %s\n", run.ID)
	fmt.Printf("==================\n\n")
	fmt.Printf("Job:        %s\n", run.Job)
	fmt.Printf("Path:       %s\n", run.Base)
	fmt.Printf("Pattern:    %s\n", run.Pattern)
	fmt.Printf("Rules:      %s\n", run.Policy)
	fmt.Printf("Mode:       %s\n", run.Mode)
	fmt.Printf("Status:     %s\n", run.Status)
	if run.Error != "" {
		fmt.Printf("Error:      %s\n", run.Error)
	}
	fmt.Printf("Start Time: %s\n", run.Start.Format(time.RFC3339))
	if !run.End.IsZero() {
		fmt.Printf("Duration:   %s\n", run.Duration().Round(time.Millisecond))
	}
	fmt.Printf("\nTotals\n")
	fmt.Printf("------\n")
	fmt.Printf("Found:      %s (%s protected)\n", humanize.Comma(int64(run.Candidates)), humanize.Comma(int64(run.Protected)))
	fmt.Printf("Keep:       %s (%s)\n", humanize.Comma(int64(run.Kept)), humanize.IBytes(uint64(run.BytesKept)))
	fmt.Printf("Prune:      %s (%s)\n", humanize.Comma(int64(run.Pruned)), humanize.IBytes(uint64(run.BytesPruned)))
	fmt.Printf("Deleted:    %s (%s freed)\n", humanize.Comma(int64(run.Deleted)), humanize.IBytes(uint64(run.BytesFreed)))
	if run.Failed > 0 {
		fmt.Printf("Failed:     %s\n", humanize.Comma(int64(run.Failed)))
	}

	decisions, err := db.LoadDecisions(database, run.ID, !showAll)
	if err != nil {
		return fmt.Errorf("failed to load decisions: %w", err)
	}
	if len(decisions) == 0 {
		return nil
	}

	fmt.Println()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "ACTION\tTIME\tSIZE\tNAME\tREASON\n")
	for _, d := range decisions {
		action := "PRUNE"
		if d.Keep {
			action = "KEEP"
		}
		if showAll && !d.Primary {
			action = ""
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			action,
			time.Unix(d.Time, 0).Local().Format("2006-01-02 15:04:05"),
			humanize.IBytes(uint64(d.Size)),
			d.Name,
			d.Reason,
		)
	}
	return w.Flush()
}

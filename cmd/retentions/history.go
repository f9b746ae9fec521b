package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/michaelscutari/retentions/internal/db"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded runs",
	Long:  `List the runs recorded in a journal, newest first.`,
	Args:  exactArgs(0),
	RunE:  runHistory,
}

var (
	historyJournal string
	historyJob     string
	historyLimit   int
)

func init() {
	historyCmd.Flags().StringVarP(&historyJournal, "journal", "d", journalPathFlag(), "Path to journal file")
	historyCmd.Flags().StringVarP(&historyJob, "job", "j", "", "Only runs of this job")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Maximum number of runs (0 = all)")
}

func runHistory(cmd *cobra.Command, args []string) error {
	database, err := openJournalReadOnly(historyJournal)
	if err != nil {
		return err
	}
	defer database.Close()

	runs, err := db.ListRuns(database, historyJob, historyLimit)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "ID\tSTARTED\tDURATION\tJOB\tMODE\tSTATUS\tFOUND\tKEEP\tPRUNE\tDELETED\tFREED\n")
	for _, r := range runs {
		id := r.ID
		if len(id) > 8 {
			id = id[:8]
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%d\t%d\t%d\t%d\t%s\n",
			id,
			r.Start.Local().Format("2006-01-02 15:04:05"),
			r.Duration().Round(time.Millisecond),
			r.Job,
			r.Mode,
			r.Status,
			r.Candidates,
			r.Kept,
			r.Pruned,
			r.Deleted,
			humanize.IBytes(uint64(r.BytesFreed)),
		)
	}
	return w.Flush()
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/michaelscutari/retentions/internal/tui"

	tea "github.com/charmbracelet/bubbletea"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Browse the journal interactively",
	Long:  `Open an interactive TUI listing recorded runs and their decisions.`,
	Args:  exactArgs(0),
	RunE:  runTUI,
}

var (
	tuiJournal string
	tuiJob     string
	tuiLimit   int
)

func init() {
	tuiCmd.Flags().StringVarP(&tuiJournal, "journal", "d", journalPathFlag(), "Path to journal file")
	tuiCmd.Flags().StringVarP(&tuiJob, "job", "j", "", "Only runs of this job")
	tuiCmd.Flags().IntVarP(&tuiLimit, "limit", "n", 500, "Maximum number of runs loaded")
}

func runTUI(cmd *cobra.Command, args []string) error {
	database, err := openJournalReadOnly(tuiJournal)
	if err != nil {
		return err
	}
	defer database.Close()

	model := tui.NewModel(database, tuiJob, tuiLimit)
	p := tea.NewProgram(model, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}

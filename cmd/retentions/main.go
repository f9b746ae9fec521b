package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "0.1.0"

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "retentions:", err)
		os.Exit(exitCode(err))
	}
}

var rootCmd = &cobra.Command{
	Use:   "retentions",
	Short: "Calendar-based retention for backup directories",
	Long: `retentions keeps one backup per minute, hour, day, week, month,
quarter, 13-week block or year, plus the newest N, and prunes the rest.
Decisions are explained per entry and can be recorded in a SQLite journal.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var (
	verbose   string
	logFormat string
)

func init() {
	rootCmd.Version = version
	rootCmd.PersistentFlags().StringVarP(&verbose, "verbose", "V", "", "Log level: error, warn, info, debug or 0-3 (bare -V = info)")
	rootCmd.PersistentFlags().Lookup("verbose").NoOptDefVal = "info"
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Log format: text or json")
	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return usageError(err)
	})

	rootCmd.AddCommand(pruneCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(daemonCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(tuiCmd)
}

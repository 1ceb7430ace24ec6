package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/oversightlabs/oversight/internal/storage"
)

var (
	historyLimit       int
	historyFile        string
	historyCleanupDays int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show persisted analysis history",
	Long: `List past analyses recorded in the project's history database.

Use --file to restrict to one file, --cleanup-days to purge entries
older than the given number of days.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		history, err := storage.Open(statePath("history.db"))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to open history: %v\n", err)
			os.Exit(1)
		}
		defer history.Close()

		if historyCleanupDays > 0 {
			removed, err := history.CleanupOlderThan(ctx, time.Duration(historyCleanupDays)*24*time.Hour)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: cleanup failed: %v\n", err)
				os.Exit(1)
			}
			green := color.New(color.FgGreen).SprintFunc()
			fmt.Printf("%s Removed %d entries older than %d days\n", green("✓"), removed, historyCleanupDays)
			return
		}

		var entries []*storage.HistoryEntry
		if historyFile != "" {
			entries, err = history.ForFile(ctx, historyFile)
		} else {
			entries, err = history.Recent(ctx, historyLimit)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to read history: %v\n", err)
			os.Exit(1)
		}

		if len(entries) == 0 {
			fmt.Println("No history recorded.")
			return
		}

		gray := color.New(color.FgHiBlack).SprintFunc()
		for _, entry := range entries {
			fmt.Printf("%s  %-7s  %-30s %s\n",
				entry.CompletedAt.Local().Format(time.DateTime),
				entry.Decision,
				entry.FilePath,
				gray(entry.ID))
			if entry.Reason != "" {
				fmt.Printf("    %s\n", entry.Reason)
			}
		}
	},
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "maximum entries to show")
	historyCmd.Flags().StringVar(&historyFile, "file", "", "show entries for one file only")
	historyCmd.Flags().IntVar(&historyCleanupDays, "cleanup-days", 0, "purge entries older than this many days")
	rootCmd.AddCommand(historyCmd)
}

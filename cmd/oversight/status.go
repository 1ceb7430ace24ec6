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

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show configuration, cache, and recent analysis activity",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
		yellow := color.New(color.FgYellow).SprintFunc()
		gray := color.New(color.FgHiBlack).SprintFunc()

		fmt.Printf("\n%s\n\n", cyan("=== Oversight Status ==="))

		fmt.Printf("%s\n", yellow("Configuration:"))
		fmt.Printf("  Engine:         %s", cfg.Engine)
		if cfg.Model != "" {
			fmt.Printf(" (%s)", cfg.Model)
		}
		fmt.Println()
		fmt.Printf("  Ceiling:        %d concurrent\n", cfg.MaxConcurrent)
		fmt.Printf("  Timeout:        %ds\n", cfg.TimeoutSeconds)
		if cfg.SpawnsPerMinute > 0 {
			fmt.Printf("  Rate limit:     %d/minute\n", cfg.SpawnsPerMinute)
		}
		fmt.Println()

		caches := loadCaches()
		fmt.Printf("%s\n", yellow("Caches:"))
		embedding := caches.EmbeddingStats()
		analysisStats := caches.AnalysisStats()
		fmt.Printf("  Embeddings:     %d/%d entries\n", embedding.Size, embedding.Capacity)
		fmt.Printf("  Analyses:       %d/%d entries\n", analysisStats.Size, analysisStats.Capacity)
		fmt.Println()

		history, err := storage.Open(statePath("history.db"))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to open history: %v\n", err)
			os.Exit(1)
		}
		defer history.Close()

		entries, err := history.Recent(ctx, 5)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to read history: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("%s\n", yellow("Recent analyses:"))
		if len(entries) == 0 {
			fmt.Printf("  %s\n", gray("None recorded"))
		} else {
			for _, entry := range entries {
				fmt.Printf("  %s  %-7s  %s %s\n",
					entry.CompletedAt.Local().Format(time.DateTime),
					entry.Decision,
					entry.FilePath,
					gray(fmt.Sprintf("(%dms)", entry.LatencyMS)))
			}
		}
		fmt.Println()
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

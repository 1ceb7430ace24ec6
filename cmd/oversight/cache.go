package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/oversightlabs/oversight/internal/cache"
)

var (
	cacheClear          bool
	cacheInvalidateFile string
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the verdict and embedding caches",
	Run: func(cmd *cobra.Command, args []string) {
		caches := loadCaches()
		green := color.New(color.FgGreen).SprintFunc()

		if cacheClear {
			removed := caches.Clear()
			saveCaches(caches)
			fmt.Printf("%s Cleared %d entries\n", green("✓"), removed)
			return
		}
		if cacheInvalidateFile != "" {
			removed := caches.InvalidateFile(cacheInvalidateFile)
			saveCaches(caches)
			fmt.Printf("%s Invalidated %d entries for %s\n", green("✓"), removed, cacheInvalidateFile)
			return
		}

		swept := caches.CleanupExpired()
		if swept > 0 {
			saveCaches(caches)
		}

		cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
		fmt.Printf("\n%s\n", cyan("Caches"))
		printStats("Embeddings", caches.EmbeddingStats())
		printStats("Analyses", caches.AnalysisStats())
		if swept > 0 {
			gray := color.New(color.FgHiBlack).SprintFunc()
			fmt.Printf("  %s\n", gray(fmt.Sprintf("swept %d expired entries", swept)))
		}
		fmt.Println()
	},
}

func printStats(name string, stats cache.Stats) {
	fmt.Printf("  %-11s %d/%d entries, ttl %v\n", name+":", stats.Size, stats.Capacity, stats.DefaultTTL)
}

func init() {
	cacheCmd.Flags().BoolVar(&cacheClear, "clear", false, "remove every cached entry")
	cacheCmd.Flags().StringVar(&cacheInvalidateFile, "invalidate-file", "", "remove cached verdicts for one file")
	rootCmd.AddCommand(cacheCmd)
}

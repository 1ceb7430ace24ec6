package repl

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/oversightlabs/oversight/internal/analysis"
	"github.com/oversightlabs/oversight/internal/cache"
	"github.com/oversightlabs/oversight/internal/types"
)

// cmdAnalyze submits a background analysis and returns immediately.
func (r *REPL) cmdAnalyze(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: analyze <file> [description...]")
	}
	file := args[0]
	description := strings.Join(args[1:], " ")
	if description == "" {
		description = fmt.Sprintf("Review the current contents of %s", file)
	}

	id, err := r.orch.Submit(analysis.Submission{
		FilePath:        file,
		ToolName:        "repl",
		CodeDescription: description,
		Callback: func(s types.Summary) {
			// Fires on the orchestrator's goroutine; a short note is
			// all we can safely print mid-prompt.
			fmt.Printf("\n[%s completed: %s]\n", s.ID, s.Decision)
		},
	})
	if err != nil {
		return err
	}

	green := color.New(color.FgGreen).SprintFunc()
	fmt.Printf("%s Submitted %s\n", green("✓"), id)
	return nil
}

// cmdStatus shows orchestrator state.
func (r *REPL) cmdStatus(args []string) error {
	stats := r.orch.GetStats()
	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	fmt.Printf("\n%s\n", cyan("Orchestrator"))
	fmt.Printf("  Active:    %d / %d\n", stats.Active, stats.Ceiling)
	fmt.Printf("  Completed: %d\n", stats.Completed)
	fmt.Printf("  Timeout:   %v\n", stats.Timeout)
	fmt.Println()
	return nil
}

// cmdResults lists completed results, newest first.
func (r *REPL) cmdResults(args []string) error {
	results := r.orch.GetPendingResults(time.Time{})
	if len(results) == 0 {
		fmt.Println("No completed results.")
		return nil
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].CompletedAt.After(results[j].CompletedAt)
	})

	for _, result := range results {
		fmt.Printf("  %s  %s  %s  %dms\n",
			result.CompletedAt.Format("15:04:05"),
			result.ID,
			decisionLabel(result.Decision),
			result.DurationMS)
	}
	return nil
}

// cmdResult shows one result in full.
func (r *REPL) cmdResult(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: result <id>")
	}
	result, ok := r.orch.GetResult(args[0])
	if !ok {
		if r.orch.IsRunning(args[0]) {
			fmt.Println("Still running.")
			return nil
		}
		return fmt.Errorf("no result for %q", args[0])
	}

	fmt.Printf("\nID:        %s\n", result.ID)
	fmt.Printf("Decision:  %s\n", decisionLabel(result.Decision))
	fmt.Printf("Success:   %t\n", result.Success)
	fmt.Printf("Duration:  %dms\n", result.DurationMS)
	if result.Reason != "" {
		fmt.Printf("Reason:    %s\n", result.Reason)
	}
	for key, value := range result.Analysis {
		fmt.Printf("  %s: %v\n", key, value)
	}
	fmt.Println()
	return nil
}

// cmdCancel cancels a running analysis.
func (r *REPL) cmdCancel(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: cancel <id>")
	}
	if !r.orch.Cancel(args[0]) {
		return fmt.Errorf("%q is not running", args[0])
	}
	green := color.New(color.FgGreen).SprintFunc()
	fmt.Printf("%s Cancelled %s\n", green("✓"), args[0])
	return nil
}

// cmdCache shows cache statistics.
func (r *REPL) cmdCache(args []string) error {
	if r.caches == nil {
		fmt.Println("No cache manager attached.")
		return nil
	}
	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	fmt.Printf("\n%s\n", cyan("Caches"))
	printCacheStats("Embeddings", r.caches.EmbeddingStats())
	printCacheStats("Analyses", r.caches.AnalysisStats())
	fmt.Println()
	return nil
}

func printCacheStats(name string, stats cache.Stats) {
	fmt.Printf("  %-11s %d/%d entries, %d hits, %d misses (%.0f%% hit rate), ttl %v\n",
		name+":", stats.Size, stats.Capacity, stats.Hits, stats.Misses,
		stats.HitRate*100, stats.DefaultTTL)
}

// decisionLabel colors a decision for terminal display.
func decisionLabel(decision types.Decision) string {
	switch decision {
	case types.DecisionApprove:
		return color.New(color.FgGreen).Sprint("approve")
	case types.DecisionBlock:
		return color.New(color.FgYellow).Sprint("block")
	default:
		return color.New(color.FgRed).Sprint("error")
	}
}

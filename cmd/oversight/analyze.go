package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/oversightlabs/oversight/internal/analysis"
	"github.com/oversightlabs/oversight/internal/types"
)

var (
	analyzeTool    string
	analyzeJSON    bool
	analyzeNoCache bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file> [description...]",
	Short: "Run a code review analysis",
	Long: `Submit a review of the given file and wait for the verdict.

The file's current contents are read and hashed; a cached verdict for
the same content is returned without spawning an engine unless
--no-cache is set. Exit status is 0 for approve, 1 for failure, and 2
when the change is blocked.`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		filePath := args[0]
		description := strings.Join(args[1:], " ")

		content, err := os.ReadFile(filePath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to read %s: %v\n", filePath, err)
			os.Exit(1)
		}
		if description == "" {
			description = string(content)
		}

		caches := loadCaches()
		if !analyzeNoCache {
			if result, ok := caches.GetCachedAnalysis(filePath, string(content)); ok {
				printResult(result, true)
				os.Exit(exitCode(result))
			}
		}

		orch, history, err := buildOrchestrator()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer history.Close()

		id, err := orch.Submit(analysis.Submission{
			FilePath:         filePath,
			ToolName:         analyzeTool,
			CodeDescription:  description,
			CollectionPrefix: cfg.CollectionPrefix,
		})
		if err != nil {
			if errors.Is(err, analysis.ErrQueueFull) {
				fmt.Fprintf(os.Stderr, "Error: analysis queue is full, try again later\n")
			} else {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			}
			os.Exit(1)
		}

		result := awaitResult(orch, id)
		if result.Success {
			caches.CacheAnalysis(filePath, string(content), result)
			saveCaches(caches)
		}
		printResult(result, false)
		os.Exit(exitCode(result))
	},
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeTool, "tool", "cli", "originating tool name recorded with the analysis")
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "emit the result as JSON")
	analyzeCmd.Flags().BoolVar(&analyzeNoCache, "no-cache", false, "skip the verdict cache")
	rootCmd.AddCommand(analyzeCmd)
}

// awaitResult polls until the request reaches a terminal state. The
// orchestrator enforces the timeout; this loop only waits for it.
func awaitResult(orch *analysis.Orchestrator, id string) *types.AnalysisResult {
	for {
		if result, ok := orch.GetResult(id); ok {
			return result
		}
		time.Sleep(50 * time.Millisecond)
	}
}

func printResult(result *types.AnalysisResult, fromCache bool) {
	if analyzeJSON {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to encode result: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(string(data))
		return
	}

	gray := color.New(color.FgHiBlack).SprintFunc()
	fmt.Printf("\nDecision: %s", decisionLabel(result.Decision))
	if fromCache {
		fmt.Printf(" %s", gray("(cached)"))
	}
	fmt.Println()
	if result.Reason != "" {
		fmt.Printf("Reason:   %s\n", result.Reason)
	}
	fmt.Printf("%s\n", gray(fmt.Sprintf("%s in %dms", result.ID, result.DurationMS)))
}

func exitCode(result *types.AnalysisResult) int {
	switch result.Decision {
	case types.DecisionApprove:
		return 0
	case types.DecisionBlock:
		return 2
	default:
		return 1
	}
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

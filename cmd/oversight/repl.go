package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/oversightlabs/oversight/internal/repl"
)

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Start the interactive shell",
	Long: `Start an interactive shell sharing one orchestrator across
commands, so analyses keep running between prompts.

Type 'help' in the shell for available commands.`,
	Run: func(cmd *cobra.Command, args []string) {
		orch, history, err := buildOrchestrator()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer history.Close()

		caches := loadCaches()
		defer saveCaches(caches)

		r, err := repl.New(&repl.Config{
			Orchestrator: orch,
			Caches:       caches,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to create shell: %v\n", err)
			os.Exit(1)
		}

		if err := r.Run(context.Background()); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(replCmd)
}

// oversight runs background code review off the critical path: it
// spawns a reasoning engine per analysis, bounded by a concurrency
// ceiling, and caches verdicts by content hash.
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/oversightlabs/oversight/internal/ai"
	"github.com/oversightlabs/oversight/internal/analysis"
	"github.com/oversightlabs/oversight/internal/cache"
	"github.com/oversightlabs/oversight/internal/config"
	"github.com/oversightlabs/oversight/internal/events"
	"github.com/oversightlabs/oversight/internal/storage"
)

var (
	// Shared across commands, set up in PersistentPreRunE.
	projectRoot string
	cfg         config.Config
)

var rootCmd = &cobra.Command{
	Use:   "oversight",
	Short: "Background code review orchestrator",
	Long: `Oversight runs code review analyses in the background, off the
critical path of whatever tool submits them. Each analysis spawns a
reasoning engine with a read-only tool allow-list, bounded by a
concurrency ceiling, and produces an approve/block/error verdict.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if projectRoot == "" {
			cwd, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to determine working directory: %w", err)
			}
			projectRoot = cwd
		}
		var err error
		cfg, err = config.Load(projectRoot)
		if err != nil {
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&projectRoot, "root", "", "project root (default: current directory)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// statePath returns a file location under the project's .oversight dir,
// creating the directory if needed.
func statePath(name string) string {
	dir := filepath.Join(projectRoot, config.ConfigDir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to create %s: %v\n", dir, err)
	}
	return filepath.Join(dir, name)
}

// buildEngine constructs the configured analysis engine.
func buildEngine() (analysis.Engine, error) {
	if cfg.Engine == "api" {
		client, err := ai.NewClient(ai.ClientConfig{Model: cfg.Model})
		if err != nil {
			return nil, err
		}
		return analysis.NewAPIEngine(client), nil
	}
	engine := analysis.NewSubprocessEngine(cfg.Model)
	engine.MaxTurns = cfg.MaxTurns
	return engine, nil
}

// buildOrchestrator wires the orchestrator with the durable event log
// and history store. The caller closes the returned history handle.
func buildOrchestrator() (*analysis.Orchestrator, *storage.History, error) {
	engine, err := buildEngine()
	if err != nil {
		return nil, nil, err
	}

	history, err := storage.Open(statePath("history.db"))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open history: %w", err)
	}

	orch := analysis.ForProject(analysis.Config{
		ProjectRoot:     projectRoot,
		MaxConcurrent:   cfg.MaxConcurrent,
		Timeout:         time.Duration(cfg.TimeoutSeconds) * time.Second,
		Engine:          engine,
		SpawnsPerMinute: cfg.SpawnsPerMinute,
		EventLog:        events.NewLogger(statePath("events.log")),
		History:         history,
	})
	return orch, history, nil
}

// loadCaches restores the cache snapshot from disk. A missing or
// unreadable snapshot yields empty caches.
func loadCaches() *cache.Manager {
	caches := cache.NewManager(cache.ManagerConfig{
		EmbeddingTTL:      time.Duration(cfg.Cache.EmbeddingTTLHours) * time.Hour,
		EmbeddingCapacity: cfg.Cache.EmbeddingMaxEntries,
		AnalysisTTL:       time.Duration(cfg.Cache.AnalysisTTLMinutes) * time.Minute,
		AnalysisCapacity:  cfg.Cache.AnalysisMaxEntries,
	})
	if err := caches.LoadFromDisk(statePath("cache.json")); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "Warning: failed to load cache snapshot: %v\n", err)
		}
	}
	return caches
}

// saveCaches persists the cache snapshot, best effort.
func saveCaches(caches *cache.Manager) {
	if err := caches.SaveToDisk(statePath("cache.json")); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to save cache snapshot: %v\n", err)
	}
}

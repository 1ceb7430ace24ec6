package analysis

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/oversightlabs/oversight/internal/types"
)

func TestBuildArgs(t *testing.T) {
	engine := NewSubprocessEngine("claude-sonnet-4-5-20250929")
	req := &types.AnalysisRequest{CollectionPrefix: "myproject"}

	args := engine.buildArgs(req)

	if args[0] != "-p" {
		t.Errorf("expected non-interactive flag first, got %v", args)
	}
	joined := strings.Join(args, " ")
	if !strings.Contains(joined, "--output-format json") {
		t.Errorf("missing JSON output flag: %v", args)
	}
	if !strings.Contains(joined, "--max-turns 10") {
		t.Errorf("missing default turn budget: %v", args)
	}
	if !strings.Contains(joined, "--model claude-sonnet-4-5-20250929") {
		t.Errorf("missing model flag: %v", args)
	}
}

func TestBuildArgsNoModel(t *testing.T) {
	engine := NewSubprocessEngine("")
	args := engine.buildArgs(&types.AnalysisRequest{})
	if slices.Contains(args, "--model") {
		t.Errorf("empty model should omit the flag: %v", args)
	}
}

func TestAllowedToolsWithPrefix(t *testing.T) {
	tools := allowedTools("myproject")

	for _, want := range []string{
		"Read", "Grep", "Glob",
		"mcp__myproject__semantic_search",
		"mcp__myproject__graph_read",
		"mcp__myproject__list_collections",
	} {
		if !slices.Contains(tools, want) {
			t.Errorf("missing tool %q in %v", want, tools)
		}
	}
}

func TestAllowedToolsWithoutPrefix(t *testing.T) {
	tools := allowedTools("")
	if len(tools) != len(readOnlyTools) {
		t.Errorf("expected only read-only tools, got %v", tools)
	}
}

func TestAnalyzeSpawnError(t *testing.T) {
	engine := NewSubprocessEngine("")
	engine.Command = "/nonexistent/oversight-test-binary"

	_, err := engine.Analyze(context.Background(), &types.AnalysisRequest{Prompt: "hi"})

	var spawn *SpawnError
	if !errors.As(err, &spawn) {
		t.Fatalf("expected SpawnError, got %v", err)
	}
	if !strings.Contains(err.Error(), "failed to spawn") {
		t.Errorf("unexpected message: %v", err)
	}
}

func TestAnalyzeExitError(t *testing.T) {
	engine := NewSubprocessEngine("")
	// false ignores its arguments and exits 1 immediately.
	engine.Command = "false"

	_, err := engine.Analyze(context.Background(), &types.AnalysisRequest{Prompt: "hi"})

	var exit *ExitError
	if !errors.As(err, &exit) {
		t.Fatalf("expected ExitError, got %v", err)
	}
	if exit.Code != 1 {
		t.Errorf("expected exit code 1, got %d", exit.Code)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 200); got != "short" {
		t.Errorf("short string changed: %q", got)
	}
	long := strings.Repeat("x", 300)
	got := truncate(long, 200)
	if len(got) != 203 || !strings.HasSuffix(got, "...") {
		t.Errorf("expected 200 chars plus ellipsis, got %d chars", len(got))
	}
}

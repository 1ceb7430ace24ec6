package repl

import (
	"context"
	"testing"
	"time"

	"github.com/oversightlabs/oversight/internal/analysis"
	"github.com/oversightlabs/oversight/internal/cache"
	"github.com/oversightlabs/oversight/internal/types"
)

type stubEngine struct{}

func (stubEngine) Name() string { return "stub" }

func (stubEngine) Analyze(ctx context.Context, req *types.AnalysisRequest) (string, error) {
	return `{"hasIssues": false, "reason": "clean"}`, nil
}

func newTestREPL(t *testing.T) *REPL {
	t.Helper()
	r, err := New(&Config{
		Orchestrator: analysis.New(analysis.Config{Engine: stubEngine{}}),
		Caches:       cache.NewManager(cache.ManagerConfig{}),
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return r
}

func TestNewRequiresOrchestrator(t *testing.T) {
	if _, err := New(&Config{}); err == nil {
		t.Error("expected error without orchestrator")
	}
}

func TestProcessInputDispatch(t *testing.T) {
	r := newTestREPL(t)

	// Unknown commands and empty input are not errors.
	if err := r.processInput("frobnicate"); err != nil {
		t.Errorf("unknown command returned error: %v", err)
	}
	if err := r.processInput("   "); err != nil {
		t.Errorf("blank input returned error: %v", err)
	}
	if err := r.processInput("help"); err != nil {
		t.Errorf("help returned error: %v", err)
	}
	if err := r.processInput("status"); err != nil {
		t.Errorf("status returned error: %v", err)
	}
}

func TestAnalyzeCommandSubmits(t *testing.T) {
	r := newTestREPL(t)

	if err := r.cmdAnalyze(nil); err == nil {
		t.Error("expected usage error without a file argument")
	}
	if err := r.cmdAnalyze([]string{"main.go", "added", "a", "helper"}); err != nil {
		t.Fatalf("analyze failed: %v", err)
	}

	// The stub completes immediately; wait for the result table.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if len(r.orch.GetPendingResults(time.Time{})) == 1 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("submitted analysis never completed")
}

func TestCancelCommandErrors(t *testing.T) {
	r := newTestREPL(t)

	if err := r.cmdCancel(nil); err == nil {
		t.Error("expected usage error without an id")
	}
	if err := r.cmdCancel([]string{"analysis-99-0"}); err == nil {
		t.Error("expected error for unknown id")
	}
}

func TestResultCommandUnknownID(t *testing.T) {
	r := newTestREPL(t)
	if err := r.cmdResult([]string{"analysis-99-0"}); err == nil {
		t.Error("expected error for unknown result")
	}
}

package events

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/oversightlabs/oversight/internal/types"
)

func readLog(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read log: %v", err)
	}
	return string(data)
}

func TestSubmittedAndQueueFull(t *testing.T) {
	path := filepath.Join(t.TempDir(), "analysis.log")
	l := NewLogger(path)

	l.Submitted(&types.AnalysisRequest{ID: "analysis-1-100", FilePath: "src/a.go", ToolName: "edit_file"})
	l.QueueFull("src/b.go", "edit_file")

	content := readLog(t, path)
	if !strings.Contains(content, "SUBMITTED id=analysis-1-100 file=src/a.go tool=edit_file") {
		t.Errorf("missing SUBMITTED line:\n%s", content)
	}
	if !strings.Contains(content, "QUEUE_FULL file=src/b.go") {
		t.Errorf("missing QUEUE_FULL line:\n%s", content)
	}
}

func TestCompletedBlock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "analysis.log")
	l := NewLogger(path)

	req := &types.AnalysisRequest{ID: "analysis-2-100", FilePath: "src/a.go", ToolName: "edit_file"}
	result := &types.AnalysisResult{
		ID:          "analysis-2-100",
		Success:     true,
		Decision:    types.DecisionBlock,
		Reason:      "unchecked error",
		Analysis:    map[string]any{"severity": "high", "category": "correctness"},
		DurationMS:  1234,
		CompletedAt: time.Now(),
	}
	l.Completed(req, result)

	content := readLog(t, path)
	for _, want := range []string{
		"COMPLETED id=analysis-2-100",
		"decision: block",
		"success: true",
		"latency_ms: 1234",
		"reason: unchecked error",
		"analysis.category: correctness",
		"analysis.severity: high",
	} {
		if !strings.Contains(content, want) {
			t.Errorf("missing %q in log:\n%s", want, content)
		}
	}
}

func TestAppendIsAccumulative(t *testing.T) {
	path := filepath.Join(t.TempDir(), "analysis.log")
	l := NewLogger(path)

	l.SpawnError("analysis-1-100", os.ErrNotExist)
	l.SpawnError("analysis-2-100", os.ErrNotExist)

	content := readLog(t, path)
	if strings.Count(content, "SPAWN_ERROR") != 2 {
		t.Errorf("expected 2 SPAWN_ERROR lines:\n%s", content)
	}
}

func TestWriteFailureIsSwallowed(t *testing.T) {
	// Point the logger at an unwritable path; the call must not panic
	// or return anything.
	l := NewLogger(string([]byte{0}))
	l.QueueFull("src/a.go", "edit_file")
}

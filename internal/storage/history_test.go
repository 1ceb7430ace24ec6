package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/oversightlabs/oversight/internal/types"
)

func setupHistory(t *testing.T) *History {
	t.Helper()
	h, err := Open(filepath.Join(t.TempDir(), "oversight.db"))
	if err != nil {
		t.Fatalf("failed to open history database: %v", err)
	}
	t.Cleanup(func() { h.Close() })
	return h
}

func record(t *testing.T, h *History, id string, completedAt time.Time) {
	t.Helper()
	req := &types.AnalysisRequest{ID: id, FilePath: "src/a.go", ToolName: "edit_file"}
	result := &types.AnalysisResult{
		ID:          id,
		Success:     true,
		Decision:    types.DecisionApprove,
		Reason:      "no issues found",
		DurationMS:  250,
		CompletedAt: completedAt,
	}
	if err := h.Record(context.Background(), req, result, "instance-1"); err != nil {
		t.Fatalf("failed to record: %v", err)
	}
}

func TestRecordAndRecent(t *testing.T) {
	h := setupHistory(t)
	ctx := context.Background()

	record(t, h, "analysis-1-100", time.Now().Add(-time.Minute))
	record(t, h, "analysis-2-101", time.Now())

	entries, err := h.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].ID != "analysis-2-101" {
		t.Errorf("expected newest first, got %s", entries[0].ID)
	}
	if entries[0].Decision != types.DecisionApprove || !entries[0].Success {
		t.Errorf("unexpected entry: %+v", entries[0])
	}
}

func TestRecentLimit(t *testing.T) {
	h := setupHistory(t)

	for i := 0; i < 5; i++ {
		record(t, h, "analysis-"+string(rune('a'+i)), time.Now())
	}

	entries, err := h.Recent(context.Background(), 3)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(entries) != 3 {
		t.Errorf("expected 3 entries, got %d", len(entries))
	}
}

func TestForFile(t *testing.T) {
	h := setupHistory(t)
	ctx := context.Background()

	record(t, h, "analysis-1-100", time.Now())

	other := &types.AnalysisRequest{ID: "analysis-2-101", FilePath: "src/b.go", ToolName: "edit_file"}
	result := &types.AnalysisResult{ID: "analysis-2-101", Decision: types.DecisionBlock, CompletedAt: time.Now()}
	if err := h.Record(ctx, other, result, "instance-1"); err != nil {
		t.Fatal(err)
	}

	entries, err := h.ForFile(ctx, "src/a.go")
	if err != nil {
		t.Fatalf("ForFile failed: %v", err)
	}
	if len(entries) != 1 || entries[0].FilePath != "src/a.go" {
		t.Errorf("unexpected entries: %+v", entries)
	}
}

func TestCleanupOlderThan(t *testing.T) {
	h := setupHistory(t)
	ctx := context.Background()

	record(t, h, "analysis-old", time.Now().Add(-48*time.Hour))
	record(t, h, "analysis-new", time.Now())

	deleted, err := h.CleanupOlderThan(ctx, 24*time.Hour)
	if err != nil {
		t.Fatalf("CleanupOlderThan failed: %v", err)
	}
	if deleted != 1 {
		t.Errorf("expected 1 deleted, got %d", deleted)
	}

	entries, err := h.Recent(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].ID != "analysis-new" {
		t.Errorf("expected only the recent entry to survive, got %+v", entries)
	}
}

func TestDuplicateIDRejected(t *testing.T) {
	h := setupHistory(t)
	record(t, h, "analysis-1-100", time.Now())

	req := &types.AnalysisRequest{ID: "analysis-1-100"}
	result := &types.AnalysisResult{ID: "analysis-1-100", Decision: types.DecisionError, CompletedAt: time.Now()}
	if err := h.Record(context.Background(), req, result, "instance-1"); err == nil {
		t.Error("expected duplicate ID insert to fail")
	}
}

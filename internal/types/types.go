// Package types defines the core value records shared across oversight:
// analysis requests, analysis results, and their summaries.
package types

import (
	"fmt"
	"time"
)

// Decision is the verdict produced by a completed analysis.
type Decision string

const (
	// DecisionApprove means the reviewed change raised no issues.
	DecisionApprove Decision = "approve"
	// DecisionBlock means the reviewed change has issues that should block it.
	DecisionBlock Decision = "block"
	// DecisionError means the analysis itself failed (spawn, timeout, parse, ...).
	DecisionError Decision = "error"
)

// AnalysisRequest describes one unit of background review work.
// It is owned exclusively by the orchestrator from submission until the
// request reaches a terminal state.
type AnalysisRequest struct {
	ID               string    // unique, monotonic counter + timestamp derived
	FilePath         string    // file under review
	ToolName         string    // originating tool/operation name
	CodeDescription  string    // textual description of the code under review
	ProjectRoot      string    // working directory for the subprocess
	CollectionPrefix string    // namespace prefix used to build the tool allow-list
	Prompt           string    // full prompt streamed to the subprocess
	CreatedAt        time.Time
}

// AnalysisResult is the immutable outcome of one request. Exactly one
// result is ever written per request ID.
type AnalysisResult struct {
	ID          string         `json:"id"`
	Success     bool           `json:"success"`
	Decision    Decision       `json:"decision"`
	Reason      string         `json:"reason"`
	Analysis    map[string]any `json:"analysis,omitempty"` // parsed structured payload, may be empty
	DurationMS  int64          `json:"duration_ms"`
	CompletedAt time.Time      `json:"completed_at"`
}

// Summary is the minimal view of a result delivered to completion
// callbacks.
type Summary struct {
	ID         string
	Success    bool
	Decision   Decision
	Reason     string
	DurationMS int64
}

// Summarize builds the callback view of a result.
func (r *AnalysisResult) Summarize() Summary {
	return Summary{
		ID:         r.ID,
		Success:    r.Success,
		Decision:   r.Decision,
		Reason:     r.Reason,
		DurationMS: r.DurationMS,
	}
}

// CompletionCallback is invoked exactly once when a request reaches a
// terminal state. Panics inside the callback are swallowed by the caller.
type CompletionCallback func(Summary)

// OrchestratorStats is a point-in-time snapshot of orchestrator state.
type OrchestratorStats struct {
	Active    int           `json:"active"`
	Completed int           `json:"completed"`
	Ceiling   int           `json:"ceiling"`
	Timeout   time.Duration `json:"timeout"`
}

func (s OrchestratorStats) String() string {
	return fmt.Sprintf("active=%d completed=%d ceiling=%d timeout=%v",
		s.Active, s.Completed, s.Ceiling, s.Timeout)
}

// Package events writes the per-project analysis event log: an
// append-only, human-readable record of every lifecycle event. The log
// is write-only from the orchestrator's perspective; nothing reads it
// back for control decisions.
package events

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/oversightlabs/oversight/internal/types"
)

// Logger appends lifecycle events to a text log file. All writes are
// best-effort: a failed write emits a warning to stderr and is otherwise
// ignored, so logging can never disturb an analysis in flight.
type Logger struct {
	mu   sync.Mutex
	path string
}

// NewLogger creates a logger appending to the file at path.
func NewLogger(path string) *Logger {
	return &Logger{path: path}
}

// Path returns the log file location.
func (l *Logger) Path() string { return l.path }

// Submitted records the admission of a request.
func (l *Logger) Submitted(req *types.AnalysisRequest) {
	l.appendLine(fmt.Sprintf("SUBMITTED id=%s file=%s tool=%s", req.ID, req.FilePath, req.ToolName))
}

// QueueFull records an admission refusal under capacity pressure.
func (l *Logger) QueueFull(filePath, toolName string) {
	l.appendLine(fmt.Sprintf("QUEUE_FULL file=%s tool=%s", filePath, toolName))
}

// SpawnError records a subprocess that failed to start.
func (l *Logger) SpawnError(requestID string, err error) {
	l.appendLine(fmt.Sprintf("SPAWN_ERROR id=%s error=%v", requestID, err))
}

// Completed records a terminal result as a multi-line block, including
// any structured fields the analysis extracted.
func (l *Logger) Completed(req *types.AnalysisRequest, result *types.AnalysisResult) {
	var b strings.Builder
	fmt.Fprintf(&b, "COMPLETED id=%s\n", result.ID)
	fmt.Fprintf(&b, "  file: %s\n", req.FilePath)
	fmt.Fprintf(&b, "  tool: %s\n", req.ToolName)
	fmt.Fprintf(&b, "  decision: %s\n", result.Decision)
	fmt.Fprintf(&b, "  success: %v\n", result.Success)
	fmt.Fprintf(&b, "  latency_ms: %d\n", result.DurationMS)
	fmt.Fprintf(&b, "  reason: %s\n", result.Reason)

	// Sorted so the log is stable across runs.
	keys := make([]string, 0, len(result.Analysis))
	for key := range result.Analysis {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Fprintf(&b, "  analysis.%s: %v\n", key, result.Analysis[key])
	}

	l.appendBlock(b.String())
}

func (l *Logger) appendLine(line string) {
	l.appendBlock(line + "\n")
}

func (l *Logger) appendBlock(block string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to create event log directory: %v\n", err)
		return
	}

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to open event log: %v\n", err)
		return
	}
	defer f.Close()

	stamp := time.Now().Format("2006-01-02 15:04:05")
	if _, err := fmt.Fprintf(f, "[%s] %s", stamp, block); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to write event log: %v\n", err)
	}
}

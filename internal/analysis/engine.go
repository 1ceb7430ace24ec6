// Package analysis implements the background review orchestrator: a
// bounded pool of per-request monitors that run an external reasoning
// engine against submitted code and classify the outcome.
package analysis

import (
	"context"
	"fmt"

	"github.com/oversightlabs/oversight/internal/types"
)

// Engine executes one analysis request and returns the engine's raw
// textual output. Implementations must honor ctx cancellation and
// deadline; on either, they return ctx's error (possibly wrapped).
type Engine interface {
	// Analyze runs the request to completion or ctx expiry.
	Analyze(ctx context.Context, req *types.AnalysisRequest) (string, error)
	// Name identifies the engine in logs and error reasons.
	Name() string
}

// SpawnError reports that the engine process could not be started at
// all. It is terminal for the request; nothing retries.
type SpawnError struct {
	Err error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("failed to spawn analysis process: %v", e.Err)
}

func (e *SpawnError) Unwrap() error { return e.Err }

// ExitError reports a subprocess that exited with non-zero status.
// Stderr is pre-truncated for use in result reasons.
type ExitError struct {
	Code   int
	Stderr string
}

func (e *ExitError) Error() string {
	if e.Stderr == "" {
		return fmt.Sprintf("analysis process exited with code %d", e.Code)
	}
	return fmt.Sprintf("analysis process exited with code %d: %s", e.Code, e.Stderr)
}

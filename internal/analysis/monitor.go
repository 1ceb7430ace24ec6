package analysis

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/oversightlabs/oversight/internal/types"
)

// monitor owns one admitted request from spawn to terminal state. Its
// lifecycle is Spawning → Running → {Completed(success) |
// Completed(error) | TimedOut}; every terminal state converges on a
// single AnalysisResult handed back to the orchestrator. No failure
// propagates past run: spawn errors, timeouts, non-zero exits, and
// parse failures all become normal error results.
type monitor struct {
	req     *types.AnalysisRequest
	engine  Engine
	timeout time.Duration

	ctx       context.Context
	cancel    context.CancelFunc
	cancelled atomic.Bool

	// spawnErr is set when the engine process never started, so the
	// orchestrator can log the SPAWN_ERROR event distinctly.
	spawnErr error
}

func newMonitor(parent context.Context, req *types.AnalysisRequest, engine Engine, timeout time.Duration) *monitor {
	ctx, cancel := context.WithCancel(parent)
	return &monitor{
		req:     req,
		engine:  engine,
		timeout: timeout,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Cancel terminates the request's subprocess (via context, which kills
// the process group). The monitor still runs its normal terminal-state
// bookkeeping; no result is synthesized here.
func (m *monitor) Cancel() {
	m.cancelled.Store(true)
	m.cancel()
}

// run executes the request and classifies the outcome. Always returns a
// result; never panics past its own boundary.
func (m *monitor) run() *types.AnalysisResult {
	start := time.Now()
	defer m.cancel()

	ctx, cancelTimeout := context.WithTimeout(m.ctx, m.timeout)
	defer cancelTimeout()

	output, err := m.engine.Analyze(ctx, m.req)
	if err != nil {
		var spawn *SpawnError
		if errors.As(err, &spawn) {
			m.spawnErr = err
		}
		return m.errorResult(start, m.classify(err))
	}

	verdict, err := ParseVerdict(output)
	if err != nil {
		return m.errorResult(start, err.Error())
	}

	return &types.AnalysisResult{
		ID:          m.req.ID,
		Success:     true,
		Decision:    verdict.Decision,
		Reason:      verdict.Reason,
		Analysis:    verdict.Analysis,
		DurationMS:  time.Since(start).Milliseconds(),
		CompletedAt: time.Now(),
	}
}

// classify turns an engine error into a result reason. Cancellation is
// recorded distinctly from timeout even though both arrive as context
// errors.
func (m *monitor) classify(err error) string {
	switch {
	case m.cancelled.Load():
		return "cancelled"
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Sprintf("timed out after %ds", int(m.timeout.Seconds()))
	default:
		return err.Error()
	}
}

func (m *monitor) errorResult(start time.Time, reason string) *types.AnalysisResult {
	return &types.AnalysisResult{
		ID:          m.req.ID,
		Success:     false,
		Decision:    types.DecisionError,
		Reason:      reason,
		DurationMS:  time.Since(start).Milliseconds(),
		CompletedAt: time.Now(),
	}
}

package analysis

import (
	"context"

	"github.com/oversightlabs/oversight/internal/ai"
	"github.com/oversightlabs/oversight/internal/types"
)

// APIEngine runs analyses over the Anthropic API instead of spawning
// the CLI. Selected with `engine: api` in the project configuration,
// for hosts where the CLI is not installed. The client carries its own
// retry, circuit breaker, and concurrency limit.
type APIEngine struct {
	client *ai.Client
}

// NewAPIEngine wraps an API client as an Engine.
func NewAPIEngine(client *ai.Client) *APIEngine {
	return &APIEngine{client: client}
}

// Name implements Engine.
func (e *APIEngine) Name() string { return "api" }

// Analyze implements Engine. The response text feeds the same verdict
// parser as subprocess output; there is no transport envelope.
func (e *APIEngine) Analyze(ctx context.Context, req *types.AnalysisRequest) (string, error) {
	return e.client.Complete(ctx, req.Prompt)
}

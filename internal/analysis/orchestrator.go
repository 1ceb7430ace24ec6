package analysis

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/oversightlabs/oversight/internal/events"
	"github.com/oversightlabs/oversight/internal/storage"
	"github.com/oversightlabs/oversight/internal/types"
)

const (
	// DefaultMaxConcurrent is the admission ceiling: how many analyses
	// may run at once.
	DefaultMaxConcurrent = 3
	// DefaultTimeout is the wall-clock deadline per analysis.
	DefaultTimeout = 60 * time.Second
)

// ErrQueueFull is returned by Submit when the concurrency ceiling has
// been reached. This is backpressure, not a failure; callers resubmit
// later if they still care.
var ErrQueueFull = errors.New("analysis queue is full")

// ErrThrottled is returned by Submit when the spawn rate limit is
// exceeded.
var ErrThrottled = errors.New("analysis submissions throttled")

// Config holds orchestrator configuration.
type Config struct {
	ProjectRoot   string
	MaxConcurrent int           // admission ceiling (default: 3)
	Timeout       time.Duration // per-analysis deadline (default: 60s)
	Engine        Engine        // default: SubprocessEngine with the default model

	SpawnsPerMinute int              // optional rate limit on admissions (0 = unlimited)
	EventLog        *events.Logger   // optional durable event log
	History         *storage.History // optional persistent result history
}

// Submission describes the work handed to Submit.
type Submission struct {
	FilePath         string
	ToolName         string
	CodeDescription  string
	CollectionPrefix string
	Prompt           string // built from the other fields when empty
	Callback         types.CompletionCallback
}

// Orchestrator coordinates background analyses for one project root:
// admission against a fixed ceiling, one monitor per admitted request,
// and the result/callback tables. Create it once at startup and share
// it; use the registry for a per-project singleton.
//
// The mutex guards only bookkeeping. No operation holds it across a
// subprocess wait; monitors block outside the lock.
type Orchestrator struct {
	cfg        Config
	engine     Engine
	instanceID string
	slots      *semaphore.Weighted
	limiter    *rate.Limiter

	mu        sync.Mutex
	counter   int64
	active    map[string]*monitor
	results   map[string]*types.AnalysisResult
	callbacks map[string]types.CompletionCallback
}

// New creates an orchestrator. Zero config values fall back to
// defaults.
func New(cfg Config) *Orchestrator {
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = DefaultMaxConcurrent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	engine := cfg.Engine
	if engine == nil {
		engine = NewSubprocessEngine("")
	}

	var limiter *rate.Limiter
	if cfg.SpawnsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Limit(float64(cfg.SpawnsPerMinute)/60.0), cfg.SpawnsPerMinute)
	}

	return &Orchestrator{
		cfg:        cfg,
		engine:     engine,
		instanceID: uuid.New().String(),
		slots:      semaphore.NewWeighted(int64(cfg.MaxConcurrent)),
		limiter:    limiter,
		active:     make(map[string]*monitor),
		results:    make(map[string]*types.AnalysisResult),
		callbacks:  make(map[string]types.CompletionCallback),
	}
}

// InstanceID identifies this orchestrator in history rows.
func (o *Orchestrator) InstanceID() string { return o.instanceID }

// Submit admits a request if a slot is free and hands it to a monitor
// running independently of the caller. Returns the request ID, or
// ErrQueueFull/ErrThrottled with no side effects beyond a log entry.
func (o *Orchestrator) Submit(sub Submission) (string, error) {
	if o.limiter != nil && !o.limiter.Allow() {
		return "", ErrThrottled
	}

	// Fail-fast admission: no queuing, no waiting for a slot.
	if !o.slots.TryAcquire(1) {
		if o.cfg.EventLog != nil {
			o.cfg.EventLog.QueueFull(sub.FilePath, sub.ToolName)
		}
		return "", ErrQueueFull
	}

	o.mu.Lock()
	o.counter++
	req := &types.AnalysisRequest{
		ID:               fmt.Sprintf("analysis-%d-%d", o.counter, time.Now().Unix()),
		FilePath:         sub.FilePath,
		ToolName:         sub.ToolName,
		CodeDescription:  sub.CodeDescription,
		ProjectRoot:      o.cfg.ProjectRoot,
		CollectionPrefix: sub.CollectionPrefix,
		Prompt:           sub.Prompt,
		CreatedAt:        time.Now(),
	}
	if req.Prompt == "" {
		req.Prompt = BuildPrompt(sub.FilePath, sub.ToolName, sub.CodeDescription)
	}

	mon := newMonitor(context.Background(), req, o.engine, o.cfg.Timeout)
	o.active[req.ID] = mon
	if sub.Callback != nil {
		o.callbacks[req.ID] = sub.Callback
	}
	o.mu.Unlock()

	if o.cfg.EventLog != nil {
		o.cfg.EventLog.Submitted(req)
	}

	go o.watch(req, mon)
	return req.ID, nil
}

// watch runs the monitor to completion and performs the terminal-state
// bookkeeping: log, persist, swap active→results, release the slot, and
// deliver the callback exactly once.
func (o *Orchestrator) watch(req *types.AnalysisRequest, mon *monitor) {
	result := mon.run()

	if o.cfg.EventLog != nil {
		if mon.spawnErr != nil {
			o.cfg.EventLog.SpawnError(req.ID, mon.spawnErr)
		}
		o.cfg.EventLog.Completed(req, result)
	}

	if o.cfg.History != nil {
		if err := o.cfg.History.Record(context.Background(), req, result, o.instanceID); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to record analysis history: %v\n", err)
		}
	}

	// The result becomes visible and the request stops being "running"
	// in one atomic step; there is no window where both are false.
	o.mu.Lock()
	delete(o.active, req.ID)
	o.results[req.ID] = result
	callback := o.callbacks[req.ID]
	delete(o.callbacks, req.ID)
	o.mu.Unlock()

	o.slots.Release(1)

	if callback != nil {
		go o.deliver(callback, result.Summarize())
	}
}

// deliver invokes a completion callback, swallowing panics so a broken
// callback cannot disturb the orchestrator.
func (o *Orchestrator) deliver(callback types.CompletionCallback, summary types.Summary) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Warning: analysis callback panicked for %s: %v\n", summary.ID, r)
		}
	}()
	callback(summary)
}

// GetResult returns the terminal result for id, if one exists.
// A false return means the id is unknown or still running.
func (o *Orchestrator) GetResult(id string) (*types.AnalysisResult, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	result, ok := o.results[id]
	return result, ok
}

// IsRunning reports whether id is admitted and not yet terminal.
func (o *Orchestrator) IsRunning(id string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	_, ok := o.active[id]
	return ok
}

// Cancel kills the running analysis's process group. Returns false for
// unknown or already-completed ids. The cancelled monitor still runs
// its terminal bookkeeping; the result appears with reason "cancelled".
func (o *Orchestrator) Cancel(id string) bool {
	o.mu.Lock()
	mon, ok := o.active[id]
	o.mu.Unlock()
	if !ok {
		return false
	}
	mon.Cancel()
	return true
}

// GetPendingResults returns a snapshot of completed results, optionally
// filtered to those completed at or after since. Pass the zero time for
// all.
func (o *Orchestrator) GetPendingResults(since time.Time) []*types.AnalysisResult {
	o.mu.Lock()
	defer o.mu.Unlock()

	out := make([]*types.AnalysisResult, 0, len(o.results))
	for _, result := range o.results {
		if since.IsZero() || !result.CompletedAt.Before(since) {
			out = append(out, result)
		}
	}
	return out
}

// CleanupOldResults purges completed results older than maxAge from the
// result table and returns the number removed. Running requests are
// unaffected.
func (o *Orchestrator) CleanupOldResults(maxAge time.Duration) int {
	cutoff := time.Now().Add(-maxAge)

	o.mu.Lock()
	defer o.mu.Unlock()

	removed := 0
	for id, result := range o.results {
		if result.CompletedAt.Before(cutoff) {
			delete(o.results, id)
			removed++
		}
	}
	return removed
}

// GetStats returns a point-in-time snapshot of orchestrator state.
func (o *Orchestrator) GetStats() types.OrchestratorStats {
	o.mu.Lock()
	defer o.mu.Unlock()
	return types.OrchestratorStats{
		Active:    len(o.active),
		Completed: len(o.results),
		Ceiling:   o.cfg.MaxConcurrent,
		Timeout:   o.cfg.Timeout,
	}
}

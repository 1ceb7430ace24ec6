package analysis

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/oversightlabs/oversight/internal/types"
)

const (
	// DefaultCommand is the reasoning CLI invoked for each request.
	DefaultCommand = "claude"
	// DefaultMaxTurns bounds the agent's tool-use loop.
	DefaultMaxTurns = 10

	// maxStderrInReason caps how much captured stderr ends up in a
	// result reason.
	maxStderrInReason = 200
)

// readOnlyTools are always allowed regardless of collection prefix.
var readOnlyTools = []string{"Read", "Grep", "Glob"}

// SubprocessEngine runs the reasoning CLI as a detached subprocess,
// streaming the prompt over stdin and capturing stdout/stderr. The
// process runs in its own group so timeout and cancel kill the whole
// subtree.
type SubprocessEngine struct {
	Command  string // binary to invoke (default: claude)
	Model    string // model identifier passed to the CLI
	MaxTurns int    // tool-use turn budget
}

// NewSubprocessEngine creates an engine with defaults filled in.
func NewSubprocessEngine(model string) *SubprocessEngine {
	return &SubprocessEngine{
		Command:  DefaultCommand,
		Model:    model,
		MaxTurns: DefaultMaxTurns,
	}
}

// Name implements Engine.
func (e *SubprocessEngine) Name() string { return "subprocess" }

// Analyze implements Engine. Classification of the outcome is left to
// the monitor: spawn failures come back as *SpawnError, non-zero exits
// as *ExitError, and deadline/cancel as ctx.Err().
func (e *SubprocessEngine) Analyze(ctx context.Context, req *types.AnalysisRequest) (string, error) {
	command := e.Command
	if command == "" {
		command = DefaultCommand
	}

	// Deliberately not CommandContext: on ctx expiry we must kill the
	// whole process group, not just the direct child.
	cmd := exec.Command(command, e.buildArgs(req)...)
	cmd.Dir = req.ProjectRoot
	cmd.Stdin = strings.NewReader(req.Prompt)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	detachProcessGroup(cmd)

	if err := cmd.Start(); err != nil {
		return "", &SpawnError{Err: err}
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	select {
	case <-ctx.Done():
		killProcessGroup(cmd)
		<-done // reap
		return "", ctx.Err()
	case err := <-done:
		if err != nil {
			code := -1
			if exitErr, ok := err.(*exec.ExitError); ok {
				code = exitErr.ExitCode()
			}
			return "", &ExitError{
				Code:   code,
				Stderr: truncate(strings.TrimSpace(stderr.String()), maxStderrInReason),
			}
		}
		return stdout.String(), nil
	}
}

// buildArgs constructs the CLI invocation: non-interactive mode, JSON
// output, a turn budget, the model, and the tool allow-list.
func (e *SubprocessEngine) buildArgs(req *types.AnalysisRequest) []string {
	maxTurns := e.MaxTurns
	if maxTurns <= 0 {
		maxTurns = DefaultMaxTurns
	}

	args := []string{
		"-p",
		"--output-format", "json",
		"--max-turns", strconv.Itoa(maxTurns),
	}
	if e.Model != "" {
		args = append(args, "--model", e.Model)
	}
	args = append(args, "--allowedTools", strings.Join(allowedTools(req.CollectionPrefix), ","))
	return args
}

// allowedTools builds the capability allow-list for a request: the fixed
// read-only tools plus the search and graph-read operations of the
// request's collection namespace. Nothing here can write or execute.
func allowedTools(collectionPrefix string) []string {
	tools := append([]string{}, readOnlyTools...)
	if collectionPrefix != "" {
		tools = append(tools,
			fmt.Sprintf("mcp__%s__semantic_search", collectionPrefix),
			fmt.Sprintf("mcp__%s__graph_read", collectionPrefix),
			fmt.Sprintf("mcp__%s__list_collections", collectionPrefix),
		)
	}
	return tools
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

package analysis

import (
	"fmt"
	"strings"

	"github.com/oversightlabs/oversight/internal/ai"
	"github.com/oversightlabs/oversight/internal/types"
)

// envelopePrefix is the leading literal of the CLI's wrapper object.
// Detection is deliberately literal: the CLI emits this exact prefix in
// JSON output mode.
const envelopePrefix = `{"type":"result"`

// resultEnvelope is the CLI's transport wrapper. Result carries markdown
// that either is raw JSON or contains a ```json fenced block.
type resultEnvelope struct {
	Type    string `json:"type"`
	IsError bool   `json:"is_error"`
	Subtype string `json:"subtype"`
	Result  string `json:"result"`
}

// Verdict is the parsed domain decision from engine output.
type Verdict struct {
	Decision types.Decision
	Reason   string
	Analysis map[string]any // extra structured fields beyond hasIssues/reason
}

// ParseVerdict decodes engine output in two independent stages: first
// unwrap the transport envelope if present, then parse the domain
// payload. Envelope-level errors (is_error, max-turns exhaustion) are
// surfaced before any domain parsing.
func ParseVerdict(output string) (*Verdict, error) {
	payload := strings.TrimSpace(output)

	if strings.HasPrefix(payload, envelopePrefix) {
		envelope := ai.Parse[resultEnvelope](payload, "result envelope")
		if !envelope.Success {
			return nil, fmt.Errorf("malformed result envelope: %s", envelope.Error)
		}
		if envelope.Data.IsError {
			return nil, fmt.Errorf("engine reported error (subtype=%s): %s",
				envelope.Data.Subtype, truncate(envelope.Data.Result, maxStderrInReason))
		}
		if envelope.Data.Subtype == "error_max_turns" {
			return nil, fmt.Errorf("engine exhausted its turn budget before reaching a verdict")
		}
		payload = envelope.Data.Result
	}

	return parseDecision(payload)
}

// parseDecision parses the domain payload: a JSON object with hasIssues
// and reason, possibly wrapped in a markdown fence or surrounded by
// prose. hasIssues=true maps to block, otherwise approve.
func parseDecision(payload string) (*Verdict, error) {
	parsed := ai.Parse[map[string]any](payload, "analysis decision")
	if !parsed.Success {
		return nil, fmt.Errorf("unparseable analysis output: %s", parsed.Error)
	}
	fields := parsed.Data

	rawHasIssues, ok := fields["hasIssues"]
	if !ok {
		return nil, fmt.Errorf("analysis output missing hasIssues field")
	}
	hasIssues, ok := rawHasIssues.(bool)
	if !ok {
		return nil, fmt.Errorf("analysis output hasIssues is not a boolean")
	}

	reason, _ := fields["reason"].(string)

	decision := types.DecisionApprove
	if hasIssues {
		decision = types.DecisionBlock
	}

	analysis := make(map[string]any)
	for key, value := range fields {
		if key == "hasIssues" || key == "reason" {
			continue
		}
		analysis[key] = value
	}

	return &Verdict{Decision: decision, Reason: reason, Analysis: analysis}, nil
}

package analysis

import (
	"strings"
	"testing"

	"github.com/oversightlabs/oversight/internal/types"
)

func TestParseVerdictRawDecision(t *testing.T) {
	verdict, err := ParseVerdict(`{"hasIssues": false, "reason": "looks fine"}`)
	if err != nil {
		t.Fatalf("ParseVerdict failed: %v", err)
	}
	if verdict.Decision != types.DecisionApprove {
		t.Errorf("expected approve, got %s", verdict.Decision)
	}
	if verdict.Reason != "looks fine" {
		t.Errorf("unexpected reason: %q", verdict.Reason)
	}
}

func TestParseVerdictBlockOnIssues(t *testing.T) {
	verdict, err := ParseVerdict(`{"hasIssues": true, "reason": "SQL injection in query builder"}`)
	if err != nil {
		t.Fatalf("ParseVerdict failed: %v", err)
	}
	if verdict.Decision != types.DecisionBlock {
		t.Errorf("expected block, got %s", verdict.Decision)
	}
}

func TestParseVerdictEnvelopeUnwrap(t *testing.T) {
	output := `{"type":"result","is_error":false,"subtype":"success","result":"{\"hasIssues\": true, \"reason\": \"missing error check\"}"}`
	verdict, err := ParseVerdict(output)
	if err != nil {
		t.Fatalf("ParseVerdict failed: %v", err)
	}
	if verdict.Decision != types.DecisionBlock {
		t.Errorf("expected block, got %s", verdict.Decision)
	}
	if verdict.Reason != "missing error check" {
		t.Errorf("unexpected reason: %q", verdict.Reason)
	}
}

func TestParseVerdictEnvelopeFencedPayload(t *testing.T) {
	output := `{"type":"result","is_error":false,"subtype":"success","result":"Here is my verdict:\n\n` + "```json\\n" + `{\"hasIssues\": false, \"reason\": \"ok\"}\n` + "```" + `"}`
	verdict, err := ParseVerdict(output)
	if err != nil {
		t.Fatalf("ParseVerdict failed: %v", err)
	}
	if verdict.Decision != types.DecisionApprove {
		t.Errorf("expected approve, got %s", verdict.Decision)
	}
}

func TestParseVerdictEnvelopeIsError(t *testing.T) {
	output := `{"type":"result","is_error":true,"subtype":"error_during_execution","result":"API overloaded"}`
	_, err := ParseVerdict(output)
	if err == nil {
		t.Fatal("expected error for is_error envelope")
	}
	if !strings.Contains(err.Error(), "API overloaded") {
		t.Errorf("error should carry the engine message, got: %v", err)
	}
}

func TestParseVerdictMaxTurns(t *testing.T) {
	output := `{"type":"result","is_error":false,"subtype":"error_max_turns","result":""}`
	_, err := ParseVerdict(output)
	if err == nil {
		t.Fatal("expected error for exhausted turn budget")
	}
	if !strings.Contains(err.Error(), "turn budget") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestParseVerdictMissingHasIssues(t *testing.T) {
	_, err := ParseVerdict(`{"reason": "no verdict field"}`)
	if err == nil {
		t.Fatal("expected error for missing hasIssues")
	}
}

func TestParseVerdictNonBooleanHasIssues(t *testing.T) {
	_, err := ParseVerdict(`{"hasIssues": "yes", "reason": "stringly typed"}`)
	if err == nil {
		t.Fatal("expected error for non-boolean hasIssues")
	}
}

func TestParseVerdictGarbage(t *testing.T) {
	inputs := []string{
		"",
		"total nonsense",
		`{"type":"result", broken`,
		"<<<binary>>>",
	}
	for _, input := range inputs {
		if _, err := ParseVerdict(input); err == nil {
			t.Errorf("expected error for %q", input)
		}
	}
}

func TestParseVerdictExtraFieldsLandInAnalysis(t *testing.T) {
	verdict, err := ParseVerdict(`{"hasIssues": true, "reason": "found issues", "severity": "high", "confidence": 0.9}`)
	if err != nil {
		t.Fatalf("ParseVerdict failed: %v", err)
	}
	if verdict.Analysis["severity"] != "high" {
		t.Errorf("expected severity in analysis map, got %v", verdict.Analysis)
	}
	if _, ok := verdict.Analysis["hasIssues"]; ok {
		t.Error("hasIssues should not leak into the analysis map")
	}
}

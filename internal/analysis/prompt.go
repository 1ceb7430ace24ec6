package analysis

import (
	"fmt"
)

// BuildPrompt constructs the default review prompt for a request. The
// engine must answer with the raw JSON verdict shape; the parser
// tolerates fences anyway, but asking keeps outputs small.
func BuildPrompt(filePath, toolName, codeDescription string) string {
	return fmt.Sprintf(`You are reviewing a code change before it is applied.

File: %s
Operation: %s

Change under review:
%s

Inspect the change for bugs, security problems, and violations of the
surrounding code's conventions. Use the available read-only tools to
examine related code if needed.

Respond with ONLY a raw JSON object, no markdown fences:
{"hasIssues": <true if the change should be blocked>, "reason": "<one-sentence explanation>"}`,
		filePath, toolName, codeDescription)
}

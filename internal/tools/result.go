package tools

import (
	"encoding/json"

	"github.com/BryanBorck/thry-ethdenver-2025/internal/core"
)

// Stable error codes carried in ToolResult envelopes.
const (
	CodeUnknownTool      = "UNKNOWN_TOOL"
	CodeInvalidArguments = "INVALID_ARGUMENTS"
	CodeExecutionFailed  = "TOOL_EXECUTION_FAILED"
)

// Success wraps a tool payload in a success envelope.
func Success(payload map[string]any) core.ToolResult {
	return core.ToolResult{Status: core.StatusSuccess, Payload: payload}
}

// Errorf builds an error envelope with a stable code and human-readable
// message. Tool failures are values, never panics or Go errors, so a broken
// tool call can be folded into the transcript like any other result.
func Errorf(code, message string) core.ToolResult {
	return core.ToolResult{Status: core.StatusError, ErrorCode: code, ErrorMessage: message}
}

// Encode renders a result as the flat JSON carried in a role=tool message.
func Encode(res core.ToolResult) string {
	b, err := json.Marshal(res)
	if err != nil {
		// Payload values are plain JSON types; this should not happen.
		fallback, _ := json.Marshal(Errorf(CodeExecutionFailed, "result not serializable"))
		return string(fallback)
	}
	return string(b)
}

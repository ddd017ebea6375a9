package tools

import (
	"github.com/BryanBorck/thry-ethdenver-2025/internal/core"
)

const truncationMarker = "... [truncated]"

// truncatePayload caps every string value in a success payload at max runes
// so one verbose tool cannot flood the context window on the next model call.
// Error envelopes pass through untouched.
func truncatePayload(res core.ToolResult, max int) core.ToolResult {
	if max <= 0 || res.Status != core.StatusSuccess {
		return res
	}
	for key, value := range res.Payload {
		if s, ok := value.(string); ok {
			res.Payload[key] = truncateString(s, max)
		}
	}
	return res
}

func truncateString(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + truncationMarker
}

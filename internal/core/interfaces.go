package core

import (
	"context"
	"encoding/json"
)

// LLMClient abstracts the chat-completion provider (OpenAI, OpenRouter, a
// local model, or a test double). It receives the full ordered history on
// every call; partial-history submission is not supported.
type LLMClient interface {
	Complete(ctx context.Context, system string, history []Message, tools []ToolDefinition) (ModelResponse, error)
}

// ToolInvoker validates and executes exactly one named tool per call. All
// failures come back inside the ToolResult envelope; Invoke never returns a
// Go error and never panics across this boundary.
type ToolInvoker interface {
	Invoke(ctx context.Context, name string, args json.RawMessage, network NetworkDescriptor) ToolResult
	Definitions() []ToolDefinition
}

// TranscriptStore is the durable, ordered, per-thread message log.
// Append assigns the next insertion-sequence number for the thread and is
// synchronous: once it returns nil, the message survives a process restart.
// LoadAll returns messages in insertion order; an unknown thread yields an
// empty slice, not an error. Clear removes all messages but leaves the
// thread id valid for future appends.
type TranscriptStore interface {
	Append(ctx context.Context, threadID string, msg *Message) error
	LoadAll(ctx context.Context, threadID string) ([]Message, error)
	Clear(ctx context.Context, threadID string) error
}

package core

import "time"

// Message roles. The transcript uses "agent" for model replies; the LLM
// adapter maps it to the provider's "assistant" role on the wire.
const (
	RoleUser  = "user"
	RoleAgent = "agent"
	RoleTool  = "tool"
	RoleError = "error"
)

// Message is one transcript entry. Immutable once written. Within a thread,
// messages are totally ordered by Seq (assigned by the store on append);
// CreatedAt is display metadata and never drives ordering.
type Message struct {
	ID         int64      `json:"id,omitempty"`
	ThreadID   string     `json:"thread_id"`
	Seq        int64      `json:"seq,omitempty"`
	Role       string     `json:"role"`
	Content    string     `json:"content,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"` // set on role=tool messages
	CreatedAt  time.Time  `json:"created_at"`
}

// ToolCall is a single tool invocation requested by the model. Arguments is
// the raw JSON payload as the model produced it, not yet validated.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ToolResult statuses.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// ToolResult is the structured outcome of executing one ToolCall. It is
// always serializable to a flat JSON object and never carries a Go error
// across the registry boundary.
type ToolResult struct {
	Status       string         `json:"status"`
	Payload      map[string]any `json:"payload,omitempty"`
	ErrorCode    string         `json:"error_code,omitempty"`
	ErrorMessage string         `json:"error_message,omitempty"`
}

// NetworkDescriptor is the resolved connection descriptor for a logical
// network. Immutable value; looked up by name, never mutated.
type NetworkDescriptor struct {
	NetworkID      string `json:"network_id" yaml:"-"`
	ChainID        int64  `json:"chain_id" yaml:"chain_id"`
	RPCEndpoint    string `json:"rpc_endpoint" yaml:"rpc_url"`
	NativeSymbol   string `json:"native_symbol" yaml:"native_symbol"`
	NativeDecimals int    `json:"native_decimals" yaml:"native_decimals"`
}

// ToolDefinition describes one tool to the model (name, description, JSON
// Schema for its parameters).
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// ModelResponseKind tags the shape of a model response so the orchestrator
// can switch exhaustively instead of probing optional fields.
type ModelResponseKind int

const (
	// ModelReplied: plain text, no tool calls. Ends the turn.
	ModelReplied ModelResponseKind = iota
	// ModelRequestedTools: one or more tool calls, no user-facing text.
	ModelRequestedTools
	// ModelMixed: tool calls accompanied by text.
	ModelMixed
)

// ModelResponse is what one model call produced.
type ModelResponse struct {
	Content   string
	ToolCalls []ToolCall
}

// Kind classifies the response.
func (r ModelResponse) Kind() ModelResponseKind {
	switch {
	case len(r.ToolCalls) == 0:
		return ModelReplied
	case r.Content == "":
		return ModelRequestedTools
	default:
		return ModelMixed
	}
}

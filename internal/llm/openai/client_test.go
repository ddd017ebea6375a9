package openai

import (
	"testing"

	openai "github.com/sashabaranov/go-openai"

	"github.com/BryanBorck/thry-ethdenver-2025/internal/core"
)

func TestBuildMessages_RoleMapping(t *testing.T) {
	history := []core.Message{
		{Role: core.RoleUser, Content: "what's my balance?"},
		{Role: core.RoleAgent, ToolCalls: []core.ToolCall{
			{ID: "call_1", Name: "get-balance", Arguments: `{}`},
		}},
		{Role: core.RoleTool, ToolCallID: "call_1", Content: `{"status": "success"}`},
		{Role: core.RoleAgent, Content: "You have 1.5 ETH."},
		{Role: core.RoleError, Content: "model call failed"},
	}

	msgs := buildMessages("You are a ledger assistant.", history)
	if len(msgs) != 6 {
		t.Fatalf("got %d wire messages, want 6", len(msgs))
	}

	if msgs[0].Role != openai.ChatMessageRoleSystem || msgs[0].Content != "You are a ledger assistant." {
		t.Errorf("system prompt not first: %+v", msgs[0])
	}
	if msgs[1].Role != openai.ChatMessageRoleUser {
		t.Errorf("user role = %s", msgs[1].Role)
	}
	if msgs[2].Role != openai.ChatMessageRoleAssistant {
		t.Errorf("agent mapped to %s, want assistant", msgs[2].Role)
	}
	if len(msgs[2].ToolCalls) != 1 || msgs[2].ToolCalls[0].Function.Name != "get-balance" {
		t.Errorf("tool calls lost: %+v", msgs[2].ToolCalls)
	}
	if msgs[3].Role != openai.ChatMessageRoleTool || msgs[3].ToolCallID != "call_1" {
		t.Errorf("tool message malformed: %+v", msgs[3])
	}
	if msgs[4].Role != openai.ChatMessageRoleAssistant || msgs[4].Content != "You have 1.5 ETH." {
		t.Errorf("final reply malformed: %+v", msgs[4])
	}
	if msgs[5].Role != openai.ChatMessageRoleSystem {
		t.Errorf("error entry mapped to %s, want system", msgs[5].Role)
	}
}

func TestBuildMessages_NoSystemPrompt(t *testing.T) {
	msgs := buildMessages("", []core.Message{{Role: core.RoleUser, Content: "hi"}})
	if len(msgs) != 1 || msgs[0].Role != openai.ChatMessageRoleUser {
		t.Errorf("unexpected wire messages: %+v", msgs)
	}
}

func TestBuildTools(t *testing.T) {
	defs := []core.ToolDefinition{
		{
			Name:        "get-balance",
			Description: "Get a balance.",
			Parameters:  map[string]any{"type": "object"},
		},
	}

	tools := buildTools(defs)
	if len(tools) != 1 {
		t.Fatalf("got %d tools", len(tools))
	}
	if tools[0].Type != openai.ToolTypeFunction {
		t.Errorf("tool type = %s", tools[0].Type)
	}
	if tools[0].Function.Name != "get-balance" {
		t.Errorf("name = %s", tools[0].Function.Name)
	}

	if got := buildTools(nil); got != nil {
		t.Errorf("expected nil for empty definitions, got %v", got)
	}
}

// Package openai adapts an OpenAI-compatible chat completion API (OpenAI
// itself, or OpenRouter via a custom base URL) to the LLMClient interface.
package openai

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/BryanBorck/thry-ethdenver-2025/internal/core"
)

// Config holds provider settings.
type Config struct {
	APIKey  string
	BaseURL string // empty means api.openai.com
	Model   string
}

// Client implements core.LLMClient over the chat completions endpoint.
type Client struct {
	api   *openai.Client
	model string
	log   *zap.SugaredLogger
}

var _ core.LLMClient = (*Client)(nil)

// New builds a client from the config.
func New(cfg Config, log *zap.SugaredLogger) *Client {
	apiCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		apiCfg.BaseURL = cfg.BaseURL
	}
	return &Client{
		api:   openai.NewClientWithConfig(apiCfg),
		model: cfg.Model,
		log:   log,
	}
}

// Complete sends the system prompt, full history, and tool definitions and
// returns the model's response.
func (c *Client) Complete(ctx context.Context, system string, history []core.Message, tools []core.ToolDefinition) (core.ModelResponse, error) {
	req := openai.ChatCompletionRequest{
		Model:    c.model,
		Messages: buildMessages(system, history),
		Tools:    buildTools(tools),
	}

	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		return core.ModelResponse{}, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return core.ModelResponse{}, fmt.Errorf("chat completion: empty response")
	}

	choice := resp.Choices[0].Message
	out := core.ModelResponse{Content: choice.Content}
	for _, tc := range choice.ToolCalls {
		id := tc.ID
		if id == "" {
			// Some providers omit call ids; synthesize one so the tool
			// message can still reference its call.
			id = "call_" + uuid.NewString()
		}
		out.ToolCalls = append(out.ToolCalls, core.ToolCall{
			ID:        id,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}

	c.log.Debugw("model responded",
		"model", resp.Model,
		"tool_calls", len(out.ToolCalls),
		"finish_reason", resp.Choices[0].FinishReason)
	return out, nil
}

// buildMessages maps the transcript onto wire roles. The transcript's "agent"
// role becomes "assistant"; "error" entries are replayed as system notes so
// the model sees that a past turn broke without mistaking it for its own
// words.
func buildMessages(system string, history []core.Message) []openai.ChatCompletionMessage {
	msgs := make([]openai.ChatCompletionMessage, 0, len(history)+1)
	if system != "" {
		msgs = append(msgs, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: system,
		})
	}

	for _, m := range history {
		switch m.Role {
		case core.RoleUser:
			msgs = append(msgs, openai.ChatCompletionMessage{
				Role:    openai.ChatMessageRoleUser,
				Content: m.Content,
			})
		case core.RoleAgent:
			wire := openai.ChatCompletionMessage{
				Role:    openai.ChatMessageRoleAssistant,
				Content: m.Content,
			}
			for _, tc := range m.ToolCalls {
				wire.ToolCalls = append(wire.ToolCalls, openai.ToolCall{
					ID:   tc.ID,
					Type: openai.ToolTypeFunction,
					Function: openai.FunctionCall{
						Name:      tc.Name,
						Arguments: tc.Arguments,
					},
				})
			}
			msgs = append(msgs, wire)
		case core.RoleTool:
			msgs = append(msgs, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				Content:    m.Content,
				ToolCallID: m.ToolCallID,
			})
		case core.RoleError:
			msgs = append(msgs, openai.ChatCompletionMessage{
				Role:    openai.ChatMessageRoleSystem,
				Content: "A previous turn ended with an error: " + m.Content,
			})
		}
	}
	return msgs
}

func buildTools(tools []core.ToolDefinition) []openai.Tool {
	if len(tools) == 0 {
		return nil
	}
	out := make([]openai.Tool, 0, len(tools))
	for _, t := range tools {
		out = append(out, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			},
		})
	}
	return out
}

// Package agent drives the turn loop: user message in, model calls and tool
// executions in the middle, one agent reply (or one error entry) out.
package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/BryanBorck/thry-ethdenver-2025/internal/core"
)

// DefaultMaxToolIterations bounds model round-trips within one turn. A model
// stuck requesting tools forever terminates with an error entry instead of
// spinning.
const DefaultMaxToolIterations = 8

// Orchestrator runs turns against one configured network. It does not
// persist anything itself; callers append the returned messages.
type Orchestrator struct {
	llm      core.LLMClient
	invoker  core.ToolInvoker
	store    core.TranscriptStore
	network  core.NetworkDescriptor
	system   string
	maxIters int
	log      *zap.SugaredLogger
}

// Options tunes an Orchestrator.
type Options struct {
	SystemPrompt      string // empty means the built-in prompt
	MaxToolIterations int    // <= 0 means DefaultMaxToolIterations
}

// New builds an orchestrator for the given network.
func New(llm core.LLMClient, invoker core.ToolInvoker, store core.TranscriptStore, network core.NetworkDescriptor, opts Options, log *zap.SugaredLogger) *Orchestrator {
	system := opts.SystemPrompt
	if system == "" {
		system = SystemPrompt(network)
	}
	maxIters := opts.MaxToolIterations
	if maxIters <= 0 {
		maxIters = DefaultMaxToolIterations
	}
	return &Orchestrator{
		llm:      llm,
		invoker:  invoker,
		store:    store,
		network:  network,
		system:   system,
		maxIters: maxIters,
		log:      log,
	}
}

// RunTurn executes one full turn for the thread and returns every message the
// turn produced, in order, starting with the user message. The turn always
// produces a terminal entry: an agent reply on success, or exactly one
// trailing error entry when the model, a tool boundary, or the iteration
// ceiling broke it. Only a history load failure is returned as a Go error,
// since without history there is no turn to record.
func (o *Orchestrator) RunTurn(ctx context.Context, threadID, userText string) (msgs []core.Message, err error) {
	defer func() {
		if p := recover(); p != nil {
			o.log.Errorw("turn panicked", "thread", threadID, "panic", p)
			msgs = appendError(msgs, fmt.Sprintf("turn failed unexpectedly: %v", p))
			err = nil
		}
	}()

	history, err := o.store.LoadAll(ctx, threadID)
	if err != nil {
		return nil, fmt.Errorf("load transcript of %s: %w", threadID, err)
	}

	msgs = append(msgs, core.Message{Role: core.RoleUser, Content: userText})

	for i := 0; i < o.maxIters; i++ {
		// The model gets the full persisted history plus everything this
		// turn has produced so far.
		resp, err := o.llm.Complete(ctx, o.system, concat(history, msgs), o.invoker.Definitions())
		if err != nil {
			o.log.Errorw("model call failed", "thread", threadID, "error", err)
			return appendError(msgs, fmt.Sprintf("model call failed: %v", err)), nil
		}

		switch resp.Kind() {
		case core.ModelReplied:
			msgs = append(msgs, core.Message{Role: core.RoleAgent, Content: resp.Content})
			return msgs, nil

		case core.ModelRequestedTools, core.ModelMixed:
			msgs = append(msgs, core.Message{
				Role:      core.RoleAgent,
				Content:   resp.Content,
				ToolCalls: resp.ToolCalls,
			})
			// Tools run sequentially, in the order the model emitted them.
			// A failed tool is an error envelope the model sees on the next
			// round, not the end of the turn.
			for _, call := range resp.ToolCalls {
				result := o.invoker.Invoke(ctx, call.Name, json.RawMessage(call.Arguments), o.network)
				msgs = append(msgs, core.Message{
					Role:       core.RoleTool,
					ToolCallID: call.ID,
					Content:    encodeResult(result),
				})
			}
		}
	}

	o.log.Warnw("turn hit iteration ceiling", "thread", threadID, "limit", o.maxIters)
	return appendError(msgs, fmt.Sprintf(
		"turn aborted after %d tool iterations without a final reply", o.maxIters)), nil
}

// Network returns the network the orchestrator is bound to.
func (o *Orchestrator) Network() core.NetworkDescriptor {
	return o.network
}

func concat(history, turn []core.Message) []core.Message {
	out := make([]core.Message, 0, len(history)+len(turn))
	out = append(out, history...)
	return append(out, turn...)
}

// appendError ensures a broken turn ends with exactly one error entry.
func appendError(msgs []core.Message, text string) []core.Message {
	if n := len(msgs); n > 0 && msgs[n-1].Role == core.RoleError {
		return msgs
	}
	return append(msgs, core.Message{Role: core.RoleError, Content: text})
}

func encodeResult(res core.ToolResult) string {
	b, err := json.Marshal(res)
	if err != nil {
		return `{"status":"error","error_code":"TOOL_EXECUTION_FAILED","error_message":"result not serializable"}`
	}
	return string(b)
}

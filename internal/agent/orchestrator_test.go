package agent

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/BryanBorck/thry-ethdenver-2025/internal/core"
	"github.com/BryanBorck/thry-ethdenver-2025/internal/store"
)

var testNetwork = core.NetworkDescriptor{
	NetworkID:      "hedera-testnet",
	ChainID:        296,
	RPCEndpoint:    "http://localhost:7546",
	NativeSymbol:   "HBAR",
	NativeDecimals: 8,
}

// mockLLM replays a script of responses and records what it was sent.
type mockLLM struct {
	script    []core.ModelResponse
	err       error
	calls     int
	histories [][]core.Message
}

func (m *mockLLM) Complete(_ context.Context, _ string, history []core.Message, _ []core.ToolDefinition) (core.ModelResponse, error) {
	m.calls++
	m.histories = append(m.histories, append([]core.Message(nil), history...))
	if m.err != nil {
		return core.ModelResponse{}, m.err
	}
	if len(m.script) == 0 {
		return core.ModelResponse{Content: "done"}, nil
	}
	next := m.script[0]
	m.script = m.script[1:]
	return next, nil
}

// mockInvoker records invocation order and returns canned results.
type mockInvoker struct {
	invoked []string
	results map[string]core.ToolResult
}

func (m *mockInvoker) Invoke(_ context.Context, name string, _ json.RawMessage, _ core.NetworkDescriptor) core.ToolResult {
	m.invoked = append(m.invoked, name)
	if res, ok := m.results[name]; ok {
		return res
	}
	return core.ToolResult{Status: core.StatusSuccess, Payload: map[string]any{"ok": true}}
}

func (m *mockInvoker) Definitions() []core.ToolDefinition {
	return []core.ToolDefinition{{Name: "get-balance", Parameters: map[string]any{"type": "object"}}}
}

func newTestStore(t *testing.T) *store.DB {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func newTestOrchestrator(t *testing.T, llm *mockLLM, invoker *mockInvoker, opts Options) *Orchestrator {
	t.Helper()
	return New(llm, invoker, newTestStore(t), testNetwork, opts, zap.NewNop().Sugar())
}

func TestRunTurn_PlainReply(t *testing.T) {
	llm := &mockLLM{script: []core.ModelResponse{{Content: "Hello! How can I help?"}}}
	o := newTestOrchestrator(t, llm, &mockInvoker{}, Options{})

	msgs, err := o.RunTurn(context.Background(), "t1", "hi")
	if err != nil {
		t.Fatalf("RunTurn: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("got %d messages, want 2", len(msgs))
	}
	if msgs[0].Role != core.RoleUser || msgs[0].Content != "hi" {
		t.Errorf("first message is not the user prompt: %+v", msgs[0])
	}
	if msgs[1].Role != core.RoleAgent || msgs[1].Content != "Hello! How can I help?" {
		t.Errorf("second message is not the reply: %+v", msgs[1])
	}
	if llm.calls != 1 {
		t.Errorf("model called %d times", llm.calls)
	}
}

func TestRunTurn_ToolsExecuteInRequestOrder(t *testing.T) {
	llm := &mockLLM{script: []core.ModelResponse{
		{ToolCalls: []core.ToolCall{
			{ID: "call_a", Name: "get-address", Arguments: `{}`},
			{ID: "call_b", Name: "get-balance", Arguments: `{}`},
		}},
		{Content: "Your address holds 5 HBAR."},
	}}
	invoker := &mockInvoker{}
	o := newTestOrchestrator(t, llm, invoker, Options{})

	msgs, err := o.RunTurn(context.Background(), "t1", "who am I and what do I have?")
	if err != nil {
		t.Fatalf("RunTurn: %v", err)
	}

	if len(invoker.invoked) != 2 || invoker.invoked[0] != "get-address" || invoker.invoked[1] != "get-balance" {
		t.Fatalf("invocation order = %v", invoker.invoked)
	}

	// user, agent(tool calls), tool, tool, agent reply
	if len(msgs) != 5 {
		t.Fatalf("got %d messages, want 5: %+v", len(msgs), msgs)
	}
	if len(msgs[1].ToolCalls) != 2 {
		t.Errorf("agent message lost tool calls: %+v", msgs[1])
	}
	if msgs[2].Role != core.RoleTool || msgs[2].ToolCallID != "call_a" {
		t.Errorf("first tool result malformed: %+v", msgs[2])
	}
	if msgs[3].Role != core.RoleTool || msgs[3].ToolCallID != "call_b" {
		t.Errorf("second tool result malformed: %+v", msgs[3])
	}
	if msgs[4].Role != core.RoleAgent {
		t.Errorf("turn did not end with a reply: %+v", msgs[4])
	}
}

func TestRunTurn_ToolErrorFedBackToModel(t *testing.T) {
	llm := &mockLLM{script: []core.ModelResponse{
		{ToolCalls: []core.ToolCall{{ID: "c1", Name: "transfer-value", Arguments: `{"amount": -5}`}}},
		{Content: "That transfer is invalid: the amount must be positive."},
	}}
	invoker := &mockInvoker{results: map[string]core.ToolResult{
		"transfer-value": {Status: core.StatusError, ErrorCode: "INVALID_ARGUMENTS", ErrorMessage: "amount must be greater than 0"},
	}}
	o := newTestOrchestrator(t, llm, invoker, Options{})

	msgs, err := o.RunTurn(context.Background(), "t1", "send -5")
	if err != nil {
		t.Fatalf("RunTurn: %v", err)
	}

	// The error envelope rides a tool message; the turn still ends normally.
	if msgs[len(msgs)-1].Role != core.RoleAgent {
		t.Fatalf("turn did not end with a reply: %+v", msgs[len(msgs)-1])
	}
	var res core.ToolResult
	if err := json.Unmarshal([]byte(msgs[2].Content), &res); err != nil {
		t.Fatalf("tool message is not a result envelope: %v", err)
	}
	if res.Status != core.StatusError || res.ErrorCode != "INVALID_ARGUMENTS" {
		t.Errorf("envelope lost: %+v", res)
	}
}

func TestRunTurn_IterationCeiling(t *testing.T) {
	// A model that never stops asking for tools.
	endless := make([]core.ModelResponse, 0, 10)
	for i := 0; i < 10; i++ {
		endless = append(endless, core.ModelResponse{
			ToolCalls: []core.ToolCall{{ID: "c", Name: "get-balance", Arguments: `{}`}},
		})
	}
	llm := &mockLLM{script: endless}
	o := newTestOrchestrator(t, llm, &mockInvoker{}, Options{MaxToolIterations: 3})

	msgs, err := o.RunTurn(context.Background(), "t1", "loop forever")
	if err != nil {
		t.Fatalf("RunTurn: %v", err)
	}
	if llm.calls != 3 {
		t.Errorf("model called %d times, want 3", llm.calls)
	}

	errorCount := 0
	for _, m := range msgs {
		if m.Role == core.RoleError {
			errorCount++
		}
	}
	if errorCount != 1 {
		t.Fatalf("got %d error entries, want exactly 1", errorCount)
	}
	last := msgs[len(msgs)-1]
	if last.Role != core.RoleError || !strings.Contains(last.Content, "3 tool iterations") {
		t.Errorf("trailing error malformed: %+v", last)
	}
}

func TestRunTurn_ModelFailureEndsWithSingleError(t *testing.T) {
	llm := &mockLLM{err: errors.New("upstream 500")}
	o := newTestOrchestrator(t, llm, &mockInvoker{}, Options{})

	msgs, err := o.RunTurn(context.Background(), "t1", "hi")
	if err != nil {
		t.Fatalf("model failure must not surface as a Go error: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("got %d messages, want user + error", len(msgs))
	}
	last := msgs[1]
	if last.Role != core.RoleError || !strings.Contains(last.Content, "upstream 500") {
		t.Errorf("trailing error malformed: %+v", last)
	}
}

func TestRunTurn_HistoryLoadFailureIsAnError(t *testing.T) {
	o := New(&mockLLM{}, &mockInvoker{}, failingStore{}, testNetwork, Options{}, zap.NewNop().Sugar())

	if _, err := o.RunTurn(context.Background(), "t1", "hi"); err == nil {
		t.Fatal("expected error when history cannot be loaded")
	}
}

func TestRunTurn_ResubmitsFullHistory(t *testing.T) {
	db := newTestStore(t)
	ctx := context.Background()
	for _, m := range []core.Message{
		{Role: core.RoleUser, Content: "earlier question"},
		{Role: core.RoleAgent, Content: "earlier answer"},
	} {
		msg := m
		if err := db.Append(ctx, "t1", &msg); err != nil {
			t.Fatal(err)
		}
	}

	llm := &mockLLM{script: []core.ModelResponse{{Content: "hello again"}}}
	o := New(llm, &mockInvoker{}, db, testNetwork, Options{}, zap.NewNop().Sugar())

	if _, err := o.RunTurn(ctx, "t1", "new question"); err != nil {
		t.Fatalf("RunTurn: %v", err)
	}

	sent := llm.histories[0]
	if len(sent) != 3 {
		t.Fatalf("model saw %d messages, want persisted history plus the new prompt", len(sent))
	}
	if sent[0].Content != "earlier question" || sent[2].Content != "new question" {
		t.Errorf("history order wrong: %+v", sent)
	}
}

type failingStore struct{}

func (failingStore) Append(context.Context, string, *core.Message) error {
	return errors.New("disk full")
}
func (failingStore) LoadAll(context.Context, string) ([]core.Message, error) {
	return nil, errors.New("disk full")
}
func (failingStore) Clear(context.Context, string) error {
	return errors.New("disk full")
}

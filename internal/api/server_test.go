package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/BryanBorck/thry-ethdenver-2025/internal/chat"
	"github.com/BryanBorck/thry-ethdenver-2025/internal/core"
	"github.com/BryanBorck/thry-ethdenver-2025/internal/store"
)

type scriptedRunner struct{}

func (scriptedRunner) RunTurn(_ context.Context, _ string, text string) ([]core.Message, error) {
	return []core.Message{
		{Role: core.RoleUser, Content: text},
		{Role: core.RoleAgent, Content: "ok"},
	}, nil
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	gateway := chat.NewGateway(scriptedRunner{}, db, zap.NewNop().Sugar())
	srv := NewServer("127.0.0.1:0", gateway, zap.NewNop().Sugar())
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func TestChatEndpoint(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Post(ts.URL+"/api/agent/chat", "application/json",
		strings.NewReader(`{"message": "hello", "threadId": "t1"}`))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var body chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.ThreadID != "t1" || len(body.Messages) != 2 {
		t.Errorf("unexpected body: %+v", body)
	}
	if body.Messages[1].Content != "ok" {
		t.Errorf("reply = %q", body.Messages[1].Content)
	}
}

func TestChatEndpointRejectsEmptyMessage(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Post(ts.URL+"/api/agent/chat", "application/json",
		strings.NewReader(`{"message": ""}`))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestHistoryEndpointRoundTrip(t *testing.T) {
	ts := newTestServer(t)

	if _, err := http.Post(ts.URL+"/api/agent/chat", "application/json",
		strings.NewReader(`{"message": "hello", "threadId": "t1"}`)); err != nil {
		t.Fatal(err)
	}

	resp, err := http.Get(ts.URL + "/api/agent/history?threadId=t1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()

	var body chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Messages) != 2 {
		t.Errorf("history has %d messages, want 2", len(body.Messages))
	}
}

func TestHistoryEndpointEmptyThread(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/agent/history?threadId=never-seen")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var body chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Messages == nil || len(body.Messages) != 0 {
		t.Errorf("expected empty array, got %+v", body.Messages)
	}
}

func TestResetEndpoint(t *testing.T) {
	ts := newTestServer(t)

	if _, err := http.Post(ts.URL+"/api/agent/chat", "application/json",
		strings.NewReader(`{"message": "hello", "threadId": "t1"}`)); err != nil {
		t.Fatal(err)
	}

	req, _ := http.NewRequest(http.MethodDelete, ts.URL+"/api/agent/history?threadId=t1", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", resp.StatusCode)
	}

	check, err := http.Get(ts.URL + "/api/agent/history?threadId=t1")
	if err != nil {
		t.Fatal(err)
	}
	defer check.Body.Close()
	var body chatResponse
	if err := json.NewDecoder(check.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if len(body.Messages) != 0 {
		t.Errorf("history not cleared: %d messages", len(body.Messages))
	}
}

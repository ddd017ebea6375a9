// Package chat is the conversation entry point shared by the HTTP API and
// the console. It serializes turns per thread and persists what each turn
// produced.
package chat

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/BryanBorck/thry-ethdenver-2025/internal/core"
)

// DefaultThreadID is the thread used when the client does not manage its own
// threads, such as the interactive console.
const DefaultThreadID = "default"

// TurnRunner runs one conversation turn. Implemented by agent.Orchestrator.
type TurnRunner interface {
	RunTurn(ctx context.Context, threadID, userText string) ([]core.Message, error)
}

// Gateway owns turn serialization and transcript persistence. Two concurrent
// messages on the same thread run one after the other; distinct threads
// proceed independently.
type Gateway struct {
	runner TurnRunner
	store  core.TranscriptStore
	log    *zap.SugaredLogger

	mu      sync.Mutex
	threads map[string]*sync.Mutex
}

// NewGateway builds a gateway over the runner and store.
func NewGateway(runner TurnRunner, store core.TranscriptStore, log *zap.SugaredLogger) *Gateway {
	return &Gateway{
		runner:  runner,
		store:   store,
		log:     log,
		threads: make(map[string]*sync.Mutex),
	}
}

func (g *Gateway) threadLock(threadID string) *sync.Mutex {
	g.mu.Lock()
	defer g.mu.Unlock()
	lock, ok := g.threads[threadID]
	if !ok {
		lock = &sync.Mutex{}
		g.threads[threadID] = lock
	}
	return lock
}

// HandleMessage runs one turn and appends everything it produced to the
// transcript, in order. The returned slice carries store-assigned sequence
// numbers. A persistence failure aborts the append midway and is returned;
// messages already written stay written.
func (g *Gateway) HandleMessage(ctx context.Context, threadID, text string) ([]core.Message, error) {
	if threadID == "" {
		threadID = DefaultThreadID
	}
	if text == "" {
		return nil, fmt.Errorf("empty message")
	}

	lock := g.threadLock(threadID)
	lock.Lock()
	defer lock.Unlock()

	msgs, err := g.runner.RunTurn(ctx, threadID, text)
	if err != nil {
		return nil, err
	}

	for i := range msgs {
		if err := g.store.Append(ctx, threadID, &msgs[i]); err != nil {
			g.log.Errorw("transcript append failed", "thread", threadID, "error", err)
			return msgs[:i], fmt.Errorf("persist turn: %w", err)
		}
	}

	g.log.Infow("turn complete", "thread", threadID, "messages", len(msgs))
	return msgs, nil
}

// History returns the full transcript of a thread.
func (g *Gateway) History(ctx context.Context, threadID string) ([]core.Message, error) {
	if threadID == "" {
		threadID = DefaultThreadID
	}
	return g.store.LoadAll(ctx, threadID)
}

// Reset clears a thread's transcript.
func (g *Gateway) Reset(ctx context.Context, threadID string) error {
	if threadID == "" {
		threadID = DefaultThreadID
	}

	lock := g.threadLock(threadID)
	lock.Lock()
	defer lock.Unlock()

	return g.store.Clear(ctx, threadID)
}

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/BryanBorck/thry-ethdenver-2025/internal/core"
)

var _ core.TranscriptStore = (*DB)(nil)

// Append writes one message to the end of a thread's transcript. The store
// assigns Seq (per-thread, starting at 1) and fills it in on msg, along with
// the row id and CreatedAt when unset.
func (db *DB) Append(ctx context.Context, threadID string, msg *core.Message) error {
	db.appendMu.Lock()
	defer db.appendMu.Unlock()

	toolCalls := ""
	if len(msg.ToolCalls) > 0 {
		b, err := json.Marshal(msg.ToolCalls)
		if err != nil {
			return fmt.Errorf("encode tool calls: %w", err)
		}
		toolCalls = string(b)
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin append: %w", err)
	}
	defer tx.Rollback()

	var seq int64
	err = tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(seq), 0) + 1 FROM transcript WHERE thread_id = ?`, threadID).Scan(&seq)
	if err != nil {
		return fmt.Errorf("next seq: %w", err)
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO transcript (thread_id, seq, role, content, tool_calls, tool_call_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		threadID, seq, msg.Role, msg.Content, toolCalls, msg.ToolCallID, msg.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit append: %w", err)
	}

	msg.ThreadID = threadID
	msg.Seq = seq
	if id, err := res.LastInsertId(); err == nil {
		msg.ID = id
	}
	return nil
}

// LoadAll returns the full transcript of a thread in insertion order. An
// unknown thread yields an empty slice, not an error.
func (db *DB) LoadAll(ctx context.Context, threadID string) ([]core.Message, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, seq, role, content, tool_calls, tool_call_id, created_at
		 FROM transcript WHERE thread_id = ? ORDER BY seq ASC`, threadID)
	if err != nil {
		return nil, fmt.Errorf("load transcript: %w", err)
	}
	defer rows.Close()

	var msgs []core.Message
	for rows.Next() {
		var (
			msg       core.Message
			toolCalls string
		)
		if err := rows.Scan(&msg.ID, &msg.Seq, &msg.Role, &msg.Content, &toolCalls, &msg.ToolCallID, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		msg.ThreadID = threadID
		if toolCalls != "" {
			if err := json.Unmarshal([]byte(toolCalls), &msg.ToolCalls); err != nil {
				return nil, fmt.Errorf("decode tool calls of message %d: %w", msg.ID, err)
			}
		}
		msgs = append(msgs, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load transcript: %w", err)
	}
	return msgs, nil
}

// Clear deletes a thread's transcript. Subsequent appends restart at seq 1.
func (db *DB) Clear(ctx context.Context, threadID string) error {
	if _, err := db.conn.ExecContext(ctx,
		`DELETE FROM transcript WHERE thread_id = ?`, threadID); err != nil {
		return fmt.Errorf("clear transcript: %w", err)
	}
	return nil
}

// Threads lists the distinct thread ids present in the store.
func (db *DB) Threads(ctx context.Context) ([]string, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT DISTINCT thread_id FROM transcript ORDER BY thread_id`)
	if err != nil {
		return nil, fmt.Errorf("list threads: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan thread id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

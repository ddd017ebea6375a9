package store

const schema = `
CREATE TABLE IF NOT EXISTS transcript (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	thread_id    TEXT NOT NULL,
	seq          INTEGER NOT NULL,
	role         TEXT NOT NULL,
	content      TEXT NOT NULL DEFAULT '',
	tool_calls   TEXT NOT NULL DEFAULT '',
	tool_call_id TEXT NOT NULL DEFAULT '',
	created_at   TIMESTAMP NOT NULL,
	UNIQUE (thread_id, seq)
);

CREATE INDEX IF NOT EXISTS idx_transcript_thread ON transcript (thread_id, seq);
`

// Package storage provides SQLite schema definitions and migrations.
package storage

import (
	"database/sql"
	"fmt"
)

const schemaVersion = 1

// schema defines the complete database schema for the reasoning
// orchestration core. Sessions are the aggregate root; steps, synthesis
// versions, insights, actions, bias detections and monitoring events all
// hang off session_id. Chat turns are keyed by thread_id, which is
// shared across confer sessions as spec §4.1 requires.
const schema = `
CREATE TABLE IF NOT EXISTS schema_metadata (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS sessions (
    id TEXT PRIMARY KEY,
    kind TEXT NOT NULL,
    query TEXT NOT NULL,
    status TEXT NOT NULL,
    thread_id TEXT,
    non_durable INTEGER NOT NULL DEFAULT 0,
    created_at INTEGER NOT NULL,
    last_accessed INTEGER NOT NULL,
    completed_at INTEGER
);

CREATE TABLE IF NOT EXISTS steps (
    session_id TEXT NOT NULL,
    number INTEGER NOT NULL,
    kind TEXT NOT NULL,
    content TEXT NOT NULL,
    raw_output TEXT,
    model_id TEXT,
    confidence REAL NOT NULL DEFAULT 0.0,
    clarity REAL NOT NULL DEFAULT 0.0,
    elapsed_ms INTEGER NOT NULL DEFAULT 0,
    token_count INTEGER NOT NULL DEFAULT 0,
    metadata TEXT,
    revises_step INTEGER,
    branch_from_step INTEGER,
    branch_id TEXT,
    created_at INTEGER NOT NULL,
    PRIMARY KEY (session_id, number),
    FOREIGN KEY (session_id) REFERENCES sessions(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS synthesis_versions (
    session_id TEXT NOT NULL,
    version INTEGER NOT NULL,
    trigger_step INTEGER NOT NULL,
    current_understanding TEXT NOT NULL,
    confidence REAL NOT NULL,
    clarity REAL NOT NULL,
    ready_for_decision INTEGER NOT NULL DEFAULT 0,
    raw_delta TEXT,
    created_at INTEGER NOT NULL,
    PRIMARY KEY (session_id, version),
    FOREIGN KEY (session_id) REFERENCES sessions(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS insights (
    id TEXT PRIMARY KEY,
    session_id TEXT NOT NULL,
    text TEXT NOT NULL,
    confidence REAL NOT NULL,
    source_step INTEGER NOT NULL,
    evidence_supported INTEGER NOT NULL DEFAULT 0,
    created_at INTEGER NOT NULL,
    FOREIGN KEY (session_id) REFERENCES sessions(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS actions (
    id TEXT PRIMARY KEY,
    session_id TEXT NOT NULL,
    text TEXT NOT NULL,
    priority TEXT NOT NULL,
    rationale TEXT,
    depends_on TEXT,
    created_at INTEGER NOT NULL,
    FOREIGN KEY (session_id) REFERENCES sessions(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS bias_detections (
    session_id TEXT NOT NULL,
    step_number INTEGER NOT NULL,
    has_bias INTEGER NOT NULL,
    severity TEXT NOT NULL,
    bias_types TEXT,
    suggestions TEXT,
    confidence REAL NOT NULL,
    created_at INTEGER NOT NULL,
    PRIMARY KEY (session_id, step_number),
    FOREIGN KEY (session_id) REFERENCES sessions(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS monitoring_events (
    session_id TEXT NOT NULL,
    step_number INTEGER NOT NULL,
    kind TEXT NOT NULL,
    severity TEXT NOT NULL,
    intervention TEXT,
    payload TEXT,
    created_at INTEGER NOT NULL,
    FOREIGN KEY (session_id) REFERENCES sessions(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS chat_turns (
    thread_id TEXT NOT NULL,
    seq INTEGER NOT NULL,
    role TEXT NOT NULL,
    content TEXT NOT NULL,
    tool_origin TEXT,
    created_at INTEGER NOT NULL,
    PRIMARY KEY (thread_id, seq)
);

-- Full-text search index over step content, kept in sync by the triggers
-- below. No code in this module queries it; the Monitor's similarity
-- providers compute their scores in memory.
CREATE VIRTUAL TABLE IF NOT EXISTS steps_fts USING fts5(
    session_id UNINDEXED,
    number UNINDEXED,
    content,
    content='steps',
    content_rowid='rowid'
);

CREATE TRIGGER IF NOT EXISTS steps_fts_insert AFTER INSERT ON steps BEGIN
    INSERT INTO steps_fts(rowid, session_id, number, content) VALUES (new.rowid, new.session_id, new.number, new.content);
END;

CREATE TRIGGER IF NOT EXISTS steps_fts_delete AFTER DELETE ON steps BEGIN
    DELETE FROM steps_fts WHERE rowid = old.rowid;
END;

CREATE INDEX IF NOT EXISTS idx_steps_session ON steps(session_id);
CREATE INDEX IF NOT EXISTS idx_synthesis_session ON synthesis_versions(session_id, version DESC);
CREATE INDEX IF NOT EXISTS idx_insights_session ON insights(session_id);
CREATE INDEX IF NOT EXISTS idx_actions_session ON actions(session_id);
CREATE INDEX IF NOT EXISTS idx_bias_session ON bias_detections(session_id);
CREATE INDEX IF NOT EXISTS idx_monitoring_session ON monitoring_events(session_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_sessions_last_accessed ON sessions(last_accessed DESC);
CREATE INDEX IF NOT EXISTS idx_chat_turns_thread ON chat_turns(thread_id, seq);
`

// initializeSchema creates all tables and indexes.
func initializeSchema(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	var currentVersion int
	err := db.QueryRow("SELECT value FROM schema_metadata WHERE key = 'version'").Scan(&currentVersion)
	if err == sql.ErrNoRows {
		_, err = db.Exec("INSERT INTO schema_metadata (key, value) VALUES ('version', ?)", schemaVersion)
		if err != nil {
			return fmt.Errorf("failed to set schema version: %w", err)
		}
	} else if err != nil {
		return fmt.Errorf("failed to query schema version: %w", err)
	} else if currentVersion != schemaVersion {
		return fmt.Errorf("schema version mismatch: expected %d, got %d", schemaVersion, currentVersion)
	}

	return nil
}

// configureSQLite sets pragmas tuned for a single-process server with
// concurrent readers and a serialized writer per session.
func configureSQLite(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA cache_size = -64000",
		"PRAGMA foreign_keys = ON",
		"PRAGMA temp_store = MEMORY",
		"PRAGMA mmap_size = 268435456",
		"PRAGMA busy_timeout = 5000",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %s: %w", pragma, err)
		}
	}

	return nil
}

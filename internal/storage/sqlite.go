// Package storage provides SQLite persistent storage implementation.
package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"reasoning-orchestrator/internal/types"
)

// SQLiteStore implements the Store interface over SQLite with an
// in-memory write-through cache. Writes go to the database first, then
// mirror into the cache; reads are cache-first and fall back to the
// database on a cold cache (e.g. right after process restart), warming
// the cache as they go. This keeps hot-path reads (append_step,
// snapshot) off disk while persisting every mutation.
type SQLiteStore struct {
	db    *sql.DB
	cache *MemoryStore

	mu sync.Mutex // serializes writes to prepared statements

	stmtInsertSession     *sql.Stmt
	stmtTouchSession      *sql.Stmt
	stmtMarkStatus        *sql.Stmt
	stmtInsertStep        *sql.Stmt
	stmtInsertSynthesis   *sql.Stmt
	stmtInsertInsight     *sql.Stmt
	stmtInsertAction      *sql.Stmt
	stmtInsertBias        *sql.Stmt
	stmtInsertMonitoring  *sql.Stmt
	stmtInsertChatTurn    *sql.Stmt
}

// NewSQLiteStore opens (creating if absent) a SQLite database at path
// and configures it for the orchestration core's access pattern: many
// small writes serialized per session, concurrent reads.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("database path cannot be empty")
	}

	dsn := path + "?_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if err := configureSQLite(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to configure sqlite: %w", err)
	}
	if err := initializeSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	s := &SQLiteStore{db: db, cache: NewMemoryStore()}
	if err := s.prepareStatements(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to prepare statements: %w", err)
	}
	if err := s.warmCache(); err != nil {
		log.Printf("warning: failed to warm cache from sqlite: %v", err)
	}

	log.Printf("sqlite store initialized at %s", path)
	return s, nil
}

func (s *SQLiteStore) prepareStatements() error {
	var err error

	s.stmtInsertSession, err = s.db.Prepare(`
		INSERT INTO sessions (id, kind, query, status, thread_id, non_durable, created_at, last_accessed, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, NULL)
		ON CONFLICT(id) DO NOTHING
	`)
	if err != nil {
		return fmt.Errorf("prepare insert session: %w", err)
	}

	s.stmtTouchSession, err = s.db.Prepare(`UPDATE sessions SET last_accessed = ? WHERE id = ?`)
	if err != nil {
		return fmt.Errorf("prepare touch session: %w", err)
	}

	s.stmtMarkStatus, err = s.db.Prepare(`UPDATE sessions SET status = ?, completed_at = ? WHERE id = ?`)
	if err != nil {
		return fmt.Errorf("prepare mark status: %w", err)
	}

	s.stmtInsertStep, err = s.db.Prepare(`
		INSERT INTO steps (
			session_id, number, kind, content, raw_output, model_id, confidence, clarity,
			elapsed_ms, token_count, metadata, revises_step, branch_from_step, branch_id, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_id, number) DO NOTHING
	`)
	if err != nil {
		return fmt.Errorf("prepare insert step: %w", err)
	}

	s.stmtInsertSynthesis, err = s.db.Prepare(`
		INSERT INTO synthesis_versions (
			session_id, version, trigger_step, current_understanding, confidence, clarity,
			ready_for_decision, raw_delta, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_id, version) DO UPDATE SET
			current_understanding=excluded.current_understanding,
			confidence=excluded.confidence,
			clarity=excluded.clarity,
			ready_for_decision=excluded.ready_for_decision,
			raw_delta=excluded.raw_delta
	`)
	if err != nil {
		return fmt.Errorf("prepare insert synthesis: %w", err)
	}

	s.stmtInsertInsight, err = s.db.Prepare(`
		INSERT INTO insights (id, session_id, text, confidence, source_step, evidence_supported, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare insert insight: %w", err)
	}

	s.stmtInsertAction, err = s.db.Prepare(`
		INSERT INTO actions (id, session_id, text, priority, rationale, depends_on, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare insert action: %w", err)
	}

	s.stmtInsertBias, err = s.db.Prepare(`
		INSERT INTO bias_detections (session_id, step_number, has_bias, severity, bias_types, suggestions, confidence, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_id, step_number) DO UPDATE SET
			has_bias=excluded.has_bias, severity=excluded.severity,
			bias_types=excluded.bias_types, suggestions=excluded.suggestions,
			confidence=excluded.confidence
	`)
	if err != nil {
		return fmt.Errorf("prepare insert bias: %w", err)
	}

	s.stmtInsertMonitoring, err = s.db.Prepare(`
		INSERT INTO monitoring_events (session_id, step_number, kind, severity, intervention, payload, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare insert monitoring event: %w", err)
	}

	s.stmtInsertChatTurn, err = s.db.Prepare(`
		INSERT INTO chat_turns (thread_id, seq, role, content, tool_origin, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare insert chat turn: %w", err)
	}

	return nil
}

// warmCache loads recent sessions (and their steps/synthesis/thread)
// from disk into the in-memory cache so a restart doesn't force every
// subsequent read through SQLite.
func (s *SQLiteStore) warmCache() error {
	rows, err := s.db.Query(`SELECT id FROM sessions ORDER BY last_accessed DESC LIMIT 200`)
	if err != nil {
		return err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return err
		}
		ids = append(ids, id)
	}
	for _, id := range ids {
		session, err := s.fetchSession(id)
		if err != nil {
			continue
		}
		_ = s.cache.CreateSession(session)
	}
	return nil
}

// CreateSession persists a new session, idempotent on id.
func (s *SQLiteStore) CreateSession(session *types.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.stmtInsertSession.Exec(
		session.ID, string(session.Kind), session.Query, string(session.Status),
		threadIDOf(session), boolToInt(session.NonDurable),
		session.CreatedAt.Unix(), session.LastAccessed.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return s.cache.CreateSession(session)
}

func threadIDOf(session *types.Session) interface{} {
	if session.Thread == nil || session.Thread.ID == "" {
		return nil
	}
	return session.Thread.ID
}

// GetSessionByExternalID retrieves a session, cache-first.
func (s *SQLiteStore) GetSessionByExternalID(id string) (*types.Session, error) {
	if session, err := s.cache.GetSessionByExternalID(id); err == nil {
		return session, nil
	}

	session, err := s.fetchSession(id)
	if err != nil {
		return nil, err
	}
	_ = s.cache.CreateSession(session)
	return session, nil
}

func (s *SQLiteStore) fetchSession(id string) (*types.Session, error) {
	row := s.db.QueryRow(`SELECT id, kind, query, status, thread_id, non_durable, created_at, last_accessed, completed_at FROM sessions WHERE id = ?`, id)

	var (
		sessionID, kind, query, status string
		threadID                      sql.NullString
		nonDurable                    int
		createdAt, lastAccessed       int64
		completedAt                   sql.NullInt64
	)
	if err := row.Scan(&sessionID, &kind, &query, &status, &threadID, &nonDurable, &createdAt, &lastAccessed, &completedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("session not found: %s", id)
		}
		return nil, fmt.Errorf("fetch session: %w", err)
	}

	session := &types.Session{
		ID:           sessionID,
		Kind:         types.SessionKind(kind),
		Query:        query,
		Status:       types.SessionStatus(status),
		NonDurable:   nonDurable != 0,
		CreatedAt:    time.Unix(createdAt, 0),
		LastAccessed: time.Unix(lastAccessed, 0),
	}
	if completedAt.Valid {
		session.CompletedAt = time.Unix(completedAt.Int64, 0)
	}

	steps, err := s.fetchSteps(id)
	if err != nil {
		return nil, err
	}
	session.Steps = steps

	synthesis, err := s.fetchLatestSynthesis(id)
	if err != nil {
		return nil, err
	}
	session.Synthesis = synthesis

	if threadID.Valid {
		thread, err := s.fetchThread(threadID.String)
		if err == nil {
			session.Thread = thread
		}
	}

	return session, nil
}

// TouchSession updates the last-accessed timestamp.
func (s *SQLiteStore) TouchSession(id string) error {
	now := time.Now()
	s.mu.Lock()
	_, err := s.stmtTouchSession.Exec(now.Unix(), id)
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("touch session: %w", err)
	}
	return s.cache.TouchSession(id)
}

// MarkSessionStatus updates a session's status.
func (s *SQLiteStore) MarkSessionStatus(id string, status types.SessionStatus) error {
	var completedAt interface{}
	if status == types.StatusCompleted || status == types.StatusFailed {
		completedAt = time.Now().Unix()
	}

	s.mu.Lock()
	_, err := s.stmtMarkStatus.Exec(string(status), completedAt, id)
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("mark session status: %w", err)
	}
	return s.cache.MarkSessionStatus(id, status)
}

// EvictByTTL removes sessions last accessed at or before cutoff.
func (s *SQLiteStore) EvictByTTL(cutoff int64) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`SELECT id FROM sessions WHERE last_accessed <= ?`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("query evictable sessions: %w", err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		ids = append(ids, id)
	}
	rows.Close()

	if len(ids) == 0 {
		return nil, nil
	}
	if _, err := s.db.Exec(`DELETE FROM sessions WHERE last_accessed <= ?`, cutoff); err != nil {
		return nil, fmt.Errorf("delete evictable sessions: %w", err)
	}
	_, _ = s.cache.EvictByTTL(cutoff)
	return ids, nil
}

// AppendStep persists a step, idempotent on (session, number).
func (s *SQLiteStore) AppendStep(step *types.Step) error {
	metadataJSON, _ := json.Marshal(step.Metadata)

	var revises, branchFrom interface{}
	if step.RevisesStep != 0 {
		revises = step.RevisesStep
	}
	if step.BranchFromStep != 0 {
		branchFrom = step.BranchFromStep
	}
	var branchID interface{}
	if step.BranchID != "" {
		branchID = step.BranchID
	}

	s.mu.Lock()
	_, err := s.stmtInsertStep.Exec(
		step.SessionID, step.Number, string(step.Kind), step.Content, step.RawOutput, step.ModelID,
		step.Confidence, step.Clarity, step.ElapsedMS, step.TokenCount, string(metadataJSON),
		revises, branchFrom, branchID, step.CreatedAt.Unix(),
	)
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("insert step: %w", err)
	}
	return s.cache.AppendStep(step)
}

// ListSteps returns all steps for a session, cache-first.
func (s *SQLiteStore) ListSteps(sessionID string) ([]*types.Step, error) {
	if steps, err := s.cache.ListSteps(sessionID); err == nil {
		return steps, nil
	}
	return s.fetchSteps(sessionID)
}

func (s *SQLiteStore) fetchSteps(sessionID string) ([]*types.Step, error) {
	rows, err := s.db.Query(`
		SELECT session_id, number, kind, content, raw_output, model_id, confidence, clarity,
		       elapsed_ms, token_count, metadata, revises_step, branch_from_step, branch_id, created_at
		FROM steps WHERE session_id = ? ORDER BY number ASC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query steps: %w", err)
	}
	defer rows.Close()

	var steps []*types.Step
	for rows.Next() {
		step, err := scanStep(rows)
		if err != nil {
			return nil, err
		}
		steps = append(steps, step)
	}
	return steps, nil
}

func scanStep(row interface{ Scan(...interface{}) error }) (*types.Step, error) {
	var (
		sessionID, kind, content, rawOutput, modelID, metadataJSON string
		revises, branchFrom                                       sql.NullInt64
		branchID                                                  sql.NullString
		number                                                    int
		confidence, clarity                                       float64
		elapsedMS                                                 int64
		tokenCount                                                int
		createdAt                                                 int64
	)
	if err := row.Scan(&sessionID, &number, &kind, &content, &rawOutput, &modelID, &confidence, &clarity,
		&elapsedMS, &tokenCount, &metadataJSON, &revises, &branchFrom, &branchID, &createdAt); err != nil {
		return nil, fmt.Errorf("scan step: %w", err)
	}

	step := &types.Step{
		SessionID:  sessionID,
		Number:     number,
		Kind:       types.StepKind(kind),
		Content:    content,
		RawOutput:  rawOutput,
		ModelID:    modelID,
		Confidence: confidence,
		Clarity:    clarity,
		ElapsedMS:  elapsedMS,
		TokenCount: tokenCount,
		CreatedAt:  time.Unix(createdAt, 0),
	}
	if revises.Valid {
		step.RevisesStep = int(revises.Int64)
	}
	if branchFrom.Valid {
		step.BranchFromStep = int(branchFrom.Int64)
	}
	if branchID.Valid {
		step.BranchID = branchID.String
	}
	if metadataJSON != "" {
		_ = json.Unmarshal([]byte(metadataJSON), &step.Metadata)
	}
	return step, nil
}

// AppendSynthesisVersion persists a new synthesis version.
func (s *SQLiteStore) AppendSynthesisVersion(sessionID string, state *types.SynthesisState) error {
	s.mu.Lock()
	_, err := s.stmtInsertSynthesis.Exec(
		sessionID, state.Version, state.TriggerStep, state.CurrentUnderstanding,
		state.Confidence, state.Clarity, boolToInt(state.ReadyForDecision), state.RawDelta,
		state.CreatedAt.Unix(),
	)
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("insert synthesis version: %w", err)
	}
	return s.cache.AppendSynthesisVersion(sessionID, state)
}

// AppendInsight persists an insight under the session's current synthesis.
func (s *SQLiteStore) AppendInsight(sessionID string, insight *types.Insight) error {
	s.mu.Lock()
	_, err := s.stmtInsertInsight.Exec(
		insight.ID, sessionID, insight.Text, insight.Confidence, insight.SourceStep,
		boolToInt(insight.EvidenceSupported), time.Now().Unix(),
	)
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("insert insight: %w", err)
	}
	return s.cache.AppendInsight(sessionID, insight)
}

// AppendAction persists an action item under the session's current synthesis.
func (s *SQLiteStore) AppendAction(sessionID string, action *types.ActionItem) error {
	dependsOnJSON, _ := json.Marshal(action.DependsOn)

	s.mu.Lock()
	_, err := s.stmtInsertAction.Exec(
		action.ID, sessionID, action.Text, string(action.Priority), action.Rationale,
		string(dependsOnJSON), time.Now().Unix(),
	)
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("insert action: %w", err)
	}
	return s.cache.AppendAction(sessionID, action)
}

// LatestSynthesis returns the highest-versioned synthesis state, cache-first.
func (s *SQLiteStore) LatestSynthesis(sessionID string) (*types.SynthesisState, error) {
	if state, err := s.cache.LatestSynthesis(sessionID); err == nil && state != nil {
		return state, nil
	}
	return s.fetchLatestSynthesis(sessionID)
}

func (s *SQLiteStore) fetchLatestSynthesis(sessionID string) (*types.SynthesisState, error) {
	row := s.db.QueryRow(`
		SELECT version, trigger_step, current_understanding, confidence, clarity,
		       ready_for_decision, raw_delta, created_at
		FROM synthesis_versions WHERE session_id = ? ORDER BY version DESC LIMIT 1
	`, sessionID)

	var (
		version, triggerStep                int
		understanding, rawDelta              string
		confidence, clarity                  float64
		ready                                int
		createdAt                            int64
	)
	if err := row.Scan(&version, &triggerStep, &understanding, &confidence, &clarity, &ready, &rawDelta, &createdAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch latest synthesis: %w", err)
	}

	state := &types.SynthesisState{
		Version:              version,
		TriggerStep:          triggerStep,
		CurrentUnderstanding: understanding,
		Confidence:           confidence,
		Clarity:              clarity,
		ReadyForDecision:     ready != 0,
		RawDelta:             rawDelta,
		CreatedAt:            time.Unix(createdAt, 0),
	}

	insightRows, err := s.db.Query(`SELECT id, text, confidence, source_step, evidence_supported FROM insights WHERE session_id = ? ORDER BY created_at ASC`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query insights: %w", err)
	}
	for insightRows.Next() {
		var ins types.Insight
		var evidence int
		if err := insightRows.Scan(&ins.ID, &ins.Text, &ins.Confidence, &ins.SourceStep, &evidence); err != nil {
			insightRows.Close()
			return nil, err
		}
		ins.EvidenceSupported = evidence != 0
		state.Insights = append(state.Insights, &ins)
	}
	insightRows.Close()

	actionRows, err := s.db.Query(`SELECT id, text, priority, rationale, depends_on FROM actions WHERE session_id = ? ORDER BY created_at ASC`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query actions: %w", err)
	}
	for actionRows.Next() {
		var a types.ActionItem
		var priority, dependsOnJSON string
		if err := actionRows.Scan(&a.ID, &a.Text, &priority, &a.Rationale, &dependsOnJSON); err != nil {
			actionRows.Close()
			return nil, err
		}
		a.Priority = types.Priority(priority)
		if dependsOnJSON != "" {
			_ = json.Unmarshal([]byte(dependsOnJSON), &a.DependsOn)
		}
		state.Actions = append(state.Actions, &a)
	}
	actionRows.Close()

	return state, nil
}

// AppendBiasDetection persists a bias detection for a step.
func (s *SQLiteStore) AppendBiasDetection(sessionID string, detection *types.BiasDetection) error {
	biasTypesJSON, _ := json.Marshal(detection.BiasTypes)
	suggestionsJSON, _ := json.Marshal(detection.Suggestions)

	s.mu.Lock()
	_, err := s.stmtInsertBias.Exec(
		sessionID, detection.StepNumber, boolToInt(detection.HasBias), string(detection.Severity),
		string(biasTypesJSON), string(suggestionsJSON), detection.Confidence, detection.CreatedAt.Unix(),
	)
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("insert bias detection: %w", err)
	}
	return s.cache.AppendBiasDetection(sessionID, detection)
}

// AppendMonitoringEvent persists a monitoring event.
func (s *SQLiteStore) AppendMonitoringEvent(sessionID string, event *types.MonitoringEvent) error {
	payloadJSON, _ := json.Marshal(event.Payload)

	s.mu.Lock()
	_, err := s.stmtInsertMonitoring.Exec(
		sessionID, event.StepNumber, string(event.Kind), event.Severity, event.Intervention,
		string(payloadJSON), event.CreatedAt.Unix(),
	)
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("insert monitoring event: %w", err)
	}
	return s.cache.AppendMonitoringEvent(sessionID, event)
}

// RecentMonitoringEvents returns up to limit recent events, cache-first.
func (s *SQLiteStore) RecentMonitoringEvents(sessionID string, limit int) ([]*types.MonitoringEvent, error) {
	if events, err := s.cache.RecentMonitoringEvents(sessionID, limit); err == nil && len(events) > 0 {
		return events, nil
	}

	rows, err := s.db.Query(`
		SELECT step_number, kind, severity, intervention, payload, created_at
		FROM monitoring_events WHERE session_id = ? ORDER BY created_at DESC LIMIT ?
	`, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("query monitoring events: %w", err)
	}
	defer rows.Close()

	var events []*types.MonitoringEvent
	for rows.Next() {
		var e types.MonitoringEvent
		var kind, payloadJSON string
		var createdAt int64
		if err := rows.Scan(&e.StepNumber, &kind, &e.Severity, &e.Intervention, &payloadJSON, &createdAt); err != nil {
			return nil, err
		}
		e.Kind = types.MonitoringEventKind(kind)
		e.CreatedAt = time.Unix(createdAt, 0)
		if payloadJSON != "" {
			_ = json.Unmarshal([]byte(payloadJSON), &e.Payload)
		}
		events = append(events, &e)
	}
	return events, nil
}

// AppendChatMessage persists a thread turn.
func (s *SQLiteStore) AppendChatMessage(threadID string, turn *types.Turn) error {
	s.mu.Lock()
	var seq int
	row := s.db.QueryRow(`SELECT COALESCE(MAX(seq), -1) + 1 FROM chat_turns WHERE thread_id = ?`, threadID)
	if err := row.Scan(&seq); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("compute next turn seq: %w", err)
	}
	_, err := s.stmtInsertChatTurn.Exec(threadID, seq, turn.Role, turn.Content, turn.ToolOrigin, turn.Timestamp.Unix())
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("insert chat turn: %w", err)
	}
	return s.cache.AppendChatMessage(threadID, turn)
}

// GetThread retrieves a thread's full turn history, cache-first.
func (s *SQLiteStore) GetThread(threadID string) (*types.Thread, error) {
	if thread, err := s.cache.GetThread(threadID); err == nil {
		return thread, nil
	}
	return s.fetchThread(threadID)
}

func (s *SQLiteStore) fetchThread(threadID string) (*types.Thread, error) {
	rows, err := s.db.Query(`SELECT role, content, tool_origin, created_at FROM chat_turns WHERE thread_id = ? ORDER BY seq ASC`, threadID)
	if err != nil {
		return nil, fmt.Errorf("query chat turns: %w", err)
	}
	defer rows.Close()

	thread := &types.Thread{ID: threadID}
	found := false
	for rows.Next() {
		found = true
		var t types.Turn
		var createdAt int64
		if err := rows.Scan(&t.Role, &t.Content, &t.ToolOrigin, &createdAt); err != nil {
			return nil, err
		}
		t.Timestamp = time.Unix(createdAt, 0)
		thread.Turns = append(thread.Turns, &t)
	}
	if !found {
		return nil, fmt.Errorf("thread not found: %s", threadID)
	}
	return thread, nil
}

// GetMetrics returns aggregate usage metrics from the cache.
func (s *SQLiteStore) GetMetrics() *Metrics {
	return s.cache.GetMetrics()
}

// Close closes prepared statements and the underlying database handle.
func (s *SQLiteStore) Close() error {
	stmts := []*sql.Stmt{
		s.stmtInsertSession, s.stmtTouchSession, s.stmtMarkStatus, s.stmtInsertStep,
		s.stmtInsertSynthesis, s.stmtInsertInsight, s.stmtInsertAction, s.stmtInsertBias,
		s.stmtInsertMonitoring, s.stmtInsertChatTurn,
	}
	for _, stmt := range stmts {
		if stmt != nil {
			_ = stmt.Close()
		}
	}
	return s.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

var _ Store = (*SQLiteStore)(nil)

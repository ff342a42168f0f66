package session

import (
	"sync"
	"time"

	"reasoning-orchestrator/internal/storage"
	"reasoning-orchestrator/internal/types"
)

// ThreadRegistry owns live Threads, the chat-continuation mechanism that
// lets confer and any other tool share conversational context across
// tool boundaries via a single continuation id (spec §4.5 scenario 4).
// It is deliberately separate from Manager: a Thread has no monitor or
// synthesis state and outlives any one tool-kind Session.
type ThreadRegistry struct {
	store storage.Store

	mu      sync.Mutex
	threads map[string]*types.Thread
}

// NewThreadRegistry builds a registry bridging to store (optional, nil
// degrades to in-memory only).
func NewThreadRegistry(store storage.Store) *ThreadRegistry {
	return &ThreadRegistry{store: store, threads: make(map[string]*types.Thread)}
}

// GetOrCreate resolves id to a live Thread, loading from persistence, or
// creating a Thread under id when it is not yet seen; an empty id mints a
// fresh thread id.
func (r *ThreadRegistry) GetOrCreate(id string) (*types.Thread, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if id != "" {
		if t, ok := r.threads[id]; ok {
			return t, false, nil
		}
		if r.store != nil {
			if t, err := r.store.GetThread(id); err == nil && t != nil {
				r.threads[id] = t
				return t, false, nil
			}
		}
		t := &types.Thread{ID: id}
		r.threads[id] = t
		return t, true, nil
	}

	t := &types.Thread{ID: NewThreadID()}
	r.threads[t.ID] = t
	return t, true, nil
}

// Lookup returns a live Thread without creating one, used to tell a
// missing continuation id apart from a known thread id a Session lookup
// failed to resolve (spec §4.5 scenario 4's cross-tool seeding path).
func (r *ThreadRegistry) Lookup(id string) (*types.Thread, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.threads[id]
	return t, ok
}

// AppendTurn records a turn on the thread and mirrors it to persistence.
func (r *ThreadRegistry) AppendTurn(t *types.Thread, role, content, toolOrigin string) {
	turn := &types.Turn{Role: role, Content: content, ToolOrigin: toolOrigin, Timestamp: time.Now()}

	r.mu.Lock()
	t.Turns = append(t.Turns, turn)
	r.mu.Unlock()

	if r.store != nil {
		_ = r.store.AppendChatMessage(t.ID, turn)
	}
}

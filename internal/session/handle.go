package session

import (
	"sync"

	"reasoning-orchestrator/internal/types"
)

// Handle is the scoped, mutually-exclusive handle spec §3's "Ownership"
// paragraph requires: every subsystem that touches a live Session does so
// through one of these, never by holding a raw *types.Session pointer
// across a suspension point without the lock held.
type Handle struct {
	mu      sync.Mutex
	session *types.Session
	lineage *LineageGraph
}

func newHandle(s *types.Session) *Handle {
	return &Handle{session: s, lineage: NewLineageGraph()}
}

// Lock acquires the per-session mutex, serializing operations on this
// session per spec §5's scheduling model. Callers must Unlock.
func (h *Handle) Lock() { h.mu.Lock() }

// Unlock releases the per-session mutex.
func (h *Handle) Unlock() { h.mu.Unlock() }

// Session returns the live session record. Callers must hold Lock.
func (h *Handle) Session() *types.Session { return h.session }

// Lineage returns the session's step-lineage graph. Callers must hold Lock.
func (h *Handle) Lineage() *LineageGraph { return h.lineage }

package server

import (
	"reasoning-orchestrator/internal/apperr"
	"reasoning-orchestrator/internal/session"
	"reasoning-orchestrator/internal/types"
)

// resolveSession gets or creates a session of kind for continuationID.
// When continuationID names a live Thread rather than a Session (spec
// §4.5 scenario 4: a confer thread id handed to traced_reasoning), a
// fresh session is created instead and the thread is returned for
// context seeding rather than surfacing UnknownSession.
func (s *Server) resolveSession(kind types.SessionKind, query, continuationID string) (*session.Handle, *types.Thread, error) {
	h, err := s.sessions.GetOrCreate(kind, query, continuationID)
	if err == nil {
		return h, nil, nil
	}
	if continuationID == "" || !apperr.Is(err, apperr.KindUnknownSession) {
		return nil, nil, err
	}
	if thread, ok := s.threads.Lookup(continuationID); ok {
		h, ferr := s.sessions.GetOrCreate(kind, query, "")
		if ferr != nil {
			return nil, nil, ferr
		}
		return h, thread, nil
	}
	return nil, nil, err
}

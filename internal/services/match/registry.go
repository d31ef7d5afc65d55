package match

import (
	"log/slog"

	"github.com/mcoot/pongduel-go/internal/model"
)

// Registry tracks active match sessions by session id and by participant.
// Both lookups are O(1). Owned by the orchestrator event loop; no locking.
type Registry struct {
	byID     map[model.MatchID]*Session
	byPlayer map[model.PlayerID]model.MatchID
	logger   *slog.Logger
}

// NewRegistry creates an empty match registry
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		byID:     make(map[model.MatchID]*Session),
		byPlayer: make(map[model.PlayerID]model.MatchID),
		logger:   logger.With(slog.String("component", "match-registry")),
	}
}

// Add registers a session. It fails with ErrPlayerInMatch if either
// participant is already mapped to a session: that is an upstream pairing
// bug, not a user-facing condition, and callers must surface it loudly.
func (r *Registry) Add(s *Session) error {
	a, b := s.PlayerA().ID, s.PlayerB().ID
	if _, ok := r.byPlayer[a]; ok {
		return model.ErrPlayerInMatch
	}
	if _, ok := r.byPlayer[b]; ok {
		return model.ErrPlayerInMatch
	}

	r.byID[s.ID] = s
	r.byPlayer[a] = s.ID
	r.byPlayer[b] = s.ID
	return nil
}

// Get returns the session with the given id
func (r *Registry) Get(id model.MatchID) (*Session, bool) {
	s, ok := r.byID[id]
	return s, ok
}

// GetByParticipant returns the session a player participates in
func (r *Registry) GetByParticipant(player model.PlayerID) (*Session, bool) {
	id, ok := r.byPlayer[player]
	if !ok {
		return nil, false
	}
	s, ok := r.byID[id]
	return s, ok
}

// Remove unregisters a session and both participant mappings. Idempotent.
func (r *Registry) Remove(id model.MatchID) {
	s, ok := r.byID[id]
	if !ok {
		return
	}
	delete(r.byID, id)
	delete(r.byPlayer, s.PlayerA().ID)
	delete(r.byPlayer, s.PlayerB().ID)
}

// Len returns the number of active sessions
func (r *Registry) Len() int {
	return len(r.byID)
}

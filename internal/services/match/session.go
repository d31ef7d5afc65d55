package match

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/mcoot/pongduel-go/internal/dependencies/clock"
	"github.com/mcoot/pongduel-go/internal/engine"
	"github.com/mcoot/pongduel-go/internal/model"
)

// Sender delivers outbound protocol events to one live connection.
// Implementations must not block; a closed connection silently drops.
type Sender interface {
	SendEvent(event model.EventType, data any)
}

// Participant is one of the two sides of a match session
type Participant struct {
	Player model.Player
	Conn   Sender
}

// Session is one active two-player pairing. It owns exactly two participant
// slots, relays movement payloads between them while active, and produces a
// single MatchRecord on termination. Sessions are owned by the orchestrator
// event loop and are not safe for concurrent use.
type Session struct {
	ID   model.MatchID
	Mode model.Mode

	state  model.MatchState
	a, b   Participant
	joined map[model.PlayerID]bool

	scoreA, scoreB int
	startedAt      time.Time

	engine engine.Engine
	clock  clock.Clock
	logger *slog.Logger
}

// NewSession creates a session in the pending state. The caller guarantees
// the two participants are distinct and each hold a live connection.
func NewSession(
	id model.MatchID,
	mode model.Mode,
	a, b Participant,
	eng engine.Engine,
	clock clock.Clock,
	logger *slog.Logger,
) *Session {
	return &Session{
		ID:     id,
		Mode:   mode,
		state:  model.MatchStatePending,
		a:      a,
		b:      b,
		joined: make(map[model.PlayerID]bool, 2),
		engine: eng,
		clock:  clock,
		logger: logger.With(slog.String("match_id", string(id))),
	}
}

// State returns the session's current phase
func (s *Session) State() model.MatchState {
	return s.state
}

// Scores returns the running score pair
func (s *Session) Scores() (a, b int) {
	return s.scoreA, s.scoreB
}

// PlayerA returns the identity in slot A
func (s *Session) PlayerA() model.Player { return s.a.Player }

// PlayerB returns the identity in slot B
func (s *Session) PlayerB() model.Player { return s.b.Player }

// HasParticipant reports whether the player occupies one of the two slots
func (s *Session) HasParticipant(id model.PlayerID) bool {
	return s.a.Player.ID == id || s.b.Player.ID == id
}

// Side returns the slot a participant occupies
func (s *Session) Side(id model.PlayerID) (model.Slot, bool) {
	switch id {
	case s.a.Player.ID:
		return model.SlotA, true
	case s.b.Player.ID:
		return model.SlotB, true
	default:
		return "", false
	}
}

// Opponent returns the participant opposite the given player
func (s *Session) Opponent(id model.PlayerID) (Participant, bool) {
	switch id {
	case s.a.Player.ID:
		return s.b, true
	case s.b.Player.ID:
		return s.a, true
	default:
		return Participant{}, false
	}
}

// Join marks a participant's connection as having entered the session's
// logical room. When both have joined, the session activates and both
// participants receive gameReady. Joins outside the pending state are no-ops.
func (s *Session) Join(id model.PlayerID) {
	if s.state != model.MatchStatePending || !s.HasParticipant(id) {
		return
	}

	s.joined[id] = true
	if !s.joined[s.a.Player.ID] || !s.joined[s.b.Player.ID] {
		return
	}

	s.state = model.MatchStateActive
	s.startedAt = s.clock.Now()

	s.a.Conn.SendEvent(model.EventGameReady, model.GameReadyPayload{
		SessionID:    s.ID,
		Mode:         s.Mode,
		Side:         model.SlotA,
		OpponentID:   s.b.Player.ID,
		OpponentName: s.b.Player.DisplayName,
	})
	s.b.Conn.SendEvent(model.EventGameReady, model.GameReadyPayload{
		SessionID:    s.ID,
		Mode:         s.Mode,
		Side:         model.SlotB,
		OpponentID:   s.a.Player.ID,
		OpponentName: s.a.Player.DisplayName,
	})

	s.logger.Info("match activated",
		slog.Int64("player_a", int64(s.a.Player.ID)),
		slog.Int64("player_b", int64(s.b.Player.ID)),
		slog.String("mode", string(s.Mode)))
}

// Relay forwards a movement payload from one participant to the other,
// verbatim, and feeds it to the gameplay engine. If the engine signals
// termination the session finishes and the resulting record is returned.
// Payloads outside the active state are dropped with ErrMatchNotActive.
func (s *Session) Relay(from model.PlayerID, payload json.RawMessage) (*model.MatchRecord, error) {
	if s.state != model.MatchStateActive {
		return nil, model.ErrMatchNotActive
	}
	opp, ok := s.Opponent(from)
	if !ok {
		return nil, model.ErrNotInMatch
	}

	opp.Conn.SendEvent(model.EventPaddleMove, payload)

	sig := s.engine.Apply(payload)
	s.scoreA, s.scoreB = sig.ScoreA, sig.ScoreB
	if !sig.Done {
		return nil, nil
	}
	return s.finish(model.EndReasonScore), nil
}

// Forfeit terminates the session with the remaining participant as winner.
// Used for voluntary leaves and disconnects; valid from pending or active.
// Returns nil if the session is already finished.
func (s *Session) Forfeit(leaver model.PlayerID, reason model.EndReason) *model.MatchRecord {
	if s.state == model.MatchStateFinished {
		return nil
	}
	side, ok := s.Side(leaver)
	if !ok {
		return nil
	}

	sig := s.engine.Forfeit(side.Opposite())
	s.scoreA, s.scoreB = sig.ScoreA, sig.ScoreB
	return s.finish(reason)
}

// finish transitions to the terminal state, notifies both participants and
// builds the record to persist. Called at most once.
func (s *Session) finish(reason model.EndReason) *model.MatchRecord {
	s.state = model.MatchStateFinished
	now := s.clock.Now()

	rec := &model.MatchRecord{
		MatchID:   s.ID,
		PlayerA:   s.a.Player.ID,
		PlayerB:   s.b.Player.ID,
		ScoreA:    s.scoreA,
		ScoreB:    s.scoreB,
		Mode:      s.Mode,
		StartedAt: s.startedAt,
		EndedAt:   now,
		Status:    model.RecordStatusFinished,
		Reason:    reason,
	}

	over := model.GameOverPayload{
		SessionID: s.ID,
		ScoreA:    s.scoreA,
		ScoreB:    s.scoreB,
		WinnerID:  rec.Winner(),
		Reason:    reason,
	}
	s.a.Conn.SendEvent(model.EventGameOver, over)
	s.b.Conn.SendEvent(model.EventGameOver, over)

	s.logger.Info("match finished",
		slog.Int("score_a", s.scoreA),
		slog.Int("score_b", s.scoreB),
		slog.String("reason", string(reason)))
	return rec
}

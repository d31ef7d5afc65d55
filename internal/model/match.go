package model

import "time"

// MatchID uniquely identifies a match session
type MatchID string

// Mode is the named game variant used as the matchmaking partition key
type Mode string

// ModeClassic is the default pong variant
const ModeClassic Mode = "classic"

// MatchState represents the current phase of a match session
type MatchState string

const (
	MatchStatePending  MatchState = "pending"  // participants paired, relay not yet enabled
	MatchStateActive   MatchState = "active"   // gameplay relay enabled
	MatchStateFinished MatchState = "finished" // terminal
)

// Slot identifies one of the two participant positions in a match
type Slot string

const (
	SlotA Slot = "a"
	SlotB Slot = "b"
)

// Opposite returns the other participant slot
func (s Slot) Opposite() Slot {
	if s == SlotA {
		return SlotB
	}
	return SlotA
}

// EndReason describes why a match session terminated
type EndReason string

const (
	EndReasonScore   EndReason = "score"   // gameplay engine signalled completion
	EndReasonLeave   EndReason = "leave"   // a participant left voluntarily
	EndReasonForfeit EndReason = "forfeit" // a participant disconnected
)

// RecordStatusFinished is the status written for every persisted result
const RecordStatusFinished = "FINISHED"

// MatchRecord is the persisted outcome of a finished match session.
// Written exactly once per session.
type MatchRecord struct {
	MatchID   MatchID
	PlayerA   PlayerID
	PlayerB   PlayerID
	ScoreA    int
	ScoreB    int
	Mode      Mode
	StartedAt time.Time
	EndedAt   time.Time
	Status    string
	Reason    EndReason
}

// Winner returns the participant with the higher score, or 0 on a tie
func (r *MatchRecord) Winner() PlayerID {
	switch {
	case r.ScoreA > r.ScoreB:
		return r.PlayerA
	case r.ScoreB > r.ScoreA:
		return r.PlayerB
	default:
		return 0
	}
}

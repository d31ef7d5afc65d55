// Package engine defines the capability interface the match session uses to
// observe the gameplay simulation. The orchestration layer never computes
// physics; it relays opaque input payloads and reacts to a termination
// signal carrying the final score pair.
package engine

import (
	"encoding/json"

	"github.com/mcoot/pongduel-go/internal/model"
)

// DefaultWinningScore is the score threshold for the default engine
const DefaultWinningScore = 11

// Signal is the engine's verdict after observing an input payload
type Signal struct {
	Done   bool
	ScoreA int
	ScoreB int
}

// Engine observes the relayed gameplay traffic of one match session.
// Implementations must be cheap: Apply runs inline in the relay path.
type Engine interface {
	// Apply feeds one relayed payload to the engine and returns the current
	// verdict. Once Done is returned the scores are final.
	Apply(payload json.RawMessage) Signal

	// Forfeit returns the final verdict when the given slot wins by forfeit
	Forfeit(winner model.Slot) Signal
}

// Factory creates an engine for a new match session in the given mode
type Factory func(mode model.Mode) Engine

// ScoreWatcher is the default Engine. It watches for goal reports embedded
// in the relayed payloads ({"goal": "a"} / {"goal": "b"}) and signals
// termination when either side reaches the winning score. Every other
// payload shape passes through untouched.
type ScoreWatcher struct {
	target int
	scoreA int
	scoreB int
}

// NewScoreWatcher creates a ScoreWatcher ending at the given score.
// A non-positive target falls back to DefaultWinningScore.
func NewScoreWatcher(target int) *ScoreWatcher {
	if target <= 0 {
		target = DefaultWinningScore
	}
	return &ScoreWatcher{target: target}
}

var _ Engine = (*ScoreWatcher)(nil)

// Apply implements Engine
func (e *ScoreWatcher) Apply(payload json.RawMessage) Signal {
	var report struct {
		Goal string `json:"goal"`
	}
	// Movement payloads without a goal field are not score events
	if err := json.Unmarshal(payload, &report); err == nil {
		switch model.Slot(report.Goal) {
		case model.SlotA:
			e.scoreA++
		case model.SlotB:
			e.scoreB++
		}
	}

	return Signal{
		Done:   e.scoreA >= e.target || e.scoreB >= e.target,
		ScoreA: e.scoreA,
		ScoreB: e.scoreB,
	}
}

// Forfeit implements Engine. The winner is awarded the winning score; the
// loser keeps whatever they had, which is always strictly lower.
func (e *ScoreWatcher) Forfeit(winner model.Slot) Signal {
	if winner == model.SlotA {
		e.scoreA = e.target
	} else {
		e.scoreB = e.target
	}
	return Signal{Done: true, ScoreA: e.scoreA, ScoreB: e.scoreB}
}

// DefaultFactory builds ScoreWatchers for every mode
func DefaultFactory(mode model.Mode) Engine {
	return NewScoreWatcher(DefaultWinningScore)
}

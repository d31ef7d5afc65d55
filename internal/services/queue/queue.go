package queue

import (
	"log/slog"

	"github.com/mcoot/pongduel-go/internal/model"
)

// Queue is the matchmaking waiting list, partitioned by mode.
// It is owned exclusively by the orchestrator's event loop and therefore
// carries no internal locking. Ordering is FIFO within a mode; a player may
// wait in at most one mode at a time.
type Queue struct {
	entries  []entry
	byPlayer map[model.PlayerID]model.Mode
	logger   *slog.Logger
}

type entry struct {
	player model.PlayerID
	mode   model.Mode
}

// New creates an empty matchmaking queue
func New(logger *slog.Logger) *Queue {
	return &Queue{
		byPlayer: make(map[model.PlayerID]model.Mode),
		logger:   logger.With(slog.String("component", "queue")),
	}
}

// Enqueue adds a player to the waiting list for a mode.
// Returns ErrAlreadyQueued if the player is waiting in any mode; the queue
// state is left unchanged in that case.
func (q *Queue) Enqueue(player model.PlayerID, mode model.Mode) error {
	if _, ok := q.byPlayer[player]; ok {
		return model.ErrAlreadyQueued
	}

	q.entries = append(q.entries, entry{player: player, mode: mode})
	q.byPlayer[player] = mode

	q.logger.Debug("player enqueued",
		slog.Int64("player_id", int64(player)),
		slog.String("mode", string(mode)),
		slog.Int("waiting", len(q.entries)))
	return nil
}

// Dequeue removes a player's queue entry if present. Idempotent.
func (q *Queue) Dequeue(player model.PlayerID) {
	if _, ok := q.byPlayer[player]; !ok {
		return
	}

	for i, e := range q.entries {
		if e.player == player {
			q.entries = append(q.entries[:i], q.entries[i+1:]...)
			break
		}
	}
	delete(q.byPlayer, player)
}

// TryPair removes and returns the two longest-waiting players for a mode.
// Returns ok=false without modifying the queue when fewer than two players
// are waiting in that mode.
func (q *Queue) TryPair(mode model.Mode) (a, b model.PlayerID, ok bool) {
	first := -1
	for i, e := range q.entries {
		if e.mode != mode {
			continue
		}
		if first == -1 {
			first = i
			continue
		}

		a, b = q.entries[first].player, e.player
		// Remove the later index first so the earlier one stays valid
		q.entries = append(q.entries[:i], q.entries[i+1:]...)
		q.entries = append(q.entries[:first], q.entries[first+1:]...)
		delete(q.byPlayer, a)
		delete(q.byPlayer, b)

		q.logger.Debug("players paired",
			slog.Int64("player_a", int64(a)),
			slog.Int64("player_b", int64(b)),
			slog.String("mode", string(mode)))
		return a, b, true
	}
	return 0, 0, false
}

// Contains reports whether a player is waiting in any mode
func (q *Queue) Contains(player model.PlayerID) bool {
	_, ok := q.byPlayer[player]
	return ok
}

// Len returns the total number of waiting players across all modes
func (q *Queue) Len() int {
	return len(q.entries)
}

package realtime

import (
	"log/slog"

	"github.com/mcoot/pongduel-go/internal/model"
)

// ConnRegistry tracks the single live connection per player. Owned by the
// orchestrator event loop; no locking.
type ConnRegistry struct {
	clients map[model.PlayerID]Client
	logger  *slog.Logger
}

// NewConnRegistry creates an empty connection registry
func NewConnRegistry(logger *slog.Logger) *ConnRegistry {
	return &ConnRegistry{
		clients: make(map[model.PlayerID]Client),
		logger:  logger.With(slog.String("component", "conn-registry")),
	}
}

// Register records a player's connection. A player may hold at most one;
// a second registration fails with ErrDuplicateConnection and the existing
// connection is untouched.
func (r *ConnRegistry) Register(c Client) error {
	id := c.Player().ID
	if _, ok := r.clients[id]; ok {
		return model.ErrDuplicateConnection
	}
	r.clients[id] = c

	r.logger.Debug("connection registered",
		slog.Int64("player_id", int64(id)),
		slog.Int("online", len(r.clients)))
	return nil
}

// Unregister removes a player's connection, but only if it is the given
// one. A stale unregister from an already-replaced connection is a no-op.
func (r *ConnRegistry) Unregister(playerID model.PlayerID, c Client) {
	if current, ok := r.clients[playerID]; ok && current == c {
		delete(r.clients, playerID)
	}
}

// Lookup returns the live connection for a player
func (r *ConnRegistry) Lookup(playerID model.PlayerID) (Client, bool) {
	c, ok := r.clients[playerID]
	return c, ok
}

// Len returns the number of connected players
func (r *ConnRegistry) Len() int {
	return len(r.clients)
}

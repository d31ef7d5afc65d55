package storage

import (
	"context"

	"github.com/mcoot/pongduel-go/internal/model"
)

// Storage defines the interface for data persistence
type Storage interface {
	// Player operations
	AllocatePlayerID(ctx context.Context) (model.PlayerID, error)
	SavePlayer(ctx context.Context, player *model.Player) error
	GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error)
	DeletePlayer(ctx context.Context, id model.PlayerID) error

	// Registered player operations
	SaveRegisteredPlayer(ctx context.Context, rp *model.RegisteredPlayer) error
	GetRegisteredPlayer(ctx context.Context, playerID model.PlayerID) (*model.RegisteredPlayer, error)
	GetRegisteredPlayerByUsername(ctx context.Context, username string) (*model.RegisteredPlayer, error)

	// Match record operations
	SaveMatchRecord(ctx context.Context, rec *model.MatchRecord) error
	GetMatchRecord(ctx context.Context, id model.MatchID) (*model.MatchRecord, error)
	ListMatchRecordsForPlayer(ctx context.Context, playerID model.PlayerID) ([]*model.MatchRecord, error)
}

package redis

import (
	"fmt"

	"github.com/mcoot/pongduel-go/internal/model"
)

// Key prefix for all game-related data
const keyPrefix = "pongduel"

// playerSeqKey returns the Redis key for the player id sequence counter
func playerSeqKey() string {
	return fmt.Sprintf("%s:seq:player_id", keyPrefix)
}

// playerKey returns the Redis key for a Player
func playerKey(id model.PlayerID) string {
	return fmt.Sprintf("%s:player:%d", keyPrefix, id)
}

// registeredPlayerKey returns the Redis key for a RegisteredPlayer
func registeredPlayerKey(playerID model.PlayerID) string {
	return fmt.Sprintf("%s:registered_player:%d", keyPrefix, playerID)
}

// usernameIndexKey returns the Redis key for the username -> player_id index
func usernameIndexKey(username string) string {
	return fmt.Sprintf("%s:idx:username:%s", keyPrefix, username)
}

// matchRecordKey returns the Redis key for a MatchRecord
func matchRecordKey(id model.MatchID) string {
	return fmt.Sprintf("%s:match:%s", keyPrefix, id)
}

// matchesForPlayerIndexKey returns the Redis key for the LIST of match ids a
// player participated in, most recent first
func matchesForPlayerIndexKey(playerID model.PlayerID) string {
	return fmt.Sprintf("%s:idx:matches_for_player:%d", keyPrefix, playerID)
}

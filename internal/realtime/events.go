package realtime

import (
	"encoding/json"

	"github.com/mcoot/pongduel-go/internal/model"
)

// Events consumed by the orchestrator loop. Every mutation of matchmaking,
// invitation or match state flows through exactly one of these.

// connectEvent registers a new connection. Registration is synchronous: the
// handler goroutine blocks on reply so a duplicate connection can be
// rejected before the read pump starts.
type connectEvent struct {
	client Client
	reply  chan error
}

// disconnectEvent tears down a connection's presence. The client is carried
// so a stale disconnect (the player already reconnected) can be detected
// and ignored.
type disconnectEvent struct {
	playerID model.PlayerID
	client   Client
}

type joinQueueEvent struct {
	client Client
	mode   model.Mode
}

type leaveQueueEvent struct {
	client Client
}

type inviteEvent struct {
	client Client
	target model.PlayerID
	mode   model.Mode
}

type acceptInviteEvent struct {
	client       Client
	invitationID model.InvitationID
}

type declineInviteEvent struct {
	client       Client
	invitationID model.InvitationID
}

type moveEvent struct {
	client  Client
	payload json.RawMessage
}

type leaveGameEvent struct {
	client    Client
	sessionID model.MatchID
}

// sweepEvent triggers the periodic expired-invitation sweep
type sweepEvent struct{}

// statsEvent requests a state snapshot for the health endpoint
type statsEvent struct {
	reply chan Stats
}

package invite

import (
	"log/slog"
	"time"

	"github.com/mcoot/pongduel-go/internal/dependencies/clock"
	"github.com/mcoot/pongduel-go/internal/dependencies/random"
	"github.com/mcoot/pongduel-go/internal/model"
)

const (
	// IDLength is the length of the random part of invitation ids
	IDLength = 16
	// IDAlphabet is the characters used in invitation ids
	IDAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
)

// Config holds configuration for the invitation broker
type Config struct {
	// TTL is how long an invitation stays acceptable. Zero disables expiry.
	TTL time.Duration
}

// DefaultConfig returns default broker configuration
func DefaultConfig() Config {
	return Config{
		TTL: 2 * time.Minute,
	}
}

// Broker holds pending one-to-one game invitations. Like the matchmaking
// queue it is owned by the orchestrator's event loop and is not safe for
// concurrent use.
type Broker struct {
	invites map[model.InvitationID]*model.Invitation
	clock   clock.Clock
	random  random.Random
	ttl     time.Duration
	logger  *slog.Logger
}

// New creates an empty invitation broker
func New(clock clock.Clock, random random.Random, cfg Config, logger *slog.Logger) *Broker {
	return &Broker{
		invites: make(map[model.InvitationID]*model.Invitation),
		clock:   clock,
		random:  random,
		ttl:     cfg.TTL,
		logger:  logger.With(slog.String("component", "invites")),
	}
}

// Create records a new invitation from one player to another.
// The caller is responsible for verifying the invitee has a live connection.
func (b *Broker) Create(from, to model.PlayerID, mode model.Mode) (*model.Invitation, error) {
	if from == to {
		return nil, model.ErrSelfInvite
	}

	id := model.InvitationID("inv_" + b.random.String(IDLength, IDAlphabet))
	inv := &model.Invitation{
		ID:        id,
		From:      from,
		To:        to,
		Mode:      mode,
		CreatedAt: b.clock.Now(),
	}
	b.invites[id] = inv

	b.logger.Debug("invitation created",
		slog.String("invitation_id", string(id)),
		slog.Int64("from", int64(from)),
		slog.Int64("to", int64(to)))
	return inv, nil
}

// Accept consumes an invitation on behalf of the accepting player.
// The invitation is removed before returning, so a second accept with the
// same id always fails with ErrInvitationNotFound. An expired invitation is
// treated as unknown.
func (b *Broker) Accept(id model.InvitationID, accepting model.PlayerID) (*model.Invitation, error) {
	inv, ok := b.invites[id]
	if !ok {
		return nil, model.ErrInvitationNotFound
	}
	if b.expired(inv) {
		delete(b.invites, id)
		return nil, model.ErrInvitationNotFound
	}
	if inv.To != accepting {
		return nil, model.ErrNotInvitee
	}

	delete(b.invites, id)
	return inv, nil
}

// Decline consumes an invitation on behalf of the invited player
func (b *Broker) Decline(id model.InvitationID, declining model.PlayerID) (*model.Invitation, error) {
	inv, ok := b.invites[id]
	if !ok {
		return nil, model.ErrInvitationNotFound
	}
	if inv.To != declining {
		return nil, model.ErrNotInvitee
	}

	delete(b.invites, id)
	return inv, nil
}

// Discard removes an invitation if present. Idempotent.
func (b *Broker) Discard(id model.InvitationID) {
	delete(b.invites, id)
}

// DiscardFor removes every invitation referencing the given player, in
// either role, and returns the removed invitations. Called on disconnect.
func (b *Broker) DiscardFor(player model.PlayerID) []*model.Invitation {
	var removed []*model.Invitation
	for id, inv := range b.invites {
		if inv.References(player) {
			removed = append(removed, inv)
			delete(b.invites, id)
		}
	}
	return removed
}

// Sweep removes and returns all expired invitations
func (b *Broker) Sweep() []*model.Invitation {
	if b.ttl == 0 {
		return nil
	}

	var expired []*model.Invitation
	for id, inv := range b.invites {
		if b.expired(inv) {
			expired = append(expired, inv)
			delete(b.invites, id)
		}
	}
	if len(expired) > 0 {
		b.logger.Info("expired invitations swept", slog.Int("count", len(expired)))
	}
	return expired
}

// Len returns the number of pending invitations
func (b *Broker) Len() int {
	return len(b.invites)
}

func (b *Broker) expired(inv *model.Invitation) bool {
	return b.ttl > 0 && b.clock.Now().Sub(inv.CreatedAt) > b.ttl
}

package model

import "time"

// InvitationID uniquely identifies a pending invitation
type InvitationID string

// Invitation is an ephemeral one-to-one game offer between two players.
// It is consumed exactly once: by accept, decline, expiry, or the
// disconnection of either party.
type Invitation struct {
	ID        InvitationID
	From      PlayerID
	To        PlayerID
	Mode      Mode
	CreatedAt time.Time
}

// References reports whether the invitation involves the given player
func (i *Invitation) References(id PlayerID) bool {
	return i.From == id || i.To == id
}

package model

import "errors"

// Domain errors
var (
	// Player errors
	ErrPlayerNotFound      = errors.New("player not found")
	ErrDuplicateConnection = errors.New("player already has an active connection")

	// Queue errors
	ErrAlreadyQueued = errors.New("player already in matchmaking queue")
	ErrInMatch       = errors.New("player is in an active match")

	// Invitation errors
	ErrInvitationNotFound = errors.New("invitation not found")
	ErrNotInvitee         = errors.New("player is not the invitation recipient")
	ErrSelfInvite         = errors.New("cannot invite yourself")
	ErrTargetOffline      = errors.New("invitation target is not connected")

	// Match errors
	ErrMatchNotFound  = errors.New("match not found")
	ErrNotInMatch     = errors.New("player is not a participant in this match")
	ErrMatchNotActive = errors.New("match is not active")
	// ErrPlayerInMatch indicates a pairing attempt for a player already
	// registered in a session. Reaching it is a bug in the orchestrator.
	ErrPlayerInMatch = errors.New("player already registered in a match")

	// Record errors
	ErrRecordNotFound = errors.New("match record not found")
)

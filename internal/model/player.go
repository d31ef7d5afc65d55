package model

import "time"

// PlayerID uniquely identifies a player
type PlayerID int64

// Player represents a player identity, guest or registered
type Player struct {
	ID          PlayerID
	DisplayName string
	IsGuest     bool
	CreatedAt   time.Time
}

// RegisteredPlayer holds the credentials backing a registered account
type RegisteredPlayer struct {
	PlayerID     PlayerID
	Username     string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

package model

import "encoding/json"

// EventType identifies a realtime protocol event
type EventType string

// Inbound events (client -> server)
const (
	EventJoinQueue     EventType = "join_queue"
	EventLeaveQueue    EventType = "leave_queue"
	EventInvite        EventType = "invite"
	EventAcceptInvite  EventType = "accept_invite"
	EventDeclineInvite EventType = "decline_invite"
	EventMovePlayer    EventType = "movePlayer"
	EventLeaveGame     EventType = "leaveGame"
)

// Outbound events (server -> client)
const (
	EventGameReady     EventType = "gameReady"
	EventInvited       EventType = "invited"
	EventInviteDecline EventType = "invite_declined"
	EventPaddleMove    EventType = "paddleMove"
	EventGameOver      EventType = "gameOver"
	EventQueueJoined   EventType = "queue_joined"
	EventQueueLeft     EventType = "queue_left"
	EventError         EventType = "error"
)

// Envelope is the wire framing for every realtime message
type Envelope struct {
	Event EventType       `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Inbound payloads

// JoinQueuePayload is the data for a join_queue event
type JoinQueuePayload struct {
	Mode Mode `json:"mode"`
}

// InvitePayload is the data for an invite event
type InvitePayload struct {
	TargetID PlayerID `json:"target_id"`
	Mode     Mode     `json:"mode"`
}

// AcceptInvitePayload is the data for an accept_invite event
type AcceptInvitePayload struct {
	InvitationID InvitationID `json:"invitation_id"`
}

// DeclineInvitePayload is the data for a decline_invite event
type DeclineInvitePayload struct {
	InvitationID InvitationID `json:"invitation_id"`
}

// LeaveGamePayload is the data for a leaveGame event
type LeaveGamePayload struct {
	SessionID MatchID `json:"session_id"`
}

// Outbound payloads

// GameReadyPayload announces a newly-activated match to a participant
type GameReadyPayload struct {
	SessionID    MatchID  `json:"session_id"`
	Mode         Mode     `json:"mode"`
	Side         Slot     `json:"side"`
	OpponentID   PlayerID `json:"opponent_id"`
	OpponentName string   `json:"opponent_name"`
}

// InvitedPayload delivers an invitation offer to the invitee
type InvitedPayload struct {
	InvitationID InvitationID `json:"invitation_id"`
	FromID       PlayerID     `json:"from_id"`
	FromName     string       `json:"from_name"`
	Mode         Mode         `json:"mode"`
}

// InviteDeclinedPayload notifies the inviter of a declined offer
type InviteDeclinedPayload struct {
	InvitationID InvitationID `json:"invitation_id"`
}

// GameOverPayload announces a finished match to a participant
type GameOverPayload struct {
	SessionID MatchID   `json:"session_id"`
	ScoreA    int       `json:"score_a"`
	ScoreB    int       `json:"score_b"`
	WinnerID  PlayerID  `json:"winner_id"`
	Reason    EndReason `json:"reason"`
}

// QueueJoinedPayload acknowledges a successful join_queue
type QueueJoinedPayload struct {
	Mode Mode `json:"mode"`
}

// ErrorPayload is an explicit acknowledgment of a rejected or invalid event
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes carried in ErrorPayload
const (
	ErrCodeAlreadyQueued     = "ALREADY_QUEUED"
	ErrCodeInMatch           = "IN_MATCH"
	ErrCodeTargetOffline     = "TARGET_OFFLINE"
	ErrCodeSelfInvite        = "SELF_INVITE"
	ErrCodeInvalidInvitation = "INVALID_INVITATION"
	ErrCodeInvalidSession    = "INVALID_SESSION"
	ErrCodeInvalidPayload    = "INVALID_PAYLOAD"
	ErrCodeDuplicateConn     = "DUPLICATE_CONNECTION"
)

package response

import (
	"time"

	"github.com/mcoot/pongduel-go/internal/model"
	"github.com/mcoot/pongduel-go/internal/services/auth"
)

// Player represents a player in API responses
type Player struct {
	ID          int64  `json:"id"`
	DisplayName string `json:"display_name"`
	IsGuest     bool   `json:"is_guest"`
}

// PlayerFromModel converts a model.Player to a response Player
func PlayerFromModel(p *model.Player) Player {
	return Player{
		ID:          int64(p.ID),
		DisplayName: p.DisplayName,
		IsGuest:     p.IsGuest,
	}
}

// AuthResponse is the response for authentication endpoints
type AuthResponse struct {
	Player       Player `json:"player"`
	SessionToken string `json:"session_token"`
}

// AuthResponseFromSession creates an AuthResponse from a session
func AuthResponseFromSession(s *auth.Session) AuthResponse {
	return AuthResponse{
		Player:       PlayerFromModel(&s.Player),
		SessionToken: s.Token,
	}
}

// MatchRecord represents a finished match in API responses
type MatchRecord struct {
	MatchID   string    `json:"match_id"`
	PlayerA   int64     `json:"player_a"`
	PlayerB   int64     `json:"player_b"`
	ScoreA    int       `json:"score_a"`
	ScoreB    int       `json:"score_b"`
	WinnerID  int64     `json:"winner_id"`
	Mode      string    `json:"mode"`
	Status    string    `json:"status"`
	Reason    string    `json:"reason"`
	StartedAt time.Time `json:"started_at"`
	EndedAt   time.Time `json:"ended_at"`
}

// MatchRecordFromModel converts a model.MatchRecord
func MatchRecordFromModel(r *model.MatchRecord) MatchRecord {
	return MatchRecord{
		MatchID:   string(r.MatchID),
		PlayerA:   int64(r.PlayerA),
		PlayerB:   int64(r.PlayerB),
		ScoreA:    r.ScoreA,
		ScoreB:    r.ScoreB,
		WinnerID:  int64(r.Winner()),
		Mode:      string(r.Mode),
		Status:    r.Status,
		Reason:    string(r.Reason),
		StartedAt: r.StartedAt,
		EndedAt:   r.EndedAt,
	}
}

// MatchList is the response for match history queries
type MatchList struct {
	Matches []MatchRecord `json:"matches"`
}

// MatchListFromModels converts a slice of match records
func MatchListFromModels(records []*model.MatchRecord) MatchList {
	out := MatchList{Matches: make([]MatchRecord, 0, len(records))}
	for _, r := range records {
		out.Matches = append(out.Matches, MatchRecordFromModel(r))
	}
	return out
}

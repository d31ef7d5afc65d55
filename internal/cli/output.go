package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
}

// NewOutput creates a new Output formatter
func NewOutput(format string) *Output {
	return &Output{format: format}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.format == "json" {
		errData := map[string]any{
			"error": map[string]string{
				"message": err.Error(),
			},
		}
		data, _ := json.Marshal(errData)
		fmt.Fprintln(os.Stderr, string(data))
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Println(string(data))
	} else {
		fmt.Println(msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case Player:
		o.printPlayer(v)
	case AuthResult:
		o.printAuthResult(v)
	case MatchRecord:
		o.printMatchRecord(v)
	case MatchList:
		o.printMatchList(v)
	case HealthResult:
		o.printHealthResult(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// Player response type (matches API)
type Player struct {
	ID          int64  `json:"id"`
	DisplayName string `json:"display_name"`
	IsGuest     bool   `json:"is_guest"`
}

// AuthResult combines player and token
type AuthResult struct {
	Player       Player `json:"player"`
	SessionToken string `json:"session_token"`
}

// MatchRecord response type
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

// MatchList response type
type MatchList struct {
	Matches []MatchRecord `json:"matches"`
}

// HealthResult response type
type HealthResult struct {
	Status         string `json:"status"`
	OnlinePlayers  int    `json:"online_players"`
	QueuedPlayers  int    `json:"queued_players"`
	ActiveMatches  int    `json:"active_matches"`
	PendingInvites int    `json:"pending_invites"`
}

func (o *Output) printPlayer(p Player) {
	kind := "registered"
	if p.IsGuest {
		kind = "guest"
	}
	fmt.Printf("Player %d: %s (%s)\n", p.ID, p.DisplayName, kind)
}

func (o *Output) printAuthResult(a AuthResult) {
	o.printPlayer(a.Player)
	fmt.Printf("Session token: %s\n", a.SessionToken)
}

func (o *Output) printMatchRecord(m MatchRecord) {
	fmt.Printf("Match %s [%s]\n", m.MatchID, m.Mode)
	fmt.Printf("  Player %d vs Player %d: %d-%d\n", m.PlayerA, m.PlayerB, m.ScoreA, m.ScoreB)
	if m.WinnerID != 0 {
		fmt.Printf("  Winner: Player %d (%s)\n", m.WinnerID, m.Reason)
	}
	fmt.Printf("  Ended: %s\n", m.EndedAt.Format(time.RFC3339))
}

func (o *Output) printMatchList(l MatchList) {
	if len(l.Matches) == 0 {
		fmt.Println("No matches")
		return
	}
	for _, m := range l.Matches {
		o.printMatchRecord(m)
	}
}

func (o *Output) printHealthResult(h HealthResult) {
	fmt.Printf("Status: %s\n", h.Status)
	fmt.Printf("  Online players:  %d\n", h.OnlinePlayers)
	fmt.Printf("  Queued players:  %d\n", h.QueuedPlayers)
	fmt.Printf("  Active matches:  %d\n", h.ActiveMatches)
	fmt.Printf("  Pending invites: %d\n", h.PendingInvites)
}

package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
)

func newWatchCmd() *cobra.Command {
	var jsonOutput bool
	var joinQueue bool
	var mode string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Connect to the realtime stream and print events",
		Long: `Connect to the server's websocket endpoint and stream events in real-time.

Events include:
  - queue_joined: You entered the matchmaking queue
  - gameReady: A match was created for you
  - paddleMove: Opponent movement relayed to you
  - invited: Another player invited you
  - gameOver: Your match finished
  - error: The server rejected one of your messages

With --join-queue the client enters matchmaking after connecting, which is
handy for exercising the pairing flow from two terminals.

Press Ctrl+C to disconnect.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return watchStream(jsonOutput, joinQueue, mode)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output events as JSON lines")
	cmd.Flags().BoolVar(&joinQueue, "join-queue", false, "Join the matchmaking queue after connecting")
	cmd.Flags().StringVar(&mode, "mode", "classic", "Game mode for --join-queue")

	return cmd
}

// StreamEvent is one received protocol message with its arrival time
type StreamEvent struct {
	Time  time.Time       `json:"time"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

func watchStream(jsonOutput, joinQueue bool, mode string) error {
	if cfg.Token == "" {
		return fmt.Errorf("a session token is required; create a player first")
	}

	// Derive the websocket URL from the server URL
	wsURL := strings.TrimSuffix(cfg.ServerURL, "/") + "/ws"
	wsURL = strings.Replace(wsURL, "http://", "ws://", 1)
	wsURL = strings.Replace(wsURL, "https://", "wss://", 1)

	header := http.Header{}
	header.Set("Authorization", "Bearer "+cfg.Token)

	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, header)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("connection failed: %w (status %d)", err, resp.StatusCode)
		}
		return fmt.Errorf("connection failed: %w", err)
	}
	defer func() { _ = conn.Close() }()

	// Handle interrupt
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		_ = conn.Close()
	}()

	if !jsonOutput {
		fmt.Println("Connected")
	}

	if joinQueue {
		join := fmt.Sprintf(`{"event":"join_queue","data":{"mode":%q}}`, mode)
		if err := conn.WriteMessage(websocket.TextMessage, []byte(join)); err != nil {
			return fmt.Errorf("failed to join queue: %w", err)
		}
	}

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil // Interrupted; clean exit
			}
			return fmt.Errorf("stream closed: %w", err)
		}

		var env struct {
			Event string          `json:"event"`
			Data  json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(msg, &env); err != nil {
			continue
		}

		printStreamEvent(StreamEvent{
			Time:  time.Now(),
			Event: env.Event,
			Data:  env.Data,
		}, jsonOutput)
	}
}

func printStreamEvent(ev StreamEvent, jsonOutput bool) {
	if jsonOutput {
		data, _ := json.Marshal(ev)
		fmt.Println(string(data))
		return
	}

	if len(ev.Data) > 0 {
		fmt.Printf("[%s] %s %s\n", ev.Time.Format("15:04:05"), ev.Event, string(ev.Data))
	} else {
		fmt.Printf("[%s] %s\n", ev.Time.Format("15:04:05"), ev.Event)
	}
}

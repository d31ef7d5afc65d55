package realtime

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mcoot/pongduel-go/internal/api/apierr"
	"github.com/mcoot/pongduel-go/internal/model"
	"github.com/mcoot/pongduel-go/internal/services/auth"
)

// Handler upgrades authenticated HTTP requests to realtime connections
type Handler struct {
	auth     *auth.Service
	orch     *Orchestrator
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

// NewHandler creates the websocket entry point
func NewHandler(authService *auth.Service, orch *Orchestrator, logger *slog.Logger) *Handler {
	return &Handler{
		auth:   authService,
		orch:   orch,
		logger: logger.With(slog.String("component", "ws-handler")),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Token auth is the access control; origin is not
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// ServeHTTP implements http.Handler. Authentication happens before the
// upgrade so an invalid token gets a proper 401; a duplicate connection is
// reported over the socket and then closed.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token := extractToken(r)
	if token == "" {
		apierr.WriteError(w, apierr.NewUnauthorizedError())
		return
	}

	session, err := h.auth.ValidateSession(token)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error
		h.logger.Debug("websocket upgrade failed", slog.Any("error", err))
		return
	}

	conn := NewConn(ws, session.Player, h.orch, h.logger)
	if err := h.orch.Connect(conn); err != nil {
		h.logger.Warn("connection rejected",
			slog.Int64("player_id", int64(session.PlayerID)),
			slog.Any("error", err))

		// The pumps never start for a rejected connection; write the
		// rejection directly and close
		if errors.Is(err, model.ErrDuplicateConnection) {
			writeDirect(ws, model.EventError, model.ErrorPayload{
				Code:    model.ErrCodeDuplicateConn,
				Message: "player already has an active connection",
			})
		}
		_ = ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "duplicate connection"),
			time.Now().Add(writeWait))
		conn.Close()
		return
	}

	h.logger.Info("player connected", slog.Int64("player_id", int64(session.PlayerID)))
	go conn.Run()
}

func writeDirect(ws *websocket.Conn, event model.EventType, data any) {
	raw, err := json.Marshal(data)
	if err != nil {
		return
	}
	msg, err := json.Marshal(model.Envelope{Event: event, Data: raw})
	if err != nil {
		return
	}
	_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
	_ = ws.WriteMessage(websocket.TextMessage, msg)
}

// extractToken pulls the session token from the Authorization header or,
// for browser websocket clients that cannot set headers, the token query
// parameter.
func extractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return r.URL.Query().Get("token")
}

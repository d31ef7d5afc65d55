package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/mcoot/pongduel-go/internal/dependencies/clock"
	"github.com/mcoot/pongduel-go/internal/dependencies/random"
	"github.com/mcoot/pongduel-go/internal/engine"
	"github.com/mcoot/pongduel-go/internal/model"
	"github.com/mcoot/pongduel-go/internal/services/invite"
	"github.com/mcoot/pongduel-go/internal/services/match"
	"github.com/mcoot/pongduel-go/internal/services/queue"
)

const (
	// matchIDLength is the length of the random part of match ids
	matchIDLength = 16
	// matchIDAlphabet is the characters used in match ids
	matchIDAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
)

// Config holds configuration for the orchestrator
type Config struct {
	// EventBuffer is the depth of the inbound event queue
	EventBuffer int
	// SweepInterval is how often expired invitations are reaped
	SweepInterval time.Duration
	// PersistTimeout bounds each match result write
	PersistTimeout time.Duration
}

// DefaultConfig returns default orchestrator configuration
func DefaultConfig() Config {
	return Config{
		EventBuffer:    256,
		SweepInterval:  30 * time.Second,
		PersistTimeout: 5 * time.Second,
	}
}

// Orchestrator is the single owner of all session-brokering state: the
// connection registry, the matchmaking queue, the invitation broker and the
// match registry. All of it is mutated from one event loop goroutine, so
// none of it needs locks and every invariant check is race-free.
type Orchestrator struct {
	clock  clock.Clock
	random random.Random
	logger *slog.Logger

	conns   *ConnRegistry
	queue   *queue.Queue
	invites *invite.Broker
	matches *match.Registry

	engineFactory engine.Factory
	recorder      match.Recorder

	events chan any
	cfg    Config
}

// New creates an orchestrator. Run must be called before any events are
// dispatched.
func New(
	clock clock.Clock,
	random random.Random,
	invites *invite.Broker,
	engineFactory engine.Factory,
	recorder match.Recorder,
	cfg Config,
	logger *slog.Logger,
) *Orchestrator {
	if cfg.EventBuffer <= 0 {
		cfg.EventBuffer = DefaultConfig().EventBuffer
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = DefaultConfig().SweepInterval
	}
	if cfg.PersistTimeout <= 0 {
		cfg.PersistTimeout = DefaultConfig().PersistTimeout
	}

	log := logger.With(slog.String("component", "orchestrator"))
	return &Orchestrator{
		clock:         clock,
		random:        random,
		logger:        log,
		conns:         NewConnRegistry(log),
		queue:         queue.New(log),
		invites:       invites,
		matches:       match.NewRegistry(log),
		engineFactory: engineFactory,
		recorder:      recorder,
		events:        make(chan any, cfg.EventBuffer),
		cfg:           cfg,
	}
}

// Run drives the event loop until the context is cancelled. It must run in
// exactly one goroutine.
func (o *Orchestrator) Run(ctx context.Context) {
	sweep := time.NewTicker(o.cfg.SweepInterval)
	defer sweep.Stop()

	o.logger.Info("orchestrator started")
	for {
		select {
		case <-ctx.Done():
			o.logger.Info("orchestrator stopped")
			return
		case <-sweep.C:
			o.handleSweep()
		case ev := <-o.events:
			o.handle(ev)
		}
	}
}

func (o *Orchestrator) handle(ev any) {
	switch ev := ev.(type) {
	case connectEvent:
		ev.reply <- o.conns.Register(ev.client)
	case disconnectEvent:
		o.handleDisconnect(ev)
	case joinQueueEvent:
		o.handleJoinQueue(ev)
	case leaveQueueEvent:
		o.handleLeaveQueue(ev)
	case inviteEvent:
		o.handleInvite(ev)
	case acceptInviteEvent:
		o.handleAcceptInvite(ev)
	case declineInviteEvent:
		o.handleDeclineInvite(ev)
	case moveEvent:
		o.handleMove(ev)
	case leaveGameEvent:
		o.handleLeaveGame(ev)
	case sweepEvent:
		o.handleSweep()
	case statsEvent:
		ev.reply <- Stats{
			OnlinePlayers:  o.conns.Len(),
			QueuedPlayers:  o.queue.Len(),
			ActiveMatches:  o.matches.Len(),
			PendingInvites: o.invites.Len(),
		}
	default:
		o.logger.Error("unknown event type", slog.Any("event", ev))
	}
}

// Connect registers a new connection, synchronously. It fails with
// ErrDuplicateConnection if the player already has a live connection.
func (o *Orchestrator) Connect(c Client) error {
	reply := make(chan error, 1)
	o.events <- connectEvent{client: c, reply: reply}
	return <-reply
}

// Disconnect tears down a connection's matchmaking and match presence.
// Asynchronous; safe to call from the connection's read pump goroutine.
func (o *Orchestrator) Disconnect(c Client) {
	o.events <- disconnectEvent{playerID: c.Player().ID, client: c}
}

// Dispatch routes one inbound protocol message to the event loop. Payload
// decoding happens here, on the connection's goroutine; state access does
// not.
func (o *Orchestrator) Dispatch(c Client, env model.Envelope) {
	switch env.Event {
	case model.EventJoinQueue:
		var p model.JoinQueuePayload
		if !decode(c, env.Data, &p) {
			return
		}
		if p.Mode == "" {
			p.Mode = model.ModeClassic
		}
		o.events <- joinQueueEvent{client: c, mode: p.Mode}

	case model.EventLeaveQueue:
		o.events <- leaveQueueEvent{client: c}

	case model.EventInvite:
		var p model.InvitePayload
		if !decode(c, env.Data, &p) {
			return
		}
		if p.Mode == "" {
			p.Mode = model.ModeClassic
		}
		o.events <- inviteEvent{client: c, target: p.TargetID, mode: p.Mode}

	case model.EventAcceptInvite:
		var p model.AcceptInvitePayload
		if !decode(c, env.Data, &p) {
			return
		}
		o.events <- acceptInviteEvent{client: c, invitationID: p.InvitationID}

	case model.EventDeclineInvite:
		var p model.DeclineInvitePayload
		if !decode(c, env.Data, &p) {
			return
		}
		o.events <- declineInviteEvent{client: c, invitationID: p.InvitationID}

	case model.EventMovePlayer:
		o.events <- moveEvent{client: c, payload: env.Data}

	case model.EventLeaveGame:
		var p model.LeaveGamePayload
		if !decode(c, env.Data, &p) {
			return
		}
		o.events <- leaveGameEvent{client: c, sessionID: p.SessionID}

	default:
		c.SendEvent(model.EventError, model.ErrorPayload{
			Code:    model.ErrCodeInvalidPayload,
			Message: "unknown event: " + string(env.Event),
		})
	}
}

func decode(c Client, data json.RawMessage, v any) bool {
	if len(data) == 0 {
		data = json.RawMessage("{}")
	}
	if err := json.Unmarshal(data, v); err != nil {
		c.SendEvent(model.EventError, model.ErrorPayload{
			Code:    model.ErrCodeInvalidPayload,
			Message: "malformed event payload",
		})
		return false
	}
	return true
}

// Event loop handlers. These run on the loop goroutine and are the only
// code allowed to touch the registries.

func (o *Orchestrator) handleDisconnect(ev disconnectEvent) {
	// A reconnect may already have replaced this client; only the current
	// connection's disconnect tears state down.
	current, ok := o.conns.Lookup(ev.playerID)
	if !ok || current != ev.client {
		return
	}
	o.conns.Unregister(ev.playerID, ev.client)

	o.queue.Dequeue(ev.playerID)

	for _, inv := range o.invites.DiscardFor(ev.playerID) {
		// The invitee loses a pending offer; tell them it is gone
		if inv.From == ev.playerID {
			if target, ok := o.conns.Lookup(inv.To); ok {
				target.SendEvent(model.EventInviteDecline, model.InviteDeclinedPayload{
					InvitationID: inv.ID,
				})
			}
		}
	}

	if session, ok := o.matches.GetByParticipant(ev.playerID); ok {
		rec := session.Forfeit(ev.playerID, model.EndReasonForfeit)
		o.finalizeSession(session, rec)
	}

	o.logger.Info("player disconnected", slog.Int64("player_id", int64(ev.playerID)))
}

func (o *Orchestrator) handleJoinQueue(ev joinQueueEvent) {
	player := ev.client.Player().ID

	if _, ok := o.matches.GetByParticipant(player); ok {
		sendError(ev.client, model.ErrCodeInMatch, "cannot queue while in a match")
		return
	}

	if err := o.queue.Enqueue(player, ev.mode); err != nil {
		sendError(ev.client, model.ErrCodeAlreadyQueued, "already waiting in the queue")
		return
	}
	ev.client.SendEvent(model.EventQueueJoined, model.QueueJoinedPayload{Mode: ev.mode})

	if a, b, ok := o.queue.TryPair(ev.mode); ok {
		o.createSession(ev.mode, a, b)
	}
}

func (o *Orchestrator) handleLeaveQueue(ev leaveQueueEvent) {
	o.queue.Dequeue(ev.client.Player().ID)
	ev.client.SendEvent(model.EventQueueLeft, nil)
}

func (o *Orchestrator) handleInvite(ev inviteEvent) {
	from := ev.client.Player()

	if _, ok := o.matches.GetByParticipant(from.ID); ok {
		sendError(ev.client, model.ErrCodeInMatch, "cannot invite while in a match")
		return
	}

	target, online := o.conns.Lookup(ev.target)
	if !online {
		sendError(ev.client, model.ErrCodeTargetOffline, "target player is not connected")
		return
	}

	inv, err := o.invites.Create(from.ID, ev.target, ev.mode)
	if err != nil {
		sendError(ev.client, model.ErrCodeSelfInvite, "cannot invite yourself")
		return
	}

	target.SendEvent(model.EventInvited, model.InvitedPayload{
		InvitationID: inv.ID,
		FromID:       from.ID,
		FromName:     from.DisplayName,
		Mode:         inv.Mode,
	})
}

func (o *Orchestrator) handleAcceptInvite(ev acceptInviteEvent) {
	accepting := ev.client.Player().ID

	inv, err := o.invites.Accept(ev.invitationID, accepting)
	if err != nil {
		sendError(ev.client, model.ErrCodeInvalidInvitation, "invitation is no longer valid")
		return
	}

	if _, ok := o.conns.Lookup(inv.From); !ok {
		sendError(ev.client, model.ErrCodeTargetOffline, "inviter is no longer connected")
		return
	}

	if _, ok := o.matches.GetByParticipant(accepting); ok {
		sendError(ev.client, model.ErrCodeInMatch, "cannot accept while in a match")
		return
	}
	if _, ok := o.matches.GetByParticipant(inv.From); ok {
		sendError(ev.client, model.ErrCodeInMatch, "inviter is already in a match")
		return
	}

	o.createSession(inv.Mode, inv.From, accepting)
}

func (o *Orchestrator) handleDeclineInvite(ev declineInviteEvent) {
	declining := ev.client.Player().ID

	inv, err := o.invites.Decline(ev.invitationID, declining)
	if err != nil {
		sendError(ev.client, model.ErrCodeInvalidInvitation, "invitation is no longer valid")
		return
	}

	if from, ok := o.conns.Lookup(inv.From); ok {
		from.SendEvent(model.EventInviteDecline, model.InviteDeclinedPayload{
			InvitationID: inv.ID,
		})
	}
}

func (o *Orchestrator) handleMove(ev moveEvent) {
	session, ok := o.matches.GetByParticipant(ev.client.Player().ID)
	if !ok {
		// Movement is high-frequency; out-of-match input is dropped, not acked
		return
	}

	rec, err := session.Relay(ev.client.Player().ID, ev.payload)
	if err != nil {
		return
	}
	if rec != nil {
		o.finalizeSession(session, rec)
	}
}

func (o *Orchestrator) handleLeaveGame(ev leaveGameEvent) {
	leaver := ev.client.Player().ID

	session, ok := o.matches.Get(ev.sessionID)
	if !ok || !session.HasParticipant(leaver) {
		sendError(ev.client, model.ErrCodeInvalidSession, "no such match session")
		return
	}

	rec := session.Forfeit(leaver, model.EndReasonLeave)
	o.finalizeSession(session, rec)
}

func (o *Orchestrator) handleSweep() {
	for _, inv := range o.invites.Sweep() {
		if from, ok := o.conns.Lookup(inv.From); ok {
			from.SendEvent(model.EventInviteDecline, model.InviteDeclinedPayload{
				InvitationID: inv.ID,
			})
		}
	}
}

// createSession pairs two connected players into a new match session. Both
// are removed from the queue and have their pending invitations discarded
// before the session registers, so the one-session-per-player invariant
// cannot be violated by leftover matchmaking state.
func (o *Orchestrator) createSession(mode model.Mode, aID, bID model.PlayerID) {
	ca, okA := o.conns.Lookup(aID)
	cb, okB := o.conns.Lookup(bID)
	if !okA || !okB {
		// A pairing participant vanished between validation and creation.
		// Requeue whoever is still here.
		if okA {
			_ = o.queue.Enqueue(aID, mode)
		}
		if okB {
			_ = o.queue.Enqueue(bID, mode)
		}
		return
	}

	o.queue.Dequeue(aID)
	o.queue.Dequeue(bID)
	o.invites.DiscardFor(aID)
	o.invites.DiscardFor(bID)

	id := model.MatchID("m_" + o.random.String(matchIDLength, matchIDAlphabet))
	session := match.NewSession(
		id,
		mode,
		match.Participant{Player: ca.Player(), Conn: ca},
		match.Participant{Player: cb.Player(), Conn: cb},
		o.engineFactory(mode),
		o.clock,
		o.logger,
	)

	if err := o.matches.Add(session); err != nil {
		// Means a participant slipped into another session despite the
		// checks above; a bug worth shouting about
		o.logger.Error("failed to register match session",
			slog.String("match_id", string(id)),
			slog.Any("error", err))
		sendError(ca, model.ErrCodeInMatch, "pairing failed")
		sendError(cb, model.ErrCodeInMatch, "pairing failed")
		return
	}

	// Both participants hold live connections, so the session activates
	// immediately
	session.Join(aID)
	session.Join(bID)
}

// finalizeSession removes a finished session and hands its record to the
// persister. Persistence is fire-and-forget: a storage failure is logged
// but never blocks or fails the gameplay path.
func (o *Orchestrator) finalizeSession(session *match.Session, rec *model.MatchRecord) {
	o.matches.Remove(session.ID)
	if rec == nil {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), o.cfg.PersistTimeout)
		defer cancel()

		if err := o.recorder.RecordResult(ctx, rec); err != nil {
			o.logger.Error("failed to persist match result",
				slog.String("match_id", string(rec.MatchID)),
				slog.Any("error", err))
		}
	}()
}

func sendError(c Client, code, message string) {
	c.SendEvent(model.EventError, model.ErrorPayload{Code: code, Message: message})
}

// Stats is a point-in-time snapshot of orchestrator state
type Stats struct {
	OnlinePlayers  int
	QueuedPlayers  int
	ActiveMatches  int
	PendingInvites int
}

// Stats takes a snapshot via the event loop, so it is race-free
func (o *Orchestrator) Stats() Stats {
	reply := make(chan Stats, 1)
	o.events <- statsEvent{reply: reply}
	return <-reply
}

package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/pongduel-go/internal/dependencies/mocks"
	"github.com/mcoot/pongduel-go/internal/dependencies/random"
	"github.com/mcoot/pongduel-go/internal/engine"
	"github.com/mcoot/pongduel-go/internal/model"
	"github.com/mcoot/pongduel-go/internal/services/invite"
	"github.com/mcoot/pongduel-go/internal/testutil"
)

type sentEvent struct {
	event model.EventType
	data  any
}

// fakeClient records outbound events. Sends happen on the loop goroutine
// while assertions happen on the test goroutine, hence the mutex.
type fakeClient struct {
	player model.Player

	mu     sync.Mutex
	events []sentEvent
	closed bool
}

func newFakeClient(id model.PlayerID, name string) *fakeClient {
	return &fakeClient{
		player: model.Player{ID: id, DisplayName: name, IsGuest: true},
	}
}

func (c *fakeClient) Player() model.Player { return c.player }

func (c *fakeClient) SendEvent(event model.EventType, data any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, sentEvent{event: event, data: data})
}

func (c *fakeClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

func (c *fakeClient) eventsOf(event model.EventType) []sentEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []sentEvent
	for _, e := range c.events {
		if e.event == event {
			out = append(out, e)
		}
	}
	return out
}

func (c *fakeClient) lastErrorCode() string {
	errs := c.eventsOf(model.EventError)
	if len(errs) == 0 {
		return ""
	}
	payload := errs[len(errs)-1].data.(model.ErrorPayload)
	return payload.Code
}

// recordingSink captures persisted match records and signals each write
type recordingSink struct {
	mu      sync.Mutex
	records []*model.MatchRecord
	done    chan struct{}
}

func newRecordingSink() *recordingSink {
	return &recordingSink{done: make(chan struct{}, 16)}
}

func (r *recordingSink) RecordResult(_ context.Context, rec *model.MatchRecord) error {
	r.mu.Lock()
	r.records = append(r.records, rec)
	r.mu.Unlock()
	r.done <- struct{}{}
	return nil
}

func (r *recordingSink) all() []*model.MatchRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*model.MatchRecord(nil), r.records...)
}

type OrchestratorSuite struct {
	suite.Suite

	clock  *mocks.MockClock
	sink   *recordingSink
	orch   *Orchestrator
	cancel context.CancelFunc
}

func TestOrchestratorSuite(t *testing.T) {
	suite.Run(t, new(OrchestratorSuite))
}

func (s *OrchestratorSuite) SetupTest() {
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.sink = newRecordingSink()

	broker := invite.New(s.clock, random.New(), invite.DefaultConfig(), testutil.NopLogger())
	s.orch = New(
		s.clock,
		random.New(),
		broker,
		engine.DefaultFactory,
		s.sink,
		DefaultConfig(),
		testutil.NopLogger(),
	)

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	go s.orch.Run(ctx)
}

func (s *OrchestratorSuite) TearDownTest() {
	s.cancel()
}

// sync blocks until the loop has processed everything dispatched so far
func (s *OrchestratorSuite) sync() Stats {
	return s.orch.Stats()
}

func (s *OrchestratorSuite) connect(id model.PlayerID, name string) *fakeClient {
	c := newFakeClient(id, name)
	s.Require().NoError(s.orch.Connect(c))
	return c
}

func (s *OrchestratorSuite) dispatch(c Client, event model.EventType, payload string) {
	env := model.Envelope{Event: event}
	if payload != "" {
		env.Data = json.RawMessage(payload)
	}
	s.orch.Dispatch(c, env)
}

func (s *OrchestratorSuite) joinQueue(c Client) {
	s.dispatch(c, model.EventJoinQueue, `{"mode":"classic"}`)
}

func (s *OrchestratorSuite) awaitRecord() *model.MatchRecord {
	select {
	case <-s.sink.done:
	case <-time.After(2 * time.Second):
		s.FailNow("timed out waiting for match record persistence")
	}
	records := s.sink.all()
	return records[len(records)-1]
}

// gameReady extracts the activation payload a client received
func (s *OrchestratorSuite) gameReady(c *fakeClient) model.GameReadyPayload {
	ready := c.eventsOf(model.EventGameReady)
	s.Require().Len(ready, 1)
	return ready[0].data.(model.GameReadyPayload)
}

// pair connects two players and pairs them through the queue
func (s *OrchestratorSuite) pair() (*fakeClient, *fakeClient, model.MatchID) {
	alice := s.connect(1, "Alice")
	bob := s.connect(2, "Bob")
	s.joinQueue(alice)
	s.joinQueue(bob)
	s.sync()
	return alice, bob, s.gameReady(alice).SessionID
}

// Connection tests

func (s *OrchestratorSuite) TestConnectRejectsDuplicate() {
	s.connect(1, "Alice")

	dup := newFakeClient(1, "Alice")
	s.ErrorIs(s.orch.Connect(dup), model.ErrDuplicateConnection)

	s.Equal(1, s.sync().OnlinePlayers)
}

func (s *OrchestratorSuite) TestDisconnectAllowsReconnect() {
	c1 := s.connect(1, "Alice")
	s.orch.Disconnect(c1)
	s.sync()

	s.connect(1, "Alice")
	s.Equal(1, s.sync().OnlinePlayers)

	// A stale disconnect from the old connection must not tear down the new one
	s.orch.Disconnect(c1)
	s.Equal(1, s.sync().OnlinePlayers)
}

// Queue tests

func (s *OrchestratorSuite) TestQueuePairingActivatesMatch() {
	alice, bob, _ := s.pair()

	readyA := s.gameReady(alice)
	readyB := s.gameReady(bob)

	s.Equal(readyA.SessionID, readyB.SessionID)
	s.NotEqual(readyA.Side, readyB.Side)
	s.Equal(model.PlayerID(2), readyA.OpponentID)
	s.Equal("Bob", readyA.OpponentName)
	s.Equal(model.PlayerID(1), readyB.OpponentID)

	stats := s.sync()
	s.Equal(1, stats.ActiveMatches)
	s.Equal(0, stats.QueuedPlayers)
}

func (s *OrchestratorSuite) TestJoinQueueAcked() {
	alice := s.connect(1, "Alice")
	s.joinQueue(alice)
	s.sync()

	s.Len(alice.eventsOf(model.EventQueueJoined), 1)
}

func (s *OrchestratorSuite) TestJoinQueueTwiceRejected() {
	alice := s.connect(1, "Alice")
	s.joinQueue(alice)
	s.joinQueue(alice)
	s.sync()

	s.Equal(model.ErrCodeAlreadyQueued, alice.lastErrorCode())
	s.Equal(1, s.sync().QueuedPlayers)
}

func (s *OrchestratorSuite) TestJoinQueueWhileInMatchRejected() {
	alice, _, _ := s.pair()

	s.joinQueue(alice)
	s.sync()

	s.Equal(model.ErrCodeInMatch, alice.lastErrorCode())
}

func (s *OrchestratorSuite) TestModesDoNotCrossPair() {
	alice := s.connect(1, "Alice")
	bob := s.connect(2, "Bob")
	s.dispatch(alice, model.EventJoinQueue, `{"mode":"classic"}`)
	s.dispatch(bob, model.EventJoinQueue, `{"mode":"blitz"}`)

	stats := s.sync()
	s.Equal(2, stats.QueuedPlayers)
	s.Equal(0, stats.ActiveMatches)
}

func (s *OrchestratorSuite) TestLeaveQueuePreventsPairing() {
	alice := s.connect(1, "Alice")
	bob := s.connect(2, "Bob")

	s.joinQueue(alice)
	s.dispatch(alice, model.EventLeaveQueue, "")
	s.joinQueue(bob)

	stats := s.sync()
	s.Equal(0, stats.ActiveMatches)
	s.Equal(1, stats.QueuedPlayers)
	s.Len(alice.eventsOf(model.EventQueueLeft), 1)
}

// Invitation tests

func (s *OrchestratorSuite) TestInviteDeliveredToTarget() {
	alice := s.connect(1, "Alice")
	bob := s.connect(2, "Bob")

	s.dispatch(alice, model.EventInvite, `{"target_id":2,"mode":"classic"}`)
	s.sync()

	invited := bob.eventsOf(model.EventInvited)
	s.Require().Len(invited, 1)
	payload := invited[0].data.(model.InvitedPayload)
	s.Equal(model.PlayerID(1), payload.FromID)
	s.Equal("Alice", payload.FromName)
	s.NotEmpty(payload.InvitationID)
}

func (s *OrchestratorSuite) TestInviteOfflineTargetRejected() {
	alice := s.connect(1, "Alice")

	s.dispatch(alice, model.EventInvite, `{"target_id":99}`)
	s.sync()

	s.Equal(model.ErrCodeTargetOffline, alice.lastErrorCode())
}

func (s *OrchestratorSuite) TestSelfInviteRejected() {
	alice := s.connect(1, "Alice")

	s.dispatch(alice, model.EventInvite, `{"target_id":1}`)
	s.sync()

	s.Equal(model.ErrCodeSelfInvite, alice.lastErrorCode())
}

func (s *OrchestratorSuite) TestAcceptInviteActivatesMatch() {
	alice := s.connect(1, "Alice")
	bob := s.connect(2, "Bob")

	s.dispatch(alice, model.EventInvite, `{"target_id":2}`)
	s.sync()

	payload := bob.eventsOf(model.EventInvited)[0].data.(model.InvitedPayload)
	s.dispatch(bob, model.EventAcceptInvite,
		fmt.Sprintf(`{"invitation_id":%q}`, payload.InvitationID))
	s.sync()

	s.Len(alice.eventsOf(model.EventGameReady), 1)
	s.Len(bob.eventsOf(model.EventGameReady), 1)
	s.Equal(1, s.sync().ActiveMatches)
}

func (s *OrchestratorSuite) TestAcceptInviteTwiceRejected() {
	alice := s.connect(1, "Alice")
	bob := s.connect(2, "Bob")

	s.dispatch(alice, model.EventInvite, `{"target_id":2}`)
	s.sync()
	payload := bob.eventsOf(model.EventInvited)[0].data.(model.InvitedPayload)

	accept := fmt.Sprintf(`{"invitation_id":%q}`, payload.InvitationID)
	s.dispatch(bob, model.EventAcceptInvite, accept)
	s.dispatch(bob, model.EventAcceptInvite, accept)
	s.sync()

	s.Equal(1, s.sync().ActiveMatches)
	s.Equal(model.ErrCodeInvalidInvitation, bob.lastErrorCode())
}

func (s *OrchestratorSuite) TestAcceptByNonInviteeRejected() {
	alice := s.connect(1, "Alice")
	bob := s.connect(2, "Bob")
	carol := s.connect(3, "Carol")

	s.dispatch(alice, model.EventInvite, `{"target_id":2}`)
	s.sync()
	payload := bob.eventsOf(model.EventInvited)[0].data.(model.InvitedPayload)

	s.dispatch(carol, model.EventAcceptInvite,
		fmt.Sprintf(`{"invitation_id":%q}`, payload.InvitationID))
	s.sync()

	s.Equal(model.ErrCodeInvalidInvitation, carol.lastErrorCode())
	s.Equal(0, s.sync().ActiveMatches)
}

func (s *OrchestratorSuite) TestDeclineInviteNotifiesInviter() {
	alice := s.connect(1, "Alice")
	bob := s.connect(2, "Bob")

	s.dispatch(alice, model.EventInvite, `{"target_id":2}`)
	s.sync()
	payload := bob.eventsOf(model.EventInvited)[0].data.(model.InvitedPayload)

	s.dispatch(bob, model.EventDeclineInvite,
		fmt.Sprintf(`{"invitation_id":%q}`, payload.InvitationID))
	s.sync()

	declined := alice.eventsOf(model.EventInviteDecline)
	s.Require().Len(declined, 1)
	s.Equal(payload.InvitationID, declined[0].data.(model.InviteDeclinedPayload).InvitationID)
	s.Equal(0, s.sync().PendingInvites)
}

func (s *OrchestratorSuite) TestInviterDisconnectDiscardsInvite() {
	alice := s.connect(1, "Alice")
	bob := s.connect(2, "Bob")

	s.dispatch(alice, model.EventInvite, `{"target_id":2}`)
	s.sync()
	payload := bob.eventsOf(model.EventInvited)[0].data.(model.InvitedPayload)

	s.orch.Disconnect(alice)
	s.sync()

	s.dispatch(bob, model.EventAcceptInvite,
		fmt.Sprintf(`{"invitation_id":%q}`, payload.InvitationID))
	s.sync()

	s.Equal(model.ErrCodeInvalidInvitation, bob.lastErrorCode())
	s.Len(bob.eventsOf(model.EventInviteDecline), 1)
}

func (s *OrchestratorSuite) TestPairingClearsPendingInvites() {
	alice := s.connect(1, "Alice")
	bob := s.connect(2, "Bob")
	carol := s.connect(3, "Carol")

	// Carol invites Alice, then Alice pairs with Bob through the queue
	s.dispatch(carol, model.EventInvite, `{"target_id":1}`)
	s.joinQueue(alice)
	s.joinQueue(bob)
	s.sync()

	s.Equal(0, s.sync().PendingInvites)
}

// Gameplay relay tests

func (s *OrchestratorSuite) TestMoveRelayedToOpponentOnly() {
	alice, bob, _ := s.pair()

	payload := `{"y":120,"direction":"up"}`
	s.dispatch(alice, model.EventMovePlayer, payload)
	s.sync()

	moves := bob.eventsOf(model.EventPaddleMove)
	s.Require().Len(moves, 1)
	s.JSONEq(payload, string(moves[0].data.(json.RawMessage)))

	s.Empty(alice.eventsOf(model.EventPaddleMove))
}

func (s *OrchestratorSuite) TestMoveOutsideMatchSilentlyDropped() {
	alice := s.connect(1, "Alice")

	s.dispatch(alice, model.EventMovePlayer, `{"y":10}`)
	s.sync()

	s.Empty(alice.eventsOf(model.EventError))
}

func (s *OrchestratorSuite) TestScoreTerminationFinishesMatch() {
	alice, bob, sessionID := s.pair()

	for i := 0; i < engine.DefaultWinningScore; i++ {
		s.dispatch(alice, model.EventMovePlayer, `{"goal":"a"}`)
	}
	s.sync()

	rec := s.awaitRecord()
	s.Equal(sessionID, rec.MatchID)
	s.Equal(engine.DefaultWinningScore, rec.ScoreA)
	s.Equal(0, rec.ScoreB)
	s.Equal(model.EndReasonScore, rec.Reason)
	s.Equal(model.RecordStatusFinished, rec.Status)
	s.Len(s.sink.all(), 1)

	overA := alice.eventsOf(model.EventGameOver)
	s.Require().Len(overA, 1)
	over := overA[0].data.(model.GameOverPayload)
	s.Equal(model.PlayerID(1), over.WinnerID)
	s.Len(bob.eventsOf(model.EventGameOver), 1)

	s.Equal(0, s.sync().ActiveMatches)
}

func (s *OrchestratorSuite) TestMoveAfterFinishIgnored() {
	alice, bob, _ := s.pair()

	for i := 0; i < engine.DefaultWinningScore; i++ {
		s.dispatch(alice, model.EventMovePlayer, `{"goal":"a"}`)
	}
	s.dispatch(alice, model.EventMovePlayer, `{"y":5}`)
	s.sync()

	// The goal payloads were relayed while active; the post-finish move was not
	s.Len(bob.eventsOf(model.EventPaddleMove), engine.DefaultWinningScore)
	_ = s.awaitRecord()
	s.Len(s.sink.all(), 1)
}

// Termination tests

func (s *OrchestratorSuite) TestDisconnectForfeitsMatch() {
	alice, bob, sessionID := s.pair()

	s.orch.Disconnect(bob)
	s.sync()

	rec := s.awaitRecord()
	s.Equal(sessionID, rec.MatchID)
	s.Equal(model.EndReasonForfeit, rec.Reason)
	s.Equal(model.PlayerID(1), rec.Winner())
	s.Equal(engine.DefaultWinningScore, rec.ScoreA)

	over := alice.eventsOf(model.EventGameOver)
	s.Require().Len(over, 1)
	s.Equal(model.PlayerID(1), over[0].data.(model.GameOverPayload).WinnerID)

	s.Equal(0, s.sync().ActiveMatches)
}

func (s *OrchestratorSuite) TestWinnerCanRequeueAfterForfeit() {
	alice, bob, _ := s.pair()
	s.orch.Disconnect(bob)
	s.sync()
	_ = s.awaitRecord()

	s.joinQueue(alice)
	s.Equal(1, s.sync().QueuedPlayers)
}

func (s *OrchestratorSuite) TestLeaveGameForfeitsMatch() {
	alice, bob, sessionID := s.pair()

	s.dispatch(alice, model.EventLeaveGame,
		fmt.Sprintf(`{"session_id":%q}`, sessionID))
	s.sync()

	rec := s.awaitRecord()
	s.Equal(model.EndReasonLeave, rec.Reason)
	s.Equal(model.PlayerID(2), rec.Winner())

	s.Len(alice.eventsOf(model.EventGameOver), 1)
	s.Len(bob.eventsOf(model.EventGameOver), 1)
	s.Equal(0, s.sync().ActiveMatches)
}

func (s *OrchestratorSuite) TestLeaveUnknownSessionRejected() {
	alice := s.connect(1, "Alice")

	s.dispatch(alice, model.EventLeaveGame, `{"session_id":"m_nope"}`)
	s.sync()

	s.Equal(model.ErrCodeInvalidSession, alice.lastErrorCode())
}

func (s *OrchestratorSuite) TestQueuedPlayerDisconnectClearsEntry() {
	alice := s.connect(1, "Alice")
	s.joinQueue(alice)
	s.orch.Disconnect(alice)
	s.sync()

	// Bob and Carol pair with each other; Alice's stale entry is gone
	bob := s.connect(2, "Bob")
	carol := s.connect(3, "Carol")
	s.joinQueue(bob)
	s.joinQueue(carol)
	s.sync()

	readyB := s.gameReady(bob)
	s.Equal(model.PlayerID(3), readyB.OpponentID)
}

// Protocol tests

func (s *OrchestratorSuite) TestUnknownEventAckedWithError() {
	alice := s.connect(1, "Alice")

	s.dispatch(alice, "warp_ball", `{}`)
	s.sync()

	s.Equal(model.ErrCodeInvalidPayload, alice.lastErrorCode())
}

func (s *OrchestratorSuite) TestMalformedPayloadAckedWithError() {
	alice := s.connect(1, "Alice")

	s.dispatch(alice, model.EventLeaveGame, `"not-an-object"`)
	s.sync()

	s.Equal(model.ErrCodeInvalidPayload, alice.lastErrorCode())
}

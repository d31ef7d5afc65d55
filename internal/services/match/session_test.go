package match

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/pongduel-go/internal/dependencies/mocks"
	"github.com/mcoot/pongduel-go/internal/engine"
	"github.com/mcoot/pongduel-go/internal/model"
	"github.com/mcoot/pongduel-go/internal/testutil"
)

// fakeSender records outbound events for assertions
type fakeSender struct {
	events []sentEvent
}

type sentEvent struct {
	event model.EventType
	data  any
}

func (f *fakeSender) SendEvent(event model.EventType, data any) {
	f.events = append(f.events, sentEvent{event: event, data: data})
}

func (f *fakeSender) last() sentEvent {
	return f.events[len(f.events)-1]
}

func (f *fakeSender) count(event model.EventType) int {
	n := 0
	for _, e := range f.events {
		if e.event == event {
			n++
		}
	}
	return n
}

type SessionSuite struct {
	suite.Suite
	clock   *mocks.MockClock
	connA   *fakeSender
	connB   *fakeSender
	session *Session
}

func TestSessionSuite(t *testing.T) {
	suite.Run(t, new(SessionSuite))
}

func (s *SessionSuite) SetupTest() {
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.connA = &fakeSender{}
	s.connB = &fakeSender{}
	s.session = NewSession(
		"m_test",
		model.ModeClassic,
		Participant{Player: model.Player{ID: 1, DisplayName: "Alice"}, Conn: s.connA},
		Participant{Player: model.Player{ID: 2, DisplayName: "Bob"}, Conn: s.connB},
		engine.NewScoreWatcher(3),
		s.clock,
		testutil.NopLogger(),
	)
}

func (s *SessionSuite) activate() {
	s.session.Join(1)
	s.session.Join(2)
}

func (s *SessionSuite) TestStartsPending() {
	s.Equal(model.MatchStatePending, s.session.State())
	s.Empty(s.connA.events)
}

func (s *SessionSuite) TestActivatesWhenBothJoined() {
	s.session.Join(1)
	s.Equal(model.MatchStatePending, s.session.State())

	s.session.Join(2)
	s.Equal(model.MatchStateActive, s.session.State())

	s.Require().Len(s.connA.events, 1)
	readyA := s.connA.last().data.(model.GameReadyPayload)
	s.Equal(model.MatchID("m_test"), readyA.SessionID)
	s.Equal(model.SlotA, readyA.Side)
	s.Equal(model.PlayerID(2), readyA.OpponentID)
	s.Equal("Bob", readyA.OpponentName)

	readyB := s.connB.last().data.(model.GameReadyPayload)
	s.Equal(readyA.SessionID, readyB.SessionID)
	s.Equal(model.SlotB, readyB.Side)
	s.Equal(model.PlayerID(1), readyB.OpponentID)
}

func (s *SessionSuite) TestJoinByStrangerIgnored() {
	s.session.Join(1)
	s.session.Join(99)
	s.Equal(model.MatchStatePending, s.session.State())
}

func (s *SessionSuite) TestRelayForwardsToOpponentOnly() {
	s.activate()
	payload := json.RawMessage(`{"player_y": 17}`)

	rec, err := s.session.Relay(1, payload)
	s.Require().NoError(err)
	s.Nil(rec)

	s.Equal(1, s.connB.count(model.EventPaddleMove))
	s.Equal(0, s.connA.count(model.EventPaddleMove))
	s.Equal(payload, s.connB.last().data)
}

func (s *SessionSuite) TestRelayDroppedWhilePending() {
	_, err := s.session.Relay(1, json.RawMessage(`{}`))
	s.ErrorIs(err, model.ErrMatchNotActive)
	s.Equal(0, s.connB.count(model.EventPaddleMove))
}

func (s *SessionSuite) TestRelayFromStranger() {
	s.activate()
	_, err := s.session.Relay(99, json.RawMessage(`{}`))
	s.ErrorIs(err, model.ErrNotInMatch)
}

func (s *SessionSuite) TestEngineTerminationFinishesSession() {
	s.activate()
	start := s.clock.CurrentTime
	s.clock.Advance(5 * time.Minute)

	var rec *model.MatchRecord
	var err error
	_, err = s.session.Relay(1, json.RawMessage(`{"goal": "a"}`))
	s.Require().NoError(err)
	_, err = s.session.Relay(2, json.RawMessage(`{"goal": "a"}`))
	s.Require().NoError(err)
	rec, err = s.session.Relay(1, json.RawMessage(`{"goal": "a"}`))
	s.Require().NoError(err)

	s.Require().NotNil(rec)
	s.Equal(model.MatchStateFinished, s.session.State())
	s.Equal(3, rec.ScoreA)
	s.Equal(0, rec.ScoreB)
	s.Equal(model.PlayerID(1), rec.Winner())
	s.Equal(model.EndReasonScore, rec.Reason)
	s.Equal(model.RecordStatusFinished, rec.Status)
	s.Equal(start, rec.StartedAt)
	s.Equal(s.clock.CurrentTime, rec.EndedAt)

	// Both participants notified exactly once
	s.Equal(1, s.connA.count(model.EventGameOver))
	s.Equal(1, s.connB.count(model.EventGameOver))
	over := s.connA.last().data.(model.GameOverPayload)
	s.Equal(model.PlayerID(1), over.WinnerID)
}

func (s *SessionSuite) TestRelayDroppedAfterFinish() {
	s.activate()
	for i := 0; i < 3; i++ {
		_, _ = s.session.Relay(1, json.RawMessage(`{"goal": "a"}`))
	}

	_, err := s.session.Relay(2, json.RawMessage(`{"player_y": 3}`))
	s.ErrorIs(err, model.ErrMatchNotActive)
}

func (s *SessionSuite) TestForfeitAwardsRemainingParticipant() {
	s.activate()
	_, _ = s.session.Relay(2, json.RawMessage(`{"goal": "b"}`))

	rec := s.session.Forfeit(1, model.EndReasonForfeit)
	s.Require().NotNil(rec)
	s.Equal(model.PlayerID(2), rec.Winner())
	s.Greater(rec.ScoreB, rec.ScoreA)
	s.Equal(model.EndReasonForfeit, rec.Reason)
}

func (s *SessionSuite) TestForfeitIdempotent() {
	s.activate()
	rec := s.session.Forfeit(1, model.EndReasonLeave)
	s.Require().NotNil(rec)

	s.Nil(s.session.Forfeit(2, model.EndReasonForfeit))
	s.Equal(1, s.connA.count(model.EventGameOver))
}

func (s *SessionSuite) TestForfeitFromPending() {
	rec := s.session.Forfeit(2, model.EndReasonForfeit)
	s.Require().NotNil(rec)
	s.Equal(model.PlayerID(1), rec.Winner())
	s.Equal(model.MatchStateFinished, s.session.State())
}

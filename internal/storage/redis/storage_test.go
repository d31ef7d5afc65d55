package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/pongduel-go/internal/model"
)

type StorageSuite struct {
	suite.Suite

	mini    *miniredis.Miniredis
	storage *Storage
	ctx     context.Context
}

func (s *StorageSuite) SetupTest() {
	s.mini = miniredis.RunT(s.T())

	client := redis.NewClient(&redis.Options{
		Addr: s.mini.Addr(),
	})

	cfg := DefaultConfig()
	cfg.GuestPlayerTTL = time.Hour

	s.storage = NewWithClient(client, cfg)
	s.ctx = context.Background()
}

func (s *StorageSuite) TearDownTest() {
	_ = s.storage.Close()
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) TestAllocatePlayerIDIsMonotonic() {
	first, err := s.storage.AllocatePlayerID(s.ctx)
	s.Require().NoError(err)
	second, err := s.storage.AllocatePlayerID(s.ctx)
	s.Require().NoError(err)

	s.Equal(model.PlayerID(1), first)
	s.Equal(model.PlayerID(2), second)
}

func (s *StorageSuite) TestSaveAndGetPlayer() {
	player := &model.Player{ID: 1, DisplayName: "Alice", IsGuest: false}
	s.Require().NoError(s.storage.SavePlayer(s.ctx, player))

	got, err := s.storage.GetPlayer(s.ctx, 1)
	s.Require().NoError(err)
	s.Equal("Alice", got.DisplayName)

	_, err = s.storage.GetPlayer(s.ctx, 42)
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

func (s *StorageSuite) TestGuestPlayerExpires() {
	player := &model.Player{ID: 1, DisplayName: "guest", IsGuest: true}
	s.Require().NoError(s.storage.SavePlayer(s.ctx, player))

	s.mini.FastForward(2 * time.Hour)

	_, err := s.storage.GetPlayer(s.ctx, 1)
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

func (s *StorageSuite) TestRegisteredPlayerDoesNotExpire() {
	rp := &model.RegisteredPlayer{PlayerID: 1, Username: "alice", PasswordHash: "hash"}
	s.Require().NoError(s.storage.SaveRegisteredPlayer(s.ctx, rp))

	s.mini.FastForward(48 * time.Hour)

	got, err := s.storage.GetRegisteredPlayer(s.ctx, 1)
	s.Require().NoError(err)
	s.Equal("alice", got.Username)
}

func (s *StorageSuite) TestDeletePlayer() {
	s.Require().NoError(s.storage.SavePlayer(s.ctx, &model.Player{ID: 1}))
	s.Require().NoError(s.storage.DeletePlayer(s.ctx, 1))

	_, err := s.storage.GetPlayer(s.ctx, 1)
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

func (s *StorageSuite) TestRegisteredPlayerUsernameIndex() {
	rp := &model.RegisteredPlayer{PlayerID: 7, Username: "alice", PasswordHash: "hash"}
	s.Require().NoError(s.storage.SaveRegisteredPlayer(s.ctx, rp))

	got, err := s.storage.GetRegisteredPlayerByUsername(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal(model.PlayerID(7), got.PlayerID)

	_, err = s.storage.GetRegisteredPlayerByUsername(s.ctx, "bob")
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

func (s *StorageSuite) TestMatchRecordRoundTrip() {
	rec := &model.MatchRecord{
		MatchID: "m_1",
		PlayerA: 1,
		PlayerB: 2,
		ScoreA:  11,
		ScoreB:  7,
		Mode:    model.ModeClassic,
		Status:  model.RecordStatusFinished,
		Reason:  model.EndReasonScore,
	}
	s.Require().NoError(s.storage.SaveMatchRecord(s.ctx, rec))

	got, err := s.storage.GetMatchRecord(s.ctx, "m_1")
	s.Require().NoError(err)
	s.Equal(11, got.ScoreA)
	s.Equal(model.EndReasonScore, got.Reason)

	_, err = s.storage.GetMatchRecord(s.ctx, "m_2")
	s.ErrorIs(err, model.ErrRecordNotFound)
}

func (s *StorageSuite) TestListMatchRecordsForPlayer() {
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	s.Require().NoError(s.storage.SaveMatchRecord(s.ctx, &model.MatchRecord{
		MatchID: "m_1", PlayerA: 1, PlayerB: 2, EndedAt: base,
	}))
	s.Require().NoError(s.storage.SaveMatchRecord(s.ctx, &model.MatchRecord{
		MatchID: "m_2", PlayerA: 3, PlayerB: 1, EndedAt: base.Add(time.Hour),
	}))

	records, err := s.storage.ListMatchRecordsForPlayer(s.ctx, 1)
	s.Require().NoError(err)
	s.Require().Len(records, 2)
	// Most recent first
	s.Equal(model.MatchID("m_2"), records[0].MatchID)
	s.Equal(model.MatchID("m_1"), records[1].MatchID)

	records, err = s.storage.ListMatchRecordsForPlayer(s.ctx, 4)
	s.Require().NoError(err)
	s.Empty(records)
}

func TestNewRejectsBadURL(t *testing.T) {
	cfg := DefaultConfig()
	cfg.URL = "not-a-url"

	_, err := New(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis")
}

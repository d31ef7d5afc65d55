package history

import (
	"context"
	"log/slog"

	"github.com/mcoot/pongduel-go/internal/model"
	"github.com/mcoot/pongduel-go/internal/services/match"
	"github.com/mcoot/pongduel-go/internal/storage"
)

// Service persists finished match results and serves match history queries
type Service struct {
	storage storage.Storage
	logger  *slog.Logger
}

// New creates a new history service
func New(storage storage.Storage, logger *slog.Logger) *Service {
	return &Service{
		storage: storage,
		logger:  logger.With(slog.String("component", "history")),
	}
}

// Ensure Service can be used as the match result sink
var _ match.Recorder = (*Service)(nil)

// RecordResult persists the record of a finished match
func (s *Service) RecordResult(ctx context.Context, rec *model.MatchRecord) error {
	if err := s.storage.SaveMatchRecord(ctx, rec); err != nil {
		return err
	}
	s.logger.Info("match result recorded",
		slog.String("match_id", string(rec.MatchID)),
		slog.Int("score_a", rec.ScoreA),
		slog.Int("score_b", rec.ScoreB),
		slog.String("reason", string(rec.Reason)))
	return nil
}

// GetMatch returns the record of a finished match
func (s *Service) GetMatch(ctx context.Context, id model.MatchID) (*model.MatchRecord, error) {
	return s.storage.GetMatchRecord(ctx, id)
}

// ListForPlayer returns a player's finished matches, most recent first
func (s *Service) ListForPlayer(ctx context.Context, playerID model.PlayerID) ([]*model.MatchRecord, error) {
	return s.storage.ListMatchRecordsForPlayer(ctx, playerID)
}

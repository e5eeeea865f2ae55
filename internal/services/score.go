package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aurahq/aura-backend/internal/clients/redis"
	"github.com/aurahq/aura-backend/internal/data/repos"
	types "github.com/aurahq/aura-backend/internal/domain"
	"github.com/aurahq/aura-backend/internal/pkg/apperr"
	"github.com/aurahq/aura-backend/internal/platform/logger"
)

type ScoreService interface {
	// GetLive serves the cached live snapshot when present, falling back
	// to the persisted row.
	GetLive(ctx context.Context, userID uuid.UUID) (*types.LiveScore, error)
	GetDaily(ctx context.Context, userID uuid.UUID, date time.Time) (*types.DailyScore, error)
	ListDaily(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]*types.DailyScore, error)
}

type scoreService struct {
	db    *gorm.DB
	log   *logger.Logger
	daily repos.DailyScoreRepo
	live  repos.LiveScoreRepo
	cache redis.LiveScoreCache
}

func NewScoreService(db *gorm.DB, baseLog *logger.Logger, daily repos.DailyScoreRepo, live repos.LiveScoreRepo, cache redis.LiveScoreCache) ScoreService {
	return &scoreService{
		db:    db,
		log:   baseLog.With("service", "ScoreService"),
		daily: daily,
		live:  live,
		cache: cache,
	}
}

func (s *scoreService) GetLive(ctx context.Context, userID uuid.UUID) (*types.LiveScore, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("%w: missing user id", apperr.ErrInvalidArgument)
	}
	if s.cache != nil {
		raw, err := s.cache.GetLiveScore(ctx, userID)
		if err != nil {
			s.log.Warn("live cache read failed", "user_id", userID, "error", err)
		} else if raw != nil {
			var live types.LiveScore
			if uErr := json.Unmarshal(raw, &live); uErr == nil {
				return &live, nil
			}
			s.log.Warn("bad live cache payload", "user_id", userID)
		}
	}
	live, err := s.live.GetByUser(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}
	if live == nil {
		return nil, apperr.ErrNotFound
	}
	return live, nil
}

func (s *scoreService) GetDaily(ctx context.Context, userID uuid.UUID, date time.Time) (*types.DailyScore, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("%w: missing user id", apperr.ErrInvalidArgument)
	}
	row, err := s.daily.GetByUserDate(ctx, s.db, userID, date)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, apperr.ErrNotFound
	}
	return row, nil
}

func (s *scoreService) ListDaily(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]*types.DailyScore, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("%w: missing user id", apperr.ErrInvalidArgument)
	}
	if !to.After(from) {
		return nil, fmt.Errorf("%w: empty date range", apperr.ErrInvalidArgument)
	}
	return s.daily.ListRange(ctx, s.db, userID, from, to)
}

package scoring

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/aurahq/aura-backend/internal/domain"
	"github.com/aurahq/aura-backend/internal/platform/logger"
)

type LiveScoreRepo interface {
	Upsert(ctx context.Context, tx *gorm.DB, score *types.LiveScore) error
	GetByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.LiveScore, error)
}

type liveScoreRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLiveScoreRepo(db *gorm.DB, baseLog *logger.Logger) LiveScoreRepo {
	return &liveScoreRepo{db: db, log: baseLog.With("repo", "LiveScoreRepo")}
}

func (r *liveScoreRepo) Upsert(ctx context.Context, tx *gorm.DB, score *types.LiveScore) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if score == nil {
		return nil
	}
	return t.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"date", "score", "zone", "percent", "contributors", "forecast", "day_risks", "updated_at",
			}),
		}).
		Create(score).Error
}

func (r *liveScoreRepo) GetByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.LiveScore, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if userID == uuid.Nil {
		return nil, nil
	}
	var row types.LiveScore
	err := t.WithContext(ctx).
		Where("user_id = ?", userID).
		Limit(1).
		Find(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

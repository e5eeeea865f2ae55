package scoring

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/aurahq/aura-backend/internal/domain"
	"github.com/aurahq/aura-backend/internal/platform/logger"
)

type DailyScoreRepo interface {
	// Upsert replaces the whole row for (user_id, date); scoring passes
	// recompute from source events, so convergent overwrites are safe.
	Upsert(ctx context.Context, tx *gorm.DB, score *types.DailyScore) error
	GetByUserDate(ctx context.Context, tx *gorm.DB, userID uuid.UUID, date time.Time) (*types.DailyScore, error)
	ListRange(ctx context.Context, tx *gorm.DB, userID uuid.UUID, from, to time.Time) ([]*types.DailyScore, error)
}

type dailyScoreRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDailyScoreRepo(db *gorm.DB, baseLog *logger.Logger) DailyScoreRepo {
	return &dailyScoreRepo{db: db, log: baseLog.With("repo", "DailyScoreRepo")}
}

func (r *dailyScoreRepo) Upsert(ctx context.Context, tx *gorm.DB, score *types.DailyScore) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if score == nil {
		return nil
	}
	return t.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "date"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"score", "zone", "percent", "contributors", "updated_at",
			}),
		}).
		Create(score).Error
}

func (r *dailyScoreRepo) GetByUserDate(ctx context.Context, tx *gorm.DB, userID uuid.UUID, date time.Time) (*types.DailyScore, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if userID == uuid.Nil {
		return nil, nil
	}
	var row types.DailyScore
	err := t.WithContext(ctx).
		Where("user_id = ? AND date = ?", userID, date).
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

func (r *dailyScoreRepo) ListRange(ctx context.Context, tx *gorm.DB, userID uuid.UUID, from, to time.Time) ([]*types.DailyScore, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if userID == uuid.Nil {
		return []*types.DailyScore{}, nil
	}
	var out []*types.DailyScore
	err := t.WithContext(ctx).
		Where("user_id = ? AND date >= ? AND date < ?", userID, from, to).
		Order("date ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

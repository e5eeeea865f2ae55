package scoring

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/aurahq/aura-backend/internal/domain"
	"github.com/aurahq/aura-backend/internal/pkg/apperr"
	"github.com/aurahq/aura-backend/internal/platform/logger"
)

type DecayWeightRepo interface {
	UpsertSystem(ctx context.Context, tx *gorm.DB, weights []*types.DecayWeight) error
	// ResolveForUser returns severity -> 7-day weight curve, user rows
	// overriding system defaults. Returns apperr.ErrNotConfigured when no
	// rows exist at all.
	ResolveForUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (map[string][7]float64, error)
}

type decayWeightRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDecayWeightRepo(db *gorm.DB, baseLog *logger.Logger) DecayWeightRepo {
	return &decayWeightRepo{db: db, log: baseLog.With("repo", "DecayWeightRepo")}
}

func (r *decayWeightRepo) UpsertSystem(ctx context.Context, tx *gorm.DB, weights []*types.DecayWeight) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(weights) == 0 {
		return nil
	}
	for _, w := range weights {
		w.UserID = nil
	}
	return t.WithContext(ctx).
		Clauses(clause.OnConflict{
			// System rows carry a NULL user_id, so the arbiter must be the
			// partial index; a NULL-keyed composite target never matches.
			Columns:     []clause.Column{{Name: "severity"}},
			TargetWhere: clause.Where{Exprs: []clause.Expression{clause.Expr{SQL: "user_id IS NULL"}}},
			DoUpdates: clause.AssignmentColumns([]string{
				"day_0", "day_1", "day_2", "day_3", "day_4", "day_5", "day_6", "updated_at",
			}),
		}).
		Create(&weights).Error
}

func (r *decayWeightRepo) ResolveForUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (map[string][7]float64, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var rows []*types.DecayWeight
	q := t.WithContext(ctx).Where("user_id IS NULL")
	if userID != uuid.Nil {
		q = t.WithContext(ctx).Where("user_id IS NULL OR user_id = ?", userID)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, apperr.ErrNotConfigured
	}
	out := map[string][7]float64{}
	for _, w := range rows {
		if w.UserID == nil {
			if _, ok := out[w.Severity]; !ok {
				out[w.Severity] = w.Days()
			}
		}
	}
	for _, w := range rows {
		if w.UserID != nil {
			out[w.Severity] = w.Days()
		}
	}
	return out, nil
}

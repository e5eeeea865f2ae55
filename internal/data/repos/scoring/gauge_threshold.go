package scoring

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/aurahq/aura-backend/internal/domain"
	"github.com/aurahq/aura-backend/internal/pkg/apperr"
	"github.com/aurahq/aura-backend/internal/platform/logger"
)

// Thresholds is the resolved zone ladder for one user.
type Thresholds struct {
	High float64
	Mild float64
	Low  float64
}

func (t Thresholds) Validate() error {
	if t.High < t.Mild || t.Mild < t.Low {
		return fmt.Errorf("gauge thresholds out of order: high=%v mild=%v low=%v", t.High, t.Mild, t.Low)
	}
	return nil
}

type GaugeThresholdRepo interface {
	UpsertSystem(ctx context.Context, tx *gorm.DB, thresholds []*types.GaugeThreshold) error
	// ResolveForUser merges system defaults with the user's overrides and
	// validates the ladder ordering. Returns apperr.ErrNotConfigured when
	// any zone is missing.
	ResolveForUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (Thresholds, error)
}

type gaugeThresholdRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewGaugeThresholdRepo(db *gorm.DB, baseLog *logger.Logger) GaugeThresholdRepo {
	return &gaugeThresholdRepo{db: db, log: baseLog.With("repo", "GaugeThresholdRepo")}
}

func (r *gaugeThresholdRepo) UpsertSystem(ctx context.Context, tx *gorm.DB, thresholds []*types.GaugeThreshold) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(thresholds) == 0 {
		return nil
	}
	for _, row := range thresholds {
		row.UserID = nil
	}
	return t.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:     []clause.Column{{Name: "zone"}},
			TargetWhere: clause.Where{Exprs: []clause.Expression{clause.Expr{SQL: "user_id IS NULL"}}},
			DoUpdates:   clause.AssignmentColumns([]string{"min_value", "updated_at"}),
		}).
		Create(&thresholds).Error
}

func (r *gaugeThresholdRepo) ResolveForUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (Thresholds, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var rows []*types.GaugeThreshold
	q := t.WithContext(ctx).Where("user_id IS NULL")
	if userID != uuid.Nil {
		q = t.WithContext(ctx).Where("user_id IS NULL OR user_id = ?", userID)
	}
	if err := q.Find(&rows).Error; err != nil {
		return Thresholds{}, err
	}

	byZone := map[string]float64{}
	for _, row := range rows {
		if row.UserID == nil {
			if _, ok := byZone[row.Zone]; !ok {
				byZone[row.Zone] = row.MinValue
			}
		}
	}
	for _, row := range rows {
		if row.UserID != nil {
			byZone[row.Zone] = row.MinValue
		}
	}

	high, okHigh := byZone[types.ZoneHigh]
	mild, okMild := byZone[types.ZoneMild]
	low, okLow := byZone[types.ZoneLow]
	if !okHigh || !okMild || !okLow {
		return Thresholds{}, apperr.ErrNotConfigured
	}
	out := Thresholds{High: high, Mild: mild, Low: low}
	if err := out.Validate(); err != nil {
		return Thresholds{}, err
	}
	return out, nil
}

package catalog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/aurahq/aura-backend/internal/domain"
	"github.com/aurahq/aura-backend/internal/platform/logger"
)

type TriggerDefinitionRepo interface {
	Create(ctx context.Context, tx *gorm.DB, defs []*types.TriggerDefinition) ([]*types.TriggerDefinition, error)
	// UpsertSystem seeds or refreshes system catalog rows keyed by label.
	UpsertSystem(ctx context.Context, tx *gorm.DB, defs []*types.TriggerDefinition) error
	// ListForUser returns the system catalog plus the user's private rules.
	ListForUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.TriggerDefinition, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.TriggerDefinition, error)
}

type triggerDefinitionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTriggerDefinitionRepo(db *gorm.DB, baseLog *logger.Logger) TriggerDefinitionRepo {
	return &triggerDefinitionRepo{db: db, log: baseLog.With("repo", "TriggerDefinitionRepo")}
}

func (r *triggerDefinitionRepo) Create(ctx context.Context, tx *gorm.DB, defs []*types.TriggerDefinition) ([]*types.TriggerDefinition, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(defs) == 0 {
		return []*types.TriggerDefinition{}, nil
	}
	if err := t.WithContext(ctx).Create(&defs).Error; err != nil {
		return nil, err
	}
	return defs, nil
}

func (r *triggerDefinitionRepo) UpsertSystem(ctx context.Context, tx *gorm.DB, defs []*types.TriggerDefinition) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(defs) == 0 {
		return nil
	}
	for _, d := range defs {
		d.OwnerUserID = nil
	}
	return t.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:     []clause.Column{{Name: "label"}},
			TargetWhere: clause.Where{Exprs: []clause.Expression{clause.Expr{SQL: "owner_user_id IS NULL"}}},
			DoUpdates: clause.AssignmentColumns([]string{
				"category",
				"direction",
				"metric_table",
				"metric_column",
				"value_kind",
				"default_threshold",
				"baseline_window_days",
				"baseline_strategy",
				"enabled_by_default",
				"display_group",
				"updated_at",
			}),
		}).
		Create(&defs).Error
}

func (r *triggerDefinitionRepo) ListForUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.TriggerDefinition, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.TriggerDefinition
	q := t.WithContext(ctx).Where("owner_user_id IS NULL")
	if userID != uuid.Nil {
		q = t.WithContext(ctx).Where("owner_user_id IS NULL OR owner_user_id = ?", userID)
	}
	if err := q.Order("label ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *triggerDefinitionRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.TriggerDefinition, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.TriggerDefinition
	if len(ids) == 0 {
		return out, nil
	}
	if err := t.WithContext(ctx).Where("id IN ?", ids).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

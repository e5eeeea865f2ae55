package catalog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/aurahq/aura-backend/internal/domain"
	"github.com/aurahq/aura-backend/internal/platform/logger"
)

type TriggerSettingRepo interface {
	Upsert(ctx context.Context, tx *gorm.DB, setting *types.TriggerSetting) error
	// ListByUser returns the user's overrides keyed by definition id.
	ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (map[uuid.UUID]*types.TriggerSetting, error)
}

type triggerSettingRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTriggerSettingRepo(db *gorm.DB, baseLog *logger.Logger) TriggerSettingRepo {
	return &triggerSettingRepo{db: db, log: baseLog.With("repo", "TriggerSettingRepo")}
}

func (r *triggerSettingRepo) Upsert(ctx context.Context, tx *gorm.DB, setting *types.TriggerSetting) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if setting == nil {
		return nil
	}
	return t.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "definition_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"enabled", "threshold", "updated_at"}),
		}).
		Create(setting).Error
}

func (r *triggerSettingRepo) ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (map[uuid.UUID]*types.TriggerSetting, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	out := map[uuid.UUID]*types.TriggerSetting{}
	if userID == uuid.Nil {
		return out, nil
	}
	var rows []*types.TriggerSetting
	if err := t.WithContext(ctx).Where("user_id = ?", userID).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, s := range rows {
		out[s.DefinitionID] = s
	}
	return out, nil
}

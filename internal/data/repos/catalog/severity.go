package catalog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/aurahq/aura-backend/internal/domain"
	"github.com/aurahq/aura-backend/internal/platform/logger"
)

type SeverityMappingRepo interface {
	UpsertSystem(ctx context.Context, tx *gorm.DB, mappings []*types.SeverityMapping) error
	UpsertForUser(ctx context.Context, tx *gorm.DB, mapping *types.SeverityMapping) error
	// ResolveForUser returns trigger type -> severity, with user rows
	// overriding system defaults. Unmapped types resolve to "none".
	ResolveForUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (map[string]string, error)
}

type severityMappingRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSeverityMappingRepo(db *gorm.DB, baseLog *logger.Logger) SeverityMappingRepo {
	return &severityMappingRepo{db: db, log: baseLog.With("repo", "SeverityMappingRepo")}
}

func (r *severityMappingRepo) UpsertSystem(ctx context.Context, tx *gorm.DB, mappings []*types.SeverityMapping) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(mappings) == 0 {
		return nil
	}
	for _, m := range mappings {
		m.UserID = nil
	}
	return t.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:     []clause.Column{{Name: "trigger_type"}},
			TargetWhere: clause.Where{Exprs: []clause.Expression{clause.Expr{SQL: "user_id IS NULL"}}},
			DoUpdates:   clause.AssignmentColumns([]string{"severity", "updated_at"}),
		}).
		Create(&mappings).Error
}

func (r *severityMappingRepo) UpsertForUser(ctx context.Context, tx *gorm.DB, mapping *types.SeverityMapping) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if mapping == nil || mapping.UserID == nil {
		return nil
	}
	return t.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "trigger_type"}},
			DoUpdates: clause.AssignmentColumns([]string{"severity", "updated_at"}),
		}).
		Create(mapping).Error
}

func (r *severityMappingRepo) ResolveForUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (map[string]string, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var rows []*types.SeverityMapping
	q := t.WithContext(ctx).Where("user_id IS NULL")
	if userID != uuid.Nil {
		q = t.WithContext(ctx).Where("user_id IS NULL OR user_id = ?", userID)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := map[string]string{}
	for _, m := range rows {
		if m.UserID == nil {
			if _, ok := out[m.TriggerType]; !ok {
				out[m.TriggerType] = m.Severity
			}
		}
	}
	for _, m := range rows {
		if m.UserID != nil {
			out[m.TriggerType] = m.Severity
		}
	}
	return out, nil
}

package events

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/aurahq/aura-backend/internal/domain"
	"github.com/aurahq/aura-backend/internal/platform/logger"
)

type TriggerEventRepo interface {
	// UpsertSystem records a system-sourced firing. The natural key
	// (user_id, type, source, occurred_date) dedupes: an existing row is
	// never duplicated, its notes and labels absorb the new reason when it
	// is not already present. Safe to re-run.
	UpsertSystem(ctx context.Context, tx *gorm.DB, event *types.TriggerEvent) error
	CreateManual(ctx context.Context, tx *gorm.DB, event *types.TriggerEvent) (*types.TriggerEvent, error)

	// ListInRange returns a user's events with occurred_date in [from, to).
	ListInRange(ctx context.Context, tx *gorm.DB, userID uuid.UUID, from, to time.Time) ([]*types.TriggerEvent, error)
	GetByNaturalKey(ctx context.Context, tx *gorm.DB, userID uuid.UUID, eventType, source string, occurred time.Time) (*types.TriggerEvent, error)
}

type triggerEventRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTriggerEventRepo(db *gorm.DB, baseLog *logger.Logger) TriggerEventRepo {
	return &triggerEventRepo{db: db, log: baseLog.With("repo", "TriggerEventRepo")}
}

// appendDistinct builds the conflict assignment that appends the incoming
// value to an existing "; "-joined column only when it is not already
// contained, keeping re-evaluation idempotent.
func appendDistinct(column string) clause.Expr {
	return gorm.Expr(`CASE
    WHEN excluded.` + column + ` = '' THEN trigger_event.` + column + `
    WHEN trigger_event.` + column + ` = '' THEN excluded.` + column + `
    WHEN position(excluded.` + column + ` in trigger_event.` + column + `) > 0 THEN trigger_event.` + column + `
    ELSE trigger_event.` + column + ` || '; ' || excluded.` + column + `
  END`)
}

func (r *triggerEventRepo) UpsertSystem(ctx context.Context, tx *gorm.DB, event *types.TriggerEvent) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if event == nil {
		return nil
	}
	event.Source = types.SourceSystem
	return t.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "user_id"}, {Name: "type"}, {Name: "source"}, {Name: "occurred_date"},
			},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"notes":      appendDistinct("notes"),
				"labels":     appendDistinct("labels"),
				"updated_at": time.Now(),
			}),
		}).
		Create(event).Error
}

func (r *triggerEventRepo) CreateManual(ctx context.Context, tx *gorm.DB, event *types.TriggerEvent) (*types.TriggerEvent, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if event == nil {
		return nil, nil
	}
	event.Source = types.SourceManual
	if err := t.WithContext(ctx).Create(event).Error; err != nil {
		return nil, err
	}
	return event, nil
}

func (r *triggerEventRepo) ListInRange(ctx context.Context, tx *gorm.DB, userID uuid.UUID, from, to time.Time) ([]*types.TriggerEvent, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if userID == uuid.Nil {
		return []*types.TriggerEvent{}, nil
	}
	var out []*types.TriggerEvent
	err := t.WithContext(ctx).
		Where("user_id = ? AND occurred_date >= ? AND occurred_date < ?", userID, from, to).
		Order("occurred_date ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *triggerEventRepo) GetByNaturalKey(ctx context.Context, tx *gorm.DB, userID uuid.UUID, eventType, source string, occurred time.Time) (*types.TriggerEvent, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if userID == uuid.Nil || eventType == "" {
		return nil, nil
	}
	var ev types.TriggerEvent
	err := t.WithContext(ctx).
		Where("user_id = ? AND type = ? AND source = ? AND occurred_date = ?", userID, eventType, source, occurred).
		Limit(1).
		Find(&ev).Error
	if err != nil {
		return nil, err
	}
	if ev.ID == uuid.Nil {
		return nil, nil
	}
	return &ev, nil
}

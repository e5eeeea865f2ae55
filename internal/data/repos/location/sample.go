package location

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/aurahq/aura-backend/internal/domain"
	"github.com/aurahq/aura-backend/internal/platform/logger"
)

type SampleRepo interface {
	Upsert(ctx context.Context, tx *gorm.DB, sample *types.LocationSample) error
	// ResolveTimezone returns the user's IANA zone for the given date,
	// searching the exact date first, then the adjacent days. Empty string
	// means no sample was found; callers fall back to the user default,
	// then UTC.
	ResolveTimezone(ctx context.Context, tx *gorm.DB, userID uuid.UUID, date time.Time) (string, error)
}

type sampleRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSampleRepo(db *gorm.DB, baseLog *logger.Logger) SampleRepo {
	return &sampleRepo{db: db, log: baseLog.With("repo", "LocationSampleRepo")}
}

func (r *sampleRepo) Upsert(ctx context.Context, tx *gorm.DB, sample *types.LocationSample) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if sample == nil {
		return nil
	}
	return t.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "date"}},
			DoUpdates: clause.AssignmentColumns([]string{"timezone", "latitude", "longitude", "updated_at"}),
		}).
		Create(sample).Error
}

func (r *sampleRepo) ResolveTimezone(ctx context.Context, tx *gorm.DB, userID uuid.UUID, date time.Time) (string, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if userID == uuid.Nil {
		return "", nil
	}
	for _, d := range []time.Time{date, date.AddDate(0, 0, -1), date.AddDate(0, 0, 1)} {
		var row types.LocationSample
		err := t.WithContext(ctx).
			Where("user_id = ? AND date = ?", userID, d).
			Limit(1).
			Find(&row).Error
		if err != nil {
			return "", err
		}
		if row.ID != uuid.Nil && row.Timezone != "" {
			return row.Timezone, nil
		}
	}
	return "", nil
}

package scoring

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// DailyScore is the persisted per-day snapshot: score, zone, percent and
// the full contributor breakdown. Recomputed whole and upserted on every
// scoring pass.
type DailyScore struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_daily_score_user_date" json:"user_id"`
	Date   time.Time `gorm:"column:date;type:date;not null;uniqueIndex:uq_daily_score_user_date;index" json:"date"`

	Score   int    `gorm:"column:score;not null" json:"score"`
	Zone    string `gorm:"column:zone;not null" json:"zone"`
	Percent int    `gorm:"column:percent;not null" json:"percent"`

	// Contributors is the JSON-encoded contributor breakdown
	// [{name, score, severity, days_active}]. Never truncated: the
	// contributor scores sum exactly to Score.
	Contributors datatypes.JSON `gorm:"column:contributors;type:jsonb" json:"contributors"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (DailyScore) TableName() string { return "daily_score" }

// LiveScore is the single rolling snapshot per user: today's breakdown
// plus the 7-day forward forecast.
type LiveScore struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	Date   time.Time `gorm:"column:date;type:date;not null" json:"date"`

	Score   int    `gorm:"column:score;not null" json:"score"`
	Zone    string `gorm:"column:zone;not null" json:"zone"`
	Percent int    `gorm:"column:percent;not null" json:"percent"`

	Contributors datatypes.JSON `gorm:"column:contributors;type:jsonb" json:"contributors"`
	// Forecast is the 7-element percent sequence for date..date+6.
	Forecast datatypes.JSON `gorm:"column:forecast;type:jsonb" json:"forecast"`
	// DayRisks is the full per-day breakdown behind Forecast.
	DayRisks datatypes.JSON `gorm:"column:day_risks;type:jsonb" json:"day_risks"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (LiveScore) TableName() string { return "live_score" }

package metrics

import (
	"time"

	"github.com/google/uuid"
)

// Per-day metric tables are written by the external ingestion service and
// read-only here. The two below ship with the backend so local setups and
// repo tests have real tables behind the catalog's metric references;
// production adds further tables out of band.

type SleepDaily struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_sleep_daily_user_date" json:"user_id"`
	Date   time.Time `gorm:"column:date;type:date;not null;uniqueIndex:uq_sleep_daily_user_date" json:"date"`

	TotalMinutes *float64   `gorm:"column:total_minutes" json:"total_minutes,omitempty"`
	Quality      *string    `gorm:"column:quality" json:"quality,omitempty"`
	Bedtime      *time.Time `gorm:"column:bedtime" json:"bedtime,omitempty"`
	WakeTime     *time.Time `gorm:"column:wake_time" json:"wake_time,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (SleepDaily) TableName() string { return "sleep_daily" }

type WellnessDaily struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_wellness_daily_user_date" json:"user_id"`
	Date   time.Time `gorm:"column:date;type:date;not null;uniqueIndex:uq_wellness_daily_user_date" json:"date"`

	StressLevel *string  `gorm:"column:stress_level" json:"stress_level,omitempty"`
	WaterMl     *float64 `gorm:"column:water_ml" json:"water_ml,omitempty"`
	StepCount   *float64 `gorm:"column:step_count" json:"step_count,omitempty"`
	CaffeineMg  *float64 `gorm:"column:caffeine_mg" json:"caffeine_mg,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (WellnessDaily) TableName() string { return "wellness_daily" }

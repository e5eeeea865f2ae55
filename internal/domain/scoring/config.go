package scoring

import (
	"time"

	"github.com/google/uuid"
)

const (
	ZoneNone = "none"
	ZoneLow  = "low"
	ZoneMild = "mild"
	ZoneHigh = "high"
)

// DecayWeight holds one severity's contribution curve, indexed by whole
// days since the event (day 0 = the perspective date). A nil UserID row is
// the system default; a user row overrides it.
type DecayWeight struct {
	ID       uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID   *uuid.UUID `gorm:"type:uuid;column:user_id;uniqueIndex:uq_decay_weight_user_severity" json:"user_id,omitempty"`
	// System rows have a NULL user_id, which the composite index treats as
	// distinct; the partial index is what makes the system upsert converge.
	Severity string `gorm:"column:severity;not null;uniqueIndex:uq_decay_weight_user_severity;uniqueIndex:uq_decay_weight_system_severity,where:user_id IS NULL" json:"severity"`

	Day0 float64 `gorm:"column:day_0;not null" json:"day_0"`
	Day1 float64 `gorm:"column:day_1;not null" json:"day_1"`
	Day2 float64 `gorm:"column:day_2;not null" json:"day_2"`
	Day3 float64 `gorm:"column:day_3;not null" json:"day_3"`
	Day4 float64 `gorm:"column:day_4;not null" json:"day_4"`
	Day5 float64 `gorm:"column:day_5;not null" json:"day_5"`
	Day6 float64 `gorm:"column:day_6;not null" json:"day_6"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (DecayWeight) TableName() string { return "decay_weight" }

func (w *DecayWeight) Days() [7]float64 {
	return [7]float64{w.Day0, w.Day1, w.Day2, w.Day3, w.Day4, w.Day5, w.Day6}
}

// GaugeThreshold maps a zone to its minimum score. A valid set satisfies
// high.min >= mild.min >= low.min.
type GaugeThreshold struct {
	ID       uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID   *uuid.UUID `gorm:"type:uuid;column:user_id;uniqueIndex:uq_gauge_threshold_user_zone" json:"user_id,omitempty"`
	Zone     string     `gorm:"column:zone;not null;uniqueIndex:uq_gauge_threshold_user_zone;uniqueIndex:uq_gauge_threshold_system_zone,where:user_id IS NULL" json:"zone"`
	MinValue float64    `gorm:"column:min_value;not null" json:"min_value"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (GaugeThreshold) TableName() string { return "gauge_threshold" }

package catalog

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	DirectionLow  = "low"
	DirectionHigh = "high"
)

const (
	ValueKindNumeric     = "numeric"
	ValueKindOrdinalRisk = "ordinal_risk"
	ValueKindTimeOfDay   = "time_of_day"
	ValueKindCumulative  = "cumulative"
)

const (
	BaselineClassic = "classic"
	BaselineRobust  = "robust"
)

// TriggerDefinition is one evaluable rule: a metric reference plus a firing
// condition. Rows with a nil OwnerUserID form the shared system catalog;
// rows with an owner are private rules for that user.
type TriggerDefinition struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerUserID *uuid.UUID `gorm:"type:uuid;column:owner_user_id;index;uniqueIndex:uq_trigger_definition_owner_label" json:"owner_user_id,omitempty"`
	Label       string     `gorm:"column:label;not null;uniqueIndex:uq_trigger_definition_owner_label;uniqueIndex:uq_trigger_definition_system_label,where:owner_user_id IS NULL" json:"label"`
	Category    string     `gorm:"column:category;index" json:"category"`
	Direction   string     `gorm:"column:direction;not null" json:"direction"`

	MetricTable  string `gorm:"column:metric_table;not null" json:"metric_table"`
	MetricColumn string `gorm:"column:metric_column;not null" json:"metric_column"`
	ValueKind    string `gorm:"column:value_kind;not null" json:"value_kind"`

	DefaultThreshold   *float64 `gorm:"column:default_threshold" json:"default_threshold,omitempty"`
	BaselineWindowDays int      `gorm:"column:baseline_window_days;not null;default:28" json:"baseline_window_days"`
	BaselineStrategy   string   `gorm:"column:baseline_strategy;not null;default:classic" json:"baseline_strategy"`
	EnabledByDefault   bool     `gorm:"column:enabled_by_default;not null;default:true" json:"enabled_by_default"`

	// DisplayGroup merges several definitions into one user-visible event.
	DisplayGroup *string `gorm:"column:display_group;index" json:"display_group,omitempty"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (TriggerDefinition) TableName() string { return "trigger_definition" }

// EventType is the dedupe key the definition's events are recorded under.
func (d *TriggerDefinition) EventType() string {
	if d.DisplayGroup != nil && *d.DisplayGroup != "" {
		return *d.DisplayGroup
	}
	return d.Label
}

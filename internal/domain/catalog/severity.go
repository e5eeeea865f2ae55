package catalog

import (
	"time"

	"github.com/google/uuid"
)

const (
	SeverityNone = "none"
	SeverityLow  = "low"
	SeverityMild = "mild"
	SeverityHigh = "high"
)

// SeverityMapping attaches a scoring severity to a trigger type (label or
// display group). A nil UserID row is the system default; a user row wins
// over it.
type SeverityMapping struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      *uuid.UUID `gorm:"type:uuid;column:user_id;uniqueIndex:uq_severity_mapping_user_type" json:"user_id,omitempty"`
	TriggerType string     `gorm:"column:trigger_type;not null;uniqueIndex:uq_severity_mapping_user_type;uniqueIndex:uq_severity_mapping_system_type,where:user_id IS NULL" json:"trigger_type"`
	Severity    string     `gorm:"column:severity;not null" json:"severity"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (SeverityMapping) TableName() string { return "severity_mapping" }

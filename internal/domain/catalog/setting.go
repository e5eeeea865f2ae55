package catalog

import (
	"time"

	"github.com/google/uuid"
)

// TriggerSetting is a per-user override of a definition's enabled flag and
// threshold. Absence means the definition's defaults apply.
type TriggerSetting struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID       uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_trigger_setting_user_definition" json:"user_id"`
	DefinitionID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_trigger_setting_user_definition" json:"definition_id"`

	Enabled   *bool    `gorm:"column:enabled" json:"enabled,omitempty"`
	Threshold *float64 `gorm:"column:threshold" json:"threshold,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (TriggerSetting) TableName() string { return "trigger_setting" }

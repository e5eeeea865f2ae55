package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	SourceSystem = "system"
	SourceManual = "manual"
)

// TriggerEvent is a dated record that a trigger (or its display group)
// fired for a user. At most one system-sourced row exists per
// (user, type, occurred_date); re-evaluation appends reasons to Notes
// instead of inserting a duplicate.
type TriggerEvent struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID       uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_trigger_event_natural" json:"user_id"`
	Type         string    `gorm:"column:type;not null;uniqueIndex:uq_trigger_event_natural" json:"type"`
	Source       string    `gorm:"column:source;not null;uniqueIndex:uq_trigger_event_natural" json:"source"`
	OccurredDate time.Time `gorm:"column:occurred_date;type:date;not null;uniqueIndex:uq_trigger_event_natural;index" json:"occurred_date"`

	// Notes holds the human-readable firing reasons, "; "-joined.
	Notes string `gorm:"column:notes;type:text" json:"notes"`
	// Labels holds the contributing definition labels, "; "-joined, for
	// traceability when a display group merges several definitions.
	Labels string `gorm:"column:labels;type:text" json:"labels"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (TriggerEvent) TableName() string { return "trigger_event" }

package location

import (
	"time"

	"github.com/google/uuid"
)

// Sample is one known (user, day, timezone) observation, written by the
// external location ingester. The dispatcher resolves a user's zone from
// the nearest sample.
type Sample struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_location_sample_user_date" json:"user_id"`
	Date     time.Time `gorm:"column:date;type:date;not null;uniqueIndex:uq_location_sample_user_date" json:"date"`
	Timezone string    `gorm:"column:timezone;not null" json:"timezone"`

	Latitude  *float64 `gorm:"column:latitude" json:"latitude,omitempty"`
	Longitude *float64 `gorm:"column:longitude" json:"longitude,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Sample) TableName() string { return "location_sample" }

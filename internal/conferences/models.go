// Package conferences implements conference registration/CRUD and the
// advisory-lock helper every slot-mutating booking operation acquires
// for the conference registration and booking-concurrency model.
package conferences

import (
	"time"

	"github.com/google/uuid"
)

// Conference is created before start_ts; immutable except available_slots.
type Conference struct {
	ID             uuid.UUID `json:"id" gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	Name           string    `json:"name" gorm:"uniqueIndex;not null;size:100"`
	Location       string    `json:"location" gorm:"size:200"`
	StartTS        time.Time `json:"start_ts" gorm:"not null;index"`
	EndTS          time.Time `json:"end_ts" gorm:"not null"`
	TotalSlots     int       `json:"total_slots" gorm:"not null"`
	AvailableSlots int       `json:"available_slots" gorm:"not null"`
	CreatedAt      time.Time `json:"created_at" gorm:"autoCreateTime"`
}

func (Conference) TableName() string {
	return "conferences"
}

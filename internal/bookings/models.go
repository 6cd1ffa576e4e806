// Package bookings implements the booking state machine and waitlist
// scheduler: the Admission Decider, Promotion Engine, Confirmation Window &
// Cycling, Cancellation Handler, Conference-Start Sweeper, Confirmation API,
// and overlap check.
package bookings

import (
	"time"

	"github.com/google/uuid"
)

// Booking is the unit the whole state machine operates on.
type Booking struct {
	ID                   uuid.UUID  `json:"id" gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	ConferenceID         uuid.UUID  `json:"conf_id" gorm:"type:uuid;not null;index"`
	UserID               string     `json:"user_id" gorm:"not null;index;size:100"`
	Status               Status     `json:"status" gorm:"not null;index;size:32"`
	WaitlistPosition     *int64     `json:"waitlist_position,omitempty" gorm:"column:waitlist_position"`
	CanConfirm           bool       `json:"can_confirm" gorm:"not null;default:false"`
	ConfirmationDeadline *time.Time `json:"confirmation_deadline,omitempty"`
	CreatedAt            time.Time  `json:"created_at" gorm:"autoCreateTime;index"`
	UpdatedAt            time.Time  `json:"updated_at" gorm:"autoUpdateTime"`
	CanceledAt           *time.Time `json:"canceled_at,omitempty"`
}

func (Booking) TableName() string {
	return "bookings"
}

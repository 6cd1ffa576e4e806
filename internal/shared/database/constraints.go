package database

import (
	"gorm.io/gorm"
)

// MigrateConstraints adds constraints the GORM tags on their own can't
// express: a partial unique index enforcing I2 (at most one non-Canceled
// booking per user per conference) and supporting indexes for the hot
// query paths of booking admission and the overlap check.
func MigrateConstraints(db *gorm.DB) error {
	if err := db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_bookings_user_conference_active
		ON bookings (user_id, conference_id)
		WHERE status <> 'CANCELED';
	`).Error; err != nil {
		return err
	}

	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_bookings_conference_status
		ON bookings (conference_id, status);
	`).Error; err != nil {
		return err
	}

	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_bookings_user_status
		ON bookings (user_id, status);
	`).Error; err != nil {
		return err
	}

	return nil
}

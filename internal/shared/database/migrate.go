package database

import (
	"seatline/internal/bookings"
	"seatline/internal/conferences"
	"seatline/internal/topics"
	"seatline/internal/users"

	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		// Users first
		&users.User{},

		// Topics and join tables
		&topics.Topic{},
		&topics.UserTopic{},
		&topics.ConferenceTopic{},

		// Conferences
		&conferences.Conference{},

		// Bookings
		&bookings.Booking{},
	)
	if err != nil {
		return err
	}

	return MigrateConstraints(db)
}

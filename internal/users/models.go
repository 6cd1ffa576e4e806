// Package users implements registration for the opaque, alphanumeric
// user_id identity that bookings are keyed on.
package users

import "time"

// User is created on registration and is immutable thereafter.
type User struct {
	UserID    string    `json:"user_id" gorm:"primaryKey;size:100"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

func (User) TableName() string {
	return "users"
}

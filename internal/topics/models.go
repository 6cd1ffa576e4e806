// Package topics implements the normalized Topic entity shared by users
// and conferences.
package topics

import (
	"time"

	"github.com/google/uuid"
)

// Topic is a normalized, reusable interest/track tag.
type Topic struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	Name      string    `json:"name" gorm:"uniqueIndex;not null;size:50"`
	Slug      string    `json:"slug" gorm:"uniqueIndex;not null;size:50"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

func (Topic) TableName() string {
	return "topics"
}

// UserTopic is the many-to-many join between users and topics.
type UserTopic struct {
	ID      uuid.UUID `json:"id" gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	UserID  string    `json:"user_id" gorm:"not null;index;uniqueIndex:idx_user_topic_unique;size:100"`
	TopicID uuid.UUID `json:"topic_id" gorm:"type:uuid;not null;index;uniqueIndex:idx_user_topic_unique"`
}

func (UserTopic) TableName() string {
	return "user_topics"
}

// ConferenceTopic is the many-to-many join between conferences and topics.
type ConferenceTopic struct {
	ID           uuid.UUID `json:"id" gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	ConferenceID uuid.UUID `json:"conference_id" gorm:"type:uuid;not null;index;uniqueIndex:idx_conf_topic_unique"`
	TopicID      uuid.UUID `json:"topic_id" gorm:"type:uuid;not null;index;uniqueIndex:idx_conf_topic_unique"`
}

func (ConferenceTopic) TableName() string {
	return "conference_topics"
}

func (t *Topic) ToResponse() string {
	return t.Name
}

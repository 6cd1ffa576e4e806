package users

import (
	"context"

	"seatline/internal/apperr"
	"seatline/internal/shared/config"
	"seatline/internal/topics"

	"gorm.io/gorm"
)

// Service registers users and their topic interests.
type Service struct {
	db        *gorm.DB
	topics    *topics.Service
	maxTopics int
}

func NewService(db *gorm.DB, topicService *topics.Service, cfg *config.Config) *Service {
	return &Service{db: db, topics: topicService, maxTopics: cfg.Booking.MaxUserTopics}
}

// Register creates a new user and links their topic interests. Returns
// apperr.Duplicate if user_id is already registered.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	if err := topics.Validate(req.Topics, 1, s.maxTopics); err != nil {
		return nil, err
	}

	var user User
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var existing User
		err := tx.WithContext(ctx).Where("user_id = ?", req.UserID).First(&existing).Error
		if err == nil {
			return apperr.NewDuplicate("user_id already registered", nil)
		}
		if err != gorm.ErrRecordNotFound {
			return apperr.NewInternal("failed to check existing user", err)
		}

		user = User{UserID: req.UserID}
		if err := tx.WithContext(ctx).Create(&user).Error; err != nil {
			return apperr.NewInternal("failed to create user", err)
		}

		resolved, err := s.topics.UpsertByName(ctx, tx, req.Topics)
		if err != nil {
			return err
		}

		if err := s.topics.LinkToUser(ctx, tx, user.UserID, resolved); err != nil {
			return apperr.NewInternal("failed to link user topics", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return &user, nil
}

// Exists reports whether userID has been registered.
func (s *Service) Exists(ctx context.Context, userID string) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&User{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
		return false, apperr.NewInternal("failed to check user existence", err)
	}
	return count > 0, nil
}

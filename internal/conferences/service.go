package conferences

import (
	"context"
	"regexp"
	"time"

	"seatline/internal/apperr"
	"seatline/internal/shared/config"
	"seatline/internal/topics"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const maxDuration = 12 * time.Hour

var alphanumericSpace = regexp.MustCompile(`^[a-zA-Z0-9 ]+$`)

// StartPublisher schedules the conference.start.timer delivery that drives
// the conference-start sweep.
type StartPublisher interface {
	PublishConferenceStartTimer(ctx context.Context, confID uuid.UUID, ttl time.Duration) error
}

// Service registers conferences and resolves them by name/id for the
// booking core.
type Service struct {
	db        *gorm.DB
	topics    *topics.Service
	bus       StartPublisher
	maxSlots  int
	maxTopics int
}

func NewService(db *gorm.DB, topicService *topics.Service, bus StartPublisher, cfg *config.Config) *Service {
	return &Service{
		db:        db,
		topics:    topicService,
		bus:       bus,
		maxSlots:  cfg.Booking.MaxConferenceSlots,
		maxTopics: cfg.Booking.MaxConferenceTopics,
	}
}

// CreateRequest mirrors the POST /conference body.
type CreateRequest struct {
	Name     string
	Location string
	Start    time.Time
	End      time.Time
	Slots    int
	Topics   []string
}

// Create validates and inserts a new conference with available_slots set
// to total_slots.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Conference, error) {
	if err := topics.Validate(req.Topics, 1, s.maxTopics); err != nil {
		return nil, err
	}
	if !alphanumericSpace.MatchString(req.Location) {
		return nil, apperr.NewValidationError("location must be alphanumeric plus spaces", nil)
	}
	if !req.End.After(req.Start) {
		return nil, apperr.NewValidationError("end must be after start", nil)
	}
	if req.End.Sub(req.Start) > maxDuration {
		return nil, apperr.NewValidationError("conference may not exceed 12 hours", nil)
	}
	if req.Slots <= 0 || req.Slots > s.maxSlots {
		return nil, apperr.NewValidationError("slots must be a positive number within the configured limit", nil)
	}

	var conf Conference
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var existing Conference
		err := tx.WithContext(ctx).Where("name = ?", req.Name).First(&existing).Error
		if err == nil {
			return apperr.NewDuplicate("conference name already exists", nil)
		}
		if err != gorm.ErrRecordNotFound {
			return apperr.NewInternal("failed to check existing conference", err)
		}

		conf = Conference{
			Name:           req.Name,
			Location:       req.Location,
			StartTS:        req.Start,
			EndTS:          req.End,
			TotalSlots:     req.Slots,
			AvailableSlots: req.Slots,
		}
		if err := tx.WithContext(ctx).Create(&conf).Error; err != nil {
			return apperr.NewInternal("failed to create conference", err)
		}

		resolved, err := s.topics.UpsertByName(ctx, tx, req.Topics)
		if err != nil {
			return err
		}
		if err := s.topics.LinkToConference(ctx, tx, conf.ID, resolved); err != nil {
			return apperr.NewInternal("failed to link conference topics", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.bus != nil {
		if err := s.bus.PublishConferenceStartTimer(ctx, conf.ID, time.Until(conf.StartTS)); err != nil {
			return nil, apperr.NewInternal("failed to schedule conference start sweep", err)
		}
	}

	return &conf, nil
}

// GetByName resolves a conference by its unique name.
func (s *Service) GetByName(ctx context.Context, name string) (*Conference, error) {
	var conf Conference
	err := s.db.WithContext(ctx).Where("name = ?", name).First(&conf).Error
	if err == gorm.ErrRecordNotFound {
		return nil, apperr.NewNotFound("conference not found", nil)
	}
	if err != nil {
		return nil, apperr.NewInternal("failed to look up conference", err)
	}
	return &conf, nil
}

// GetByID resolves a conference by id, optionally within an existing tx.
func GetByID(ctx context.Context, db *gorm.DB, id uuid.UUID) (*Conference, error) {
	var conf Conference
	err := db.WithContext(ctx).Where("id = ?", id).First(&conf).Error
	if err == gorm.ErrRecordNotFound {
		return nil, apperr.NewNotFound("conference not found", nil)
	}
	if err != nil {
		return nil, apperr.NewInternal("failed to look up conference", err)
	}
	return &conf, nil
}

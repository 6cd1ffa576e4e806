package topics

import (
	"context"
	"regexp"
	"strings"

	"seatline/internal/apperr"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var alphanumericSpace = regexp.MustCompile(`^[a-zA-Z0-9 ]+$`)

// Validate checks topic-string formatting shared by user and conference
// registration (alphanumeric plus spaces, 1-50 chars) and the count bound.
func Validate(names []string, min, max int) error {
	if len(names) < min || len(names) > max {
		return apperr.NewValidationError("topics must number between min and max allowed", nil)
	}
	for _, n := range names {
		trimmed := strings.TrimSpace(n)
		if trimmed == "" || len(trimmed) > 50 || !alphanumericSpace.MatchString(trimmed) {
			return apperr.NewValidationError("topic names must be alphanumeric plus spaces, 1-50 chars", nil)
		}
	}
	return nil
}

// generateSlug converts a topic name to a URL-friendly slug via a simple
// lowercase-and-dash normalization.
func generateSlug(name string) string {
	slug := strings.ToLower(name)
	reg := regexp.MustCompile(`[^\w\s-]`)
	slug = reg.ReplaceAllString(slug, "")
	reg = regexp.MustCompile(`[\s-]+`)
	slug = reg.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}

// Service upserts normalized Topic rows and links them to an owner.
type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// UpsertByName finds-or-creates Topic rows for the given names within tx,
// returning their resolved IDs in the same order (deduplicated).
func (s *Service) UpsertByName(ctx context.Context, tx *gorm.DB, names []string) ([]Topic, error) {
	resolved := make([]Topic, 0, len(names))
	seen := make(map[string]bool, len(names))

	for _, raw := range names {
		name := strings.TrimSpace(raw)
		slug := generateSlug(name)
		if seen[slug] {
			continue
		}
		seen[slug] = true

		var topic Topic
		err := tx.WithContext(ctx).Where("slug = ?", slug).First(&topic).Error
		if err == gorm.ErrRecordNotFound {
			topic = Topic{Name: name, Slug: slug}
			if err := tx.WithContext(ctx).Create(&topic).Error; err != nil {
				return nil, apperr.NewInternal("failed to create topic", err)
			}
		} else if err != nil {
			return nil, apperr.NewInternal("failed to look up topic", err)
		}

		resolved = append(resolved, topic)
	}

	return resolved, nil
}

// LinkToUser inserts topic associations for userID within tx; existing
// associations are left in place.
func (s *Service) LinkToUser(ctx context.Context, tx *gorm.DB, userID string, topicList []Topic) error {
	links := make([]UserTopic, 0, len(topicList))
	for _, t := range topicList {
		links = append(links, UserTopic{UserID: userID, TopicID: t.ID})
	}
	if len(links) == 0 {
		return nil
	}
	return tx.WithContext(ctx).Create(&links).Error
}

// LinkToConference inserts topic associations for confID within tx;
// existing associations are left in place.
func (s *Service) LinkToConference(ctx context.Context, tx *gorm.DB, confID uuid.UUID, topicList []Topic) error {
	links := make([]ConferenceTopic, 0, len(topicList))
	for _, t := range topicList {
		links = append(links, ConferenceTopic{ConferenceID: confID, TopicID: t.ID})
	}
	if len(links) == 0 {
		return nil
	}
	return tx.WithContext(ctx).Create(&links).Error
}

package services

import (
	"context"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/anj-alii/learniverse-skillbridge-33/internal/models"
	"github.com/google/uuid"
)

const (
	recommendationCandidates = 10
	recommendationLimit      = 5
)

type recommendationSkillSource interface {
	ListByInstructor(ctx context.Context, instructorID uuid.UUID) ([]models.Skill, error)
	ListActive(ctx context.Context, excludeInstructorID uuid.UUID, limit int) ([]models.SkillListing, error)
}

type interestsReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type RecommendationService struct {
	skills  recommendationSkillSource
	users   interestsReader
	timeout time.Duration
}

func NewRecommendationService(
	skills recommendationSkillSource,
	users interestsReader,
	timeout time.Duration,
) *RecommendationService {
	if timeout <= 0 {
		timeout = defaultStoreTimeout
	}
	return &RecommendationService{
		skills:  skills,
		users:   users,
		timeout: timeout,
	}
}

// Recommend suggests up to five listings for a user. Categories the user
// already teaches at advanced level are skipped and categories matching the
// user's interests come first. With no explicit interests the profile's
// stored interests are used.
func (s *RecommendationService) Recommend(
	ctx context.Context,
	userID uuid.UUID,
	interests []string,
) ([]models.SkillListing, error) {
	if userID == uuid.Nil {
		return nil, ErrUnauthorized
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	if len(interests) == 0 && s.users != nil {
		user, err := s.users.GetByID(ctx, userID)
		if err != nil {
			return nil, classifyStoreError(err)
		}
		interests = user.Interests
	}

	owned, err := s.skills.ListByInstructor(ctx, userID)
	if err != nil {
		log.Printf("recommendations for %s: load own skills: %v", userID, err)
		owned = nil
	}

	candidates, err := s.skills.ListActive(ctx, userID, recommendationCandidates)
	if err != nil {
		return nil, classifyStoreError(err)
	}

	return rankRecommendations(candidates, owned, interests, recommendationLimit), nil
}

func rankRecommendations(
	candidates []models.SkillListing,
	owned []models.Skill,
	interests []string,
	limit int,
) []models.SkillListing {
	mastered := make(map[string]struct{})
	for _, skill := range owned {
		if skill.Level == models.LevelAdvanced {
			mastered[normalize(skill.Category)] = struct{}{}
		}
	}
	wanted := normalizeValues(interests)

	ranked := make([]models.SkillListing, 0, len(candidates))
	for _, candidate := range candidates {
		if _, ok := mastered[normalize(candidate.Category)]; ok {
			continue
		}
		ranked = append(ranked, candidate)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		_, left := wanted[normalize(ranked[i].Category)]
		_, right := wanted[normalize(ranked[j].Category)]
		return left && !right
	})

	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

func normalizeValues(values []string) map[string]struct{} {
	normalized := make(map[string]struct{}, len(values))
	for _, value := range values {
		if key := normalize(value); key != "" {
			normalized[key] = struct{}{}
		}
	}
	return normalized
}

func normalize(value string) string {
	value = strings.TrimSpace(strings.ToLower(value))
	value = strings.ReplaceAll(value, " ", "_")
	value = strings.ReplaceAll(value, "-", "_")
	return value
}

package handlers

import (
	"context"

	"github.com/anj-alii/learniverse-skillbridge-33/internal/models"
	"github.com/anj-alii/learniverse-skillbridge-33/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type skillRecommender interface {
	Recommend(ctx context.Context, userID uuid.UUID, interests []string) ([]models.SkillListing, error)
}

type profileMatcher interface {
	FindMatches(ctx context.Context, userID uuid.UUID, input services.MatchInput) ([]models.ProfileMatch, error)
	SuggestSkills(ctx context.Context, userID uuid.UUID) ([]string, error)
}

// DiscoveryHandler serves the personalised views: recommended listings,
// AI profile matches and skill suggestions.
type DiscoveryHandler struct {
	recommender skillRecommender
	matcher     profileMatcher
}

func NewDiscoveryHandler(recommender skillRecommender, matcher profileMatcher) *DiscoveryHandler {
	return &DiscoveryHandler{
		recommender: recommender,
		matcher:     matcher,
	}
}

type matchRequest struct {
	Skills    []string `json:"skills"`
	Interests []string `json:"interests"`
}

func (h *DiscoveryHandler) Recommended(c *fiber.Ctx) error {
	userID, err := parseUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	skills, err := h.recommender.Recommend(c.Context(), userID, splitList(c.Query("interests")))
	if err != nil {
		return mapServiceError(c, err, "Failed to fetch recommended skills")
	}
	return c.JSON(fiber.Map{"skills": skills})
}

func (h *DiscoveryHandler) Suggestions(c *fiber.Ctx) error {
	userID, err := parseUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	suggestions, err := h.matcher.SuggestSkills(c.Context(), userID)
	if err != nil {
		return mapServiceError(c, err, "Failed to suggest skills")
	}
	return c.JSON(fiber.Map{"suggestions": suggestions})
}

func (h *DiscoveryHandler) Matches(c *fiber.Ctx) error {
	userID, err := parseUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req matchRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}
	}

	matches, err := h.matcher.FindMatches(c.Context(), userID, services.MatchInput{
		Skills:    req.Skills,
		Interests: req.Interests,
	})
	if err != nil {
		return mapServiceError(c, err, "Failed to find matches")
	}
	return c.JSON(fiber.Map{"matches": matches})
}

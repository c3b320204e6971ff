package handlers

import (
	"context"

	"github.com/anj-alii/learniverse-skillbridge-33/internal/models"
	"github.com/anj-alii/learniverse-skillbridge-33/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type swapApplicationService interface {
	RequestSwap(ctx context.Context, studentID uuid.UUID, input services.RequestSwapInput) (*models.SwapConfirmation, error)
	ListSwaps(ctx context.Context, userID uuid.UUID, role string, status string) ([]models.SwapSessionDetail, error)
	GetSwap(ctx context.Context, userID uuid.UUID, sessionID uuid.UUID) (*models.SwapSessionDetail, error)
}

type SwapHandler struct {
	service swapApplicationService
}

func NewSwapHandler(service swapApplicationService) *SwapHandler {
	return &SwapHandler{service: service}
}

type requestSwapRequest struct {
	SkillID      string `json:"skill_id"`
	InstructorID string `json:"instructor_id"`
}

// RequestSwap spends one credit on a pending session. A missing or invalid
// token never reaches the service.
func (h *SwapHandler) RequestSwap(c *fiber.Ctx) error {
	userID, err := parseUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Please sign in to request a skill swap"})
	}

	var req requestSwapRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	skillID, err := uuid.Parse(req.SkillID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid skill id"})
	}
	instructorID, err := uuid.Parse(req.InstructorID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid instructor id"})
	}

	confirmation, err := h.service.RequestSwap(c.Context(), userID, services.RequestSwapInput{
		SkillID:      skillID,
		InstructorID: instructorID,
	})
	if err != nil {
		return mapServiceError(c, err, "Failed to request swap")
	}
	return c.Status(fiber.StatusCreated).JSON(confirmation)
}

func (h *SwapHandler) ListSwaps(c *fiber.Ctx) error {
	userID, err := parseUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	swaps, err := h.service.ListSwaps(c.Context(), userID, c.Query("role"), c.Query("status"))
	if err != nil {
		return mapServiceError(c, err, "Failed to fetch swaps")
	}
	return c.JSON(fiber.Map{"swaps": swaps})
}

func (h *SwapHandler) GetSwap(c *fiber.Ctx) error {
	userID, err := parseUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}
	sessionID, ok := parseIDParam(c, "id")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid swap id"})
	}

	swap, err := h.service.GetSwap(c.Context(), userID, sessionID)
	if err != nil {
		return mapServiceError(c, err, "Failed to fetch swap")
	}
	return c.JSON(fiber.Map{"swap": swap})
}

package handlers

import (
	"context"

	"github.com/anj-alii/learniverse-skillbridge-33/internal/models"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type creditReader interface {
	Balance(ctx context.Context, userID uuid.UUID) (int, error)
	History(ctx context.Context, userID uuid.UUID, page int, limit int) ([]models.CreditTransaction, int, error)
}

type CreditHandler struct {
	ledger creditReader
}

func NewCreditHandler(ledger creditReader) *CreditHandler {
	return &CreditHandler{ledger: ledger}
}

func (h *CreditHandler) Balance(c *fiber.Ctx) error {
	userID, err := parseUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	balance, err := h.ledger.Balance(c.Context(), userID)
	if err != nil {
		return mapServiceError(c, err, "Failed to fetch credits")
	}
	return c.JSON(models.CreditBalance{Credits: balance})
}

func (h *CreditHandler) History(c *fiber.Ctx) error {
	userID, err := parseUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	page, limit := pageParams(c)
	transactions, total, err := h.ledger.History(c.Context(), userID, page, limit)
	if err != nil {
		return mapServiceError(c, err, "Failed to fetch credit history")
	}

	return c.JSON(fiber.Map{
		"transactions": transactions,
		"pagination":   buildPaginationMeta(page, limit, total),
	})
}

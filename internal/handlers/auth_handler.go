package handlers

import (
	"context"
	"time"

	"github.com/anj-alii/learniverse-skillbridge-33/internal/models"
	"github.com/anj-alii/learniverse-skillbridge-33/internal/services"
	"github.com/anj-alii/learniverse-skillbridge-33/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type accountApplicationService interface {
	Register(ctx context.Context, input services.RegisterInput) (*models.User, error)
	Authenticate(ctx context.Context, email, password string) (*models.User, error)
	Profile(ctx context.Context, userID uuid.UUID) (*models.User, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, input services.UpdateProfileInput) (*models.User, error)
	ChangePassword(ctx context.Context, userID uuid.UUID, currentPassword, newPassword string) error
}

type AuthHandler struct {
	service   accountApplicationService
	jwtSecret string
	tokenTTL  time.Duration
}

func NewAuthHandler(service accountApplicationService, jwtSecret string, tokenTTL time.Duration) *AuthHandler {
	return &AuthHandler{
		service:   service,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
	}
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type updateProfileRequest struct {
	Name      *string   `json:"name"`
	Interests *[]string `json:"interests"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	user, err := h.service.Register(c.Context(), services.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return mapServiceError(c, err, "Failed to create user")
	}

	return h.respondWithToken(c, fiber.StatusCreated, user)
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	user, err := h.service.Authenticate(c.Context(), req.Email, req.Password)
	if err != nil {
		return mapServiceError(c, err, "Failed to lookup user")
	}

	return h.respondWithToken(c, fiber.StatusOK, user)
}

// Me returns the caller with a balance read fresh from the store.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	userID, err := parseUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	user, err := h.service.Profile(c.Context(), userID)
	if err != nil {
		return mapServiceError(c, err, "Failed to fetch user")
	}
	return c.JSON(fiber.Map{"user": user})
}

func (h *AuthHandler) UpdateProfile(c *fiber.Ctx) error {
	userID, err := parseUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req updateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	user, err := h.service.UpdateProfile(c.Context(), userID, services.UpdateProfileInput{
		Name:      req.Name,
		Interests: req.Interests,
	})
	if err != nil {
		return mapServiceError(c, err, "Failed to update profile")
	}
	return c.JSON(fiber.Map{"user": user})
}

func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	userID, err := parseUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req changePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if err := h.service.ChangePassword(c.Context(), userID, req.CurrentPassword, req.NewPassword); err != nil {
		return mapServiceError(c, err, "Failed to change password")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *AuthHandler) respondWithToken(c *fiber.Ctx, status int, user *models.User) error {
	token, err := utils.GenerateToken(user.ID.String(), h.tokenTTL, h.jwtSecret)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).
			JSON(fiber.Map{"error": "Failed to generate token"})
	}

	return c.Status(status).JSON(fiber.Map{
		"token": token,
		"user":  user,
	})
}

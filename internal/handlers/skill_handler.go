package handlers

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/anj-alii/learniverse-skillbridge-33/internal/models"
	"github.com/anj-alii/learniverse-skillbridge-33/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type skillApplicationService interface {
	ContributeSkill(ctx context.Context, instructorID uuid.UUID, input services.ContributeSkillInput) (*models.SkillContribution, error)
	ListSkills(ctx context.Context, query services.SkillQuery) ([]models.SkillListing, int, error)
	Facets(ctx context.Context) (*models.SkillFacets, error)
	GetSkill(ctx context.Context, skillID uuid.UUID) (*models.SkillListing, error)
	ListInstructorSkills(ctx context.Context, instructorID uuid.UUID) ([]models.Skill, error)
	UploadImage(ctx context.Context, instructorID uuid.UUID, skillID uuid.UUID, input services.SkillImageInput) (*models.Skill, error)
}

type SkillHandler struct {
	service skillApplicationService
}

func NewSkillHandler(service skillApplicationService) *SkillHandler {
	return &SkillHandler{service: service}
}

type contributeSkillRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Level       string  `json:"level"`
	Format      string  `json:"format"`
	Duration    *string `json:"duration"`
	Price       int     `json:"price"`
}

func (h *SkillHandler) ListSkills(c *fiber.Ctx) error {
	page, limit := pageParams(c)

	skills, total, err := h.service.ListSkills(c.Context(), services.SkillQuery{
		Search:   c.Query("search"),
		Category: c.Query("category"),
		Level:    c.Query("level"),
		Format:   c.Query("format"),
		Page:     page,
		Limit:    limit,
	})
	if err != nil {
		return mapServiceError(c, err, "Failed to fetch skills")
	}

	return c.JSON(fiber.Map{
		"skills":     skills,
		"pagination": buildPaginationMeta(page, limit, total),
	})
}

func (h *SkillHandler) Facets(c *fiber.Ctx) error {
	facets, err := h.service.Facets(c.Context())
	if err != nil {
		return mapServiceError(c, err, "Failed to fetch filters")
	}
	return c.JSON(facets)
}

func (h *SkillHandler) GetSkill(c *fiber.Ctx) error {
	skillID, ok := parseIDParam(c, "id")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid skill id"})
	}

	skill, err := h.service.GetSkill(c.Context(), skillID)
	if err != nil {
		return mapServiceError(c, err, "Failed to fetch skill")
	}
	return c.JSON(fiber.Map{"skill": skill})
}

func (h *SkillHandler) MySkills(c *fiber.Ctx) error {
	userID, err := parseUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	skills, err := h.service.ListInstructorSkills(c.Context(), userID)
	if err != nil {
		return mapServiceError(c, err, "Failed to fetch skills")
	}
	return c.JSON(fiber.Map{"skills": skills})
}

func (h *SkillHandler) ContributeSkill(c *fiber.Ctx) error {
	userID, err := parseUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req contributeSkillRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	contribution, err := h.service.ContributeSkill(c.Context(), userID, services.ContributeSkillInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Level:       req.Level,
		Format:      req.Format,
		Duration:    req.Duration,
		Price:       req.Price,
	})
	if err != nil {
		return mapServiceError(c, err, "Failed to create skill")
	}
	return c.Status(fiber.StatusCreated).JSON(contribution)
}

func (h *SkillHandler) UploadImage(c *fiber.Ctx) error {
	userID, err := parseUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}
	skillID, ok := parseIDParam(c, "id")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid skill id"})
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "image file is required"})
	}
	if fileHeader.Size <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "image file is empty"})
	}
	if fileHeader.Size > services.MaxSkillImageBytes {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "image file exceeds 5MB limit"})
	}

	file, err := fileHeader.Open()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to open image file"})
	}
	defer file.Close()

	content, err := io.ReadAll(io.LimitReader(file, services.MaxSkillImageBytes+1))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to read image file"})
	}

	contentType := strings.TrimSpace(fileHeader.Header.Get(fiber.HeaderContentType))
	if contentType == "" || contentType == fiber.MIMEOctetStream {
		contentType = http.DetectContentType(content)
	}

	skill, err := h.service.UploadImage(c.Context(), userID, skillID, services.SkillImageInput{
		Content:     content,
		Filename:    fileHeader.Filename,
		ContentType: contentType,
	})
	if err != nil {
		return mapServiceError(c, err, "Failed to upload image")
	}

	return c.JSON(fiber.Map{
		"image_url": skill.ImageURL,
		"skill":     skill,
	})
}

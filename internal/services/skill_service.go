package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/anj-alii/learniverse-skillbridge-33/internal/models"
	"github.com/anj-alii/learniverse-skillbridge-33/internal/repository"
	"github.com/google/uuid"
)

const (
	maxSkillTitleLength = 120
	MaxSkillImageBytes  = 5 << 20
)

var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

type SkillService struct {
	tx                TxRunner
	ledger            *CreditLedger
	skills            SkillStore
	storage           ObjectStorage
	contributionGrant int
	timeout           time.Duration
}

func NewSkillService(
	tx TxRunner,
	ledger *CreditLedger,
	skills SkillStore,
	storage ObjectStorage,
	contributionGrant int,
	timeout time.Duration,
) *SkillService {
	if timeout <= 0 {
		timeout = defaultStoreTimeout
	}
	return &SkillService{
		tx:                tx,
		ledger:            ledger,
		skills:            skills,
		storage:           storage,
		contributionGrant: contributionGrant,
		timeout:           timeout,
	}
}

type ContributeSkillInput struct {
	Title       string
	Description string
	Category    string
	Level       string
	Format      string
	Duration    *string
	Price       int
}

type SkillQuery struct {
	Search   string
	Category string
	Level    string
	Format   string
	Page     int
	Limit    int
}

// ContributeSkill publishes a listing and credits the instructor for it in
// the same transaction.
func (s *SkillService) ContributeSkill(
	ctx context.Context,
	instructorID uuid.UUID,
	input ContributeSkillInput,
) (*models.SkillContribution, error) {
	if instructorID == uuid.Nil {
		return nil, ErrUnauthorized
	}
	create, err := normalizeSkillInput(instructorID, input)
	if err != nil {
		return nil, err
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	var contribution models.SkillContribution
	err = s.tx.WithinTx(ctx, func(stores TxStores) error {
		skill, err := stores.Skills.Create(ctx, create)
		if err != nil {
			if isCheckViolation(err) {
				return ErrInvalidInput
			}
			return storeError(err)
		}
		contribution.Skill = *skill

		if s.contributionGrant <= 0 {
			balance, err := stores.Credits.GetBalance(ctx, instructorID)
			if err != nil {
				return classifyStoreError(err)
			}
			contribution.Credits = balance
			return nil
		}

		balance, err := s.ledger.grantWithin(ctx, stores.Credits, instructorID, s.contributionGrant, ledgerEntry{
			reason:  models.CreditReasonContribution,
			skillID: &skill.ID,
		})
		if err != nil {
			return err
		}
		contribution.Credits = balance
		contribution.CreditsEarned = s.contributionGrant
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, classifyStoreError(err)
	}
	return &contribution, nil
}

func (s *SkillService) ListSkills(ctx context.Context, query SkillQuery) ([]models.SkillListing, int, error) {
	if query.Page <= 0 || query.Limit <= 0 {
		return nil, 0, ErrInvalidInput
	}
	level := strings.ToLower(strings.TrimSpace(query.Level))
	if level != "" && !slices.Contains(models.SkillLevels, level) {
		return nil, 0, ErrInvalidInput
	}
	format := strings.ToLower(strings.TrimSpace(query.Format))
	if format != "" && !slices.Contains(models.SkillFormats, format) {
		return nil, 0, ErrInvalidInput
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	listings, total, err := s.skills.List(ctx, repository.SkillListFilter{
		Search:   query.Search,
		Category: strings.TrimSpace(query.Category),
		Level:    level,
		Format:   format,
		Offset:   (query.Page - 1) * query.Limit,
		Limit:    query.Limit,
	})
	if err != nil {
		return nil, 0, classifyStoreError(err)
	}
	return listings, total, nil
}

func (s *SkillService) Facets(ctx context.Context) (*models.SkillFacets, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	facets, err := s.skills.Facets(ctx)
	if err != nil {
		return nil, classifyStoreError(err)
	}
	return facets, nil
}

func (s *SkillService) GetSkill(ctx context.Context, skillID uuid.UUID) (*models.SkillListing, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	listing, err := s.skills.GetListingByID(ctx, skillID)
	if err != nil {
		return nil, classifyStoreError(err)
	}
	return listing, nil
}

func (s *SkillService) ListInstructorSkills(ctx context.Context, instructorID uuid.UUID) ([]models.Skill, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	skills, err := s.skills.ListByInstructor(ctx, instructorID)
	if err != nil {
		return nil, classifyStoreError(err)
	}
	return skills, nil
}

type SkillImageInput struct {
	Content     []byte
	Filename    string
	ContentType string
}

// UploadImage replaces a listing's image. Only the owning instructor may do so.
func (s *SkillService) UploadImage(
	ctx context.Context,
	instructorID uuid.UUID,
	skillID uuid.UUID,
	input SkillImageInput,
) (*models.Skill, error) {
	if s.storage == nil {
		return nil, ErrStorageUnavailable
	}
	if len(input.Content) == 0 || len(input.Content) > MaxSkillImageBytes {
		return nil, ErrInvalidInput
	}
	ext, ok := allowedImageTypes[strings.ToLower(strings.TrimSpace(input.ContentType))]
	if !ok {
		return nil, ErrInvalidInput
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	skill, err := s.skills.GetByID(ctx, skillID)
	if err != nil {
		return nil, classifyStoreError(err)
	}
	if skill.InstructorID != instructorID {
		return nil, ErrForbidden
	}

	objectPath := buildSkillImagePath(skillID, input.Filename, ext)
	imageURL, err := s.storage.Upload(ctx, input.Content, objectPath, input.ContentType)
	if err != nil {
		return nil, err
	}

	updated, err := s.skills.UpdateImage(ctx, skillID, imageURL)
	if err != nil {
		if cleanupErr := s.storage.Delete(ctx, imageURL); cleanupErr != nil {
			return nil, errors.Join(classifyStoreError(err), fmt.Errorf("cleanup failed: %w", cleanupErr))
		}
		return nil, classifyStoreError(err)
	}

	if skill.ImageURL != nil && *skill.ImageURL != "" && *skill.ImageURL != imageURL {
		if err := s.storage.Delete(ctx, *skill.ImageURL); err != nil {
			log.Printf("skill %s: delete previous image: %v", skillID, err)
		}
	}
	return updated, nil
}

func normalizeSkillInput(instructorID uuid.UUID, input ContributeSkillInput) (repository.CreateSkillInput, error) {
	title := strings.TrimSpace(input.Title)
	description := strings.TrimSpace(input.Description)
	category := strings.TrimSpace(input.Category)
	level := strings.ToLower(strings.TrimSpace(input.Level))
	format := strings.ToLower(strings.TrimSpace(input.Format))

	if title == "" || len(title) > maxSkillTitleLength || description == "" || category == "" {
		return repository.CreateSkillInput{}, ErrInvalidInput
	}
	if !slices.Contains(models.SkillLevels, level) || !slices.Contains(models.SkillFormats, format) {
		return repository.CreateSkillInput{}, ErrInvalidInput
	}

	price := input.Price
	if price == 0 {
		price = 1
	}
	if price < 1 {
		return repository.CreateSkillInput{}, ErrInvalidInput
	}

	var duration *string
	if input.Duration != nil {
		if trimmed := strings.TrimSpace(*input.Duration); trimmed != "" {
			duration = &trimmed
		}
	}

	return repository.CreateSkillInput{
		InstructorID: instructorID,
		Title:        title,
		Description:  description,
		Category:     category,
		Level:        level,
		Format:       format,
		Duration:     duration,
		Price:        price,
	}, nil
}

func buildSkillImagePath(skillID uuid.UUID, original string, fallbackExt string) string {
	ext := strings.ToLower(filepath.Ext(strings.TrimSpace(original)))
	if ext == "" {
		ext = fallbackExt
	}
	return fmt.Sprintf("skills/%s/%d%s", skillID, time.Now().UnixNano(), ext)
}

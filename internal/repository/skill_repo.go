package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/anj-alii/learniverse-skillbridge-33/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const skillColumns = `s.id, s.instructor_id, s.title, s.description, s.category, s.level, s.format,
	s.duration, s.price, s.image_url, s.is_active, s.created_at, s.updated_at`

type CreateSkillInput struct {
	InstructorID uuid.UUID
	Title        string
	Description  string
	Category     string
	Level        string
	Format       string
	Duration     *string
	Price        int
}

type SkillListFilter struct {
	Search   string
	Category string
	Level    string
	Format   string
	Offset   int
	Limit    int
}

type SkillRepository struct {
	db DBTX
}

func NewSkillRepository(db DBTX) *SkillRepository {
	return &SkillRepository{db: db}
}

func (r *SkillRepository) Create(ctx context.Context, input CreateSkillInput) (*models.Skill, error) {
	query := `
		INSERT INTO skills AS s (instructor_id, title, description, category, level, format, duration, price)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + skillColumns
	return scanSkill(r.db.QueryRow(
		ctx,
		query,
		input.InstructorID,
		input.Title,
		input.Description,
		input.Category,
		input.Level,
		input.Format,
		input.Duration,
		input.Price,
	))
}

func (r *SkillRepository) GetByID(ctx context.Context, skillID uuid.UUID) (*models.Skill, error) {
	query := `SELECT ` + skillColumns + ` FROM skills s WHERE s.id = $1`
	return scanSkill(r.db.QueryRow(ctx, query, skillID))
}

func (r *SkillRepository) GetListingByID(ctx context.Context, skillID uuid.UUID) (*models.SkillListing, error) {
	query := `
		SELECT ` + skillColumns + `, u.name, u.avatar_url
		FROM skills s
		JOIN users u ON u.id = s.instructor_id
		WHERE s.id = $1
	`
	return scanSkillListing(r.db.QueryRow(ctx, query, skillID))
}

func (r *SkillRepository) List(ctx context.Context, filter SkillListFilter) ([]models.SkillListing, int, error) {
	args := []any{}
	whereParts := []string{"s.is_active = TRUE"}

	if search := strings.TrimSpace(filter.Search); search != "" {
		args = append(args, "%"+escapeLike(strings.ToLower(search))+"%")
		n := len(args)
		whereParts = append(whereParts, fmt.Sprintf(
			"(LOWER(s.title) LIKE $%d OR LOWER(s.description) LIKE $%d OR LOWER(s.category) LIKE $%d)",
			n, n, n,
		))
	}
	if category := strings.TrimSpace(filter.Category); category != "" {
		args = append(args, category)
		whereParts = append(whereParts, fmt.Sprintf("s.category = $%d", len(args)))
	}
	if level := strings.TrimSpace(filter.Level); level != "" {
		args = append(args, level)
		whereParts = append(whereParts, fmt.Sprintf("s.level = $%d", len(args)))
	}
	if format := strings.TrimSpace(filter.Format); format != "" {
		args = append(args, format)
		whereParts = append(whereParts, fmt.Sprintf("s.format = $%d", len(args)))
	}
	where := strings.Join(whereParts, " AND ")

	var total int
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM skills s WHERE %s`, where)
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, filter.Limit, filter.Offset)
	query := fmt.Sprintf(`
		SELECT `+skillColumns+`, u.name, u.avatar_url
		FROM skills s
		JOIN users u ON u.id = s.instructor_id
		WHERE %s
		ORDER BY s.created_at DESC, s.id
		LIMIT $%d OFFSET $%d
	`, where, len(args)-1, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	listings, err := collectSkillListings(rows)
	if err != nil {
		return nil, 0, err
	}
	return listings, total, nil
}

func (r *SkillRepository) ListByInstructor(ctx context.Context, instructorID uuid.UUID) ([]models.Skill, error) {
	query := `
		SELECT ` + skillColumns + `
		FROM skills s
		WHERE s.instructor_id = $1
		ORDER BY s.created_at DESC, s.id
	`
	rows, err := r.db.Query(ctx, query, instructorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	skills := make([]models.Skill, 0)
	for rows.Next() {
		skill, err := scanSkill(rows)
		if err != nil {
			return nil, err
		}
		skills = append(skills, *skill)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return skills, nil
}

// ListActive returns the most recent active listings not owned by excludeInstructorID.
func (r *SkillRepository) ListActive(
	ctx context.Context,
	excludeInstructorID uuid.UUID,
	limit int,
) ([]models.SkillListing, error) {
	query := `
		SELECT ` + skillColumns + `, u.name, u.avatar_url
		FROM skills s
		JOIN users u ON u.id = s.instructor_id
		WHERE s.is_active = TRUE AND s.instructor_id <> $1
		ORDER BY s.created_at DESC, s.id
		LIMIT $2
	`
	rows, err := r.db.Query(ctx, query, excludeInstructorID, limit)
	if err != nil {
		return nil, err
	}
	return collectSkillListings(rows)
}

func (r *SkillRepository) Facets(ctx context.Context) (*models.SkillFacets, error) {
	query := `
		SELECT
			COALESCE(ARRAY_AGG(DISTINCT category ORDER BY category), '{}'),
			COALESCE(ARRAY_AGG(DISTINCT level ORDER BY level), '{}'),
			COALESCE(ARRAY_AGG(DISTINCT format ORDER BY format), '{}')
		FROM skills
		WHERE is_active = TRUE
	`
	var facets models.SkillFacets
	if err := r.db.QueryRow(ctx, query).Scan(&facets.Categories, &facets.Levels, &facets.Formats); err != nil {
		return nil, err
	}
	return &facets, nil
}

func (r *SkillRepository) UpdateImage(ctx context.Context, skillID uuid.UUID, imageURL string) (*models.Skill, error) {
	query := `
		UPDATE skills AS s
		SET image_url = $2, updated_at = NOW()
		WHERE s.id = $1
		RETURNING ` + skillColumns
	return scanSkill(r.db.QueryRow(ctx, query, skillID, imageURL))
}

func collectSkillListings(rows pgx.Rows) ([]models.SkillListing, error) {
	defer rows.Close()

	listings := make([]models.SkillListing, 0)
	for rows.Next() {
		listing, err := scanSkillListing(rows)
		if err != nil {
			return nil, err
		}
		listings = append(listings, *listing)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return listings, nil
}

func scanSkill(row pgx.Row) (*models.Skill, error) {
	var skill models.Skill
	err := row.Scan(
		&skill.ID,
		&skill.InstructorID,
		&skill.Title,
		&skill.Description,
		&skill.Category,
		&skill.Level,
		&skill.Format,
		&skill.Duration,
		&skill.Price,
		&skill.ImageURL,
		&skill.IsActive,
		&skill.CreatedAt,
		&skill.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &skill, nil
}

func scanSkillListing(row pgx.Row) (*models.SkillListing, error) {
	var listing models.SkillListing
	err := row.Scan(
		&listing.ID,
		&listing.InstructorID,
		&listing.Title,
		&listing.Description,
		&listing.Category,
		&listing.Level,
		&listing.Format,
		&listing.Duration,
		&listing.Price,
		&listing.ImageURL,
		&listing.IsActive,
		&listing.CreatedAt,
		&listing.UpdatedAt,
		&listing.InstructorName,
		&listing.InstructorAvatar,
	)
	if err != nil {
		return nil, err
	}
	return &listing, nil
}

func escapeLike(value string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(value)
}

package repository

import (
	"context"

	"github.com/anj-alii/learniverse-skillbridge-33/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const userColumns = `id, name, email, password_hash, avatar_url, interests, credits, created_at, updated_at`

type UserRepository struct {
	db DBTX
}

func NewUserRepository(db DBTX) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) CreateUser(ctx context.Context, user *models.User) error {
	if user.Interests == nil {
		user.Interests = []string{}
	}
	query := `
		INSERT INTO users (name, email, password_hash, interests, credits)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`
	return r.db.QueryRow(ctx, query, user.Name, user.Email, user.PasswordHash, user.Interests, user.Credits).
		Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(r.db.QueryRow(ctx, query, email))
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.db.QueryRow(ctx, query, id))
}

func (r *UserRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, id).Scan(&exists)
	return exists, err
}

type UpdateUserInput struct {
	Name      *string
	Interests *[]string
	AvatarURL *string
}

func (r *UserRepository) UpdatePartial(ctx context.Context, id uuid.UUID, input UpdateUserInput) (*models.User, error) {
	query := `
		UPDATE users
		SET name = COALESCE($2, name),
			interests = COALESCE($3, interests),
			avatar_url = COALESCE($4, avatar_url),
			updated_at = NOW()
		WHERE id = $1
		RETURNING ` + userColumns
	return scanUser(r.db.QueryRow(ctx, query, id, input.Name, input.Interests, input.AvatarURL))
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE users
		SET password_hash = $2, updated_at = NOW()
		WHERE id = $1
	`, id, passwordHash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// ListMatchCandidates returns other users together with the titles of their
// active listings, most recently active first.
func (r *UserRepository) ListMatchCandidates(
	ctx context.Context,
	excludeID uuid.UUID,
	limit int,
) ([]models.ProfileMatch, error) {
	query := `
		SELECT u.id, u.name, u.avatar_url, u.interests,
			   COALESCE(ARRAY_AGG(s.title ORDER BY s.created_at DESC) FILTER (WHERE s.id IS NOT NULL), '{}')
		FROM users u
		LEFT JOIN skills s ON s.instructor_id = u.id AND s.is_active = TRUE
		WHERE u.id <> $1
		GROUP BY u.id
		ORDER BY MAX(s.created_at) DESC NULLS LAST, u.created_at DESC
		LIMIT $2
	`
	rows, err := r.db.Query(ctx, query, excludeID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	candidates := make([]models.ProfileMatch, 0)
	for rows.Next() {
		var candidate models.ProfileMatch
		if err := rows.Scan(
			&candidate.UserID,
			&candidate.Name,
			&candidate.AvatarURL,
			&candidate.SkillsToLearn,
			&candidate.SkillsToTeach,
		); err != nil {
			return nil, err
		}
		candidates = append(candidates, candidate)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return candidates, nil
}

func scanUser(row pgx.Row) (*models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.AvatarURL,
		&user.Interests,
		&user.Credits,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

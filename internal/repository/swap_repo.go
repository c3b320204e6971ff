package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/anj-alii/learniverse-skillbridge-33/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type CreateSwapSessionInput struct {
	SkillID      uuid.UUID
	InstructorID uuid.UUID
	StudentID    uuid.UUID
}

type SwapListFilter struct {
	ParticipantID uuid.UUID
	Role          string
	Status        string
}

type SwapSessionRepository struct {
	db DBTX
}

func NewSwapSessionRepository(db DBTX) *SwapSessionRepository {
	return &SwapSessionRepository{db: db}
}

func (r *SwapSessionRepository) Create(
	ctx context.Context,
	input CreateSwapSessionInput,
) (*models.SwapSession, error) {
	query := `
		INSERT INTO swap_sessions (skill_id, instructor_id, student_id, status)
		VALUES ($1, $2, $3, 'pending')
		RETURNING id, skill_id, instructor_id, student_id, status, created_at, updated_at
	`

	var session models.SwapSession
	err := r.db.QueryRow(ctx, query, input.SkillID, input.InstructorID, input.StudentID).Scan(
		&session.ID,
		&session.SkillID,
		&session.InstructorID,
		&session.StudentID,
		&session.Status,
		&session.CreatedAt,
		&session.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *SwapSessionRepository) HasPending(ctx context.Context, skillID, studentID uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1
			FROM swap_sessions
			WHERE skill_id = $1 AND student_id = $2 AND status = 'pending'
		)
	`
	var exists bool
	if err := r.db.QueryRow(ctx, query, skillID, studentID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

const swapDetailSelect = `
	SELECT ss.id, ss.skill_id, ss.instructor_id, ss.student_id, ss.status, ss.created_at, ss.updated_at,
		   sk.title, sk.category, sk.level, iu.name, su.name
	FROM swap_sessions ss
	JOIN skills sk ON sk.id = ss.skill_id
	JOIN users iu ON iu.id = ss.instructor_id
	JOIN users su ON su.id = ss.student_id
`

func (r *SwapSessionRepository) GetDetailByID(ctx context.Context, sessionID uuid.UUID) (*models.SwapSessionDetail, error) {
	return scanSwapDetail(r.db.QueryRow(ctx, swapDetailSelect+` WHERE ss.id = $1`, sessionID))
}

func (r *SwapSessionRepository) ListForParticipant(
	ctx context.Context,
	filter SwapListFilter,
) ([]models.SwapSessionDetail, error) {
	args := []any{filter.ParticipantID}
	var whereParts []string

	switch filter.Role {
	case "student":
		whereParts = append(whereParts, "ss.student_id = $1")
	case "instructor":
		whereParts = append(whereParts, "ss.instructor_id = $1")
	default:
		whereParts = append(whereParts, "(ss.student_id = $1 OR ss.instructor_id = $1)")
	}

	if status := strings.TrimSpace(filter.Status); status != "" {
		args = append(args, status)
		whereParts = append(whereParts, fmt.Sprintf("ss.status = $%d", len(args)))
	}

	query := swapDetailSelect + fmt.Sprintf(`
		WHERE %s
		ORDER BY ss.created_at DESC, ss.id
	`, strings.Join(whereParts, " AND "))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessions := make([]models.SwapSessionDetail, 0)
	for rows.Next() {
		detail, err := scanSwapDetail(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *detail)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sessions, nil
}

func scanSwapDetail(row pgx.Row) (*models.SwapSessionDetail, error) {
	var detail models.SwapSessionDetail
	err := row.Scan(
		&detail.ID,
		&detail.SkillID,
		&detail.InstructorID,
		&detail.StudentID,
		&detail.Status,
		&detail.CreatedAt,
		&detail.UpdatedAt,
		&detail.SkillTitle,
		&detail.SkillCategory,
		&detail.SkillLevel,
		&detail.InstructorName,
		&detail.StudentName,
	)
	if err != nil {
		return nil, err
	}
	return &detail, nil
}

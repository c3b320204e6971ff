package repository

import (
	"context"
	"time"

	"github.com/anj-alii/learniverse-skillbridge-33/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type ConversationRepository struct {
	db DBTX
}

func NewConversationRepository(db DBTX) *ConversationRepository {
	return &ConversationRepository{db: db}
}

// Open returns the conversation between a student and an instructor,
// creating it on first contact.
func (r *ConversationRepository) Open(
	ctx context.Context,
	studentID uuid.UUID,
	instructorID uuid.UUID,
) (*models.Conversation, error) {
	query := `
		INSERT INTO conversations (student_id, instructor_id)
		VALUES ($1, $2)
		ON CONFLICT (student_id, instructor_id)
		DO UPDATE SET updated_at = conversations.updated_at
		RETURNING id, student_id, instructor_id, created_at, updated_at
	`
	return scanConversation(r.db.QueryRow(ctx, query, studentID, instructorID))
}

func (r *ConversationRepository) GetForParticipant(
	ctx context.Context,
	conversationID uuid.UUID,
	participantID uuid.UUID,
) (*models.Conversation, error) {
	query := `
		SELECT id, student_id, instructor_id, created_at, updated_at
		FROM conversations
		WHERE id = $1 AND (student_id = $2 OR instructor_id = $2)
	`
	return scanConversation(r.db.QueryRow(ctx, query, conversationID, participantID))
}

func (r *ConversationRepository) ListForParticipant(
	ctx context.Context,
	participantID uuid.UUID,
) ([]models.ConversationSummary, error) {
	query := `
		SELECT c.id, c.student_id, c.instructor_id, c.created_at, c.updated_at,
			   lm.id, lm.sender_id, lm.content, lm.is_read, lm.created_at,
			   (
				   SELECT COUNT(*)
				   FROM messages m
				   WHERE m.conversation_id = c.id AND m.sender_id <> $1 AND m.is_read = FALSE
			   )
		FROM conversations c
		LEFT JOIN LATERAL (
			SELECT id, sender_id, content, is_read, created_at
			FROM messages
			WHERE conversation_id = c.id
			ORDER BY created_at DESC, id DESC
			LIMIT 1
		) lm ON TRUE
		WHERE c.student_id = $1 OR c.instructor_id = $1
		ORDER BY COALESCE(lm.created_at, c.updated_at) DESC, c.id
	`
	rows, err := r.db.Query(ctx, query, participantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	summaries := make([]models.ConversationSummary, 0)
	for rows.Next() {
		var summary models.ConversationSummary
		var last struct {
			ID        *int64
			SenderID  uuid.NullUUID
			Content   *string
			IsRead    *bool
			CreatedAt *time.Time
		}
		if err := rows.Scan(
			&summary.ID,
			&summary.StudentID,
			&summary.InstructorID,
			&summary.CreatedAt,
			&summary.UpdatedAt,
			&last.ID,
			&last.SenderID,
			&last.Content,
			&last.IsRead,
			&last.CreatedAt,
			&summary.UnreadCount,
		); err != nil {
			return nil, err
		}
		if last.ID != nil {
			summary.LastMessage = &models.ChatMessage{
				ID:             *last.ID,
				ConversationID: summary.ID,
				SenderID:       last.SenderID.UUID,
				Content:        derefString(last.Content),
				IsRead:         last.IsRead != nil && *last.IsRead,
			}
			if last.CreatedAt != nil {
				summary.LastMessage.CreatedAt = *last.CreatedAt
			}
		}
		summaries = append(summaries, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return summaries, nil
}

func (r *ConversationRepository) Touch(ctx context.Context, conversationID uuid.UUID) error {
	_, err := r.db.Exec(ctx, `UPDATE conversations SET updated_at = NOW() WHERE id = $1`, conversationID)
	return err
}

type MessageRepository struct {
	db DBTX
}

func NewMessageRepository(db DBTX) *MessageRepository {
	return &MessageRepository{db: db}
}

func (r *MessageRepository) Create(
	ctx context.Context,
	conversationID uuid.UUID,
	senderID uuid.UUID,
	content string,
) (*models.ChatMessage, error) {
	query := `
		INSERT INTO messages (conversation_id, sender_id, content)
		VALUES ($1, $2, $3)
		RETURNING id, conversation_id, sender_id, content, is_read, created_at
	`
	return scanMessage(r.db.QueryRow(ctx, query, conversationID, senderID, content))
}

// ListPage returns one page of messages, newest first, plus the total count.
func (r *MessageRepository) ListPage(
	ctx context.Context,
	conversationID uuid.UUID,
	limit int,
	offset int,
) ([]models.ChatMessage, int, error) {
	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM messages WHERE conversation_id = $1`, conversationID).
		Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, conversation_id, sender_id, content, is_read, created_at
		FROM messages
		WHERE conversation_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`, conversationID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	messages := make([]models.ChatMessage, 0)
	for rows.Next() {
		message, err := scanMessage(rows)
		if err != nil {
			return nil, 0, err
		}
		messages = append(messages, *message)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return messages, total, nil
}

// MarkRead flags the given messages as read unless the reader sent them.
func (r *MessageRepository) MarkRead(ctx context.Context, messageIDs []int64, readerID uuid.UUID) error {
	if len(messageIDs) == 0 {
		return nil
	}
	_, err := r.db.Exec(ctx, `
		UPDATE messages
		SET is_read = TRUE
		WHERE id = ANY($1) AND sender_id <> $2 AND is_read = FALSE
	`, messageIDs, readerID)
	return err
}

func scanConversation(row pgx.Row) (*models.Conversation, error) {
	var conversation models.Conversation
	err := row.Scan(
		&conversation.ID,
		&conversation.StudentID,
		&conversation.InstructorID,
		&conversation.CreatedAt,
		&conversation.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &conversation, nil
}

func scanMessage(row pgx.Row) (*models.ChatMessage, error) {
	var message models.ChatMessage
	err := row.Scan(
		&message.ID,
		&message.ConversationID,
		&message.SenderID,
		&message.Content,
		&message.IsRead,
		&message.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &message, nil
}

func derefString(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

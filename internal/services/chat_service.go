package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/anj-alii/learniverse-skillbridge-33/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const maxChatMessageLength = 4000

type userExistence interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

// ChatService backs the student to instructor conversations.
type ChatService struct {
	tx            TxRunner
	conversations ConversationStore
	users         userExistence
	timeout       time.Duration
}

type ChatDelivery struct {
	Conversation *models.Conversation
	Message      *models.ChatMessage
	RecipientID  uuid.UUID
}

func NewChatService(
	tx TxRunner,
	conversations ConversationStore,
	users userExistence,
	timeout time.Duration,
) *ChatService {
	if timeout <= 0 {
		timeout = defaultStoreTimeout
	}
	return &ChatService{
		tx:            tx,
		conversations: conversations,
		users:         users,
		timeout:       timeout,
	}
}

func (s *ChatService) ListConversations(
	ctx context.Context,
	userID uuid.UUID,
) ([]models.ConversationSummary, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	summaries, err := s.conversations.ListForParticipant(ctx, userID)
	if err != nil {
		return nil, classifyStoreError(err)
	}
	return summaries, nil
}

// OpenConversation starts, or returns, the thread between a student and an
// instructor.
func (s *ChatService) OpenConversation(
	ctx context.Context,
	studentID uuid.UUID,
	instructorID uuid.UUID,
) (*models.Conversation, error) {
	if studentID == uuid.Nil {
		return nil, ErrUnauthorized
	}
	if instructorID == uuid.Nil || instructorID == studentID {
		return nil, ErrInvalidInput
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	exists, err := s.users.Exists(ctx, instructorID)
	if err != nil {
		return nil, storeError(err)
	}
	if !exists {
		return nil, ErrNotFound
	}

	conversation, err := s.conversations.Open(ctx, studentID, instructorID)
	if err != nil {
		return nil, classifyStoreError(err)
	}
	return conversation, nil
}

// ListMessages returns one page of a conversation and marks the messages the
// reader received as read.
func (s *ChatService) ListMessages(
	ctx context.Context,
	userID uuid.UUID,
	conversationID uuid.UUID,
	page int,
	limit int,
) ([]models.ChatMessage, int, error) {
	if conversationID == uuid.Nil || page <= 0 || limit <= 0 {
		return nil, 0, ErrInvalidInput
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	if _, err := s.conversations.GetForParticipant(ctx, conversationID, userID); err != nil {
		return nil, 0, classifyStoreError(err)
	}

	var messages []models.ChatMessage
	var total int
	err := s.tx.WithinTx(ctx, func(stores TxStores) error {
		batch, count, err := stores.Messages.ListPage(ctx, conversationID, limit, (page-1)*limit)
		if err != nil {
			return err
		}

		unread := make([]int64, 0, len(batch))
		for i := range batch {
			if batch[i].SenderID != userID && !batch[i].IsRead {
				unread = append(unread, batch[i].ID)
				batch[i].IsRead = true
			}
		}
		if err := stores.Messages.MarkRead(ctx, unread, userID); err != nil {
			return err
		}

		messages = batch
		total = count
		return nil
	})
	if err != nil {
		return nil, 0, classifyStoreError(err)
	}
	return messages, total, nil
}

func (s *ChatService) SendMessage(
	ctx context.Context,
	senderID uuid.UUID,
	conversationID uuid.UUID,
	content string,
) (*ChatDelivery, error) {
	trimmed := strings.TrimSpace(content)
	if conversationID == uuid.Nil || trimmed == "" || len(trimmed) > maxChatMessageLength {
		return nil, ErrInvalidInput
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	conversation, err := s.conversations.GetForParticipant(ctx, conversationID, senderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrForbidden
		}
		return nil, storeError(err)
	}

	var message *models.ChatMessage
	err = s.tx.WithinTx(ctx, func(stores TxStores) error {
		created, err := stores.Messages.Create(ctx, conversationID, senderID, trimmed)
		if err != nil {
			return err
		}
		if err := stores.Conversations.Touch(ctx, conversationID); err != nil {
			return err
		}
		message = created
		return nil
	})
	if err != nil {
		return nil, classifyStoreError(err)
	}

	return &ChatDelivery{
		Conversation: conversation,
		Message:      message,
		RecipientID:  conversation.Counterpart(senderID),
	}, nil
}

func FormatChatTimestamp(ts time.Time) string {
	return ts.UTC().Format(time.RFC3339)
}

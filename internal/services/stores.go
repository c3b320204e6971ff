package services

import (
	"context"

	"github.com/anj-alii/learniverse-skillbridge-33/internal/models"
	"github.com/anj-alii/learniverse-skillbridge-33/internal/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type CreditStore interface {
	ConsumeOne(ctx context.Context, userID uuid.UUID) (int, error)
	Add(ctx context.Context, userID uuid.UUID, amount int) (int, error)
	GetBalance(ctx context.Context, userID uuid.UUID) (int, error)
	RecordTransaction(
		ctx context.Context,
		input repository.CreateCreditTransactionInput,
	) (*models.CreditTransaction, error)
	ListTransactions(
		ctx context.Context,
		userID uuid.UUID,
		limit int,
		offset int,
	) ([]models.CreditTransaction, int, error)
}

type SwapStore interface {
	Create(ctx context.Context, input repository.CreateSwapSessionInput) (*models.SwapSession, error)
	HasPending(ctx context.Context, skillID, studentID uuid.UUID) (bool, error)
	GetDetailByID(ctx context.Context, sessionID uuid.UUID) (*models.SwapSessionDetail, error)
	ListForParticipant(ctx context.Context, filter repository.SwapListFilter) ([]models.SwapSessionDetail, error)
}

type SkillStore interface {
	Create(ctx context.Context, input repository.CreateSkillInput) (*models.Skill, error)
	GetByID(ctx context.Context, skillID uuid.UUID) (*models.Skill, error)
	GetListingByID(ctx context.Context, skillID uuid.UUID) (*models.SkillListing, error)
	List(ctx context.Context, filter repository.SkillListFilter) ([]models.SkillListing, int, error)
	ListByInstructor(ctx context.Context, instructorID uuid.UUID) ([]models.Skill, error)
	ListActive(ctx context.Context, excludeInstructorID uuid.UUID, limit int) ([]models.SkillListing, error)
	Facets(ctx context.Context) (*models.SkillFacets, error)
	UpdateImage(ctx context.Context, skillID uuid.UUID, imageURL string) (*models.Skill, error)
}

type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	UpdatePartial(ctx context.Context, id uuid.UUID, input repository.UpdateUserInput) (*models.User, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	ListMatchCandidates(ctx context.Context, excludeID uuid.UUID, limit int) ([]models.ProfileMatch, error)
}

type ConversationStore interface {
	Open(ctx context.Context, studentID, instructorID uuid.UUID) (*models.Conversation, error)
	GetForParticipant(ctx context.Context, conversationID, participantID uuid.UUID) (*models.Conversation, error)
	ListForParticipant(ctx context.Context, participantID uuid.UUID) ([]models.ConversationSummary, error)
	Touch(ctx context.Context, conversationID uuid.UUID) error
}

type MessageStore interface {
	Create(ctx context.Context, conversationID, senderID uuid.UUID, content string) (*models.ChatMessage, error)
	ListPage(ctx context.Context, conversationID uuid.UUID, limit int, offset int) ([]models.ChatMessage, int, error)
	MarkRead(ctx context.Context, messageIDs []int64, readerID uuid.UUID) error
}

// TxStores are repositories bound to one open transaction.
type TxStores struct {
	Users         UserStore
	Credits       CreditStore
	Skills        SkillStore
	Swaps         SwapStore
	Conversations ConversationStore
	Messages      MessageStore
}

// TxRunner runs fn inside a single transaction. The transaction commits only
// when fn returns nil.
type TxRunner interface {
	WithinTx(ctx context.Context, fn func(stores TxStores) error) error
}

type PgxTxRunner struct {
	db *pgxpool.Pool
}

func NewPgxTxRunner(db *pgxpool.Pool) *PgxTxRunner {
	return &PgxTxRunner{db: db}
}

func (r *PgxTxRunner) WithinTx(ctx context.Context, fn func(stores TxStores) error) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err := fn(TxStores{
		Users:         repository.NewUserRepository(tx),
		Credits:       repository.NewCreditRepository(tx),
		Skills:        repository.NewSkillRepository(tx),
		Swaps:         repository.NewSwapSessionRepository(tx),
		Conversations: repository.NewConversationRepository(tx),
		Messages:      repository.NewMessageRepository(tx),
	}); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

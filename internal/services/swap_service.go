package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/anj-alii/learniverse-skillbridge-33/internal/models"
	"github.com/anj-alii/learniverse-skillbridge-33/internal/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// errNoCredits aborts the request transaction when the debit did not apply.
var errNoCredits = errors.New("no credits to consume")

type remediationNotifier interface {
	Notify(ctx context.Context, userID uuid.UUID) models.Remediation
}

type SwapService struct {
	tx        TxRunner
	ledger    *CreditLedger
	skills    SkillStore
	swaps     SwapStore
	notifier  remediationNotifier
	publisher EventPublisher
	timeout   time.Duration
}

func NewSwapService(
	tx TxRunner,
	ledger *CreditLedger,
	skills SkillStore,
	swaps SwapStore,
	notifier remediationNotifier,
	publisher EventPublisher,
	timeout time.Duration,
) *SwapService {
	if timeout <= 0 {
		timeout = defaultStoreTimeout
	}
	return &SwapService{
		tx:        tx,
		ledger:    ledger,
		skills:    skills,
		swaps:     swaps,
		notifier:  notifier,
		publisher: publisher,
		timeout:   timeout,
	}
}

type RequestSwapInput struct {
	SkillID      uuid.UUID
	InstructorID uuid.UUID
}

// RequestSwap spends one of the student's credits on a pending session with
// the skill's instructor. The debit, the session row and the journal entry
// commit together or not at all.
func (s *SwapService) RequestSwap(
	ctx context.Context,
	studentID uuid.UUID,
	input RequestSwapInput,
) (*models.SwapConfirmation, error) {
	if studentID == uuid.Nil {
		return nil, ErrUnauthorized
	}
	if input.SkillID == uuid.Nil {
		return nil, ErrInvalidInput
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	skill, err := s.skills.GetListingByID(ctx, input.SkillID)
	if err != nil {
		return nil, classifyStoreError(err)
	}
	if !skill.IsActive {
		return nil, ErrNotFound
	}
	if input.InstructorID != uuid.Nil && input.InstructorID != skill.InstructorID {
		return nil, ErrInvalidInput
	}
	if skill.InstructorID == studentID {
		return nil, ErrInvalidInput
	}

	var session *models.SwapSession
	var balance int
	err = s.tx.WithinTx(ctx, func(stores TxStores) error {
		// An empty balance wins over a duplicate so the student still sees
		// remediation. A duplicate found after the debit rolls it back.
		next, ok, err := s.ledger.debitWithin(ctx, stores.Credits, studentID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return ErrUnauthorized
			}
			return err
		}
		if !ok {
			return errNoCredits
		}

		pending, err := stores.Swaps.HasPending(ctx, skill.ID, studentID)
		if err != nil {
			return storeError(err)
		}
		if pending {
			return ErrDuplicateRequest
		}

		created, err := stores.Swaps.Create(ctx, repository.CreateSwapSessionInput{
			SkillID:      skill.ID,
			InstructorID: skill.InstructorID,
			StudentID:    studentID,
		})
		if err != nil {
			if isUniqueViolation(err) {
				return ErrDuplicateRequest
			}
			return storeError(err)
		}

		if err := s.ledger.journalWithin(ctx, stores.Credits, studentID, -1, next, ledgerEntry{
			reason:    models.CreditReasonSwapRequest,
			sessionID: &created.ID,
			skillID:   &skill.ID,
		}); err != nil {
			return err
		}

		session = created
		balance = next
		return nil
	})
	if err != nil {
		if errors.Is(err, errNoCredits) {
			return nil, &InsufficientCreditsError{Remediation: s.notifier.Notify(ctx, studentID)}
		}
		return nil, classifyStoreError(err)
	}

	s.publish(skill.InstructorID, EventSwapRequested, models.SwapSessionDetail{
		SwapSession:    *session,
		SkillTitle:     skill.Title,
		SkillCategory:  skill.Category,
		SkillLevel:     skill.Level,
		InstructorName: skill.InstructorName,
	})
	s.publish(studentID, EventCreditsUpdated, models.CreditBalance{Credits: balance})

	return &models.SwapConfirmation{
		Session:        *session,
		SkillTitle:     skill.Title,
		InstructorName: skill.InstructorName,
		Credits:        balance,
		Message:        fmt.Sprintf("You requested to swap skills with %s for %q", skill.InstructorName, skill.Title),
	}, nil
}

func (s *SwapService) ListSwaps(
	ctx context.Context,
	userID uuid.UUID,
	role string,
	status string,
) ([]models.SwapSessionDetail, error) {
	role = strings.ToLower(strings.TrimSpace(role))
	status = strings.ToLower(strings.TrimSpace(status))
	if role != "" && role != "student" && role != "instructor" {
		return nil, ErrInvalidInput
	}
	if status != "" && !isSwapStatus(status) {
		return nil, ErrInvalidInput
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	sessions, err := s.swaps.ListForParticipant(ctx, repository.SwapListFilter{
		ParticipantID: userID,
		Role:          role,
		Status:        status,
	})
	if err != nil {
		return nil, classifyStoreError(err)
	}
	return sessions, nil
}

func (s *SwapService) GetSwap(
	ctx context.Context,
	userID uuid.UUID,
	sessionID uuid.UUID,
) (*models.SwapSessionDetail, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	detail, err := s.swaps.GetDetailByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, storeError(err)
	}
	if !detail.HasParticipant(userID) {
		return nil, ErrForbidden
	}
	return detail, nil
}

func (s *SwapService) publish(userID uuid.UUID, eventType string, payload any) {
	if s.publisher == nil {
		return
	}
	s.publisher.Publish(userID, eventType, payload)
}

func isSwapStatus(status string) bool {
	switch status {
	case models.SwapStatusPending, models.SwapStatusAccepted, models.SwapStatusDeclined, models.SwapStatusCompleted:
		return true
	default:
		return false
	}
}

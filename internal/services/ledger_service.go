package services

import (
	"context"
	"errors"
	"time"

	"github.com/anj-alii/learniverse-skillbridge-33/internal/models"
	"github.com/anj-alii/learniverse-skillbridge-33/internal/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const defaultStoreTimeout = 10 * time.Second

// CreditLedger owns every mutation of a user's credit balance. A balance
// only moves through a conditional debit of one credit or a positive grant,
// and each move is journaled in the same transaction.
type CreditLedger struct {
	tx      TxRunner
	credits CreditStore
	timeout time.Duration
}

func NewCreditLedger(tx TxRunner, credits CreditStore, timeout time.Duration) *CreditLedger {
	if timeout <= 0 {
		timeout = defaultStoreTimeout
	}
	return &CreditLedger{
		tx:      tx,
		credits: credits,
		timeout: timeout,
	}
}

type ledgerEntry struct {
	reason    string
	sessionID *uuid.UUID
	skillID   *uuid.UUID
}

// TryConsume debits one credit when the balance is positive. It reports
// false without touching the balance when the user has nothing left.
// Callers already inside a transaction use debitWithin instead.
func (l *CreditLedger) TryConsume(ctx context.Context, userID uuid.UUID) (bool, error) {
	if userID == uuid.Nil {
		return false, ErrInvalidInput
	}

	ctx, cancel := withTimeout(ctx, l.timeout)
	defer cancel()

	consumed := false
	err := l.tx.WithinTx(ctx, func(stores TxStores) error {
		balance, ok, err := l.debitWithin(ctx, stores.Credits, userID)
		if err != nil || !ok {
			return err
		}
		if err := l.journalWithin(ctx, stores.Credits, userID, -1, balance, ledgerEntry{
			reason: models.CreditReasonDebit,
		}); err != nil {
			return err
		}
		consumed = true
		return nil
	})
	if err != nil {
		return false, classifyStoreError(err)
	}
	return consumed, nil
}

// Grant adds amount credits in its own transaction and returns the new
// balance. Callers already inside a transaction use grantWithin instead.
func (l *CreditLedger) Grant(ctx context.Context, userID uuid.UUID, amount int) (int, error) {
	if userID == uuid.Nil || amount <= 0 {
		return 0, ErrInvalidInput
	}

	ctx, cancel := withTimeout(ctx, l.timeout)
	defer cancel()

	var balance int
	err := l.tx.WithinTx(ctx, func(stores TxStores) error {
		next, err := l.grantWithin(ctx, stores.Credits, userID, amount, ledgerEntry{
			reason: models.CreditReasonManualGrant,
		})
		if err != nil {
			return err
		}
		balance = next
		return nil
	})
	if err != nil {
		return 0, classifyStoreError(err)
	}
	return balance, nil
}

func (l *CreditLedger) Balance(ctx context.Context, userID uuid.UUID) (int, error) {
	ctx, cancel := withTimeout(ctx, l.timeout)
	defer cancel()

	balance, err := l.credits.GetBalance(ctx, userID)
	if err != nil {
		return 0, classifyStoreError(err)
	}
	return balance, nil
}

func (l *CreditLedger) History(
	ctx context.Context,
	userID uuid.UUID,
	page int,
	limit int,
) ([]models.CreditTransaction, int, error) {
	if page <= 0 || limit <= 0 {
		return nil, 0, ErrInvalidInput
	}

	ctx, cancel := withTimeout(ctx, l.timeout)
	defer cancel()

	transactions, total, err := l.credits.ListTransactions(ctx, userID, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, classifyStoreError(err)
	}
	return transactions, total, nil
}

// debitWithin runs the conditional decrement on an open transaction. A
// missing row means either an unknown user or an empty balance.
func (l *CreditLedger) debitWithin(
	ctx context.Context,
	credits CreditStore,
	userID uuid.UUID,
) (int, bool, error) {
	balance, err := credits.ConsumeOne(ctx, userID)
	if err == nil {
		return balance, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, false, storeError(err)
	}

	if _, err := credits.GetBalance(ctx, userID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, ErrNotFound
		}
		return 0, false, storeError(err)
	}
	return 0, false, nil
}

func (l *CreditLedger) grantWithin(
	ctx context.Context,
	credits CreditStore,
	userID uuid.UUID,
	amount int,
	entry ledgerEntry,
) (int, error) {
	if amount <= 0 {
		return 0, ErrInvalidInput
	}

	balance, err := credits.Add(ctx, userID, amount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, storeError(err)
	}
	if err := l.journalWithin(ctx, credits, userID, amount, balance, entry); err != nil {
		return 0, err
	}
	return balance, nil
}

func (l *CreditLedger) journalWithin(
	ctx context.Context,
	credits CreditStore,
	userID uuid.UUID,
	delta int,
	balance int,
	entry ledgerEntry,
) error {
	_, err := credits.RecordTransaction(ctx, repository.CreateCreditTransactionInput{
		UserID:       userID,
		Delta:        delta,
		Reason:       entry.reason,
		BalanceAfter: balance,
		SessionID:    entry.sessionID,
		SkillID:      entry.skillID,
	})
	return storeError(err)
}

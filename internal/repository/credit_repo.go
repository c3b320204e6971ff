package repository

import (
	"context"

	"github.com/anj-alii/learniverse-skillbridge-33/internal/models"
	"github.com/google/uuid"
)

type CreditRepository struct {
	db DBTX
}

func NewCreditRepository(db DBTX) *CreditRepository {
	return &CreditRepository{db: db}
}

// ConsumeOne decrements the balance only while it is positive. It returns
// pgx.ErrNoRows when the user is missing or already at zero.
func (r *CreditRepository) ConsumeOne(ctx context.Context, userID uuid.UUID) (int, error) {
	query := `
		UPDATE users
		SET credits = credits - 1, updated_at = NOW()
		WHERE id = $1 AND credits > 0
		RETURNING credits
	`
	var balance int
	if err := r.db.QueryRow(ctx, query, userID).Scan(&balance); err != nil {
		return 0, err
	}
	return balance, nil
}

func (r *CreditRepository) Add(ctx context.Context, userID uuid.UUID, amount int) (int, error) {
	query := `
		UPDATE users
		SET credits = credits + $2, updated_at = NOW()
		WHERE id = $1
		RETURNING credits
	`
	var balance int
	if err := r.db.QueryRow(ctx, query, userID, amount).Scan(&balance); err != nil {
		return 0, err
	}
	return balance, nil
}

func (r *CreditRepository) GetBalance(ctx context.Context, userID uuid.UUID) (int, error) {
	var balance int
	if err := r.db.QueryRow(ctx, `SELECT credits FROM users WHERE id = $1`, userID).Scan(&balance); err != nil {
		return 0, err
	}
	return balance, nil
}

type CreateCreditTransactionInput struct {
	UserID       uuid.UUID
	Delta        int
	Reason       string
	BalanceAfter int
	SessionID    *uuid.UUID
	SkillID      *uuid.UUID
}

func (r *CreditRepository) RecordTransaction(
	ctx context.Context,
	input CreateCreditTransactionInput,
) (*models.CreditTransaction, error) {
	query := `
		INSERT INTO credit_transactions (user_id, delta, reason, balance_after, session_id, skill_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, user_id, delta, reason, balance_after, session_id, skill_id, created_at
	`
	var tx models.CreditTransaction
	err := r.db.QueryRow(
		ctx,
		query,
		input.UserID,
		input.Delta,
		input.Reason,
		input.BalanceAfter,
		input.SessionID,
		input.SkillID,
	).Scan(
		&tx.ID,
		&tx.UserID,
		&tx.Delta,
		&tx.Reason,
		&tx.BalanceAfter,
		&tx.SessionID,
		&tx.SkillID,
		&tx.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

func (r *CreditRepository) ListTransactions(
	ctx context.Context,
	userID uuid.UUID,
	limit int,
	offset int,
) ([]models.CreditTransaction, int, error) {
	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM credit_transactions WHERE user_id = $1`, userID).
		Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT id, user_id, delta, reason, balance_after, session_id, skill_id, created_at
		FROM credit_transactions
		WHERE user_id = $1
		ORDER BY id DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	transactions := make([]models.CreditTransaction, 0)
	for rows.Next() {
		var tx models.CreditTransaction
		if err := rows.Scan(
			&tx.ID,
			&tx.UserID,
			&tx.Delta,
			&tx.Reason,
			&tx.BalanceAfter,
			&tx.SessionID,
			&tx.SkillID,
			&tx.CreatedAt,
		); err != nil {
			return nil, 0, err
		}
		transactions = append(transactions, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return transactions, total, nil
}

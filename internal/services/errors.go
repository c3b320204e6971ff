package services

import (
	"context"
	"errors"
	"time"

	"github.com/anj-alii/learniverse-skillbridge-33/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrUnauthorized        = errors.New("unauthorized")
	ErrInsufficientCredits = errors.New("insufficient credits")
	ErrStoreUnavailable    = errors.New("store unavailable")
	ErrNotFound            = errors.New("not found")
	ErrInvalidInput        = errors.New("invalid input")
	ErrDuplicateRequest    = errors.New("a pending request for this skill already exists")
	ErrForbidden           = errors.New("forbidden")
	ErrEmailTaken          = errors.New("email already registered")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrStorageUnavailable  = errors.New("storage service is not configured")
)

const (
	pgUniqueViolation = "23505"
	pgCheckViolation  = "23514"
)

// InsufficientCreditsError carries the remediation shown to a user with an
// empty balance. It matches ErrInsufficientCredits.
type InsufficientCreditsError struct {
	Remediation models.Remediation
}

func (e *InsufficientCreditsError) Error() string {
	return ErrInsufficientCredits.Error()
}

func (e *InsufficientCreditsError) Is(target error) bool {
	return target == ErrInsufficientCredits
}

// storeError marks a persistence failure as retryable while keeping the cause.
func storeError(err error) error {
	if err == nil || errors.Is(err, ErrStoreUnavailable) {
		return err
	}
	return errors.Join(ErrStoreUnavailable, err)
}

// classifyStoreError maps repository errors onto the service taxonomy.
func classifyStoreError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, pgx.ErrNoRows):
		return ErrNotFound
	case isDomainError(err):
		return err
	default:
		return storeError(err)
	}
}

func isDomainError(err error) bool {
	for _, target := range []error{
		ErrUnauthorized,
		ErrInsufficientCredits,
		ErrStoreUnavailable,
		ErrNotFound,
		ErrInvalidInput,
		ErrDuplicateRequest,
		ErrForbidden,
		ErrEmailTaken,
		ErrInvalidCredentials,
		ErrStorageUnavailable,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

func isCheckViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgCheckViolation
}

func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

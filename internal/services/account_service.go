package services

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/anj-alii/learniverse-skillbridge-33/internal/models"
	"github.com/anj-alii/learniverse-skillbridge-33/internal/repository"
	"github.com/anj-alii/learniverse-skillbridge-33/pkg/utils"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const (
	minPasswordLength = 8
	// bcrypt rejects longer inputs.
	maxPasswordLength = 72
	maxInterests      = 20
)

type AccountService struct {
	tx          TxRunner
	ledger      *CreditLedger
	users       UserStore
	signupGrant int
	timeout     time.Duration
}

func NewAccountService(
	tx TxRunner,
	ledger *CreditLedger,
	users UserStore,
	signupGrant int,
	timeout time.Duration,
) *AccountService {
	if timeout <= 0 {
		timeout = defaultStoreTimeout
	}
	return &AccountService{
		tx:          tx,
		ledger:      ledger,
		users:       users,
		signupGrant: signupGrant,
		timeout:     timeout,
	}
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// Register creates the account and its starting credit grant together.
func (s *AccountService) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	name := strings.TrimSpace(input.Name)
	email, err := normalizeEmail(input.Email)
	if err != nil || name == "" || !validPasswordLength(input.Password) {
		return nil, ErrInvalidInput
	}

	hashed, err := utils.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	user := &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: hashed,
	}
	err = s.tx.WithinTx(ctx, func(stores TxStores) error {
		if err := stores.Users.CreateUser(ctx, user); err != nil {
			if isUniqueViolation(err) {
				return ErrEmailTaken
			}
			return storeError(err)
		}
		if s.signupGrant <= 0 {
			return nil
		}

		balance, err := s.ledger.grantWithin(ctx, stores.Credits, user.ID, s.signupGrant, ledgerEntry{
			reason: models.CreditReasonSignup,
		})
		if err != nil {
			return err
		}
		user.Credits = balance
		return nil
	})
	if err != nil {
		return nil, classifyStoreError(err)
	}
	return user, nil
}

func (s *AccountService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	normalized, err := normalizeEmail(email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	user, err := s.users.GetByEmail(ctx, normalized)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidCredentials
		}
		return nil, storeError(err)
	}
	if !utils.CheckPassword(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// Profile reads the user fresh from the store, balance included.
func (s *AccountService) Profile(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	if userID == uuid.Nil {
		return nil, ErrUnauthorized
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, classifyStoreError(err)
	}
	return user, nil
}

type UpdateProfileInput struct {
	Name      *string
	Interests *[]string
}

func (s *AccountService) UpdateProfile(
	ctx context.Context,
	userID uuid.UUID,
	input UpdateProfileInput,
) (*models.User, error) {
	update := repository.UpdateUserInput{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, ErrInvalidInput
		}
		update.Name = &name
	}
	if input.Interests != nil {
		interests, err := normalizeInterests(*input.Interests)
		if err != nil {
			return nil, err
		}
		update.Interests = &interests
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	user, err := s.users.UpdatePartial(ctx, userID, update)
	if err != nil {
		return nil, classifyStoreError(err)
	}
	return user, nil
}

func (s *AccountService) ChangePassword(
	ctx context.Context,
	userID uuid.UUID,
	currentPassword string,
	newPassword string,
) error {
	if !validPasswordLength(newPassword) {
		return ErrInvalidInput
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return classifyStoreError(err)
	}
	if !utils.CheckPassword(currentPassword, user.PasswordHash) {
		return ErrInvalidCredentials
	}

	hashed, err := utils.HashPassword(newPassword)
	if err != nil {
		return err
	}
	return classifyStoreError(s.users.UpdatePassword(ctx, userID, hashed))
}

func validPasswordLength(password string) bool {
	return len(password) >= minPasswordLength && len(password) <= maxPasswordLength
}

func normalizeEmail(raw string) (string, error) {
	parsed, err := mail.ParseAddress(strings.TrimSpace(raw))
	if err != nil {
		return "", ErrInvalidInput
	}
	return strings.ToLower(parsed.Address), nil
}

func normalizeInterests(values []string) ([]string, error) {
	seen := make(map[string]struct{}, len(values))
	interests := make([]string, 0, len(values))
	for _, value := range values {
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			continue
		}
		key := strings.ToLower(trimmed)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		interests = append(interests, trimmed)
	}
	if len(interests) > maxInterests {
		return nil, ErrInvalidInput
	}
	return interests, nil
}

package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/anj-alii/learniverse-skillbridge-33/internal/models"
)

func newTestAccountService(db *memDB, signupGrant int) *AccountService {
	return NewAccountService(db, newTestLedger(db), memUsers{db}, signupGrant, 0)
}

func TestRegisterGrantsSignupCredits(t *testing.T) {
	db := newMemDB()
	service := newTestAccountService(db, 5)

	user, err := service.Register(context.Background(), RegisterInput{
		Name:     "Grace",
		Email:    " Grace@Example.com ",
		Password: "password123",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if user.Email != "grace@example.com" {
		t.Fatalf("expected normalized email, got %q", user.Email)
	}
	if user.Credits != 5 || db.balance(user.ID) != 5 {
		t.Fatalf("expected 5 signup credits, got %d", user.Credits)
	}

	entries := db.journalEntries()
	if len(entries) != 1 || entries[0].Reason != models.CreditReasonSignup || entries[0].Delta != 5 {
		t.Fatalf("expected signup journal entry, got %+v", entries)
	}

	if _, err := service.Register(context.Background(), RegisterInput{
		Name:     "Grace Again",
		Email:    "grace@example.com",
		Password: "password123",
	}); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	service := newTestAccountService(newMemDB(), 5)

	inputs := []RegisterInput{
		{Name: "", Email: "a@example.com", Password: "password123"},
		{Name: "A", Email: "not-an-email", Password: "password123"},
		{Name: "A", Email: "a@example.com", Password: "short"},
		{Name: "A", Email: "a@example.com", Password: strings.Repeat("p", 73)},
	}
	for _, input := range inputs {
		if _, err := service.Register(context.Background(), input); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("%+v: expected ErrInvalidInput, got %v", input, err)
		}
	}

	if _, err := service.Register(context.Background(), RegisterInput{
		Name:     "Max",
		Email:    "max@example.com",
		Password: strings.Repeat("p", 72),
	}); err != nil {
		t.Fatalf("expected a 72 byte password to be accepted, got %v", err)
	}
}

func TestAuthenticateAndChangePassword(t *testing.T) {
	db := newMemDB()
	service := newTestAccountService(db, 5)

	user, err := service.Register(context.Background(), RegisterInput{
		Name:     "Linus",
		Email:    "linus@example.com",
		Password: "password123",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	if _, err := service.Authenticate(context.Background(), "linus@example.com", "wrong-password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := service.Authenticate(context.Background(), "nobody@example.com", "password123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown email, got %v", err)
	}

	if err := service.ChangePassword(context.Background(), user.ID, "password123", strings.Repeat("p", 73)); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for an overlong password, got %v", err)
	}
	if err := service.ChangePassword(context.Background(), user.ID, "password123", "new-password-1"); err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}
	if _, err := service.Authenticate(context.Background(), "LINUS@example.com", "new-password-1"); err != nil {
		t.Fatalf("Authenticate with new password: %v", err)
	}
	if err := service.ChangePassword(context.Background(), user.ID, "password123", "another-pass"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for stale password, got %v", err)
	}
}

func TestUpdateProfileNormalizesInterests(t *testing.T) {
	db := newMemDB()
	userID := db.addUser("Ken", 0)
	service := newTestAccountService(db, 5)

	interests := []string{" Music ", "music", "", "Cooking"}
	user, err := service.UpdateProfile(context.Background(), userID, UpdateProfileInput{Interests: &interests})
	if err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	if len(user.Interests) != 2 || user.Interests[0] != "Music" || user.Interests[1] != "Cooking" {
		t.Fatalf("expected deduplicated interests, got %v", user.Interests)
	}

	blank := "  "
	if _, err := service.UpdateProfile(context.Background(), userID, UpdateProfileInput{Name: &blank}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for blank name, got %v", err)
	}
}

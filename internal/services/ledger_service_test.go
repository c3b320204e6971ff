package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/anj-alii/learniverse-skillbridge-33/internal/models"
	"github.com/google/uuid"
)

func newTestLedger(db *memDB) *CreditLedger {
	return NewCreditLedger(db, memCredits{db}, 0)
}

func TestCreditLedgerGrantFromZero(t *testing.T) {
	db := newMemDB()
	userID := db.addUser("u1", 0)
	ledger := newTestLedger(db)

	balance, err := ledger.Grant(context.Background(), userID, 10)
	if err != nil {
		t.Fatalf("Grant: %v", err)
	}
	if balance != 10 {
		t.Fatalf("expected balance 10, got %d", balance)
	}
	if got := db.balance(userID); got != 10 {
		t.Fatalf("expected stored balance 10, got %d", got)
	}

	entries := db.journalEntries()
	if len(entries) != 1 || entries[0].Delta != 10 || entries[0].BalanceAfter != 10 ||
		entries[0].Reason != models.CreditReasonManualGrant {
		t.Fatalf("expected one grant journal entry, got %+v", entries)
	}
}

func TestCreditLedgerGrantRejectsNonPositiveAmount(t *testing.T) {
	db := newMemDB()
	userID := db.addUser("u1", 3)
	ledger := newTestLedger(db)

	for _, amount := range []int{0, -2} {
		if _, err := ledger.Grant(context.Background(), userID, amount); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("amount %d: expected ErrInvalidInput, got %v", amount, err)
		}
	}
	if got := db.balance(userID); got != 3 {
		t.Fatalf("expected balance untouched at 3, got %d", got)
	}
}

func TestCreditLedgerUnknownUser(t *testing.T) {
	ledger := newTestLedger(newMemDB())

	if _, err := ledger.Grant(context.Background(), uuid.New(), 1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Grant: expected ErrNotFound, got %v", err)
	}
	if _, err := ledger.TryConsume(context.Background(), uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("TryConsume: expected ErrNotFound, got %v", err)
	}
}

func TestCreditLedgerTryConsume(t *testing.T) {
	db := newMemDB()
	userID := db.addUser("u1", 1)
	ledger := newTestLedger(db)

	ok, err := ledger.TryConsume(context.Background(), userID)
	if err != nil || !ok {
		t.Fatalf("expected first consume to succeed, got %v %v", ok, err)
	}

	ok, err = ledger.TryConsume(context.Background(), userID)
	if err != nil {
		t.Fatalf("second TryConsume: %v", err)
	}
	if ok {
		t.Fatalf("expected second consume to report insufficient credits")
	}
	if got := db.balance(userID); got != 0 {
		t.Fatalf("expected balance 0, got %d", got)
	}
	if entries := db.journalEntries(); len(entries) != 1 || entries[0].Delta != -1 {
		t.Fatalf("expected a single debit entry, got %+v", entries)
	}
}

func TestCreditLedgerStoreFailureIsRetryable(t *testing.T) {
	db := newMemDB()
	userID := db.addUser("u1", 2)
	db.consumeErr = errStoreDown
	ledger := newTestLedger(db)

	ok, err := ledger.TryConsume(context.Background(), userID)
	if ok || !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v %v", ok, err)
	}
	if !errors.Is(err, errStoreDown) {
		t.Fatalf("expected the store cause to be kept, got %v", err)
	}

	db.consumeErr = nil
	ok, err = ledger.TryConsume(context.Background(), userID)
	if err != nil || !ok {
		t.Fatalf("expected retry to succeed, got %v %v", ok, err)
	}
	if got := db.balance(userID); got != 1 {
		t.Fatalf("expected balance 1, got %d", got)
	}
}

func TestCreditLedgerJournalFailureRollsBackDebit(t *testing.T) {
	db := newMemDB()
	userID := db.addUser("u1", 2)
	db.journalErr = errStoreDown
	ledger := newTestLedger(db)

	if _, err := ledger.TryConsume(context.Background(), userID); !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
	if got := db.balance(userID); got != 2 {
		t.Fatalf("expected debit rolled back to 2, got %d", got)
	}
}

// memDB serializes transactions, so this only checks the ledger's bookkeeping
// under concurrent callers. Row-level contention is covered against Postgres
// in TestCreditLedgerConcurrentConsumeOnSingleCredit.
func TestCreditLedgerConcurrentConsumersOnSingleCredit(t *testing.T) {
	db := newMemDB()
	userID := db.addUser("u1", 1)
	ledger := newTestLedger(db)

	var wg sync.WaitGroup
	results := make([]bool, 2)
	errs := make([]error, 2)
	start := make(chan struct{})
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			results[i], errs[i] = ledger.TryConsume(context.Background(), userID)
		}(i)
	}
	close(start)
	wg.Wait()

	successes := 0
	for i := range results {
		if errs[i] != nil {
			t.Fatalf("TryConsume %d: %v", i, errs[i])
		}
		if results[i] {
			successes++
		}
	}
	if successes != 1 {
		t.Fatalf("expected exactly one success, got %d", successes)
	}
	if got := db.balance(userID); got != 0 {
		t.Fatalf("expected balance 0, got %d", got)
	}
}

func TestCreditLedgerBalanceNeverNegative(t *testing.T) {
	db := newMemDB()
	userID := db.addUser("u1", 3)
	ledger := newTestLedger(db)

	const callers = 20
	var wg sync.WaitGroup
	var mu sync.Mutex
	successes := 0
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%5 == 0 {
				if _, err := ledger.Grant(context.Background(), userID, 1); err != nil {
					t.Errorf("Grant: %v", err)
				}
				return
			}
			ok, err := ledger.TryConsume(context.Background(), userID)
			if err != nil {
				t.Errorf("TryConsume: %v", err)
				return
			}
			if ok {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	balance := db.balance(userID)
	if balance < 0 {
		t.Fatalf("balance went negative: %d", balance)
	}
	// 3 starting credits plus 4 grants.
	if successes+balance != 7 {
		t.Fatalf("expected debits plus remaining balance to equal 7, got %d + %d", successes, balance)
	}
	for _, entry := range db.journalEntries() {
		if entry.BalanceAfter < 0 {
			t.Fatalf("journal recorded a negative balance: %+v", entry)
		}
	}
}

func TestCreditLedgerHistoryPagination(t *testing.T) {
	db := newMemDB()
	userID := db.addUser("u1", 0)
	ledger := newTestLedger(db)

	for i := 1; i <= 3; i++ {
		if _, err := ledger.Grant(context.Background(), userID, i); err != nil {
			t.Fatalf("Grant: %v", err)
		}
	}

	history, total, err := ledger.History(context.Background(), userID, 1, 2)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if total != 3 || len(history) != 2 {
		t.Fatalf("expected 2 of 3 entries, got %d of %d", len(history), total)
	}
	if history[0].Delta != 3 {
		t.Fatalf("expected newest entry first, got %+v", history[0])
	}

	if _, _, err := ledger.History(context.Background(), userID, 0, 2); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for page 0, got %v", err)
	}
}

package handlers

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/anj-alii/learniverse-skillbridge-33/internal/models"
	"github.com/anj-alii/learniverse-skillbridge-33/internal/services"
	"github.com/google/uuid"
)

type stubCreditReader struct {
	balance      int
	err          error
	transactions []models.CreditTransaction
	total        int
	lastPage     int
	lastLimit    int
}

func (s *stubCreditReader) Balance(context.Context, uuid.UUID) (int, error) {
	return s.balance, s.err
}

func (s *stubCreditReader) History(_ context.Context, _ uuid.UUID, page int, limit int) ([]models.CreditTransaction, int, error) {
	s.lastPage = page
	s.lastLimit = limit
	return s.transactions, s.total, s.err
}

func TestCreditBalance(t *testing.T) {
	handler := NewCreditHandler(&stubCreditReader{balance: 7})
	app := newAuthedApp(uuid.New())
	app.Get("/api/v1/credits", handler.Balance)

	resp := doJSON(t, app, http.MethodGet, "/api/v1/credits", "")
	var body models.CreditBalance
	decodeBody(t, resp, &body)
	if body.Credits != 7 {
		t.Fatalf("expected 7 credits, got %d", body.Credits)
	}
}

func TestCreditBalanceStoreFailure(t *testing.T) {
	handler := NewCreditHandler(&stubCreditReader{err: errors.Join(services.ErrStoreUnavailable, errors.New("timeout"))})
	app := newAuthedApp(uuid.New())
	app.Get("/api/v1/credits", handler.Balance)

	resp := doJSON(t, app, http.MethodGet, "/api/v1/credits", "")
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", resp.StatusCode)
	}
}

func TestCreditHistoryPaginates(t *testing.T) {
	reader := &stubCreditReader{
		transactions: []models.CreditTransaction{{Delta: -1, Reason: models.CreditReasonDebit, BalanceAfter: 4}},
		total:        11,
	}
	handler := NewCreditHandler(reader)
	app := newAuthedApp(uuid.New())
	app.Get("/api/v1/credits/history", handler.History)

	resp := doJSON(t, app, http.MethodGet, "/api/v1/credits/history?page=2&limit=5", "")
	if reader.lastPage != 2 || reader.lastLimit != 5 {
		t.Fatalf("unexpected pagination %d/%d", reader.lastPage, reader.lastLimit)
	}

	var body struct {
		Transactions []models.CreditTransaction `json:"transactions"`
		Pagination   models.PaginationMeta      `json:"pagination"`
	}
	decodeBody(t, resp, &body)
	if len(body.Transactions) != 1 || body.Pagination.TotalPages != 3 {
		t.Fatalf("unexpected body %+v", body)
	}
}

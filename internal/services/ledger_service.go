package services

import (
	"context"
	"fmt"
	"log/slog"

	"hisob/internal/amqp"
	"hisob/internal/core"
	"hisob/internal/log"
	"hisob/internal/storage"
)

// LedgerService records income and expense entries. Entries are immutable
// once created; there is no edit or delete path.
type LedgerService struct {
	storage    *storage.SQLiteRepository
	amqpClient *amqp.Client
}

func NewLedgerService(storage *storage.SQLiteRepository, amqpClient *amqp.Client) *LedgerService {
	return &LedgerService{
		storage:    storage,
		amqpClient: amqpClient,
	}
}

func (s *LedgerService) AddIncome(ctx context.Context, userID int64, e core.Entry) (int64, error) {
	e.UserID = userID
	if err := e.Validate(); err != nil {
		return 0, err
	}

	id, err := s.storage.AddIncome(ctx, e)
	if err != nil {
		return 0, fmt.Errorf("add income: %w", err)
	}

	s.publishEvent(ctx, amqp.KindIncome, id, userID)
	return id, nil
}

func (s *LedgerService) AddExpense(ctx context.Context, userID int64, e core.Entry) (int64, error) {
	e.UserID = userID
	if err := e.Validate(); err != nil {
		return 0, err
	}

	id, err := s.storage.AddExpense(ctx, e)
	if err != nil {
		return 0, fmt.Errorf("add expense: %w", err)
	}

	s.publishEvent(ctx, amqp.KindExpense, id, userID)
	return id, nil
}

func (s *LedgerService) ListIncome(ctx context.Context, userID int64) ([]core.Entry, error) {
	entries, err := s.storage.ListIncome(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list income: %w", err)
	}
	return entries, nil
}

func (s *LedgerService) ListExpenses(ctx context.Context, userID int64) ([]core.Entry, error) {
	entries, err := s.storage.ListExpenses(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return entries, nil
}

func (s *LedgerService) publishEvent(ctx context.Context, kind string, id, userID int64) {
	if s.amqpClient == nil {
		return
	}
	if err := s.amqpClient.PublishLedgerEvent(ctx, amqp.NewLedgerEvent(kind, id, userID)); err != nil {
		slog.ErrorContext(ctx, "Failed to publish ledger event",
			log.FieldComponent, log.ComponentLedger,
			"kind", kind, "id", id, log.FieldError, err)
	}
}

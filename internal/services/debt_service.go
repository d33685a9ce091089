package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"hisob/internal/amqp"
	"hisob/internal/core"
	"hisob/internal/log"
	"hisob/internal/storage"
)

// DebtService enforces the debt lifecycle: creation, partial and full
// repayment, the one-way active -> paid transition, and read-time overdue
// annotation.
type DebtService struct {
	storage    *storage.SQLiteRepository
	amqpClient *amqp.Client
	now        func() time.Time
}

func NewDebtService(storage *storage.SQLiteRepository, amqpClient *amqp.Client) *DebtService {
	return &DebtService{
		storage:    storage,
		amqpClient: amqpClient,
		now:        time.Now,
	}
}

// CreateDebtInput carries the user-supplied fields of a new debt. DueDate and
// Description are optional.
type CreateDebtInput struct {
	Direction   core.DebtDirection
	PersonName  string
	AmountCents int64
	DueDate     core.Date
	Description string
}

// CreateDebt validates the input and stores a new active debt with the
// remaining amount equal to the original amount.
func (s *DebtService) CreateDebt(ctx context.Context, userID int64, in CreateDebtInput) (core.Debt, error) {
	debt := core.Debt{
		UserID:      userID,
		Direction:   in.Direction,
		PersonName:  in.PersonName,
		Amount:      core.Money{Cents: in.AmountCents},
		DueDate:     in.DueDate,
		Description: in.Description,
	}
	if err := debt.Validate(); err != nil {
		return core.Debt{}, err
	}

	created, err := s.storage.CreateDebt(ctx, debt)
	if err != nil {
		return core.Debt{}, fmt.Errorf("create debt: %w", err)
	}

	s.publishEvent(ctx, amqp.KindDebt, created.ID, userID)
	return created, nil
}

// RecordPayment appends a payment against an active debt owned by the caller.
// The store performs the insert, the decrement and the status flip as a
// single transaction; a failure anywhere leaves no partial payment recorded.
func (s *DebtService) RecordPayment(ctx context.Context, userID, debtID, amountCents int64, paymentDate core.Date) (core.PaymentResult, error) {
	if amountCents <= 0 {
		return core.PaymentResult{}, core.ErrInvalidAmount
	}
	if err := paymentDate.Validate(); err != nil {
		return core.PaymentResult{}, err
	}

	result, err := s.storage.RecordPayment(ctx, userID, debtID, amountCents, paymentDate)
	if err != nil {
		return core.PaymentResult{}, err
	}

	s.publishEvent(ctx, amqp.KindPayment, debtID, userID)
	return result, nil
}

// DebtView is a debt annotated with its derived overdue state.
type DebtView struct {
	core.Debt
	IsOverdue bool
}

// ListDebts returns the user's debts, most recent first, optionally filtered
// by direction. The overdue flag is computed against the current date on
// every call so it is always fresh.
func (s *DebtService) ListDebts(ctx context.Context, userID int64, direction core.DebtDirection) ([]DebtView, error) {
	if direction != "" {
		if err := direction.Validate(); err != nil {
			return nil, err
		}
	}

	debts, err := s.storage.ListDebts(ctx, userID, direction)
	if err != nil {
		return nil, fmt.Errorf("list debts: %w", err)
	}

	today := core.DateOf(s.now())
	views := make([]DebtView, len(debts))
	for i, d := range debts {
		views[i] = DebtView{Debt: d, IsOverdue: d.IsOverdue(today)}
	}
	return views, nil
}

func (s *DebtService) publishEvent(ctx context.Context, kind string, id, userID int64) {
	if s.amqpClient == nil {
		return
	}
	// Best effort: the write already committed, a lost event only delays a
	// reminder.
	if err := s.amqpClient.PublishLedgerEvent(ctx, amqp.NewLedgerEvent(kind, id, userID)); err != nil {
		slog.ErrorContext(ctx, "Failed to publish ledger event",
			log.FieldComponent, log.ComponentDebt,
			"kind", kind, "id", id, log.FieldError, err)
	}
}

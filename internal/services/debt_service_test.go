package services

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"hisob/internal/core"
	"hisob/internal/storage"
)

func newTestRepo(t *testing.T) *storage.SQLiteRepository {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "hisob.db"))
	if err != nil {
		t.Fatalf("open test repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func newTestUser(t *testing.T, repo *storage.SQLiteRepository, username string) int64 {
	t.Helper()
	id, err := repo.CreateUser(context.Background(), username, "x", "Test User")
	if err != nil {
		t.Fatalf("create test user: %v", err)
	}
	return id
}

func TestCreateDebtValidation(t *testing.T) {
	repo := newTestRepo(t)
	svc := NewDebtService(repo, nil)
	userID := newTestUser(t, repo, "validator")
	ctx := context.Background()

	cases := []struct {
		name string
		in   CreateDebtInput
		want error
	}{
		{"zero amount", CreateDebtInput{Direction: core.DebtGiven, PersonName: "Aziz", AmountCents: 0}, core.ErrInvalidAmount},
		{"negative amount", CreateDebtInput{Direction: core.DebtGiven, PersonName: "Aziz", AmountCents: -100}, core.ErrInvalidAmount},
		{"bad direction", CreateDebtInput{Direction: "owed", PersonName: "Aziz", AmountCents: 100}, core.ErrInvalidDirection},
		{"empty person", CreateDebtInput{Direction: core.DebtTaken, PersonName: "  ", AmountCents: 100}, core.ErrEmptyPersonName},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateDebt(ctx, userID, tc.in)
			if !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestDebtLifecycle(t *testing.T) {
	repo := newTestRepo(t)
	svc := NewDebtService(repo, nil)
	userID := newTestUser(t, repo, "lifecycle")
	ctx := context.Background()

	// Create 100000 given, no due date.
	debt, err := svc.CreateDebt(ctx, userID, CreateDebtInput{
		Direction:   core.DebtGiven,
		PersonName:  "Aziz",
		AmountCents: 100_000_00,
	})
	if err != nil {
		t.Fatalf("create debt: %v", err)
	}
	if debt.Remaining.Cents != 100_000_00 || debt.Status != core.DebtActive {
		t.Fatalf("new debt: remaining=%d status=%s", debt.Remaining.Cents, debt.Status)
	}

	// Pay 40000 -> 60000 remaining, still active.
	res, err := svc.RecordPayment(ctx, userID, debt.ID, 40_000_00, core.NewDate(2025, 8, 1))
	if err != nil {
		t.Fatalf("first payment: %v", err)
	}
	if res.Remaining.Cents != 60_000_00 || res.Status != core.DebtActive {
		t.Fatalf("after first payment: remaining=%d status=%s", res.Remaining.Cents, res.Status)
	}

	// Pay 60000 -> 0, paid.
	res, err = svc.RecordPayment(ctx, userID, debt.ID, 60_000_00, core.NewDate(2025, 8, 15))
	if err != nil {
		t.Fatalf("second payment: %v", err)
	}
	if res.Remaining.Cents != 0 || res.Status != core.DebtPaid {
		t.Fatalf("after second payment: remaining=%d status=%s", res.Remaining.Cents, res.Status)
	}

	// Invariant: amount - sum(payments) == remaining.
	payments, err := repo.ListPayments(ctx, debt.ID)
	if err != nil {
		t.Fatalf("list payments: %v", err)
	}
	var paid int64
	for _, p := range payments {
		paid += p.Amount.Cents
	}
	stored, err := repo.GetDebt(ctx, debt.ID)
	if err != nil {
		t.Fatalf("get debt: %v", err)
	}
	if stored.Amount.Cents-paid != stored.Remaining.Cents {
		t.Fatalf("invariant broken: amount=%d paid=%d remaining=%d",
			stored.Amount.Cents, paid, stored.Remaining.Cents)
	}

	// Paid debts do not accept further payments.
	if _, err := svc.RecordPayment(ctx, userID, debt.ID, 100, core.NewDate(2025, 8, 16)); !errors.Is(err, core.ErrDebtNotActive) {
		t.Fatalf("payment on paid debt: err = %v, want ErrDebtNotActive", err)
	}
}

func TestRecordPaymentOverpayment(t *testing.T) {
	repo := newTestRepo(t)
	svc := NewDebtService(repo, nil)
	userID := newTestUser(t, repo, "overpay")
	ctx := context.Background()

	debt, err := svc.CreateDebt(ctx, userID, CreateDebtInput{
		Direction:   core.DebtTaken,
		PersonName:  "Bank",
		AmountCents: 50_000_00,
	})
	if err != nil {
		t.Fatalf("create debt: %v", err)
	}

	// Overpayment stores the raw subtraction and flips to paid.
	res, err := svc.RecordPayment(ctx, userID, debt.ID, 70_000_00, core.NewDate(2025, 8, 1))
	if err != nil {
		t.Fatalf("overpayment: %v", err)
	}
	if res.Remaining.Cents != -20_000_00 {
		t.Fatalf("remaining = %d, want -2000000", res.Remaining.Cents)
	}
	if res.Status != core.DebtPaid {
		t.Fatalf("status = %s, want paid", res.Status)
	}
}

func TestRecordPaymentErrors(t *testing.T) {
	repo := newTestRepo(t)
	svc := NewDebtService(repo, nil)
	owner := newTestUser(t, repo, "owner")
	stranger := newTestUser(t, repo, "stranger")
	ctx := context.Background()

	debt, err := svc.CreateDebt(ctx, owner, CreateDebtInput{
		Direction:   core.DebtGiven,
		PersonName:  "Aziz",
		AmountCents: 10_000_00,
	})
	if err != nil {
		t.Fatalf("create debt: %v", err)
	}

	payDate := core.NewDate(2025, 8, 1)

	if _, err := svc.RecordPayment(ctx, owner, debt.ID, 0, payDate); !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("zero amount: err = %v", err)
	}
	if _, err := svc.RecordPayment(ctx, owner, 9999, 100, payDate); !errors.Is(err, core.ErrDebtNotFound) {
		t.Fatalf("missing debt: err = %v", err)
	}
	if _, err := svc.RecordPayment(ctx, stranger, debt.ID, 100, payDate); !errors.Is(err, core.ErrForbidden) {
		t.Fatalf("foreign debt: err = %v", err)
	}

	// None of the failed attempts may have left a payment behind.
	payments, err := repo.ListPayments(ctx, debt.ID)
	if err != nil {
		t.Fatalf("list payments: %v", err)
	}
	if len(payments) != 0 {
		t.Fatalf("expected no payments after failed attempts, got %d", len(payments))
	}
	stored, err := repo.GetDebt(ctx, debt.ID)
	if err != nil {
		t.Fatalf("get debt: %v", err)
	}
	if stored.Remaining.Cents != 10_000_00 {
		t.Fatalf("remaining changed by failed attempts: %d", stored.Remaining.Cents)
	}
}

func TestListDebtsFilterAndOverdue(t *testing.T) {
	repo := newTestRepo(t)
	svc := NewDebtService(repo, nil)
	userID := newTestUser(t, repo, "lister")
	ctx := context.Background()

	// Fixed clock: overdue is judged against this "today".
	svc.now = func() time.Time { return time.Date(2025, 8, 20, 12, 0, 0, 0, time.UTC) }

	given, err := svc.CreateDebt(ctx, userID, CreateDebtInput{
		Direction:   core.DebtGiven,
		PersonName:  "Aziz",
		AmountCents: 100_00,
		DueDate:     core.NewDate(2025, 8, 19), // yesterday
	})
	if err != nil {
		t.Fatalf("create given: %v", err)
	}
	if _, err := svc.CreateDebt(ctx, userID, CreateDebtInput{
		Direction:   core.DebtTaken,
		PersonName:  "Bank",
		AmountCents: 200_00,
		DueDate:     core.NewDate(2025, 9, 1),
	}); err != nil {
		t.Fatalf("create taken: %v", err)
	}

	all, err := svc.ListDebts(ctx, userID, "")
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 debts, got %d", len(all))
	}

	onlyGiven, err := svc.ListDebts(ctx, userID, core.DebtGiven)
	if err != nil {
		t.Fatalf("list given: %v", err)
	}
	if len(onlyGiven) != 1 || onlyGiven[0].ID != given.ID {
		t.Fatalf("direction filter failed: %+v", onlyGiven)
	}
	if !onlyGiven[0].IsOverdue {
		t.Fatal("debt due yesterday should be flagged overdue")
	}

	// Pay it off; a paid debt is never overdue, regardless of due date.
	if _, err := svc.RecordPayment(ctx, userID, given.ID, 100_00, core.NewDate(2025, 8, 20)); err != nil {
		t.Fatalf("pay off: %v", err)
	}
	onlyGiven, err = svc.ListDebts(ctx, userID, core.DebtGiven)
	if err != nil {
		t.Fatalf("list given after payoff: %v", err)
	}
	if onlyGiven[0].IsOverdue {
		t.Fatal("paid debt must not be flagged overdue")
	}

	if _, err := svc.ListDebts(ctx, userID, "sideways"); !errors.Is(err, core.ErrInvalidDirection) {
		t.Fatalf("bad filter: err = %v", err)
	}
}

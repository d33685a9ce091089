package worker

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"hisob/internal/amqp"
	"hisob/internal/core"
	"hisob/internal/storage"
)

func newTestWorker(t *testing.T) (*ReminderWorker, *storage.SQLiteRepository) {
	t.Helper()

	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })

	w := NewReminderWorker(repo)
	w.now = func() time.Time { return time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC) }
	return w, repo
}

func newTestUser(t *testing.T, repo *storage.SQLiteRepository, username string) int64 {
	t.Helper()
	id, err := repo.CreateUser(context.Background(), username, "hash", "")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return id
}

func newDebt(t *testing.T, repo *storage.SQLiteRepository, userID int64, due core.Date) core.Debt {
	t.Helper()
	d, err := repo.CreateDebt(context.Background(), core.Debt{
		UserID:     userID,
		Direction:  core.DebtGiven,
		PersonName: "Karim",
		Amount:     core.Money{Cents: 10_000},
		DueDate:    due,
	})
	if err != nil {
		t.Fatalf("create debt: %v", err)
	}
	return d
}

func TestCheckUserCountsOverdueDebts(t *testing.T) {
	w, repo := newTestWorker(t)
	userID := newTestUser(t, repo, "mira")

	newDebt(t, repo, userID, core.NewDate(2026, 8, 15)) // overdue
	newDebt(t, repo, userID, core.NewDate(2026, 9, 1))  // due today, not overdue
	newDebt(t, repo, userID, core.Date{})               // no due date

	n, err := w.CheckUser(context.Background(), userID)
	if err != nil {
		t.Fatalf("CheckUser: %v", err)
	}
	if n != 1 {
		t.Fatalf("overdue count = %d, want 1", n)
	}
}

func TestHandleLedgerEvent(t *testing.T) {
	w, repo := newTestWorker(t)
	userID := newTestUser(t, repo, "mira")
	debt := newDebt(t, repo, userID, core.NewDate(2026, 8, 15))

	// Entry events are acknowledged without a debt check
	if err := w.HandleLedgerEvent(context.Background(), amqp.NewLedgerEvent(amqp.KindIncome, 1, userID)); err != nil {
		t.Fatalf("income event: %v", err)
	}

	if err := w.HandleLedgerEvent(context.Background(), amqp.NewLedgerEvent(amqp.KindPayment, debt.ID, userID)); err != nil {
		t.Fatalf("payment event: %v", err)
	}

	// Unknown user is not an error, there is simply nothing overdue
	if err := w.HandleLedgerEvent(context.Background(), amqp.NewLedgerEvent(amqp.KindDebt, 1, 9999)); err != nil {
		t.Fatalf("unknown user event: %v", err)
	}
}

func TestSweepAllUsers(t *testing.T) {
	w, repo := newTestWorker(t)
	mira := newTestUser(t, repo, "mira")
	karim := newTestUser(t, repo, "karim")

	newDebt(t, repo, mira, core.NewDate(2026, 8, 15))
	newDebt(t, repo, karim, core.NewDate(2026, 7, 1))
	newDebt(t, repo, karim, core.NewDate(2026, 12, 1))

	if err := w.SweepAllUsers(context.Background()); err != nil {
		t.Fatalf("SweepAllUsers: %v", err)
	}
}

package worker

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

// ReminderWorker watches the ledger event stream and surfaces overdue debts.
// A debt or payment event triggers an immediate re-check for that user; a
// periodic sweep covers users whose debts went overdue without any activity.
type ReminderWorker struct {
	storage *storage.SQLiteRepository
	now     func() time.Time
}

func NewReminderWorker(storage *storage.SQLiteRepository) *ReminderWorker {
	return &ReminderWorker{
		storage: storage,
		now:     time.Now,
	}
}

// HandleLedgerEvent processes a single event from the stream. Income and
// expense events are acknowledged without work; only debt activity can change
// the overdue picture.
func (w *ReminderWorker) HandleLedgerEvent(ctx context.Context, ev *amqp.LedgerEvent) error {
	switch ev.Kind {
	case amqp.KindDebt, amqp.KindPayment:
	default:
		slog.DebugContext(ctx, "Ignoring ledger event", "kind", ev.Kind, "id", ev.ID)
		return nil
	}

	slog.InfoContext(ctx, "Processing ledger event",
		"kind", ev.Kind, "id", ev.ID, "user_id", ev.UserID)

	if _, err := w.CheckUser(ctx, ev.UserID); err != nil {
		return fmt.Errorf("check overdue debts for user %d: %w", ev.UserID, err)
	}
	return nil
}

// CheckUser logs a reminder for each of the user's overdue debts and returns
// how many there were.
func (w *ReminderWorker) CheckUser(ctx context.Context, userID int64) (int, error) {
	today := core.DateOf(w.now())

	overdue, err := w.storage.ListOverdueDebts(ctx, userID, today)
	if err != nil {
		return 0, fmt.Errorf("list overdue debts: %w", err)
	}

	for _, d := range overdue {
		daysOverdue := int(today.Sub(d.DueDate.Time).Hours() / 24)
		slog.InfoContext(ctx, "Overdue debt reminder",
			log.FieldUserID, userID,
			log.FieldDebtID, d.ID,
			log.FieldDirection, string(d.Direction),
			"person", d.PersonName,
			log.FieldAmountCents, d.Remaining.Cents,
			"due_date", d.DueDate.String(),
			"days_overdue", daysOverdue)
	}

	return len(overdue), nil
}

// RunPeriodicSweep re-checks every user on a fixed interval until the context
// is cancelled. It backstops lost events and debts that go overdue quietly.
func (w *ReminderWorker) RunPeriodicSweep(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := w.SweepAllUsers(ctx); err != nil {
				slog.ErrorContext(ctx, "Overdue sweep failed", "error", err)
			}
		case <-ctx.Done():
			return
		}
	}
}

// SweepAllUsers runs a single overdue check across every registered user.
func (w *ReminderWorker) SweepAllUsers(ctx context.Context) error {
	userIDs, err := w.storage.ListUserIDs(ctx)
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}

	total := 0
	for _, id := range userIDs {
		n, err := w.CheckUser(ctx, id)
		if err != nil {
			slog.ErrorContext(ctx, "Per-user overdue check failed", "user_id", id, "error", err)
			continue
		}
		total += n
	}

	slog.InfoContext(ctx, "Overdue sweep completed", "users", len(userIDs), "overdue_debts", total)
	return nil
}

package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"hisob/internal/core"
)

func TestDashboard(t *testing.T) {
	repo := newTestRepo(t)
	ledger := NewLedgerService(repo, nil)
	analytics := NewAnalyticsService(repo)
	userID := newTestUser(t, repo, "dash")
	ctx := context.Background()

	// Income summing to 500000, expenses to 320000, no debts.
	incomes := []int64{300_000_00, 200_000_00}
	for _, cents := range incomes {
		if _, err := ledger.AddIncome(ctx, userID, core.Entry{
			Amount:   core.Money{Cents: cents},
			Category: "salary",
			Date:     core.NewDate(2025, 8, 1),
		}); err != nil {
			t.Fatalf("add income: %v", err)
		}
	}
	expenses := []int64{250_000_00, 70_000_00}
	for _, cents := range expenses {
		if _, err := ledger.AddExpense(ctx, userID, core.Entry{
			Amount:   core.Money{Cents: cents},
			Category: "food",
			Date:     core.NewDate(2025, 8, 2),
		}); err != nil {
			t.Fatalf("add expense: %v", err)
		}
	}

	dash, err := analytics.Dashboard(ctx, userID)
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if dash.TotalIncome.Cents != 500_000_00 {
		t.Fatalf("totalIncome = %d", dash.TotalIncome.Cents)
	}
	if dash.TotalExpenses.Cents != 320_000_00 {
		t.Fatalf("totalExpenses = %d", dash.TotalExpenses.Cents)
	}
	if dash.Balance.Cents != 180_000_00 {
		t.Fatalf("balance = %d", dash.Balance.Cents)
	}
	if dash.DebtsGiven.Cents != 0 || dash.DebtsTaken.Cents != 0 {
		t.Fatalf("debts should be zero: %+v", dash)
	}

	// Reads are idempotent: no writes in between, identical result.
	again, err := analytics.Dashboard(ctx, userID)
	if err != nil {
		t.Fatalf("second dashboard: %v", err)
	}
	if again != dash {
		t.Fatalf("dashboard not idempotent: %+v vs %+v", dash, again)
	}
}

func TestDashboardDebtSums(t *testing.T) {
	repo := newTestRepo(t)
	debts := NewDebtService(repo, nil)
	analytics := NewAnalyticsService(repo)
	userID := newTestUser(t, repo, "debtdash")
	ctx := context.Background()

	given, err := debts.CreateDebt(ctx, userID, CreateDebtInput{
		Direction: core.DebtGiven, PersonName: "Aziz", AmountCents: 100_000_00,
	})
	if err != nil {
		t.Fatalf("create given: %v", err)
	}
	if _, err := debts.CreateDebt(ctx, userID, CreateDebtInput{
		Direction: core.DebtTaken, PersonName: "Bank", AmountCents: 30_000_00,
	}); err != nil {
		t.Fatalf("create taken: %v", err)
	}

	// Partial payment shrinks the given sum to the remaining amount.
	if _, err := debts.RecordPayment(ctx, userID, given.ID, 40_000_00, core.NewDate(2025, 8, 1)); err != nil {
		t.Fatalf("pay: %v", err)
	}

	dash, err := analytics.Dashboard(ctx, userID)
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if dash.DebtsGiven.Cents != 60_000_00 {
		t.Fatalf("debtsGiven = %d, want 6000000", dash.DebtsGiven.Cents)
	}
	if dash.DebtsTaken.Cents != 30_000_00 {
		t.Fatalf("debtsTaken = %d, want 3000000", dash.DebtsTaken.Cents)
	}

	// Paying off removes the debt from the active sums entirely.
	if _, err := debts.RecordPayment(ctx, userID, given.ID, 60_000_00, core.NewDate(2025, 8, 2)); err != nil {
		t.Fatalf("pay off: %v", err)
	}
	dash, err = analytics.Dashboard(ctx, userID)
	if err != nil {
		t.Fatalf("dashboard after payoff: %v", err)
	}
	if dash.DebtsGiven.Cents != 0 {
		t.Fatalf("paid debt still counted: %d", dash.DebtsGiven.Cents)
	}
}

func TestAnalyze(t *testing.T) {
	repo := newTestRepo(t)
	ledger := NewLedgerService(repo, nil)
	debts := NewDebtService(repo, nil)
	analytics := NewAnalyticsService(repo)
	userID := newTestUser(t, repo, "analyze")
	ctx := context.Background()

	now := time.Date(2025, 8, 20, 10, 0, 0, 0, time.UTC)
	analytics.now = func() time.Time { return now }

	// 30-day window: food 300000, transport 100000.
	if _, err := ledger.AddExpense(ctx, userID, core.Entry{
		Amount: core.Money{Cents: 300_000_00}, Category: "food", Date: core.NewDate(2025, 8, 10),
	}); err != nil {
		t.Fatalf("add food: %v", err)
	}
	if _, err := ledger.AddExpense(ctx, userID, core.Entry{
		Amount: core.Money{Cents: 100_000_00}, Category: "transport", Date: core.NewDate(2025, 8, 12),
	}); err != nil {
		t.Fatalf("add transport: %v", err)
	}
	// Outside the window: must not skew the distribution.
	if _, err := ledger.AddExpense(ctx, userID, core.Entry{
		Amount: core.Money{Cents: 999_000_00}, Category: "travel", Date: core.NewDate(2025, 6, 1),
	}); err != nil {
		t.Fatalf("add old expense: %v", err)
	}

	// One overdue debt.
	if _, err := debts.CreateDebt(ctx, userID, CreateDebtInput{
		Direction: core.DebtGiven, PersonName: "Aziz", AmountCents: 15_000_00,
		DueDate: core.NewDate(2025, 8, 1),
	}); err != nil {
		t.Fatalf("create overdue debt: %v", err)
	}

	analysis, err := analytics.Analyze(ctx, userID)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}

	if len(analysis.Insights) != 1 {
		t.Fatalf("expected 1 insight, got %d", len(analysis.Insights))
	}
	if !strings.Contains(analysis.Insights[0].Message, "75.0%") {
		t.Fatalf("insight: %q", analysis.Insights[0].Message)
	}
	if len(analysis.Recommendations) != 1 {
		t.Fatalf("expected 1 recommendation, got %d", len(analysis.Recommendations))
	}
	if !strings.Contains(analysis.Recommendations[0].Message, "45000") {
		t.Fatalf("recommendation: %q", analysis.Recommendations[0].Message)
	}
	if len(analysis.Alerts) != 1 {
		t.Fatalf("expected 1 alert, got %d", len(analysis.Alerts))
	}
	if !strings.Contains(analysis.Alerts[0].Message, "15000") {
		t.Fatalf("alert: %q", analysis.Alerts[0].Message)
	}
}

func TestAnalyzeInsufficientData(t *testing.T) {
	repo := newTestRepo(t)
	analytics := NewAnalyticsService(repo)
	userID := newTestUser(t, repo, "empty")

	analysis, err := analytics.Analyze(context.Background(), userID)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if len(analysis.Insights)+len(analysis.Recommendations)+len(analysis.Alerts) != 0 {
		t.Fatalf("expected empty analysis, got %+v", analysis)
	}
}

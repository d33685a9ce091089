package services

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"hisob/internal/core"
	"hisob/internal/storage"
)

// analysisWindowDays is the trailing window the insight heuristics look at.
const analysisWindowDays = 30

// AnalyticsService computes the dashboard projection and the heuristic
// analysis. Both are pure reads over the ledger store, recomputed from source
// rows on every call; caching here would misstate a user's position.
type AnalyticsService struct {
	storage *storage.SQLiteRepository
	now     func() time.Time
}

func NewAnalyticsService(storage *storage.SQLiteRepository) *AnalyticsService {
	return &AnalyticsService{
		storage: storage,
		now:     time.Now,
	}
}

// Dashboard returns the user's aggregate position. The four independent sums
// are issued in parallel and joined before composing the result.
func (s *AnalyticsService) Dashboard(ctx context.Context, userID int64) (core.Dashboard, error) {
	var income, expenses, given, taken int64

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		income, err = s.storage.SumIncome(gctx, userID)
		return err
	})
	g.Go(func() (err error) {
		expenses, err = s.storage.SumExpenses(gctx, userID)
		return err
	})
	g.Go(func() (err error) {
		given, err = s.storage.SumActiveDebts(gctx, userID, core.DebtGiven)
		return err
	})
	g.Go(func() (err error) {
		taken, err = s.storage.SumActiveDebts(gctx, userID, core.DebtTaken)
		return err
	})
	if err := g.Wait(); err != nil {
		return core.Dashboard{}, fmt.Errorf("dashboard reads: %w", err)
	}

	return core.Dashboard{
		Balance:       core.Money{Cents: income - expenses},
		TotalIncome:   core.Money{Cents: income},
		TotalExpenses: core.Money{Cents: expenses},
		DebtsGiven:    core.Money{Cents: given},
		DebtsTaken:    core.Money{Cents: taken},
	}, nil
}

// Analyze derives insights, recommendations and alerts from the trailing
// 30-day expense distribution and the user's overdue debts. Deterministic
// given the stored data and the clock.
func (s *AnalyticsService) Analyze(ctx context.Context, userID int64) (core.Analysis, error) {
	today := core.DateOf(s.now())
	since := core.DateOf(s.now().AddDate(0, 0, -analysisWindowDays))

	categories, err := s.storage.ExpenseCategoryTotals(ctx, userID, since)
	if err != nil {
		return core.Analysis{}, fmt.Errorf("category totals: %w", err)
	}

	overdue, err := s.storage.ListOverdueDebts(ctx, userID, today)
	if err != nil {
		return core.Analysis{}, fmt.Errorf("overdue debts: %w", err)
	}

	return core.BuildAnalysis(categories, overdue), nil
}

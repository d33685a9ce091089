package core

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Dashboard is the aggregate financial position of a user, recomputed from
// source rows on every read.
type Dashboard struct {
	Balance       Money // totalIncome - totalExpenses, may be negative
	TotalIncome   Money
	TotalExpenses Money
	DebtsGiven    Money // remaining on active debts the user lent out
	DebtsTaken    Money // remaining on active debts the user borrowed
}

// CategoryTotal is an expense sum aggregated by category.
type CategoryTotal struct {
	Category string
	Total    Money
	Count    int
}

// AnalysisItem is one insight, recommendation or alert.
type AnalysisItem struct {
	Type    string
	Title   string
	Message string
}

// Analysis groups the heuristic findings for a user. All three lists may be
// empty at once, meaning there is not enough data to say anything.
type Analysis struct {
	Insights        []AnalysisItem
	Recommendations []AnalysisItem
	Alerts          []AnalysisItem
}

// Share of total spend above which the top category triggers a
// cut-back recommendation, and the suggested reduction.
var (
	shareThreshold = decimal.NewFromInt(40)
	reductionRate  = decimal.New(15, -2) // 15%
)

// BuildAnalysis derives insights from 30-day category totals (already summed
// and ordered descending) and the user's overdue debts. It is deterministic
// given its inputs; "today" only enters through the overdue list the caller
// prepared.
func BuildAnalysis(categories []CategoryTotal, overdue []Debt) Analysis {
	a := Analysis{}

	if len(categories) > 0 {
		top := categories[0]
		var totalCents int64
		for _, c := range categories {
			totalCents += c.Total.Cents
		}
		if totalCents > 0 {
			share := decimal.New(top.Total.Cents, 0).
				Div(decimal.New(totalCents, 0)).
				Mul(hundred).
				Round(1)

			a.Insights = append(a.Insights, AnalysisItem{
				Type:  "spending",
				Title: "Top spending category",
				Message: fmt.Sprintf("Over the last 30 days you spent %s%% (%s) on %q.",
					share.StringFixed(1), FormatAmount(top.Total.Cents), top.Category),
			})

			if share.GreaterThan(shareThreshold) {
				savings := top.Total.Decimal().Mul(reductionRate)
				a.Recommendations = append(a.Recommendations, AnalysisItem{
					Type:  "warning",
					Title: "Reduce spending",
					Message: fmt.Sprintf("Cutting %q spending by 15%% would save about %s per month.",
						top.Category, savings.String()),
				})
			}
		}
	}

	if len(overdue) > 0 {
		var remainingCents int64
		for _, d := range overdue {
			remainingCents += d.Remaining.Cents
		}
		a.Alerts = append(a.Alerts, AnalysisItem{
			Type:  "danger",
			Title: "Overdue debts",
			Message: fmt.Sprintf("%d debt(s) past due. Total outstanding: %s.",
				len(overdue), FormatAmount(remainingCents)),
		})
	}

	return a
}

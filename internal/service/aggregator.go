package service

import (
	"time"

	"github.com/boddenberg/finance-dashboard-go/internal/domain"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// percentOf returns part/whole × 100. A zero whole yields 0 rather than NaN,
// so an empty list renders as all-zero gauges.
func percentOf(part, whole decimal.Decimal) decimal.Decimal {
	if whole.IsZero() {
		return decimal.Zero
	}
	return part.Mul(hundred).Div(whole)
}

// Aggregate derives the dashboard statistics from txns in a single pass.
// now decides which transactions count toward this month's budget usage;
// the month is evaluated in now's location.
//
// Transactions in categories outside the fixed table are counted in the
// totals and turnover but appear in no category row.
func Aggregate(txns []domain.Transaction, now time.Time, budget decimal.Decimal) *domain.Summary {
	cats := domain.Categories()
	rows := make([]domain.CategoryTotals, len(cats))
	for i, c := range cats {
		rows[i] = domain.CategoryTotals{Category: c.Name, Color: c.Color}
	}

	s := &domain.Summary{
		Month:  now.Format("2006-01"),
		Budget: budget,
	}

	for _, tx := range txns {
		_, idx, known := domain.LookupCategory(tx.Category)
		if !known {
			s.UncategorizedCount++
		}

		s.TotalCount++
		s.Turnover = s.Turnover.Add(tx.Amount)

		switch tx.Kind {
		case domain.KindIncome:
			s.IncomeCount++
			s.IncomeTurnover = s.IncomeTurnover.Add(tx.Amount)
			if known {
				rows[idx].Income = rows[idx].Income.Add(tx.Amount)
			}
		case domain.KindExpense:
			s.ExpenseCount++
			s.ExpenseTurnover = s.ExpenseTurnover.Add(tx.Amount)
			if known {
				rows[idx].Expense = rows[idx].Expense.Add(tx.Amount)
			}
			if tx.InMonthOf(now) {
				s.MonthExpense = s.MonthExpense.Add(tx.Amount)
			}
		}
	}

	s.IncomeCountPercent = percentOf(decimal.NewFromInt(int64(s.IncomeCount)), decimal.NewFromInt(int64(s.TotalCount)))
	s.ExpenseCountPercent = percentOf(decimal.NewFromInt(int64(s.ExpenseCount)), decimal.NewFromInt(int64(s.TotalCount)))
	s.IncomeTurnoverPercent = percentOf(s.IncomeTurnover, s.Turnover)
	s.ExpenseTurnoverPercent = percentOf(s.ExpenseTurnover, s.Turnover)

	for i := range rows {
		rows[i].IncomePercent = percentOf(rows[i].Income, s.Turnover)
		rows[i].ExpensePercent = percentOf(rows[i].Expense, s.Turnover)
		s.CategoryIncomeTotal = s.CategoryIncomeTotal.Add(rows[i].Income)
		s.CategoryExpenseTotal = s.CategoryExpenseTotal.Add(rows[i].Expense)
	}
	s.Categories = rows

	s.BudgetUsagePercent = percentOf(s.MonthExpense, budget)
	s.BudgetExceeded = s.BudgetUsagePercent.GreaterThan(hundred)

	return s
}

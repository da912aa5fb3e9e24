package service

import (
	"time"

	"github.com/boddenberg/finance-dashboard-go/internal/domain"

	"github.com/shopspring/decimal"
)

// Card titles and colors of the rendered dashboard.
const (
	TitleTransactions    = "Total Transactions"
	TitleTurnover        = "Total Turnover"
	TitleCategoryIncome  = "Category-wise Income"
	TitleCategoryExpense = "Category-wise Expense"
	TitleChart           = "Expense Breakdown (Chart)"
	TitleBudget          = "Monthly Budget Progress"

	BudgetUsageLabel = "Budget Usage"
	BudgetWarning    = "You have exceeded your budget!"

	ColorIncome        = "green"
	ColorExpense       = "red"
	ColorBudget        = "#007bff"
	ColorBudgetWarning = "red"

	ChartType = "doughnut"
)

// RenderOptions carries the presentation settings of one render.
type RenderOptions struct {
	CustomerID     string
	CurrencySymbol string
	GeneratedAt    time.Time
}

// Render projects a Summary onto the six dashboard cards.
// Every percentage is rounded to a whole number.
func Render(s *domain.Summary, opts RenderOptions) *domain.Dashboard {
	d := &domain.Dashboard{
		CustomerID:  opts.CustomerID,
		GeneratedAt: opts.GeneratedAt,
		Month:       s.Month,
		Currency:    opts.CurrencySymbol,
	}

	d.Transactions = domain.TransactionsCard{
		Title:        TitleTransactions,
		Total:        s.TotalCount,
		Income:       s.IncomeCount,
		Expense:      s.ExpenseCount,
		IncomeGauge:  domain.CircularGauge{Percent: roundPercent(s.IncomeCountPercent), Color: ColorIncome},
		ExpenseGauge: domain.CircularGauge{Percent: roundPercent(s.ExpenseCountPercent), Color: ColorExpense},
	}

	d.Turnover = domain.TurnoverCard{
		Title:        TitleTurnover,
		Total:        opts.money(s.Turnover),
		Income:       opts.money(s.IncomeTurnover),
		Expense:      opts.money(s.ExpenseTurnover),
		IncomeGauge:  domain.CircularGauge{Percent: roundPercent(s.IncomeTurnoverPercent), Color: ColorIncome},
		ExpenseGauge: domain.CircularGauge{Percent: roundPercent(s.ExpenseTurnoverPercent), Color: ColorExpense},
	}

	d.CategoryIncome = domain.CategoryCard{Title: TitleCategoryIncome, Rows: []domain.LinearGauge{}}
	d.CategoryExpense = domain.CategoryCard{Title: TitleCategoryExpense, Rows: []domain.LinearGauge{}}
	d.Chart = domain.ChartCard{
		Title:  TitleChart,
		Type:   ChartType,
		Total:  opts.money(s.CategoryExpenseTotal),
		Slices: []domain.ChartSlice{},
	}

	for _, row := range s.Categories {
		if row.Income.IsPositive() {
			d.CategoryIncome.Rows = append(d.CategoryIncome.Rows, domain.LinearGauge{
				Label:   row.Category,
				Percent: roundPercent(row.IncomePercent),
				Color:   row.Color,
			})
		}
		if row.Expense.IsPositive() {
			d.CategoryExpense.Rows = append(d.CategoryExpense.Rows, domain.LinearGauge{
				Label:   row.Category,
				Percent: roundPercent(row.ExpensePercent),
				Color:   row.Color,
			})
			d.Chart.Slices = append(d.Chart.Slices, domain.ChartSlice{
				Label:   row.Category,
				Value:   row.Expense.InexactFloat64(),
				Percent: roundPercent(percentOf(row.Expense, s.CategoryExpenseTotal)),
				Color:   row.Color,
			})
		}
	}

	usageColor := ColorBudget
	if s.BudgetExceeded {
		usageColor = ColorBudgetWarning
	}
	d.Budget = domain.BudgetCard{
		Title:  TitleBudget,
		Budget: opts.money(s.Budget),
		Spent:  opts.money(s.MonthExpense),
		Usage: domain.LinearGauge{
			Label:   BudgetUsageLabel,
			Percent: roundPercent(s.BudgetUsagePercent),
			Color:   usageColor,
		},
		Exceeded: s.BudgetExceeded,
	}
	if s.BudgetExceeded {
		d.Budget.Warning = BudgetWarning
	}

	return d
}

// roundPercent rounds half away from zero, which for the non-negative
// percentages here matches fixed-point display with no decimals.
func roundPercent(p decimal.Decimal) int64 {
	return p.Round(0).IntPart()
}

func (o RenderOptions) money(d decimal.Decimal) domain.Money {
	display := d.String()
	if o.CurrencySymbol != "" {
		display += " " + o.CurrencySymbol
	}
	return domain.Money{Amount: d.InexactFloat64(), Display: display}
}

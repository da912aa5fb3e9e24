package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ============================================================
// Aggregated statistics
// ============================================================

// CategoryTotals holds the income and expense sums of one category.
// Percentages are relative to total turnover.
type CategoryTotals struct {
	Category       string          `json:"category"`
	Color          string          `json:"color"`
	Income         decimal.Decimal `json:"income"`
	Expense        decimal.Decimal `json:"expense"`
	IncomePercent  decimal.Decimal `json:"incomePercent"`
	ExpensePercent decimal.Decimal `json:"expensePercent"`
}

// Summary is the unrounded result of aggregating a transaction list.
// Money and percentages are exact decimals and serialize as strings.
type Summary struct {
	Month string `json:"month"` // YYYY-MM the budget usage refers to

	TotalCount          int             `json:"totalCount"`
	IncomeCount         int             `json:"incomeCount"`
	ExpenseCount        int             `json:"expenseCount"`
	IncomeCountPercent  decimal.Decimal `json:"incomeCountPercent"`
	ExpenseCountPercent decimal.Decimal `json:"expenseCountPercent"`

	Turnover               decimal.Decimal `json:"turnover"`
	IncomeTurnover         decimal.Decimal `json:"incomeTurnover"`
	ExpenseTurnover        decimal.Decimal `json:"expenseTurnover"`
	IncomeTurnoverPercent  decimal.Decimal `json:"incomeTurnoverPercent"`
	ExpenseTurnoverPercent decimal.Decimal `json:"expenseTurnoverPercent"`

	// Categories has one row per known category, in table order.
	Categories           []CategoryTotals `json:"categories"`
	CategoryIncomeTotal  decimal.Decimal  `json:"categoryIncomeTotal"`
	CategoryExpenseTotal decimal.Decimal  `json:"categoryExpenseTotal"`
	UncategorizedCount   int              `json:"uncategorizedCount"`

	MonthExpense       decimal.Decimal `json:"monthExpense"`
	Budget             decimal.Decimal `json:"budget"`
	BudgetUsagePercent decimal.Decimal `json:"budgetUsagePercent"`
	BudgetExceeded     bool            `json:"budgetExceeded"`
}

// ============================================================
// Rendered dashboard (six cards)
// ============================================================

// Money is an amount with its display form, e.g. "140 ₹".
type Money struct {
	Amount  float64 `json:"amount"`
	Display string  `json:"display"`
}

// CircularGauge is a ring indicator.
type CircularGauge struct {
	Percent int64  `json:"percent"`
	Color   string `json:"color"`
}

// LinearGauge is a labeled progress bar.
type LinearGauge struct {
	Label   string `json:"label"`
	Percent int64  `json:"percent"`
	Color   string `json:"color"`
}

// TransactionsCard shows transaction counts.
type TransactionsCard struct {
	Title        string        `json:"title"`
	Total        int           `json:"total"`
	Income       int           `json:"income"`
	Expense      int           `json:"expense"`
	IncomeGauge  CircularGauge `json:"incomeGauge"`
	ExpenseGauge CircularGauge `json:"expenseGauge"`
}

// TurnoverCard shows summed amounts.
type TurnoverCard struct {
	Title        string        `json:"title"`
	Total        Money         `json:"total"`
	Income       Money         `json:"income"`
	Expense      Money         `json:"expense"`
	IncomeGauge  CircularGauge `json:"incomeGauge"`
	ExpenseGauge CircularGauge `json:"expenseGauge"`
}

// CategoryCard lists one gauge per category with a positive total.
type CategoryCard struct {
	Title string        `json:"title"`
	Rows  []LinearGauge `json:"rows"`
}

// ChartSlice is one segment of the expense chart.
type ChartSlice struct {
	Label   string  `json:"label"`
	Value   float64 `json:"value"`
	Percent int64   `json:"percent"`
	Color   string  `json:"color"`
}

// ChartCard is the expense breakdown chart.
type ChartCard struct {
	Title  string       `json:"title"`
	Type   string       `json:"type"`
	Total  Money        `json:"total"`
	Slices []ChartSlice `json:"slices"`
}

// BudgetCard shows this month's spending against the budget.
type BudgetCard struct {
	Title    string      `json:"title"`
	Budget   Money       `json:"budget"`
	Spent    Money       `json:"spent"`
	Usage    LinearGauge `json:"usage"`
	Exceeded bool        `json:"exceeded"`
	Warning  string      `json:"warning,omitempty"`
}

// Dashboard is the rendered view returned to clients.
type Dashboard struct {
	CustomerID      string           `json:"customerId,omitempty"`
	GeneratedAt     time.Time        `json:"generatedAt"`
	Month           string           `json:"month"`
	Currency        string           `json:"currency"`
	Transactions    TransactionsCard `json:"transactions"`
	Turnover        TurnoverCard     `json:"turnover"`
	CategoryIncome  CategoryCard     `json:"categoryIncome"`
	CategoryExpense CategoryCard     `json:"categoryExpense"`
	Chart           ChartCard        `json:"chart"`
	Budget          BudgetCard       `json:"budget"`
}

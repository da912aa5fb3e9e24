package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionKind is the normalized direction of a transaction.
type TransactionKind string

const (
	KindIncome  TransactionKind = "income"
	KindExpense TransactionKind = "expense"
)

// ParseTransactionKind maps the wire values of transactionType onto a kind.
// Sources label income as "credit", so both spellings are accepted.
func ParseTransactionKind(s string) (TransactionKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "credit", "income":
		return KindIncome, nil
	case "expense", "debit":
		return KindExpense, nil
	default:
		return "", fmt.Errorf("unknown transaction type %q", s)
	}
}

// Transaction is a single normalized financial record.
type Transaction struct {
	ID          string          `json:"id"`
	Amount      decimal.Decimal `json:"amount"`
	Kind        TransactionKind `json:"kind"`
	Category    string          `json:"category"`
	Date        time.Time       `json:"date"`
	Description string          `json:"description,omitempty"`
}

// IsIncome reports whether t is an income transaction.
func (t Transaction) IsIncome() bool { return t.Kind == KindIncome }

// IsExpense reports whether t is an expense transaction.
func (t Transaction) IsExpense() bool { return t.Kind == KindExpense }

// InMonthOf reports whether t falls in the same calendar month and year as
// ref, both evaluated in ref's location.
func (t Transaction) InMonthOf(ref time.Time) bool {
	d := t.Date.In(ref.Location())
	return d.Year() == ref.Year() && d.Month() == ref.Month()
}

package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionRecord is the wire shape of a transaction as produced by the
// upstream ledger and accepted by POST /v1/dashboard.
type TransactionRecord struct {
	ID              string           `json:"id,omitempty"`
	LegacyID        string           `json:"_id,omitempty"`
	Amount          *decimal.Decimal `json:"amount"`
	TransactionType string           `json:"transactionType"`
	Category        string           `json:"category"`
	Date            string           `json:"date"`
	Description     string           `json:"description,omitempty"`
}

var dateLayouts = []string{time.RFC3339Nano, time.RFC3339, "2006-01-02"}

// ParseDate accepts RFC3339 timestamps or plain dates.
// Plain dates are interpreted in loc.
func ParseDate(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Amount bounds. Exponent limits are checked before anything that expands
// the coefficient, so a value like 1e5000000 is rejected without allocating.
const (
	maxAmountExponent = 15
	minAmountExponent = -12
	maxAmountDigits   = 20
)

var maxAmount = decimal.New(1, maxAmountExponent)

func checkAmountBounds(a decimal.Decimal) *ErrValidation {
	if e := a.Exponent(); e > maxAmountExponent || e < minAmountExponent {
		return &ErrValidation{Field: "amount", Message: "out of range"}
	}
	if a.NumDigits() > maxAmountDigits {
		return &ErrValidation{Field: "amount", Message: fmt.Sprintf("must have at most %d digits", maxAmountDigits)}
	}
	if a.GreaterThan(maxAmount) {
		return &ErrValidation{Field: "amount", Message: "must not exceed " + maxAmount.String()}
	}
	return nil
}

// Normalize validates r and converts it into a Transaction.
// Plain dates are read in loc.
func (r TransactionRecord) Normalize(loc *time.Location) (Transaction, error) {
	if r.Amount == nil {
		return Transaction{}, &ErrValidation{Field: "amount", Message: "required"}
	}
	if r.Amount.IsNegative() {
		return Transaction{}, &ErrValidation{Field: "amount", Message: "must not be negative"}
	}
	if err := checkAmountBounds(*r.Amount); err != nil {
		return Transaction{}, err
	}

	kind, err := ParseTransactionKind(r.TransactionType)
	if err != nil {
		return Transaction{}, &ErrValidation{Field: "transactionType", Message: err.Error()}
	}

	category := strings.TrimSpace(r.Category)
	if category == "" {
		return Transaction{}, &ErrValidation{Field: "category", Message: "required"}
	}

	if strings.TrimSpace(r.Date) == "" {
		return Transaction{}, &ErrValidation{Field: "date", Message: "required"}
	}
	date, ok := ParseDate(r.Date, loc)
	if !ok {
		return Transaction{}, &ErrValidation{Field: "date", Message: "unrecognized format " + r.Date}
	}

	id := r.ID
	if id == "" {
		id = r.LegacyID
	}
	if id == "" {
		id = uuid.NewString()
	}

	return Transaction{
		ID:          id,
		Amount:      *r.Amount,
		Kind:        kind,
		Category:    category,
		Date:        date,
		Description: r.Description,
	}, nil
}

// RecordError ties a validation failure to the position of the record.
type RecordError struct {
	Index int
	Err   *ErrValidation
}

func (e RecordError) Error() string {
	return fmt.Sprintf("record %d: %v", e.Index, e.Err)
}

// NormalizeRecords converts every valid record and reports the rest.
func NormalizeRecords(records []TransactionRecord, loc *time.Location) ([]Transaction, []RecordError) {
	txns := make([]Transaction, 0, len(records))
	var rejected []RecordError
	for i, r := range records {
		tx, err := r.Normalize(loc)
		if err != nil {
			var verr *ErrValidation
			if !errors.As(err, &verr) {
				verr = &ErrValidation{Field: "record", Message: err.Error()}
			}
			rejected = append(rejected, RecordError{Index: i, Err: verr})
			continue
		}
		txns = append(txns, tx)
	}
	return txns, rejected
}

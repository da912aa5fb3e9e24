package domain_test

import (
	"errors"
	"testing"
	"time"

	"github.com/boddenberg/finance-dashboard-go/internal/domain"

	"github.com/shopspring/decimal"
)

func amount(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestParseTransactionKind(t *testing.T) {
	tests := []struct {
		in      string
		want    domain.TransactionKind
		wantErr bool
	}{
		{"credit", domain.KindIncome, false},
		{"income", domain.KindIncome, false},
		{"Credit", domain.KindIncome, false},
		{"expense", domain.KindExpense, false},
		{"debit", domain.KindExpense, false},
		{" expense ", domain.KindExpense, false},
		{"transfer", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		got, err := domain.ParseTransactionKind(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseTransactionKind(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseTransactionKind(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalize_Valid(t *testing.T) {
	rec := domain.TransactionRecord{
		LegacyID:        "64f0c0ffee",
		Amount:          amount("40.50"),
		TransactionType: "credit",
		Category:        "Salary",
		Date:            "2024-03-15T10:00:00Z",
		Description:     "march pay",
	}

	tx, err := rec.Normalize(time.UTC)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if tx.ID != "64f0c0ffee" {
		t.Errorf("expected legacy id to be used, got %q", tx.ID)
	}
	if !tx.Amount.Equal(decimal.RequireFromString("40.5")) {
		t.Errorf("expected amount 40.5, got %s", tx.Amount)
	}
	if !tx.IsIncome() {
		t.Errorf("expected income kind, got %q", tx.Kind)
	}
	if tx.Date.Month() != time.March || tx.Date.Day() != 15 {
		t.Errorf("unexpected date %v", tx.Date)
	}
}

func TestNormalize_GeneratesID(t *testing.T) {
	rec := domain.TransactionRecord{
		Amount:          amount("1"),
		TransactionType: "expense",
		Category:        "Food",
		Date:            "2024-03-15",
	}

	tx, err := rec.Normalize(time.UTC)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if tx.ID == "" {
		t.Error("expected generated id")
	}
}

func TestNormalize_PlainDateUsesLocation(t *testing.T) {
	loc := time.FixedZone("UTC+5:30", 5*3600+1800)
	rec := domain.TransactionRecord{
		Amount:          amount("1"),
		TransactionType: "expense",
		Category:        "Food",
		Date:            "2024-04-01",
	}

	tx, err := rec.Normalize(loc)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if tx.Date.Location() != loc {
		t.Errorf("expected date in %v, got %v", loc, tx.Date.Location())
	}
}

func TestNormalize_Invalid(t *testing.T) {
	base := func() domain.TransactionRecord {
		return domain.TransactionRecord{
			Amount:          amount("10"),
			TransactionType: "expense",
			Category:        "Food",
			Date:            "2024-03-15",
		}
	}

	tests := []struct {
		name  string
		field string
		edit  func(r *domain.TransactionRecord)
	}{
		{"missing amount", "amount", func(r *domain.TransactionRecord) { r.Amount = nil }},
		{"negative amount", "amount", func(r *domain.TransactionRecord) { r.Amount = amount("-1") }},
		{"huge exponent", "amount", func(r *domain.TransactionRecord) { r.Amount = amount("1e400") }},
		{"runaway exponent", "amount", func(r *domain.TransactionRecord) { r.Amount = amount("1e5000000") }},
		{"tiny exponent", "amount", func(r *domain.TransactionRecord) { r.Amount = amount("1e-5000000") }},
		{"too many digits", "amount", func(r *domain.TransactionRecord) { r.Amount = amount("123456789012345678901") }},
		{"above maximum", "amount", func(r *domain.TransactionRecord) { r.Amount = amount("2000000000000000") }},
		{"unknown type", "transactionType", func(r *domain.TransactionRecord) { r.TransactionType = "refund" }},
		{"missing category", "category", func(r *domain.TransactionRecord) { r.Category = "  " }},
		{"missing date", "date", func(r *domain.TransactionRecord) { r.Date = "" }},
		{"bad date", "date", func(r *domain.TransactionRecord) { r.Date = "15/03/2024" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := base()
			tt.edit(&rec)

			_, err := rec.Normalize(time.UTC)
			var verr *domain.ErrValidation
			if !errors.As(err, &verr) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
			if verr.Field != tt.field {
				t.Errorf("expected field %q, got %q", tt.field, verr.Field)
			}
		})
	}
}

func TestNormalize_UnknownCategoryIsKept(t *testing.T) {
	rec := domain.TransactionRecord{
		Amount:          amount("5"),
		TransactionType: "expense",
		Category:        "Crypto",
		Date:            "2024-03-15",
	}

	tx, err := rec.Normalize(time.UTC)
	if err != nil {
		t.Fatalf("expected unknown category to be accepted, got %v", err)
	}
	if domain.IsKnownCategory(tx.Category) {
		t.Error("expected Crypto to be unknown")
	}
}

func TestInMonthOf(t *testing.T) {
	ref := time.Date(2024, time.March, 31, 23, 0, 0, 0, time.UTC)

	in := domain.Transaction{Date: time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)}
	lastYear := domain.Transaction{Date: time.Date(2023, time.March, 10, 0, 0, 0, 0, time.UTC)}
	nextMonth := domain.Transaction{Date: time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC)}

	if !in.InMonthOf(ref) {
		t.Error("expected same month to match")
	}
	if lastYear.InMonthOf(ref) {
		t.Error("expected same month of another year not to match")
	}
	if nextMonth.InMonthOf(ref) {
		t.Error("expected next month not to match")
	}
}

func TestNormalizeRecords_SplitsValidAndRejected(t *testing.T) {
	records := []domain.TransactionRecord{
		{Amount: amount("100"), TransactionType: "credit", Category: "Salary", Date: "2024-03-01"},
		{Amount: nil, TransactionType: "expense", Category: "Food", Date: "2024-03-02"},
		{Amount: amount("40"), TransactionType: "expense", Category: "Food", Date: "2024-03-03"},
		{Amount: amount("5"), TransactionType: "gift", Category: "Tip", Date: "2024-03-04"},
	}

	txns, rejected := domain.NormalizeRecords(records, time.UTC)

	if len(txns) != 2 {
		t.Fatalf("expected 2 valid transactions, got %d", len(txns))
	}
	if len(rejected) != 2 {
		t.Fatalf("expected 2 rejected records, got %d", len(rejected))
	}
	if rejected[0].Index != 1 || rejected[0].Err.Field != "amount" {
		t.Errorf("unexpected first rejection: %v", rejected[0])
	}
	if rejected[1].Index != 3 || rejected[1].Err.Field != "transactionType" {
		t.Errorf("unexpected second rejection: %v", rejected[1])
	}
}

package domain_test

import (
	"testing"

	"github.com/boddenberg/finance-dashboard-go/internal/domain"
)

func TestCategories_OrderAndColors(t *testing.T) {
	want := []domain.CategoryInfo{
		{Name: "Groceries", Color: "#FF6384"},
		{Name: "Rent", Color: "#36A2EB"},
		{Name: "Salary", Color: "#FFCE56"},
		{Name: "Tip", Color: "#4BC0C0"},
		{Name: "Food", Color: "#9966FF"},
		{Name: "Medical", Color: "#FF9F40"},
		{Name: "Utilities", Color: "#8AC926"},
		{Name: "Entertainment", Color: "#6A4C93"},
		{Name: "Transportation", Color: "#1982C4"},
		{Name: "Other", Color: "#F45B69"},
	}

	got := domain.Categories()
	if len(got) != len(want) || domain.CategoryCount() != len(want) {
		t.Fatalf("expected %d categories, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("category %d: expected %+v, got %+v", i, want[i], got[i])
		}
	}
}

func TestCategories_ReturnsCopy(t *testing.T) {
	cats := domain.Categories()
	cats[0].Color = "#000000"

	if domain.Categories()[0].Color != "#FF6384" {
		t.Error("mutating the returned slice must not change the table")
	}
}

func TestLookupCategory(t *testing.T) {
	info, idx, ok := domain.LookupCategory("Food")
	if !ok || idx != 4 || info.Color != "#9966FF" {
		t.Errorf("unexpected lookup result: %+v %d %v", info, idx, ok)
	}

	if _, _, ok := domain.LookupCategory("food"); ok {
		t.Error("expected lookup to be case-sensitive")
	}
	if domain.IsKnownCategory("Crypto") {
		t.Error("expected Crypto to be unknown")
	}
}

package domain

// CategoryInfo is one entry of the fixed category table.
type CategoryInfo struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// categoryTable is the single source for category order and colors.
// The chart, the category cards and color lookups all read from it.
var categoryTable = [...]CategoryInfo{
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

var categoryIndex = func() map[string]int {
	m := make(map[string]int, len(categoryTable))
	for i, c := range categoryTable {
		m[c.Name] = i
	}
	return m
}()

// Categories returns the category table in display order.
func Categories() []CategoryInfo {
	out := make([]CategoryInfo, len(categoryTable))
	copy(out, categoryTable[:])
	return out
}

// CategoryCount is the number of known categories.
func CategoryCount() int { return len(categoryTable) }

// LookupCategory returns the table entry and its position for name.
// Matching is exact.
func LookupCategory(name string) (CategoryInfo, int, bool) {
	i, ok := categoryIndex[name]
	if !ok {
		return CategoryInfo{}, -1, false
	}
	return categoryTable[i], i, true
}

// IsKnownCategory reports whether name is one of the fixed categories.
func IsKnownCategory(name string) bool {
	_, ok := categoryIndex[name]
	return ok
}

package core

// StatisticsData is the derived summary of a record set. It is never
// persisted; consumers recompute it whenever the record set changes.
type StatisticsData struct {
	TotalIncome     Money
	TotalExpense    Money
	Balance         Money
	CategoryExpense map[string]Money
}

// ComputeStatistics derives totals, balance and the per-category expense
// breakdown from records. Pure function; iteration order of CategoryExpense
// is unspecified, consumers sort for display.
func ComputeStatistics(records []Record) StatisticsData {
	stats := StatisticsData{CategoryExpense: make(map[string]Money)}
	for _, r := range records {
		switch r.Type {
		case Income:
			stats.TotalIncome.Cents += r.Amount.Cents
		case Expense:
			stats.TotalExpense.Cents += r.Amount.Cents
			sum := stats.CategoryExpense[r.Category]
			sum.Cents += r.Amount.Cents
			stats.CategoryExpense[r.Category] = sum
		}
	}
	stats.Balance.Cents = stats.TotalIncome.Cents - stats.TotalExpense.Cents
	return stats
}

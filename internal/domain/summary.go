package domain

// CategoryTotals holds the income and expense totals for one category.
type CategoryTotals struct {
	Income  float64 `json:"income"`
	Expense float64 `json:"expense"`
}

// Summary is the high-level financial picture across a set of transactions.
type Summary struct {
	TotalIncome   float64                   `json:"total_income"`
	TotalExpenses float64                   `json:"total_expenses"`
	Balance       float64                   `json:"balance"`
	Breakdown     map[string]CategoryTotals `json:"category_breakdown"`
}

// Summarize computes income/expense totals and the per-category breakdown.
func Summarize(txs []*Transaction) Summary {
	s := Summary{Breakdown: make(map[string]CategoryTotals)}

	for _, tx := range txs {
		totals := s.Breakdown[string(tx.Category)]
		switch tx.Type {
		case TypeIncome:
			s.TotalIncome += tx.Amount
			totals.Income += tx.Amount
		case TypeExpense:
			s.TotalExpenses += tx.Amount
			totals.Expense += tx.Amount
		}
		s.Breakdown[string(tx.Category)] = totals
	}

	s.Balance = s.TotalIncome - s.TotalExpenses
	return s
}

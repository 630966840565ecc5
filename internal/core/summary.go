package core

// Derived, query-only views. Never stored; recomputed on demand from the
// ledger's current state.

// MonthlySummary describes the current calendar month.
type MonthlySummary struct {
	Income      float64 `json:"income"`
	Expenses    float64 `json:"expenses"`
	Balance     float64 `json:"balance"`
	Savings     float64 `json:"savings"`
	TopCategory string  `json:"topCategory"`
}

// CategorySummary is one category's share of total spend. Color and budget
// come from the matching Category, joined by name; names without a match use
// a default color and carry no budget.
type CategorySummary struct {
	Category        string  `json:"category"`
	Amount          float64 `json:"amount"`
	Color           string  `json:"color"`
	Percentage      float64 `json:"percentage"`
	Budget          float64 `json:"budget,omitempty"`
	RemainingBudget float64 `json:"remainingBudget,omitempty"`
	HasBudget       bool    `json:"hasBudget"`
}

// PersonSummary is one person's share of total spend.
type PersonSummary struct {
	Person     Person  `json:"person"`
	Amount     float64 `json:"amount"`
	Percentage float64 `json:"percentage"`
}

// BudgetAlert flags a category at or above the alert threshold of its
// monthly budget.
type BudgetAlert struct {
	Category   string  `json:"category"`
	Budget     float64 `json:"budget"`
	Spent      float64 `json:"spent"`
	Percentage float64 `json:"percentage"`
}

// InvestmentSummary aggregates the whole portfolio.
type InvestmentSummary struct {
	TotalInvested        float64 `json:"totalInvested"`
	TotalValue           float64 `json:"totalValue"`
	TotalReturn          float64 `json:"totalReturn"`
	ReturnPercentage     float64 `json:"returnPercentage"`
	MonthlyContributions float64 `json:"monthlyContributions"`
}

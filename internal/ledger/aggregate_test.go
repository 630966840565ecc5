package ledger

import (
	"math"
	"testing"
	"time"

	"homeledger/internal/core"
)

func transactionOn(date core.Date, person core.Person, category string, amount float64) core.Transaction {
	return core.Transaction{
		Date:     date,
		Amount:   amount,
		Category: category,
		Person:   person,
		Source:   core.SourceCreditCard,
	}
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestStore_MonthlySummary(t *testing.T) {
	s := New()
	now := time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC)

	s.AddMonthlyIncome(core.MonthlyIncome{Person: core.PersonYuval, Amount: 9000, Date: core.NewDate(2024, 3, 1)})
	s.AddMonthlyIncome(core.MonthlyIncome{Person: core.PersonBenny, Amount: 7000, Date: core.NewDate(2024, 3, 1)})
	// Previous month, must not count.
	s.AddMonthlyIncome(core.MonthlyIncome{Person: core.PersonYuval, Amount: 8000, Date: core.NewDate(2024, 2, 1)})

	s.AddTransaction(transactionOn(core.NewDate(2024, 3, 5), core.PersonYuval, "Food", 1200))
	s.AddTransaction(transactionOn(core.NewDate(2024, 3, 8), core.PersonBenny, "Rent", 4500))
	s.AddTransaction(transactionOn(core.NewDate(2024, 2, 5), core.PersonYuval, "Food", 999))

	got := s.MonthlySummary(now)

	if got.Income != 16000 {
		t.Errorf("Income = %v, want 16000", got.Income)
	}
	if got.Expenses != 5700 {
		t.Errorf("Expenses = %v, want 5700", got.Expenses)
	}
	if got.Balance != 10300 {
		t.Errorf("Balance = %v, want 10300", got.Balance)
	}
	if got.Savings != 1600 {
		t.Errorf("Savings = %v, want 1600 at default 10%%", got.Savings)
	}
	if got.TopCategory != "Rent" {
		t.Errorf("TopCategory = %v, want Rent", got.TopCategory)
	}
}

func TestStore_MonthlySummary_Empty(t *testing.T) {
	s := New()
	got := s.MonthlySummary(time.Now())

	if got.Income != 0 || got.Expenses != 0 || got.Balance != 0 || got.Savings != 0 {
		t.Errorf("empty summary = %+v, want zeros", got)
	}
	if got.TopCategory != "" {
		t.Errorf("TopCategory = %q, want empty", got.TopCategory)
	}
}

func TestStore_MonthlySummary_TopCategoryTieBreak(t *testing.T) {
	s := New()
	now := time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC)

	s.AddTransaction(transactionOn(core.NewDate(2024, 3, 1), core.PersonYuval, "Transport", 500))
	s.AddTransaction(transactionOn(core.NewDate(2024, 3, 2), core.PersonYuval, "Food", 500))

	if got := s.MonthlySummary(now).TopCategory; got != "Food" {
		t.Errorf("TopCategory = %v, want Food (name tie-break)", got)
	}
}

func TestStore_CategorySummaries(t *testing.T) {
	s := New()

	s.AddCategory(core.Category{Name: "Food", Color: "#FF0000", Budget: 2000})
	s.AddTransaction(transactionOn(core.NewDate(2024, 3, 1), core.PersonYuval, "Food", 600))
	s.AddTransaction(transactionOn(core.NewDate(2024, 3, 2), core.PersonBenny, "Food", 200))
	s.AddTransaction(transactionOn(core.NewDate(2024, 3, 3), core.PersonYuval, "Transport", 200))

	got := s.CategorySummaries()
	if len(got) != 2 {
		t.Fatalf("CategorySummaries() len = %d, want 2", len(got))
	}

	// Sorted by amount descending.
	if got[0].Category != "Food" || got[1].Category != "Transport" {
		t.Errorf("order = [%s %s], want [Food Transport]", got[0].Category, got[1].Category)
	}

	food := got[0]
	if food.Amount != 800 {
		t.Errorf("Food amount = %v, want 800", food.Amount)
	}
	if !almostEqual(food.Percentage, 80) {
		t.Errorf("Food percentage = %v, want 80", food.Percentage)
	}
	if food.Color != "#FF0000" {
		t.Errorf("Food color = %v, want #FF0000", food.Color)
	}
	if !food.HasBudget || food.Budget != 2000 || food.RemainingBudget != 1200 {
		t.Errorf("Food budget fields = %+v", food)
	}

	transport := got[1]
	if transport.Color != DefaultColor {
		t.Errorf("unmatched category color = %v, want %v", transport.Color, DefaultColor)
	}
	if transport.HasBudget {
		t.Error("unmatched category reports a budget")
	}

	// The per-category sums add up to the total spend.
	var sum float64
	for _, c := range got {
		sum += c.Amount
	}
	if sum != 1000 {
		t.Errorf("sum of category amounts = %v, want 1000", sum)
	}
}

func TestStore_PersonSummaries(t *testing.T) {
	s := New()

	s.AddTransaction(transactionOn(core.NewDate(2024, 3, 1), core.PersonYuval, "Food", 300))
	s.AddTransaction(transactionOn(core.NewDate(2024, 3, 2), core.PersonBenny, "Food", 100))

	got := s.PersonSummaries()
	if len(got) != 2 {
		t.Fatalf("PersonSummaries() len = %d, want 2", len(got))
	}
	if got[0].Person != core.PersonYuval || got[1].Person != core.PersonBenny {
		t.Errorf("order = [%s %s], want fixed [yuval benny]", got[0].Person, got[1].Person)
	}
	if !almostEqual(got[0].Percentage, 75) || !almostEqual(got[1].Percentage, 25) {
		t.Errorf("percentages = [%v %v], want [75 25]", got[0].Percentage, got[1].Percentage)
	}
	if !almostEqual(got[0].Percentage+got[1].Percentage, 100) {
		t.Errorf("percentages sum = %v, want 100", got[0].Percentage+got[1].Percentage)
	}
}

func TestStore_PersonSummaries_Empty(t *testing.T) {
	s := New()

	got := s.PersonSummaries()
	if len(got) != 2 {
		t.Fatalf("PersonSummaries() len = %d, want 2 even when empty", len(got))
	}
	for _, p := range got {
		if p.Amount != 0 || p.Percentage != 0 {
			t.Errorf("empty summary for %s = %+v, want zeros", p.Person, p)
		}
	}
}

func TestStore_BudgetAlerts(t *testing.T) {
	s := New()
	now := time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC)

	s.AddCategory(core.Category{Name: "Food", Budget: 1000})
	s.AddCategory(core.Category{Name: "Transport", Budget: 1000})
	s.AddCategory(core.Category{Name: "Fun", Budget: 1000})
	s.AddCategory(core.Category{Name: "Unbudgeted"})

	s.AddTransaction(transactionOn(core.NewDate(2024, 3, 1), core.PersonYuval, "Food", 950))        // 95%
	s.AddTransaction(transactionOn(core.NewDate(2024, 3, 2), core.PersonYuval, "Transport", 800))   // exactly 80%
	s.AddTransaction(transactionOn(core.NewDate(2024, 3, 3), core.PersonYuval, "Fun", 790))         // below threshold
	s.AddTransaction(transactionOn(core.NewDate(2024, 3, 4), core.PersonYuval, "Unbudgeted", 5000)) // no budget
	s.AddTransaction(transactionOn(core.NewDate(2024, 2, 1), core.PersonYuval, "Food", 5000))       // previous month

	got := s.BudgetAlerts(now)
	if len(got) != 2 {
		t.Fatalf("BudgetAlerts() len = %d, want 2: %+v", len(got), got)
	}

	// Sorted by percentage descending; the threshold is inclusive.
	if got[0].Category != "Food" || got[1].Category != "Transport" {
		t.Errorf("order = [%s %s], want [Food Transport]", got[0].Category, got[1].Category)
	}
	if !almostEqual(got[0].Percentage, 95) {
		t.Errorf("Food percentage = %v, want 95", got[0].Percentage)
	}
	if !almostEqual(got[1].Percentage, 80) {
		t.Errorf("Transport percentage = %v, want 80", got[1].Percentage)
	}
	if got[0].Spent != 950 || got[0].Budget != 1000 {
		t.Errorf("Food alert = %+v", got[0])
	}
}

func TestStore_InvestmentSummary(t *testing.T) {
	s := New()

	s.AddInvestment(core.Investment{
		Name:          "index fund",
		Type:          core.InvestmentStocks,
		InitialAmount: 1000,
		CurrentAmount: 1200,
		StartDate:     core.NewDate(2023, 1, 1),
	})
	s.AddInvestment(core.Investment{
		Name:                "pension",
		Type:                core.InvestmentPension,
		InitialAmount:       500,
		CurrentAmount:       500,
		StartDate:           core.NewDate(2023, 1, 1),
		MonthlyContribution: 100,
	})

	got := s.InvestmentSummary()
	if got.TotalInvested != 1500 {
		t.Errorf("TotalInvested = %v, want 1500", got.TotalInvested)
	}
	if got.TotalValue != 1700 {
		t.Errorf("TotalValue = %v, want 1700", got.TotalValue)
	}
	if got.TotalReturn != 200 {
		t.Errorf("TotalReturn = %v, want 200", got.TotalReturn)
	}
	if !almostEqual(got.ReturnPercentage, 200.0/1500*100) {
		t.Errorf("ReturnPercentage = %v", got.ReturnPercentage)
	}
	if got.MonthlyContributions != 100 {
		t.Errorf("MonthlyContributions = %v, want 100", got.MonthlyContributions)
	}
}

func TestStore_InvestmentSummary_Empty(t *testing.T) {
	s := New()
	got := s.InvestmentSummary()
	if got != (core.InvestmentSummary{}) {
		t.Errorf("empty InvestmentSummary() = %+v, want zeros", got)
	}
}

func TestStore_SuggestCategory(t *testing.T) {
	s := New()
	s.AddCategory(core.Category{Name: "Food", Keywords: []string{"super", "market"}})
	s.AddCategory(core.Category{Name: "Transport", Keywords: []string{"fuel"}})

	tests := []struct {
		description string
		want        string
	}{
		{"SUPERmarket downtown", "Food"},
		{"Fuel station", "Transport"},
		{"cinema tickets", ""},
		{"", ""},
	}

	for _, tt := range tests {
		if got := s.SuggestCategory(tt.description); got != tt.want {
			t.Errorf("SuggestCategory(%q) = %q, want %q", tt.description, got, tt.want)
		}
	}
}

func TestStore_MonthlyIncomesFor(t *testing.T) {
	s := New()
	s.AddMonthlyIncome(core.MonthlyIncome{Person: core.PersonYuval, Amount: 9000, Date: core.NewDate(2024, 3, 1)})
	s.AddMonthlyIncome(core.MonthlyIncome{Person: core.PersonBenny, Amount: 7000, Date: core.NewDate(2024, 3, 1)})
	s.AddMonthlyIncome(core.MonthlyIncome{Person: core.PersonYuval, Amount: 8000, Date: core.NewDate(2024, 2, 1)})

	got := s.MonthlyIncomesFor(time.March, 2024)
	if len(got) != 2 {
		t.Errorf("MonthlyIncomesFor(March 2024) len = %d, want 2", len(got))
	}
}

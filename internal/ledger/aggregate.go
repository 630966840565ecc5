package ledger

import (
	"sort"
	"strings"
	"time"

	"homeledger/internal/core"
)

// DefaultColor is assigned to category names that no stored Category
// matches. The name-based join is a soft reference; see Category.
const DefaultColor = "#CBD5E1"

// BudgetAlertThreshold is the budget share, in percent, at which a category
// starts alerting. Fixed, not configurable.
const BudgetAlertThreshold = 80.0

// Queries are pure reads over the current state: they never fail, never
// mutate, and yield zero-valued summaries on empty collections. Month
// scoping compares local calendar fields of now, not elapsed time.

// MonthlySummary aggregates the calendar month containing now. Income sums
// both persons' entries for the month; expenses, balance, and the top
// category are scoped to the same month. (The hosted reference summed
// expenses across all time while month-filtering budget alerts; the
// month-scoped policy is deliberate here.)
func (s *Store) MonthlySummary(now time.Time) core.MonthlySummary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var income float64
	for _, in := range s.incomes {
		if in.Date.SameMonth(now) {
			income += in.Amount
		}
	}

	var expenses float64
	byCategory := make(map[string]float64)
	for _, t := range s.transactions {
		if !t.Date.SameMonth(now) {
			continue
		}
		expenses += t.Amount
		byCategory[t.Category] += t.Amount
	}

	var topCategory string
	var topAmount float64
	for name, amount := range byCategory {
		if amount > topAmount || (amount == topAmount && topCategory != "" && name < topCategory) {
			topCategory = name
			topAmount = amount
		}
	}

	return core.MonthlySummary{
		Income:      income,
		Expenses:    expenses,
		Balance:     income - expenses,
		Savings:     income * (s.savingsPercentage / 100),
		TopCategory: topCategory,
	}
}

// CategorySummaries sums every category name appearing in the transaction
// set across all time, sorted by amount descending. Percentages are shares
// of the grand total, 0 when the total is 0.
func (s *Store) CategorySummaries() []core.CategorySummary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var total float64
	amounts := make(map[string]float64)
	for _, t := range s.transactions {
		total += t.Amount
		amounts[t.Category] += t.Amount
	}

	byName := make(map[string]core.Category, len(s.categories))
	for _, c := range s.categories {
		byName[c.Name] = c
	}

	out := make([]core.CategorySummary, 0, len(amounts))
	for name, amount := range amounts {
		sum := core.CategorySummary{
			Category: name,
			Amount:   amount,
			Color:    DefaultColor,
		}
		if total > 0 {
			sum.Percentage = amount / total * 100
		}
		if c, ok := byName[name]; ok {
			sum.Color = c.Color
			if c.Budget > 0 {
				sum.Budget = c.Budget
				sum.RemainingBudget = c.Budget - amount
				sum.HasBudget = true
			}
		}
		out = append(out, sum)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Amount != out[j].Amount {
			return out[i].Amount > out[j].Amount
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// PersonSummaries always returns both persons in fixed order, each with its
// all-time spend and share of the total.
func (s *Store) PersonSummaries() []core.PersonSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var total float64
	byPerson := make(map[core.Person]float64)
	for _, t := range s.transactions {
		total += t.Amount
		byPerson[t.Person] += t.Amount
	}

	out := make([]core.PersonSummary, 0, 2)
	for _, p := range core.Persons() {
		sum := core.PersonSummary{Person: p, Amount: byPerson[p]}
		if total > 0 {
			sum.Percentage = byPerson[p] / total * 100
		}
		out = append(out, sum)
	}
	return out
}

// BudgetAlerts reports every budgeted category whose current-month spend has
// reached the alert threshold, sorted by percentage descending.
func (s *Store) BudgetAlerts(now time.Time) []core.BudgetAlert {
	s.mu.RLock()
	defer s.mu.RUnlock()

	spent := make(map[string]float64)
	for _, t := range s.transactions {
		if t.Date.SameMonth(now) {
			spent[t.Category] += t.Amount
		}
	}

	var out []core.BudgetAlert
	for _, c := range s.categories {
		if c.Budget <= 0 {
			continue
		}
		pct := spent[c.Name] / c.Budget * 100
		if pct < BudgetAlertThreshold {
			continue
		}
		out = append(out, core.BudgetAlert{
			Category:   c.Name,
			Budget:     c.Budget,
			Spent:      spent[c.Name],
			Percentage: pct,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Percentage != out[j].Percentage {
			return out[i].Percentage > out[j].Percentage
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// InvestmentSummary aggregates the whole portfolio. Absent monthly
// contributions count as zero.
func (s *Store) InvestmentSummary() core.InvestmentSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var sum core.InvestmentSummary
	for _, inv := range s.investments {
		sum.TotalInvested += inv.InitialAmount
		sum.TotalValue += inv.CurrentAmount
		sum.MonthlyContributions += inv.MonthlyContribution
	}
	sum.TotalReturn = sum.TotalValue - sum.TotalInvested
	if sum.TotalInvested > 0 {
		sum.ReturnPercentage = sum.TotalReturn / sum.TotalInvested * 100
	}
	return sum
}

// MonthlyIncomesFor returns the income entries dated in the given calendar
// month and year, both persons.
func (s *Store) MonthlyIncomesFor(month time.Month, year int) []core.MonthlyIncome {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []core.MonthlyIncome
	for _, in := range s.incomes {
		if in.Date.Month() == month && in.Date.Year() == year {
			out = append(out, in)
		}
	}
	return out
}

// SuggestCategory matches a description against the categories' keyword
// lists and returns the first category whose keyword occurs in it. Advisory
// only; nothing enforces the suggestion. Empty string when nothing matches.
func (s *Store) SuggestCategory(description string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	lower := strings.ToLower(description)
	for _, c := range s.categories {
		for _, kw := range c.Keywords {
			if kw != "" && strings.Contains(lower, strings.ToLower(kw)) {
				return c.Name
			}
		}
	}
	return ""
}

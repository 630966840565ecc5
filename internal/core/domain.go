package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	PersonYuval Person = "yuval"
	PersonBenny Person = "benny"
)

const (
	SourceBit          Source = "bit"
	SourceBankTransfer Source = "bank_transfer"
	SourceCreditCard   Source = "credit_card"
	SourceCash         Source = "cash"
	SourceRent         Source = "rent"
	SourceOther        Source = "other"
)

const (
	InvestmentStocks   InvestmentType = "stocks"
	InvestmentBonds    InvestmentType = "bonds"
	InvestmentSavings  InvestmentType = "savings"
	InvestmentPension  InvestmentType = "pension"
	InvestmentProperty InvestmentType = "property"
	InvestmentOther    InvestmentType = "other"
)

type (
	// Person is one of the two fixed household members. A closed
	// enumeration, not an open user directory.
	Person string

	// Source is the payment channel tag on a transaction. Descriptive
	// only; no aggregation keys off it.
	Source string

	InvestmentType string

	// Date is a calendar day with no time component.
	Date struct {
		time.Time
	}

	Transaction struct {
		ID          string  `json:"id"`
		Date        Date    `json:"date"`
		Amount      float64 `json:"amount"`
		Description string  `json:"description"`
		Category    string  `json:"category"`
		Person      Person  `json:"person"`
		Source      Source  `json:"source"`
		Notes       string  `json:"notes"`
	}

	// TransactionCandidate is a parsed statement row before it enters the
	// ledger: no identifier yet, and no person tag (the caller attaches
	// the person after the fact).
	TransactionCandidate struct {
		Date        Date    `json:"date"`
		Amount      float64 `json:"amount"`
		Description string  `json:"description"`
		Category    string  `json:"category"`
		Source      Source  `json:"source"`
		Notes       string  `json:"notes"`
	}

	// Category groups transactions by display name. Transactions store
	// the name, not the id: renaming a category orphans its historical
	// transactions unless they are updated in lockstep. Accepted
	// limitation, mirrored from the hosted schema.
	Category struct {
		ID       string   `json:"id"`
		Name     string   `json:"name"`
		Color    string   `json:"color"`
		Keywords []string `json:"keywords"`
		Budget   float64  `json:"budget,omitempty"` // monthly ceiling; 0 means no budget
	}

	// MonthlyIncome is one income entry for a person. Multiple entries per
	// person per month are allowed and summed.
	MonthlyIncome struct {
		Person Person  `json:"person"`
		Amount float64 `json:"amount"`
		Date   Date    `json:"date"`
		Notes  string  `json:"notes,omitempty"`
	}

	LoanPayment struct {
		ID     string  `json:"id"`
		Date   Date    `json:"date"`
		Amount float64 `json:"amount"`
		Notes  string  `json:"notes,omitempty"`
	}

	// Loan keeps RemainingAmount consistent incrementally: every payment
	// add/remove and every withdrawal adjusts it in place, nothing
	// recomputes it from the payment list.
	Loan struct {
		ID              string        `json:"id"`
		InitialAmount   float64       `json:"initialAmount"`
		RemainingAmount float64       `json:"remainingAmount"`
		Payments        []LoanPayment `json:"payments"`
		StartDate       Date          `json:"startDate"`
		Lender          string        `json:"lender"`
	}

	Investment struct {
		ID                  string         `json:"id"`
		Name                string         `json:"name"`
		Type                InvestmentType `json:"type"`
		InitialAmount       float64        `json:"initialAmount"`
		CurrentAmount       float64        `json:"currentAmount"`
		StartDate           Date           `json:"startDate"`
		MonthlyContribution float64        `json:"monthlyContribution,omitempty"`
		Notes               string         `json:"notes,omitempty"`
	}
)

var (
	ErrInvalidPerson   = errors.New("invalid person")
	ErrInvalidSource   = errors.New("invalid payment source")
	ErrInvalidType     = errors.New("invalid investment type")
	ErrInvalidDate     = errors.New("invalid date")
	ErrEmptyName       = errors.New("empty name")
	ErrNegativeAmount  = errors.New("amount must be positive")
	ErrInvalidPercent  = errors.New("percentage must be between 0 and 100")
)

// Persons returns both household members in fixed order.
func Persons() []Person {
	return []Person{PersonYuval, PersonBenny}
}

func (p Person) Valid() bool {
	return p == PersonYuval || p == PersonBenny
}

func (s Source) Valid() bool {
	switch s {
	case SourceBit, SourceBankTransfer, SourceCreditCard, SourceCash, SourceRent, SourceOther:
		return true
	}
	return false
}

func (t InvestmentType) Valid() bool {
	switch t {
	case InvestmentStocks, InvestmentBonds, InvestmentSavings, InvestmentPension, InvestmentProperty, InvestmentOther:
		return true
	}
	return false
}

// NewDate creates a Date from year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses an ISO YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date{Time: t}, nil
}

// ISO formats the date as YYYY-MM-DD.
func (d Date) ISO() string {
	return d.Format("2006-01-02")
}

// SameMonth reports whether the date falls in the same calendar month and
// year as t. Comparison is by calendar fields, not elapsed-time windows.
func (d Date) SameMonth(t time.Time) bool {
	return d.Year() == t.Year() && d.Month() == t.Month()
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte(`""`), nil
	}
	return []byte(`"` + d.ISO() + `"`), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

func (t Transaction) Validate() error {
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if !t.Person.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidPerson, t.Person)
	}
	if !t.Source.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidSource, t.Source)
	}
	return nil
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if c.Budget < 0 {
		return ErrNegativeAmount
	}
	return nil
}

func (m MonthlyIncome) Validate() error {
	if err := m.Date.Validate(); err != nil {
		return err
	}
	if !m.Person.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidPerson, m.Person)
	}
	if m.Amount < 0 {
		return ErrNegativeAmount
	}
	return nil
}

func (l Loan) Validate() error {
	if strings.TrimSpace(l.Lender) == "" {
		return ErrEmptyName
	}
	if err := l.StartDate.Validate(); err != nil {
		return err
	}
	if l.InitialAmount < 0 {
		return ErrNegativeAmount
	}
	return nil
}

func (p LoanPayment) Validate() error {
	if err := p.Date.Validate(); err != nil {
		return err
	}
	if p.Amount <= 0 {
		return ErrNegativeAmount
	}
	return nil
}

func (i Investment) Validate() error {
	if strings.TrimSpace(i.Name) == "" {
		return ErrEmptyName
	}
	if !i.Type.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidType, i.Type)
	}
	if err := i.StartDate.Validate(); err != nil {
		return err
	}
	if i.InitialAmount < 0 || i.CurrentAmount < 0 || i.MonthlyContribution < 0 {
		return ErrNegativeAmount
	}
	return nil
}

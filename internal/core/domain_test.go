package core

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "valid ISO date", input: "2024-03-05", want: "2024-03-05"},
		{name: "end of month", input: "2024-12-31", want: "2024-12-31"},
		{name: "invalid format", input: "05/03/2024", wantErr: true},
		{name: "invalid calendar day", input: "2024-02-31", wantErr: true},
		{name: "empty string", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDate(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseDate(%q) error = nil, want error", tt.input)
				}
				if !errors.Is(err, ErrInvalidDate) {
					t.Errorf("ParseDate(%q) error = %v, want ErrInvalidDate", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDate(%q) error = %v", tt.input, err)
			}
			if got.ISO() != tt.want {
				t.Errorf("ParseDate(%q).ISO() = %v, want %v", tt.input, got.ISO(), tt.want)
			}
		})
	}
}

func TestDate_SameMonth(t *testing.T) {
	d := NewDate(2024, 3, 15)

	if !d.SameMonth(NewDate(2024, 3, 1).Time) {
		t.Error("SameMonth() = false for same month and year")
	}
	if d.SameMonth(NewDate(2024, 4, 15).Time) {
		t.Error("SameMonth() = true for different month")
	}
	if d.SameMonth(NewDate(2023, 3, 15).Time) {
		t.Error("SameMonth() = true for different year")
	}
}

func TestDate_JSON(t *testing.T) {
	d := NewDate(2024, 3, 5)

	data, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(data) != `"2024-03-05"` {
		t.Errorf("Marshal() = %s, want %q", data, `"2024-03-05"`)
	}

	var back Date
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if !back.Equal(d.Time) {
		t.Errorf("Unmarshal() = %v, want %v", back, d)
	}

	var zero Date
	if err := json.Unmarshal([]byte(`""`), &zero); err != nil {
		t.Fatalf("Unmarshal(empty) error = %v", err)
	}
	if !zero.IsZero() {
		t.Errorf("Unmarshal(empty) = %v, want zero date", zero)
	}
}

func TestTransaction_Validate(t *testing.T) {
	valid := Transaction{
		Date:        NewDate(2024, 3, 5),
		Amount:      120,
		Description: "groceries",
		Category:    "Food",
		Person:      PersonYuval,
		Source:      SourceCreditCard,
	}

	tests := []struct {
		name    string
		mutate  func(*Transaction)
		wantErr error
	}{
		{name: "valid", mutate: func(*Transaction) {}},
		{name: "zero date", mutate: func(tr *Transaction) { tr.Date = Date{} }, wantErr: ErrInvalidDate},
		{name: "unknown person", mutate: func(tr *Transaction) { tr.Person = "dana" }, wantErr: ErrInvalidPerson},
		{name: "unknown source", mutate: func(tr *Transaction) { tr.Source = "cheque" }, wantErr: ErrInvalidSource},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := valid
			tt.mutate(&tr)
			err := tr.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestCategory_Validate(t *testing.T) {
	if err := (Category{Name: "Food", Color: "#FF0000"}).Validate(); err != nil {
		t.Errorf("Validate() error = %v, want nil", err)
	}
	if err := (Category{Name: "  "}).Validate(); !errors.Is(err, ErrEmptyName) {
		t.Errorf("Validate() error = %v, want ErrEmptyName", err)
	}
	if err := (Category{Name: "Food", Budget: -1}).Validate(); !errors.Is(err, ErrNegativeAmount) {
		t.Errorf("Validate() error = %v, want ErrNegativeAmount", err)
	}
}

func TestMonthlyIncome_Validate(t *testing.T) {
	valid := MonthlyIncome{Person: PersonBenny, Amount: 9000, Date: NewDate(2024, 3, 1)}
	if err := valid.Validate(); err != nil {
		t.Errorf("Validate() error = %v, want nil", err)
	}

	bad := valid
	bad.Person = "someone"
	if err := bad.Validate(); !errors.Is(err, ErrInvalidPerson) {
		t.Errorf("Validate() error = %v, want ErrInvalidPerson", err)
	}

	bad = valid
	bad.Amount = -1
	if err := bad.Validate(); !errors.Is(err, ErrNegativeAmount) {
		t.Errorf("Validate() error = %v, want ErrNegativeAmount", err)
	}
}

func TestLoanPayment_Validate(t *testing.T) {
	if err := (LoanPayment{Date: NewDate(2024, 3, 1), Amount: 200}).Validate(); err != nil {
		t.Errorf("Validate() error = %v, want nil", err)
	}
	if err := (LoanPayment{Date: NewDate(2024, 3, 1), Amount: 0}).Validate(); !errors.Is(err, ErrNegativeAmount) {
		t.Errorf("Validate() error = %v, want ErrNegativeAmount for zero amount", err)
	}
}

func TestInvestment_Validate(t *testing.T) {
	valid := Investment{
		Name:          "index fund",
		Type:          InvestmentStocks,
		InitialAmount: 1000,
		CurrentAmount: 1200,
		StartDate:     NewDate(2023, 1, 1),
	}
	if err := valid.Validate(); err != nil {
		t.Errorf("Validate() error = %v, want nil", err)
	}

	bad := valid
	bad.Type = "crypto"
	if err := bad.Validate(); !errors.Is(err, ErrInvalidType) {
		t.Errorf("Validate() error = %v, want ErrInvalidType", err)
	}
}

func TestPersons(t *testing.T) {
	ps := Persons()
	if len(ps) != 2 || ps[0] != PersonYuval || ps[1] != PersonBenny {
		t.Errorf("Persons() = %v, want [yuval benny]", ps)
	}
}

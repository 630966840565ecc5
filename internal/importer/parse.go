package importer

import (
	"fmt"
	"strconv"
	"strings"

	"homeledger/internal/core"
)

// ParseStatementDate parses the issuer's DD-MM-YYYY or DD/MM/YYYY formats
// into a calendar date. Values that do not resolve to a real calendar day
// (32-01-2024, 29-02-2023) are rejected.
func ParseStatementDate(s string) (core.Date, error) {
	s = strings.TrimSpace(s)

	sep := ""
	switch {
	case strings.Contains(s, "-"):
		sep = "-"
	case strings.Contains(s, "/"):
		sep = "/"
	default:
		return core.Date{}, fmt.Errorf("invalid date %q", s)
	}

	parts := strings.Split(s, sep)
	if len(parts) != 3 {
		return core.Date{}, fmt.Errorf("invalid date %q", s)
	}

	day, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
	month, err2 := strconv.Atoi(strings.TrimSpace(parts[1]))
	year, err3 := strconv.Atoi(strings.TrimSpace(parts[2]))
	if err1 != nil || err2 != nil || err3 != nil {
		return core.Date{}, fmt.Errorf("invalid date %q", s)
	}

	d := core.NewDate(year, month, day)
	// time.Date normalizes out-of-range components instead of failing, so
	// require the fields to round-trip.
	if d.Day() != day || int(d.Month()) != month || d.Year() != year {
		return core.Date{}, fmt.Errorf("invalid date %q", s)
	}
	return d, nil
}

// ParseAmount parses a charge amount, preserving sign so refunds and credits
// survive. Currency symbol, thousands separators, and whitespace are
// stripped before decimal parsing.
func ParseAmount(s string) (float64, error) {
	clean := strings.Map(func(r rune) rune {
		switch r {
		case '₪', ',', ' ', '\t', ' ':
			return -1
		}
		return r
	}, s)

	amount, err := strconv.ParseFloat(strings.TrimSpace(clean), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	return amount, nil
}

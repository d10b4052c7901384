// Package core holds the domain model: money, accounts, transactions,
// budgets, shared goals and bills, together with their validation rules.
package core

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Money is an amount of Thai baht stored as satang to avoid
// floating-point drift. Use satang for arithmetic, Baht only for display.
type Money struct {
	Satang int64
}

// ParseDecimalToSatang converts a decimal baht string to satang with
// half-up rounding on the third decimal place. Both dot (12.34) and
// comma (12,34) separators are accepted. Only positive amounts are valid.
//
// Examples:
//   ParseDecimalToSatang("12.34")  -> 1234, nil
//   ParseDecimalToSatang("12,34")  -> 1234, nil
//   ParseDecimalToSatang("12.345") -> 1234, nil (rounds down)
//   ParseDecimalToSatang("12.346") -> 1235, nil (rounds up)
func ParseDecimalToSatang(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, ErrInvalidAmount
	}
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, ErrInvalidAmount
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" {
		intPart = "0"
	}
	for _, r := range intPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	for _, r := range fracPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	// Guard the *100 below against overflow
	const maxSafeInt64 = (1<<63 - 1) / 100
	if iv > maxSafeInt64 {
		return 0, ErrInvalidAmount
	}
	var fracSatang int64
	if len(fracPart) > 0 {
		d1 := int64(fracPart[0] - '0')
		fracSatang = d1 * 10
		if len(fracPart) > 1 {
			d2 := int64(fracPart[1] - '0')
			fracSatang += d2
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				fracSatang++
			}
		}
	}
	satang := iv*100 + fracSatang
	if satang <= 0 {
		return 0, ErrInvalidAmount
	}
	return satang, nil
}

// Baht returns the baht value as a float64 for display purposes only.
func (m Money) Baht() float64 {
	return float64(m.Satang) / 100.0
}

// Validate requires a strictly positive amount.
func (m Money) Validate() error {
	if m.Satang <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Add returns m + other.
func (m Money) Add(other Money) Money {
	return Money{Satang: m.Satang + other.Satang}
}

// Sub returns m - other.
func (m Money) Sub(other Money) Money {
	return Money{Satang: m.Satang - other.Satang}
}

// String formats the amount as baht, e.g. "฿1234.50" or "-฿12.05".
func (m Money) String() string {
	satang := m.Satang
	neg := satang < 0
	if neg {
		satang = -satang
	}
	s := fmt.Sprintf("฿%d.%02d", satang/100, satang%100)
	if neg {
		return "-" + s
	}
	return s
}

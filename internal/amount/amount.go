// Package amount parses Argentine-formatted money amounts as they appear in
// RAFAM reports: "." groups thousands, "," separates decimals and a value
// wrapped in parentheses is negative.
package amount

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrInvalid is wrapped by every ParseError.
var ErrInvalid = errors.New("invalid amount")

// ParseError reports a token that is not an amount after cleanup.
type ParseError struct {
	Input string
	Err   error
}

func (e *ParseError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("parse amount %q: empty", e.Input)
	}

	return fmt.Sprintf("parse amount %q: %v", e.Input, e.Err)
}

func (e *ParseError) Unwrap() error {
	return ErrInvalid
}

// Token matches one amount inside a report line, e.g. "1.234,56",
// "-10,00" or "(123,45)". Two decimals are mandatory, which keeps account
// and program codes out of the match.
var Token = regexp.MustCompile(`\(-?\d{1,3}(?:\.\d{3})*,\d{2}\)|-?\d{1,3}(?:\.\d{3})*,\d{2}`)

// Parse converts a single token into a float.
// Format examples: "1.234,56" -> 1234.56, "(123,45)" -> -123.45, "10,00" -> 10.
func Parse(s string) (float64, error) {
	clean := strings.TrimSpace(s)

	negative := false
	if strings.HasPrefix(clean, "(") && strings.HasSuffix(clean, ")") {
		negative = true
		clean = strings.TrimSpace(clean[1 : len(clean)-1])
	}

	clean = strings.TrimPrefix(clean, "$")
	clean = strings.ReplaceAll(clean, " ", "")
	clean = strings.ReplaceAll(clean, ".", "")
	clean = strings.ReplaceAll(clean, ",", ".")

	if clean == "" {
		return 0, &ParseError{Input: s}
	}

	d, err := decimal.NewFromString(clean)
	if err != nil {
		return 0, &ParseError{Input: s, Err: err}
	}

	if negative {
		d = d.Neg()
	}

	f, _ := d.Float64()

	return f, nil
}

// FindAll returns every amount token of the line, left to right.
func FindAll(line string) []string {
	return Token.FindAllString(line, -1)
}

// Values parses every amount token of the line, skipping tokens that fail.
func Values(line string) []float64 {
	tokens := FindAll(line)
	values := make([]float64, 0, len(tokens))

	for _, tok := range tokens {
		v, err := Parse(tok)
		if err != nil {
			continue
		}

		values = append(values, v)
	}

	return values
}

// Strip removes every amount token from the line and collapses whitespace.
func Strip(line string) string {
	return strings.Join(strings.Fields(Token.ReplaceAllString(line, " ")), " ")
}

var thousandsOnly = regexp.MustCompile(`^-?\d{1,3}(?:\.\d{3})+$`)

// ParseLoose parses spreadsheet cells, which may carry either separator
// convention ("1,234.56", "1.234,56", "1234.5") or a plain number.
func ParseLoose(s string) (float64, error) {
	clean := strings.TrimSpace(s)

	negative := false
	if strings.HasPrefix(clean, "(") && strings.HasSuffix(clean, ")") {
		negative = true
		clean = strings.TrimSpace(clean[1 : len(clean)-1])
	}

	clean = strings.TrimPrefix(clean, "$")
	clean = strings.ReplaceAll(clean, " ", "")

	lastDot := strings.LastIndex(clean, ".")
	lastComma := strings.LastIndex(clean, ",")

	switch {
	case lastDot >= 0 && lastComma >= 0 && lastComma > lastDot:
		clean = strings.ReplaceAll(clean, ".", "")
		clean = strings.ReplaceAll(clean, ",", ".")
	case lastDot >= 0 && lastComma >= 0:
		clean = strings.ReplaceAll(clean, ",", "")
	case lastComma >= 0:
		clean = strings.ReplaceAll(clean, ",", ".")
	case thousandsOnly.MatchString(clean):
		clean = strings.ReplaceAll(clean, ".", "")
	}

	if clean == "" {
		return 0, &ParseError{Input: s}
	}

	d, err := decimal.NewFromString(clean)
	if err != nil {
		return 0, &ParseError{Input: s, Err: err}
	}

	if negative {
		d = d.Neg()
	}

	f, _ := d.Float64()

	return f, nil
}

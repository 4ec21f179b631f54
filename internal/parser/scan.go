package parser

import (
	"regexp"
	"strings"

	"github.com/MrJamesThe3rd/muniledger/internal/amount"
	"github.com/MrJamesThe3rd/muniledger/internal/report"
	"github.com/MrJamesThe3rd/muniledger/internal/textkey"
)

// line is a non-empty document line with its accent-folded key.
type line struct {
	Number int
	Text   string
	Key    string
}

type scanState int

const (
	beforeSection scanState = iota
	inSection
	afterSection
)

// section describes where a table starts and ends in the document.
type section struct {
	start func(key string) bool
	end   []string
}

func containsMarker(marker string) func(string) bool {
	return func(key string) bool {
		return strings.Contains(key, marker)
	}
}

// lines returns the lines between the start marker and the first end
// marker, both excluded.
func (s section) lines(text string) []line {
	var out []line

	state := beforeSection

	for i, raw := range splitLines(text) {
		if state == afterSection {
			break
		}

		txt := textkey.Name(raw)
		if txt == "" {
			continue
		}

		key := textkey.Key(txt)

		switch state {
		case beforeSection:
			if s.start(key) {
				state = inSection
			}
		case inSection:
			if textkey.ContainsAny(key, s.end...) {
				state = afterSection
				continue
			}

			out = append(out, line{Number: i + 1, Text: txt, Key: key})
		}
	}

	return out
}

func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.Split(text, "\n")
}

// lineResult is the outcome of one line: a row, a warning, or neither.
type lineResult[T any] struct {
	row     *T
	warning string
}

func emit[T any](row T) lineResult[T] {
	return lineResult[T]{row: &row}
}

func warn[T any](msg string) lineResult[T] {
	return lineResult[T]{warning: msg}
}

func skip[T any]() lineResult[T] {
	return lineResult[T]{}
}

// collect feeds every line to fn and gathers rows and warnings. A run
// that yields no rows reports a single warning.
func collect[T any](kind Kind, lines []line, fn func(line) lineResult[T]) ([]T, []Warning) {
	var (
		rows     []T
		warnings []Warning
	)

	for _, l := range lines {
		res := fn(l)
		if res.warning != "" {
			warnings = append(warnings, Warning{Kind: kind, Line: l.Number, Text: l.Text, Message: res.warning})
		}

		if res.row != nil {
			rows = append(rows, *res.row)
		}
	}

	if len(rows) == 0 {
		warnings = append(warnings, Warning{Kind: kind, Message: "no rows found"})
	}

	return rows, warnings
}

func isTotal(name string) bool {
	key := textkey.Key(name)
	return strings.HasPrefix(key, "total") || strings.Contains(key, "total general")
}

// categoryHeader detects the "1. Presupuestarios" / "2. Extrapresupuestarios"
// headers that switch the current category.
func categoryHeader(key string) (report.Budget, bool) {
	switch {
	case strings.HasPrefix(key, "1.") && strings.Contains(key, "presupuest"):
		return report.Budgetary, true
	case strings.HasPrefix(key, "2.") && strings.Contains(key, "extrapresupuest"):
		return report.ExtraBudgetary, true
	}

	return "", false
}

// leadingName returns the text before the first amount token.
func leadingName(text string, tokens []string) string {
	if len(tokens) == 0 {
		return text
	}

	idx := strings.Index(text, tokens[0])
	if idx <= 0 {
		return amount.Strip(text)
	}

	return textkey.Name(text[:idx])
}

// values parses tokens, returning nil for any that fail.
func values(tokens []string) []*float64 {
	out := make([]*float64, len(tokens))

	for i, tok := range tokens {
		v, err := amount.Parse(tok)
		if err != nil {
			continue
		}

		out[i] = report.Ptr(v)
	}

	return out
}

var nineDigitCode = regexp.MustCompile(`\b\d{9}\b`)

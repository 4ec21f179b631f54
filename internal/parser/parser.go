// Package parser turns the text layer of a RAFAM report into table rows
// using one line-scanning state machine per table.
package parser

import (
	"errors"
	"fmt"

	"github.com/MrJamesThe3rd/muniledger/internal/report"
)

// Kind identifies a deterministic parser.
type Kind string

const (
	KindResources    Kind = "resources"
	KindExpenses     Kind = "expenses"
	KindPrograms     Kind = "programs"
	KindTreasury     Kind = "treasury"
	KindAccounts     Kind = "accounts"
	KindBalanceSheet Kind = "balance_sheet"
	KindGoals        Kind = "goals"
)

// Kinds returns every parser kind in the order a full run uses.
func Kinds() []Kind {
	return []Kind{
		KindResources,
		KindExpenses,
		KindPrograms,
		KindTreasury,
		KindAccounts,
		KindBalanceSheet,
		KindGoals,
	}
}

var ErrUnknownKind = errors.New("unknown parser kind")

// Parser extracts the rows of one table from the full document text.
// Malformed lines never fail a parse; they are reported as warnings.
type Parser interface {
	Parse(text string) Result
}

// Warning describes a line that could not be turned into a row.
type Warning struct {
	Kind    Kind
	Line    int
	Text    string
	Message string
}

func (w Warning) String() string {
	if w.Line == 0 {
		return fmt.Sprintf("%s: %s", w.Kind, w.Message)
	}

	return fmt.Sprintf("%s: %s (line %d: %q)", w.Kind, w.Message, w.Line, w.Text)
}

// Result holds the rows produced by a parser and its warnings.
type Result struct {
	Rows     report.Payload
	Warnings []Warning
}

// Messages renders the warnings as strings.
func (r Result) Messages() []string {
	out := make([]string, 0, len(r.Warnings))
	for _, w := range r.Warnings {
		out = append(out, w.String())
	}

	return out
}

// Merge appends the rows and warnings of other.
func (r *Result) Merge(other Result) {
	r.Rows.Merge(other.Rows)
	r.Warnings = append(r.Warnings, other.Warnings...)
}

// Registry holds one parser per kind. Build it once and share it.
type Registry struct {
	resources    Parser
	expenses     Parser
	programs     Parser
	treasury     Parser
	accounts     Parser
	balanceSheet Parser
	goals        Parser
}

func NewRegistry() *Registry {
	return &Registry{
		resources:    resourcesParser{},
		expenses:     expensesParser{},
		programs:     programsParser{},
		treasury:     treasuryParser{},
		accounts:     accountsParser{},
		balanceSheet: balanceSheetParser{},
		goals:        goalsParser{},
	}
}

// Parser returns the parser registered for kind.
func (r *Registry) Parser(kind Kind) (Parser, error) {
	switch kind {
	case KindResources:
		return r.resources, nil
	case KindExpenses:
		return r.expenses, nil
	case KindPrograms:
		return r.programs, nil
	case KindTreasury:
		return r.treasury, nil
	case KindAccounts:
		return r.accounts, nil
	case KindBalanceSheet:
		return r.balanceSheet, nil
	case KindGoals:
		return r.goals, nil
	}

	return nil, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
}

// ParseAll runs every parser over text and merges their results.
func (r *Registry) ParseAll(text string) (Result, error) {
	var res Result

	for _, kind := range Kinds() {
		p, err := r.Parser(kind)
		if err != nil {
			return Result{}, err
		}

		res.Merge(p.Parse(text))
	}

	return res, nil
}

package report

import (
	"strings"

	"github.com/MrJamesThe3rd/muniledger/internal/textkey"
)

// MovementKind is one of the six canonical treasury movement rows.
type MovementKind string

const (
	OpeningBalance     MovementKind = "Saldo Inicial"
	PeriodIncome       MovementKind = "Ingresos del Periodo"
	IncomeAdjustments  MovementKind = "Ingresos de Ajustes Contables"
	PeriodExpense      MovementKind = "Gastos del Periodo"
	ExpenseAdjustments MovementKind = "Egresos de Ajustes Contables"
	ClosingBalance     MovementKind = "Saldo Final"
)

// MovementKinds returns the kinds in the order they appear in the report.
func MovementKinds() []MovementKind {
	return []MovementKind{
		OpeningBalance,
		PeriodIncome,
		IncomeAdjustments,
		PeriodExpense,
		ExpenseAdjustments,
		ClosingBalance,
	}
}

// SummaryKind is the tri-state type a movement is reduced to when stored.
type SummaryKind string

const (
	SummaryOpening SummaryKind = "Saldo Inicial"
	SummaryIncome  SummaryKind = "Ingreso"
	SummaryExpense SummaryKind = "Egreso"
)

// Summary reduces the kind to its stored type. The closing balance is
// derived and has none.
func (k MovementKind) Summary() (SummaryKind, bool) {
	switch k {
	case OpeningBalance:
		return SummaryOpening, true
	case PeriodIncome, IncomeAdjustments:
		return SummaryIncome, true
	case PeriodExpense, ExpenseAdjustments:
		return SummaryExpense, true
	case ClosingBalance:
		return "", false
	}

	return "", false
}

// TreasuryMovement is a row of the treasury movements table.
type TreasuryMovement struct {
	Kind   MovementKind
	Label  string
	Amount float64
	Period *string
}

// MovementKindFromLabel maps a free-text label to its canonical kind.
func MovementKindFromLabel(label string) (MovementKind, bool) {
	key := textkey.Key(label)

	switch {
	case strings.Contains(key, "saldo") && strings.Contains(key, "inicial"):
		return OpeningBalance, true
	case strings.Contains(key, "saldo") && strings.Contains(key, "final"):
		return ClosingBalance, true
	case strings.Contains(key, "ingreso") && strings.Contains(key, "ajuste"):
		return IncomeAdjustments, true
	case strings.Contains(key, "ingreso"):
		return PeriodIncome, true
	case textkey.ContainsAny(key, "egreso", "gasto") && strings.Contains(key, "ajuste"):
		return ExpenseAdjustments, true
	case textkey.ContainsAny(key, "egreso", "gasto"):
		return PeriodExpense, true
	}

	return "", false
}

// DerivedClosingBalance computes opening + income - expense, ignoring any
// closing balance row present in movements.
func DerivedClosingBalance(movements []TreasuryMovement) float64 {
	var total float64

	for _, m := range movements {
		kind, ok := m.Kind.Summary()
		if !ok {
			continue
		}

		switch kind {
		case SummaryOpening, SummaryIncome:
			total += m.Amount
		case SummaryExpense:
			total -= m.Amount
		}
	}

	return total
}

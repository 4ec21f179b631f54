package parser

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/MrJamesThe3rd/muniledger/internal/amount"
	"github.com/MrJamesThe3rd/muniledger/internal/report"
	"github.com/MrJamesThe3rd/muniledger/internal/textkey"
)

var treasurySection = section{
	start: containsMarker("movimientos de tesoreria"),
	end: []string{
		"estado de situacion patrimonial",
		"demostracion del saldo",
		"evolucion de las principales metas",
	},
}

// movementLabels are matched in report order against the folded line.
var movementLabels = []struct {
	label string
	kind  report.MovementKind
}{
	{label: "saldo inicial", kind: report.OpeningBalance},
	{label: "ingresos del periodo", kind: report.PeriodIncome},
	{label: "ingresos de ajustes contables", kind: report.IncomeAdjustments},
	{label: "gastos del periodo", kind: report.PeriodExpense},
	{label: "egresos de ajustes contables", kind: report.ExpenseAdjustments},
	{label: "saldo final", kind: report.ClosingBalance},
}

var periodPattern = regexp.MustCompile(`(?i)del\s+\d{2}/\d{2}/\d{4}\s+al\s+\d{2}/\d{2}/\d{4}`)

// Period returns the "Del dd/mm/yyyy al dd/mm/yyyy" period of the report.
func Period(text string) (string, bool) {
	m := periodPattern.FindString(text)
	if m == "" {
		return "", false
	}

	return textkey.Name(m), true
}

type treasuryParser struct{}

func (treasuryParser) Parse(text string) Result {
	var (
		period *string
		found  = make(map[report.MovementKind]bool)
		last   = -1
	)

	if p, ok := Period(text); ok {
		period = report.Ptr(p)
	}

	rows, warnings := collect(KindTreasury, treasurySection.lines(text), func(l line) lineResult[report.TreasuryMovement] {
		if strings.Contains(l.Key, "movimientos de tesoreria") && strings.Contains(l.Key, "importe") {
			return skip[report.TreasuryMovement]()
		}

		left := l.Text
		if loc := nineDigitCode.FindStringIndex(left); loc != nil {
			// The balance demonstration accounts start at the right.
			left = strings.TrimSpace(left[:loc[0]])
		}

		tokens := amount.FindAll(left)
		if len(tokens) == 0 {
			return skip[report.TreasuryMovement]()
		}

		key := textkey.Key(left)

		for i, ml := range movementLabels {
			if !strings.Contains(key, ml.label) || found[ml.kind] {
				continue
			}

			v, err := amount.Parse(tokens[0])
			if err != nil {
				return warn[report.TreasuryMovement](err.Error())
			}

			found[ml.kind] = true

			label := left
			if before, _, ok := strings.Cut(left, ":"); ok {
				label = before
			}

			res := emit(report.TreasuryMovement{
				Kind:   ml.kind,
				Label:  amount.Strip(label),
				Amount: v,
				Period: period,
			})

			if i < last {
				res.warning = fmt.Sprintf("movement %q out of order", ml.kind)
			}

			last = max(last, i)

			return res
		}

		return skip[report.TreasuryMovement]()
	})

	if n := len(rows); n > 0 && n < len(movementLabels) {
		warnings = append(warnings, Warning{
			Kind:    KindTreasury,
			Message: fmt.Sprintf("incomplete treasury movements: found %d, expected %d", n, len(movementLabels)),
		})
	}

	return Result{Rows: report.Payload{Treasury: rows}, Warnings: warnings}
}

package parser

import (
	"fmt"

	"github.com/MrJamesThe3rd/muniledger/internal/amount"
	"github.com/MrJamesThe3rd/muniledger/internal/report"
)

var expensesSection = section{
	start: containsMarker("evolucion de gastos por objeto"),
	end: []string{
		"evolucion de gastos por programa",
		"evolucion de los recursos",
		"evolucion de las principales metas",
		"movimientos de tesoreria",
		"estado de situacion patrimonial",
	},
}

type expensesParser struct{}

func (expensesParser) Parse(text string) Result {
	var category report.Budget

	rows, warnings := collect(KindExpenses, expensesSection.lines(text), func(l line) lineResult[report.Expense] {
		tokens := amount.FindAll(l.Text)

		if c, ok := categoryHeader(l.Key); ok {
			category = c

			// Extra-budgetary expenses have no breakdown by object: the
			// header carries the accrued and paid totals.
			if c == report.ExtraBudgetary && len(tokens) == 2 {
				v := values(tokens)

				return emit(report.Expense{
					Category: category,
					Object:   string(report.ExtraBudgetary),
					Accrued:  v[0],
					Paid:     v[1],
				})
			}

			return skip[report.Expense]()
		}

		switch {
		case len(tokens) >= 5:
			name := amount.Strip(l.Text)
			if isTotal(name) {
				return skip[report.Expense]()
			}

			if category == "" {
				return warn[report.Expense]("row without detected type")
			}

			v := values(tokens[len(tokens)-5:])

			return emit(report.Expense{
				Category:   category,
				Object:     name,
				Current:    v[0],
				Preventive: v[1],
				Committed:  v[2],
				Accrued:    v[3],
				Paid:       v[4],
			})
		case len(tokens) == 2 && category == report.ExtraBudgetary:
			name := amount.Strip(l.Text)
			if isTotal(name) {
				return skip[report.Expense]()
			}

			v := values(tokens)

			return emit(report.Expense{
				Category: category,
				Object:   name,
				Accrued:  v[0],
				Paid:     v[1],
			})
		case len(tokens) > 0:
			return warn[report.Expense](fmt.Sprintf("unexpected amount count %d", len(tokens)))
		}

		return skip[report.Expense]()
	})

	return Result{Rows: report.Payload{Expenses: rows}, Warnings: warnings}
}

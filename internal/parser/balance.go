package parser

import (
	"strings"

	"github.com/MrJamesThe3rd/muniledger/internal/amount"
	"github.com/MrJamesThe3rd/muniledger/internal/report"
)

var balanceSheetSection = section{
	start: containsMarker("estado de situacion patrimonial"),
	end: []string{
		"demostracion del saldo",
		"evolucion de las principales metas",
		"movimientos de tesoreria",
	},
}

type balanceSheetParser struct{}

// Parse picks the documented balance sheet lines, taking the first amount
// after each code. Rows are returned in documented order.
func (balanceSheetParser) Parse(text string) Result {
	found := make(map[string]report.BalanceSheetItem)

	_, warnings := collect(KindBalanceSheet, balanceSheetSection.lines(text), func(l line) lineResult[report.BalanceSheetItem] {
		if strings.Contains(l.Key, "estado de situacion patrimonial") && strings.Contains(l.Key, "saldo") {
			return skip[report.BalanceSheetItem]()
		}

		var res lineResult[report.BalanceSheetItem]

		for _, bl := range report.BalanceSheetLines {
			if _, ok := found[bl.Code]; ok {
				continue
			}

			idx := strings.Index(l.Text, bl.Code)
			if idx < 0 {
				continue
			}

			tokens := amount.FindAll(l.Text[idx+len(bl.Code):])
			if len(tokens) == 0 {
				continue
			}

			v, err := amount.Parse(tokens[0])
			if err != nil {
				res.warning = err.Error()
				continue
			}

			kind, low := report.InferBalanceKind(bl.Code, bl.Name)
			item := report.BalanceSheetItem{
				Code:          bl.Code,
				Name:          bl.Name,
				Kind:          kind,
				Balance:       v,
				LowConfidence: low,
			}
			found[bl.Code] = item
			res.row = &item
		}

		return res
	})

	var rows []report.BalanceSheetItem

	for _, bl := range report.BalanceSheetLines {
		if item, ok := found[bl.Code]; ok {
			rows = append(rows, item)
		}
	}

	return Result{Rows: report.Payload{BalanceSheet: rows}, Warnings: warnings}
}

package parser

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/MrJamesThe3rd/muniledger/internal/amount"
	"github.com/MrJamesThe3rd/muniledger/internal/report"
	"github.com/MrJamesThe3rd/muniledger/internal/textkey"
)

var resourcesSection = section{
	start: func(key string) bool {
		return strings.Contains(key, "evolucion") && strings.Contains(key, "recursos")
	},
	end: []string{
		"evolucion de los gastos",
		"evolucion del gasto",
		"estado de ejecucion del gasto",
		"estado de ejecucion de gastos",
		"evolucion de gastos por objeto",
		"evolucion de gastos por programa",
		"evolucion de las principales metas",
		"movimientos de tesoreria",
		"estado de situacion patrimonial",
		"cuenta ahorro inversion financiamiento",
	},
}

// The resources table shares its page with the "Cuenta Ahorro Inversión
// Financiamiento" table, whose rows are numbered with roman numerals.
var (
	romanRightLine = regexp.MustCompile(`(?i)^\s*[ivx]+\.`)
	romanInline    = regexp.MustCompile(`\b[IVX]+\.`)
	rightColumn    = regexp.MustCompile(`(?i)(cuenta\s+ahorro|ahorro\s+corriente|gastos\s+corrientes|gastos\s+de\s+capital|` +
		`resultado\s+financiero|ingresos\s+totales|gastos\s+totales|fuentes\s+financieras|aplicaciones\s+financieras)`)
)

// resourceCategories are the only sub-categories carried on resource rows.
var resourceCategories = []string{"De libre disponibilidad", "Afectados"}

type resourcesParser struct{}

func (resourcesParser) Parse(text string) Result {
	var category report.Budget

	rows, warnings := collect(KindResources, resourcesSection.lines(text), func(l line) lineResult[report.Resource] {
		if isRightColumnLine(l) {
			return skip[report.Resource]()
		}

		left := splitLeftColumn(l.Text)
		if left == "" {
			return skip[report.Resource]()
		}

		header := false
		if c, ok := categoryHeader(textkey.Key(left)); ok {
			category = c
			header = true
		}

		tokens := amount.FindAll(left)

		switch {
		case header && category == report.Budgetary:
			// Subtotal of the budgetary block.
			return skip[report.Resource]()
		case header && len(tokens) == 1:
			return emit(report.Resource{
				Type:      category,
				Name:      string(report.ExtraBudgetary),
				Collected: values(tokens)[0],
			})
		case len(tokens) >= 3:
			name := leadingName(left, tokens)
			if header {
				name = string(report.ExtraBudgetary)
			}

			if isTotal(name) {
				return skip[report.Resource]()
			}

			if category == "" {
				return warn[report.Resource]("row without detected type")
			}

			v := values(tokens[:3])

			return emit(report.Resource{
				Type:      category,
				Name:      name,
				Category:  resourceCategory(name),
				Current:   v[0],
				Accrued:   v[1],
				Collected: v[2],
			})
		case len(tokens) == 1 && category == report.ExtraBudgetary:
			name := leadingName(left, tokens)
			if isTotal(name) {
				return skip[report.Resource]()
			}

			return emit(report.Resource{
				Type:      category,
				Name:      name,
				Collected: values(tokens)[0],
			})
		case len(tokens) > 0:
			return warn[report.Resource](fmt.Sprintf("unexpected amount count %d", len(tokens)))
		}

		return skip[report.Resource]()
	})

	return Result{Rows: report.Payload{Resources: rows}, Warnings: warnings}
}

func isRightColumnLine(l line) bool {
	if romanRightLine.MatchString(l.Text) {
		return true
	}

	return textkey.ContainsAny(l.Key, "cuenta ahorro inversion financiamiento", "resultado financiero")
}

// splitLeftColumn cuts the line where the right-hand table begins.
func splitLeftColumn(text string) string {
	if loc := romanInline.FindStringIndex(text); loc != nil && loc[0] > 0 {
		return strings.TrimSpace(text[:loc[0]])
	}

	if loc := rightColumn.FindStringIndex(text); loc != nil && loc[0] > 0 {
		return strings.TrimSpace(text[:loc[0]])
	}

	return text
}

func resourceCategory(name string) *string {
	key := textkey.Key(name)

	for _, c := range resourceCategories {
		if strings.Contains(key, textkey.Key(c)) {
			return report.Ptr(c)
		}
	}

	return nil
}

package parser

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/MrJamesThe3rd/muniledger/internal/amount"
	"github.com/MrJamesThe3rd/muniledger/internal/report"
	"github.com/MrJamesThe3rd/muniledger/internal/textkey"
)

var programsSection = section{
	start: containsMarker("evolucion de gastos por programa"),
	end: []string{
		"evolucion de los recursos",
		"evolucion de gastos por objeto",
		"evolucion de las principales metas",
		"movimientos de tesoreria",
		"estado de situacion patrimonial",
		"situacion economico-financiera",
	},
}

// programLine matches "{jurisdiction code} [-] {program code} {name and amounts}".
var programLine = regexp.MustCompile(`^(\d{4,})\s*-?\s*(\d{1,3})\s+(.+)$`)

// Groups that head the program table.
const (
	GroupExecutive    = "Departamento Ejecutivo"
	GroupDeliberative = "H.C.D."
)

type programsParser struct{}

func (programsParser) Parse(text string) Result {
	var (
		group         string
		jurisdictions []report.Jurisdiction
		seen          = make(map[string]bool)
	)

	addJurisdiction := func(j report.Jurisdiction) {
		if seen[j.Code] {
			return
		}

		seen[j.Code] = true
		jurisdictions = append(jurisdictions, j)
	}

	programs, warnings := collect(KindPrograms, programsSection.lines(text), func(l line) lineResult[report.Program] {
		if isTotal(l.Text) {
			return skip[report.Program]()
		}

		m := programLine.FindStringSubmatch(l.Text)
		if m == nil {
			tokens := amount.FindAll(l.Text)
			name := amount.Strip(l.Text)

			if len(tokens) == 0 {
				if g, ok := programGroup(name); ok {
					group = g
				}

				return skip[report.Program]()
			}

			if len(tokens) < 5 {
				return skip[report.Program]()
			}

			// Unnumbered rows such as "Actividades Centrales" are programs of
			// their own synthetic jurisdiction.
			code := specialJurisdictionCode(name, group)
			addJurisdiction(report.Jurisdiction{Code: code, Name: report.Ptr(name), Group: group})

			return emit(newProgram(code, nil, name, tokens))
		}

		jurisdictionCode, programCode, rest := m[1], m[2], m[3]

		tokens := amount.FindAll(rest)
		if len(tokens) < 5 {
			return warn[report.Program]("incomplete program row")
		}

		name := amount.Strip(rest)
		if isTotal(name) {
			return skip[report.Program]()
		}

		addJurisdiction(report.Jurisdiction{Code: jurisdictionCode, Group: group})

		return emit(newProgram(jurisdictionCode, report.Ptr(programCode), name, tokens))
	})

	return Result{
		Rows:     report.Payload{Jurisdictions: jurisdictions, Programs: programs},
		Warnings: warnings,
	}
}

func newProgram(jurisdictionCode string, code *string, name string, tokens []string) report.Program {
	v := values(tokens[len(tokens)-5:])

	return report.Program{
		JurisdictionCode: jurisdictionCode,
		Code:             code,
		Name:             name,
		Budgeted:         v[0],
		Preventive:       v[1],
		Committed:        v[2],
		Accrued:          v[3],
		Paid:             v[4],
	}
}

func programGroup(name string) (string, bool) {
	switch textkey.Key(name) {
	case "departamento ejecutivo":
		return GroupExecutive, true
	case "h.c.d.", "hcd", "honorable concejo deliberante":
		return GroupDeliberative, true
	}

	return "", false
}

// specialJurisdictionCode returns a stable code for unnumbered program rows.
func specialJurisdictionCode(name, group string) string {
	suffix := "EXEC"
	if group == GroupDeliberative {
		suffix = "HCD"
	}

	key := textkey.Key(name)

	switch {
	case strings.Contains(key, "actividades centrales"):
		return "ACTCENT_" + suffix
	case strings.Contains(key, "no asignables"):
		return "SINPROG_" + suffix
	}

	return fmt.Sprintf("ESP_%s_%s", textkey.Slug(name), suffix)
}

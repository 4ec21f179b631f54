package extract

import (
	"fmt"
	"strings"

	"github.com/MrJamesThe3rd/muniledger/internal/report"
	"github.com/MrJamesThe3rd/muniledger/internal/textkey"
)

// The wire types mirror the schema and carry the model output as-is.

type wireMovement struct {
	Type   string   `json:"MovTes_Tipo"`
	Amount *float64 `json:"MovTes_Importe"`
}

type wireAccount struct {
	Code   *string  `json:"Cuenta_Codigo"`
	Name   string   `json:"Cuenta_Nombre"`
	Amount *float64 `json:"Cuenta_Importe"`
}

type wireExpense struct {
	Category   *string  `json:"Gasto_Categoria"`
	Object     string   `json:"Gasto_Objeto"`
	Current    *float64 `json:"Gasto_Vigente"`
	Preventive *float64 `json:"Gasto_Preventivo"`
	Committed  *float64 `json:"Gasto_Compromiso"`
	Accrued    *float64 `json:"Gasto_Devengado"`
	Paid       *float64 `json:"Gasto_Pagado"`
}

type wireResource struct {
	Category  *string  `json:"Rec_Categoria"`
	Name      string   `json:"Rec_TipoRecurso"`
	Current   *float64 `json:"Rec_Vigente"`
	Accrued   *float64 `json:"Rec_Devengado"`
	Collected *float64 `json:"Rec_Percibido"`
}

type wireJurisdiction struct {
	Code  *string `json:"Juri_Codigo"`
	Name  *string `json:"Juri_Nombre"`
	Group *string `json:"Juri_Grupo"`
}

type wireProgram struct {
	Code             *string  `json:"Prog_Codigo"`
	Name             string   `json:"Prog_Nombre"`
	JurisdictionCode *string  `json:"Juri_Codigo"`
	Budgeted         *float64 `json:"Prog_Vigente"`
	Preventive       *float64 `json:"Prog_Preventivo"`
	Committed        *float64 `json:"Prog_Compromiso"`
	Accrued          *float64 `json:"Prog_Devengado"`
	Paid             *float64 `json:"Prog_Pagado"`
}

type wireGoal struct {
	Code             *string  `json:"Meta_Codigo"`
	Name             string   `json:"Meta_Nombre"`
	Unit             *string  `json:"Meta_Unidad"`
	Annual           *float64 `json:"Meta_Anual"`
	Partial          *float64 `json:"Meta_Parcial"`
	Executed         *float64 `json:"Meta_Ejecutado"`
	JurisdictionCode *string  `json:"Juri_Codigo"`
	ProgramCode      *string  `json:"Prog_Codigo"`
	ProgramName      *string  `json:"Prog_Nombre"`
}

type wireBalanceItem struct {
	Type    *string  `json:"SitPat_Tipo"`
	Name    string   `json:"SitPat_Nombre"`
	Balance *float64 `json:"SitPat_Saldo"`
}

type wirePayload struct {
	Treasury      []wireMovement     `json:"bd_movimientosTesoreria"`
	Accounts      []wireAccount      `json:"bd_cuentas"`
	Expenses      []wireExpense      `json:"bd_gastos"`
	Resources     []wireResource     `json:"bd_recursos"`
	Jurisdictions []wireJurisdiction `json:"bd_jurisdiccion"`
	Programs      []wireProgram      `json:"bd_programas"`
	Goals         []wireGoal         `json:"bd_metas"`
	BalanceSheet  []wireBalanceItem  `json:"bd_situacionpatrimonial"`
	Warnings      []string           `json:"warnings"`
}

func text(s *string) string {
	if s == nil {
		return ""
	}

	return textkey.Name(*s)
}

func optional(s *string) *string {
	if t := text(s); t != "" {
		return report.Ptr(t)
	}

	return nil
}

func value(v *float64) float64 {
	if v == nil {
		return 0
	}

	return *v
}

func budget(category *string) report.Budget {
	if strings.Contains(textkey.Key(text(category)), "extrapresupuest") {
		return report.ExtraBudgetary
	}

	return report.Budgetary
}

// reclassifyAccounts moves balance sheet lines the model reported as
// accounts into the balance sheet. It returns the number of moved rows.
func (w *wirePayload) reclassifyAccounts() int {
	kept := w.Accounts[:0]
	moved := 0

	for _, a := range w.Accounts {
		name := textkey.Name(a.Name)
		code := text(a.Code)

		_, documented := report.BalanceSheetCode(name)
		numeric := len(code) >= 6 && strings.Trim(code, "0123456789") == ""
		key := textkey.Key(name)
		heading := strings.HasPrefix(key, "activo") || strings.HasPrefix(key, "pasivo") ||
			strings.HasPrefix(key, "capital") || strings.HasPrefix(key, "resultado")

		if documented && (numeric || heading) {
			w.BalanceSheet = append(w.BalanceSheet, wireBalanceItem{Name: name, Balance: a.Amount})
			moved++

			continue
		}

		kept = append(kept, a)
	}

	w.Accounts = kept

	return moved
}

// payload maps the wire rows to report rows. Rows that cannot be mapped
// are reported as warnings.
func (w *wirePayload) payload() report.Payload {
	var p report.Payload

	p.Warnings = append(p.Warnings, w.Warnings...)

	for _, m := range w.Treasury {
		kind, ok := report.MovementKindFromLabel(m.Type)
		if !ok {
			p.Warnings = append(p.Warnings, fmt.Sprintf("unknown treasury movement %q", m.Type))
			continue
		}

		p.Treasury = append(p.Treasury, report.TreasuryMovement{
			Kind:   kind,
			Label:  textkey.Name(m.Type),
			Amount: value(m.Amount),
		})
	}

	for _, a := range w.Accounts {
		name := textkey.Name(a.Name)

		acc := report.Account{
			Code:   optional(a.Code),
			Name:   name,
			Type:   report.AccountTypeFromName(name),
			Amount: value(a.Amount),
		}
		if strings.EqualFold(name, "caja") {
			acc.Code = nil
		}

		p.Accounts = append(p.Accounts, acc)
	}

	for _, e := range w.Expenses {
		p.Expenses = append(p.Expenses, report.Expense{
			Category:   budget(e.Category),
			Object:     textkey.Name(e.Object),
			Current:    e.Current,
			Preventive: e.Preventive,
			Committed:  e.Committed,
			Accrued:    e.Accrued,
			Paid:       e.Paid,
		})
	}

	for _, r := range w.Resources {
		name := textkey.Name(r.Name)

		var sub *string

		switch textkey.Key(name) {
		case "de libre disponibilidad":
			sub = report.Ptr("De libre disponibilidad")
		case "afectados":
			sub = report.Ptr("Afectados")
		}

		p.Resources = append(p.Resources, report.Resource{
			Type:      budget(r.Category),
			Name:      name,
			Category:  sub,
			Current:   r.Current,
			Accrued:   r.Accrued,
			Collected: r.Collected,
		})
	}

	seen := make(map[string]bool)

	for _, j := range w.Jurisdictions {
		code := text(j.Code)
		if code == "" {
			p.Warnings = append(p.Warnings, "jurisdiction without code dropped")
			continue
		}

		if seen[code] {
			continue
		}

		seen[code] = true
		p.Jurisdictions = append(p.Jurisdictions, report.Jurisdiction{
			Code:  code,
			Name:  optional(j.Name),
			Group: text(j.Group),
		})
	}

	for _, pr := range w.Programs {
		p.Programs = append(p.Programs, report.Program{
			JurisdictionCode: text(pr.JurisdictionCode),
			Code:             optional(pr.Code),
			Name:             textkey.Name(pr.Name),
			Budgeted:         pr.Budgeted,
			Preventive:       pr.Preventive,
			Committed:        pr.Committed,
			Accrued:          pr.Accrued,
			Paid:             pr.Paid,
		})
	}

	p.Goals = mapGoals(w.Goals)

	for _, b := range w.BalanceSheet {
		name := textkey.Name(b.Name)
		code, _ := report.BalanceSheetCode(name)

		hint := name
		if t := text(b.Type); t != "" {
			hint = t + " " + name
		}

		kind, low := report.InferBalanceKind(code, hint)
		if code == "" {
			code = textkey.Slug(name)
		}

		p.BalanceSheet = append(p.BalanceSheet, report.BalanceSheetItem{
			Code:          code,
			Name:          name,
			Kind:          kind,
			Balance:       value(b.Balance),
			LowConfidence: low,
		})
	}

	return p
}

func mapGoals(goals []wireGoal) []report.Goal {
	out := make([]report.Goal, 0, len(goals))

	for _, g := range goals {
		out = append(out, report.Goal{
			JurisdictionCode: text(g.JurisdictionCode),
			ProgramCode:      text(g.ProgramCode),
			ProgramName:      text(g.ProgramName),
			Code:             text(g.Code),
			Name:             textkey.Name(g.Name),
			Unit:             optional(g.Unit),
			Annual:           g.Annual,
			Partial:          g.Partial,
			Executed:         g.Executed,
		})
	}

	return out
}

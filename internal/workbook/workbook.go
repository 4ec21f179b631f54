// Package workbook reads the four-sheet XLSX export of a RAFAM report.
//
// Sheet layout:
//
//	Table 1  resources and expenses by object
//	Table 2  expenses by program
//	Table 3  treasury movements, balance demonstration and balance sheet
//	Table 4  program goals
package workbook

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"slices"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/MrJamesThe3rd/muniledger/internal/amount"
	"github.com/MrJamesThe3rd/muniledger/internal/pdftext"
	"github.com/MrJamesThe3rd/muniledger/internal/report"
	"github.com/MrJamesThe3rd/muniledger/internal/textkey"
)

const (
	SheetBudget   = "Table 1"
	SheetPrograms = "Table 2"
	SheetTreasury = "Table 3"
	SheetGoals    = "Table 4"
)

var ErrMissingSheet = errors.New("missing sheet")

var (
	programCell  = regexp.MustCompile(`(\d{10})\s*-?\s*(\d+)\s+(.+)`)
	goalCell     = regexp.MustCompile(`^\s*(\d+)\s+(.+)$`)
	sitpatCell   = regexp.MustCompile(`^(\d[\d.]*)\s+(.*)$`)
	accountCode  = regexp.MustCompile(`\b\d{9}\b`)
	periodCell   = regexp.MustCompile(`(?i)del\s+\d{2}/\d{2}/\d{4}\s+al\s+\d{2}/\d{2}/\d{4}`)
	budgetLabels = []string{"vigente", "preventivo", "compromiso", "devengado", "percibido", "pagado"}
)

type sheet [][]string

// Read parses the workbook into rows. Anomalies are returned as warnings
// on the payload.
func Read(r io.Reader) (report.Payload, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return report.Payload{}, fmt.Errorf("opening workbook: %w", err)
	}
	defer f.Close()

	sheets := make(map[string]sheet, 4)

	for _, name := range []string{SheetBudget, SheetPrograms, SheetTreasury, SheetGoals} {
		rows, err := f.GetRows(name)
		if err != nil {
			return report.Payload{}, fmt.Errorf("%w: %s", ErrMissingSheet, name)
		}

		sheets[name] = rows
	}

	var p report.Payload

	p.Resources = resources(sheets[SheetBudget])
	p.Expenses = expenses(sheets[SheetBudget])

	jurisdictions, programs, warnings := programTable(sheets[SheetPrograms])
	p.Jurisdictions = jurisdictions
	p.Warnings = append(p.Warnings, warnings...)

	treasury, warnings := treasuryMovements(sheets[SheetTreasury])
	p.Treasury = treasury
	p.Warnings = append(p.Warnings, warnings...)

	accounts, warning := balanceDemonstration(sheets[SheetTreasury])
	p.Accounts = accounts
	p.Warnings = appendNonEmpty(p.Warnings, warning)

	items, warning := balanceSheet(sheets[SheetTreasury])
	p.BalanceSheet = items
	p.Warnings = appendNonEmpty(p.Warnings, warning)

	goals, headers, warnings := goalTable(sheets[SheetGoals])
	p.Goals = goals
	p.Programs = mergePrograms(programs, headers, goals)
	p.Warnings = append(p.Warnings, warnings...)

	return p, nil
}

func appendNonEmpty(s []string, v string) []string {
	if v == "" {
		return s
	}

	return append(s, v)
}

func cellText(v string) string {
	return textkey.Name(strings.NewReplacer("\r", " ", "\n", " ").Replace(v))
}

func firstText(row []string) string {
	for _, c := range row {
		if t := cellText(c); t != "" {
			return t
		}
	}

	return ""
}

func texts(row []string) []string {
	var out []string

	for _, c := range row {
		if t := cellText(c); t != "" {
			out = append(out, t)
		}
	}

	return out
}

// numbers parses every numeric cell of the row, left to right.
func numbers(row []string) []float64 {
	var out []float64

	for _, c := range row {
		v, err := amount.ParseLoose(c)
		if err != nil {
			continue
		}

		out = append(out, v)
	}

	return out
}

func cellNumber(row []string, col int) (float64, bool) {
	if col >= len(row) {
		return 0, false
	}

	v, err := amount.ParseLoose(row[col])
	if err != nil {
		return 0, false
	}

	return v, true
}

// find returns the first row index at or after from holding a cell whose
// key contains needle, or -1.
func (s sheet) find(needle string, from int) int {
	for i := from; i < len(s); i++ {
		for _, c := range s[i] {
			if strings.Contains(textkey.Key(c), needle) {
				return i
			}
		}
	}

	return -1
}

func ptrs(nums []float64) []*float64 {
	out := make([]*float64, len(nums))
	for i := range nums {
		out[i] = report.Ptr(nums[i])
	}

	return out
}

// budgetRows walks the rows between start and end (exclusive) tracking the
// budgetary category, and calls fn for every data row.
func budgetRows(s sheet, start, end string, fn func(category report.Budget, name string, row []string)) {
	from := s.find(start, 0)
	if from < 0 {
		return
	}

	to := len(s)
	if end != "" {
		if i := s.find(end, from+1); i >= 0 {
			to = i
		}
	}

	var category report.Budget

	for _, row := range s[from+1 : to] {
		name := firstText(row)
		if name == "" {
			continue
		}

		key := textkey.Key(name)

		switch {
		case strings.HasPrefix(key, "1. presupuestarios"):
			category = report.Budgetary
			continue
		case strings.HasPrefix(key, "2. extrapresupuestarios"):
			category = report.ExtraBudgetary
			continue
		case strings.HasPrefix(key, "total"), slices.Contains(budgetLabels, key):
			continue
		}

		fn(category, name, row)
	}
}

func resources(s sheet) []report.Resource {
	var out []report.Resource

	budgetRows(s, "evolucion de los recursos", "evolucion de gastos por objeto", func(category report.Budget, name string, row []string) {
		nums := numbers(row)
		if len(nums) < 3 {
			return
		}

		v := ptrs(nums[:3])

		var sub *string

		switch textkey.Key(name) {
		case "de libre disponibilidad", "afectados":
			sub = report.Ptr(name)
		}

		out = append(out, report.Resource{
			Type:      category,
			Name:      name,
			Category:  sub,
			Current:   v[0],
			Accrued:   v[1],
			Collected: v[2],
		})
	})

	return out
}

func expenses(s sheet) []report.Expense {
	var out []report.Expense

	budgetRows(s, "evolucion de gastos por objeto", "", func(category report.Budget, name string, row []string) {
		nums := numbers(row)
		if len(nums) < 5 {
			return
		}

		v := ptrs(nums[:5])

		out = append(out, report.Expense{
			Category:   category,
			Object:     name,
			Current:    v[0],
			Preventive: v[1],
			Committed:  v[2],
			Accrued:    v[3],
			Paid:       v[4],
		})
	})

	return out
}

func programTable(s sheet) ([]report.Jurisdiction, []report.Program, []string) {
	var (
		jurisdictions []report.Jurisdiction
		programs      []report.Program
		warnings      []string
		seen          = make(map[string]bool)
	)

	for _, row := range s {
		m := matchAny(programCell, texts(row))
		if m == nil {
			continue
		}

		juri, code, name := m[1], m[2], textkey.Name(m[3])

		nums := numbers(row)
		if len(nums) < 5 {
			warnings = append(warnings, fmt.Sprintf("incomplete program row: %s", m[0]))
			continue
		}

		if !seen[juri] {
			seen[juri] = true
			jurisdictions = append(jurisdictions, report.Jurisdiction{
				Code: juri,
				Name: report.Ptr("Jurisdicción " + juri),
			})
		}

		v := ptrs(nums[:5])

		programs = append(programs, report.Program{
			JurisdictionCode: juri,
			Code:             report.Ptr(code),
			Name:             name,
			Budgeted:         v[0],
			Preventive:       v[1],
			Committed:        v[2],
			Accrued:          v[3],
			Paid:             v[4],
		})
	}

	return jurisdictions, programs, warnings
}

func matchAny(re *regexp.Regexp, cells []string) []string {
	for _, c := range cells {
		if m := re.FindStringSubmatch(c); m != nil {
			return m
		}
	}

	return nil
}

func period(s sheet) *string {
	for _, row := range s {
		for _, c := range row {
			if m := periodCell.FindString(cellText(c)); m != "" {
				return report.Ptr(m)
			}
		}
	}

	return nil
}

// treasuryMovements reads label/amount pairs from the first two columns
// below the section title.
func treasuryMovements(s sheet) ([]report.TreasuryMovement, []string) {
	expected := report.MovementKinds()

	start := s.find("movimientos de tesoreria", 0)
	if start < 0 {
		return nil, []string{"treasury movements section not found"}
	}

	var (
		out      []report.TreasuryMovement
		warnings []string
		seen     int
		per      = period(s)
	)

	for _, row := range s[start+1:] {
		if seen >= len(expected) {
			break
		}

		if len(row) == 0 {
			continue
		}

		label := strings.TrimSpace(strings.ReplaceAll(cellText(row[0]), ":", ""))
		if label == "" {
			continue
		}

		v, ok := cellNumber(row, 1)
		if !ok {
			continue
		}

		want := expected[seen]
		seen++

		kind, ok := report.MovementKindFromLabel(label)
		if !ok {
			continue
		}

		if kind != want {
			warnings = append(warnings, fmt.Sprintf("unexpected treasury order: expected %q, found %q", want, label))
		}

		out = append(out, report.TreasuryMovement{Kind: kind, Label: label, Amount: v, Period: per})
	}

	if seen < len(expected) {
		warnings = append(warnings, fmt.Sprintf("incomplete treasury movements: found %d, expected %d", seen, len(expected)))
	}

	return out, warnings
}

// balanceDemonstration pairs the account codes listed in the section title
// cell with the amounts below it, in order.
func balanceDemonstration(s sheet) ([]report.Account, string) {
	start := s.find("demostracion del saldo", 0)
	if start < 0 {
		return nil, "balance demonstration section not found"
	}

	if len(s[start]) == 0 {
		return nil, "balance demonstration has no accounts"
	}

	text := cellText(s[start][0])
	locs := accountCode.FindAllStringIndex(text, -1)

	var amounts []float64

	for _, row := range s[start:] {
		if len(amounts) >= len(locs) {
			break
		}

		if v, ok := cellNumber(row, 1); ok {
			amounts = append(amounts, v)
		}
	}

	out := make([]report.Account, 0, len(locs))

	for i, loc := range locs {
		end := len(text)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}

		code := text[loc[0]:loc[1]]
		name := textkey.Name(strings.Trim(text[loc[1]:end], " -\t"))

		acc := report.Account{
			Code: report.Ptr(code),
			Name: name,
			Type: report.AccountTypeFromName(name),
		}

		if i < len(amounts) {
			acc.Amount = amounts[i]
		}

		out = append(out, acc)
	}

	if len(amounts) < len(locs) {
		return out, fmt.Sprintf("balance demonstration: %d codes, %d amounts", len(locs), len(amounts))
	}

	return out, ""
}

// balanceSheet reads the multi-line code/name cell of column C and pairs it
// with the balances of column D.
func balanceSheet(s sheet) ([]report.BalanceSheetItem, string) {
	var names, balances string

	for _, row := range s {
		if len(row) < 3 {
			continue
		}

		key := textkey.Key(row[2])
		if strings.Contains(key, "estado de situacion patrimonial") || strings.Contains(key, "activo") {
			names = row[2]
			if len(row) > 3 {
				balances = row[3]
			}

			break
		}
	}

	if names == "" {
		return nil, "balance sheet section not found"
	}

	type entry struct{ code, name string }

	var entries []entry

	for _, l := range splitCell(names) {
		key := textkey.Key(l)

		switch {
		case strings.HasPrefix(key, "estado de situacion patrimonial"),
			key == "activo", key == "pasivo", key == "patrimonio publico",
			strings.HasPrefix(key, "total"):
			continue
		}

		if m := sitpatCell.FindStringSubmatch(l); m != nil {
			entries = append(entries, entry{code: strings.ReplaceAll(m[1], ".", ""), name: textkey.Name(m[2])})
		}
	}

	var amounts []float64

	for _, l := range splitCell(balances) {
		if v, err := amount.ParseLoose(l); err == nil {
			amounts = append(amounts, v)
		}
	}

	out := make([]report.BalanceSheetItem, 0, len(entries))

	for i, e := range entries {
		kind, low := report.InferBalanceKind(e.code, e.name)

		item := report.BalanceSheetItem{Code: e.code, Name: e.name, Kind: kind, LowConfidence: low}
		if i < len(amounts) {
			item.Balance = amounts[i]
		}

		out = append(out, item)
	}

	if len(amounts) < len(entries) {
		return out, fmt.Sprintf("balance sheet: %d items, %d balances", len(entries), len(amounts))
	}

	return out, ""
}

func splitCell(v string) []string {
	var out []string

	for _, l := range strings.Split(strings.ReplaceAll(v, "\r\n", "\n"), "\n") {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}

	return out
}

// goalTable returns the goals, the program headers found above them (with
// no amounts) and warnings for incomplete goal rows.
func goalTable(s sheet) ([]report.Goal, []report.Program, []string) {
	var (
		goals    []report.Goal
		headers  []report.Program
		warnings []string
		current  *report.Program
	)

	for _, row := range s {
		cells := texts(row)
		if len(cells) == 0 {
			continue
		}

		if m := matchAny(programCell, cells); m != nil {
			current = &report.Program{
				JurisdictionCode: m[1],
				Code:             report.Ptr(m[2]),
				Name:             textkey.Name(m[3]),
			}
			headers = append(headers, *current)

			continue
		}

		if current == nil {
			continue
		}

		if textkey.ContainsAny(textkey.Key(strings.Join(cells, " ")), "programado", "ejecutado") {
			continue
		}

		m := matchAny(goalCell, cells)
		if m == nil {
			continue
		}

		code, rest := m[1], strings.TrimSpace(m[2])

		name, unit := rest, (*string)(nil)
		if i := strings.LastIndex(rest, "("); i >= 0 && strings.HasSuffix(rest, ")") {
			name = strings.TrimSpace(rest[:i])
			if u := strings.TrimSpace(rest[i+1 : len(rest)-1]); u != "" {
				unit = report.Ptr(u)
			}
		}

		nums := numbers(row)
		if len(nums) < 3 {
			warnings = append(warnings, fmt.Sprintf("incomplete goal row: %s", m[0]))
			continue
		}

		goals = append(goals, report.Goal{
			JurisdictionCode: current.JurisdictionCode,
			ProgramCode:      *current.Code,
			ProgramName:      current.Name,
			Code:             code,
			Name:             name,
			Unit:             unit,
			Annual:           report.Ptr(nums[0]),
			Partial:          report.Ptr(nums[1]),
			Executed:         report.Ptr(nums[2]),
		})
	}

	return goals, headers, warnings
}

// mergePrograms adds goal headers missing from the program table and flags
// programs that have goals.
func mergePrograms(programs, headers []report.Program, goals []report.Goal) []report.Program {
	type key struct{ juri, code string }

	withGoals := make(map[key]bool)
	for _, g := range goals {
		withGoals[key{g.JurisdictionCode, g.ProgramCode}] = true
	}

	seen := make(map[key]bool)

	out := make([]report.Program, 0, len(programs)+len(headers))

	for _, p := range slices.Concat(programs, headers) {
		k := key{p.JurisdictionCode, *p.Code}
		if seen[k] {
			continue
		}

		seen[k] = true
		p.HasGoals = withGoals[k]
		out = append(out, p)
	}

	return out
}

const (
	pageMaxRows = 300
	pageMaxCols = 20
)

// Pages renders every sheet as a text page, cells separated by " | ", for
// model-based extraction.
func Pages(r io.Reader) ([]pdftext.Page, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer f.Close()

	var pages []pdftext.Page

	for i, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("reading sheet %s: %w", name, err)
		}

		var b strings.Builder

		b.WriteString("### " + name)

		for _, row := range rows[:min(len(rows), pageMaxRows)] {
			cells := make([]string, 0, min(len(row), pageMaxCols))
			for _, c := range row[:min(len(row), pageMaxCols)] {
				cells = append(cells, strings.Join(strings.Fields(c), " "))
			}

			b.WriteString("\n" + strings.Join(cells, " | "))
		}

		pages = append(pages, pdftext.Page{Number: i + 1, Text: b.String()})
	}

	return pages, nil
}

package ingest

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/muniledger/internal/report"
	"github.com/MrJamesThe3rd/muniledger/internal/resolve"
)

// scope carries the columns shared by every row of a document.
type scope struct {
	documentID   uuid.UUID
	municipality string
}

func value[T any](p *T) any {
	if p == nil {
		return nil
	}

	return *p
}

func mapRows[T any](rows []T, fn func(T) Record) []Record {
	out := make([]Record, 0, len(rows))
	for _, r := range rows {
		out = append(out, fn(r))
	}

	return out
}

func (s scope) resources(rows []report.Resource) []Record {
	return mapRows(rows, func(r report.Resource) Record {
		return Record{
			"document_id":  s.documentID,
			"municipality": s.municipality,
			"budget_type":  string(r.Type),
			"name":         r.Name,
			"category":     value(r.Category),
			"current":      value(r.Current),
			"accrued":      value(r.Accrued),
			"collected":    value(r.Collected),
		}
	})
}

func (s scope) expenses(rows []report.Expense) []Record {
	return mapRows(rows, func(e report.Expense) Record {
		return Record{
			"document_id":  s.documentID,
			"municipality": s.municipality,
			"category":     string(e.Category),
			"object":       e.Object,
			"current":      value(e.Current),
			"preventive":   value(e.Preventive),
			"committed":    value(e.Committed),
			"accrued":      value(e.Accrued),
			"paid":         value(e.Paid),
		}
	})
}

// treasury skips the closing balance, which is derived from the others.
func (s scope) treasury(rows []report.TreasuryMovement) []Record {
	out := make([]Record, 0, len(rows))

	for _, m := range rows {
		kind, ok := m.Kind.Summary()
		if !ok {
			continue
		}

		out = append(out, Record{
			"document_id":  s.documentID,
			"municipality": s.municipality,
			"kind":         string(m.Kind),
			"summary_kind": string(kind),
			"label":        m.Label,
			"amount":       m.Amount,
			"period":       value(m.Period),
		})
	}

	return out
}

func (s scope) accounts(rows []report.Account) []Record {
	return mapRows(rows, func(a report.Account) Record {
		return Record{
			"document_id":  s.documentID,
			"municipality": s.municipality,
			"code":         value(a.Code),
			"name":         a.Name,
			"account_type": string(a.Type),
			"amount":       a.Amount,
		}
	})
}

func (s scope) balanceSheet(rows []report.BalanceSheetItem) []Record {
	return mapRows(rows, func(b report.BalanceSheetItem) Record {
		return Record{
			"document_id":    s.documentID,
			"municipality":   s.municipality,
			"code":           b.Code,
			"name":           b.Name,
			"kind":           string(b.Kind),
			"balance":        b.Balance,
			"low_confidence": b.LowConfidence,
		}
	})
}

// jurisdictions deduplicates by code, keeping the first occurrence.
func (s scope) jurisdictions(rows []report.Jurisdiction) []Record {
	seen := make(map[string]bool, len(rows))
	out := make([]Record, 0, len(rows))

	for _, j := range rows {
		if j.Code == "" || seen[j.Code] {
			continue
		}

		seen[j.Code] = true
		out = append(out, Record{
			"document_id": s.documentID,
			"code":        j.Code,
			"name":        value(j.Name),
			"group_name":  j.Group,
		})
	}

	return out
}

// programs maps programs to their jurisdiction ids. Programs whose
// jurisdiction is unknown are dropped with a warning.
func (s scope) programs(rows []report.Program, jurisdictionIDs map[string]uuid.UUID) ([]Record, []string) {
	var (
		out      []Record
		warnings []string
	)

	seen := make(map[string]bool, len(rows))

	for _, p := range rows {
		id, ok := jurisdictionIDs[p.JurisdictionCode]
		if !ok {
			warnings = append(warnings, fmt.Sprintf("program without jurisdiction: %q (%s)", p.Name, p.JurisdictionCode))
			continue
		}

		key := p.JurisdictionCode + "::" + fmt.Sprint(value(p.Code))
		if seen[key] {
			warnings = append(warnings, fmt.Sprintf("duplicate program %q in jurisdiction %s", p.Name, p.JurisdictionCode))
			continue
		}

		seen[key] = true

		out = append(out, Record{
			"document_id":     s.documentID,
			"jurisdiction_id": id,
			"code":            value(p.Code),
			"name":            p.Name,
			"budgeted":        value(p.Budgeted),
			"preventive":      value(p.Preventive),
			"committed":       value(p.Committed),
			"accrued":         value(p.Accrued),
			"paid":            value(p.Paid),
			"has_goals":       p.HasGoals,
		})
	}

	return out, warnings
}

// goals builds one row per (program, name); later duplicates are dropped
// with a warning.
func (s scope) goals(rows []resolve.Resolved) ([]Record, []string) {
	var (
		out      []Record
		warnings []string
	)

	seen := make(map[string]bool, len(rows))

	for _, r := range rows {
		key := r.ProgramID.String() + "::" + resolve.Normalize(r.Goal.Name)
		if seen[key] {
			warnings = append(warnings, fmt.Sprintf("duplicate goal %q", r.Goal.Name))
			continue
		}

		seen[key] = true

		out = append(out, Record{
			"document_id": s.documentID,
			"program_id":  r.ProgramID,
			"code":        r.Goal.Code,
			"name":        r.Goal.Name,
			"unit":        value(r.Goal.Unit),
			"annual":      value(r.Goal.Annual),
			"partial":     value(r.Goal.Partial),
			"executed":    value(r.Goal.Executed),
		})
	}

	return out, warnings
}

func (s scope) staging(rows []report.Goal) []Record {
	return mapRows(rows, func(g report.Goal) Record {
		return Record{
			"document_id":       s.documentID,
			"jurisdiction_code": g.JurisdictionCode,
			"program_code":      g.ProgramCode,
			"program_name":      g.ProgramName,
			"code":              g.Code,
			"name":              g.Name,
			"unit":              value(g.Unit),
			"annual":            value(g.Annual),
			"partial":           value(g.Partial),
			"executed":          value(g.Executed),
		}
	})
}

// recordUUID reads a uuid column whatever the driver returned for it.
func recordUUID(r Record, col string) (uuid.UUID, bool) {
	switch v := r[col].(type) {
	case uuid.UUID:
		return v, true
	case [16]byte:
		return uuid.UUID(v), true
	case string:
		id, err := uuid.Parse(v)
		return id, err == nil
	case []byte:
		if len(v) == 16 {
			id, err := uuid.FromBytes(v)
			return id, err == nil
		}

		id, err := uuid.ParseBytes(v)

		return id, err == nil
	}

	return uuid.Nil, false
}

func recordString(r Record, col string) string {
	switch v := r[col].(type) {
	case string:
		return v
	case []byte:
		return string(v)
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

package ingest

import (
	"context"
	"fmt"
	"slices"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/muniledger/internal/report"
)

// Record is one row keyed by column name.
type Record map[string]any

// Filter selects rows by column equality. A slice value matches any of its
// elements.
type Filter map[string]any

// Key names the columns of a natural key.
type Key []string

// Response reports the outcome of a write. Degraded is set when an upsert
// fell back to a plain insert.
type Response struct {
	Count    int
	Degraded bool
}

//go:generate mockgen -source=repository.go -destination=repository_mock.go -package=ingest
type Repository interface {
	Insert(ctx context.Context, table report.Table, rows []Record) (Response, error)
	Upsert(ctx context.Context, table report.Table, rows []Record, key Key) (Response, error)
	Fetch(ctx context.Context, table report.Table, filter Filter) ([]Record, error)
	Delete(ctx context.Context, table report.Table, filter Filter) (Response, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status report.Status, summary *report.Summary) error
}

var columns = map[report.Table][]string{
	report.TableResources: {
		"id", "document_id", "municipality", "budget_type", "name", "category",
		"current", "accrued", "collected",
	},
	report.TableExpenses: {
		"id", "document_id", "municipality", "category", "object",
		"current", "preventive", "committed", "accrued", "paid",
	},
	report.TableJurisdictions: {"id", "document_id", "code", "name", "group_name"},
	report.TablePrograms: {
		"id", "document_id", "jurisdiction_id", "code", "name",
		"budgeted", "preventive", "committed", "accrued", "paid", "has_goals",
	},
	report.TableGoals: {
		"id", "document_id", "program_id", "code", "name", "unit", "annual", "partial", "executed",
	},
	report.TableTreasury: {
		"id", "document_id", "municipality", "kind", "summary_kind", "label", "amount", "period",
	},
	report.TableAccounts: {"id", "document_id", "municipality", "code", "name", "account_type", "amount"},
	report.TableBalanceSheet: {
		"id", "document_id", "municipality", "code", "name", "kind", "balance", "low_confidence",
	},
	report.TableGoalStaging: {
		"id", "document_id", "jurisdiction_code", "program_code", "program_name",
		"code", "name", "unit", "annual", "partial", "executed",
	},
}

// Columns returns the writable columns of a table in a stable order.
func Columns(table report.Table) ([]string, error) {
	cols, ok := columns[table]
	if !ok {
		return nil, fmt.Errorf("unknown table %q", table)
	}

	return cols, nil
}

// CheckColumns fails when any name is not a column of table.
func CheckColumns(table report.Table, names ...string) error {
	cols, err := Columns(table)
	if err != nil {
		return err
	}

	for _, n := range names {
		if !slices.Contains(cols, n) {
			return fmt.Errorf("column %q not allowed on %s", n, table)
		}
	}

	return nil
}

// Natural keys of the cross-referenced tables.
var (
	KeyJurisdiction = Key{"document_id", "code"}
	KeyProgram      = Key{"jurisdiction_id", "code"}
	KeyGoal         = Key{"program_id", "name"}
)

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/MrJamesThe3rd/muniledger/internal/document"
	"github.com/MrJamesThe3rd/muniledger/internal/ingest"
	"github.com/MrJamesThe3rd/muniledger/internal/report"
)

// codeInvalidConflictTarget is raised when ON CONFLICT names columns
// without a matching unique constraint.
const codeInvalidConflictTarget = "42P10"

// maxParams is the Postgres limit of bind parameters per statement.
const maxParams = 65535

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

var _ ingest.Repository = (*Store)(nil)

func ident(name string) string {
	return pgx.Identifier{name}.Sanitize()
}

// rowColumns returns the columns set by any of rows, in allow-list order.
func rowColumns(table report.Table, rows []ingest.Record) ([]string, error) {
	allowed, err := ingest.Columns(table)
	if err != nil {
		return nil, err
	}

	present := make(map[string]bool)

	for _, r := range rows {
		for col := range r {
			if !slices.Contains(allowed, col) {
				return nil, fmt.Errorf("column %q not allowed on %s", col, table)
			}

			present[col] = true
		}
	}

	var cols []string

	for _, c := range allowed {
		if present[c] {
			cols = append(cols, c)
		}
	}

	if len(cols) == 0 {
		return nil, fmt.Errorf("no columns to write on %s", table)
	}

	return cols, nil
}

// insertQuery builds a multi-row insert for rows and returns its arguments.
func insertQuery(table report.Table, cols []string, rows []ingest.Record) (string, []any) {
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = ident(c)
	}

	var (
		b    strings.Builder
		args = make([]any, 0, len(cols)*len(rows))
	)

	fmt.Fprintf(&b, "INSERT INTO %s (%s) VALUES ", ident(string(table)), strings.Join(quoted, ", "))

	argIdx := 1

	for i, r := range rows {
		if i > 0 {
			b.WriteString(", ")
		}

		b.WriteString("(")

		for j, c := range cols {
			if j > 0 {
				b.WriteString(", ")
			}

			fmt.Fprintf(&b, "$%d", argIdx)

			args = append(args, r[c])
			argIdx++
		}

		b.WriteString(")")
	}

	return b.String(), args
}

// upsertQuery extends insertQuery with an update of every non-key column.
func upsertQuery(table report.Table, cols []string, rows []ingest.Record, key ingest.Key) (string, []any) {
	query, args := insertQuery(table, cols, rows)

	target := make([]string, len(key))
	for i, k := range key {
		target[i] = ident(k)
	}

	var set []string

	for _, c := range cols {
		if c == "id" || slices.Contains(key, c) {
			continue
		}

		set = append(set, fmt.Sprintf("%s = EXCLUDED.%s", ident(c), ident(c)))
	}

	query += fmt.Sprintf(" ON CONFLICT (%s)", strings.Join(target, ", "))

	if len(set) == 0 {
		return query + " DO NOTHING", args
	}

	return query + " DO UPDATE SET " + strings.Join(set, ", "), args
}

// batches splits rows so no statement exceeds the parameter limit.
func batches(rows []ingest.Record, width int) [][]ingest.Record {
	size := max(maxParams/max(width, 1), 1)

	var out [][]ingest.Record

	for rest := rows; len(rest) > 0; {
		n := min(size, len(rest))
		out = append(out, rest[:n])
		rest = rest[n:]
	}

	return out
}

func (s *Store) write(ctx context.Context, table report.Table, rows []ingest.Record, build func([]string, []ingest.Record) (string, []any)) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	cols, err := rowColumns(table, rows)
	if err != nil {
		return 0, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	total := 0

	for _, batch := range batches(rows, len(cols)) {
		query, args := build(cols, batch)

		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return 0, err
		}

		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("counting rows: %w", err)
		}

		total += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing: %w", err)
	}

	return total, nil
}

func (s *Store) Insert(ctx context.Context, table report.Table, rows []ingest.Record) (ingest.Response, error) {
	n, err := s.write(ctx, table, rows, func(cols []string, batch []ingest.Record) (string, []any) {
		return insertQuery(table, cols, batch)
	})
	if err != nil {
		return ingest.Response{}, fmt.Errorf("inserting into %s: %w", table, err)
	}

	return ingest.Response{Count: n}, nil
}

// Upsert writes rows keyed on key. When the table has no unique constraint
// on key the rows are inserted instead and the response is marked degraded.
func (s *Store) Upsert(ctx context.Context, table report.Table, rows []ingest.Record, key ingest.Key) (ingest.Response, error) {
	if err := ingest.CheckColumns(table, key...); err != nil {
		return ingest.Response{}, err
	}

	n, err := s.write(ctx, table, rows, func(cols []string, batch []ingest.Record) (string, []any) {
		return upsertQuery(table, cols, batch, key)
	})

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == codeInvalidConflictTarget {
		res, err := s.Insert(ctx, table, rows)
		res.Degraded = true

		return res, err
	}

	if err != nil {
		return ingest.Response{}, fmt.Errorf("upserting into %s: %w", table, err)
	}

	return ingest.Response{Count: n}, nil
}

// where renders filter as a conjunction. Slice values match any element,
// compared in their text form.
func where(table report.Table, filter ingest.Filter) (string, []any, error) {
	if len(filter) == 0 {
		return "", nil, fmt.Errorf("empty filter on %s", table)
	}

	cols := make([]string, 0, len(filter))
	for c := range filter {
		cols = append(cols, c)
	}

	sort.Strings(cols)

	if err := ingest.CheckColumns(table, cols...); err != nil {
		return "", nil, err
	}

	var (
		conds []string
		args  []any
	)

	argIdx := 1

	for _, c := range cols {
		if list, ok := textList(filter[c]); ok {
			conds = append(conds, fmt.Sprintf("%s::text = ANY($%d)", ident(c), argIdx))
			args = append(args, list)
		} else {
			conds = append(conds, fmt.Sprintf("%s = $%d", ident(c), argIdx))
			args = append(args, filter[c])
		}

		argIdx++
	}

	return " WHERE " + strings.Join(conds, " AND "), args, nil
}

func textList(v any) ([]string, bool) {
	switch list := v.(type) {
	case []string:
		return list, true
	case []uuid.UUID:
		out := make([]string, len(list))
		for i, id := range list {
			out[i] = id.String()
		}

		return out, true
	case []any:
		out := make([]string, len(list))
		for i, x := range list {
			out[i] = fmt.Sprint(x)
		}

		return out, true
	}

	return nil, false
}

func (s *Store) Fetch(ctx context.Context, table report.Table, filter ingest.Filter) ([]ingest.Record, error) {
	cols, err := ingest.Columns(table)
	if err != nil {
		return nil, err
	}

	cond, args, err := where(table, filter)
	if err != nil {
		return nil, err
	}

	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = ident(c)
	}

	query := fmt.Sprintf("SELECT %s FROM %s%s", strings.Join(quoted, ", "), ident(string(table)), cond)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", table, err)
	}
	defer rows.Close()

	var out []ingest.Record

	for rows.Next() {
		values := make([]any, len(cols))
		dest := make([]any, len(cols))

		for i := range values {
			dest[i] = &values[i]
		}

		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scanning %s: %w", table, err)
		}

		r := make(ingest.Record, len(cols))

		for i, c := range cols {
			if b, ok := values[i].([]byte); ok {
				r[c] = string(b)
				continue
			}

			r[c] = values[i]
		}

		out = append(out, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating %s: %w", table, err)
	}

	return out, nil
}

func (s *Store) Delete(ctx context.Context, table report.Table, filter ingest.Filter) (ingest.Response, error) {
	cond, args, err := where(table, filter)
	if err != nil {
		return ingest.Response{}, err
	}

	res, err := s.db.ExecContext(ctx, "DELETE FROM "+ident(string(table))+cond, args...)
	if err != nil {
		return ingest.Response{}, fmt.Errorf("deleting from %s: %w", table, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return ingest.Response{}, fmt.Errorf("counting deleted rows: %w", err)
	}

	return ingest.Response{Count: int(n)}, nil
}

func (s *Store) UpdateStatus(ctx context.Context, id uuid.UUID, status report.Status, summary *report.Summary) error {
	var (
		raw    *string
		errMsg *string
	)

	if summary != nil {
		b, err := json.Marshal(summary)
		if err != nil {
			return fmt.Errorf("encoding summary: %w", err)
		}

		raw = new(string(b))

		if summary.Error != "" {
			errMsg = &summary.Error
		}
	}

	query := `
		UPDATE documents
		SET status = $1, error = $2, summary = $3, updated_at = NOW()
		WHERE id = $4
	`

	res, err := s.db.ExecContext(ctx, query, string(status), errMsg, raw, id)
	if err != nil {
		return fmt.Errorf("updating document status: %w", err)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return document.ErrNotFound
	}

	return nil
}

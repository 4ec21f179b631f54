package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/muniledger/internal/report"
	"github.com/MrJamesThe3rd/muniledger/internal/staging"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

var _ staging.Repository = (*Store)(nil)

type scanner interface {
	Scan(dest ...any) error
}

const selectStagedColumns = `
	id, document_id, jurisdiction_code, program_code, program_name, code, name,
	unit, annual, partial, executed, created_at
`

func scanStaged(s scanner) (*staging.StagedGoal, error) {
	var (
		g                         staging.StagedGoal
		juri, pcode, pname        sql.NullString
		code, unit                sql.NullString
		annual, partial, executed sql.NullFloat64
	)

	if err := s.Scan(
		&g.ID, &g.DocumentID, &juri, &pcode, &pname, &code, &g.Goal.Name,
		&unit, &annual, &partial, &executed, &g.CreatedAt,
	); err != nil {
		return nil, err
	}

	g.Goal.JurisdictionCode = juri.String
	g.Goal.ProgramCode = pcode.String
	g.Goal.ProgramName = pname.String
	g.Goal.Code = code.String
	g.Goal.Unit = nullString(unit)
	g.Goal.Annual = nullFloat(annual)
	g.Goal.Partial = nullFloat(partial)
	g.Goal.Executed = nullFloat(executed)

	return &g, nil
}

func nullString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}

	return report.Ptr(v.String)
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}

	return report.Ptr(v.Float64)
}

func (s *Store) ListStaged(ctx context.Context, filter staging.ListFilter) ([]*staging.StagedGoal, error) {
	query := `SELECT ` + selectStagedColumns + ` FROM goal_staging WHERE 1 = 1`

	var args []any

	argIdx := 1

	if filter.DocumentID != nil {
		query += fmt.Sprintf(" AND document_id = $%d", argIdx)

		args = append(args, *filter.DocumentID)
		argIdx++
	}

	query += " ORDER BY created_at, name"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing staged goals: %w", err)
	}
	defer rows.Close()

	var goals []*staging.StagedGoal

	for rows.Next() {
		g, err := scanStaged(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning staged goal: %w", err)
		}

		goals = append(goals, g)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating staged goals: %w", err)
	}

	return goals, nil
}

func (s *Store) GetStaged(ctx context.Context, id uuid.UUID) (*staging.StagedGoal, error) {
	query := `SELECT ` + selectStagedColumns + ` FROM goal_staging WHERE id = $1`

	g, err := scanStaged(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, staging.ErrNotFound
		}

		return nil, fmt.Errorf("getting staged goal: %w", err)
	}

	return g, nil
}

func (s *Store) ListPrograms(ctx context.Context, documentID uuid.UUID) ([]staging.Program, error) {
	query := `
		SELECT p.id, j.code, p.code, p.name
		FROM programs p
		JOIN jurisdictions j ON j.id = p.jurisdiction_id
		WHERE p.document_id = $1
		ORDER BY j.code, p.code NULLS LAST, p.name
	`

	rows, err := s.db.QueryContext(ctx, query, documentID)
	if err != nil {
		return nil, fmt.Errorf("listing programs: %w", err)
	}
	defer rows.Close()

	var programs []staging.Program

	for rows.Next() {
		var (
			p    staging.Program
			code sql.NullString
		)

		if err := rows.Scan(&p.ID, &p.JurisdictionCode, &code, &p.Name); err != nil {
			return nil, fmt.Errorf("scanning program: %w", err)
		}

		p.Code = nullString(code)
		programs = append(programs, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating programs: %w", err)
	}

	return programs, nil
}

// Assign copies the staged row into goals and removes it, in one
// transaction. An existing goal with the same name is updated.
func (s *Store) Assign(ctx context.Context, id, programID uuid.UUID) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	query := `
		INSERT INTO goals (document_id, program_id, code, name, unit, annual, partial, executed)
		SELECT document_id, $2, code, name, unit, annual, partial, executed
		FROM goal_staging
		WHERE id = $1
		ON CONFLICT (program_id, name) DO UPDATE SET
			code = EXCLUDED.code,
			unit = EXCLUDED.unit,
			annual = EXCLUDED.annual,
			partial = EXCLUDED.partial,
			executed = EXCLUDED.executed
	`

	res, err := tx.ExecContext(ctx, query, id, programID)
	if err != nil {
		return fmt.Errorf("inserting goal: %w", err)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return staging.ErrNotFound
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM goal_staging WHERE id = $1`, id); err != nil {
		return fmt.Errorf("removing staged goal: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing: %w", err)
	}

	return nil
}

func (s *Store) Discard(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM goal_staging WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("discarding staged goal: %w", err)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return staging.ErrNotFound
	}

	return nil
}

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/muniledger/internal/document"
	"github.com/MrJamesThe3rd/muniledger/internal/report"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

var _ document.Repository = (*Store)(nil)

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

const selectDocumentColumns = `
	id, municipality, doc_type, period, year, name, file_name, format, size_bytes,
	hash, storage_path, status, error, summary, created_at, updated_at
`

func scanDocument(s scanner) (*document.Document, error) {
	var (
		d       document.Document
		period  sql.NullString
		year    sql.NullInt64
		errMsg  sql.NullString
		summary []byte
		format  string
		status  string
	)

	if err := s.Scan(
		&d.ID, &d.Municipality, &d.Type, &period, &year, &d.Name, &d.FileName, &format, &d.SizeBytes,
		&d.Hash, &d.StoragePath, &status, &errMsg, &summary, &d.CreatedAt, &d.UpdatedAt,
	); err != nil {
		return nil, err
	}

	d.Period = period.String
	d.Year = int(year.Int64)
	d.Format = document.Format(format)
	d.Status = report.Status(status)

	if errMsg.Valid {
		d.Error = &errMsg.String
	}

	if len(summary) > 0 {
		var sum report.Summary
		if err := json.Unmarshal(summary, &sum); err != nil {
			return nil, fmt.Errorf("decoding summary: %w", err)
		}

		d.Summary = &sum
	}

	return &d, nil
}

func (s *Store) CreateDocument(ctx context.Context, d *document.Document) error {
	query := `
		INSERT INTO documents (municipality, doc_type, period, year, name, file_name, format, size_bytes, hash, storage_path, status, created_at, updated_at)
		VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, 0), $5, $6, $7, $8, $9, $10, $11, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`

	err := s.db.QueryRowContext(ctx, query,
		d.Municipality,
		d.Type,
		d.Period,
		d.Year,
		d.Name,
		d.FileName,
		d.Format,
		d.SizeBytes,
		d.Hash,
		d.StoragePath,
		d.Status,
	).Scan(&d.ID, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return fmt.Errorf("creating document: %w", err)
	}

	return nil
}

func (s *Store) GetDocument(ctx context.Context, id uuid.UUID) (*document.Document, error) {
	query := `SELECT ` + selectDocumentColumns + ` FROM documents WHERE id = $1`

	d, err := scanDocument(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, document.ErrNotFound
		}

		return nil, fmt.Errorf("getting document: %w", err)
	}

	return d, nil
}

func (s *Store) ListDocuments(ctx context.Context, filter document.ListFilter) ([]*document.Document, error) {
	query := `SELECT ` + selectDocumentColumns + ` FROM documents WHERE 1 = 1`

	var args []any

	argIdx := 1

	if filter.Municipality != nil {
		query += fmt.Sprintf(" AND municipality = $%d", argIdx)

		args = append(args, *filter.Municipality)
		argIdx++
	}

	if filter.Status != nil {
		query += fmt.Sprintf(" AND status = $%d", argIdx)

		args = append(args, *filter.Status)
		argIdx++
	}

	query += " ORDER BY created_at DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	defer rows.Close()

	var docs []*document.Document

	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}

		docs = append(docs, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}

	return docs, nil
}

func (s *Store) DeleteDocument(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return document.ErrNotFound
	}

	return nil
}

package document

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/muniledger/internal/report"
)

var (
	ErrNotFound    = errors.New("document not found")
	ErrInvalidFile = errors.New("invalid file")
)

// Format is the stored file format.
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatXLSX Format = "xlsx"
	// FormatText is a pre-extracted text layer, pages separated by form feeds.
	FormatText Format = "txt"
)

// TypeSiteco is the document type of the "Situación Económico-Financiera" report.
const TypeSiteco = "SITECO"

// Document is an uploaded report and its processing state.
type Document struct {
	ID           uuid.UUID
	Municipality string
	Type         string
	Period       string
	Year         int
	Name         string
	FileName     string
	Format       Format
	SizeBytes    int64
	Hash         string
	StoragePath  string
	Status       report.Status
	Error        *string
	Summary      *report.Summary
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsSiteco reports whether the document type or name marks it as a
// "Situación Económico-Financiera" report.
func (d *Document) IsSiteco() bool {
	norm := func(s string) string {
		return strings.ReplaceAll(strings.ToUpper(s), "-", "")
	}

	return strings.Contains(norm(d.Type), TypeSiteco) || strings.Contains(norm(d.Name), TypeSiteco)
}

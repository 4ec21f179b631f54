package document

import (
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/muniledger/internal/document"
	"github.com/MrJamesThe3rd/muniledger/internal/report"
)

type Response struct {
	ID           uuid.UUID       `json:"id"`
	Municipality string          `json:"municipality"`
	Type         string          `json:"type"`
	Period       string          `json:"period,omitempty"`
	Year         int             `json:"year,omitempty"`
	Name         string          `json:"name"`
	FileName     string          `json:"file_name"`
	Format       document.Format `json:"format"`
	SizeBytes    int64           `json:"size_bytes"`
	Hash         string          `json:"hash"`
	Status       report.Status   `json:"status"`
	Error        *string         `json:"error,omitempty"`
	Summary      *report.Summary `json:"summary,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// ToResponse leaves out the storage path.
func ToResponse(d *document.Document) Response {
	return Response{
		ID:           d.ID,
		Municipality: d.Municipality,
		Type:         d.Type,
		Period:       d.Period,
		Year:         d.Year,
		Name:         d.Name,
		FileName:     d.FileName,
		Format:       d.Format,
		SizeBytes:    d.SizeBytes,
		Hash:         d.Hash,
		Status:       d.Status,
		Error:        d.Error,
		Summary:      d.Summary,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

func toResponseList(docs []*document.Document) []Response {
	resp := make([]Response, len(docs))
	for i, d := range docs {
		resp[i] = ToResponse(d)
	}

	return resp
}

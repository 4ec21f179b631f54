package ingest

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/muniledger/internal/document"
	"github.com/MrJamesThe3rd/muniledger/internal/ingest"
	"github.com/MrJamesThe3rd/muniledger/internal/report"
)

type Handler struct {
	svc  *ingest.Service
	docs *document.Service
}

func NewHandler(svc *ingest.Service, docs *document.Service) *Handler {
	return &Handler{svc: svc, docs: docs}
}

// Routes mounts next to the document routes.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/{id}/ingest", h.run)
	r.Get("/{id}/status", h.status)
}

type runRequest struct {
	Strategy string `json:"strategy"`
}

type runResponse struct {
	DocumentID uuid.UUID       `json:"document_id"`
	Status     report.Status   `json:"status"`
	Summary    *report.Summary `json:"summary,omitempty"`
}

func (h *Handler) run(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	var req runRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	strategy, err := ingest.ParseStrategy(req.Strategy)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	summary, err := h.svc.Run(r.Context(), id, strategy)

	switch {
	case errors.Is(err, document.ErrNotFound):
		http.Error(w, "document not found", http.StatusNotFound)
		return
	case err != nil && summary == nil:
		slog.Error("failed to run ingest", "document_id", id, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)

		return
	}

	resp := runResponse{DocumentID: id, Status: report.StatusCompleted, Summary: summary}
	code := http.StatusOK

	if err != nil {
		resp.Status = report.StatusError
		code = http.StatusUnprocessableEntity
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) status(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	d, err := h.docs.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, document.ErrNotFound) {
			http.Error(w, "document not found", http.StatusNotFound)
			return
		}

		http.Error(w, "internal error", http.StatusInternalServerError)

		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(runResponse{
		DocumentID: d.ID,
		Status:     d.Status,
		Summary:    d.Summary,
	}); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

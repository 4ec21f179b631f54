package staging

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/muniledger/internal/staging"
)

type Handler struct {
	svc *staging.Service
}

func NewHandler(svc *staging.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/{id}/suggestions", h.suggest)
	r.Post("/{id}/assign", h.assign)
	r.Delete("/{id}", h.discard)
}

type goalResponse struct {
	ID               uuid.UUID `json:"id"`
	DocumentID       uuid.UUID `json:"document_id"`
	JurisdictionCode string    `json:"jurisdiction_code,omitempty"`
	ProgramCode      string    `json:"program_code,omitempty"`
	ProgramName      string    `json:"program_name,omitempty"`
	Code             string    `json:"code,omitempty"`
	Name             string    `json:"name"`
	Unit             *string   `json:"unit,omitempty"`
	Annual           *float64  `json:"annual,omitempty"`
	Partial          *float64  `json:"partial,omitempty"`
	Executed         *float64  `json:"executed,omitempty"`
}

type candidateResponse struct {
	ProgramID        uuid.UUID `json:"program_id"`
	JurisdictionCode string    `json:"jurisdiction_code"`
	Code             *string   `json:"code,omitempty"`
	Name             string    `json:"name"`
	Score            int       `json:"score"`
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, staging.ErrNotFound):
		http.Error(w, "staged goal not found", http.StatusNotFound)
	case errors.Is(err, staging.ErrProgramNotFound):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	default:
		slog.Error("staging request failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	filter := staging.ListFilter{}

	if s := r.URL.Query().Get("document_id"); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			http.Error(w, "invalid document_id", http.StatusBadRequest)
			return
		}

		filter.DocumentID = new(id)
	}

	goals, err := h.svc.List(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := make([]goalResponse, len(goals))
	for i, g := range goals {
		resp[i] = goalResponse{
			ID:               g.ID,
			DocumentID:       g.DocumentID,
			JurisdictionCode: g.Goal.JurisdictionCode,
			ProgramCode:      g.Goal.ProgramCode,
			ProgramName:      g.Goal.ProgramName,
			Code:             g.Goal.Code,
			Name:             g.Goal.Name,
			Unit:             g.Goal.Unit,
			Annual:           g.Goal.Annual,
			Partial:          g.Goal.Partial,
			Executed:         g.Goal.Executed,
		}
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) suggest(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	candidates, err := h.svc.Suggest(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := make([]candidateResponse, len(candidates))
	for i, c := range candidates {
		resp[i] = candidateResponse{
			ProgramID:        c.Program.ID,
			JurisdictionCode: c.Program.JurisdictionCode,
			Code:             c.Program.Code,
			Name:             c.Program.Name,
			Score:            c.Score,
		}
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

type assignRequest struct {
	ProgramID uuid.UUID `json:"program_id"`
}

func (h *Handler) assign(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	var req assignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if req.ProgramID == uuid.Nil {
		http.Error(w, "program_id is required", http.StatusBadRequest)
		return
	}

	if err := h.svc.Assign(r.Context(), id, req.ProgramID); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) discard(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	if err := h.svc.Discard(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

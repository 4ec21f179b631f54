package document

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/muniledger/internal/document"
	"github.com/MrJamesThe3rd/muniledger/internal/report"
)

type Handler struct {
	svc      *document.Service
	maxBytes int64
}

func NewHandler(svc *document.Service, maxBytes int64) *Handler {
	if maxBytes <= 0 {
		maxBytes = document.DefaultMaxBytes
	}

	return &Handler{svc: svc, maxBytes: maxBytes}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.upload)
	r.Get("/", h.list)
	r.Get("/{id}", h.get)
	r.Delete("/{id}", h.delete)
}

func (h *Handler) upload(w http.ResponseWriter, r *http.Request) {
	// leave room for the form fields around the file
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes+1<<20)

	if err := r.ParseMultipartForm(h.maxBytes); err != nil {
		http.Error(w, "failed to parse form: "+err.Error(), http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "file is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, "failed to read file: "+err.Error(), http.StatusBadRequest)
		return
	}

	var year int
	if s := r.FormValue("year"); s != "" {
		if year, err = strconv.Atoi(s); err != nil {
			http.Error(w, "invalid year", http.StatusBadRequest)
			return
		}
	}

	d, err := h.svc.Upload(r.Context(), document.UploadParams{
		Municipality: r.FormValue("municipality"),
		Type:         r.FormValue("type"),
		Period:       r.FormValue("period"),
		Year:         year,
		Name:         r.FormValue("name"),
		FileName:     header.Filename,
		Data:         data,
	})
	if err != nil {
		switch {
		case errors.Is(err, document.ErrInvalidParams), errors.Is(err, document.ErrInvalidFile):
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			slog.Error("failed to upload document", "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
		}

		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)

	if err := json.NewEncoder(w).Encode(ToResponse(d)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	filter := document.ListFilter{}

	if s := r.URL.Query().Get("municipality"); s != "" {
		filter.Municipality = new(s)
	}

	if s := r.URL.Query().Get("status"); s != "" {
		filter.Status = new(report.Status(s))
	}

	docs, err := h.svc.List(r.Context(), filter)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(toResponseList(docs)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	d, err := h.svc.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, document.ErrNotFound) {
			http.Error(w, "document not found", http.StatusNotFound)
			return
		}

		http.Error(w, "internal error", http.StatusInternalServerError)

		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(ToResponse(d)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	if err := h.svc.Delete(r.Context(), id); err != nil {
		if errors.Is(err, document.ErrNotFound) {
			http.Error(w, "document not found", http.StatusNotFound)
			return
		}

		http.Error(w, err.Error(), http.StatusInternalServerError)

		return
	}

	w.WriteHeader(http.StatusNoContent)
}

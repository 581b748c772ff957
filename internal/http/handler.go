// Package httpapp serves the JSON API for album ingest.
package httpapp

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/Egonyu/tesotunes-next-web-sub012/internal/app"
	"github.com/Egonyu/tesotunes-next-web-sub012/internal/domain"
	"github.com/Egonyu/tesotunes-next-web-sub012/internal/http/dto"
	"github.com/Egonyu/tesotunes-next-web-sub012/internal/logger"
)

type Handler struct {
	Ingest *app.IngestService
	Logger *logger.Logger
}

func NewHandler(ingest *app.IngestService, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.Default()
	}
	return &Handler{
		Ingest: ingest,
		Logger: log.WithComponent("http"),
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/healthz", h.Health)

	r.Route("/api", func(r chi.Router) {
		r.Get("/albums", h.ListAlbums)
		r.Post("/albums", h.CreateAlbum)
		r.Get("/albums/{id}", h.GetAlbum)
		r.Post("/albums/{id}/uploads", h.AddUploads)
		r.Post("/albums/{id}/submit", h.SubmitBatch)
		r.Post("/albums/{id}/retry", h.RetryBatch)

		r.Get("/uploads/{id}", h.GetUpload)

		r.Get("/isrc/{code}", h.GetISRC)
		r.Post("/isrc/{code}/register", h.RequestRegistration)

		r.Get("/reviews", h.ListReviews)

		r.Get("/tasks", h.ListTasks)
		r.Get("/tasks/stats", h.TaskStats)
	})
}

type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.Logger.Error("Failed to encode response", "error", err)
	}
}

// writeError maps domain errors onto status codes. Anything unrecognised
// is logged and reported as a 500 without its message.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrEmptyBatch),
		errors.Is(err, domain.ErrNoValidUploads):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrPrereqNotMet):
		status = http.StatusConflict
	}

	if status == http.StatusInternalServerError {
		h.Logger.Error("Request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		h.writeJSON(w, status, errorResponse{Error: "internal error"})
		return
	}
	h.writeJSON(w, status, errorResponse{Error: err.Error()})
}

func (h *Handler) writeValidation(w http.ResponseWriter, errs []dto.ValidationError) {
	h.writeJSON(w, http.StatusBadRequest, errorResponse{
		Error:  dto.ToResponse(errs),
		Fields: dto.ToMap(errs),
	})
}

func idParam(r *http.Request) (int64, []dto.ValidationError) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, []dto.ValidationError{{Field: "id", Message: "must be a positive integer"}}
	}
	return id, nil
}

func limitParam(r *http.Request, fallback int) int {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		return fallback
	}
	return limit
}

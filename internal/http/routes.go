package httpapp

import (
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Egonyu/tesotunes-next-web-sub012/internal/app"
	"github.com/Egonyu/tesotunes-next-web-sub012/internal/constants"
	"github.com/Egonyu/tesotunes-next-web-sub012/internal/domain"
	"github.com/Egonyu/tesotunes-next-web-sub012/internal/http/dto"
	"github.com/Egonyu/tesotunes-next-web-sub012/internal/identifiers"
)

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if _, err := h.Ingest.TaskStats(r.Context()); err != nil {
		h.Logger.Error("Health check failed", "error", err)
		h.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) ListAlbums(w http.ResponseWriter, r *http.Request) {
	albums, err := h.Ingest.ListAlbums(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if albums == nil {
		albums = []*domain.Album{}
	}
	h.writeJSON(w, http.StatusOK, albums)
}

func (h *Handler) CreateAlbum(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateAlbumRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeValidation(w, []dto.ValidationError{{Field: "body", Message: "invalid JSON"}})
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		h.writeValidation(w, errs)
		return
	}

	album, err := h.Ingest.CreateAlbum(r.Context(), req.ArtistID, req.Title)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, dto.NewAlbumResponse(album, nil))
}

func (h *Handler) GetAlbum(w http.ResponseWriter, r *http.Request) {
	id, errs := idParam(r)
	if errs != nil {
		h.writeValidation(w, errs)
		return
	}
	detail, err := h.Ingest.GetAlbum(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, dto.NewAlbumResponse(detail.Album, detail.Songs))
}

// AddUploads accepts either a multipart form with one or more "files" parts
// or a JSON body naming files already in the blob store.
func (h *Handler) AddUploads(w http.ResponseWriter, r *http.Request) {
	id, errs := idParam(r)
	if errs != nil {
		h.writeValidation(w, errs)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, constants.MaxUploadBytes)

	var inputs []app.UploadInput
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		inputs, errs = readMultipart(r)
	} else {
		inputs, errs = readUploadJSON(r)
	}
	if len(errs) > 0 {
		h.writeValidation(w, errs)
		return
	}

	uploads, err := h.Ingest.AddUploads(r.Context(), id, inputs)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, dto.UploadsResponse{Uploads: uploads})
}

func readUploadJSON(r *http.Request) ([]app.UploadInput, []dto.ValidationError) {
	var req dto.AddUploadsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, []dto.ValidationError{{Field: "body", Message: "invalid JSON"}}
	}
	if errs := req.Validate(); len(errs) > 0 {
		return nil, errs
	}
	inputs := make([]app.UploadInput, 0, len(req.Files))
	for _, f := range req.Files {
		inputs = append(inputs, app.UploadInput{Filename: strings.TrimSpace(f.Filename), Path: f.Path})
	}
	return inputs, nil
}

func readMultipart(r *http.Request) ([]app.UploadInput, []dto.ValidationError) {
	if err := r.ParseMultipartForm(constants.MultipartMemory); err != nil {
		return nil, []dto.ValidationError{{Field: "body", Message: "invalid multipart form"}}
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		return nil, []dto.ValidationError{{Field: "files", Message: "at least one file is required"}}
	}

	inputs := make([]app.UploadInput, 0, len(headers))
	for i, fh := range headers {
		field := fmt.Sprintf("files[%d]", i)
		file, err := fh.Open()
		if err != nil {
			return nil, []dto.ValidationError{{Field: field, Message: "unreadable file"}}
		}
		data, err := io.ReadAll(file)
		_ = file.Close()
		if err != nil {
			return nil, []dto.ValidationError{{Field: field, Message: "unreadable file"}}
		}
		if len(data) == 0 {
			return nil, []dto.ValidationError{{Field: field, Message: "file is empty"}}
		}
		inputs = append(inputs, app.UploadInput{Filename: fh.Filename, Data: data})
	}
	return inputs, nil
}

func (h *Handler) SubmitBatch(w http.ResponseWriter, r *http.Request) {
	id, errs := idParam(r)
	if errs != nil {
		h.writeValidation(w, errs)
		return
	}
	task, err := h.Ingest.SubmitBatch(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusAccepted, dto.NewTaskResponse(task))
}

func (h *Handler) RetryBatch(w http.ResponseWriter, r *http.Request) {
	id, errs := idParam(r)
	if errs != nil {
		h.writeValidation(w, errs)
		return
	}
	task, err := h.Ingest.RetryBatch(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusAccepted, dto.NewTaskResponse(task))
}

func (h *Handler) GetUpload(w http.ResponseWriter, r *http.Request) {
	id, errs := idParam(r)
	if errs != nil {
		h.writeValidation(w, errs)
		return
	}
	upload, err := h.Ingest.GetUpload(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, upload)
}

func isrcParam(r *http.Request) (string, []dto.ValidationError) {
	raw := chi.URLParam(r, "code")
	if errs := dto.ValidateISRC(raw); len(errs) > 0 {
		return "", errs
	}
	code, _ := identifiers.ParseISRC(raw)
	return code.String(), nil
}

func (h *Handler) GetISRC(w http.ResponseWriter, r *http.Request) {
	code, errs := isrcParam(r)
	if errs != nil {
		h.writeValidation(w, errs)
		return
	}
	isrc, err := h.Ingest.GetISRC(r.Context(), code)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, isrc)
}

func (h *Handler) RequestRegistration(w http.ResponseWriter, r *http.Request) {
	code, errs := isrcParam(r)
	if errs != nil {
		h.writeValidation(w, errs)
		return
	}
	task, err := h.Ingest.RequestRegistration(r.Context(), code)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusAccepted, dto.NewTaskResponse(task))
}

func (h *Handler) ListReviews(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.Ingest.ListPendingReviews(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if reviews == nil {
		reviews = []*domain.ContentReview{}
	}
	h.writeJSON(w, http.StatusOK, reviews)
}

func (h *Handler) ListTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.Ingest.ListTasks(r.Context(), limitParam(r, constants.MaxListResults))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, dto.NewTaskResponses(tasks))
}

func (h *Handler) TaskStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Ingest.TaskStats(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, stats)
}

package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/maauso/tubely-api/internal/apperr"
	"github.com/maauso/tubely-api/internal/ingest"
)

const (
	// maxFormMemory is how much of a multipart form is buffered in memory;
	// the rest spills to temporary files removed after the request.
	maxFormMemory = 32 << 20
	// formOverhead allows for multipart boundaries and headers on top of
	// the file size ceiling.
	formOverhead = 1 << 20
)

// VideoService is the application layer used by the handlers.
// *ingest.Service implements it.
type VideoService interface {
	CreateVideo(ctx context.Context, ownerID, title, description string) (ingest.SignedVideo, error)
	GetVideo(ctx context.Context, ownerID, videoID string) (ingest.SignedVideo, error)
	ListVideos(ctx context.Context, ownerID string) ([]ingest.SignedVideo, error)
	UploadVideo(ctx context.Context, req ingest.UploadRequest) (ingest.SignedVideo, error)
	UploadThumbnail(ctx context.Context, req ingest.ThumbnailRequest) (ingest.SignedVideo, error)
}

// Handlers contains the HTTP handlers for the API.
type Handlers struct {
	service   VideoService
	validator *validator.Validate
	logger    *slog.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(service VideoService, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{
		service:   service,
		validator: validator.New(),
		logger:    logger,
	}
}

// Health handles GET /health requests.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// CreateVideo handles POST /api/videos requests.
func (h *Handlers) CreateVideo(w http.ResponseWriter, r *http.Request) {
	var req CreateVideoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("failed to decode request body",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadRequest, "invalid JSON body", "INVALID_JSON")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		h.logger.Warn("request validation failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
		return
	}

	created, err := h.service.CreateVideo(r.Context(), UserIDFromContext(r.Context()), req.Title, req.Description)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toVideoResponse(created))
}

// ListVideos handles GET /api/videos requests.
func (h *Handlers) ListVideos(w http.ResponseWriter, r *http.Request) {
	videos, err := h.service.ListVideos(r.Context(), UserIDFromContext(r.Context()))
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}

	resp := make([]VideoResponse, 0, len(videos))
	for _, v := range videos {
		resp = append(resp, toVideoResponse(v))
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetVideo handles GET /api/videos/{videoID} requests.
func (h *Handlers) GetVideo(w http.ResponseWriter, r *http.Request) {
	videoID, ok := h.videoID(w, r)
	if !ok {
		return
	}

	found, err := h.service.GetVideo(r.Context(), UserIDFromContext(r.Context()), videoID)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toVideoResponse(found))
}

// UploadVideo handles POST /api/videos/{videoID}/upload requests.
// The multipart field "video" carries the file.
func (h *Handlers) UploadVideo(w http.ResponseWriter, r *http.Request) {
	videoID, ok := h.videoID(w, r)
	if !ok {
		return
	}

	file, header, ok := h.formFile(w, r, "video", ingest.MaxVideoBytes)
	if !ok {
		return
	}
	defer closeForm(r, file)

	updated, err := h.service.UploadVideo(r.Context(), ingest.UploadRequest{
		VideoID:   videoID,
		OwnerID:   UserIDFromContext(r.Context()),
		Body:      file,
		MediaType: header.Header.Get("Content-Type"),
		Size:      header.Size,
	})
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toVideoResponse(updated))
}

// UploadThumbnail handles POST /api/thumbnail_upload/{videoID} requests.
// The multipart field "thumbnail" carries the image.
func (h *Handlers) UploadThumbnail(w http.ResponseWriter, r *http.Request) {
	videoID, ok := h.videoID(w, r)
	if !ok {
		return
	}

	file, header, ok := h.formFile(w, r, "thumbnail", ingest.MaxThumbnailBytes)
	if !ok {
		return
	}
	defer closeForm(r, file)

	updated, err := h.service.UploadThumbnail(r.Context(), ingest.ThumbnailRequest{
		VideoID:   videoID,
		OwnerID:   UserIDFromContext(r.Context()),
		Body:      file,
		MediaType: header.Header.Get("Content-Type"),
		Size:      header.Size,
	})
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toVideoResponse(updated))
}

// videoID reads and validates the {videoID} path value.
func (h *Handlers) videoID(w http.ResponseWriter, r *http.Request) (string, bool) {
	videoID := r.PathValue("videoID")
	if videoID == "" {
		writeError(w, http.StatusBadRequest, "video ID is required", "MISSING_VIDEO_ID")
		return "", false
	}
	if err := h.validator.Var(videoID, "uuid"); err != nil {
		writeError(w, http.StatusBadRequest, "invalid video ID", "INVALID_VIDEO_ID")
		return "", false
	}
	return videoID, true
}

// formFile parses a multipart body capped at limit plus form overhead and
// returns the named file. Callers close the file with closeForm.
func (h *Handlers) formFile(w http.ResponseWriter, r *http.Request, field string, limit int64) (multipart.File, *multipart.FileHeader, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, limit+formOverhead)

	if err := r.ParseMultipartForm(maxFormMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusBadRequest, "too large", "FILE_TOO_LARGE")
			return nil, nil, false
		}
		h.logger.Warn("failed to parse multipart form",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadRequest, "unable to parse form", "INVALID_FORM")
		return nil, nil, false
	}
	file, header, err := r.FormFile(field)
	if err != nil {
		_ = r.MultipartForm.RemoveAll()
		writeError(w, http.StatusBadRequest, "missing "+field+" file", "MISSING_FILE")
		return nil, nil, false
	}
	return file, header, true
}

// closeForm closes the form file and removes any spilled form data.
func closeForm(r *http.Request, file multipart.File) {
	_ = file.Close()
	if r.MultipartForm != nil {
		_ = r.MultipartForm.RemoveAll()
	}
}

// writeAppError maps a classified error to its status and code. Only the
// classified message reaches the caller.
func (h *Handlers) writeAppError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := statusFor(apperr.KindOf(err))
	message := "internal server error"
	if apperr.KindOf(err) != apperr.KindUnknown {
		message = apperr.MessageOf(err, message)
	}

	level := slog.LevelWarn
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	h.logger.Log(r.Context(), level, "request failed",
		slog.String("path", r.URL.Path),
		slog.String("request_id", RequestIDFromContext(r.Context())),
		slog.Int("status", status),
		slog.String("error", err.Error()),
	)

	writeError(w, status, message, code)
}

func statusFor(kind apperr.Kind) (int, string) {
	switch kind {
	case apperr.KindBadRequest:
		return http.StatusBadRequest, "BAD_REQUEST"
	case apperr.KindUnauthorized:
		return http.StatusUnauthorized, "UNAUTHORIZED"
	case apperr.KindForbidden:
		return http.StatusForbidden, "FORBIDDEN"
	case apperr.KindNotFound:
		return http.StatusNotFound, "VIDEO_NOT_FOUND"
	case apperr.KindStorage:
		return http.StatusBadGateway, "STORAGE_FAILURE"
	case apperr.KindIO:
		return http.StatusInternalServerError, "IO_FAILURE"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR"
	}
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
	}
}

// writeError writes an error response in the standard format.
func writeError(w http.ResponseWriter, status int, message, code string) {
	writeJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

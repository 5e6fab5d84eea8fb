package scan

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/Bhavana10-bit/scantrack-guardian/internal/httputil"
	"github.com/Bhavana10-bit/scantrack-guardian/internal/ocr"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

type Handler struct {
	service  Service
	validate *validator.Validate
	logger   *slog.Logger
}

func NewHandler(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service:  service,
		validate: validator.New(),
		logger:   logger,
	}
}

func (h *Handler) RegisterRoutes(router chi.Router) {
	router.Post("/scans", h.ProcessScan)
	router.Get("/scans", h.ListScans)
	router.Get("/scans/{scanID}", h.GetScan)
}

func (h *Handler) ProcessScan(w http.ResponseWriter, r *http.Request) {
	var req ProcessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "missing required fields")
		return
	}

	h.logger.InfoContext(r.Context(), "processing scan", "teacher", req.TeacherID, "class", req.ClassName)

	result, err := h.service.Process(r.Context(), req)
	if err != nil {
		h.handleServiceError(w, r, result, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusCreated, result)
}

func (h *Handler) GetScan(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "scanID"), 10, 64)
	if err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "invalid scan ID")
		return
	}

	scan, err := h.service.GetScan(r.Context(), id)
	if err != nil {
		h.handleServiceError(w, r, nil, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, scan)
}

func (h *Handler) ListScans(w http.ResponseWriter, r *http.Request) {
	teacherID := r.URL.Query().Get("teacher_id")

	scans, err := h.service.ListScans(r.Context(), teacherID)
	if err != nil {
		h.handleServiceError(w, r, nil, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, scans)
}

func (h *Handler) handleServiceError(w http.ResponseWriter, r *http.Request, result *Result, err error) {
	ctx := r.Context()

	switch {
	case errors.Is(err, ErrInvalidInput):
		httputil.RespondWithError(w, http.StatusBadRequest, "missing required fields")
	case errors.Is(err, ocr.ErrRateLimited):
		h.logger.WarnContext(ctx, "ocr gateway rate limited")
		httputil.RespondWithError(w, http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.")
	case errors.Is(err, ocr.ErrQuotaExceeded):
		h.logger.WarnContext(ctx, "ocr gateway quota exceeded")
		httputil.RespondWithError(w, http.StatusPaymentRequired, "Payment required. Please add credits to your workspace.")
	case errors.Is(err, ErrUpstreamOCR):
		h.logger.ErrorContext(ctx, "ocr extraction failed", "error", err)
		httputil.RespondWithError(w, http.StatusBadGateway, "OCR extraction failed")
	case errors.Is(err, ErrNoExtractableRecords):
		// The scan was stored; tell the caller where to find the raw text.
		payload := map[string]interface{}{"error": "no attendance records could be extracted"}
		if result != nil {
			payload["scan_id"] = result.ScanID
			payload["extracted_text"] = result.ExtractedText
		}
		httputil.RespondWithJSON(w, http.StatusUnprocessableEntity, payload)
	case errors.Is(err, ErrScanNotFound):
		httputil.RespondWithError(w, http.StatusNotFound, "scan not found")
	case errors.Is(err, ErrPersistence):
		h.logger.ErrorContext(ctx, "failed to persist scan results", "error", err)
		httputil.RespondWithError(w, http.StatusInternalServerError, "failed to store attendance records")
	default:
		h.logger.ErrorContext(ctx, "internal error", "error", err)
		httputil.RespondWithError(w, http.StatusInternalServerError, "internal server error")
	}
}

package attendance

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/Bhavana10-bit/scantrack-guardian/internal/httputil"

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
	router.Post("/attendance", h.SaveManual)
	router.Get("/attendance", h.History)
	router.Get("/attendance/report", h.ExportReport)
	router.Get("/students/{studentID}/stats", h.StudentStats)
	router.Get("/dashboard/stats", h.DashboardStats)
}

type ManualEntryRequest struct {
	RollNo      string `json:"roll_no" validate:"required"`
	StudentName string `json:"student_name" validate:"required"`
	Status      string `json:"status" validate:"required,oneof=present absent late"`
}

type SaveManualRequest struct {
	ClassName      string               `json:"class_name" validate:"required"`
	AttendanceDate string               `json:"attendance_date" validate:"required,datetime=2006-01-02"`
	Entries        []ManualEntryRequest `json:"entries" validate:"required,min=1,dive"`
}

func (h *Handler) SaveManual(w http.ResponseWriter, r *http.Request) {
	var req SaveManualRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "class name, date and all student details are required")
		return
	}

	entries := make([]Entry, len(req.Entries))
	for i, e := range req.Entries {
		status, _ := ParseStatus(e.Status)
		entries[i] = Entry{
			StudentID:   e.RollNo,
			StudentName: e.StudentName,
			ClassName:   req.ClassName,
			Date:        req.AttendanceDate,
			Status:      status,
		}
	}

	h.logger.InfoContext(r.Context(), "saving manual attendance", "class", req.ClassName, "entries", len(entries))

	result, err := h.service.SaveManual(r.Context(), entries)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, result)
}

func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := Filter{
		StudentID: q.Get("student_id"),
		ClassName: q.Get("class_name"),
		StartDate: q.Get("start_date"),
		EndDate:   q.Get("end_date"),
	}

	records, err := h.service.History(r.Context(), filter)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	if records == nil {
		records = []Record{}
	}

	httputil.RespondWithJSON(w, http.StatusOK, records)
}

func (h *Handler) ExportReport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	className := q.Get("class_name")
	if className == "" {
		httputil.RespondWithError(w, http.StatusBadRequest, "class_name is required")
		return
	}

	h.logger.InfoContext(r.Context(), "generating report", "class", className)

	stats, err := h.service.ClassReport(r.Context(), className, q.Get("start_date"), q.Get("end_date"))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	filename := ReportFilename(className, time.Now().Format("2006-01-02"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)

	if err := WriteReportCSV(w, stats); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to write report", "error", err)
	}
}

func (h *Handler) StudentStats(w http.ResponseWriter, r *http.Request) {
	studentID := chi.URLParam(r, "studentID")

	overview, err := h.service.StudentOverview(r.Context(), studentID)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, overview)
}

func (h *Handler) DashboardStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.DashboardStats(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, stats)
}

func (h *Handler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, ErrInvalidInput) {
		h.logger.InfoContext(r.Context(), "invalid input")
		httputil.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if errors.Is(err, ErrNoRecords) {
		h.logger.InfoContext(r.Context(), "no records for report criteria")
		httputil.RespondWithError(w, http.StatusNotFound, "no attendance records found for the given criteria")
		return
	}
	h.logger.ErrorContext(r.Context(), "internal error", "error", err)
	httputil.RespondWithError(w, http.StatusInternalServerError, "internal server error")
}

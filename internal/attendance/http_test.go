package attendance_test

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Bhavana10-bit/scantrack-guardian/internal/attendance"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(repo attendance.Repository) *chi.Mux {
	handler := attendance.NewHandler(newTestService(repo, nil), slog.Default())
	router := chi.NewRouter()
	handler.RegisterRoutes(router)
	return router
}

func TestSaveManualHandler(t *testing.T) {
	t.Run("SavesAndReportsCounts", func(t *testing.T) {
		repo := newMemRepo()
		router := newTestRouter(repo)

		body := `{
			"class_name": "Math",
			"attendance_date": "2025-09-01",
			"entries": [
				{"roll_no": "101", "student_name": "John Doe", "status": "present"},
				{"roll_no": "102", "student_name": "Jane Smith", "status": "absent"}
			]
		}`
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/attendance", strings.NewReader(body)))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"inserted": 2, "updated": 0}`, rec.Body.String())
		assert.Len(t, repo.records, 2)
	})

	t.Run("RejectsUnknownStatus", func(t *testing.T) {
		router := newTestRouter(newMemRepo())

		body := `{
			"class_name": "Math",
			"attendance_date": "2025-09-01",
			"entries": [{"roll_no": "101", "student_name": "John", "status": "tardy"}]
		}`
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/attendance", strings.NewReader(body)))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("RejectsBadDate", func(t *testing.T) {
		router := newTestRouter(newMemRepo())

		body := `{
			"class_name": "Math",
			"attendance_date": "01/09/2025",
			"entries": [{"roll_no": "101", "student_name": "John", "status": "present"}]
		}`
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/attendance", strings.NewReader(body)))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("RejectsEmptyEntries", func(t *testing.T) {
		router := newTestRouter(newMemRepo())

		body := `{"class_name": "Math", "attendance_date": "2025-09-01", "entries": []}`
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/attendance", strings.NewReader(body)))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("RejectsMalformedJSON", func(t *testing.T) {
		router := newTestRouter(newMemRepo())

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/attendance", strings.NewReader("{not json")))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHistoryHandler(t *testing.T) {
	t.Run("EmptyStoreReturnsEmptyArray", func(t *testing.T) {
		router := newTestRouter(newMemRepo())

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/attendance", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `[]`, rec.Body.String())
	})

	t.Run("FiltersByQueryParams", func(t *testing.T) {
		repo := newMemRepo()
		ctx := context.Background()
		for _, r := range []attendance.Record{
			record("101", "John", "Math", "2025-09-01", attendance.StatusPresent),
			record("101", "John", "Physics", "2025-09-01", attendance.StatusAbsent),
			record("102", "Jane", "Math", "2025-09-01", attendance.StatusPresent),
		} {
			r := r
			require.NoError(t, repo.Insert(ctx, &r))
		}
		router := newTestRouter(repo)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/attendance?student_id=101&class_name=Math", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"student_id":"101"`)
		assert.NotContains(t, rec.Body.String(), "Physics")
		assert.NotContains(t, rec.Body.String(), "102")
	})
}

func TestExportReportHandler(t *testing.T) {
	t.Run("WritesCSVAttachment", func(t *testing.T) {
		repo := newMemRepo()
		ctx := context.Background()
		for _, r := range []attendance.Record{
			record("101", "John Doe", "Math", "2025-09-01", attendance.StatusPresent),
			record("101", "John Doe", "Math", "2025-09-02", attendance.StatusPresent),
			record("101", "John Doe", "Math", "2025-09-03", attendance.StatusPresent),
			record("102", "Jane Smith", "Math", "2025-09-01", attendance.StatusPresent),
			record("102", "Jane Smith", "Math", "2025-09-03", attendance.StatusLate),
		} {
			r := r
			require.NoError(t, repo.Insert(ctx, &r))
		}
		router := newTestRouter(repo)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/attendance/report?class_name=Math", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
		assert.Contains(t, rec.Header().Get("Content-Disposition"), `attachment; filename="attendance_report_Math_`)

		lines := strings.Split(strings.TrimRight(rec.Body.String(), "\n"), "\n")
		require.Len(t, lines, 3)
		assert.Equal(t, "Roll No,Student Name,Total Classes,Present,Absent,Late,Attendance %", lines[0])
		assert.Equal(t, "101,John Doe,3,3,0,0,100.00%", lines[1])
		assert.Equal(t, "102,Jane Smith,3,1,1,1,33.33%", lines[2])
	})

	t.Run("MissingClassName", func(t *testing.T) {
		router := newTestRouter(newMemRepo())

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/attendance/report", nil))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("NoRecordsIs404", func(t *testing.T) {
		router := newTestRouter(newMemRepo())

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/attendance/report?class_name=History", nil))

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestStudentStatsHandler(t *testing.T) {
	repo := newMemRepo()
	ctx := context.Background()
	for _, r := range []attendance.Record{
		record("101", "John", "Math", "2025-09-01", attendance.StatusPresent),
		record("101", "John", "Math", "2025-09-02", attendance.StatusAbsent),
	} {
		r := r
		require.NoError(t, repo.Insert(ctx, &r))
	}
	router := newTestRouter(repo)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/students/101/stats", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"classes"`)
	assert.Contains(t, rec.Body.String(), `"overall"`)
	assert.Contains(t, rec.Body.String(), `"recent"`)
}

func TestDashboardStatsHandler(t *testing.T) {
	router := newTestRouter(newMemRepo())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/dashboard/stats", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"total_students": 0, "present_today": 0, "absent_today": 0, "active_classes": 0}`, rec.Body.String())
}

package scan_test

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Bhavana10-bit/scantrack-guardian/internal/ocr"
	"github.com/Bhavana10-bit/scantrack-guardian/internal/scan"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(f *fixture) *chi.Mux {
	handler := scan.NewHandler(f.svc, slog.Default())
	router := chi.NewRouter()
	handler.RegisterRoutes(router)
	return router
}

const validScanBody = `{
	"image_base64": "data:image/png;base64,AAAA",
	"teacher_id": "teacher-1",
	"class_name": "Math",
	"attendance_date": "2025-09-01"
}`

func TestProcessScanHandler(t *testing.T) {
	t.Run("CreatedWithCounts", func(t *testing.T) {
		f := newFixture()
		f.extractor.text = "DATE: 01/09/2025\n101|John Doe|present\n102|Jane Smith|absent"
		router := newTestRouter(f)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/scans", strings.NewReader(validScanBody)))

		assert.Equal(t, http.StatusCreated, rec.Code)

		var result scan.Result
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
		assert.True(t, result.Success)
		assert.Equal(t, 2, result.RecordsCount)
		assert.Equal(t, f.extractor.text, result.ExtractedText)
	})

	t.Run("MissingRequiredFields", func(t *testing.T) {
		f := newFixture()
		router := newTestRouter(f)

		body := `{"image_base64": "data:image/png;base64,AAAA", "class_name": "Math"}`
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/scans", strings.NewReader(body)))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, 0, f.extractor.calls)
	})

	t.Run("RateLimitedGateway", func(t *testing.T) {
		f := newFixture()
		f.extractor.err = ocr.ErrRateLimited
		router := newTestRouter(f)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/scans", strings.NewReader(validScanBody)))

		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.Contains(t, rec.Body.String(), "Rate limit exceeded. Please try again later.")
	})

	t.Run("QuotaExceededGateway", func(t *testing.T) {
		f := newFixture()
		f.extractor.err = ocr.ErrQuotaExceeded
		router := newTestRouter(f)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/scans", strings.NewReader(validScanBody)))

		assert.Equal(t, http.StatusPaymentRequired, rec.Code)
		assert.Contains(t, rec.Body.String(), "Payment required. Please add credits to your workspace.")
	})

	t.Run("NoExtractableRecordsExposesScan", func(t *testing.T) {
		f := newFixture()
		f.extractor.text = "illegible scribbles"
		router := newTestRouter(f)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/scans", strings.NewReader(validScanBody)))

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

		var payload map[string]interface{}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
		assert.Equal(t, float64(1), payload["scan_id"])
		assert.Equal(t, "illegible scribbles", payload["extracted_text"])
	})
}

func TestGetScanHandler(t *testing.T) {
	t.Run("Found", func(t *testing.T) {
		f := newFixture()
		f.extractor.text = "101|John Doe|present"
		router := newTestRouter(f)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/scans", strings.NewReader(validScanBody)))
		require.Equal(t, http.StatusCreated, rec.Code)

		rec = httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/scans/1", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"teacher_id":"teacher-1"`)
	})

	t.Run("NotFound", func(t *testing.T) {
		router := newTestRouter(newFixture())

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/scans/42", nil))

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("BadID", func(t *testing.T) {
		router := newTestRouter(newFixture())

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/scans/abc", nil))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestListScansHandler(t *testing.T) {
	t.Run("RequiresTeacherID", func(t *testing.T) {
		router := newTestRouter(newFixture())

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/scans", nil))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("ListsTeacherScans", func(t *testing.T) {
		f := newFixture()
		f.extractor.text = "101|John Doe|present"
		router := newTestRouter(f)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/scans", strings.NewReader(validScanBody)))
		require.Equal(t, http.StatusCreated, rec.Code)

		rec = httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/scans?teacher_id=teacher-1", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"class_name":"Math"`)
	})
}

package scan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Bhavana10-bit/scantrack-guardian/internal/attendance"
	"github.com/Bhavana10-bit/scantrack-guardian/internal/messaging"
	"github.com/Bhavana10-bit/scantrack-guardian/internal/metrics"
)

// The four failure kinds of the ingestion pipeline. Handlers map them to
// distinct HTTP statuses with errors.Is; upstream detail (rate limit vs
// quota) stays on the chain via wrapping.
var (
	ErrInvalidInput         = errors.New("missing required fields")
	ErrUpstreamOCR          = errors.New("ocr extraction failed")
	ErrNoExtractableRecords = errors.New("no attendance records could be extracted")
	ErrPersistence          = errors.New("failed to store attendance records")
)

// Extractor turns an attendance sheet image into raw text.
type Extractor interface {
	ExtractText(ctx context.Context, imageBase64 string) (string, error)
}

// RecordStore is the slice of the attendance repository that ingestion needs.
type RecordStore interface {
	InsertBatch(ctx context.Context, records []*attendance.Record) error
}

// Publisher sends attendance events to the configured message broker.
type Publisher interface {
	Publish(ctx context.Context, key string, value interface{}) error
}

// ProcessRequest is the ingestion entry point payload. Exactly one of
// ImageBase64 (a data URL, routed through the OCR gateway) or RawText
// (pre-extracted text, gateway skipped) must be set.
type ProcessRequest struct {
	ImageBase64    string `json:"image_base64"`
	RawText        string `json:"raw_text"`
	TeacherID      string `json:"teacher_id" validate:"required"`
	ClassName      string `json:"class_name" validate:"required"`
	AttendanceDate string `json:"attendance_date" validate:"required,datetime=2006-01-02"`
}

type Result struct {
	Success       bool   `json:"success"`
	ScanID        int64  `json:"scan_id"`
	ExtractedText string `json:"extracted_text"`
	RecordsCount  int    `json:"records_count"`
}

type Service interface {
	Process(ctx context.Context, req ProcessRequest) (*Result, error)
	GetScan(ctx context.Context, id int64) (*Scan, error)
	ListScans(ctx context.Context, teacherID string) ([]Scan, error)
}

type service struct {
	scans    Repository
	records  RecordStore
	ocr      Extractor
	producer Publisher
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

func NewService(scans Repository, records RecordStore, ocr Extractor, producer Publisher, logger *slog.Logger, m *metrics.Metrics) Service {
	return &service{
		scans:    scans,
		records:  records,
		ocr:      ocr,
		producer: producer,
		logger:   logger,
		metrics:  m,
	}
}

// Process runs one ingestion: OCR (unless raw text was supplied), store the
// scan, parse, insert the extracted records. Records from a scan are inserted
// unconditionally - a scan is a fresh snapshot of a physical sheet, so there
// is no existence check against earlier records.
//
// The scan row is stored before the record insert; if that insert fails the
// scan is kept and the failure reported, not retried. Callers see which step
// failed through the error kind.
func (s *service) Process(ctx context.Context, req ProcessRequest) (*Result, error) {
	if req.TeacherID == "" || req.ClassName == "" || req.AttendanceDate == "" {
		return nil, ErrInvalidInput
	}
	if req.ImageBase64 == "" && req.RawText == "" {
		return nil, ErrInvalidInput
	}

	text := req.RawText
	if text == "" {
		extracted, err := s.ocr.ExtractText(ctx, req.ImageBase64)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrUpstreamOCR, err)
		}
		text = extracted
	}

	scan := &Scan{
		TeacherID:     req.TeacherID,
		ClassName:     req.ClassName,
		ExtractedText: text,
	}
	if err := s.scans.Insert(ctx, scan); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	s.logger.InfoContext(ctx, "scan stored", "scan_id", scan.ID, "class", req.ClassName)

	entries := attendance.ParseSheet(text, req.AttendanceDate, req.ClassName)
	s.metrics.RecordEntriesParsed(ctx, len(entries))

	if len(entries) == 0 {
		// The scan row is kept for audit; "nothing found" is a user-visible
		// condition, not a hard failure.
		return &Result{ScanID: scan.ID, ExtractedText: text}, ErrNoExtractableRecords
	}

	records := make([]*attendance.Record, len(entries))
	for i, e := range entries {
		records[i] = &attendance.Record{
			ScanID:         &scan.ID,
			StudentID:      e.StudentID,
			StudentName:    e.StudentName,
			ClassName:      e.ClassName,
			AttendanceDate: e.Date,
			Status:         e.Status,
		}
	}

	if err := s.records.InsertBatch(ctx, records); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	s.metrics.RecordScanProcessed(ctx, messaging.SourceOCR)
	s.metrics.RecordReconciliation(ctx, messaging.SourceOCR, len(records), 0)
	s.publishRecorded(ctx, scan.ID, req, len(records))

	s.logger.InfoContext(ctx, "scan processed", "scan_id", scan.ID, "records", len(records))

	return &Result{
		Success:       true,
		ScanID:        scan.ID,
		ExtractedText: text,
		RecordsCount:  len(records),
	}, nil
}

func (s *service) GetScan(ctx context.Context, id int64) (*Scan, error) {
	if id <= 0 {
		return nil, ErrInvalidInput
	}
	return s.scans.GetByID(ctx, id)
}

func (s *service) ListScans(ctx context.Context, teacherID string) ([]Scan, error) {
	if teacherID == "" {
		return nil, ErrInvalidInput
	}
	return s.scans.ListByTeacher(ctx, teacherID)
}

func (s *service) publishRecorded(ctx context.Context, scanID int64, req ProcessRequest, inserted int) {
	if s.producer == nil {
		return
	}

	event := messaging.RecordedEvent{
		Source:         messaging.SourceOCR,
		ScanID:         &scanID,
		ClassName:      req.ClassName,
		AttendanceDate: req.AttendanceDate,
		Inserted:       inserted,
	}
	if err := s.producer.Publish(ctx, req.ClassName, event); err != nil {
		s.logger.WarnContext(ctx, "failed to publish attendance event", "error", err)
	}
}

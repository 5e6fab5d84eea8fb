package messaging

// Source identifies how a batch of attendance records entered the system.
const (
	SourceOCR    = "ocr"
	SourceManual = "manual"
)

// RecordedEvent is published after a batch of attendance records is applied
// to the store, from either OCR ingestion or a manual save.
type RecordedEvent struct {
	Source         string `json:"source"`
	ScanID         *int64 `json:"scan_id,omitempty"`
	ClassName      string `json:"class_name"`
	AttendanceDate string `json:"attendance_date"`
	Inserted       int    `json:"inserted"`
	Updated        int    `json:"updated"`
}

package scan

import (
	"time"

	"github.com/uptrace/bun"
)

// Scan is one OCR ingestion event. Rows are append-only: a scan is never
// mutated after creation, and each one owns zero or more attendance records
// linked via scan_id.
type Scan struct {
	bun.BaseModel `bun:"table:ocr_scans"`

	ID            int64     `bun:"id,pk,autoincrement" json:"id"`
	TeacherID     string    `bun:"teacher_id,notnull" json:"teacher_id"`
	ClassName     string    `bun:"class_name,notnull" json:"class_name"`
	ExtractedText string    `bun:"extracted_text,notnull" json:"extracted_text"`
	CreatedAt     time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
}

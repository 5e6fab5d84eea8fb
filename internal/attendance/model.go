package attendance

import (
	"strings"
	"time"

	"github.com/uptrace/bun"
)

// Status is the closed set of attendance markers. Anything outside the three
// values is rejected at the boundary rather than stored as free text.
type Status string

const (
	StatusPresent Status = "present"
	StatusAbsent  Status = "absent"
	StatusLate    Status = "late"
)

// ParseStatus canonicalizes a free-text token into a Status. Matching is
// case-insensitive against the three literal words; there is no synonym
// expansion ("tardy" does not become "late").
func ParseStatus(token string) (Status, bool) {
	switch strings.ToLower(strings.TrimSpace(token)) {
	case "present":
		return StatusPresent, true
	case "absent":
		return StatusAbsent, true
	case "late":
		return StatusLate, true
	default:
		return "", false
	}
}

// Entry is a parsed, not yet persisted attendance fact. Duplicates within one
// parse are possible; they are collapsed at reconciliation time.
type Entry struct {
	StudentID   string `json:"student_id"`
	StudentName string `json:"student_name"`
	ClassName   string `json:"class_name"`
	// Date is a canonical YYYY-MM-DD string. ISO dates compare correctly as
	// strings, which is all the store's range filters need.
	Date   string `json:"attendance_date"`
	Status Status `json:"status"`
}

// Record is a persisted Entry. ScanID is nil for manually entered records.
type Record struct {
	bun.BaseModel `bun:"table:attendance_records"`

	ID             int64     `bun:"id,pk,autoincrement" json:"id"`
	ScanID         *int64    `bun:"scan_id" json:"scan_id,omitempty"`
	StudentID      string    `bun:"student_id,notnull" json:"student_id"`
	StudentName    string    `bun:"student_name,notnull" json:"student_name"`
	ClassName      string    `bun:"class_name,notnull" json:"class_name"`
	AttendanceDate string    `bun:"attendance_date,notnull" json:"attendance_date"`
	Status         Status    `bun:"status,notnull" json:"status"`
	CreatedAt      time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
}

// ClassStat is one student's attendance breakdown for a single class.
// Computed on demand, never persisted.
type ClassStat struct {
	ClassName  string  `json:"class_name"`
	Present    int     `json:"present"`
	Absent     int     `json:"absent"`
	Late       int     `json:"late"`
	Total      int     `json:"total"`
	Percentage float64 `json:"percentage"`
}

// StudentStat is one row of a per-class roster report.
type StudentStat struct {
	StudentID    string  `json:"student_id"`
	StudentName  string  `json:"student_name"`
	TotalClasses int     `json:"total_classes"`
	Present      int     `json:"present"`
	Absent       int     `json:"absent"`
	Late         int     `json:"late"`
	Percentage   float64 `json:"percentage"`
}

// OverallStat summarizes a student's attendance across all classes.
type OverallStat struct {
	Present    int     `json:"present"`
	Total      int     `json:"total"`
	Percentage float64 `json:"percentage"`
}

// DashboardStats backs the teacher dashboard header cards.
type DashboardStats struct {
	TotalStudents int `json:"total_students"`
	PresentToday  int `json:"present_today"`
	AbsentToday   int `json:"absent_today"`
	ActiveClasses int `json:"active_classes"`
}

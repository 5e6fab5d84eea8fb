package attendance

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

var reportHeader = []string{"Roll No", "Student Name", "Total Classes", "Present", "Absent", "Late", "Attendance %"}

// WriteReportCSV serializes roster statistics as UTF-8 CSV: one header row,
// one row per student, percentage with exactly two decimals and a trailing %.
func WriteReportCSV(w io.Writer, stats []StudentStat) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(reportHeader); err != nil {
		return fmt.Errorf("failed to write report header: %w", err)
	}

	for _, s := range stats {
		row := []string{
			s.StudentID,
			s.StudentName,
			strconv.Itoa(s.TotalClasses),
			strconv.Itoa(s.Present),
			strconv.Itoa(s.Absent),
			strconv.Itoa(s.Late),
			fmt.Sprintf("%.2f%%", s.Percentage),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write report row for %s: %w", s.StudentID, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// ReportFilename is the download name convention for exported reports.
func ReportFilename(className, isoDate string) string {
	return fmt.Sprintf("attendance_report_%s_%s.csv", className, isoDate)
}

package attendance_test

import (
	"bytes"
	"testing"

	"github.com/Bhavana10-bit/scantrack-guardian/internal/attendance"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteReportCSV(t *testing.T) {
	records := []attendance.Record{
		record("102", "Jane Smith", "Math", "2025-09-01", attendance.StatusPresent),
		record("102", "Jane Smith", "Math", "2025-09-03", attendance.StatusLate),
		record("101", "John Doe", "Math", "2025-09-01", attendance.StatusPresent),
		record("101", "John Doe", "Math", "2025-09-02", attendance.StatusPresent),
		record("101", "John Doe", "Math", "2025-09-03", attendance.StatusPresent),
	}

	var buf bytes.Buffer
	err := attendance.WriteReportCSV(&buf, attendance.AggregateReport(records))
	require.NoError(t, err)

	lines := bytes.Split(bytes.TrimRight(buf.Bytes(), "\n"), []byte("\n"))
	require.Len(t, lines, 3)

	assert.Equal(t, "Roll No,Student Name,Total Classes,Present,Absent,Late,Attendance %", string(lines[0]))
	assert.Equal(t, "101,John Doe,3,3,0,0,100.00%", string(lines[1]))
	assert.Equal(t, "102,Jane Smith,3,1,1,1,33.33%", string(lines[2]))
}

func TestWriteReportCSV_Empty(t *testing.T) {
	var buf bytes.Buffer
	err := attendance.WriteReportCSV(&buf, nil)
	require.NoError(t, err)

	assert.Equal(t, "Roll No,Student Name,Total Classes,Present,Absent,Late,Attendance %\n", buf.String())
}

func TestReportFilename(t *testing.T) {
	assert.Equal(t, "attendance_report_Math_2025-09-01.csv", attendance.ReportFilename("Math", "2025-09-01"))
}

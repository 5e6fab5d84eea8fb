package attendance

import (
	"regexp"
	"strings"
)

var (
	dateHeaderRe = regexp.MustCompile(`(?i)DATE:\s*(\d{1,2}[/\-]\d{1,2}[/\-]\d{2,4})`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// normalizeDate converts a D/M/Y token (slash or dash delimited) into
// YYYY-MM-DD. Fields are taken day-first, a 2-digit year becomes 20YY and
// single digits are zero-padded. There is no calendar validity check:
// 31/02/2025 passes through verbatim. The OCR prompt asks for DD/MM/YYYY,
// so dates are always read day-first.
func normalizeDate(token string) (string, bool) {
	parts := strings.FieldsFunc(token, func(r rune) bool {
		return r == '/' || r == '-'
	})
	if len(parts) != 3 {
		return "", false
	}

	day := zeroPad(parts[0])
	month := zeroPad(parts[1])
	year := parts[2]
	if len(year) == 2 {
		year = "20" + year
	}

	return year + "-" + month + "-" + day, true
}

func zeroPad(field string) string {
	if len(field) == 1 {
		return "0" + field
	}
	return field
}

// statusPrefix matches a status word case-insensitively as a prefix of the
// field, tolerating trailing OCR junk ("present.", "Late (note)").
func statusPrefix(field string) (Status, bool) {
	f := strings.ToLower(strings.TrimSpace(field))
	for _, s := range []Status{StatusPresent, StatusAbsent, StatusLate} {
		if strings.HasPrefix(f, string(s)) {
			return s, true
		}
	}
	return "", false
}

// ParseSheet scans OCR output line by line and extracts attendance entries.
//
// A DATE: header sets the date for all following lines until the next header
// or end of input; the cursor starts at fallbackDate so headerless sheets
// still parse. Two line shapes produce entries:
//
//	101 | John Doe | present        (roll | name | status)
//	John Doe: present               (name: status, synthetic roll id)
//
// Lines matching neither shape are OCR noise and are skipped silently.
// ParseSheet never fails; malformed input degrades to fewer entries, and the
// caller decides whether zero entries is an error.
func ParseSheet(raw string, fallbackDate string, className string) []Entry {
	currentDate := fallbackDate
	var entries []Entry

	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		// A date header never itself produces an entry.
		if m := dateHeaderRe.FindStringSubmatch(line); m != nil {
			if date, ok := normalizeDate(m[1]); ok {
				currentDate = date
			}
			continue
		}

		// Primary pattern: roll | name | status
		if parts := strings.SplitN(line, "|", 3); len(parts) == 3 {
			if status, ok := statusPrefix(parts[2]); ok {
				entries = append(entries, Entry{
					StudentID:   strings.TrimSpace(parts[0]),
					StudentName: strings.TrimSpace(parts[1]),
					ClassName:   className,
					Date:        currentDate,
					Status:      status,
				})
				continue
			}
		}

		// Fallback pattern: name: status
		if name, rest, found := strings.Cut(line, ":"); found {
			if status, ok := ParseStatus(rest); ok {
				name = strings.TrimSpace(name)
				entries = append(entries, Entry{
					StudentID:   whitespaceRe.ReplaceAllString(strings.ToLower(name), "_"),
					StudentName: name,
					ClassName:   className,
					Date:        currentDate,
					Status:      status,
				})
			}
		}
	}

	return entries
}

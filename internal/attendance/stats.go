package attendance

import "sort"

// AggregateByClass groups one student's records by class and counts statuses.
// Classes appear in first-seen order; a class with zero records is never
// emitted. Percentage is present/total*100 over that student's own records.
func AggregateByClass(records []Record) []ClassStat {
	index := make(map[string]int)
	var stats []ClassStat

	for _, r := range records {
		i, ok := index[r.ClassName]
		if !ok {
			i = len(stats)
			index[r.ClassName] = i
			stats = append(stats, ClassStat{ClassName: r.ClassName})
		}

		switch r.Status {
		case StatusPresent:
			stats[i].Present++
		case StatusAbsent:
			stats[i].Absent++
		case StatusLate:
			stats[i].Late++
		}
		stats[i].Total++
	}

	for i := range stats {
		stats[i].Percentage = float64(stats[i].Present) / float64(stats[i].Total) * 100
	}

	return stats
}

// Overall sums a student's records across all classes.
func Overall(records []Record) OverallStat {
	var stat OverallStat
	for _, r := range records {
		if r.Status == StatusPresent {
			stat.Present++
		}
		stat.Total++
	}
	if stat.Total > 0 {
		stat.Percentage = float64(stat.Present) / float64(stat.Total) * 100
	}
	return stat
}

// AggregateReport computes a roster report over records already filtered to a
// single class (and optional date range). The denominator for every student is
// the number of distinct session dates in the set, not the count of that
// student's own records: any session with no explicit record for a student is
// filled in as an absence, so spotty OCR coverage cannot silently shrink a
// student's denominator.
//
// Rows come back sorted by roll number so the exported report is
// deterministic.
func AggregateReport(records []Record) []StudentStat {
	sessions := make(map[string]struct{})
	for _, r := range records {
		sessions[r.AttendanceDate] = struct{}{}
	}
	totalClasses := len(sessions)

	index := make(map[string]int)
	var stats []StudentStat

	for _, r := range records {
		i, ok := index[r.StudentID]
		if !ok {
			i = len(stats)
			index[r.StudentID] = i
			stats = append(stats, StudentStat{
				StudentID:    r.StudentID,
				StudentName:  r.StudentName,
				TotalClasses: totalClasses,
			})
		}

		switch r.Status {
		case StatusPresent:
			stats[i].Present++
		case StatusAbsent:
			stats[i].Absent++
		case StatusLate:
			stats[i].Late++
		}
	}

	for i := range stats {
		s := &stats[i]
		if marked := s.Present + s.Absent + s.Late; marked < totalClasses {
			s.Absent += totalClasses - marked
		}
		s.Percentage = float64(s.Present) / float64(totalClasses) * 100
	}

	sort.Slice(stats, func(i, j int) bool {
		return stats[i].StudentID < stats[j].StudentID
	})

	return stats
}

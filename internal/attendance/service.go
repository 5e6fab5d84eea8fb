package attendance

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/Bhavana10-bit/scantrack-guardian/internal/messaging"
	"github.com/Bhavana10-bit/scantrack-guardian/internal/metrics"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNoRecords    = errors.New("no attendance records found")
)

// Publisher sends attendance events to the configured message broker.
type Publisher interface {
	Publish(ctx context.Context, key string, value interface{}) error
}

// ReconcileResult reports how a batch of entries was applied.
type ReconcileResult struct {
	Inserted int `json:"inserted"`
	Updated  int `json:"updated"`
}

// StudentOverview is the per-student attendance view: per-class breakdown,
// overall totals and the most recent records.
type StudentOverview struct {
	Classes []ClassStat `json:"classes"`
	Overall OverallStat `json:"overall"`
	Recent  []Record    `json:"recent"`
}

type Service interface {
	SaveManual(ctx context.Context, entries []Entry) (ReconcileResult, error)
	History(ctx context.Context, filter Filter) ([]Record, error)
	StudentOverview(ctx context.Context, studentID string) (*StudentOverview, error)
	ClassReport(ctx context.Context, className, startDate, endDate string) ([]StudentStat, error)
	DashboardStats(ctx context.Context) (*DashboardStats, error)
}

type service struct {
	repo     Repository
	producer Publisher
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

func NewService(repo Repository, producer Publisher, logger *slog.Logger, m *metrics.Metrics) Service {
	return &service{
		repo:     repo,
		producer: producer,
		logger:   logger,
		metrics:  m,
	}
}

// SaveManual reconciles manually entered attendance against the store, one
// entry at a time in submission order. For each (student, date, class) key:
// if records exist they are all updated in place, otherwise a new record is
// inserted with no scan reference.
//
// The existence check and the write are separate store calls, not one
// transaction. Two concurrent saves for the same key can both observe "no
// record" and both insert; that race is inherited from the original design
// and left in place rather than papered over with a uniqueness constraint.
func (s *service) SaveManual(ctx context.Context, entries []Entry) (ReconcileResult, error) {
	var result ReconcileResult

	if len(entries) == 0 {
		return result, ErrInvalidInput
	}
	for _, e := range entries {
		if e.StudentID == "" || e.StudentName == "" || e.ClassName == "" || e.Date == "" {
			return result, ErrInvalidInput
		}
		if _, ok := ParseStatus(string(e.Status)); !ok {
			return result, ErrInvalidInput
		}
	}

	for _, e := range entries {
		existing, err := s.repo.FindByKey(ctx, e.StudentID, e.Date, e.ClassName)
		if err != nil {
			return result, err
		}

		if len(existing) > 0 {
			if _, err := s.repo.UpdateByKey(ctx, e.StudentID, e.Date, e.ClassName, e.StudentName, e.Status); err != nil {
				return result, err
			}
			result.Updated++
		} else {
			record := &Record{
				ScanID:         nil,
				StudentID:      e.StudentID,
				StudentName:    e.StudentName,
				ClassName:      e.ClassName,
				AttendanceDate: e.Date,
				Status:         e.Status,
			}
			if err := s.repo.Insert(ctx, record); err != nil {
				return result, err
			}
			result.Inserted++
		}
	}

	s.metrics.RecordReconciliation(ctx, "manual", result.Inserted, result.Updated)
	s.publishRecorded(ctx, entries[0].ClassName, entries[0].Date, result)

	return result, nil
}

func (s *service) History(ctx context.Context, filter Filter) ([]Record, error) {
	return s.repo.List(ctx, filter)
}

func (s *service) StudentOverview(ctx context.Context, studentID string) (*StudentOverview, error) {
	if studentID == "" {
		return nil, ErrInvalidInput
	}

	records, err := s.repo.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}

	recent := records
	if len(recent) > 10 {
		recent = recent[:10]
	}

	return &StudentOverview{
		Classes: AggregateByClass(records),
		Overall: Overall(records),
		Recent:  recent,
	}, nil
}

// ClassReport filters records to one class (and optional inclusive date
// range) and aggregates them with absence-filling. An empty filtered set is
// ErrNoRecords: a class with zero sessions never reaches the aggregator.
func (s *service) ClassReport(ctx context.Context, className, startDate, endDate string) ([]StudentStat, error) {
	if className == "" {
		return nil, ErrInvalidInput
	}

	records, err := s.repo.ListByClass(ctx, className, startDate, endDate)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, ErrNoRecords
	}

	s.metrics.RecordReportGenerated(ctx)

	return AggregateReport(records), nil
}

func (s *service) DashboardStats(ctx context.Context) (*DashboardStats, error) {
	totalStudents, err := s.repo.CountDistinctStudents(ctx)
	if err != nil {
		return nil, err
	}

	activeClasses, err := s.repo.CountDistinctClasses(ctx)
	if err != nil {
		return nil, err
	}

	today := time.Now().Format("2006-01-02")
	todayRecords, err := s.repo.ListByDate(ctx, today)
	if err != nil {
		return nil, err
	}

	// A student marked in several classes today counts once per status.
	presentToday := make(map[string]struct{})
	absentToday := make(map[string]struct{})
	for _, r := range todayRecords {
		switch r.Status {
		case StatusPresent:
			presentToday[r.StudentID] = struct{}{}
		case StatusAbsent:
			absentToday[r.StudentID] = struct{}{}
		}
	}

	return &DashboardStats{
		TotalStudents: totalStudents,
		PresentToday:  len(presentToday),
		AbsentToday:   len(absentToday),
		ActiveClasses: activeClasses,
	}, nil
}

// publishRecorded emits an attendance.recorded event. Best-effort: a broker
// failure is logged, never surfaced to the caller.
func (s *service) publishRecorded(ctx context.Context, className, date string, result ReconcileResult) {
	if s.producer == nil {
		return
	}

	event := messaging.RecordedEvent{
		Source:         messaging.SourceManual,
		ClassName:      className,
		AttendanceDate: date,
		Inserted:       result.Inserted,
		Updated:        result.Updated,
	}
	if err := s.producer.Publish(ctx, className, event); err != nil {
		s.logger.WarnContext(ctx, "failed to publish attendance event", "error", err)
	}
}

package attendance

import (
	"context"
	"time"

	"github.com/Bhavana10-bit/scantrack-guardian/internal/metrics"

	"github.com/uptrace/bun"
)

// Filter narrows history queries. Zero-value fields are ignored. Dates are
// inclusive YYYY-MM-DD bounds; the store only ever needs equality and range
// filters on these columns.
type Filter struct {
	StudentID string
	ClassName string
	StartDate string
	EndDate   string
}

type Repository interface {
	Insert(ctx context.Context, record *Record) error
	InsertBatch(ctx context.Context, records []*Record) error
	FindByKey(ctx context.Context, studentID, date, className string) ([]Record, error)
	UpdateByKey(ctx context.Context, studentID, date, className, studentName string, status Status) (int64, error)
	List(ctx context.Context, filter Filter) ([]Record, error)
	ListByStudent(ctx context.Context, studentID string) ([]Record, error)
	ListByClass(ctx context.Context, className, startDate, endDate string) ([]Record, error)
	ListByDate(ctx context.Context, date string) ([]Record, error)
	CountDistinctStudents(ctx context.Context) (int, error)
	CountDistinctClasses(ctx context.Context) (int, error)
}

type repository struct {
	db      *bun.DB
	metrics *metrics.Metrics
}

func NewRepository(db *bun.DB, m *metrics.Metrics) Repository {
	return &repository{
		db:      db,
		metrics: m,
	}
}

func (r *repository) Insert(ctx context.Context, record *Record) error {
	start := time.Now()
	_, err := r.db.NewInsert().Model(record).Returning("*").Exec(ctx)

	r.metrics.RecordQuery(ctx, "insert", "attendance_records", time.Since(start), err)

	return err
}

func (r *repository) InsertBatch(ctx context.Context, records []*Record) error {
	if len(records) == 0 {
		return nil
	}

	start := time.Now()
	_, err := r.db.NewInsert().Model(&records).Exec(ctx)

	r.metrics.RecordQuery(ctx, "insert", "attendance_records", time.Since(start), err)

	return err
}

func (r *repository) FindByKey(ctx context.Context, studentID, date, className string) ([]Record, error) {
	start := time.Now()
	var records []Record
	err := r.db.NewSelect().
		Model(&records).
		Where("student_id = ?", studentID).
		Where("attendance_date = ?", date).
		Where("class_name = ?", className).
		Scan(ctx)

	r.metrics.RecordQuery(ctx, "select", "attendance_records", time.Since(start), err)

	return records, err
}

// UpdateByKey overwrites name and status on every record matching the key,
// not just one. Repeated manual saves can leave accidental duplicates behind
// (the check-then-write is not transactional); updating collectively repairs
// them instead of multiplying them.
func (r *repository) UpdateByKey(ctx context.Context, studentID, date, className, studentName string, status Status) (int64, error) {
	start := time.Now()
	result, err := r.db.NewUpdate().
		Model((*Record)(nil)).
		Set("student_name = ?", studentName).
		Set("status = ?", status).
		Where("student_id = ?", studentID).
		Where("attendance_date = ?", date).
		Where("class_name = ?", className).
		Exec(ctx)

	r.metrics.RecordQuery(ctx, "update", "attendance_records", time.Since(start), err)

	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *repository) List(ctx context.Context, filter Filter) ([]Record, error) {
	start := time.Now()
	var records []Record

	q := r.db.NewSelect().Model(&records)
	if filter.StudentID != "" {
		q = q.Where("student_id = ?", filter.StudentID)
	}
	if filter.ClassName != "" {
		q = q.Where("class_name = ?", filter.ClassName)
	}
	if filter.StartDate != "" {
		q = q.Where("attendance_date >= ?", filter.StartDate)
	}
	if filter.EndDate != "" {
		q = q.Where("attendance_date <= ?", filter.EndDate)
	}
	err := q.Order("attendance_date DESC").Order("id ASC").Scan(ctx)

	r.metrics.RecordQuery(ctx, "select", "attendance_records", time.Since(start), err)

	return records, err
}

func (r *repository) ListByStudent(ctx context.Context, studentID string) ([]Record, error) {
	start := time.Now()
	var records []Record
	err := r.db.NewSelect().
		Model(&records).
		Where("student_id = ?", studentID).
		Order("attendance_date DESC").
		Scan(ctx)

	r.metrics.RecordQuery(ctx, "select", "attendance_records", time.Since(start), err)

	return records, err
}

func (r *repository) ListByClass(ctx context.Context, className, startDate, endDate string) ([]Record, error) {
	start := time.Now()
	var records []Record

	q := r.db.NewSelect().
		Model(&records).
		Where("class_name = ?", className)
	if startDate != "" {
		q = q.Where("attendance_date >= ?", startDate)
	}
	if endDate != "" {
		q = q.Where("attendance_date <= ?", endDate)
	}
	err := q.Order("attendance_date DESC").Scan(ctx)

	r.metrics.RecordQuery(ctx, "select", "attendance_records", time.Since(start), err)

	return records, err
}

func (r *repository) ListByDate(ctx context.Context, date string) ([]Record, error) {
	start := time.Now()
	var records []Record
	err := r.db.NewSelect().
		Model(&records).
		Where("attendance_date = ?", date).
		Scan(ctx)

	r.metrics.RecordQuery(ctx, "select", "attendance_records", time.Since(start), err)

	return records, err
}

func (r *repository) CountDistinctStudents(ctx context.Context) (int, error) {
	start := time.Now()
	var count int
	err := r.db.NewSelect().
		Model((*Record)(nil)).
		ColumnExpr("count(DISTINCT student_id)").
		Scan(ctx, &count)

	r.metrics.RecordQuery(ctx, "select", "attendance_records", time.Since(start), err)

	return count, err
}

func (r *repository) CountDistinctClasses(ctx context.Context) (int, error) {
	start := time.Now()
	var count int
	err := r.db.NewSelect().
		Model((*Record)(nil)).
		ColumnExpr("count(DISTINCT class_name)").
		Scan(ctx, &count)

	r.metrics.RecordQuery(ctx, "select", "attendance_records", time.Since(start), err)

	return count, err
}

package scan

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Bhavana10-bit/scantrack-guardian/internal/metrics"

	"github.com/uptrace/bun"
)

var ErrScanNotFound = errors.New("scan not found")

type Repository interface {
	Insert(ctx context.Context, scan *Scan) error
	GetByID(ctx context.Context, id int64) (*Scan, error)
	ListByTeacher(ctx context.Context, teacherID string) ([]Scan, error)
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

func (r *repository) Insert(ctx context.Context, scan *Scan) error {
	start := time.Now()
	_, err := r.db.NewInsert().Model(scan).Returning("*").Exec(ctx)

	r.metrics.RecordQuery(ctx, "insert", "ocr_scans", time.Since(start), err)

	return err
}

func (r *repository) GetByID(ctx context.Context, id int64) (*Scan, error) {
	start := time.Now()
	scan := new(Scan)
	err := r.db.NewSelect().Model(scan).Where("id = ?", id).Scan(ctx)

	r.metrics.RecordQuery(ctx, "select", "ocr_scans", time.Since(start), err)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrScanNotFound
		}
		return nil, err
	}
	return scan, nil
}

func (r *repository) ListByTeacher(ctx context.Context, teacherID string) ([]Scan, error) {
	start := time.Now()
	var scans []Scan
	err := r.db.NewSelect().
		Model(&scans).
		Where("teacher_id = ?", teacherID).
		Order("created_at DESC").
		Scan(ctx)

	r.metrics.RecordQuery(ctx, "select", "ocr_scans", time.Since(start), err)

	return scans, err
}

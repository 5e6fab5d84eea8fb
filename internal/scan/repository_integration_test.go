package scan_test

import (
	"context"
	"testing"

	"github.com/Bhavana10-bit/scantrack-guardian/internal/metrics"
	"github.com/Bhavana10-bit/scantrack-guardian/internal/scan"
	"github.com/Bhavana10-bit/scantrack-guardian/testing/testdb"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanRepositoryIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	pgContainer := testdb.SetupSharedPostgres(t)
	defer pgContainer.Cleanup(t)

	pgContainer.RunMigrations(t, (*scan.Scan)(nil))

	repo := scan.NewRepository(pgContainer.DB, metrics.NewMock())
	ctx := context.Background()

	t.Run("InsertAndGet", func(t *testing.T) {
		testdb.CleanupTables(t, pgContainer.DB, "ocr_scans")

		s := &scan.Scan{
			TeacherID:     "teacher-1",
			ClassName:     "Math",
			ExtractedText: "DATE: 01/09/2025\n101|John|present",
		}
		require.NoError(t, repo.Insert(ctx, s))
		require.NotZero(t, s.ID)

		got, err := repo.GetByID(ctx, s.ID)
		require.NoError(t, err)
		assert.Equal(t, s.ExtractedText, got.ExtractedText)
		assert.False(t, got.CreatedAt.IsZero())
	})

	t.Run("GetMissing", func(t *testing.T) {
		testdb.CleanupTables(t, pgContainer.DB, "ocr_scans")

		_, err := repo.GetByID(ctx, 999)
		assert.ErrorIs(t, err, scan.ErrScanNotFound)
	})

	t.Run("ListByTeacherFiltersOwner", func(t *testing.T) {
		testdb.CleanupTables(t, pgContainer.DB, "ocr_scans")

		for _, text := range []string{"first sheet", "second sheet"} {
			require.NoError(t, repo.Insert(ctx, &scan.Scan{
				TeacherID:     "teacher-1",
				ClassName:     "Math",
				ExtractedText: text,
			}))
		}
		require.NoError(t, repo.Insert(ctx, &scan.Scan{
			TeacherID:     "teacher-2",
			ClassName:     "Physics",
			ExtractedText: "other teacher",
		}))

		scans, err := repo.ListByTeacher(ctx, "teacher-1")
		require.NoError(t, err)
		require.Len(t, scans, 2)
		for _, s := range scans {
			assert.Equal(t, "teacher-1", s.TeacherID)
		}
	})
}

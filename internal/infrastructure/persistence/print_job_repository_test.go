package persistence

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/nfce/danfe/internal/domain/printing"
	"github.com/nfce/danfe/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newJob(t *testing.T, action printing.JobAction, printer string) *printing.PrintJob {
	t.Helper()
	job, err := printing.NewPrintJob(action, printer, "nfe.xml")
	require.NoError(t, err)
	return job
}

func TestGormPrintJobRepository_SaveAndFind(t *testing.T) {
	repo := NewGormPrintJobRepository(newSQLiteDatabase(t).DB)
	ctx := context.Background()

	job := newJob(t, printing.JobActionPrintDocument, "Microsoft Print to PDF")
	job.SetDocumentNumber("123")
	require.NoError(t, repo.Save(ctx, job))

	require.NoError(t, job.StartSubmitting())
	require.NoError(t, job.Complete())
	require.NoError(t, repo.Save(ctx, job))

	found, err := repo.FindByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, job.ID, found.ID)
	assert.Equal(t, printing.JobActionPrintDocument, found.Action)
	assert.Equal(t, "Microsoft Print to PDF", found.PrinterName)
	assert.Equal(t, "nfe.xml", found.Source)
	assert.Equal(t, "123", found.DocumentNumber)
	assert.Equal(t, printing.JobStatusCompleted, found.Status)
	require.NotNil(t, found.SubmittedAt)
	require.NotNil(t, found.FinishedAt)

	count, err := repo.Count(ctx, printing.PrintJobFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestGormPrintJobRepository_FindByID_NotFound(t *testing.T) {
	repo := NewGormPrintJobRepository(newSQLiteDatabase(t).DB)

	_, err := repo.FindByID(context.Background(), uuid.New())
	assert.True(t, errors.Is(err, shared.ErrNotFound))
}

func TestGormPrintJobRepository_FindAll(t *testing.T) {
	repo := NewGormPrintJobRepository(newSQLiteDatabase(t).DB)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	var ids []uuid.UUID
	for i, printer := range []string{"Caixa 01", "Caixa 02", "Caixa 01"} {
		action := printing.JobActionPrintDocument
		if i == 1 {
			action = printing.JobActionPrintFile
		}
		job := newJob(t, action, printer)
		job.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		if i == 2 {
			require.NoError(t, job.Fail("Printer is offline"))
		}
		require.NoError(t, repo.Save(ctx, job))
		ids = append(ids, job.ID)
	}

	t.Run("most recent first by default", func(t *testing.T) {
		jobs, err := repo.FindAll(ctx, printing.PrintJobFilter{})
		require.NoError(t, err)
		require.Len(t, jobs, 3)
		assert.Equal(t, ids[2], jobs[0].ID)
		assert.Equal(t, ids[0], jobs[2].ID)
	})

	t.Run("ascending order", func(t *testing.T) {
		jobs, err := repo.FindAll(ctx, printing.PrintJobFilter{
			Filter: shared.Filter{OrderBy: "created_at", OrderDir: "asc"},
		})
		require.NoError(t, err)
		require.Len(t, jobs, 3)
		assert.Equal(t, ids[0], jobs[0].ID)
	})

	t.Run("by printer", func(t *testing.T) {
		jobs, err := repo.FindAll(ctx, printing.PrintJobFilter{PrinterName: "Caixa 01"})
		require.NoError(t, err)
		assert.Len(t, jobs, 2)
	})

	t.Run("by status and action", func(t *testing.T) {
		failed := printing.JobStatusFailed
		jobs, err := repo.FindAll(ctx, printing.PrintJobFilter{Status: &failed})
		require.NoError(t, err)
		require.Len(t, jobs, 1)
		assert.Equal(t, "Printer is offline", jobs[0].ErrorMessage)

		file := printing.JobActionPrintFile
		count, err := repo.Count(ctx, printing.PrintJobFilter{Action: &file})
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})

	t.Run("pagination", func(t *testing.T) {
		jobs, err := repo.FindAll(ctx, printing.PrintJobFilter{
			Filter: shared.Filter{Page: 2, PageSize: 2},
		})
		require.NoError(t, err)
		require.Len(t, jobs, 1)
		assert.Equal(t, ids[0], jobs[0].ID)
	})
}

func TestGormPrintJobRepository_DeleteOlderThan(t *testing.T) {
	repo := NewGormPrintJobRepository(newSQLiteDatabase(t).DB)
	ctx := context.Background()

	old := newJob(t, printing.JobActionPrintFile, "Caixa 01")
	old.CreatedAt = time.Now().AddDate(0, 0, -40)
	require.NoError(t, repo.Save(ctx, old))

	recent := newJob(t, printing.JobActionPrintFile, "Caixa 01")
	require.NoError(t, repo.Save(ctx, recent))

	deleted, err := repo.DeleteOlderThan(ctx, 30)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	_, err = repo.FindByID(ctx, old.ID)
	assert.True(t, errors.Is(err, shared.ErrNotFound))
	_, err = repo.FindByID(ctx, recent.ID)
	assert.NoError(t, err)
}

func TestGormPrintJobRepository_DatabaseErrors(t *testing.T) {
	db, mock, mockDB := newMockDatabase(t)
	defer mockDB.Close()
	repo := NewGormPrintJobRepository(db.DB)
	ctx := context.Background()

	t.Run("find all propagates query error", func(t *testing.T) {
		mock.ExpectQuery(`SELECT \* FROM "print_jobs"`).
			WillReturnError(errors.New("connection reset by peer"))

		_, err := repo.FindAll(ctx, printing.PrintJobFilter{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "connection reset")
	})

	t.Run("find by id maps empty result to not found", func(t *testing.T) {
		mock.ExpectQuery(`SELECT \* FROM "print_jobs" WHERE id = \$1`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		_, err := repo.FindByID(ctx, uuid.New())
		assert.True(t, errors.Is(err, shared.ErrNotFound))
	})

	t.Run("count propagates query error", func(t *testing.T) {
		mock.ExpectQuery(`SELECT count\(\*\) FROM "print_jobs"`).
			WillReturnError(errors.New("timeout"))

		_, err := repo.Count(ctx, printing.PrintJobFilter{})
		assert.Error(t, err)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

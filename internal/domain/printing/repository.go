package printing

import (
	"context"

	"github.com/google/uuid"
	"github.com/nfce/danfe/internal/domain/shared"
)

// PrintJobRepository defines the interface for print job persistence
type PrintJobRepository interface {
	// FindByID finds a job by ID
	FindByID(ctx context.Context, id uuid.UUID) (*PrintJob, error)

	// FindAll finds jobs, most recent first by default
	FindAll(ctx context.Context, filter PrintJobFilter) ([]PrintJob, error)

	// Count returns the total count of jobs matching the filter
	Count(ctx context.Context, filter PrintJobFilter) (int64, error)

	// Save saves a job (insert or update)
	Save(ctx context.Context, job *PrintJob) error

	// DeleteOlderThan deletes jobs older than the specified number of days
	DeleteOlderThan(ctx context.Context, days int) (int64, error)
}

// PrintJobFilter extends the standard filter with print job specific criteria
type PrintJobFilter struct {
	shared.Filter
	Action      *JobAction // Filter by action
	Status      *JobStatus // Filter by status
	PrinterName string     // Filter by printer
}

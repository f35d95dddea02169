package printing

import (
	"time"

	"github.com/nfce/danfe/internal/domain/shared"
)

// PrintJob is the history entry of one print action submitted to the bridge.
// It records what was printed and how it ended; the fiscal document
// itself is never stored.
type PrintJob struct {
	shared.BaseEntity
	Action         JobAction  // Which entry point produced the job
	PrinterName    string     // Target printer
	Source         string     // XML or PDF location that was printed
	DocumentNumber string     // nNF of the printed document, empty for PDF files
	Status         JobStatus  // Current job status
	ErrorMessage   string     // Error message if job failed
	SubmittedAt    *time.Time // When the payload was sent to the bridge
	FinishedAt     *time.Time // When the job reached a terminal status
}

// NewPrintJob creates a new pending print job
func NewPrintJob(action JobAction, printerName, source string) (*PrintJob, error) {
	if !action.IsValid() {
		return nil, shared.NewDomainError("INVALID_ACTION", "Invalid print action")
	}
	if printerName == "" {
		return nil, shared.NewDomainError("INVALID_PRINTER", "Printer name cannot be empty")
	}
	return &PrintJob{
		BaseEntity:  shared.NewBaseEntity(),
		Action:      action,
		PrinterName: printerName,
		Source:      source,
		Status:      JobStatusPending,
	}, nil
}

// SetDocumentNumber records the fiscal number of the printed document
func (j *PrintJob) SetDocumentNumber(number string) {
	j.DocumentNumber = number
	j.Touch()
}

// StartSubmitting marks the job as sent to the bridge
func (j *PrintJob) StartSubmitting() error {
	if !j.Status.CanTransitionTo(JobStatusSubmitting) {
		return shared.NewDomainError("INVALID_STATE",
			"Cannot submit from status: "+j.Status.String())
	}
	now := j.Touch()
	j.Status = JobStatusSubmitting
	j.SubmittedAt = &now
	return nil
}

// Complete marks the job as accepted by the bridge
func (j *PrintJob) Complete() error {
	if !j.Status.CanTransitionTo(JobStatusCompleted) {
		return shared.NewDomainError("INVALID_STATE",
			"Cannot complete from status: "+j.Status.String())
	}
	now := j.Touch()
	j.Status = JobStatusCompleted
	j.FinishedAt = &now
	return nil
}

// Fail marks the job as failed with an error message
func (j *PrintJob) Fail(errorMessage string) error {
	if j.Status.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE",
			"Cannot fail a job that is already in terminal status: "+j.Status.String())
	}
	now := j.Touch()
	j.Status = JobStatusFailed
	j.ErrorMessage = errorMessage
	j.FinishedAt = &now
	return nil
}

// IsTerminal returns true if the job is in a terminal state
func (j *PrintJob) IsTerminal() bool {
	return j.Status.IsTerminal()
}

// Duration returns how long the job took from creation to its terminal status
func (j *PrintJob) Duration() time.Duration {
	if j.FinishedAt == nil {
		return 0
	}
	return j.FinishedAt.Sub(j.CreatedAt)
}

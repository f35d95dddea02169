package printing

import (
	"time"

	"github.com/google/uuid"
	"github.com/nfce/danfe/internal/domain/printing"
)

// PrintDocumentRequest selects the NFCe XML to print.
// XML takes precedence over Source; an empty Source uses the configured path.
type PrintDocumentRequest struct {
	Source string
	XML    []byte
}

// PrintDocumentResult describes a DANFE accepted by the bridge
type PrintDocumentResult struct {
	JobID          uuid.UUID `json:"job_id"`
	DocumentNumber string    `json:"document_number"`
	Printer        string    `json:"printer"`
	Preview        string    `json:"preview"`
}

// PrintFileRequest selects the pre-rendered PDF; empty uses the configured path
type PrintFileRequest struct {
	Path string
}

// PrintFileResult describes a PDF accepted by the bridge
type PrintFileResult struct {
	JobID   uuid.UUID `json:"job_id"`
	Printer string    `json:"printer"`
	Path    string    `json:"path"`
}

// PreviewRequest selects the NFCe XML to render, like PrintDocumentRequest
type PreviewRequest struct {
	Source string
	XML    []byte
}

// PreviewResult is a rendered DANFE fragment
type PreviewResult struct {
	DocumentNumber string `json:"document_number"`
	HTML           string `json:"html"`
}

// ExportRequest selects the NFCe XML to export; Print also submits the
// exported file to the configured printer
type ExportRequest struct {
	Source string
	XML    []byte
	Print  bool
}

// ExportResult describes a stored DANFE PDF
type ExportResult struct {
	DocumentNumber string           `json:"document_number"`
	Path           string           `json:"path"`
	AbsPath        string           `json:"abs_path"`
	URL            string           `json:"url"`
	Size           int64            `json:"size"`
	PageCount      int              `json:"page_count"`
	Printed        *PrintFileResult `json:"printed,omitempty"`
}

// ListJobsRequest filters the print history
type ListJobsRequest struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	Action   string `form:"action" binding:"omitempty,oneof=PRINT_DOCUMENT PRINT_FILE"`
	Status   string `form:"status" binding:"omitempty,oneof=PENDING SUBMITTING COMPLETED FAILED"`
	Printer  string `form:"printer"`
}

// PrintJobResponse is one print history entry
type PrintJobResponse struct {
	ID             string     `json:"id"`
	Action         string     `json:"action"`
	ActionName     string     `json:"action_name"`
	PrinterName    string     `json:"printer_name"`
	Source         string     `json:"source"`
	DocumentNumber string     `json:"document_number,omitempty"`
	Status         string     `json:"status"`
	ErrorMessage   string     `json:"error_message,omitempty"`
	SubmittedAt    *time.Time `json:"submitted_at,omitempty"`
	FinishedAt     *time.Time `json:"finished_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// ListJobsResponse is a page of print history
type ListJobsResponse struct {
	Jobs     []PrintJobResponse `json:"jobs"`
	Total    int64              `json:"total"`
	Page     int                `json:"page"`
	PageSize int                `json:"page_size"`
}

func toPrintJobResponse(job *printing.PrintJob) PrintJobResponse {
	return PrintJobResponse{
		ID:             job.ID.String(),
		Action:         job.Action.String(),
		ActionName:     job.Action.DisplayName(),
		PrinterName:    job.PrinterName,
		Source:         job.Source,
		DocumentNumber: job.DocumentNumber,
		Status:         job.Status.String(),
		ErrorMessage:   job.ErrorMessage,
		SubmittedAt:    job.SubmittedAt,
		FinishedAt:     job.FinishedAt,
		CreatedAt:      job.CreatedAt,
	}
}

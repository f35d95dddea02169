package printing

import (
	"context"
	"fmt"
	"time"

	"github.com/nfce/danfe/internal/domain/printing"
	"github.com/nfce/danfe/internal/domain/shared"
	"go.uber.org/zap"
)

// ListJobs returns a page of the print history, most recent first.
// Without a job repository the history is empty.
func (s *Service) ListJobs(ctx context.Context, req ListJobsRequest) (*ListJobsResponse, error) {
	filter := printing.PrintJobFilter{
		Filter:      shared.DefaultFilter(),
		PrinterName: req.Printer,
	}
	if req.Page > 0 {
		filter.Page = req.Page
	}
	if req.PageSize > 0 {
		filter.PageSize = req.PageSize
	}
	if req.Action != "" {
		action := printing.JobAction(req.Action)
		if !action.IsValid() {
			return nil, shared.NewDomainError("INVALID_INPUT", "Invalid action: "+req.Action)
		}
		filter.Action = &action
	}
	if req.Status != "" {
		status := printing.JobStatus(req.Status)
		if !status.IsValid() {
			return nil, shared.NewDomainError("INVALID_INPUT", "Invalid status: "+req.Status)
		}
		filter.Status = &status
	}

	resp := &ListJobsResponse{
		Jobs:     []PrintJobResponse{},
		Page:     filter.Page,
		PageSize: filter.PageSize,
	}
	if s.jobRepo == nil {
		return resp, nil
	}

	jobs, err := s.jobRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list print jobs: %w", err)
	}
	total, err := s.jobRepo.Count(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to count print jobs: %w", err)
	}

	for i := range jobs {
		resp.Jobs = append(resp.Jobs, toPrintJobResponse(&jobs[i]))
	}
	resp.Total = total
	return resp, nil
}

// PurgeHistory deletes print jobs and exported PDFs older than days
func (s *Service) PurgeHistory(ctx context.Context, days int) error {
	if days <= 0 {
		return nil
	}

	if s.jobRepo != nil {
		deleted, err := s.jobRepo.DeleteOlderThan(ctx, days)
		if err != nil {
			return fmt.Errorf("failed to purge print jobs: %w", err)
		}
		s.logger.Info("print history purged", zap.Int64("jobs", deleted), zap.Int("days", days))
	}

	if s.pdfStorage != nil {
		removed, err := s.pdfStorage.CleanupOlderThan(ctx, time.Duration(days)*24*time.Hour)
		if err != nil {
			return fmt.Errorf("failed to purge exported PDFs: %w", err)
		}
		s.logger.Info("exported PDFs purged", zap.Int("files", removed), zap.Int("days", days))
	}
	return nil
}

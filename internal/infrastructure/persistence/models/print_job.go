package models

import (
	"time"

	"github.com/nfce/danfe/internal/domain/printing"
)

// PrintJobModel is the GORM model for the print_jobs table
type PrintJobModel struct {
	BaseModel
	Action         string     `gorm:"type:varchar(20);not null"`
	PrinterName    string     `gorm:"column:printer_name;type:varchar(255);not null;index"`
	Source         string     `gorm:"type:text;not null;default:''"`
	DocumentNumber string     `gorm:"column:document_number;type:varchar(20);not null;default:''"`
	Status         string     `gorm:"type:varchar(20);not null;default:'PENDING';index"`
	ErrorMessage   string     `gorm:"column:error_message;type:text;not null;default:''"`
	SubmittedAt    *time.Time `gorm:"column:submitted_at"`
	FinishedAt     *time.Time `gorm:"column:finished_at"`
}

// TableName returns the table name for PrintJobModel
func (PrintJobModel) TableName() string {
	return "print_jobs"
}

// ToDomain converts PrintJobModel to domain PrintJob
func (m *PrintJobModel) ToDomain() *printing.PrintJob {
	return &printing.PrintJob{
		BaseEntity:     m.BaseModel.ToDomain(),
		Action:         printing.JobAction(m.Action),
		PrinterName:    m.PrinterName,
		Source:         m.Source,
		DocumentNumber: m.DocumentNumber,
		Status:         printing.JobStatus(m.Status),
		ErrorMessage:   m.ErrorMessage,
		SubmittedAt:    m.SubmittedAt,
		FinishedAt:     m.FinishedAt,
	}
}

// PrintJobModelFromDomain creates a PrintJobModel from domain PrintJob
func PrintJobModelFromDomain(j *printing.PrintJob) *PrintJobModel {
	m := &PrintJobModel{
		Action:         string(j.Action),
		PrinterName:    j.PrinterName,
		Source:         j.Source,
		DocumentNumber: j.DocumentNumber,
		Status:         string(j.Status),
		ErrorMessage:   j.ErrorMessage,
		SubmittedAt:    j.SubmittedAt,
		FinishedAt:     j.FinishedAt,
	}
	m.FromDomainBaseEntity(j.BaseEntity)
	return m
}

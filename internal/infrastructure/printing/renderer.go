package printing

import (
	"context"
	"strings"
	"time"

	"github.com/nfce/danfe/internal/domain/printing"
	"github.com/nfce/danfe/internal/domain/shared"
)

// RenderRequest contains the parameters for rendering HTML to PDF
type RenderRequest struct {
	// HTML content to render
	HTML string
	// PageWidth is the receipt roll width; the page height follows the content
	PageWidth printing.PageWidth
	// Orientation defines portrait or landscape
	Orientation printing.Orientation
	// MarginMM is applied to every side, in millimeters
	MarginMM float64
	// Title for the PDF document metadata
	Title string
	// Timeout overrides the default rendering timeout
	Timeout time.Duration
}

// RenderResult contains the output from PDF rendering
type RenderResult struct {
	// PDFData is the raw PDF file content
	PDFData []byte
	// PageCount is the number of pages in the PDF
	PageCount int
	// RenderDuration is how long the rendering took
	RenderDuration time.Duration
}

// PDFRenderer defines the interface for rendering HTML to PDF
type PDFRenderer interface {
	// Render converts HTML content to a PDF document
	Render(ctx context.Context, req *RenderRequest) (*RenderResult, error)
	// Close releases any resources held by the renderer
	Close() error
}

// RenderError represents an error during HTML or PDF rendering
type RenderError struct {
	Code    string
	Message string
	Cause   error
}

func (e *RenderError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *RenderError) Unwrap() error {
	return e.Cause
}

// Is makes every RenderError match printing.ErrRenderFailed
func (e *RenderError) Is(target error) bool {
	t, ok := target.(*shared.DomainError)
	return ok && t.Code == printing.CodeRenderFailed
}

// Error codes for rendering failures
const (
	ErrCodeRenderTimeout    = "RENDER_TIMEOUT"
	ErrCodeRenderFailed     = "RENDER_FAILED"
	ErrCodeInvalidHTML      = "INVALID_HTML"
	ErrCodeInvalidPageWidth = "INVALID_PAGE_WIDTH"
	ErrCodeStorageFailed    = "STORAGE_FAILED"
)

// NewRenderError creates a new RenderError
func NewRenderError(code, message string, cause error) *RenderError {
	return &RenderError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// validate checks a render request before a browser is started
func (req *RenderRequest) validate() error {
	if req == nil {
		return NewRenderError(ErrCodeInvalidHTML, "render request is nil", nil)
	}
	if strings.TrimSpace(req.HTML) == "" {
		return NewRenderError(ErrCodeInvalidHTML, "HTML content is empty", nil)
	}
	if _, err := printing.NewPageWidth(req.PageWidth.MM()); err != nil {
		return NewRenderError(ErrCodeInvalidPageWidth, "invalid page width: "+req.PageWidth.String(), err)
	}
	return nil
}

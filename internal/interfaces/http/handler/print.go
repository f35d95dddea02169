package handler

import (
	"context"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	printingapp "github.com/nfce/danfe/internal/application/printing"
	"github.com/nfce/danfe/internal/domain/printing"
)

// PrintService is the print workflow exposed over HTTP
type PrintService interface {
	Status() printing.Status
	IsReady() bool
	PreviewHTML() string
	Config() printingapp.ServiceConfig
	CheckBridge(ctx context.Context) bool
	PrintDocument(ctx context.Context, req printingapp.PrintDocumentRequest) (*printingapp.PrintDocumentResult, error)
	PrintFile(ctx context.Context, req printingapp.PrintFileRequest) (*printingapp.PrintFileResult, error)
	ListPrinters(ctx context.Context) ([]string, error)
	Preview(ctx context.Context, req printingapp.PreviewRequest) (*printingapp.PreviewResult, error)
	ExportPDF(ctx context.Context, req printingapp.ExportRequest) (*printingapp.ExportResult, error)
	ListJobs(ctx context.Context, req printingapp.ListJobsRequest) (*printingapp.ListJobsResponse, error)
	PurgeHistory(ctx context.Context, days int) error
}

// PrintHandler handles the NFCe print endpoints
type PrintHandler struct {
	BaseHandler
	service PrintService
}

// NewPrintHandler creates a new PrintHandler
func NewPrintHandler(service PrintService) *PrintHandler {
	return &PrintHandler{service: service}
}

// DocumentRequest selects the NFCe XML by location. An XML body
// (application/xml or text/xml) is used instead when sent.
type DocumentRequest struct {
	Source string `json:"source" binding:"omitempty,max=2048"`
	Print  bool   `json:"print"`
}

// PrintFileHTTPRequest selects the PDF to print
type PrintFileHTTPRequest struct {
	Path string `json:"path" binding:"omitempty,max=2048"`
}

// PurgeRequest selects how much history to keep
type PurgeRequest struct {
	OlderThanDays int `form:"older_than_days" binding:"required,min=1,max=3650"`
}

// StatusResponse is the status area plus the static print configuration
type StatusResponse struct {
	Ready     bool                 `json:"ready"`
	Level     printing.StatusLevel `json:"level"`
	Message   string               `json:"message"`
	UpdatedAt *time.Time           `json:"updated_at,omitempty"`
	Printer   string               `json:"printer"`
	PageWidth string               `json:"page_width"`
}

// PrintersResponse lists the printers known to QZ Tray
type PrintersResponse struct {
	Printers []string `json:"printers"`
	Message  string   `json:"message"`
}

// documentInput is a parsed DocumentRequest or XML body
type documentInput struct {
	source string
	xml    []byte
	print  bool
}

// bindDocument reads either an XML body or an optional JSON DocumentRequest.
// It writes the error response itself and returns false on failure.
func (h *PrintHandler) bindDocument(c *gin.Context) (documentInput, bool) {
	var in documentInput
	in.print = c.Query("print") == "true"

	if isXMLContent(c.GetHeader("Content-Type")) {
		data, err := io.ReadAll(c.Request.Body)
		if err != nil {
			h.HandleError(c, err)
			return in, false
		}
		if len(strings.TrimSpace(string(data))) == 0 {
			h.BadRequest(c, "XML body is empty")
			return in, false
		}
		in.xml = data
		return in, true
	}

	if c.Request.ContentLength == 0 {
		return in, true
	}

	var req DocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return in, false
	}
	in.source = req.Source
	in.print = in.print || req.Print
	return in, true
}

func isXMLContent(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "application/xml" || mediaType == "text/xml"
}

// GetStatus returns the status area
//
//	GET /status
func (h *PrintHandler) GetStatus(c *gin.Context) {
	st := h.service.Status()
	cfg := h.service.Config()

	resp := StatusResponse{
		Ready:     h.service.IsReady(),
		Level:     st.Level,
		Message:   st.Message,
		Printer:   cfg.PrinterName,
		PageWidth: cfg.PageWidth.String(),
	}
	if !st.UpdatedAt.IsZero() {
		resp.UpdatedAt = &st.UpdatedAt
	}
	h.Success(c, resp)
}

// CheckBridge re-probes QZ Tray and returns the refreshed status
//
//	POST /status/check
func (h *PrintHandler) CheckBridge(c *gin.Context) {
	h.service.CheckBridge(c.Request.Context())
	h.GetStatus(c)
}

// GetPreview returns the last rendered DANFE as an HTML page
//
//	GET /preview
func (h *PrintHandler) GetPreview(c *gin.Context) {
	html := h.service.PreviewHTML()
	if html == "" {
		h.NotFound(c, "Nenhuma pré-visualização disponível")
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))
}

// PostPreview renders the DANFE of an NFCe without printing it.
// format=html returns the fragment itself instead of JSON.
//
//	POST /preview
func (h *PrintHandler) PostPreview(c *gin.Context) {
	in, ok := h.bindDocument(c)
	if !ok {
		return
	}

	result, err := h.service.Preview(c.Request.Context(), printingapp.PreviewRequest{
		Source: in.source,
		XML:    in.xml,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	if c.Query("format") == "html" {
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(result.HTML))
		return
	}
	h.Success(c, result)
}

// PrintNFCe renders the DANFE of an NFCe and sends it to the configured printer
//
//	POST /print/nfce
func (h *PrintHandler) PrintNFCe(c *gin.Context) {
	in, ok := h.bindDocument(c)
	if !ok {
		return
	}

	result, err := h.service.PrintDocument(c.Request.Context(), printingapp.PrintDocumentRequest{
		Source: in.source,
		XML:    in.xml,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Accepted(c, result)
}

// PrintPDF sends a pre-rendered PDF to the configured printer
//
//	POST /print/pdf
func (h *PrintHandler) PrintPDF(c *gin.Context) {
	var req PrintFileHTTPRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.ValidationError(c, err)
			return
		}
	}

	result, err := h.service.PrintFile(c.Request.Context(), printingapp.PrintFileRequest{Path: req.Path})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Accepted(c, result)
}

// ExportPDF renders the DANFE to a stored PDF, optionally printing it
//
//	POST /export
func (h *PrintHandler) ExportPDF(c *gin.Context) {
	in, ok := h.bindDocument(c)
	if !ok {
		return
	}

	result, err := h.service.ExportPDF(c.Request.Context(), printingapp.ExportRequest{
		Source: in.source,
		XML:    in.xml,
		Print:  in.print,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// ListPrinters returns the printers known to QZ Tray
//
//	GET /printers
func (h *PrintHandler) ListPrinters(c *gin.Context) {
	printers, err := h.service.ListPrinters(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, PrintersResponse{
		Printers: printers,
		Message:  h.service.Status().Message,
	})
}

// ListJobs returns a page of print history
//
//	GET /jobs
func (h *PrintHandler) ListJobs(c *gin.Context) {
	var req printingapp.ListJobsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	result, err := h.service.ListJobs(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, result.Jobs, result.Total, result.Page, result.PageSize)
}

// PurgeJobs removes print history and exported PDFs older than N days
//
//	DELETE /jobs?older_than_days=N
func (h *PrintHandler) PurgeJobs(c *gin.Context) {
	var req PurgeRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	if err := h.service.PurgeHistory(c.Request.Context(), req.OlderThanDays); err != nil {
		h.HandleError(c, err)
		return
	}
	c.Header("X-Purged-Older-Than-Days", strconv.Itoa(req.OlderThanDays))
	h.NoContent(c)
}

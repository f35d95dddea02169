package printing

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/nfce/danfe/internal/domain/fiscal"
	"github.com/nfce/danfe/internal/domain/printing"
	"github.com/nfce/danfe/internal/domain/shared"
	"github.com/nfce/danfe/internal/infrastructure/lock"
	"github.com/nfce/danfe/internal/infrastructure/logger"
	infra "github.com/nfce/danfe/internal/infrastructure/printing"
	"github.com/nfce/danfe/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Status messages shown in the status area
const (
	StatusConnecting    = "Conectando ao QZ Tray..."
	StatusPreparing     = "Preparando impressão..."
	StatusReady         = "Pronto para imprimir. Clique no botão 'Imprimir NFCe'."
	StatusPrinted       = "NFCe enviada para impressão com sucesso!"
	StatusFilePrinted   = "PDF enviado para impressão com sucesso!"
	StatusPrintersTitle = "Impressoras disponíveis:"

	errorPrefixPrint = "Erro ao imprimir: "
	errorPrefix      = "Erro: "
)

const defaultLockTimeout = 30 * time.Second

// DocumentLoader reads the raw XML of a document source
type DocumentLoader interface {
	Load(ctx context.Context, source string) ([]byte, error)
}

// DocumentExtractor builds the fiscal record from NFe/NFCe XML
type DocumentExtractor interface {
	Extract(data []byte) (*fiscal.Document, error)
}

// DocumentRenderer renders the DANFE fragment of a fiscal record
type DocumentRenderer interface {
	Render(ctx context.Context, doc *fiscal.Document, width printing.PageWidth) (string, error)
}

// ServiceConfig is the static print configuration
type ServiceConfig struct {
	PrinterName string
	PageWidth   printing.PageWidth
	Options     printing.PrintOptions
	XMLPath     string
	PDFPath     string
}

func (c ServiceConfig) validate() error {
	if strings.TrimSpace(c.PrinterName) == "" {
		return shared.NewDomainError("INVALID_PRINTER", "Printer name cannot be empty")
	}
	if _, err := printing.NewPageWidth(c.PageWidth.MM()); err != nil {
		return err
	}
	return c.Options.Validate()
}

// Service runs the user-triggered print actions: print a DANFE from XML,
// print a PDF file, list printers, preview and export.
type Service struct {
	adapter   *Adapter
	loader    DocumentLoader
	extractor DocumentExtractor
	renderer  DocumentRenderer
	config    ServiceConfig

	lock        lock.ActionLock
	jobRepo     printing.PrintJobRepository
	pdfRenderer infra.PDFRenderer
	pdfStorage  infra.PDFStorage
	metrics     *telemetry.PrintMetrics
	logger      *zap.Logger

	ready   atomic.Bool
	mu      sync.RWMutex
	status  printing.Status
	preview string
}

// Option configures a Service
type Option func(*Service)

// WithActionLock sets the lock serializing print actions
func WithActionLock(l lock.ActionLock) Option {
	return func(s *Service) {
		s.lock = l
	}
}

// WithJobRepository records every print action in the history
func WithJobRepository(repo printing.PrintJobRepository) Option {
	return func(s *Service) {
		s.jobRepo = repo
	}
}

// WithPDFExport enables ExportPDF
func WithPDFExport(renderer infra.PDFRenderer, storage infra.PDFStorage) Option {
	return func(s *Service) {
		s.pdfRenderer = renderer
		s.pdfStorage = storage
	}
}

// WithMetrics sets the print metrics
func WithMetrics(m *telemetry.PrintMetrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		s.logger = l
	}
}

// NewService creates a new print Service
func NewService(
	bridge PrintBridge,
	loader DocumentLoader,
	extractor DocumentExtractor,
	renderer DocumentRenderer,
	config ServiceConfig,
	opts ...Option,
) (*Service, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}

	s := &Service{
		loader:    loader,
		extractor: extractor,
		renderer:  renderer,
		config:    config,
		logger:    zap.NewNop(),
		status:    printing.NewInfoStatus(StatusReady),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.lock == nil {
		s.lock = lock.NewMemoryLock(defaultLockTimeout)
	}
	s.adapter = NewAdapter(bridge, s.logger)
	s.ready.Store(true)
	return s, nil
}

// Config returns the static print configuration
func (s *Service) Config() ServiceConfig {
	return s.config
}

// Status returns the current status message
func (s *Service) Status() printing.Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// PreviewHTML returns the last rendered DANFE fragment
func (s *Service) PreviewHTML() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.preview
}

// IsReady reports whether the last presence check found the bridge
func (s *Service) IsReady() bool {
	return s.ready.Load()
}

func (s *Service) setStatus(st printing.Status) {
	s.mu.Lock()
	s.status = st
	s.mu.Unlock()
}

func (s *Service) setPreview(html string) {
	s.mu.Lock()
	s.preview = html
	s.mu.Unlock()
}

// CheckBridge verifies that QZ Tray is reachable and updates the status area
func (s *Service) CheckBridge(ctx context.Context) bool {
	ready := s.adapter.Probe(ctx)
	s.ready.Store(ready)
	s.metrics.SetBridgeReady(ctx, ready)

	if !ready {
		s.setStatus(printing.NewErrorStatus(errorPrefix + printing.ErrBridgeUnavailable.Message))
		s.logger.Warn("QZ Tray is not reachable")
		return false
	}
	s.setStatus(printing.NewInfoStatus(StatusReady))
	return true
}

// begin serializes the action and refuses it while the bridge is missing
func (s *Service) begin(ctx context.Context) (lock.Release, error) {
	release, err := s.lock.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	if !s.ready.Load() && !s.CheckBridge(ctx) {
		release()
		return nil, printing.ErrBridgeUnavailable
	}
	return release, nil
}

// load resolves the XML of a request and builds the fiscal record
func (s *Service) load(ctx context.Context, source string, xml []byte) (*fiscal.Document, error) {
	data := xml
	if len(data) == 0 {
		var err error
		if data, err = s.loader.Load(ctx, s.documentSource(source, nil)); err != nil {
			return nil, err
		}
	}
	return s.extractor.Extract(data)
}

func (s *Service) documentSource(source string, xml []byte) string {
	switch {
	case len(xml) > 0:
		return "upload"
	case strings.TrimSpace(source) != "":
		return source
	default:
		return s.config.XMLPath
	}
}

// PrintDocument loads, renders and prints the DANFE of an NFCe XML
func (s *Service) PrintDocument(ctx context.Context, req PrintDocumentRequest) (*PrintDocumentResult, error) {
	source := s.documentSource(req.Source, req.XML)
	ctx, span := telemetry.StartServiceSpan(ctx, "print", "document",
		telemetry.SpanAttrPrinter, s.config.PrinterName,
		telemetry.SpanAttrSource, source,
		telemetry.SpanAttrPageWidth, s.config.PageWidth.MM(),
	)
	defer span.End()

	started := time.Now()
	s.setStatus(printing.NewInfoStatus(StatusPreparing))

	release, err := s.begin(ctx)
	if err != nil {
		return nil, s.fail(ctx, span, errorPrefixPrint, err)
	}
	defer release()
	session := s.adapter.Scope(ctx)
	defer session.Close()

	job, err := printing.NewPrintJob(printing.JobActionPrintDocument, s.config.PrinterName, source)
	if err != nil {
		return nil, s.fail(ctx, span, errorPrefixPrint, err)
	}
	ctx = logger.WithJobID(ctx, job.ID.String())
	telemetry.SetAttributes(span, telemetry.SpanAttrJobID, job.ID.String())

	result := &PrintDocumentResult{JobID: job.ID, Printer: s.config.PrinterName}
	err = s.printDocument(ctx, span, session, req, job, result)
	s.finish(ctx, job, started, err)
	if err != nil {
		return nil, s.fail(ctx, span, errorPrefixPrint, err)
	}

	s.setStatus(printing.NewSuccessStatus(StatusPrinted))
	telemetry.SetOK(span)
	logger.L(ctx, s.logger).Info("NFCe printed",
		zap.String("document_number", result.DocumentNumber),
		zap.String("printer", result.Printer))
	return result, nil
}

func (s *Service) printDocument(ctx context.Context, span trace.Span, session *Session, req PrintDocumentRequest, job *printing.PrintJob, result *PrintDocumentResult) error {
	doc, err := s.load(ctx, req.Source, req.XML)
	if err != nil {
		return err
	}
	job.SetDocumentNumber(doc.Number)
	result.DocumentNumber = doc.Number
	telemetry.SetAttributes(span, telemetry.SpanAttrDocumentNumber, doc.Number)

	html, err := s.renderer.Render(ctx, doc, s.config.PageWidth)
	if err != nil {
		return err
	}
	s.setPreview(html)
	result.Preview = html

	if err := session.Connect(ctx); err != nil {
		return err
	}
	if err := s.adapter.EnsurePrinter(ctx, s.config.PrinterName); err != nil {
		return err
	}
	telemetry.AddEvent(span, "printer.verified")
	if err := job.StartSubmitting(); err != nil {
		return err
	}
	return s.adapter.SubmitHTML(ctx, s.config.PrinterName, s.config.PageWidth, html, s.config.Options)
}

// PrintFile prints a pre-rendered PDF on the configured printer
func (s *Service) PrintFile(ctx context.Context, req PrintFileRequest) (*PrintFileResult, error) {
	path := req.Path
	if strings.TrimSpace(path) == "" {
		path = s.config.PDFPath
	}
	ctx, span := telemetry.StartServiceSpan(ctx, "print", "file",
		telemetry.SpanAttrPrinter, s.config.PrinterName,
		telemetry.SpanAttrSource, path,
	)
	defer span.End()

	started := time.Now()
	s.setStatus(printing.NewInfoStatus(StatusConnecting))

	release, err := s.begin(ctx)
	if err != nil {
		return nil, s.fail(ctx, span, errorPrefix, err)
	}
	defer release()
	session := s.adapter.Scope(ctx)
	defer session.Close()

	return s.printFile(ctx, span, session, path, started)
}

// printFile submits path inside an action that already holds the lock
func (s *Service) printFile(ctx context.Context, span trace.Span, session *Session, path string, started time.Time) (*PrintFileResult, error) {
	job, err := printing.NewPrintJob(printing.JobActionPrintFile, s.config.PrinterName, path)
	if err != nil {
		return nil, s.fail(ctx, span, errorPrefix, err)
	}
	ctx = logger.WithJobID(ctx, job.ID.String())
	telemetry.SetAttributes(span, telemetry.SpanAttrJobID, job.ID.String())

	result := &PrintFileResult{JobID: job.ID, Path: path}
	err = func() error {
		if err := session.Connect(ctx); err != nil {
			return err
		}
		printer, err := s.adapter.ResolvePrinter(ctx, s.config.PrinterName)
		if err != nil {
			return err
		}
		result.Printer = printer
		if err := job.StartSubmitting(); err != nil {
			return err
		}
		return s.adapter.SubmitFile(ctx, printer, path)
	}()
	s.finish(ctx, job, started, err)
	if err != nil {
		return nil, s.fail(ctx, span, errorPrefix, err)
	}

	s.setStatus(printing.NewSuccessStatus(StatusFilePrinted))
	telemetry.SetOK(span)
	logger.L(ctx, s.logger).Info("PDF printed",
		zap.String("path", path),
		zap.String("printer", result.Printer))
	return result, nil
}

// ListPrinters enumerates the printers known to the bridge
func (s *Service) ListPrinters(ctx context.Context) ([]string, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "print", "printers")
	defer span.End()

	s.setStatus(printing.NewInfoStatus(StatusConnecting))

	release, err := s.begin(ctx)
	if err != nil {
		return nil, s.fail(ctx, span, errorPrefix, err)
	}
	defer release()

	var printers []string
	err = s.adapter.WithConnection(ctx, func(ctx context.Context) error {
		var err error
		printers, err = s.adapter.Printers(ctx)
		return err
	})
	if err != nil {
		return nil, s.fail(ctx, span, errorPrefix, err)
	}

	s.setStatus(printing.NewSuccessStatus(StatusPrintersTitle + "\n" + strings.Join(printers, "\n")))
	telemetry.SetAttributes(span, "printer.count", len(printers))
	telemetry.SetOK(span)
	return printers, nil
}

// Preview renders the DANFE of an NFCe XML into the preview area
func (s *Service) Preview(ctx context.Context, req PreviewRequest) (*PreviewResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "print", "preview",
		telemetry.SpanAttrSource, s.documentSource(req.Source, req.XML),
	)
	defer span.End()

	doc, err := s.load(ctx, req.Source, req.XML)
	if err != nil {
		return nil, s.fail(ctx, span, errorPrefix, err)
	}
	html, err := s.renderer.Render(ctx, doc, s.config.PageWidth)
	if err != nil {
		return nil, s.fail(ctx, span, errorPrefix, err)
	}
	s.setPreview(html)
	telemetry.SetOK(span)
	return &PreviewResult{DocumentNumber: doc.Number, HTML: html}, nil
}

// ExportPDF renders the DANFE of an NFCe XML to a stored PDF, and prints the
// stored file when requested
func (s *Service) ExportPDF(ctx context.Context, req ExportRequest) (*ExportResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "print", "export",
		telemetry.SpanAttrSource, s.documentSource(req.Source, req.XML),
	)
	defer span.End()

	if s.pdfRenderer == nil || s.pdfStorage == nil {
		err := shared.NewDomainError(printing.CodeRenderFailed, "Exportação de PDF não configurada")
		return nil, s.fail(ctx, span, errorPrefix, err)
	}

	// Printing exports own the bridge from the first step
	started := time.Now()
	var session *Session
	if req.Print {
		s.setStatus(printing.NewInfoStatus(StatusPreparing))
		release, err := s.begin(ctx)
		if err != nil {
			return nil, s.fail(ctx, span, errorPrefix, err)
		}
		defer release()
		session = s.adapter.Scope(ctx)
		defer session.Close()
	}

	doc, err := s.load(ctx, req.Source, req.XML)
	if err != nil {
		return nil, s.fail(ctx, span, errorPrefix, err)
	}
	html, err := s.renderer.Render(ctx, doc, s.config.PageWidth)
	if err != nil {
		return nil, s.fail(ctx, span, errorPrefix, err)
	}
	s.setPreview(html)

	rendered, err := s.pdfRenderer.Render(ctx, &infra.RenderRequest{
		HTML:        html,
		PageWidth:   s.config.PageWidth,
		Orientation: s.config.Options.Orientation,
		Title:       "DANFE NFCe " + doc.Number,
	})
	if err != nil {
		return nil, s.fail(ctx, span, errorPrefix, err)
	}

	stored, err := s.pdfStorage.Store(ctx, &infra.StoreRequest{
		JobID:          uuid.New(),
		DocumentNumber: doc.Number,
		PDFData:        rendered.PDFData,
	})
	if err != nil {
		return nil, s.fail(ctx, span, errorPrefix, err)
	}
	telemetry.SetOK(span)

	result := &ExportResult{
		DocumentNumber: doc.Number,
		Path:           stored.Path,
		AbsPath:        stored.AbsPath,
		URL:            stored.URL,
		Size:           stored.Size,
		PageCount:      rendered.PageCount,
	}
	logger.L(ctx, s.logger).Info("DANFE exported",
		zap.String("document_number", doc.Number),
		zap.String("path", stored.AbsPath),
		zap.Duration("render_duration", rendered.RenderDuration))

	if session != nil {
		printed, err := s.printFile(ctx, span, session, stored.AbsPath, started)
		if err != nil {
			return result, err
		}
		result.Printed = printed
	}
	return result, nil
}

// fail reports err in the status area and on the span and returns it unchanged
func (s *Service) fail(ctx context.Context, span trace.Span, prefix string, err error) error {
	s.setStatus(printing.NewErrorStatus(prefix + err.Error()))
	telemetry.RecordError(span, err)

	log := logger.L(ctx, s.logger)
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		log.Warn("print action failed", zap.String("code", domainErr.Code), zap.Error(err))
	} else {
		log.Error("print action failed", zap.Error(err))
	}
	return err
}

// finish moves job to its terminal status, records it and its metrics.
// History errors never fail the action.
func (s *Service) finish(ctx context.Context, job *printing.PrintJob, started time.Time, actionErr error) {
	if actionErr != nil {
		_ = job.Fail(actionErr.Error())
	} else if err := job.Complete(); err != nil {
		logger.L(ctx, s.logger).Warn("print job state", zap.Error(err))
	}
	s.metrics.RecordAction(ctx, job.Action.String(), job.PrinterName, time.Since(started), actionErr)

	if s.jobRepo == nil {
		return
	}
	if err := s.jobRepo.Save(context.WithoutCancel(ctx), job); err != nil {
		logger.L(ctx, s.logger).Error("failed to record print job", zap.Error(err))
	}
}

package printing

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/nfce/danfe/internal/domain/printing"
	"go.uber.org/zap"
)

const disconnectTimeout = 5 * time.Second

// PrintBridge is the set of QZ Tray operations an action needs
type PrintBridge interface {
	// Probe reports whether the bridge is listening
	Probe(ctx context.Context) bool
	Connect(ctx context.Context) error
	FindPrinters(ctx context.Context) ([]string, error)
	// FindPrinter resolves one printer by name
	FindPrinter(ctx context.Context, query string) (string, error)
	Print(ctx context.Context, config printing.PrinterConfig, data []printing.PrintData) error
	Disconnect(ctx context.Context) error
}

// Adapter sequences bridge calls inside a connect/disconnect scope
type Adapter struct {
	bridge PrintBridge
	logger *zap.Logger
}

// NewAdapter creates a new Adapter
func NewAdapter(bridge PrintBridge, logger *zap.Logger) *Adapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Adapter{bridge: bridge, logger: logger}
}

// Probe reports whether the bridge is listening
func (a *Adapter) Probe(ctx context.Context) bool {
	return a.bridge.Probe(ctx)
}

// Session owns the bridge for the whole of one action. Connect happens at
// the bridge step; Close disconnects exactly once whether or not a
// connection was made.
type Session struct {
	adapter *Adapter
	ctx     context.Context
	once    sync.Once
}

// Scope opens the cleanup scope of an action. Callers defer Close right
// after acquiring the action lock.
func (a *Adapter) Scope(ctx context.Context) *Session {
	return &Session{adapter: a, ctx: ctx}
}

// Connect opens the bridge connection
func (s *Session) Connect(ctx context.Context) error {
	return s.adapter.bridge.Connect(ctx)
}

// Close disconnects from the bridge. Later calls do nothing.
func (s *Session) Close() {
	s.once.Do(func() { s.adapter.disconnect(s.ctx) })
}

// WithConnection connects, runs fn and then disconnects exactly once,
// whatever the outcome of connect or fn. Disconnect failures are logged.
func (a *Adapter) WithConnection(ctx context.Context, fn func(ctx context.Context) error) error {
	session := a.Scope(ctx)
	defer session.Close()

	if err := session.Connect(ctx); err != nil {
		return err
	}
	return fn(ctx)
}

func (a *Adapter) disconnect(ctx context.Context) {
	dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), disconnectTimeout)
	defer cancel()

	if err := a.bridge.Disconnect(dctx); err != nil {
		a.logger.Debug("QZ Tray disconnect failed", zap.Error(err))
	}
}

// Printers enumerates every printer known to the bridge
func (a *Adapter) Printers(ctx context.Context) ([]string, error) {
	return a.bridge.FindPrinters(ctx)
}

// EnsurePrinter fails with printing.ErrPrinterNotFound when name is not
// among the enumerated printers
func (a *Adapter) EnsurePrinter(ctx context.Context, name string) error {
	printers, err := a.bridge.FindPrinters(ctx)
	if err != nil {
		return err
	}
	if !slices.Contains(printers, name) {
		return printing.NewPrinterNotFoundError(name)
	}
	return nil
}

// ResolvePrinter asks the bridge for the printer matching name
func (a *Adapter) ResolvePrinter(ctx context.Context, name string) (string, error) {
	return a.bridge.FindPrinter(ctx, name)
}

// SubmitHTML prints a rendered DANFE fragment at the given page width
func (a *Adapter) SubmitHTML(ctx context.Context, printer string, width printing.PageWidth, html string, opts printing.PrintOptions) error {
	cfg, err := printing.NewPrinterConfig(printer, width)
	if err != nil {
		return err
	}
	data, err := printing.NewHTMLData(html, opts)
	if err != nil {
		return err
	}
	return a.bridge.Print(ctx, cfg, []printing.PrintData{data})
}

// SubmitFile prints a pre-rendered PDF file referenced by path
func (a *Adapter) SubmitFile(ctx context.Context, printer, path string) error {
	cfg, err := printing.NewPrinterConfig(printer, 0)
	if err != nil {
		return err
	}
	data, err := printing.NewPDFFileData(path)
	if err != nil {
		return err
	}
	return a.bridge.Print(ctx, cfg, []printing.PrintData{data})
}

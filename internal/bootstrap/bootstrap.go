// Package bootstrap wires the print service from the configuration. The HTTP
// server and the command line client share it.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	printingapp "github.com/nfce/danfe/internal/application/printing"
	"github.com/nfce/danfe/internal/domain/printing"
	"github.com/nfce/danfe/internal/infrastructure/bridge"
	"github.com/nfce/danfe/internal/infrastructure/config"
	"github.com/nfce/danfe/internal/infrastructure/loader"
	"github.com/nfce/danfe/internal/infrastructure/lock"
	"github.com/nfce/danfe/internal/infrastructure/logger"
	"github.com/nfce/danfe/internal/infrastructure/nfe"
	"github.com/nfce/danfe/internal/infrastructure/persistence"
	printinfra "github.com/nfce/danfe/internal/infrastructure/printing"
	"github.com/nfce/danfe/internal/infrastructure/storage"
	"github.com/nfce/danfe/internal/infrastructure/telemetry"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// App holds the wired print service and everything it must release
type App struct {
	Config   *config.Config
	Logger   *zap.Logger
	Service  *printingapp.Service
	Bridge   *bridge.Client
	Database *persistence.Database // nil when the history is disabled
	Tracer   *telemetry.TracerProvider
	Meter    *telemetry.MeterProvider
	Logs     *telemetry.LoggerProvider

	closers []closer
}

type closer struct {
	name string
	fn   func(ctx context.Context) error
}

type options struct {
	telemetry bool
	history   bool
}

// Option configures New
type Option func(*options)

// WithoutTelemetry skips the OpenTelemetry providers
func WithoutTelemetry() Option {
	return func(o *options) {
		o.telemetry = false
	}
}

// WithoutHistory skips the print history database
func WithoutHistory() Option {
	return func(o *options) {
		o.history = false
	}
}

// New builds the print service described by cfg. On error everything
// already opened is closed.
func New(ctx context.Context, cfg *config.Config, log *zap.Logger, opts ...Option) (app *App, err error) {
	o := &options{telemetry: true, history: true}
	for _, opt := range opts {
		opt(o)
	}

	app = &App{Config: cfg, Logger: log}
	defer func() {
		if err != nil {
			_ = app.Close(context.Background())
			app = nil
		}
	}()

	if err = app.initTelemetry(ctx, o.telemetry); err != nil {
		return nil, err
	}
	log = app.Logger

	var svcOpts []printingapp.Option
	svcOpts = append(svcOpts, printingapp.WithLogger(log.Named("print")))

	if o.history && cfg.Database.Driver != "none" {
		repo, err := app.initDatabase()
		if err != nil {
			return nil, err
		}
		svcOpts = append(svcOpts, printingapp.WithJobRepository(repo))
	}

	actionLock, err := lock.New(cfg.Lock, cfg.Redis, lock.WithFactoryLogger(log))
	if err != nil {
		return nil, fmt.Errorf("failed to create print lock: %w", err)
	}
	if c, ok := actionLock.(interface{ Close() error }); ok {
		app.addCloser("lock", func(context.Context) error { return c.Close() })
	}
	svcOpts = append(svcOpts, printingapp.WithActionLock(actionLock))

	docLoader, err := app.newLoader()
	if err != nil {
		return nil, err
	}

	client, err := app.newBridgeClient()
	if err != nil {
		return nil, err
	}
	app.Bridge = client
	app.addCloser("bridge", func(ctx context.Context) error {
		if err := client.Disconnect(ctx); err != nil && !errors.Is(err, bridge.ErrNotConnected) {
			return err
		}
		return nil
	})

	if cfg.Renderer.Enabled {
		pdfRenderer := printinfra.NewChromedpRenderer(&printinfra.ChromedpConfig{
			DefaultTimeout: cfg.Renderer.Timeout,
			RemoteURL:      cfg.Renderer.RemoteURL,
			NoSandbox:      cfg.Renderer.NoSandbox,
			Logger:         log.Named("chromedp"),
		})
		app.addCloser("renderer", func(context.Context) error { return pdfRenderer.Close() })

		pdfStorage, err := printinfra.NewFileSystemStorage(&printinfra.FileSystemStorageConfig{
			BasePath: cfg.Storage.PDFPath,
			BaseURL:  cfg.Storage.PDFBaseURL,
			Logger:   log,
		})
		if err != nil {
			return nil, err
		}
		svcOpts = append(svcOpts, printingapp.WithPDFExport(pdfRenderer, pdfStorage))
	}

	metrics, err := telemetry.NewPrintMetrics(app.Meter.Meter(telemetry.TracerName))
	if err != nil {
		return nil, fmt.Errorf("failed to create print metrics: %w", err)
	}
	svcOpts = append(svcOpts, printingapp.WithMetrics(metrics))

	svcConfig, err := ServiceConfig(cfg)
	if err != nil {
		return nil, err
	}

	app.Service, err = printingapp.NewService(
		client,
		docLoader,
		nfe.NewExtractor(),
		printinfra.NewDANFERenderer(nil),
		svcConfig,
		svcOpts...,
	)
	if err != nil {
		return nil, fmt.Errorf("invalid print configuration: %w", err)
	}
	return app, nil
}

// ServiceConfig converts the printer and document sections of cfg
func ServiceConfig(cfg *config.Config) (printingapp.ServiceConfig, error) {
	width, err := printing.NewPageWidth(cfg.Printer.PageWidth)
	if err != nil {
		return printingapp.ServiceConfig{}, err
	}
	return printingapp.ServiceConfig{
		PrinterName: cfg.Printer.Name,
		PageWidth:   width,
		Options: printing.PrintOptions{
			ColorType:    printing.ColorType(cfg.Printer.ColorType),
			Orientation:  printing.Orientation(cfg.Printer.Orientation),
			ScaleContent: cfg.Printer.ScaleContent,
		},
		XMLPath: cfg.Document.XMLPath,
		PDFPath: cfg.Document.PDFPath,
	}, nil
}

func (a *App) initTelemetry(ctx context.Context, enabled bool) error {
	tcfg := a.Config.Telemetry
	if !enabled {
		tcfg.Enabled = false
	}

	var err error
	if a.Tracer, err = telemetry.NewTracerProvider(ctx, tcfg, a.Logger); err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	a.addCloser("tracer", a.Tracer.Shutdown)

	if a.Meter, err = telemetry.NewMeterProvider(ctx, tcfg, a.Logger); err != nil {
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}
	a.addCloser("meter", a.Meter.Shutdown)

	if a.Logs, err = telemetry.NewLoggerProvider(ctx, tcfg, a.Logger); err != nil {
		return fmt.Errorf("failed to initialize log export: %w", err)
	}
	a.addCloser("logs", a.Logs.Shutdown)

	a.Logger = a.Logs.Bridge(a.Logger, zapcore.InfoLevel)
	return nil
}

func (a *App) initDatabase() (printing.PrintJobRepository, error) {
	cfg := a.Config.Database

	db, err := persistence.NewDatabaseWithLogger(&cfg, logger.ForDatabase(a.Logger, a.Config.Log.Level))
	if err != nil {
		return nil, err
	}
	a.Database = db
	a.addCloser("database", func(context.Context) error { return db.Close() })

	dbSystem := cfg.Driver
	if dbSystem == "postgres" {
		dbSystem = "postgresql"
	}
	if err := telemetry.RegisterDBTracing(db.DB, a.Tracer.IsEnabled(), dbSystem, a.Logger); err != nil {
		return nil, fmt.Errorf("failed to enable database tracing: %w", err)
	}
	if err := db.AutoMigrate(); err != nil {
		return nil, err
	}

	a.Logger.Info("Print history database connected", zap.String("driver", cfg.Driver))
	return persistence.NewGormPrintJobRepository(db.DB), nil
}

func (a *App) newLoader() (*loader.Loader, error) {
	cfg := a.Config
	opts := []loader.Option{
		loader.WithHTTPClient(&http.Client{Timeout: cfg.Document.LoadTimeout}),
		loader.WithMaxBytes(cfg.Document.MaxSize),
		loader.WithLogger(a.Logger),
	}

	if cfg.Storage.S3.Enabled() {
		objects, err := storage.NewS3ObjectStorage(&cfg.Storage.S3,
			storage.WithLogger(a.Logger),
			storage.WithMaxBytes(cfg.Document.MaxSize),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create S3 document source: %w", err)
		}
		opts = append(opts, loader.WithObjectStorage(objects))
	}
	return loader.New(opts...), nil
}

func (a *App) newBridgeClient() (*bridge.Client, error) {
	cfg := a.Config.Bridge

	var signer *bridge.Signer
	if cfg.CertificatePath != "" && cfg.PrivateKeyPath != "" {
		var err error
		if signer, err = bridge.NewSignerFromFiles(cfg.CertificatePath, cfg.PrivateKeyPath); err != nil {
			return nil, fmt.Errorf("failed to load QZ Tray signing key: %w", err)
		}
		a.Logger.Info("QZ Tray calls will be signed", zap.String("certificate", cfg.CertificatePath))
	}

	return bridge.NewClient(&bridge.Config{
		URLs:           cfg.URLs,
		ConnectTimeout: cfg.ConnectTimeout,
		RequestTimeout: cfg.RequestTimeout,
		Signer:         signer,
		Logger:         a.Logger.Named("bridge"),
	}), nil
}

func (a *App) addCloser(name string, fn func(ctx context.Context) error) {
	a.closers = append(a.closers, closer{name: name, fn: fn})
}

// Close releases everything in reverse opening order
func (a *App) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		c := a.closers[i]
		if err := c.fn(ctx); err != nil {
			a.Logger.Error("Error closing "+c.name, zap.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", c.name, err))
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

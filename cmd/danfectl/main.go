// Command danfectl runs single print actions against QZ Tray from the
// command line: list printers, print an NFCe or a PDF, preview and export.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/nfce/danfe/internal/bootstrap"
	"github.com/nfce/danfe/internal/infrastructure/config"
	"github.com/nfce/danfe/internal/infrastructure/logger"
	"github.com/urfave/cli/v2"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app := newApp(openService)
	if err := app.RunContext(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// openService wires the print service from the --config file. Logs go to
// stderr so stdout only carries the command output.
func openService(c *cli.Context) (printService, func(), error) {
	cfg, err := config.LoadFile(c.String("config"))
	if err != nil {
		return nil, nil, err
	}
	if printer := c.String("printer"); printer != "" {
		cfg.Printer.Name = printer
	}
	cfg.Log.Output = "stderr"
	if !c.Bool("verbose") {
		cfg.Log.Level = "warn"
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		return nil, nil, err
	}

	opts := []bootstrap.Option{bootstrap.WithoutTelemetry()}
	if c.Bool("no-history") {
		opts = append(opts, bootstrap.WithoutHistory())
	}
	app, err := bootstrap.New(c.Context, cfg, log, opts...)
	if err != nil {
		_ = log.Sync()
		return nil, nil, err
	}

	closeFn := func() {
		_ = app.Close(context.Background())
		_ = log.Sync()
	}
	return app.Service, closeFn, nil
}

package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	printingapp "github.com/nfce/danfe/internal/application/printing"
	"github.com/nfce/danfe/internal/domain/printing"
	"github.com/nfce/danfe/internal/infrastructure/telemetry"
	"github.com/urfave/cli/v2"
)

const printersTitle = "Impressoras encontradas:"

// printService is the part of the print workflow the commands drive
type printService interface {
	Status() printing.Status
	PrintDocument(ctx context.Context, req printingapp.PrintDocumentRequest) (*printingapp.PrintDocumentResult, error)
	PrintFile(ctx context.Context, req printingapp.PrintFileRequest) (*printingapp.PrintFileResult, error)
	ListPrinters(ctx context.Context) ([]string, error)
	Preview(ctx context.Context, req printingapp.PreviewRequest) (*printingapp.PreviewResult, error)
	ExportPDF(ctx context.Context, req printingapp.ExportRequest) (*printingapp.ExportResult, error)
}

// serviceOpener builds the print service for one command run
type serviceOpener func(c *cli.Context) (printService, func(), error)

func newApp(open serviceOpener) *cli.App {
	return &cli.App{
		Name:    "danfectl",
		Usage:   "print NFCe DANFE receipts through QZ Tray",
		Version: telemetry.ServiceVersion,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "configuration `FILE` (default: ./config.toml or /etc/danfe/config.toml)",
				EnvVars: []string{"DANFE_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "printer",
				Aliases: []string{"p"},
				Usage:   "printer `NAME`, overrides printer.name",
			},
			&cli.BoolFlag{
				Name:  "no-history",
				Usage: "do not record the action in the print history",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "log at the configured level instead of warnings only",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "printers",
				Usage:  "list the printers known to QZ Tray",
				Action: withService(open, listPrinters),
			},
			{
				Name:      "print-nfce",
				Usage:     "render and print the DANFE of an NFCe XML",
				ArgsUsage: "[LOCATION]",
				Flags:     []cli.Flag{sourceFlag()},
				Action:    withService(open, printNFCe),
			},
			{
				Name:      "print-pdf",
				Usage:     "print a pre-rendered PDF file",
				ArgsUsage: "[PATH]",
				Action:    withService(open, printPDF),
			},
			{
				Name:      "preview",
				Usage:     "render the DANFE HTML of an NFCe XML",
				ArgsUsage: "[LOCATION]",
				Flags: []cli.Flag{
					sourceFlag(),
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "write the HTML to `FILE` instead of stdout",
					},
				},
				Action: withService(open, preview),
			},
			{
				Name:      "export-pdf",
				Usage:     "render the DANFE of an NFCe XML to a stored PDF",
				ArgsUsage: "[LOCATION]",
				Flags: []cli.Flag{
					sourceFlag(),
					&cli.BoolFlag{
						Name:  "print",
						Usage: "also print the exported PDF",
					},
				},
				Action: withService(open, exportPDF),
			},
		},
	}
}

func sourceFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "source",
		Aliases: []string{"s"},
		Usage:   "NFCe XML `LOCATION`: file path, file://, http(s):// or s3:// (default: document.xml_path)",
	}
}

type commandFunc func(c *cli.Context, svc printService) error

// withService opens the service around a command. A failed action is
// reported with the status area message and exit code 1.
func withService(open serviceOpener, run commandFunc) cli.ActionFunc {
	return func(c *cli.Context) error {
		svc, closeFn, err := open(c)
		if err != nil {
			return cli.Exit("Erro: "+err.Error(), 1)
		}
		defer closeFn()

		if err := run(c, svc); err != nil {
			if _, ok := err.(cli.ExitCoder); ok {
				return err
			}
			msg := svc.Status().Message
			if msg == "" {
				msg = err.Error()
			}
			return cli.Exit(msg, 1)
		}
		return nil
	}
}

// source returns the --source flag or the first argument
func source(c *cli.Context) string {
	if s := c.String("source"); s != "" {
		return s
	}
	return c.Args().First()
}

func listPrinters(c *cli.Context, svc printService) error {
	printers, err := svc.ListPrinters(c.Context)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, printersTitle+"\n"+strings.Join(printers, "\n"))
	return nil
}

func printNFCe(c *cli.Context, svc printService) error {
	result, err := svc.PrintDocument(c.Context, printingapp.PrintDocumentRequest{Source: source(c)})
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "%s\nNFCe %s -> %s (job %s)\n",
		svc.Status().Message, result.DocumentNumber, result.Printer, result.JobID)
	return nil
}

func printPDF(c *cli.Context, svc printService) error {
	result, err := svc.PrintFile(c.Context, printingapp.PrintFileRequest{Path: c.Args().First()})
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "%s\n%s -> %s (job %s)\n",
		svc.Status().Message, result.Path, result.Printer, result.JobID)
	return nil
}

func preview(c *cli.Context, svc printService) error {
	result, err := svc.Preview(c.Context, printingapp.PreviewRequest{Source: source(c)})
	if err != nil {
		return err
	}
	if out := c.String("output"); out != "" {
		if err := os.WriteFile(out, []byte(result.HTML), 0o644); err != nil {
			return cli.Exit("Erro: "+err.Error(), 1)
		}
		fmt.Fprintf(c.App.Writer, "NFCe %s -> %s\n", result.DocumentNumber, out)
		return nil
	}
	fmt.Fprintln(c.App.Writer, result.HTML)
	return nil
}

func exportPDF(c *cli.Context, svc printService) error {
	result, err := svc.ExportPDF(c.Context, printingapp.ExportRequest{
		Source: source(c),
		Print:  c.Bool("print"),
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "NFCe %s -> %s (%d bytes, %d pages)\n",
		result.DocumentNumber, result.AbsPath, result.Size, result.PageCount)
	if result.Printed != nil {
		fmt.Fprintln(c.App.Writer, svc.Status().Message)
	}
	return nil
}

package printing

import (
	"fmt"

	"github.com/nfce/danfe/internal/domain/shared"
)

const (
	// DefaultPageWidth is the width of an 80mm thermal receipt roll
	DefaultPageWidth PageWidth = 80
	minPageWidth     PageWidth = 40
	maxPageWidth     PageWidth = 300
)

// PageWidth is the printable page width in millimeters.
// It sizes the DANFE layout and the page size sent to the printer.
type PageWidth int

// NewPageWidth creates a PageWidth value object
func NewPageWidth(mm int) (PageWidth, error) {
	w := PageWidth(mm)
	if w < minPageWidth || w > maxPageWidth {
		return 0, shared.NewDomainError("INVALID_PAGE_WIDTH",
			fmt.Sprintf("Page width must be between %dmm and %dmm", minPageWidth, maxPageWidth))
	}
	return w, nil
}

// MM returns the width in millimeters
func (w PageWidth) MM() int {
	return int(w)
}

// String returns the CSS/bridge representation, e.g. "80mm"
func (w PageWidth) String() string {
	return fmt.Sprintf("%dmm", int(w))
}

// PrintOptions are the rendering options attached to an HTML payload
type PrintOptions struct {
	ColorType    ColorType   `json:"colorType"`
	Orientation  Orientation `json:"orientation"`
	ScaleContent bool        `json:"scaleContent"`
}

// DefaultPrintOptions returns the options used for receipt printing
func DefaultPrintOptions() PrintOptions {
	return PrintOptions{
		ColorType:    ColorTypeGrayscale,
		Orientation:  OrientationPortrait,
		ScaleContent: true,
	}
}

// Validate checks that the options hold known values
func (o PrintOptions) Validate() error {
	if !o.ColorType.IsValid() {
		return shared.NewDomainError("INVALID_COLOR_TYPE", "Invalid color type: "+o.ColorType.String())
	}
	if !o.Orientation.IsValid() {
		return shared.NewDomainError("INVALID_ORIENTATION", "Invalid orientation: "+o.Orientation.String())
	}
	return nil
}

// PageSize is the page size option of a printer configuration
type PageSize struct {
	Width string `json:"width,omitempty"`
}

// ConfigOptions are the options of a printer configuration
type ConfigOptions struct {
	Size *PageSize `json:"size,omitempty"`
}

// PrinterConfig identifies the target printer and its page settings.
// It is the value produced by the bridge's configs.create call.
type PrinterConfig struct {
	PrinterName string
	Options     ConfigOptions
}

// NewPrinterConfig creates a configuration for the named printer.
// A zero width leaves the page size to the printer driver.
func NewPrinterConfig(printerName string, width PageWidth) (PrinterConfig, error) {
	if printerName == "" {
		return PrinterConfig{}, shared.NewDomainError("INVALID_PRINTER", "Printer name cannot be empty")
	}
	cfg := PrinterConfig{PrinterName: printerName}
	if width > 0 {
		cfg.Options.Size = &PageSize{Width: width.String()}
	}
	return cfg, nil
}

// PrintData is one payload element submitted to the bridge
type PrintData struct {
	Type    PayloadType   `json:"type"`
	Format  PayloadFormat `json:"format"`
	Flavor  PayloadFlavor `json:"flavor,omitempty"`
	Data    string        `json:"data"`
	Options *PrintOptions `json:"options,omitempty"`
}

// NewHTMLData creates an HTML payload with rendering options
func NewHTMLData(html string, opts PrintOptions) (PrintData, error) {
	if html == "" {
		return PrintData{}, shared.NewDomainError("INVALID_PAYLOAD", "HTML payload cannot be empty")
	}
	if err := opts.Validate(); err != nil {
		return PrintData{}, err
	}
	return PrintData{
		Type:    PayloadTypeHTML,
		Format:  PayloadFormatPlain,
		Data:    html,
		Options: &opts,
	}, nil
}

// NewPDFFileData creates a payload referencing a pre-rendered PDF file
func NewPDFFileData(path string) (PrintData, error) {
	if path == "" {
		return PrintData{}, shared.NewDomainError("INVALID_PAYLOAD", "PDF file path cannot be empty")
	}
	return PrintData{
		Type:   PayloadTypePixel,
		Format: PayloadFormatPDF,
		Flavor: PayloadFlavorFile,
		Data:   path,
	}, nil
}

// IsFile returns true if the payload references a file instead of inline data
func (d PrintData) IsFile() bool {
	return d.Flavor == PayloadFlavorFile
}

package printing

import (
	"context"
	_ "embed"
	"strings"

	"github.com/nfce/danfe/internal/domain/fiscal"
	"github.com/nfce/danfe/internal/domain/printing"
	"github.com/shopspring/decimal"
)

// SEFAZConsultURL is printed in the DANFE footer
const SEFAZConsultURL = "http://www.nfe.fazenda.gov.br/portal"

//go:embed templates/danfe_nfce.html
var danfeTemplate string

// DANFERenderer lays out a fiscal.Document as the NFCe receipt fragment
type DANFERenderer struct {
	engine *TemplateEngine
}

// NewDANFERenderer creates a DANFE renderer on top of the template engine
func NewDANFERenderer(engine *TemplateEngine) *DANFERenderer {
	if engine == nil {
		engine = NewTemplateEngine()
	}
	return &DANFERenderer{engine: engine}
}

type danfeView struct {
	PageWidth  printing.PageWidth
	Number     string
	Series     string
	IssuedAt   string
	Issuer     fiscal.Issuer
	Recipient  *recipientView
	Items      []itemView
	Total      decimal.Decimal
	ConsultURL string
}

type recipientView struct {
	Name       string
	TaxID      string
	TaxIDLabel string
}

type itemView struct {
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
}

// Render produces the DANFE fragment for the document at the given page width.
// Amounts that are not decimal numbers fail with fiscal.ErrMalformedDocument.
func (r *DANFERenderer) Render(ctx context.Context, doc *fiscal.Document, width printing.PageWidth) (string, error) {
	if doc == nil {
		return "", NewRenderError(ErrCodeRenderFailed, "document is nil", nil)
	}
	view, err := newDANFEView(doc, width)
	if err != nil {
		return "", err
	}
	return r.engine.RenderString(ctx, "danfe_nfce", danfeTemplate, view)
}

func newDANFEView(doc *fiscal.Document, width printing.PageWidth) (*danfeView, error) {
	if width <= 0 {
		width = printing.DefaultPageWidth
	}
	total, err := parseAmount(doc.TotalAmount, "vNF")
	if err != nil {
		return nil, err
	}

	view := &danfeView{
		PageWidth:  width,
		Number:     doc.Number,
		Series:     doc.Series,
		IssuedAt:   doc.IssuedAt,
		Issuer:     doc.Issuer,
		Items:      make([]itemView, 0, len(doc.Items)),
		Total:      total,
		ConsultURL: SEFAZConsultURL,
	}
	if doc.HasRecipient() {
		view.Recipient = &recipientView{
			Name:       doc.Recipient.Name,
			TaxID:      doc.Recipient.TaxID,
			TaxIDLabel: taxIDLabel(doc.Recipient.TaxID),
		}
	}
	for _, item := range doc.Items {
		qty, err := parseAmount(item.Quantity, "qCom")
		if err != nil {
			return nil, err
		}
		price, err := parseAmount(item.UnitPrice, "vUnCom")
		if err != nil {
			return nil, err
		}
		view.Items = append(view.Items, itemView{
			Description: item.Description,
			Quantity:    qty,
			UnitPrice:   price,
		})
	}
	return view, nil
}

func parseAmount(text, tag string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(text))
	if err != nil {
		return decimal.Zero, fiscal.NewMalformedError("valor inválido em %s: %q", tag, text)
	}
	return d, nil
}

// taxIDLabel names the document type of a recipient tax id; a 14-digit id is a CNPJ
func taxIDLabel(taxID string) string {
	if len(taxID) == 14 {
		return "CNPJ"
	}
	return "CPF"
}

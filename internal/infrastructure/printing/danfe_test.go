package printing

import (
	"context"
	"strings"
	"testing"

	"github.com/nfce/danfe/internal/domain/fiscal"
	"github.com/nfce/danfe/internal/domain/printing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func minimalDocument() *fiscal.Document {
	return &fiscal.Document{
		Number:   "1",
		Series:   "1",
		IssuedAt: "2024-01-01T00:00:00-03:00",
		Issuer: fiscal.Issuer{
			Name:    "Loja Exemplo",
			TaxID:   "11222333000181",
			Address: "Av. Paulista, 1000",
		},
		TotalAmount: "5.00",
		Items: []fiscal.LineItem{
			{Description: "Item A", Quantity: "1", UnitPrice: "5.00"},
		},
	}
}

func TestDANFERenderer_MinimalDocument(t *testing.T) {
	renderer := NewDANFERenderer(nil)

	html, err := renderer.Render(context.Background(), minimalDocument(), printing.DefaultPageWidth)
	require.NoError(t, err)

	assert.Contains(t, html, "DANFE NFCe")
	assert.Contains(t, html, "width: 80mm")
	assert.Contains(t, html, "<strong>NFC-e:</strong> 1 Série: 1")
	assert.Contains(t, html, "<strong>Data Emissão:</strong> 2024-01-01T00:00:00-03:00")
	assert.Contains(t, html, "<p>Loja Exemplo</p>")
	assert.Contains(t, html, "CNPJ: 11222333000181")
	assert.Contains(t, html, "<p>Av. Paulista, 1000</p>")
	assert.Contains(t, html, "Item A")
	assert.Contains(t, html, ">1.00</td>")
	assert.Equal(t, 2, strings.Count(html, "R$ 5.00"), "line price and total")
	assert.Contains(t, html, "Total: R$ 5.00")
	assert.Contains(t, html, "http://www.nfe.fazenda.gov.br/portal")
	assert.NotContains(t, html, "Destinatário")
}

func TestDANFERenderer_Recipient(t *testing.T) {
	doc := minimalDocument()
	doc.Recipient = &fiscal.Recipient{Name: "Maria da Silva", TaxID: "12345678909"}

	html, err := NewDANFERenderer(NewTemplateEngine()).Render(context.Background(), doc, printing.DefaultPageWidth)
	require.NoError(t, err)

	assert.Contains(t, html, "<h3>Destinatário</h3>")
	assert.Contains(t, html, "<p>Maria da Silva</p>")
	assert.Contains(t, html, "CPF: 12345678909")

	doc.Recipient = &fiscal.Recipient{Name: "Empresa Cliente", TaxID: "99888777000166"}
	html, err = NewDANFERenderer(nil).Render(context.Background(), doc, printing.DefaultPageWidth)
	require.NoError(t, err)
	assert.Contains(t, html, "CNPJ: 99888777000166")
}

func TestDANFERenderer_ItemRowsInOrder(t *testing.T) {
	doc := minimalDocument()
	doc.Items = []fiscal.LineItem{
		{Description: "Pão Francês", Quantity: "10.0000", UnitPrice: "0.75"},
		{Description: "Café 500g", Quantity: "1", UnitPrice: "18.9"},
		{Description: "Leite", Quantity: "2.5", UnitPrice: "4.999"},
	}
	doc.TotalAmount = "39.90"

	html, err := NewDANFERenderer(nil).Render(context.Background(), doc, printing.DefaultPageWidth)
	require.NoError(t, err)

	assert.Equal(t, 3, strings.Count(html, `<tr class="item">`))

	first := strings.Index(html, "Pão Francês")
	second := strings.Index(html, "Café 500g")
	third := strings.Index(html, "Leite")
	require.True(t, first > 0 && second > 0 && third > 0)
	assert.Less(t, first, second)
	assert.Less(t, second, third)

	for _, expected := range []string{">10.00</td>", ">R$ 0.75</td>", ">1.00</td>", ">R$ 18.90</td>", ">2.50</td>", ">R$ 5.00</td>"} {
		assert.Contains(t, html, expected)
	}
}

func TestDANFERenderer_NoItems(t *testing.T) {
	doc := minimalDocument()
	doc.Items = nil
	doc.TotalAmount = "0"

	html, err := NewDANFERenderer(nil).Render(context.Background(), doc, printing.DefaultPageWidth)
	require.NoError(t, err)
	assert.NotContains(t, html, `<tr class="item">`)
	assert.Contains(t, html, "Total: R$ 0.00")
}

func TestDANFERenderer_TotalFormatting(t *testing.T) {
	tests := []struct {
		total    string
		expected string
	}{
		{"10", "Total: R$ 10.00"},
		{"10.005", "Total: R$ 10.01"},
		{"10.004", "Total: R$ 10.00"},
		{"1234.5", "Total: R$ 1234.50"},
		{" 7.1 ", "Total: R$ 7.10"},
	}

	for _, tt := range tests {
		t.Run(tt.total, func(t *testing.T) {
			doc := minimalDocument()
			doc.TotalAmount = tt.total

			html, err := NewDANFERenderer(nil).Render(context.Background(), doc, printing.DefaultPageWidth)
			require.NoError(t, err)
			assert.Contains(t, html, tt.expected)
		})
	}
}

func TestDANFERenderer_InvalidAmount(t *testing.T) {
	doc := minimalDocument()
	doc.TotalAmount = "cinco reais"

	_, err := NewDANFERenderer(nil).Render(context.Background(), doc, printing.DefaultPageWidth)
	require.Error(t, err)
	assert.ErrorIs(t, err, fiscal.ErrMalformedDocument)
	assert.Contains(t, err.Error(), "vNF")

	doc = minimalDocument()
	doc.Items[0].UnitPrice = ""
	_, err = NewDANFERenderer(nil).Render(context.Background(), doc, printing.DefaultPageWidth)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "vUnCom")
}

func TestDANFERenderer_EscapesDocumentText(t *testing.T) {
	doc := minimalDocument()
	doc.Issuer.Name = `<script>alert("x")</script>`
	doc.Items[0].Description = "Copo & Prato <b>"

	html, err := NewDANFERenderer(nil).Render(context.Background(), doc, printing.DefaultPageWidth)
	require.NoError(t, err)

	assert.NotContains(t, html, "<script>")
	assert.Contains(t, html, "&lt;script&gt;")
	assert.Contains(t, html, "Copo &amp; Prato &lt;b&gt;")
}

func TestDANFERenderer_PageWidthAndDeterminism(t *testing.T) {
	renderer := NewDANFERenderer(nil)
	doc := minimalDocument()

	narrow, err := renderer.Render(context.Background(), doc, printing.PageWidth(58))
	require.NoError(t, err)
	assert.Contains(t, narrow, "width: 58mm")

	again, err := renderer.Render(context.Background(), doc, printing.PageWidth(58))
	require.NoError(t, err)
	assert.Equal(t, narrow, again)

	defaulted, err := renderer.Render(context.Background(), doc, 0)
	require.NoError(t, err)
	assert.Contains(t, defaulted, "width: 80mm")
}

func TestDANFERenderer_NilDocument(t *testing.T) {
	_, err := NewDANFERenderer(nil).Render(context.Background(), nil, printing.DefaultPageWidth)
	require.Error(t, err)
	assert.ErrorIs(t, err, printing.ErrRenderFailed)
}

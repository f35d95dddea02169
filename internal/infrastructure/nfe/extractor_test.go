package nfe

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nfce/danfe/internal/domain/fiscal"
	"github.com/stretchr/testify/assert"
	rq "github.com/stretchr/testify/require"
)

func loadFixture(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	rq.NoError(t, err)
	return data
}

func TestExtract_WithRecipient(t *testing.T) {
	doc, err := Extract(loadFixture(t, "nfce_with_dest.xml"))
	rq.NoError(t, err)

	assert.Equal(t, "123", doc.Number)
	assert.Equal(t, "1", doc.Series)
	assert.Equal(t, "2024-01-15T10:30:00-03:00", doc.IssuedAt)
	assert.Equal(t, fiscal.Issuer{
		Name:    "Padaria Pão Quente LTDA",
		TaxID:   "12345678000195",
		Address: "Rua das Flores, 100",
	}, doc.Issuer)

	rq.True(t, doc.HasRecipient())
	assert.Equal(t, "Maria da Silva", doc.Recipient.Name)
	assert.Equal(t, "12345678909", doc.Recipient.TaxID)

	assert.Equal(t, "26.40", doc.TotalAmount)
	rq.Len(t, doc.Items, 2)
	assert.Equal(t, fiscal.LineItem{Description: "Pão Francês", Quantity: "10.0000", UnitPrice: "0.75"}, doc.Items[0])
	assert.Equal(t, fiscal.LineItem{Description: "Café 500g", Quantity: "1.0000", UnitPrice: "18.9"}, doc.Items[1])
}

func TestExtract_WithoutRecipient(t *testing.T) {
	doc, err := NewExtractor().Extract(loadFixture(t, "nfce_minimal.xml"))
	rq.NoError(t, err)

	assert.False(t, doc.HasRecipient())
	assert.Nil(t, doc.Recipient)
	assert.Equal(t, "Av. Paulista, 1000", doc.Issuer.Address)
	rq.Len(t, doc.Items, 1)
	assert.Equal(t, "Item A", doc.Items[0].Description)
	assert.Equal(t, "5.00", doc.TotalAmount)
}

func TestExtract_RecipientCompanyFallsBackToCNPJ(t *testing.T) {
	xml := strings.Replace(string(loadFixture(t, "nfce_with_dest.xml")),
		"<CPF>12345678909</CPF>", "<CNPJ>99888777000166</CNPJ>", 1)

	doc, err := Extract([]byte(xml))
	rq.NoError(t, err)
	rq.NotNil(t, doc.Recipient)
	assert.Equal(t, "99888777000166", doc.Recipient.TaxID)
	assert.Equal(t, "12345678000195", doc.Issuer.TaxID)
}

func TestExtract_NoItems(t *testing.T) {
	xml := `<NFe><infNFe>
		<ide><nNF>7</nNF><serie>2</serie><dhEmi>2024-02-02</dhEmi></ide>
		<emit><xNome>Loja</xNome><CNPJ>1</CNPJ><xLgr>Rua</xLgr><nro>S/N</nro></emit>
		<total><vNF>0</vNF></total>
	</infNFe></NFe>`

	doc, err := Extract([]byte(xml))
	rq.NoError(t, err)
	assert.NotNil(t, doc.Items)
	assert.Empty(t, doc.Items)
	assert.Equal(t, "Rua, S/N", doc.Issuer.Address)
}

func TestExtract_MissingTags(t *testing.T) {
	minimal := string(loadFixture(t, "nfce_minimal.xml"))

	tests := []struct {
		name     string
		xml      string
		expected string
	}{
		{
			name:     "no NFe root",
			xml:      `<nfeProc><protNFe/></nfeProc>`,
			expected: "tag NFe não encontrada",
		},
		{
			name:     "no infNFe",
			xml:      `<NFe><Signature/></NFe>`,
			expected: "tag NFe/infNFe não encontrada",
		},
		{
			name:     "no total block",
			xml:      strings.NewReplacer("<total>", "<totais>", "</total>", "</totais>").Replace(minimal),
			expected: "tag NFe/infNFe/total não encontrada",
		},
		{
			name:     "no nNF",
			xml:      strings.Replace(minimal, "<nNF>1</nNF>", "", 1),
			expected: "tag NFe/infNFe/ide/nNF não encontrada",
		},
		{
			name:     "no street number",
			xml:      strings.Replace(minimal, "<nro>1000</nro>", "", 1),
			expected: "tag NFe/infNFe/emit/nro não encontrada",
		},
		{
			name:     "item without price",
			xml:      strings.Replace(minimal, "<vUnCom>5.00</vUnCom>", "", 1),
			expected: "tag NFe/infNFe/det[1]/prod/vUnCom não encontrada",
		},
		{
			name:     "recipient without tax id",
			xml:      strings.Replace(minimal, "<det ", "<dest><xNome>Joao</xNome></dest><det ", 1),
			expected: "tag NFe/infNFe/dest/CPF não encontrada",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Extract([]byte(tt.xml))
			rq.Error(t, err)
			assert.Nil(t, doc)
			assert.ErrorIs(t, err, fiscal.ErrMalformedDocument)
			assert.Contains(t, err.Error(), tt.expected)
		})
	}
}

func TestExtract_InvalidXML(t *testing.T) {
	for _, input := range []string{"", "not xml", "<NFe><infNFe></NFe>"} {
		_, err := Extract([]byte(input))
		rq.Error(t, err, "input %q", input)
		assert.ErrorIs(t, err, fiscal.ErrMalformedDocument)
	}
}

func TestExtract_Latin1Charset(t *testing.T) {
	// "Padaria São João" encoded as ISO-8859-1
	xml := "<?xml version=\"1.0\" encoding=\"ISO-8859-1\"?>" +
		"<NFe><infNFe>" +
		"<ide><nNF>9</nNF><serie>1</serie><dhEmi>2024-03-03</dhEmi></ide>" +
		"<emit><xNome>Padaria S\xe3o Jo\xe3o</xNome><CNPJ>1</CNPJ><xLgr>Rua</xLgr><nro>1</nro></emit>" +
		"<total><vNF>1.00</vNF></total>" +
		"</infNFe></NFe>"

	doc, err := Extract([]byte(xml))
	rq.NoError(t, err)
	assert.Equal(t, "Padaria São João", doc.Issuer.Name)
}

func TestExtract_FirstMatchWins(t *testing.T) {
	xml := `<NFe><infNFe>
		<ide><nNF>1</nNF><nNF>2</nNF><serie>1</serie><dhEmi>d</dhEmi></ide>
		<emit><xNome>Primeiro</xNome><CNPJ>1</CNPJ><xLgr>Rua</xLgr><nro>1</nro></emit>
		<emit><xNome>Segundo</xNome></emit>
		<total><vNF>1</vNF></total>
	</infNFe></NFe>`

	doc, err := Extract([]byte(xml))
	rq.NoError(t, err)
	assert.Equal(t, "1", doc.Number)
	assert.Equal(t, "Primeiro", doc.Issuer.Name)
}

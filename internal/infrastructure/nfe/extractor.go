package nfe

import (
	"fmt"

	"github.com/nfce/danfe/internal/domain/fiscal"
)

// Extractor turns raw NFe/NFCe XML into a fiscal.Document
type Extractor struct{}

// NewExtractor creates a new Extractor
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract implements the document extraction used by the print service
func (e *Extractor) Extract(data []byte) (*fiscal.Document, error) {
	return Extract(data)
}

// Extract parses the XML and reads the fixed NFe tag chain.
// A missing dest block yields a nil Recipient; any other missing element
// fails with fiscal.ErrMalformedDocument naming the tag path.
func Extract(data []byte) (*fiscal.Document, error) {
	root, err := parse(data)
	if err != nil {
		return nil, fiscal.NewMalformedError("XML inválido: %v", err)
	}

	nfe, err := require(root, "", "NFe")
	if err != nil {
		return nil, err
	}
	inf, err := require(nfe, "NFe", "infNFe")
	if err != nil {
		return nil, err
	}

	l := &lookup{}
	ide := l.element(inf, "NFe/infNFe", "ide")
	emit := l.element(inf, "NFe/infNFe", "emit")
	total := l.element(inf, "NFe/infNFe", "total")
	if l.err != nil {
		return nil, l.err
	}

	doc := &fiscal.Document{
		Number:   l.value(ide, "NFe/infNFe/ide", "nNF"),
		Series:   l.value(ide, "NFe/infNFe/ide", "serie"),
		IssuedAt: l.value(ide, "NFe/infNFe/ide", "dhEmi"),
		Issuer: fiscal.Issuer{
			Name:  l.value(emit, "NFe/infNFe/emit", "xNome"),
			TaxID: l.value(emit, "NFe/infNFe/emit", "CNPJ"),
		},
		TotalAmount: l.value(total, "NFe/infNFe/total", "vNF"),
		Items:       []fiscal.LineItem{},
	}
	street := l.value(emit, "NFe/infNFe/emit", "xLgr")
	number := l.value(emit, "NFe/infNFe/emit", "nro")
	doc.Issuer.Address = street + ", " + number

	if dest := inf.first("dest"); dest != nil {
		doc.Recipient = &fiscal.Recipient{
			Name:  l.value(dest, "NFe/infNFe/dest", "xNome"),
			TaxID: l.taxID(dest, "NFe/infNFe/dest"),
		}
	}

	for i, det := range inf.all("det") {
		path := fmt.Sprintf("NFe/infNFe/det[%d]", i+1)
		prod := l.element(det, path, "prod")
		if prod == nil {
			break
		}
		path += "/prod"
		doc.Items = append(doc.Items, fiscal.LineItem{
			Description: l.value(prod, path, "xProd"),
			Quantity:    l.value(prod, path, "qCom"),
			UnitPrice:   l.value(prod, path, "vUnCom"),
		})
	}

	if l.err != nil {
		return nil, l.err
	}
	return doc, nil
}

// lookup records the first missing element of a sequence of lookups
type lookup struct {
	err error
}

func (l *lookup) element(parent *node, path, name string) *node {
	if l.err != nil || parent == nil {
		return nil
	}
	n, err := require(parent, path, name)
	if err != nil {
		l.err = err
	}
	return n
}

func (l *lookup) value(parent *node, path, name string) string {
	if n := l.element(parent, path, name); n != nil {
		return n.text()
	}
	return ""
}

// taxID reads CPF and falls back to CNPJ for company consumers
func (l *lookup) taxID(dest *node, path string) string {
	if l.err != nil {
		return ""
	}
	if cpf := dest.first("CPF"); cpf != nil {
		return cpf.text()
	}
	if cnpj := dest.first("CNPJ"); cnpj != nil {
		return cnpj.text()
	}
	l.err = fiscal.NewMalformedError("tag %s/CPF não encontrada", path)
	return ""
}

func require(parent *node, path, name string) (*node, error) {
	if n := parent.first(name); n != nil {
		return n, nil
	}
	full := name
	if path != "" {
		full = path + "/" + name
	}
	return nil, fiscal.NewMalformedError("tag %s não encontrada", full)
}

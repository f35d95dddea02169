package fiscal

// Issuer is the emitting company (emit block)
type Issuer struct {
	Name    string // xNome
	TaxID   string // CNPJ
	Address string // xLgr + ", " + nro
}

// Recipient is the consumer identified on the receipt (dest block)
type Recipient struct {
	Name  string // xNome
	TaxID string // CPF, or CNPJ for company consumers
}

// LineItem is one product entry (det/prod block)
type LineItem struct {
	Description string // xProd
	Quantity    string // qCom
	UnitPrice   string // vUnCom
}

// Document is the record of one NFe/NFCe.
// Values are copied verbatim from the XML; amounts stay textual until
// they are formatted for display.
type Document struct {
	Number      string // ide/nNF
	Series      string // ide/serie
	IssuedAt    string // ide/dhEmi
	Issuer      Issuer
	Recipient   *Recipient // nil when the XML has no dest block
	TotalAmount string     // total/ICMSTot/vNF
	Items       []LineItem
}

// HasRecipient returns true if the document identifies a recipient
func (d *Document) HasRecipient() bool {
	return d.Recipient != nil
}

// ItemCount returns the number of line items
func (d *Document) ItemCount() int {
	return len(d.Items)
}

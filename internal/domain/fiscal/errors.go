package fiscal

import (
	"fmt"

	"github.com/nfce/danfe/internal/domain/shared"
)

// Error codes for fiscal document failures
const (
	CodeDocumentLoadFailed = "DOCUMENT_LOAD_FAILED"
	CodeMalformedDocument  = "MALFORMED_DOCUMENT"
)

var (
	// ErrDocumentLoadFailed is returned when the XML source cannot be read
	ErrDocumentLoadFailed = shared.NewDomainError(CodeDocumentLoadFailed, "Erro ao carregar XML")
	// ErrMalformedDocument is returned when an expected tag is missing or a value is unusable
	ErrMalformedDocument = shared.NewDomainError(CodeMalformedDocument, "Documento fiscal malformado")
)

// NewLoadError builds a document-load failure carrying the underlying reason
func NewLoadError(format string, args ...any) *shared.DomainError {
	return shared.NewDomainError(CodeDocumentLoadFailed,
		"Erro ao carregar XML: "+fmt.Sprintf(format, args...))
}

// NewMalformedError builds a malformed-document failure carrying the reason
func NewMalformedError(format string, args ...any) *shared.DomainError {
	return shared.NewDomainError(CodeMalformedDocument,
		"Documento fiscal malformado: "+fmt.Sprintf(format, args...))
}

package printing

import (
	"fmt"

	"github.com/nfce/danfe/internal/domain/shared"
)

// Error codes for print bridge failures
const (
	CodeBridgeUnavailable   = "BRIDGE_UNAVAILABLE"
	CodeBridgeConnectFailed = "BRIDGE_CONNECT_FAILED"
	CodeBridgeBusy          = "BRIDGE_BUSY"
	CodePrinterNotFound     = "PRINTER_NOT_FOUND"
	CodePrinterQueryFailed  = "PRINTER_QUERY_FAILED"
	CodePrintSubmitFailed   = "PRINT_SUBMIT_FAILED"
	CodeRenderFailed        = "RENDER_FAILED"
)

var (
	ErrBridgeUnavailable   = shared.NewDomainError(CodeBridgeUnavailable, "QZ Tray não está instalado ou não foi carregado.")
	ErrBridgeConnectFailed = shared.NewDomainError(CodeBridgeConnectFailed, "Falha ao conectar ao QZ Tray")
	ErrBridgeBusy          = shared.NewDomainError(CodeBridgeBusy, "Outra impressão está em andamento")
	ErrPrinterNotFound     = shared.NewDomainError(CodePrinterNotFound, "Impressora não encontrada")
	ErrPrinterQueryFailed  = shared.NewDomainError(CodePrinterQueryFailed, "Falha ao consultar impressoras")
	ErrPrintSubmitFailed   = shared.NewDomainError(CodePrintSubmitFailed, "Falha ao enviar impressão")
	ErrRenderFailed        = shared.NewDomainError(CodeRenderFailed, "Falha ao gerar DANFE")
)

// NewPrinterNotFoundError names the configured printer that is missing
func NewPrinterNotFoundError(printerName string) *shared.DomainError {
	return shared.NewDomainError(CodePrinterNotFound,
		fmt.Sprintf("Impressora '%s' não encontrada.", printerName))
}

// NewBridgeError builds a bridge failure of the given code carrying the
// bridge's own message verbatim
func NewBridgeError(code string, cause error) *shared.DomainError {
	msg := "unknown bridge error"
	if cause != nil {
		msg = cause.Error()
	}
	return shared.NewDomainError(code, msg)
}

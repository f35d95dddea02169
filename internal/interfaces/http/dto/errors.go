package dto

import "net/http"

// Error code constants organized by category
// Format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	// ErrCodeUnknown is used when the error type is unknown
	ErrCodeUnknown = "ERR_UNKNOWN"
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "ERR_INTERNAL"
)

// Validation error codes
const (
	ErrCodeValidation         = "ERR_VALIDATION"
	ErrCodeValidationRequired = "ERR_VALIDATION_REQUIRED"
	ErrCodeValidationFormat   = "ERR_VALIDATION_FORMAT"
	ErrCodeValidationRange    = "ERR_VALIDATION_RANGE"
)

// Resource error codes
const (
	// ErrCodeNotFound is used when a resource is not found
	ErrCodeNotFound = "ERR_NOT_FOUND"
	// ErrCodeInvalidState is used when an operation is invalid for current state
	ErrCodeInvalidState = "ERR_INVALID_STATE"
)

// Input error codes
const (
	ErrCodeBadRequest   = "ERR_BAD_REQUEST"
	ErrCodeInvalidInput = "ERR_INVALID_INPUT"
	ErrCodeInvalidJSON  = "ERR_INVALID_JSON"
	ErrCodeBodyTooLarge = "ERR_BODY_TOO_LARGE"
)

// Document error codes
const (
	// ErrCodeDocumentLoad is used when the fiscal XML cannot be fetched
	ErrCodeDocumentLoad = "ERR_DOCUMENT_LOAD"
	// ErrCodeMalformedDocument is used when the fiscal XML lacks required data
	ErrCodeMalformedDocument = "ERR_MALFORMED_DOCUMENT"
	// ErrCodeRenderFailed is used when the DANFE or its PDF cannot be produced
	ErrCodeRenderFailed = "ERR_RENDER_FAILED"
)

// Print bridge error codes
const (
	ErrCodeBridgeUnavailable   = "ERR_BRIDGE_UNAVAILABLE"
	ErrCodeBridgeConnectFailed = "ERR_BRIDGE_CONNECT_FAILED"
	ErrCodeBridgeBusy          = "ERR_BRIDGE_BUSY"
	ErrCodePrinterNotFound     = "ERR_PRINTER_NOT_FOUND"
	ErrCodePrinterQueryFailed  = "ERR_PRINTER_QUERY_FAILED"
	ErrCodePrintSubmitFailed   = "ERR_PRINT_SUBMIT_FAILED"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	// General errors
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	// Validation errors -> 400 Bad Request
	ErrCodeValidation:         http.StatusBadRequest,
	ErrCodeValidationRequired: http.StatusBadRequest,
	ErrCodeValidationFormat:   http.StatusBadRequest,
	ErrCodeValidationRange:    http.StatusBadRequest,

	// Resource errors
	ErrCodeNotFound:     http.StatusNotFound,
	ErrCodeInvalidState: http.StatusUnprocessableEntity,

	// Input errors -> 400 Bad Request
	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodeInvalidInput: http.StatusBadRequest,
	ErrCodeInvalidJSON:  http.StatusBadRequest,
	ErrCodeBodyTooLarge: http.StatusRequestEntityTooLarge,

	// Document errors
	ErrCodeDocumentLoad:      http.StatusUnprocessableEntity,
	ErrCodeMalformedDocument: http.StatusUnprocessableEntity,
	ErrCodeRenderFailed:      http.StatusInternalServerError,

	// Bridge errors
	ErrCodeBridgeUnavailable:   http.StatusServiceUnavailable,
	ErrCodeBridgeConnectFailed: http.StatusBadGateway,
	ErrCodeBridgeBusy:          http.StatusConflict,
	ErrCodePrinterNotFound:     http.StatusNotFound,
	ErrCodePrinterQueryFailed:  http.StatusBadGateway,
	ErrCodePrintSubmitFailed:   http.StatusBadGateway,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// LegacyErrorCodeMapping maps domain error codes to the standardized codes
var LegacyErrorCodeMapping = map[string]string{
	"NOT_FOUND":             ErrCodeNotFound,
	"INVALID_INPUT":         ErrCodeInvalidInput,
	"INVALID_STATE":         ErrCodeInvalidState,
	"VALIDATION_ERROR":      ErrCodeValidation,
	"BAD_REQUEST":           ErrCodeBadRequest,
	"INTERNAL_ERROR":        ErrCodeInternal,
	"DOCUMENT_LOAD_FAILED":  ErrCodeDocumentLoad,
	"MALFORMED_DOCUMENT":    ErrCodeMalformedDocument,
	"RENDER_FAILED":         ErrCodeRenderFailed,
	"BRIDGE_UNAVAILABLE":    ErrCodeBridgeUnavailable,
	"BRIDGE_CONNECT_FAILED": ErrCodeBridgeConnectFailed,
	"BRIDGE_BUSY":           ErrCodeBridgeBusy,
	"PRINTER_NOT_FOUND":     ErrCodePrinterNotFound,
	"PRINTER_QUERY_FAILED":  ErrCodePrinterQueryFailed,
	"PRINT_SUBMIT_FAILED":   ErrCodePrintSubmitFailed,
}

// NormalizeErrorCode converts a domain error code to the standardized format
// If the code is already in the new format or unknown, returns it as-is
func NormalizeErrorCode(code string) string {
	if newCode, ok := LegacyErrorCodeMapping[code]; ok {
		return newCode
	}
	return code
}

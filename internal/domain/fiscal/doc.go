// Package fiscal contains the Fiscal Document bounded context.
// A Document is the flat record extracted from an NFe/NFCe XML file and
// lives only for the duration of one print action.
package fiscal

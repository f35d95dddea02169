// Package nfe extracts fiscal.Document records from NFe/NFCe XML.
//
// Lookups follow DOM getElementsByTagName semantics: every step takes the
// first descendant, in document order, whose local name matches. The dest
// block is optional; every other element of the tag chain is required.
package nfe

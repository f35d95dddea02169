// Package printing contains the Printing bounded context.
// It describes what is sent to the print bridge (printer configuration,
// payloads and their options), the user-facing status of a print action
// and the history of submitted print jobs.
package printing

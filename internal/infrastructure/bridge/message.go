package bridge

import (
	"encoding/json"

	"github.com/nfce/danfe/internal/domain/printing"
)

// Call names understood by QZ Tray
const (
	callPrintersFind = "printers.find"
	callPrint        = "print"
)

// request is one call sent to the bridge
type request struct {
	Call          string          `json:"call,omitempty"`
	Params        interface{}     `json:"params,omitempty"`
	Certificate   json.RawMessage `json:"certificate,omitempty"`
	UID           string          `json:"uid"`
	Timestamp     int64           `json:"timestamp"`
	Signature     string          `json:"signature,omitempty"`
	SignAlgorithm string          `json:"signAlgorithm,omitempty"`
}

// signedContent is the part of a request covered by the signature
type signedContent struct {
	Call      string      `json:"call"`
	Params    interface{} `json:"params"`
	Timestamp int64       `json:"timestamp"`
}

// response is the bridge answer to a request with the same uid.
// Messages without uid are unsolicited events.
type response struct {
	UID    string          `json:"uid"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}

type findParams struct {
	Query string `json:"query,omitempty"`
}

type printerRef struct {
	Name string `json:"name"`
}

type printParams struct {
	Printer printerRef             `json:"printer"`
	Options printing.ConfigOptions `json:"options"`
	Data    []printing.PrintData   `json:"data"`
}

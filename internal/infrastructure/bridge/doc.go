// Package bridge is a client for the QZ Tray desktop printing bridge.
//
// QZ Tray listens on a local websocket. Every call is a JSON message
// carrying a uid; the bridge answers with a message holding the same uid
// and either a result or an error string. Messages may be signed with the
// site's private key so the bridge can skip the trust prompt.
package bridge

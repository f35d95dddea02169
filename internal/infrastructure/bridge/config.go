package bridge

import (
	"time"

	"go.uber.org/zap"
)

// DefaultURLs are the insecure websocket ports QZ Tray tries in order
var DefaultURLs = []string{
	"ws://localhost:8182",
	"ws://localhost:8283",
	"ws://localhost:8384",
	"ws://localhost:8485",
}

const (
	defaultConnectTimeout = 5 * time.Second
	defaultRequestTimeout = 30 * time.Second
)

// Config contains configuration for the QZ Tray client
type Config struct {
	// URLs are tried in order on Connect
	URLs []string
	// ConnectTimeout bounds the websocket handshake with each URL
	ConnectTimeout time.Duration
	// RequestTimeout bounds a single call when the context has no deadline
	RequestTimeout time.Duration
	// Signer signs calls; nil sends them unsigned
	Signer *Signer
	// Logger for debug output
	Logger *zap.Logger
}

func (c *Config) applyDefaults() {
	if len(c.URLs) == 0 {
		c.URLs = DefaultURLs
	}
	if c.ConnectTimeout == 0 {
		c.ConnectTimeout = defaultConnectTimeout
	}
	if c.RequestTimeout == 0 {
		c.RequestTimeout = defaultRequestTimeout
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
}

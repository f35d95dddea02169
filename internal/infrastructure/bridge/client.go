package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
	"github.com/google/uuid"
	"github.com/nfce/danfe/internal/domain/printing"
	"go.uber.org/zap"
)

// ErrNotConnected is returned by calls made without an open connection
var ErrNotConnected = errors.New("an open connection with QZ Tray does not exist")

// Client talks to QZ Tray over its local websocket.
// A Client holds at most one connection; callers serialize actions.
type Client struct {
	config *Config
	logger *zap.Logger

	mu   sync.Mutex
	conn net.Conn
	url  string
}

// NewClient creates a new QZ Tray client
func NewClient(config *Config) *Client {
	if config == nil {
		config = &Config{}
	}
	config.applyDefaults()
	return &Client{
		config: config,
		logger: config.Logger,
	}
}

// Probe reports whether any configured bridge URL accepts a websocket handshake
func (c *Client) Probe(ctx context.Context) bool {
	for _, url := range c.config.URLs {
		conn, err := c.dial(ctx, url)
		if err != nil {
			continue
		}
		_ = closeConn(conn)
		return true
	}
	return false
}

// Connect opens the websocket, trying each configured URL in order, and
// announces the site certificate
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		return printing.NewBridgeError(printing.CodeBridgeConnectFailed,
			errors.New("an open connection with QZ Tray already exists"))
	}

	var errs []error
	for _, url := range c.config.URLs {
		conn, err := c.dial(ctx, url)
		if err != nil {
			c.logger.Debug("QZ Tray not listening", zap.String("url", url), zap.Error(err))
			errs = append(errs, err)
			continue
		}
		c.conn = conn
		c.url = url
		break
	}
	if c.conn == nil {
		if len(errs) == 0 {
			errs = append(errs, errors.New("no QZ Tray URL configured"))
		}
		return printing.NewBridgeError(printing.CodeBridgeConnectFailed,
			fmt.Errorf("unable to establish connection with QZ Tray: %w", errors.Join(errs...)))
	}

	cert := json.RawMessage("null")
	if c.config.Signer != nil {
		cert, _ = json.Marshal(c.config.Signer.Certificate())
	}
	if err := c.roundTrip(ctx, &request{Certificate: cert}, nil); err != nil {
		_ = closeConn(c.conn)
		c.conn = nil
		return printing.NewBridgeError(printing.CodeBridgeConnectFailed, err)
	}

	c.logger.Info("connected to QZ Tray", zap.String("url", c.url))
	return nil
}

// FindPrinters lists every printer name known to the bridge
func (c *Client) FindPrinters(ctx context.Context) ([]string, error) {
	var printers []string
	if err := c.call(ctx, callPrintersFind, nil, &printers); err != nil {
		return nil, printing.NewBridgeError(printing.CodePrinterQueryFailed, err)
	}
	return printers, nil
}

// FindPrinter resolves a printer by name; the bridge answers with an error
// when no printer matches
func (c *Client) FindPrinter(ctx context.Context, query string) (string, error) {
	var name string
	if err := c.call(ctx, callPrintersFind, findParams{Query: query}, &name); err != nil {
		var remote *RemoteError
		if errors.As(err, &remote) {
			return "", printing.NewPrinterNotFoundError(query)
		}
		return "", printing.NewBridgeError(printing.CodePrinterQueryFailed, err)
	}
	return name, nil
}

// Print submits the payloads to the configured printer
func (c *Client) Print(ctx context.Context, config printing.PrinterConfig, data []printing.PrintData) error {
	if len(data) == 0 {
		return printing.NewBridgeError(printing.CodePrintSubmitFailed, errors.New("no data to print"))
	}
	params := printParams{
		Printer: printerRef{Name: config.PrinterName},
		Options: config.Options,
		Data:    data,
	}
	if err := c.call(ctx, callPrint, params, nil); err != nil {
		return printing.NewBridgeError(printing.CodePrintSubmitFailed, err)
	}
	c.logger.Info("print job submitted",
		zap.String("printer", config.PrinterName),
		zap.Int("payloads", len(data)))
	return nil
}

// Disconnect closes the websocket with a normal closure frame
func (c *Client) Disconnect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return ErrNotConnected
	}
	conn := c.conn
	c.conn = nil
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetWriteDeadline(deadline)
	}
	if err := closeConn(conn); err != nil {
		return fmt.Errorf("close QZ Tray connection: %w", err)
	}
	c.logger.Debug("disconnected from QZ Tray", zap.String("url", c.url))
	return nil
}

// RemoteError is an error string returned by the bridge itself
type RemoteError struct {
	Call    string
	Message string
}

func (e *RemoteError) Error() string {
	return e.Message
}

func (c *Client) call(ctx context.Context, name string, params interface{}, out interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return ErrNotConnected
	}
	return c.roundTrip(ctx, &request{Call: name, Params: params}, out)
}

// roundTrip sends req and waits for the answer with the same uid.
// Caller must hold c.mu.
func (c *Client) roundTrip(ctx context.Context, req *request, out interface{}) error {
	req.UID = uuid.NewString()
	req.Timestamp = time.Now().UnixMilli()
	if c.config.Signer != nil && req.Call != "" {
		signature, err := c.config.Signer.Sign(req.Call, req.Params, req.Timestamp)
		if err != nil {
			return err
		}
		req.Signature = signature
		req.SignAlgorithm = SignAlgorithm
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", req.Call, err)
	}

	conn := c.conn
	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(c.config.RequestTimeout)
	}
	if err := conn.SetDeadline(deadline); err != nil {
		return err
	}
	defer conn.SetDeadline(time.Time{})
	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetDeadline(time.Now())
	})
	defer stop()

	if err := wsutil.WriteClientText(conn, payload); err != nil {
		return c.transportError(ctx, err)
	}

	for {
		data, err := wsutil.ReadServerText(conn)
		if err != nil {
			return c.transportError(ctx, err)
		}
		var resp response
		if err := json.Unmarshal(data, &resp); err != nil {
			c.logger.Warn("ignoring malformed QZ Tray message", zap.Error(err))
			continue
		}
		if resp.UID != req.UID {
			c.logger.Debug("ignoring QZ Tray event", zap.ByteString("message", data))
			continue
		}
		if resp.Error != "" {
			return &RemoteError{Call: req.Call, Message: resp.Error}
		}
		if out != nil && len(resp.Result) > 0 {
			if err := json.Unmarshal(resp.Result, out); err != nil {
				return fmt.Errorf("decode %s result: %w", req.Call, err)
			}
		}
		return nil
	}
}

// transportError prefers the context error when the deadline was forced by cancellation
func (c *Client) transportError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	var closed wsutil.ClosedError
	if errors.As(err, &closed) {
		c.dropConn()
		return fmt.Errorf("QZ Tray closed the connection: %s", closed.Reason)
	}
	return err
}

// dropConn forgets a connection closed by the bridge. Caller must hold c.mu.
func (c *Client) dropConn() {
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
}

func (c *Client) dial(ctx context.Context, url string) (net.Conn, error) {
	dialer := ws.Dialer{Timeout: c.config.ConnectTimeout}
	conn, br, _, err := dialer.Dial(ctx, url)
	if err != nil {
		return nil, err
	}
	if br != nil {
		return &bufferedConn{Conn: conn, r: io.MultiReader(br, conn)}, nil
	}
	return conn, nil
}

func closeConn(conn net.Conn) error {
	body := ws.NewCloseFrameBody(ws.StatusNormalClosure, "")
	writeErr := wsutil.WriteClientMessage(conn, ws.OpClose, body)
	closeErr := conn.Close()
	if writeErr != nil {
		return writeErr
	}
	return closeErr
}

// bufferedConn drains bytes the dialer read past the handshake before the socket
type bufferedConn struct {
	net.Conn
	r io.Reader
}

func (b *bufferedConn) Read(p []byte) (int, error) {
	return b.r.Read(p)
}

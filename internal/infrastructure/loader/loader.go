// Package loader fetches NFCe XML documents from a local path, a file://
// URL, an http(s):// URL or an s3://bucket/key object.
package loader

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/nfce/danfe/internal/domain/fiscal"
	"go.uber.org/zap"
)

// DefaultMaxBytes bounds every document read
const DefaultMaxBytes int64 = 5 << 20

// ObjectGetter reads objects from an S3-compatible store
type ObjectGetter interface {
	GetObject(ctx context.Context, bucket, key string) ([]byte, error)
}

// Loader resolves a document source into raw bytes
type Loader struct {
	httpClient *http.Client
	objects    ObjectGetter
	maxBytes   int64
	logger     *zap.Logger
}

// Option configures a Loader
type Option func(*Loader)

// WithHTTPClient replaces the client used for http(s) sources
func WithHTTPClient(client *http.Client) Option {
	return func(l *Loader) {
		l.httpClient = client
	}
}

// WithObjectStorage enables s3:// sources
func WithObjectStorage(objects ObjectGetter) Option {
	return func(l *Loader) {
		l.objects = objects
	}
}

// WithMaxBytes sets the maximum document size
func WithMaxBytes(n int64) Option {
	return func(l *Loader) {
		if n > 0 {
			l.maxBytes = n
		}
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(l *Loader) {
		l.logger = logger
	}
}

// New creates a Loader
func New(opts ...Option) *Loader {
	l := &Loader{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		maxBytes:   DefaultMaxBytes,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load reads the document named by source. Every failure is a
// document-load error.
func (l *Loader) Load(ctx context.Context, source string) ([]byte, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return nil, fiscal.NewLoadError("origem do documento não informada")
	}

	u, err := url.Parse(source)
	// Single letter schemes are Windows drive letters
	if err != nil || len(u.Scheme) <= 1 {
		return l.loadFile(ctx, source)
	}

	switch strings.ToLower(u.Scheme) {
	case "file":
		path := u.Path
		if u.Host != "" && u.Host != "localhost" {
			path = u.Host + u.Path
		}
		return l.loadFile(ctx, path)
	case "http", "https":
		return l.loadHTTP(ctx, source)
	case "s3":
		return l.loadObject(ctx, u.Host, strings.TrimPrefix(u.Path, "/"))
	default:
		return nil, fiscal.NewLoadError("origem não suportada: %s", u.Scheme)
	}
}

func (l *Loader) loadFile(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, fiscal.NewLoadError("%v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fiscal.NewLoadError("arquivo não encontrado: %s", path)
		}
		return nil, fiscal.NewLoadError("%v", err)
	}
	defer f.Close()

	data, err := l.readLimited(f)
	if err != nil {
		return nil, err
	}
	l.logger.Debug("Document loaded from file", zap.String("path", path), zap.Int("size", len(data)))
	return data, nil
}

func (l *Loader) loadHTTP(ctx context.Context, source string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, fiscal.NewLoadError("%v", err)
	}
	req.Header.Set("Accept", "application/xml, text/xml")

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return nil, fiscal.NewLoadError("%v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// drain so the connection can be reused
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fiscal.NewLoadError("%d", resp.StatusCode)
	}

	data, err := l.readLimited(resp.Body)
	if err != nil {
		return nil, err
	}
	l.logger.Debug("Document fetched",
		zap.String("url", source),
		zap.Int("status", resp.StatusCode),
		zap.Int("size", len(data)),
	)
	return data, nil
}

func (l *Loader) loadObject(ctx context.Context, bucket, key string) ([]byte, error) {
	if l.objects == nil {
		return nil, fiscal.NewLoadError("armazenamento S3 não configurado")
	}
	if key == "" {
		return nil, fiscal.NewLoadError("chave S3 não informada")
	}
	data, err := l.objects.GetObject(ctx, bucket, key)
	if err != nil {
		return nil, fiscal.NewLoadError("%v", err)
	}
	if int64(len(data)) > l.maxBytes {
		return nil, fiscal.NewLoadError("documento excede %d bytes", l.maxBytes)
	}
	return data, nil
}

func (l *Loader) readLimited(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, l.maxBytes+1))
	if err != nil {
		return nil, fiscal.NewLoadError("%v", err)
	}
	if int64(len(data)) > l.maxBytes {
		return nil, fiscal.NewLoadError("documento excede %d bytes", l.maxBytes)
	}
	return data, nil
}


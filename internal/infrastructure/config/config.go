package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig
	Log       LogConfig
	HTTP      HTTPConfig
	Printer   PrinterConfig
	Document  DocumentConfig
	Bridge    BridgeConfig
	Lock      LockConfig
	Redis     RedisConfig
	Database  DatabaseConfig
	Storage   StorageConfig
	Renderer  RendererConfig
	Scheduler SchedulerConfig
	Telemetry TelemetryConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	IdleTimeout      time.Duration
	MaxHeaderBytes   int
	MaxBodySize      int64
	CORSAllowOrigins []string
	TrustedProxies   []string
}

// PrinterConfig holds the target printer and the print options sent with HTML jobs
type PrinterConfig struct {
	Name         string
	PageWidth    int // millimeters
	ColorType    string
	Orientation  string
	ScaleContent bool
}

// DocumentConfig holds the default document locations
type DocumentConfig struct {
	XMLPath     string // NFCe XML source: path, file://, http(s):// or s3://
	PDFPath     string // pre-rendered PDF handed to the bridge by file path
	LoadTimeout time.Duration
	MaxSize     int64
}

// BridgeConfig holds QZ Tray connection settings
type BridgeConfig struct {
	URLs            []string
	ConnectTimeout  time.Duration
	RequestTimeout  time.Duration
	CertificatePath string // optional, enables signed calls together with PrivateKeyPath
	PrivateKeyPath  string
}

// LockConfig holds the print action lock settings
type LockConfig struct {
	Backend        string // memory or redis
	Key            string
	AcquireTimeout time.Duration
	TTL            time.Duration // redis key expiry, defaults to ActionTimeout
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// DatabaseConfig holds the print history database settings
type DatabaseConfig struct {
	Driver          string // sqlite, postgres or none
	Path            string // sqlite file
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
	RetentionDays   int // print history retention, 0 keeps everything
}

// StorageConfig holds exported PDF storage and the S3 document source
type StorageConfig struct {
	PDFPath    string
	PDFBaseURL string
	S3         S3Config
}

// S3Config holds S3-compatible object storage settings
type S3Config struct {
	Endpoint     string
	Bucket       string
	AccessKey    string
	SecretKey    string
	Region       string
	UseSSL       bool
	UsePathStyle bool
}

// Enabled reports whether S3 sources are configured
func (s S3Config) Enabled() bool {
	return s.AccessKey != "" && s.SecretKey != ""
}

// RendererConfig holds the headless Chrome PDF export settings
type RendererConfig struct {
	Enabled   bool
	RemoteURL string
	NoSandbox bool
	Timeout   time.Duration
}

// SchedulerConfig holds the periodic maintenance of the server
type SchedulerConfig struct {
	Enabled             bool
	BridgeCheckInterval time.Duration // 0 disables the periodic bridge check
	RetentionSchedule   string        // cron minute and hour of the daily history purge
	TaskTimeout         time.Duration
}

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled           bool    // Whether to enable OpenTelemetry
	CollectorEndpoint string  // OTEL Collector endpoint (e.g., "localhost:4317")
	SamplingRatio     float64 // Sampling ratio (0.0-1.0, 1.0 = 100%)
	ServiceName       string  // Service name for traces
	Insecure          bool    // Use insecure (non-TLS) connection (development only)
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with DANFE_ prefix (e.g., DANFE_PRINTER_NAME)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile loads configuration from an explicit file, or searches the
// default locations when path is empty
func LoadFile(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/danfe")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	v.SetEnvPrefix("DANFE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Booleans that default to true need an explicit default
	v.SetDefault("printer.scale_content", true)
	v.SetDefault("renderer.enabled", true)
	v.SetDefault("scheduler.enabled", true)

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:      v.GetDuration("http.read_timeout"),
			WriteTimeout:     v.GetDuration("http.write_timeout"),
			IdleTimeout:      v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes:   v.GetInt("http.max_header_bytes"),
			MaxBodySize:      v.GetInt64("http.max_body_size"),
			CORSAllowOrigins: v.GetStringSlice("http.cors_allow_origins"),
			TrustedProxies:   v.GetStringSlice("http.trusted_proxies"),
		},
		Printer: PrinterConfig{
			Name:         v.GetString("printer.name"),
			PageWidth:    v.GetInt("printer.page_width"),
			ColorType:    v.GetString("printer.color_type"),
			Orientation:  v.GetString("printer.orientation"),
			ScaleContent: v.GetBool("printer.scale_content"),
		},
		Document: DocumentConfig{
			XMLPath:     v.GetString("document.xml_path"),
			PDFPath:     v.GetString("document.pdf_path"),
			LoadTimeout: v.GetDuration("document.load_timeout"),
			MaxSize:     v.GetInt64("document.max_size"),
		},
		Bridge: BridgeConfig{
			URLs:            v.GetStringSlice("bridge.urls"),
			ConnectTimeout:  v.GetDuration("bridge.connect_timeout"),
			RequestTimeout:  v.GetDuration("bridge.request_timeout"),
			CertificatePath: v.GetString("bridge.certificate_path"),
			PrivateKeyPath:  v.GetString("bridge.private_key_path"),
		},
		Lock: LockConfig{
			Backend:        v.GetString("lock.backend"),
			Key:            v.GetString("lock.key"),
			AcquireTimeout: v.GetDuration("lock.acquire_timeout"),
			TTL:            v.GetDuration("lock.ttl"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Database: DatabaseConfig{
			Driver:          v.GetString("database.driver"),
			Path:            v.GetString("database.path"),
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
			RetentionDays:   v.GetInt("database.retention_days"),
		},
		Storage: StorageConfig{
			PDFPath:    v.GetString("storage.pdf_path"),
			PDFBaseURL: v.GetString("storage.pdf_base_url"),
			S3: S3Config{
				Endpoint:     v.GetString("storage.s3.endpoint"),
				Bucket:       v.GetString("storage.s3.bucket"),
				AccessKey:    v.GetString("storage.s3.access_key"),
				SecretKey:    v.GetString("storage.s3.secret_key"),
				Region:       v.GetString("storage.s3.region"),
				UseSSL:       v.GetBool("storage.s3.use_ssl"),
				UsePathStyle: v.GetBool("storage.s3.use_path_style"),
			},
		},
		Renderer: RendererConfig{
			Enabled:   v.GetBool("renderer.enabled"),
			RemoteURL: v.GetString("renderer.remote_url"),
			NoSandbox: v.GetBool("renderer.no_sandbox"),
			Timeout:   v.GetDuration("renderer.timeout"),
		},
		Scheduler: SchedulerConfig{
			Enabled:             v.GetBool("scheduler.enabled"),
			BridgeCheckInterval: v.GetDuration("scheduler.bridge_check_interval"),
			RetentionSchedule:   v.GetString("scheduler.retention_schedule"),
			TaskTimeout:         v.GetDuration("scheduler.task_timeout"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "danfe"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 60 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if cfg.HTTP.MaxBodySize == 0 {
		cfg.HTTP.MaxBodySize = 10 << 20 // 10MB
	}
	if cfg.Printer.Name == "" {
		cfg.Printer.Name = "Microsoft Print to PDF"
	}
	if cfg.Printer.PageWidth == 0 {
		cfg.Printer.PageWidth = 80
	}
	if cfg.Printer.ColorType == "" {
		cfg.Printer.ColorType = "grayscale"
	}
	if cfg.Printer.Orientation == "" {
		cfg.Printer.Orientation = "portrait"
	}
	if cfg.Document.XMLPath == "" {
		cfg.Document.XMLPath = "nfe.xml"
	}
	if cfg.Document.PDFPath == "" {
		cfg.Document.PDFPath = "./danfe.pdf"
	}
	if cfg.Document.LoadTimeout == 0 {
		cfg.Document.LoadTimeout = 10 * time.Second
	}
	if cfg.Document.MaxSize == 0 {
		cfg.Document.MaxSize = 5 << 20 // 5MB
	}
	if len(cfg.Bridge.URLs) == 0 {
		cfg.Bridge.URLs = []string{
			"ws://localhost:8182",
			"ws://localhost:8283",
			"ws://localhost:8384",
			"ws://localhost:8485",
		}
	}
	if cfg.Bridge.ConnectTimeout == 0 {
		cfg.Bridge.ConnectTimeout = 5 * time.Second
	}
	if cfg.Bridge.RequestTimeout == 0 {
		cfg.Bridge.RequestTimeout = 30 * time.Second
	}
	if cfg.Lock.Backend == "" {
		cfg.Lock.Backend = "memory"
	}
	if cfg.Lock.Key == "" {
		cfg.Lock.Key = "danfe:print-lock"
	}
	if cfg.Lock.AcquireTimeout == 0 {
		cfg.Lock.AcquireTimeout = 30 * time.Second
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "sqlite"
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "danfe.db"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "danfe"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 10
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 2
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 30
	}
	if cfg.Storage.PDFPath == "" {
		cfg.Storage.PDFPath = "./data/danfe"
	}
	if cfg.Storage.PDFBaseURL == "" {
		cfg.Storage.PDFBaseURL = "/files/danfe"
	}
	if cfg.Storage.S3.Region == "" {
		cfg.Storage.S3.Region = "us-east-1"
	}
	if cfg.Renderer.Timeout == 0 {
		cfg.Renderer.Timeout = 30 * time.Second
	}
	if cfg.Scheduler.RetentionSchedule == "" {
		cfg.Scheduler.RetentionSchedule = "0 3 * * *"
	}
	if cfg.Scheduler.TaskTimeout == 0 {
		cfg.Scheduler.TaskTimeout = 5 * time.Minute
	}
	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317"
	}
	if cfg.Telemetry.SamplingRatio == 0 {
		cfg.Telemetry.SamplingRatio = 1.0
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = "danfe"
	}
	if cfg.Lock.TTL == 0 {
		cfg.Lock.TTL = cfg.ActionTimeout()
	}
}

// disconnectGrace bounds the disconnect that closes every bridge action
const disconnectGrace = 5 * time.Second

// ActionTimeout is the longest one print action can hold the action lock:
// document load, PDF rendering, connect, the certificate handshake, printer
// lookup and submit calls, then the disconnect.
func (c *Config) ActionTimeout() time.Duration {
	return c.Document.LoadTimeout + c.Renderer.Timeout + c.Bridge.ConnectTimeout +
		3*c.Bridge.RequestTimeout + disconnectGrace
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c.Printer.PageWidth < 40 || c.Printer.PageWidth > 300 {
		return fmt.Errorf("printer.page_width must be between 40 and 300 mm, got %d", c.Printer.PageWidth)
	}
	switch c.Printer.ColorType {
	case "color", "grayscale", "blackwhite":
	default:
		return fmt.Errorf("printer.color_type must be color, grayscale or blackwhite, got %q", c.Printer.ColorType)
	}
	switch c.Printer.Orientation {
	case "portrait", "landscape", "reverse-landscape":
	default:
		return fmt.Errorf("printer.orientation must be portrait, landscape or reverse-landscape, got %q", c.Printer.Orientation)
	}
	for _, u := range c.Bridge.URLs {
		if !strings.HasPrefix(u, "ws://") && !strings.HasPrefix(u, "wss://") {
			return fmt.Errorf("bridge.urls must be websocket URLs, got %q", u)
		}
	}
	if (c.Bridge.CertificatePath == "") != (c.Bridge.PrivateKeyPath == "") {
		return fmt.Errorf("bridge.certificate_path and bridge.private_key_path must be set together")
	}
	switch c.Lock.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("lock.backend must be memory or redis, got %q", c.Lock.Backend)
	}
	if c.Lock.Backend == "redis" && c.Lock.TTL < c.ActionTimeout() {
		return fmt.Errorf("lock.ttl (%s) must cover one print action (%s)", c.Lock.TTL, c.ActionTimeout())
	}
	switch c.Database.Driver {
	case "sqlite", "postgres", "none":
	default:
		return fmt.Errorf("database.driver must be sqlite, postgres or none, got %q", c.Database.Driver)
	}
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns cannot be negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}
	if c.App.Env == "production" && c.Database.Driver == "postgres" && c.Database.SSLMode == "disable" {
		return fmt.Errorf("database.sslmode cannot be 'disable' in production")
	}
	if c.Scheduler.BridgeCheckInterval < 0 {
		return fmt.Errorf("scheduler.bridge_check_interval cannot be negative")
	}
	if c.Telemetry.SamplingRatio < 0.0 || c.Telemetry.SamplingRatio > 1.0 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}
	return nil
}

// DSN returns the postgres connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

// Addr returns the redis host:port address
func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

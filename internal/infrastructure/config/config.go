package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"github.com/ythchandraap/expert-printer-guide/internal/domain/printing"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig
	Log       LogConfig
	HTTP      HTTPConfig
	Socket    SocketConfig
	Staging   StagingConfig
	Pipeline  PipelineConfig
	Renderer  RendererConfig
	Dispatch  DispatchConfig
	Printers  PrintersConfig
	Tracker   TrackerConfig
	Redis     RedisConfig
	Archive   ArchiveConfig
	Telemetry TelemetryConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Host string
	Port string `validate:"required,numeric"`
}

// Addr returns the listen address
func (a AppConfig) Addr() string {
	return a.Host + ":" + a.Port
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `validate:"oneof=debug info warn warning error fatal"` // debug, info, warn, error
	Format string `validate:"oneof=json console"`
	Output string // stdout, stderr, or file path
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	IdleTimeout      time.Duration
	MaxHeaderBytes   int
	MaxBodySize      int64 `validate:"gt=0"`
	ResultWait       time.Duration
	CORSAllowOrigins []string
	CORSAllowMethods []string
	CORSAllowHeaders []string
}

// SocketConfig holds event socket configuration
type SocketConfig struct {
	Path         string `validate:"startswith=/"`
	PushInterval time.Duration
}

// StagingConfig holds staged document settings
type StagingConfig struct {
	Dir           string `validate:"required"`
	Retention     time.Duration
	SweepInterval time.Duration
}

// PipelineConfig holds print pipeline settings
type PipelineConfig struct {
	QueueSize      int `validate:"gt=0"`
	JobTimeout     time.Duration
	GeometryPolicy string
	PaperTargetDPI int `validate:"gte=203,lte=850"`
}

// RendererConfig holds rendering surface settings
type RendererConfig struct {
	RemoteURL     string // connect to an existing Chrome instead of launching one
	Headless      bool
	NoSandbox     bool
	ReadyTimeout  time.Duration
	ViewerBaseURL string // where the rendering surface reaches the embedded viewer
	PDFJSURL      string
	SourceDPI     int `validate:"gt=0"`
}

// DispatchConfig holds native print settings
type DispatchConfig struct {
	Backend   string `validate:"oneof=lp file"`
	LPPath    string
	OutputDir string
	FitToPage bool
}

// StaticPrinter describes a printer listed in configuration
type StaticPrinter struct {
	Name           string `mapstructure:"name" validate:"required"`
	DisplayName    string `mapstructure:"display_name"`
	Description    string `mapstructure:"description"`
	Location       string `mapstructure:"location"`
	IsDefault      bool   `mapstructure:"is_default"`
	Status         int    `mapstructure:"status"`
	PaperSizeWidth *int   `mapstructure:"paper_size_width" validate:"omitempty,gte=0"`
}

// PrintersConfig holds printer enumeration settings
type PrintersConfig struct {
	Backend       string `validate:"oneof=cups static"`
	LPStatPath    string
	LPOptionsPath string
	Static        []StaticPrinter `validate:"dive"`
}

// TrackerConfig holds job tracker settings
type TrackerConfig struct {
	Backend   string `validate:"oneof=memory redis"`
	TTL       time.Duration
	KeyPrefix string
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// Addr returns the Redis address
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// ArchiveConfig holds S3 archive settings for swept staged files
type ArchiveConfig struct {
	Enabled         bool
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Prefix          string
	UsePathStyle    bool
}

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled               bool    // Whether to enable OpenTelemetry
	CollectorEndpoint     string  // OTEL Collector endpoint (e.g., "localhost:4317")
	SamplingRatio         float64 // Sampling ratio (0.0-1.0, 1.0 = 100%)
	ServiceName           string  // Service name for traces
	Insecure              bool    // Use insecure (non-TLS) connection (development only)
	MetricsExportInterval time.Duration
}

// Load loads configuration from a TOML file and environment variables.
// An empty path searches the default locations.
// Priority (highest to lowest):
// 1. Environment variables with EPG_ prefix (e.g., EPG_APP_PORT)
// 2. config.toml
// 3. Built-in defaults
func Load(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".expert-printer-guide"))
		}
		v.AddConfigPath("/etc/expert-printer-guide")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	v.SetEnvPrefix("EPG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Host: v.GetString("app.host"),
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
			ResultWait:       v.GetDuration("http.result_wait"),
			CORSAllowOrigins: v.GetStringSlice("http.cors_allow_origins"),
			CORSAllowMethods: v.GetStringSlice("http.cors_allow_methods"),
			CORSAllowHeaders: v.GetStringSlice("http.cors_allow_headers"),
		},
		Socket: SocketConfig{
			Path:         v.GetString("socket.path"),
			PushInterval: v.GetDuration("socket.push_interval"),
		},
		Staging: StagingConfig{
			Dir:           v.GetString("staging.dir"),
			Retention:     v.GetDuration("staging.retention"),
			SweepInterval: v.GetDuration("staging.sweep_interval"),
		},
		Pipeline: PipelineConfig{
			QueueSize:      v.GetInt("pipeline.queue_size"),
			JobTimeout:     v.GetDuration("pipeline.job_timeout"),
			GeometryPolicy: v.GetString("pipeline.geometry_policy"),
			PaperTargetDPI: v.GetInt("pipeline.paper_target_dpi"),
		},
		Renderer: RendererConfig{
			RemoteURL:     v.GetString("renderer.remote_url"),
			Headless:      !v.IsSet("renderer.headless") || v.GetBool("renderer.headless"),
			NoSandbox:     v.GetBool("renderer.no_sandbox"),
			ReadyTimeout:  v.GetDuration("renderer.ready_timeout"),
			ViewerBaseURL: v.GetString("renderer.viewer_base_url"),
			PDFJSURL:      v.GetString("renderer.pdfjs_url"),
			SourceDPI:     v.GetInt("renderer.source_dpi"),
		},
		Dispatch: DispatchConfig{
			Backend:   v.GetString("dispatch.backend"),
			LPPath:    v.GetString("dispatch.lp_path"),
			OutputDir: v.GetString("dispatch.output_dir"),
			FitToPage: v.GetBool("dispatch.fit_to_page"),
		},
		Printers: PrintersConfig{
			Backend:       v.GetString("printers.backend"),
			LPStatPath:    v.GetString("printers.lpstat_path"),
			LPOptionsPath: v.GetString("printers.lpoptions_path"),
		},
		Tracker: TrackerConfig{
			Backend:   v.GetString("tracker.backend"),
			TTL:       v.GetDuration("tracker.ttl"),
			KeyPrefix: v.GetString("tracker.key_prefix"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Archive: ArchiveConfig{
			Enabled:         v.GetBool("archive.enabled"),
			Bucket:          v.GetString("archive.bucket"),
			Region:          v.GetString("archive.region"),
			Endpoint:        v.GetString("archive.endpoint"),
			AccessKeyID:     v.GetString("archive.access_key_id"),
			SecretAccessKey: v.GetString("archive.secret_access_key"),
			Prefix:          v.GetString("archive.prefix"),
			UsePathStyle:    v.GetBool("archive.use_path_style"),
		},
		Telemetry: TelemetryConfig{
			Enabled:               v.GetBool("telemetry.enabled"),
			CollectorEndpoint:     v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:         v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:           v.GetString("telemetry.service_name"),
			Insecure:              v.GetBool("telemetry.insecure"),
			MetricsExportInterval: v.GetDuration("telemetry.metrics_export_interval"),
		},
	}

	if err := v.UnmarshalKey("printers.static", &cfg.Printers.Static); err != nil {
		return nil, fmt.Errorf("error reading printers.static: %w", err)
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
		cfg.App.Name = "expert-printer-guide"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "18032"
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
		cfg.HTTP.ReadTimeout = 30 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 2 * time.Minute
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if cfg.HTTP.MaxBodySize == 0 {
		cfg.HTTP.MaxBodySize = 50 << 20 // 50MB
	}
	if cfg.HTTP.ResultWait == 0 {
		cfg.HTTP.ResultWait = 90 * time.Second
	}
	// The bridge is called from browser pages on arbitrary local origins
	if len(cfg.HTTP.CORSAllowOrigins) == 0 {
		cfg.HTTP.CORSAllowOrigins = []string{"*"}
	}
	if len(cfg.HTTP.CORSAllowMethods) == 0 {
		cfg.HTTP.CORSAllowMethods = []string{"GET", "POST", "OPTIONS"}
	}
	if len(cfg.HTTP.CORSAllowHeaders) == 0 {
		cfg.HTTP.CORSAllowHeaders = []string{"Content-Type", "X-Request-ID", "print-device", "copies"}
	}
	if cfg.Socket.Path == "" {
		cfg.Socket.Path = "/socket"
	}
	if cfg.Socket.PushInterval == 0 {
		cfg.Socket.PushInterval = 2500 * time.Millisecond
	}
	if cfg.Staging.Dir == "" {
		cfg.Staging.Dir = defaultStagingDir()
	}
	if cfg.Staging.Retention == 0 {
		cfg.Staging.Retention = 24 * time.Hour
	}
	if cfg.Staging.SweepInterval == 0 {
		cfg.Staging.SweepInterval = time.Hour
	}
	if cfg.Pipeline.QueueSize == 0 {
		cfg.Pipeline.QueueSize = 100
	}
	if cfg.Pipeline.JobTimeout == 0 {
		cfg.Pipeline.JobTimeout = 2 * time.Minute
	}
	if cfg.Pipeline.GeometryPolicy == "" {
		cfg.Pipeline.GeometryPolicy = string(printing.GeometryPolicyLastPage)
	}
	if cfg.Pipeline.PaperTargetDPI == 0 {
		cfg.Pipeline.PaperTargetDPI = printing.MaxPaperTargetDPI
	}
	if cfg.Renderer.ReadyTimeout == 0 {
		cfg.Renderer.ReadyTimeout = 30 * time.Second
	}
	if cfg.Renderer.SourceDPI == 0 {
		cfg.Renderer.SourceDPI = printing.RenderSourceDPI
	}
	if cfg.Renderer.ViewerBaseURL == "" {
		cfg.Renderer.ViewerBaseURL = "http://127.0.0.1:" + cfg.App.Port
	}
	if cfg.Renderer.PDFJSURL == "" {
		cfg.Renderer.PDFJSURL = "https://cdnjs.cloudflare.com/ajax/libs/pdf.js/3.11.174"
	}
	if cfg.Dispatch.Backend == "" {
		cfg.Dispatch.Backend = "lp"
	}
	if cfg.Dispatch.LPPath == "" {
		cfg.Dispatch.LPPath = "lp"
	}
	if cfg.Dispatch.OutputDir == "" {
		cfg.Dispatch.OutputDir = filepath.Join(cfg.Staging.Dir, "out")
	}
	if cfg.Printers.Backend == "" {
		cfg.Printers.Backend = "cups"
	}
	if cfg.Printers.LPStatPath == "" {
		cfg.Printers.LPStatPath = "lpstat"
	}
	if cfg.Printers.LPOptionsPath == "" {
		cfg.Printers.LPOptionsPath = "lpoptions"
	}
	if cfg.Tracker.Backend == "" {
		cfg.Tracker.Backend = "memory"
	}
	if cfg.Tracker.TTL == 0 {
		cfg.Tracker.TTL = time.Hour
	}
	if cfg.Tracker.KeyPrefix == "" {
		cfg.Tracker.KeyPrefix = "epg:job:"
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Archive.Region == "" {
		cfg.Archive.Region = "us-east-1"
	}
	if cfg.Archive.Prefix == "" {
		cfg.Archive.Prefix = "staged/"
	}
	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317"
	}
	if cfg.Telemetry.SamplingRatio == 0 {
		cfg.Telemetry.SamplingRatio = 1.0
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = "expert-printer-guide"
	}
	if cfg.Telemetry.MetricsExportInterval == 0 {
		cfg.Telemetry.MetricsExportInterval = 60 * time.Second
	}
}

func defaultStagingDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "printer")
	}
	return filepath.Join(home, "Documents", "printer")
}

var structValidator = validator.New()

// validate performs validation on the configuration
func (c *Config) validate() error {
	if err := structValidator.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("invalid config %s: failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value())
		}
		return fmt.Errorf("invalid config: %w", err)
	}

	if _, ok := printing.ParseGeometryPolicy(c.Pipeline.GeometryPolicy); !ok {
		return fmt.Errorf("pipeline.geometry_policy must be last_page or per_page, got %q", c.Pipeline.GeometryPolicy)
	}
	if c.Printers.Backend == "static" && len(c.Printers.Static) == 0 {
		return fmt.Errorf("printers.static must list at least one printer when printers.backend is static")
	}
	if c.Archive.Enabled && c.Archive.Bucket == "" {
		return fmt.Errorf("archive.bucket is required when archive is enabled")
	}
	if c.Telemetry.SamplingRatio < 0.0 || c.Telemetry.SamplingRatio > 1.0 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}
	if c.Socket.PushInterval < 0 {
		return fmt.Errorf("socket.push_interval cannot be negative")
	}

	return nil
}

// Policy returns the parsed geometry policy
func (p PipelineConfig) Policy() printing.GeometryPolicy {
	policy, _ := printing.ParseGeometryPolicy(p.GeometryPolicy)
	return policy
}

// Descriptors converts the configured static printers
func (p PrintersConfig) Descriptors() []printing.PrinterDescriptor {
	out := make([]printing.PrinterDescriptor, 0, len(p.Static))
	for _, sp := range p.Static {
		display := sp.DisplayName
		if display == "" {
			display = sp.Name
		}
		d := printing.PrinterDescriptor{
			Name:        sp.Name,
			DisplayName: display,
			Description: sp.Description,
			Location:    sp.Location,
			IsDefault:   sp.IsDefault,
			StatusCode:  sp.Status,
		}
		if sp.PaperSizeWidth != nil {
			d.PaperSizeWidth = *sp.PaperSizeWidth
			d.HasPaperSize = true
		}
		out = append(out, d)
	}
	return out
}

package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	apperrors "papertrack/internal/errors"
)

// EnvPrefix namespaces every environment variable read by Load.
const EnvPrefix = "PAPERTRACK"

// Config represents the complete application configuration. Leaf fields
// carry no envconfig tag so that unprefixed variables such as PATH or PORT
// are never picked up as fallbacks.
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Security  SecurityConfig  `yaml:"security" envconfig:"SECURITY"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Workbook  WorkbookConfig  `yaml:"workbook" envconfig:"WORKBOOK"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
	Archive   ArchiveConfig   `yaml:"archive" envconfig:"ARCHIVE"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout" split_words:"true"`
	WriteTimeout    time.Duration `yaml:"write_timeout" split_words:"true"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" split_words:"true"`
	MaxHeaderBytes  int           `yaml:"max_header_bytes" split_words:"true"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" split_words:"true"`
	RequestTimeout  time.Duration `yaml:"request_timeout" split_words:"true"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	AllowedOrigins []string        `yaml:"allowed_origins" split_words:"true"`
	EnableCORS     bool            `yaml:"enable_cors" split_words:"true"`
	RateLimit      RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled"`
	RPS     float64 `yaml:"rps"`
	Burst   int     `yaml:"burst"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level       string `yaml:"level"`
	Format      string `yaml:"format"`
	Output      string `yaml:"output"`
	FilePath    string `yaml:"file_path" split_words:"true"`
	Development bool   `yaml:"development"`
}

// WorkbookConfig locates the tracking workbook.
type WorkbookConfig struct {
	Path       string `yaml:"path"`
	CacheSize  int    `yaml:"cache_size" split_words:"true"`
	// SchemaFile optionally replaces the built-in column layout.
	SchemaFile string `yaml:"schema_file" split_words:"true"`
}

// TelemetryConfig selects the trace and metric exporters.
type TelemetryConfig struct {
	ServiceName    string  `yaml:"service_name" split_words:"true"`
	Environment    string  `yaml:"environment"`
	TraceExporter  string  `yaml:"trace_exporter" split_words:"true"`
	MetricExporter string  `yaml:"metric_exporter" split_words:"true"`
	SampleRatio    float64 `yaml:"sample_ratio" split_words:"true"`
}

// ArchiveConfig points at the snapshot archive database. An empty path
// disables archiving.
type ArchiveConfig struct {
	Path string `yaml:"path"`
}

// Enabled reports whether an archive database is configured.
func (a ArchiveConfig) Enabled() bool {
	return strings.TrimSpace(a.Path) != ""
}

// Load builds the configuration from, in increasing precedence, built-in
// defaults, the YAML file at configPath (or the first default location found
// when configPath is empty), and PAPERTRACK_* environment variables. A .env
// file in the working directory is read first and never overrides variables
// already set in the process environment.
func Load(configPath string) (*Config, error) {
	if err := LoadDotEnv(".env"); err != nil {
		return nil, apperrors.NewConfigError("failed to read .env", err)
	}

	cfg := Default()

	if configPath == "" {
		configPath = getConfigFilePath()
	}
	if configPath != "" {
		if err := loadFromFile(configPath, cfg); err != nil {
			return nil, apperrors.NewConfigError(fmt.Sprintf("failed to load config from file %s", configPath), err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, apperrors.NewConfigError("failed to load config from env", err)
	}

	if err := cfg.resolvePaths(); err != nil {
		return nil, apperrors.NewConfigError("failed to resolve paths", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadDotEnv loads variables from the given dotenv files, ignoring files that
// do not exist.
func LoadDotEnv(files ...string) error {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return err
		}
	}
	return nil
}

// loadFromFile overlays the YAML file onto cfg. Keys absent from the file
// keep their current values. Relative file paths in the file are taken
// relative to the file's directory.
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}

	before := *cfg
	if err := yaml.UnmarshalStrict(data, cfg); err != nil {
		return err
	}

	base := filepath.Dir(filePath)
	if cfg.Workbook.Path != before.Workbook.Path {
		cfg.Workbook.Path = relativeTo(base, cfg.Workbook.Path)
	}
	if cfg.Workbook.SchemaFile != before.Workbook.SchemaFile {
		cfg.Workbook.SchemaFile = relativeTo(base, cfg.Workbook.SchemaFile)
	}
	if cfg.Archive.Path != before.Archive.Path {
		cfg.Archive.Path = relativeTo(base, cfg.Archive.Path)
	}
	return nil
}

func relativeTo(base, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(base, path)
}

// resolvePaths makes the configured file paths absolute.
func (c *Config) resolvePaths() error {
	var err error
	if c.Workbook.Path, err = absPath(c.Workbook.Path); err != nil {
		return fmt.Errorf("workbook path: %w", err)
	}
	if c.Workbook.SchemaFile, err = absPath(c.Workbook.SchemaFile); err != nil {
		return fmt.Errorf("schema file: %w", err)
	}
	if c.Archive.Path, err = absPath(c.Archive.Path); err != nil {
		return fmt.Errorf("archive path: %w", err)
	}
	return nil
}

func absPath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", nil
	}
	return filepath.Abs(path)
}

// Validate checks the configuration for values the application cannot run with.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return apperrors.NewConfigError(fmt.Sprintf("invalid server port: %d", c.Server.Port), nil)
	}

	if c.Server.ReadTimeout <= 0 {
		return apperrors.NewConfigError("server read timeout must be positive", nil)
	}

	if c.Server.WriteTimeout <= 0 {
		return apperrors.NewConfigError("server write timeout must be positive", nil)
	}

	if c.Security.EnableCORS && len(c.Security.AllowedOrigins) == 0 {
		return apperrors.NewConfigError("at least one allowed origin must be specified when CORS is enabled", nil)
	}

	if c.Security.RateLimit.Enabled && (c.Security.RateLimit.RPS <= 0 || c.Security.RateLimit.Burst <= 0) {
		return apperrors.NewConfigError("rate limit rps and burst must be positive", nil)
	}

	if c.Workbook.Path == "" {
		return apperrors.NewConfigError("workbook path is required", nil)
	}

	if c.Workbook.CacheSize < 1 {
		return apperrors.NewConfigError(fmt.Sprintf("workbook cache size must be at least 1, got %d", c.Workbook.CacheSize), nil)
	}

	switch c.Logging.Output {
	case "console", "file", "both":
	default:
		return apperrors.NewConfigError(fmt.Sprintf("unknown logging output %q", c.Logging.Output), nil)
	}

	switch c.Telemetry.TraceExporter {
	case "stdout", "none":
	default:
		return apperrors.NewConfigError(fmt.Sprintf("unknown trace exporter %q", c.Telemetry.TraceExporter), nil)
	}

	switch c.Telemetry.MetricExporter {
	case "prometheus", "none":
	default:
		return apperrors.NewConfigError(fmt.Sprintf("unknown metric exporter %q", c.Telemetry.MetricExporter), nil)
	}

	if c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > 1 {
		return apperrors.NewConfigError(fmt.Sprintf("sample ratio must be within [0, 1], got %v", c.Telemetry.SampleRatio), nil)
	}

	// JSON is the only structured format the logger emits
	if c.Logging.Format != "json" {
		c.Logging.Format = "json"
	}

	if c.Logging.Output != "console" && c.Logging.FilePath == "" {
		c.Logging.FilePath = "logs/papertrack.log"
	}

	return nil
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	locations := []string{
		"papertrack.yaml",
		"configs/papertrack.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return ""
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			MaxHeaderBytes:  1 << 20, // 1MB
			ShutdownTimeout: 30 * time.Second,
			RequestTimeout:  60 * time.Second,
		},
		Security: SecurityConfig{
			AllowedOrigins: []string{"http://localhost:8080"},
			EnableCORS:     true,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     100,
				Burst:   50,
			},
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "console",
			FilePath: "logs/papertrack.log",
		},
		Workbook: WorkbookConfig{
			Path:      "tracker.xlsx",
			CacheSize: 4,
		},
		Telemetry: TelemetryConfig{
			ServiceName:    "papertrack",
			Environment:    "development",
			TraceExporter:  "none",
			MetricExporter: "prometheus",
			SampleRatio:    1,
		},
	}
}

// Usage writes the environment variables Load understands to w as a table.
func Usage(w io.Writer) error {
	return envconfig.Usagef(EnvPrefix, Default(), w, envconfig.DefaultTableFormat)
}

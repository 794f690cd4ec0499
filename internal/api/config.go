// Package api provides the HTTP API server implementation for the Curated Query Service.
package api

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/TranslatorSRI/cqs/internal/config"
)

const (
	// DefaultPort is the default HTTP server port.
	DefaultPort = 8080
	// MaxPort is the maximum valid port number.
	MaxPort = 65535
	// DefaultHost is the default server host.
	DefaultHost = "0.0.0.0"
	// DefaultTimeout is the default timeout for HTTP operations.
	DefaultTimeout = 30 * time.Second
	// DefaultLogLevel is the default log level.
	DefaultLogLevel = slog.LevelInfo
	// DefaultCORSMaxAge is the default CORS max age (24 hours).
	DefaultCORSMaxAge = 86400

	// defaultReaperInterval is the Reaper's tick spacing (spec §4.10).
	defaultReaperInterval = 600 * time.Second
	// defaultReaperTimeout is the Reaper's per-tick context deadline.
	defaultReaperTimeout = 30 * time.Second
	// defaultReaperMaxAge is the job age past which the Reaper deletes it.
	defaultReaperMaxAge = 3600 * time.Second
	// defaultWorkerInterval is the Worker's tick spacing.
	defaultWorkerInterval = 30 * time.Second
	// defaultWorkerTimeout is the Worker's per-tick context deadline.
	defaultWorkerTimeout = 450 * time.Second
)

// Static validation errors.
var (
	ErrInvalidPort            = errors.New("invalid port")
	ErrEmptyHost              = errors.New("host cannot be empty")
	ErrInvalidReadTimeout     = errors.New("read timeout must be positive")
	ErrInvalidWriteTimeout    = errors.New("write timeout must be positive")
	ErrInvalidShutdownTimeout = errors.New("shutdown timeout must be positive")
	ErrWorkflowRunnerURLEmpty = errors.New("workflow runner URL cannot be empty")
)

// ServerConfig holds the HTTP server's own configuration plus the domain configuration spec §6's
// table names (WORKFLOW_RUNNER_URL, RESPONSE_URL, BIOLINK_VERSION, TRAPI_VERSION, MATURITY,
// LOCATION, WFR_OUTPUT_DIR). DATABASE_URL is deliberately not here — storage.LoadConfig owns it,
// matching the teacher's split between server knobs and storage knobs.
type ServerConfig struct {
	Port               int
	Host               string
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	ShutdownTimeout    time.Duration
	LogLevel           slog.Level
	CORSAllowedOrigins []string
	CORSAllowedMethods []string
	CORSAllowedHeaders []string
	CORSMaxAge         int

	WorkflowRunnerURL string
	ResponseURL       string
	BiolinkVersion    string
	TRAPIVersion      string
	Maturity          string
	Location          string
	WFROutputDir      string

	TemplateManifestPath string

	ReaperInterval time.Duration
	ReaperTimeout  time.Duration
	ReaperMaxAge   time.Duration
	WorkerInterval time.Duration
	WorkerTimeout  time.Duration

	KafkaBrokers        []string
	KafkaJobEventsTopic string
}

// LoadServerConfig loads server configuration from environment variables with sensible defaults.
func LoadServerConfig() ServerConfig {
	cfg := ServerConfig{
		Port:               DefaultPort,
		Host:               DefaultHost,
		ReadTimeout:        DefaultTimeout,
		WriteTimeout:       DefaultTimeout,
		ShutdownTimeout:    DefaultTimeout,
		LogLevel:           config.GetEnvLogLevel("LOG_LEVEL", DefaultLogLevel),
		CORSAllowedOrigins: []string{"*"}, // Development default - should be restricted in production
		CORSAllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		CORSAllowedHeaders: []string{"Content-Type", "Authorization", "X-Correlation-ID"},
		CORSMaxAge:         DefaultCORSMaxAge,

		WorkflowRunnerURL: config.GetEnvStr("WORKFLOW_RUNNER_URL", ""),
		ResponseURL:       config.GetEnvStr("RESPONSE_URL", ""),
		BiolinkVersion:    config.GetEnvStr("BIOLINK_VERSION", ""),
		TRAPIVersion:      config.GetEnvStr("TRAPI_VERSION", ""),
		Maturity:          config.GetEnvStr("MATURITY", ""),
		Location:          config.GetEnvStr("LOCATION", ""),
		WFROutputDir:      config.GetEnvStr("WFR_OUTPUT_DIR", ""),

		TemplateManifestPath: config.GetEnvStr("TEMPLATE_MANIFEST_PATH", "templates/manifest.yaml"),

		ReaperInterval: config.GetEnvDuration("REAPER_INTERVAL", defaultReaperInterval),
		ReaperTimeout:  config.GetEnvDuration("REAPER_TIMEOUT", defaultReaperTimeout),
		ReaperMaxAge:   config.GetEnvDuration("REAPER_STALE_AGE", defaultReaperMaxAge),
		WorkerInterval: config.GetEnvDuration("WORKER_INTERVAL", defaultWorkerInterval),
		WorkerTimeout:  config.GetEnvDuration("WORKER_TIMEOUT", defaultWorkerTimeout),

		KafkaJobEventsTopic: config.GetEnvStr("KAFKA_JOB_EVENTS_TOPIC", ""),
	}

	loadServerAddress(&cfg)
	loadTimeouts(&cfg)
	loadCORSConfig(&cfg)

	if brokers := config.GetEnvStr("KAFKA_BROKERS", ""); brokers != "" {
		cfg.KafkaBrokers = parseCommaSeparatedList(brokers)
	}

	return cfg
}

// Address returns the server address in host:port format.
func (c ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ToCORSConfig converts ServerConfig's CORS fields into a CORSConfig, which satisfies the
// middleware.CORSConfig interface the CORS middleware expects.
func (c ServerConfig) ToCORSConfig() CORSConfig {
	return CORSConfig{
		AllowedOrigins: c.CORSAllowedOrigins,
		AllowedMethods: c.CORSAllowedMethods,
		AllowedHeaders: c.CORSAllowedHeaders,
		MaxAge:         c.CORSMaxAge,
	}
}

// CORSConfig holds CORS configuration options.
type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
	MaxAge         int
}

// GetAllowedOrigins returns the allowed origins for CORS.
func (c CORSConfig) GetAllowedOrigins() []string {
	return c.AllowedOrigins
}

// GetAllowedMethods returns the allowed methods for CORS.
func (c CORSConfig) GetAllowedMethods() []string {
	return c.AllowedMethods
}

// GetAllowedHeaders returns the allowed headers for CORS.
func (c CORSConfig) GetAllowedHeaders() []string {
	return c.AllowedHeaders
}

// GetMaxAge returns the max age for CORS preflight cache.
func (c CORSConfig) GetMaxAge() int {
	return c.MaxAge
}

// Validate validates the server configuration, failing fast per spec §7(f) on a missing
// WORKFLOW_RUNNER_URL. DATABASE_URL is validated separately by storage.Config.Validate.
func (c ServerConfig) Validate() error {
	if c.Port <= 0 || c.Port > MaxPort {
		return fmt.Errorf("%w: %d, must be between 1 and %d", ErrInvalidPort, c.Port, MaxPort)
	}

	if c.Host == "" {
		return ErrEmptyHost
	}

	if c.ReadTimeout <= 0 {
		return fmt.Errorf("%w: got %v", ErrInvalidReadTimeout, c.ReadTimeout)
	}

	if c.WriteTimeout <= 0 {
		return fmt.Errorf("%w: got %v", ErrInvalidWriteTimeout, c.WriteTimeout)
	}

	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("%w: got %v", ErrInvalidShutdownTimeout, c.ShutdownTimeout)
	}

	if strings.TrimSpace(c.WorkflowRunnerURL) == "" {
		return ErrWorkflowRunnerURLEmpty
	}

	return nil
}

// loadServerAddress loads server address configuration from environment variables.
func loadServerAddress(cfg *ServerConfig) {
	cfg.Port = config.GetEnvInt("PORT", cfg.Port)
	cfg.Host = config.GetEnvStr("HOST", cfg.Host)
}

// loadTimeouts loads timeout configuration from environment variables.
func loadTimeouts(cfg *ServerConfig) {
	cfg.ReadTimeout = config.GetEnvDuration("READ_TIMEOUT", cfg.ReadTimeout)
	cfg.WriteTimeout = config.GetEnvDuration("WRITE_TIMEOUT", cfg.WriteTimeout)
	cfg.ShutdownTimeout = config.GetEnvDuration("SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
}

// loadCORSConfig loads CORS configuration from environment variables.
func loadCORSConfig(cfg *ServerConfig) {
	if originsStr := config.GetEnvStr("CORS_ALLOWED_ORIGINS", ""); originsStr != "" {
		cfg.CORSAllowedOrigins = parseCommaSeparatedList(originsStr)
	}

	if methodsStr := config.GetEnvStr("CORS_ALLOWED_METHODS", ""); methodsStr != "" {
		cfg.CORSAllowedMethods = parseCommaSeparatedList(methodsStr)
	}

	if headersStr := config.GetEnvStr("CORS_ALLOWED_HEADERS", ""); headersStr != "" {
		cfg.CORSAllowedHeaders = parseCommaSeparatedList(headersStr)
	}

	cfg.CORSMaxAge = config.GetEnvInt("CORS_MAX_AGE", cfg.CORSMaxAge)
}

// parseCommaSeparatedList parses a comma-separated string into a slice of trimmed strings.
// Empty values are filtered out.
func parseCommaSeparatedList(input string) []string {
	if input == "" {
		return []string{}
	}

	parts := strings.Split(input, ",")
	result := make([]string, 0, len(parts))

	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}

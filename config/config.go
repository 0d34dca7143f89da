package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Server settings
	ServerPort   string        `json:"server_port"`
	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
	IdleTimeout  time.Duration `json:"idle_timeout"`
	Debug        bool          `json:"debug"`

	// Application paths
	LogDir string `json:"log_dir"`

	// Middleware settings
	Middleware MiddlewareConfig `json:"middleware"`

	// CORS Configuration
	CORS CORSConfig `json:"cors"`

	// Rate Limiting
	RateLimit RateLimitConfig `json:"rate_limit"`

	// Database settings
	Database DatabaseConfig `json:"database"`

	// Progress store settings
	Progress ProgressConfig `json:"progress"`

	// Pipeline settings
	Pipeline PipelineConfig `json:"pipeline"`

	// Client polling settings (served to clients, used by the watch CLI)
	Polling PollingConfig `json:"polling"`

	// Anonymous usage settings
	Anonymous AnonymousConfig `json:"anonymous"`

	// Archive (S3-compatible) settings
	Archive ArchiveConfig `json:"archive"`

	// Application version
	Version string `json:"version"`

	// Request and shutdown timeouts
	RequestTimeout  time.Duration `json:"request_timeout"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout"`
}

type MiddlewareConfig struct {
	EnableRecover   bool `json:"enable_recover"`
	EnableRequestID bool `json:"enable_request_id"`
	EnableLogger    bool `json:"enable_logger"`
	EnableTimeout   bool `json:"enable_timeout"`
	EnableCORS      bool `json:"enable_cors"`
	EnableRateLimit bool `json:"enable_rate_limit"`
	EnableCompress  bool `json:"enable_compress"`
	EnableETag      bool `json:"enable_etag"`
}

type DatabaseConfig struct {
	Path               string        `json:"path"`
	MaxConnections     int           `json:"max_connections"`
	MaxIdleConnections int           `json:"max_idle_connections"`
	ConnMaxLifetime    time.Duration `json:"conn_max_lifetime"`
}

type ProgressConfig struct {
	// Retention is how long a finished or abandoned record stays readable.
	Retention time.Duration `json:"retention"`
	// SweepSchedule is a cron expression for the eviction sweep.
	SweepSchedule string `json:"sweep_schedule"`
}

type PipelineConfig struct {
	// ProcessTimeout bounds one whole pipeline run.
	ProcessTimeout time.Duration `json:"process_timeout"`
	// ProviderTimeout bounds a single provider attempt.
	ProviderTimeout time.Duration `json:"provider_timeout"`
	// ProviderOrder lists transcript sources, cheapest and most
	// reliable first.
	ProviderOrder []string `json:"provider_order"`
	// MaxVideoDuration rejects videos longer than this before any
	// provider is tried.
	MaxVideoDuration time.Duration `json:"max_video_duration"`
	// QuotaPerMinute caps outbound provider calls.
	QuotaPerMinute int `json:"quota_per_minute"`

	GumloopAPIKey  string `json:"-"`
	GumloopUserID  string `json:"-"`
	GumloopFlowID  string `json:"-"`
	OxylabsUser    string `json:"-"`
	OxylabsPass    string `json:"-"`
	YouTubeAPIKey  string `json:"-"`
	YTDLPPath      string `json:"ytdlp_path"`
	SummarizerURL  string `json:"summarizer_url"`
	SummarizerKey  string `json:"-"`
	SummarizerName string `json:"summarizer_model"`
	// SummarizerTimeout bounds a single completion call.
	SummarizerTimeout time.Duration `json:"summarizer_timeout"`
}

type PollingConfig struct {
	BaseInterval  time.Duration `json:"base_interval"`
	MaxInterval   time.Duration `json:"max_interval"`
	Jitter        time.Duration `json:"jitter"`
	ClientTimeout time.Duration `json:"client_timeout"`
	// SimulatedCap is the highest value the elapsed-time curve may
	// display before a real signal arrives.
	SimulatedCap int `json:"simulated_cap"`
	// QueuedGraceCount is how many consecutive 404s read as "queued"
	// before the client falls back to simulation.
	QueuedGraceCount int `json:"queued_grace_count"`
}

type AnonymousConfig struct {
	UseLimit int `json:"use_limit"`
}

type ArchiveConfig struct {
	Enabled   bool   `json:"enabled"`
	AccessKey string `json:"-"`
	SecretKey string `json:"-"`
	Region    string `json:"region"`
	Endpoint  string `json:"endpoint"`
	Bucket    string `json:"bucket"`
}

type CORSConfig struct {
	AllowedOrigins   []string `json:"allowed_origins"`
	AllowedMethods   []string `json:"allowed_methods"`
	AllowedHeaders   []string `json:"allowed_headers"`
	ExposedHeaders   []string `json:"exposed_headers"`
	AllowCredentials bool     `json:"allow_credentials"`
	MaxAge           int      `json:"max_age"`
}

type RateLimitConfig struct {
	Enabled           bool `json:"enabled"`
	RequestsPerMinute int  `json:"requests_per_minute"`
	BurstSize         int  `json:"burst_size"`
}

func defaultDevMiddleware() MiddlewareConfig {
	return MiddlewareConfig{
		EnableRecover:   true,
		EnableRequestID: true,
		EnableLogger:    true,
		EnableTimeout:   false,
		EnableCORS:      true,
		EnableRateLimit: false,
		EnableCompress:  false,
		EnableETag:      false,
	}
}

func defaultProdMiddleware() MiddlewareConfig {
	return MiddlewareConfig{
		EnableRecover:   true,
		EnableRequestID: true,
		EnableLogger:    true,
		EnableTimeout:   true,
		EnableCORS:      true,
		EnableRateLimit: true,
		EnableCompress:  true,
		EnableETag:      true,
	}
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		ServerPort:   getEnv("SERVER_PORT", "8080"),
		ReadTimeout:  getEnvAsDuration("READ_TIMEOUT", 15*time.Second),
		WriteTimeout: getEnvAsDuration("WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:  getEnvAsDuration("IDLE_TIMEOUT", 60*time.Second),
		Debug:        getEnvAsBool("DEBUG", false),

		LogDir: getEnv("LOG_DIR", "/var/log/ytsum"),

		Version: getEnv("VERSION", "1.0.0"),

		RequestTimeout:  getEnvAsDuration("REQUEST_TIMEOUT", 60*time.Second),
		ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT", 30*time.Second),

		CORS: CORSConfig{
			AllowedOrigins: getEnvAsStringSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),
			AllowedMethods: getEnvAsStringSlice(
				"CORS_ALLOWED_METHODS",
				[]string{"GET", "POST", "DELETE", "OPTIONS"},
			),
			AllowedHeaders:   getEnvAsStringSlice("CORS_ALLOWED_HEADERS", []string{"Content-Type"}),
			ExposedHeaders:   getEnvAsStringSlice("CORS_EXPOSED_HEADERS", []string{}),
			AllowCredentials: getEnvAsBool("CORS_ALLOW_CREDENTIALS", false),
			MaxAge:           getEnvAsInt("CORS_MAX_AGE", 86400),
		},

		RateLimit: RateLimitConfig{
			Enabled:           getEnvAsBool("RATE_LIMIT_ENABLED", true),
			RequestsPerMinute: getEnvAsInt("RATE_LIMIT_RPM", 60),
			BurstSize:         getEnvAsInt("RATE_LIMIT_BURST", 10),
		},

		Database: DatabaseConfig{
			Path:               getEnv("DB_PATH", "/var/lib/ytsum/data.db"),
			MaxConnections:     getEnvAsInt("DB_MAX_CONNECTIONS", 10),
			MaxIdleConnections: getEnvAsInt("DB_MAX_IDLE_CONNECTIONS", 5),
			ConnMaxLifetime:    getEnvAsDuration("DB_CONN_MAX_LIFETIME", time.Hour),
		},

		Progress: ProgressConfig{
			Retention:     getEnvAsSeconds("PROGRESS_RETENTION_SECONDS", 4*time.Hour),
			SweepSchedule: getEnv("PROGRESS_SWEEP_SCHEDULE", "@every 10m"),
		},

		Pipeline: PipelineConfig{
			ProcessTimeout:  getEnvAsDuration("PROCESS_TIMEOUT", 10*time.Minute),
			ProviderTimeout: getEnvAsMillis("PROVIDER_TIMEOUT_MS", 60*time.Second),
			ProviderOrder: getEnvAsStringSlice(
				"PROVIDER_ORDER",
				[]string{"gumloop", "captions", "oxylabs", "ytdlp"},
			),
			MaxVideoDuration: getEnvAsDuration("MAX_VIDEO_DURATION", 2*time.Hour),
			QuotaPerMinute:   getEnvAsInt("PROVIDER_QUOTA_PER_MINUTE", 30),

			GumloopAPIKey:  getEnv("GUMLOOP_API_KEY", ""),
			GumloopUserID:  getEnv("GUMLOOP_USER_ID", ""),
			GumloopFlowID:  getEnv("GUMLOOP_FLOW_ID", ""),
			OxylabsUser:    getEnv("OXYLABS_USERNAME", ""),
			OxylabsPass:    getEnv("OXYLABS_PASSWORD", ""),
			YouTubeAPIKey:  getEnv("YOUTUBE_API_KEY", ""),
			YTDLPPath:      getEnv("YTDLP_PATH", "yt-dlp"),
			SummarizerURL:     getEnv("SUMMARIZER_URL", "https://api.openai.com/v1"),
			SummarizerKey:     getEnv("OPENAI_API_KEY", ""),
			SummarizerName:    getEnv("SUMMARIZER_MODEL", "gpt-4o-mini"),
			SummarizerTimeout: getEnvAsDuration("SUMMARIZER_TIMEOUT", 2*time.Minute),
		},

		Polling: PollingConfig{
			BaseInterval:     getEnvAsMillis("POLL_BASE_INTERVAL_MS", time.Second),
			MaxInterval:      getEnvAsMillis("POLL_MAX_INTERVAL_MS", 8*time.Second),
			Jitter:           getEnvAsMillis("POLL_JITTER_MS", 250*time.Millisecond),
			ClientTimeout:    getEnvAsMillis("CLIENT_TIMEOUT_MS", 5*time.Minute),
			SimulatedCap:     getEnvAsInt("SIMULATED_CAP", 95),
			QueuedGraceCount: getEnvAsInt("QUEUED_GRACE_COUNT", 3),
		},

		Anonymous: AnonymousConfig{
			UseLimit: getEnvAsInt("ANONYMOUS_USE_LIMIT", 1),
		},

		Archive: ArchiveConfig{
			AccessKey: getEnv("SPACES_ACCESS_KEY", ""),
			SecretKey: getEnv("SPACES_SECRET_KEY", ""),
			Region:    getEnv("SPACES_REGION", "nyc3"),
			Endpoint:  getEnv("SPACES_ENDPOINT", ""),
			Bucket:    getEnv("SPACES_BUCKET", ""),
		},

		Middleware: defaultDevMiddleware(),
	}

	cfg.Archive.Enabled = cfg.Archive.AccessKey != "" && cfg.Archive.Bucket != ""

	if os.Getenv("ENV") == "production" {
		cfg.Middleware = defaultProdMiddleware()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if err := validatePaths(c); err != nil {
		return err
	}
	if err := validateTimeouts(c); err != nil {
		return err
	}
	return validatePipeline(c)
}

func validatePaths(c *Config) error {
	paths := []struct {
		path string
		name string
	}{
		{c.LogDir, "log directory"},
		{filepath.Dir(c.Database.Path), "database directory"},
	}

	for _, p := range paths {
		if err := os.MkdirAll(p.path, 0755); err != nil {
			return fmt.Errorf("failed to create %s: %w", p.name, err)
		}
	}

	return nil
}

func validateTimeouts(c *Config) error {
	if c.ReadTimeout <= 0 {
		return fmt.Errorf("read timeout must be positive")
	}
	if c.WriteTimeout <= 0 {
		return fmt.Errorf("write timeout must be positive")
	}
	if c.Progress.Retention <= 0 {
		return fmt.Errorf("progress retention must be positive")
	}
	if c.Polling.BaseInterval <= 0 || c.Polling.MaxInterval < c.Polling.BaseInterval {
		return fmt.Errorf("poll intervals must satisfy 0 < base <= max")
	}
	return nil
}

func validatePipeline(c *Config) error {
	if len(c.Pipeline.ProviderOrder) == 0 {
		return fmt.Errorf("provider order must name at least one provider")
	}
	if c.Pipeline.MaxVideoDuration <= 0 {
		return fmt.Errorf("max video duration must be positive")
	}
	if c.Polling.SimulatedCap < 1 || c.Polling.SimulatedCap > 100 {
		return fmt.Errorf("simulated cap must be within 1-100")
	}
	return nil
}

// Helper functions for reading environment variables
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvAsMillis reads an integer count of milliseconds, matching the
// names the frontend historically used for these knobs.
func getEnvAsMillis(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if ms, err := strconv.Atoi(value); err == nil && ms > 0 {
			return time.Duration(ms) * time.Millisecond
		}
	}
	return defaultValue
}

func getEnvAsSeconds(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if s, err := strconv.Atoi(value); err == nil && s > 0 {
			return time.Duration(s) * time.Second
		}
	}
	return defaultValue
}

func getEnvAsStringSlice(key string, defaultValue []string) []string {
	if value, exists := os.LookupEnv(key); exists {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return defaultValue
}

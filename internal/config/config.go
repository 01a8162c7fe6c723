package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	EnvDev   = "development"
	EnvStage = "staging"
	EnvProd  = "production"
)

// Config carries every runtime setting for the ingestion pipeline. It is
// built once at startup and passed by reference; nothing reads the
// environment after Load returns.
type Config struct {
	AppEnv         string
	ServiceName    string
	ServiceVersion string
	LogLevel       string

	DatabaseURL    string
	DatabaseForce4 bool

	StatsFeedBaseURL    string
	StatsFeedTimeout    time.Duration
	StatsFeedMaxRetries int

	CircuitBreakerEnabled          bool
	CircuitBreakerFailureThreshold int
	CircuitBreakerOpenTimeout      time.Duration

	InjurySourceURLs    []string
	InjuryScrapeTimeout time.Duration

	FetchConcurrency  int
	BulkLoadBatchSize int

	UptraceEnabled bool
	UptraceDSN     string

	PyroscopeEnabled       bool
	PyroscopeServerAddress string
	PyroscopeAppName       string
	PyroscopeAuthToken     string
	PyroscopeUploadRate    time.Duration
}

func Load() (Config, error) {
	cfg := Config{
		AppEnv:         getEnv("APP_ENV", EnvDev),
		ServiceName:    getEnv("SERVICE_NAME", "nba-ingest"),
		ServiceVersion: getEnv("SERVICE_VERSION", "dev"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),

		DatabaseURL:    getEnv("DATABASE_URL", ""),
		DatabaseForce4: getEnvAsBool("DATABASE_FORCE_IPV4", true),

		StatsFeedBaseURL: getEnv("STATS_FEED_BASE_URL", "https://stats.nba.com"),

		UptraceEnabled: getEnvAsBool("UPTRACE_ENABLED", false),
		UptraceDSN:     getEnv("UPTRACE_DSN", ""),

		PyroscopeEnabled:       getEnvAsBool("PYROSCOPE_ENABLED", false),
		PyroscopeServerAddress: getEnv("PYROSCOPE_SERVER_ADDRESS", ""),
		PyroscopeAppName:       getEnv("PYROSCOPE_APP_NAME", "nba-ingest"),
		PyroscopeAuthToken:     getEnv("PYROSCOPE_AUTH_TOKEN", ""),
	}

	var err error
	if cfg.StatsFeedTimeout, err = getEnvAsDuration("STATS_FEED_TIMEOUT", 30*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.StatsFeedMaxRetries, err = getEnvAsInt("STATS_FEED_MAX_RETRIES", 3); err != nil {
		return Config{}, err
	}

	cfg.CircuitBreakerEnabled = getEnvAsBool("CIRCUIT_BREAKER_ENABLED", true)
	if cfg.CircuitBreakerFailureThreshold, err = getEnvAsInt("CIRCUIT_BREAKER_FAILURE_THRESHOLD", 5); err != nil {
		return Config{}, err
	}
	if cfg.CircuitBreakerOpenTimeout, err = getEnvAsDuration("CIRCUIT_BREAKER_OPEN_TIMEOUT", 15*time.Second); err != nil {
		return Config{}, err
	}

	cfg.InjurySourceURLs = splitCSV(getEnv("INJURY_SOURCE_URLS",
		"https://www.espn.com/nba/injuries,https://www.rotowire.com/basketball/injury-report.php"))
	if cfg.InjuryScrapeTimeout, err = getEnvAsDuration("INJURY_SCRAPE_TIMEOUT", 30*time.Second); err != nil {
		return Config{}, err
	}

	if cfg.FetchConcurrency, err = getEnvAsInt("FETCH_CONCURRENCY", 5); err != nil {
		return Config{}, err
	}
	if cfg.BulkLoadBatchSize, err = getEnvAsInt("BULK_LOAD_BATCH_SIZE", 500); err != nil {
		return Config{}, err
	}

	if cfg.PyroscopeUploadRate, err = getEnvAsDuration("PYROSCOPE_UPLOAD_RATE", 15*time.Second); err != nil {
		return Config{}, err
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) validate() error {
	switch c.AppEnv {
	case EnvDev, EnvStage, EnvProd:
	default:
		return fmt.Errorf("APP_ENV must be one of %s, %s, %s; got %q", EnvDev, EnvStage, EnvProd, c.AppEnv)
	}

	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.StatsFeedBaseURL == "" {
		return fmt.Errorf("STATS_FEED_BASE_URL is required")
	}
	if c.StatsFeedTimeout <= 0 {
		return fmt.Errorf("STATS_FEED_TIMEOUT must be positive")
	}
	if c.StatsFeedMaxRetries < 0 {
		return fmt.Errorf("STATS_FEED_MAX_RETRIES cannot be negative")
	}
	if len(c.InjurySourceURLs) == 0 {
		return fmt.Errorf("INJURY_SOURCE_URLS is required")
	}
	if c.InjuryScrapeTimeout <= 0 {
		return fmt.Errorf("INJURY_SCRAPE_TIMEOUT must be positive")
	}
	if c.FetchConcurrency < 1 {
		return fmt.Errorf("FETCH_CONCURRENCY must be at least 1")
	}
	if c.BulkLoadBatchSize < 1 {
		return fmt.Errorf("BULK_LOAD_BATCH_SIZE must be at least 1")
	}
	if c.PyroscopeEnabled && c.PyroscopeServerAddress == "" {
		return fmt.Errorf("PYROSCOPE_SERVER_ADDRESS is required when PYROSCOPE_ENABLED=true")
	}
	if c.UptraceEnabled && strings.TrimSpace(c.UptraceDSN) == "" {
		return fmt.Errorf("UPTRACE_DSN is required when UPTRACE_ENABLED=true")
	}

	return nil
}

func (c Config) IsProduction() bool {
	return c.AppEnv == EnvProd
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) (int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(raw) == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return value, nil
}

func getEnvAsBool(key string, fallback bool) bool {
	raw, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(raw) == "" {
		return fallback
	}
	value, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return fallback
	}
	return value
}

func getEnvAsDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(raw) == "" {
		return fallback, nil
	}
	value, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration such as 30s: %w", key, err)
	}
	if value <= 0 {
		return 0, fmt.Errorf("%s must be positive", key)
	}
	return value, nil
}

func splitCSV(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		out = append(out, trimmed)
	}
	return out
}

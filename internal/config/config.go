// Package config provides application configuration management with support for
// command-line flags, environment variables and .env files.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/abctag/abc-server/internal/category"
	"github.com/abctag/abc-server/internal/classifier"
)

// DefaultClassifierURL is the hosted genre model's job submission endpoint.
const DefaultClassifierURL = "https://mterranova-roberta-book-genre-api.hf.space/gradio_api/call/predict_gradio"

// Config holds the application configuration.
type Config struct {
	App        AppConfig
	Logger     LoggerConfig
	Server     ServerConfig
	Database   DatabaseConfig
	Classifier ClassifierConfig
	Categories CategoriesConfig
	Cache      CacheConfig
	Search     SearchConfig
	Lookup     LookupConfig
	RateLimit  RateLimitConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
	// DataPath is the base directory for the database, cache and search index.
	DataPath string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level     string
	Format    string // "json" or "pretty"; empty picks by environment
	AddSource bool
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port            string        // default: 5000
	ReadTimeout     time.Duration // default: 15s
	WriteTimeout    time.Duration // default: 120s, long enough for a create to wait out classification
	IdleTimeout     time.Duration // default: 60s
	ShutdownTimeout time.Duration // default: 30s
	CORSOrigins     []string      // default: *
}

// DatabaseConfig holds the SQLite store location.
type DatabaseConfig struct {
	Path string // default: {data}/abc.db
}

// ClassifierConfig holds the genre model client settings.
type ClassifierConfig struct {
	SubmitURL            string // empty disables classification
	MaxAttempts          int
	PollDelay            time.Duration
	MaxDelay             time.Duration
	Backoff              string
	RequestTimeout       time.Duration
	SkipEmptyDescription bool

	BreakerEnabled     bool
	BreakerFailures    int
	BreakerOpenTimeout time.Duration
}

// CategoriesConfig holds the label set source. LabelsFile wins over Labels,
// which wins over the built-in labels.
type CategoriesConfig struct {
	Labels     []string
	LabelsFile string
}

// CacheConfig holds the classification cache settings.
type CacheConfig struct {
	Enabled bool
	Path    string // default: {data}/cache
	TTL     time.Duration
}

// SearchConfig holds the full-text index location.
type SearchConfig struct {
	Path string // default: {data}/search
}

// LookupConfig holds the description lookup settings.
type LookupConfig struct {
	Enabled           bool
	BaseURL           string
	APIKey            string
	RequestsPerSecond float64
}

// RateLimitConfig holds per-client throttling for expensive endpoints.
// Zero CreatePerMinute disables throttling.
type RateLimitConfig struct {
	CreatePerMinute int
	Burst           int
}

// LoadConfig loads configuration from os.Args.
func LoadConfig() (*Config, error) {
	return Load(os.Args[1:])
}

// Load loads configuration with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func Load(args []string) (*Config, error) {
	fs := flag.NewFlagSet("abc", flag.ContinueOnError)

	env := fs.String("env", "", "Environment (development, staging, production)")
	logLevel := fs.String("log-level", "", "Log level (debug, info, warn, error)")
	logFormat := fs.String("log-format", "", "Log format (json, pretty)")
	dataPath := fs.String("data-path", "", "Base directory for data files (default: ./data)")
	envFile := fs.String("env-file", ".env", "Path to .env file")

	serverPort := fs.String("port", "", "Server port (default: 5000)")
	readTimeout := fs.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	writeTimeout := fs.String("write-timeout", "", "HTTP write timeout (default: 120s)")
	idleTimeout := fs.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")
	corsOrigins := fs.String("cors-origins", "", "Comma-separated allowed CORS origins (default: *)")

	dbPath := fs.String("db-path", "", "SQLite database file (default: {data}/abc.db)")

	mlURL := fs.String("ml-url", "", "Classification job submission URL")
	mlAttempts := fs.String("ml-max-attempts", "", "Classification poll attempt budget (default: 5)")
	mlDelay := fs.String("ml-poll-delay", "", "Delay between poll attempts (default: 1s)")
	mlBackoff := fs.String("ml-backoff", "", "Poll backoff: constant or exponential (default: constant)")

	labels := fs.String("labels", "", "Comma-separated ordered category labels")
	labelsFile := fs.String("labels-file", "", "YAML file with the ordered category labels")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	// .env values never override the real environment.
	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load env file %s: %w", *envFile, err)
	}

	defaults := classifier.DefaultConfig()

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", "development"),
			DataPath:    getConfigValue(*dataPath, "DATA_PATH", "./data"),
		},
		Logger: LoggerConfig{
			Level:     getConfigValue(*logLevel, "LOG_LEVEL", "info"),
			Format:    getConfigValue(*logFormat, "LOG_FORMAT", ""),
			AddSource: getBoolConfigValue("", "LOG_ADD_SOURCE", false),
		},
		Server: ServerConfig{
			Port:        getConfigValue(*serverPort, "PORT", "5000"),
			CORSOrigins: splitList(getConfigValue(*corsOrigins, "CORS_ORIGINS", "*")),
		},
		Database: DatabaseConfig{
			Path: getConfigValue(*dbPath, "DB_PATH", ""),
		},
		Classifier: ClassifierConfig{
			SubmitURL:            getConfigValue(*mlURL, "ML_URL", DefaultClassifierURL),
			MaxAttempts:          getIntConfigValue(*mlAttempts, "ML_MAX_ATTEMPTS", defaults.MaxAttempts),
			Backoff:              getConfigValue(*mlBackoff, "ML_BACKOFF", defaults.Backoff),
			SkipEmptyDescription: getBoolConfigValue("", "ML_SKIP_EMPTY_DESCRIPTION", defaults.SkipEmptyDescription),
			BreakerEnabled:       getBoolConfigValue("", "ML_BREAKER_ENABLED", defaults.Breaker.Enabled),
			BreakerFailures:      getIntConfigValue("", "ML_BREAKER_FAILURES", int(defaults.Breaker.FailureThreshold)),
		},
		Categories: CategoriesConfig{
			Labels:     splitList(getConfigValue(*labels, "CATEGORY_LABELS", "")),
			LabelsFile: getConfigValue(*labelsFile, "CATEGORY_LABELS_FILE", ""),
		},
		Cache: CacheConfig{
			Enabled: getBoolConfigValue("", "CACHE_ENABLED", true),
			Path:    getConfigValue("", "CACHE_PATH", ""),
		},
		Search: SearchConfig{
			Path: getConfigValue("", "SEARCH_PATH", ""),
		},
		Lookup: LookupConfig{
			Enabled: getBoolConfigValue("", "LOOKUP_ENABLED", true),
			BaseURL: getConfigValue("", "LOOKUP_BASE_URL", ""),
			APIKey:  getConfigValue("", "GOOGLE_BOOKS_API_KEY", ""),
		},
		RateLimit: RateLimitConfig{
			CreatePerMinute: getIntConfigValue("", "RATE_LIMIT_CREATE_PER_MINUTE", 30),
			Burst:           getIntConfigValue("", "RATE_LIMIT_BURST", 5),
		},
	}

	durations := []struct {
		dst  *time.Duration
		flag string
		env  string
		def  string
	}{
		{&cfg.Server.ReadTimeout, *readTimeout, "SERVER_READ_TIMEOUT", "15s"},
		{&cfg.Server.WriteTimeout, *writeTimeout, "SERVER_WRITE_TIMEOUT", "120s"},
		{&cfg.Server.IdleTimeout, *idleTimeout, "SERVER_IDLE_TIMEOUT", "60s"},
		{&cfg.Server.ShutdownTimeout, "", "SERVER_SHUTDOWN_TIMEOUT", "30s"},
		{&cfg.Classifier.PollDelay, *mlDelay, "ML_POLL_DELAY", defaults.PollDelay.String()},
		{&cfg.Classifier.MaxDelay, "", "ML_MAX_DELAY", defaults.MaxDelay.String()},
		{&cfg.Classifier.RequestTimeout, "", "ML_REQUEST_TIMEOUT", defaults.RequestTimeout.String()},
		{&cfg.Classifier.BreakerOpenTimeout, "", "ML_BREAKER_OPEN_TIMEOUT", defaults.Breaker.OpenTimeout.String()},
		{&cfg.Cache.TTL, "", "CACHE_TTL", "720h"},
	}
	for _, d := range durations {
		v, err := getDurationConfigValue(d.flag, d.env, d.def)
		if err != nil {
			return nil, err
		}
		*d.dst = v
	}

	// "none" turns classification off; every book is then stored as Unknown.
	if strings.EqualFold(cfg.Classifier.SubmitURL, "none") {
		cfg.Classifier.SubmitURL = ""
	}

	rps, err := getFloatConfigValue("", "LOOKUP_REQUESTS_PER_SECOND", 1)
	if err != nil {
		return nil, err
	}
	cfg.Lookup.RequestsPerSecond = rps

	if err := cfg.expandPaths(); err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
	}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %q (must be development, staging, or production)", c.App.Environment)
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	switch c.Logger.Format {
	case "", "json", "pretty":
	default:
		return fmt.Errorf("invalid log format: %s (must be json or pretty)", c.Logger.Format)
	}

	if c.Server.Port == "" {
		return errors.New("server port is required")
	}

	if c.Database.Path == "" {
		return errors.New("database path cannot be empty after expansion")
	}

	if err := c.ClassifierConfig().Validate(); err != nil {
		return err
	}

	if c.Categories.LabelsFile == "" && len(c.Categories.Labels) > 0 {
		if _, err := category.NewSet(c.Categories.Labels...); err != nil {
			return fmt.Errorf("invalid category labels: %w", err)
		}
	}

	if c.Cache.Enabled && c.Cache.TTL <= 0 {
		return fmt.Errorf("cache ttl must be positive, got %s", c.Cache.TTL)
	}

	if c.RateLimit.CreatePerMinute < 0 || c.RateLimit.Burst < 0 {
		return errors.New("rate limits cannot be negative")
	}

	return nil
}

// ClassifierConfig converts the classifier section into the client's configuration.
func (c *Config) ClassifierConfig() classifier.Config {
	cc := c.Classifier
	return classifier.Config{
		SubmitURL:            cc.SubmitURL,
		MaxAttempts:          cc.MaxAttempts,
		PollDelay:            cc.PollDelay,
		MaxDelay:             cc.MaxDelay,
		Backoff:              cc.Backoff,
		RequestTimeout:       cc.RequestTimeout,
		SkipEmptyDescription: cc.SkipEmptyDescription,
		Breaker: classifier.BreakerConfig{
			Enabled:          cc.BreakerEnabled,
			FailureThreshold: uint32(max(cc.BreakerFailures, 1)), //#nosec G115 -- bounded below by 1
			OpenTimeout:      cc.BreakerOpenTimeout,
			HalfOpenRequests: 1,
		},
	}
}

// LabelSet builds the ordered category label set: from LabelsFile when set,
// else from Labels, else the built-in labels.
func (c *Config) LabelSet() (*category.Set, error) {
	labels := c.Categories.Labels
	if c.Categories.LabelsFile != "" {
		loaded, err := category.LoadFile(c.Categories.LabelsFile)
		if err != nil {
			return nil, err
		}
		labels = loaded
	}
	if len(labels) == 0 {
		return category.Default(), nil
	}
	return category.NewSet(labels...)
}

// IsProduction reports whether the app runs in production.
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// expandPath expands ~ and makes the path absolute.
// If path is empty and defaultPath is provided, uses the default.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		path = defaultPath
	}
	if path == "" {
		return "", nil
	}

	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

// expandPaths resolves the data directory and the files under it.
func (c *Config) expandPaths() error {
	var err error
	if c.App.DataPath, err = expandPath(c.App.DataPath, "./data"); err != nil {
		return err
	}

	paths := []struct {
		dst *string
		def string
	}{
		{&c.Database.Path, filepath.Join(c.App.DataPath, "abc.db")},
		{&c.Cache.Path, filepath.Join(c.App.DataPath, "cache")},
		{&c.Search.Path, filepath.Join(c.App.DataPath, "search")},
		{&c.Categories.LabelsFile, ""},
	}
	for _, p := range paths {
		if *p.dst, err = expandPath(*p.dst, p.def); err != nil {
			return err
		}
	}
	return nil
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}
	return defaultValue
}

// getBoolConfigValue returns a bool from flag, env var, or default.
// Accepts: "true", "1", "yes" (case-insensitive) as true; anything else is false.
func getBoolConfigValue(flagValue, envKey string, defaultValue bool) bool {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	strValue = strings.ToLower(strValue)
	return strValue == "true" || strValue == "1" || strValue == "yes"
}

// getIntConfigValue returns an int from flag, env var, or default.
func getIntConfigValue(flagValue, envKey string, defaultValue int) int {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	var result int
	if _, err := fmt.Sscanf(strValue, "%d", &result); err != nil {
		return defaultValue
	}
	return result
}

// getFloatConfigValue returns a float from flag, env var, or default.
func getFloatConfigValue(flagValue, envKey string, defaultValue float64) (float64, error) {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue, nil
	}
	var result float64
	if _, err := fmt.Sscanf(strValue, "%g", &result); err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", envKey, strValue, err)
	}
	return result, nil
}

// getDurationConfigValue parses a duration from flag, env var, or default.
func getDurationConfigValue(flagValue, envKey, defaultValue string) (time.Duration, error) {
	strValue := getConfigValue(flagValue, envKey, defaultValue)
	d, err := time.ParseDuration(strValue)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", envKey, strValue, err)
	}
	return d, nil
}

// splitList splits a comma-separated value, dropping blank entries.
func splitList(s string) []string {
	var out []string
	for part := range strings.SplitSeq(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultPrimaryModel  = "gemini-2.5-flash-preview-04-17"
	DefaultFallbackModel = "gemini-2.0-flash-lite"
	DefaultTokenLimit    = 200000
	DefaultEncoding      = "cl100k_base"
)

// Config represents the application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Models   ModelsConfig   `yaml:"models"`
	Upstream UpstreamConfig `yaml:"upstream"`
	Retry    RetryConfig    `yaml:"retry"`
	Stream   StreamConfig   `yaml:"stream"`
	Content  ContentConfig  `yaml:"content"`
	Logging  LoggingConfig  `yaml:"logging"`
	Debug    bool           `yaml:"debug" env:"DEBUG"`
}

// ServerConfig defines listener configuration.
type ServerConfig struct {
	Host        string   `yaml:"host" env:"HOST"`
	Port        int      `yaml:"port" env:"PORT"`
	CORSOrigins []string `yaml:"cors_origins" env:"CORS_ORIGINS" envSeparator:","`
}

// ModelsConfig names the two model identifiers and the switch-over threshold.
type ModelsConfig struct {
	Primary    string `yaml:"primary" env:"PRIMARY_MODEL"`
	Fallback   string `yaml:"fallback" env:"FALLBACK_MODEL"`
	TokenLimit int    `yaml:"token_limit" env:"TOKEN_LIMIT"`
	Encoding   string `yaml:"encoding" env:"TOKENIZER_ENCODING"`
}

// UpstreamConfig describes how to reach the Gemini API. Timeout bounds the
// wait for response headers only; zero disables it.
type UpstreamConfig struct {
	BaseURL    string        `yaml:"base_url" env:"GEMINI_BASE_URL"`
	APIVersion string        `yaml:"api_version" env:"GEMINI_API_VERSION"`
	Timeout    time.Duration `yaml:"timeout" env:"UPSTREAM_TIMEOUT"`
}

// RetryConfig bounds the retries applied to upstream calls.
type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts" env:"RETRY_MAX_ATTEMPTS"`
	BaseDelay   time.Duration `yaml:"base_delay" env:"RETRY_BASE_DELAY"`
	MaxDelay    time.Duration `yaml:"max_delay" env:"RETRY_MAX_DELAY"`
}

// StreamConfig tunes streamed responses.
type StreamConfig struct {
	ChunkDelay time.Duration `yaml:"chunk_delay" env:"STREAM_CHUNK_DELAY"`
}

// ContentConfig controls how page content is prepared. With StripHTML set,
// content that is an HTML document or fragment is reduced to its visible text;
// otherwise it reaches the prompt verbatim.
type ContentConfig struct {
	StripHTML bool `yaml:"strip_html" env:"STRIP_HTML"`
}

// LoggingConfig selects the log level and encoder.
type LoggingConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL"`
	Format string `yaml:"format" env:"LOG_FORMAT"`
}

// Default returns the configuration used when nothing else is supplied.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host:        "0.0.0.0",
			Port:        8000,
			CORSOrigins: []string{"*"},
		},
		Models: ModelsConfig{
			Primary:    DefaultPrimaryModel,
			Fallback:   DefaultFallbackModel,
			TokenLimit: DefaultTokenLimit,
			Encoding:   DefaultEncoding,
		},
		Upstream: UpstreamConfig{
			Timeout: 120 * time.Second,
		},
		Retry: RetryConfig{
			MaxAttempts: 3,
			BaseDelay:   time.Second,
			MaxDelay:    10 * time.Second,
		},
		Stream: StreamConfig{
			ChunkDelay: 10 * time.Millisecond,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file, a .env
// file in the working directory and the process environment, in that order.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env file: %w", err)
	}

	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}

	cfg.normalise()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve config path: %w", err)
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return fmt.Errorf("read config file %q: %w", absPath, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file %q: %w", absPath, err)
	}
	return nil
}

func (c *Config) normalise() {
	origins := make([]string, 0, len(c.Server.CORSOrigins))
	for _, origin := range c.Server.CORSOrigins {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	c.Server.CORSOrigins = origins

	c.Models.Primary = strings.TrimSpace(c.Models.Primary)
	c.Models.Fallback = strings.TrimSpace(c.Models.Fallback)
	c.Upstream.BaseURL = strings.TrimRight(strings.TrimSpace(c.Upstream.BaseURL), "/")

	if c.Debug {
		c.Logging.Level = "debug"
		c.Logging.Format = "console"
	}
}

// Address returns the host:port the server listens on.
func (c Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// Validate performs strict sanity checks on the configuration.
func (c Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be a valid TCP port, got %d", c.Server.Port)
	}
	if c.Models.Primary == "" {
		return errors.New("models.primary must be provided")
	}
	if c.Models.Fallback == "" {
		return errors.New("models.fallback must be provided")
	}
	if c.Models.TokenLimit <= 0 {
		return fmt.Errorf("models.token_limit must be positive, got %d", c.Models.TokenLimit)
	}
	if c.Upstream.Timeout < 0 {
		return fmt.Errorf("upstream.timeout must not be negative, got %s", c.Upstream.Timeout)
	}
	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("retry.max_attempts must be at least 1, got %d", c.Retry.MaxAttempts)
	}
	if c.Retry.BaseDelay < 0 || c.Retry.MaxDelay < 0 {
		return errors.New("retry delays must not be negative")
	}
	if c.Retry.MaxDelay < c.Retry.BaseDelay {
		return fmt.Errorf("retry.max_delay (%s) must not be below retry.base_delay (%s)", c.Retry.MaxDelay, c.Retry.BaseDelay)
	}
	if c.Stream.ChunkDelay < 0 {
		return fmt.Errorf("stream.chunk_delay must not be negative, got %s", c.Stream.ChunkDelay)
	}
	return nil
}

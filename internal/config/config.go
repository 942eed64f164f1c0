package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	ServerAddr         string            `yaml:"server_addr"`
	DatabasePath       string            `yaml:"database_path"`
	DataDir            string            `yaml:"data_dir"`
	LogLevel           string            `yaml:"log_level"`
	UploadLimit        int64             `yaml:"upload_limit"` // bytes per request
	RateLimitPerMinute int               `yaml:"rate_limit_per_minute"`
	TrustedProxyCIDRs  string            `yaml:"trusted_proxy_cidrs"` // comma-separated
	WorkerInterval     time.Duration     `yaml:"worker_interval"`
	JanitorInterval    time.Duration     `yaml:"janitor_interval"`
	ArtifactRetention  time.Duration     `yaml:"artifact_retention"`
	EventRetention     time.Duration     `yaml:"event_retention"`
	MaxDimension       int               `yaml:"max_dimension"`
	Compression        CompressionConfig `yaml:"compression"`
}

// CompressionConfig holds the defaults applied to requests that leave an
// option unset.
type CompressionConfig struct {
	Quality            float64 `yaml:"quality"`
	MimeType           string  `yaml:"mime_type"`
	ConvertSize        int64   `yaml:"convert_size"`
	Loose              bool    `yaml:"loose"`
	RedressOrientation bool    `yaml:"redress_orientation"`
	MaxWidth           float64 `yaml:"max_width"`
	MaxHeight          float64 `yaml:"max_height"`
	Grayscale          bool    `yaml:"grayscale"`
	WatermarkText      string  `yaml:"watermark_text"`
	WatermarkFont      string  `yaml:"watermark_font"`
}

// DefaultConfig returns a Config with reasonable default values.
func DefaultConfig() *Config {
	return &Config{
		ServerAddr:         ":8080",
		DatabasePath:       "./data/imagecompressor.db",
		DataDir:            "./data",
		LogLevel:           "info",
		UploadLimit:        50 << 20,
		RateLimitPerMinute: 60,
		WorkerInterval:     5 * time.Second,
		JanitorInterval:    time.Hour,
		ArtifactRetention:  7 * 24 * time.Hour,
		EventRetention:     90 * 24 * time.Hour,
		MaxDimension:       16384,
		Compression: CompressionConfig{
			Quality:            0.8,
			ConvertSize:        2048000,
			Loose:              true,
			RedressOrientation: true,
		},
	}
}

// Load builds the configuration from defaults, the YAML file named by
// CONFIG_FILE (if any) and environment variables, in that order.
func Load() (*Config, error) {
	cfg := DefaultConfig()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.overlayFile(path); err != nil {
			return nil, err
		}
	}

	env := &envReader{}
	cfg.ServerAddr = getEnv("SERVER_ADDR", cfg.ServerAddr)
	cfg.DatabasePath = getEnv("DATABASE_PATH", cfg.DatabasePath)
	cfg.DataDir = getEnv("DATA_DIR", cfg.DataDir)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.UploadLimit = env.Int64("UPLOAD_LIMIT", cfg.UploadLimit)
	cfg.RateLimitPerMinute = env.Int("RATE_LIMIT_PER_MINUTE", cfg.RateLimitPerMinute)
	cfg.TrustedProxyCIDRs = getEnv("TRUSTED_PROXY_CIDRS", cfg.TrustedProxyCIDRs)
	cfg.WorkerInterval = env.Duration("WORKER_INTERVAL", cfg.WorkerInterval)
	cfg.JanitorInterval = env.Duration("JANITOR_INTERVAL", cfg.JanitorInterval)
	cfg.ArtifactRetention = env.Duration("ARTIFACT_RETENTION", cfg.ArtifactRetention)
	cfg.EventRetention = env.Duration("EVENT_RETENTION", cfg.EventRetention)
	cfg.MaxDimension = env.Int("MAX_DIMENSION", cfg.MaxDimension)

	c := &cfg.Compression
	c.Quality = env.Float("COMPRESS_QUALITY", c.Quality)
	c.MimeType = getEnv("COMPRESS_MIME_TYPE", c.MimeType)
	c.ConvertSize = env.Int64("COMPRESS_CONVERT_SIZE", c.ConvertSize)
	c.Loose = env.Bool("COMPRESS_LOOSE", c.Loose)
	c.RedressOrientation = env.Bool("COMPRESS_REDRESS_ORIENTATION", c.RedressOrientation)
	c.MaxWidth = env.Float("COMPRESS_MAX_WIDTH", c.MaxWidth)
	c.MaxHeight = env.Float("COMPRESS_MAX_HEIGHT", c.MaxHeight)
	c.Grayscale = env.Bool("COMPRESS_GRAYSCALE", c.Grayscale)
	c.WatermarkText = getEnv("WATERMARK_TEXT", c.WatermarkText)
	c.WatermarkFont = getEnv("WATERMARK_FONT", c.WatermarkFont)

	if err := errors.Join(env.errs...); err != nil {
		return nil, fmt.Errorf("invalid environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// LoadFile reads a YAML configuration file on top of the defaults.
func LoadFile(path string) (*Config, error) {
	cfg := DefaultConfig()
	if err := cfg.overlayFile(path); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) overlayFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("error parsing config file: %w", err)
	}
	return nil
}

func (c *Config) validate() error {
	if c.ServerAddr == "" {
		return errors.New("server_addr is required")
	}
	if c.DatabasePath == "" {
		return errors.New("database_path is required")
	}
	if c.DataDir == "" {
		return errors.New("data_dir is required")
	}
	if c.UploadLimit <= 0 {
		return errors.New("upload_limit must be positive")
	}
	if c.RateLimitPerMinute < 0 {
		return errors.New("rate_limit_per_minute must not be negative")
	}
	if c.WorkerInterval <= 0 || c.JanitorInterval <= 0 {
		return errors.New("worker_interval and janitor_interval must be positive")
	}
	if c.ArtifactRetention <= 0 || c.EventRetention <= 0 {
		return errors.New("artifact_retention and event_retention must be positive")
	}
	if c.Compression.Quality < 0 || c.Compression.Quality > 1 {
		return errors.New("compression.quality must be between 0 and 1")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// envReader parses typed environment variables and collects parse errors.
type envReader struct {
	errs []error
}

func (r *envReader) lookup(key string) (string, bool) {
	v := os.Getenv(key)
	return v, v != ""
}

func (r *envReader) fail(key, value string, err error) {
	r.errs = append(r.errs, fmt.Errorf("%s=%q: %w", key, value, err))
}

func (r *envReader) Int(key string, def int) int {
	v, ok := r.lookup(key)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		r.fail(key, v, err)
		return def
	}
	return n
}

func (r *envReader) Int64(key string, def int64) int64 {
	v, ok := r.lookup(key)
	if !ok {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		r.fail(key, v, err)
		return def
	}
	return n
}

func (r *envReader) Float(key string, def float64) float64 {
	v, ok := r.lookup(key)
	if !ok {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		r.fail(key, v, err)
		return def
	}
	return f
}

func (r *envReader) Bool(key string, def bool) bool {
	v, ok := r.lookup(key)
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		r.fail(key, v, err)
		return def
	}
	return b
}

func (r *envReader) Duration(key string, def time.Duration) time.Duration {
	v, ok := r.lookup(key)
	if !ok {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		r.fail(key, v, err)
		return def
	}
	return d
}

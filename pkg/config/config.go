package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds every value the spec names as configuration, plus the
// ambient listen/logging settings the process needs to start.
type Config struct {
	MaximumPendingBytes int           `yaml:"maximum_pending_bytes"`
	ContextTimeout      time.Duration `yaml:"context_timeout"`
	HandsOff            bool          `yaml:"hands_off"`
	UploadDirectory     string        `yaml:"upload_directory"`
	RequestSizeFactor   int           `yaml:"request_size_factor"`
	RequestSize         int           `yaml:"request_size"`
	LogFile             string        `yaml:"log_file"`
	ConfigFile          string        `yaml:"-"`
	RedisServer         RedisConfig   `yaml:"redis_server"`
	HTTPListen          string        `yaml:"http_listen"`
	MetricsListen       string        `yaml:"metrics_listen"`
	LogLevel            string        `yaml:"log_level"`
	LogJSON             bool          `yaml:"log_json"`
}

// RedisConfig is the address of the external state store.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// Defaults returns a Config populated with the values the source system
// ships out of the box.
func Defaults() *Config {
	return &Config{
		MaximumPendingBytes: 100 * 1024 * 1024,
		ContextTimeout:      10 * time.Minute,
		HandsOff:            false,
		UploadDirectory:     "./uploads",
		RequestSizeFactor:   4,
		RequestSize:         1024 * 1024,
		LogFile:             "",
		RedisServer: RedisConfig{
			Addr: "localhost:6379",
			DB:   0,
		},
		HTTPListen:    ":8080",
		MetricsListen: ":9090",
		LogLevel:      "info",
		LogJSON:       true,
	}
}

// Load reads the primary config file at path, falling back to Defaults if
// it does not exist, then applies overlayPath on top if non-empty
// (CONFIG_FILE), then environment overrides.
func Load(path, overlayPath string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if err := mergeFile(cfg, path); err != nil {
			return nil, err
		}
	}
	if overlayPath != "" {
		if err := mergeFile(cfg, overlayPath); err != nil {
			return nil, fmt.Errorf("config: overlay: %w", err)
		}
		cfg.ConfigFile = overlayPath
	}

	cfg.applyEnvOverrides()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: validating: %w", err)
	}
	return cfg, nil
}

func mergeFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("config: reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("MAXIMUM_PENDING_BYTES"); v != "" {
		if n, err := parseInt(v); err == nil {
			c.MaximumPendingBytes = n
		}
	}
	if v := os.Getenv("CONTEXT_TIMEOUT"); v != "" {
		if n, err := parseInt(v); err == nil {
			c.ContextTimeout = time.Duration(n) * time.Second
		}
	}
	if os.Getenv("HANDS_OFF") == "true" {
		c.HandsOff = true
	}
	if v := os.Getenv("UPLOAD_DIRECTORY"); v != "" {
		c.UploadDirectory = v
	}
	if v := os.Getenv("REQUEST_SIZE_FACTOR"); v != "" {
		if n, err := parseInt(v); err == nil {
			c.RequestSizeFactor = n
		}
	}
	if v := os.Getenv("REQUEST_SIZE"); v != "" {
		if n, err := parseInt(v); err == nil {
			c.RequestSize = n
		}
	}
	if v := os.Getenv("LOG_FILE"); v != "" {
		c.LogFile = v
	}
	if v := os.Getenv("REDIS_SERVER"); v != "" {
		c.RedisServer.Addr = v
	}
}

func parseInt(s string) (int, error) {
	var n int
	_, err := fmt.Sscanf(s, "%d", &n)
	return n, err
}

func (c *Config) validate() error {
	if c.MaximumPendingBytes <= 0 {
		return fmt.Errorf("maximum_pending_bytes must be positive")
	}
	if c.ContextTimeout <= 0 {
		return fmt.Errorf("context_timeout must be positive")
	}
	if c.RequestSizeFactor <= 0 {
		return fmt.Errorf("request_size_factor must be positive")
	}
	if c.RequestSize <= 0 {
		return fmt.Errorf("request_size must be positive")
	}
	if c.UploadDirectory == "" {
		return fmt.Errorf("upload_directory is required")
	}
	if c.RedisServer.Addr == "" {
		return fmt.Errorf("redis_server.addr is required")
	}
	return nil
}

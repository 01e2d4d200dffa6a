// Package config holds the environment-style process configuration.
package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/clipbridge/clipbridge/model"
)

// Environment variable names.
const (
	EnvHost         = "CLIPBOARD_HOST"
	EnvPort         = "CLIPBOARD_PORT"
	EnvServerURL    = "CLIPBOARD_SERVER"
	EnvPollInterval = "CLIPBOARD_POLL_INTERVAL"
	EnvSource       = "CLIPBOARD_SOURCE"
	EnvStore        = "CLIPBOARD_STORE"
	EnvStorePath    = "CLIPBOARD_STORE_PATH"
	EnvRedisAddr    = "CLIPBOARD_REDIS_ADDR"
	EnvRedisKey     = "CLIPBOARD_REDIS_KEY"
	EnvHTTPTimeout  = "CLIPBOARD_HTTP_TIMEOUT"
)

// Store backend selectors.
const (
	FileStore   = "file"
	MemoryStore = "memory"
	RedisStore  = "redis"
)

// Defaults.
const (
	DefaultHost         = "0.0.0.0"
	DefaultPort         = 5000
	DefaultServerURL    = "http://localhost:5000"
	DefaultPollInterval = 500 * time.Millisecond
	DefaultStorePath    = "clipboard_store.json"
	DefaultRedisAddr    = "localhost:6379"
	DefaultRedisKey     = "clipbridge:slot"
	DefaultHTTPTimeout  = 2 * time.Second
)

// Config is the process configuration.
type Config struct {
	// Server bind host
	Host string
	// Server bind port
	Port int
	// Server base URL as seen by clients
	ServerURL string
	// Sync engine poll interval
	PollInterval time.Duration
	// This endpoint's origin tag
	Source model.Origin
	// Store backend selector: file, memory or redis
	Store string
	// File backend path
	StorePath string
	// Redis backend address and key
	RedisAddr string
	RedisKey  string
	// HTTP client timeout (bounds worst-case tick latency)
	HTTPTimeout time.Duration
}

// Addr returns the server bind address.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// FromEnv builds a Config from the environment, loading an optional .env file
// first. Invalid values are errors, not silent defaults.
func FromEnv() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Host:         DefaultHost,
		Port:         DefaultPort,
		ServerURL:    DefaultServerURL,
		PollInterval: DefaultPollInterval,
		Source:       model.DesktopOrigin,
		Store:        FileStore,
		StorePath:    DefaultStorePath,
		RedisAddr:    DefaultRedisAddr,
		RedisKey:     DefaultRedisKey,
		HTTPTimeout:  DefaultHTTPTimeout,
	}

	if v := os.Getenv(EnvHost); v != "" {
		cfg.Host = v
	}
	if v := os.Getenv(EnvPort); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil || port <= 0 || port > 65535 {
			return nil, fmt.Errorf("%s (%s): must be a valid port", EnvPort, v)
		}
		cfg.Port = port
	}
	if v := os.Getenv(EnvServerURL); v != "" {
		cfg.ServerURL = v
	}
	if v := os.Getenv(EnvPollInterval); v != "" {
		dur, err := time.ParseDuration(v)
		if err != nil || dur <= 0 {
			return nil, fmt.Errorf("%s (%s): must be a positive duration", EnvPollInterval, v)
		}
		cfg.PollInterval = dur
	}
	if v := os.Getenv(EnvSource); v != "" {
		source, err := model.ParseOrigin(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", EnvSource, err)
		}
		cfg.Source = source
	}
	if v := os.Getenv(EnvStore); v != "" {
		switch v {
		case FileStore, MemoryStore, RedisStore:
			cfg.Store = v
		default:
			return nil, fmt.Errorf("%s (%s): must be %q, %q or %q", EnvStore, v, FileStore, MemoryStore, RedisStore)
		}
	}
	if v := os.Getenv(EnvStorePath); v != "" {
		cfg.StorePath = v
	}
	if v := os.Getenv(EnvRedisAddr); v != "" {
		cfg.RedisAddr = v
	}
	if v := os.Getenv(EnvRedisKey); v != "" {
		cfg.RedisKey = v
	}
	if v := os.Getenv(EnvHTTPTimeout); v != "" {
		dur, err := time.ParseDuration(v)
		if err != nil || dur <= 0 {
			return nil, fmt.Errorf("%s (%s): must be a positive duration", EnvHTTPTimeout, v)
		}
		cfg.HTTPTimeout = dur
	}

	return cfg, nil
}

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. HOMEDASH_MONITOR_RETRIES.
const EnvPrefix = "HOMEDASH"

// Config represents configuration data for the dashboard service.
type Config struct {
	Addr          string        `mapstructure:"addr"`
	DataDirectory string        `mapstructure:"data_directory"`
	Log           LogConfig     `mapstructure:"log"`
	Storage       StorageConfig `mapstructure:"storage"`
	Monitor       MonitorConfig `mapstructure:"monitor"`
	CORS          CORSConfig    `mapstructure:"cors"`
}

// LogConfig selects log verbosity and encoding.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// StorageConfig selects where dashboard configuration is persisted.
type StorageConfig struct {
	Backend  string         `mapstructure:"backend"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Postgres PostgresConfig `mapstructure:"postgres"`
}

// RedisConfig describes a redis backend.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

// PostgresConfig describes a postgres backend.
type PostgresConfig struct {
	DSN string `mapstructure:"dsn"`
}

// MonitorConfig tunes connectivity polling.
type MonitorConfig struct {
	IntervalMinutes int            `mapstructure:"interval_minutes"`
	TimeoutMs       int            `mapstructure:"timeout_ms"`
	Retries         int            `mapstructure:"retries"`
	RetryDelayMs    int            `mapstructure:"retry_delay_ms"`
	OriginScheme    string         `mapstructure:"origin_scheme"`
	SkipTLSVerify   bool           `mapstructure:"skip_tls_verify"`
	Internet        InternetConfig `mapstructure:"internet"`
}

// InternetConfig tunes the general internet check.
type InternetConfig struct {
	Method    string `mapstructure:"method"`
	Endpoint  string `mapstructure:"endpoint"`
	DNSServer string `mapstructure:"dns_server"`
	TimeoutMs int    `mapstructure:"timeout_ms"`
}

// CORSConfig lists origins allowed to call the API from a browser.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

const (
	BackendFile     = "file"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// Interval returns the polling period.
func (m MonitorConfig) Interval() time.Duration {
	return time.Duration(m.IntervalMinutes) * time.Minute
}

// Timeout returns the per-strategy probe timeout.
func (m MonitorConfig) Timeout() time.Duration {
	return time.Duration(m.TimeoutMs) * time.Millisecond
}

// RetryDelay returns the pause between fetch attempts.
func (m MonitorConfig) RetryDelay() time.Duration {
	return time.Duration(m.RetryDelayMs) * time.Millisecond
}

// Timeout returns the internet check timeout.
func (i InternetConfig) Timeout() time.Duration {
	return time.Duration(i.TimeoutMs) * time.Millisecond
}

// RedisOptions returns client options for the redis backend.
func (r RedisConfig) RedisOptions() *redis.Options {
	return &redis.Options{
		Addr:            r.Addr,
		Password:        r.Password,
		DB:              r.DB,
		DisableIdentity: true,
	}
}

// StorePath is where the file backend keeps its document.
func (c Config) StorePath() string {
	return filepath.Join(c.DataDirectory, "dashboard.json")
}

// Load reads configuration from path, layering HOMEDASH_* environment
// variables on top. An empty path or a missing file falls back to defaults.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil && !isNotExist(err) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// DefaultConfig returns the configuration used when nothing is provided.
func DefaultConfig() Config {
	cfg, _ := Load("")
	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("addr", ":8080")
	v.SetDefault("data_directory", filepath.Join(".dist", "data"))

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("storage.backend", BackendFile)
	v.SetDefault("storage.redis.addr", "localhost:6379")
	v.SetDefault("storage.redis.password", "")
	v.SetDefault("storage.redis.db", 0)
	v.SetDefault("storage.redis.prefix", "")
	v.SetDefault("storage.postgres.dsn", "")

	v.SetDefault("monitor.interval_minutes", 5)
	v.SetDefault("monitor.timeout_ms", 5000)
	v.SetDefault("monitor.retries", 1)
	v.SetDefault("monitor.retry_delay_ms", 1000)
	v.SetDefault("monitor.origin_scheme", "http")
	v.SetDefault("monitor.skip_tls_verify", false)
	v.SetDefault("monitor.internet.method", "doh")
	v.SetDefault("monitor.internet.endpoint", "https://dns.google/resolve?name=google.com&type=A")
	v.SetDefault("monitor.internet.dns_server", "1.1.1.1:53")
	v.SetDefault("monitor.internet.timeout_ms", 5000)

	v.SetDefault("cors.allowed_origins", []string{})
}

// Validate checks value ranges and enumerations.
func (c Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.Addr) == "" {
		errs = append(errs, errors.New("addr is required"))
	}

	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format %q must be text or json", c.Log.Format))
	}

	switch c.Storage.Backend {
	case BackendFile:
		if c.DataDirectory == "" {
			errs = append(errs, errors.New("data_directory is required for the file backend"))
		}
	case BackendRedis:
		if c.Storage.Redis.Addr == "" {
			errs = append(errs, errors.New("storage.redis.addr is required"))
		}
	case BackendPostgres:
		if c.Storage.Postgres.DSN == "" {
			errs = append(errs, errors.New("storage.postgres.dsn is required"))
		}
	default:
		errs = append(errs, fmt.Errorf("storage.backend %q is not one of file, redis, postgres", c.Storage.Backend))
	}

	m := c.Monitor
	if m.IntervalMinutes <= 0 {
		errs = append(errs, fmt.Errorf("monitor.interval_minutes must be positive, got %d", m.IntervalMinutes))
	}
	if m.TimeoutMs <= 0 {
		errs = append(errs, fmt.Errorf("monitor.timeout_ms must be positive, got %d", m.TimeoutMs))
	}
	if m.Retries < 0 {
		errs = append(errs, fmt.Errorf("monitor.retries must not be negative, got %d", m.Retries))
	}
	if m.RetryDelayMs < 0 {
		errs = append(errs, fmt.Errorf("monitor.retry_delay_ms must not be negative, got %d", m.RetryDelayMs))
	}
	if m.OriginScheme != "http" && m.OriginScheme != "https" {
		errs = append(errs, fmt.Errorf("monitor.origin_scheme %q must be http or https", m.OriginScheme))
	}
	switch m.Internet.Method {
	case "doh", "dns", "tcp":
	default:
		errs = append(errs, fmt.Errorf("monitor.internet.method %q must be doh, dns or tcp", m.Internet.Method))
	}

	return errors.Join(errs...)
}

func isNotExist(err error) bool {
	var notFound viper.ConfigFileNotFoundError
	return errors.Is(err, fs.ErrNotExist) || errors.As(err, &notFound)
}

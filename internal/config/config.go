// Package config provides configuration management for go-mcpdir.
// Values come from the environment (and cobra flags bound into the same viper
// instance) and are frozen into a Config once at startup.
package config

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

var AppVersion = "-unset-" // will be set at build time

const (
	DefaultSecretKey = "dev_secret_key"
	DefaultEnv       = "development"
	DefaultHost      = "0.0.0.0"
	DefaultPort      = 5000
	DefaultDataFile  = "static/data/servers.json"
	DefaultStaticDir = "static"
	DefaultLogLevel  = "info"

	DefaultContentSecurityPolicy = "default-src 'self'; script-src 'self'; style-src 'self' 'unsafe-inline'; img-src 'self' data:; font-src 'self'"

	DefaultRateLimitBurst  = 20
	DefaultShutdownTimeout = 10 * time.Second
	DefaultUpdateFile      = ".update"
	DefaultUpdateInterval  = 60 * time.Second

	ProductionEnv = "production"
)

// ErrMissingSecret is returned by Load when the environment is production and
// no secret key was provided.
var ErrMissingSecret = errors.New("SESSION_SECRET must be set in production")

// Config holds the process-wide settings. It is built once by Load and
// shared read-only afterwards.
type Config struct {
	SecretKey string
	// SecretDefaulted is true when SecretKey fell back to DefaultSecretKey.
	SecretDefaulted bool

	Env      string
	Debug    bool
	LogLevel string

	Host string
	Port int

	DataFile  string
	StaticDir string

	ContentSecurityPolicy string

	// Per-client request limiter; RateLimitRPS <= 0 disables it.
	RateLimitRPS   float64
	RateLimitBurst int

	PprofAddr       string // empty: profiler off
	ShutdownTimeout time.Duration

	// UpdateFile, when it appears, triggers a graceful shutdown. Empty: off
	// (set UPDATE_FILE=off).
	UpdateFile     string
	UpdateInterval time.Duration
}

// NewViper returns a viper instance with every key, default and environment
// binding the service knows about. Callers may bind flags on top before Load.
func NewViper() *viper.Viper {
	v := viper.New()

	// key first, then the accepted environment names in lookup order
	_ = v.BindEnv("secret_key", "SESSION_SECRET", "SECRET_KEY")
	_ = v.BindEnv("env", "FLASK_ENV", "APP_ENV")
	_ = v.BindEnv("debug", "FLASK_DEBUG")
	_ = v.BindEnv("log_level", "LOG_LEVEL")
	_ = v.BindEnv("host", "HOST")
	_ = v.BindEnv("port", "PORT")
	_ = v.BindEnv("data_file", "DATA_FILE")
	_ = v.BindEnv("static_dir", "STATIC_DIR")
	_ = v.BindEnv("csp", "CONTENT_SECURITY_POLICY")
	_ = v.BindEnv("rate_limit.rps", "RATE_LIMIT_RPS")
	_ = v.BindEnv("rate_limit.burst", "RATE_LIMIT_BURST")
	_ = v.BindEnv("pprof_addr", "PPROF_ADDR")
	_ = v.BindEnv("shutdown_timeout", "SHUTDOWN_TIMEOUT")
	_ = v.BindEnv("update_file", "UPDATE_FILE")
	_ = v.BindEnv("update_interval", "UPDATE_INTERVAL")

	v.SetDefault("env", DefaultEnv)
	v.SetDefault("debug", "false")
	v.SetDefault("log_level", DefaultLogLevel)
	v.SetDefault("host", DefaultHost)
	v.SetDefault("port", DefaultPort)
	v.SetDefault("data_file", DefaultDataFile)
	v.SetDefault("static_dir", DefaultStaticDir)
	v.SetDefault("csp", DefaultContentSecurityPolicy)
	v.SetDefault("rate_limit.rps", 0)
	v.SetDefault("rate_limit.burst", DefaultRateLimitBurst)
	v.SetDefault("pprof_addr", "")
	v.SetDefault("shutdown_timeout", DefaultShutdownTimeout.String())
	v.SetDefault("update_file", DefaultUpdateFile)
	v.SetDefault("update_interval", DefaultUpdateInterval.String())
	return v
}

// Load validates the values held by v and returns the frozen Config.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		SecretKey: strings.TrimSpace(v.GetString("secret_key")),
		Env:       strings.TrimSpace(v.GetString("env")),
		Debug:     strings.EqualFold(strings.TrimSpace(v.GetString("debug")), "true"),
		LogLevel:  strings.TrimSpace(v.GetString("log_level")),
		Host:      strings.TrimSpace(v.GetString("host")),
		DataFile:  v.GetString("data_file"),
		StaticDir: v.GetString("static_dir"),

		ContentSecurityPolicy: strings.TrimSpace(v.GetString("csp")),
		PprofAddr:             strings.TrimSpace(v.GetString("pprof_addr")),
		UpdateFile:            strings.TrimSpace(v.GetString("update_file")),
	}
	if cfg.Env == "" {
		cfg.Env = DefaultEnv
	}
	switch strings.ToLower(cfg.UpdateFile) {
	case "off", "none":
		cfg.UpdateFile = ""
	}

	if cfg.SecretKey == "" {
		if cfg.IsProduction() {
			return nil, ErrMissingSecret
		}
		cfg.SecretKey = DefaultSecretKey
		cfg.SecretDefaulted = true
	}

	port, err := strconv.Atoi(strings.TrimSpace(v.GetString("port")))
	if err != nil {
		return nil, fmt.Errorf("invalid port %q: %w", v.GetString("port"), err)
	}
	if port < 1 || port > 65535 {
		return nil, fmt.Errorf("invalid port %d (must be between 1 and 65535)", port)
	}
	cfg.Port = port

	if strings.TrimSpace(cfg.DataFile) == "" {
		return nil, errors.New("data_file must not be empty")
	}
	if strings.TrimSpace(cfg.StaticDir) == "" {
		return nil, errors.New("static_dir must not be empty")
	}

	rps, err := strconv.ParseFloat(strings.TrimSpace(v.GetString("rate_limit.rps")), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid rate_limit.rps %q: %w", v.GetString("rate_limit.rps"), err)
	}
	cfg.RateLimitRPS = rps
	burst, err := strconv.Atoi(strings.TrimSpace(v.GetString("rate_limit.burst")))
	if err != nil {
		return nil, fmt.Errorf("invalid rate_limit.burst %q: %w", v.GetString("rate_limit.burst"), err)
	}
	if rps > 0 && burst < 1 {
		return nil, fmt.Errorf("invalid rate_limit.burst %d (must be >= 1 when rate limiting is enabled)", burst)
	}
	cfg.RateLimitBurst = burst

	timeout, err := time.ParseDuration(strings.TrimSpace(v.GetString("shutdown_timeout")))
	if err != nil {
		return nil, fmt.Errorf("invalid shutdown_timeout: %w", err)
	}
	if timeout <= 0 {
		return nil, fmt.Errorf("invalid shutdown_timeout %s (must be positive)", timeout)
	}
	cfg.ShutdownTimeout = timeout

	interval, err := time.ParseDuration(strings.TrimSpace(v.GetString("update_interval")))
	if err != nil {
		return nil, fmt.Errorf("invalid update_interval: %w", err)
	}
	if cfg.UpdateFile != "" && interval <= 0 {
		return nil, fmt.Errorf("invalid update_interval %s (must be positive)", interval)
	}
	cfg.UpdateInterval = interval

	return cfg, nil
}

// IsProduction reports whether the environment name is "production".
func (c *Config) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(c.Env), ProductionEnv)
}

// Addr returns the host:port the web server listens on.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// RateLimitEnabled reports whether the per-client limiter should be installed.
func (c *Config) RateLimitEnabled() bool {
	return c.RateLimitRPS > 0
}

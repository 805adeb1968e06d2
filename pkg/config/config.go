// Package config loads the server configuration from YAML with environment
// overrides and watches the file for layout setting changes.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"

	"github.com/dd0wney/cluso-socialgraph/pkg/logging"
	tlsconfig "github.com/dd0wney/cluso-socialgraph/pkg/tls"
	"github.com/dd0wney/cluso-socialgraph/pkg/validation"
	"github.com/dd0wney/cluso-socialgraph/pkg/visualization"
)

// ErrInvalidConfig marks configuration that failed to parse or validate.
var ErrInvalidConfig = errors.New("invalid configuration")

// Source kinds.
const (
	SourceFile     = "file"
	SourcePostgres = "postgres"
	SourceNone     = "none"
)

// Config is the complete server configuration.
type Config struct {
	Server    ServerConfig     `yaml:"server"`
	Layout    LayoutConfig     `yaml:"layout"`
	Source    SourceConfig     `yaml:"source"`
	Log       LogConfig        `yaml:"log"`
	RateLimit RateLimitConfig  `yaml:"rate_limit"`
	TLS       tlsconfig.Config `yaml:"tls"`
	Auth      AuthConfig       `yaml:"auth"`
	Broadcast BroadcastConfig  `yaml:"broadcast"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Port            int           `yaml:"port" validate:"gte=1,lte=65535"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" validate:"gte=0"`
	MaxBodyBytes    int64         `yaml:"max_body_bytes" validate:"gte=1024"`
	CORSOrigins     []string      `yaml:"cors_origins"`
	TrustedProxies  string        `yaml:"trusted_proxies"`
}

// LayoutConfig configures the layout engine.
type LayoutConfig struct {
	Canvas    visualization.LayoutConfig `yaml:",inline"`
	FrameRate int                        `yaml:"frame_rate" validate:"gte=1,lte=240"`
	Viewer    uint64                     `yaml:"viewer"`
}

// SourceConfig selects where the graph comes from.
type SourceConfig struct {
	Kind         string        `yaml:"kind" validate:"oneof=file postgres none"`
	Path         string        `yaml:"path"`
	DSN          string        `yaml:"dsn"`
	PollInterval time.Duration `yaml:"poll_interval"`
	Timeout      time.Duration `yaml:"timeout"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `yaml:"level" validate:"oneof=debug info warn warning error DEBUG INFO WARN WARNING ERROR"`
}

// RateLimitConfig configures per-client request limits.
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled"`
	RPS     float64 `yaml:"rps" validate:"gte=0"`
	Burst   int     `yaml:"burst" validate:"gte=0"`
}

// AuthConfig guards the routes that change the layout. Leaving both the
// secret and the keys empty turns authentication off.
type AuthConfig struct {
	JWTSecret string         `yaml:"jwt_secret" validate:"omitempty,min=32"`
	TokenTTL  time.Duration  `yaml:"token_ttl" validate:"gte=0"`
	APIKeys   []APIKeyConfig `yaml:"api_keys" validate:"dive"`
}

// APIKeyConfig is one API key, stored as its bcrypt hash.
type APIKeyConfig struct {
	Name string `yaml:"name" validate:"required"`
	Hash string `yaml:"hash" validate:"required"`
	Role string `yaml:"role" validate:"omitempty,oneof=viewer editor admin"`
}

// Enabled reports whether any credential is configured.
func (a AuthConfig) Enabled() bool {
	return a.JWTSecret != "" || len(a.APIKeys) > 0
}

// BroadcastConfig publishes frames on a mangos PUB socket. An empty address
// disables it.
type BroadcastConfig struct {
	Addr     string `yaml:"addr"`
	Compress bool   `yaml:"compress"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ShutdownTimeout: 30 * time.Second,
			MaxBodyBytes:    10 << 20,
		},
		Layout: LayoutConfig{
			Canvas:    visualization.DefaultLayoutConfig(),
			FrameRate: visualization.DefaultFrameRate,
			Viewer:    1,
		},
		Source: SourceConfig{
			Kind:         SourceNone,
			PollInterval: 30 * time.Second,
			Timeout:      10 * time.Second,
		},
		Log: LogConfig{Level: "info"},
		TLS: tlsconfig.DefaultConfig(),
		Auth: AuthConfig{
			TokenTTL: 24 * time.Hour,
		},
		RateLimit: RateLimitConfig{
			Enabled: true,
			RPS:     50,
			Burst:   100,
		},
	}
}

// Load reads path over the defaults, applies environment overrides and
// validates the result. An empty path skips the file.
func Load(path string) (*Config, error) {
	return load(path, os.Getenv)
}

func load(path string, getenv func(string) string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "read config %s", path)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Mark(errors.Wrapf(err, "parse config %s", path), ErrInvalidConfig)
		}
	}

	if err := cfg.applyEnv(getenv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides fields from PORT, LOG_LEVEL, SOCIALGRAPH_SOURCE,
// SOCIALGRAPH_PATH, SOCIALGRAPH_DSN, SOCIALGRAPH_VIEWER, SOCIALGRAPH_JWT_SECRET,
// SOCIALGRAPH_BROADCAST, RATE_LIMIT_RPS and RATE_LIMIT_BURST.
func (c *Config) applyEnv(getenv func(string) string) error {
	parseErr := func(key string, err error) error {
		return errors.Mark(errors.Wrapf(err, "parse %s", key), ErrInvalidConfig)
	}

	if v := getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return parseErr("PORT", err)
		}
		c.Server.Port = port
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = strings.TrimSpace(v)
	}
	if v := getenv("SOCIALGRAPH_SOURCE"); v != "" {
		c.Source.Kind = strings.ToLower(strings.TrimSpace(v))
	}
	if v := getenv("SOCIALGRAPH_PATH"); v != "" {
		c.Source.Path = v
	}
	if v := getenv("SOCIALGRAPH_DSN"); v != "" {
		c.Source.DSN = v
	}
	if v := getenv("SOCIALGRAPH_VIEWER"); v != "" {
		viewer, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return parseErr("SOCIALGRAPH_VIEWER", err)
		}
		c.Layout.Viewer = viewer
	}
	if v := getenv("SOCIALGRAPH_JWT_SECRET"); v != "" {
		c.Auth.JWTSecret = v
	}
	if v := getenv("SOCIALGRAPH_BROADCAST"); v != "" {
		c.Broadcast.Addr = strings.TrimSpace(v)
	}
	if v := getenv("RATE_LIMIT_RPS"); v != "" {
		rps, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return parseErr("RATE_LIMIT_RPS", err)
		}
		c.RateLimit.RPS = rps
	}
	if v := getenv("RATE_LIMIT_BURST"); v != "" {
		burst, err := strconv.Atoi(v)
		if err != nil {
			return parseErr("RATE_LIMIT_BURST", err)
		}
		c.RateLimit.Burst = burst
	}
	return nil
}

// Validate checks field ranges and the rules that depend on the source kind.
func (c *Config) Validate() error {
	if err := validation.Struct(c); err != nil {
		return errors.Mark(err, ErrInvalidConfig)
	}

	cv := validation.NewConfigValidator("config")
	cv.When(c.Source.Kind == SourcePostgres, func(cv *validation.ConfigValidator) {
		cv.Required("source.dsn", c.Source.DSN)
	})
	cv.When(c.Source.Kind == SourceFile, func(cv *validation.ConfigValidator) {
		cv.Required("source.path", c.Source.Path)
	})
	cv.When(c.Source.Kind == SourcePostgres, func(cv *validation.ConfigValidator) {
		cv.MinDuration("source.poll_interval", c.Source.PollInterval, time.Second)
	})
	cv.When(c.RateLimit.Enabled, func(cv *validation.ConfigValidator) {
		cv.RangeFloat("rate_limit.rps", c.RateLimit.RPS, 0.1, 100000)
		cv.RangeInt("rate_limit.burst", c.RateLimit.Burst, 1, 1000000)
	})
	cv.When(c.TLS.Enabled && !c.TLS.AutoGenerate, func(cv *validation.ConfigValidator) {
		cv.Required("tls.cert_file", c.TLS.CertFile)
		cv.Required("tls.key_file", c.TLS.KeyFile)
	})
	if err := cv.Validate(); err != nil {
		return errors.Mark(err, ErrInvalidConfig)
	}
	return nil
}

// LogLevel returns the parsed log level.
func (c *Config) LogLevel() logging.Level {
	return logging.ParseLevel(c.Log.Level)
}

// Package config holds formgate's runtime configuration and its small
// SQLite-backed state store.
//
// Configuration is layered by viper: built-in defaults, then formgate.yaml,
// then FORMGATE_* environment variables (dots become underscores, so
// auth.jwt_secret is FORMGATE_AUTH_JWT_SECRET), then command-line flags.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of every environment variable formgate reads.
const EnvPrefix = "FORMGATE"

// Config is the full runtime configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Auth     AuthConfig     `yaml:"auth" mapstructure:"auth"`
	Upstream UpstreamConfig `yaml:"upstream" mapstructure:"upstream"`
	Cache    CacheConfig    `yaml:"cache" mapstructure:"cache"`
	Slugs    SlugConfig     `yaml:"slugs" mapstructure:"slugs"`
	UI       UIConfig       `yaml:"ui" mapstructure:"ui"`
	Logging  LoggingConfig  `yaml:"logging" mapstructure:"logging"`
	MCP      MCPConfig      `yaml:"mcp" mapstructure:"mcp"`
}

// ServerConfig controls the HTTP server behavior.
type ServerConfig struct {
	Host            string        `yaml:"host" mapstructure:"host"`
	Port            int           `yaml:"port" mapstructure:"port"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`
	CORSOrigins     []string      `yaml:"cors_origins" mapstructure:"cors_origins"`
	// TokenRateLimit is the number of POST /token requests allowed per
	// client IP per minute. Zero disables the limit.
	TokenRateLimit int `yaml:"token_rate_limit" mapstructure:"token_rate_limit"`
}

// AuthConfig controls API key and token settings.
type AuthConfig struct {
	// JWTSecret signs tokens. When empty, a random secret is generated and
	// persisted in the data directory.
	JWTSecret string        `yaml:"jwt_secret" mapstructure:"jwt_secret"`
	Issuer    string        `yaml:"issuer" mapstructure:"issuer"`
	Audience  string        `yaml:"audience" mapstructure:"audience"`
	Role      string        `yaml:"role" mapstructure:"role"`
	TokenTTL  time.Duration `yaml:"token_ttl" mapstructure:"token_ttl"`
	// APIKeys is the static allow-list. Keys managed with `formgate key`
	// are accepted as well.
	APIKeys []string `yaml:"api_keys" mapstructure:"api_keys"`
}

// UpstreamConfig selects and configures the CRM connector.
type UpstreamConfig struct {
	Name           string      `yaml:"name" mapstructure:"name"`
	Driver         string      `yaml:"driver" mapstructure:"driver"`
	DSN            string      `yaml:"dsn" mapstructure:"dsn"`
	Schema         string      `yaml:"schema" mapstructure:"schema"`
	PrivateKeyPath string      `yaml:"private_key_path,omitempty" mapstructure:"private_key_path"`
	Pool           PoolConfig  `yaml:"pool" mapstructure:"pool"`
	Table          TableConfig `yaml:"table" mapstructure:"table"`
}

// PoolConfig controls the upstream connection pool.
type PoolConfig struct {
	MaxOpenConns    int           `yaml:"max_open_conns" mapstructure:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns" mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time" mapstructure:"conn_max_idle_time"`
}

// TableConfig maps the form record onto the upstream table. Empty fields
// fall back to the CRM's logical names.
type TableConfig struct {
	Name         string `yaml:"name" mapstructure:"name"`
	IDColumn     string `yaml:"id_column" mapstructure:"id_column"`
	NameColumn   string `yaml:"name_column" mapstructure:"name_column"`
	HTMLColumn   string `yaml:"html_column" mapstructure:"html_column"`
	StatusColumn string `yaml:"status_column" mapstructure:"status_column"`
	TypeColumn   string `yaml:"type_column" mapstructure:"type_column"`
	LiveStatus   int64  `yaml:"live_status" mapstructure:"live_status"`
	FormType     int64  `yaml:"form_type" mapstructure:"form_type"`
}

// CacheConfig selects the cache backend.
type CacheConfig struct {
	Backend    string        `yaml:"backend" mapstructure:"backend"`
	TTL        time.Duration `yaml:"ttl" mapstructure:"ttl"`
	MaxEntries int           `yaml:"max_entries" mapstructure:"max_entries"`
	RedisURL   string        `yaml:"redis_url" mapstructure:"redis_url"`
	KeyPrefix  string        `yaml:"key_prefix" mapstructure:"key_prefix"`
}

// SlugConfig selects where slug mappings are remembered.
type SlugConfig struct {
	Store     string `yaml:"store" mapstructure:"store"`
	RedisURL  string `yaml:"redis_url" mapstructure:"redis_url"`
	RedisKey  string `yaml:"redis_key" mapstructure:"redis_key"`
	MaxLength int    `yaml:"max_length" mapstructure:"max_length"`
}

// UIConfig controls the embedded frontend.
type UIConfig struct {
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	// APIKey is handed to the frontend so it can request its own token.
	APIKey string `yaml:"api_key" mapstructure:"api_key"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// MCPConfig controls the MCP (Model Context Protocol) server.
type MCPConfig struct {
	Transport string `yaml:"transport" mapstructure:"transport"`
	Port      int    `yaml:"port" mapstructure:"port"`
}

// Default returns a Config pre-filled with sensible defaults.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ShutdownTimeout: 30 * time.Second,
			CORSOrigins:     []string{"*"},
			TokenRateLimit:  10,
		},
		Auth: AuthConfig{
			Issuer:   "formgate",
			Audience: "formgate-api",
			Role:     "api_client",
			TokenTTL: 30 * 24 * time.Hour,
		},
		Upstream: UpstreamConfig{
			Name: "crm",
			Pool: PoolConfig{
				MaxOpenConns:    10,
				MaxIdleConns:    2,
				ConnMaxLifetime: 5 * time.Minute,
				ConnMaxIdleTime: time.Minute,
			},
		},
		Cache: CacheConfig{
			Backend:    "memory",
			TTL:        15 * time.Minute,
			MaxEntries: 4096,
			KeyPrefix:  "formgate:cache:",
		},
		Slugs: SlugConfig{
			Store:     "memory",
			RedisKey:  "formgate:slugs",
			MaxLength: 100,
		},
		UI: UIConfig{
			Enabled: true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		MCP: MCPConfig{
			Transport: "stdio",
			Port:      3001,
		},
	}
}

// Bind prepares v for Load: env prefix, key replacer and every default.
// Registering defaults also makes each key visible to AutomaticEnv.
func Bind(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	d := Default()
	defaults := map[string]interface{}{
		"server.host":             d.Server.Host,
		"server.port":             d.Server.Port,
		"server.shutdown_timeout": d.Server.ShutdownTimeout,
		"server.cors_origins":     d.Server.CORSOrigins,
		"server.token_rate_limit": d.Server.TokenRateLimit,

		"auth.jwt_secret": d.Auth.JWTSecret,
		"auth.issuer":     d.Auth.Issuer,
		"auth.audience":   d.Auth.Audience,
		"auth.role":       d.Auth.Role,
		"auth.token_ttl":  d.Auth.TokenTTL,
		"auth.api_keys":   []string{},

		"upstream.name":                    d.Upstream.Name,
		"upstream.driver":                  "",
		"upstream.dsn":                     "",
		"upstream.schema":                  "",
		"upstream.private_key_path":        "",
		"upstream.pool.max_open_conns":     d.Upstream.Pool.MaxOpenConns,
		"upstream.pool.max_idle_conns":     d.Upstream.Pool.MaxIdleConns,
		"upstream.pool.conn_max_lifetime":  d.Upstream.Pool.ConnMaxLifetime,
		"upstream.pool.conn_max_idle_time": d.Upstream.Pool.ConnMaxIdleTime,
		"upstream.table.name":              "",
		"upstream.table.id_column":         "",
		"upstream.table.name_column":       "",
		"upstream.table.html_column":       "",
		"upstream.table.status_column":     "",
		"upstream.table.type_column":       "",
		"upstream.table.live_status":       0,
		"upstream.table.form_type":         0,

		"cache.backend":     d.Cache.Backend,
		"cache.ttl":         d.Cache.TTL,
		"cache.max_entries": d.Cache.MaxEntries,
		"cache.redis_url":   "",
		"cache.key_prefix":  d.Cache.KeyPrefix,

		"slugs.store":      d.Slugs.Store,
		"slugs.redis_url":  "",
		"slugs.redis_key":  d.Slugs.RedisKey,
		"slugs.max_length": d.Slugs.MaxLength,

		"ui.enabled": d.UI.Enabled,
		"ui.api_key": "",

		"logging.level":  d.Logging.Level,
		"logging.format": d.Logging.Format,

		"mcp.transport": d.MCP.Transport,
		"mcp.port":      d.MCP.Port,
	}
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
}

// Load binds v, then unmarshals and validates the configuration it holds.
func Load(v *viper.Viper) (*Config, error) {
	Bind(v)

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for values formgate cannot run with.
// All problems are reported together, each wrapping ErrInvalidConfig.
func (c *Config) Validate() error {
	var errs []error
	bad := func(format string, args ...interface{}) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]interface{}{ErrInvalidConfig}, args...)...))
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		bad("server.port %d out of range", c.Server.Port)
	}
	if c.Server.TokenRateLimit < 0 {
		bad("server.token_rate_limit must not be negative")
	}
	if c.Auth.TokenTTL <= 0 {
		bad("auth.token_ttl must be positive")
	}
	if strings.TrimSpace(c.Auth.Role) == "" {
		bad("auth.role must not be empty")
	}
	if c.Cache.TTL <= 0 {
		bad("cache.ttl must be positive")
	}
	switch c.Cache.Backend {
	case "memory":
	case "redis":
		if c.Cache.RedisURL == "" {
			bad("cache.redis_url is required for the redis backend")
		}
	default:
		bad("cache.backend %q (want memory or redis)", c.Cache.Backend)
	}
	switch c.Slugs.Store {
	case "memory":
	case "redis":
		if c.Slugs.RedisURL == "" && c.Cache.RedisURL == "" {
			bad("slugs.redis_url (or cache.redis_url) is required for the redis slug store")
		}
	default:
		bad("slugs.store %q (want memory or redis)", c.Slugs.Store)
	}
	if c.Slugs.MaxLength < 0 {
		bad("slugs.max_length must not be negative")
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		bad("logging.format %q (want text or json)", c.Logging.Format)
	}
	switch c.MCP.Transport {
	case "stdio", "http":
	default:
		bad("mcp.transport %q (want stdio or http)", c.MCP.Transport)
	}

	return errors.Join(errs...)
}

// RequireUpstream reports an error when no upstream connector is configured.
func (c *Config) RequireUpstream() error {
	if c.Upstream.Driver == "" {
		return fmt.Errorf("%w: upstream.driver is required (set it in formgate.yaml or FORMGATE_UPSTREAM_DRIVER)", ErrInvalidConfig)
	}
	if c.Upstream.DSN == "" {
		return fmt.Errorf("%w: upstream.dsn is required", ErrInvalidConfig)
	}
	return nil
}

// SlugRedisURL returns the Redis URL for the slug store, falling back to the
// cache's.
func (c *Config) SlugRedisURL() string {
	if c.Slugs.RedisURL != "" {
		return c.Slugs.RedisURL
	}
	return c.Cache.RedisURL
}

// Redacted returns a copy with secrets masked, for display.
func (c *Config) Redacted() *Config {
	out := *c
	mask := func(s string) string {
		if s == "" {
			return ""
		}
		return "********"
	}
	out.Auth.JWTSecret = mask(c.Auth.JWTSecret)
	out.Auth.APIKeys = make([]string, len(c.Auth.APIKeys))
	for i, k := range c.Auth.APIKeys {
		out.Auth.APIKeys[i] = mask(k)
	}
	out.UI.APIKey = mask(c.UI.APIKey)
	out.Upstream.DSN = redactURL(c.Upstream.DSN)
	out.Cache.RedisURL = redactURL(c.Cache.RedisURL)
	out.Slugs.RedisURL = redactURL(c.Slugs.RedisURL)
	return &out
}

// redactURL masks the password of a URL or user:pass@host style DSN.
func redactURL(s string) string {
	if u, err := url.Parse(s); err == nil && u.User != nil {
		return u.Redacted()
	}
	at := strings.LastIndex(s, "@")
	if at < 0 {
		return s
	}
	if c := strings.Index(s[:at], ":"); c >= 0 {
		return s[:c+1] + "xxxxx" + s[at:]
	}
	return s
}

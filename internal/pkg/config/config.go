package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig            `mapstructure:"server"`
	Log      LogConfig               `mapstructure:"log"`
	Welfare  WelfareConfig           `mapstructure:"welfare"`
	Proxy    ProxyConfig             `mapstructure:"proxy"`
	Reports  map[string]ReportConfig `mapstructure:"reports"`
	Grants   GrantsConfig            `mapstructure:"grants"`
	Postgres PostgresConfig          `mapstructure:"postgres"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	SecureCookies   bool          `mapstructure:"secure_cookies"`
}

type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

type WelfareConfig struct {
	BaseURL         string        `mapstructure:"base_url"`
	LoginURL        string        `mapstructure:"login_url"`
	DefaultUsername string        `mapstructure:"default_username"`
	DefaultPassword string        `mapstructure:"default_password"`
	CatalogTTL      time.Duration `mapstructure:"catalog_ttl"`
}

type ProxyConfig struct {
	Timeout    time.Duration `mapstructure:"timeout"`
	CookieName string        `mapstructure:"cookie_name"`
	CookieTTL  time.Duration `mapstructure:"cookie_ttl"`
}

// ReportConfig overrides the upstream path of a report kind.
type ReportConfig struct {
	Path string `mapstructure:"path"`
}

type GrantsConfig struct {
	Concurrency int           `mapstructure:"concurrency"`
	BatchDelay  time.Duration `mapstructure:"batch_delay"`
	Capacity    int           `mapstructure:"capacity"`
}

type PostgresConfig struct {
	DSN            string        `mapstructure:"dsn"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("server.shutdown_timeout", 15*time.Second)
	v.SetDefault("server.secure_cookies", false)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)

	v.SetDefault("welfare.base_url", "http://localhost:5000/api")
	v.SetDefault("welfare.login_url", "http://localhost:5000/api/auth/login")
	v.SetDefault("welfare.default_username", "")
	v.SetDefault("welfare.default_password", "")
	v.SetDefault("welfare.catalog_ttl", 5*time.Minute)

	v.SetDefault("proxy.timeout", 30*time.Second)
	v.SetDefault("proxy.cookie_name", "token")
	v.SetDefault("proxy.cookie_ttl", 24*time.Hour)

	v.SetDefault("grants.concurrency", 3)
	v.SetDefault("grants.batch_delay", time.Second)
	v.SetDefault("grants.capacity", 100)

	v.SetDefault("postgres.dsn", "")
	v.SetDefault("postgres.connect_timeout", 30*time.Second)
}

// Load reads the optional config file at path, then WELFARE_* environment
// overrides (welfare.base_url -> WELFARE_WELFARE_BASE_URL).
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("WELFARE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is empty")
	}
	for name, raw := range map[string]string{
		"welfare.base_url":  c.Welfare.BaseURL,
		"welfare.login_url": c.Welfare.LoginURL,
	} {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%s must be an absolute url, got %q", name, raw)
		}
	}
	if c.Proxy.Timeout <= 0 {
		return fmt.Errorf("proxy.timeout must be positive")
	}
	if c.Proxy.CookieName == "" {
		return fmt.Errorf("proxy.cookie_name is empty")
	}
	if c.Grants.Concurrency <= 0 {
		return fmt.Errorf("grants.concurrency must be positive, got %d", c.Grants.Concurrency)
	}
	if c.Grants.Capacity <= 0 {
		return fmt.Errorf("grants.capacity must be positive, got %d", c.Grants.Capacity)
	}
	if c.Grants.BatchDelay < 0 {
		return fmt.Errorf("grants.batch_delay must not be negative")
	}
	return nil
}

// ReportPaths flattens the per-report overrides.
func (c *Config) ReportPaths() map[string]string {
	paths := make(map[string]string, len(c.Reports))
	for kind, rc := range c.Reports {
		if rc.Path != "" {
			paths[kind] = rc.Path
		}
	}
	return paths
}

package config

import (
	"fmt"
	"time"
)

// Settings is the typed view of the keys the catalog service reads.
type Settings struct {
	Service       ServiceSettings       `mapstructure:"service"`
	Log           LogSettings           `mapstructure:"log"`
	Sources       SourceSettings        `mapstructure:"sources"`
	HTTP          HTTPSettings          `mapstructure:"http"`
	Breaker       BreakerSettings       `mapstructure:"breaker"`
	Cache         CacheSettings         `mapstructure:"cache"`
	RateLimit     RateLimitSettings     `mapstructure:"ratelimit"`
	CORS          CORSSettings          `mapstructure:"cors"`
	Observability ObservabilitySettings `mapstructure:"observability"`
	Auth          AuthSettings          `mapstructure:"auth"`
}

type ServiceSettings struct {
	Name     string `mapstructure:"name"`
	Version  string `mapstructure:"version"`
	Endpoint string `mapstructure:"endpoint"`
	Port     string `mapstructure:"port"`
	// BaseURL prefixes canonical permission links.
	BaseURL         string        `mapstructure:"base_url"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type LogSettings struct {
	Level    string `mapstructure:"level"`
	Encoding string `mapstructure:"encoding"`
}

// SourceSettings locates the three static documents.
type SourceSettings struct {
	Kind         string        `mapstructure:"kind"` // "file" or "http"
	Dir          string        `mapstructure:"dir"`
	BaseURL      string        `mapstructure:"base_url"`
	Descriptions string        `mapstructure:"descriptions"`
	Provisioning string        `mapstructure:"provisioning"`
	Permissions  string        `mapstructure:"permissions"`
	Watch        bool          `mapstructure:"watch"`
	LoadTimeout  time.Duration `mapstructure:"load_timeout"`
}

type HTTPSettings struct {
	Timeout    time.Duration `mapstructure:"timeout"`
	RetryMax   int           `mapstructure:"retry_max"`
	RetryDelay time.Duration `mapstructure:"retry_delay"`
}

type BreakerSettings struct {
	MaxRequests      uint32        `mapstructure:"max_requests"`
	Interval         time.Duration `mapstructure:"interval"`
	Timeout          time.Duration `mapstructure:"timeout"`
	FailureThreshold uint32        `mapstructure:"failure_threshold"`
}

type CacheSettings struct {
	Enabled  bool          `mapstructure:"enabled"`
	Addr     string        `mapstructure:"redis_addr"`
	Password string        `mapstructure:"redis_password"`
	DB       int           `mapstructure:"redis_db"`
	TTL      time.Duration `mapstructure:"ttl"`
	Prefix   string        `mapstructure:"prefix"`
}

type RateLimitSettings struct {
	Enabled bool    `mapstructure:"enabled"`
	RPS     float64 `mapstructure:"rps"`
	Burst   int     `mapstructure:"burst"`
}

type CORSSettings struct {
	Enabled bool `mapstructure:"enabled"`
}

type ObservabilitySettings struct {
	Metrics         bool   `mapstructure:"metrics"`
	Tracing         bool   `mapstructure:"tracing"`
	TracingEndpoint string `mapstructure:"tracing_endpoint"`
}

// AuthSettings guards the reload API. An empty JWTSecret disables it.
type AuthSettings struct {
	JWTSecret   string        `mapstructure:"jwt_secret"`
	Issuer      string        `mapstructure:"issuer"`
	Audience    string        `mapstructure:"audience"`
	ReloadScope string        `mapstructure:"reload_scope"`
	Leeway      time.Duration `mapstructure:"leeway"`
}

// Defaults returns the default key set, suitable for WithDefaults.
func Defaults() map[string]any {
	return map[string]any{
		"service.name":             "permcatalog",
		"service.version":          "dev",
		"service.endpoint":         "0.0.0.0",
		"service.port":             "8080",
		"service.base_url":         "https://apipermissions.cengizyilmaz.net",
		"service.shutdown_timeout": "15s",

		"log.level":    "info",
		"log.encoding": "console",

		"sources.kind":         "file",
		"sources.dir":          "./data",
		"sources.base_url":     "",
		"sources.descriptions": "permissions-descriptions.json",
		"sources.provisioning": "provisioning-info.json",
		"sources.permissions":  "permissions.json",
		"sources.watch":        false,
		"sources.load_timeout": "30s",

		"http.timeout":     "30s",
		"http.retry_max":   3,
		"http.retry_delay": "100ms",

		"breaker.max_requests":      1,
		"breaker.interval":          "60s",
		"breaker.timeout":           "30s",
		"breaker.failure_threshold": 5,

		"cache.enabled":        false,
		"cache.redis_addr":     "localhost:6379",
		"cache.redis_password": "",
		"cache.redis_db":       0,
		"cache.ttl":            "10m",
		"cache.prefix":         "permcatalog:source:",

		"ratelimit.enabled": false,
		"ratelimit.rps":     20.0,
		"ratelimit.burst":   40,

		"cors.enabled": true,

		"observability.metrics":          true,
		"observability.tracing":          false,
		"observability.tracing_endpoint": "localhost:4318",

		"auth.jwt_secret":   "",
		"auth.issuer":       "",
		"auth.audience":     "",
		"auth.reload_scope": "catalog:reload",
		"auth.leeway":       "30s",
	}
}

// SensitiveKeys lists keys redacted by MaskedSettings.
func SensitiveKeys() []string {
	return []string{"cache.redis_password", "auth.jwt_secret"}
}

// Settings decodes the effective configuration.
func (c *Config) Settings() (Settings, error) {
	var s Settings
	if err := c.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("decode settings: %w", err)
	}
	if s.Sources.Kind != "file" && s.Sources.Kind != "http" {
		return Settings{}, fmt.Errorf("sources.kind must be file or http, got %q", s.Sources.Kind)
	}
	required := "sources.dir"
	if s.Sources.Kind == "http" {
		required = "sources.base_url"
	}
	if err := c.ValidateRequired(required); err != nil {
		return Settings{}, fmt.Errorf("sources.kind %s: %w", s.Sources.Kind, err)
	}
	return s, nil
}

// Addr returns host:port for the HTTP listener.
func (s ServiceSettings) Addr() string {
	return s.Endpoint + ":" + s.Port
}

package config

import (
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config is the wrapper around viper with extra helpers.
type Config struct {
	*viper.Viper

	sensitiveKeys map[string]struct{}
}

// Option is a functional option for New.
type Option func(*Config) error

// New creates a Config instance. Options are applied in order, so later
// sources override earlier ones.
//
//	cfg, err := config.New(
//	  config.WithDefaults(config.Defaults()),
//	  config.WithFile("permcatalog.yaml"),
//	  config.WithEnv("PERMCATALOG"),
//	  config.WithPFlags(cmd.Flags()),
//	)
func New(opts ...Option) (*Config, error) {
	cfg := &Config{
		Viper:         viper.New(),
		sensitiveKeys: map[string]struct{}{},
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, fmt.Errorf("config: applying option: %w", err)
		}
	}

	if err := cfg.readConfigIfPossible(); err != nil {
		// env/flags/defaults alone are a valid setup
		log.Printf("config: read config warning: %v", err)
	}

	return cfg, nil
}

func (c *Config) readConfigIfPossible() error {
	err := c.ReadInConfig()
	var notFound viper.ConfigFileNotFoundError
	if err == nil || errors.As(err, &notFound) {
		return nil
	}
	return err
}

/* ---------------------------
   Options
----------------------------*/

// WithDefaults sets default values (applied first)
func WithDefaults(defaults map[string]any) Option {
	return func(c *Config) error {
		for k, v := range defaults {
			c.SetDefault(k, v)
		}
		return nil
	}
}

// WithFile sets an exact config file; the extension determines its format.
func WithFile(path string) Option {
	return func(c *Config) error {
		if path == "" {
			return nil
		}
		c.SetConfigFile(path)
		if ext := strings.TrimPrefix(filepath.Ext(path), "."); ext != "" {
			c.SetConfigType(ext)
		}
		return nil
	}
}

// WithConfigNamePaths sets config name (without ext) and search paths.
func WithConfigNamePaths(name string, paths ...string) Option {
	return func(c *Config) error {
		if name != "" {
			c.SetConfigName(name)
		}
		if len(paths) == 0 {
			paths = []string{".", "./config", "/etc/permcatalog"}
		}
		for _, p := range paths {
			c.AddConfigPath(p)
		}
		return nil
	}
}

// WithEnv enables environment variable overrides.
// prefix = "PERMCATALOG" means PERMCATALOG_SOURCES_DIR overrides sources.dir.
func WithEnv(prefix string) Option {
	return func(c *Config) error {
		if prefix != "" {
			c.SetEnvPrefix(prefix)
		}
		c.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
		c.AutomaticEnv()
		return nil
	}
}

// WithPFlags binds a pflag.FlagSet to viper. Flags must be defined by the caller.
func WithPFlags(flags *pflag.FlagSet) Option {
	return func(c *Config) error {
		if flags == nil {
			flags = pflag.CommandLine
		}
		return c.BindPFlags(flags)
	}
}

// WithSensitiveKeys registers keys which should be redacted when printing/logging.
func WithSensitiveKeys(keys ...string) Option {
	return func(c *Config) error {
		for _, k := range keys {
			c.sensitiveKeys[k] = struct{}{}
		}
		return nil
	}
}

// Watch hot-reloads the config file and calls onChange after each reload.
// It reports false when no file was read, in which case there is nothing to watch.
// Register onChange only once everything it touches exists.
func (c *Config) Watch(onChange func()) bool {
	if c.ConfigFileUsed() == "" {
		return false
	}
	c.OnConfigChange(func(e fsnotify.Event) {
		log.Printf("config: file changed: %s", e.Name)
		if onChange != nil {
			onChange()
		}
	})
	c.WatchConfig()
	return true
}

/* ---------------------------
   Validation & Utilities
----------------------------*/

// ValidateRequired ensures keys exist and are non-empty.
func (c *Config) ValidateRequired(keys ...string) error {
	var missing []string
	for _, k := range keys {
		if !c.IsSet(k) || c.GetString(k) == "" {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required keys: %v", strings.Join(missing, ", "))
	}
	return nil
}

// MaskedSettings returns AllSettings flattened to dotted keys with sensitive keys redacted.
func (c *Config) MaskedSettings() map[string]any {
	redacted := map[string]any{}
	for _, k := range c.AllKeys() {
		if _, ok := c.sensitiveKeys[k]; ok {
			redacted[k] = "***REDACTED***"
			continue
		}
		redacted[k] = c.Get(k)
	}
	return redacted
}

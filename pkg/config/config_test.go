package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettings_Defaults(t *testing.T) {
	cfg, err := New(WithDefaults(Defaults()))
	require.NoError(t, err)

	s, err := cfg.Settings()
	require.NoError(t, err)
	assert.Equal(t, "file", s.Sources.Kind)
	assert.Equal(t, "permissions-descriptions.json", s.Sources.Descriptions)
	assert.Equal(t, "0.0.0.0:8080", s.Service.Addr())
	assert.Equal(t, 15*time.Second, s.Service.ShutdownTimeout)
	assert.Equal(t, uint32(5), s.Breaker.FailureThreshold)
}

func TestSettings_FileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "permcatalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte("sources:\n  kind: http\n  base_url: https://example.test/data\nservice:\n  port: \"9090\"\n"), 0o600))

	cfg, err := New(WithDefaults(Defaults()), WithFile(path))
	require.NoError(t, err)

	s, err := cfg.Settings()
	require.NoError(t, err)
	assert.Equal(t, "http", s.Sources.Kind)
	assert.Equal(t, "https://example.test/data", s.Sources.BaseURL)
	assert.Equal(t, "9090", s.Service.Port)
}

func TestSettings_EnvOverride(t *testing.T) {
	t.Setenv("PERMCATALOG_SOURCES_DIR", "/srv/data")

	cfg, err := New(WithDefaults(Defaults()), WithEnv("PERMCATALOG"))
	require.NoError(t, err)

	s, err := cfg.Settings()
	require.NoError(t, err)
	assert.Equal(t, "/srv/data", s.Sources.Dir)
}

func TestSettings_FlagOverride(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("service.port", "", "")
	require.NoError(t, flags.Parse([]string{"--service.port=7070"}))

	cfg, err := New(WithDefaults(Defaults()), WithPFlags(flags))
	require.NoError(t, err)
	assert.Equal(t, "7070", cfg.GetString("service.port"))
}

func TestSettings_RejectsHTTPWithoutBaseURL(t *testing.T) {
	cfg, err := New(WithDefaults(Defaults()))
	require.NoError(t, err)
	cfg.Set("sources.kind", "http")

	_, err = cfg.Settings()
	require.Error(t, err)
}

func TestMaskedSettings(t *testing.T) {
	cfg, err := New(WithDefaults(Defaults()), WithSensitiveKeys(SensitiveKeys()...))
	require.NoError(t, err)
	cfg.Set("cache.redis_password", "hunter2")

	masked := cfg.MaskedSettings()
	assert.Equal(t, "***REDACTED***", masked["cache.redis_password"])
	assert.Equal(t, "file", masked["sources.kind"])
}

func TestSettings_RejectsFileWithoutDir(t *testing.T) {
	cfg, err := New(WithDefaults(Defaults()))
	require.NoError(t, err)
	cfg.Set("sources.dir", "")

	_, err = cfg.Settings()
	require.ErrorContains(t, err, "sources.dir")
}

func TestValidateRequired(t *testing.T) {
	cfg, err := New(WithDefaults(map[string]any{"a": "x", "b": ""}))
	require.NoError(t, err)
	assert.NoError(t, cfg.ValidateRequired("a"))
	assert.EqualError(t, cfg.ValidateRequired("a", "b", "c"), "missing required keys: b, c")
}

func TestConfigNamePaths(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "permcatalog.yaml"), []byte("sources:\n  dir: /srv/perms\n"), 0o600))

	cfg, err := New(WithDefaults(Defaults()), WithConfigNamePaths("permcatalog", dir))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "permcatalog.yaml"), cfg.ConfigFileUsed())

	s, err := cfg.Settings()
	require.NoError(t, err)
	assert.Equal(t, "/srv/perms", s.Sources.Dir)
}

func TestConfigNamePaths_MissingFileIsFine(t *testing.T) {
	cfg, err := New(WithDefaults(Defaults()), WithConfigNamePaths("permcatalog", t.TempDir()))
	require.NoError(t, err)
	assert.Empty(t, cfg.ConfigFileUsed())
}

func TestWatch(t *testing.T) {
	cfg, err := New(WithDefaults(Defaults()))
	require.NoError(t, err)
	assert.False(t, cfg.Watch(func() {}))

	dir := t.TempDir()
	path := filepath.Join(dir, "permcatalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: info\n"), 0o600))
	cfg, err = New(WithDefaults(Defaults()), WithFile(path))
	require.NoError(t, err)

	changed := make(chan struct{}, 1)
	require.True(t, cfg.Watch(func() {
		select {
		case changed <- struct{}{}:
		default:
		}
	}))
	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: debug\n"), 0o600))

	select {
	case <-changed:
	case <-time.After(5 * time.Second):
		t.Fatal("config change not observed")
	}
	assert.Equal(t, "debug", cfg.GetString("log.level"))
}

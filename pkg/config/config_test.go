package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/cluso-anatomy/pkg/anatomyspec"
	"github.com/dd0wney/cluso-anatomy/pkg/anatomyspec/sources"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "anatomy.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func noEnv(string) string { return "" }

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, sources.DriverDir, cfg.Source.Driver)
	assert.Equal(t, DefaultMaxEntries, cfg.Cache.MaxEntries)
	assert.Zero(t, cfg.Cache.ErrorTTL, "failed builds are retried unless configured")
	assert.Equal(t, DefaultMaxHops, cfg.GraphQL.MaxHops)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
listen: ":9090"
log_level: debug
source:
  driver: s3
  s3:
    bucket: anatomy-templates
    prefix: v1
    path_style: true
cache:
  max_entries: 8
  max_age: 30m
  error_ttl: 2s
warm:
  - human/circulation
  - "*"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Listen)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, sources.DriverS3, cfg.Source.Driver)
	assert.Equal(t, "anatomy-templates", cfg.Source.S3.Bucket)
	assert.Equal(t, "us-east-1", cfg.Source.S3.Region, "unset fields keep defaults")
	assert.True(t, cfg.Source.S3.PathStyle)
	assert.Equal(t, 8, cfg.Cache.MaxEntries)
	assert.Equal(t, 30*time.Minute, cfg.Cache.MaxAge)
	assert.Equal(t, 2*time.Second, cfg.Cache.ErrorTTL)
	assert.Equal(t, DefaultWarmWorkers, cfg.Cache.WarmWorkers)

	keys, all, err := cfg.WarmKeys()
	require.NoError(t, err)
	assert.True(t, all)
	assert.Equal(t, []anatomyspec.Key{{Template: "human", Network: "circulation"}}, keys)
}

func TestLoadEmptyPathUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultListen, cfg.Listen)
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	_, err := Load(writeConfig(t, "listne: \":9090\"\n"))
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadAppliesEnvironment(t *testing.T) {
	t.Setenv("ANATOMY_SOURCE_DRIVER", "postgres")
	t.Setenv("ANATOMY_POSTGRES_URL", "postgres://anatomy@localhost/anatomy")
	t.Setenv("ANATOMY_CACHE_MAX_ENTRIES", "4")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, sources.DriverPostgres, cfg.Source.Driver)
	assert.Equal(t, "postgres://anatomy@localhost/anatomy", cfg.Source.PostgresURL)
	assert.Equal(t, 4, cfg.Cache.MaxEntries)
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"ANATOMY_LISTEN":          ":7000",
		"ANATOMY_S3_PATH_STYLE":   "TRUE",
		"ANATOMY_CACHE_MAX_AGE":   "1h",
		"ANATOMY_CACHE_ERROR_TTL": "30s",
		"ANATOMY_WARM":            "human/nervous, mouse/nervous,",
		"ANATOMY_TLS_ENABLED":     "true",
		"ANATOMY_TLS_CERT_FILE":   "/etc/anatomy/tls.pem",
	}
	cfg := DefaultConfig()
	require.NoError(t, cfg.ApplyEnv(func(k string) string { return env[k] }))

	assert.Equal(t, ":7000", cfg.Listen)
	assert.True(t, cfg.Source.S3.PathStyle)
	assert.Equal(t, time.Hour, cfg.Cache.MaxAge)
	assert.Equal(t, 30*time.Second, cfg.Cache.ErrorTTL)
	assert.Equal(t, []string{"human/nervous", "mouse/nervous"}, cfg.Warm)
	assert.True(t, cfg.TLS.Enabled)
	assert.Equal(t, "/etc/anatomy/tls.pem", cfg.TLS.CertFile)
}

func TestApplyEnvErrors(t *testing.T) {
	env := map[string]string{
		"ANATOMY_CACHE_MAX_ENTRIES": "many",
		"ANATOMY_CACHE_MAX_AGE":     "forever",
	}
	cfg := DefaultConfig()
	err := cfg.ApplyEnv(func(k string) string { return env[k] })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ANATOMY_CACHE_MAX_ENTRIES")
	assert.Contains(t, err.Error(), "ANATOMY_CACHE_MAX_AGE")
	assert.Equal(t, DefaultMaxEntries, cfg.Cache.MaxEntries, "bad values leave the field alone")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"empty listen", func(c *Config) { c.Listen = "" }, "config.listen"},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }, "config.log_level"},
		{"unknown driver", func(c *Config) { c.Source.Driver = "ftp" }, "config.source.driver"},
		{"dir without path", func(c *Config) { c.Source.Dir = "" }, "config.source.dir"},
		{"s3 without bucket", func(c *Config) { c.Source.Driver = sources.DriverS3 }, "config.source.s3.bucket"},
		{"postgres without url", func(c *Config) { c.Source.Driver = sources.DriverPostgres }, "config.source.postgres_url"},
		{"zero entries", func(c *Config) { c.Cache.MaxEntries = 0 }, "config.cache.max_entries"},
		{"negative age", func(c *Config) { c.Cache.MaxAge = -time.Second }, "config.cache.max_age"},
		{"too many workers", func(c *Config) { c.Cache.WarmWorkers = 1000 }, "config.cache.warm_workers"},
		{"zero depth", func(c *Config) { c.GraphQL.MaxDepth = 0 }, "config.graphql.max_depth"},
		{"zero timeout", func(c *Config) { c.GraphQL.Timeout = 0 }, "config.graphql.timeout"},
		{"zero max hops", func(c *Config) { c.GraphQL.MaxHops = 0 }, "config.graphql.max_hops"},
		{"zero body limit", func(c *Config) { c.GraphQL.MaxBodyBytes = 0 }, "config.graphql.max_body_bytes"},
		{"bad warm key", func(c *Config) { c.Warm = []string{"human"} }, "config.warm"},
		{"tls without cert", func(c *Config) { c.TLS.Enabled = true; c.TLS.AutoGenerate = false }, "config.tls.cert_file"},
		{"tls 1.0", func(c *Config) { c.TLS.MinVersion = "1.0" }, "config.tls.min_version"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateCollectsAllErrors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Listen = ""
	cfg.Cache.MaxEntries = -1

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config.listen")
	assert.Contains(t, err.Error(), "config.cache.max_entries")
}

func TestNoEnvLeavesDefaults(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.ApplyEnv(noEnv))
	assert.Equal(t, DefaultConfig(), cfg)
}

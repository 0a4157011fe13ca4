// Package config loads the anatomy service configuration from a YAML file
// with ANATOMY_* environment overrides.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dd0wney/cluso-anatomy/pkg/anatomyspec"
	"github.com/dd0wney/cluso-anatomy/pkg/anatomyspec/sources"
	"github.com/dd0wney/cluso-anatomy/pkg/logging"
	anatomytls "github.com/dd0wney/cluso-anatomy/pkg/tls"
	"github.com/dd0wney/cluso-anatomy/pkg/validation"
)

// WarmAll in Warm means every key the source lists.
const WarmAll = "*"

// Config is the service configuration.
type Config struct {
	// Listen is the HTTP listen address.
	Listen string `yaml:"listen"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`

	Source  sources.Config    `yaml:"source"`
	Cache   CacheConfig       `yaml:"cache"`
	GraphQL GraphQLConfig     `yaml:"graphql"`
	TLS     anatomytls.Config `yaml:"tls"`

	// Warm lists "<template>/<network>" keys to build at startup, or "*".
	Warm []string `yaml:"warm"`
}

// CacheConfig configures the template cache.
type CacheConfig struct {
	MaxEntries  int           `yaml:"max_entries"`
	MaxAge      time.Duration `yaml:"max_age"`
	ErrorTTL    time.Duration `yaml:"error_ttl"`
	WarmWorkers int           `yaml:"warm_workers"`
}

// GraphQLConfig bounds query execution.
type GraphQLConfig struct {
	MaxDepth     int           `yaml:"max_depth"`
	MaxHops      int           `yaml:"max_hops"`
	MaxBodyBytes int64         `yaml:"max_body_bytes"`
	Timeout      time.Duration `yaml:"timeout"`
}

// Default configuration values
const (
	DefaultListen      = ":8080"
	DefaultMaxEntries  = 32
	DefaultErrorTTL    = time.Duration(0)
	DefaultWarmWorkers = 4
	DefaultMaxDepth    = 8
	DefaultMaxHops     = 16
	DefaultTimeout     = 10 * time.Second

	DefaultMaxBodyBytes int64 = 1 << 20
)

// DefaultConfig returns a configuration that serves ./templates from disk.
func DefaultConfig() *Config {
	return &Config{
		Listen:   DefaultListen,
		LogLevel: "info",
		Source: sources.Config{
			Driver: sources.DriverDir,
			Dir:    "templates",
			S3:     sources.S3Config{Region: "us-east-1"},
		},
		Cache: CacheConfig{
			MaxEntries:  DefaultMaxEntries,
			ErrorTTL:    DefaultErrorTTL,
			WarmWorkers: DefaultWarmWorkers,
		},
		GraphQL: GraphQLConfig{
			MaxDepth:     DefaultMaxDepth,
			MaxHops:      DefaultMaxHops,
			MaxBodyBytes: DefaultMaxBodyBytes,
			Timeout:      DefaultTimeout,
		},
		TLS: anatomytls.DefaultConfig(),
	}
}

// Load reads path over the defaults, applies environment overrides and
// validates the result. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := cfg.decode(data); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// decode rejects unknown keys so typos surface at startup.
func (c *Config) decode(data []byte) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// ApplyEnv overrides fields from ANATOMY_* variables read through getenv.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	setString := func(name string, dst *string) {
		if v := getenv(name); v != "" {
			*dst = v
		}
	}
	var errs []error
	setInt := func(name string, dst *int) {
		if v := getenv(name); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", name, err))
				return
			}
			*dst = n
		}
	}
	setDuration := func(name string, dst *time.Duration) {
		if v := getenv(name); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", name, err))
				return
			}
			*dst = d
		}
	}

	setString("ANATOMY_LISTEN", &c.Listen)
	setString("ANATOMY_LOG_LEVEL", &c.LogLevel)

	var driver string
	setString("ANATOMY_SOURCE_DRIVER", &driver)
	if driver != "" {
		c.Source.Driver = sources.Driver(driver)
	}
	setString("ANATOMY_SOURCE_DIR", &c.Source.Dir)
	setString("ANATOMY_S3_BUCKET", &c.Source.S3.Bucket)
	setString("ANATOMY_S3_PREFIX", &c.Source.S3.Prefix)
	setString("ANATOMY_S3_REGION", &c.Source.S3.Region)
	setString("ANATOMY_S3_ENDPOINT", &c.Source.S3.Endpoint)
	if v := getenv("ANATOMY_S3_PATH_STYLE"); v != "" {
		c.Source.S3.PathStyle = strings.EqualFold(v, "true")
	}
	setString("ANATOMY_POSTGRES_URL", &c.Source.PostgresURL)

	setInt("ANATOMY_CACHE_MAX_ENTRIES", &c.Cache.MaxEntries)
	setDuration("ANATOMY_CACHE_MAX_AGE", &c.Cache.MaxAge)
	setDuration("ANATOMY_CACHE_ERROR_TTL", &c.Cache.ErrorTTL)
	setInt("ANATOMY_CACHE_WARM_WORKERS", &c.Cache.WarmWorkers)

	if v := getenv("ANATOMY_TLS_ENABLED"); v != "" {
		c.TLS.Enabled = strings.EqualFold(v, "true")
	}
	setString("ANATOMY_TLS_CERT_FILE", &c.TLS.CertFile)
	setString("ANATOMY_TLS_KEY_FILE", &c.TLS.KeyFile)
	setString("ANATOMY_TLS_CA_FILE", &c.TLS.CAFile)

	if v := getenv("ANATOMY_WARM"); v != "" {
		c.Warm = nil
		for _, key := range strings.Split(v, ",") {
			if key = strings.TrimSpace(key); key != "" {
				c.Warm = append(c.Warm, key)
			}
		}
	}

	return errors.Join(errs...)
}

// Validate reports every invalid field at once.
func (c *Config) Validate() error {
	cv := validation.NewConfigValidator("config")

	cv.Required("listen", c.Listen).
		Custom("log_level", func() error {
			_, err := logging.ParseLevelStrict(c.LogLevel)
			return err
		}).
		OneOf("source.driver", string(c.Source.Driver), []string{
			string(sources.DriverDir), string(sources.DriverS3),
			string(sources.DriverPostgres), string(sources.DriverMemory),
		}).
		When(c.Source.Driver == sources.DriverDir, func(cv *validation.ConfigValidator) {
			cv.Required("source.dir", c.Source.Dir)
		}).
		When(c.Source.Driver == sources.DriverS3, func(cv *validation.ConfigValidator) {
			cv.Required("source.s3.bucket", c.Source.S3.Bucket)
		}).
		When(c.Source.Driver == sources.DriverPostgres, func(cv *validation.ConfigValidator) {
			cv.Required("source.postgres_url", c.Source.PostgresURL)
		}).
		Positive("cache.max_entries", c.Cache.MaxEntries).
		NonNegativeDuration("cache.max_age", c.Cache.MaxAge).
		NonNegativeDuration("cache.error_ttl", c.Cache.ErrorTTL).
		RangeInt("cache.warm_workers", c.Cache.WarmWorkers, 1, 256).
		Positive("graphql.max_depth", c.GraphQL.MaxDepth).
		RangeInt("graphql.max_hops", c.GraphQL.MaxHops, 1, 1024).
		Custom("graphql.max_body_bytes", func() error {
			if c.GraphQL.MaxBodyBytes <= 0 {
				return fmt.Errorf("size %d must be positive", c.GraphQL.MaxBodyBytes)
			}
			return nil
		}).
		Custom("graphql.timeout", func() error {
			if c.GraphQL.Timeout <= 0 {
				return fmt.Errorf("duration %v must be positive", c.GraphQL.Timeout)
			}
			return nil
		}).
		When(c.TLS.Enabled && !c.TLS.AutoGenerate, func(cv *validation.ConfigValidator) {
			cv.Required("tls.cert_file", c.TLS.CertFile).
				Required("tls.key_file", c.TLS.KeyFile)
		}).
		Custom("tls.min_version", func() error {
			_, err := anatomytls.ParseMinVersion(c.TLS.MinVersion)
			return err
		}).
		Custom("warm", func() error {
			_, _, err := c.WarmKeys()
			return err
		})

	return cv.Validate()
}

// WarmKeys parses Warm. all is true when Warm contains "*".
func (c *Config) WarmKeys() (keys []anatomyspec.Key, all bool, err error) {
	for _, s := range c.Warm {
		if s == WarmAll {
			all = true
			continue
		}
		key, err := anatomyspec.ParseKey(s)
		if err != nil {
			return nil, false, err
		}
		keys = append(keys, key)
	}
	return keys, all, nil
}

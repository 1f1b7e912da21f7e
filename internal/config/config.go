// Package config loads the dbfordevs server configuration from a YAML file,
// applying defaults for anything not set and environment overrides for
// secrets so credentials never have to live on disk.
package config

import (
	"fmt"
	"os"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/danielss-dev/dbfordevs/internal/errs"
)

// Duration wraps time.Duration so YAML can carry human-readable values
// like "30s" or "5m".
type Duration time.Duration

// UnmarshalYAML parses a Go duration string.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config is the full server configuration.
type Config struct {
	Server ServerConfig `yaml:"server"`
	Log    LogConfig    `yaml:"log"`
	Pool   PoolConfig   `yaml:"pool"`
	Export ExportConfig `yaml:"export"`
}

// ServerConfig tunes the HTTP listener.
type ServerConfig struct {
	Addr            string   `yaml:"addr"`
	ReadTimeout     Duration `yaml:"read_timeout"`
	WriteTimeout    Duration `yaml:"write_timeout"`
	ShutdownTimeout Duration `yaml:"shutdown_timeout"`
}

// LogConfig tunes logging output.
type LogConfig struct {
	Level  string `yaml:"level"`  // trace, debug, info, warn, error
	Format string `yaml:"format"` // console or json
}

// PoolConfig tunes the connection pools opened for registered databases.
type PoolConfig struct {
	MaxConns        int32    `yaml:"max_conns"`
	MinConns        int32    `yaml:"min_conns"`
	MaxConnLifetime Duration `yaml:"max_conn_lifetime"`
	MaxConnIdleTime Duration `yaml:"max_conn_idle_time"`
	ConnectTimeout  Duration `yaml:"connect_timeout"`
}

// ExportConfig configures the optional object-store sink for query results.
// When Enabled is false the export endpoints are not mounted.
type ExportConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	UseSSL    bool   `yaml:"use_ssl"`
	Region    string `yaml:"region"`
	Bucket    string `yaml:"bucket"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     Duration(30 * time.Second),
			WriteTimeout:    Duration(30 * time.Second),
			ShutdownTimeout: Duration(10 * time.Second),
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Pool: PoolConfig{
			MaxConns:        10,
			MinConns:        2,
			MaxConnLifetime: Duration(30 * time.Minute),
			MaxConnIdleTime: Duration(5 * time.Minute),
			ConnectTimeout:  Duration(10 * time.Second),
		},
	}
}

// Load reads path, overlays it on the defaults, and applies environment
// overrides. An empty path returns defaults plus environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, errs.Wrapf(errs.KindInvalidConfig, err, "failed to read config file %q", path)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, errs.Wrapf(errs.KindInvalidConfig, err, "failed to parse config file %q", path)
		}
	}

	cfg.applyEnv()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides secrets and the listen address from the environment so
// credentials can be injected at deploy time.
func (c *Config) applyEnv() {
	if v := os.Getenv("DBFORDEVS_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("DBFORDEVS_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("DBFORDEVS_EXPORT_ACCESS_KEY"); v != "" {
		c.Export.AccessKey = v
	}
	if v := os.Getenv("DBFORDEVS_EXPORT_SECRET_KEY"); v != "" {
		c.Export.SecretKey = v
	}
}

func (c *Config) validate() error {
	if c.Server.Addr == "" {
		return errs.New(errs.KindInvalidConfig, "server.addr must not be empty")
	}
	if c.Pool.MaxConns < 1 {
		return errs.New(errs.KindInvalidConfig, "pool.max_conns must be at least 1")
	}
	if c.Pool.MinConns < 0 || c.Pool.MinConns > c.Pool.MaxConns {
		return errs.New(errs.KindInvalidConfig, "pool.min_conns must be between 0 and pool.max_conns")
	}
	if c.Export.Enabled {
		if c.Export.Endpoint == "" {
			return errs.New(errs.KindInvalidConfig, "export.endpoint is required when export is enabled")
		}
		if c.Export.Bucket == "" {
			return errs.New(errs.KindInvalidConfig, "export.bucket is required when export is enabled")
		}
	}
	return nil
}

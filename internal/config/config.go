package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Store drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
)

// Config is the whole application configuration.
type Config struct {
	Server struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		IdleTimeout     time.Duration `yaml:"idle_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`

	Store struct {
		Driver      string `yaml:"driver"`
		DatabaseURL string `yaml:"database_url"`
		SQLitePath  string `yaml:"sqlite_path"`
	} `yaml:"store"`

	Postgres struct {
		MaxConns int32 `yaml:"max_conns"`
		MinConns int32 `yaml:"min_conns"`
	} `yaml:"postgres"`

	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`

	Shortener struct {
		CodeLength      int  `yaml:"code_length"`
		MaxAttempts     int  `yaml:"max_attempts"`
		RetryOnConflict bool `yaml:"retry_on_conflict"`
	} `yaml:"shortener"`

	CORS struct {
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"cors"`

	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
}

// Default returns the built-in configuration: SQLite at ./urls.db on port 8000.
func Default() *Config {
	c := &Config{}
	c.Server.Port = 8000
	c.Server.ReadTimeout = 5 * time.Second
	c.Server.WriteTimeout = 10 * time.Second
	c.Server.IdleTimeout = 120 * time.Second
	c.Server.ShutdownTimeout = 10 * time.Second
	c.Store.Driver = DriverSQLite
	c.Store.SQLitePath = "./urls.db"
	c.Shortener.CodeLength = 6
	c.CORS.AllowedOrigins = []string{"*"}
	c.Log.Level = "info"
	c.Log.Format = "text"
	return c
}

// Load builds the configuration from defaults, the optional YAML file at path
// and finally the environment. An empty path skips the file.
func Load(path string) (*Config, error) {
	c := Default()

	if path != "" {
		// #nosec G304 - path comes from the operator, not from requests
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, c); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	if err := c.applyEnv(); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) applyEnv() error {
	var errs []error

	setInt := func(key string, dst *int) {
		if v := os.Getenv(key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = n
		}
	}
	setInt32 := func(key string, dst *int32) {
		if v := os.Getenv(key); v != "" {
			n, err := strconv.ParseInt(v, 10, 32)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = int32(n)
		}
	}
	setString := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	setInt("PORT", &c.Server.Port)
	setString("STORE_DRIVER", &c.Store.Driver)
	setString("DATABASE_URL", &c.Store.DatabaseURL)
	setString("SQLITE_PATH", &c.Store.SQLitePath)
	setInt32("PG_MAX_CONNS", &c.Postgres.MaxConns)
	setInt32("PG_MIN_CONNS", &c.Postgres.MinConns)
	setString("REDIS_ADDR", &c.Redis.Addr)
	setString("REDIS_PASSWORD", &c.Redis.Password)
	setInt("REDIS_DB", &c.Redis.DB)
	setInt("SHORT_CODE_LENGTH", &c.Shortener.CodeLength)
	setInt("SHORTEN_MAX_ATTEMPTS", &c.Shortener.MaxAttempts)
	setString("LOG_LEVEL", &c.Log.Level)
	setString("LOG_FORMAT", &c.Log.Format)

	if v := os.Getenv("SHORTEN_RETRY_ON_CONFLICT"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("SHORTEN_RETRY_ON_CONFLICT: %w", err))
		} else {
			c.Shortener.RetryOnConflict = b
		}
	}
	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		c.CORS.AllowedOrigins = origins
	}

	return errors.Join(errs...)
}

// Validate checks the configuration is usable.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Server.Port)
	}

	switch c.Store.Driver {
	case DriverSQLite:
		if c.Store.SQLitePath == "" {
			return errors.New("sqlite store requires SQLITE_PATH")
		}
	case DriverPostgres:
		if c.Store.DatabaseURL == "" {
			return errors.New("postgres store requires DATABASE_URL")
		}
	case DriverRedis:
		if c.Redis.Addr == "" {
			return errors.New("redis store requires REDIS_ADDR")
		}
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}

	if c.Shortener.CodeLength < 4 || c.Shortener.CodeLength > 32 {
		return fmt.Errorf("short code length %d out of range 4..32", c.Shortener.CodeLength)
	}
	if c.Shortener.MaxAttempts < 0 {
		return fmt.Errorf("max attempts must not be negative, got %d", c.Shortener.MaxAttempts)
	}
	return nil
}

// Addr is the HTTP listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}

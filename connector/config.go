package connector

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Konsultn-Engineering/colmap/cache"
	"github.com/Konsultn-Engineering/colmap/logging"
	"github.com/Konsultn-Engineering/colmap/mapper"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("connector: invalid config")

// Config represents database connection configuration.
type Config struct {
	Driver         string            `json:"driver" yaml:"driver"`
	Host           string            `json:"host" yaml:"host"`
	Port           int               `json:"port" yaml:"port"`
	Database       string            `json:"database" yaml:"database"`
	Username       string            `json:"username" yaml:"username"`
	Password       string            `json:"password" yaml:"password"`
	SSLMode        string            `json:"ssl_mode" yaml:"ssl_mode"`
	Params         map[string]string `json:"params" yaml:"params"`
	Pool           PoolConfig        `json:"pool" yaml:"pool"`
	ConnectTimeout time.Duration     `json:"connect_timeout" yaml:"connect_timeout"`
	QueryTimeout   time.Duration     `json:"query_timeout" yaml:"query_timeout"`
	Retry          *RetryConfig      `json:"retry,omitempty" yaml:"retry,omitempty"`
	Mapper         MapperConfig      `json:"mapper" yaml:"mapper"`
	Log            LogConfig         `json:"log" yaml:"log"`
}

// PoolConfig defines connection pool settings.
type PoolConfig struct {
	MaxOpen     int           `json:"max_open" yaml:"max_open"`
	MaxIdle     int           `json:"max_idle" yaml:"max_idle"`
	MaxLifetime time.Duration `json:"max_lifetime" yaml:"max_lifetime"`
	MaxIdleTime time.Duration `json:"max_idle_time" yaml:"max_idle_time"`
}

// RetryConfig defines connection retry behavior.
type RetryConfig struct {
	MaxRetries int           `json:"max_retries" yaml:"max_retries"`
	BaseDelay  time.Duration `json:"base_delay" yaml:"base_delay"`
	MaxDelay   time.Duration `json:"max_delay" yaml:"max_delay"`
	Backoff    float64       `json:"backoff" yaml:"backoff"`
}

// MapperConfig tunes resolver construction and caching.
type MapperConfig struct {
	MaskTableLimit int `json:"mask_table_limit" yaml:"mask_table_limit"`
	MaxSlotLoad    int `json:"max_slot_load" yaml:"max_slot_load"`
	CacheSize      int `json:"cache_size" yaml:"cache_size"`
}

// Options converts the tuning into mapper options. Zero fields keep the
// mapper defaults.
func (m MapperConfig) Options() []mapper.Option {
	var opts []mapper.Option
	if m.MaskTableLimit > 0 {
		opts = append(opts, mapper.WithMaskTableLimit(m.MaskTableLimit))
	}
	if m.MaxSlotLoad > 0 {
		opts = append(opts, mapper.WithMaxSlotLoad(m.MaxSlotLoad))
	}
	return opts
}

// LogConfig selects the logger.
type LogConfig struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"` // text or json
}

// Logger builds the configured logger.
func (l LogConfig) Logger() *logging.Logger {
	level := logging.ParseLevel(l.Level)
	if l.Format == "json" {
		return logging.NewJSONLogger(level)
	}
	return logging.NewTextLogger(level)
}

// LoadConfig reads a YAML config file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig decodes YAML, applies defaults and validates the result.
func ParseConfig(data []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// WithDefaults fills unset fields.
func (c Config) WithDefaults() Config {
	if c.Driver == "" {
		c.Driver = DriverPostgres
	}
	if c.Host == "" {
		c.Host = "localhost"
	}
	if c.Port == 0 {
		c.Port = 5432
	}
	if c.Pool.MaxOpen <= 0 {
		c.Pool.MaxOpen = 10
	}
	if c.Pool.MaxLifetime == 0 {
		c.Pool.MaxLifetime = time.Hour
	}
	if c.Pool.MaxIdleTime == 0 {
		c.Pool.MaxIdleTime = 30 * time.Minute
	}
	if c.Mapper.CacheSize <= 0 {
		c.Mapper.CacheSize = cache.DefaultMapperCacheSize
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	return c
}

// Validate checks the config.
func (c Config) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("%w: host is required", ErrInvalidConfig)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("%w: invalid port: %d", ErrInvalidConfig, c.Port)
	}
	if c.Pool.MaxIdle < 0 || c.Pool.MaxIdle > c.Pool.MaxOpen {
		return fmt.Errorf("%w: max_idle %d outside [0, max_open]", ErrInvalidConfig, c.Pool.MaxIdle)
	}
	if c.Retry != nil {
		if c.Retry.MaxRetries < 1 {
			return fmt.Errorf("%w: retry.max_retries must be positive", ErrInvalidConfig)
		}
		if c.Retry.Backoff != 0 && c.Retry.Backoff < 1 {
			return fmt.Errorf("%w: retry.backoff must be at least 1", ErrInvalidConfig)
		}
	}
	if c.Mapper.MaskTableLimit < 0 || c.Mapper.MaxSlotLoad < 0 {
		return fmt.Errorf("%w: mapper thresholds must not be negative", ErrInvalidConfig)
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("%w: unknown log format %q", ErrInvalidConfig, c.Log.Format)
	}
	return nil
}

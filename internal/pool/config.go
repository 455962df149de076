package pool

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that unmarshals from YAML strings such as
// "250ms" or "5s".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("tinyodbc: parse duration %q: %w", s, err)
	}
	*d = Duration(v)
	return nil
}

// Config describes a connection pool.
type Config struct {
	// DSN is handed verbatim to the driver on connect.
	DSN string `yaml:"dsn"`

	// MaxOpen caps concurrently open connections. Zero means DefaultMaxOpen.
	MaxOpen int `yaml:"max_open"`

	// BusyTimeout bounds how long Get waits for a free slot when the pool is
	// at capacity. Zero means DefaultBusyTimeout.
	BusyTimeout Duration `yaml:"busy_timeout"`

	// ValidateQuery, when set, is executed against an idle connection before
	// it is handed out. A failing probe discards the connection.
	ValidateQuery string `yaml:"validate_query"`

	// IdleSweep is a cron expression scheduling the idle-connection sweep.
	// Empty disables the sweeper.
	IdleSweep string `yaml:"idle_sweep"`

	// MaxIdleTime is how long an idle connection may sit unused before the
	// sweep discards it. Zero means DefaultMaxIdleTime.
	MaxIdleTime Duration `yaml:"max_idle_time"`
}

const (
	DefaultMaxOpen     = 8
	DefaultBusyTimeout = 5 * time.Second
	DefaultMaxIdleTime = 5 * time.Minute
)

// LoadConfig reads a pool configuration from a YAML file and fills in
// defaults.
func LoadConfig(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("tinyodbc: read pool config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("tinyodbc: parse pool config: %w", err)
	}
	cfg.fillDefaults()
	return cfg, nil
}

func (c *Config) fillDefaults() {
	if c.MaxOpen <= 0 {
		c.MaxOpen = DefaultMaxOpen
	}
	if c.BusyTimeout <= 0 {
		c.BusyTimeout = Duration(DefaultBusyTimeout)
	}
	if c.MaxIdleTime <= 0 {
		c.MaxIdleTime = Duration(DefaultMaxIdleTime)
	}
}

// Package config loads the huntbot process configuration: where the host
// lives and where local state is kept. Hunt behaviour is configured through
// the settings store instead.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	EnvPrefix = "SHINYHUNT"
	FileName  = "huntbot"
)

type Config struct {
	Host      HostConfig      `mapstructure:"host"`
	DataDir   string          `mapstructure:"data_dir"`
	Catalog   string          `mapstructure:"catalog"`
	Settings  SettingsConfig  `mapstructure:"settings"`
	Hunt      HuntConfig      `mapstructure:"hunt"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

type HostConfig struct {
	URL              string        `mapstructure:"url"`
	ClientName       string        `mapstructure:"client_name"`
	HandshakeTimeout time.Duration `mapstructure:"handshake_timeout"`
	ReconnectDelay   time.Duration `mapstructure:"reconnect_delay"`
	ReadTimeout      time.Duration `mapstructure:"read_timeout"`
}

type SettingsConfig struct {
	// DB is the sqlite file; empty means <data_dir>/settings.db.
	DB   string `mapstructure:"db"`
	Seed string `mapstructure:"seed"`
}

type HuntConfig struct {
	Tick         time.Duration `mapstructure:"tick"`
	Dwell        time.Duration `mapstructure:"dwell"`
	AdvanceEvery time.Duration `mapstructure:"advance_every"`
}

type TelemetryConfig struct {
	// Dir receives the zstd JSONL files; empty means <data_dir>/telemetry.
	Dir    string `mapstructure:"dir"`
	Prefix string `mapstructure:"prefix"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("host.url", "ws://127.0.0.1:8765/hunt")
	v.SetDefault("host.client_name", "huntbot")
	v.SetDefault("host.handshake_timeout", 5*time.Second)
	v.SetDefault("host.reconnect_delay", 2*time.Second)
	v.SetDefault("host.read_timeout", 60*time.Second)
	v.SetDefault("data_dir", "data")
	v.SetDefault("catalog", filepath.Join("configs", "catalog.yaml"))
	v.SetDefault("settings.db", "")
	v.SetDefault("settings.seed", "")
	v.SetDefault("hunt.tick", 500*time.Millisecond)
	v.SetDefault("hunt.dwell", 3*time.Second)
	v.SetDefault("hunt.advance_every", 2*time.Second)
	v.SetDefault("telemetry.dir", "")
	v.SetDefault("telemetry.prefix", "hunt")
}

// Load layers defaults, an optional huntbot.yaml and SHINYHUNT_* environment
// variables (SHINYHUNT_HOST_URL overrides host.url). An explicit path must
// exist; without one, huntbot.yaml is looked up in the working directory and
// in configs/.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigType("yaml")
	if strings.TrimSpace(path) != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(FileName)
		v.AddConfigPath(".")
		v.AddConfigPath("configs")
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	c.Normalize()
	if err := c.Validate(); err != nil {
		return c, fmt.Errorf("config: %w", err)
	}
	return c, nil
}

// Normalize fills paths derived from the data directory.
func (c *Config) Normalize() {
	c.Host.URL = strings.TrimSpace(c.Host.URL)
	if c.DataDir == "" {
		c.DataDir = "."
	}
	if c.Settings.DB == "" {
		c.Settings.DB = filepath.Join(c.DataDir, "settings.db")
	}
	if c.Telemetry.Dir == "" {
		c.Telemetry.Dir = filepath.Join(c.DataDir, "telemetry")
	}
	if c.Telemetry.Prefix == "" {
		c.Telemetry.Prefix = "hunt"
	}
}

func (c Config) Validate() error {
	var errs []error
	if u, err := url.Parse(c.Host.URL); err != nil || (u.Scheme != "ws" && u.Scheme != "wss") || u.Host == "" {
		errs = append(errs, fmt.Errorf("host.url: want ws:// or wss:// url, got %q", c.Host.URL))
	}
	if c.Catalog == "" {
		errs = append(errs, errors.New("catalog: path required"))
	}
	if c.Hunt.Tick <= 0 {
		errs = append(errs, fmt.Errorf("hunt.tick: must be positive, got %s", c.Hunt.Tick))
	}
	if c.Hunt.Dwell < 0 || c.Hunt.AdvanceEvery < 0 {
		errs = append(errs, errors.New("hunt.dwell and hunt.advance_every must not be negative"))
	}
	return errors.Join(errs...)
}

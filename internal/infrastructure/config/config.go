// Package config loads the bridge configuration from YAML with environment overrides.
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

// Storage drivers.
const (
	StorageJSON   = "json"
	StorageSQLite = "sqlite"
)

// Config is the root configuration structure.
type Config struct {
	Bridge     BridgeConfig     `yaml:"bridge"`
	Storage    StorageConfig    `yaml:"storage"`
	Floodlight FloodlightConfig `yaml:"floodlight"`
	MQTT       MQTTConfig       `yaml:"mqtt"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// BridgeConfig controls the emulated Hue bridge.
type BridgeConfig struct {
	LocalIP  string `yaml:"local_ip"`
	HTTPPort int    `yaml:"http_port"`
	SSDP     bool   `yaml:"ssdp"`
}

// StorageConfig selects the settings repository.
type StorageConfig struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
	// BusyTimeout is the SQLite lock wait in seconds.
	BusyTimeout int `yaml:"busy_timeout"`
}

// FloodlightConfig tunes the device adapter.
type FloodlightConfig struct {
	RequestTimeout time.Duration `yaml:"request_timeout"`
	PollInterval   time.Duration `yaml:"poll_interval"`
	ReapplyDelay   time.Duration `yaml:"reapply_delay"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Host        string `yaml:"host"`
	Port        int    `yaml:"port"`
	ClientID    string `yaml:"client_id"`
	Username    string `yaml:"username"`
	Password    string `yaml:"password"`
	QoS         int    `yaml:"qos"`
	TopicPrefix string `yaml:"topic_prefix"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

var ErrInvalidConfig = errors.New("invalid configuration")

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Bridge: BridgeConfig{
			HTTPPort: 80,
			SSDP:     true,
		},
		Storage: StorageConfig{
			Driver:      StorageJSON,
			Path:        "/app/floodlights.json",
			BusyTimeout: 5,
		},
		Floodlight: FloodlightConfig{
			RequestTimeout: 10 * time.Second,
			PollInterval:   2 * time.Second,
			ReapplyDelay:   2 * time.Second,
		},
		MQTT: MQTTConfig{
			Port:        1883,
			ClientID:    "floodlight-bridge",
			QoS:         1,
			TopicPrefix: "floodlight",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// Load reads path (a missing file is not an error), applies environment
// overrides and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config file: %w", err)
			}
		case !os.IsNotExist(err):
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("LOCAL_IP"); v != "" {
		c.Bridge.LocalIP = v
	}
	if v := os.Getenv("FLOODLIGHT_HTTP_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Bridge.HTTPPort = port
		}
	}
	if v := os.Getenv("FLOODLIGHT_STORAGE_DRIVER"); v != "" {
		c.Storage.Driver = v
	}
	if v := os.Getenv("FLOODLIGHT_STORAGE_PATH"); v != "" {
		c.Storage.Path = v
	}
	if v := os.Getenv("FLOODLIGHT_MQTT_HOST"); v != "" {
		c.MQTT.Host = v
		c.MQTT.Enabled = true
	}
	if v := os.Getenv("FLOODLIGHT_MQTT_USERNAME"); v != "" {
		c.MQTT.Username = v
	}
	if v := os.Getenv("FLOODLIGHT_MQTT_PASSWORD"); v != "" {
		c.MQTT.Password = v
	}
	if v := os.Getenv("FLOODLIGHT_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// Validate checks the configuration for values the bridge cannot run with.
func (c *Config) Validate() error {
	var errs []string

	if c.Bridge.HTTPPort < 1 || c.Bridge.HTTPPort > 65535 {
		errs = append(errs, "bridge.http_port must be between 1 and 65535")
	}
	switch strings.ToLower(c.Storage.Driver) {
	case StorageJSON, StorageSQLite:
	default:
		errs = append(errs, fmt.Sprintf("storage.driver %q is not one of json, sqlite", c.Storage.Driver))
	}
	if c.Storage.Path == "" {
		errs = append(errs, "storage.path is required")
	}
	if c.Floodlight.RequestTimeout <= 0 {
		errs = append(errs, "floodlight.request_timeout must be positive")
	}
	if c.Floodlight.PollInterval <= 0 {
		errs = append(errs, "floodlight.poll_interval must be positive")
	}
	if c.Floodlight.ReapplyDelay < 0 {
		errs = append(errs, "floodlight.reapply_delay must not be negative")
	}
	if c.MQTT.Enabled {
		if c.MQTT.Host == "" {
			errs = append(errs, "mqtt.host is required when mqtt is enabled")
		}
		if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
			errs = append(errs, "mqtt.qos must be 0, 1 or 2")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(errs, "; "))
	}
	return nil
}

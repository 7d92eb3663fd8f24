package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"device_console/internal/models"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config is the console's effective configuration.
type Config struct {
	Port      string          `mapstructure:"port" yaml:"port"`
	LogLevel  string          `mapstructure:"log_level" yaml:"log_level"`
	LogFormat string          `mapstructure:"log_format" yaml:"log_format"`
	DB        DBConfig        `mapstructure:"db" yaml:"db"`
	Device    DeviceConfig    `mapstructure:"device" yaml:"device"`
	Poll      PollConfig      `mapstructure:"poll" yaml:"poll"`
	Reboot    RebootConfig    `mapstructure:"reboot" yaml:"reboot"`
	Indicator models.Bands    `mapstructure:"indicator" yaml:"indicator"`
	Auth      AuthConfig      `mapstructure:"auth" yaml:"auth"`
	MQTT      MQTTConfig      `mapstructure:"mqtt" yaml:"mqtt"`
	Simulator SimulatorConfig `mapstructure:"simulator" yaml:"simulator"`
}

type DBConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
	// MaxReadings is how many telemetry rows are kept; negative keeps all.
	MaxReadings int `mapstructure:"max_readings" yaml:"max_readings"`
}

// DeviceConfig points at the device's embedded web server.
type DeviceConfig struct {
	BaseURL        string        `mapstructure:"base_url" yaml:"base_url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"`
	UploadTimeout  time.Duration `mapstructure:"upload_timeout" yaml:"upload_timeout"`
}

type PollConfig struct {
	TelemetryInterval  time.Duration `mapstructure:"telemetry_interval" yaml:"telemetry_interval"`
	WiFiStatusInterval time.Duration `mapstructure:"wifi_status_interval" yaml:"wifi_status_interval"`
}

type RebootConfig struct {
	CountdownSeconds int           `mapstructure:"countdown_seconds" yaml:"countdown_seconds"`
	Tick             time.Duration `mapstructure:"tick" yaml:"tick"`
}

type AuthConfig struct {
	SigningKey string        `mapstructure:"signing_key" yaml:"-"`
	TokenTTL   time.Duration `mapstructure:"token_ttl" yaml:"token_ttl"`
}

// MQTTConfig controls mirroring of readings and events to a broker.
type MQTTConfig struct {
	Enabled     bool   `mapstructure:"enabled" yaml:"enabled"`
	Broker      string `mapstructure:"broker" yaml:"broker"`
	ClientID    string `mapstructure:"client_id" yaml:"client_id"`
	Username    string `mapstructure:"username" yaml:"username"`
	Password    string `mapstructure:"password" yaml:"-"`
	TopicPrefix string `mapstructure:"topic_prefix" yaml:"topic_prefix"`
	QoS         byte   `mapstructure:"qos" yaml:"qos"`
	Retained    bool   `mapstructure:"retained" yaml:"retained"`
}

type SimulatorConfig struct {
	Enabled      bool          `mapstructure:"enabled" yaml:"enabled"`
	Port         string        `mapstructure:"port" yaml:"port"`
	SSID         string        `mapstructure:"ssid" yaml:"ssid"`
	Password     string        `mapstructure:"password" yaml:"-"`
	ConnectAfter int           `mapstructure:"connect_after" yaml:"connect_after"`
	Tick         time.Duration `mapstructure:"tick" yaml:"tick"`
}

const envPrefix = "CONSOLE"

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8090")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")
	v.SetDefault("db.path", "console.db")
	v.SetDefault("db.max_readings", 100000)

	v.SetDefault("device.base_url", "http://192.168.4.1")
	v.SetDefault("device.request_timeout", 3*time.Second)
	v.SetDefault("device.upload_timeout", 2*time.Minute)

	v.SetDefault("poll.telemetry_interval", 500*time.Millisecond)
	v.SetDefault("poll.wifi_status_interval", 2800*time.Millisecond)

	v.SetDefault("reboot.countdown_seconds", 8)
	v.SetDefault("reboot.tick", time.Second)

	v.SetDefault("indicator.lower", models.DefaultBands.Lower)
	v.SetDefault("indicator.upper", models.DefaultBands.Upper)

	v.SetDefault("auth.signing_key", "")
	v.SetDefault("auth.token_ttl", time.Hour)

	v.SetDefault("mqtt.enabled", false)
	v.SetDefault("mqtt.broker", "tcp://127.0.0.1:1883")
	v.SetDefault("mqtt.client_id", "device-console")
	v.SetDefault("mqtt.topic_prefix", "device_console")
	v.SetDefault("mqtt.qos", 0)
	v.SetDefault("mqtt.retained", false)

	v.SetDefault("simulator.enabled", false)
	v.SetDefault("simulator.port", "8091")
	v.SetDefault("simulator.connect_after", 2)
	v.SetDefault("simulator.tick", time.Second)
}

// Load reads path (a config.yml) on top of the defaults. An empty path
// searches ./configs and the working directory; a missing file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath("configs")
		v.AddConfigPath(".")
		v.SetConfigName("config")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the session cannot run with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Device.BaseURL) == "" {
		return fmt.Errorf("device.base_url is required")
	}
	if c.Poll.TelemetryInterval <= 0 {
		return fmt.Errorf("poll.telemetry_interval must be > 0, got %s", c.Poll.TelemetryInterval)
	}
	if c.Poll.WiFiStatusInterval <= 0 {
		return fmt.Errorf("poll.wifi_status_interval must be > 0, got %s", c.Poll.WiFiStatusInterval)
	}
	if c.Reboot.Tick <= 0 {
		return fmt.Errorf("reboot.tick must be > 0, got %s", c.Reboot.Tick)
	}
	if c.Reboot.CountdownSeconds < 0 {
		return fmt.Errorf("reboot.countdown_seconds must be >= 0, got %d", c.Reboot.CountdownSeconds)
	}
	if c.Indicator.Lower > c.Indicator.Upper {
		return fmt.Errorf("indicator.lower (%d) must be <= indicator.upper (%d)", c.Indicator.Lower, c.Indicator.Upper)
	}
	switch c.LogFormat {
	case "", "console", "json":
	default:
		return fmt.Errorf("log_format must be console or json, got %q", c.LogFormat)
	}
	if c.MQTT.QoS > 2 {
		return fmt.Errorf("mqtt.qos must be 0, 1, or 2")
	}
	return nil
}

// YAML renders the effective configuration, secrets omitted.
func (c *Config) YAML() ([]byte, error) {
	return yaml.Marshal(c)
}

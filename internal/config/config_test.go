package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_DefaultsWhenNoFile(t *testing.T) {
	dir := t.TempDir()
	wd, _ := os.Getwd()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	defer func() { _ = os.Chdir(wd) }()

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Poll.TelemetryInterval != 500*time.Millisecond {
		t.Errorf("telemetry interval: got %v", cfg.Poll.TelemetryInterval)
	}
	if cfg.Poll.WiFiStatusInterval != 2800*time.Millisecond {
		t.Errorf("wifi status interval: got %v", cfg.Poll.WiFiStatusInterval)
	}
	if cfg.Reboot.CountdownSeconds != 8 || cfg.Reboot.Tick != time.Second {
		t.Errorf("reboot: got %+v", cfg.Reboot)
	}
	if cfg.Indicator.Lower != 0 || cfg.Indicator.Upper != 30 {
		t.Errorf("indicator: got %+v", cfg.Indicator)
	}
	if cfg.Port != "8090" {
		t.Errorf("port: got %q", cfg.Port)
	}
	if cfg.DB.MaxReadings != 100000 {
		t.Errorf("db.max_readings: got %d", cfg.DB.MaxReadings)
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
port: "9000"
device:
  base_url: http://10.0.0.7
  request_timeout: 1500ms
poll:
  wifi_status_interval: 1s
reboot:
  countdown_seconds: 3
mqtt:
  enabled: true
  qos: 1
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "9000" || cfg.Device.BaseURL != "http://10.0.0.7" {
		t.Errorf("unexpected: %+v", cfg)
	}
	if cfg.Device.RequestTimeout != 1500*time.Millisecond {
		t.Errorf("request timeout: got %v", cfg.Device.RequestTimeout)
	}
	if cfg.Poll.WiFiStatusInterval != time.Second {
		t.Errorf("wifi interval: got %v", cfg.Poll.WiFiStatusInterval)
	}
	if cfg.Poll.TelemetryInterval != 500*time.Millisecond {
		t.Errorf("telemetry interval should keep default, got %v", cfg.Poll.TelemetryInterval)
	}
	if cfg.Reboot.CountdownSeconds != 3 {
		t.Errorf("countdown: got %d", cfg.Reboot.CountdownSeconds)
	}
	if !cfg.MQTT.Enabled || cfg.MQTT.QoS != 1 {
		t.Errorf("mqtt: got %+v", cfg.MQTT)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	path := writeConfig(t, "port: \"9000\"\n")
	t.Setenv("CONSOLE_DEVICE_BASE_URL", "http://192.168.1.50")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Device.BaseURL != "http://192.168.1.50" {
		t.Fatalf("env override not applied: %q", cfg.Device.BaseURL)
	}
}

func TestLoad_MissingExplicitFileFails(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yml")); err == nil {
		t.Fatalf("expected error for missing explicit config file")
	}
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{
			Device: DeviceConfig{BaseURL: "http://x"},
			Poll:   PollConfig{TelemetryInterval: time.Second, WiFiStatusInterval: time.Second},
			Reboot: RebootConfig{CountdownSeconds: 8, Tick: time.Second},
		}
	}
	cases := []struct {
		name   string
		mutate func(c *Config)
		want   string
	}{
		{"ok", func(c *Config) {}, ""},
		{"empty base url", func(c *Config) { c.Device.BaseURL = " " }, "base_url"},
		{"zero telemetry interval", func(c *Config) { c.Poll.TelemetryInterval = 0 }, "telemetry_interval"},
		{"zero wifi interval", func(c *Config) { c.Poll.WiFiStatusInterval = 0 }, "wifi_status_interval"},
		{"zero reboot tick", func(c *Config) { c.Reboot.Tick = 0 }, "reboot.tick"},
		{"negative countdown", func(c *Config) { c.Reboot.CountdownSeconds = -1 }, "countdown_seconds"},
		{"inverted bands", func(c *Config) { c.Indicator.Lower = 40; c.Indicator.Upper = 30 }, "indicator"},
		{"bad qos", func(c *Config) { c.MQTT.QoS = 3 }, "qos"},
		{"json logs", func(c *Config) { c.LogFormat = "json" }, ""},
		{"bad log format", func(c *Config) { c.LogFormat = "xml" }, "log_format"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := base()
			tc.mutate(&c)
			err := c.Validate()
			if tc.want == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("want error containing %q, got %v", tc.want, err)
			}
		})
	}
}

func TestYAML_OmitsSecrets(t *testing.T) {
	c := Config{Auth: AuthConfig{SigningKey: "topsecret"}, MQTT: MQTTConfig{Password: "hunter2"}}
	out, err := c.YAML()
	if err != nil {
		t.Fatalf("YAML: %v", err)
	}
	s := string(out)
	if strings.Contains(s, "topsecret") || strings.Contains(s, "hunter2") {
		t.Fatalf("secrets leaked:\n%s", s)
	}
}

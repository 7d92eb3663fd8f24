package service

import (
	"time"

	"device_console/internal/models"
)

// LogFilter narrows the session event history.
type LogFilter struct {
	From time.Time // inclusive; zero means no lower bound
	To   time.Time // inclusive; zero means no upper bound
	Type string    // "", "WIFI_CONNECT", "RANGE_UPDATE", "OTA_UPLOAD", ...
}

// AuthOptions configure operator tokens.
type AuthOptions struct {
	SigningKey string
	TokenTTL   time.Duration
}

// SessionOptions tune the session's schedules and indicator.
type SessionOptions struct {
	TelemetryInterval  time.Duration
	WiFiStatusInterval time.Duration
	RebootCountdown    int
	RebootTick         time.Duration
	Bands              models.Bands
	// MaxReadings caps stored telemetry; older rows are pruned. Negative keeps everything.
	MaxReadings int
}

// Schedule defaults, matching the device page.
const (
	DefaultTelemetryInterval  = 500 * time.Millisecond
	DefaultWiFiStatusInterval = 2800 * time.Millisecond
	DefaultRebootCountdown    = 8
	DefaultRebootTick         = time.Second
	DefaultMaxReadings        = 100_000

	// readingsPruneEvery is how many stored readings pass between prunes.
	readingsPruneEvery = 100
)

func (o SessionOptions) withDefaults() SessionOptions {
	if o.TelemetryInterval <= 0 {
		o.TelemetryInterval = DefaultTelemetryInterval
	}
	if o.WiFiStatusInterval <= 0 {
		o.WiFiStatusInterval = DefaultWiFiStatusInterval
	}
	if o.RebootCountdown < 0 {
		o.RebootCountdown = 0
	}
	if o.RebootTick <= 0 {
		o.RebootTick = DefaultRebootTick
	}
	if o.MaxReadings == 0 {
		o.MaxReadings = DefaultMaxReadings
	}
	if o.Bands == (models.Bands{}) {
		o.Bands = models.DefaultBands
	}
	return o
}

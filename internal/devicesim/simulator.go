// Package devicesim serves the device's HTTP endpoints from an in-memory
// model so the console can be exercised without hardware.
package devicesim

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"device_console/internal/models"
)

// Simulation constants.
const (
	initialADC   = 22.0
	minADC       = -10.0
	maxADC       = 50.0
	driftPerTick = 1.5

	// ctimeLayout is strftime's %c in the C locale.
	ctimeLayout = "Mon Jan _2 15:04:05 2006"
)

// TemperatureValues is what the firmware keeps after /tempRange.json.
type TemperatureValues struct {
	HighLower, HighUpper     int
	MediumLower, MediumUpper int
	LowLower, LowUpper       int
	First, Second, Third     [3]int
}

// Options tune the simulated device.
type Options struct {
	// SSID/Password, when SSID is set, are the only credentials that connect.
	SSID     string
	Password string
	// ConnectAfter is how many status polls stay "connecting" before the outcome.
	ConnectAfter int
	// Location is the NTP display zone.
	Location *time.Location
}

// Device is the simulated firmware state.
type Device struct {
	mu sync.Mutex

	opts Options
	now  func() time.Time

	adc          float64
	wifiStatus   models.ConnectionStatus
	pendingPolls int
	outcome      models.ConnectionStatus
	ssid         string

	ranges    TemperatureValues
	rangesSet bool

	firmwareName  string
	firmwareBytes int64
	uploads       int
}

// New returns a device in the state the firmware boots into.
func New(opts Options) *Device {
	if opts.ConnectAfter < 0 {
		opts.ConnectAfter = 0
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	return &Device{
		opts:       opts,
		now:        time.Now,
		adc:        initialADC,
		wifiStatus: models.StatusNone,
	}
}

// SetADC pins the sensor value.
func (d *Device) SetADC(v float64) {
	d.mu.Lock()
	d.adc = v
	d.mu.Unlock()
}

func (d *Device) adcText() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return fmt.Sprintf("%f", d.adc)
}

// connect records credentials and moves to "connecting".
func (d *Device) connect(ssid, password string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ssid = ssid
	d.wifiStatus = models.StatusConnecting
	d.pendingPolls = d.opts.ConnectAfter
	d.outcome = models.StatusConnected
	if d.opts.SSID != "" && (ssid != d.opts.SSID || password != d.opts.Password) {
		d.outcome = models.StatusFailed
	}
}

// pollStatus answers one /wifiConnectStatus request, advancing the connection.
func (d *Device) pollStatus() models.ConnectionStatus {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.wifiStatus == models.StatusConnecting {
		if d.pendingPolls > 0 {
			d.pendingPolls--
		} else {
			d.wifiStatus = d.outcome
		}
	}
	return d.wifiStatus
}

// WiFiStatus returns the current status without advancing it.
func (d *Device) WiFiStatus() models.ConnectionStatus {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.wifiStatus
}

func (d *Device) ntpText() (string, bool) {
	d.mu.Lock()
	connected := d.wifiStatus == models.StatusConnected
	d.mu.Unlock()
	if !connected {
		return "", false
	}
	return d.now().In(d.opts.Location).Format(ctimeLayout), true
}

// atoi parses like C's atoi: leading integer, 0 when there is none.
func atoi(s string) int {
	end := 0
	for end < len(s) && (s[end] == ' ' || s[end] == '\t') {
		end++
	}
	start := end
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	n, err := strconv.Atoi(s[start:end])
	if err != nil {
		return 0
	}
	return n
}

func (d *Device) applyRanges(cfg models.RangeConfig) TemperatureValues {
	tv := TemperatureValues{
		HighLower:   atoi(cfg.HighTempLower),
		HighUpper:   atoi(cfg.HighTempUpper),
		MediumLower: atoi(cfg.MediumTempLower),
		MediumUpper: atoi(cfg.MediumTempUpper),
		LowLower:    atoi(cfg.LowTempLower),
		LowUpper:    atoi(cfg.LowTempUpper),
		First:       [3]int{atoi(cfg.FirstLedR), atoi(cfg.FirstLedG), atoi(cfg.FirstLedB)},
		Second:      [3]int{atoi(cfg.SecondLedR), atoi(cfg.SecondLedG), atoi(cfg.SecondLedB)},
		Third:       [3]int{atoi(cfg.ThirdLedR), atoi(cfg.ThirdLedG), atoi(cfg.ThirdLedB)},
	}
	d.mu.Lock()
	d.ranges = tv
	d.rangesSet = true
	d.mu.Unlock()
	return tv
}

// Ranges returns the last submitted thresholds.
func (d *Device) Ranges() (TemperatureValues, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.ranges, d.rangesSet
}

func (d *Device) recordFirmware(name string, size int64) {
	d.mu.Lock()
	d.firmwareName = name
	d.firmwareBytes = size
	d.uploads++
	d.mu.Unlock()
}

// Firmware returns the last uploaded image name, its size and the upload count.
func (d *Device) Firmware() (string, int64, int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.firmwareName, d.firmwareBytes, d.uploads
}

// Run drifts the ADC value every tick until ctx is canceled.
func (d *Device) Run(ctx context.Context, tick time.Duration) {
	t := time.NewTicker(tick)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			d.drift((rand.Float64()*2 - 1) * driftPerTick)
		}
	}
}

func (d *Device) drift(delta float64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.adc += delta
	if d.adc < minADC {
		d.adc = minADC
	}
	if d.adc > maxADC {
		d.adc = maxADC
	}
}

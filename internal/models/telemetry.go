package models

import "time"

// IndicatorColor is the background colour of the status dot next to the reading.
type IndicatorColor string

const (
	ColorGreen IndicatorColor = "green"
	ColorRed   IndicatorColor = "red"
	ColorBlue  IndicatorColor = "blue" // fallback: below range or not a number
)

// Bands holds the inclusive "normal" range of a reading.
type Bands struct {
	Lower int `json:"lower" mapstructure:"lower" yaml:"lower"`
	Upper int `json:"upper" mapstructure:"upper" yaml:"upper"`
}

// DefaultBands is the fixed 0..30 range used by the device page.
var DefaultBands = Bands{Lower: 0, Upper: 30}

// Reading is one sample of /adc_value.
type Reading struct {
	ID     int64          `json:"id,omitempty"`
	Raw    string         `json:"raw"`   // body as received, shown verbatim
	Value  int            `json:"value"` // integer prefix of Raw
	Valid  bool           `json:"valid"` // false when Raw has no integer prefix
	Color  IndicatorColor `json:"color"`
	ReadAt time.Time      `json:"read_at"`
}

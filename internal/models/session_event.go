package models

import "time"

// Session event types recorded by the console.
const (
	EventWiFiConnect   = "WIFI_CONNECT"
	EventWiFiConnected = "WIFI_CONNECTED"
	EventWiFiFailed    = "WIFI_FAILED"
	EventRangeUpdate   = "RANGE_UPDATE"
	EventOTAUpload     = "OTA_UPLOAD"
	EventOTAFailed     = "OTA_FAILED"
	EventOTAReboot     = "OTA_REBOOT"
)

// EventTypes lists every type above, in workflow order.
var EventTypes = []string{
	EventWiFiConnect, EventWiFiConnected, EventWiFiFailed,
	EventRangeUpdate,
	EventOTAUpload, EventOTAFailed, EventOTAReboot,
}

// SessionEvent is a single audit entry of what the operator did to the device.
type SessionEvent struct {
	EventID     string    `json:"event_id"`
	OccurredAt  time.Time `json:"occurred_at"`
	Type        string    `json:"type"`        // WIFI_CONNECT | WIFI_CONNECTED | ... | OTA_REBOOT
	Description string    `json:"description"` // human-readable
	Metadata    any       `json:"metadata,omitempty"`
}

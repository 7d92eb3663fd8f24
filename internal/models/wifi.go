package models

// ConnectionStatus mirrors the device's wifi_connect_status codes.
type ConnectionStatus int

const (
	StatusNone       ConnectionStatus = 0
	StatusConnecting ConnectionStatus = 1
	StatusFailed     ConnectionStatus = 2
	StatusConnected  ConnectionStatus = 3
)

func (s ConnectionStatus) String() string {
	switch s {
	case StatusNone:
		return "none"
	case StatusConnecting:
		return "connecting"
	case StatusFailed:
		return "failed"
	case StatusConnected:
		return "connected"
	default:
		return "unknown"
	}
}

// Terminal reports whether polling should stop on this status.
func (s ConnectionStatus) Terminal() bool {
	return s == StatusFailed || s == StatusConnected
}

// WiFiCredentials is what the operator typed into the connect form.
type WiFiCredentials struct {
	SSID     string `json:"ssid" form:"connect_ssid"`
	Password string `json:"password" form:"connect_pass"`
}

// WiFiConnectRequest is the body of POST /wifiConnect.json.
type WiFiConnectRequest struct {
	SelectedSSID string `json:"selectedSSID"`
	Pwd          string `json:"pwd"`
	Timestamp    int64  `json:"timestamp"` // unix milliseconds
}

// WiFiStatusResponse is the body returned by POST /wifiConnectStatus.
type WiFiStatusResponse struct {
	WiFiConnectStatus ConnectionStatus `json:"wifi_connect_status"`
}

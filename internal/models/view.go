package models

import "time"

// View is the page state, one field per element the page renders.
type View struct {
	ADCValue          string           `json:"adcValue"`
	Dot               IndicatorColor   `json:"dot"`
	WiFiConnectStatus string           `json:"wifi_connect_status"`
	WiFiStatus        ConnectionStatus `json:"wifi_status"`
	CredentialErrors  []string         `json:"wifi_connect_credentials_errors"`
	WiFiFormVisible   bool             `json:"WiFiForm"`
	WiFiDotVisible    bool             `json:"dot_wifi"`
	NTPTime           string           `json:"ntp_time"`
	NTPTimeVisible    bool             `json:"ntp_time_visible"`
	FileInfo          string           `json:"file_info"`
	OTAUpdateStatus   string           `json:"ota_update_status"`
	Firmware          FirmwareState    `json:"firmware"`
	Generation        int              `json:"generation"`
	UpdatedAt         time.Time        `json:"updated_at"`
}

// InitialView is the state of a freshly loaded page.
func InitialView() View {
	return View{
		WiFiFormVisible: true,
		Firmware:        FirmwareState{Phase: FirmwareIdle},
	}
}

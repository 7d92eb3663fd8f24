package service

import (
	"context"

	"device_console/internal/device"
	"device_console/internal/models"
	"device_console/internal/repository"
)

type Authorization interface {
	SignUp(username, password string) (int, error)
	GenerateToken(username, password string) (string, error)
	ParseToken(accessToken string) (int, error)
}

// Telemetry exposes the ADC poller and its history.
type Telemetry interface {
	PollTelemetry(ctx context.Context) (models.Reading, error)
	Latest(ctx context.Context) (models.Reading, bool, error)
	History(ctx context.Context, limit int) ([]models.Reading, error)
}

// WiFi drives the station connect workflow.
type WiFi interface {
	ConnectWiFi(ctx context.Context, creds models.WiFiCredentials) error
	CheckWiFiStatus(ctx context.Context) (models.ConnectionStatus, error)
	StopWiFiStatus()
}

// Ranges submits the LED colour-threshold form.
type Ranges interface {
	SubmitRanges(ctx context.Context, cfg models.RangeConfig) error
}

// Firmware runs the OTA upload and reboot countdown.
type Firmware interface {
	UploadFirmware(ctx context.Context, file models.FirmwareFile) error
}

// Monitoring exposes the read-only view of the page.
type Monitoring interface {
	GetView(ctx context.Context) (models.View, error)
}

// EventLog exposes session history with filtering.
type EventLog interface {
	List(ctx context.Context, f LogFilter) ([]models.SessionEvent, error)
}

// Device is the part of the device HTTP API the session uses.
type Device interface {
	ADCValue(ctx context.Context) (string, error)
	NTPTime(ctx context.Context) (string, error)
	WiFiConnectStatus(ctx context.Context) (models.WiFiStatusResponse, error)
	ConnectWiFi(ctx context.Context, req models.WiFiConnectRequest) ([]byte, error)
	UpdateRanges(ctx context.Context, cfg models.RangeConfig) ([]byte, error)
	UploadFirmware(ctx context.Context, file models.FirmwareFile, progress device.ProgressFunc) error
}

// Publisher mirrors readings and events to an external sink.
type Publisher interface {
	PublishReading(r models.Reading) error
	PublishEvent(e models.SessionEvent) error
}

var _ Device = (*device.Client)(nil)

type Service struct {
	Telemetry
	WiFi
	Ranges
	Firmware
	Monitoring
	EventLog
	Authorization
}

// NewService exposes one console session and the repositories behind it.
func NewService(repos *repository.Repository, session *Session, auth AuthOptions) *Service {
	return &Service{
		Telemetry:     session,
		WiFi:          session,
		Ranges:        session,
		Firmware:      session,
		Monitoring:    session,
		EventLog:      NewEventLogService(repos.EventRepo),
		Authorization: NewAuthService(repos.Auth, auth),
	}
}

package handlers

import (
	"context"
	"io"
	"net/http"
	"sync"
	"time"

	"device_console/internal/models"
	"device_console/internal/service"

	"github.com/gin-gonic/gin"
)

// ---- Service Mocks ----

type mockAuth struct {
	signUpID      int
	signUpErr     error
	genTokenToken string
	genTokenErr   error
	parseID       int
	parseErr      error

	lastSignUpUsername string
	lastSignUpPassword string
	lastGenUsername    string
	lastGenPassword    string
	lastParseToken     string
}

func (m *mockAuth) SignUp(username, password string) (int, error) {
	m.lastSignUpUsername = username
	m.lastSignUpPassword = password
	return m.signUpID, m.signUpErr
}
func (m *mockAuth) GenerateToken(username, password string) (string, error) {
	m.lastGenUsername = username
	m.lastGenPassword = password
	return m.genTokenToken, m.genTokenErr
}
func (m *mockAuth) ParseToken(token string) (int, error) {
	m.lastParseToken = token
	return m.parseID, m.parseErr
}

type mockTelemetry struct {
	reading    models.Reading
	pollErr    error
	latest     models.Reading
	hasLatest  bool
	latestErr  error
	history    []models.Reading
	historyErr error
	lastLimit  int
	pollCalls  int
}

func (m *mockTelemetry) PollTelemetry(ctx context.Context) (models.Reading, error) {
	m.pollCalls++
	return m.reading, m.pollErr
}
func (m *mockTelemetry) Latest(ctx context.Context) (models.Reading, bool, error) {
	return m.latest, m.hasLatest, m.latestErr
}
func (m *mockTelemetry) History(ctx context.Context, limit int) ([]models.Reading, error) {
	m.lastLimit = limit
	return m.history, m.historyErr
}

type mockWiFi struct {
	connectErr  error
	status      models.ConnectionStatus
	statusErr   error
	lastCreds   models.WiFiCredentials
	stopCalls   int
	statusCalls int
}

func (m *mockWiFi) ConnectWiFi(ctx context.Context, creds models.WiFiCredentials) error {
	m.lastCreds = creds
	if msgs := service.ValidateCredentials(creds); len(msgs) > 0 {
		return &service.ValidationError{Messages: msgs}
	}
	return m.connectErr
}
func (m *mockWiFi) CheckWiFiStatus(ctx context.Context) (models.ConnectionStatus, error) {
	m.statusCalls++
	return m.status, m.statusErr
}
func (m *mockWiFi) StopWiFiStatus() { m.stopCalls++ }

type mockRanges struct {
	err     error
	last    models.RangeConfig
	submits int
}

func (m *mockRanges) SubmitRanges(ctx context.Context, cfg models.RangeConfig) error {
	m.submits++
	m.last = cfg
	return m.err
}

type mockFirmware struct {
	mu       sync.Mutex
	err      error
	name     string
	size     int64
	contents string
}

func (m *mockFirmware) UploadFirmware(ctx context.Context, file models.FirmwareFile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.name = file.Name
	m.size = file.Size
	if file.Content != nil {
		b, _ := io.ReadAll(file.Content)
		m.contents = string(b)
	}
	return m.err
}

type mockMonitoring struct {
	view models.View
	err  error
}

func (m *mockMonitoring) GetView(ctx context.Context) (models.View, error) {
	return m.view, m.err
}

type mockEventLog struct {
	resp     []models.SessionEvent
	err      error
	lastFrom time.Time
	lastTo   time.Time
	lastType string
}

func (m *mockEventLog) List(ctx context.Context, f service.LogFilter) ([]models.SessionEvent, error) {
	m.lastFrom = f.From
	m.lastTo = f.To
	m.lastType = f.Type
	return m.resp, m.err
}

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service) *gin.Engine {
	h := NewHandler(s, nil)
	gin.SetMode(gin.TestMode)
	return h.InitRoutes()
}

func authHeader(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}

// consoleService wires every console mock behind a token that always parses.
func consoleService() (*service.Service, *mockTelemetry, *mockWiFi, *mockRanges, *mockFirmware) {
	tel := &mockTelemetry{}
	wifi := &mockWiFi{}
	ranges := &mockRanges{}
	fw := &mockFirmware{}
	s := &service.Service{
		Telemetry:     tel,
		WiFi:          wifi,
		Ranges:        ranges,
		Firmware:      fw,
		Monitoring:    &mockMonitoring{view: models.InitialView()},
		EventLog:      &mockEventLog{},
		Authorization: &mockAuth{parseID: 1},
	}
	return s, tel, wifi, ranges, fw
}

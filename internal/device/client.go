package device

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"device_console/internal/models"
)

// Device endpoints served by the firmware.
const (
	pathADCValue          = "/adc_value"
	pathNTPValue          = "/ntp_value"
	pathWiFiConnectStatus = "/wifiConnectStatus"
	pathWiFiConnect       = "/wifiConnect.json"
	pathTempRange         = "/tempRange.json"
	pathOTAUpdate         = "/OTAupdate"

	wifiStatusBody = "wifi_connect_status"
	maxTextBody    = 1 << 10 // device answers are tiny
)

const (
	defaultRequestTimeout = 3 * time.Second
	defaultUploadTimeout  = 2 * time.Minute
)

// StatusError is returned when the device answers with a non-2xx status.
type StatusError struct {
	Path       string
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: network response was not ok %s", e.Path, e.Status)
}

// Client talks to the device's embedded web server.
type Client struct {
	baseURL        *url.URL
	http           *http.Client
	requestTimeout time.Duration
	uploadTimeout  time.Duration
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient swaps the underlying *http.Client (tests, custom transports).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeouts sets per-request and upload deadlines; zero keeps the default.
func WithTimeouts(request, upload time.Duration) Option {
	return func(c *Client) {
		if request > 0 {
			c.requestTimeout = request
		}
		if upload > 0 {
			c.uploadTimeout = upload
		}
	}
}

// New builds a client for the device at baseURL (e.g. "http://192.168.4.1").
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(strings.TrimSpace(baseURL), "/"))
	if err != nil {
		return nil, fmt.Errorf("parse device url %q: %w", baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("device url %q: scheme must be http or https", baseURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("device url %q: missing host", baseURL)
	}
	c := &Client{
		baseURL:        u,
		http:           &http.Client{},
		requestTimeout: defaultRequestTimeout,
		uploadTimeout:  defaultUploadTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) endpoint(path string) string {
	return c.baseURL.String() + path
}

// do runs a request with the per-request deadline and returns the body of a 2xx answer.
func (c *Client) do(ctx context.Context, method, path, contentType string, body io.Reader) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path), body)
	if err != nil {
		return nil, fmt.Errorf("build %s %s: %w", method, path, err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	// The page posted with cache: false; keep intermediaries from serving stale answers.
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxTextBody))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return data, &StatusError{Path: path, StatusCode: resp.StatusCode, Status: resp.Status}
	}
	return data, nil
}

// ADCValue returns the current sensor value exactly as the device printed it.
func (c *Client) ADCValue(ctx context.Context) (string, error) {
	data, err := c.do(ctx, http.MethodGet, pathADCValue, "", nil)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// NTPTime returns the device's formatted local time.
func (c *Client) NTPTime(ctx context.Context) (string, error) {
	data, err := c.do(ctx, http.MethodGet, pathNTPValue, "", nil)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// WiFiConnectStatus asks the device how far the station connection got.
func (c *Client) WiFiConnectStatus(ctx context.Context) (models.WiFiStatusResponse, error) {
	data, err := c.do(ctx, http.MethodPost, pathWiFiConnectStatus, "text/plain", strings.NewReader(wifiStatusBody))
	if err != nil {
		return models.WiFiStatusResponse{}, err
	}
	var out models.WiFiStatusResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return models.WiFiStatusResponse{}, fmt.Errorf("decode %s: %w", pathWiFiConnectStatus, err)
	}
	return out, nil
}

// ConnectWiFi hands station credentials to the device. The returned body is the device's ack.
func (c *Client) ConnectWiFi(ctx context.Context, req models.WiFiConnectRequest) ([]byte, error) {
	return c.postJSON(ctx, pathWiFiConnect, req)
}

// UpdateRanges submits the LED colour-threshold form in one request.
func (c *Client) UpdateRanges(ctx context.Context, cfg models.RangeConfig) ([]byte, error) {
	return c.postJSON(ctx, pathTempRange, cfg)
}

func (c *Client) postJSON(ctx context.Context, path string, payload any) ([]byte, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", path, err)
	}
	return c.do(ctx, http.MethodPost, path, "application/json", bytes.NewReader(b))
}

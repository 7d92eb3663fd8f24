package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"device_console/internal/models"
)

// Texts shown on the page.
const (
	MsgSSIDEmpty     = "SSID cannot be empty!"
	MsgPasswordEmpty = "Password cannot be empty!"

	TextConnecting    = "Connecting..."
	TextConnectFailed = "Failed to Connect. Please check your AP credentials and compatibility"
	TextConnected     = "Connection Successful"
)

// ErrStatusBusy is returned while another status request is in flight.
var ErrStatusBusy = errors.New("wifi status check already in flight")

// ValidationError lists every problem with the submitted credentials.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Messages, " ")
}

// ValidateCredentials returns the page's error lines; empty when the form is valid.
func ValidateCredentials(c models.WiFiCredentials) []string {
	var msgs []string
	if c.SSID == "" {
		msgs = append(msgs, MsgSSIDEmpty)
	}
	if c.Password == "" {
		msgs = append(msgs, MsgPasswordEmpty)
	}
	return msgs
}

// ConnectWiFi validates the form, sends the credentials and starts status polling.
// A failed connect request is only logged; polling starts regardless. Each valid
// submission starts from an unknown status, so its outcome is applied and recorded
// even when it matches the previous attempt's.
func (s *Session) ConnectWiFi(ctx context.Context, creds models.WiFiCredentials) error {
	msgs := ValidateCredentials(creds)
	s.view.update(func(v *models.View) {
		v.CredentialErrors = msgs
		if len(msgs) == 0 {
			v.WiFiStatus = models.StatusNone
		}
	})
	if len(msgs) > 0 {
		return &ValidationError{Messages: msgs}
	}

	req := models.WiFiConnectRequest{
		SelectedSSID: creds.SSID,
		Pwd:          creds.Password,
		Timestamp:    s.now().UnixMilli(),
	}
	if ack, err := s.dev.ConnectWiFi(ctx, req); err != nil {
		s.log.Errorw("wifi_connect_failed", "ssid", creds.SSID, "err", err)
	} else {
		s.log.Infow("wifi_connect_sent", "ssid", creds.SSID, "ack", string(ack))
	}
	s.recordEvent(ctx, models.EventWiFiConnect, "Connect requested for "+creds.SSID,
		map[string]any{"ssid": creds.SSID})

	if !s.wifiStatus.Start(s.baseContext()) {
		s.log.Infow("wifi_status_already_polling")
	}
	return nil
}

// CheckWiFiStatus runs one status check now. A terminal status stops the poller.
func (s *Session) CheckWiFiStatus(ctx context.Context) (models.ConnectionStatus, error) {
	st, err := s.checkStatus(ctx)
	if err != nil {
		return st, err
	}
	if st.Terminal() {
		s.wifiStatus.Stop()
	}
	return st, nil
}

// StopWiFiStatus cancels the status poller, if running.
func (s *Session) StopWiFiStatus() {
	s.wifiStatus.Stop()
}

func (s *Session) wifiStatusTick(ctx context.Context) bool {
	st, err := s.checkStatus(ctx)
	if err != nil {
		if !errors.Is(err, ErrStatusBusy) && ctx.Err() == nil {
			s.log.Warnw("wifi_status_failed", "err", err)
		}
		return false
	}
	return st.Terminal()
}

// checkStatus asks the device once and applies the answer to the view.
func (s *Session) checkStatus(ctx context.Context) (models.ConnectionStatus, error) {
	if !s.statusBusy.CompareAndSwap(false, true) {
		return models.StatusNone, ErrStatusBusy
	}
	defer s.statusBusy.Store(false)

	gen := s.view.generation()
	resp, err := s.dev.WiFiConnectStatus(ctx)
	if err != nil {
		return models.StatusNone, fmt.Errorf("wifi status: %w", err)
	}
	st := resp.WiFiConnectStatus

	var prev models.ConnectionStatus
	applied := s.view.updateAt(gen, func(v *models.View) {
		prev = v.WiFiStatus
		v.WiFiStatus = st
		v.WiFiConnectStatus = TextConnecting
		switch st {
		case models.StatusFailed:
			v.WiFiConnectStatus = TextConnectFailed
		case models.StatusConnected:
			v.WiFiConnectStatus = TextConnected
			v.WiFiFormVisible = false
			v.WiFiDotVisible = true
		}
	})
	if !applied || prev == st {
		return st, nil
	}

	switch st {
	case models.StatusFailed:
		s.log.Infow("wifi_connect_result", "status", st.String())
		s.recordEvent(ctx, models.EventWiFiFailed, TextConnectFailed, nil)
	case models.StatusConnected:
		s.log.Infow("wifi_connect_result", "status", st.String())
		s.recordEvent(ctx, models.EventWiFiConnected, TextConnected, nil)
		s.fetchNTP(ctx, gen)
	}
	return st, nil
}

// fetchNTP shows the device time once after connecting.
func (s *Session) fetchNTP(ctx context.Context, gen int) {
	txt, err := s.dev.NTPTime(ctx)
	if err != nil {
		s.log.Warnw("ntp_fetch_failed", "err", err)
		return
	}
	s.view.updateAt(gen, func(v *models.View) {
		v.NTPTime = txt
		v.NTPTimeVisible = true
	})
}

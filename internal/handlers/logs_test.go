package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"device_console/internal/models"
	"device_console/internal/service"
)

func TestLogsHandler_ListAndValidation(t *testing.T) {
	auth := &mockAuth{parseID: 99}
	now := time.Now().UTC().Truncate(time.Second)
	events := []models.SessionEvent{
		{EventID: "e1", OccurredAt: now, Type: models.EventOTAUpload, Description: "Uploading fw.bin"},
		{EventID: "e2", OccurredAt: now.Add(1 * time.Second), Type: models.EventOTAReboot, Description: "reboot"},
	}
	logs := &mockEventLog{resp: events}
	s := &service.Service{
		Authorization: auth,
		EventLog:      logs,
	}
	r := newTestRouter(s)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/logs/?from=notatime", nil)
	for k, vv := range authHeader("valid") {
		for _, v := range vv {
			req.Header.Add(k, v)
		}
	}
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 invalid 'from', got %d", w.Code)
	}

	w = httptest.NewRecorder()
	q := "/api/v1/logs/?from=" + now.Format(time.RFC3339) + "&to=" + now.Add(2*time.Second).Format(time.RFC3339) + "&type=ota_reboot"
	req = httptest.NewRequest(http.MethodGet, q, nil)
	for k, vv := range authHeader("valid") {
		for _, v := range vv {
			req.Header.Add(k, v)
		}
	}
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("logs status=%d, body=%s", w.Code, w.Body.String())
	}
	var out struct {
		Count  int                   `json:"count"`
		Events []models.SessionEvent `json:"events"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	if out.Count != 2 || len(out.Events) != 2 {
		t.Fatalf("unexpected response: %+v", out)
	}
	// normalized by the service
	if logs.lastType != "ota_reboot" {
		t.Fatalf("expected raw type, got %q", logs.lastType)
	}
}

func TestLogsHandler_DateOnlyToIsEndOfDayAndRangeCheck(t *testing.T) {
	logs := &mockEventLog{}
	r := newTestRouter(&service.Service{Authorization: &mockAuth{parseID: 1}, EventLog: logs})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/logs/?from=2025-08-01&to=2025-08-01", nil)
	req.Header.Set("Authorization", "Bearer t")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	wantTo := time.Date(2025, 8, 1, 23, 59, 59, 999999999, time.UTC)
	if !logs.lastTo.Equal(wantTo) {
		t.Fatalf("to = %v want %v", logs.lastTo, wantTo)
	}

	logs.err = fmt.Errorf("%w: from is after to", service.ErrInvalidLogFilter)
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/v1/logs/?from=2025-08-02&to=2025-08-01T00:00:00Z", nil)
	req.Header.Set("Authorization", "Bearer t")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for a rejected filter, got %d", w.Code)
	}

	logs.err = errors.New("db closed")
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/v1/logs/", nil)
	req.Header.Set("Authorization", "Bearer t")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
}

func TestParseQueryTime(t *testing.T) {
	cases := []struct {
		in       string
		want     time.Time
		dateOnly bool
	}{
		{"2025-08-01T10:00:00+02:00", time.Date(2025, 8, 1, 8, 0, 0, 0, time.UTC), false},
		{"2025-08-01 10:00:00", time.Date(2025, 8, 1, 10, 0, 0, 0, time.UTC), false},
		{" 2025-08-01 ", time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC), true},
	}
	for _, tc := range cases {
		got, dateOnly, err := parseQueryTime(tc.in)
		if err != nil || !got.Equal(tc.want) || dateOnly != tc.dateOnly {
			t.Errorf("parseQueryTime(%q) = %v, %v, %v", tc.in, got, dateOnly, err)
		}
	}
	if _, _, err := parseQueryTime("01/08/2025"); err == nil {
		t.Error("expected error for unsupported layout")
	}
}

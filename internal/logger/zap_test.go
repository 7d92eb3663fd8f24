package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestToZapLevel(t *testing.T) {
	cases := map[string]zapcore.Level{
		DebugLevel: zapcore.DebugLevel,
		InfoLevel:  zapcore.InfoLevel,
		WarnLevel:  zapcore.WarnLevel,
		ErrorLevel: zapcore.ErrorLevel,
		"verbose":  defaultZapLevel,
		"":         defaultZapLevel,
	}
	for in, want := range cases {
		if got := toZapLevel(in); got != want {
			t.Errorf("toZapLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestGet_ReturnsSingleton(t *testing.T) {
	a := Get(Options{Level: InfoLevel})
	b := Get(Options{Level: DebugLevel, Format: FormatJSON})
	if a != b {
		t.Fatalf("expected the same logger instance")
	}
}

func TestNew_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Level: " WARN ", Format: "JSON", Output: &buf}).Named("telemetry")

	l.Infow("dropped", "value", 1)
	l.Warnw("adc_poll_failed", "err", "timeout", "value", 15)
	_ = l.Sync()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected only the warn line, got %q", buf.String())
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("not JSON: %v (%s)", err, lines[0])
	}
	if entry["level"] != "warn" || entry["logger"] != "telemetry" || entry["msg"] != "adc_poll_failed" || entry["value"] != float64(15) {
		t.Fatalf("entry = %v", entry)
	}
}

func TestNew_ConsoleFormat(t *testing.T) {
	var buf bytes.Buffer
	New(Options{Level: DebugLevel, Output: &buf}).Infow("session_started", "telemetry_interval", "500ms")
	out := buf.String()
	if !strings.Contains(out, "INFO") || !strings.Contains(out, "session_started") || strings.HasPrefix(out, "{") {
		t.Fatalf("unexpected console line: %q", out)
	}
}

func TestNop_NamedDoesNotPanic(t *testing.T) {
	l := Nop().Named("telemetry")
	l.Infow("reading", "value", 15)
}

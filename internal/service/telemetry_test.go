package service

import (
	"context"
	"errors"
	"math"
	"reflect"
	"sync"
	"testing"
	"time"

	"device_console/internal/models"
)

type fakeReadingRepo struct {
	mu       sync.Mutex
	appended []models.Reading
	err      error
	prunes   []int
}

func (f *fakeReadingRepo) Append(_ context.Context, r models.Reading) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	f.appended = append(f.appended, r)
	return int64(len(f.appended)), nil
}

func (f *fakeReadingRepo) Latest(context.Context) (models.Reading, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.appended) == 0 {
		return models.Reading{}, false, nil
	}
	return f.appended[len(f.appended)-1], true, nil
}

func (f *fakeReadingRepo) List(_ context.Context, limit int) ([]models.Reading, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Reading, 0, len(f.appended))
	for i := len(f.appended) - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
		out = append(out, f.appended[i])
	}
	return out, nil
}

func (f *fakeReadingRepo) Prune(_ context.Context, keep int) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prunes = append(f.prunes, keep)
	if len(f.appended) <= keep {
		return 0, nil
	}
	n := len(f.appended) - keep
	f.appended = append([]models.Reading(nil), f.appended[n:]...)
	return int64(n), nil
}

func TestParseReading(t *testing.T) {
	cases := []struct {
		in    string
		want  int
		valid bool
	}{
		{"15.000000", 15, true},
		{"31", 31, true},
		{"-3.5", -3, true},
		{"-0.500000", 0, true},
		{"  42abc", 42, true},
		{"+7", 7, true},
		{"abc", 0, false},
		{"", 0, false},
		{"-", 0, false},
		{".5", 0, false},
		{"99999999999999999999999", math.MaxInt, true},
	}
	for _, c := range cases {
		got, ok := ParseReading(c.in)
		if got != c.want || ok != c.valid {
			t.Errorf("ParseReading(%q) = %d,%v want %d,%v", c.in, got, ok, c.want, c.valid)
		}
	}
}

func TestClassify(t *testing.T) {
	b := models.DefaultBands
	cases := []struct {
		name  string
		v     int
		valid bool
		want  models.IndicatorColor
	}{
		{"lower bound", 0, true, models.ColorGreen},
		{"inside", 15, true, models.ColorGreen},
		{"upper bound", 30, true, models.ColorGreen},
		{"above", 31, true, models.ColorRed},
		{"below", -1, true, models.ColorBlue},
		{"not a number", 15, false, models.ColorBlue},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := Classify(c.v, c.valid, b); got != c.want {
				t.Fatalf("Classify(%d,%v) = %s want %s", c.v, c.valid, got, c.want)
			}
		})
	}
}

func TestPollTelemetry_UpdatesViewStoresAndPublishes(t *testing.T) {
	readings := &fakeReadingRepo{}
	pub := &stubPublisher{}
	dev := &stubDevice{adcFn: func() (string, error) { return "31.000000", nil }}
	s := NewSession(SessionDeps{Device: dev, Readings: readings, Publisher: pub}, fastOptions())

	rd, err := s.PollTelemetry(context.Background())
	if err != nil {
		t.Fatalf("PollTelemetry: %v", err)
	}
	if rd.Value != 31 || !rd.Valid || rd.Color != models.ColorRed || rd.ID != 1 {
		t.Fatalf("unexpected reading %+v", rd)
	}
	v, _ := s.GetView(context.Background())
	if v.ADCValue != "31.000000" || v.Dot != models.ColorRed {
		t.Fatalf("view not updated: %+v", v)
	}
	if len(pub.readings) != 1 {
		t.Fatalf("reading not published")
	}

	latest, ok, err := s.Latest(context.Background())
	if err != nil || !ok || latest.Raw != "31.000000" {
		t.Fatalf("Latest = %+v %v %v", latest, ok, err)
	}
}

func TestPollTelemetry_NonNumericIsBlueAndShownVerbatim(t *testing.T) {
	s := NewSession(SessionDeps{Device: &stubDevice{adcFn: func() (string, error) { return "nan", nil }}}, fastOptions())
	if _, err := s.PollTelemetry(context.Background()); err != nil {
		t.Fatalf("PollTelemetry: %v", err)
	}
	v, _ := s.GetView(context.Background())
	if v.ADCValue != "nan" || v.Dot != models.ColorBlue {
		t.Fatalf("unexpected view %+v", v)
	}
}

func TestPollTelemetry_FailureKeepsStaleValue(t *testing.T) {
	fail := false
	dev := &stubDevice{adcFn: func() (string, error) {
		if fail {
			return "", errors.New("network response was not ok 500")
		}
		return "10.000000", nil
	}}
	s := NewSession(SessionDeps{Device: dev}, fastOptions())
	if _, err := s.PollTelemetry(context.Background()); err != nil {
		t.Fatalf("first poll: %v", err)
	}
	fail = true
	if _, err := s.PollTelemetry(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
	v, _ := s.GetView(context.Background())
	if v.ADCValue != "10.000000" || v.Dot != models.ColorGreen {
		t.Fatalf("stale value lost: %+v", v)
	}
}

func TestPollTelemetry_StoreFailureIsNotFatal(t *testing.T) {
	readings := &fakeReadingRepo{err: errors.New("disk full")}
	s := NewSession(SessionDeps{Device: &stubDevice{adcFn: func() (string, error) { return "5", nil }}, Readings: readings}, fastOptions())
	rd, err := s.PollTelemetry(context.Background())
	if err != nil {
		t.Fatalf("PollTelemetry: %v", err)
	}
	if rd.ID != 0 {
		t.Fatalf("expected no id, got %d", rd.ID)
	}
}

func TestPollTelemetry_PrunesStoredReadings(t *testing.T) {
	readings := &fakeReadingRepo{}
	opts := fastOptions()
	opts.MaxReadings = 3
	s := NewSession(SessionDeps{Device: &stubDevice{adcFn: func() (string, error) { return "7", nil }}, Readings: readings}, opts)

	for i := 0; i < 2*readingsPruneEvery+1; i++ {
		if _, err := s.PollTelemetry(context.Background()); err != nil {
			t.Fatalf("poll %d: %v", i, err)
		}
	}
	readings.mu.Lock()
	defer readings.mu.Unlock()
	if !reflect.DeepEqual(readings.prunes, []int{3, 3}) {
		t.Fatalf("prunes = %v, want two with keep 3", readings.prunes)
	}
	if len(readings.appended) != 4 {
		t.Fatalf("kept %d readings, want 4", len(readings.appended))
	}
}

func TestPollTelemetry_NegativeCapNeverPrunes(t *testing.T) {
	readings := &fakeReadingRepo{}
	opts := fastOptions()
	opts.MaxReadings = -1
	s := NewSession(SessionDeps{Device: &stubDevice{adcFn: func() (string, error) { return "7", nil }}, Readings: readings}, opts)

	for i := 0; i < readingsPruneEvery; i++ {
		if _, err := s.PollTelemetry(context.Background()); err != nil {
			t.Fatalf("poll %d: %v", i, err)
		}
	}
	readings.mu.Lock()
	defer readings.mu.Unlock()
	if len(readings.prunes) != 0 || len(readings.appended) != readingsPruneEvery {
		t.Fatalf("prunes=%v kept=%d", readings.prunes, len(readings.appended))
	}
}

func TestHistory_NewestFirstAndNoRepo(t *testing.T) {
	readings := &fakeReadingRepo{}
	n := 0
	dev := &stubDevice{adcFn: func() (string, error) {
		n++
		return []string{"1", "2", "3"}[n-1], nil
	}}
	s := NewSession(SessionDeps{Device: dev, Readings: readings}, fastOptions())
	for i := 0; i < 3; i++ {
		if _, err := s.PollTelemetry(context.Background()); err != nil {
			t.Fatalf("poll %d: %v", i, err)
		}
	}
	got, err := s.History(context.Background(), 2)
	if err != nil || len(got) != 2 || got[0].Raw != "3" || got[1].Raw != "2" {
		t.Fatalf("History = %+v %v", got, err)
	}

	bare := NewSession(SessionDeps{Device: dev}, fastOptions())
	if h, err := bare.History(context.Background(), 5); err != nil || len(h) != 0 {
		t.Fatalf("History without repo = %+v %v", h, err)
	}
	if _, ok, _ := bare.Latest(context.Background()); ok {
		t.Fatalf("Latest without repo should be empty")
	}
}

func TestTelemetryTask_KeepsPollingAfterErrors(t *testing.T) {
	var (
		mu    sync.Mutex
		calls int
	)
	dev := &stubDevice{adcFn: func() (string, error) {
		mu.Lock()
		defer mu.Unlock()
		calls++
		if calls%2 == 1 {
			return "", errors.New("timeout")
		}
		return "20", nil
	}}
	s := newTestSession(t, dev, nil)
	eventually(t, time.Second, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return calls >= 4
	}, "telemetry keeps ticking through failures")
	if !s.Running()[TaskTelemetry] {
		t.Fatalf("telemetry task stopped")
	}
}

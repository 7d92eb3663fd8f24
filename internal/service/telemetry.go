package service

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"device_console/internal/models"
)

// ParseReading reads the leading integer of raw, as "15.000000" -> 15.
// ok is false when raw does not start with a number.
func ParseReading(raw string) (value int, ok bool) {
	s := strings.TrimLeft(raw, " \t\r\n\v\f")
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		// only overflow is left
		if s[0] == '-' {
			return math.MinInt, true
		}
		return math.MaxInt, true
	}
	return n, true
}

// Classify picks the indicator colour for a reading.
func Classify(value int, valid bool, b models.Bands) models.IndicatorColor {
	switch {
	case valid && value >= b.Lower && value <= b.Upper:
		return models.ColorGreen
	case valid && value > b.Upper:
		return models.ColorRed
	default:
		return models.ColorBlue
	}
}

// PollTelemetry fetches /adc_value once and updates the view.
// On failure the view keeps its previous value.
func (s *Session) PollTelemetry(ctx context.Context) (models.Reading, error) {
	raw, err := s.dev.ADCValue(ctx)
	if err != nil {
		return models.Reading{}, fmt.Errorf("poll telemetry: %w", err)
	}
	value, valid := ParseReading(raw)
	rd := models.Reading{
		Raw:    raw,
		Value:  value,
		Valid:  valid,
		Color:  Classify(value, valid, s.opts.Bands),
		ReadAt: s.now().UTC(),
	}
	s.view.update(func(v *models.View) {
		v.ADCValue = raw
		v.Dot = rd.Color
	})

	if s.readings != nil {
		id, err := s.readings.Append(context.WithoutCancel(ctx), rd)
		if err != nil {
			s.log.Errorw("reading_store_failed", "err", err)
		} else {
			rd.ID = id
			s.pruneReadings(ctx)
		}
	}
	if s.pub != nil {
		if err := s.pub.PublishReading(rd); err != nil {
			s.log.Warnw("reading_publish_failed", "err", err)
		}
	}
	return rd, nil
}

// pruneReadings trims the readings table every readingsPruneEvery appends.
func (s *Session) pruneReadings(ctx context.Context) {
	if s.opts.MaxReadings < 0 || s.stored.Add(1)%readingsPruneEvery != 0 {
		return
	}
	n, err := s.readings.Prune(context.WithoutCancel(ctx), s.opts.MaxReadings)
	if err != nil {
		s.log.Errorw("reading_prune_failed", "err", err)
		return
	}
	if n > 0 {
		s.log.Debugw("readings_pruned", "deleted", n, "keep", s.opts.MaxReadings)
	}
}

func (s *Session) telemetryTick(ctx context.Context) bool {
	if _, err := s.PollTelemetry(ctx); err != nil && ctx.Err() == nil {
		s.log.Warnw("telemetry_poll_failed", "err", err)
	}
	return false
}

// Latest returns the newest stored reading.
func (s *Session) Latest(ctx context.Context) (models.Reading, bool, error) {
	if s.readings == nil {
		return models.Reading{}, false, nil
	}
	return s.readings.Latest(ctx)
}

// History returns stored readings, newest first.
func (s *Session) History(ctx context.Context, limit int) ([]models.Reading, error) {
	if s.readings == nil {
		return []models.Reading{}, nil
	}
	return s.readings.List(ctx, limit)
}

package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"device_console/internal/models"
	"device_console/internal/repository"
)

// ErrInvalidLogFilter wraps every rejected LogFilter.
var ErrInvalidLogFilter = errors.New("invalid log filter")

type EventLogService struct {
	eventRepo repository.EventRepo
}

func NewEventLogService(eventRepo repository.EventRepo) *EventLogService {
	return &EventLogService{eventRepo: eventRepo}
}

// List returns the session events matching f, oldest first.
func (s *EventLogService) List(ctx context.Context, f LogFilter) ([]models.SessionEvent, error) {
	f, err := f.normalize()
	if err != nil {
		return nil, err
	}
	events, err := s.eventRepo.List(ctx, f.From, f.To, f.Type)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return events, nil
}

// normalize converts bounds to UTC and uppercases Type. It rejects an inverted
// range and a type no session ever records.
func (f LogFilter) normalize() (LogFilter, error) {
	if !f.From.IsZero() {
		f.From = f.From.UTC()
	}
	if !f.To.IsZero() {
		f.To = f.To.UTC()
	}
	if !f.From.IsZero() && !f.To.IsZero() && f.From.After(f.To) {
		return LogFilter{}, fmt.Errorf("%w: from %s is after to %s", ErrInvalidLogFilter,
			f.From.Format("2006-01-02T15:04:05Z"), f.To.Format("2006-01-02T15:04:05Z"))
	}
	f.Type = strings.ToUpper(strings.TrimSpace(f.Type))
	if f.Type != "" && !slices.Contains(models.EventTypes, f.Type) {
		return LogFilter{}, fmt.Errorf("%w: unknown event type %q", ErrInvalidLogFilter, f.Type)
	}
	return f, nil
}

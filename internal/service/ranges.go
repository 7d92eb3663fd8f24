package service

import (
	"context"
	"fmt"

	"device_console/internal/models"
)

// SubmitRanges posts all fifteen fields to the device in one request.
// Values are forwarded as typed.
func (s *Session) SubmitRanges(ctx context.Context, cfg models.RangeConfig) error {
	ack, err := s.dev.UpdateRanges(ctx, cfg)
	if err != nil {
		s.log.Errorw("ranges_submit_failed", "err", err)
		return fmt.Errorf("submit ranges: %w", err)
	}
	s.log.Infow("ranges_submitted", "response", string(ack))
	s.recordEvent(ctx, models.EventRangeUpdate, "LED ranges updated", cfg)
	return nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"device_console/internal/models"
)

// Texts shown on the page.
const (
	MsgSelectFile       = "Select A File First"
	MsgTotalSizeUnknown = "total size is unknown"

	textRebooting = "OTA Firmware Update Complete. This page will close shortly, Rebooting in: "
)

var (
	ErrNoFirmwareFile   = errors.New("no firmware file selected")
	ErrUploadInProgress = errors.New("firmware update already in progress")
)

func fileInfoText(f models.FirmwareFile) string {
	size := "unknown"
	if f.Size >= 0 {
		size = strconv.FormatInt(f.Size, 10)
	}
	return "File: " + f.Name + ", Size: " + size + " bytes"
}

func uploadingText(name string) string {
	return "Uploading " + name + ", Firmware Update in Progress..."
}

// RebootText is the status line shown n seconds before the page reloads.
func RebootText(n int) string {
	return textRebooting + strconv.Itoa(n)
}

// UploadFirmware sends the image to /OTAupdate and, on success, starts the
// reboot countdown. Only one update runs at a time.
func (s *Session) UploadFirmware(ctx context.Context, file models.FirmwareFile) error {
	if file.Content == nil || file.Name == "" {
		return ErrNoFirmwareFile
	}

	var (
		claimed bool
		gen     int
	)
	s.view.update(func(v *models.View) {
		if v.Firmware.Phase != models.FirmwareIdle {
			return
		}
		claimed, gen = true, v.Generation
		v.FileInfo = fileInfoText(file)
		v.OTAUpdateStatus = uploadingText(file.Name)
		v.Firmware = models.FirmwareState{Phase: models.FirmwareUploading, SizeKnown: file.Size >= 0}
	})
	if !claimed {
		return ErrUploadInProgress
	}
	s.log.Infow("ota_upload_started", "file", file.Name, "size", file.Size)
	s.recordEvent(ctx, models.EventOTAUpload, "Uploading "+file.Name,
		map[string]any{"file": file.Name, "size": file.Size})

	var warnOnce sync.Once
	err := s.dev.UploadFirmware(ctx, file, func(p models.UploadProgress) {
		if !p.LengthComputable {
			warnOnce.Do(func() { s.log.Warnw("ota_upload_progress", "msg", MsgTotalSizeUnknown) })
		}
		s.view.updateAt(gen, func(v *models.View) {
			v.Firmware.Sent = p.Sent
			v.Firmware.SizeKnown = p.LengthComputable
			if p.LengthComputable {
				v.Firmware.Total = p.Total
			}
		})
	})
	if err != nil {
		s.log.Errorw("ota_upload_failed", "file", file.Name, "err", err)
		s.recordEvent(ctx, models.EventOTAFailed, err.Error(), map[string]any{"file": file.Name})
		// status text stays "in progress"; only the phase is released for a retry
		s.view.updateAt(gen, func(v *models.View) { v.Firmware.Phase = models.FirmwareIdle })
		return fmt.Errorf("upload firmware: %w", err)
	}

	s.log.Infow("ota_upload_done", "file", file.Name)
	s.startReboot(ctx, gen)
	return nil
}

func (s *Session) startReboot(ctx context.Context, gen int) {
	n := s.opts.RebootCountdown
	s.rebootLeft.Store(int32(n))
	s.view.updateAt(gen, func(v *models.View) {
		v.Firmware.Phase = models.FirmwareRebooting
		v.Firmware.RebootIn = n
		v.OTAUpdateStatus = RebootText(n)
	})
	s.recordEvent(ctx, models.EventOTAReboot, RebootText(n), map[string]any{"countdown": n})
	s.reboot.Start(s.baseContext())
}

// rebootTick shows n..0 and reloads the page once at 0.
func (s *Session) rebootTick(_ context.Context) bool {
	n := int(s.rebootLeft.Load())
	s.view.update(func(v *models.View) {
		v.OTAUpdateStatus = RebootText(n)
		v.Firmware.RebootIn = n
	})
	if n <= 0 {
		s.reload()
		return true
	}
	s.rebootLeft.Store(int32(n - 1))
	return false
}

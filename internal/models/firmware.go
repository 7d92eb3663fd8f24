package models

import "io"

// FirmwarePhase is the state of the OTA workflow.
type FirmwarePhase string

const (
	FirmwareIdle      FirmwarePhase = "idle"
	FirmwareUploading FirmwarePhase = "uploading"
	FirmwareRebooting FirmwarePhase = "rebooting"
)

// FirmwareState is the OTA part of the view.
type FirmwareState struct {
	Phase     FirmwarePhase `json:"phase"`
	Sent      int64         `json:"sent"`
	Total     int64         `json:"total"`
	SizeKnown bool          `json:"size_known"`
	RebootIn  int           `json:"reboot_in"`
}

// FirmwareFile is the single image selected for upload. Size < 0 means unknown.
type FirmwareFile struct {
	Name    string
	Size    int64
	Content io.Reader
}

// UploadProgress is reported while the request body is being sent.
type UploadProgress struct {
	Sent             int64
	Total            int64
	LengthComputable bool
}

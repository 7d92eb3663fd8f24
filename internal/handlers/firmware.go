package handlers

import (
	"errors"
	"net/http"

	"device_console/internal/models"
	"device_console/internal/service"

	"github.com/gin-gonic/gin"
)

const firmwareFormField = "file"

// @Summary      Upload firmware (OTA)
// @Description  Multipart form with exactly one "file" part. The device reboots after a successful upload.
// @Tags         firmware
// @Accept       multipart/form-data
// @Produce      json
// @Param        file  formData  file  true  "Firmware image"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Router       /api/v1/firmware [post]
// @Security     BearerAuth
func (h *Handler) uploadFirmware(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil || len(form.File[firmwareFormField]) != 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": service.MsgSelectFile})
		return
	}
	fh := form.File[firmwareFormField][0]
	f, err := fh.Open()
	if err != nil {
		h.logAndJSONError(c, http.StatusBadRequest, service.MsgSelectFile, "firmware_open_failed", err)
		return
	}
	defer f.Close()

	err = h.services.Firmware.UploadFirmware(c.Request.Context(), models.FirmwareFile{
		Name:    fh.Filename,
		Size:    fh.Size,
		Content: f,
	})
	switch {
	case err == nil:
		h.respondWithView(c, string(models.FirmwareRebooting), gin.H{"file": fh.Filename, "size": fh.Size})
	case errors.Is(err, service.ErrNoFirmwareFile):
		c.JSON(http.StatusBadRequest, gin.H{"error": service.MsgSelectFile})
	case errors.Is(err, service.ErrUploadInProgress):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		h.logAndJSONError(c, http.StatusBadGateway, errDeviceRequest, "firmware_upload_failed", err, "file", fh.Filename)
	}
}

package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"device_console/internal/models"
	"device_console/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	statusOK = "ok"

	errGetView         = "failed to load view"
	errDeviceRequest   = "device request failed"
	errLoadHistory     = "failed to load readings"
	errInvalidBodyPref = "invalid body: "
	errInvalidLimit    = "invalid 'limit'; use a positive integer"
)

// Centralized error logging and response.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...any) {
	if h.log != nil && err != nil {
		fields := append([]any{"err", err}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	c.JSON(httpCode, gin.H{"error": userMsg})
}

// deviceErrorCode maps a failed device call to a response code.
func deviceErrorCode(err error) int {
	if errors.Is(err, service.ErrStatusBusy) || errors.Is(err, service.ErrUploadInProgress) {
		return http.StatusConflict
	}
	return http.StatusBadGateway
}

// respondWithView answers with a status and the current view (best-effort).
func (h *Handler) respondWithView(c *gin.Context, status string, extra gin.H) {
	resp := gin.H{"status": status}
	for k, v := range extra {
		resp[k] = v
	}
	if v, err := h.services.Monitoring.GetView(c.Request.Context()); err == nil {
		resp["view"] = v
	}
	c.JSON(http.StatusOK, resp)
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": statusOK})
}

// @Summary      Current page view
// @Tags         console
// @Produce      json
// @Success      200  {object}  models.View
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/view [get]
// @Security     BearerAuth
func (h *Handler) getView(c *gin.Context) {
	v, err := h.services.Monitoring.GetView(c.Request.Context())
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errGetView, "view_get_failed", err)
		return
	}
	c.JSON(http.StatusOK, v)
}

// @Summary      Poll telemetry now
// @Tags         telemetry
// @Produce      json
// @Success      200  {object}  models.Reading
// @Failure      401  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Router       /api/v1/telemetry/poll [post]
// @Security     BearerAuth
func (h *Handler) pollTelemetry(c *gin.Context) {
	rd, err := h.services.Telemetry.PollTelemetry(c.Request.Context())
	if err != nil {
		h.logAndJSONError(c, deviceErrorCode(err), errDeviceRequest, "telemetry_poll_failed", err)
		return
	}
	c.JSON(http.StatusOK, rd)
}

// @Summary      Latest stored reading
// @Tags         telemetry
// @Produce      json
// @Success      200  {object}  models.Reading
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/telemetry/latest [get]
// @Security     BearerAuth
func (h *Handler) latestTelemetry(c *gin.Context) {
	rd, ok, err := h.services.Telemetry.Latest(c.Request.Context())
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errLoadHistory, "telemetry_latest_failed", err)
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no readings yet"})
		return
	}
	c.JSON(http.StatusOK, rd)
}

// @Summary      Reading history
// @Tags         telemetry
// @Produce      json
// @Param        limit  query  int  false  "Max readings, newest first"  example(100)
// @Success      200  {object}  map[string]interface{}  "count, readings"
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/telemetry/history [get]
// @Security     BearerAuth
func (h *Handler) telemetryHistory(c *gin.Context) {
	limit := 0
	if qs := c.Query("limit"); qs != "" {
		n, err := strconv.Atoi(qs)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidLimit})
			return
		}
		limit = n
	}
	readings, err := h.services.Telemetry.History(c.Request.Context(), limit)
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errLoadHistory, "telemetry_history_failed", err, "limit", limit)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(readings), "readings": readings})
}

// @Summary      Connect the device to a WiFi network
// @Description  Accepts JSON {ssid,password} or the page form fields connect_ssid / connect_pass.
// @Tags         wifi
// @Accept       json
// @Produce      json
// @Param        body  body  models.WiFiCredentials  true  "Credentials"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]interface{}
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/wifi/connect [post]
// @Security     BearerAuth
func (h *Handler) connectWiFi(c *gin.Context) {
	var creds models.WiFiCredentials
	if err := c.ShouldBind(&creds); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}
	if err := h.services.WiFi.ConnectWiFi(c.Request.Context(), creds); err != nil {
		var verr *service.ValidationError
		if errors.As(err, &verr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": verr.Error(), "errors": verr.Messages})
			return
		}
		h.logAndJSONError(c, deviceErrorCode(err), errDeviceRequest, "wifi_connect_failed", err)
		return
	}
	h.respondWithView(c, models.StatusConnecting.String(), nil)
}

// @Summary      Check WiFi status now
// @Tags         wifi
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      401  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Router       /api/v1/wifi/status [post]
// @Security     BearerAuth
func (h *Handler) checkWiFiStatus(c *gin.Context) {
	st, err := h.services.WiFi.CheckWiFiStatus(c.Request.Context())
	if err != nil {
		code := deviceErrorCode(err)
		if code == http.StatusConflict {
			c.JSON(code, gin.H{"error": err.Error()})
			return
		}
		h.logAndJSONError(c, code, errDeviceRequest, "wifi_status_failed", err)
		return
	}
	h.respondWithView(c, st.String(), gin.H{"wifi_connect_status": st})
}

// @Summary      Stop WiFi status polling
// @Tags         wifi
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/wifi/status [delete]
// @Security     BearerAuth
func (h *Handler) stopWiFiStatus(c *gin.Context) {
	h.services.WiFi.StopWiFiStatus()
	h.respondWithView(c, "stopped", nil)
}

// @Summary      Submit LED colour ranges
// @Description  All fifteen fields in one request. JSON uses device names, forms use the page IDs.
// @Tags         ranges
// @Accept       json
// @Produce      json
// @Param        body  body  models.RangeConfig  true  "Ranges"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Router       /api/v1/ranges [post]
// @Security     BearerAuth
func (h *Handler) submitRanges(c *gin.Context) {
	var cfg models.RangeConfig
	if err := c.ShouldBind(&cfg); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}
	if err := h.services.Ranges.SubmitRanges(c.Request.Context(), cfg); err != nil {
		h.logAndJSONError(c, deviceErrorCode(err), errDeviceRequest, "ranges_submit_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": statusOK, "ranges": cfg})
}

package devicesim

import (
	"io"
	"net/http"

	"device_console/internal/logger"
	"device_console/internal/models"

	"github.com/gin-gonic/gin"
)

// wifiConnectBody mirrors what the firmware pulls out of /wifiConnect.json.
type wifiConnectBody struct {
	SelectedSSID *string `json:"selectedSSID"`
	Pwd          *string `json:"pwd"`
}

// Router exposes the device endpoints. log may be nil.
func Router(d *Device, log *logger.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/adc_value", func(c *gin.Context) {
		c.String(http.StatusOK, d.adcText())
	})

	r.GET("/ntp_value", func(c *gin.Context) {
		txt, ok := d.ntpText()
		if !ok {
			c.String(http.StatusServiceUnavailable, "time not set")
			return
		}
		c.String(http.StatusOK, txt)
	})

	r.POST("/wifiConnectStatus", func(c *gin.Context) {
		_, _ = io.Copy(io.Discard, c.Request.Body)
		c.JSON(http.StatusOK, models.WiFiStatusResponse{WiFiConnectStatus: d.pollStatus()})
	})

	r.POST("/wifiConnect.json", func(c *gin.Context) {
		var body wifiConnectBody
		if err := c.ShouldBindJSON(&body); err != nil || body.SelectedSSID == nil || body.Pwd == nil {
			if log != nil {
				log.Infow("sim_wifi_connect_bad_body", "err", err)
			}
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing or invalid JSON data fields"})
			return
		}
		if log != nil {
			log.Infow("sim_wifi_connect", "ssid", *body.SelectedSSID)
		}
		d.connect(*body.SelectedSSID, *body.Pwd)
		c.JSON(http.StatusOK, gin.H{"status": "connecting"})
	})

	r.POST("/tempRange.json", func(c *gin.Context) {
		var cfg models.RangeConfig
		if err := c.ShouldBindJSON(&cfg); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON data"})
			return
		}
		tv := d.applyRanges(cfg)
		if log != nil {
			log.Infow("sim_temp_range", "high", []int{tv.HighLower, tv.HighUpper},
				"medium", []int{tv.MediumLower, tv.MediumUpper}, "low", []int{tv.LowLower, tv.LowUpper})
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.POST("/OTAupdate", func(c *gin.Context) {
		fh, err := c.FormFile("file")
		if err != nil {
			c.String(http.StatusBadRequest, "missing file")
			return
		}
		d.recordFirmware(fh.Filename, fh.Size)
		if log != nil {
			log.Infow("sim_ota_update", "file", fh.Filename, "size", fh.Size)
		}
		c.Data(http.StatusOK, "application/octet-stream", []byte("OTA OK"))
	})

	return r
}

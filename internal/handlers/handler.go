package handlers

import (
	"device_console/internal/logger"
	"device_console/internal/service"

	"github.com/gin-gonic/gin"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Handler wires HTTP layer to services and logging.
type Handler struct {
	services *service.Service
	log      *logger.Logger
}

// NewHandler constructs a new HTTP handler with dependencies.
func NewHandler(services *service.Service, log *logger.Logger) *Handler {
	return &Handler{services: services, log: log}
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health endpoint
	router.GET("/health", h.health)

	// Auth endpoints
	h.registerAuthRoutes(router)

	// Versioned API endpoints (protected)
	h.registerAPIRoutes(router)

	// View stream over WebSocket, same port; token via header or ?access_token=
	router.GET("/ws", h.operatorMiddleware, h.wsConnect)

	return router
}

func (h *Handler) registerAuthRoutes(r *gin.Engine) {
	auth := r.Group("/auth")
	{
		auth.POST("/sign-up", h.signUp)
		auth.POST("/sign-in", h.signIn)
	}
}

func (h *Handler) registerAPIRoutes(r *gin.Engine) {
	api := r.Group("/api/v1", h.operatorMiddleware)
	{
		api.GET("/view", h.getView)
		h.registerTelemetryRoutes(api)
		h.registerWiFiRoutes(api)
		api.POST("/ranges", h.submitRanges)
		api.POST("/firmware", h.uploadFirmware)
		h.registerLogRoutes(api)
	}
}

func (h *Handler) registerTelemetryRoutes(api *gin.RouterGroup) {
	telemetry := api.Group("/telemetry")
	{
		telemetry.POST("/poll", h.pollTelemetry)
		telemetry.GET("/latest", h.latestTelemetry)
		telemetry.GET("/history", h.telemetryHistory)
	}
}

func (h *Handler) registerWiFiRoutes(api *gin.RouterGroup) {
	wifi := api.Group("/wifi")
	{
		// JSON {"ssid":"lab","password":"..."} or form connect_ssid / connect_pass
		wifi.POST("/connect", h.connectWiFi)
		wifi.POST("/status", h.checkWiFiStatus)
		wifi.DELETE("/status", h.stopWiFiStatus)
	}
}

func (h *Handler) registerLogRoutes(api *gin.RouterGroup) {
	logs := api.Group("/logs")
	{
		logs.GET("/", h.getLogs)
	}
}

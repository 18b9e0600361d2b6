package routes

import (
	"github.com/labstack/echo/v4"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/onurcolak/checkin-dispatch-service/environments"
	"github.com/onurcolak/checkin-dispatch-service/handlers"
	"github.com/onurcolak/checkin-dispatch-service/internal/middlewares"
)

// RegisterRoutes registers all API routes with middleware
func RegisterRoutes(
	e *echo.Echo,
	healthHandler *handlers.HealthHandler,
	reportHandler *handlers.ReportHandler,
	checkinHandler *handlers.CheckinHandler,
	dispatchHandler *handlers.DispatchHandler,
	metricsHandler echo.HandlerFunc,
	cfg *environments.Config,
) {
	e.GET("/health", healthHandler.Health)
	e.GET("/metrics", metricsHandler)
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// API v1 base group
	v1 := e.Group("/api/v1")

	// Report routes with their own API key
	reportAuth := middlewares.APIKeyAuth("reports", cfg.Auth.ReportsAPIKey)

	v1.GET("/establishments", reportHandler.ListEstablishments, reportAuth)
	reports := v1.Group("/reports", reportAuth)
	reports.POST("", reportHandler.GenerateReport)
	reports.POST("/import", reportHandler.ImportReport)

	// Check-in and dispatch routes share one key
	checkinAuth := middlewares.APIKeyAuth("checkins", cfg.Auth.CheckinsAPIKey)

	checkins := v1.Group("/checkins", checkinAuth)
	checkins.POST("/upload", checkinHandler.Upload)
	checkins.GET("", checkinHandler.ListCheckins)
	checkins.GET("/export", checkinHandler.Export)
	checkins.POST("/send-next", checkinHandler.SendNextPending)
	checkins.POST("/send-selected", checkinHandler.SendSelected)
	checkins.POST("/send-bulk", checkinHandler.SendBulk)
	checkins.POST("/send-all", checkinHandler.SendAll)
	checkins.POST("/:index/send", checkinHandler.SendSingle)
	checkins.POST("/:index/select", checkinHandler.ToggleSelection)

	checkins.GET("/selection", checkinHandler.GetSelection)
	checkins.PUT("/selection", checkinHandler.SetSelection)
	checkins.DELETE("/selection", checkinHandler.ClearSelection)
	checkins.POST("/selection/all", checkinHandler.SelectAll)

	dispatch := v1.Group("/dispatch", checkinAuth)
	dispatch.GET("/status", dispatchHandler.GetStatus)
	dispatch.GET("/history", dispatchHandler.GetHistory)
	dispatch.POST("/history/clear", dispatchHandler.ClearHistory)
}

package http

import (
	"net/http"

	"golang-signal-scryper/pkg/metrics"

	"github.com/labstack/echo/v4"
)

// NewRouter builds the Echo server with every scanner route mounted.
func NewRouter(accounts *AccountHandler, configs *ConfigHandler, scans *ScanHandler) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
	})
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))

	apiV1 := e.Group("/api/v1")
	accounts.RegisterRoutes(apiV1.Group("/accounts"))
	configs.RegisterRoutes(apiV1.Group("/config"))
	scans.RegisterRoutes(apiV1)
	return e
}

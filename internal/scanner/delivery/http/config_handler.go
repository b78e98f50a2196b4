package http

import (
	"net/http"

	"golang-signal-scryper/internal/scanner/dto"
	"golang-signal-scryper/internal/scanner/service"
	"golang-signal-scryper/pkg/logger"

	"github.com/labstack/echo/v4"
)

// ConfigHandler exposes the stored scan config.
type ConfigHandler struct {
	configService service.ConfigService
	logger        *logger.Logger
}

// NewConfigHandler creates a new ConfigHandler.
func NewConfigHandler(configService service.ConfigService, logger *logger.Logger) *ConfigHandler {
	return &ConfigHandler{configService: configService, logger: logger}
}

// RegisterRoutes registers the config routes to the Echo group.
func (h *ConfigHandler) RegisterRoutes(g *echo.Group) {
	g.GET("", h.GetConfig)
	g.PUT("", h.UpdateConfig)
}

// GetConfig godoc
// @Summary Get the scan config
// @Tags config
// @Produce  json
// @Success 200 {object} entity.ScanConfig
// @Failure 500 {object} dto.ErrorResponse
// @Router /config [get]
func (h *ConfigHandler) GetConfig(c echo.Context) error {
	cfg, err := h.configService.GetScanConfig(c.Request().Context())
	if err != nil {
		h.logger.Error("Failed to get scan config", logger.ErrorField(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to get scan config"})
	}
	return c.JSON(http.StatusOK, cfg)
}

// UpdateConfig godoc
// @Summary Update the scan config
// @Description Merge the provided fields into the stored config
// @Tags config
// @Accept  json
// @Produce  json
// @Param   config  body    dto.UpdateScanConfigRequest  true  "Fields to change"
// @Success 200 {object} entity.ScanConfig
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /config [put]
func (h *ConfigHandler) UpdateConfig(c echo.Context) error {
	var req dto.UpdateScanConfigRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request payload"})
	}

	cfg, err := h.configService.UpdateScanConfig(c.Request().Context(), &req)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, cfg)
}

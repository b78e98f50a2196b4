package http

import (
	"net/http"
	"strconv"

	"golang-signal-scryper/internal/entity"
	"golang-signal-scryper/internal/scanner/dto"
	"golang-signal-scryper/internal/scanner/service"
	"golang-signal-scryper/pkg/logger"

	"github.com/labstack/echo/v4"
)

// ScanHandler triggers scans and exposes cycle history.
type ScanHandler struct {
	scanService    service.ScanService
	requestService service.ScanRequestService
	logger         *logger.Logger
}

// NewScanHandler creates a new ScanHandler.
func NewScanHandler(scanService service.ScanService, requestService service.ScanRequestService, logger *logger.Logger) *ScanHandler {
	return &ScanHandler{scanService: scanService, requestService: requestService, logger: logger}
}

// RegisterRoutes registers the scan routes to the Echo group.
func (h *ScanHandler) RegisterRoutes(g *echo.Group) {
	g.POST("/scan", h.Scan)
	g.GET("/scan/status", h.Status)
	g.GET("/cycles", h.ListCycles)
}

// Scan godoc
// @Summary Run a manual scan
// @Description With a handle only that account is scanned, otherwise a full cycle runs. Async requests are queued and return 202.
// @Tags scans
// @Accept  json
// @Produce  json
// @Param   request  body    dto.ScanRequest  false  "Scan options"
// @Success 200 {object} dto.CycleResult
// @Success 202 {object} map[string]string
// @Failure 404 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /scan [post]
func (h *ScanHandler) Scan(c echo.Context) error {
	var req dto.ScanRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request payload"})
	}
	ctx := c.Request().Context()

	if req.Async {
		id, err := h.requestService.Enqueue(ctx, req.Handle)
		if err != nil {
			h.logger.Error("Failed to enqueue scan request", logger.ErrorField(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to enqueue scan request"})
		}
		return c.JSON(http.StatusAccepted, echo.Map{"message_id": id})
	}

	if req.Handle != "" {
		result, err := h.scanService.ScanHandle(ctx, req.Handle)
		if err != nil {
			return errorJSON(c, err)
		}
		return c.JSON(http.StatusOK, result)
	}

	result, err := h.scanService.RunCycle(ctx, entity.CycleTriggerManual)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

// Status godoc
// @Summary Get the scanner state
// @Tags scans
// @Produce  json
// @Success 200 {object} map[string]string
// @Router /scan/status [get]
func (h *ScanHandler) Status(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"state": h.scanService.State()})
}

// ListCycles godoc
// @Summary List recent scan cycles
// @Tags scans
// @Produce  json
// @Param   limit  query   int  false  "Number of cycles"
// @Success 200 {array} dto.ScanCycleResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /cycles [get]
func (h *ScanHandler) ListCycles(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	cycles, err := h.requestService.RecentCycles(c.Request().Context(), limit)
	if err != nil {
		h.logger.Error("Failed to list scan cycles", logger.ErrorField(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to list scan cycles"})
	}
	return c.JSON(http.StatusOK, cycles)
}

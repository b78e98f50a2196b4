package http

import (
	"net/http"
	"strconv"

	"golang-signal-scryper/internal/scanner/dto"
	"golang-signal-scryper/internal/scanner/service"
	"golang-signal-scryper/pkg/logger"

	"github.com/labstack/echo/v4"
)

// AccountHandler handles HTTP requests for monitored accounts.
type AccountHandler struct {
	accountService service.AccountService
	logger         *logger.Logger
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(accountService service.AccountService, logger *logger.Logger) *AccountHandler {
	return &AccountHandler{accountService: accountService, logger: logger}
}

// RegisterRoutes registers the account routes to the Echo group.
func (h *AccountHandler) RegisterRoutes(g *echo.Group) {
	g.GET("", h.ListAccounts)
	g.POST("", h.AddAccount)
	g.POST("/import-following", h.ImportFollowing)
	g.PATCH("/monitoring", h.BatchMonitoring)
	g.GET("/:handle", h.GetAccount)
	g.PATCH("/:handle/monitoring", h.UpdateMonitoring)
	g.PATCH("/:handle/metadata", h.UpdateMetadata)
	g.GET("/:handle/posts", h.ListPosts)
}

// ListAccounts godoc
// @Summary List accounts
// @Description Get a page of accounts filtered by search and monitoring status
// @Tags accounts
// @Produce  json
// @Param   search      query   string  false  "Handle or display name fragment"
// @Param   status      query   string  false  "active or inactive"
// @Param   sort_by     query   string  false  "Sort column"
// @Param   sort_order  query   string  false  "asc or desc"
// @Param   limit       query   int     false  "Page size"
// @Param   offset      query   int     false  "Page offset"
// @Success 200 {object} dto.ListAccountsResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /accounts [get]
func (h *AccountHandler) ListAccounts(c echo.Context) error {
	var req dto.ListAccountsRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid query parameters"})
	}

	resp, err := h.accountService.List(c.Request().Context(), req)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to list accounts"})
	}
	return c.JSON(http.StatusOK, resp)
}

// GetAccount godoc
// @Summary Get an account
// @Description Get a single account by handle
// @Tags accounts
// @Produce  json
// @Param   handle  path    string  true  "Account handle"
// @Success 200 {object} entity.Account
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /accounts/{handle} [get]
func (h *AccountHandler) GetAccount(c echo.Context) error {
	account, err := h.accountService.Get(c.Request().Context(), c.Param("handle"))
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, account)
}

// AddAccount godoc
// @Summary Add an account
// @Description Put a handle under active monitoring
// @Tags accounts
// @Accept  json
// @Produce  json
// @Param   account  body    dto.AddAccountRequest  true  "Account to monitor"
// @Success 201 {object} entity.Account
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /accounts [post]
func (h *AccountHandler) AddAccount(c echo.Context) error {
	var req dto.AddAccountRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request payload"})
	}

	account, err := h.accountService.Add(c.Request().Context(), req.Handle)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusCreated, account)
}

// ImportFollowing godoc
// @Summary Import followed accounts
// @Description Import the accounts followed by a handle as inactive rows
// @Tags accounts
// @Accept  json
// @Produce  json
// @Param   request  body    dto.ImportFollowingRequest  true  "Handle whose following list is imported"
// @Success 200 {object} dto.UpsertResult
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /accounts/import-following [post]
func (h *AccountHandler) ImportFollowing(c echo.Context) error {
	var req dto.ImportFollowingRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request payload"})
	}

	result, err := h.accountService.ImportFollowing(c.Request().Context(), req.Handle)
	if err != nil {
		h.logger.Error("Failed to import following", logger.StringField("handle", req.Handle), logger.ErrorField(err))
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

// UpdateMonitoring godoc
// @Summary Update account monitoring
// @Tags accounts
// @Accept  json
// @Produce  json
// @Param   handle   path    string                       true  "Account handle"
// @Param   request  body    dto.UpdateMonitoringRequest  true  "Monitoring settings"
// @Success 200 {object} entity.Account
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /accounts/{handle}/monitoring [patch]
func (h *AccountHandler) UpdateMonitoring(c echo.Context) error {
	var req dto.UpdateMonitoringRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request payload"})
	}

	account, err := h.accountService.UpdateMonitoring(c.Request().Context(), c.Param("handle"), &req)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, account)
}

// BatchMonitoring godoc
// @Summary Activate or deactivate accounts in bulk
// @Tags accounts
// @Accept  json
// @Produce  json
// @Param   request  body    dto.BatchMonitoringRequest  true  "Handles and target state"
// @Success 200 {object} map[string]int64
// @Failure 400 {object} dto.ErrorResponse
// @Router /accounts/monitoring [patch]
func (h *AccountHandler) BatchMonitoring(c echo.Context) error {
	var req dto.BatchMonitoringRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request payload"})
	}

	updated, err := h.accountService.BatchMonitoring(c.Request().Context(), &req)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"updated": updated})
}

// UpdateMetadata godoc
// @Summary Update account tags and notes
// @Tags accounts
// @Accept  json
// @Produce  json
// @Param   handle   path    string                     true  "Account handle"
// @Param   request  body    dto.UpdateMetadataRequest  true  "Tags and notes"
// @Success 200 {object} entity.Account
// @Failure 404 {object} dto.ErrorResponse
// @Router /accounts/{handle}/metadata [patch]
func (h *AccountHandler) UpdateMetadata(c echo.Context) error {
	var req dto.UpdateMetadataRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request payload"})
	}

	account, err := h.accountService.UpdateMetadata(c.Request().Context(), c.Param("handle"), &req)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, account)
}

// ListPosts godoc
// @Summary List analyzed posts
// @Description Get the stored analyses of one account, newest first
// @Tags accounts
// @Produce  json
// @Param   handle  path    string  true   "Account handle"
// @Param   limit   query   int     false  "Page size"
// @Param   offset  query   int     false  "Page offset"
// @Success 200 {array} entity.PostAnalysis
// @Failure 500 {object} dto.ErrorResponse
// @Router /accounts/{handle}/posts [get]
func (h *AccountHandler) ListPosts(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))

	posts, err := h.accountService.ListPosts(c.Request().Context(), c.Param("handle"), limit, offset)
	if err != nil {
		h.logger.Error("Failed to list posts", logger.StringField("handle", c.Param("handle")), logger.ErrorField(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to list posts"})
	}
	return c.JSON(http.StatusOK, posts)
}

package http

import (
	"errors"
	"net/http"

	"golang-signal-scryper/pkg/common"

	"github.com/labstack/echo/v4"
)

// errorStatus maps service errors to HTTP status codes.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, common.ErrAccountNotFound):
		return http.StatusNotFound
	case errors.Is(err, common.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrCycleInProgress):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func errorJSON(c echo.Context, err error) error {
	return c.JSON(errorStatus(err), echo.Map{"error": err.Error()})
}

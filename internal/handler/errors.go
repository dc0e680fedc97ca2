package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/boxoffice/internal/catalog"
	"github.com/iliyamo/boxoffice/internal/lib/logger/sl"
	"github.com/iliyamo/boxoffice/internal/service"
)

// writeError maps service errors to HTTP responses.  Unexpected errors are
// logged and answered with a generic message.
func writeError(c echo.Context, log *slog.Logger, err error) error {
	var unavailable *service.SeatUnavailableError
	var used *service.AlreadyUsedError

	switch {
	case errors.As(err, &unavailable):
		return c.JSON(http.StatusConflict, echo.Map{"error": "seats unavailable", "unavailable": unavailable.Seats})
	case errors.As(err, &used):
		return c.JSON(http.StatusConflict, echo.Map{"error": "ticket already used", "ticket": used.Ticket})
	case errors.Is(err, service.ErrInvalidInput), errors.Is(err, catalog.ErrInvalidSeat):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": inputMessage(err)})
	case errors.Is(err, service.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	case errors.Is(err, service.ErrOrderNotPaid):
		return c.JSON(http.StatusConflict, echo.Map{"error": "payment not confirmed"})
	case errors.Is(err, service.ErrOrderExpired):
		return c.JSON(http.StatusConflict, echo.Map{"error": "reservation expired"})
	case errors.Is(err, service.ErrUpstream):
		log.Error("upstream failure", slog.String("path", c.Path()), sl.Err(err))
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "payment provider unavailable"})
	default:
		log.Error("request failed", slog.String("path", c.Path()), sl.Err(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
}

// inputMessage drops the operation prefix from a validation error.
func inputMessage(err error) string {
	msg := err.Error()
	for _, marker := range []string{service.ErrInvalidInput.Error(), catalog.ErrInvalidSeat.Error()} {
		if i := strings.Index(msg, marker); i >= 0 {
			return msg[i:]
		}
	}
	return msg
}

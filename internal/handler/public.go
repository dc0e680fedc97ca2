package handler

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/boxoffice/internal/catalog"
	"github.com/iliyamo/boxoffice/internal/service"
)

// PublicHandler exposes read-only endpoints for buyers.  None of them
// require authentication.
type PublicHandler struct {
	Catalog *catalog.Catalog
	Events  *service.Events
	Ledger  *service.Ledger
	Log     *slog.Logger
}

func NewPublicHandler(cat *catalog.Catalog, ev *service.Events, l *service.Ledger, log *slog.Logger) *PublicHandler {
	return &PublicHandler{Catalog: cat, Events: ev, Ledger: l, Log: log}
}

// GetCatalog handles GET /v1/seats/catalog.  It returns the venue's rows and
// pricing tiers.
func (h *PublicHandler) GetCatalog(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"venue":      h.Catalog.Venue(),
		"currency":   h.Catalog.Currency(),
		"categories": h.Catalog.Categories(),
		"rows":       h.Catalog.Rows(),
	})
}

// ListEvents handles GET /v1/events.
func (h *PublicHandler) ListEvents(c echo.Context) error {
	events, err := h.Events.List(c.Request().Context())
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": events})
}

// GetEvent handles GET /v1/events/:id.
func (h *PublicHandler) GetEvent(c echo.Context) error {
	ev, err := h.Events.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, ev)
}

// GetEventSeats handles GET /v1/events/:id/seats.  Each seat of the layout
// is listed with its price and whether it can still be bought; "sold"
// repeats the unavailable ids for clients that only need those.
func (h *PublicHandler) GetEventSeats(c echo.Context) error {
	id := c.Param("id")
	seats, sold, err := h.Ledger.Availability(c.Request().Context(), id)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"event_id": id,
		"seats":    seats,
		"sold":     sold,
	})
}

package handler

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/boxoffice/internal/service"
)

// CheckoutHandler starts online sales.
type CheckoutHandler struct {
	Checkout *service.Checkout
	Log      *slog.Logger
}

func NewCheckoutHandler(co *service.Checkout, log *slog.Logger) *CheckoutHandler {
	return &CheckoutHandler{Checkout: co, Log: log}
}

type checkoutReq struct {
	EventID    string   `json:"event_id" validate:"required"`
	Seats      []string `json:"seats" validate:"required,min=1,max=20,dive,required"`
	BuyerEmail string   `json:"buyer_email" validate:"required,email"`
	BuyerName  string   `json:"buyer_name" validate:"max=120"`
}

// Create handles POST /v1/checkout.  The seats are reserved for the
// reservation window and the buyer is sent to the hosted payment page.
// Seats taken by someone else yield 409 with the conflicting ids.
func (h *CheckoutHandler) Create(c echo.Context) error {
	var req checkoutReq
	if msg := bindValid(c, &req); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	res, err := h.Checkout.Start(c.Request().Context(), service.CheckoutRequest{
		EventID:    req.EventID,
		Seats:      req.Seats,
		BuyerEmail: req.BuyerEmail,
		BuyerName:  req.BuyerName,
	})
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, res)
}

// SessionStatus handles GET /v1/checkout/sessions/:ref.
func (h *CheckoutHandler) SessionStatus(c echo.Context) error {
	status, err := h.Checkout.SessionStatus(c.Request().Context(), c.Param("ref"))
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"payment_status": status})
}

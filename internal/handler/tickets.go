package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/boxoffice/internal/model"
	"github.com/iliyamo/boxoffice/internal/service"
)

// TicketHandler covers everything that happens to tickets after payment:
// minting them, showing them, checking them in and sending them again.
type TicketHandler struct {
	Checkout  *service.Checkout
	Issuer    *service.Issuer
	Validator *service.Validator
	Log       *slog.Logger
}

func NewTicketHandler(co *service.Checkout, is *service.Issuer, v *service.Validator, log *slog.Logger) *TicketHandler {
	return &TicketHandler{Checkout: co, Issuer: is, Validator: v, Log: log}
}

// ----- DTOs -----

type sessionReq struct {
	SessionRef string `json:"session_ref" validate:"required"`
}

type manualReq struct {
	EventID string   `json:"event_id" validate:"required"`
	Seats   []string `json:"seats" validate:"required,min=1,dive,required"`
	Buyer   string   `json:"buyer" validate:"required,max=120"`
	Email   string   `json:"email" validate:"omitempty,email"`
}

type checkinReq struct {
	Token string `json:"token" validate:"required"`
}

type ticketLine struct {
	Token  string `json:"token"`
	SeatID string `json:"seat_id"`
}

type issuanceResp struct {
	OrderID uint64       `json:"order_id"`
	EventID string       `json:"event_id"`
	Tokens  []string     `json:"tokens"`
	Tickets []ticketLine `json:"tickets"`
}

func toIssuanceResp(iss service.Issuance) issuanceResp {
	out := issuanceResp{
		OrderID: iss.Order.ID,
		EventID: iss.Order.EventID,
		Tokens:  iss.Tokens(),
		Tickets: make([]ticketLine, len(iss.Tickets)),
	}
	for i, t := range iss.Tickets {
		out.Tickets[i] = ticketLine{Token: t.Token, SeatID: t.SeatID}
	}
	return out
}

type ticketResp struct {
	Valid   bool         `json:"valid"`
	Reason  string       `json:"reason,omitempty"`
	Token   string       `json:"token"`
	SeatID  string       `json:"seat_id"`
	EventID string       `json:"event_id"`
	UsedAt  *time.Time   `json:"used_at,omitempty"`
	Event   *model.Event `json:"event,omitempty"`
}

// Create handles POST /v1/tickets/create, called when the buyer returns from the
// payment page.  Payment is confirmed with the provider if the webhook has
// not arrived yet.  Calling it again returns the same tokens.
func (h *TicketHandler) Create(c echo.Context) error {
	var req sessionReq
	if msg := bindValid(c, &req); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	ctx := c.Request().Context()
	if _, err := h.Checkout.Confirm(ctx, req.SessionRef); err != nil {
		return writeError(c, h.Log, err)
	}
	iss, err := h.Issuer.IssueForSession(ctx, req.SessionRef)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, toIssuanceResp(iss))
}

// Get handles GET /v1/tickets/:token.  It never consumes the ticket.
func (h *TicketHandler) Get(c echo.Context) error {
	view, err := h.Validator.Lookup(c.Request().Context(), c.Param("token"))
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return c.JSON(http.StatusNotFound, ticketResp{Valid: false, Reason: "not found", Token: c.Param("token")})
		}
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, ticketResp{
		Valid:   view.Valid,
		Reason:  view.Reason,
		Token:   view.Ticket.Token,
		SeatID:  view.Ticket.SeatID,
		EventID: view.Ticket.EventID,
		UsedAt:  view.Ticket.UsedAt,
		Event:   view.Event,
	})
}

// CheckIn handles POST /v1/tickets/checkin.  Entry is granted at most once
// per ticket; a second scan answers 409 with the original check-in.
func (h *TicketHandler) CheckIn(c echo.Context) error {
	var req checkinReq
	if msg := bindValid(c, &req); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	t, err := h.Validator.CheckIn(c.Request().Context(), req.Token)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "ticket not found", "granted": false})
		}
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"granted":  true,
		"seat_id":  t.SeatID,
		"event_id": t.EventID,
		"used_at":  t.UsedAt,
	})
}

// CreateManual handles POST /v1/tickets/manual-create, a cash sale at the door.
func (h *TicketHandler) CreateManual(c echo.Context) error {
	var req manualReq
	if msg := bindValid(c, &req); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	iss, err := h.Issuer.IssueManual(c.Request().Context(), service.ManualSale{
		EventID:   req.EventID,
		Seats:     req.Seats,
		BuyerName: req.Buyer,
		Email:     req.Email,
	})
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, toIssuanceResp(iss))
}

// Resend handles POST /v1/tickets/resend.
func (h *TicketHandler) Resend(c echo.Context) error {
	var req sessionReq
	if msg := bindValid(c, &req); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	iss, err := h.Issuer.Resend(c.Request().Context(), req.SessionRef)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusAccepted, echo.Map{"status": "sent", "tickets": len(iss.Tickets)})
}

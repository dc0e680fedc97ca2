package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/boxoffice/internal/lib/logger/sl"
	"github.com/iliyamo/boxoffice/internal/metrics"
	"github.com/iliyamo/boxoffice/internal/payment"
	"github.com/iliyamo/boxoffice/internal/service"
)

// maxWebhookBody bounds a provider delivery.  Larger bodies are refused
// with 413 instead of being truncated.
const maxWebhookBody = 1 << 20

// WebhookHandler receives payment completion signals from the provider.
type WebhookHandler struct {
	Gateway payment.Gateway
	Ledger  *service.Ledger
	Issuer  *service.Issuer
	Metrics *metrics.Metrics
	Log     *slog.Logger
}

func NewWebhookHandler(gw payment.Gateway, l *service.Ledger, is *service.Issuer, m *metrics.Metrics, log *slog.Logger) *WebhookHandler {
	return &WebhookHandler{Gateway: gw, Ledger: l, Issuer: is, Metrics: m, Log: log}
}

// Payment handles POST /v1/webhooks/payment.  Only signed deliveries are
// accepted.  A completed session marks its order paid and issues the
// tickets; every other event is acknowledged and ignored.  Deliveries may
// repeat, and repeating one changes nothing.
func (h *WebhookHandler) Payment(c echo.Context) error {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxWebhookBody+1))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unreadable body"})
	}
	if len(body) > maxWebhookBody {
		h.Log.Error("webhook body too large", slog.Int("limit", maxWebhookBody))
		return c.JSON(http.StatusRequestEntityTooLarge, echo.Map{"error": "payload too large"})
	}
	ev, err := h.Gateway.ParseCompletion(body, c.Request().Header.Get("Stripe-Signature"))
	if err != nil {
		if errors.Is(err, payment.ErrInvalidSignature) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid signature"})
		}
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid payload"})
	}
	h.Metrics.Webhook(ev.EventType)
	if !ev.Completed || ev.Ref == "" {
		return c.JSON(http.StatusOK, echo.Map{"received": true})
	}

	ctx := c.Request().Context()
	log := h.Log.With(slog.String("session_ref", ev.Ref))
	if _, err := h.Ledger.MarkPaid(ctx, ev.Ref); err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			log.Warn("payment for unknown session")
		case errors.Is(err, service.ErrOrderExpired):
			log.Warn("payment arrived after the reservation closed")
		default:
			// Answer with an error so the provider retries the delivery.
			return writeError(c, h.Log, err)
		}
		return c.JSON(http.StatusOK, echo.Map{"received": true})
	}
	if _, err := h.Issuer.IssueForSession(ctx, ev.Ref); err != nil {
		if errors.Is(err, service.ErrOrderExpired) || errors.Is(err, service.ErrOrderNotPaid) {
			log.Warn("payment confirmed but tickets not issued", sl.Err(err))
			return c.JSON(http.StatusOK, echo.Map{"received": true})
		}
		// A failed write is answered with an error so the provider redelivers.
		return writeError(c, log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"received": true})
}

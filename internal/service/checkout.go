package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/iliyamo/boxoffice/internal/lib/logger/sl"
	"github.com/iliyamo/boxoffice/internal/model"
	"github.com/iliyamo/boxoffice/internal/payment"
)

// CheckoutRequest is a buyer's seat selection.
type CheckoutRequest struct {
	EventID    string
	Seats      []string
	BuyerEmail string
	BuyerName  string
}

// CheckoutResult tells the buyer where to pay.
type CheckoutResult struct {
	OrderID     uint64    `json:"order_id"`
	SessionRef  string    `json:"session_ref"`
	RedirectURL string    `json:"redirect_url"`
	ExpiresAt   time.Time `json:"expires_at"`
	TotalCents  int64     `json:"total_cents"`
	Currency    string    `json:"currency"`
	Seats       []string  `json:"seats"`
}

// Checkout orchestrates a sale: reserve, open a payment session, bind it.
type Checkout struct {
	ledger  *Ledger
	gateway payment.Gateway
	baseURL string
	log     *slog.Logger
}

// NewCheckout wires checkout.  baseURL is where the buyer returns after
// paying or cancelling.
func NewCheckout(ledger *Ledger, gateway payment.Gateway, baseURL string, log *slog.Logger) *Checkout {
	if ledger == nil || gateway == nil {
		panic("nil dependency passed to NewCheckout")
	}
	if log == nil {
		log = slog.Default()
	}
	return &Checkout{
		ledger:  ledger,
		gateway: gateway,
		baseURL: strings.TrimRight(baseURL, "/"),
		log:     log.With(slog.String("component", "checkout")),
	}
}

// Start reserves the seats and opens a hosted checkout session for them.
// When the session cannot be opened the reservation is released and
// ErrUpstream is returned.
func (c *Checkout) Start(ctx context.Context, req CheckoutRequest) (CheckoutResult, error) {
	const op = "service.Checkout.Start"

	res, err := c.ledger.Reserve(ctx, ReserveRequest{
		EventID:    req.EventID,
		Seats:      req.Seats,
		BuyerEmail: req.BuyerEmail,
		BuyerName:  req.BuyerName,
		Source:     model.SourceCheckout,
	})
	if err != nil {
		return CheckoutResult{}, fmt.Errorf("%s: %w", op, err)
	}

	cat := c.ledger.Catalog()
	items := make([]payment.LineItem, 0, len(res.Items))
	for _, it := range res.Items {
		li := payment.LineItem{Name: "Butaca " + it.SeatID, AmountCents: it.PriceCents, Quantity: 1}
		if seat, err := cat.Lookup(it.SeatID); err == nil {
			li.Description = seat.Category.Label
		}
		items = append(items, li)
	}
	expires := *res.Order.ExpiresAt
	sess, err := c.gateway.CreateSession(ctx, payment.SessionRequest{
		OrderID:    res.Order.ID,
		EventID:    res.Order.EventID,
		BuyerEmail: res.Order.BuyerEmail,
		Currency:   cat.Currency(),
		LineItems:  items,
		SuccessURL: c.baseURL + "/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:  c.baseURL + "/events/" + url.PathEscape(res.Order.EventID),
		ExpiresAt:  expires,
	})
	if err != nil {
		c.release(ctx, res.Order.ID)
		c.log.Error("open payment session", slog.Uint64("order_id", res.Order.ID), sl.Err(err))
		return CheckoutResult{}, fmt.Errorf("%s: %w: %v", op, ErrUpstream, err)
	}
	if err := c.ledger.AttachSession(ctx, res.Order.ID, sess.Ref); err != nil {
		c.release(ctx, res.Order.ID)
		return CheckoutResult{}, fmt.Errorf("%s: %w", op, err)
	}
	// The seats stay held for as long as the session can be paid.
	if sess.ExpiresAt.After(expires) {
		if err := c.ledger.ExtendHold(ctx, res.Order.ID, sess.ExpiresAt); err != nil {
			c.release(ctx, res.Order.ID)
			return CheckoutResult{}, fmt.Errorf("%s: %w", op, err)
		}
		expires = sess.ExpiresAt
	}

	return CheckoutResult{
		OrderID:     res.Order.ID,
		SessionRef:  sess.Ref,
		RedirectURL: sess.RedirectURL,
		ExpiresAt:   expires,
		TotalCents:  res.Order.TotalCents,
		Currency:    cat.Currency(),
		Seats:       res.Seats(),
	}, nil
}

// Confirm handles the buyer's return from the checkout page.  The return
// alone proves nothing, so an unpaid order is checked with the provider
// and only marked paid when the provider says so.
func (c *Checkout) Confirm(ctx context.Context, ref string) (model.Order, error) {
	const op = "service.Checkout.Confirm"

	order, err := c.ledger.OrderBySession(ctx, ref)
	if err != nil {
		return model.Order{}, fmt.Errorf("%s: %w", op, err)
	}
	if !order.Paid {
		status, err := c.gateway.RetrieveStatus(ctx, order.SessionRef)
		if err != nil {
			return model.Order{}, fmt.Errorf("%s: %w: %v", op, ErrUpstream, err)
		}
		if status != payment.StatusPaid {
			return model.Order{}, fmt.Errorf("%s: %w", op, ErrOrderNotPaid)
		}
		if _, err := c.ledger.MarkPaid(ctx, order.SessionRef); err != nil {
			return model.Order{}, fmt.Errorf("%s: %w", op, err)
		}
		if order, err = c.ledger.OrderBySession(ctx, ref); err != nil {
			return model.Order{}, fmt.Errorf("%s: %w", op, err)
		}
	}
	if order.Status != model.OrderPaid {
		return model.Order{}, fmt.Errorf("%s: %w", op, ErrOrderExpired)
	}
	return order, nil
}

// SessionStatus passes the provider's payment status through.
func (c *Checkout) SessionStatus(ctx context.Context, ref string) (payment.Status, error) {
	const op = "service.Checkout.SessionStatus"

	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", fmt.Errorf("%s: %w: session reference is required", op, ErrInvalidInput)
	}
	status, err := c.gateway.RetrieveStatus(ctx, ref)
	if err != nil {
		return "", fmt.Errorf("%s: %w: %v", op, ErrUpstream, err)
	}
	return status, nil
}

func (c *Checkout) release(ctx context.Context, orderID uint64) {
	if err := c.ledger.Release(context.WithoutCancel(ctx), orderID); err != nil && !errors.Is(err, context.Canceled) {
		c.log.Error("release reservation", slog.Uint64("order_id", orderID), sl.Err(err))
	}
}

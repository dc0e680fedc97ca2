package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
)

// minSessionTTL is the shortest expiry Stripe accepts for a checkout session.
const minSessionTTL = 30 * time.Minute

// Stripe implements Gateway with Stripe Checkout.
type Stripe struct {
	api           *client.API
	webhookSecret string
	now           func() time.Time
}

// NewStripe builds a gateway with its own API client; no package level
// Stripe state is touched.
func NewStripe(secretKey, webhookSecret string) *Stripe {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &Stripe{api: api, webhookSecret: webhookSecret, now: time.Now}
}

// CreateSession opens a payment-mode checkout session with one line item
// per seat.  The session expires together with the reservation, but never
// sooner than Stripe's minimum.
func (s *Stripe) CreateSession(ctx context.Context, req SessionRequest) (Session, error) {
	const op = "payment.Stripe.CreateSession"

	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(req.SuccessURL),
		CancelURL:         stripe.String(req.CancelURL),
		ClientReferenceID: stripe.String(strconv.FormatUint(req.OrderID, 10)),
	}
	params.Context = ctx
	if req.BuyerEmail != "" {
		params.CustomerEmail = stripe.String(req.BuyerEmail)
	}
	for _, li := range req.LineItems {
		qty := li.Quantity
		if qty <= 0 {
			qty = 1
		}
		params.LineItems = append(params.LineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(req.Currency),
				UnitAmount: stripe.Int64(li.AmountCents),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name:        stripe.String(li.Name),
					Description: stripe.String(li.Description),
				},
			},
			Quantity: stripe.Int64(qty),
		})
	}
	expires := req.ExpiresAt
	if floor := s.now().Add(minSessionTTL); expires.Before(floor) {
		expires = floor
	}
	params.ExpiresAt = stripe.Int64(expires.Unix())
	params.AddMetadata("order_id", strconv.FormatUint(req.OrderID, 10))
	params.AddMetadata("event_id", req.EventID)

	sess, err := s.api.CheckoutSessions.New(params)
	if err != nil {
		return Session{}, fmt.Errorf("%s: %w", op, err)
	}
	return Session{Ref: sess.ID, RedirectURL: sess.URL, ExpiresAt: time.Unix(sess.ExpiresAt, 0).UTC()}, nil
}

// RetrieveStatus reports whether the session has been paid.
func (s *Stripe) RetrieveStatus(ctx context.Context, ref string) (Status, error) {
	const op = "payment.Stripe.RetrieveStatus"

	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	sess, err := s.api.CheckoutSessions.Get(ref, params)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if sess.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid {
		return StatusPaid, nil
	}
	return StatusUnpaid, nil
}

// ParseCompletion verifies the Stripe-Signature header and extracts the
// session reference.  Events other than a paid session completion come
// back with Completed false.
func (s *Stripe) ParseCompletion(payload []byte, signature string) (Completion, error) {
	const op = "payment.Stripe.ParseCompletion"

	event, err := webhook.ConstructEventWithOptions(payload, signature, s.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return Completion{}, fmt.Errorf("%s: %w: %v", op, ErrInvalidSignature, err)
	}
	out := Completion{EventType: string(event.Type)}

	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted, stripe.EventTypeCheckoutSessionAsyncPaymentSucceeded:
	default:
		return out, nil
	}
	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		return Completion{}, fmt.Errorf("%s: decode session: %w", op, err)
	}
	out.Ref = sess.ID
	out.Completed = sess.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid
	return out, nil
}

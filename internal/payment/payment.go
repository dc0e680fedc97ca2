// Package payment is the boundary to the hosted checkout provider.  The
// rest of the service only depends on the Gateway interface: it creates a
// session for an order, asks whether a session has been paid and turns a
// signed webhook delivery into a completion signal.
package payment

import (
	"context"
	"errors"
	"time"
)

// ErrInvalidSignature is returned by ParseCompletion when the webhook
// payload cannot be authenticated.
var ErrInvalidSignature = errors.New("invalid webhook signature")

// Status is the payment state of a checkout session.
type Status string

const (
	StatusPaid   Status = "paid"
	StatusUnpaid Status = "unpaid"
)

// LineItem is one seat on the hosted checkout page.
type LineItem struct {
	Name        string
	Description string
	AmountCents int64
	Quantity    int64
}

// SessionRequest describes the checkout session to open for an order.
type SessionRequest struct {
	OrderID    uint64
	EventID    string
	BuyerEmail string
	Currency   string
	LineItems  []LineItem
	SuccessURL string
	CancelURL  string
	ExpiresAt  time.Time
}

// Session is the provider's answer: the reference that identifies the
// payment and the URL the buyer is redirected to.
type Session struct {
	Ref         string
	RedirectURL string
	ExpiresAt   time.Time
}

// Completion is a verified webhook delivery.  Completed is true only for
// events that mean the funds were received.
type Completion struct {
	EventType string
	Ref       string
	Completed bool
}

// Gateway is the Payment Gate.
type Gateway interface {
	CreateSession(ctx context.Context, req SessionRequest) (Session, error)
	RetrieveStatus(ctx context.Context, ref string) (Status, error)
	ParseCompletion(payload []byte, signature string) (Completion, error)
}

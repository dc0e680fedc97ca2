// Package paymenttest provides an in-memory payment.Gateway for tests.
package paymenttest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/iliyamo/boxoffice/internal/payment"
)

// Signature is the only webhook signature the fake accepts.
const Signature = "t=0,v1=test"

// Gateway records sessions in memory.  Buyers "pay" by calling Pay.
type Gateway struct {
	mu       sync.Mutex
	seq      int
	sessions map[string]*Session

	// CreateErr, when set, makes CreateSession fail.
	CreateErr error
	// Expiry, when set, replaces the requested session expiry the way a
	// provider enforcing a minimum lifetime would.
	Expiry time.Time
}

// Session is what the fake remembers about one checkout.
type Session struct {
	Request payment.SessionRequest
	Paid    bool
}

// New returns an empty fake gateway.
func New() *Gateway {
	return &Gateway{sessions: make(map[string]*Session)}
}

func (g *Gateway) CreateSession(_ context.Context, req payment.SessionRequest) (payment.Session, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.CreateErr != nil {
		return payment.Session{}, g.CreateErr
	}
	g.seq++
	ref := fmt.Sprintf("cs_test_%d", g.seq)
	g.sessions[ref] = &Session{Request: req}
	expires := req.ExpiresAt
	if !g.Expiry.IsZero() {
		expires = g.Expiry
	}
	return payment.Session{
		Ref:         ref,
		RedirectURL: "https://checkout.test/pay/" + ref,
		ExpiresAt:   expires,
	}, nil
}

func (g *Gateway) RetrieveStatus(_ context.Context, ref string) (payment.Status, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	s, ok := g.sessions[ref]
	if !ok {
		return "", errors.New("no such checkout session: " + ref)
	}
	if s.Paid {
		return payment.StatusPaid, nil
	}
	return payment.StatusUnpaid, nil
}

// webhookBody is the fake wire format for deliveries.
type webhookBody struct {
	Type string `json:"type"`
	Ref  string `json:"ref"`
	Paid bool   `json:"paid"`
}

func (g *Gateway) ParseCompletion(payload []byte, signature string) (payment.Completion, error) {
	if signature != Signature {
		return payment.Completion{}, payment.ErrInvalidSignature
	}
	var b webhookBody
	if err := json.Unmarshal(payload, &b); err != nil {
		return payment.Completion{}, err
	}
	return payment.Completion{
		EventType: b.Type,
		Ref:       b.Ref,
		Completed: b.Type == "checkout.session.completed" && b.Paid,
	}, nil
}

// Pay marks a session paid at the provider.
func (g *Gateway) Pay(ref string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if s, ok := g.sessions[ref]; ok {
		s.Paid = true
	}
}

// Get returns a copy of a recorded session.
func (g *Gateway) Get(ref string) (Session, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	s, ok := g.sessions[ref]
	if !ok {
		return Session{}, false
	}
	return *s, true
}

// CompletedPayload builds a signed-looking completion delivery for ref.
func CompletedPayload(ref string) []byte {
	b, _ := json.Marshal(webhookBody{Type: "checkout.session.completed", Ref: ref, Paid: true})
	return b
}

// EventPayload builds a delivery of an arbitrary event type.
func EventPayload(eventType, ref string) []byte {
	b, _ := json.Marshal(webhookBody{Type: eventType, Ref: ref})
	return b
}

var _ payment.Gateway = (*Gateway)(nil)

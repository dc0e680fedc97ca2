// Package service implements the box office's business operations on top
// of the repositories: reserving seats, recording payments, minting tickets
// and checking them in.  Every invariant that spans records is enforced by
// a unique key or a conditional update in the store, never by a read
// followed by a write, so the services hold no locks.
package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/iliyamo/boxoffice/internal/catalog"
	"github.com/iliyamo/boxoffice/internal/lib/logger/sl"
	"github.com/iliyamo/boxoffice/internal/metrics"
	"github.com/iliyamo/boxoffice/internal/model"
	"github.com/iliyamo/boxoffice/internal/repository"
)

// Seat states published to the realtime channel.
const (
	SeatSold      = "sold"
	SeatAvailable = "available"
)

// SeatBroadcaster receives seat state changes after they are committed.
// Implementations are best-effort: errors are logged by the caller.
type SeatBroadcaster interface {
	SeatsChanged(ctx context.Context, eventID string, seats []string, status string) error
}

// ReserveRequest describes the seats a buyer wants.
type ReserveRequest struct {
	EventID    string
	Seats      []string
	BuyerEmail string
	BuyerName  string
	Source     model.OrderSource
	// Paid creates the order already paid.  Staff cash sales use it.
	Paid       bool
	SessionRef string
}

// Reservation is a committed order together with its seats.
type Reservation struct {
	Order model.Order
	Items []model.OrderSeat
}

// Seats returns the reserved seat ids.
func (r Reservation) Seats() []string {
	out := make([]string, len(r.Items))
	for i, it := range r.Items {
		out[i] = it.SeatID
	}
	return out
}

// SeatStatus is one entry of an event's seat map.
type SeatStatus struct {
	ID         string `json:"id"`
	Row        string `json:"row"`
	Col        int    `json:"col"`
	Category   string `json:"category"`
	Label      string `json:"label"`
	PriceCents int64  `json:"price_cents"`
	Status     string `json:"status"`
}

// Ledger is the Sale Ledger: it owns orders and the seat reservations that
// hang off them.
type Ledger struct {
	orders  *repository.OrderRepo
	events  *repository.EventRepo
	catalog *catalog.Catalog
	ttl     time.Duration
	seats   SeatBroadcaster
	metrics *metrics.Metrics
	log     *slog.Logger

	// Now is the clock; tests replace it.
	Now func() time.Time
}

// NewLedger wires a ledger.  broadcaster and m may be nil.
func NewLedger(orders *repository.OrderRepo, events *repository.EventRepo, cat *catalog.Catalog,
	ttl time.Duration, broadcaster SeatBroadcaster, m *metrics.Metrics, log *slog.Logger) *Ledger {
	if orders == nil || events == nil || cat == nil {
		panic("nil dependency passed to NewLedger")
	}
	if log == nil {
		log = slog.Default()
	}
	return &Ledger{
		orders:  orders,
		events:  events,
		catalog: cat,
		ttl:     ttl,
		seats:   broadcaster,
		metrics: m,
		log:     log.With(slog.String("component", "ledger")),
		Now:     func() time.Time { return time.Now().UTC() },
	}
}

// Catalog exposes the seat catalog the ledger prices against.
func (l *Ledger) Catalog() *catalog.Catalog { return l.catalog }

// TTL is the reservation window of unpaid orders.
func (l *Ledger) TTL() time.Duration { return l.ttl }

// SoldSeats lists the seats of an event that are paid or held by an unpaid
// order still inside its window, in catalog order.
func (l *Ledger) SoldSeats(ctx context.Context, eventID string) ([]string, error) {
	const op = "service.Ledger.SoldSeats"

	if _, err := l.event(ctx, eventID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	sold, err := l.orders.SoldSeats(ctx, eventID, l.Now())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	l.catalog.Order(sold)
	if sold == nil {
		sold = []string{}
	}
	return sold, nil
}

// Availability joins the catalog with SoldSeats into a seat map.
func (l *Ledger) Availability(ctx context.Context, eventID string) ([]SeatStatus, []string, error) {
	sold, err := l.SoldSeats(ctx, eventID)
	if err != nil {
		return nil, nil, err
	}
	taken := make(map[string]bool, len(sold))
	for _, s := range sold {
		taken[s] = true
	}
	all := l.catalog.Seats()
	out := make([]SeatStatus, len(all))
	for i, s := range all {
		status := SeatAvailable
		if taken[s.ID] {
			status = SeatSold
		}
		out[i] = SeatStatus{
			ID:         s.ID,
			Row:        s.Row,
			Col:        s.Col,
			Category:   s.Category.Name,
			Label:      s.Category.Label,
			PriceCents: s.Category.PriceCents,
			Status:     status,
		}
	}
	return out, sold, nil
}

// Reserve creates an order and claims its seats in one transaction.  Stale
// reservations of the event are expired first so their seats can be taken.
// A seat held by another live order makes the whole call fail with a
// *SeatUnavailableError and nothing is written.
func (l *Ledger) Reserve(ctx context.Context, req ReserveRequest) (Reservation, error) {
	const op = "service.Ledger.Reserve"

	req.EventID = strings.TrimSpace(req.EventID)
	req.BuyerEmail = strings.ToLower(strings.TrimSpace(req.BuyerEmail))
	req.BuyerName = strings.TrimSpace(req.BuyerName)
	if req.Source == "" {
		req.Source = model.SourceCheckout
	}
	if req.EventID == "" {
		return Reservation{}, fmt.Errorf("%s: %w: event id is required", op, ErrInvalidInput)
	}
	if req.BuyerEmail != "" {
		if _, err := mail.ParseAddress(req.BuyerEmail); err != nil {
			return Reservation{}, fmt.Errorf("%s: %w: invalid email", op, ErrInvalidInput)
		}
	} else if req.Source == model.SourceCheckout {
		return Reservation{}, fmt.Errorf("%s: %w: buyer email is required", op, ErrInvalidInput)
	}
	seats, err := l.catalog.Normalize(req.Seats)
	if err != nil {
		return Reservation{}, fmt.Errorf("%s: %w: %w", op, ErrInvalidInput, err)
	}
	if _, err := l.event(ctx, req.EventID); err != nil {
		return Reservation{}, fmt.Errorf("%s: %w", op, err)
	}

	now := l.Now()
	order := model.Order{
		EventID:    req.EventID,
		BuyerEmail: req.BuyerEmail,
		BuyerName:  req.BuyerName,
		SessionRef: req.SessionRef,
		Source:     req.Source,
		Status:     model.OrderPending,
		CreatedAt:  now,
	}
	if req.Paid {
		order.Paid = true
		order.Status = model.OrderPaid
		order.PaidAt = &now
	} else {
		exp := now.Add(l.ttl)
		order.ExpiresAt = &exp
	}
	items := make([]model.OrderSeat, len(seats))
	for i, s := range seats {
		price, err := l.catalog.PriceOf(s)
		if err != nil {
			return Reservation{}, fmt.Errorf("%s: %w: %w", op, ErrInvalidInput, err)
		}
		items[i] = model.OrderSeat{EventID: req.EventID, SeatID: s, PriceCents: price}
		order.TotalCents += price
	}

	released, err := l.reserveTx(ctx, &order, items)
	if errors.Is(err, repository.ErrConflict) {
		// the transaction is rolled back; report which seats are held
		taken, qerr := l.orders.TakenAmong(ctx, req.EventID, seats)
		if qerr != nil {
			l.log.Warn("list taken seats", sl.Err(qerr))
		}
		if len(taken) == 0 {
			taken = seats
		}
		l.catalog.Order(taken)
		l.metrics.Reservation(string(req.Source), "conflict")
		return Reservation{}, fmt.Errorf("%s: %w", op, &SeatUnavailableError{Seats: taken})
	}
	if err != nil {
		l.metrics.Reservation(string(req.Source), "error")
		return Reservation{}, fmt.Errorf("%s: %w", op, err)
	}
	for i := range items {
		items[i].OrderID = order.ID
	}
	l.metrics.Reservation(string(req.Source), "ok")

	l.announceReleased(ctx, released)
	l.broadcast(ctx, req.EventID, seats, SeatSold)

	l.log.Info("seats reserved",
		slog.Uint64("order_id", order.ID),
		slog.String("event_id", order.EventID),
		slog.Any("seats", seats),
		slog.String("source", string(order.Source)),
	)
	return Reservation{Order: order, Items: items}, nil
}

func (l *Ledger) reserveTx(ctx context.Context, order *model.Order, items []model.OrderSeat) ([]model.OrderSeat, error) {
	tx, err := l.orders.DB().BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	released, err := l.orders.ExpireStaleTx(ctx, tx, order.EventID, order.CreatedAt)
	if err != nil {
		return nil, err
	}
	if err := l.orders.CreateTx(ctx, tx, order); err != nil {
		return nil, err
	}
	for i := range items {
		items[i].OrderID = order.ID
	}
	if err := l.orders.CreateItemsTx(ctx, tx, items); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return released, nil
}

// AttachSession binds the payment session reference to an order.
func (l *Ledger) AttachSession(ctx context.Context, orderID uint64, ref string) error {
	const op = "service.Ledger.AttachSession"

	if strings.TrimSpace(ref) == "" {
		return fmt.Errorf("%s: %w: session reference is required", op, ErrInvalidInput)
	}
	if err := l.orders.AttachSession(ctx, orderID, ref); err != nil {
		return fmt.Errorf("%s: %w", op, mapRepoErr(err))
	}
	return nil
}

// ExtendHold keeps an unpaid order's seats until the given time.  Checkout
// uses it when the payment session outlives the reservation window.
func (l *Ledger) ExtendHold(ctx context.Context, orderID uint64, until time.Time) error {
	const op = "service.Ledger.ExtendHold"

	if _, err := l.orders.ExtendHold(ctx, orderID, until.UTC()); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Release cancels a pending order and frees its seats.  It is used when the
// payment session could not be opened.  Paid or already closed orders are
// left alone.
func (l *Ledger) Release(ctx context.Context, orderID uint64) error {
	const op = "service.Ledger.Release"

	released, err := l.orders.Release(ctx, orderID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	l.announceReleased(ctx, released)
	return nil
}

// MarkPaid records the payment completion signal for a session.  The flip
// from unpaid to paid happens once; later calls report changed=false and no
// error.  A payment that lands on an expired reservation is recorded but
// reported with ErrOrderExpired since its seats may have been resold.
func (l *Ledger) MarkPaid(ctx context.Context, ref string) (bool, error) {
	const op = "service.Ledger.MarkPaid"

	ref = strings.TrimSpace(ref)
	if ref == "" {
		return false, fmt.Errorf("%s: %w: session reference is required", op, ErrInvalidInput)
	}
	changed, err := l.orders.MarkPaid(ctx, ref, l.Now())
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, mapRepoErr(err))
	}
	order, err := l.orders.GetBySession(ctx, ref)
	if err != nil {
		return changed, fmt.Errorf("%s: %w", op, mapRepoErr(err))
	}
	if order.Status == model.OrderExpired || order.Status == model.OrderCancelled {
		if changed {
			l.metrics.Payment("late")
			l.log.Warn("payment received for closed reservation",
				slog.Uint64("order_id", order.ID),
				slog.String("session_ref", ref),
				slog.String("status", string(order.Status)),
			)
		}
		return changed, fmt.Errorf("%s: %w", op, ErrOrderExpired)
	}
	if changed {
		l.metrics.Payment("paid")
		l.log.Info("order paid", slog.Uint64("order_id", order.ID), slog.String("session_ref", ref))
	} else {
		l.metrics.Payment("duplicate")
	}
	return changed, nil
}

// ExpireStale closes every overdue unpaid order (of one event, or of all
// events when eventID is empty) and returns how many seats were released.
func (l *Ledger) ExpireStale(ctx context.Context, eventID string) (int, error) {
	const op = "service.Ledger.ExpireStale"

	released, err := l.orders.ExpireStale(ctx, eventID, l.Now())
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	l.announceReleased(ctx, released)
	return len(released), nil
}

// Order returns an order by id.
func (l *Ledger) Order(ctx context.Context, id uint64) (model.Order, error) {
	o, err := l.orders.GetByID(ctx, id)
	if err != nil {
		return model.Order{}, fmt.Errorf("service.Ledger.Order: %w", mapRepoErr(err))
	}
	return o, nil
}

// OrderBySession returns the order bound to a payment session.
func (l *Ledger) OrderBySession(ctx context.Context, ref string) (model.Order, error) {
	o, err := l.orders.GetBySession(ctx, strings.TrimSpace(ref))
	if err != nil {
		return model.Order{}, fmt.Errorf("service.Ledger.OrderBySession: %w", mapRepoErr(err))
	}
	return o, nil
}

func (l *Ledger) event(ctx context.Context, id string) (model.Event, error) {
	e, err := l.events.GetByID(ctx, id)
	if err != nil {
		return model.Event{}, mapRepoErr(err)
	}
	return e, nil
}

// announceReleased publishes freed seats grouped by event and counts them.
func (l *Ledger) announceReleased(ctx context.Context, released []model.OrderSeat) {
	if len(released) == 0 {
		return
	}
	l.metrics.SeatsExpired(len(released))
	byEvent := make(map[string][]string)
	var order []string
	for _, it := range released {
		if _, ok := byEvent[it.EventID]; !ok {
			order = append(order, it.EventID)
		}
		byEvent[it.EventID] = append(byEvent[it.EventID], it.SeatID)
	}
	for _, ev := range order {
		seats := byEvent[ev]
		l.catalog.Order(seats)
		l.log.Info("seats released", slog.String("event_id", ev), slog.Any("seats", seats))
		l.broadcast(ctx, ev, seats, SeatAvailable)
	}
}

func (l *Ledger) broadcast(ctx context.Context, eventID string, seats []string, status string) {
	if l.seats == nil || len(seats) == 0 {
		return
	}
	if err := l.seats.SeatsChanged(ctx, eventID, seats, status); err != nil {
		l.log.Warn("seat broadcast failed", slog.String("event_id", eventID), sl.Err(err))
	}
}

// mapRepoErr translates repository sentinels into service sentinels.
func mapRepoErr(err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound), errors.Is(err, sql.ErrNoRows):
		return ErrNotFound
	case errors.Is(err, repository.ErrConflict):
		return fmt.Errorf("%w: session already attached", ErrInvalidInput)
	default:
		return err
	}
}

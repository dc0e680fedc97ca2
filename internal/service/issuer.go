package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/boxoffice/internal/catalog"
	"github.com/iliyamo/boxoffice/internal/lib/logger/sl"
	"github.com/iliyamo/boxoffice/internal/metrics"
	"github.com/iliyamo/boxoffice/internal/model"
	"github.com/iliyamo/boxoffice/internal/repository"
)

// Notifier hands issued tickets to the buyer.  Delivery is best-effort: a
// failing notifier never undoes issuance.
type Notifier interface {
	NotifyTickets(ctx context.Context, d model.TicketDelivery) error
}

// Issuance is the result of minting tickets for an order.  Tickets holds
// every ticket of the order, Created how many were minted by this call.
type Issuance struct {
	Order   model.Order
	Tickets []model.Ticket
	Created int
}

// Tokens lists the ticket tokens in seat order.
func (i Issuance) Tokens() []string {
	out := make([]string, len(i.Tickets))
	for n, t := range i.Tickets {
		out[n] = t.Token
	}
	return out
}

// ManualSale is a cash sale recorded at the door by staff.
type ManualSale struct {
	EventID   string
	Seats     []string
	BuyerName string
	Email     string
}

// Issuer is the Ticket Issuer.
type Issuer struct {
	ledger   *Ledger
	orders   *repository.OrderRepo
	tickets  *repository.TicketRepo
	events   *repository.EventRepo
	catalog  *catalog.Catalog
	notifier Notifier
	metrics  *metrics.Metrics
	log      *slog.Logger

	// Now and NewToken are replaceable in tests.
	Now      func() time.Time
	NewToken func() string
}

// NewIssuer wires an issuer.  notifier and m may be nil.
func NewIssuer(ledger *Ledger, orders *repository.OrderRepo, tickets *repository.TicketRepo, events *repository.EventRepo,
	notifier Notifier, m *metrics.Metrics, log *slog.Logger) *Issuer {
	if ledger == nil || orders == nil || tickets == nil || events == nil {
		panic("nil dependency passed to NewIssuer")
	}
	if log == nil {
		log = slog.Default()
	}
	return &Issuer{
		ledger:   ledger,
		orders:   orders,
		tickets:  tickets,
		events:   events,
		catalog:  ledger.Catalog(),
		notifier: notifier,
		metrics:  m,
		log:      log.With(slog.String("component", "issuer")),
		Now:      func() time.Time { return time.Now().UTC() },
		NewToken: uuid.NewString,
	}
}

// IssueTickets mints one ticket per seat of a paid order.  Seats that
// already carry a ticket are skipped, so calling it again returns the same
// tokens and creates nothing.  Buyers are notified only when this call
// created at least one ticket.
func (s *Issuer) IssueTickets(ctx context.Context, orderID uint64) (Issuance, error) {
	const op = "service.Issuer.IssueTickets"

	iss, err := s.mint(ctx, orderID)
	if err != nil {
		return Issuance{}, fmt.Errorf("%s: %w", op, err)
	}
	if iss.Created > 0 {
		if err := s.deliver(ctx, iss); err != nil {
			s.log.Error("ticket delivery failed", slog.Uint64("order_id", iss.Order.ID), sl.Err(err))
		}
	}
	return iss, nil
}

// mint inserts the missing tickets of a paid order and reads back all of
// them.  It does not notify anyone.
func (s *Issuer) mint(ctx context.Context, orderID uint64) (Issuance, error) {
	const op = "service.Issuer.mint"

	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return Issuance{}, fmt.Errorf("%s: %w", op, mapRepoErr(err))
	}
	switch {
	case order.Status == model.OrderExpired || order.Status == model.OrderCancelled:
		return Issuance{}, fmt.Errorf("%s: %w", op, ErrOrderExpired)
	case !order.Paid || order.Status != model.OrderPaid:
		return Issuance{}, fmt.Errorf("%s: %w", op, ErrOrderNotPaid)
	}

	items, err := s.orders.Items(ctx, order.ID)
	if err != nil {
		return Issuance{}, fmt.Errorf("%s: %w", op, err)
	}
	now := s.Now()
	created := 0
	for _, it := range items {
		id := order.ID
		ok, err := s.tickets.InsertIfAbsent(ctx, model.Ticket{
			Token:     s.NewToken(),
			EventID:   it.EventID,
			SeatID:    it.SeatID,
			OrderID:   &id,
			CreatedAt: now,
		})
		if err != nil {
			return Issuance{}, fmt.Errorf("%s: seat %s: %w", op, it.SeatID, err)
		}
		if ok {
			created++
		}
	}

	tickets, err := s.tickets.ListByOrder(ctx, order.ID)
	if err != nil {
		return Issuance{}, fmt.Errorf("%s: %w", op, err)
	}
	s.sortTickets(tickets)
	if len(tickets) != len(items) {
		s.log.Warn("order has seats without tickets",
			slog.Uint64("order_id", order.ID),
			slog.Int("seats", len(items)),
			slog.Int("tickets", len(tickets)),
		)
	}

	if created > 0 {
		s.metrics.TicketsIssued(created)
		s.log.Info("tickets issued", slog.Uint64("order_id", order.ID), slog.Int("created", created))
	}
	return Issuance{Order: order, Tickets: tickets, Created: created}, nil
}

// IssueForSession resolves the order of a payment session and issues its
// tickets.
func (s *Issuer) IssueForSession(ctx context.Context, ref string) (Issuance, error) {
	const op = "service.Issuer.IssueForSession"

	order, err := s.orders.GetBySession(ctx, strings.TrimSpace(ref))
	if err != nil {
		return Issuance{}, fmt.Errorf("%s: %w", op, mapRepoErr(err))
	}
	return s.IssueTickets(ctx, order.ID)
}

// IssueManual records a staff cash sale.  It reserves the seats through the
// same path as online checkout, with the order created paid, then issues
// the tickets.  The email is optional; without it nothing is delivered.
func (s *Issuer) IssueManual(ctx context.Context, sale ManualSale) (Issuance, error) {
	const op = "service.Issuer.IssueManual"

	if strings.TrimSpace(sale.BuyerName) == "" {
		return Issuance{}, fmt.Errorf("%s: %w: buyer name is required", op, ErrInvalidInput)
	}
	res, err := s.ledger.Reserve(ctx, ReserveRequest{
		EventID:    sale.EventID,
		Seats:      sale.Seats,
		BuyerEmail: sale.Email,
		BuyerName:  sale.BuyerName,
		Source:     model.SourceManual,
		Paid:       true,
		SessionRef: "manual-" + uuid.NewString(),
	})
	if err != nil {
		return Issuance{}, fmt.Errorf("%s: %w", op, err)
	}
	return s.IssueTickets(ctx, res.Order.ID)
}

// Resend delivers the tickets of a session's order again.  Tickets are
// issued first if that never happened.  Unlike automatic delivery, a
// failing notifier is reported to the caller.
func (s *Issuer) Resend(ctx context.Context, ref string) (Issuance, error) {
	const op = "service.Issuer.Resend"

	order, err := s.orders.GetBySession(ctx, strings.TrimSpace(ref))
	if err != nil {
		return Issuance{}, fmt.Errorf("%s: %w", op, mapRepoErr(err))
	}
	iss, err := s.mint(ctx, order.ID)
	if err != nil {
		return Issuance{}, fmt.Errorf("%s: %w", op, err)
	}
	if iss.Order.BuyerEmail == "" {
		return Issuance{}, fmt.Errorf("%s: %w: order has no email", op, ErrInvalidInput)
	}
	if err := s.deliver(ctx, iss); err != nil {
		return Issuance{}, fmt.Errorf("%s: %w: %v", op, ErrUpstream, err)
	}
	return iss, nil
}

// deliver builds the delivery and hands it to the notifier.
func (s *Issuer) deliver(ctx context.Context, iss Issuance) error {
	if s.notifier == nil || iss.Order.BuyerEmail == "" || len(iss.Tickets) == 0 {
		return nil
	}
	d := model.TicketDelivery{
		OrderID:   iss.Order.ID,
		Email:     iss.Order.BuyerEmail,
		BuyerName: iss.Order.BuyerName,
		EventID:   iss.Order.EventID,
	}
	if ev, err := s.events.GetByID(ctx, iss.Order.EventID); err == nil {
		d.EventName = ev.Name
		d.Place = ev.Place
		d.StartsAt = ev.StartsAt
	} else {
		s.log.Warn("load event for delivery", slog.String("event_id", iss.Order.EventID), sl.Err(err))
	}
	for _, t := range iss.Tickets {
		d.Tickets = append(d.Tickets, model.DeliveredTicket{Token: t.Token, SeatID: t.SeatID})
	}
	if err := s.notifier.NotifyTickets(ctx, d); err != nil {
		s.metrics.Delivery("failed")
		return err
	}
	s.metrics.Delivery("handed_off")
	return nil
}

func (s *Issuer) sortTickets(tickets []model.Ticket) {
	ids := make([]string, len(tickets))
	byID := make(map[string]model.Ticket, len(tickets))
	for i, t := range tickets {
		ids[i] = t.SeatID
		byID[t.SeatID] = t
	}
	s.catalog.Order(ids)
	for i, id := range ids {
		tickets[i] = byID[id]
	}
}

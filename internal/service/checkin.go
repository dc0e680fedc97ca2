package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/iliyamo/boxoffice/internal/metrics"
	"github.com/iliyamo/boxoffice/internal/model"
	"github.com/iliyamo/boxoffice/internal/repository"
)

// ReasonAlreadyUsed is the lookup reason for a checked-in ticket.
const ReasonAlreadyUsed = "already used"

// TicketView is what the ticket page shows for a token.
type TicketView struct {
	Ticket model.Ticket
	Event  *model.Event
	Valid  bool
	Reason string
}

// Validator is the Check-in Validator.
type Validator struct {
	tickets *repository.TicketRepo
	events  *repository.EventRepo
	metrics *metrics.Metrics
	log     *slog.Logger

	Now func() time.Time
}

// NewValidator wires a validator.  m may be nil.
func NewValidator(tickets *repository.TicketRepo, events *repository.EventRepo, m *metrics.Metrics, log *slog.Logger) *Validator {
	if tickets == nil || events == nil {
		panic("nil dependency passed to NewValidator")
	}
	if log == nil {
		log = slog.Default()
	}
	return &Validator{
		tickets: tickets,
		events:  events,
		metrics: m,
		log:     log.With(slog.String("component", "checkin")),
		Now:     func() time.Time { return time.Now().UTC() },
	}
}

// CheckIn consumes a ticket.  Exactly one caller per token is granted
// entry; every other caller gets an *AlreadyUsedError carrying the ticket.
func (v *Validator) CheckIn(ctx context.Context, token string) (model.Ticket, error) {
	const op = "service.Validator.CheckIn"

	token = strings.TrimSpace(token)
	if token == "" {
		return model.Ticket{}, fmt.Errorf("%s: %w: token is required", op, ErrInvalidInput)
	}
	granted, err := v.tickets.MarkUsed(ctx, token, v.Now())
	if err != nil {
		return model.Ticket{}, fmt.Errorf("%s: %w", op, err)
	}
	t, err := v.tickets.GetByToken(ctx, token)
	if errors.Is(err, repository.ErrNotFound) {
		v.metrics.CheckIn("not_found")
		return model.Ticket{}, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if err != nil {
		return model.Ticket{}, fmt.Errorf("%s: %w", op, err)
	}
	if !granted {
		v.metrics.CheckIn("already_used")
		v.log.Info("check-in refused", slog.String("seat_id", t.SeatID), slog.String("event_id", t.EventID))
		return model.Ticket{}, fmt.Errorf("%s: %w", op, &AlreadyUsedError{Ticket: t})
	}
	v.metrics.CheckIn("granted")
	v.log.Info("check-in granted", slog.String("seat_id", t.SeatID), slog.String("event_id", t.EventID))
	return t, nil
}

// Lookup reports a ticket's validity without consuming it.
func (v *Validator) Lookup(ctx context.Context, token string) (TicketView, error) {
	const op = "service.Validator.Lookup"

	token = strings.TrimSpace(token)
	if token == "" {
		return TicketView{}, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	t, err := v.tickets.GetByToken(ctx, token)
	if err != nil {
		return TicketView{}, fmt.Errorf("%s: %w", op, mapRepoErr(err))
	}
	view := TicketView{Ticket: t, Valid: !t.Used}
	if t.Used {
		view.Reason = ReasonAlreadyUsed
	}
	ev, err := v.events.GetByID(ctx, t.EventID)
	switch {
	case err == nil:
		view.Event = &ev
	case errors.Is(err, repository.ErrNotFound):
	default:
		return TicketView{}, fmt.Errorf("%s: %w", op, err)
	}
	return view, nil
}

package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/boxoffice/internal/catalog"
	"github.com/iliyamo/boxoffice/internal/database/dbtest"
	"github.com/iliyamo/boxoffice/internal/lib/logger/sl"
	"github.com/iliyamo/boxoffice/internal/metrics"
	"github.com/iliyamo/boxoffice/internal/model"
	"github.com/iliyamo/boxoffice/internal/payment/paymenttest"
	"github.com/iliyamo/boxoffice/internal/repository"
)

type recordingNotifier struct {
	mu   sync.Mutex
	got  []model.TicketDelivery
	fail error
}

func (n *recordingNotifier) NotifyTickets(_ context.Context, d model.TicketDelivery) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.fail != nil {
		return n.fail
	}
	n.got = append(n.got, d)
	return nil
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.got)
}

type seatChange struct {
	eventID string
	seats   []string
	status  string
}

type recordingBroadcaster struct {
	mu      sync.Mutex
	changes []seatChange
}

func (b *recordingBroadcaster) SeatsChanged(_ context.Context, eventID string, seats []string, status string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.changes = append(b.changes, seatChange{eventID: eventID, seats: append([]string(nil), seats...), status: status})
	return nil
}

type env struct {
	ledger    *Ledger
	issuer    *Issuer
	validator *Validator
	checkout  *Checkout
	events    *Events
	orders    *repository.OrderRepo
	gateway   *paymenttest.Gateway
	notifier  *recordingNotifier
	seats     *recordingBroadcaster
	eventID   string
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := dbtest.Open(t)
	log := sl.Discard()
	m := metrics.New()

	orders := repository.NewOrderRepo(db)
	tickets := repository.NewTicketRepo(db)
	eventRepo := repository.NewEventRepo(db)

	e := &env{
		orders:   orders,
		gateway:  paymenttest.New(),
		notifier: &recordingNotifier{},
		seats:    &recordingBroadcaster{},
		events:   NewEvents(eventRepo),
	}
	e.ledger = NewLedger(orders, eventRepo, catalog.Default(), 30*time.Minute, e.seats, m, log)
	e.issuer = NewIssuer(e.ledger, orders, tickets, eventRepo, e.notifier, m, log)
	e.validator = NewValidator(tickets, eventRepo, m, log)
	e.checkout = NewCheckout(e.ledger, e.gateway, "https://boxoffice.test/", log)

	ev, err := e.events.Create(context.Background(), EventInput{
		Name:     "Noche de Jazz",
		Place:    "Foro Central",
		StartsAt: time.Now().Add(7 * 24 * time.Hour),
	})
	require.NoError(t, err)
	e.eventID = ev.ID
	return e
}

func (e *env) reserve(t *testing.T, seats ...string) Reservation {
	t.Helper()
	res, err := e.ledger.Reserve(context.Background(), ReserveRequest{
		EventID:    e.eventID,
		Seats:      seats,
		BuyerEmail: gofakeit.Email(),
		BuyerName:  gofakeit.Name(),
	})
	require.NoError(t, err)
	return res
}

// paidOrder reserves seats, binds a session and marks it paid.
func (e *env) paidOrder(t *testing.T, ref string, seats ...string) Reservation {
	t.Helper()
	ctx := context.Background()
	res := e.reserve(t, seats...)
	require.NoError(t, e.ledger.AttachSession(ctx, res.Order.ID, ref))
	changed, err := e.ledger.MarkPaid(ctx, ref)
	require.NoError(t, err)
	require.True(t, changed)
	return res
}

func TestReservePricesAndOrdersSeats(t *testing.T) {
	e := newEnv(t)

	res := e.reserve(t, "b-2", "A-5", "A-5")
	assert.Equal(t, []string{"A-5", "B-2"}, res.Seats())
	assert.Equal(t, int64(38000+36000), res.Order.TotalCents)
	assert.Equal(t, model.OrderPending, res.Order.Status)
	require.NotNil(t, res.Order.ExpiresAt)
	assert.WithinDuration(t, time.Now().Add(30*time.Minute), *res.Order.ExpiresAt, time.Minute)

	sold, err := e.ledger.SoldSeats(context.Background(), e.eventID)
	require.NoError(t, err)
	assert.Equal(t, []string{"A-5", "B-2"}, sold)

	require.Len(t, e.seats.changes, 1)
	assert.Equal(t, seatChange{eventID: e.eventID, seats: []string{"A-5", "B-2"}, status: SeatSold}, e.seats.changes[0])
}

func TestReserveRejectsBadInput(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	cases := map[string]ReserveRequest{
		"no seats":      {EventID: e.eventID, BuyerEmail: "a@b.co"},
		"unknown seat":  {EventID: e.eventID, Seats: []string{"Z-99"}, BuyerEmail: "a@b.co"},
		"no email":      {EventID: e.eventID, Seats: []string{"A-1"}},
		"bad email":     {EventID: e.eventID, Seats: []string{"A-1"}, BuyerEmail: "nope"},
		"missing event": {Seats: []string{"A-1"}, BuyerEmail: "a@b.co"},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := e.ledger.Reserve(ctx, req)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}

	_, err := e.ledger.Reserve(ctx, ReserveRequest{EventID: "no-such-event", Seats: []string{"A-1"}, BuyerEmail: "a@b.co"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReserveConflictListsTakenSeats(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.reserve(t, "A-1", "A-2")

	_, err := e.ledger.Reserve(ctx, ReserveRequest{
		EventID: e.eventID, Seats: []string{"A-3", "A-2"}, BuyerEmail: gofakeit.Email(),
	})
	require.ErrorIs(t, err, ErrSeatUnavailable)
	var unavailable *SeatUnavailableError
	require.True(t, errors.As(err, &unavailable))
	assert.Equal(t, []string{"A-2"}, unavailable.Seats)

	// A-3 was not kept by the failed attempt
	sold, err := e.ledger.SoldSeats(ctx, e.eventID)
	require.NoError(t, err)
	assert.Equal(t, []string{"A-1", "A-2"}, sold)
}

func TestConcurrentReservationsSellSeatOnce(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	const buyers = 8
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		ok       int
		conflict int
	)
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.ledger.Reserve(ctx, ReserveRequest{
				EventID: e.eventID, Seats: []string{"C-7"}, BuyerEmail: gofakeit.Email(),
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, ErrSeatUnavailable):
				conflict++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, ok)
	assert.Equal(t, buyers-1, conflict)
}

func TestConcurrentReservationsAcrossConnections(t *testing.T) {
	db := dbtest.OpenPool(t, 16)
	log := sl.Discard()
	orders := repository.NewOrderRepo(db)
	eventRepo := repository.NewEventRepo(db)
	ledger := NewLedger(orders, eventRepo, catalog.Default(), 30*time.Minute, nil, metrics.New(), log)
	ev, err := NewEvents(eventRepo).Create(context.Background(), EventInput{
		Name: "Cuarteto", StartsAt: time.Now().Add(48 * time.Hour),
	})
	require.NoError(t, err)

	const buyers = 16
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		ok       int
		conflict int
	)
	start := make(chan struct{})
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := ledger.Reserve(context.Background(), ReserveRequest{
				EventID: ev.ID, Seats: []string{"E-4"}, BuyerEmail: gofakeit.Email(),
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, ErrSeatUnavailable):
				conflict++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, 1, ok)
	assert.Equal(t, buyers-1, conflict)
	sold, err := ledger.SoldSeats(context.Background(), ev.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"E-4"}, sold)
}

func TestExpiredReservationFreesSeats(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	start := time.Now().UTC()
	e.ledger.Now = func() time.Time { return start }

	first := e.reserve(t, "D-1")

	e.ledger.Now = func() time.Time { return start.Add(31 * time.Minute) }
	sold, err := e.ledger.SoldSeats(ctx, e.eventID)
	require.NoError(t, err)
	assert.Empty(t, sold, "overdue holds are not sold")

	second := e.reserve(t, "D-1")
	assert.NotEqual(t, first.Order.ID, second.Order.ID)

	o, err := e.ledger.Order(ctx, first.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderExpired, o.Status)

	// sold, released, sold again
	require.Len(t, e.seats.changes, 3)
	assert.Equal(t, SeatAvailable, e.seats.changes[1].status)
	assert.Equal(t, []string{"D-1"}, e.seats.changes[1].seats)
	assert.Equal(t, SeatSold, e.seats.changes[2].status)
}

func TestExpireStaleSweep(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	start := time.Now().UTC()
	e.ledger.Now = func() time.Time { return start }
	e.reserve(t, "E-1", "E-2")
	e.paidOrder(t, "cs_paid", "E-3")

	e.ledger.Now = func() time.Time { return start.Add(time.Hour) }
	n, err := e.ledger.ExpireStale(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	sold, err := e.ledger.SoldSeats(ctx, e.eventID)
	require.NoError(t, err)
	assert.Equal(t, []string{"E-3"}, sold)
}

func TestMarkPaidTwice(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	res := e.paidOrder(t, "cs_twice", "A-1")

	changed, err := e.ledger.MarkPaid(ctx, "cs_twice")
	require.NoError(t, err)
	assert.False(t, changed)

	o, err := e.ledger.Order(ctx, res.Order.ID)
	require.NoError(t, err)
	assert.True(t, o.Paid)
	assert.Equal(t, model.OrderPaid, o.Status)

	_, err = e.ledger.MarkPaid(ctx, "cs_unknown")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLatePaymentIsRecordedButRejected(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	start := time.Now().UTC()
	e.ledger.Now = func() time.Time { return start }
	res := e.reserve(t, "F-1")
	require.NoError(t, e.ledger.AttachSession(ctx, res.Order.ID, "cs_late"))

	e.ledger.Now = func() time.Time { return start.Add(time.Hour) }
	_, err := e.ledger.ExpireStale(ctx, e.eventID)
	require.NoError(t, err)

	changed, err := e.ledger.MarkPaid(ctx, "cs_late")
	assert.True(t, changed)
	assert.ErrorIs(t, err, ErrOrderExpired)

	_, err = e.issuer.IssueTickets(ctx, res.Order.ID)
	assert.ErrorIs(t, err, ErrOrderExpired)
}

func TestIssueTicketsIsIdempotent(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	res := e.paidOrder(t, "cs_issue", "B-2", "A-4")

	first, err := e.issuer.IssueTickets(ctx, res.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, first.Created)
	require.Len(t, first.Tickets, 2)
	assert.Equal(t, "A-4", first.Tickets[0].SeatID)
	assert.Equal(t, "B-2", first.Tickets[1].SeatID)

	second, err := e.issuer.IssueForSession(ctx, "cs_issue")
	require.NoError(t, err)
	assert.Equal(t, 0, second.Created)
	assert.Equal(t, first.Tokens(), second.Tokens())

	require.Equal(t, 1, e.notifier.count(), "buyer is notified once")
	d := e.notifier.got[0]
	assert.Equal(t, res.Order.BuyerEmail, d.Email)
	assert.Equal(t, "Noche de Jazz", d.EventName)
	assert.Len(t, d.Tickets, 2)
}

func TestConcurrentIssueMintsOneTicketPerSeat(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	res := e.paidOrder(t, "cs_race", "G-1", "G-2", "G-3")

	var wg sync.WaitGroup
	results := make([]Issuance, 4)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			iss, err := e.issuer.IssueTickets(ctx, res.Order.ID)
			assert.NoError(t, err)
			results[i] = iss
		}(i)
	}
	wg.Wait()

	created := 0
	for _, r := range results {
		created += r.Created
		assert.Equal(t, results[0].Tokens(), r.Tokens())
	}
	assert.Equal(t, 3, created)
}

func TestIssueRequiresPayment(t *testing.T) {
	e := newEnv(t)
	res := e.reserve(t, "A-1")
	_, err := e.issuer.IssueTickets(context.Background(), res.Order.ID)
	assert.ErrorIs(t, err, ErrOrderNotPaid)

	_, err = e.issuer.IssueTickets(context.Background(), 12345)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeliveryFailureDoesNotUndoIssuance(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.notifier.fail = errors.New("smtp down")
	res := e.paidOrder(t, "cs_fail", "A-1")

	iss, err := e.issuer.IssueTickets(ctx, res.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, iss.Created)

	_, err = e.issuer.Resend(ctx, "cs_fail")
	assert.ErrorIs(t, err, ErrUpstream)

	e.notifier.fail = nil
	again, err := e.issuer.Resend(ctx, "cs_fail")
	require.NoError(t, err)
	assert.Equal(t, iss.Tokens(), again.Tokens())
	assert.Equal(t, 1, e.notifier.count())
}

func TestResendReportsFailedFirstDelivery(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.notifier.fail = errors.New("smtp down")
	e.paidOrder(t, "cs_first", "B-2")

	_, err := e.issuer.Resend(ctx, "cs_first")
	assert.ErrorIs(t, err, ErrUpstream)

	// tickets were minted by the failed call and are delivered unchanged
	e.notifier.fail = nil
	iss, err := e.issuer.Resend(ctx, "cs_first")
	require.NoError(t, err)
	assert.Equal(t, 0, iss.Created)
	require.Len(t, iss.Tickets, 1)
	require.Equal(t, 1, e.notifier.count())
	assert.Equal(t, iss.Tokens()[0], e.notifier.got[0].Tickets[0].Token)
}

func TestManualSale(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	iss, err := e.issuer.IssueManual(ctx, ManualSale{
		EventID: e.eventID, Seats: []string{"K-14", "K-13"}, BuyerName: gofakeit.Name(),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, iss.Created)
	assert.Equal(t, model.SourceManual, iss.Order.Source)
	assert.True(t, iss.Order.Paid)
	assert.Nil(t, iss.Order.ExpiresAt)
	assert.Equal(t, 0, e.notifier.count(), "no email, no delivery")

	_, err = e.issuer.IssueManual(ctx, ManualSale{EventID: e.eventID, Seats: []string{"K-14"}, BuyerName: "Luis"})
	assert.ErrorIs(t, err, ErrSeatUnavailable)

	_, err = e.issuer.IssueManual(ctx, ManualSale{EventID: e.eventID, Seats: []string{"K-1"}})
	assert.ErrorIs(t, err, ErrInvalidInput)

	withMail, err := e.issuer.IssueManual(ctx, ManualSale{
		EventID: e.eventID, Seats: []string{"K-1"}, BuyerName: "Luis", Email: gofakeit.Email(),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, e.notifier.count())
	assert.Equal(t, withMail.Tokens()[0], e.notifier.got[0].Tickets[0].Token)
}

func TestCheckInGrantedOnce(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	res := e.paidOrder(t, "cs_door", "A-1")
	iss, err := e.issuer.IssueTickets(ctx, res.Order.ID)
	require.NoError(t, err)
	token := iss.Tokens()[0]

	view, err := e.validator.Lookup(ctx, token)
	require.NoError(t, err)
	assert.True(t, view.Valid)
	require.NotNil(t, view.Event)
	assert.Equal(t, "Noche de Jazz", view.Event.Name)

	const scanners = 6
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		granted int
		refused int
	)
	for i := 0; i < scanners; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.validator.CheckIn(ctx, token)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				granted++
			case errors.Is(err, ErrAlreadyUsed):
				refused++
				var used *AlreadyUsedError
				if assert.True(t, errors.As(err, &used)) {
					assert.Equal(t, "A-1", used.Ticket.SeatID)
					assert.NotNil(t, used.Ticket.UsedAt)
				}
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, granted)
	assert.Equal(t, scanners-1, refused)

	view, err = e.validator.Lookup(ctx, token)
	require.NoError(t, err)
	assert.False(t, view.Valid)
	assert.Equal(t, ReasonAlreadyUsed, view.Reason)
}

func TestCheckInUnknownToken(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.validator.CheckIn(ctx, "zzz")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = e.validator.CheckIn(ctx, "  ")
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = e.validator.Lookup(ctx, "zzz")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCheckoutStartOpensSession(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	res, err := e.checkout.Start(ctx, CheckoutRequest{
		EventID: e.eventID, Seats: []string{"A-5", "D-2"}, BuyerEmail: gofakeit.Email(), BuyerName: gofakeit.Name(),
	})
	require.NoError(t, err)
	assert.Equal(t, "mxn", res.Currency)
	assert.Equal(t, int64(38000+35000), res.TotalCents)
	assert.Equal(t, []string{"A-5", "D-2"}, res.Seats)
	assert.Equal(t, "https://checkout.test/pay/"+res.SessionRef, res.RedirectURL)

	sess, ok := e.gateway.Get(res.SessionRef)
	require.True(t, ok)
	require.Len(t, sess.Request.LineItems, 2)
	assert.Equal(t, "Butaca A-5", sess.Request.LineItems[0].Name)
	assert.Equal(t, "Zona VIP", sess.Request.LineItems[0].Description)
	assert.Equal(t, "https://boxoffice.test/success?session_id={CHECKOUT_SESSION_ID}", sess.Request.SuccessURL)
	assert.Equal(t, "https://boxoffice.test/events/"+e.eventID, sess.Request.CancelURL)
	assert.Equal(t, res.OrderID, sess.Request.OrderID)

	o, err := e.ledger.OrderBySession(ctx, res.SessionRef)
	require.NoError(t, err)
	assert.Equal(t, res.OrderID, o.ID)
}

func TestCheckoutHoldsSeatsWhileSessionIsPayable(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	sessionEnd := time.Now().Add(45 * time.Minute).UTC().Truncate(time.Millisecond)
	e.gateway.Expiry = sessionEnd

	out, err := e.checkout.Start(ctx, CheckoutRequest{EventID: e.eventID, Seats: []string{"F-3"}, BuyerEmail: gofakeit.Email()})
	require.NoError(t, err)
	assert.True(t, out.ExpiresAt.Equal(sessionEnd))

	order, err := e.orders.GetByID(ctx, out.OrderID)
	require.NoError(t, err)
	require.NotNil(t, order.ExpiresAt)
	assert.True(t, order.ExpiresAt.Equal(sessionEnd), "hold ends %s", order.ExpiresAt)

	// past the reservation window but before the session ends the seat is still held
	e.ledger.Now = func() time.Time { return time.Now().Add(40 * time.Minute).UTC() }
	_, err = e.ledger.Reserve(ctx, ReserveRequest{EventID: e.eventID, Seats: []string{"F-3"}, BuyerEmail: gofakeit.Email()})
	assert.ErrorIs(t, err, ErrSeatUnavailable)
}

func TestCheckoutGatewayFailureReleasesSeats(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.gateway.CreateErr = errors.New("connection refused")

	_, err := e.checkout.Start(ctx, CheckoutRequest{EventID: e.eventID, Seats: []string{"A-1"}, BuyerEmail: gofakeit.Email()})
	assert.ErrorIs(t, err, ErrUpstream)

	sold, err := e.ledger.SoldSeats(ctx, e.eventID)
	require.NoError(t, err)
	assert.Empty(t, sold)

	e.gateway.CreateErr = nil
	_, err = e.checkout.Start(ctx, CheckoutRequest{EventID: e.eventID, Seats: []string{"A-1"}, BuyerEmail: gofakeit.Email()})
	assert.NoError(t, err)
}

func TestConfirmChecksProvider(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	res, err := e.checkout.Start(ctx, CheckoutRequest{EventID: e.eventID, Seats: []string{"B-1"}, BuyerEmail: gofakeit.Email()})
	require.NoError(t, err)

	_, err = e.checkout.Confirm(ctx, res.SessionRef)
	assert.ErrorIs(t, err, ErrOrderNotPaid)

	status, err := e.checkout.SessionStatus(ctx, res.SessionRef)
	require.NoError(t, err)
	assert.Equal(t, "unpaid", string(status))

	e.gateway.Pay(res.SessionRef)
	o, err := e.checkout.Confirm(ctx, res.SessionRef)
	require.NoError(t, err)
	assert.True(t, o.Paid)
	assert.Equal(t, model.OrderPaid, o.Status)

	// confirming again does not touch the provider state
	_, err = e.checkout.Confirm(ctx, res.SessionRef)
	assert.NoError(t, err)

	_, err = e.checkout.Confirm(ctx, "cs_nope")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = e.checkout.SessionStatus(ctx, "cs_nope")
	assert.ErrorIs(t, err, ErrUpstream)
}

func TestAvailability(t *testing.T) {
	e := newEnv(t)
	e.reserve(t, "A-2")

	seats, sold, err := e.ledger.Availability(context.Background(), e.eventID)
	require.NoError(t, err)
	assert.Len(t, seats, 146)
	assert.Equal(t, []string{"A-2"}, sold)
	assert.Equal(t, SeatAvailable, seats[0].Status)
	assert.Equal(t, SeatSold, seats[1].Status)
	assert.Equal(t, "VIP", seats[1].Category)

	_, _, err = e.ledger.Availability(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEvents(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.events.Create(ctx, EventInput{Name: "  ", StartsAt: time.Now()})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = e.events.Create(ctx, EventInput{Name: "Sin fecha"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	list, err := e.events.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, e.eventID, list[0].ID)

	_, err = e.events.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSeedStaff(t *testing.T) {
	db := dbtest.Open(t)
	repo := repository.NewStaffRepo(db)
	ctx := context.Background()

	require.NoError(t, SeedStaff(ctx, repo, "taquilla", "s3cret", 4, sl.Discard()))
	require.NoError(t, SeedStaff(ctx, repo, "Taquilla", "changed", 4, sl.Discard()))
	require.NoError(t, SeedStaff(ctx, repo, "", "", 4, sl.Discard()))

	s, err := repo.GetByUsername(ctx, "taquilla")
	require.NoError(t, err)
	assert.NotEmpty(t, s.PasswordHash)
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/boxoffice/internal/model"
)

// OrderRepo provides access to the orders and order_items tables.  An
// order_items row is the reservation of a seat: the unique key on
// (event_id, seat_id) guarantees that a seat belongs to at most one live
// order per event.  Rows of expired or cancelled orders are deleted so the
// seat becomes available again; the order row itself is never deleted.
type OrderRepo struct {
	db *sql.DB
}

// NewOrderRepo returns a new OrderRepo bound to the given database.
func NewOrderRepo(db *sql.DB) *OrderRepo { return &OrderRepo{db: db} }

// DB exposes the underlying handle so callers can start transactions that
// span several repository calls.
func (r *OrderRepo) DB() *sql.DB { return r.db }

const orderColumns = `id, event_id, buyer_email, buyer_name, session_ref, source, status, paid, total_cents, expires_at, paid_at, created_at`

func scanOrder(row interface{ Scan(...any) error }) (model.Order, error) {
	var (
		o          model.Order
		sessionRef sql.NullString
		source     string
		status     string
		paid       int
		expiresAt  sql.NullInt64
		paidAt     sql.NullInt64
		createdAt  int64
	)
	err := row.Scan(&o.ID, &o.EventID, &o.BuyerEmail, &o.BuyerName, &sessionRef,
		&source, &status, &paid, &o.TotalCents, &expiresAt, &paidAt, &createdAt)
	if err != nil {
		return model.Order{}, err
	}
	o.SessionRef = sessionRef.String
	o.Source = model.OrderSource(source)
	o.Status = model.OrderStatus(status)
	o.Paid = paid != 0
	o.ExpiresAt = timePtr(expiresAt)
	o.PaidAt = timePtr(paidAt)
	o.CreatedAt = fromMillis(createdAt)
	return o, nil
}

// CreateTx inserts a new order within the scope of an existing transaction
// and populates the generated ID.  CreatedAt must be set by the caller.
// A session reference collision is reported as ErrConflict.
func (r *OrderRepo) CreateTx(ctx context.Context, tx *sql.Tx, o *model.Order) error {
	const q = `INSERT INTO orders (event_id, buyer_email, buyer_name, session_ref, source, status, paid, total_cents, expires_at, paid_at, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q,
		o.EventID, o.BuyerEmail, o.BuyerName, nullString(o.SessionRef),
		string(o.Source), string(o.Status), boolInt(o.Paid), o.TotalCents,
		nullMillis(o.ExpiresAt), nullMillis(o.PaidAt), toMillis(o.CreatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	o.ID = uint64(id)
	return nil
}

// CreateItemsTx inserts the seats of an order in a single statement.  When
// any seat is already held by another live order the whole statement fails
// and ErrConflict is returned; the caller must roll back.  Passing an empty
// slice has no effect.
func (r *OrderRepo) CreateItemsTx(ctx context.Context, tx *sql.Tx, items []model.OrderSeat) error {
	if len(items) == 0 {
		return nil
	}
	query := `INSERT INTO order_items (order_id, event_id, seat_id, price_cents) VALUES `
	args := make([]any, 0, len(items)*4)
	for i, it := range items {
		if i > 0 {
			query += ", "
		}
		query += "(?, ?, ?, ?)"
		args = append(args, it.OrderID, it.EventID, it.SeatID, it.PriceCents)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return err
	}
	return nil
}

// SoldSeats returns the seats of the event that are held by a paid order or
// by an unpaid order whose reservation window has not passed at now.  Rows of
// overdue orders that have not been swept yet are not counted.
func (r *OrderRepo) SoldSeats(ctx context.Context, eventID string, now time.Time) ([]string, error) {
	const q = `SELECT i.seat_id FROM order_items i
JOIN orders o ON o.id = i.order_id
WHERE i.event_id = ? AND (o.paid = 1 OR o.expires_at IS NULL OR o.expires_at > ?)`
	rows, err := r.db.QueryContext(ctx, q, eventID, toMillis(now))
	if err != nil {
		return nil, err
	}
	return scanStrings(rows)
}

// TakenAmong returns which of seatIDs currently have an order_items row for
// the event.  It is used to explain a rejected reservation.
func (r *OrderRepo) TakenAmong(ctx context.Context, eventID string, seatIDs []string) ([]string, error) {
	if len(seatIDs) == 0 {
		return nil, nil
	}
	args := make([]any, 0, len(seatIDs)+1)
	args = append(args, eventID)
	for _, s := range seatIDs {
		args = append(args, s)
	}
	q := `SELECT seat_id FROM order_items WHERE event_id = ? AND seat_id IN (` + placeholders(len(seatIDs)) + `)`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	return scanStrings(rows)
}

// ExpireStaleTx moves every unpaid PENDING order whose expires_at is at or
// before now to EXPIRED and deletes its order_items rows.  When eventID is
// empty all events are swept.  The status change is conditional, so an
// order paid concurrently is never expired.  It returns the released seats.
func (r *OrderRepo) ExpireStaleTx(ctx context.Context, tx *sql.Tx, eventID string, now time.Time) ([]model.OrderSeat, error) {
	q := `SELECT id FROM orders WHERE status = 'PENDING' AND paid = 0 AND expires_at IS NOT NULL AND expires_at <= ?`
	args := []any{toMillis(now)}
	if eventID != "" {
		q += ` AND event_id = ?`
		args = append(args, eventID)
	}
	rows, err := tx.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	var ids []uint64
	for rows.Next() {
		var id uint64
		if scanErr := rows.Scan(&id); scanErr != nil {
			rows.Close()
			return nil, scanErr
		}
		ids = append(ids, id)
	}
	if err = rows.Close(); err != nil {
		return nil, err
	}

	var released []model.OrderSeat
	for _, id := range ids {
		seats, err := r.closeTx(ctx, tx, id, model.OrderExpired)
		if err != nil {
			return nil, err
		}
		released = append(released, seats...)
	}
	return released, nil
}

// ExpireStale runs ExpireStaleTx in its own transaction.
func (r *OrderRepo) ExpireStale(ctx context.Context, eventID string, now time.Time) ([]model.OrderSeat, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	released, err := r.ExpireStaleTx(ctx, tx, eventID, now)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return released, nil
}

// Release cancels a PENDING unpaid order and frees its seats.  Orders in any
// other state are left untouched and nil is returned.
func (r *OrderRepo) Release(ctx context.Context, orderID uint64) ([]model.OrderSeat, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	released, err := r.closeTx(ctx, tx, orderID, model.OrderCancelled)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return released, nil
}

// closeTx performs the PENDING -> status transition for one order and, only
// if this call made the transition, deletes its items.
func (r *OrderRepo) closeTx(ctx context.Context, tx *sql.Tx, orderID uint64, status model.OrderStatus) ([]model.OrderSeat, error) {
	res, err := tx.ExecContext(ctx,
		`UPDATE orders SET status = ? WHERE id = ? AND status = 'PENDING' AND paid = 0`,
		string(status), orderID)
	if err != nil {
		return nil, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	items, err := r.items(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM order_items WHERE order_id = ?`, orderID); err != nil {
		return nil, err
	}
	return items, nil
}

// ExtendHold pushes the expiry of a pending order out to until.  Holds are
// never shortened, and paid or closed orders are untouched.  It reports
// whether the row changed.
func (r *OrderRepo) ExtendHold(ctx context.Context, orderID uint64, until time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE orders SET expires_at = ? WHERE id = ? AND status = 'PENDING' AND paid = 0 AND expires_at < ?`,
		toMillis(until), orderID, toMillis(until))
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// AttachSession records the payment session reference on an order that has
// none yet.  It returns ErrNotFound for an unknown order and ErrConflict
// when the order already carries a different reference or the reference is
// used by another order.
func (r *OrderRepo) AttachSession(ctx context.Context, orderID uint64, ref string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE orders SET session_ref = ? WHERE id = ? AND session_ref IS NULL`, ref, orderID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 1 {
		return nil
	}
	o, err := r.GetByID(ctx, orderID)
	if err != nil {
		return err
	}
	if o.SessionRef == ref {
		return nil
	}
	return ErrConflict
}

// MarkPaid flips paid from 0 to 1 for the order bound to ref.  A PENDING
// order becomes PAID; an order in another state keeps its status so a late
// payment on an expired reservation stays visible.  changed is false when
// the order was already paid.  ErrNotFound is returned for an unknown ref.
func (r *OrderRepo) MarkPaid(ctx context.Context, ref string, now time.Time) (bool, error) {
	const q = `UPDATE orders SET paid = 1, paid_at = ?,
    status = CASE WHEN status = 'PENDING' THEN 'PAID' ELSE status END
WHERE session_ref = ? AND paid = 0`
	res, err := r.db.ExecContext(ctx, q, toMillis(now), ref)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n == 1 {
		return true, nil
	}
	// either unknown or already paid
	if _, err := r.GetBySession(ctx, ref); err != nil {
		return false, err
	}
	return false, nil
}

// GetByID fetches an order by primary key.
func (r *OrderRepo) GetByID(ctx context.Context, id uint64) (model.Order, error) {
	return r.getOne(ctx, r.db, `SELECT `+orderColumns+` FROM orders WHERE id = ?`, id)
}

// GetBySession fetches the order bound to a payment session reference.
func (r *OrderRepo) GetBySession(ctx context.Context, ref string) (model.Order, error) {
	return r.getOne(ctx, r.db, `SELECT `+orderColumns+` FROM orders WHERE session_ref = ?`, ref)
}

// GetByIDTx is GetByID inside a transaction.
func (r *OrderRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (model.Order, error) {
	return r.getOne(ctx, tx, `SELECT `+orderColumns+` FROM orders WHERE id = ?`, id)
}

func (r *OrderRepo) getOne(ctx context.Context, q queryer, query string, arg any) (model.Order, error) {
	o, err := scanOrder(q.QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Order{}, ErrNotFound
	}
	return o, err
}

// Items lists the seats of an order ordered by seat id.
func (r *OrderRepo) Items(ctx context.Context, orderID uint64) ([]model.OrderSeat, error) {
	return r.items(ctx, r.db, orderID)
}

func (r *OrderRepo) items(ctx context.Context, q queryer, orderID uint64) ([]model.OrderSeat, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT order_id, event_id, seat_id, price_cents FROM order_items WHERE order_id = ? ORDER BY seat_id`,
		orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.OrderSeat
	for rows.Next() {
		var it model.OrderSeat
		if err := rows.Scan(&it.OrderID, &it.EventID, &it.SeatID, &it.PriceCents); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

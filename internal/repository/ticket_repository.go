package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/boxoffice/internal/model"
)

// TicketRepo provides access to the tickets table.  A ticket is created
// once per (event_id, seat_id) and afterwards only its used flag changes.
type TicketRepo struct {
	db *sql.DB
}

// NewTicketRepo returns a new TicketRepo bound to the given database.
func NewTicketRepo(db *sql.DB) *TicketRepo { return &TicketRepo{db: db} }

const ticketColumns = `token, event_id, seat_id, order_id, used, used_at, created_at`

func scanTicket(row interface{ Scan(...any) error }) (model.Ticket, error) {
	var (
		t         model.Ticket
		orderID   sql.NullInt64
		used      int
		usedAt    sql.NullInt64
		createdAt int64
	)
	if err := row.Scan(&t.Token, &t.EventID, &t.SeatID, &orderID, &used, &usedAt, &createdAt); err != nil {
		return model.Ticket{}, err
	}
	if orderID.Valid {
		id := uint64(orderID.Int64)
		t.OrderID = &id
	}
	t.Used = used != 0
	t.UsedAt = timePtr(usedAt)
	t.CreatedAt = fromMillis(createdAt)
	return t, nil
}

// InsertIfAbsent stores a new ticket.  When the seat already carries a
// ticket for the event the insert is skipped and created is false; the
// existing ticket is left untouched.
func (r *TicketRepo) InsertIfAbsent(ctx context.Context, t model.Ticket) (bool, error) {
	var orderID sql.NullInt64
	if t.OrderID != nil {
		orderID = sql.NullInt64{Int64: int64(*t.OrderID), Valid: true}
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO tickets (token, event_id, seat_id, order_id, used, created_at) VALUES (?, ?, ?, ?, 0, ?)`,
		t.Token, t.EventID, t.SeatID, orderID, toMillis(t.CreatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// ListByOrder returns the tickets minted for an order.
func (r *TicketRepo) ListByOrder(ctx context.Context, orderID uint64) ([]model.Ticket, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+ticketColumns+` FROM tickets WHERE order_id = ? ORDER BY seat_id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Ticket
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// GetByToken fetches a ticket by its token.
func (r *TicketRepo) GetByToken(ctx context.Context, token string) (model.Ticket, error) {
	t, err := scanTicket(r.db.QueryRowContext(ctx,
		`SELECT `+ticketColumns+` FROM tickets WHERE token = ?`, token))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Ticket{}, ErrNotFound
	}
	return t, err
}

// MarkUsed flips used from 0 to 1 in a single conditional update.  It
// reports true only for the call that performed the transition; callers
// inspect the row themselves to tell an unknown token from a used one.
func (r *TicketRepo) MarkUsed(ctx context.Context, token string, now time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE tickets SET used = 1, used_at = ? WHERE token = ? AND used = 0`,
		toMillis(now), token)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

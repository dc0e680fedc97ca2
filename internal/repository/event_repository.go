package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/boxoffice/internal/model"
)

// EventRepo provides CRUD operations for events.
type EventRepo struct {
	db *sql.DB
}

// NewEventRepo returns a new EventRepo bound to the given database.
func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db} }

const eventColumns = `id, name, description, place, image_url, starts_at, created_at`

func scanEvent(row interface{ Scan(...any) error }) (model.Event, error) {
	var (
		e                   model.Event
		startsAt, createdAt int64
	)
	if err := row.Scan(&e.ID, &e.Name, &e.Description, &e.Place, &e.ImageURL, &startsAt, &createdAt); err != nil {
		return model.Event{}, err
	}
	e.StartsAt = fromMillis(startsAt)
	e.CreatedAt = fromMillis(createdAt)
	return e, nil
}

// Create inserts an event.  The ID is generated by the caller.
func (r *EventRepo) Create(ctx context.Context, e model.Event) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO events (`+eventColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Name, e.Description, e.Place, e.ImageURL, toMillis(e.StartsAt), toMillis(e.CreatedAt))
	if isUniqueViolation(err) {
		return ErrConflict
	}
	return err
}

// GetByID returns an event or ErrNotFound.
func (r *EventRepo) GetByID(ctx context.Context, id string) (model.Event, error) {
	e, err := scanEvent(r.db.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM events WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Event{}, ErrNotFound
	}
	return e, err
}

// List returns all events ordered by start time.
func (r *EventRepo) List(ctx context.Context) ([]model.Event, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+eventColumns+` FROM events ORDER BY starts_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

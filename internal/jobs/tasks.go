// Package jobs runs background maintenance on asynq: a periodic task that
// expires unpaid reservations whose window has passed.
package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

// TypeExpireReservations sweeps overdue unpaid orders.
const TypeExpireReservations = "reservations:expire"

// ExpirePayload scopes a sweep.  An empty EventID means every event.
type ExpirePayload struct {
	EventID string `json:"event_id"`
}

// NewExpireTask builds a sweep task.
func NewExpireTask(eventID string) (*asynq.Task, error) {
	payload, err := json.Marshal(ExpirePayload{EventID: eventID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeExpireReservations, payload,
		asynq.MaxRetry(1),
		asynq.Timeout(30*time.Second),
	), nil
}

// Expirer is implemented by service.Ledger.
type Expirer interface {
	ExpireStale(ctx context.Context, eventID string) (int, error)
}

// Handlers holds the task handlers.
type Handlers struct {
	expirer Expirer
	log     *slog.Logger
}

func NewHandlers(expirer Expirer, log *slog.Logger) *Handlers {
	return &Handlers{expirer: expirer, log: log.With(slog.String("component", "jobs"))}
}

// HandleExpire runs one sweep.  A malformed payload is skipped without retry.
func (h *Handlers) HandleExpire(ctx context.Context, t *asynq.Task) error {
	var p ExpirePayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &p); err != nil {
			return fmt.Errorf("decode %s payload: %v: %w", TypeExpireReservations, err, asynq.SkipRetry)
		}
	}
	n, err := h.expirer.ExpireStale(ctx, p.EventID)
	if err != nil {
		return err
	}
	if n > 0 {
		h.log.Info("expired reservations swept", slog.Int("seats", n), slog.String("event_id", p.EventID))
	}
	return nil
}

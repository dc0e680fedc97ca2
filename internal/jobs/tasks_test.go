package jobs

import (
	"context"
	"errors"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/boxoffice/internal/lib/logger/sl"
)

type fakeExpirer struct {
	calls []string
	n     int
	err   error
}

func (f *fakeExpirer) ExpireStale(_ context.Context, eventID string) (int, error) {
	f.calls = append(f.calls, eventID)
	return f.n, f.err
}

func TestHandleExpire(t *testing.T) {
	f := &fakeExpirer{n: 3}
	h := NewHandlers(f, sl.Discard())

	task, err := NewExpireTask("ev-1")
	require.NoError(t, err)
	assert.Equal(t, TypeExpireReservations, task.Type())

	require.NoError(t, h.HandleExpire(context.Background(), task))
	all, err := NewExpireTask("")
	require.NoError(t, err)
	require.NoError(t, h.HandleExpire(context.Background(), all))
	assert.Equal(t, []string{"ev-1", ""}, f.calls)
}

func TestHandleExpirePropagatesErrors(t *testing.T) {
	h := NewHandlers(&fakeExpirer{err: errors.New("db down")}, sl.Discard())
	task, err := NewExpireTask("")
	require.NoError(t, err)
	assert.Error(t, h.HandleExpire(context.Background(), task))
}

func TestHandleExpireBadPayloadSkipsRetry(t *testing.T) {
	h := NewHandlers(&fakeExpirer{}, sl.Discard())
	err := h.HandleExpire(context.Background(), asynq.NewTask(TypeExpireReservations, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

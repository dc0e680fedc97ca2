package jobs

import (
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
)

// Worker owns the asynq server and scheduler.
type Worker struct {
	srv       *asynq.Server
	scheduler *asynq.Scheduler
	mux       *asynq.ServeMux
	schedule  string
	log       *slog.Logger
}

// NewWorker wires the handlers on a Redis-backed asynq server.  schedule is
// a cron spec or "@every <duration>".
func NewWorker(opt asynq.RedisClientOpt, schedule string, h *Handlers, log *slog.Logger) *Worker {
	log = log.With(slog.String("component", "jobs"))
	adapter := asynqLogger{log: log}

	srv := asynq.NewServer(opt, asynq.Config{
		Concurrency: 2,
		Queues:      map[string]int{"default": 1},
		Logger:      adapter,
	})
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeExpireReservations, h.HandleExpire)

	scheduler := asynq.NewScheduler(opt, &asynq.SchedulerOpts{Logger: adapter})
	return &Worker{srv: srv, scheduler: scheduler, mux: mux, schedule: schedule, log: log}
}

// Start registers the periodic sweep and starts processing in the
// background.
func (w *Worker) Start() error {
	task, err := NewExpireTask("")
	if err != nil {
		return err
	}
	if _, err := w.scheduler.Register(w.schedule, task); err != nil {
		return fmt.Errorf("register %s: %w", TypeExpireReservations, err)
	}
	if err := w.scheduler.Start(); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	if err := w.srv.Start(w.mux); err != nil {
		w.scheduler.Shutdown()
		return fmt.Errorf("start asynq server: %w", err)
	}
	w.log.Info("background jobs started", slog.String("schedule", w.schedule))
	return nil
}

// Shutdown stops the scheduler and waits for running tasks.
func (w *Worker) Shutdown() {
	w.scheduler.Shutdown()
	w.srv.Shutdown()
}

// asynqLogger routes asynq's logging into slog.
type asynqLogger struct {
	log *slog.Logger
}

func (l asynqLogger) Debug(args ...interface{}) { l.log.Debug(fmt.Sprint(args...)) }
func (l asynqLogger) Info(args ...interface{})  { l.log.Info(fmt.Sprint(args...)) }
func (l asynqLogger) Warn(args ...interface{})  { l.log.Warn(fmt.Sprint(args...)) }
func (l asynqLogger) Error(args ...interface{}) { l.log.Error(fmt.Sprint(args...)) }
func (l asynqLogger) Fatal(args ...interface{}) { l.log.Error(fmt.Sprint(args...)) }

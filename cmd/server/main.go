package main // Entry point package

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/spf13/pflag"

	"github.com/iliyamo/boxoffice/internal/catalog"
	"github.com/iliyamo/boxoffice/internal/config"
	"github.com/iliyamo/boxoffice/internal/database"
	"github.com/iliyamo/boxoffice/internal/handler"
	"github.com/iliyamo/boxoffice/internal/jobs"
	"github.com/iliyamo/boxoffice/internal/lib/logger/sl"
	"github.com/iliyamo/boxoffice/internal/metrics"
	"github.com/iliyamo/boxoffice/internal/middleware"
	"github.com/iliyamo/boxoffice/internal/notify"
	"github.com/iliyamo/boxoffice/internal/payment"
	"github.com/iliyamo/boxoffice/internal/queue"
	"github.com/iliyamo/boxoffice/internal/realtime"
	"github.com/iliyamo/boxoffice/internal/repository"
	"github.com/iliyamo/boxoffice/internal/router"
	"github.com/iliyamo/boxoffice/internal/service"
)

const (
	envLocal = "local"
	envDev   = "development"
	envProd  = "production"
)

func main() {
	envFile := pflag.String("env-file", ".env", "dotenv file loaded before reading the environment")
	migrateOnly := pflag.Bool("migrate", false, "apply database migrations and exit")
	pflag.Parse()

	// A missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load(*envFile)

	cfg := config.MustLoad() // Load environment config
	log := setupLogger(cfg.Env)

	db, err := database.Open(cfg.DB)
	if err != nil {
		log.Error("open database", sl.Err(err))
		os.Exit(1)
	}
	defer db.Close()
	if err := database.Migrate(db, cfg.DB.Driver); err != nil {
		log.Error("migrate database", sl.Err(err))
		os.Exit(1)
	}
	if *migrateOnly {
		log.Info("migrations applied")
		return
	}

	cat := catalog.Default()
	if cfg.VenueLayout != "" {
		if cat, err = catalog.Load(cfg.VenueLayout); err != nil {
			log.Error("load venue layout", slog.String("path", cfg.VenueLayout), sl.Err(err))
			os.Exit(1)
		}
	}

	rdb := config.NewRedisClient(cfg.Redis)
	if rdb == nil {
		log.Warn("redis unavailable; rate limiting, caching and scheduled expiry are off")
	} else {
		defer rdb.Close()
	}
	m := metrics.New()

	var seats service.SeatBroadcaster
	if pn, err := realtime.NewPubNub(cfg.PubNub); err == nil {
		seats = pn
	} else {
		log.Info("realtime seat updates disabled", sl.Err(err))
	}

	var mailer notify.Mailer = notify.NewLogMailer(log)
	if cfg.Mail.PublicKey != "" && cfg.Mail.PrivateKey != "" {
		mailer = notify.NewMailjet(cfg.Mail.PublicKey, cfg.Mail.PrivateKey, cfg.Mail.From, cfg.Mail.FromName)
	}
	ticketMail := notify.NewTickets(mailer, cfg.BaseURL)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var notifier service.Notifier = ticketMail
	if cfg.Queue.Enabled {
		notifier = queue.NewPublisher(cfg.Queue.URL, log)
		consumer := queue.NewConsumer(cfg.Queue.URL, ticketMail.NotifyTickets, log)
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("delivery consumer stopped", sl.Err(err))
			}
		}()
	}

	gateway := payment.NewStripe(cfg.Stripe.SecretKey, cfg.Stripe.WebhookSecret)

	orders := repository.NewOrderRepo(db)
	tickets := repository.NewTicketRepo(db)
	eventRepo := repository.NewEventRepo(db)
	staffRepo := repository.NewStaffRepo(db)

	ledger := service.NewLedger(orders, eventRepo, cat, cfg.ReservationTTL, seats, m, log)
	issuer := service.NewIssuer(ledger, orders, tickets, eventRepo, notifier, m, log)
	validator := service.NewValidator(tickets, eventRepo, m, log)
	checkout := service.NewCheckout(ledger, gateway, cfg.BaseURL, log)
	events := service.NewEvents(eventRepo)

	if err := service.SeedStaff(ctx, staffRepo, cfg.StaffUsername, cfg.StaffPassword, cfg.BcryptCost, log); err != nil {
		log.Error("seed staff account", sl.Err(err))
		os.Exit(1)
	}

	var worker *jobs.Worker
	if cfg.Jobs.Enabled && rdb != nil {
		worker = jobs.NewWorker(cfg.Redis.AsynqOpt(), cfg.Jobs.ExpirySchedule, jobs.NewHandlers(ledger, log), log)
		if err := worker.Start(); err != nil {
			log.Error("start expiry worker", sl.Err(err))
			os.Exit(1)
		}
		defer worker.Shutdown()
	}

	e := echo.New() // Create Echo instance
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.Use(echomw.RequestID())
	e.Use(echomw.Recover())
	e.Use(middleware.RequestLogger(log))

	limit := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, log)
	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

	router.RegisterRoutes(e)
	e.GET("/metrics", echo.WrapHandler(m.Handler()))
	router.RegisterStaff(e, handler.NewStaffHandler(cfg, staffRepo, events, log), cfg.JWTSecret)
	router.RegisterPublic(e, handler.NewPublicHandler(cat, events, ledger, log), cache)
	router.RegisterCheckout(e,
		handler.NewCheckoutHandler(checkout, log),
		handler.NewWebhookHandler(gateway, ledger, issuer, m, log),
		limit,
	)
	router.RegisterTickets(e, handler.NewTicketHandler(checkout, issuer, validator, log), cfg.JWTSecret, limit)

	addr := ":" + cfg.Port // Address string with port
	go func() {
		log.Info("listening", slog.String("addr", addr), slog.String("env", cfg.Env))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server", sl.Err(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown", sl.Err(err))
	}
}

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case envDev:
		log = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case envProd:
		log = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	default:
		log = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}

	return log
}

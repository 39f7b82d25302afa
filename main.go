package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Eursukkul/ticket-marketplace/ticketing-service/config"
	"github.com/Eursukkul/ticket-marketplace/ticketing-service/internal/clock"
	"github.com/Eursukkul/ticket-marketplace/ticketing-service/internal/consumer"
	"github.com/Eursukkul/ticket-marketplace/ticketing-service/internal/handler"
	"github.com/Eursukkul/ticket-marketplace/ticketing-service/internal/messaging"
	"github.com/Eursukkul/ticket-marketplace/ticketing-service/internal/metrics"
	"github.com/Eursukkul/ticket-marketplace/ticketing-service/internal/middleware"
	"github.com/Eursukkul/ticket-marketplace/ticketing-service/internal/ratelimit"
	"github.com/Eursukkul/ticket-marketplace/ticketing-service/internal/repository"
	"github.com/Eursukkul/ticket-marketplace/ticketing-service/internal/repository/memory"
	"github.com/Eursukkul/ticket-marketplace/ticketing-service/internal/service"
	"github.com/Eursukkul/ticket-marketplace/ticketing-service/pkg/database"
	"github.com/Eursukkul/ticket-marketplace/ticketing-service/pkg/kafka"
	"github.com/Eursukkul/ticket-marketplace/ticketing-service/pkg/logger"
	"github.com/Eursukkul/ticket-marketplace/ticketing-service/pkg/rabbitmq"
	redisclient "github.com/Eursukkul/ticket-marketplace/ticketing-service/pkg/redis"
	"github.com/labstack/echo/v4"
	echoMw "github.com/labstack/echo/v4/middleware"
	"golang.org/x/sync/errgroup"
)

const serviceName = "ticketing-service"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	l := logger.InitializeZapLogger(logger.ZapConfig{
		Level:    cfg.Log.Level,
		Mode:     cfg.Log.Mode,
		Encoding: cfg.Log.Encoding,
	}).With("service", serviceName)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, l); err != nil {
		l.Fatalf(ctx, "%s stopped: %v", serviceName, err)
	}
	l.Info(ctx, "shutdown complete")
}

func run(ctx context.Context, cfg *config.Config, l logger.Logger) error {
	m := metrics.New()

	deps := service.Dependencies{
		Metrics: m,
		Clock:   clock.NewSystem(),
		Logger:  l,
	}

	switch cfg.Storage.Driver {
	case config.StorageDriverMemory:
		store := memory.NewStore()
		deps.Tx, deps.Events, deps.Inventory, deps.Tickets = store, store.Events(), store.Inventory(), store.Tickets()
		l.Warn(ctx, "using in-memory storage, data is lost on restart")
	default:
		db, err := database.NewPostgresDB(cfg.DSN(), cfg.Postgres)
		if err != nil {
			return err
		}
		defer database.Close(db)
		deps.Tx = repository.NewTransactor(db)
		deps.Events = repository.NewEventRepository(db)
		deps.Inventory = repository.NewInventoryRepository(db)
		deps.Tickets = repository.NewTicketRepository(db)
	}

	publisher, err := newPublisher(cfg)
	if err != nil {
		return err
	}
	defer publisher.Close()
	deps.Publisher = publisher

	bookingSvc := service.NewBookingService(deps, cfg.Booking.RequireApproved)
	cancelSvc := service.NewCancellationService(deps)
	checkinSvc := service.NewCheckinService(deps)
	ledgerSvc := service.NewLedgerService(deps)
	catalogSvc := service.NewCatalogService(deps)
	auditSvc := service.NewAuditService(deps)

	var buyLimit echo.MiddlewareFunc
	if cfg.RateLimit.Enabled {
		rdb, err := redisclient.NewClient(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		defer rdb.Close()
		limiter := ratelimit.NewRedisLimiter(rdb, "ratelimit:buy", cfg.RateLimit.BuyLimit, cfg.RateLimit.BuyWindow)
		buyLimit = middleware.RateLimit(limiter, m, l)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = middleware.ErrorHandler(l)
	e.Server.ReadTimeout = cfg.Server.ReadTimeout
	e.Server.WriteTimeout = cfg.Server.WriteTimeout
	e.Use(echoMw.RequestID())
	e.Use(middleware.RequestLogger(l))
	e.Use(echoMw.Recover())

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok", "service": serviceName})
	})
	e.GET("/metrics", echo.WrapHandler(m.Handler()))

	handler.NewTicketHandler(bookingSvc, cancelSvc, checkinSvc, ledgerSvc).
		RegisterRoutes(e, middleware.Auth(cfg.JWT.Secret), buyLimit)
	handler.NewEventHandler(auditSvc).RegisterRoutes(e)

	g, gctx := errgroup.WithContext(ctx)

	if cfg.RabbitMQ.ConsumeCatalog {
		mqConsumer, err := rabbitmq.NewConsumer(cfg.RabbitMQ.URL)
		if err != nil {
			return err
		}
		defer mqConsumer.Close()

		msgs, err := mqConsumer.Consume()
		if err != nil {
			return err
		}

		eventConsumer := consumer.NewEventConsumer(catalogSvc, m, l)
		g.Go(func() error {
			return eventConsumer.Run(gctx, msgs)
		})
		l.Infof(ctx, "consuming catalog events from queue %s", rabbitmq.CatalogQueue)
	}

	g.Go(func() error {
		l.Infof(ctx, "%s starting on :%s (storage=%s, events=%s)",
			serviceName, cfg.Server.Port, cfg.Storage.Driver, cfg.Booking.EventsBackend)
		if err := e.Start(":" + cfg.Server.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.Server.ShutdownTimeout)
		defer cancel()
		l.Info(shutdownCtx, "shutting down http server")
		return e.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func newPublisher(cfg *config.Config) (messaging.Publisher, error) {
	switch cfg.Booking.EventsBackend {
	case config.EventsBackendRabbitMQ:
		pub, err := rabbitmq.NewPublisher(cfg.RabbitMQ.URL, rabbitmq.TicketsExchange)
		if err != nil {
			return nil, err
		}
		return messaging.NewRabbitPublisher(pub), nil
	case config.EventsBackendKafka:
		prod, err := kafka.NewProducer(kafka.ProducerConfig{
			Brokers:      cfg.Kafka.Brokers,
			RetryMax:     cfg.Kafka.ProducerRetryMax,
			RequiredAcks: cfg.Kafka.ProducerRequiredAcks,
			Timeout:      cfg.Kafka.ProducerTimeout,
		})
		if err != nil {
			return nil, err
		}
		return messaging.NewKafkaPublisher(prod, cfg.Kafka.Topic), nil
	default:
		return messaging.NewNoopPublisher(), nil
	}
}

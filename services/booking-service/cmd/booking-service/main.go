package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/halcyon-studio/slotbook/libs/config"
	"github.com/halcyon-studio/slotbook/libs/db"
	"github.com/halcyon-studio/slotbook/libs/grpcx"
	"github.com/halcyon-studio/slotbook/libs/httpx"
	"github.com/halcyon-studio/slotbook/libs/kafkax"
	otelx "github.com/halcyon-studio/slotbook/libs/otel"
	"github.com/halcyon-studio/slotbook/libs/runtime"
	"github.com/halcyon-studio/slotbook/services/booking-service/internal/booking"
	"github.com/halcyon-studio/slotbook/services/booking-service/internal/handlers"
	"github.com/halcyon-studio/slotbook/services/booking-service/internal/outbox"
	"github.com/halcyon-studio/slotbook/services/booking-service/internal/storage"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		slog.Error("load .env failed", "err", err)
	}
	cfg, err := loadSettings()
	logger := runtime.NewLogger(config.String("SERVICE_NAME", "booking-service"))
	if err != nil {
		logger.Error("invalid configuration", "err", err)
		os.Exit(1)
	}
	if err := run(cfg, logger); err != nil {
		logger.Error("booking-service failed", "err", err)
		os.Exit(1)
	}
}

func run(cfg settings, logger *slog.Logger) error {
	ctx, stop := runtime.SignalContext()
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(cfg.Service))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() { _ = otelx.Shutdown(otelShutdown, 5*time.Second) }()
	}

	pool, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	if cfg.MigrateOnStart {
		if err := storage.Migrate(ctx, pool); err != nil {
			return err
		}
		logger.Info("schema migrated")
	}

	outboxRepo := outbox.NewRepository(pool)
	bookingRepo := storage.NewBookingRepository(pool, outboxRepo)
	availabilityRepo := storage.NewAvailabilityRepository(pool)

	svc, err := booking.NewService(booking.Options{
		Store:        bookingRepo,
		Availability: availabilityRepo,
		Config:       cfg.Scheduling,
		Logger:       logger,
		StoreTimeout: cfg.StoreTimeout,
	})
	if err != nil {
		return err
	}
	if _, err := svc.CheckGuard(ctx); err != nil {
		logger.Warn("exclusion guard probe failed", "err", err)
	}

	publisher := outbox.NewPublisher(outboxRepo, logger, outbox.PublisherConfig{
		Brokers:   cfg.KafkaBrokers,
		PollEvery: 2 * time.Second,
		BatchSize: 50,
	})
	var workers runtime.Workers
	workers.Go(func() { publisher.Run(ctx) })

	checks := []runtime.ReadyCheck{
		{Name: "db", Check: db.ReadyCheck(pool)},
		{Name: "kafka", Check: kafkax.ReadyCheck(cfg.KafkaBrokers), Optional: !publisher.Enabled()},
	}

	limit := httpx.NewRateLimiter(cfg.RateLimit, time.Minute).Middleware()
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer func() { _ = rdb.Close() }()
		limit = httpx.NewRedisRateLimiter(rdb, cfg.RateLimit, time.Minute, "booking").Middleware(logger, true)
		checks = append(checks, runtime.ReadyCheck{Name: "redis", Check: httpx.RedisReadyCheck(rdb), Optional: true})
	}

	bookingHandler := handlers.NewBookingHandler(svc, logger)
	adminHandler := handlers.NewAdminHandler(bookingRepo, availabilityRepo, cfg.Scheduling.Loc(), logger)
	if cfg.AdminKeyHash == "" {
		logger.Warn("ADMIN_API_KEY_HASH not set; admin endpoints are disabled")
	}
	admin := httpx.RequireAPIKey(cfg.AdminKeyHash)
	public := func(h http.HandlerFunc) http.Handler {
		return httpx.Chain(h, httpx.WithBodyLimit(64<<10), limit)
	}

	mux := runtime.NewBaseMuxWithReady(checks...)
	mux.Handle("/api/v1/public/slots", public(bookingHandler.Slots))
	mux.Handle("/api/v1/public/book", public(bookingHandler.Book))
	mux.Handle("/api/v1/admin/appointments", admin(http.HandlerFunc(adminHandler.ListAppointments)))
	mux.Handle("/api/v1/admin/appointments/cancel", admin(http.HandlerFunc(adminHandler.CancelAppointment)))
	mux.Handle("/api/v1/admin/availability", admin(http.HandlerFunc(adminHandler.ListAvailability)))

	httpHandler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithRecover(logger),
		httpx.WithCORS(httpx.PublicCORSPolicy(cfg.CORSOrigins)),
		httpx.WithTimeout(15*time.Second),
	)
	httpHandler = otelhttp.NewHandler(httpHandler, "booking")
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           httpHandler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	grpcSrv := grpcx.NewServer(logger, grpcx.ServerConfig{
		Service: "slotbook.booking",
		Probe:   db.ReadyCheck(pool),
	})
	lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
	if err != nil {
		stop()
		workers.Wait(5 * time.Second)
		return err
	}
	workers.Go(func() {
		logger.Info("grpc server starting", "addr", lis.Addr().String())
		if err := grpcSrv.Serve(ctx, lis); err != nil {
			logger.Error("grpc server error", "err", err)
		}
	})

	go func() {
		logger.Info("http server starting", "addr", srv.Addr, "timezone", cfg.Scheduling.Loc().String(),
			"slot_minutes", cfg.Scheduling.SlotDurationMinutes, "buffer_minutes", cfg.Scheduling.BufferMinutes)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}
	logger.Info("http server stopped")
	if !workers.Wait(10 * time.Second) {
		logger.Warn("background workers did not stop in time")
	}
	return nil
}

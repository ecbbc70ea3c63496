package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/quadpass/quadpass/internal/app"
	"github.com/quadpass/quadpass/internal/auth"
	"github.com/quadpass/quadpass/internal/clock"
	"github.com/quadpass/quadpass/internal/config"
	"github.com/quadpass/quadpass/internal/realtime"
	"github.com/quadpass/quadpass/internal/storage/postgres"
	transporthttp "github.com/quadpass/quadpass/internal/transport/http"
	"github.com/quadpass/quadpass/internal/transport/ws"
	"github.com/quadpass/quadpass/migrations"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	startupCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pool, err := pgxpool.New(startupCtx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("connect to db", zap.Error(err))
	}
	defer pool.Close()

	if err := pool.Ping(startupCtx); err != nil {
		logger.Fatal("db ping", zap.Error(err))
	}
	if err := migrations.Apply(startupCtx, pool); err != nil {
		logger.Fatal("apply migrations", zap.Error(err))
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Fatal("parse redis url", zap.Error(err))
		}
		redisClient = redis.NewClient(opts)
		if err := redisClient.Ping(startupCtx).Err(); err != nil {
			logger.Fatal("redis ping", zap.Error(err))
		}
		defer func() { _ = redisClient.Close() }()
	} else {
		logger.Warn("REDIS_URL not set, notification relay disabled")
	}

	registry := realtime.NewRegistry()
	relay := realtime.NewRelay(redisClient, registry, cfg.EventsChannel, logger)
	relay.Start(context.Background())
	defer relay.Stop()

	verifier := auth.NewHMAC(cfg.JWTSecret)

	ticketRepo := postgres.NewTicketRepository(pool)
	ticketSvc := app.NewTicketService(ticketRepo, relay, clock.NewSystem(), logger)
	eventRepo := postgres.NewEventRepository(pool)
	eventSvc := app.NewEventService(eventRepo, relay, clock.NewSystem(), logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", transporthttp.HealthHandler)
	mux.Handle("/status", transporthttp.HandleStatus(relay, registry))
	mux.Handle("/events", transporthttp.HandleEvents(eventSvc))
	mux.Handle("/events/", transporthttp.HandleEvent(eventSvc))
	mux.Handle("/purchase", transporthttp.RequireUser(verifier, transporthttp.HandlePurchase(ticketSvc)))
	mux.Handle("/tickets", transporthttp.RequireUser(verifier, transporthttp.HandleTickets(ticketSvc)))
	mux.Handle("/admin/events", transporthttp.HandleAdminEvents(eventSvc))
	mux.Handle("/admin/events/", transporthttp.HandleAdminEvent(eventSvc))
	mux.Handle("/ws", ws.NewHandler(registry, verifier, cfg.CORSOrigins, logger))
	mux.Handle("/", transporthttp.NotFoundHandler())

	handler := transporthttp.RequestLogger(transporthttp.CORS(cfg.CORSOrigins, mux), logger)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: handler,
	}

	logger.Info("api listening", zap.String("port", cfg.Port))

	srvErr := make(chan error, 1)
	go func() {
		srvErr <- server.ListenAndServe()
	}()

	stopCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", zap.Error(err))
		}
	case <-stopCtx.Done():
		logger.Info("shutdown signal received, stopping server")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server shutdown error", zap.Error(err))
	}
	logger.Info("server stopped")
}

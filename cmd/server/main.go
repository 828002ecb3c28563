package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"github.com/example/takataka/internal/broadcast"
	"github.com/example/takataka/internal/config"
	"github.com/example/takataka/internal/dispatch"
	"github.com/example/takataka/internal/eta"
	"github.com/example/takataka/internal/geo"
	httpapi "github.com/example/takataka/internal/http"
	"github.com/example/takataka/internal/ingest"
	"github.com/example/takataka/internal/logging"
	"github.com/example/takataka/internal/notify"
	"github.com/example/takataka/internal/storage"
)

func main() {
	cfg, err := config.LoadServerConfig()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	logger := logging.NewLogger(cfg.LogLevel)

	if cfg.PGDSN != "" && cfg.RunMigrations {
		if err := runMigrations(cfg.PGDSN); err != nil {
			logger.Error("migrations failed", "error", err)
			os.Exit(1)
		}
		logger.Info("migrations applied")
	}

	var store storage.ReservationStore
	if cfg.PGDSN != "" {
		ps, err := storage.NewPostgresStore(cfg.PGDSN)
		if err != nil {
			logger.Error("postgres unavailable", "error", err)
			os.Exit(1)
		}
		store = ps
	} else {
		logger.Warn("PG_DSN not set, using in-memory reservation store")
		store = storage.NewMemoryStore()
	}

	var driverIndex geo.Geo
	if cfg.RedisAddr != "" {
		driverIndex = geo.NewRedisGeo(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisGeoKey, cfg.BroadcastRadiusM)
	} else {
		driverIndex = geo.NewIndex()
	}

	var producer *ingest.LocationProducer
	if len(cfg.KafkaBrokers) > 0 {
		producer = ingest.NewLocationProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer producer.Close()
	}

	passengers := notify.NewWSRegistry(logger)
	drivers := notify.NewWSRegistry(logger)

	// Passenger pushes go over the local websocket registry unless a push
	// provider endpoint is configured.
	var passengerChannel notify.Channel = passengers
	if cfg.PushEndpoint != "" {
		passengerChannel = notify.NewWebhookChannel(cfg.PushEndpoint, cfg.PushKey)
	}

	bc := &broadcast.Service{
		Geo:             driverIndex,
		Drivers:         drivers,
		Logger:          logger,
		DefaultSpeedMps: cfg.DefaultSpeedMps,
		TopN:            cfg.BroadcastTopN,
		ETACache:        eta.NewCache(cfg.ETACacheTTL),
	}
	if cfg.OSRMEndpoint != "" {
		bc.ETAClient = eta.NewOSRMClient(cfg.OSRMEndpoint)
	}

	srv := httpapi.NewServer(httpapi.Deps{
		Logger:     logger,
		Store:      store,
		Handshake:  dispatch.NewHandshake(store, passengerChannel, logger),
		Broadcast:  bc,
		Geo:        driverIndex,
		Kafka:      producer,
		Passengers: passengers,
		Drivers:    drivers,
	})

	httpServer := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      srv,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("takataka dispatch listening", "addr", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server stopped", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown incomplete", "error", err)
	}
}

func runMigrations(dsn string) error {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return err
	}
	defer db.Close()
	b, err := os.ReadFile(filepath.Join("migrations", "001_create_reservations.sql"))
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	_, err = db.ExecContext(ctx, string(b))
	return err
}

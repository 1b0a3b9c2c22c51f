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

	_ "github.com/lib/pq"

	"github.com/example/carpool/internal/config"
	httpapi "github.com/example/carpool/internal/http"
	"github.com/example/carpool/internal/ingest"
	"github.com/example/carpool/internal/live"
	"github.com/example/carpool/internal/livemap"
	"github.com/example/carpool/internal/logging"
	"github.com/example/carpool/internal/ride"
	"github.com/example/carpool/internal/storage"
)

func main() {
	cfg, err := config.LoadServerConfig()
	if err != nil {
		logging.NewLogger("error").Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	logger := logging.NewLogger(cfg.LogLevel)

	if cfg.RunMigrations && cfg.PGDSN != "" {
		runMigrations(cfg.PGDSN, logger)
	}

	var store storage.RideStore
	if cfg.PGDSN != "" {
		ps, err := storage.NewPostgresStore(cfg.PGDSN)
		if err != nil {
			logger.Error("postgres unavailable", "error", err)
			os.Exit(1)
		}
		defer ps.Close()
		store = ps
	} else {
		logger.Warn("no PG_DSN configured, using in-memory store")
		store = storage.NewMemoryStore()
	}

	var cache livemap.Cache
	if cfg.RedisAddr != "" {
		rc := livemap.NewRedisCache(cfg.RedisAddr, cfg.RedisPassword)
		defer rc.Close()
		cache = rc
	}

	svc := &ride.Service{Store: store, Hub: cfg.Hub, Logger: logger}
	if len(cfg.KafkaBrokers) > 0 {
		kp := ingest.NewKafkaProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer kp.Close()
		svc.Publisher = kp
	}
	viewerHub := live.NewHub(logger)
	svc.Live = viewerHub

	api := httpapi.NewServer(svc, cache, viewerHub, logger)
	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      api,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("carpool api listening", "addr", cfg.HTTPAddr, "hub_lat", cfg.Hub.Lat, "hub_lng", cfg.Hub.Lng)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", "error", err)
	}
}

func runMigrations(dsn string, logger *slog.Logger) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		logger.Error("migration db open error", "error", err)
		return
	}
	defer db.Close()
	b, err := os.ReadFile(filepath.Join("migrations", "001_create_rides.sql"))
	if err != nil {
		logger.Error("migration read error", "error", err)
		return
	}
	if _, err := db.Exec(string(b)); err != nil {
		logger.Error("migration exec error", "error", err)
		return
	}
	logger.Info("migration applied", "file", "001_create_rides.sql")
}

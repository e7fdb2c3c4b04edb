package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/sifan077/ShortURL/config"
	appmodel "github.com/sifan077/ShortURL/internal/app/model"
	apprepository "github.com/sifan077/ShortURL/internal/app/repository"
	appserver "github.com/sifan077/ShortURL/internal/app/server"
	appservice "github.com/sifan077/ShortURL/internal/app/service"
	infraDatabase "github.com/sifan077/ShortURL/internal/infra/database"
	"github.com/sifan077/ShortURL/internal/infra/logger"
	infraNATS "github.com/sifan077/ShortURL/internal/infra/nats"
	infraPrometheus "github.com/sifan077/ShortURL/internal/infra/prometheus"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		logger.MustInit(logger.Config{}).Fatal("Failed to load config", zap.Error(err))
	}

	log := logger.MustInit(logger.Config{
		Development: !cfg.IsProduction(),
		Level:       cfg.Log.Level,
		Encoding:    cfg.Log.Encoding,
		Service:     "shorturl",
	})
	defer func() { _ = logger.Sync() }()

	log.Info("Configuration loaded successfully",
		zap.String("env", cfg.App.Env),
		zap.String("address", cfg.ServerAddress()),
		zap.String("base_url", cfg.App.BaseURL),
		zap.Bool("nats_enabled", cfg.NATS.Enabled),
		zap.Bool("prometheus_enabled", cfg.Prometheus.Enabled),
	)

	db, target, err := infraDatabase.Open(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal("Failed to open database", zap.Error(err))
	}
	defer func() {
		if err := infraDatabase.Close(db); err != nil {
			log.Warn("Failed to close database", zap.Error(err))
		}
	}()

	if err := infraDatabase.AutoMigrate(ctx, db, &appmodel.ShortLink{}); err != nil {
		log.Fatal("Failed to run database migrations", zap.Error(err))
	}
	log.Info("Connected to database successfully", zap.String("dialect", string(target.Dialect)))

	opts := []appservice.Option{
		appservice.WithLogger(log.Named("links")),
	}

	if cfg.NATS.Enabled {
		natsConn, js, err := infraNATS.Connect(cfg.NATS, log)
		if err != nil {
			log.Fatal("Failed to connect to NATS", zap.Error(err))
		}
		defer drainNATS(natsConn, log)

		if err := appservice.EnsureLinkStream(js); err != nil {
			log.Fatal("Failed to ensure link stream", zap.Error(err))
		}
		opts = append(opts, appservice.WithEventPublisher(appservice.NewJetStreamPublisher(js)))
		log.Info("Connected to NATS successfully", zap.String("stream", appmodel.LinkStreamName))
	} else {
		log.Info("NATS disabled, link events are not published")
	}

	var metrics *infraPrometheus.Metrics
	if cfg.Prometheus.Enabled {
		reg := infraPrometheus.NewRegistry()
		metrics = infraPrometheus.NewMetrics(reg)
		opts = append(opts, appservice.WithMetrics(metrics))

		promServer := infraPrometheus.NewServer(cfg.Prometheus, reg)
		go func() {
			log.Info("Starting Prometheus metrics server",
				zap.Int("port", cfg.Prometheus.Port))
			if err := promServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("Prometheus metrics server stopped unexpectedly", zap.Error(err))
			}
		}()
		defer func() {
			if err := promServer.Close(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Warn("Failed to close Prometheus server", zap.Error(err))
			}
		}()
	} else {
		log.Info("Prometheus metrics server disabled")
	}

	linkRepo := apprepository.NewLinkRepository(db)
	linkService := appservice.NewLinkService(linkRepo, opts...)

	deps := appserver.Dependencies{
		Logger:  log,
		Links:   linkService,
		BaseURL: cfg.App.BaseURL,
		Ping: func(ctx context.Context) error {
			return infraDatabase.Ping(ctx, db)
		},
	}
	if metrics != nil {
		deps.Metrics = metrics
	}
	server := appserver.New(deps)

	serveErr := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", zap.String("address", cfg.ServerAddress()))
		serveErr <- server.Listen(cfg.ServerAddress())
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			log.Error("Fiber server exited", zap.Error(err))
		}
	case <-ctx.Done():
		log.Info("Shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error("Graceful shutdown failed", zap.Error(err))
		}
	}
}

func drainNATS(conn *nats.Conn, log *zap.Logger) {
	if err := conn.Drain(); err != nil {
		log.Warn("Failed to drain NATS connection", zap.Error(err))
	}
}

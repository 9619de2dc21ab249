package main

import (
	"context"
	"flag"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wnt/memetrack/internal/api"
	"github.com/wnt/memetrack/internal/broadcast"
	"github.com/wnt/memetrack/internal/config"
	"github.com/wnt/memetrack/internal/database"
	"github.com/wnt/memetrack/internal/engine"
	"github.com/wnt/memetrack/internal/freshness"
	"github.com/wnt/memetrack/internal/ingestion"
	"github.com/wnt/memetrack/internal/logger"
	"github.com/wnt/memetrack/internal/monitor"
	"github.com/wnt/memetrack/internal/store"
	"github.com/wnt/memetrack/internal/versioning"
)

func main() {
	envFile := flag.String("envFile", ".env", "Path to .env file")
	flag.Parse()

	// Load environment variables from the specified file
	if err := godotenv.Load(*envFile); err != nil {
		stdlog.Printf("No .env file found at %s, using environment variables", *envFile)
	}

	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New("info")
		bootLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(cfg.LogLevel)
	log.Info().Str("listen_addr", cfg.ListenAddr).Msg("Starting memetrack")

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}

	st, err := store.New(db)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize store")
	}

	var relay broadcast.Relay
	if cfg.RedisURL != "" {
		redisRelay, err := broadcast.NewRedisRelay(cfg.RedisURL, cfg.RelayChannel, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Redis relay")
		}
		defer redisRelay.Close()
		relay = redisRelay
	}
	hub := broadcast.NewHub(relay, log)

	oracle := freshness.New(freshness.Config{
		APIBase:  cfg.FreshnessAPIBase,
		Timeout:  cfg.FreshnessTimeout,
		FailOpen: cfg.FreshnessFailOpen,
	}, log)

	source, err := ingestion.NewClient(ingestion.Config{
		APIBase:           cfg.IngestAPIBase,
		APIToken:          cfg.IngestAPIToken,
		MaxPosts:          cfg.IngestMaxPosts,
		RequestsPerSecond: cfg.IngestRateLimit,
	}, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize ingestion client")
	}

	eng := engine.New(st, st, oracle, hub, log)

	var filter monitor.Filter
	if cfg.BlacklistFiltering {
		filter = monitor.NewBlacklistFilter(st, log)
	}
	mon := monitor.New(st, source, eng, filter, monitor.Config{
		PollInterval: cfg.PollInterval,
		ErrorBackoff: cfg.ErrorBackoff,
	}, log)

	versions := versioning.New(st, log)

	// Resume monitoring if it was running before the last shutdown
	settings, err := st.GetSettings(context.Background())
	if err != nil {
		log.Warn().Err(err).Msg("Failed to read settings, monitoring stays stopped")
	} else if settings.MonitoringEnabled {
		if err := mon.Start(); err != nil {
			log.Warn().Err(err).Msg("Failed to resume monitoring")
		} else {
			log.Info().Msg("Monitoring resumed from persisted state")
		}
	}

	server := api.NewServer(st, mon, versions, hub, log)
	httpServer := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      server.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // websocket connections stay open
		IdleTimeout:  60 * time.Second,
	}

	metricsServer := &http.Server{
		Addr:    ":" + cfg.MetricsPort,
		Handler: promhttp.Handler(),
	}
	go func() {
		log.Info().Str("port", cfg.MetricsPort).Msg("Metrics server listening")
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("Metrics server failed")
		}
	}()

	go func() {
		log.Info().Str("addr", cfg.ListenAddr).Msg("API server listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("API server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down")

	mon.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("API server shutdown failed")
	}
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Metrics server shutdown failed")
	}

	log.Info().Msg("Shutdown complete")
}

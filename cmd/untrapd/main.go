package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"tourist-untrap-backend/config"
	"tourist-untrap-backend/internal/api"
	"tourist-untrap-backend/internal/crowd"
	"tourist-untrap-backend/internal/db"
	"tourist-untrap-backend/internal/feed"
	"tourist-untrap-backend/internal/forecast"
	"tourist-untrap-backend/internal/logging"
	"tourist-untrap-backend/internal/seed"
	"tourist-untrap-backend/internal/store"
)

func main() {
	defaultConfig := os.Getenv("CONFIG_PATH")
	if defaultConfig == "" {
		defaultConfig = "./config/config.yaml" // Default path for local development
	}
	configPath := flag.String("config", defaultConfig, "path to the YAML configuration file")
	seedDB := flag.Bool("seed", false, "load sample attractions and a week of synthetic crowd data into an empty database")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logging.Fatal().Err(err).Str("path", *configPath).Msg("failed to load configuration")
	}
	logging.Init(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	logging.Info().Str("path", *configPath).Msg("configuration loaded")

	if logging.ParseLevel(cfg.Log.Level) != zerolog.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}

	gormDB, err := db.Init(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to initialize database")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	appStore := store.NewGormStore(gormDB)

	if *seedDB {
		res, err := seed.Run(ctx, appStore, rand.New(rand.NewSource(time.Now().UnixNano())), time.Now())
		if err != nil {
			logging.Fatal().Err(err).Msg("failed to seed database")
		}
		logging.Info().Bool("skipped", res.Skipped).Int("attractions", res.Attractions).Int("observations", res.Observations).Msg("seed finished")
	}

	forecastSvc := forecast.NewService(appStore, crowd.NewEstimator(cfg.CrowdParams()), cfg.WorkerPool.Size)
	forecastSvc.Start(ctx)

	feedSvc := feed.NewService(&cfg.Feed, appStore)
	go feedSvc.Run(ctx)

	router := api.NewRouter(&cfg.Server, appStore, forecastSvc)
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logging.Info().Int("port", cfg.Server.Port).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal().Err(err).Msg("HTTP server ListenAndServe failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	<-stop
	logging.Info().Msg("shutdown signal received, stopping services")

	// In-flight requests drain before the worker pool and feed stop.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("HTTP server Shutdown failed")
	}
	cancel()

	logging.Info().Msg("server gracefully stopped")
}

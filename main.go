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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"tour-server/config"
	"tour-server/handlers"
	"tour-server/models"
	"tour-server/services"
	"tour-server/utils/logger"
)

const serviceName = "tour-server"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Error loading configuration: %v", err)
	}

	logr, err := logger.New(serviceName, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("Error building logger: %v", err)
	}
	defer logr.Sync()
	zap.ReplaceGlobals(logr)

	ctx := context.Background()

	catalog, err := services.LoadCatalogFile(cfg.CatalogPath)
	if err != nil {
		// The server still answers state queries; it just has nothing to play.
		logr.Error("catalog unusable, starting with an empty tour", zap.String("path", cfg.CatalogPath), zap.Error(err))
		catalog = &models.Catalog{Languages: []string{"en", "es"}}
	}

	var mongoSource *services.MongoCatalogSource
	if cfg.MongoURI != "" {
		mongoSource, err = services.NewMongoCatalogSource(ctx, cfg.MongoURI, cfg.MongoDatabase, logr)
		if err != nil {
			logr.Fatal("Error connecting to MongoDB", zap.Error(err))
		}
		catalog, err = mongoSource.Load(ctx, catalog)
		if err != nil {
			logr.Fatal("Error loading catalog from MongoDB", zap.Error(err))
		}
	}
	if ids := services.AdsMissingPrefix(catalog, cfg.AdIDPrefix); len(ids) > 0 {
		logr.Warn("ads without the configured id prefix", zap.String("prefix", cfg.AdIDPrefix), zap.Strings("ids", ids))
	}
	logr.Info("catalog loaded",
		zap.Int("pois", len(catalog.POIs)),
		zap.Int("ads", len(catalog.Ads)),
		zap.Strings("languages", catalog.Languages))

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := services.NewMetrics(reg)

	resolver := services.NewContentResolver(cfg.PublicBaseURL, catalog.Languages)
	state := services.NewTourState()
	hub := services.NewHub(services.HubOptions{
		Timeout:       cfg.BroadcastTimeout,
		AdTriggerType: cfg.AdTriggerType,
	}, logr, metrics)

	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient, err = services.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisDB)
		if err != nil {
			logr.Fatal("Error connecting to Redis", zap.Error(err))
		}
		hub.Subscribe(services.NewRedisRelay(redisClient, cfg.RedisChannel, logr))
	}

	var policy services.TriggerPolicy
	switch cfg.TriggerPolicy {
	case config.PolicyGeofence:
		policy = services.NewGeofencePolicy(catalog.POIs, catalog.RoutePoints(), state, resolver, logr, metrics)
	default:
		policy = services.NewTimedPolicy(catalog.POIs, state, resolver, logr, metrics)
	}

	ads := services.NewAdScheduler(catalog.Ads, cfg.AdDelay, nil, state, resolver, hub, logr, metrics)
	tourService := services.NewTourService(state, policy, ads, hub, services.TourServiceOptions{
		TickInterval: cfg.TickInterval,
	}, logr, metrics)

	wsHandler := handlers.NewWSHandler(hub, cfg.AllowedOrigins, logr)
	r := handlers.NewRouter(handlers.RouterDeps{
		Tour:           handlers.NewTourHandler(tourService),
		POI:            handlers.NewPOIHandler(services.NewGeoService(catalog.POIs), catalog, resolver),
		WS:             wsHandler,
		Health:         handlers.NewHealthHandler(tourService, hub, len(catalog.POIs)),
		Gatherer:       reg,
		AudioDir:       cfg.AudioDir,
		ImageDir:       cfg.ImageDir,
		AllowedOrigins: cfg.AllowedOrigins,
		Log:            logr,
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Info("Server starting",
			zap.String("addr", srv.Addr),
			zap.String("policy", policy.Name()),
			zap.Duration("tick", cfg.TickInterval))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("Server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logr.Info("Shutting down")

	tourService.Close()
	wsHandler.CloseAll()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("Server shutdown failed", zap.Error(err))
	}
	if mongoSource != nil {
		if err := mongoSource.Close(shutdownCtx); err != nil {
			logr.Warn("MongoDB disconnect failed", zap.Error(err))
		}
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			logr.Warn("Redis close failed", zap.Error(err))
		}
	}
}

package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/AntonBabychP1T/krol-project/config"
	"github.com/AntonBabychP1T/krol-project/internal/api"
	"github.com/AntonBabychP1T/krol-project/internal/broker"
	"github.com/AntonBabychP1T/krol-project/internal/insightapi"
	"github.com/AntonBabychP1T/krol-project/internal/promapi"
	"github.com/AntonBabychP1T/krol-project/internal/redisclient"
	"github.com/AntonBabychP1T/krol-project/internal/service"
	"github.com/AntonBabychP1T/krol-project/internal/store"
	"github.com/AntonBabychP1T/krol-project/internal/util"
	"github.com/AntonBabychP1T/krol-project/internal/worker"

	"github.com/gin-gonic/gin"
)

func main() {

	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting prom sync service")

	tp, err := util.InitTracer("prom-sync", cfg.Observ.JaegerEndpoint)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("Error shutting down tracer: %v", err)
		}
	}()

	db, err := store.NewStore(cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Database connected")

	redisClient, err := redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()
	log.Println("Redis connected")

	producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicSync)
	defer producer.Close()
	log.Println("Kafka producer initialized")

	eventPublisher := broker.NewEventPublisher(producer)

	marketplaceClient := promapi.NewClient(
		cfg.Marketplace.BaseURL,
		time.Duration(cfg.Marketplace.TimeoutSeconds)*time.Second,
	)

	syncService := service.NewSyncService(marketplaceClient, db)
	analyticsService := service.NewAnalyticsService(db)

	var generator service.TextGenerator
	if cfg.Insights.Endpoint != "" {
		generator = insightapi.NewClient(
			cfg.Insights.Endpoint,
			time.Duration(cfg.Insights.TimeoutSeconds)*time.Second,
		)
	}
	insightService := service.NewInsightService(analyticsService, generator)

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	syncConsumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicSync, cfg.Kafka.ConsumerGroup)
	syncWorker := worker.NewSyncWorker(syncConsumer, syncService, db, redisClient, eventPublisher)
	go func() {
		if err := syncWorker.Start(workerCtx); err != nil {
			log.Printf("Sync worker error: %v", err)
		}
	}()

	if cfg.Scheduler.DailySyncEnabled {
		scheduler := worker.NewScheduler(db, eventPublisher, cfg.Scheduler.DailySyncHour)
		go scheduler.Start(workerCtx)
	}

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()
	handler := api.NewHandler(db, eventPublisher, redisClient, analyticsService, insightService)
	handler.SetupRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		log.Printf("Starting HTTP server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	workerCancel()
	syncWorker.Stop()

	log.Println("Server exited")
}

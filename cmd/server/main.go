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

	"guardian-backend/internal/alert"
	"guardian-backend/internal/classifier"
	"guardian-backend/internal/config"
	"guardian-backend/internal/database"
	"guardian-backend/internal/handlers"
	"guardian-backend/internal/middleware"
	"guardian-backend/internal/monitor"
	"guardian-backend/internal/notify"
	"guardian-backend/internal/repository"
	"guardian-backend/internal/router"
	"guardian-backend/internal/websocket"
	"guardian-backend/internal/worker"
)

func main() {
	log.Println("🚀 Starting Guardian Backend...")

	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()
	log.Println("✓ Environment variables loaded")

	// ──── Step 2: Initialize PostgreSQL Connection Pool ────
	pool, err := database.NewPostgresPool(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("✗ PostgreSQL connection failed: %v", err)
	}
	defer pool.Close()
	log.Println("✓ PostgreSQL connected")

	// ──── Step 3: Initialize Redis Clients ────
	redisClients, err := database.NewRedisClients(cfg.RedisURL)
	if err != nil {
		log.Fatalf("✗ Redis connection failed: %v", err)
	}
	defer redisClients.Close()
	log.Println("✓ Redis connected")

	// ──── Step 4: Run Database Migrations ────
	if err := database.RunMigrations(pool, "migrations"); err != nil {
		log.Fatalf("✗ Database migration failed: %v", err)
	}
	log.Println("✓ Database migrations applied")

	// ──── Initialize Repositories ────
	configRepo := repository.NewAlertConfigRepo(pool)
	sessionRepo := repository.NewSessionRepo(pool)
	activityRepo := repository.NewActivityRepo(pool)
	eventRepo := repository.NewAlertEventRepo(pool)
	jobRepo := repository.NewJobRepo(pool)

	// ──── Step 5: Start Notification Dispatcher ────
	emailService := notify.NewEmailService(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom)
	alertPublisher := notify.NewRedisAlertPublisher(redisClients.PubSub)
	dispatcher := notify.NewDispatcher(emailService, alertPublisher, alertPublisher, cfg.NotifyQueueSize)
	dispatcher.Start()
	log.Println("✓ Notification dispatcher started")

	// ──── Step 6: Initialize Alert Engine ────
	engine := alert.NewEngine(dispatcher)

	// Warm the engine with persisted configs
	warmCtx, warmCancel := context.WithTimeout(context.Background(), 10*time.Second)
	configs, err := configRepo.ListAll(warmCtx)
	warmCancel()
	if err != nil {
		log.Printf("⚠ Failed to load persisted alert configs: %v", err)
	} else {
		for _, c := range configs {
			if err := engine.UpdateConfig(c); err != nil {
				log.Printf("⚠ Skipping invalid persisted config for child %s: %v", c.ChildID, err)
			}
		}
		log.Printf("✓ Alert engine warmed with %d configs", len(configs))
	}

	// ──── Step 7: Start Analysis Worker Pool ────
	ruleClassifier := classifier.New()
	aggregator := monitor.NewAggregator()

	workerPool := worker.NewPool(
		redisClients.Queue,
		ruleClassifier,
		aggregator,
		engine,
		jobRepo,
		activityRepo,
		eventRepo,
		cfg.WorkerCount,
	)
	workerPool.Start()
	log.Printf("✓ Worker pool started (%d goroutines)", cfg.WorkerCount)

	// ──── Step 8: Start WebSocket Hub ────
	wsHub := websocket.NewHub(redisClients.PubSub, cfg.JWTSecret)
	log.Println("✓ WebSocket hub started")

	// ──── Step 9: Start HTTP Server ────
	jwtAuth := middleware.NewJWTAuth(cfg.JWTSecret)

	alertHandler := handlers.NewAlertHandler(engine, configRepo, cfg.DefaultLeaveMinutes, cfg.DefaultPlayMinutes)
	ingestHandler := handlers.NewIngestHandler(engine, redisClients.Queue, jobRepo, activityRepo, eventRepo, cfg.StoragePath)
	sessionHandler := handlers.NewSessionHandler(engine, aggregator, sessionRepo)
	reportHandler := handlers.NewReportHandler(activityRepo, eventRepo, emailService)
	emailHandler := handlers.NewEmailHandler(emailService)
	jobHandler := handlers.NewJobHandler(jobRepo)

	r := router.New(
		jwtAuth,
		alertHandler,
		ingestHandler,
		sessionHandler,
		reportHandler,
		emailHandler,
		jobHandler,
		wsHub,
		cfg.AllowedOrigin,
	)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down...")
		workerPool.Stop()
		dispatcher.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	log.Printf("✓ Guardian Backend ready on http://localhost:%s", cfg.Port)
	log.Printf("  API: http://localhost:%s/api/v1", cfg.Port)
	log.Printf("  WS:  ws://localhost:%s/api/v1/ws", cfg.Port)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
}

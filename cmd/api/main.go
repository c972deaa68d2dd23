package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/azro1/flare-care-sub001/internal/db"
	firebaseutil "github.com/azro1/flare-care-sub001/internal/firebase"
	"github.com/azro1/flare-care-sub001/internal/handlers"
	"github.com/azro1/flare-care-sub001/internal/middleware"
	"github.com/azro1/flare-care-sub001/internal/push"
	"github.com/azro1/flare-care-sub001/internal/scheduler"
	"github.com/azro1/flare-care-sub001/internal/store"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	zapLogger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync()
	logger := zapLogger.Sugar()

	// Initialize Firebase
	firebaseApp, err := firebaseutil.InitFirebase()
	if err != nil {
		logger.Fatalf("Failed to initialize Firebase: %v", err)
	}

	// Initialize PostgreSQL
	postgresDB, err := db.InitPostgres()
	if err != nil {
		logger.Fatalf("Failed to initialize PostgreSQL: %v", err)
	}
	defer postgresDB.Close()

	// Initialize Redis
	redisClient, err := db.InitRedis()
	if err != nil {
		logger.Fatalf("Failed to initialize Redis: %v", err)
	}
	defer redisClient.Close()

	reminderStore := store.NewPostgresStore(postgresDB)

	// Push delivery is optional at boot; the dispatch endpoint reports a
	// misconfiguration error until VAPID keys are present
	var sender push.Sender
	var vapidPublicKey string
	if pushCfg, err := push.ConfigFromEnv(); err != nil {
		logger.Warnw("push delivery not configured", "error", err)
	} else {
		sender = push.NewWebPushSender(pushCfg)
		vapidPublicKey = pushCfg.VAPIDPublicKey
	}

	cronSecret := os.Getenv("CRON_SECRET")
	if cronSecret == "" {
		logger.Warn("CRON_SECRET not set, reminder dispatch endpoint disabled")
	}

	// Initialize Gin router
	router := gin.New()
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.RequestLoggingMiddleware(logger))
	router.Use(middleware.RecoveryMiddleware(logger))

	// CORS for the web client
	router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// Initialize handlers
	notificationsHandler := handlers.NewNotificationsHandler(reminderStore, redisClient, logger, vapidPublicKey)
	medicationsHandler := handlers.NewMedicationsHandler(reminderStore, logger)
	dispatchHandler := handlers.NewDispatchHandler(reminderStore, sender, redisClient, logger, cronSecret)

	authRequired := middleware.AuthMiddleware(firebaseApp, postgresDB, redisClient)

	// Define routes
	v1 := router.Group("/api/v1")
	{
		notifications := v1.Group("/notifications")
		{
			notifications.GET("/vapid-public-key", notificationsHandler.GetVAPIDPublicKey)
			notifications.POST("/subscribe", authRequired, notificationsHandler.RegisterSubscription)
			notifications.POST("/stats", authRequired, notificationsHandler.GetReminderStats)
		}

		medications := v1.Group("/medications")
		medications.Use(authRequired)
		{
			medications.POST("/list", medicationsHandler.ListMedications)
		}

		// Dispatch authenticates via the shared cron secret, not a session
		reminderRoutes := v1.Group("/reminders")
		{
			reminderRoutes.POST("/dispatch", dispatchHandler.DispatchReminders)
		}
	}

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Optional in-process trigger for deployments without an external cron
	if os.Getenv("REMINDER_CRON_ENABLED") == "true" && sender != nil {
		reminderCron := scheduler.StartReminderCron(dispatchHandler, logger)
		defer reminderCron.Stop()
		logger.Info("In-process reminder cron enabled")
	}

	// Create HTTP server
	port := os.Getenv("PORT")
	if port == "" {
		port = "9091"
	}
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		logger.Infof("Server starting on port %s...", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	// Give a 5 second timeout for graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatalf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited")
}

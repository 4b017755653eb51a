package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"earnhub/internal/auth"
	"earnhub/internal/config"
	"earnhub/internal/database"
	"earnhub/internal/handlers"
	"earnhub/internal/jobs"
	"earnhub/internal/notify"
	"earnhub/internal/services"
)

func main() {
	setupLogging()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("Failed to load configuration")
	}
	if level, err := log.ParseLevel(cfg.App.LogLevel); err == nil {
		log.SetLevel(level)
	}

	// Initialize JWT
	auth.InitJWT(cfg.App.JWTSecret)

	// Connect to database
	if err := database.Connect(cfg.GetDSN()); err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}

	// Run migrations
	if err := database.AutoMigrate(); err != nil {
		log.WithError(err).Fatal("Failed to run migrations")
	}

	db := database.GetDB()
	loc := cfg.ResetLocation()

	// Initialize collaborators
	notifier := notify.NewTelegramNotifier(cfg.Telegram.BotToken)

	// Initialize services
	settingsService := services.NewSettingsService(db)
	if err := settingsService.Ensure(); err != nil {
		log.WithError(err).Fatal("Failed to initialize system settings")
	}
	referralService := services.NewReferralService(db, settingsService, notifier)
	accountService := services.NewAccountService(db, referralService)
	ledgerService := services.NewLedgerService(db, settingsService, loc, notifier)
	withdrawalService := services.NewWithdrawalService(db, settingsService, notifier)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(accountService, cfg)
	accountHandler := handlers.NewAccountHandler(accountService, ledgerService)
	rewardHandler := handlers.NewRewardHandler(ledgerService, settingsService)
	withdrawalHandler := handlers.NewWithdrawalHandler(withdrawalService)
	adminHandler := handlers.NewAdminHandler(db, accountService, withdrawalService, settingsService)

	// Start the nightly stats snapshot job
	statsJob := jobs.NewStatsJob(db, loc)
	if err := statsJob.Start(); err != nil {
		log.WithError(err).Fatal("Failed to start stats job")
	}
	defer statsJob.Stop()

	// Set up Gin router
	router := gin.Default()

	allowedOrigins := []string{
		"http://localhost:3000",
		"http://localhost:5173",
		"http://127.0.0.1:3000",
		"http://127.0.0.1:5173",
	}
	if frontendURL := os.Getenv("FRONTEND_URL"); frontendURL != "" {
		allowedOrigins = append(allowedOrigins, frontendURL)
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// Authentication routes (public)
	router.POST("/auth/login", authHandler.Login)

	// API routes (protected)
	api := router.Group("/api")
	api.Use(auth.AuthMiddleware())
	{
		// Account endpoints
		api.GET("/account", accountHandler.GetProfile)
		api.GET("/account/events", accountHandler.GetEvents)
		api.GET("/eligibility/:action", accountHandler.GetEligibility)

		// Reward endpoints
		api.POST("/rewards/ad", rewardHandler.ClaimAdReward)
		api.POST("/rewards/spin", rewardHandler.ClaimSpinReward)
		api.POST("/rewards/task", rewardHandler.ClaimTaskReward)

		// Withdrawal endpoints
		api.POST("/withdrawals", withdrawalHandler.Submit)
		api.GET("/withdrawals", withdrawalHandler.List)
		api.GET("/withdrawals/:id", withdrawalHandler.Get)
	}

	// Admin routes (protected + admin only)
	admin := router.Group("/api/admin")
	admin.Use(auth.AuthMiddleware())
	admin.Use(auth.AdminMiddleware())
	{
		admin.GET("/withdrawals", adminHandler.GetWithdrawals)
		admin.POST("/withdrawals/:id/transition", adminHandler.TransitionWithdrawal)
		admin.GET("/accounts", adminHandler.GetAccounts)
		admin.DELETE("/accounts/:telegramId", adminHandler.DeleteAccount)
		admin.GET("/stats", adminHandler.GetStats)
		admin.GET("/settings", adminHandler.GetSettings)
		admin.PUT("/settings", adminHandler.UpdateSettings)
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		log.Infof("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	// Graceful shutdown with 5 second timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Fatal("Server forced to shutdown")
	}

	log.Info("Server exited")
}

func setupLogging() {
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	log.SetOutput(os.Stdout)
}

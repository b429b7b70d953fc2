package main

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/campuspool/backend/internal/bookings"
	"github.com/campuspool/backend/internal/cancellation"
	"github.com/campuspool/backend/internal/disputes"
	"github.com/campuspool/backend/internal/notifications"
	"github.com/campuspool/backend/internal/rides"
	"github.com/campuspool/backend/pkg/common"
	"github.com/campuspool/backend/pkg/config"
	"github.com/campuspool/backend/pkg/database"
	"github.com/campuspool/backend/pkg/logger"
	"github.com/campuspool/backend/pkg/middleware"
	"github.com/campuspool/backend/pkg/ratelimit"
	"github.com/campuspool/backend/pkg/redis"
)

const serviceName = "booking-api"

func main() {
	// Load configuration
	cfg, err := config.Load(serviceName)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Init(cfg.Server.Environment); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// Run database migrations
	if err := database.RunMigrations(&cfg.Database); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	// Connect to PostgreSQL
	pool, err := database.NewPostgresPool(&cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.Close(pool)

	// Connect to Redis
	redisClient, err := redis.NewRedisClient(&cfg.Redis)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()

	limiter := ratelimit.NewLimiter(redisClient.Client, cfg.RateLimit)

	// Wire repositories and services
	outbox := notifications.NewOutbox()

	ridesRepo := rides.NewRepository(pool)
	ridesService := rides.NewService(ridesRepo)
	ridesHandler := rides.NewHandler(ridesService)

	bookingsRepo := bookings.NewRepository(pool, ridesRepo, outbox)
	bookingsService := bookings.NewService(bookingsRepo, ridesRepo, bookings.NewOTPVerifier(), cfg.Business)
	bookingsHandler := bookings.NewHandler(bookingsService)

	cancellationService := cancellation.NewService(bookingsRepo, cfg.Business)
	cancellationHandler := cancellation.NewHandler(cancellationService)

	disputesRepo := disputes.NewRepository(pool, outbox)
	disputesService := disputes.NewService(disputesRepo, bookingsRepo, cfg.Business)
	disputesHandler := disputes.NewHandler(disputesService)

	// Set up Gin router
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(middleware.Recovery())
	router.Use(middleware.CorrelationID())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.Metrics(serviceName))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = strings.Split(cfg.Server.CORSOrigins, ",")
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Correlation-ID"}
	router.Use(cors.New(corsConfig))

	// Health check and metrics (no auth required)
	router.GET("/healthz", common.HealthCheckWithDeps(serviceName, "1.0.0", map[string]func() error{
		"postgres": func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return pool.Ping(ctx)
		},
		"redis": func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return redisClient.Ping(ctx).Err()
		},
	}))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API routes. Rate limiting sits behind auth so authenticated callers
	// are keyed by user ID rather than client IP.
	api := router.Group("/api/v1")

	auth := api.Group("")
	auth.Use(middleware.AuthMiddleware(cfg.JWT.Secret), middleware.RateLimit(limiter))
	{
		auth.POST("/rides", ridesHandler.CreateRide)
		auth.GET("/rides", ridesHandler.ListOpenRides)
		auth.GET("/rides/:id", ridesHandler.GetRide)
		auth.GET("/rides/:id/bookings", bookingsHandler.ListRideBookings)
		auth.POST("/rides/:id/complete", bookingsHandler.CompleteTrip)

		auth.POST("/bookings", bookingsHandler.CreateBooking)
		auth.GET("/bookings", bookingsHandler.ListMyBookings)
		auth.GET("/bookings/:id", bookingsHandler.GetBooking)
		auth.POST("/bookings/:id/confirm", bookingsHandler.ConfirmBooking)
		auth.POST("/bookings/:id/start", bookingsHandler.StartTrip)
		auth.POST("/bookings/:id/cancel", cancellationHandler.CancelBooking)
		auth.POST("/bookings/:id/mark-paid", bookingsHandler.MarkPaid)
		auth.POST("/bookings/:id/confirm-payment", bookingsHandler.ConfirmPayment)

		auth.POST("/bookings/:id/disputes", disputesHandler.OpenDispute)
		auth.GET("/bookings/:id/contact-logs", disputesHandler.ListContactLogs)
		auth.POST("/bookings/:id/contact-logs", disputesHandler.AppendContactLog)
		auth.GET("/disputes/:id", disputesHandler.GetDispute)
		auth.POST("/disputes/:id/resolve", middleware.RequireRole("moderator", "admin"), disputesHandler.ResolveDispute)
	}

	addr := ":" + cfg.Server.Port
	logger.Info("Booking API starting", zap.String("addr", addr))
	if err := router.Run(addr); err != nil {
		logger.Fatal("Failed to start server", zap.Error(err))
	}
}

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mindwell/config"
	"mindwell/cron"
	"mindwell/database"
	bookingRepo "mindwell/database/repository/booking"
	counselorRepo "mindwell/database/repository/counselor"
	"mindwell/handlers"
	"mindwell/middleware"
	"mindwell/routes"
	"mindwell/services/booking"
	"mindwell/services/counselor"
	"mindwell/services/tasks"
	"mindwell/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()
	defer logger.Sync() //nolint:errcheck

	if config.AppConfig.JWTSecret == "" {
		logger.Fatal("main: JWT_SECRET must be set")
	}
	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	database.InitDB()
	utils.InitCache()
	utils.InitAuthCache()

	// repositories.
	db := database.Database()
	bookings, err := bookingRepo.NewMongoBookingRepo(db)
	if err != nil {
		logger.Fatal("main: failed to prepare booking repository", zap.Error(err))
	}
	counselors, err := counselorRepo.NewMongoCounselorRepo(db)
	if err != nil {
		logger.Fatal("main: failed to prepare counselor repository", zap.Error(err))
	}

	// background tasks.
	queue := asynq.NewClient(cron.RedisOpt())
	defer queue.Close()

	// services.
	bookingService := booking.NewBookingService(bookings, counselors, logger)
	bookingService.Cache = booking.NewRedisAvailabilityCache(utils.GetCacheClient(), config.AppConfig.AvailabilityCacheTTL)
	bookingService.Tasks = tasks.NewScheduler(queue)
	bookingService.Location = config.BookingLocation()
	bookingService.MaxPageSize = config.AppConfig.MyBookingsPageLimit
	bookingService.NoShowGrace = time.Duration(config.AppConfig.NoShowGraceMinutes) * time.Minute

	counselorService := counselor.NewCounselorService(counselors, logger)

	worker := cron.InitBookingWorker(bookingService, logger)

	monitorCtx, stopMonitor := context.WithCancel(context.Background())
	defer stopMonitor()
	utils.StartHealthMonitor(monitorCtx, 60*time.Second,
		[]*redis.Client{utils.GetCacheClient(), utils.GetAuthCacheClient()}, database.MongoClient)

	bookingHandler := handlers.NewBookingHandler(bookingService)
	counselorHandler := handlers.NewCounselorHandler(counselorService)
	adminHandler := handlers.NewAdminHandler(bookingService, counselorService)

	// Assemble the handler bundle.
	handlerBundle := &handlers.HandlerBundle{
		AuthCache: utils.GetAuthCacheClient(),

		// User booking endpoints.
		CreateBooking:    bookingHandler.CreateBooking,
		MyBookings:       bookingHandler.MyBookings,
		UpcomingBookings: bookingHandler.UpcomingBookings,
		PastBookings:     bookingHandler.PastBookings,
		GetBooking:       bookingHandler.GetBooking,
		CancelBooking:    bookingHandler.CancelBooking,
		CompleteBooking:  bookingHandler.CompleteBooking,
		Availability:     bookingHandler.Availability,

		// Counselor endpoints.
		CounselorSchedule: bookingHandler.CounselorSchedule,
		ConfirmBooking:    bookingHandler.ConfirmBooking,
		StartSession:      bookingHandler.StartSession,
		ReportNoShow:      bookingHandler.ReportNoShow,

		// Directory endpoints.
		ListCounselors: counselorHandler.ListCounselors,
		GetCounselor:   counselorHandler.GetCounselor,

		// Admin endpoints.
		AdminHandler: adminHandler,
	}

	// Create the Gin router.
	router := gin.New()
	router.Use(middleware.RequestLogger(logger))
	router.Use(utils.ErrorHandler())
	router.Use(middleware.RateLimitMiddleware(config.AppConfig.MaxRequestsPerMin))

	// Register routes with the assembled handler bundle.
	routes.RegisterRoutes(router, handlerBundle)

	// Start the HTTP server.
	port := config.AppConfig.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:              "0.0.0.0:" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Errorf("main: server forced to shutdown: %v", err)
	}
	worker.Shutdown()
	stopMonitor()
	if err := database.Disconnect(ctx); err != nil {
		logger.Sugar().Warnf("main: failed to disconnect from MongoDB: %v", err)
	}

	logger.Sugar().Info("main: server stopped gracefully")
}

package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/bimuz/bimuz-backend/internal/config"
	"github.com/bimuz/bimuz-backend/internal/database"
	"github.com/bimuz/bimuz-backend/internal/handler"
	"github.com/bimuz/bimuz-backend/internal/logger"
	"github.com/bimuz/bimuz-backend/internal/payment"
	"github.com/bimuz/bimuz-backend/internal/repository"
	"github.com/bimuz/bimuz-backend/internal/router"
	"github.com/bimuz/bimuz-backend/internal/service"
	"github.com/bimuz/bimuz-backend/internal/validator"
	"github.com/bimuz/bimuz-backend/internal/worker"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Str("time_zone", cfg.Location.String()).
		Msg("Starting BIMUZ Backend")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Connect to Redis ──────────────────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// ─── Initialize Repositories ───────────────────────────────────────
	employeeRepo := repository.NewEmployeeRepository(pool)
	studentRepo := repository.NewStudentRepository(pool)
	groupRepo := repository.NewGroupRepository(pool)
	invoiceRepo := repository.NewInvoiceRepository(pool)
	attendanceRepo := repository.NewAttendanceRepository(pool)
	payrollRepo := repository.NewPayrollRepository(pool)
	reportRepo := repository.NewReportRepository(pool)

	// ─── Payment Gateway ───────────────────────────────────────────────
	gateway := payment.NewClient(cfg.Multicard, payment.NewRedisTokenStore(rdb, cfg.Multicard.ApplicationID), log)
	if !gateway.Configured() {
		log.Warn().Msg("Multicard credentials missing, online payments are disabled")
	}
	events := service.NewEventBus(rdb, log)

	// ─── Initialize Services ──────────────────────────────────────────
	authService := service.NewAuthService(cfg, rdb, employeeRepo, studentRepo, log)
	mediaService := service.NewMediaService(cfg, log)
	employeeService := service.NewEmployeeService(employeeRepo, authService, mediaService, cfg, log)
	studentService := service.NewStudentService(studentRepo, authService, cfg, log)
	invoiceService := service.NewInvoiceService(pool, invoiceRepo, gateway, events, cfg, log)
	groupService := service.NewGroupService(pool, groupRepo, employeeRepo, studentRepo, invoiceRepo, cfg, log)
	bookingService := service.NewBookingService(pool, groupRepo, studentRepo, invoiceRepo, groupService, invoiceService, log)
	attendanceService := service.NewAttendanceService(pool, attendanceRepo, groupRepo, studentRepo, employeeRepo, cfg, log)
	reportService := service.NewReportService(reportRepo, payrollRepo, employeeRepo, cfg, log)
	dashboardService := service.NewDashboardService(reportRepo, cfg)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Auth:          handler.NewAuthHandler(authService, studentService),
		Employee:      handler.NewEmployeeHandler(employeeService, cfg.PageSize),
		Student:       handler.NewStudentHandler(studentService, cfg.PageSize),
		StudentPortal: handler.NewStudentPortalHandler(studentService, groupService, bookingService, invoiceService, cfg.PageSize),
		Group:         handler.NewGroupHandler(groupService, cfg.PageSize),
		Booking:       handler.NewBookingHandler(bookingService),
		Attendance:    handler.NewAttendanceHandler(attendanceService, cfg.PageSize),
		Invoice:       handler.NewInvoiceHandler(invoiceService, cfg.PageSize),
		Report:        handler.NewReportHandler(reportService),
		Dashboard:     handler.NewDashboardHandler(dashboardService),
		WS:            handler.NewWSHandler(events, log, cfg.AllowedOrigins),
		System:        handler.NewSystemHandler(pool, rdb, log),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())
	var workers sync.WaitGroup

	locker := worker.NewRedisLocker(rdb)
	activationWorker := worker.NewGroupActivationWorker(groupService, locker, cfg.GroupActivationInterval, log)
	workers.Add(1)
	go func() {
		defer workers.Done()
		activationWorker.Start(workerCtx)
	}()

	if gateway.Configured() {
		syncWorker := worker.NewInvoiceSyncWorker(invoiceService, locker, cfg.InvoiceSyncInterval, cfg.InvoiceSyncMinAge, log)
		workers.Add(1)
		go func() {
			defer workers.Done()
			syncWorker.Start(workerCtx)
		}()
	}

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(authService, rdb, handlers, cfg, log)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests (10s timeout).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop background workers and wait for the current tick to finish.
	workerCancel()
	workers.Wait()

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}

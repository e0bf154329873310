package server

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"attendease/internal/domain/attendance"
	"attendease/internal/domain/auth"
	"attendease/internal/domain/directory"
	"attendease/internal/domain/notifications"
	"attendease/internal/domain/reports"
	"attendease/internal/platform/config"
	"attendease/internal/platform/db"
	"attendease/internal/platform/email"
	"attendease/internal/platform/jobs"
	"attendease/internal/platform/metrics"
	"attendease/internal/transport/http/api"
	attendancehandler "attendease/internal/transport/http/handlers/attendance"
	authhandler "attendease/internal/transport/http/handlers/auth"
	directoryhandler "attendease/internal/transport/http/handlers/directory"
	notificationshandler "attendease/internal/transport/http/handlers/notifications"
	reportshandler "attendease/internal/transport/http/handlers/reports"
	"attendease/internal/transport/http/middleware"
)

func Run() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer pool.Close()

	if cfg.RunMigrations {
		if err := db.Migrate(ctx, pool, cfg.MigrationsDir); err != nil {
			log.Fatalf("migrations failed: %v", err)
		}
	}
	if cfg.RunSeed {
		if err := db.Seed(ctx, pool, cfg); err != nil {
			log.Fatalf("seed failed: %v", err)
		}
	}

	engineCfg := attendance.Config{
		WorkStartTime:              cfg.WorkStartTime,
		AssumedWorkingDaysPerMonth: cfg.AssumedWorkingDaysPerMonth,
	}
	if err := engineCfg.Validate(); err != nil {
		log.Fatalf("invalid attendance configuration: %v", err)
	}

	directoryStore := directory.NewStore(pool)
	attendanceStore := attendance.NewStore(pool)
	attendanceService := attendance.NewService(attendanceStore, directoryStore, engineCfg)

	notificationsService := notifications.New(notifications.NewStore(pool), email.New(cfg))
	notificationsService.DefaultFrom = cfg.EmailFrom
	attendanceService.SetNotifier(notificationsService)

	reportsService := reports.NewService(attendanceService, directoryStore)

	jobsService := jobs.New(pool, cfg, attendanceService)
	jobsService.Start(ctx)

	authStore := auth.NewStore(pool)
	idempotencyStore := middleware.NewIdempotencyStore(pool)
	collector := metrics.New()

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(collector))
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.SecureHeaders(cfg.Environment == "production"))
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	router.Use(middleware.Auth(cfg.JWTSecret))
	router.Use(middleware.RateLimit(cfg.RateLimitPerMinute, time.Minute))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := pool.Ping(ctx); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	if cfg.MetricsEnabled {
		router.With(middleware.RequireRole(auth.RoleAdmin)).Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
			api.Success(w, collector.Snapshot(), middleware.GetRequestID(r.Context()))
		})
	}

	router.Route("/api/v1", func(r chi.Router) {
		authHandler := authhandler.NewHandler(authStore, cfg.JWTSecret)
		r.Post("/auth/login", authHandler.HandleLogin)
		r.With(middleware.RequireAuth).Post("/auth/totp/setup", authHandler.HandleTOTPSetup)
		r.With(middleware.RequireAuth).Post("/auth/totp/enable", authHandler.HandleTOTPEnable)
		r.With(middleware.RequireAuth).Post("/auth/totp/disable", authHandler.HandleTOTPDisable)

		directoryhandler.NewHandler(directoryStore).RegisterRoutes(r)

		attendanceHandler := attendancehandler.NewHandler(attendanceService, idempotencyStore, collector)
		attendanceHandler.RegisterRoutes(r)

		reportshandler.NewHandler(reportsService, attendanceService, jobsService).RegisterRoutes(r)

		notificationshandler.NewHandler(notificationsService).RegisterRoutes(r)
	})

	log.Printf("AttendEase server listening on %s", cfg.Addr)
	if err := http.ListenAndServe(cfg.Addr, router); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}

package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"

	"hrms/internal/domain/access"
	"hrms/internal/domain/attendance"
	"hrms/internal/domain/audit"
	"hrms/internal/domain/auth"
	"hrms/internal/domain/contracts"
	"hrms/internal/domain/employees"
	"hrms/internal/domain/notifications"
	"hrms/internal/domain/payroll"
	"hrms/internal/domain/reports"
	"hrms/internal/domain/scheduling"
	"hrms/internal/platform/cache"
	"hrms/internal/platform/config"
	"hrms/internal/platform/db"
	"hrms/internal/platform/metrics"
	"hrms/internal/platform/queue"
	"hrms/internal/transport/http/api"
	accesshandler "hrms/internal/transport/http/handlers/access"
	attendancehandler "hrms/internal/transport/http/handlers/attendance"
	authhandler "hrms/internal/transport/http/handlers/auth"
	contractshandler "hrms/internal/transport/http/handlers/contracts"
	employeeshandler "hrms/internal/transport/http/handlers/employees"
	notificationshandler "hrms/internal/transport/http/handlers/notifications"
	payrollhandler "hrms/internal/transport/http/handlers/payroll"
	reportshandler "hrms/internal/transport/http/handlers/reports"
	schedulinghandler "hrms/internal/transport/http/handlers/scheduling"
	"hrms/internal/transport/http/middleware"
	"hrms/internal/transport/http/shared"
)

// App wires config, storage, services, and the router. Router is
// exported so tests can drive it through httptest.
type App struct {
	Config  *config.Config
	Router  http.Handler
	Logger  *slog.Logger
	Metrics *metrics.Collector

	cache     *cache.Cache
	amqpConn  *amqp.Connection
	publisher *queue.Publisher
}

// noopPublisher drops outbound mail when no broker is configured.
type noopPublisher struct{}

func (noopPublisher) PublishEmail(ctx context.Context, msg queue.EmailMessage) error { return nil }

func New(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool, logger *slog.Logger) (*App, error) {
	app := &App{
		Config:  cfg,
		Logger:  logger,
		Metrics: metrics.New(),
	}

	app.cache = cache.New(cfg)
	if err := app.cache.Ping(ctx); err != nil {
		logger.Warn("redis unreachable, readiness cache disabled", "error", err)
		app.cache = cache.NewDisabled()
	}

	var publisher notifications.EmailPublisher = noopPublisher{}
	if cfg.RabbitMQ.DSN != "" {
		conn, err := amqp.Dial(cfg.RabbitMQ.DSN)
		if err != nil {
			return nil, fmt.Errorf("amqp dial: %w", err)
		}
		app.amqpConn = conn
		p, err := queue.NewPublisher(conn, cfg)
		if err != nil {
			return nil, fmt.Errorf("amqp publisher: %w", err)
		}
		app.publisher = p
		publisher = p
	}

	validate, err := shared.NewValidation()
	if err != nil {
		return nil, fmt.Errorf("validator: %w", err)
	}

	authStore := auth.NewStore(pool)
	accessStore := access.NewStore(pool)
	auditStore := audit.NewStore(pool)
	employeeStore := employees.NewStore(pool)
	contractStore := contracts.NewStore(pool)
	schedulingStore := scheduling.NewStore(pool)
	attendanceStore := attendance.NewStore(pool)
	payrollStore := payroll.NewStore(pool)
	notificationStore := notifications.NewStore(pool)
	reportStore := reports.NewStore(pool)

	schedulingService := scheduling.NewService(schedulingStore, employeeStore, app.cache, logger)
	payrollService := payroll.NewService(payrollStore, employeeStore, contractStore, attendanceStore, logger)
	notificationService := notifications.NewService(notificationStore, publisher, logger)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.SecureHeaders(cfg.Environment == "production"))
	router.Use(middleware.BodyLimit(cfg.Limits.MaxBodyBytes))
	router.Use(middleware.RateLimit(cfg.Limits.RateLimitPerMinute, time.Minute))
	router.Use(middleware.Auth(cfg.JWT.Secret))
	router.Use(app.Metrics.Middleware)

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

	router.Route("/api/v1", func(r chi.Router) {
		authhandler.NewHandler(authStore, employeeStore, app.cache, cfg).RegisterRoutes(r)
		employeeshandler.NewHandler(employeeStore, accessStore, validate).RegisterRoutes(r)
		contractshandler.NewHandler(contractStore, accessStore, validate).RegisterRoutes(r)
		schedulinghandler.NewHandler(schedulingStore, schedulingService, accessStore, auditStore, validate).RegisterRoutes(r)
		attendancehandler.NewHandler(attendanceStore, employeeStore, accessStore, auditStore, validate).RegisterRoutes(r)
		payrollhandler.NewHandler(payrollStore, payrollService, accessStore, auditStore, validate).RegisterRoutes(r)
		notificationshandler.NewHandler(notificationStore, notificationService, accessStore, validate).RegisterRoutes(r)
		accesshandler.NewHandler(accessStore, validate).RegisterRoutes(r)
		reportshandler.NewHandler(reportStore, auditStore, accessStore).RegisterRoutes(r)

		r.With(middleware.Require(access.CollectionReports, access.ActionRead, accessStore)).
			Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
				api.Success(w, app.Metrics.Snapshot())
			})
	})

	app.Router = router
	return app, nil
}

// Close releases broker and cache connections.
func (a *App) Close() {
	if a.publisher != nil {
		_ = a.publisher.Close()
	}
	if a.amqpConn != nil {
		_ = a.amqpConn.Close()
	}
	if a.cache != nil {
		_ = a.cache.Close()
	}
}

// Run boots the full server: config, database, migrations, seed, and
// the HTTP listener with graceful shutdown.
func Run(ctx context.Context) error {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		return fmt.Errorf("db connect: %w", err)
	}
	defer pool.Close()

	if cfg.RunMigrations {
		if err := db.Migrate(ctx, pool, cfg.MigrationsDir); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	if cfg.RunSeed {
		if err := db.Seed(ctx, pool, cfg); err != nil {
			return fmt.Errorf("seed: %w", err)
		}
	}

	app, err := New(ctx, cfg, pool, logger)
	if err != nil {
		return err
	}
	defer app.Close()

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      app.Router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", cfg.Server.Addr, "environment", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()
	logger.Info("shutting down")
	return srv.Shutdown(shutdownCtx)
}

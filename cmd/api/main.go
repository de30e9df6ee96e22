package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/grooming-platform/cmd/mainconfig"
	"github.com/wolfman30/grooming-platform/internal/api/router"
	"github.com/wolfman30/grooming-platform/internal/appointments"
	"github.com/wolfman30/grooming-platform/internal/audit"
	"github.com/wolfman30/grooming-platform/internal/catalog"
	appconfig "github.com/wolfman30/grooming-platform/internal/config"
	"github.com/wolfman30/grooming-platform/internal/customers"
	"github.com/wolfman30/grooming-platform/internal/http/handlers"
	httpmiddleware "github.com/wolfman30/grooming-platform/internal/http/middleware"
	"github.com/wolfman30/grooming-platform/internal/importer"
	"github.com/wolfman30/grooming-platform/internal/notify"
	"github.com/wolfman30/grooming-platform/internal/observability/metrics"
	"github.com/wolfman30/grooming-platform/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting grooming-platform API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	pool := connectPostgresPool(ctx, cfg.DatabaseURL, logger)

	var (
		store    appointments.Store
		reader   appointments.Reader
		custRepo customers.Repository
		cat      catalog.Catalog
	)
	if pool != nil {
		pg := appointments.NewPgxStore(pool)
		store, reader = pg, pg
		custRepo = customers.NewPostgresRepository(pool)
		cat = catalog.NewPostgresCatalog(pool)
	} else {
		logger.Warn("DATABASE_URL not set, using in-memory stores")
		mem := appointments.NewInMemoryStore()
		store, reader = mem, mem
		custRepo = customers.NewInMemoryRepository()
		cat = catalog.NewInMemoryCatalog()
	}

	awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
	if err != nil {
		logger.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}

	// Audit trail: events flow through a queue and land in the database.
	auditQueue := setupAuditQueue(cfg, sqs.NewFromConfig(awsCfg), logger)
	auditor := audit.NewRecorder(auditQueue, logger)
	auditWorker := startAuditWorker(ctx, cfg, auditQueue, logger)

	sender := buildEmailSender(cfg, sesv2.NewFromConfig(awsCfg), logger)
	notifier := notify.NewService(sender, logger)

	metricsRegistry := prometheus.NewRegistry()
	importMetrics := metrics.NewImportMetrics(metricsRegistry)
	metricsHandler := promhttp.HandlerFor(metricsRegistry, promhttp.HandlerOpts{})

	location, err := time.LoadLocation(cfg.BusinessTimezone)
	if err != nil {
		logger.Warn("invalid BUSINESS_TZ, falling back to UTC", "tz", cfg.BusinessTimezone)
		location = time.UTC
	}

	rules := &importer.Rules{
		Catalog:   cat,
		OpenHour:  cfg.BusinessOpenHour,
		CloseHour: cfg.BusinessCloseHour,
		ClosedDay: cfg.BusinessClosedDay,
		Location:  location,
	}
	executor := importer.NewExecutor(store, importer.ExecutorConfig{
		GroupSize:  cfg.ImportGroupSize,
		GroupPause: cfg.ImportGroupPause,
	}, importMetrics, logger)
	limits := importer.FileLimits{
		MaxBytes: cfg.ImportMaxFileBytes,
		MaxRows:  cfg.ImportMaxRows,
	}
	svc := importer.NewService(rules, &importer.DuplicateDetector{Reader: reader}, executor,
		notifier, auditor, limits, importMetrics, logger)

	var quota *httpmiddleware.ImportQuota
	if cfg.ImportsPerHour > 0 && cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		quota = httpmiddleware.NewImportQuota(redisClient, cfg.ImportsPerHour, time.Hour, logger)
	}

	r := router.New(&router.Config{
		Logger:              logger,
		ImportHandler:       handlers.NewImportHandler(svc, cfg.ImportMaxFileBytes, cfg.SendNotifications, logger),
		BookingHandler:      handlers.NewBookingHandler(svc, cfg.SendNotifications, logger),
		RegistrationHandler: handlers.NewRegistrationHandler(custRepo, auditor, logger),
		OperatorAuthSecret:  cfg.OperatorJWTSecret,
		ImportQuota:         quota,
		MetricsHandler:      metricsHandler,
		CORSAllowedOrigins:  cfg.CORSAllowedOrigins,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	stop()
	if auditWorker != nil {
		auditWorker.Wait()
	}
	if pool != nil {
		pool.Close()
	}

	logger.Info("server stopped")
}

// connectPostgresPool returns nil when no database is configured so the
// caller can fall back to in-memory stores.
func connectPostgresPool(ctx context.Context, databaseURL string, logger *logging.Logger) *pgxpool.Pool {
	if databaseURL == "" {
		return nil
	}
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		logger.Error("failed to create postgres pool", "error", err)
		return nil
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		logger.Error("failed to ping postgres", "error", err)
		pool.Close()
		return nil
	}
	return pool
}

// setupAuditQueue picks SQS in production and an in-process queue for
// development and tests.
func setupAuditQueue(cfg *appconfig.Config, sqsClient *sqs.Client, logger *logging.Logger) audit.Queue {
	if cfg.UseMemoryAuditQueue || cfg.AuditQueueURL == "" {
		logger.Info("using in-memory audit queue")
		return audit.NewMemoryQueue(256)
	}
	return audit.NewSQSQueue(sqsClient, cfg.AuditQueueURL)
}

// startAuditWorker drains the audit queue into the database. Returns nil when
// no database is configured; events then stay on the queue.
func startAuditWorker(ctx context.Context, cfg *appconfig.Config, queue audit.Queue, logger *logging.Logger) *audit.Worker {
	if cfg.DatabaseURL == "" {
		logger.Warn("audit worker disabled, no database configured")
		return nil
	}
	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		logger.Error("audit worker failed to open database", "error", err)
		return nil
	}
	worker := audit.NewWorker(queue, audit.NewStore(db), logger)
	worker.Start(ctx)
	return worker
}

// buildEmailSender selects the configured notification provider, defaulting
// to a log-only stub when neither is configured.
func buildEmailSender(cfg *appconfig.Config, sesClient *sesv2.Client, logger *logging.Logger) notify.EmailSender {
	switch {
	case cfg.NotificationProvider == "sendgrid" && cfg.SendGridAPIKey != "":
		return notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.SendGridFromEmail,
			FromName:  cfg.SendGridFromName,
		}, logger)
	case cfg.NotificationProvider == "ses" && cfg.SESFromEmail != "":
		return notify.NewSESSender(sesClient, notify.SESConfig{
			FromEmail: cfg.SESFromEmail,
			FromName:  cfg.SESFromName,
		}, logger)
	default:
		logger.Info("no email provider configured, using stub sender")
		return notify.NewStubEmailSender(logger)
	}
}

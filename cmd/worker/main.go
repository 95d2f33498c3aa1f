package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"

	"github.com/printforge/printforge/api/internal/config"
	"github.com/printforge/printforge/api/internal/pkg/database"
	"github.com/printforge/printforge/api/internal/pkg/logger"
	"github.com/printforge/printforge/api/internal/pkg/storage"
	chrepo "github.com/printforge/printforge/api/internal/repository/clickhouse"
	pgrepo "github.com/printforge/printforge/api/internal/repository/postgres"
	"github.com/printforge/printforge/api/internal/service"
	"github.com/printforge/printforge/api/internal/worker"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize the global logger; the database layer logs through it too
	if err := logger.Init(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting worker service")

	// Initialize dependencies
	deps, cleanup, err := initWorkerDependencies(cfg, logger.Log)
	if err != nil {
		logger.Fatal("failed to initialize dependencies", zap.Error(err))
	}
	defer cleanup()

	// Create worker server
	workerServer, err := worker.NewServer(logger.Log, cfg, deps)
	if err != nil {
		logger.Fatal("failed to create worker server", zap.Error(err))
	}

	// Start worker in a goroutine
	errCh := make(chan error, 1)
	go func() {
		errCh <- workerServer.Start()
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		logger.Info("shutting down worker...")
		workerServer.Stop()
	case err := <-errCh:
		if err != nil {
			logger.Error("worker server error", zap.Error(err))
		}
	}

	logger.Info("worker stopped")
}

// initWorkerDependencies initializes dependencies for the worker
func initWorkerDependencies(cfg *config.Config, logger *zap.Logger) (*worker.WorkerDependencies, func(), error) {
	ctx := context.Background()

	// Initialize PostgreSQL using database wrapper
	pgDB, err := database.NewPostgres(ctx, cfg.Postgres)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize PostgreSQL: %w", err)
	}

	// Audit trail rides on a separate sqlx connection
	auditDB, err := sqlx.Connect("postgres", cfg.Postgres.DSN())
	if err != nil {
		pgDB.Close()
		return nil, nil, fmt.Errorf("failed to initialize audit connection: %w", err)
	}

	// Initialize ClickHouse using database wrapper
	chDB, err := database.NewClickHouse(ctx, cfg.ClickHouse)
	if err != nil {
		auditDB.Close()
		pgDB.Close()
		return nil, nil, fmt.Errorf("failed to initialize ClickHouse: %w", err)
	}

	// Initialize MinIO
	minioClient, err := initMinio(cfg)
	if err != nil {
		logger.Warn("failed to initialize MinIO", zap.Error(err))
	}
	objectStore := storage.NewObjectStore(minioClient, cfg.MinIO.Bucket)

	// Initialize repositories
	tenantRepo := pgrepo.NewTenantRepository(pgDB)
	userRepo := pgrepo.NewUserRepository(pgDB)
	customerRepo := pgrepo.NewCustomerRepository(pgDB)
	productRepo := pgrepo.NewProductRepository(pgDB)
	orderRepo := pgrepo.NewOrderRepository(pgDB)
	printJobRepo := pgrepo.NewPrintJobRepository(pgDB)
	printerRepo := pgrepo.NewPrinterRepository(pgDB)
	spoolRepo := pgrepo.NewSpoolRepository(pgDB)
	modelRepo := pgrepo.NewModelRepository(pgDB)
	webhookRepo := pgrepo.NewWebhookRepository(pgDB)
	auditRepo := pgrepo.NewAuditRepository(auditDB)
	telemetryRepo := chrepo.NewTelemetryRepository(chDB)

	// Initialize services
	auditService := service.NewAuditService(auditRepo)
	jobService := service.NewPrintJobService(printJobRepo, modelRepo, printerRepo, spoolRepo, tenantRepo, telemetryRepo)
	jobService.SetAuditService(auditService)
	spoolService := service.NewSpoolService(spoolRepo, tenantRepo)
	tenantService := service.NewTenantService(tenantRepo, userRepo, customerRepo, productRepo, orderRepo, printJobRepo)
	modelService := service.NewModelService(modelRepo, productRepo, objectStore)
	telemetryService := service.NewTelemetryService(telemetryRepo, printerRepo)
	notificationService := service.NewNotificationService(webhookRepo, logger, cfg.Server.DashboardURL)

	// Create dependencies
	deps := &worker.WorkerDependencies{
		JobService:          jobService,
		SpoolService:        spoolService,
		TenantService:       tenantService,
		ModelService:        modelService,
		TelemetryService:    telemetryService,
		NotificationService: notificationService,
		AuditService:        auditService,
		// Repositories for the cleanup worker
		UserRepo:  userRepo,
		ModelRepo: modelRepo,
	}

	// Cleanup function
	cleanup := func() {
		auditDB.Close()
		pgDB.Close()
		chDB.Close()
	}

	return deps, cleanup, nil
}

// initMinio initializes MinIO client
func initMinio(cfg *config.Config) (*minio.Client, error) {
	if cfg.MinIO.Endpoint == "" {
		return nil, nil
	}

	client, err := minio.New(cfg.MinIO.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinIO.AccessKey, cfg.MinIO.SecretKey, ""),
		Secure: cfg.MinIO.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	return client, nil
}

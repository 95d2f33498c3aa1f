package worker

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/printforge/printforge/api/internal/config"
	"github.com/printforge/printforge/api/internal/repository/postgres"
	"github.com/printforge/printforge/api/internal/service"
)

// Server is the worker server
type Server struct {
	logger    *zap.Logger
	config    *config.Config
	server    *asynq.Server
	mux       *asynq.ServeMux
	scheduler *asynq.Scheduler
	client    *asynq.Client
}

// WorkerDependencies holds dependencies for workers
type WorkerDependencies struct {
	JobService          *service.PrintJobService
	SpoolService        *service.SpoolService
	TenantService       *service.TenantService
	ModelService        *service.ModelService
	TelemetryService    *service.TelemetryService
	NotificationService *service.NotificationService
	AuditService        *service.AuditService
	// Repositories for the cleanup worker
	UserRepo  *postgres.UserRepository
	ModelRepo *postgres.ModelRepository
}

// NewServer creates a new worker server
func NewServer(
	logger *zap.Logger,
	cfg *config.Config,
	deps *WorkerDependencies,
) (*Server, error) {
	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}

	// Create asynq server
	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: cfg.Worker.Concurrency,
			Queues: map[string]int{
				cfg.Worker.QueueCritical: 6,
				cfg.Worker.QueueDefault:  3,
				cfg.Worker.QueueLow:      1,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				logger.Error("task processing failed",
					zap.String("type", task.Type()),
					zap.Error(err),
				)
			}),
			Logger: &asynqLogger{logger: logger},
		},
	)

	// Create workers
	dispatchWorker := NewDispatchWorker(
		logger,
		deps.JobService,
		cfg.Worker.DispatchBatchSize,
	)

	notificationWorker := NewNotificationWorker(
		logger,
		deps.NotificationService,
	)

	lowStockWorker := NewLowStockWorker(
		logger,
		deps.SpoolService,
		deps.TenantService,
		deps.NotificationService,
		deps.AuditService,
		float64(cfg.Worker.LowStockThresholdGrams),
	)

	cleanupWorker := NewCleanupWorker(
		logger,
		deps.JobService,
		deps.TenantService,
		deps.ModelService,
		deps.TelemetryService,
		deps.UserRepo,
		deps.ModelRepo,
	)

	// Create mux and register handlers
	mux := asynq.NewServeMux()

	mux.HandleFunc(TypeJobDispatch, dispatchWorker.ProcessTask)
	mux.HandleFunc(TypeOrderNotification, notificationWorker.ProcessTask)
	mux.HandleFunc(TypeLowStockScan, lowStockWorker.ProcessTask)
	mux.HandleFunc(TypeExpiredCleanup, cleanupWorker.ProcessTask)

	// Create scheduler for periodic tasks
	scheduler := asynq.NewScheduler(redisOpt, nil)

	// Create client for enqueuing tasks
	client := asynq.NewClient(redisOpt)

	return &Server{
		logger:    logger,
		config:    cfg,
		server:    server,
		mux:       mux,
		scheduler: scheduler,
		client:    client,
	}, nil
}

// Start starts the worker server
func (s *Server) Start() error {
	// Register scheduled tasks
	if err := s.registerScheduledTasks(); err != nil {
		return fmt.Errorf("failed to register scheduled tasks: %w", err)
	}

	// Start scheduler
	go func() {
		if err := s.scheduler.Run(); err != nil {
			s.logger.Error("scheduler stopped", zap.Error(err))
		}
	}()

	// Start server
	s.logger.Info("starting worker server",
		zap.Int("concurrency", s.config.Worker.Concurrency),
	)

	return s.server.Run(s.mux)
}

// Stop stops the worker server
func (s *Server) Stop() {
	s.server.Shutdown()
	s.scheduler.Shutdown()
	s.client.Close()
}

// Client returns the asynq client for enqueuing tasks
func (s *Server) Client() *asynq.Client {
	return s.client
}

// registerScheduledTasks registers periodic tasks with the scheduler
func (s *Server) registerScheduledTasks() error {
	// Dispatch sweep every two minutes, picks up tenants the event driven
	// enqueues missed
	if s.config.Worker.DispatchEnabled {
		_, err := s.scheduler.Register(
			"*/2 * * * *",
			asynq.NewTask(TypeJobDispatch, []byte(`{}`)),
			asynq.Queue(s.config.Worker.QueueCritical),
		)
		if err != nil {
			return fmt.Errorf("failed to register dispatch sweep: %w", err)
		}
	}

	// Daily inventory scan at 7 AM UTC
	if s.config.Worker.LowStockEnabled {
		_, err := s.scheduler.Register(
			"0 7 * * *",
			asynq.NewTask(TypeLowStockScan, []byte(`{}`)),
			asynq.Queue(s.config.Worker.QueueLow),
		)
		if err != nil {
			return fmt.Errorf("failed to register low stock scan: %w", err)
		}
	}

	// Nightly maintenance at 3 AM UTC
	if s.config.Worker.CleanupEnabled {
		task, err := NewExpiredCleanupTask(&ExpiredCleanupPayload{
			RetentionDays: s.config.Worker.RetentionDays,
		})
		if err != nil {
			return fmt.Errorf("failed to build cleanup task: %w", err)
		}
		if _, err := s.scheduler.Register(
			"0 3 * * *",
			task,
			asynq.Queue(s.config.Worker.QueueLow),
		); err != nil {
			return fmt.Errorf("failed to register cleanup task: %w", err)
		}
	}

	return nil
}

// asynqLogger adapts zap.Logger to asynq.Logger
type asynqLogger struct {
	logger *zap.Logger
}

func (l *asynqLogger) Debug(args ...interface{}) {
	l.logger.Debug(fmt.Sprint(args...))
}

func (l *asynqLogger) Info(args ...interface{}) {
	l.logger.Info(fmt.Sprint(args...))
}

func (l *asynqLogger) Warn(args ...interface{}) {
	l.logger.Warn(fmt.Sprint(args...))
}

func (l *asynqLogger) Error(args ...interface{}) {
	l.logger.Error(fmt.Sprint(args...))
}

func (l *asynqLogger) Fatal(args ...interface{}) {
	l.logger.Fatal(fmt.Sprint(args...))
}

// EnqueueJobDispatch enqueues a dispatch task
func EnqueueJobDispatch(client *asynq.Client, payload *JobDispatchPayload) error {
	task, err := NewJobDispatchTask(payload)
	if err != nil {
		return err
	}
	_, err = client.Enqueue(task, asynq.Queue("critical"))
	return err
}

// EnqueueOrderNotification enqueues an order notification task
func EnqueueOrderNotification(client *asynq.Client, payload *OrderNotificationPayload) error {
	task, err := NewOrderNotificationTask(payload)
	if err != nil {
		return err
	}
	_, err = client.Enqueue(task, asynq.Queue("default"))
	return err
}

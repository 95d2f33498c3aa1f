package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/printforge/printforge/api/internal/domain"
	apperrors "github.com/printforge/printforge/api/internal/pkg/errors"
	"github.com/printforge/printforge/api/internal/validator"
)

// PrintJobRepository defines print job repository operations
type PrintJobRepository interface {
	Create(ctx context.Context, job *domain.PrintJob) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.PrintJob, error)
	Update(ctx context.Context, job *domain.PrintJob) error
	UpdateStatus(ctx context.Context, job *domain.PrintJob) error
	UpdateProgress(ctx context.Context, tenantID, id uuid.UUID, progress float64) error
	Assign(ctx context.Context, tenantID, id, printerID uuid.UUID, spoolID *uuid.UUID) error
	CompleteWithConsumption(ctx context.Context, job *domain.PrintJob, spoolID uuid.UUID, grams float64) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	List(ctx context.Context, filter *domain.PrintJobFilter, limit, offset int) (*domain.PrintJobList, error)
	ListQueued(ctx context.Context, tenantID uuid.UUID) ([]domain.PrintJob, error)
	CountQueued(ctx context.Context, tenantID uuid.UUID) (int64, error)
	CountActive(ctx context.Context, tenantID uuid.UUID) (int64, error)
	CountActiveByPrinter(ctx context.Context, tenantID, printerID uuid.UUID) (int64, error)
	CountActiveByModel(ctx context.Context, tenantID, modelID uuid.UUID) (int64, error)
	ListTenantsWithQueuedJobs(ctx context.Context) ([]uuid.UUID, error)
	ListStalePrinting(ctx context.Context, cutoff time.Time) ([]domain.PrintJob, error)
	Requeue(ctx context.Context, tenantID, id uuid.UUID) error
}

// A dispatch pass considers at most this many spools per tenant
const maxSpoolsPerDispatch = 500

// PrintJobService handles the print queue lifecycle
type PrintJobService struct {
	printJobRepo  PrintJobRepository
	modelRepo     ModelRepository
	printerRepo   PrinterRepository
	spoolRepo     SpoolRepository
	tenantRepo    TenantRepository
	telemetryRepo TelemetryRepository
	realtime      *RealtimeService
	audit         *AuditService
	notifier      *NotificationService
}

// NewPrintJobService creates a new print job service
func NewPrintJobService(
	printJobRepo PrintJobRepository,
	modelRepo ModelRepository,
	printerRepo PrinterRepository,
	spoolRepo SpoolRepository,
	tenantRepo TenantRepository,
	telemetryRepo TelemetryRepository,
) *PrintJobService {
	return &PrintJobService{
		printJobRepo:  printJobRepo,
		modelRepo:     modelRepo,
		printerRepo:   printerRepo,
		spoolRepo:     spoolRepo,
		tenantRepo:    tenantRepo,
		telemetryRepo: telemetryRepo,
	}
}

// SetRealtimeService attaches the realtime hub for live queue events
func (s *PrintJobService) SetRealtimeService(realtime *RealtimeService) {
	s.realtime = realtime
}

// SetAuditService sets the audit service for logging job actions
func (s *PrintJobService) SetAuditService(audit *AuditService) {
	s.audit = audit
}

// SetNotificationService attaches webhook delivery for terminal job events
func (s *PrintJobService) SetNotificationService(notifier *NotificationService) {
	s.notifier = notifier
}

// Create queues a new print job for a ready model. The queue is capped by
// the tenant's configured capacity; a full queue rejects the job rather
// than growing without bound.
func (s *PrintJobService) Create(ctx context.Context, tenantID uuid.UUID, input *domain.PrintJobInput, actorID *uuid.UUID, actorEmail string) (*domain.PrintJob, error) {
	if err := validator.Validate(input); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	model, err := s.modelRepo.GetByID(ctx, tenantID, input.ModelID)
	if err != nil {
		return nil, err
	}
	if model.Status != domain.ModelStatusReady {
		return nil, apperrors.Validation("model file is not ready for printing")
	}

	priority := input.Priority
	if priority == "" {
		priority = domain.JobPriorityNormal
	}
	if !priority.IsValid() {
		return nil, apperrors.Validation("invalid job priority")
	}

	capacity := s.queueCapacity(ctx, tenantID)
	queued, err := s.printJobRepo.CountQueued(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to count queued jobs: %w", err)
	}
	if queued >= int64(capacity) {
		return nil, apperrors.Conflict(fmt.Sprintf("print queue is full (%d jobs)", capacity))
	}

	name := input.Name
	if name == "" {
		name = model.Name
	}

	now := time.Now()
	job := &domain.PrintJob{
		ID:                    uuid.New(),
		TenantID:              tenantID,
		ModelID:               input.ModelID,
		OrderID:               input.OrderID,
		Name:                  name,
		Status:                domain.JobStatusQueued,
		Priority:              priority,
		EstimatedWeightGrams:  input.EstimatedWeightGrams,
		EstimatedDurationMins: input.EstimatedDurationMins,
		QueuedAt:              now,
		CreatedAt:             now,
		UpdatedAt:             now,
	}

	if err := s.printJobRepo.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to create print job: %w", err)
	}

	s.recordJobEvent(tenantID, job.ID, domain.JobEventCreated, "", string(job.Status), "")

	if s.realtime != nil {
		s.realtime.PublishJobCreated(ctx, tenantID, job.ID, job.Name)
	}

	if s.audit != nil {
		go func() {
			_ = s.audit.LogAction(context.Background(), tenantID, actorID, actorEmail, "user",
				domain.AuditActionJobCreated, domain.AuditResourceJob, &job.ID, job.Name,
				fmt.Sprintf("Queued print job '%s'", job.Name))
		}()
	}

	// A job created with a printer in hand skips the dispatcher
	if input.PrinterID != nil {
		assigned, err := s.Assign(ctx, tenantID, job.ID, &domain.PrintJobAssignInput{
			PrinterID: *input.PrinterID,
			SpoolID:   input.SpoolID,
		}, actorID, actorEmail)
		if err != nil {
			return nil, err
		}
		return assigned, nil
	}

	return job, nil
}

// Get retrieves a print job by ID
func (s *PrintJobService) Get(ctx context.Context, tenantID, id uuid.UUID) (*domain.PrintJob, error) {
	return s.printJobRepo.GetByID(ctx, tenantID, id)
}

// Update applies a partial metadata update to a job that has not finished
func (s *PrintJobService) Update(ctx context.Context, tenantID, id uuid.UUID, input *domain.PrintJobUpdateInput) (*domain.PrintJob, error) {
	if err := validator.Validate(input); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	job, err := s.printJobRepo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if job.Status.IsTerminal() {
		return nil, apperrors.Conflict("cannot update a finished job")
	}

	if input.Name != nil {
		job.Name = *input.Name
	}
	if input.Priority != nil {
		if !input.Priority.IsValid() {
			return nil, apperrors.Validation("invalid job priority")
		}
		job.Priority = *input.Priority
	}
	if input.EstimatedWeightGrams != nil {
		job.EstimatedWeightGrams = *input.EstimatedWeightGrams
	}
	if input.EstimatedDurationMins != nil {
		job.EstimatedDurationMins = *input.EstimatedDurationMins
	}
	job.UpdatedAt = time.Now()

	if err := s.printJobRepo.Update(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to update print job: %w", err)
	}

	return job, nil
}

// Transition moves a job through its lifecycle. Disallowed transitions are
// rejected before any state is touched. Completing a job with a spool
// attached deducts the actual filament weight from it atomically.
func (s *PrintJobService) Transition(ctx context.Context, tenantID, id uuid.UUID, input *domain.PrintJobStatusInput, actorID *uuid.UUID, actorEmail string) (*domain.PrintJob, error) {
	if err := validator.Validate(input); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	job, err := s.printJobRepo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	target := input.Status
	if !target.IsValid() {
		return nil, apperrors.Validation("invalid job status")
	}
	if !job.Status.CanTransitionTo(target) {
		return nil, apperrors.InvalidTransition("print job", string(job.Status), string(target))
	}

	from := job.Status
	now := time.Now()

	switch target {
	case domain.JobStatusPrinting:
		if job.PrinterID == nil {
			return nil, apperrors.Conflict("job has no printer assigned")
		}
		job.Status = domain.JobStatusPrinting
		job.StartedAt = &now
		if input.Progress != nil {
			job.Progress = *input.Progress
		}
		if err := s.printJobRepo.UpdateStatus(ctx, job); err != nil {
			return nil, fmt.Errorf("failed to start print job: %w", err)
		}
		s.setPrinterStatus(ctx, tenantID, job.PrinterID, domain.PrinterStatusPrinting)

	case domain.JobStatusCompleted:
		grams := job.EstimatedWeightGrams
		if input.ActualWeightGrams != nil {
			grams = *input.ActualWeightGrams
		}
		job.Status = domain.JobStatusCompleted
		job.Progress = 100
		job.ActualWeightGrams = grams
		job.CompletedAt = &now

		if job.SpoolID != nil && grams > 0 {
			if err := s.printJobRepo.CompleteWithConsumption(ctx, job, *job.SpoolID, grams); err != nil {
				return nil, err
			}
			s.auditSpoolDraw(ctx, tenantID, *job.SpoolID, actorID, actorEmail, grams)
		} else {
			if err := s.printJobRepo.UpdateStatus(ctx, job); err != nil {
				return nil, fmt.Errorf("failed to complete print job: %w", err)
			}
		}
		s.setPrinterStatus(ctx, tenantID, job.PrinterID, domain.PrinterStatusIdle)

	case domain.JobStatusFailed:
		job.Status = domain.JobStatusFailed
		job.FailureReason = input.FailureReason
		job.CompletedAt = &now
		if input.Progress != nil {
			job.Progress = *input.Progress
		}
		if err := s.printJobRepo.UpdateStatus(ctx, job); err != nil {
			return nil, fmt.Errorf("failed to fail print job: %w", err)
		}
		s.setPrinterStatus(ctx, tenantID, job.PrinterID, domain.PrinterStatusIdle)

	case domain.JobStatusCanceled:
		job.Status = domain.JobStatusCanceled
		job.CompletedAt = &now
		if err := s.printJobRepo.UpdateStatus(ctx, job); err != nil {
			return nil, fmt.Errorf("failed to cancel print job: %w", err)
		}
		if from == domain.JobStatusPrinting {
			s.setPrinterStatus(ctx, tenantID, job.PrinterID, domain.PrinterStatusIdle)
		}
	}

	s.recordJobEvent(tenantID, job.ID, domain.JobEventTransition, string(from), string(target), input.FailureReason)

	if s.realtime != nil {
		s.realtime.PublishJobStatus(ctx, tenantID, job.ID, from, target)
	}

	if s.audit != nil {
		go func() {
			_ = s.audit.LogJobTransition(context.Background(), tenantID, actorID, actorEmail, job.ID, job.Name, from, target)
		}()
	}

	s.notifyTerminal(tenantID, job)

	return job, nil
}

// notifyTerminal fans completed/failed webhooks out off the request path.
// Delivery is best effort, order webhooks are the ones that ride the queue.
func (s *PrintJobService) notifyTerminal(tenantID uuid.UUID, job *domain.PrintJob) {
	if s.notifier == nil {
		return
	}

	var event domain.EventType
	data := map[string]any{
		"jobId":   job.ID.String(),
		"jobName": job.Name,
	}

	switch job.Status {
	case domain.JobStatusCompleted:
		event = domain.EventTypeJobCompleted
		if job.ActualWeightGrams > 0 {
			data["actualWeightGrams"] = job.ActualWeightGrams
		}
	case domain.JobStatusFailed:
		event = domain.EventTypeJobFailed
		if job.FailureReason != "" {
			data["failureReason"] = job.FailureReason
		}
	default:
		return
	}

	go func() {
		_ = s.notifier.Notify(context.Background(), tenantID, event, data)
	}()
}

// Assign pins a queued job to a printer and optionally a spool. The printer
// must be able to accept work and must not already hold another job.
func (s *PrintJobService) Assign(ctx context.Context, tenantID, id uuid.UUID, input *domain.PrintJobAssignInput, actorID *uuid.UUID, actorEmail string) (*domain.PrintJob, error) {
	if err := validator.Validate(input); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	job, err := s.printJobRepo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if job.Status != domain.JobStatusQueued {
		return nil, apperrors.Conflict("only queued jobs can be assigned")
	}

	printer, err := s.printerRepo.GetByID(ctx, tenantID, input.PrinterID)
	if err != nil {
		return nil, err
	}
	if !printer.Status.CanAcceptJob() {
		return nil, apperrors.Conflict(fmt.Sprintf("printer is %s and cannot accept a job", printer.Status))
	}

	booked, err := s.printJobRepo.CountActiveByPrinter(ctx, tenantID, printer.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check printer load: %w", err)
	}
	if booked > 0 {
		return nil, apperrors.Conflict("printer already has a job assigned")
	}

	if input.SpoolID != nil {
		spool, err := s.spoolRepo.GetByID(ctx, tenantID, *input.SpoolID)
		if err != nil {
			return nil, err
		}
		if job.EstimatedWeightGrams > 0 && !spool.CanConsume(job.EstimatedWeightGrams) {
			return nil, apperrors.Conflict("spool does not have enough filament for this job")
		}
	}

	if err := s.printJobRepo.Assign(ctx, tenantID, id, input.PrinterID, input.SpoolID); err != nil {
		return nil, fmt.Errorf("failed to assign print job: %w", err)
	}

	job.PrinterID = &input.PrinterID
	job.SpoolID = input.SpoolID
	job.UpdatedAt = time.Now()

	s.recordJobEvent(tenantID, job.ID, domain.JobEventAssigned, "", "", printer.Name)

	if s.realtime != nil {
		s.realtime.PublishJobAssigned(ctx, tenantID, job.ID, printer.ID)
	}

	if s.audit != nil {
		go func() {
			_ = s.audit.LogJobAssigned(context.Background(), tenantID, actorID, actorEmail, job.ID, job.Name, printer.Name)
		}()
	}

	return job, nil
}

// Cancel cancels a queued or printing job
func (s *PrintJobService) Cancel(ctx context.Context, tenantID, id uuid.UUID, actorID *uuid.UUID, actorEmail string) (*domain.PrintJob, error) {
	return s.Transition(ctx, tenantID, id, &domain.PrintJobStatusInput{
		Status: domain.JobStatusCanceled,
	}, actorID, actorEmail)
}

// UpdateProgress reports printing progress for a job. Progress on a job that
// is not printing is silently dropped by the store.
func (s *PrintJobService) UpdateProgress(ctx context.Context, tenantID, id uuid.UUID, progress float64) error {
	if progress < 0 || progress > 100 {
		return apperrors.Validation("progress must be between 0 and 100")
	}

	if err := s.printJobRepo.UpdateProgress(ctx, tenantID, id, progress); err != nil {
		return err
	}

	s.recordJobEvent(tenantID, id, domain.JobEventProgress, "", "", fmt.Sprintf("%.1f%%", progress))

	if s.realtime != nil {
		s.realtime.PublishJobProgress(ctx, tenantID, id, progress)
	}

	return nil
}

// Delete removes a print job. A job mid-print has to be canceled first.
func (s *PrintJobService) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	job, err := s.printJobRepo.GetByID(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if job.Status == domain.JobStatusPrinting {
		return apperrors.Conflict("cannot delete a job that is printing")
	}

	return s.printJobRepo.Delete(ctx, tenantID, id)
}

// List retrieves print jobs with filtering and pagination
func (s *PrintJobService) List(ctx context.Context, filter *domain.PrintJobFilter, limit, offset int) (*domain.PrintJobList, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}

	return s.printJobRepo.List(ctx, filter, limit, offset)
}

// Queue returns a snapshot of the tenant's queue in dispatch order
func (s *PrintJobService) Queue(ctx context.Context, tenantID uuid.UUID) (*domain.QueueSnapshot, error) {
	jobs, err := s.printJobRepo.ListQueued(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list queued jobs: %w", err)
	}

	return &domain.QueueSnapshot{
		Jobs:      jobs,
		Capacity:  s.queueCapacity(ctx, tenantID),
		TakenAt:   time.Now(),
		QueuedLen: len(jobs),
	}, nil
}

// DispatchQueued assigns queued jobs to idle printers in queue order, pairing
// each with an active spool that covers its filament estimate. Jobs with no
// usable spool stay queued without blocking the jobs behind them. Tenants that
// turned auto-assignment off are skipped. limit caps assignments per call, a
// non-positive limit means no cap. Returns the number of jobs assigned in
// this pass.
func (s *PrintJobService) DispatchQueued(ctx context.Context, tenantID uuid.UUID, limit int) (int, error) {
	settings, err := s.tenantRepo.GetSettings(ctx, tenantID)
	if err != nil {
		if !apperrors.IsNotFound(err) {
			return 0, err
		}
		settings = domain.DefaultTenantSettings(tenantID)
	}
	if !settings.AutoAssignJobs {
		return 0, nil
	}

	queued, err := s.printJobRepo.ListQueued(ctx, tenantID)
	if err != nil {
		return 0, fmt.Errorf("failed to list queued jobs: %w", err)
	}
	if len(queued) == 0 {
		return 0, nil
	}

	idle, err := s.printerRepo.ListIdle(ctx, tenantID)
	if err != nil {
		return 0, fmt.Errorf("failed to list idle printers: %w", err)
	}
	if len(idle) == 0 {
		return 0, nil
	}

	spools, err := s.activeSpools(ctx, tenantID)
	if err != nil {
		return 0, fmt.Errorf("failed to list active spools: %w", err)
	}

	assigned := 0
	next := 0
	for i := range queued {
		if limit > 0 && assigned >= limit {
			break
		}
		job := &queued[i]
		if job.PrinterID != nil {
			continue
		}

		spool := pickSpool(spools, job.EstimatedWeightGrams)
		if spool == nil {
			continue
		}

		// An idle printer can still be pinned by an earlier queued job
		var printer *domain.Printer
		for next < len(idle) {
			candidate := &idle[next]
			next++
			active, err := s.printJobRepo.CountActiveByPrinter(ctx, tenantID, candidate.ID)
			if err != nil {
				return assigned, fmt.Errorf("failed to check printer load: %w", err)
			}
			if active == 0 {
				printer = candidate
				break
			}
		}
		if printer == nil {
			break
		}

		if err := s.printJobRepo.Assign(ctx, tenantID, job.ID, printer.ID, &spool.ID); err != nil {
			return assigned, fmt.Errorf("failed to assign print job: %w", err)
		}
		job.PrinterID = &printer.ID
		job.SpoolID = &spool.ID
		if job.EstimatedWeightGrams > 0 {
			// Reserve the estimate locally so one pass cannot over-commit a spool
			spool.RemainingWeightGrams -= job.EstimatedWeightGrams
		}
		assigned++

		s.recordJobEvent(tenantID, job.ID, domain.JobEventAssigned, "", "", printer.Name)

		if s.realtime != nil {
			s.realtime.PublishJobAssigned(ctx, tenantID, job.ID, printer.ID)
		}

		if s.audit != nil {
			jobID, jobName, printerName := job.ID, job.Name, printer.Name
			go func() {
				_ = s.audit.LogJobAssigned(context.Background(), tenantID, nil, "system", jobID, jobName, printerName)
			}()
		}
	}

	return assigned, nil
}

// RequeueStale returns printing jobs to the queue when their printer has not
// heartbeated since the cutoff window and marks those printers offline.
// Returns the number of jobs requeued.
func (s *PrintJobService) RequeueStale(ctx context.Context, staleAfter time.Duration) (int, error) {
	cutoff := time.Now().Add(-staleAfter)

	stuck, err := s.printJobRepo.ListStalePrinting(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to list stale printing jobs: %w", err)
	}

	requeued := 0
	for i := range stuck {
		job := &stuck[i]
		if job.PrinterID == nil {
			continue
		}
		printerID := *job.PrinterID

		if err := s.printJobRepo.Requeue(ctx, job.TenantID, job.ID); err != nil {
			if apperrors.IsNotFound(err) {
				// The job moved on between the scan and the requeue
				continue
			}
			return requeued, fmt.Errorf("failed to requeue print job: %w", err)
		}
		requeued++

		printerName := printerID.String()
		if printer, err := s.printerRepo.GetByID(ctx, job.TenantID, printerID); err == nil {
			printerName = printer.Name
		}
		s.setPrinterStatus(ctx, job.TenantID, &printerID, domain.PrinterStatusOffline)

		s.recordJobEvent(job.TenantID, job.ID, domain.JobEventRequeued,
			string(domain.JobStatusPrinting), string(domain.JobStatusQueued), printerName)

		if s.realtime != nil {
			s.realtime.PublishJobStatus(ctx, job.TenantID, job.ID, domain.JobStatusPrinting, domain.JobStatusQueued)
		}

		if s.audit != nil {
			tenantID, jobID, jobName := job.TenantID, job.ID, job.Name
			go func() {
				_ = s.audit.LogJobRequeued(context.Background(), tenantID, jobID, jobName, printerName)
			}()
		}
	}

	return requeued, nil
}

// activeSpools loads the tenant's active spools in a single page
func (s *PrintJobService) activeSpools(ctx context.Context, tenantID uuid.UUID) ([]domain.Spool, error) {
	status := domain.SpoolStatusActive
	list, err := s.spoolRepo.List(ctx, &domain.SpoolFilter{TenantID: tenantID, Status: &status}, maxSpoolsPerDispatch, 0)
	if err != nil {
		return nil, err
	}
	return list.Spools, nil
}

// pickSpool chooses the spool with the least filament that still covers the
// estimate, keeping fuller spools free for heavier jobs. Jobs without an
// estimate take any spool with filament left.
func pickSpool(spools []domain.Spool, estimatedGrams float64) *domain.Spool {
	var best *domain.Spool
	for i := range spools {
		spool := &spools[i]
		if estimatedGrams > 0 {
			if !spool.CanConsume(estimatedGrams) {
				continue
			}
		} else if spool.RemainingWeightGrams <= 0 {
			continue
		}
		if best == nil || spool.RemainingWeightGrams < best.RemainingWeightGrams {
			best = spool
		}
	}
	return best
}

// ListTenantsWithQueuedJobs returns tenants that currently have queued jobs
func (s *PrintJobService) ListTenantsWithQueuedJobs(ctx context.Context) ([]uuid.UUID, error) {
	return s.printJobRepo.ListTenantsWithQueuedJobs(ctx)
}

// CountActive returns the number of queued or printing jobs for a tenant
func (s *PrintJobService) CountActive(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	return s.printJobRepo.CountActive(ctx, tenantID)
}

func (s *PrintJobService) queueCapacity(ctx context.Context, tenantID uuid.UUID) int {
	settings, err := s.tenantRepo.GetSettings(ctx, tenantID)
	if err != nil || settings.PrintQueueCapacity <= 0 {
		return domain.DefaultTenantSettings(tenantID).PrintQueueCapacity
	}
	return settings.PrintQueueCapacity
}

// setPrinterStatus mirrors the job state onto the printer. The job transition
// already committed, so a printer status failure is not surfaced.
func (s *PrintJobService) setPrinterStatus(ctx context.Context, tenantID uuid.UUID, printerID *uuid.UUID, status domain.PrinterStatus) {
	if printerID == nil {
		return
	}
	_ = s.printerRepo.UpdateStatus(ctx, tenantID, *printerID, status)
}

// recordJobEvent writes a lifecycle event to the telemetry store, best effort
func (s *PrintJobService) recordJobEvent(tenantID, jobID uuid.UUID, eventType, from, to, detail string) {
	event := &domain.JobEvent{
		TenantID:   tenantID,
		JobID:      jobID,
		EventType:  eventType,
		FromStatus: from,
		ToStatus:   to,
		Detail:     detail,
		OccurredAt: time.Now(),
	}
	go func() {
		_ = s.telemetryRepo.InsertJobEvent(context.Background(), event)
	}()
}

func (s *PrintJobService) auditSpoolDraw(ctx context.Context, tenantID, spoolID uuid.UUID, actorID *uuid.UUID, actorEmail string, grams float64) {
	if s.audit == nil {
		return
	}

	spool, err := s.spoolRepo.GetByID(ctx, tenantID, spoolID)
	if err != nil {
		return
	}
	label := spoolLabel(spool)

	go func() {
		_ = s.audit.LogSpoolConsumed(context.Background(), tenantID, actorID, actorEmail, spoolID, label, grams)
		if spool.Status == domain.SpoolStatusDepleted {
			_ = s.audit.LogSpoolDepleted(context.Background(), tenantID, spoolID, label)
		}
	}()
}

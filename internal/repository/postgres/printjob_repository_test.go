package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/printforge/printforge/api/internal/domain"
	apperrors "github.com/printforge/printforge/api/internal/pkg/errors"
)

func createTestModel(tenantID uuid.UUID, name string) *domain.Model {
	now := time.Now()
	return &domain.Model{
		ID:          uuid.New(),
		TenantID:    tenantID,
		Name:        name,
		StorageKey:  "models/" + tenantID.String() + "/" + uuid.New().String() + ".stl",
		FileName:    "benchy.stl",
		ContentType: "application/sla",
		SizeBytes:   482133,
		Format:      domain.ModelFormatSTL,
		Status:      domain.ModelStatusReady,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func createTestPrinter(tenantID uuid.UUID, name string) *domain.Printer {
	now := time.Now()
	return &domain.Printer{
		ID:               uuid.New(),
		TenantID:         tenantID,
		Name:             name,
		Manufacturer:     "Prusa",
		ModelName:        "MK4",
		Status:           domain.PrinterStatusIdle,
		BuildVolume:      &domain.BuildVolume{XMM: 250, YMM: 210, ZMM: 220},
		NozzleDiameterMM: 0.4,
		Location:         "bench 1",
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

func createTestPrintJob(tenantID, modelID uuid.UUID, name string, priority domain.JobPriority) *domain.PrintJob {
	now := time.Now()
	return &domain.PrintJob{
		ID:                    uuid.New(),
		TenantID:              tenantID,
		ModelID:               modelID,
		Name:                  name,
		Status:                domain.JobStatusQueued,
		Priority:              priority,
		EstimatedWeightGrams:  42,
		EstimatedDurationMins: 95,
		QueuedAt:              now,
		CreatedAt:             now,
		UpdatedAt:             now,
	}
}

func TestPrintJobRepository_Create(t *testing.T) {
	db := getTestDB(t)
	if db == nil {
		return
	}
	defer db.Close()

	ctx := context.Background()
	tenant := seedTenant(t, db, "job-create")
	model := createTestModel(tenant.ID, "Benchy")
	require.NoError(t, NewModelRepository(db).Create(ctx, model))

	repo := NewPrintJobRepository(db)
	job := createTestPrintJob(tenant.ID, model.ID, "Benchy x1", domain.JobPriorityNormal)

	err := repo.Create(ctx, job)
	require.NoError(t, err)

	retrieved, err := repo.GetByID(ctx, tenant.ID, job.ID)
	require.NoError(t, err)
	assert.Equal(t, job.ID, retrieved.ID)
	assert.Equal(t, model.ID, retrieved.ModelID)
	assert.Equal(t, "Benchy x1", retrieved.Name)
	assert.Equal(t, domain.JobStatusQueued, retrieved.Status)
	assert.Equal(t, domain.JobPriorityNormal, retrieved.Priority)
	assert.Equal(t, float64(0), retrieved.Progress)
	assert.Nil(t, retrieved.PrinterID)
	assert.Nil(t, retrieved.StartedAt)

	t.Run("wrong tenant cannot see job", func(t *testing.T) {
		_, err := repo.GetByID(ctx, uuid.New(), job.ID)
		assert.True(t, apperrors.IsNotFound(err))
	})
}

func TestPrintJobRepository_QueueOrder(t *testing.T) {
	db := getTestDB(t)
	if db == nil {
		return
	}
	defer db.Close()

	ctx := context.Background()
	tenant := seedTenant(t, db, "job-queue")
	model := createTestModel(tenant.ID, "Vase")
	require.NoError(t, NewModelRepository(db).Create(ctx, model))

	repo := NewPrintJobRepository(db)

	// Queued in this order; dispatch order must be by priority, then FIFO.
	base := time.Now().Add(-time.Hour)
	names := []struct {
		name     string
		priority domain.JobPriority
	}{
		{"normal-first", domain.JobPriorityNormal},
		{"low", domain.JobPriorityLow},
		{"rush", domain.JobPriorityRush},
		{"normal-second", domain.JobPriorityNormal},
		{"high", domain.JobPriorityHigh},
	}
	for i, n := range names {
		job := createTestPrintJob(tenant.ID, model.ID, n.name, n.priority)
		job.QueuedAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, repo.Create(ctx, job))
	}

	queued, err := repo.ListQueued(ctx, tenant.ID)
	require.NoError(t, err)
	require.Len(t, queued, 5)

	order := make([]string, len(queued))
	for i, job := range queued {
		order[i] = job.Name
		assert.Equal(t, i+1, job.QueuePosition)
	}
	assert.Equal(t, []string{"rush", "high", "normal-first", "normal-second", "low"}, order)

	count, err := repo.CountQueued(ctx, tenant.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(5), count)

	tenants, err := repo.ListTenantsWithQueuedJobs(ctx)
	require.NoError(t, err)
	assert.Contains(t, tenants, tenant.ID)
}

func TestPrintJobRepository_Assign(t *testing.T) {
	db := getTestDB(t)
	if db == nil {
		return
	}
	defer db.Close()

	ctx := context.Background()
	tenant := seedTenant(t, db, "job-assign")
	model := createTestModel(tenant.ID, "Bracket")
	require.NoError(t, NewModelRepository(db).Create(ctx, model))
	printer := createTestPrinter(tenant.ID, "MK4-01")
	require.NoError(t, NewPrinterRepository(db).Create(ctx, printer))
	spool := createTestSpool(tenant.ID)
	require.NoError(t, NewSpoolRepository(db).Create(ctx, spool))

	repo := NewPrintJobRepository(db)
	job := createTestPrintJob(tenant.ID, model.ID, "Bracket x4", domain.JobPriorityNormal)
	require.NoError(t, repo.Create(ctx, job))

	err := repo.Assign(ctx, tenant.ID, job.ID, printer.ID, &spool.ID)
	require.NoError(t, err)

	retrieved, err := repo.GetByID(ctx, tenant.ID, job.ID)
	require.NoError(t, err)
	require.NotNil(t, retrieved.PrinterID)
	assert.Equal(t, printer.ID, *retrieved.PrinterID)
	require.NotNil(t, retrieved.SpoolID)
	assert.Equal(t, spool.ID, *retrieved.SpoolID)

	t.Run("assign without spool", func(t *testing.T) {
		job2 := createTestPrintJob(tenant.ID, model.ID, "Bracket x1", domain.JobPriorityNormal)
		require.NoError(t, repo.Create(ctx, job2))

		require.NoError(t, repo.Assign(ctx, tenant.ID, job2.ID, printer.ID, nil))

		retrieved, err := repo.GetByID(ctx, tenant.ID, job2.ID)
		require.NoError(t, err)
		require.NotNil(t, retrieved.PrinterID)
		assert.Nil(t, retrieved.SpoolID)
	})
}

func TestPrintJobRepository_Progress(t *testing.T) {
	db := getTestDB(t)
	if db == nil {
		return
	}
	defer db.Close()

	ctx := context.Background()
	tenant := seedTenant(t, db, "job-progress")
	model := createTestModel(tenant.ID, "Gear")
	require.NoError(t, NewModelRepository(db).Create(ctx, model))

	repo := NewPrintJobRepository(db)
	job := createTestPrintJob(tenant.ID, model.ID, "Gear x2", domain.JobPriorityNormal)
	require.NoError(t, repo.Create(ctx, job))

	// Progress writes are ignored while the job is still queued.
	require.NoError(t, repo.UpdateProgress(ctx, tenant.ID, job.ID, 50))
	retrieved, err := repo.GetByID(ctx, tenant.ID, job.ID)
	require.NoError(t, err)
	assert.Equal(t, float64(0), retrieved.Progress)

	now := time.Now()
	job.Status = domain.JobStatusPrinting
	job.StartedAt = &now
	require.NoError(t, repo.UpdateStatus(ctx, job))

	require.NoError(t, repo.UpdateProgress(ctx, tenant.ID, job.ID, 42.5))
	retrieved, err = repo.GetByID(ctx, tenant.ID, job.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusPrinting, retrieved.Status)
	assert.NotNil(t, retrieved.StartedAt)
	assert.Equal(t, 42.5, retrieved.Progress)
}

func TestPrintJobRepository_CompleteWithConsumption(t *testing.T) {
	db := getTestDB(t)
	if db == nil {
		return
	}
	defer db.Close()

	ctx := context.Background()
	tenant := seedTenant(t, db, "job-complete")
	model := createTestModel(tenant.ID, "Lamp Shade")
	require.NoError(t, NewModelRepository(db).Create(ctx, model))
	spoolRepo := NewSpoolRepository(db)
	spool := createTestSpool(tenant.ID)
	require.NoError(t, spoolRepo.Create(ctx, spool))

	repo := NewPrintJobRepository(db)
	job := createTestPrintJob(tenant.ID, model.ID, "Lamp Shade", domain.JobPriorityNormal)
	require.NoError(t, repo.Create(ctx, job))

	started := time.Now()
	job.Status = domain.JobStatusPrinting
	job.StartedAt = &started
	require.NoError(t, repo.UpdateStatus(ctx, job))

	completed := time.Now()
	job.Status = domain.JobStatusCompleted
	job.Progress = 100
	job.ActualWeightGrams = 120
	job.CompletedAt = &completed

	err := repo.CompleteWithConsumption(ctx, job, spool.ID, 120)
	require.NoError(t, err)

	retrieved, err := repo.GetByID(ctx, tenant.ID, job.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusCompleted, retrieved.Status)
	assert.Equal(t, float64(100), retrieved.Progress)
	assert.Equal(t, float64(120), retrieved.ActualWeightGrams)
	assert.NotNil(t, retrieved.CompletedAt)

	remaining, err := spoolRepo.GetByID(ctx, tenant.ID, spool.ID)
	require.NoError(t, err)
	assert.Equal(t, float64(880), remaining.RemainingWeightGrams)

	t.Run("insufficient filament rolls back the job", func(t *testing.T) {
		job2 := createTestPrintJob(tenant.ID, model.ID, "Lamp Shade XL", domain.JobPriorityNormal)
		require.NoError(t, repo.Create(ctx, job2))
		job2.Status = domain.JobStatusPrinting
		job2.StartedAt = &started
		require.NoError(t, repo.UpdateStatus(ctx, job2))

		job2.Status = domain.JobStatusCompleted
		job2.Progress = 100
		job2.ActualWeightGrams = 5000
		job2.CompletedAt = &completed

		err := repo.CompleteWithConsumption(ctx, job2, spool.ID, 5000)
		assert.True(t, apperrors.IsConflict(err))

		// Both sides of the transaction are untouched.
		retrieved, err := repo.GetByID(ctx, tenant.ID, job2.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.JobStatusPrinting, retrieved.Status)

		remaining, err := spoolRepo.GetByID(ctx, tenant.ID, spool.ID)
		require.NoError(t, err)
		assert.Equal(t, float64(880), remaining.RemainingWeightGrams)
	})
}

func TestPrintJobRepository_List(t *testing.T) {
	db := getTestDB(t)
	if db == nil {
		return
	}
	defer db.Close()

	ctx := context.Background()
	tenant := seedTenant(t, db, "job-list")
	model := createTestModel(tenant.ID, "Phone Stand")
	require.NoError(t, NewModelRepository(db).Create(ctx, model))
	printer := createTestPrinter(tenant.ID, "MK4-02")
	require.NoError(t, NewPrinterRepository(db).Create(ctx, printer))

	repo := NewPrintJobRepository(db)

	queued := createTestPrintJob(tenant.ID, model.ID, "Stand A", domain.JobPriorityNormal)
	require.NoError(t, repo.Create(ctx, queued))

	printing := createTestPrintJob(tenant.ID, model.ID, "Stand B", domain.JobPriorityHigh)
	require.NoError(t, repo.Create(ctx, printing))
	require.NoError(t, repo.Assign(ctx, tenant.ID, printing.ID, printer.ID, nil))
	now := time.Now()
	printing.Status = domain.JobStatusPrinting
	printing.StartedAt = &now
	require.NoError(t, repo.UpdateStatus(ctx, printing))

	canceled := createTestPrintJob(tenant.ID, model.ID, "Stand C", domain.JobPriorityLow)
	require.NoError(t, repo.Create(ctx, canceled))
	canceled.Status = domain.JobStatusCanceled
	require.NoError(t, repo.UpdateStatus(ctx, canceled))

	t.Run("all jobs", func(t *testing.T) {
		list, err := repo.List(ctx, &domain.PrintJobFilter{TenantID: tenant.ID}, 50, 0)
		require.NoError(t, err)
		assert.Len(t, list.Jobs, 3)
		assert.Equal(t, int64(3), list.TotalCount)
		assert.False(t, list.HasMore)
	})

	t.Run("filter by status", func(t *testing.T) {
		status := domain.JobStatusPrinting
		list, err := repo.List(ctx, &domain.PrintJobFilter{TenantID: tenant.ID, Status: &status}, 50, 0)
		require.NoError(t, err)
		require.Len(t, list.Jobs, 1)
		assert.Equal(t, "Stand B", list.Jobs[0].Name)
	})

	t.Run("filter by printer", func(t *testing.T) {
		list, err := repo.List(ctx, &domain.PrintJobFilter{TenantID: tenant.ID, PrinterID: &printer.ID}, 50, 0)
		require.NoError(t, err)
		require.Len(t, list.Jobs, 1)
		assert.Equal(t, printing.ID, list.Jobs[0].ID)
	})

	t.Run("pagination", func(t *testing.T) {
		list, err := repo.List(ctx, &domain.PrintJobFilter{TenantID: tenant.ID}, 2, 0)
		require.NoError(t, err)
		assert.Len(t, list.Jobs, 2)
		assert.Equal(t, int64(3), list.TotalCount)
		assert.True(t, list.HasMore)
	})

	t.Run("active counts", func(t *testing.T) {
		active, err := repo.CountActive(ctx, tenant.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(2), active)

		byPrinter, err := repo.CountActiveByPrinter(ctx, tenant.ID, printer.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), byPrinter)

		byModel, err := repo.CountActiveByModel(ctx, tenant.ID, model.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(2), byModel)
	})
}

func TestPrintJobRepository_UpdateAndDelete(t *testing.T) {
	db := getTestDB(t)
	if db == nil {
		return
	}
	defer db.Close()

	ctx := context.Background()
	tenant := seedTenant(t, db, "job-update")
	model := createTestModel(tenant.ID, "Hook")
	require.NoError(t, NewModelRepository(db).Create(ctx, model))

	repo := NewPrintJobRepository(db)
	job := createTestPrintJob(tenant.ID, model.ID, "Hook x10", domain.JobPriorityNormal)
	require.NoError(t, repo.Create(ctx, job))

	job.Name = "Hook x20"
	job.Priority = domain.JobPriorityHigh
	job.EstimatedWeightGrams = 84
	job.EstimatedDurationMins = 190
	require.NoError(t, repo.Update(ctx, job))

	retrieved, err := repo.GetByID(ctx, tenant.ID, job.ID)
	require.NoError(t, err)
	assert.Equal(t, "Hook x20", retrieved.Name)
	assert.Equal(t, domain.JobPriorityHigh, retrieved.Priority)
	assert.Equal(t, float64(84), retrieved.EstimatedWeightGrams)
	assert.Equal(t, 190, retrieved.EstimatedDurationMins)

	require.NoError(t, repo.Delete(ctx, tenant.ID, job.ID))
	_, err = repo.GetByID(ctx, tenant.ID, job.ID)
	assert.True(t, apperrors.IsNotFound(err))
}

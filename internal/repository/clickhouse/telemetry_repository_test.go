package clickhouse

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/printforge/printforge/api/internal/config"
	"github.com/printforge/printforge/api/internal/domain"
	"github.com/printforge/printforge/api/internal/pkg/database"
)

// getTestDB returns a database connection for integration tests.
// Returns nil if the database is not available (skips tests).
func getTestDB(t *testing.T) *database.ClickHouseDB {
	// Check if we're running integration tests
	if os.Getenv("CLICKHOUSE_TEST_HOST") == "" {
		t.Skip("Skipping integration test: CLICKHOUSE_TEST_HOST not set")
		return nil
	}

	cfg := config.ClickHouseConfig{
		Host:     os.Getenv("CLICKHOUSE_TEST_HOST"),
		Port:     9000,
		Database: os.Getenv("CLICKHOUSE_TEST_DB"),
		User:     os.Getenv("CLICKHOUSE_TEST_USER"),
		Password: os.Getenv("CLICKHOUSE_TEST_PASS"),
	}

	if cfg.Database == "" {
		cfg.Database = "test_printforge"
	}
	if cfg.Port == 0 {
		cfg.Port = 9000
	}

	db, err := database.NewClickHouse(context.Background(), cfg)
	if err != nil {
		t.Skipf("Skipping integration test: failed to connect to ClickHouse: %v", err)
		return nil
	}

	return db
}

// createTestSample creates a printer sample with test data
func createTestSample(tenantID, printerID uuid.UUID) *domain.PrinterSample {
	return &domain.PrinterSample{
		TenantID:       tenantID,
		PrinterID:      printerID,
		JobID:          uuid.New().String(),
		Status:         "printing",
		NozzleTempC:    210.5,
		BedTempC:       60.0,
		ChamberTempC:   32.0,
		ProgressPct:    45.0,
		FilamentUsedMM: 1200.0,
		RecordedAt:     time.Now().UTC(),
	}
}

func TestTelemetryRepository_InsertSample(t *testing.T) {
	db := getTestDB(t)
	if db == nil {
		return
	}
	defer db.Close()

	repo := NewTelemetryRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()
	printerID := uuid.New()

	sample := createTestSample(tenantID, printerID)
	err := repo.InsertSample(ctx, sample)
	require.NoError(t, err)

	// Verify by listing
	filter := &domain.PrinterSampleFilter{TenantID: tenantID, PrinterID: &printerID}
	samples, err := repo.ListSamples(ctx, filter, 10)
	require.NoError(t, err)
	require.Len(t, samples, 1)
	assert.Equal(t, sample.JobID, samples[0].JobID)
	assert.Equal(t, sample.Status, samples[0].Status)
	assert.Equal(t, sample.NozzleTempC, samples[0].NozzleTempC)
}

func TestTelemetryRepository_InsertSamples(t *testing.T) {
	db := getTestDB(t)
	if db == nil {
		return
	}
	defer db.Close()

	repo := NewTelemetryRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()
	printerID := uuid.New()

	samples := []*domain.PrinterSample{
		createTestSample(tenantID, printerID),
		createTestSample(tenantID, printerID),
		createTestSample(tenantID, printerID),
	}

	err := repo.InsertSamples(ctx, samples)
	require.NoError(t, err)

	filter := &domain.PrinterSampleFilter{TenantID: tenantID, PrinterID: &printerID}
	fetched, err := repo.ListSamples(ctx, filter, 10)
	require.NoError(t, err)
	assert.Len(t, fetched, 3)
}

func TestTelemetryRepository_InsertSamples_Empty(t *testing.T) {
	db := getTestDB(t)
	if db == nil {
		return
	}
	defer db.Close()

	repo := NewTelemetryRepository(db)
	ctx := context.Background()

	// Empty batch should not error
	err := repo.InsertSamples(ctx, []*domain.PrinterSample{})
	require.NoError(t, err)
}

func TestTelemetryRepository_ListSamples(t *testing.T) {
	db := getTestDB(t)
	if db == nil {
		return
	}
	defer db.Close()

	repo := NewTelemetryRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()
	printerID := uuid.New()
	jobID := uuid.New()

	samples := make([]*domain.PrinterSample, 5)
	for i := 0; i < 5; i++ {
		sample := createTestSample(tenantID, printerID)
		sample.JobID = jobID.String()
		sample.ProgressPct = float64(i * 20)
		sample.RecordedAt = time.Now().UTC().Add(time.Duration(i) * time.Minute)
		samples[i] = sample
	}
	require.NoError(t, repo.InsertSamples(ctx, samples))

	t.Run("by printer", func(t *testing.T) {
		filter := &domain.PrinterSampleFilter{TenantID: tenantID, PrinterID: &printerID}
		fetched, err := repo.ListSamples(ctx, filter, 10)
		require.NoError(t, err)
		assert.Len(t, fetched, 5)
	})

	t.Run("newest first", func(t *testing.T) {
		filter := &domain.PrinterSampleFilter{TenantID: tenantID, PrinterID: &printerID}
		fetched, err := repo.ListSamples(ctx, filter, 10)
		require.NoError(t, err)
		require.NotEmpty(t, fetched)
		assert.Equal(t, float64(80), fetched[0].ProgressPct)
	})

	t.Run("with limit", func(t *testing.T) {
		filter := &domain.PrinterSampleFilter{TenantID: tenantID, PrinterID: &printerID}
		fetched, err := repo.ListSamples(ctx, filter, 2)
		require.NoError(t, err)
		assert.Len(t, fetched, 2)
	})

	t.Run("by job", func(t *testing.T) {
		filter := &domain.PrinterSampleFilter{TenantID: tenantID, JobID: &jobID}
		fetched, err := repo.ListSamples(ctx, filter, 10)
		require.NoError(t, err)
		assert.Len(t, fetched, 5)
	})

	t.Run("by time range", func(t *testing.T) {
		from := time.Now().UTC().Add(-time.Hour)
		to := time.Now().UTC().Add(time.Hour)
		filter := &domain.PrinterSampleFilter{
			TenantID: tenantID,
			FromTime: &from,
			ToTime:   &to,
		}
		fetched, err := repo.ListSamples(ctx, filter, 10)
		require.NoError(t, err)
		assert.Len(t, fetched, 5)
	})

	t.Run("other tenant sees nothing", func(t *testing.T) {
		filter := &domain.PrinterSampleFilter{TenantID: uuid.New(), PrinterID: &printerID}
		fetched, err := repo.ListSamples(ctx, filter, 10)
		require.NoError(t, err)
		assert.Empty(t, fetched)
	})
}

func TestTelemetryRepository_LatestSample(t *testing.T) {
	db := getTestDB(t)
	if db == nil {
		return
	}
	defer db.Close()

	repo := NewTelemetryRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()
	printerID := uuid.New()

	older := createTestSample(tenantID, printerID)
	older.Status = "printing"
	older.RecordedAt = time.Now().UTC().Add(-time.Minute)
	newer := createTestSample(tenantID, printerID)
	newer.Status = "idle"
	newer.RecordedAt = time.Now().UTC()
	require.NoError(t, repo.InsertSamples(ctx, []*domain.PrinterSample{older, newer}))

	latest, err := repo.LatestSample(ctx, tenantID, printerID)
	require.NoError(t, err)
	assert.Equal(t, "idle", latest.Status)

	t.Run("unknown printer", func(t *testing.T) {
		_, err := repo.LatestSample(ctx, tenantID, uuid.New())
		assert.Error(t, err)
	})
}

func TestTelemetryRepository_JobEvents(t *testing.T) {
	db := getTestDB(t)
	if db == nil {
		return
	}
	defer db.Close()

	repo := NewTelemetryRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()
	jobID := uuid.New()
	now := time.Now().UTC()

	events := []*domain.JobEvent{
		{
			TenantID:   tenantID,
			JobID:      jobID,
			EventType:  domain.JobEventCreated,
			ToStatus:   "queued",
			OccurredAt: now.Add(-2 * time.Minute),
		},
		{
			TenantID:   tenantID,
			JobID:      jobID,
			EventType:  domain.JobEventTransition,
			FromStatus: "queued",
			ToStatus:   "printing",
			OccurredAt: now.Add(-time.Minute),
		},
		{
			TenantID:   tenantID,
			JobID:      jobID,
			EventType:  domain.JobEventTransition,
			FromStatus: "printing",
			ToStatus:   "completed",
			OccurredAt: now,
		},
	}
	for _, event := range events {
		require.NoError(t, repo.InsertJobEvent(ctx, event))
	}

	timeline, err := repo.ListJobEvents(ctx, tenantID, jobID)
	require.NoError(t, err)
	require.Len(t, timeline, 3)

	// Oldest first
	assert.Equal(t, domain.JobEventCreated, timeline[0].EventType)
	assert.Equal(t, "printing", timeline[1].ToStatus)
	assert.Equal(t, "completed", timeline[2].ToStatus)

	t.Run("other job has no events", func(t *testing.T) {
		timeline, err := repo.ListJobEvents(ctx, tenantID, uuid.New())
		require.NoError(t, err)
		assert.Empty(t, timeline)
	})
}

func TestTelemetryRepository_UsageStats(t *testing.T) {
	db := getTestDB(t)
	if db == nil {
		return
	}
	defer db.Close()

	repo := NewTelemetryRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()
	printerID := uuid.New()
	now := time.Now().UTC()

	// Two jobs on the same printer; filament readings are cumulative per job
	jobA := uuid.New().String()
	jobB := uuid.New().String()
	samples := []*domain.PrinterSample{
		{TenantID: tenantID, PrinterID: printerID, JobID: jobA, Status: "printing", NozzleTempC: 200, BedTempC: 60, ProgressPct: 50, FilamentUsedMM: 500, RecordedAt: now.Add(-30 * time.Minute)},
		{TenantID: tenantID, PrinterID: printerID, JobID: jobA, Status: "printing", NozzleTempC: 220, BedTempC: 60, ProgressPct: 100, FilamentUsedMM: 1000, RecordedAt: now.Add(-20 * time.Minute)},
		{TenantID: tenantID, PrinterID: printerID, JobID: jobB, Status: "printing", NozzleTempC: 210, BedTempC: 55, ProgressPct: 80, FilamentUsedMM: 300, RecordedAt: now.Add(-10 * time.Minute)},
	}
	require.NoError(t, repo.InsertSamples(ctx, samples))

	filter := &domain.PrinterSampleFilter{TenantID: tenantID}
	stats, err := repo.UsageStats(ctx, filter)
	require.NoError(t, err)
	require.Len(t, stats, 1)

	assert.Equal(t, printerID, stats[0].PrinterID)
	assert.Equal(t, uint64(3), stats[0].SampleCount)
	assert.InDelta(t, 210.0, stats[0].AvgNozzleTempC, 0.1)
	assert.Equal(t, float64(100), stats[0].MaxProgressPct)
	// Per-job maxima: 1000 + 300
	assert.Equal(t, float64(1300), stats[0].FilamentUsedMM)

	t.Run("scoped to printer", func(t *testing.T) {
		other := uuid.New()
		filter := &domain.PrinterSampleFilter{TenantID: tenantID, PrinterID: &other}
		stats, err := repo.UsageStats(ctx, filter)
		require.NoError(t, err)
		assert.Empty(t, stats)
	})
}

func TestTelemetryRepository_CountSamplesBefore(t *testing.T) {
	db := getTestDB(t)
	if db == nil {
		return
	}
	defer db.Close()

	repo := NewTelemetryRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()
	printerID := uuid.New()

	require.NoError(t, repo.InsertSample(ctx, createTestSample(tenantID, printerID)))

	// Future cutoff includes the sample
	count, err := repo.CountSamplesBefore(ctx, time.Now().UTC().Add(24*time.Hour))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, count, int64(1))
}

package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/printforge/printforge/api/internal/domain"
	apperrors "github.com/printforge/printforge/api/internal/pkg/errors"
)

func TestSpoolService_Create(t *testing.T) {
	t.Run("new spools start full and active", func(t *testing.T) {
		spoolRepo := new(MockSpoolRepository)

		tenantID := uuid.New()
		spoolRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Spool")).Return(nil)

		svc := NewSpoolService(spoolRepo, new(MockTenantRepository))

		spool, err := svc.Create(context.Background(), tenantID, &domain.SpoolInput{
			Material:         domain.SpoolMaterialPLA,
			Color:            "Galaxy Black",
			DiameterMM:       1.75,
			TotalWeightGrams: 1000,
			Vendor:           "Prusament",
		})

		require.NoError(t, err)
		assert.Equal(t, domain.SpoolStatusActive, spool.Status)
		assert.Equal(t, float64(1000), spool.TotalWeightGrams)
		assert.Equal(t, float64(1000), spool.RemainingWeightGrams)
		spoolRepo.AssertExpectations(t)
	})
}

func TestSpoolService_Update(t *testing.T) {
	t.Run("applies a partial update", func(t *testing.T) {
		spoolRepo := new(MockSpoolRepository)

		tenantID := uuid.New()
		spoolID := uuid.New()
		spool := &domain.Spool{
			ID:       spoolID,
			TenantID: tenantID,
			Material: domain.SpoolMaterialPLA,
			Color:    "Galaxy Black",
			Location: "Shelf A",
			Status:   domain.SpoolStatusActive,
		}

		spoolRepo.On("GetByID", mock.Anything, tenantID, spoolID).Return(spool, nil)
		spoolRepo.On("Update", mock.Anything, mock.AnythingOfType("*domain.Spool")).Return(nil)

		svc := NewSpoolService(spoolRepo, new(MockTenantRepository))

		location := "Dry box 2"
		result, err := svc.Update(context.Background(), tenantID, spoolID, &domain.SpoolUpdateInput{
			Location: &location,
		})

		require.NoError(t, err)
		assert.Equal(t, "Dry box 2", result.Location)
		assert.Equal(t, "Galaxy Black", result.Color)
	})
}

func TestSpoolService_Consume(t *testing.T) {
	t.Run("records filament drawn from a spool", func(t *testing.T) {
		spoolRepo := new(MockSpoolRepository)

		tenantID := uuid.New()
		spoolID := uuid.New()
		after := &domain.Spool{
			ID:                   spoolID,
			TenantID:             tenantID,
			Material:             domain.SpoolMaterialPLA,
			Color:                "Galaxy Black",
			TotalWeightGrams:     1000,
			RemainingWeightGrams: 957.5,
			Status:               domain.SpoolStatusActive,
		}

		spoolRepo.On("Consume", mock.Anything, tenantID, spoolID, 42.5).Return(after, nil)

		svc := NewSpoolService(spoolRepo, new(MockTenantRepository))

		result, err := svc.Consume(context.Background(), tenantID, spoolID, &domain.SpoolConsumeInput{
			Grams: 42.5,
		}, nil, "")

		require.NoError(t, err)
		assert.Equal(t, 957.5, result.RemainingWeightGrams)
		assert.Equal(t, domain.SpoolStatusActive, result.Status)
		spoolRepo.AssertExpectations(t)
	})

	t.Run("surfaces an overdraw conflict from the store", func(t *testing.T) {
		spoolRepo := new(MockSpoolRepository)

		tenantID := uuid.New()
		spoolID := uuid.New()
		spoolRepo.On("Consume", mock.Anything, tenantID, spoolID, 500.0).Return(
			nil, apperrors.Conflict("spool does not have enough filament"))

		svc := NewSpoolService(spoolRepo, new(MockTenantRepository))

		result, err := svc.Consume(context.Background(), tenantID, spoolID, &domain.SpoolConsumeInput{
			Grams: 500,
		}, nil, "")

		require.Error(t, err)
		assert.Nil(t, result)
		assert.True(t, apperrors.IsConflict(err))
	})
}

func TestSpoolService_ListLowStock(t *testing.T) {
	t.Run("uses the explicit threshold", func(t *testing.T) {
		spoolRepo := new(MockSpoolRepository)
		tenantRepo := new(MockTenantRepository)

		tenantID := uuid.New()
		low := []domain.Spool{{ID: uuid.New(), TenantID: tenantID, RemainingWeightGrams: 80}}

		spoolRepo.On("ListLowStock", mock.Anything, tenantID, 250.0).Return(low, nil)

		svc := NewSpoolService(spoolRepo, tenantRepo)

		result, err := svc.ListLowStock(context.Background(), tenantID, 250)

		require.NoError(t, err)
		assert.Len(t, result, 1)
		tenantRepo.AssertNotCalled(t, "GetSettings", mock.Anything, tenantID)
	})

	t.Run("falls back to the tenant threshold", func(t *testing.T) {
		spoolRepo := new(MockSpoolRepository)
		tenantRepo := new(MockTenantRepository)

		tenantID := uuid.New()
		settings := &domain.TenantSettings{TenantID: tenantID, LowStockThresholdGrams: 150}

		tenantRepo.On("GetSettings", mock.Anything, tenantID).Return(settings, nil)
		spoolRepo.On("ListLowStock", mock.Anything, tenantID, 150.0).Return([]domain.Spool{}, nil)

		svc := NewSpoolService(spoolRepo, tenantRepo)

		result, err := svc.ListLowStock(context.Background(), tenantID, 0)

		require.NoError(t, err)
		assert.Empty(t, result)
		spoolRepo.AssertExpectations(t)
	})

	t.Run("defaults when no settings are saved", func(t *testing.T) {
		spoolRepo := new(MockSpoolRepository)
		tenantRepo := new(MockTenantRepository)

		tenantID := uuid.New()
		tenantRepo.On("GetSettings", mock.Anything, tenantID).Return(nil, apperrors.NotFound("settings"))
		spoolRepo.On("ListLowStock", mock.Anything, tenantID, 100.0).Return([]domain.Spool{}, nil)

		svc := NewSpoolService(spoolRepo, tenantRepo)

		_, err := svc.ListLowStock(context.Background(), tenantID, 0)

		require.NoError(t, err)
		spoolRepo.AssertExpectations(t)
	})
}

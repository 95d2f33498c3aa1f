package service

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/printforge/printforge/api/internal/domain"
	apperrors "github.com/printforge/printforge/api/internal/pkg/errors"
	"github.com/printforge/printforge/api/internal/validator"
)

// MaxModelSizeBytes caps uploaded model files at 256 MiB
const MaxModelSizeBytes = 256 << 20

// DownloadURLExpiry is how long a presigned model download link stays valid
const DownloadURLExpiry = 15 * time.Minute

// ModelRepository defines model repository operations
type ModelRepository interface {
	Create(ctx context.Context, model *domain.Model) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.Model, error)
	Update(ctx context.Context, model *domain.Model) error
	UpdateStatus(ctx context.Context, tenantID, id uuid.UUID, status domain.ModelStatus) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	List(ctx context.Context, filter *domain.ModelFilter, limit, offset int) (*domain.ModelList, error)
	ListByProductID(ctx context.Context, tenantID, productID uuid.UUID) ([]domain.Model, error)
}

// ObjectStorage defines the blob store operations the model service needs
type ObjectStorage interface {
	Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error
	PresignedDownloadURL(ctx context.Context, key string, expiry time.Duration) (string, error)
	Remove(ctx context.Context, key string) error
}

// ModelService handles 3D model asset operations
type ModelService struct {
	modelRepo   ModelRepository
	productRepo ProductRepository
	storage     ObjectStorage
}

// NewModelService creates a new model service
func NewModelService(modelRepo ModelRepository, productRepo ProductRepository, storage ObjectStorage) *ModelService {
	return &ModelService{
		modelRepo:   modelRepo,
		productRepo: productRepo,
		storage:     storage,
	}
}

// Upload validates and stores a model file, then records its metadata.
// The model becomes ready once the object write succeeds.
func (s *ModelService) Upload(ctx context.Context, tenantID uuid.UUID, input *domain.ModelInput, fileName, contentType string, size int64, reader io.Reader, uploadedBy *uuid.UUID) (*domain.Model, error) {
	format, ok := domain.ModelFormatFromFileName(fileName)
	if !ok {
		return nil, apperrors.Validation("unsupported model format, expected stl, obj, 3mf or gcode")
	}
	if !format.AllowsContentType(contentType) {
		return nil, apperrors.Validation(fmt.Sprintf("content type %q does not match a %s file", contentType, format))
	}
	if size <= 0 {
		return nil, apperrors.Validation("file is empty")
	}
	if size > MaxModelSizeBytes {
		return nil, apperrors.Validation("file exceeds the maximum model size")
	}

	if input.ProductID != nil {
		if _, err := s.productRepo.GetByID(ctx, tenantID, *input.ProductID); err != nil {
			return nil, err
		}
	}

	now := time.Now()
	model := &domain.Model{
		ID:          uuid.New(),
		TenantID:    tenantID,
		ProductID:   input.ProductID,
		Name:        input.Name,
		StorageKey:  fmt.Sprintf("models/%s/%s.%s", tenantID, uuid.New(), format),
		FileName:    fileName,
		ContentType: contentType,
		SizeBytes:   size,
		Format:      format,
		Status:      domain.ModelStatusPending,
		UploadedBy:  uploadedBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.modelRepo.Create(ctx, model); err != nil {
		return nil, fmt.Errorf("failed to create model: %w", err)
	}

	if err := s.storage.Upload(ctx, model.StorageKey, reader, size, contentType); err != nil {
		// Flag the record so the cleanup worker can reap it
		_ = s.modelRepo.UpdateStatus(ctx, tenantID, model.ID, domain.ModelStatusFailed)
		return nil, fmt.Errorf("failed to store model file: %w", err)
	}

	if err := s.modelRepo.UpdateStatus(ctx, tenantID, model.ID, domain.ModelStatusReady); err != nil {
		return nil, fmt.Errorf("failed to mark model ready: %w", err)
	}
	model.Status = domain.ModelStatusReady

	return model, nil
}

// Get retrieves a model by ID
func (s *ModelService) Get(ctx context.Context, tenantID, id uuid.UUID) (*domain.Model, error) {
	return s.modelRepo.GetByID(ctx, tenantID, id)
}

// DownloadURL returns a presigned URL for downloading a ready model file
func (s *ModelService) DownloadURL(ctx context.Context, tenantID, id uuid.UUID) (string, error) {
	model, err := s.modelRepo.GetByID(ctx, tenantID, id)
	if err != nil {
		return "", err
	}

	if model.Status != domain.ModelStatusReady {
		return "", apperrors.Conflict("model file is not ready")
	}

	return s.storage.PresignedDownloadURL(ctx, model.StorageKey, DownloadURLExpiry)
}

// Update applies a partial metadata update to a model
func (s *ModelService) Update(ctx context.Context, tenantID, id uuid.UUID, input *domain.ModelUpdateInput) (*domain.Model, error) {
	if err := validator.Validate(input); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	model, err := s.modelRepo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		model.Name = *input.Name
	}
	if input.ProductID != nil {
		if _, err := s.productRepo.GetByID(ctx, tenantID, *input.ProductID); err != nil {
			return nil, err
		}
		model.ProductID = input.ProductID
	}
	if input.Status != nil {
		model.Status = *input.Status
	}
	model.UpdatedAt = time.Now()

	if err := s.modelRepo.Update(ctx, model); err != nil {
		return nil, fmt.Errorf("failed to update model: %w", err)
	}

	return model, nil
}

// Delete removes a model record and its stored file
func (s *ModelService) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	model, err := s.modelRepo.GetByID(ctx, tenantID, id)
	if err != nil {
		return err
	}

	if err := s.modelRepo.Delete(ctx, tenantID, id); err != nil {
		return err
	}

	// Best effort, an orphaned object is picked up by the cleanup worker
	go func() {
		_ = s.storage.Remove(context.Background(), model.StorageKey)
	}()

	return nil
}

// List retrieves models with filtering and pagination
func (s *ModelService) List(ctx context.Context, filter *domain.ModelFilter, limit, offset int) (*domain.ModelList, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}

	return s.modelRepo.List(ctx, filter, limit, offset)
}

// ListByProduct retrieves the models attached to a product
func (s *ModelService) ListByProduct(ctx context.Context, tenantID, productID uuid.UUID) ([]domain.Model, error) {
	return s.modelRepo.ListByProductID(ctx, tenantID, productID)
}

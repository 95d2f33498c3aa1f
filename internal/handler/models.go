package handler

import (
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/printforge/printforge/api/internal/domain"
	"github.com/printforge/printforge/api/internal/middleware"
	apperrors "github.com/printforge/printforge/api/internal/pkg/errors"
	"github.com/printforge/printforge/api/internal/service"
)

// ModelsHandler handles 3D model asset endpoints
type ModelsHandler struct {
	modelService *service.ModelService
	logger       *zap.Logger
}

// NewModelsHandler creates a new models handler
func NewModelsHandler(modelService *service.ModelService, logger *zap.Logger) *ModelsHandler {
	return &ModelsHandler{
		modelService: modelService,
		logger:       logger,
	}
}

// ListModels handles GET /v1/tenants/:tenantId/models
func (h *ModelsHandler) ListModels(c *fiber.Ctx) error {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "Unauthorized",
			"message": "Tenant ID not found",
		})
	}

	filter := &domain.ModelFilter{
		TenantID: tenantID,
	}

	if productID := parseQueryUUID(c, "productId"); productID != nil {
		filter.ProductID = productID
	}
	if format := c.Query("format"); format != "" {
		f := domain.ModelFormat(format)
		if !f.IsValid() {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error":   "Bad Request",
				"message": "Invalid format",
			})
		}
		filter.Format = &f
	}
	if status := c.Query("status"); status != "" {
		s := domain.ModelStatus(status)
		if !s.IsValid() {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error":   "Bad Request",
				"message": "Invalid status",
			})
		}
		filter.Status = &s
	}
	if search := c.Query("search"); search != "" {
		filter.Search = &search
	}

	p := ParsePagination(c, 100)

	list, err := h.modelService.List(c.Context(), filter, p.Limit, p.Offset)
	if err != nil {
		h.logger.Error("failed to list models", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Internal Server Error",
			"message": "Failed to list models",
		})
	}

	return c.JSON(list)
}

// GetModel handles GET /v1/tenants/:tenantId/models/:modelId
func (h *ModelsHandler) GetModel(c *fiber.Ctx) error {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "Unauthorized",
			"message": "Tenant ID not found",
		})
	}

	modelID, err := uuid.Parse(c.Params("modelId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Bad Request",
			"message": "Invalid model ID",
		})
	}

	model, err := h.modelService.Get(c.Context(), tenantID, modelID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error":   "Not Found",
				"message": "Model not found",
			})
		}
		h.logger.Error("failed to get model", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Internal Server Error",
			"message": "Failed to get model",
		})
	}

	return c.JSON(model)
}

// UploadModel handles POST /v1/tenants/:tenantId/models/upload
//
// The request is multipart/form-data with a "file" part and optional
// "name" and "productId" fields. When name is omitted the file name
// without its extension is used.
func (h *ModelsHandler) UploadModel(c *fiber.Ctx) error {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "Unauthorized",
			"message": "Tenant ID not found",
		})
	}

	file, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Bad Request",
			"message": "file is required",
		})
	}

	input := domain.ModelInput{
		Name: c.FormValue("name"),
	}
	if input.Name == "" {
		input.Name = strings.TrimSuffix(file.Filename, filepath.Ext(file.Filename))
	}
	if productID := c.FormValue("productId"); productID != "" {
		id, err := uuid.Parse(productID)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error":   "Bad Request",
				"message": "Invalid productId",
			})
		}
		input.ProductID = &id
	}

	f, err := file.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Bad Request",
			"message": "Failed to open file",
		})
	}
	defer f.Close()

	var uploadedBy *uuid.UUID
	if userID, ok := middleware.GetUserID(c); ok {
		uploadedBy = &userID
	}

	contentType := file.Header.Get("Content-Type")

	model, err := h.modelService.Upload(c.Context(), tenantID, &input, file.Filename, contentType, file.Size, f, uploadedBy)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error":   "Not Found",
				"message": "Product not found",
			})
		}
		if apperrors.IsValidation(err) {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"error":   "Unprocessable Entity",
				"message": err.Error(),
			})
		}
		h.logger.Error("failed to upload model", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Internal Server Error",
			"message": "Failed to upload model",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(model)
}

// DownloadModel handles GET /v1/tenants/:tenantId/models/:modelId/download
//
// Responds with a short-lived presigned URL rather than streaming the
// object through the API.
func (h *ModelsHandler) DownloadModel(c *fiber.Ctx) error {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "Unauthorized",
			"message": "Tenant ID not found",
		})
	}

	modelID, err := uuid.Parse(c.Params("modelId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Bad Request",
			"message": "Invalid model ID",
		})
	}

	url, err := h.modelService.DownloadURL(c.Context(), tenantID, modelID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error":   "Not Found",
				"message": "Model not found",
			})
		}
		if apperrors.IsConflict(err) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error":   "Conflict",
				"message": err.Error(),
			})
		}
		h.logger.Error("failed to create download URL", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Internal Server Error",
			"message": "Failed to create download URL",
		})
	}

	return c.JSON(fiber.Map{
		"url":       url,
		"expiresIn": int(service.DownloadURLExpiry.Seconds()),
	})
}

// UpdateModel handles PATCH /v1/tenants/:tenantId/models/:modelId
func (h *ModelsHandler) UpdateModel(c *fiber.Ctx) error {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "Unauthorized",
			"message": "Tenant ID not found",
		})
	}

	modelID, err := uuid.Parse(c.Params("modelId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Bad Request",
			"message": "Invalid model ID",
		})
	}

	var input domain.ModelUpdateInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Bad Request",
			"message": "Invalid request body: " + err.Error(),
		})
	}

	model, err := h.modelService.Update(c.Context(), tenantID, modelID, &input)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error":   "Not Found",
				"message": "Model not found",
			})
		}
		if apperrors.IsValidation(err) {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"error":   "Unprocessable Entity",
				"message": err.Error(),
			})
		}
		h.logger.Error("failed to update model", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Internal Server Error",
			"message": "Failed to update model",
		})
	}

	return c.JSON(model)
}

// DeleteModel handles DELETE /v1/tenants/:tenantId/models/:modelId
func (h *ModelsHandler) DeleteModel(c *fiber.Ctx) error {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "Unauthorized",
			"message": "Tenant ID not found",
		})
	}

	modelID, err := uuid.Parse(c.Params("modelId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Bad Request",
			"message": "Invalid model ID",
		})
	}

	if err := h.modelService.Delete(c.Context(), tenantID, modelID); err != nil {
		if apperrors.IsNotFound(err) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error":   "Not Found",
				"message": "Model not found",
			})
		}
		if apperrors.IsConflict(err) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error":   "Conflict",
				"message": err.Error(),
			})
		}
		h.logger.Error("failed to delete model", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Internal Server Error",
			"message": "Failed to delete model",
		})
	}

	return c.SendStatus(fiber.StatusNoContent)
}

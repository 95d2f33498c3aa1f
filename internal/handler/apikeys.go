package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/printforge/printforge/api/internal/domain"
	"github.com/printforge/printforge/api/internal/middleware"
	apperrors "github.com/printforge/printforge/api/internal/pkg/errors"
	"github.com/printforge/printforge/api/internal/service"
)

// APIKeysHandler handles API key endpoints
type APIKeysHandler struct {
	authService *service.AuthService
	logger      *zap.Logger
}

// NewAPIKeysHandler creates a new API keys handler
func NewAPIKeysHandler(authService *service.AuthService, logger *zap.Logger) *APIKeysHandler {
	return &APIKeysHandler{
		authService: authService,
		logger:      logger,
	}
}

// ListAPIKeys handles GET /v1/tenants/:tenantId/api-keys
func (h *APIKeysHandler) ListAPIKeys(c *fiber.Ctx) error {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "Unauthorized",
			"message": "Tenant ID not found",
		})
	}

	keys, err := h.authService.ListAPIKeys(c.Context(), tenantID)
	if err != nil {
		h.logger.Error("failed to list API keys", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Internal Server Error",
			"message": "Failed to list API keys",
		})
	}

	// Transform to response format
	response := make([]fiber.Map, len(keys))
	for i, key := range keys {
		response[i] = fiber.Map{
			"id":               key.ID,
			"name":             key.Name,
			"publicKey":        key.PublicKey,
			"secretKeyPreview": key.SecretKeyPreview,
			"scopes":           key.Scopes,
			"expiresAt":        key.ExpiresAt,
			"lastUsedAt":       key.LastUsedAt,
			"createdAt":        key.CreatedAt,
		}
	}

	return c.JSON(fiber.Map{
		"data": response,
	})
}

// CreateAPIKey handles POST /v1/tenants/:tenantId/api-keys
func (h *APIKeysHandler) CreateAPIKey(c *fiber.Ctx) error {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "Unauthorized",
			"message": "Tenant ID not found",
		})
	}

	userID, ok := middleware.GetUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "Unauthorized",
			"message": "User ID not found",
		})
	}

	var input domain.APIKeyInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Bad Request",
			"message": "Invalid request body: " + err.Error(),
		})
	}

	if input.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Bad Request",
			"message": "name is required",
		})
	}

	result, err := h.authService.CreateAPIKeyWithContext(c.Context(), tenantID, &input, userID, h.actorEmail(c, userID))
	if err != nil {
		h.logger.Error("failed to create API key", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Internal Server Error",
			"message": "Failed to create API key",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"id":               result.APIKey.ID,
		"name":             result.APIKey.Name,
		"publicKey":        result.APIKey.PublicKey,
		"secretKey":        result.SecretKey, // Only returned on creation
		"secretKeyPreview": result.APIKey.SecretKeyPreview,
		"scopes":           result.APIKey.Scopes,
		"expiresAt":        result.APIKey.ExpiresAt,
		"createdAt":        result.APIKey.CreatedAt,
		"note":             "This is the only time the full secret key will be shown. Please save it securely.",
	})
}

// DeleteAPIKey handles DELETE /v1/tenants/:tenantId/api-keys/:keyId
func (h *APIKeysHandler) DeleteAPIKey(c *fiber.Ctx) error {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "Unauthorized",
			"message": "Tenant ID not found",
		})
	}

	userID, ok := middleware.GetUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "Unauthorized",
			"message": "User ID not found",
		})
	}

	keyID, err := uuid.Parse(c.Params("keyId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Bad Request",
			"message": "Invalid key ID",
		})
	}

	if err := h.authService.DeleteAPIKeyWithContext(c.Context(), tenantID, keyID, userID, h.actorEmail(c, userID)); err != nil {
		if apperrors.IsNotFound(err) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error":   "Not Found",
				"message": "API key not found",
			})
		}
		h.logger.Error("failed to delete API key", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Internal Server Error",
			"message": "Failed to delete API key",
		})
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// actorEmail resolves the acting user's email for audit entries. Lookup
// failures return an empty string so the operation itself never blocks on it.
func (h *APIKeysHandler) actorEmail(c *fiber.Ctx, userID uuid.UUID) string {
	user, err := h.authService.GetUserByID(c.Context(), userID)
	if err != nil {
		return ""
	}
	return user.Email
}

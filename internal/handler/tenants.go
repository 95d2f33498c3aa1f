package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/printforge/printforge/api/internal/domain"
	"github.com/printforge/printforge/api/internal/dto"
	"github.com/printforge/printforge/api/internal/middleware"
	apperrors "github.com/printforge/printforge/api/internal/pkg/errors"
	"github.com/printforge/printforge/api/internal/service"
)

// TenantsHandler handles tenant, membership, and settings endpoints
type TenantsHandler struct {
	tenantService *service.TenantService
	authService   *service.AuthService
	logger        *zap.Logger
}

// NewTenantsHandler creates a new tenants handler
func NewTenantsHandler(tenantService *service.TenantService, authService *service.AuthService, logger *zap.Logger) *TenantsHandler {
	return &TenantsHandler{
		tenantService: tenantService,
		authService:   authService,
		logger:        logger,
	}
}

// ListTenants handles GET /v1/tenants
func (h *TenantsHandler) ListTenants(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "Unauthorized",
			"message": "User ID not found",
		})
	}

	tenants, err := h.tenantService.ListByUser(c.Context(), userID)
	if err != nil {
		h.logger.Error("failed to list tenants", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Internal Server Error",
			"message": "Failed to list tenants",
		})
	}

	return c.JSON(fiber.Map{
		"data": tenants,
	})
}

// GetTenant handles GET /v1/tenants/:tenantId
func (h *TenantsHandler) GetTenant(c *fiber.Ctx) error {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "Unauthorized",
			"message": "Tenant ID not found",
		})
	}

	tenant, err := h.tenantService.Get(c.Context(), tenantID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error":   "Not Found",
				"message": "Tenant not found",
			})
		}
		h.logger.Error("failed to get tenant", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Internal Server Error",
			"message": "Failed to get tenant",
		})
	}

	return c.JSON(tenant)
}

// GetTenantBySlug handles GET /v1/tenants/slug/:slug
func (h *TenantsHandler) GetTenantBySlug(c *fiber.Ctx) error {
	slug := c.Params("slug")
	if slug == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Bad Request",
			"message": "Tenant slug required",
		})
	}

	tenant, err := h.tenantService.GetBySlug(c.Context(), slug)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error":   "Not Found",
				"message": "Tenant not found",
			})
		}
		h.logger.Error("failed to get tenant", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Internal Server Error",
			"message": "Failed to get tenant",
		})
	}

	return c.JSON(tenant)
}

// CreateTenant handles POST /v1/tenants
func (h *TenantsHandler) CreateTenant(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "Unauthorized",
			"message": "User ID not found",
		})
	}

	var input domain.TenantInput
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

	tenant, err := h.tenantService.Create(c.Context(), &input, userID)
	if err != nil {
		if apperrors.IsValidation(err) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error":   "Bad Request",
				"message": err.Error(),
			})
		}
		if apperrors.IsConflict(err) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error":   "Conflict",
				"message": err.Error(),
			})
		}
		h.logger.Error("failed to create tenant", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Internal Server Error",
			"message": "Failed to create tenant",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(tenant)
}

// UpdateTenant handles PATCH /v1/tenants/:tenantId
func (h *TenantsHandler) UpdateTenant(c *fiber.Ctx) error {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "Unauthorized",
			"message": "Tenant ID not found",
		})
	}

	var input domain.TenantUpdateInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Bad Request",
			"message": "Invalid request body: " + err.Error(),
		})
	}

	tenant, err := h.tenantService.Update(c.Context(), tenantID, &input)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error":   "Not Found",
				"message": "Tenant not found",
			})
		}
		h.logger.Error("failed to update tenant", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Internal Server Error",
			"message": "Failed to update tenant",
		})
	}

	return c.JSON(tenant)
}

// DeleteTenant handles DELETE /v1/tenants/:tenantId
func (h *TenantsHandler) DeleteTenant(c *fiber.Ctx) error {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "Unauthorized",
			"message": "Tenant ID not found",
		})
	}

	if err := h.tenantService.Delete(c.Context(), tenantID); err != nil {
		if apperrors.IsNotFound(err) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error":   "Not Found",
				"message": "Tenant not found",
			})
		}
		h.logger.Error("failed to delete tenant", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Internal Server Error",
			"message": "Failed to delete tenant",
		})
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// ListMembers handles GET /v1/tenants/:tenantId/members
func (h *TenantsHandler) ListMembers(c *fiber.Ctx) error {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "Unauthorized",
			"message": "Tenant ID not found",
		})
	}

	members, err := h.tenantService.ListMembers(c.Context(), tenantID)
	if err != nil {
		h.logger.Error("failed to list members", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Internal Server Error",
			"message": "Failed to list members",
		})
	}

	return c.JSON(fiber.Map{
		"data": members,
	})
}

// GetMember handles GET /v1/tenants/:tenantId/members/:userId
func (h *TenantsHandler) GetMember(c *fiber.Ctx) error {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "Unauthorized",
			"message": "Tenant ID not found",
		})
	}

	userID, err := uuid.Parse(c.Params("userId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Bad Request",
			"message": "Invalid user ID",
		})
	}

	member, err := h.tenantService.GetMember(c.Context(), tenantID, userID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error":   "Not Found",
				"message": "Member not found",
			})
		}
		h.logger.Error("failed to get member", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Internal Server Error",
			"message": "Failed to get member",
		})
	}

	return c.JSON(member)
}

// AddMember handles POST /v1/tenants/:tenantId/members
func (h *TenantsHandler) AddMember(c *fiber.Ctx) error {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "Unauthorized",
			"message": "Tenant ID not found",
		})
	}

	var input domain.TenantMemberInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Bad Request",
			"message": "Invalid request body: " + err.Error(),
		})
	}

	if input.UserID == uuid.Nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Bad Request",
			"message": "userId is required",
		})
	}

	if !input.Role.IsValid() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Bad Request",
			"message": "Invalid role",
		})
	}

	member, err := h.tenantService.AddMember(c.Context(), tenantID, &input)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error":   "Not Found",
				"message": "User not found",
			})
		}
		if apperrors.IsConflict(err) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error":   "Conflict",
				"message": "User is already a member",
			})
		}
		h.logger.Error("failed to add member", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Internal Server Error",
			"message": "Failed to add member",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(member)
}

// UpdateMemberRole handles PATCH /v1/tenants/:tenantId/members/:userId
func (h *TenantsHandler) UpdateMemberRole(c *fiber.Ctx) error {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "Unauthorized",
			"message": "Tenant ID not found",
		})
	}

	actorID, ok := middleware.GetUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "Unauthorized",
			"message": "User ID not found",
		})
	}

	userID, err := uuid.Parse(c.Params("userId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Bad Request",
			"message": "Invalid user ID",
		})
	}

	var req dto.UpdateMemberRoleRequest
	if ok, err := dto.ParseAndValidate(c, &req); !ok {
		return err
	}

	if err := h.tenantService.UpdateMemberRole(c.Context(), tenantID, userID, req.Role, actorID, h.actorEmail(c, actorID)); err != nil {
		if apperrors.IsNotFound(err) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error":   "Not Found",
				"message": "Member not found",
			})
		}
		if apperrors.IsConflict(err) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error":   "Conflict",
				"message": err.Error(),
			})
		}
		h.logger.Error("failed to update member role", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Internal Server Error",
			"message": "Failed to update member role",
		})
	}

	return c.JSON(fiber.Map{
		"message": "Member role updated",
	})
}

// RemoveMember handles DELETE /v1/tenants/:tenantId/members/:userId
func (h *TenantsHandler) RemoveMember(c *fiber.Ctx) error {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "Unauthorized",
			"message": "Tenant ID not found",
		})
	}

	actorID, ok := middleware.GetUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "Unauthorized",
			"message": "User ID not found",
		})
	}

	userID, err := uuid.Parse(c.Params("userId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Bad Request",
			"message": "Invalid user ID",
		})
	}

	if err := h.tenantService.RemoveMember(c.Context(), tenantID, userID, actorID, h.actorEmail(c, actorID)); err != nil {
		if apperrors.IsNotFound(err) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error":   "Not Found",
				"message": "Member not found",
			})
		}
		if apperrors.IsConflict(err) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error":   "Conflict",
				"message": err.Error(),
			})
		}
		h.logger.Error("failed to remove member", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Internal Server Error",
			"message": "Failed to remove member",
		})
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// InviteUser handles POST /v1/tenants/:tenantId/invitations
func (h *TenantsHandler) InviteUser(c *fiber.Ctx) error {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "Unauthorized",
			"message": "Tenant ID not found",
		})
	}

	actorID, ok := middleware.GetUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "Unauthorized",
			"message": "User ID not found",
		})
	}

	var input domain.TenantInvitationInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Bad Request",
			"message": "Invalid request body: " + err.Error(),
		})
	}

	if input.Email == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Bad Request",
			"message": "email is required",
		})
	}

	if !input.Role.IsValid() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Bad Request",
			"message": "Invalid role",
		})
	}

	invitation, err := h.tenantService.InviteUser(c.Context(), tenantID, &input, actorID, h.actorEmail(c, actorID))
	if err != nil {
		if apperrors.IsConflict(err) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error":   "Conflict",
				"message": err.Error(),
			})
		}
		h.logger.Error("failed to create invitation", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Internal Server Error",
			"message": "Failed to create invitation",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(invitation)
}

// ListInvitations handles GET /v1/tenants/:tenantId/invitations
func (h *TenantsHandler) ListInvitations(c *fiber.Ctx) error {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "Unauthorized",
			"message": "Tenant ID not found",
		})
	}

	invitations, err := h.tenantService.ListPendingInvitations(c.Context(), tenantID)
	if err != nil {
		h.logger.Error("failed to list invitations", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Internal Server Error",
			"message": "Failed to list invitations",
		})
	}

	return c.JSON(fiber.Map{
		"data": invitations,
	})
}

// AcceptInvitation handles POST /v1/invitations/accept
func (h *TenantsHandler) AcceptInvitation(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "Unauthorized",
			"message": "User ID not found",
		})
	}

	var req dto.AcceptInvitationRequest
	if ok, err := dto.ParseAndValidate(c, &req); !ok {
		return err
	}

	tenant, err := h.tenantService.AcceptInvitation(c.Context(), req.Token, userID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error":   "Not Found",
				"message": "Invitation not found or expired",
			})
		}
		if apperrors.IsValidation(err) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error":   "Bad Request",
				"message": err.Error(),
			})
		}
		if apperrors.IsConflict(err) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error":   "Conflict",
				"message": err.Error(),
			})
		}
		h.logger.Error("failed to accept invitation", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Internal Server Error",
			"message": "Failed to accept invitation",
		})
	}

	return c.JSON(tenant)
}

// GetSettings handles GET /v1/tenants/:tenantId/settings
func (h *TenantsHandler) GetSettings(c *fiber.Ctx) error {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "Unauthorized",
			"message": "Tenant ID not found",
		})
	}

	settings, err := h.tenantService.GetSettings(c.Context(), tenantID)
	if err != nil {
		h.logger.Error("failed to get settings", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Internal Server Error",
			"message": "Failed to get settings",
		})
	}

	return c.JSON(settings)
}

// UpdateSettings handles PUT /v1/tenants/:tenantId/settings
func (h *TenantsHandler) UpdateSettings(c *fiber.Ctx) error {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "Unauthorized",
			"message": "Tenant ID not found",
		})
	}

	actorID, ok := middleware.GetUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "Unauthorized",
			"message": "User ID not found",
		})
	}

	var input domain.TenantSettingsInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Bad Request",
			"message": "Invalid request body: " + err.Error(),
		})
	}

	settings, err := h.tenantService.UpdateSettings(c.Context(), tenantID, &input, actorID, h.actorEmail(c, actorID))
	if err != nil {
		if apperrors.IsValidation(err) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error":   "Bad Request",
				"message": err.Error(),
			})
		}
		h.logger.Error("failed to update settings", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Internal Server Error",
			"message": "Failed to update settings",
		})
	}

	return c.JSON(settings)
}

// GetStats handles GET /v1/tenants/:tenantId/stats
func (h *TenantsHandler) GetStats(c *fiber.Ctx) error {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "Unauthorized",
			"message": "Tenant ID not found",
		})
	}

	stats, err := h.tenantService.GetStats(c.Context(), tenantID)
	if err != nil {
		h.logger.Error("failed to get tenant stats", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Internal Server Error",
			"message": "Failed to get tenant stats",
		})
	}

	return c.JSON(stats)
}

func (h *TenantsHandler) actorEmail(c *fiber.Ctx, userID uuid.UUID) string {
	user, err := h.authService.GetUserByID(c.Context(), userID)
	if err != nil {
		return ""
	}
	return user.Email
}

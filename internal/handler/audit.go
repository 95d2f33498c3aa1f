package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/printforge/printforge/api/internal/domain"
	"github.com/printforge/printforge/api/internal/service"
)

type AuditHandler struct {
	auditService *service.AuditService
}

func NewAuditHandler(auditService *service.AuditService) *AuditHandler {
	return &AuditHandler{
		auditService: auditService,
	}
}

// ListAuditLogs retrieves audit logs with filtering
// @Summary List audit logs
// @Tags Audit
// @Security BearerAuth
// @Param tenantId path string true "Tenant ID"
// @Param actor_id query string false "Filter by actor ID"
// @Param action query string false "Filter by action"
// @Param resource_type query string false "Filter by resource type"
// @Param resource_id query string false "Filter by resource ID"
// @Param start_time query string false "Filter by start time (RFC3339)"
// @Param end_time query string false "Filter by end time (RFC3339)"
// @Param search query string false "Search in description and resource name"
// @Param limit query int false "Limit results (default 50, max 1000)"
// @Param offset query int false "Offset for pagination"
// @Success 200 {object} domain.AuditLogList
// @Failure 400 {object} ErrorResponse
// @Router /api/v1/tenants/{tenantId}/audit-logs [get]
func (h *AuditHandler) ListAuditLogs(c *fiber.Ctx) error {
	tenantID, err := RequireTenantID(c)
	if err != nil {
		return err
	}

	filter := &domain.AuditLogFilter{
		TenantID: &tenantID,
	}

	// Parse query parameters
	if actorIDStr := c.Query("actor_id"); actorIDStr != "" {
		if actorID, err := uuid.Parse(actorIDStr); err == nil {
			filter.ActorID = &actorID
		}
	}

	if action := c.Query("action"); action != "" {
		a := domain.AuditAction(action)
		filter.Action = &a
	}

	if resourceType := c.Query("resource_type"); resourceType != "" {
		rt := domain.AuditResourceType(resourceType)
		filter.ResourceType = &rt
	}

	if resourceIDStr := c.Query("resource_id"); resourceIDStr != "" {
		if resourceID, err := uuid.Parse(resourceIDStr); err == nil {
			filter.ResourceID = &resourceID
		}
	}

	if startTimeStr := c.Query("start_time"); startTimeStr != "" {
		if startTime, err := time.Parse(time.RFC3339, startTimeStr); err == nil {
			filter.StartTime = &startTime
		}
	}

	if endTimeStr := c.Query("end_time"); endTimeStr != "" {
		if endTime, err := time.Parse(time.RFC3339, endTimeStr); err == nil {
			filter.EndTime = &endTime
		}
	}

	if search := c.Query("search"); search != "" {
		filter.SearchQuery = &search
	}

	if limitStr := c.Query("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil {
			filter.Limit = limit
		}
	}

	if offsetStr := c.Query("offset"); offsetStr != "" {
		if offset, err := strconv.Atoi(offsetStr); err == nil {
			filter.Offset = offset
		}
	}

	result, err := h.auditService.ListAuditLogs(c.Context(), filter)
	if err != nil {
		return c.Status(http.StatusInternalServerError).JSON(ErrorResponse{
			Error: "Failed to list audit logs: " + err.Error(),
		})
	}

	return c.JSON(result)
}

// GetAuditLog retrieves a single audit log entry
// @Summary Get audit log
// @Tags Audit
// @Security BearerAuth
// @Param tenantId path string true "Tenant ID"
// @Param logId path string true "Audit Log ID"
// @Success 200 {object} domain.AuditLog
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/tenants/{tenantId}/audit-logs/{logId} [get]
func (h *AuditHandler) GetAuditLog(c *fiber.Ctx) error {
	tenantID, err := RequireTenantID(c)
	if err != nil {
		return err
	}

	logID, err := uuid.Parse(c.Params("logId"))
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(ErrorResponse{
			Error: "Invalid log ID",
		})
	}

	log, err := h.auditService.GetAuditLog(c.Context(), tenantID, logID)
	if err != nil {
		return c.Status(http.StatusInternalServerError).JSON(ErrorResponse{
			Error: "Failed to get audit log: " + err.Error(),
		})
	}

	if log == nil {
		return c.Status(http.StatusNotFound).JSON(ErrorResponse{
			Error: "Audit log not found",
		})
	}

	return c.JSON(log)
}

// GetAuditSummary returns aggregated audit statistics
// @Summary Get audit summary
// @Tags Audit
// @Security BearerAuth
// @Param tenantId path string true "Tenant ID"
// @Param period query string false "Period: day, week, month (default week)"
// @Success 200 {object} domain.AuditSummary
// @Failure 400 {object} ErrorResponse
// @Router /api/v1/tenants/{tenantId}/audit-logs/summary [get]
func (h *AuditHandler) GetAuditSummary(c *fiber.Ctx) error {
	tenantID, err := RequireTenantID(c)
	if err != nil {
		return err
	}

	period := c.Query("period", "week")
	if period != "day" && period != "week" && period != "month" {
		period = "week"
	}

	summary, err := h.auditService.GetAuditSummary(c.Context(), tenantID, period)
	if err != nil {
		return c.Status(http.StatusInternalServerError).JSON(ErrorResponse{
			Error: "Failed to get audit summary: " + err.Error(),
		})
	}

	return c.JSON(summary)
}

// GetSecurityEvents returns security-related audit events
// @Summary Get security events
// @Tags Audit
// @Security BearerAuth
// @Param tenantId path string true "Tenant ID"
// @Param since query string false "Since time (RFC3339), default 7 days ago"
// @Param limit query int false "Limit results (default 100)"
// @Success 200 {array} domain.AuditLog
// @Failure 400 {object} ErrorResponse
// @Router /api/v1/tenants/{tenantId}/audit-logs/security [get]
func (h *AuditHandler) GetSecurityEvents(c *fiber.Ctx) error {
	tenantID, err := RequireTenantID(c)
	if err != nil {
		return err
	}

	since := time.Now().AddDate(0, 0, -7) // Default to 7 days ago
	if sinceStr := c.Query("since"); sinceStr != "" {
		if parsedTime, err := time.Parse(time.RFC3339, sinceStr); err == nil {
			since = parsedTime
		}
	}

	limit := 100
	if limitStr := c.Query("limit"); limitStr != "" {
		if parsedLimit, err := strconv.Atoi(limitStr); err == nil && parsedLimit > 0 {
			limit = parsedLimit
		}
	}

	events, err := h.auditService.GetSecurityEvents(c.Context(), tenantID, since, limit)
	if err != nil {
		return c.Status(http.StatusInternalServerError).JSON(ErrorResponse{
			Error: "Failed to get security events: " + err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"events": events,
		"since":  since,
		"count":  len(events),
	})
}

// GetActivityTimeline returns recent activity for a resource
// @Summary Get activity timeline
// @Tags Audit
// @Security BearerAuth
// @Param tenantId path string true "Tenant ID"
// @Param resource_type query string false "Filter by resource type"
// @Param resource_id query string false "Filter by resource ID"
// @Param limit query int false "Limit results (default 50)"
// @Success 200 {array} domain.AuditLog
// @Router /api/v1/tenants/{tenantId}/audit-logs/timeline [get]
func (h *AuditHandler) GetActivityTimeline(c *fiber.Ctx) error {
	tenantID, err := RequireTenantID(c)
	if err != nil {
		return err
	}

	var resourceType *domain.AuditResourceType
	if rt := c.Query("resource_type"); rt != "" {
		t := domain.AuditResourceType(rt)
		resourceType = &t
	}

	resourceID := parseQueryUUID(c, "resource_id")

	limit := 50
	if limitStr := c.Query("limit"); limitStr != "" {
		if parsedLimit, err := strconv.Atoi(limitStr); err == nil && parsedLimit > 0 {
			limit = parsedLimit
		}
	}

	events, err := h.auditService.GetActivityTimeline(c.Context(), tenantID, resourceType, resourceID, limit)
	if err != nil {
		return c.Status(http.StatusInternalServerError).JSON(ErrorResponse{
			Error: "Failed to get activity timeline: " + err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"events": events,
		"count":  len(events),
	})
}

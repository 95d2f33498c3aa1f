package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/printforge/printforge/api/internal/domain"
	"github.com/printforge/printforge/api/internal/repository/postgres"
)

type AuditService struct {
	auditRepo *postgres.AuditRepository
}

func NewAuditService(auditRepo *postgres.AuditRepository) *AuditService {
	return &AuditService{
		auditRepo: auditRepo,
	}
}

// Log creates a new audit log entry
func (s *AuditService) Log(ctx context.Context, input *domain.AuditLogInput) (*domain.AuditLog, error) {
	return s.auditRepo.CreateAuditLog(ctx, input)
}

// LogAction is a convenience method for logging with minimal parameters
func (s *AuditService) LogAction(
	ctx context.Context,
	tenantID uuid.UUID,
	actorID *uuid.UUID,
	actorEmail string,
	actorType string,
	action domain.AuditAction,
	resourceType domain.AuditResourceType,
	resourceID *uuid.UUID,
	resourceName string,
	description string,
) error {
	input := &domain.AuditLogInput{
		TenantID:     tenantID,
		ActorID:      actorID,
		ActorEmail:   actorEmail,
		ActorType:    actorType,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		ResourceName: resourceName,
		Description:  description,
	}

	_, err := s.auditRepo.CreateAuditLog(ctx, input)
	return err
}

// LogWithContext logs an action with request context (IP, user agent, etc.)
func (s *AuditService) LogWithContext(
	ctx context.Context,
	tenantID uuid.UUID,
	actorID *uuid.UUID,
	actorEmail string,
	actorType string,
	action domain.AuditAction,
	resourceType domain.AuditResourceType,
	resourceID *uuid.UUID,
	resourceName string,
	description string,
	ipAddress string,
	userAgent string,
	requestID string,
) error {
	input := &domain.AuditLogInput{
		TenantID:     tenantID,
		ActorID:      actorID,
		ActorEmail:   actorEmail,
		ActorType:    actorType,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		ResourceName: resourceName,
		Description:  description,
		IPAddress:    ipAddress,
		UserAgent:    userAgent,
		RequestID:    requestID,
	}

	_, err := s.auditRepo.CreateAuditLog(ctx, input)
	return err
}

// LogWithChanges logs an action that includes before/after changes
func (s *AuditService) LogWithChanges(
	ctx context.Context,
	tenantID uuid.UUID,
	actorID *uuid.UUID,
	actorEmail string,
	actorType string,
	action domain.AuditAction,
	resourceType domain.AuditResourceType,
	resourceID *uuid.UUID,
	resourceName string,
	description string,
	before map[string]any,
	after map[string]any,
) error {
	input := &domain.AuditLogInput{
		TenantID:     tenantID,
		ActorID:      actorID,
		ActorEmail:   actorEmail,
		ActorType:    actorType,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		ResourceName: resourceName,
		Description:  description,
		Changes: &domain.AuditChanges{
			Before: before,
			After:  after,
		},
	}

	_, err := s.auditRepo.CreateAuditLog(ctx, input)
	return err
}

// GetAuditLog retrieves a single audit log entry
func (s *AuditService) GetAuditLog(ctx context.Context, tenantID, logID uuid.UUID) (*domain.AuditLog, error) {
	return s.auditRepo.GetAuditLog(ctx, tenantID, logID)
}

// ListAuditLogs retrieves audit logs with filtering
func (s *AuditService) ListAuditLogs(ctx context.Context, filter *domain.AuditLogFilter) (*domain.AuditLogList, error) {
	return s.auditRepo.ListAuditLogs(ctx, filter)
}

// GetAuditSummary returns aggregated audit statistics
func (s *AuditService) GetAuditSummary(ctx context.Context, tenantID uuid.UUID, period string) (*domain.AuditSummary, error) {
	return s.auditRepo.GetAuditSummary(ctx, tenantID, period)
}

// PurgeOlderThan deletes audit logs older than the cutoff, used by the cleanup worker
func (s *AuditService) PurgeOlderThan(ctx context.Context, tenantID uuid.UUID, before time.Time) (int64, error) {
	return s.auditRepo.DeleteAuditLogsBefore(ctx, tenantID, before)
}

// Convenience methods for common audit actions

func (s *AuditService) LogLogin(ctx context.Context, tenantID uuid.UUID, userID uuid.UUID, email, ipAddress, userAgent string) error {
	return s.LogWithContext(ctx, tenantID, &userID, email, "user", domain.AuditActionLogin,
		domain.AuditResourceUser, &userID, email, fmt.Sprintf("User %s logged in", email),
		ipAddress, userAgent, "")
}

func (s *AuditService) LogLoginFailed(ctx context.Context, tenantID uuid.UUID, email, ipAddress, userAgent, reason string) error {
	return s.LogWithContext(ctx, tenantID, nil, email, "user", domain.AuditActionLoginFailed,
		domain.AuditResourceUser, nil, email, fmt.Sprintf("Failed login attempt for %s: %s", email, reason),
		ipAddress, userAgent, "")
}

func (s *AuditService) LogLogout(ctx context.Context, tenantID uuid.UUID, userID uuid.UUID, email string) error {
	return s.LogAction(ctx, tenantID, &userID, email, "user", domain.AuditActionLogout,
		domain.AuditResourceUser, &userID, email, fmt.Sprintf("User %s logged out", email))
}

func (s *AuditService) LogAPIKeyUsed(ctx context.Context, tenantID uuid.UUID, keyID uuid.UUID, keyName string, ipAddress, userAgent string) error {
	return s.LogWithContext(ctx, tenantID, nil, keyName, "api_key", domain.AuditActionAPIKeyUsed,
		domain.AuditResourceAPIKey, &keyID, keyName, fmt.Sprintf("API key '%s' was used", keyName),
		ipAddress, userAgent, "")
}

func (s *AuditService) LogAPIKeyCreated(ctx context.Context, tenantID uuid.UUID, actorID uuid.UUID, actorEmail string, keyID uuid.UUID, keyName string) error {
	return s.LogAction(ctx, tenantID, &actorID, actorEmail, "user", domain.AuditActionAPIKeyCreated,
		domain.AuditResourceAPIKey, &keyID, keyName, fmt.Sprintf("API key '%s' was created", keyName))
}

func (s *AuditService) LogAPIKeyRevoked(ctx context.Context, tenantID uuid.UUID, actorID uuid.UUID, actorEmail string, keyID uuid.UUID, keyName string) error {
	return s.LogAction(ctx, tenantID, &actorID, actorEmail, "user", domain.AuditActionAPIKeyRevoked,
		domain.AuditResourceAPIKey, &keyID, keyName, fmt.Sprintf("API key '%s' was revoked", keyName))
}

func (s *AuditService) LogUserInvited(ctx context.Context, tenantID uuid.UUID, actorID uuid.UUID, actorEmail string, invitedEmail string, role domain.TenantRole) error {
	return s.LogAction(ctx, tenantID, &actorID, actorEmail, "user", domain.AuditActionUserInvited,
		domain.AuditResourceUser, nil, invitedEmail, fmt.Sprintf("User %s was invited as %s", invitedEmail, role))
}

func (s *AuditService) LogMemberRoleChanged(ctx context.Context, tenantID uuid.UUID, actorID uuid.UUID, actorEmail string, targetUserID uuid.UUID, oldRole, newRole domain.TenantRole) error {
	return s.LogWithChanges(ctx, tenantID, &actorID, actorEmail, "user", domain.AuditActionMemberRoleChanged,
		domain.AuditResourceUser, &targetUserID, "",
		fmt.Sprintf("Member role changed from %s to %s", oldRole, newRole),
		map[string]any{"role": oldRole}, map[string]any{"role": newRole})
}

func (s *AuditService) LogMemberRemoved(ctx context.Context, tenantID uuid.UUID, actorID uuid.UUID, actorEmail string, removedUserID uuid.UUID) error {
	return s.LogAction(ctx, tenantID, &actorID, actorEmail, "user", domain.AuditActionMemberRemoved,
		domain.AuditResourceUser, &removedUserID, "", "Member was removed from the shop")
}

func (s *AuditService) LogSettingsChanged(ctx context.Context, tenantID uuid.UUID, actorID uuid.UUID, actorEmail, settingName string, before, after any) error {
	return s.LogWithChanges(ctx, tenantID, &actorID, actorEmail, "user", domain.AuditActionSettingsChanged,
		domain.AuditResourceSettings, &tenantID, settingName, fmt.Sprintf("Setting '%s' was changed", settingName),
		map[string]any{settingName: before}, map[string]any{settingName: after})
}

func (s *AuditService) LogSpoolConsumed(ctx context.Context, tenantID uuid.UUID, actorID *uuid.UUID, actorEmail string, spoolID uuid.UUID, spoolLabel string, grams float64) error {
	input := &domain.AuditLogInput{
		TenantID:     tenantID,
		ActorID:      actorID,
		ActorEmail:   actorEmail,
		ActorType:    "user",
		Action:       domain.AuditActionSpoolConsumed,
		ResourceType: domain.AuditResourceSpool,
		ResourceID:   &spoolID,
		ResourceName: spoolLabel,
		Description:  fmt.Sprintf("Spool '%s' consumed %.1fg of filament", spoolLabel, grams),
		Metadata:     map[string]any{"grams": grams},
	}
	_, err := s.auditRepo.CreateAuditLog(ctx, input)
	return err
}

func (s *AuditService) LogSpoolDepleted(ctx context.Context, tenantID uuid.UUID, spoolID uuid.UUID, spoolLabel string) error {
	return s.LogAction(ctx, tenantID, nil, "system", "system", domain.AuditActionSpoolDepleted,
		domain.AuditResourceSpool, &spoolID, spoolLabel, fmt.Sprintf("Spool '%s' is depleted", spoolLabel))
}

func (s *AuditService) LogSpoolLowStock(ctx context.Context, tenantID uuid.UUID, spoolID uuid.UUID, spoolLabel string, remainingGrams float64) error {
	input := &domain.AuditLogInput{
		TenantID:     tenantID,
		ActorEmail:   "system",
		ActorType:    "system",
		Action:       domain.AuditActionSpoolLowStock,
		ResourceType: domain.AuditResourceSpool,
		ResourceID:   &spoolID,
		ResourceName: spoolLabel,
		Description:  fmt.Sprintf("Spool '%s' is low on filament (%.1fg remaining)", spoolLabel, remainingGrams),
		Metadata:     map[string]any{"remaining_grams": remainingGrams},
	}
	_, err := s.auditRepo.CreateAuditLog(ctx, input)
	return err
}

func (s *AuditService) LogJobRequeued(ctx context.Context, tenantID uuid.UUID, jobID uuid.UUID, jobName, printerName string) error {
	return s.LogAction(ctx, tenantID, nil, "system", "system", domain.AuditActionJobRequeued,
		domain.AuditResourceJob, &jobID, jobName,
		fmt.Sprintf("Print job '%s' was requeued because printer '%s' stopped responding", jobName, printerName))
}

func (s *AuditService) LogJobTransition(ctx context.Context, tenantID uuid.UUID, actorID *uuid.UUID, actorEmail string, jobID uuid.UUID, jobName string, from, to domain.JobStatus) error {
	return s.LogWithChanges(ctx, tenantID, actorID, actorEmail, "user", domain.AuditActionJobTransition,
		domain.AuditResourceJob, &jobID, jobName,
		fmt.Sprintf("Print job '%s' moved from %s to %s", jobName, from, to),
		map[string]any{"status": from}, map[string]any{"status": to})
}

func (s *AuditService) LogJobAssigned(ctx context.Context, tenantID uuid.UUID, actorID *uuid.UUID, actorEmail string, jobID uuid.UUID, jobName, printerName string) error {
	input := &domain.AuditLogInput{
		TenantID:     tenantID,
		ActorID:      actorID,
		ActorEmail:   actorEmail,
		ActorType:    "user",
		Action:       domain.AuditActionJobAssigned,
		ResourceType: domain.AuditResourceJob,
		ResourceID:   &jobID,
		ResourceName: jobName,
		Description:  fmt.Sprintf("Print job '%s' assigned to printer '%s'", jobName, printerName),
		Metadata:     map[string]any{"printer": printerName},
	}
	_, err := s.auditRepo.CreateAuditLog(ctx, input)
	return err
}

func (s *AuditService) LogOrderTransition(ctx context.Context, tenantID uuid.UUID, actorID *uuid.UUID, actorEmail string, orderID uuid.UUID, orderNumber string, from, to domain.OrderStatus) error {
	return s.LogWithChanges(ctx, tenantID, actorID, actorEmail, "user", domain.AuditActionOrderTransition,
		domain.AuditResourceOrder, &orderID, orderNumber,
		fmt.Sprintf("Order %s moved from %s to %s", orderNumber, from, to),
		map[string]any{"status": from}, map[string]any{"status": to})
}

func (s *AuditService) LogOrderPlaced(ctx context.Context, tenantID uuid.UUID, actorID *uuid.UUID, actorEmail string, orderID uuid.UUID, orderNumber string, totalCents int64) error {
	input := &domain.AuditLogInput{
		TenantID:     tenantID,
		ActorID:      actorID,
		ActorEmail:   actorEmail,
		ActorType:    "user",
		Action:       domain.AuditActionOrderPlaced,
		ResourceType: domain.AuditResourceOrder,
		ResourceID:   &orderID,
		ResourceName: orderNumber,
		Description:  fmt.Sprintf("Order %s was placed", orderNumber),
		Metadata:     map[string]any{"totalCents": totalCents},
	}
	_, err := s.auditRepo.CreateAuditLog(ctx, input)
	return err
}

func (s *AuditService) LogReturnResolved(ctx context.Context, tenantID uuid.UUID, actorID *uuid.UUID, actorEmail string, returnID uuid.UUID, orderNumber string, status domain.ReturnStatus) error {
	input := &domain.AuditLogInput{
		TenantID:     tenantID,
		ActorID:      actorID,
		ActorEmail:   actorEmail,
		ActorType:    "user",
		Action:       domain.AuditActionReturnResolved,
		ResourceType: domain.AuditResourceReturn,
		ResourceID:   &returnID,
		ResourceName: orderNumber,
		Description:  fmt.Sprintf("Return for order %s was %s", orderNumber, status),
		Metadata:     map[string]any{"status": status},
	}
	_, err := s.auditRepo.CreateAuditLog(ctx, input)
	return err
}

func (s *AuditService) LogReviewModerated(ctx context.Context, tenantID uuid.UUID, actorID *uuid.UUID, actorEmail string, reviewID uuid.UUID, status domain.ReviewStatus) error {
	input := &domain.AuditLogInput{
		TenantID:     tenantID,
		ActorID:      actorID,
		ActorEmail:   actorEmail,
		ActorType:    "user",
		Action:       domain.AuditActionReviewModerated,
		ResourceType: domain.AuditResourceReview,
		ResourceID:   &reviewID,
		Description:  fmt.Sprintf("Review was %s", status),
		Metadata:     map[string]any{"status": status},
	}
	_, err := s.auditRepo.CreateAuditLog(ctx, input)
	return err
}

// GetActivityTimeline returns recent activity for a resource
func (s *AuditService) GetActivityTimeline(ctx context.Context, tenantID uuid.UUID, resourceType *domain.AuditResourceType, resourceID *uuid.UUID, limit int) ([]domain.AuditLog, error) {
	filter := &domain.AuditLogFilter{
		TenantID:     &tenantID,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Limit:        limit,
	}

	result, err := s.auditRepo.ListAuditLogs(ctx, filter)
	if err != nil {
		return nil, err
	}

	return result.Data, nil
}

// GetSecurityEvents returns security-related audit events
func (s *AuditService) GetSecurityEvents(ctx context.Context, tenantID uuid.UUID, since time.Time, limit int) ([]domain.AuditLog, error) {
	securityActions := []domain.AuditAction{
		domain.AuditActionLogin,
		domain.AuditActionLogout,
		domain.AuditActionLoginFailed,
		domain.AuditActionAPIKeyUsed,
		domain.AuditActionAPIKeyCreated,
		domain.AuditActionAPIKeyRevoked,
		domain.AuditActionMemberRoleChanged,
		domain.AuditActionMemberRemoved,
		domain.AuditActionUserInvited,
	}

	filter := &domain.AuditLogFilter{
		TenantID:  &tenantID,
		Actions:   securityActions,
		StartTime: &since,
		Limit:     limit,
	}

	result, err := s.auditRepo.ListAuditLogs(ctx, filter)
	if err != nil {
		return nil, err
	}

	return result.Data, nil
}

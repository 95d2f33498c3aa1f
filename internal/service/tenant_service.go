package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/printforge/printforge/api/internal/domain"
	apperrors "github.com/printforge/printforge/api/internal/pkg/errors"
	"github.com/printforge/printforge/api/internal/validator"
)

// TenantRepository defines tenant repository operations
type TenantRepository interface {
	Create(ctx context.Context, tenant *domain.Tenant) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Tenant, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Tenant, error)
	Update(ctx context.Context, tenant *domain.Tenant) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByUserID(ctx context.Context, userID uuid.UUID) ([]domain.Tenant, error)
	AddMember(ctx context.Context, member *domain.TenantMember) error
	GetMember(ctx context.Context, tenantID, userID uuid.UUID) (*domain.TenantMember, error)
	ListMembers(ctx context.Context, tenantID uuid.UUID) ([]domain.TenantMember, error)
	RemoveMember(ctx context.Context, tenantID, userID uuid.UUID) error
	UpdateMemberRole(ctx context.Context, tenantID, userID uuid.UUID, role domain.TenantRole) error
	CountOwners(ctx context.Context, tenantID uuid.UUID) (int64, error)
	CreateInvitation(ctx context.Context, invitation *domain.TenantInvitation) error
	GetInvitationByToken(ctx context.Context, token string) (*domain.TenantInvitation, error)
	AcceptInvitation(ctx context.Context, token string) error
	ListPendingInvitations(ctx context.Context, tenantID uuid.UUID) ([]domain.TenantInvitation, error)
	DeleteExpiredInvitations(ctx context.Context) (int64, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	GetSettings(ctx context.Context, tenantID uuid.UUID) (*domain.TenantSettings, error)
	CreateSettings(ctx context.Context, settings *domain.TenantSettings) error
	UpdateSettings(ctx context.Context, settings *domain.TenantSettings) error
	ListTenantIDs(ctx context.Context) ([]uuid.UUID, error)
}

// TenantService handles print shop tenant operations
type TenantService struct {
	tenantRepo   TenantRepository
	userRepo     UserRepository
	customerRepo CustomerRepository
	productRepo  ProductRepository
	orderRepo    OrderRepository
	printJobRepo PrintJobRepository
	audit        *AuditService
}

// NewTenantService creates a new tenant service
func NewTenantService(
	tenantRepo TenantRepository,
	userRepo UserRepository,
	customerRepo CustomerRepository,
	productRepo ProductRepository,
	orderRepo OrderRepository,
	printJobRepo PrintJobRepository,
) *TenantService {
	return &TenantService{
		tenantRepo:   tenantRepo,
		userRepo:     userRepo,
		customerRepo: customerRepo,
		productRepo:  productRepo,
		orderRepo:    orderRepo,
		printJobRepo: printJobRepo,
	}
}

// SetAuditService sets the audit service for tenant operations
func (s *TenantService) SetAuditService(audit *AuditService) {
	s.audit = audit
}

// Create creates a new tenant with the creator as owner and default settings
func (s *TenantService) Create(ctx context.Context, input *domain.TenantInput, ownerID uuid.UUID) (*domain.Tenant, error) {
	if err := validator.Validate(input); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	slug := input.Slug
	if slug == "" {
		slug = domain.GenerateSlug(input.Name)
	}

	exists, err := s.tenantRepo.SlugExists(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("failed to check slug: %w", err)
	}
	if exists {
		if input.Slug != "" {
			return nil, apperrors.Conflict("slug already in use")
		}
		// Generated slug collided, make it unique
		slug = fmt.Sprintf("%s-%s", slug, uuid.New().String()[:8])
	}

	plan := input.Plan
	if plan == "" {
		plan = domain.TenantPlanFree
	}

	now := time.Now()
	tenant := &domain.Tenant{
		ID:        uuid.New(),
		Name:      input.Name,
		Slug:      slug,
		Plan:      plan,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.tenantRepo.Create(ctx, tenant); err != nil {
		return nil, fmt.Errorf("failed to create tenant: %w", err)
	}

	member := &domain.TenantMember{
		ID:        uuid.New(),
		TenantID:  tenant.ID,
		UserID:    ownerID,
		Role:      domain.TenantRoleOwner,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.tenantRepo.AddMember(ctx, member); err != nil {
		return nil, fmt.Errorf("failed to add owner: %w", err)
	}

	settings := domain.DefaultTenantSettings(tenant.ID)
	settings.ID = uuid.New()
	settings.CreatedAt = now
	settings.UpdatedAt = now

	if err := s.tenantRepo.CreateSettings(ctx, settings); err != nil {
		return nil, fmt.Errorf("failed to create settings: %w", err)
	}

	tenant.Settings = settings
	return tenant, nil
}

// Get retrieves a tenant by ID
func (s *TenantService) Get(ctx context.Context, id uuid.UUID) (*domain.Tenant, error) {
	tenant, err := s.tenantRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	settings, err := s.GetSettings(ctx, id)
	if err == nil {
		tenant.Settings = settings
	}

	return tenant, nil
}

// GetBySlug retrieves a tenant by slug
func (s *TenantService) GetBySlug(ctx context.Context, slug string) (*domain.Tenant, error) {
	return s.tenantRepo.GetBySlug(ctx, slug)
}

// Update updates a tenant
func (s *TenantService) Update(ctx context.Context, id uuid.UUID, input *domain.TenantUpdateInput) (*domain.Tenant, error) {
	if err := validator.Validate(input); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	tenant, err := s.tenantRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		tenant.Name = *input.Name
	}
	if input.Plan != nil {
		tenant.Plan = *input.Plan
	}
	if input.Suspended != nil {
		tenant.Suspended = *input.Suspended
	}
	tenant.UpdatedAt = time.Now()

	if err := s.tenantRepo.Update(ctx, tenant); err != nil {
		return nil, fmt.Errorf("failed to update tenant: %w", err)
	}

	return tenant, nil
}

// Delete deletes a tenant and all its data
func (s *TenantService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.tenantRepo.Delete(ctx, id)
}

// ListByUser retrieves tenants a user belongs to
func (s *TenantService) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Tenant, error) {
	return s.tenantRepo.ListByUserID(ctx, userID)
}

// ListMembers retrieves the members of a tenant
func (s *TenantService) ListMembers(ctx context.Context, tenantID uuid.UUID) ([]domain.TenantMember, error) {
	return s.tenantRepo.ListMembers(ctx, tenantID)
}

// GetMember retrieves a member by tenant and user
func (s *TenantService) GetMember(ctx context.Context, tenantID, userID uuid.UUID) (*domain.TenantMember, error) {
	return s.tenantRepo.GetMember(ctx, tenantID, userID)
}

// AddMember adds a user to a tenant
func (s *TenantService) AddMember(ctx context.Context, tenantID uuid.UUID, input *domain.TenantMemberInput) (*domain.TenantMember, error) {
	if err := validator.Validate(input); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	if _, err := s.userRepo.GetByID(ctx, input.UserID); err != nil {
		return nil, err
	}

	now := time.Now()
	member := &domain.TenantMember{
		ID:        uuid.New(),
		TenantID:  tenantID,
		UserID:    input.UserID,
		Role:      input.Role,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.tenantRepo.AddMember(ctx, member); err != nil {
		return nil, err
	}

	return member, nil
}

// UpdateMemberRole changes a member's role. The last owner cannot be demoted.
func (s *TenantService) UpdateMemberRole(ctx context.Context, tenantID, userID uuid.UUID, role domain.TenantRole, actorID uuid.UUID, actorEmail string) error {
	member, err := s.tenantRepo.GetMember(ctx, tenantID, userID)
	if err != nil {
		return err
	}

	if member.Role == domain.TenantRoleOwner && role != domain.TenantRoleOwner {
		owners, err := s.tenantRepo.CountOwners(ctx, tenantID)
		if err != nil {
			return fmt.Errorf("failed to count owners: %w", err)
		}
		if owners <= 1 {
			return apperrors.Conflict("cannot demote the last owner")
		}
	}

	if err := s.tenantRepo.UpdateMemberRole(ctx, tenantID, userID, role); err != nil {
		return err
	}

	if s.audit != nil {
		oldRole := member.Role
		go func() {
			_ = s.audit.LogMemberRoleChanged(context.Background(), tenantID, actorID, actorEmail, userID, oldRole, role)
		}()
	}

	return nil
}

// RemoveMember removes a user from a tenant. The last owner cannot be removed.
func (s *TenantService) RemoveMember(ctx context.Context, tenantID, userID uuid.UUID, actorID uuid.UUID, actorEmail string) error {
	member, err := s.tenantRepo.GetMember(ctx, tenantID, userID)
	if err != nil {
		return err
	}

	if member.Role == domain.TenantRoleOwner {
		owners, err := s.tenantRepo.CountOwners(ctx, tenantID)
		if err != nil {
			return fmt.Errorf("failed to count owners: %w", err)
		}
		if owners <= 1 {
			return apperrors.Conflict("cannot remove the last owner")
		}
	}

	if err := s.tenantRepo.RemoveMember(ctx, tenantID, userID); err != nil {
		return err
	}

	if s.audit != nil {
		go func() {
			_ = s.audit.LogMemberRemoved(context.Background(), tenantID, actorID, actorEmail, userID)
		}()
	}

	return nil
}

// InviteUser creates an invitation to join a tenant
func (s *TenantService) InviteUser(ctx context.Context, tenantID uuid.UUID, input *domain.TenantInvitationInput, invitedBy uuid.UUID, inviterEmail string) (*domain.TenantInvitation, error) {
	if err := validator.Validate(input); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	token, err := generateInviteToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	now := time.Now()
	invitation := &domain.TenantInvitation{
		ID:        uuid.New(),
		TenantID:  tenantID,
		Email:     input.Email,
		Role:      input.Role,
		InvitedBy: invitedBy,
		Token:     token,
		ExpiresAt: now.Add(7 * 24 * time.Hour),
		CreatedAt: now,
	}

	if err := s.tenantRepo.CreateInvitation(ctx, invitation); err != nil {
		return nil, err
	}

	if s.audit != nil {
		go func() {
			_ = s.audit.LogUserInvited(context.Background(), tenantID, invitedBy, inviterEmail, input.Email, input.Role)
		}()
	}

	return invitation, nil
}

// AcceptInvitation redeems an invitation token and adds the user as a member
func (s *TenantService) AcceptInvitation(ctx context.Context, token string, userID uuid.UUID) (*domain.Tenant, error) {
	invitation, err := s.tenantRepo.GetInvitationByToken(ctx, token)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.NotFound("invitation")
		}
		return nil, err
	}

	if invitation.AcceptedAt != nil {
		return nil, apperrors.Conflict("invitation already accepted")
	}
	if time.Now().After(invitation.ExpiresAt) {
		return nil, apperrors.Validation("invitation expired")
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(user.Email, invitation.Email) {
		return nil, apperrors.Forbidden("invitation was issued to a different email")
	}

	now := time.Now()
	member := &domain.TenantMember{
		ID:        uuid.New(),
		TenantID:  invitation.TenantID,
		UserID:    userID,
		Role:      invitation.Role,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.tenantRepo.AddMember(ctx, member); err != nil {
		return nil, err
	}

	if err := s.tenantRepo.AcceptInvitation(ctx, token); err != nil {
		return nil, err
	}

	return s.tenantRepo.GetByID(ctx, invitation.TenantID)
}

// ListPendingInvitations lists open invitations for a tenant
func (s *TenantService) ListPendingInvitations(ctx context.Context, tenantID uuid.UUID) ([]domain.TenantInvitation, error) {
	return s.tenantRepo.ListPendingInvitations(ctx, tenantID)
}

// PurgeExpiredInvitations removes invitations that lapsed without being
// accepted, across all tenants. Returns the number removed.
func (s *TenantService) PurgeExpiredInvitations(ctx context.Context) (int64, error) {
	return s.tenantRepo.DeleteExpiredInvitations(ctx)
}

// ListTenantIDs returns every non-suspended tenant, used by background workers
// that sweep tenant by tenant
func (s *TenantService) ListTenantIDs(ctx context.Context) ([]uuid.UUID, error) {
	return s.tenantRepo.ListTenantIDs(ctx)
}

// GetSettings retrieves tenant settings, falling back to defaults when none were saved
func (s *TenantService) GetSettings(ctx context.Context, tenantID uuid.UUID) (*domain.TenantSettings, error) {
	settings, err := s.tenantRepo.GetSettings(ctx, tenantID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return domain.DefaultTenantSettings(tenantID), nil
		}
		return nil, err
	}

	return settings, nil
}

// UpdateSettings applies a partial settings update
func (s *TenantService) UpdateSettings(ctx context.Context, tenantID uuid.UUID, input *domain.TenantSettingsInput, actorID uuid.UUID, actorEmail string) (*domain.TenantSettings, error) {
	settings, err := s.tenantRepo.GetSettings(ctx, tenantID)
	created := false
	if err != nil {
		if !apperrors.IsNotFound(err) {
			return nil, err
		}
		settings = domain.DefaultTenantSettings(tenantID)
		settings.ID = uuid.New()
		settings.CreatedAt = time.Now()
		settings.UpdatedAt = settings.CreatedAt
		created = true
	}

	var changed []string
	if input.Currency != nil {
		settings.Currency = strings.ToUpper(*input.Currency)
		changed = append(changed, "currency")
	}
	if input.Timezone != nil {
		settings.Timezone = *input.Timezone
		changed = append(changed, "timezone")
	}
	if input.OrderNumberPrefix != nil {
		settings.OrderNumberPrefix = strings.ToUpper(*input.OrderNumberPrefix)
		changed = append(changed, "orderNumberPrefix")
	}
	if input.PrintQueueCapacity != nil {
		settings.PrintQueueCapacity = *input.PrintQueueCapacity
		changed = append(changed, "printQueueCapacity")
	}
	if input.AutoAssignJobs != nil {
		settings.AutoAssignJobs = *input.AutoAssignJobs
		changed = append(changed, "autoAssignJobs")
	}
	if input.LowStockThresholdGrams != nil {
		settings.LowStockThresholdGrams = *input.LowStockThresholdGrams
		changed = append(changed, "lowStockThresholdGrams")
	}
	if input.SupportEmail != nil {
		settings.SupportEmail = *input.SupportEmail
		changed = append(changed, "supportEmail")
	}
	if input.NotifyWebhookURL != nil {
		settings.NotifyWebhookURL = *input.NotifyWebhookURL
		changed = append(changed, "notifyWebhookUrl")
	}
	if input.NotifyWebhookSecret != nil {
		settings.NotifyWebhookSecret = *input.NotifyWebhookSecret
		changed = append(changed, "notifyWebhookSecret")
	}

	if created {
		err = s.tenantRepo.CreateSettings(ctx, settings)
	} else {
		settings.UpdatedAt = time.Now()
		err = s.tenantRepo.UpdateSettings(ctx, settings)
	}
	if err != nil {
		return nil, err
	}

	if s.audit != nil && len(changed) > 0 {
		description := fmt.Sprintf("Updated settings: %s", strings.Join(changed, ", "))
		go func() {
			_ = s.audit.LogAction(context.Background(), tenantID, &actorID, actorEmail, "user",
				domain.AuditActionSettingsChanged, domain.AuditResourceSettings, &tenantID, "settings", description)
		}()
	}

	return settings, nil
}

// GetStats aggregates headline numbers for the tenant dashboard
func (s *TenantService) GetStats(ctx context.Context, tenantID uuid.UUID) (*domain.TenantStats, error) {
	customers, err := s.customerRepo.CountByTenantID(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to count customers: %w", err)
	}

	products, err := s.productRepo.CountByTenantID(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}

	orders, err := s.orderRepo.CountByTenantID(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to count orders: %w", err)
	}

	activeJobs, err := s.printJobRepo.CountActive(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to count active jobs: %w", err)
	}

	revenue, err := s.orderRepo.SumRevenueCents(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to sum revenue: %w", err)
	}

	return &domain.TenantStats{
		TotalCustomers: customers,
		TotalProducts:  products,
		TotalOrders:    orders,
		ActiveJobs:     activeJobs,
		RevenueCents:   revenue,
	}, nil
}

// generateInviteToken generates a random invitation token
func generateInviteToken() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(bytes), nil
}

package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/printforge/printforge/api/internal/domain"
	"github.com/printforge/printforge/api/internal/pkg/database"
	apperrors "github.com/printforge/printforge/api/internal/pkg/errors"
)

// TenantRepository handles tenant data operations in PostgreSQL
type TenantRepository struct {
	db *database.PostgresDB
}

// NewTenantRepository creates a new tenant repository
func NewTenantRepository(db *database.PostgresDB) *TenantRepository {
	return &TenantRepository{db: db}
}

// Create creates a new tenant
func (r *TenantRepository) Create(ctx context.Context, tenant *domain.Tenant) error {
	query := `
		INSERT INTO tenants (id, name, slug, plan, suspended, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.Pool.Exec(ctx, query,
		tenant.ID,
		tenant.Name,
		tenant.Slug,
		tenant.Plan,
		tenant.Suspended,
		tenant.CreatedAt,
		tenant.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create tenant: %w", err)
	}

	return nil
}

// GetByID retrieves a tenant by ID
func (r *TenantRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Tenant, error) {
	query := `
		SELECT id, name, slug, plan, suspended, created_at, updated_at
		FROM tenants
		WHERE id = $1
	`

	var tenant domain.Tenant
	err := r.db.Pool.QueryRow(ctx, query, id).Scan(
		&tenant.ID,
		&tenant.Name,
		&tenant.Slug,
		&tenant.Plan,
		&tenant.Suspended,
		&tenant.CreatedAt,
		&tenant.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("tenant")
		}
		return nil, fmt.Errorf("failed to get tenant: %w", err)
	}

	return &tenant, nil
}

// GetBySlug retrieves a tenant by slug
func (r *TenantRepository) GetBySlug(ctx context.Context, slug string) (*domain.Tenant, error) {
	query := `
		SELECT id, name, slug, plan, suspended, created_at, updated_at
		FROM tenants
		WHERE slug = $1
	`

	var tenant domain.Tenant
	err := r.db.Pool.QueryRow(ctx, query, slug).Scan(
		&tenant.ID,
		&tenant.Name,
		&tenant.Slug,
		&tenant.Plan,
		&tenant.Suspended,
		&tenant.CreatedAt,
		&tenant.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("tenant")
		}
		return nil, fmt.Errorf("failed to get tenant: %w", err)
	}

	return &tenant, nil
}

// Update updates a tenant
func (r *TenantRepository) Update(ctx context.Context, tenant *domain.Tenant) error {
	query := `
		UPDATE tenants
		SET name = $2, plan = $3, suspended = $4, updated_at = NOW()
		WHERE id = $1
	`

	_, err := r.db.Pool.Exec(ctx, query, tenant.ID, tenant.Name, tenant.Plan, tenant.Suspended)
	if err != nil {
		return fmt.Errorf("failed to update tenant: %w", err)
	}

	return nil
}

// Delete deletes a tenant
func (r *TenantRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM tenants WHERE id = $1`

	_, err := r.db.Pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete tenant: %w", err)
	}

	return nil
}

// ListByUserID retrieves tenants for a user
func (r *TenantRepository) ListByUserID(ctx context.Context, userID uuid.UUID) ([]domain.Tenant, error) {
	query := `
		SELECT t.id, t.name, t.slug, t.plan, t.suspended, t.created_at, t.updated_at
		FROM tenants t
		JOIN tenant_members tm ON t.id = tm.tenant_id
		WHERE tm.user_id = $1
		ORDER BY t.name
	`

	rows, err := r.db.Pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tenants: %w", err)
	}
	defer rows.Close()

	var tenants []domain.Tenant
	for rows.Next() {
		var tenant domain.Tenant
		if err := rows.Scan(
			&tenant.ID,
			&tenant.Name,
			&tenant.Slug,
			&tenant.Plan,
			&tenant.Suspended,
			&tenant.CreatedAt,
			&tenant.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan tenant: %w", err)
		}
		tenants = append(tenants, tenant)
	}

	return tenants, nil
}

// AddMember adds a member to a tenant
func (r *TenantRepository) AddMember(ctx context.Context, member *domain.TenantMember) error {
	query := `
		INSERT INTO tenant_members (id, tenant_id, user_id, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (tenant_id, user_id)
		DO UPDATE SET role = $4, updated_at = NOW()
	`

	_, err := r.db.Pool.Exec(ctx, query,
		member.ID,
		member.TenantID,
		member.UserID,
		member.Role,
		member.CreatedAt,
		member.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to add member: %w", err)
	}

	return nil
}

// GetMember retrieves a member by tenant and user
func (r *TenantRepository) GetMember(ctx context.Context, tenantID, userID uuid.UUID) (*domain.TenantMember, error) {
	query := `
		SELECT id, tenant_id, user_id, role, created_at, updated_at
		FROM tenant_members
		WHERE tenant_id = $1 AND user_id = $2
	`

	var member domain.TenantMember
	err := r.db.Pool.QueryRow(ctx, query, tenantID, userID).Scan(
		&member.ID,
		&member.TenantID,
		&member.UserID,
		&member.Role,
		&member.CreatedAt,
		&member.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("member")
		}
		return nil, fmt.Errorf("failed to get member: %w", err)
	}

	return &member, nil
}

// ListMembers retrieves members of a tenant
func (r *TenantRepository) ListMembers(ctx context.Context, tenantID uuid.UUID) ([]domain.TenantMember, error) {
	query := `
		SELECT tm.id, tm.tenant_id, tm.user_id, tm.role, tm.created_at, tm.updated_at,
			   u.id, u.email, u.name, u.avatar_url
		FROM tenant_members tm
		JOIN users u ON tm.user_id = u.id
		WHERE tm.tenant_id = $1
		ORDER BY tm.role, u.name
	`

	rows, err := r.db.Pool.Query(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()

	var members []domain.TenantMember
	for rows.Next() {
		var member domain.TenantMember
		var user domain.User
		if err := rows.Scan(
			&member.ID,
			&member.TenantID,
			&member.UserID,
			&member.Role,
			&member.CreatedAt,
			&member.UpdatedAt,
			&user.ID,
			&user.Email,
			&user.Name,
			&user.AvatarURL,
		); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		member.User = &user
		members = append(members, member)
	}

	return members, nil
}

// RemoveMember removes a member from a tenant
func (r *TenantRepository) RemoveMember(ctx context.Context, tenantID, userID uuid.UUID) error {
	query := `DELETE FROM tenant_members WHERE tenant_id = $1 AND user_id = $2`

	_, err := r.db.Pool.Exec(ctx, query, tenantID, userID)
	if err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}

	return nil
}

// UpdateMemberRole updates a member's role
func (r *TenantRepository) UpdateMemberRole(ctx context.Context, tenantID, userID uuid.UUID, role domain.TenantRole) error {
	query := `
		UPDATE tenant_members
		SET role = $3, updated_at = NOW()
		WHERE tenant_id = $1 AND user_id = $2
	`

	_, err := r.db.Pool.Exec(ctx, query, tenantID, userID, role)
	if err != nil {
		return fmt.Errorf("failed to update member role: %w", err)
	}

	return nil
}

// CountOwners counts the owners of a tenant
func (r *TenantRepository) CountOwners(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	query := `SELECT COUNT(*) FROM tenant_members WHERE tenant_id = $1 AND role = 'owner'`

	var count int64
	err := r.db.Pool.QueryRow(ctx, query, tenantID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count owners: %w", err)
	}

	return count, nil
}

// CreateInvitation creates a tenant invitation
func (r *TenantRepository) CreateInvitation(ctx context.Context, invitation *domain.TenantInvitation) error {
	query := `
		INSERT INTO tenant_invitations (id, tenant_id, email, role, invited_by, token, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.Pool.Exec(ctx, query,
		invitation.ID,
		invitation.TenantID,
		invitation.Email,
		invitation.Role,
		invitation.InvitedBy,
		invitation.Token,
		invitation.ExpiresAt,
		invitation.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create invitation: %w", err)
	}

	return nil
}

// GetInvitationByToken retrieves a pending invitation by token
func (r *TenantRepository) GetInvitationByToken(ctx context.Context, token string) (*domain.TenantInvitation, error) {
	query := `
		SELECT id, tenant_id, email, role, invited_by, token, expires_at, accepted_at, created_at
		FROM tenant_invitations
		WHERE token = $1 AND expires_at > NOW() AND accepted_at IS NULL
	`

	var invitation domain.TenantInvitation
	err := r.db.Pool.QueryRow(ctx, query, token).Scan(
		&invitation.ID,
		&invitation.TenantID,
		&invitation.Email,
		&invitation.Role,
		&invitation.InvitedBy,
		&invitation.Token,
		&invitation.ExpiresAt,
		&invitation.AcceptedAt,
		&invitation.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("invitation")
		}
		return nil, fmt.Errorf("failed to get invitation: %w", err)
	}

	return &invitation, nil
}

// AcceptInvitation marks an invitation as accepted
func (r *TenantRepository) AcceptInvitation(ctx context.Context, token string) error {
	query := `
		UPDATE tenant_invitations
		SET accepted_at = NOW()
		WHERE token = $1
	`

	_, err := r.db.Pool.Exec(ctx, query, token)
	if err != nil {
		return fmt.Errorf("failed to accept invitation: %w", err)
	}

	return nil
}

// ListPendingInvitations retrieves pending invitations for a tenant
func (r *TenantRepository) ListPendingInvitations(ctx context.Context, tenantID uuid.UUID) ([]domain.TenantInvitation, error) {
	query := `
		SELECT id, tenant_id, email, role, invited_by, token, expires_at, accepted_at, created_at
		FROM tenant_invitations
		WHERE tenant_id = $1 AND expires_at > NOW() AND accepted_at IS NULL
		ORDER BY created_at DESC
	`

	rows, err := r.db.Pool.Query(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list invitations: %w", err)
	}
	defer rows.Close()

	var invitations []domain.TenantInvitation
	for rows.Next() {
		var inv domain.TenantInvitation
		if err := rows.Scan(
			&inv.ID,
			&inv.TenantID,
			&inv.Email,
			&inv.Role,
			&inv.InvitedBy,
			&inv.Token,
			&inv.ExpiresAt,
			&inv.AcceptedAt,
			&inv.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan invitation: %w", err)
		}
		invitations = append(invitations, inv)
	}

	return invitations, nil
}

// SlugExists checks if a slug already exists
func (r *TenantRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM tenants WHERE slug = $1)`

	var exists bool
	err := r.db.Pool.QueryRow(ctx, query, slug).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check slug: %w", err)
	}

	return exists, nil
}

// GetSettings retrieves the settings row for a tenant
func (r *TenantRepository) GetSettings(ctx context.Context, tenantID uuid.UUID) (*domain.TenantSettings, error) {
	query := `
		SELECT id, tenant_id, currency, timezone, order_number_prefix, print_queue_capacity,
			   auto_assign_jobs, low_stock_threshold_grams, support_email,
			   notify_webhook_url, notify_webhook_secret, created_at, updated_at
		FROM tenant_settings
		WHERE tenant_id = $1
	`

	var settings domain.TenantSettings
	err := r.db.Pool.QueryRow(ctx, query, tenantID).Scan(
		&settings.ID,
		&settings.TenantID,
		&settings.Currency,
		&settings.Timezone,
		&settings.OrderNumberPrefix,
		&settings.PrintQueueCapacity,
		&settings.AutoAssignJobs,
		&settings.LowStockThresholdGrams,
		&settings.SupportEmail,
		&settings.NotifyWebhookURL,
		&settings.NotifyWebhookSecret,
		&settings.CreatedAt,
		&settings.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("settings")
		}
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}

	return &settings, nil
}

// CreateSettings inserts the settings row for a tenant
func (r *TenantRepository) CreateSettings(ctx context.Context, settings *domain.TenantSettings) error {
	query := `
		INSERT INTO tenant_settings (id, tenant_id, currency, timezone, order_number_prefix,
			print_queue_capacity, auto_assign_jobs, low_stock_threshold_grams, support_email,
			notify_webhook_url, notify_webhook_secret, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := r.db.Pool.Exec(ctx, query,
		settings.ID,
		settings.TenantID,
		settings.Currency,
		settings.Timezone,
		settings.OrderNumberPrefix,
		settings.PrintQueueCapacity,
		settings.AutoAssignJobs,
		settings.LowStockThresholdGrams,
		settings.SupportEmail,
		settings.NotifyWebhookURL,
		settings.NotifyWebhookSecret,
		settings.CreatedAt,
		settings.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create settings: %w", err)
	}

	return nil
}

// UpdateSettings updates the settings row for a tenant
func (r *TenantRepository) UpdateSettings(ctx context.Context, settings *domain.TenantSettings) error {
	query := `
		UPDATE tenant_settings
		SET currency = $2, timezone = $3, order_number_prefix = $4, print_queue_capacity = $5,
			auto_assign_jobs = $6, low_stock_threshold_grams = $7, support_email = $8,
			notify_webhook_url = $9, notify_webhook_secret = $10, updated_at = NOW()
		WHERE tenant_id = $1
	`

	_, err := r.db.Pool.Exec(ctx, query,
		settings.TenantID,
		settings.Currency,
		settings.Timezone,
		settings.OrderNumberPrefix,
		settings.PrintQueueCapacity,
		settings.AutoAssignJobs,
		settings.LowStockThresholdGrams,
		settings.SupportEmail,
		settings.NotifyWebhookURL,
		settings.NotifyWebhookSecret,
	)
	if err != nil {
		return fmt.Errorf("failed to update settings: %w", err)
	}

	return nil
}

// ListTenantIDs retrieves all non-suspended tenant IDs, used by background workers
func (r *TenantRepository) ListTenantIDs(ctx context.Context) ([]uuid.UUID, error) {
	query := `SELECT id FROM tenants WHERE suspended = false ORDER BY created_at`

	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list tenant ids: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan tenant id: %w", err)
		}
		ids = append(ids, id)
	}

	return ids, nil
}

// DeleteExpiredInvitations removes invitations that lapsed without being accepted
func (r *TenantRepository) DeleteExpiredInvitations(ctx context.Context) (int64, error) {
	query := `DELETE FROM tenant_invitations WHERE accepted_at IS NULL AND expires_at <= NOW()`

	tag, err := r.db.Pool.Exec(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired invitations: %w", err)
	}

	return tag.RowsAffected(), nil
}

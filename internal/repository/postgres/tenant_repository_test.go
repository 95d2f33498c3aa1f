package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/printforge/printforge/api/internal/domain"
	apperrors "github.com/printforge/printforge/api/internal/pkg/errors"
)

func TestTenantRepository_Create(t *testing.T) {
	db := getTestDB(t)
	if db == nil {
		return
	}
	defer db.Close()

	repo := NewTenantRepository(db)
	ctx := context.Background()
	slug := "tenant-create"

	defer cleanupTenants(t, db, slug)
	tenant := seedTenant(t, db, slug)

	// Verify by fetching
	fetched, err := repo.GetByID(ctx, tenant.ID)
	require.NoError(t, err)
	assert.Equal(t, tenant.ID, fetched.ID)
	assert.Equal(t, tenant.Name, fetched.Name)
	assert.Equal(t, tenant.Slug, fetched.Slug)
	assert.Equal(t, domain.TenantPlanFree, fetched.Plan)
	assert.False(t, fetched.Suspended)
}

func TestTenantRepository_GetBySlug(t *testing.T) {
	db := getTestDB(t)
	if db == nil {
		return
	}
	defer db.Close()

	repo := NewTenantRepository(db)
	ctx := context.Background()
	slug := "tenant-getbyslug"

	defer cleanupTenants(t, db, slug)
	tenant := seedTenant(t, db, slug)

	t.Run("existing slug", func(t *testing.T) {
		fetched, err := repo.GetBySlug(ctx, slug)
		require.NoError(t, err)
		assert.Equal(t, tenant.ID, fetched.ID)
	})

	t.Run("non-existent slug", func(t *testing.T) {
		_, err := repo.GetBySlug(ctx, "nonexistent-slug")
		assert.Error(t, err)
		assert.True(t, apperrors.IsNotFound(err))
	})

	t.Run("slug exists", func(t *testing.T) {
		exists, err := repo.SlugExists(ctx, slug)
		require.NoError(t, err)
		assert.True(t, exists)

		exists, err = repo.SlugExists(ctx, "nonexistent-slug")
		require.NoError(t, err)
		assert.False(t, exists)
	})
}

func TestTenantRepository_Update(t *testing.T) {
	db := getTestDB(t)
	if db == nil {
		return
	}
	defer db.Close()

	repo := NewTenantRepository(db)
	ctx := context.Background()
	slug := "tenant-update"

	defer cleanupTenants(t, db, slug)
	tenant := seedTenant(t, db, slug)

	tenant.Name = "Renamed Shop"
	tenant.Plan = domain.TenantPlanBusiness
	tenant.Suspended = true
	err := repo.Update(ctx, tenant)
	require.NoError(t, err)

	fetched, err := repo.GetByID(ctx, tenant.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed Shop", fetched.Name)
	assert.Equal(t, domain.TenantPlanBusiness, fetched.Plan)
	assert.True(t, fetched.Suspended)
}

func TestTenantRepository_Delete(t *testing.T) {
	db := getTestDB(t)
	if db == nil {
		return
	}
	defer db.Close()

	repo := NewTenantRepository(db)
	ctx := context.Background()
	slug := "tenant-delete"

	tenant := seedTenant(t, db, slug)

	err := repo.Delete(ctx, tenant.ID)
	require.NoError(t, err)

	_, err = repo.GetByID(ctx, tenant.ID)
	assert.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestTenantRepository_Members(t *testing.T) {
	db := getTestDB(t)
	if db == nil {
		return
	}
	defer db.Close()

	repo := NewTenantRepository(db)
	userRepo := NewUserRepository(db)
	ctx := context.Background()
	slug := "tenant-members"
	ownerEmail := "test-member-owner@example.com"
	staffEmail := "test-member-staff@example.com"

	cleanupUsers(t, db, ownerEmail, staffEmail)
	defer cleanupUsers(t, db, ownerEmail, staffEmail)
	defer cleanupTenants(t, db, slug)

	tenant := seedTenant(t, db, slug)

	owner := createTestUser(ownerEmail)
	require.NoError(t, userRepo.Create(ctx, owner))
	staff := createTestUser(staffEmail)
	require.NoError(t, userRepo.Create(ctx, staff))

	now := time.Now()
	require.NoError(t, repo.AddMember(ctx, &domain.TenantMember{
		ID:        uuid.New(),
		TenantID:  tenant.ID,
		UserID:    owner.ID,
		Role:      domain.TenantRoleOwner,
		CreatedAt: now,
		UpdatedAt: now,
	}))
	require.NoError(t, repo.AddMember(ctx, &domain.TenantMember{
		ID:        uuid.New(),
		TenantID:  tenant.ID,
		UserID:    staff.ID,
		Role:      domain.TenantRoleStaff,
		CreatedAt: now,
		UpdatedAt: now,
	}))

	t.Run("get member", func(t *testing.T) {
		member, err := repo.GetMember(ctx, tenant.ID, owner.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.TenantRoleOwner, member.Role)
	})

	t.Run("non-member", func(t *testing.T) {
		_, err := repo.GetMember(ctx, tenant.ID, uuid.New())
		assert.Error(t, err)
		assert.True(t, apperrors.IsNotFound(err))
	})

	t.Run("list members includes user info", func(t *testing.T) {
		members, err := repo.ListMembers(ctx, tenant.ID)
		require.NoError(t, err)
		require.Len(t, members, 2)
		for _, m := range members {
			require.NotNil(t, m.User)
			assert.NotEmpty(t, m.User.Email)
		}
	})

	t.Run("add member upserts role", func(t *testing.T) {
		err := repo.AddMember(ctx, &domain.TenantMember{
			ID:        uuid.New(),
			TenantID:  tenant.ID,
			UserID:    staff.ID,
			Role:      domain.TenantRoleAdmin,
			CreatedAt: now,
			UpdatedAt: now,
		})
		require.NoError(t, err)

		member, err := repo.GetMember(ctx, tenant.ID, staff.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.TenantRoleAdmin, member.Role)
	})

	t.Run("update member role", func(t *testing.T) {
		err := repo.UpdateMemberRole(ctx, tenant.ID, staff.ID, domain.TenantRoleViewer)
		require.NoError(t, err)

		member, err := repo.GetMember(ctx, tenant.ID, staff.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.TenantRoleViewer, member.Role)
	})

	t.Run("count owners", func(t *testing.T) {
		count, err := repo.CountOwners(ctx, tenant.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})

	t.Run("list by user", func(t *testing.T) {
		tenants, err := repo.ListByUserID(ctx, owner.ID)
		require.NoError(t, err)
		require.Len(t, tenants, 1)
		assert.Equal(t, tenant.ID, tenants[0].ID)
	})

	t.Run("remove member", func(t *testing.T) {
		err := repo.RemoveMember(ctx, tenant.ID, staff.ID)
		require.NoError(t, err)

		_, err = repo.GetMember(ctx, tenant.ID, staff.ID)
		assert.Error(t, err)
		assert.True(t, apperrors.IsNotFound(err))
	})
}

func TestTenantRepository_Invitations(t *testing.T) {
	db := getTestDB(t)
	if db == nil {
		return
	}
	defer db.Close()

	repo := NewTenantRepository(db)
	userRepo := NewUserRepository(db)
	ctx := context.Background()
	slug := "tenant-invites"
	inviterEmail := "test-inviter@example.com"

	cleanupUsers(t, db, inviterEmail)
	defer cleanupUsers(t, db, inviterEmail)
	defer cleanupTenants(t, db, slug)

	tenant := seedTenant(t, db, slug)

	inviter := createTestUser(inviterEmail)
	require.NoError(t, userRepo.Create(ctx, inviter))

	invitation := &domain.TenantInvitation{
		ID:        uuid.New(),
		TenantID:  tenant.ID,
		Email:     "invited@example.com",
		Role:      domain.TenantRoleStaff,
		InvitedBy: inviter.ID,
		Token:     "test-invite-token-" + uuid.New().String(),
		ExpiresAt: time.Now().Add(72 * time.Hour),
		CreatedAt: time.Now(),
	}
	require.NoError(t, repo.CreateInvitation(ctx, invitation))

	t.Run("get by token", func(t *testing.T) {
		fetched, err := repo.GetInvitationByToken(ctx, invitation.Token)
		require.NoError(t, err)
		assert.Equal(t, invitation.ID, fetched.ID)
		assert.Equal(t, invitation.Email, fetched.Email)
	})

	t.Run("list pending", func(t *testing.T) {
		pending, err := repo.ListPendingInvitations(ctx, tenant.ID)
		require.NoError(t, err)
		assert.Len(t, pending, 1)
	})

	t.Run("expired token not found", func(t *testing.T) {
		expired := &domain.TenantInvitation{
			ID:        uuid.New(),
			TenantID:  tenant.ID,
			Email:     "late@example.com",
			Role:      domain.TenantRoleStaff,
			InvitedBy: inviter.ID,
			Token:     "test-expired-token-" + uuid.New().String(),
			ExpiresAt: time.Now().Add(-time.Hour),
			CreatedAt: time.Now(),
		}
		require.NoError(t, repo.CreateInvitation(ctx, expired))

		_, err := repo.GetInvitationByToken(ctx, expired.Token)
		assert.Error(t, err)
		assert.True(t, apperrors.IsNotFound(err))
	})

	t.Run("accept hides invitation", func(t *testing.T) {
		err := repo.AcceptInvitation(ctx, invitation.Token)
		require.NoError(t, err)

		_, err = repo.GetInvitationByToken(ctx, invitation.Token)
		assert.Error(t, err)
		assert.True(t, apperrors.IsNotFound(err))

		pending, err := repo.ListPendingInvitations(ctx, tenant.ID)
		require.NoError(t, err)
		assert.Empty(t, pending)
	})
}

func TestTenantRepository_Settings(t *testing.T) {
	db := getTestDB(t)
	if db == nil {
		return
	}
	defer db.Close()

	repo := NewTenantRepository(db)
	ctx := context.Background()
	slug := "tenant-settings"

	defer cleanupTenants(t, db, slug)
	tenant := seedTenant(t, db, slug)

	t.Run("missing settings", func(t *testing.T) {
		_, err := repo.GetSettings(ctx, tenant.ID)
		assert.Error(t, err)
		assert.True(t, apperrors.IsNotFound(err))
	})

	now := time.Now()
	settings := &domain.TenantSettings{
		ID:                     uuid.New(),
		TenantID:               tenant.ID,
		Currency:               "USD",
		Timezone:               "UTC",
		OrderNumberPrefix:      "PF",
		PrintQueueCapacity:     50,
		AutoAssignJobs:         true,
		LowStockThresholdGrams: 100,
		CreatedAt:              now,
		UpdatedAt:              now,
	}
	require.NoError(t, repo.CreateSettings(ctx, settings))

	t.Run("get settings", func(t *testing.T) {
		fetched, err := repo.GetSettings(ctx, tenant.ID)
		require.NoError(t, err)
		assert.Equal(t, "USD", fetched.Currency)
		assert.Equal(t, "PF", fetched.OrderNumberPrefix)
		assert.Equal(t, 50, fetched.PrintQueueCapacity)
		assert.True(t, fetched.AutoAssignJobs)
	})

	t.Run("update settings", func(t *testing.T) {
		settings.Currency = "EUR"
		settings.LowStockThresholdGrams = 250
		settings.NotifyWebhookURL = "https://hooks.example.com/orders"
		require.NoError(t, repo.UpdateSettings(ctx, settings))

		fetched, err := repo.GetSettings(ctx, tenant.ID)
		require.NoError(t, err)
		assert.Equal(t, "EUR", fetched.Currency)
		assert.Equal(t, 250, fetched.LowStockThresholdGrams)
		assert.Equal(t, "https://hooks.example.com/orders", fetched.NotifyWebhookURL)
	})
}

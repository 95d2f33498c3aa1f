package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/printforge/printforge/api/internal/domain"
	apperrors "github.com/printforge/printforge/api/internal/pkg/errors"
)

func newTenantService(tenantRepo *MockTenantRepository, userRepo *MockUserRepository) *TenantService {
	return NewTenantService(tenantRepo, userRepo,
		new(MockCustomerRepository), new(MockProductRepository),
		new(MockOrderRepository), new(MockPrintJobRepository))
}

func TestTenantService_Create(t *testing.T) {
	t.Run("creates tenant with owner and default settings", func(t *testing.T) {
		tenantRepo := new(MockTenantRepository)
		userRepo := new(MockUserRepository)

		tenantRepo.On("SlugExists", mock.Anything, "prusa-farm-north").Return(false, nil)
		tenantRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Tenant")).Return(nil)
		tenantRepo.On("AddMember", mock.Anything, mock.MatchedBy(func(m *domain.TenantMember) bool {
			return m.Role == domain.TenantRoleOwner
		})).Return(nil)
		tenantRepo.On("CreateSettings", mock.Anything, mock.MatchedBy(func(s *domain.TenantSettings) bool {
			return s.Currency == "USD" && s.OrderNumberPrefix == "PF" && s.PrintQueueCapacity == 100
		})).Return(nil)

		svc := newTenantService(tenantRepo, userRepo)

		ownerID := uuid.New()
		result, err := svc.Create(context.Background(), &domain.TenantInput{
			Name: "Prusa Farm North",
		}, ownerID)

		require.NoError(t, err)
		assert.Equal(t, "Prusa Farm North", result.Name)
		assert.Equal(t, "prusa-farm-north", result.Slug)
		assert.Equal(t, domain.TenantPlanFree, result.Plan)
		assert.NotNil(t, result.Settings)

		tenantRepo.AssertExpectations(t)
	})

	t.Run("rejects duplicate explicit slug", func(t *testing.T) {
		tenantRepo := new(MockTenantRepository)
		userRepo := new(MockUserRepository)

		tenantRepo.On("SlugExists", mock.Anything, "taken").Return(true, nil)

		svc := newTenantService(tenantRepo, userRepo)

		result, err := svc.Create(context.Background(), &domain.TenantInput{
			Name: "Another Shop",
			Slug: "taken",
		}, uuid.New())

		require.Error(t, err)
		assert.Nil(t, result)
		assert.True(t, apperrors.IsConflict(err))
	})

	t.Run("generated slug collision gets a unique suffix", func(t *testing.T) {
		tenantRepo := new(MockTenantRepository)
		userRepo := new(MockUserRepository)

		tenantRepo.On("SlugExists", mock.Anything, "my-shop").Return(true, nil)
		tenantRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Tenant")).Return(nil)
		tenantRepo.On("AddMember", mock.Anything, mock.AnythingOfType("*domain.TenantMember")).Return(nil)
		tenantRepo.On("CreateSettings", mock.Anything, mock.AnythingOfType("*domain.TenantSettings")).Return(nil)

		svc := newTenantService(tenantRepo, userRepo)

		result, err := svc.Create(context.Background(), &domain.TenantInput{
			Name: "My Shop",
		}, uuid.New())

		require.NoError(t, err)
		assert.Len(t, result.Slug, len("my-shop-")+8)
		assert.Equal(t, "my-shop-", result.Slug[:len("my-shop-")])
	})
}

func TestTenantService_Get(t *testing.T) {
	t.Run("returns tenant with saved settings", func(t *testing.T) {
		tenantRepo := new(MockTenantRepository)
		userRepo := new(MockUserRepository)

		tenantID := uuid.New()
		tenant := &domain.Tenant{ID: tenantID, Name: "Shop", Slug: "shop"}
		settings := &domain.TenantSettings{TenantID: tenantID, Currency: "EUR", OrderNumberPrefix: "SH"}

		tenantRepo.On("GetByID", mock.Anything, tenantID).Return(tenant, nil)
		tenantRepo.On("GetSettings", mock.Anything, tenantID).Return(settings, nil)

		svc := newTenantService(tenantRepo, userRepo)

		result, err := svc.Get(context.Background(), tenantID)

		require.NoError(t, err)
		require.NotNil(t, result.Settings)
		assert.Equal(t, "EUR", result.Settings.Currency)
	})

	t.Run("attaches default settings when none saved", func(t *testing.T) {
		tenantRepo := new(MockTenantRepository)
		userRepo := new(MockUserRepository)

		tenantID := uuid.New()
		tenant := &domain.Tenant{ID: tenantID, Name: "Shop", Slug: "shop"}

		tenantRepo.On("GetByID", mock.Anything, tenantID).Return(tenant, nil)
		tenantRepo.On("GetSettings", mock.Anything, tenantID).Return(nil, apperrors.NotFound("settings"))

		svc := newTenantService(tenantRepo, userRepo)

		result, err := svc.Get(context.Background(), tenantID)

		require.NoError(t, err)
		require.NotNil(t, result.Settings)
		assert.Equal(t, "USD", result.Settings.Currency)
		assert.Equal(t, "PF", result.Settings.OrderNumberPrefix)
	})
}

func TestTenantService_Update(t *testing.T) {
	t.Run("updates name and plan", func(t *testing.T) {
		tenantRepo := new(MockTenantRepository)
		userRepo := new(MockUserRepository)

		tenantID := uuid.New()
		tenant := &domain.Tenant{ID: tenantID, Name: "Old Name", Plan: domain.TenantPlanFree}

		tenantRepo.On("GetByID", mock.Anything, tenantID).Return(tenant, nil)
		tenantRepo.On("Update", mock.Anything, mock.AnythingOfType("*domain.Tenant")).Return(nil)

		svc := newTenantService(tenantRepo, userRepo)

		newName := "New Name"
		newPlan := domain.TenantPlanBusiness
		result, err := svc.Update(context.Background(), tenantID, &domain.TenantUpdateInput{
			Name: &newName,
			Plan: &newPlan,
		})

		require.NoError(t, err)
		assert.Equal(t, "New Name", result.Name)
		assert.Equal(t, domain.TenantPlanBusiness, result.Plan)
	})

	t.Run("suspends a tenant", func(t *testing.T) {
		tenantRepo := new(MockTenantRepository)
		userRepo := new(MockUserRepository)

		tenantID := uuid.New()
		tenant := &domain.Tenant{ID: tenantID, Name: "Shop"}

		tenantRepo.On("GetByID", mock.Anything, tenantID).Return(tenant, nil)
		tenantRepo.On("Update", mock.Anything, mock.MatchedBy(func(tn *domain.Tenant) bool {
			return tn.Suspended
		})).Return(nil)

		svc := newTenantService(tenantRepo, userRepo)

		suspended := true
		result, err := svc.Update(context.Background(), tenantID, &domain.TenantUpdateInput{
			Suspended: &suspended,
		})

		require.NoError(t, err)
		assert.True(t, result.Suspended)
	})
}

func TestTenantService_AddMember(t *testing.T) {
	t.Run("adds an existing user as member", func(t *testing.T) {
		tenantRepo := new(MockTenantRepository)
		userRepo := new(MockUserRepository)

		tenantID := uuid.New()
		userID := uuid.New()
		user := &domain.User{ID: userID, Email: "staff@example.com"}

		userRepo.On("GetByID", mock.Anything, userID).Return(user, nil)
		tenantRepo.On("AddMember", mock.Anything, mock.MatchedBy(func(m *domain.TenantMember) bool {
			return m.TenantID == tenantID && m.UserID == userID && m.Role == domain.TenantRoleStaff
		})).Return(nil)

		svc := newTenantService(tenantRepo, userRepo)

		member, err := svc.AddMember(context.Background(), tenantID, &domain.TenantMemberInput{
			UserID: userID,
			Role:   domain.TenantRoleStaff,
		})

		require.NoError(t, err)
		assert.Equal(t, domain.TenantRoleStaff, member.Role)
		tenantRepo.AssertExpectations(t)
	})

	t.Run("fails when user does not exist", func(t *testing.T) {
		tenantRepo := new(MockTenantRepository)
		userRepo := new(MockUserRepository)

		userID := uuid.New()
		userRepo.On("GetByID", mock.Anything, userID).Return(nil, apperrors.NotFound("user"))

		svc := newTenantService(tenantRepo, userRepo)

		member, err := svc.AddMember(context.Background(), uuid.New(), &domain.TenantMemberInput{
			UserID: userID,
			Role:   domain.TenantRoleViewer,
		})

		require.Error(t, err)
		assert.Nil(t, member)
		assert.True(t, apperrors.IsNotFound(err))
	})
}

func TestTenantService_UpdateMemberRole(t *testing.T) {
	t.Run("promotes staff to admin", func(t *testing.T) {
		tenantRepo := new(MockTenantRepository)
		userRepo := new(MockUserRepository)

		tenantID := uuid.New()
		userID := uuid.New()
		member := &domain.TenantMember{TenantID: tenantID, UserID: userID, Role: domain.TenantRoleStaff}

		tenantRepo.On("GetMember", mock.Anything, tenantID, userID).Return(member, nil)
		tenantRepo.On("UpdateMemberRole", mock.Anything, tenantID, userID, domain.TenantRoleAdmin).Return(nil)

		svc := newTenantService(tenantRepo, userRepo)

		err := svc.UpdateMemberRole(context.Background(), tenantID, userID, domain.TenantRoleAdmin, uuid.New(), "owner@example.com")

		require.NoError(t, err)
		tenantRepo.AssertExpectations(t)
	})

	t.Run("refuses to demote the last owner", func(t *testing.T) {
		tenantRepo := new(MockTenantRepository)
		userRepo := new(MockUserRepository)

		tenantID := uuid.New()
		userID := uuid.New()
		member := &domain.TenantMember{TenantID: tenantID, UserID: userID, Role: domain.TenantRoleOwner}

		tenantRepo.On("GetMember", mock.Anything, tenantID, userID).Return(member, nil)
		tenantRepo.On("CountOwners", mock.Anything, tenantID).Return(int64(1), nil)

		svc := newTenantService(tenantRepo, userRepo)

		err := svc.UpdateMemberRole(context.Background(), tenantID, userID, domain.TenantRoleAdmin, uuid.New(), "owner@example.com")

		require.Error(t, err)
		assert.True(t, apperrors.IsConflict(err))
		tenantRepo.AssertNotCalled(t, "UpdateMemberRole", mock.Anything, tenantID, userID, domain.TenantRoleAdmin)
	})

	t.Run("demotes an owner when another owner remains", func(t *testing.T) {
		tenantRepo := new(MockTenantRepository)
		userRepo := new(MockUserRepository)

		tenantID := uuid.New()
		userID := uuid.New()
		member := &domain.TenantMember{TenantID: tenantID, UserID: userID, Role: domain.TenantRoleOwner}

		tenantRepo.On("GetMember", mock.Anything, tenantID, userID).Return(member, nil)
		tenantRepo.On("CountOwners", mock.Anything, tenantID).Return(int64(2), nil)
		tenantRepo.On("UpdateMemberRole", mock.Anything, tenantID, userID, domain.TenantRoleAdmin).Return(nil)

		svc := newTenantService(tenantRepo, userRepo)

		err := svc.UpdateMemberRole(context.Background(), tenantID, userID, domain.TenantRoleAdmin, uuid.New(), "owner@example.com")

		require.NoError(t, err)
	})
}

func TestTenantService_RemoveMember(t *testing.T) {
	t.Run("removes a staff member", func(t *testing.T) {
		tenantRepo := new(MockTenantRepository)
		userRepo := new(MockUserRepository)

		tenantID := uuid.New()
		userID := uuid.New()
		member := &domain.TenantMember{TenantID: tenantID, UserID: userID, Role: domain.TenantRoleStaff}

		tenantRepo.On("GetMember", mock.Anything, tenantID, userID).Return(member, nil)
		tenantRepo.On("RemoveMember", mock.Anything, tenantID, userID).Return(nil)

		svc := newTenantService(tenantRepo, userRepo)

		err := svc.RemoveMember(context.Background(), tenantID, userID, uuid.New(), "owner@example.com")

		require.NoError(t, err)
		tenantRepo.AssertExpectations(t)
	})

	t.Run("refuses to remove the last owner", func(t *testing.T) {
		tenantRepo := new(MockTenantRepository)
		userRepo := new(MockUserRepository)

		tenantID := uuid.New()
		userID := uuid.New()
		member := &domain.TenantMember{TenantID: tenantID, UserID: userID, Role: domain.TenantRoleOwner}

		tenantRepo.On("GetMember", mock.Anything, tenantID, userID).Return(member, nil)
		tenantRepo.On("CountOwners", mock.Anything, tenantID).Return(int64(1), nil)

		svc := newTenantService(tenantRepo, userRepo)

		err := svc.RemoveMember(context.Background(), tenantID, userID, uuid.New(), "owner@example.com")

		require.Error(t, err)
		assert.True(t, apperrors.IsConflict(err))
	})
}

func TestTenantService_InviteUser(t *testing.T) {
	t.Run("creates invitation with a week to accept", func(t *testing.T) {
		tenantRepo := new(MockTenantRepository)
		userRepo := new(MockUserRepository)

		tenantID := uuid.New()
		invitedBy := uuid.New()

		tenantRepo.On("CreateInvitation", mock.Anything, mock.AnythingOfType("*domain.TenantInvitation")).Return(nil)

		svc := newTenantService(tenantRepo, userRepo)

		invitation, err := svc.InviteUser(context.Background(), tenantID, &domain.TenantInvitationInput{
			Email: "newstaff@example.com",
			Role:  domain.TenantRoleStaff,
		}, invitedBy, "owner@example.com")

		require.NoError(t, err)
		assert.Equal(t, "newstaff@example.com", invitation.Email)
		assert.Equal(t, domain.TenantRoleStaff, invitation.Role)
		assert.NotEmpty(t, invitation.Token)
		assert.WithinDuration(t, time.Now().Add(7*24*time.Hour), invitation.ExpiresAt, time.Minute)
	})
}

func TestTenantService_AcceptInvitation(t *testing.T) {
	t.Run("adds the invited user as member", func(t *testing.T) {
		tenantRepo := new(MockTenantRepository)
		userRepo := new(MockUserRepository)

		tenantID := uuid.New()
		userID := uuid.New()
		invitation := &domain.TenantInvitation{
			ID:        uuid.New(),
			TenantID:  tenantID,
			Email:     "member@example.com",
			Role:      domain.TenantRoleStaff,
			Token:     "invite-token",
			ExpiresAt: time.Now().Add(24 * time.Hour),
		}
		// Email comparison is case-insensitive
		user := &domain.User{ID: userID, Email: "Member@Example.com"}
		tenant := &domain.Tenant{ID: tenantID, Name: "Shop"}

		tenantRepo.On("GetInvitationByToken", mock.Anything, "invite-token").Return(invitation, nil)
		userRepo.On("GetByID", mock.Anything, userID).Return(user, nil)
		tenantRepo.On("AddMember", mock.Anything, mock.MatchedBy(func(m *domain.TenantMember) bool {
			return m.TenantID == tenantID && m.UserID == userID && m.Role == domain.TenantRoleStaff
		})).Return(nil)
		tenantRepo.On("AcceptInvitation", mock.Anything, "invite-token").Return(nil)
		tenantRepo.On("GetByID", mock.Anything, tenantID).Return(tenant, nil)

		svc := newTenantService(tenantRepo, userRepo)

		result, err := svc.AcceptInvitation(context.Background(), "invite-token", userID)

		require.NoError(t, err)
		assert.Equal(t, tenantID, result.ID)
		tenantRepo.AssertExpectations(t)
	})

	t.Run("rejects an already accepted invitation", func(t *testing.T) {
		tenantRepo := new(MockTenantRepository)
		userRepo := new(MockUserRepository)

		acceptedAt := time.Now().Add(-time.Hour)
		invitation := &domain.TenantInvitation{
			ID:         uuid.New(),
			Email:      "member@example.com",
			Token:      "used-token",
			ExpiresAt:  time.Now().Add(24 * time.Hour),
			AcceptedAt: &acceptedAt,
		}

		tenantRepo.On("GetInvitationByToken", mock.Anything, "used-token").Return(invitation, nil)

		svc := newTenantService(tenantRepo, userRepo)

		result, err := svc.AcceptInvitation(context.Background(), "used-token", uuid.New())

		require.Error(t, err)
		assert.Nil(t, result)
		assert.True(t, apperrors.IsConflict(err))
	})

	t.Run("rejects an expired invitation", func(t *testing.T) {
		tenantRepo := new(MockTenantRepository)
		userRepo := new(MockUserRepository)

		invitation := &domain.TenantInvitation{
			ID:        uuid.New(),
			Email:     "member@example.com",
			Token:     "stale-token",
			ExpiresAt: time.Now().Add(-time.Hour),
		}

		tenantRepo.On("GetInvitationByToken", mock.Anything, "stale-token").Return(invitation, nil)

		svc := newTenantService(tenantRepo, userRepo)

		result, err := svc.AcceptInvitation(context.Background(), "stale-token", uuid.New())

		require.Error(t, err)
		assert.Nil(t, result)
		assert.True(t, apperrors.IsValidation(err))
	})

	t.Run("rejects a user with a different email", func(t *testing.T) {
		tenantRepo := new(MockTenantRepository)
		userRepo := new(MockUserRepository)

		userID := uuid.New()
		invitation := &domain.TenantInvitation{
			ID:        uuid.New(),
			Email:     "invited@example.com",
			Token:     "invite-token",
			ExpiresAt: time.Now().Add(24 * time.Hour),
		}
		user := &domain.User{ID: userID, Email: "someoneelse@example.com"}

		tenantRepo.On("GetInvitationByToken", mock.Anything, "invite-token").Return(invitation, nil)
		userRepo.On("GetByID", mock.Anything, userID).Return(user, nil)

		svc := newTenantService(tenantRepo, userRepo)

		result, err := svc.AcceptInvitation(context.Background(), "invite-token", userID)

		require.Error(t, err)
		assert.Nil(t, result)
		assert.True(t, apperrors.IsForbidden(err))
	})
}

func TestTenantService_GetSettings(t *testing.T) {
	t.Run("returns saved settings", func(t *testing.T) {
		tenantRepo := new(MockTenantRepository)
		userRepo := new(MockUserRepository)

		tenantID := uuid.New()
		settings := &domain.TenantSettings{TenantID: tenantID, Currency: "GBP", PrintQueueCapacity: 25}

		tenantRepo.On("GetSettings", mock.Anything, tenantID).Return(settings, nil)

		svc := newTenantService(tenantRepo, userRepo)

		result, err := svc.GetSettings(context.Background(), tenantID)

		require.NoError(t, err)
		assert.Equal(t, "GBP", result.Currency)
		assert.Equal(t, 25, result.PrintQueueCapacity)
	})

	t.Run("falls back to defaults when none saved", func(t *testing.T) {
		tenantRepo := new(MockTenantRepository)
		userRepo := new(MockUserRepository)

		tenantID := uuid.New()
		tenantRepo.On("GetSettings", mock.Anything, tenantID).Return(nil, apperrors.NotFound("settings"))

		svc := newTenantService(tenantRepo, userRepo)

		result, err := svc.GetSettings(context.Background(), tenantID)

		require.NoError(t, err)
		assert.Equal(t, "USD", result.Currency)
		assert.Equal(t, 100, result.PrintQueueCapacity)
		assert.True(t, result.AutoAssignJobs)
	})
}

func TestTenantService_UpdateSettings(t *testing.T) {
	t.Run("applies partial update and uppercases currency", func(t *testing.T) {
		tenantRepo := new(MockTenantRepository)
		userRepo := new(MockUserRepository)

		tenantID := uuid.New()
		existing := &domain.TenantSettings{
			ID:                 uuid.New(),
			TenantID:           tenantID,
			Currency:           "USD",
			OrderNumberPrefix:  "PF",
			PrintQueueCapacity: 100,
		}

		tenantRepo.On("GetSettings", mock.Anything, tenantID).Return(existing, nil)
		tenantRepo.On("UpdateSettings", mock.Anything, mock.MatchedBy(func(s *domain.TenantSettings) bool {
			return s.Currency == "EUR" && s.PrintQueueCapacity == 100
		})).Return(nil)

		svc := newTenantService(tenantRepo, userRepo)

		currency := "eur"
		result, err := svc.UpdateSettings(context.Background(), tenantID, &domain.TenantSettingsInput{
			Currency: &currency,
		}, uuid.New(), "owner@example.com")

		require.NoError(t, err)
		assert.Equal(t, "EUR", result.Currency)
		tenantRepo.AssertExpectations(t)
	})

	t.Run("creates settings when none exist", func(t *testing.T) {
		tenantRepo := new(MockTenantRepository)
		userRepo := new(MockUserRepository)

		tenantID := uuid.New()
		tenantRepo.On("GetSettings", mock.Anything, tenantID).Return(nil, apperrors.NotFound("settings"))
		tenantRepo.On("CreateSettings", mock.Anything, mock.MatchedBy(func(s *domain.TenantSettings) bool {
			return s.TenantID == tenantID && s.PrintQueueCapacity == 40
		})).Return(nil)

		svc := newTenantService(tenantRepo, userRepo)

		capacity := 40
		result, err := svc.UpdateSettings(context.Background(), tenantID, &domain.TenantSettingsInput{
			PrintQueueCapacity: &capacity,
		}, uuid.New(), "owner@example.com")

		require.NoError(t, err)
		assert.Equal(t, 40, result.PrintQueueCapacity)
		assert.Equal(t, "USD", result.Currency)
		tenantRepo.AssertExpectations(t)
	})
}

func TestTenantService_GetStats(t *testing.T) {
	t.Run("aggregates dashboard numbers", func(t *testing.T) {
		tenantRepo := new(MockTenantRepository)
		userRepo := new(MockUserRepository)
		customerRepo := new(MockCustomerRepository)
		productRepo := new(MockProductRepository)
		orderRepo := new(MockOrderRepository)
		printJobRepo := new(MockPrintJobRepository)

		tenantID := uuid.New()
		customerRepo.On("CountByTenantID", mock.Anything, tenantID).Return(int64(12), nil)
		productRepo.On("CountByTenantID", mock.Anything, tenantID).Return(int64(30), nil)
		orderRepo.On("CountByTenantID", mock.Anything, tenantID).Return(int64(45), nil)
		printJobRepo.On("CountActive", mock.Anything, tenantID).Return(int64(3), nil)
		orderRepo.On("SumRevenueCents", mock.Anything, tenantID).Return(int64(1234500), nil)

		svc := NewTenantService(tenantRepo, userRepo, customerRepo, productRepo, orderRepo, printJobRepo)

		stats, err := svc.GetStats(context.Background(), tenantID)

		require.NoError(t, err)
		assert.Equal(t, int64(12), stats.TotalCustomers)
		assert.Equal(t, int64(30), stats.TotalProducts)
		assert.Equal(t, int64(45), stats.TotalOrders)
		assert.Equal(t, int64(3), stats.ActiveJobs)
		assert.Equal(t, int64(1234500), stats.RevenueCents)
	})
}

package dto

import "github.com/printforge/printforge/api/internal/domain"

// UpdateMemberRoleRequest represents the request to change a member role
type UpdateMemberRoleRequest struct {
	Role domain.TenantRole `json:"role" validate:"required,oneof=owner admin staff viewer"`
}

// AcceptInvitationRequest represents the request to accept an invitation
type AcceptInvitationRequest struct {
	Token string `json:"token" validate:"required,max=128"`
}

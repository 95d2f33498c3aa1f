package domain

import (
	"time"

	"github.com/google/uuid"
)

// APIKey represents an API key for storefront integrations
type APIKey struct {
	ID               uuid.UUID     `json:"id"`
	TenantID         uuid.UUID     `json:"tenantId"`
	Name             string        `json:"name"`
	PublicKey        string        `json:"publicKey"`
	SecretKeyHash    string        `json:"-"`
	SecretKeyPreview string        `json:"secretKeyPreview"`
	Scopes           []APIKeyScope `json:"scopes"`
	ExpiresAt        *time.Time    `json:"expiresAt,omitempty"`
	LastUsedAt       *time.Time    `json:"lastUsedAt,omitempty"`
	CreatedBy        *uuid.UUID    `json:"createdBy,omitempty"`
	CreatedAt        time.Time     `json:"createdAt"`
	UpdatedAt        time.Time     `json:"updatedAt"`
}

// APIKeyInput represents input for creating an API key
type APIKeyInput struct {
	Name      string        `json:"name" validate:"required,min=1,max=100"`
	Scopes    []APIKeyScope `json:"scopes,omitempty"`
	ExpiresAt *time.Time    `json:"expiresAt,omitempty"`
}

// APIKeyCreateResult represents the result of creating an API key
type APIKeyCreateResult struct {
	APIKey    *APIKey `json:"apiKey"`
	SecretKey string  `json:"secretKey"`
}

// APIKeyFilter represents filter options for querying API keys
type APIKeyFilter struct {
	TenantID  uuid.UUID
	CreatedBy *uuid.UUID
}

// APIKeyList represents a paginated list of API keys
type APIKeyList struct {
	APIKeys    []APIKey `json:"apiKeys"`
	TotalCount int64    `json:"totalCount"`
	HasMore    bool     `json:"hasMore"`
}

// DefaultScopes returns the default API key scopes
func DefaultScopes() []APIKeyScope {
	return []APIKeyScope{APIKeyScopeRead, APIKeyScopeIngest}
}

// HasScope checks if the API key has a specific scope
func (k *APIKey) HasScope(scope APIKeyScope) bool {
	for _, s := range k.Scopes {
		if s == scope {
			return true
		}
		// Write implies read
		if s == APIKeyScopeWrite && scope == APIKeyScopeRead {
			return true
		}
	}
	return false
}

// IsExpired checks if the API key has expired
func (k *APIKey) IsExpired() bool {
	if k.ExpiresAt == nil {
		return false
	}
	return time.Now().After(*k.ExpiresAt)
}

// APIKeyContext represents the context extracted from a verified API key
type APIKeyContext struct {
	APIKeyID uuid.UUID
	TenantID uuid.UUID
	Scopes   []APIKeyScope
}

// HasScope checks if the context has a specific scope
func (c *APIKeyContext) HasScope(scope APIKeyScope) bool {
	for _, s := range c.Scopes {
		if s == scope {
			return true
		}
		if s == APIKeyScopeWrite && scope == APIKeyScopeRead {
			return true
		}
	}
	return false
}

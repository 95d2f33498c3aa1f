// Package testutil provides shared test utilities for the PrintForge API.
package testutil

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/printforge/printforge/api/internal/domain"
	"github.com/printforge/printforge/api/internal/middleware"
)

// TestTenantMiddleware creates a middleware that sets the tenant ID in context.
// Use this in tests to simulate authenticated requests.
func TestTenantMiddleware(tenantID uuid.UUID) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals(string(middleware.ContextKeyTenantID), tenantID)
		return c.Next()
	}
}

// TestUserMiddleware creates a middleware that sets the user ID in context.
// Use this in tests to simulate authenticated requests.
func TestUserMiddleware(userID uuid.UUID) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals(string(middleware.ContextKeyUserID), userID)
		return c.Next()
	}
}

// TestAuthMiddleware creates a middleware that sets tenant, user and role in
// context. Use this in tests to simulate fully authenticated dashboard requests.
func TestAuthMiddleware(tenantID, userID uuid.UUID, role domain.TenantRole) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals(string(middleware.ContextKeyTenantID), tenantID)
		c.Locals(string(middleware.ContextKeyUserID), userID)
		c.Locals(string(middleware.ContextKeyTenantRole), role)
		return c.Next()
	}
}

// TestAPIKeyMiddleware creates a middleware that sets tenant and API key IDs in
// context. Use this in tests to simulate storefront requests.
func TestAPIKeyMiddleware(tenantID, apiKeyID uuid.UUID) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals(string(middleware.ContextKeyTenantID), tenantID)
		c.Locals(string(middleware.ContextKeyAPIKeyID), apiKeyID)
		c.Locals(string(middleware.ContextKeyAuthType), middleware.AuthTypeAPIKey)
		return c.Next()
	}
}

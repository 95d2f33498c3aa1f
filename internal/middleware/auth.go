package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/printforge/printforge/api/internal/domain"
	"github.com/printforge/printforge/api/internal/service"
)

// ContextKey type for context keys
type ContextKey string

const (
	// Context keys
	ContextKeyUserID     ContextKey = "userID"
	ContextKeyTenantID   ContextKey = "tenantID"
	ContextKeyTenantRole ContextKey = "tenantRole"
	ContextKeyAPIKeyID   ContextKey = "apiKeyID"
	ContextKeyScopes     ContextKey = "apiKeyScopes"
	ContextKeyAuthType   ContextKey = "authType"
)

// AuthType represents the type of authentication used
type AuthType string

const (
	AuthTypeAPIKey AuthType = "api_key"
	AuthTypeJWT    AuthType = "jwt"
)

// AuthMiddleware handles authentication
type AuthMiddleware struct {
	authService *service.AuthService
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(authService *service.AuthService) *AuthMiddleware {
	return &AuthMiddleware{
		authService: authService,
	}
}

// RequireAPIKey validates API key authentication for the storefront API.
// The public key alone resolves the tenant for read endpoints; when the
// secret key is also presented the full pair is verified and the key's
// scopes are attached for RequireScope checks.
func (m *AuthMiddleware) RequireAPIKey() fiber.Handler {
	return func(c *fiber.Ctx) error {
		publicKey := extractPublicKey(c)
		if publicKey == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error":   "Unauthorized",
				"message": "API key required",
			})
		}

		// Full pair validation when the secret key is presented
		if secretKey := extractSecretKey(c); secretKey != "" {
			keyCtx, err := m.authService.ValidateAPIKey(c.Context(), publicKey, secretKey)
			if err != nil {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
					"error":   "Unauthorized",
					"message": "Invalid API key",
				})
			}

			c.Locals(string(ContextKeyTenantID), keyCtx.TenantID)
			c.Locals(string(ContextKeyAPIKeyID), keyCtx.APIKeyID)
			c.Locals(string(ContextKeyScopes), keyCtx.Scopes)
			c.Locals(string(ContextKeyAuthType), AuthTypeAPIKey)

			return c.Next()
		}

		// Public key only resolves the tenant (read endpoints)
		tenantID, err := m.authService.ValidateAPIKeyPublicOnly(c.Context(), publicKey)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error":   "Unauthorized",
				"message": "Invalid API key",
			})
		}

		c.Locals(string(ContextKeyTenantID), *tenantID)
		c.Locals(string(ContextKeyAuthType), AuthTypeAPIKey)

		return c.Next()
	}
}

// RequireScope ensures the API key carries the given scope. Keys validated
// by public key only carry no scopes, so endpoints behind this check always
// need the secret key.
func (m *AuthMiddleware) RequireScope(scope domain.APIKeyScope) fiber.Handler {
	return func(c *fiber.Ctx) error {
		scopes, ok := GetScopes(c)
		if !ok {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error":   "Forbidden",
				"message": "Secret key required for this endpoint",
			})
		}

		keyCtx := domain.APIKeyContext{Scopes: scopes}
		if !keyCtx.HasScope(scope) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error":   "Forbidden",
				"message": "API key missing required scope: " + string(scope),
			})
		}

		return c.Next()
	}
}

// RequireJWT validates JWT authentication
func (m *AuthMiddleware) RequireJWT() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := extractBearerToken(c)
		if token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error":   "Unauthorized",
				"message": "Authorization header required",
			})
		}

		claims, err := m.authService.ValidateJWT(c.Context(), token)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error":   "Unauthorized",
				"message": "Invalid or expired token",
			})
		}

		// Parse user ID from claims
		userID, err := uuid.Parse(claims.UserID)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error":   "Unauthorized",
				"message": "Invalid user ID in token",
			})
		}

		// Set context values
		c.Locals(string(ContextKeyUserID), userID)
		c.Locals(string(ContextKeyAuthType), AuthTypeJWT)

		return c.Next()
	}
}

// RequireAuth validates either API key or JWT authentication
func (m *AuthMiddleware) RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		// Try API key first
		publicKey := extractPublicKey(c)
		if publicKey != "" {
			tenantID, err := m.authService.ValidateAPIKeyPublicOnly(c.Context(), publicKey)
			if err == nil {
				c.Locals(string(ContextKeyTenantID), *tenantID)
				c.Locals(string(ContextKeyAuthType), AuthTypeAPIKey)
				return c.Next()
			}
		}

		// Try JWT
		token := extractBearerToken(c)
		if token != "" {
			claims, err := m.authService.ValidateJWT(c.Context(), token)
			if err == nil {
				if userID, err := uuid.Parse(claims.UserID); err == nil {
					c.Locals(string(ContextKeyUserID), userID)
					c.Locals(string(ContextKeyAuthType), AuthTypeJWT)
					return c.Next()
				}
			}
		}

		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "Unauthorized",
			"message": "Valid authentication required",
		})
	}
}

// RequireTenantAccess ensures the caller can act on the tenant named in the
// path and stores the tenant ID and resolved role for the handler. JWT users
// must be members with at least minRole; API keys must belong to the tenant.
func (m *AuthMiddleware) RequireTenantAccess(minRole domain.TenantRole) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tenantIDParam := c.Params("tenantId")
		if tenantIDParam == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error":   "Bad Request",
				"message": "Tenant ID required",
			})
		}

		tenantID, err := uuid.Parse(tenantIDParam)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error":   "Bad Request",
				"message": "Invalid tenant ID",
			})
		}

		// API keys are already bound to a tenant
		if authType, ok := c.Locals(string(ContextKeyAuthType)).(AuthType); ok && authType == AuthTypeAPIKey {
			keyTenantID, ok := c.Locals(string(ContextKeyTenantID)).(uuid.UUID)
			if ok && keyTenantID == tenantID {
				return c.Next()
			}
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error":   "Forbidden",
				"message": "API key not valid for this tenant",
			})
		}

		// Check JWT user membership
		userID, ok := c.Locals(string(ContextKeyUserID)).(uuid.UUID)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error":   "Unauthorized",
				"message": "User not authenticated",
			})
		}

		role, err := m.authService.ResolveTenantRole(c.Context(), tenantID, userID)
		if err != nil {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error":   "Forbidden",
				"message": "No access to this tenant",
			})
		}

		if !role.AtLeast(minRole) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error":   "Forbidden",
				"message": "Insufficient role for this operation",
			})
		}

		c.Locals(string(ContextKeyTenantID), tenantID)
		c.Locals(string(ContextKeyTenantRole), role)
		return c.Next()
	}
}

// RequireTenantRole gates a route on the role resolved by RequireTenantAccess
func (m *AuthMiddleware) RequireTenantRole(minRole domain.TenantRole) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, ok := GetTenantRole(c)
		if !ok || !role.AtLeast(minRole) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error":   "Forbidden",
				"message": "Insufficient role for this operation",
			})
		}
		return c.Next()
	}
}

// OptionalAuth tries to authenticate but continues even if it fails
func (m *AuthMiddleware) OptionalAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		// Try API key first
		publicKey := extractPublicKey(c)
		if publicKey != "" {
			tenantID, err := m.authService.ValidateAPIKeyPublicOnly(c.Context(), publicKey)
			if err == nil {
				c.Locals(string(ContextKeyTenantID), *tenantID)
				c.Locals(string(ContextKeyAuthType), AuthTypeAPIKey)
				return c.Next()
			}
		}

		// Try JWT
		token := extractBearerToken(c)
		if token != "" {
			claims, err := m.authService.ValidateJWT(c.Context(), token)
			if err == nil {
				if userID, err := uuid.Parse(claims.UserID); err == nil {
					c.Locals(string(ContextKeyUserID), userID)
					c.Locals(string(ContextKeyAuthType), AuthTypeJWT)
				}
			}
		}

		return c.Next()
	}
}

// extractPublicKey extracts the public API key from the request
func extractPublicKey(c *fiber.Ctx) string {
	// Check Authorization header with Bearer prefix
	auth := c.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		token := strings.TrimPrefix(auth, "Bearer ")
		// Public keys start with "pk-pf-" prefix
		if strings.HasPrefix(token, "pk-pf-") {
			return token
		}
	}

	// Check X-API-Key header
	if apiKey := c.Get("X-API-Key"); apiKey != "" {
		return apiKey
	}

	// Check query parameter
	if apiKey := c.Query("api_key"); apiKey != "" {
		return apiKey
	}

	return ""
}

// extractSecretKey extracts the secret API key from the request
func extractSecretKey(c *fiber.Ctx) string {
	// Check X-API-Secret header
	if secret := c.Get("X-API-Secret"); secret != "" {
		return secret
	}

	// Check Authorization header with Bearer prefix
	auth := c.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		token := strings.TrimPrefix(auth, "Bearer ")
		// Secret keys start with "sk-pf-" prefix
		if strings.HasPrefix(token, "sk-pf-") {
			return token
		}
	}

	return ""
}

// extractBearerToken extracts JWT from Authorization header
func extractBearerToken(c *fiber.Ctx) string {
	auth := c.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		token := strings.TrimPrefix(auth, "Bearer ")
		// JWT tokens don't carry an API key prefix
		if !strings.HasPrefix(token, "pk-pf-") && !strings.HasPrefix(token, "sk-pf-") {
			return token
		}
	}
	return ""
}

// GetUserID gets the user ID from context
func GetUserID(c *fiber.Ctx) (uuid.UUID, bool) {
	userID, ok := c.Locals(string(ContextKeyUserID)).(uuid.UUID)
	return userID, ok
}

// GetTenantID gets the tenant ID from context
func GetTenantID(c *fiber.Ctx) (uuid.UUID, bool) {
	tenantID, ok := c.Locals(string(ContextKeyTenantID)).(uuid.UUID)
	return tenantID, ok
}

// GetTenantRole gets the resolved tenant role from context
func GetTenantRole(c *fiber.Ctx) (domain.TenantRole, bool) {
	role, ok := c.Locals(string(ContextKeyTenantRole)).(domain.TenantRole)
	return role, ok
}

// GetAPIKeyID gets the API key ID from context
func GetAPIKeyID(c *fiber.Ctx) (uuid.UUID, bool) {
	apiKeyID, ok := c.Locals(string(ContextKeyAPIKeyID)).(uuid.UUID)
	return apiKeyID, ok
}

// GetScopes gets the API key scopes from context
func GetScopes(c *fiber.Ctx) ([]domain.APIKeyScope, bool) {
	scopes, ok := c.Locals(string(ContextKeyScopes)).([]domain.APIKeyScope)
	return scopes, ok
}

// GetAuthType gets the authentication type from context
func GetAuthType(c *fiber.Ctx) (AuthType, bool) {
	authType, ok := c.Locals(string(ContextKeyAuthType)).(AuthType)
	return authType, ok
}

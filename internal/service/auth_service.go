package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/printforge/printforge/api/internal/config"
	"github.com/printforge/printforge/api/internal/domain"
	apperrors "github.com/printforge/printforge/api/internal/pkg/errors"
	"github.com/printforge/printforge/api/internal/validator"
)

// UserRepository defines user repository operations
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
	UpdateLastLogin(ctx context.Context, id uuid.UUID) error
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	CreateSession(ctx context.Context, session *domain.UserSession) error
	GetSessionByToken(ctx context.Context, token string) (*domain.UserSession, error)
	DeleteSession(ctx context.Context, token string) error
}

// APIKeyRepository defines API key repository operations
type APIKeyRepository interface {
	Create(ctx context.Context, key *domain.APIKey) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.APIKey, error)
	GetByPublicKey(ctx context.Context, publicKey string) (*domain.APIKey, error)
	Update(ctx context.Context, key *domain.APIKey) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByTenantID(ctx context.Context, tenantID uuid.UUID) ([]domain.APIKey, error)
	UpdateLastUsed(ctx context.Context, id uuid.UUID) error
	GetTenantIDByPublicKey(ctx context.Context, publicKey string) (*uuid.UUID, error)
}

// AuditLogger defines the interface for audit logging
type AuditLogger interface {
	LogLogin(ctx context.Context, tenantID uuid.UUID, userID uuid.UUID, email, ipAddress, userAgent string) error
	LogLoginFailed(ctx context.Context, tenantID uuid.UUID, email, ipAddress, userAgent, reason string) error
	LogLogout(ctx context.Context, tenantID uuid.UUID, userID uuid.UUID, email string) error
	LogAPIKeyCreated(ctx context.Context, tenantID uuid.UUID, actorID uuid.UUID, actorEmail string, keyID uuid.UUID, keyName string) error
	LogAPIKeyRevoked(ctx context.Context, tenantID uuid.UUID, actorID uuid.UUID, actorEmail string, keyID uuid.UUID, keyName string) error
}

// AuthService handles authentication and authorization
type AuthService struct {
	cfg         *config.Config
	userRepo    UserRepository
	apiKeyRepo  APIKeyRepository
	tenantRepo  TenantRepository
	auditLogger AuditLogger
}

// NewAuthService creates a new auth service
func NewAuthService(
	cfg *config.Config,
	userRepo UserRepository,
	apiKeyRepo APIKeyRepository,
	tenantRepo TenantRepository,
) *AuthService {
	return &AuthService{
		cfg:        cfg,
		userRepo:   userRepo,
		apiKeyRepo: apiKeyRepo,
		tenantRepo: tenantRepo,
	}
}

// SetAuditLogger sets the audit logger for the auth service
// This allows optional audit logging without making it a required dependency
func (s *AuthService) SetAuditLogger(logger AuditLogger) {
	s.auditLogger = logger
}

// Register creates a new user account. The user joins or creates a shop
// afterwards; registration itself is not tenant-scoped.
func (s *AuthService) Register(ctx context.Context, input *domain.RegisterInput) (*domain.AuthResult, error) {
	if err := validator.Validate(input); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	exists, err := s.userRepo.ExistsByEmail(ctx, input.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if exists {
		return nil, apperrors.Validation("email already registered")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	user := &domain.User{
		ID:           uuid.New(),
		Email:        input.Email,
		Name:         input.Name,
		PasswordHash: string(hashedPassword),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return s.issueTokens(ctx, user)
}

// Login authenticates a user with email and password
func (s *AuthService) Login(ctx context.Context, input *domain.LoginInput) (*domain.AuthResult, error) {
	return s.LoginWithContext(ctx, input, "", "")
}

// LoginWithContext authenticates a user with email/password and request context for audit logging
func (s *AuthService) LoginWithContext(ctx context.Context, input *domain.LoginInput, ipAddress, userAgent string) (*domain.AuthResult, error) {
	user, err := s.userRepo.GetByEmail(ctx, input.Email)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.Unauthorized("invalid credentials")
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	// Audit entries attach to the user's first shop when there is one.
	var primaryTenantID uuid.UUID
	if s.auditLogger != nil {
		tenants, err := s.tenantRepo.ListByUserID(ctx, user.ID)
		if err == nil && len(tenants) > 0 {
			primaryTenantID = tenants[0].ID
		}
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		if s.auditLogger != nil && primaryTenantID != uuid.Nil {
			go func() {
				_ = s.auditLogger.LogLoginFailed(context.Background(), primaryTenantID, input.Email, ipAddress, userAgent, "invalid password")
			}()
		}
		return nil, apperrors.Unauthorized("invalid credentials")
	}

	go func() {
		_ = s.userRepo.UpdateLastLogin(context.Background(), user.ID)
	}()

	if s.auditLogger != nil && primaryTenantID != uuid.Nil {
		go func() {
			_ = s.auditLogger.LogLogin(context.Background(), primaryTenantID, user.ID, user.Email, ipAddress, userAgent)
		}()
	}

	return s.issueTokens(ctx, user)
}

// RefreshToken generates new tokens from a refresh token
func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*domain.AuthResult, error) {
	session, err := s.userRepo.GetSessionByToken(ctx, refreshToken)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.Unauthorized("invalid refresh token")
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	user, err := s.userRepo.GetByID(ctx, session.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	accessToken, err := s.generateAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	return &domain.AuthResult{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    time.Now().Add(s.cfg.JWT.Expiry),
	}, nil
}

// Logout invalidates a session
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	return s.LogoutWithContext(ctx, refreshToken, uuid.Nil, "")
}

// LogoutWithContext invalidates a session with audit logging context
func (s *AuthService) LogoutWithContext(ctx context.Context, refreshToken string, userID uuid.UUID, userEmail string) error {
	if s.auditLogger != nil && userID != uuid.Nil {
		tenants, err := s.tenantRepo.ListByUserID(ctx, userID)
		if err == nil && len(tenants) > 0 {
			tenantID := tenants[0].ID
			go func() {
				_ = s.auditLogger.LogLogout(context.Background(), tenantID, userID, userEmail)
			}()
		}
	}

	return s.userRepo.DeleteSession(ctx, refreshToken)
}

// ValidateJWT validates a JWT access token
func (s *AuthService) ValidateJWT(ctx context.Context, tokenString string) (*domain.JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &domain.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.cfg.JWT.Secret), nil
	})

	if err != nil {
		return nil, apperrors.Unauthorized("invalid token")
	}

	claims, ok := token.Claims.(*domain.JWTClaims)
	if !ok || !token.Valid {
		return nil, apperrors.Unauthorized("invalid token")
	}

	return claims, nil
}

// ValidateAPIKey validates a public/secret key pair and returns the key context
func (s *AuthService) ValidateAPIKey(ctx context.Context, publicKey, secretKey string) (*domain.APIKeyContext, error) {
	apiKey, err := s.apiKeyRepo.GetByPublicKey(ctx, publicKey)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.Unauthorized("invalid API key")
		}
		return nil, fmt.Errorf("failed to get API key: %w", err)
	}

	if apiKey.IsExpired() {
		return nil, apperrors.Unauthorized("API key expired")
	}

	if !s.verifySecretKey(secretKey, apiKey.SecretKeyHash) {
		return nil, apperrors.Unauthorized("invalid API key")
	}

	// Update last used (async, don't fail on error)
	go func() {
		_ = s.apiKeyRepo.UpdateLastUsed(context.Background(), apiKey.ID)
	}()

	return &domain.APIKeyContext{
		APIKeyID: apiKey.ID,
		TenantID: apiKey.TenantID,
		Scopes:   apiKey.Scopes,
	}, nil
}

// ValidateAPIKeyPublicOnly validates an API key by public key only (for read operations)
func (s *AuthService) ValidateAPIKeyPublicOnly(ctx context.Context, publicKey string) (*uuid.UUID, error) {
	tenantID, err := s.apiKeyRepo.GetTenantIDByPublicKey(ctx, publicKey)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.Unauthorized("invalid API key")
		}
		return nil, fmt.Errorf("failed to get tenant ID: %w", err)
	}

	return tenantID, nil
}

// CreateAPIKey creates a new API key for a tenant
func (s *AuthService) CreateAPIKey(ctx context.Context, tenantID uuid.UUID, input *domain.APIKeyInput, userID uuid.UUID) (*domain.APIKeyCreateResult, error) {
	return s.CreateAPIKeyWithContext(ctx, tenantID, input, userID, "")
}

// CreateAPIKeyWithContext creates a new API key with audit logging context
func (s *AuthService) CreateAPIKeyWithContext(ctx context.Context, tenantID uuid.UUID, input *domain.APIKeyInput, userID uuid.UUID, userEmail string) (*domain.APIKeyCreateResult, error) {
	publicKey, secretKey, err := s.generateAPIKeyPair()
	if err != nil {
		return nil, fmt.Errorf("failed to generate key pair: %w", err)
	}

	secretKeyHash := s.hashSecretKey(secretKey)
	secretKeyPreview := "sk-pf-..." + secretKey[len(secretKey)-4:]

	now := time.Now()

	// Keys default to a 1 year expiry so a leaked key does not live forever
	expiresAt := input.ExpiresAt
	if expiresAt == nil {
		defaultExpiry := now.AddDate(1, 0, 0)
		expiresAt = &defaultExpiry
	}

	apiKey := &domain.APIKey{
		ID:               uuid.New(),
		TenantID:         tenantID,
		Name:             input.Name,
		PublicKey:        publicKey,
		SecretKeyHash:    secretKeyHash,
		SecretKeyPreview: secretKeyPreview,
		Scopes:           input.Scopes,
		ExpiresAt:        expiresAt,
		CreatedBy:        &userID,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if len(apiKey.Scopes) == 0 {
		apiKey.Scopes = domain.DefaultScopes()
	}

	if err := s.apiKeyRepo.Create(ctx, apiKey); err != nil {
		return nil, fmt.Errorf("failed to create API key: %w", err)
	}

	if s.auditLogger != nil && userID != uuid.Nil {
		go func() {
			_ = s.auditLogger.LogAPIKeyCreated(context.Background(), tenantID, userID, userEmail, apiKey.ID, apiKey.Name)
		}()
	}

	return &domain.APIKeyCreateResult{
		APIKey:    apiKey,
		SecretKey: secretKey,
	}, nil
}

// DeleteAPIKey deletes an API key belonging to a tenant
func (s *AuthService) DeleteAPIKey(ctx context.Context, tenantID, id uuid.UUID) error {
	return s.DeleteAPIKeyWithContext(ctx, tenantID, id, uuid.Nil, "")
}

// DeleteAPIKeyWithContext deletes an API key with audit logging context
func (s *AuthService) DeleteAPIKeyWithContext(ctx context.Context, tenantID, id uuid.UUID, actorID uuid.UUID, actorEmail string) error {
	apiKey, err := s.apiKeyRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if apiKey.TenantID != tenantID {
		return apperrors.NotFound("API key")
	}

	if err := s.apiKeyRepo.Delete(ctx, id); err != nil {
		return err
	}

	if s.auditLogger != nil && actorID != uuid.Nil {
		go func() {
			_ = s.auditLogger.LogAPIKeyRevoked(context.Background(), tenantID, actorID, actorEmail, apiKey.ID, apiKey.Name)
		}()
	}

	return nil
}

// ListAPIKeys lists API keys for a tenant
func (s *AuthService) ListAPIKeys(ctx context.Context, tenantID uuid.UUID) ([]domain.APIKey, error) {
	return s.apiKeyRepo.ListByTenantID(ctx, tenantID)
}

// GetUserByID retrieves a user by ID
func (s *AuthService) GetUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

// UpdateProfile updates a user's own profile fields
func (s *AuthService) UpdateProfile(ctx context.Context, userID uuid.UUID, input *domain.UserUpdateInput) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		user.Name = *input.Name
	}
	if input.AvatarURL != nil {
		user.AvatarURL = *input.AvatarURL
	}
	user.UpdatedAt = time.Now()

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	return user, nil
}

// ResolveTenantRole returns the user's role within a tenant
func (s *AuthService) ResolveTenantRole(ctx context.Context, tenantID, userID uuid.UUID) (domain.TenantRole, error) {
	member, err := s.tenantRepo.GetMember(ctx, tenantID, userID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return "", apperrors.Forbidden("no access to tenant")
		}
		return "", fmt.Errorf("failed to get member: %w", err)
	}

	return member.Role, nil
}

// CheckTenantAccess checks if a user has at least the required role in a tenant
func (s *AuthService) CheckTenantAccess(ctx context.Context, tenantID, userID uuid.UUID, requiredRole domain.TenantRole) error {
	role, err := s.ResolveTenantRole(ctx, tenantID, userID)
	if err != nil {
		return err
	}

	if !role.AtLeast(requiredRole) {
		return apperrors.Forbidden("insufficient permissions")
	}

	return nil
}

// issueTokens generates an access/refresh token pair and stores the session
func (s *AuthService) issueTokens(ctx context.Context, user *domain.User) (*domain.AuthResult, error) {
	accessToken, err := s.generateAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := s.generateRefreshToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	now := time.Now()
	session := &domain.UserSession{
		ID:           uuid.New(),
		SessionToken: refreshToken,
		UserID:       user.ID,
		ExpiresAt:    now.Add(s.cfg.JWT.RefreshExpiry),
		CreatedAt:    now,
	}

	if err := s.userRepo.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return &domain.AuthResult{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    now.Add(s.cfg.JWT.Expiry),
	}, nil
}

// generateAccessToken generates a JWT access token
func (s *AuthService) generateAccessToken(user *domain.User) (string, error) {
	claims := &domain.JWTClaims{
		UserID: user.ID.String(),
		Email:  user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.cfg.JWT.Expiry)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    s.cfg.JWT.Issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWT.Secret))
}

// generateRefreshToken generates a random refresh token
func (s *AuthService) generateRefreshToken() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(bytes), nil
}

// generateAPIKeyPair generates a public/secret key pair
func (s *AuthService) generateAPIKeyPair() (publicKey, secretKey string, err error) {
	pubBytes := make([]byte, 16)
	if _, err := rand.Read(pubBytes); err != nil {
		return "", "", err
	}
	publicKey = "pk-pf-" + hex.EncodeToString(pubBytes)

	secBytes := make([]byte, 32)
	if _, err := rand.Read(secBytes); err != nil {
		return "", "", err
	}
	secretKey = "sk-pf-" + hex.EncodeToString(secBytes)

	return publicKey, secretKey, nil
}

// hashSecretKey creates a bcrypt hash of the secret key
func (s *AuthService) hashSecretKey(secretKey string) string {
	hash, err := bcrypt.GenerateFromPassword([]byte(secretKey), bcrypt.DefaultCost)
	if err != nil {
		// This should never happen with valid input, but fall back to empty string
		// which will fail verification
		return ""
	}
	return string(hash)
}

// verifySecretKey verifies a secret key against its bcrypt hash
func (s *AuthService) verifySecretKey(secretKey, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(secretKey))
	return err == nil
}

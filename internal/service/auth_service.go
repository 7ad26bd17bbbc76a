package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/testimonial-service/internal/auth"
	"github.com/spec-kit/testimonial-service/internal/config"
	"github.com/spec-kit/testimonial-service/internal/domain"
	"github.com/spec-kit/testimonial-service/internal/events"
	"github.com/spec-kit/testimonial-service/internal/repository"
	apperrors "github.com/spec-kit/testimonial-service/pkg/util/errorutil"
)

// RegisterInput is the self-service sign-up payload.
type RegisterInput struct {
	Name     string `json:"name" validate:"required,min=4"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,passwordbytes"`
}

// LoginInput carries credentials.
type LoginInput struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// ChangePasswordInput is used by signed-in users.
type ChangePasswordInput struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6,passwordbytes"`
}

// AuthService coordinates registration, credential checks and sessions.
type AuthService struct {
	users       repository.UserRepository
	revocations repository.SessionRevocationRepository
	tokenMgr    *auth.TokenManager
	dispatcher  events.Dispatcher
	validate    *Validator
	logger      *zap.Logger
	bcryptCost  int
	now         func() time.Time
}

// AuthDependencies encapsulates collaborators for the auth service.
type AuthDependencies struct {
	UserRepo       repository.UserRepository
	RevocationRepo repository.SessionRevocationRepository
	Dispatcher     events.Dispatcher
	Logger         *zap.Logger
}

// NewAuthService builds the service. RevocationRepo may be nil, which disables logout revocation.
func NewAuthService(cfg config.AuthConfig, deps AuthDependencies) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		users:       deps.UserRepo,
		revocations: deps.RevocationRepo,
		tokenMgr:    auth.NewTokenManager(cfg.SessionSecret, cfg.SessionTTL()),
		dispatcher:  deps.Dispatcher,
		validate:    NewValidator(),
		logger:      logger,
		bcryptCost:  cfg.BcryptCost,
		now:         time.Now,
	}
}

// Register creates a USER account. A taken email is a validation failure on the email field.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Email = normalizeEmail(input.Email)
	if err := s.validate.Struct(input); err != nil {
		return nil, err
	}

	if _, err := s.users.GetByEmail(ctx, input.Email); err == nil {
		return nil, fieldError("email", "email already registered")
	} else if !isNotFound(err) {
		return nil, storeError(err, "user")
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	user := &domain.User{
		Name:         input.Name,
		Email:        input.Email,
		PasswordHash: hash,
		Role:         domain.RoleUser,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			return nil, fieldError("email", "email already registered")
		}
		return nil, storeError(err, "user")
	}

	s.publish(ctx, events.New(events.EventUserRegistered, user.ID,
		events.Actor{UserID: user.ID, Role: user.Role},
		events.UserRegisteredPayload{Email: user.Email, Role: user.Role}))
	return user, nil
}

// Authenticate checks credentials. Unknown email and wrong password are indistinguishable.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (*domain.Principal, error) {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if isNotFound(err) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, storeError(err, "user")
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, apperrors.ErrInvalidCredentials
	}
	return &domain.Principal{UserID: user.ID, Role: user.Role}, nil
}

// IssueSession signs a session token for principal.
func (s *AuthService) IssueSession(principal domain.Principal) (*domain.Session, error) {
	session, err := s.tokenMgr.GenerateToken(principal)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return session, nil
}

// Login authenticates and issues a session in one step.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*domain.Session, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, err
	}
	principal, err := s.Authenticate(ctx, input.Email, input.Password)
	if err != nil {
		return nil, err
	}
	return s.IssueSession(*principal)
}

// ResolveSession returns the principal behind token, or nil for anything that is not a live session.
// An unreachable revocation store is logged and the token is treated as not revoked.
// The role is re-read from the user store so demotion and deletion apply to live tokens.
func (s *AuthService) ResolveSession(ctx context.Context, token string) *domain.Principal {
	session, err := s.tokenMgr.ParseToken(token)
	if err != nil {
		return nil
	}

	if s.revocations != nil {
		revoked, err := s.revocations.IsRevoked(ctx, session.ID)
		if err != nil {
			s.logger.Warn("session revocation check failed", zap.String("session_id", session.ID), zap.Error(err))
		} else if revoked {
			return nil
		}
	}

	user, err := s.users.GetByID(ctx, session.Principal.UserID)
	if err != nil {
		if !isNotFound(err) {
			s.logger.Warn("session user lookup failed", zap.String("user_id", session.Principal.UserID), zap.Error(err))
		}
		return nil
	}
	return &domain.Principal{UserID: user.ID, Role: user.Role}
}

// Logout revokes token until it would have expired. Invalid tokens are already unusable and are ignored.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	session, err := s.tokenMgr.ParseToken(token)
	if err != nil || s.revocations == nil {
		return nil
	}
	if err := s.revocations.Revoke(ctx, session.ID, session.ExpiresAt.Sub(s.now())); err != nil {
		return apperrors.NewDependencyFailure("session store", err)
	}
	return nil
}

// ChangePassword verifies the current password before storing the new hash.
func (s *AuthService) ChangePassword(ctx context.Context, principal *domain.Principal, input ChangePasswordInput) error {
	if principal == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	if err := s.validate.Struct(input); err != nil {
		return err
	}

	user, err := s.users.GetByID(ctx, principal.UserID)
	if err != nil {
		if isNotFound(err) {
			return apperrors.NewUnauthorized("authentication required")
		}
		return storeError(err, "user")
	}
	if err := auth.ComparePassword(user.PasswordHash, input.CurrentPassword); err != nil {
		return apperrors.ErrInvalidCredentials
	}

	hash, err := auth.HashPassword(input.NewPassword, s.bcryptCost)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	if err := s.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		return storeError(err, "user")
	}
	return nil
}

// EnsureAdmin creates an ADMIN account for email unless one with that email exists.
// It reports whether a row was created.
func (s *AuthService) EnsureAdmin(ctx context.Context, name, email, password string) (bool, error) {
	email = normalizeEmail(email)
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return false, nil
	} else if !isNotFound(err) {
		return false, storeError(err, "user")
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return false, apperrors.NewInternalError(err)
	}
	user := &domain.User{Name: name, Email: email, PasswordHash: hash, Role: domain.RoleAdmin}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			return false, nil
		}
		return false, storeError(err, "user")
	}
	return true, nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

func (s *AuthService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

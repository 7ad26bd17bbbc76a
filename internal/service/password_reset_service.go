package service

import (
	"context"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/testimonial-service/internal/auth"
	"github.com/spec-kit/testimonial-service/internal/config"
	"github.com/spec-kit/testimonial-service/internal/events"
	"github.com/spec-kit/testimonial-service/internal/repository"
	apperrors "github.com/spec-kit/testimonial-service/pkg/util/errorutil"
)

// ResetNotifier delivers the reset link to the account holder.
type ResetNotifier interface {
	SendPasswordReset(ctx context.Context, email, link string) error
}

// RequestResetInput starts a reset.
type RequestResetInput struct {
	Email string `json:"email" validate:"required,email"`
}

// ApplyResetInput completes a reset. The token is the only credential.
type ApplyResetInput struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required,min=6,passwordbytes"`
}

// PasswordResetService runs the request/apply reset flow.
type PasswordResetService struct {
	users      repository.UserRepository
	notifier   ResetNotifier
	dispatcher events.Dispatcher
	validate   *Validator
	logger     *zap.Logger
	baseURL    string
	ttl        time.Duration
	bcryptCost int
	now        func() time.Time
	newToken   func() (string, error)
}

// PasswordResetDependencies bundles collaborators for the reset flow.
type PasswordResetDependencies struct {
	UserRepo   repository.UserRepository
	Notifier   ResetNotifier
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	Clock      func() time.Time
}

// NewPasswordResetService constructs the service.
func NewPasswordResetService(cfg config.Config, deps PasswordResetDependencies) *PasswordResetService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	return &PasswordResetService{
		users:      deps.UserRepo,
		notifier:   deps.Notifier,
		dispatcher: deps.Dispatcher,
		validate:   NewValidator(),
		logger:     logger,
		baseURL:    strings.TrimRight(cfg.App.BaseURL, "/"),
		ttl:        cfg.Auth.PasswordResetTTL(),
		bcryptCost: cfg.Auth.BcryptCost,
		now:        clock,
		newToken:   auth.NewResetToken,
	}
}

// RequestReset issues a token for the account behind email and mails the link.
// Unknown emails are answered with NotFound. A failed send fails the request
// even though the token is already stored; a retry overwrites it.
func (s *PasswordResetService) RequestReset(ctx context.Context, input RequestResetInput) error {
	input.Email = normalizeEmail(input.Email)
	if err := s.validate.Struct(input); err != nil {
		return err
	}

	user, err := s.users.GetByEmail(ctx, input.Email)
	if err != nil {
		return storeError(err, "user")
	}

	token, err := s.newToken()
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	expiresAt := s.now().Add(s.ttl)

	if err := s.users.SetResetToken(ctx, user.ID, token, expiresAt); err != nil {
		return storeError(err, "user")
	}

	if s.notifier == nil {
		return apperrors.NewDependencyFailure("notification", nil)
	}
	if err := s.notifier.SendPasswordReset(ctx, user.Email, s.resetLink(token)); err != nil {
		s.logger.Error("password reset mail failed", zap.String("user_id", user.ID), zap.Error(err))
		return apperrors.NewDependencyFailure("notification", err)
	}

	s.publish(ctx, events.New(events.EventPasswordResetRequested, user.ID, events.Actor{},
		events.PasswordResetPayload{Email: user.Email, ExpiresAt: expiresAt}))
	return nil
}

// ApplyReset sets a new password for the holder of token and consumes the token.
func (s *PasswordResetService) ApplyReset(ctx context.Context, input ApplyResetInput) error {
	input.Token = strings.TrimSpace(input.Token)
	if err := s.validate.Struct(input); err != nil {
		return err
	}

	user, err := s.users.GetByResetToken(ctx, input.Token)
	if err != nil {
		if isNotFound(err) {
			return apperrors.ErrInvalidToken
		}
		return storeError(err, "user")
	}
	if user.ResetTokenExpiry == nil || s.now().After(*user.ResetTokenExpiry) {
		return apperrors.ErrExpiredToken
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	if err := s.users.ResetPassword(ctx, user.ID, input.Token, hash); err != nil {
		if isNotFound(err) {
			return apperrors.ErrInvalidToken
		}
		return storeError(err, "user")
	}

	s.publish(ctx, events.New(events.EventPasswordResetCompleted, user.ID, events.Actor{UserID: user.ID, Role: user.Role},
		events.PasswordResetPayload{Email: user.Email}))
	return nil
}

func (s *PasswordResetService) resetLink(token string) string {
	return s.baseURL + "/reset-password?token=" + url.QueryEscape(token)
}

func (s *PasswordResetService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, event)
}

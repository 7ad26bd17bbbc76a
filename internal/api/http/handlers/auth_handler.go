package handlers

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/testimonial-service/internal/api/dto"
	"github.com/spec-kit/testimonial-service/internal/auth"
	"github.com/spec-kit/testimonial-service/internal/domain"
	"github.com/spec-kit/testimonial-service/internal/service"
	apperrors "github.com/spec-kit/testimonial-service/pkg/util/errorutil"
)

// CookieSettings controls the session cookie.
type CookieSettings struct {
	Name   string
	Secure bool
}

// AuthHandler exposes registration, session and password endpoints.
type AuthHandler struct {
	auth   *service.AuthService
	resets *service.PasswordResetService
	cookie CookieSettings
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService, resets *service.PasswordResetService, cookie CookieSettings) *AuthHandler {
	return &AuthHandler{auth: authService, resets: resets, cookie: cookie}
}

// Register handles POST /api/register.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	user, err := h.auth.Register(c.UserContext(), service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return err
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"data": fiber.Map{"user": dto.NewUserResponse(user)},
	})
}

// Login handles POST /api/login. The token is returned in the body and set as an HttpOnly cookie.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	session, err := h.auth.Login(c.UserContext(), service.LoginInput{Email: req.Email, Password: req.Password})
	if err != nil {
		return err
	}

	h.setSessionCookie(c, session.Token, session.ExpiresAt)
	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"principal": principalResponse(&session.Principal),
			"auth":      dto.AuthResponse{Token: session.Token, ExpiresAt: session.ExpiresAt},
		},
	})
}

// Session handles GET /api/session.
func (h *AuthHandler) Session(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)
	return c.JSON(fiber.Map{"data": principalResponse(principal)})
}

// Logout handles POST /api/logout.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if err := h.auth.Logout(c.UserContext(), auth.SessionTokenFromContext(c)); err != nil {
		return err
	}
	h.setSessionCookie(c, "", time.Unix(0, 0))
	return c.JSON(fiber.Map{"data": dto.MessageResponse{Message: "signed out"}})
}

// ChangePassword handles PUT /api/password.
func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)
	var req dto.ChangePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	err := h.auth.ChangePassword(c.UserContext(), principal, service.ChangePasswordInput{
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.MessageResponse{Message: "password changed"}})
}

// RequestPasswordReset handles POST /api/forgot-password.
func (h *AuthHandler) RequestPasswordReset(c *fiber.Ctx) error {
	var req dto.ForgotPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := h.resets.RequestReset(c.UserContext(), service.RequestResetInput{Email: req.Email}); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.MessageResponse{Message: "reset email sent"}})
}

// ApplyPasswordReset handles PUT /api/forgot-password.
func (h *AuthHandler) ApplyPasswordReset(c *fiber.Ctx) error {
	var req dto.ResetPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := h.resets.ApplyReset(c.UserContext(), service.ApplyResetInput{Token: req.Token, Password: req.Password}); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.MessageResponse{Message: "password changed"}})
}

func (h *AuthHandler) setSessionCookie(c *fiber.Ctx, value string, expires time.Time) {
	c.Cookie(&fiber.Cookie{
		Name:     h.cookie.Name,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HTTPOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

func principalResponse(principal *domain.Principal) dto.PrincipalResponse {
	if principal == nil {
		return dto.PrincipalResponse{}
	}
	return dto.PrincipalResponse{
		UserID:  principal.UserID,
		Role:    principal.Role,
		Landing: auth.LandingPath(principal.Role),
	}
}

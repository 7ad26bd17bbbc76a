package auth

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/testimonial-service/internal/domain"
	apperrors "github.com/spec-kit/testimonial-service/pkg/util/errorutil"
)

const (
	principalKey    = "auth_principal"
	sessionTokenKey = "auth_session_token"
)

// SessionResolver turns a raw session token into a principal, or nil when it is not valid.
type SessionResolver interface {
	ResolveSession(ctx context.Context, token string) *domain.Principal
}

// AuthMiddleware resolves session tokens and attaches principals.
type AuthMiddleware struct {
	sessions   SessionResolver
	cookieName string
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(sessions SessionResolver, cookieName string) *AuthMiddleware {
	return &AuthMiddleware{sessions: sessions, cookieName: cookieName}
}

// Optional attaches the principal when a valid session is presented and always continues.
func (m *AuthMiddleware) Optional(c *fiber.Ctx) error {
	m.attach(c)
	return c.Next()
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	if m.attach(c) == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	return c.Next()
}

// Resolve returns the principal for the request without touching Locals.
func (m *AuthMiddleware) Resolve(c *fiber.Ctx) *domain.Principal {
	if principal, ok := PrincipalFromContext(c); ok {
		return principal
	}
	return m.attach(c)
}

func (m *AuthMiddleware) attach(c *fiber.Ctx) *domain.Principal {
	token := m.tokenFromRequest(c)
	if token == "" {
		return nil
	}
	principal := m.sessions.ResolveSession(c.UserContext(), token)
	if principal == nil {
		return nil
	}
	c.Locals(principalKey, principal)
	c.Locals(sessionTokenKey, token)
	return principal
}

func (m *AuthMiddleware) tokenFromRequest(c *fiber.Ctx) string {
	if m.cookieName != "" {
		if token := c.Cookies(m.cookieName); token != "" {
			return token
		}
	}

	authHeader := c.Get(fiber.HeaderAuthorization)
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// PrincipalFromContext retrieves the authenticated principal.
func PrincipalFromContext(c *fiber.Ctx) (*domain.Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*domain.Principal)
	return principal, ok
}

// SessionTokenFromContext returns the raw token that authenticated the request.
func SessionTokenFromContext(c *fiber.Ctx) string {
	token, _ := c.Locals(sessionTokenKey).(string)
	return token
}

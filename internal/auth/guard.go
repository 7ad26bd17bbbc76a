package auth

import (
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/testimonial-service/internal/domain"
)

// Page paths the route guard knows about.
const (
	LoginPath          = "/login"
	ForgotPasswordPath = "/forgot-password"
	UserAreaPath       = "/testimonials"
	AdminAreaPath      = "/admin"
	HomePath           = "/"
	ReturnToParam      = "from"
)

// GuardAction is the outcome of a route guard decision.
type GuardAction int

const (
	ActionAllow GuardAction = iota
	ActionRedirectToLogin
	ActionRedirectToHome
	ActionRedirectToLanding
)

func (a GuardAction) String() string {
	switch a {
	case ActionAllow:
		return "allow"
	case ActionRedirectToLogin:
		return "redirect_to_login"
	case ActionRedirectToHome:
		return "redirect_to_home"
	case ActionRedirectToLanding:
		return "redirect_to_landing"
	default:
		return "unknown"
	}
}

// Decision pairs an action with the redirect location, empty for ActionAllow.
type Decision struct {
	Action   GuardAction
	Location string
}

// Decide maps a page request and an optional principal to exactly one decision.
// Rules are evaluated in order: auth entry pages, user area, admin area, admin role.
func Decide(path, rawQuery string, principal *domain.Principal) Decision {
	switch {
	case isAuthEntryPath(path):
		if principal != nil {
			return landingFor(principal)
		}
	case hasSegmentPrefix(path, UserAreaPath):
		if principal == nil {
			return loginRedirect(path, rawQuery)
		}
	case hasSegmentPrefix(path, AdminAreaPath):
		if principal == nil {
			return loginRedirect(path, rawQuery)
		}
		if principal.Role != domain.RoleAdmin {
			return Decision{Action: ActionRedirectToLanding, Location: UserAreaPath}
		}
	}
	return Decision{Action: ActionAllow}
}

// IsGuardedPath reports whether Decide can return anything but ActionAllow for path.
func IsGuardedPath(path string) bool {
	return isAuthEntryPath(path) ||
		hasSegmentPrefix(path, UserAreaPath) ||
		hasSegmentPrefix(path, AdminAreaPath)
}

// LandingPath returns the home area for a role.
func LandingPath(role domain.Role) string {
	switch role {
	case domain.RoleAdmin:
		return AdminAreaPath
	case domain.RoleUser:
		return UserAreaPath
	default:
		return HomePath
	}
}

// RouteGuard is the page-level fiber middleware applying Decide before any handler runs.
func RouteGuard(sessions *AuthMiddleware) fiber.Handler {
	return func(c *fiber.Ctx) error {
		path := c.Path()
		if !IsGuardedPath(path) {
			return c.Next()
		}

		decision := Decide(path, string(c.Request().URI().QueryString()), sessions.Resolve(c))
		if decision.Action == ActionAllow {
			return c.Next()
		}
		return c.Redirect(decision.Location, fiber.StatusFound)
	}
}

func landingFor(principal *domain.Principal) Decision {
	location := LandingPath(principal.Role)
	if location == HomePath {
		return Decision{Action: ActionRedirectToHome, Location: HomePath}
	}
	return Decision{Action: ActionRedirectToLanding, Location: location}
}

func loginRedirect(path, rawQuery string) Decision {
	from := path
	if rawQuery != "" {
		from += "?" + rawQuery
	}
	return Decision{
		Action:   ActionRedirectToLogin,
		Location: LoginPath + "?" + ReturnToParam + "=" + url.QueryEscape(from),
	}
}

func isAuthEntryPath(path string) bool {
	return hasSegmentPrefix(path, LoginPath) || hasSegmentPrefix(path, ForgotPasswordPath)
}

func hasSegmentPrefix(path, prefix string) bool {
	if path == prefix {
		return true
	}
	return strings.HasPrefix(path, prefix+"/")
}

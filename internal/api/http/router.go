package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/spec-kit/testimonial-service/internal/api/http/handlers"
	"github.com/spec-kit/testimonial-service/internal/auth"
	"github.com/spec-kit/testimonial-service/internal/domain"
	"github.com/spec-kit/testimonial-service/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Testimonials   *handlers.TestimonialsHandler
	Users          *handlers.UsersHandler
	AuthMiddleware *auth.AuthMiddleware
	Metrics        *observability.Metrics
	StaticDir      string
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(cfg.Metrics.Handler()))
	}

	// Page rules only match page paths, so the guard can sit in front of everything.
	app.Use(auth.RouteGuard(cfg.AuthMiddleware))

	api := app.Group("/api", cfg.AuthMiddleware.Optional)
	session := auth.RequireAuthenticated()
	admin := auth.RequireRole(domain.RoleAdmin)

	api.Post("/register", cfg.Auth.Register)
	api.Post("/login", cfg.Auth.Login)
	api.Post("/forgot-password", cfg.Auth.RequestPasswordReset)
	api.Put("/forgot-password", cfg.Auth.ApplyPasswordReset)
	api.Post("/logout", session, cfg.Auth.Logout)
	api.Get("/session", session, cfg.Auth.Session)
	api.Put("/password", session, cfg.Auth.ChangePassword)

	testimonials := api.Group("/testimonials")
	testimonials.Get("/", cfg.Testimonials.List)
	testimonials.Get("/export", session, cfg.Testimonials.Export)
	testimonials.Get("/user/:id", session, cfg.Testimonials.ListByUser)
	testimonials.Get("/:id", cfg.Testimonials.Get)
	testimonials.Post("/", session, cfg.Testimonials.Create)
	testimonials.Put("/", session, cfg.Testimonials.Update)
	testimonials.Put("/:id", session, cfg.Testimonials.Update)
	testimonials.Delete("/", session, cfg.Testimonials.Delete)
	testimonials.Delete("/:id", session, cfg.Testimonials.Delete)

	users := api.Group("/users", admin)
	users.Get("/", cfg.Users.List)
	users.Get("/export", cfg.Users.Export)
	users.Put("/:id/role", cfg.Users.UpdateRole)
	users.Delete("/:id", cfg.Users.Delete)

	if cfg.StaticDir != "" {
		app.Static("/", cfg.StaticDir)
	}
}

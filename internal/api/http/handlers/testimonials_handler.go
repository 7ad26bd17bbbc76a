package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/testimonial-service/internal/api/dto"
	"github.com/spec-kit/testimonial-service/internal/auth"
	"github.com/spec-kit/testimonial-service/internal/domain"
	"github.com/spec-kit/testimonial-service/internal/service"
	apperrors "github.com/spec-kit/testimonial-service/pkg/util/errorutil"
)

// TestimonialsHandler manages testimonial endpoints.
type TestimonialsHandler struct {
	service *service.TestimonialService
}

// NewTestimonialsHandler constructs handler.
func NewTestimonialsHandler(testimonialService *service.TestimonialService) *TestimonialsHandler {
	return &TestimonialsHandler{service: testimonialService}
}

// List GET /api/testimonials.
func (h *TestimonialsHandler) List(c *fiber.Ctx) error {
	query := parseListQuery(c)
	query.Scope = domain.ScopeAll

	items, err := h.service.List(c.UserContext(), query)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTestimonialList(items)})
}

// ListByUser GET /api/testimonials/user/:id. Owner or ADMIN only.
func (h *TestimonialsHandler) ListByUser(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)
	ownerID := c.Params("id")
	if ownerID == "" {
		return apperrors.NewValidationError("invalid input", map[string]any{"id": "id is required"})
	}
	if !principal.CanModify(ownerID) {
		return apperrors.NewForbidden("not allowed to view these testimonials")
	}

	query := parseListQuery(c)
	query.Scope = domain.ScopeByOwner
	query.OwnerID = ownerID

	items, err := h.service.List(c.UserContext(), query)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTestimonialList(items)})
}

// Export GET /api/testimonials/export. Admins get every testimonial, users their own.
func (h *TestimonialsHandler) Export(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)

	items, err := h.service.ListForPrincipal(c.UserContext(), principal, parseListQuery(c))
	if err != nil {
		return err
	}
	body, err := h.service.Export(items)
	if err != nil {
		return err
	}

	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="testimonials.csv"`)
	return c.Send(body)
}

// Get GET /api/testimonials/:id.
func (h *TestimonialsHandler) Get(c *fiber.Ctx) error {
	testimonial, err := h.service.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTestimonialResponse(testimonial)})
}

// Create POST /api/testimonials.
func (h *TestimonialsHandler) Create(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)
	var req dto.CreateTestimonialRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	testimonial, err := h.service.Create(c.UserContext(), principal, service.CreateTestimonialInput{
		Content: req.Content,
		OwnerID: req.UserID,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewTestimonialResponse(testimonial)})
}

// Update PUT /api/testimonials and PUT /api/testimonials/:id.
func (h *TestimonialsHandler) Update(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)
	var req dto.UpdateTestimonialRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	id := c.Params("id", req.ID)
	testimonial, err := h.service.Update(c.UserContext(), principal, id, service.UpdateTestimonialInput{Content: req.Content})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTestimonialResponse(testimonial)})
}

// Delete DELETE /api/testimonials and DELETE /api/testimonials/:id.
func (h *TestimonialsHandler) Delete(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)
	id := c.Params("id")
	if id == "" {
		var req dto.DeleteTestimonialRequest
		if err := c.BodyParser(&req); err != nil {
			return apperrors.NewValidationError("invalid payload", nil)
		}
		id = req.ID
	}

	if err := h.service.Delete(c.UserContext(), principal, id); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"success": true}})
}

// parseListQuery reads sortBy, order and search. The legacy ?sort=asc|desc is honored as order.
func parseListQuery(c *fiber.Ctx) service.ListQuery {
	order := c.Query("order")
	if order == "" {
		order = c.Query("sort")
	}
	return service.ListQuery{
		SortBy: domain.SortField(c.Query("sortBy")),
		Order:  domain.SortOrder(order),
		Search: c.Query("search"),
	}
}

package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/testimonial-service/internal/api/dto"
	"github.com/spec-kit/testimonial-service/internal/auth"
	"github.com/spec-kit/testimonial-service/internal/service"
	apperrors "github.com/spec-kit/testimonial-service/pkg/util/errorutil"
)

// UsersHandler exposes account administration.
type UsersHandler struct {
	users *service.UserService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(userService *service.UserService) *UsersHandler {
	return &UsersHandler{users: userService}
}

// List GET /api/users?role=&sortBy=&order=.
func (h *UsersHandler) List(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)
	users, err := h.users.List(c.UserContext(), principal, parseUserListQuery(c))
	if err != nil {
		return err
	}

	items := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		items = append(items, dto.NewUserResponse(&users[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Export GET /api/users/export. Same filters as List.
func (h *UsersHandler) Export(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)
	users, err := h.users.List(c.UserContext(), principal, parseUserListQuery(c))
	if err != nil {
		return err
	}
	body, err := h.users.Export(users)
	if err != nil {
		return err
	}

	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="users.csv"`)
	return c.Send(body)
}

// UpdateRole PUT /api/users/:id/role.
func (h *UsersHandler) UpdateRole(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)
	var req dto.UpdateRoleRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	user, err := h.users.UpdateRole(c.UserContext(), principal, c.Params("id"), service.UpdateRoleInput{Role: req.Role})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponse(user)})
}

// Delete DELETE /api/users/:id.
func (h *UsersHandler) Delete(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)
	if err := h.users.Delete(c.UserContext(), principal, c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"success": true}})
}

func parseUserListQuery(c *fiber.Ctx) service.UserListQuery {
	return service.UserListQuery{
		Role:   c.Query("role"),
		SortBy: c.Query("sortBy"),
		Order:  c.Query("order"),
	}
}

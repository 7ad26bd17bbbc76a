package service

import (
	"context"
	"slices"
	"sort"
	"strings"

	"github.com/spec-kit/testimonial-service/internal/domain"
	"github.com/spec-kit/testimonial-service/internal/repository"
	apperrors "github.com/spec-kit/testimonial-service/pkg/util/errorutil"
)

// UpdateRoleInput changes an account role. Matching is case-sensitive.
type UpdateRoleInput struct {
	Role string `json:"role" validate:"required,oneof=USER ADMIN"`
}

// UserListQuery filters and orders the account listing. Without SortBy the
// listing is newest first; sorting by name defaults to ascending.
type UserListQuery struct {
	Role   string `json:"role" validate:"omitempty,oneof=USER ADMIN"`
	SortBy string `json:"sortBy" validate:"omitempty,oneof=createdAt name"`
	Order  string `json:"order" validate:"omitempty,oneof=asc desc"`
}

// UserService exposes account administration to ADMIN principals.
type UserService struct {
	users    repository.UserRepository
	validate *Validator
}

// NewUserService constructs the service.
func NewUserService(users repository.UserRepository) *UserService {
	return &UserService{users: users, validate: NewValidator()}
}

// List returns the accounts selected by query.
func (s *UserService) List(ctx context.Context, principal *domain.Principal, query UserListQuery) ([]domain.User, error) {
	if err := requireAdmin(principal); err != nil {
		return nil, err
	}
	query.Order = strings.ToLower(query.Order)
	if err := s.validate.Struct(query); err != nil {
		return nil, err
	}

	users, err := s.users.List(ctx)
	if err != nil {
		return nil, storeError(err, "user")
	}

	filtered := make([]domain.User, 0, len(users))
	for _, user := range users {
		if query.Role == "" || string(user.Role) == query.Role {
			filtered = append(filtered, user)
		}
	}
	sortUsers(filtered, query.SortBy, query.Order)
	return filtered, nil
}

// UpdateRole sets the role of the account identified by id.
func (s *UserService) UpdateRole(ctx context.Context, principal *domain.Principal, id string, input UpdateRoleInput) (*domain.User, error) {
	if err := requireAdmin(principal); err != nil {
		return nil, err
	}
	if strings.TrimSpace(id) == "" {
		return nil, fieldError("id", "id is required")
	}
	if err := s.validate.Struct(input); err != nil {
		return nil, err
	}

	role := domain.Role(input.Role)
	if err := s.users.UpdateRole(ctx, id, role); err != nil {
		return nil, storeError(err, "user")
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "user")
	}
	return user, nil
}

// Delete removes the account and, through the foreign key, its testimonials.
// An admin cannot delete their own account.
func (s *UserService) Delete(ctx context.Context, principal *domain.Principal, id string) error {
	if err := requireAdmin(principal); err != nil {
		return err
	}
	if strings.TrimSpace(id) == "" {
		return fieldError("id", "id is required")
	}
	if id == principal.UserID {
		return fieldError("id", "cannot delete your own account")
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return storeError(err, "user")
	}
	return nil
}

// sortUsers orders users in place. The store returns newest first, so an
// ascending creation order is its reverse.
func sortUsers(users []domain.User, sortBy, order string) {
	if sortBy == "name" {
		sort.SliceStable(users, func(i, j int) bool {
			c := strings.Compare(strings.ToLower(users[i].Name), strings.ToLower(users[j].Name))
			if order == "desc" {
				return c > 0
			}
			return c < 0
		})
		return
	}
	if order == "asc" {
		slices.Reverse(users)
	}
}

func requireAdmin(principal *domain.Principal) error {
	if !principal.IsAdmin() {
		return apperrors.NewUnauthorized("unauthorized")
	}
	return nil
}

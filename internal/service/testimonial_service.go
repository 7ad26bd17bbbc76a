package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/spec-kit/testimonial-service/internal/domain"
	"github.com/spec-kit/testimonial-service/internal/events"
	"github.com/spec-kit/testimonial-service/internal/repository"
	apperrors "github.com/spec-kit/testimonial-service/pkg/util/errorutil"
)

// CreateTestimonialInput is the create payload. OwnerID is accepted for
// compatibility and ignored; ownership comes from the session.
type CreateTestimonialInput struct {
	Content string `json:"content" validate:"required,min=10,max=150"`
	OwnerID string `json:"userId" validate:"-"`
}

// UpdateTestimonialInput replaces the content of a testimonial.
type UpdateTestimonialInput struct {
	Content string `json:"content" validate:"required,min=10,max=150"`
}

// ListQuery selects, filters and orders a testimonial listing.
type ListQuery struct {
	Scope   domain.ListScope
	OwnerID string
	SortBy  domain.SortField
	Order   domain.SortOrder
	Search  string
}

// TestimonialService enforces ownership and validation for testimonials.
type TestimonialService struct {
	testimonials repository.TestimonialRepository
	dispatcher   events.Dispatcher
	validate     *Validator
	logger       *zap.Logger
}

// TestimonialDependencies bundles collaborators for the testimonial service.
type TestimonialDependencies struct {
	TestimonialRepo repository.TestimonialRepository
	Dispatcher      events.Dispatcher
	Logger          *zap.Logger
}

// NewTestimonialService constructs the service.
func NewTestimonialService(deps TestimonialDependencies) *TestimonialService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TestimonialService{
		testimonials: deps.TestimonialRepo,
		dispatcher:   deps.Dispatcher,
		validate:     NewValidator(),
		logger:       logger,
	}
}

// Create stores a testimonial owned by principal.
func (s *TestimonialService) Create(ctx context.Context, principal *domain.Principal, input CreateTestimonialInput) (*domain.Testimonial, error) {
	if principal == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}

	input.Content = strings.TrimSpace(input.Content)
	if err := s.validate.Struct(input); err != nil {
		return nil, err
	}

	testimonial := &domain.Testimonial{
		Content: input.Content,
		OwnerID: principal.UserID,
	}
	if err := s.testimonials.Create(ctx, testimonial); err != nil {
		if errors.Is(err, repository.ErrOwnerNotFound) {
			return nil, apperrors.NewUnauthorized("authentication required")
		}
		return nil, storeError(err, "testimonial")
	}

	s.publish(ctx, events.EventTestimonialCreated, principal, testimonial)
	return testimonial, nil
}

// Get returns a single testimonial.
func (s *TestimonialService) Get(ctx context.Context, id string) (*domain.Testimonial, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fieldError("id", "id is required")
	}
	testimonial, err := s.testimonials.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "testimonial")
	}
	return testimonial, nil
}

// Update replaces the content. Checks run in order: existence, ownership, content.
func (s *TestimonialService) Update(ctx context.Context, principal *domain.Principal, id string, input UpdateTestimonialInput) (*domain.Testimonial, error) {
	testimonial, err := s.authorize(ctx, principal, id)
	if err != nil {
		return nil, err
	}

	input.Content = strings.TrimSpace(input.Content)
	if err := s.validate.Struct(input); err != nil {
		return nil, err
	}

	testimonial.Content = input.Content
	if err := s.testimonials.UpdateContent(ctx, testimonial); err != nil {
		return nil, storeError(err, "testimonial")
	}

	s.publish(ctx, events.EventTestimonialUpdated, principal, testimonial)
	return testimonial, nil
}

// Delete removes a testimonial after the same checks as Update.
func (s *TestimonialService) Delete(ctx context.Context, principal *domain.Principal, id string) error {
	testimonial, err := s.authorize(ctx, principal, id)
	if err != nil {
		return err
	}

	if err := s.testimonials.Delete(ctx, testimonial.ID); err != nil {
		return storeError(err, "testimonial")
	}

	s.publish(ctx, events.EventTestimonialDeleted, principal, testimonial)
	return nil
}

func (s *TestimonialService) authorize(ctx context.Context, principal *domain.Principal, id string) (*domain.Testimonial, error) {
	if principal == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	if strings.TrimSpace(id) == "" {
		return nil, fieldError("id", "id is required")
	}

	testimonial, err := s.testimonials.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "testimonial")
	}
	if !principal.CanModify(testimonial.OwnerID) {
		return nil, apperrors.NewForbidden("not allowed to modify this testimonial")
	}
	return testimonial, nil
}

// List returns the testimonials selected by query, searched and sorted.
func (s *TestimonialService) List(ctx context.Context, query ListQuery) ([]domain.Testimonial, error) {
	query, err := normalizeListQuery(query)
	if err != nil {
		return nil, err
	}

	filter := repository.TestimonialFilter{}
	if query.Scope == domain.ScopeByOwner {
		filter.OwnerID = &query.OwnerID
	}

	items, err := s.testimonials.List(ctx, filter)
	if err != nil {
		return nil, storeError(err, "testimonial")
	}

	items = searchTestimonials(items, query.Search, query.Scope == domain.ScopeAll)
	sortTestimonials(items, query.SortBy, query.Order)
	if items == nil {
		items = []domain.Testimonial{}
	}
	return items, nil
}

// ListForPrincipal lists everything for an ADMIN and only the caller's own testimonials otherwise.
func (s *TestimonialService) ListForPrincipal(ctx context.Context, principal *domain.Principal, query ListQuery) ([]domain.Testimonial, error) {
	if principal == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	if principal.IsAdmin() {
		query.Scope = domain.ScopeAll
		query.OwnerID = ""
	} else {
		query.Scope = domain.ScopeByOwner
		query.OwnerID = principal.UserID
	}
	return s.List(ctx, query)
}

func normalizeListQuery(query ListQuery) (ListQuery, error) {
	if query.Scope == "" {
		query.Scope = domain.ScopeAll
	}
	switch query.Scope {
	case domain.ScopeAll:
	case domain.ScopeByOwner:
		if strings.TrimSpace(query.OwnerID) == "" {
			return query, fieldError("userId", "userId is required")
		}
	default:
		return query, fieldError("scope", "scope must be one of: all owner")
	}

	if query.SortBy == "" {
		query.SortBy = domain.SortByCreatedAt
	}
	switch query.SortBy {
	case domain.SortByCreatedAt, domain.SortByContent:
	case domain.SortByName:
		if query.Scope == domain.ScopeByOwner {
			query.SortBy = domain.SortByCreatedAt
		}
	default:
		return query, fieldError("sortBy", "sortBy must be one of: createdAt name content")
	}

	if query.Order == "" {
		query.Order = domain.SortDesc
	}
	if query.Order != domain.SortAsc && query.Order != domain.SortDesc {
		return query, fieldError("order", "order must be one of: asc desc")
	}

	query.Search = strings.TrimSpace(query.Search)
	return query, nil
}

// searchTestimonials keeps items whose content, or owner name when includeOwner is set,
// contains term case-insensitively.
func searchTestimonials(items []domain.Testimonial, term string, includeOwner bool) []domain.Testimonial {
	if term == "" {
		return items
	}
	needle := strings.ToLower(term)
	filtered := items[:0]
	for _, item := range items {
		if strings.Contains(strings.ToLower(item.Content), needle) ||
			(includeOwner && strings.Contains(strings.ToLower(item.OwnerName), needle)) {
			filtered = append(filtered, item)
		}
	}
	return filtered
}

// sortTestimonials orders items in place. Equal keys keep their incoming order in both directions.
func sortTestimonials(items []domain.Testimonial, field domain.SortField, order domain.SortOrder) {
	compare := func(a, b domain.Testimonial) int {
		switch field {
		case domain.SortByName:
			return strings.Compare(a.OwnerName, b.OwnerName)
		case domain.SortByContent:
			return strings.Compare(a.Content, b.Content)
		default:
			return a.CreatedAt.Compare(b.CreatedAt)
		}
	}

	sort.SliceStable(items, func(i, j int) bool {
		c := compare(items[i], items[j])
		if order == domain.SortAsc {
			return c < 0
		}
		return c > 0
	})
}

func (s *TestimonialService) publish(ctx context.Context, eventType events.EventType, principal *domain.Principal, testimonial *domain.Testimonial) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.New(eventType, testimonial.ID, events.ActorFrom(principal),
		events.TestimonialPayload{
			OwnerID:     testimonial.OwnerID,
			ContentSize: utf8.RuneCountInString(testimonial.Content),
		}))
}

package dto

import (
	"time"

	"github.com/spec-kit/testimonial-service/internal/domain"
)

// CreateTestimonialRequest payload. UserID is ignored by the server.
type CreateTestimonialRequest struct {
	Content string `json:"content"`
	UserID  string `json:"userId"`
}

// UpdateTestimonialRequest payload. ID may instead come from the path.
type UpdateTestimonialRequest struct {
	ID      string `json:"id"`
	Content string `json:"content"`
}

// DeleteTestimonialRequest payload. ID may instead come from the path.
type DeleteTestimonialRequest struct {
	ID string `json:"id"`
}

// TestimonialOwner is the owner summary embedded in a testimonial.
type TestimonialOwner struct {
	Name string `json:"name"`
}

// TestimonialResponse is the public view of a testimonial.
type TestimonialResponse struct {
	ID        string           `json:"id"`
	Content   string           `json:"content"`
	UserID    string           `json:"userId"`
	User      TestimonialOwner `json:"user"`
	CreatedAt time.Time        `json:"createdAt"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

// NewTestimonialResponse maps a domain testimonial.
func NewTestimonialResponse(t *domain.Testimonial) TestimonialResponse {
	return TestimonialResponse{
		ID:        t.ID,
		Content:   t.Content,
		UserID:    t.OwnerID,
		User:      TestimonialOwner{Name: t.OwnerName},
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}

// NewTestimonialList maps a slice, never returning nil.
func NewTestimonialList(items []domain.Testimonial) []TestimonialResponse {
	out := make([]TestimonialResponse, 0, len(items))
	for i := range items {
		out = append(out, NewTestimonialResponse(&items[i]))
	}
	return out
}

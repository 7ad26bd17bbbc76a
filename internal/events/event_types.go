package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/testimonial-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventUserRegistered         EventType = "user_registered"
	EventPasswordResetRequested EventType = "password_reset_requested"
	EventPasswordResetCompleted EventType = "password_reset_completed"
	EventTestimonialCreated     EventType = "testimonial_created"
	EventTestimonialUpdated     EventType = "testimonial_updated"
	EventTestimonialDeleted     EventType = "testimonial_deleted"
)

// Actor identifies who triggered an event. Anonymous flows leave UserID empty.
type Actor struct {
	UserID string      `json:"user_id,omitempty"`
	Role   domain.Role `json:"role,omitempty"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	SubjectID string    `json:"subject_id"`
	Actor     Actor     `json:"actor"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload,omitempty"`
}

// New builds an event with a fresh id and UTC timestamp.
func New(eventType EventType, subjectID string, actor Actor, payload any) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		SubjectID: subjectID,
		Actor:     actor,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// ActorFrom converts a principal; nil gives an anonymous actor.
func ActorFrom(principal *domain.Principal) Actor {
	if principal == nil {
		return Actor{}
	}
	return Actor{UserID: principal.UserID, Role: principal.Role}
}

// UserRegisteredPayload payload.
type UserRegisteredPayload struct {
	Email string      `json:"email"`
	Role  domain.Role `json:"role"`
}

// PasswordResetPayload payload. The token itself is never carried.
type PasswordResetPayload struct {
	Email     string    `json:"email,omitempty"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

// TestimonialPayload payload.
type TestimonialPayload struct {
	OwnerID     string `json:"owner_id"`
	ContentSize int    `json:"content_size"`
}

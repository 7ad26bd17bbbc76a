package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/testimonial-service/internal/events"
	"github.com/spec-kit/testimonial-service/internal/observability"
)

// NotificationService turns domain events into audit log lines and counters.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	metrics    *observability.Metrics
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, metrics *observability.Metrics) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		metrics:    metrics,
	}
}

// RegisterHandlers subscribes to events and returns the types it subscribed to.
func (n *NotificationService) RegisterHandlers() []events.EventType {
	if n.dispatcher == nil {
		return nil
	}
	handlers := []struct {
		eventType events.EventType
		handle    events.EventHandler
	}{
		{events.EventUserRegistered, n.handleUserRegistered},
		{events.EventPasswordResetRequested, n.handlePasswordReset},
		{events.EventPasswordResetCompleted, n.handlePasswordReset},
		{events.EventTestimonialCreated, n.handleTestimonialChanged},
		{events.EventTestimonialUpdated, n.handleTestimonialChanged},
		{events.EventTestimonialDeleted, n.handleTestimonialChanged},
	}

	subscribed := make([]events.EventType, 0, len(handlers))
	for _, h := range handlers {
		n.dispatcher.Subscribe(h.eventType, h.handle)
		subscribed = append(subscribed, h.eventType)
	}
	return subscribed
}

func (n *NotificationService) handleUserRegistered(_ context.Context, event events.Event) error {
	n.audit(event, zap.Any("payload", event.Payload))
	return nil
}

func (n *NotificationService) handlePasswordReset(_ context.Context, event events.Event) error {
	fields := []zap.Field{}
	if payload, ok := event.Payload.(events.PasswordResetPayload); ok && !payload.ExpiresAt.IsZero() {
		fields = append(fields, zap.Time("expires_at", payload.ExpiresAt))
	}
	n.audit(event, fields...)
	return nil
}

func (n *NotificationService) handleTestimonialChanged(_ context.Context, event events.Event) error {
	fields := []zap.Field{zap.String("actor_role", string(event.Actor.Role))}
	if payload, ok := event.Payload.(events.TestimonialPayload); ok {
		fields = append(fields,
			zap.String("owner_id", payload.OwnerID),
			zap.Int("content_size", payload.ContentSize),
		)
	}
	n.audit(event, fields...)
	return nil
}

func (n *NotificationService) audit(event events.Event, extra ...zap.Field) {
	fields := append([]zap.Field{
		zap.String("event_id", event.ID),
		zap.String("event_type", string(event.Type)),
		zap.String("subject_id", event.SubjectID),
		zap.String("actor_id", event.Actor.UserID),
	}, extra...)
	n.logger.Info("audit", fields...)
	n.metrics.RecordEvent(string(event.Type))
}

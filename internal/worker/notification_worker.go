package worker

import (
	"go.uber.org/zap"

	"github.com/spec-kit/testimonial-service/internal/service"
)

// StartNotificationWorker registers the audit subscribers on the dispatcher.
// Events are handled inline with Publish, so there is no goroutine to stop.
func StartNotificationWorker(notificationService *service.NotificationService, logger *zap.Logger) {
	if notificationService == nil {
		return
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	subscribed := notificationService.RegisterHandlers()
	types := make([]string, 0, len(subscribed))
	for _, eventType := range subscribed {
		types = append(types, string(eventType))
	}
	logger.Info("notification worker started", zap.Strings("events", types))
}

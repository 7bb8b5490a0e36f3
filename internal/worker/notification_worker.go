package worker

import (
	"github.com/spec-kit/command-center/internal/service"
)

// StartNotificationWorker subscribes the notification service to lock events.
func StartNotificationWorker(notificationService *service.NotificationService) {
	if notificationService == nil {
		return
	}
	notificationService.RegisterHandlers()
}

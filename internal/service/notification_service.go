package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/command-center/internal/config"
	"github.com/spec-kit/command-center/internal/events"
)

// NotificationService forwards committed lock changes to an external webhook
// so on-site supervisors hear about restrictions without watching the board.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventLockCommitted, n.handleLockCommitted)
}

func (n *NotificationService) handleLockCommitted(ctx context.Context, event events.Event) error {
	n.logger.Info("LockCommitted",
		zap.String("role_account", string(event.RoleAccount)),
		zap.String("actor", event.Actor),
		zap.Any("payload", event.Payload))
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) sendWebhookNotificationStub(_ context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("sendWebhookNotificationStub",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("role_account", string(event.RoleAccount)),
		zap.String("event_type", string(event.Type)))
}

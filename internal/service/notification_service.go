package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/todo-service/internal/config"
	"github.com/spec-kit/todo-service/internal/events"
)

// NotificationService handles emitting notifications for domain events.
// Delivery is a logging stub; the webhook URL is recorded for when a real
// sender is plugged in.
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
	n.dispatcher.Subscribe(events.EventTaskCreated, n.handleTaskCreated)
	n.dispatcher.Subscribe(events.EventTaskCompleted, n.handleTaskCompleted)
	n.dispatcher.Subscribe(events.EventTaskDeleted, n.handleTaskDeleted)
}

func (n *NotificationService) handleTaskCreated(_ context.Context, event events.Event) error {
	n.logger.Info("notify: task created",
		zap.String("task_id", event.TaskID),
		zap.String("owner_id", event.OwnerID),
		zap.String("webhook", n.cfg.WebhookURL),
	)
	return nil
}

func (n *NotificationService) handleTaskCompleted(_ context.Context, event events.Event) error {
	n.logger.Info("notify: task completed",
		zap.String("task_id", event.TaskID),
		zap.String("owner_id", event.OwnerID),
	)
	return nil
}

func (n *NotificationService) handleTaskDeleted(_ context.Context, event events.Event) error {
	n.logger.Info("notify: task deleted",
		zap.String("task_id", event.TaskID),
		zap.String("owner_id", event.OwnerID),
	)
	return nil
}

package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/helpdeskhq/helpdesk/internal/config"
	"github.com/helpdeskhq/helpdesk/internal/events"
)

// NotificationService turns domain events into email and webhook notifications.
// Delivery is stubbed as log lines until real transports are configured.
type NotificationService struct {
	logger   *zap.Logger
	cfg      config.NotificationConfig
	handlers map[events.EventType]events.EventHandler
}

// NewNotificationService creates the service.
func NewNotificationService(logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	n := &NotificationService{
		logger: logger,
		cfg:    cfg,
	}
	n.handlers = map[events.EventType]events.EventHandler{
		events.EventUserSignedUp:  n.handleUserSignedUp,
		events.EventTicketCreated: n.handleTicketCreated,
		events.EventTicketUpdated: n.handleTicketUpdated,
		events.EventTicketDeleted: n.handleTicketDeleted,
	}
	return n
}

// EventTypes lists the events the service reacts to.
func (n *NotificationService) EventTypes() []events.EventType {
	return []events.EventType{
		events.EventUserSignedUp,
		events.EventTicketCreated,
		events.EventTicketUpdated,
		events.EventTicketDeleted,
	}
}

// Handle routes event to its notification handler. Unknown events are ignored.
func (n *NotificationService) Handle(ctx context.Context, event events.Event) error {
	handler, ok := n.handlers[event.Type]
	if !ok {
		return nil
	}
	return handler(ctx, event)
}

func (n *NotificationService) handleUserSignedUp(ctx context.Context, event events.Event) error {
	n.logger.Info("UserSignedUp", zap.String("user_id", event.UserID))
	n.sendEmailNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleTicketCreated(ctx context.Context, event events.Event) error {
	n.logger.Info("TicketCreated", zap.String("ticket_id", event.TicketID), zap.Any("payload", event.Payload))
	n.sendEmailNotificationStub(ctx, event)
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleTicketUpdated(ctx context.Context, event events.Event) error {
	n.logger.Info("TicketUpdated", zap.String("ticket_id", event.TicketID), zap.Any("payload", event.Payload))
	if payload, ok := event.Payload.(events.TicketUpdatedPayload); ok && payload.OldStatus != payload.NewStatus {
		n.sendEmailNotificationStub(ctx, event)
	}
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleTicketDeleted(ctx context.Context, event events.Event) error {
	n.logger.Info("TicketDeleted", zap.String("ticket_id", event.TicketID))
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) sendEmailNotificationStub(_ context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.EmailFrom) == "" {
		return
	}
	n.logger.Debug("sendEmailNotificationStub",
		zap.String("from", n.cfg.EmailFrom),
		zap.String("user_id", event.UserID),
		zap.String("ticket_id", event.TicketID),
		zap.String("event_type", string(event.Type)))
}

func (n *NotificationService) sendWebhookNotificationStub(_ context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("sendWebhookNotificationStub",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("ticket_id", event.TicketID),
		zap.String("event_type", string(event.Type)))
}

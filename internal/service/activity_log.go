package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/events"
)

// ActivityLog writes every domain event to the structured log. It stands in
// for notification delivery, which lives outside this service.
type ActivityLog struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewActivityLog creates the subscriber.
func NewActivityLog(dispatcher events.Dispatcher, logger *zap.Logger) *ActivityLog {
	return &ActivityLog{dispatcher: dispatcher, logger: logger}
}

// RegisterHandlers subscribes to events.
func (a *ActivityLog) RegisterHandlers() {
	if a.dispatcher == nil {
		return
	}
	for _, eventType := range events.AllEventTypes {
		a.dispatcher.Subscribe(eventType, a.handle)
	}
}

func (a *ActivityLog) handle(_ context.Context, event events.Event) error {
	a.logger.Info("ticket activity",
		zap.String("event_id", event.ID),
		zap.String("event_type", string(event.Type)),
		zap.String("ticket_id", event.TicketID),
		zap.String("actor_id", event.Actor.UserID),
		zap.String("actor_role", string(event.Actor.Role)),
		zap.Any("payload", event.Payload))
	return nil
}

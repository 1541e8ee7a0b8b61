package worker

import (
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/service"
)

// StartActivityWorker subscribes the activity log to every ticket event.
func StartActivityWorker(dispatcher events.Dispatcher, logger *zap.Logger) *service.ActivityLog {
	if dispatcher == nil {
		return nil
	}
	activity := service.NewActivityLog(dispatcher, logger.Named("activity"))
	activity.RegisterHandlers()
	return activity
}

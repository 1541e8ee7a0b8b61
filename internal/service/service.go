package service

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

// denied returns Unauthorized for an anonymous caller and PermissionDenied
// otherwise.
func denied(principal *domain.Principal, message string) error {
	if principal == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	return apperrors.NewPermissionDenied(message)
}

// lookupErr turns a missing reference row into NotFound and leaves other
// errors alone.
func lookupErr(resource, id string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NewNotFound(resource, map[string]any{"id": id})
	}
	return err
}

// dayRange converts inclusive calendar dates into a half-open created_at
// range in loc. Either bound may be nil.
func dayRange(from, to *time.Time, loc *time.Location) (*time.Time, *time.Time) {
	var start, end *time.Time
	if from != nil {
		s := startOfDay(*from, loc)
		start = &s
	}
	if to != nil {
		e := startOfDay(*to, loc).AddDate(0, 0, 1)
		end = &e
	}
	return start, end
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

func publish(ctx context.Context, dispatcher events.Dispatcher, logger *zap.Logger, event events.Event) {
	if dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	if err := dispatcher.Publish(ctx, event); err != nil {
		logger.Warn("event handler failed",
			zap.String("event_type", string(event.Type)),
			zap.String("ticket_id", event.TicketID),
			zap.Error(err))
	}
}

// stringPreview shortens body to at most max characters.
func stringPreview(body string, max int) string {
	body = strings.TrimSpace(body)
	if utf8.RuneCountInString(body) <= max {
		return body
	}
	runes := []rune(body)
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}

func derefString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

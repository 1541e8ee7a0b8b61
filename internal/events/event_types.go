package events

import (
	"time"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated     EventType = "ticket_created"
	EventTicketUpdated     EventType = "ticket_updated"
	EventCommentAdded      EventType = "ticket_comment_added"
	EventAttachmentAdded   EventType = "ticket_attachment_added"
	EventBulkActionApplied EventType = "ticket_bulk_action_applied"
)

// AllEventTypes lists every event type, for subscribers that want all of them.
var AllEventTypes = []EventType{
	EventTicketCreated,
	EventTicketUpdated,
	EventCommentAdded,
	EventAttachmentAdded,
	EventBulkActionApplied,
}

// Actor encapsulates actor metadata for an event.
type Actor struct {
	UserID string      `json:"user_id"`
	Role   domain.Role `json:"role"`
}

// ActorFrom builds an Actor from a principal.
func ActorFrom(principal *domain.Principal) Actor {
	if principal == nil {
		return Actor{}
	}
	return Actor{UserID: principal.UserID, Role: principal.Role}
}

// Event represents a domain event emitted by services after commit.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id,omitempty"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	TicketNumber string `json:"ticket_number"`
	DepartmentID string `json:"department_id"`
	PriorityID   string `json:"priority_id"`
	SubmitterID  string `json:"submitter_id"`
	DueDate      string `json:"due_date,omitempty"`
}

// FieldChange is one tracked field edit.
type FieldChange struct {
	Field    string `json:"field"`
	OldValue string `json:"old_value"`
	NewValue string `json:"new_value"`
}

// TicketUpdatedPayload payload.
type TicketUpdatedPayload struct {
	Changes []FieldChange `json:"changes"`
}

// CommentAddedPayload payload.
type CommentAddedPayload struct {
	CommentID   string `json:"comment_id"`
	IsInternal  bool   `json:"is_internal"`
	BodyPreview string `json:"body_preview"`
}

// AttachmentAddedPayload payload.
type AttachmentAddedPayload struct {
	AttachmentID string `json:"attachment_id"`
	Filename     string `json:"filename"`
	SizeBytes    int64  `json:"size_bytes"`
}

// BulkActionPayload payload.
type BulkActionPayload struct {
	Action    string   `json:"action"`
	TicketIDs []string `json:"ticket_ids"`
	Affected  int      `json:"affected"`
}

package domain

import "time"

// History actions.
const (
	HistoryActionCreated    = "Ticket Created"
	HistoryActionChanged    = "Field Changed"
	HistoryActionComment    = "Comment Added"
	HistoryActionAttachment = "Attachment Added"
	HistoryActionBulkPrefix = "Bulk "
)

// TicketHistory is an immutable audit trail entry.
type TicketHistory struct {
	ID           string
	TicketID     string
	UserID       string
	Action       string
	FieldChanged string
	OldValue     string
	NewValue     string
	CreatedAt    time.Time
}

package domain

import (
	"strings"
	"time"
)

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "open"
	TicketStatusInProgress TicketStatus = "in_progress"
	TicketStatusPending    TicketStatus = "pending"
	TicketStatusResolved   TicketStatus = "resolved"
	TicketStatusClosed     TicketStatus = "closed"
	TicketStatusCancelled  TicketStatus = "cancelled"
)

// TicketStatuses lists every status in lifecycle order.
var TicketStatuses = []TicketStatus{
	TicketStatusOpen,
	TicketStatusInProgress,
	TicketStatusPending,
	TicketStatusResolved,
	TicketStatusClosed,
	TicketStatusCancelled,
}

// ActiveStatuses are the statuses a ticket can be overdue in.
var ActiveStatuses = []TicketStatus{
	TicketStatusOpen,
	TicketStatusInProgress,
	TicketStatusPending,
}

// Valid reports whether s is one of the known statuses.
func (s TicketStatus) Valid() bool {
	for _, known := range TicketStatuses {
		if s == known {
			return true
		}
	}
	return false
}

var statusLabels = map[TicketStatus]string{
	TicketStatusOpen:       "Open",
	TicketStatusInProgress: "In Progress",
	TicketStatusPending:    "Pending",
	TicketStatusResolved:   "Resolved",
	TicketStatusClosed:     "Closed",
	TicketStatusCancelled:  "Cancelled",
}

// Label returns the display name of the status.
func (s TicketStatus) Label() string {
	if label, ok := statusLabels[s]; ok {
		return label
	}
	return string(s)
}

// Ticket is the aggregate for support requests.
type Ticket struct {
	ID           string
	TicketNumber string
	Title        string
	Description  string
	SubmitterID  string
	AssigneeID   *string
	DepartmentID string
	CategoryID   string
	PriorityID   string
	Status       TicketStatus
	Tags         string
	Resolution   string
	DueDate      *time.Time
	ResolvedAt   *time.Time
	ClosedAt     *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Version      int64
}

// IsOverdue is true while the ticket is past due and not yet resolved or closed.
func (t *Ticket) IsOverdue(now time.Time) bool {
	if t.DueDate == nil {
		return false
	}
	if t.Status == TicketStatusResolved || t.Status == TicketStatusClosed {
		return false
	}
	return now.After(*t.DueDate)
}

// IsAssignedTo reports whether userID is the current assignee.
func (t *Ticket) IsAssignedTo(userID string) bool {
	return t.AssigneeID != nil && *t.AssigneeID == userID
}

// TagList splits the comma separated tags.
func (t *Ticket) TagList() []string {
	var tags []string
	for _, part := range strings.Split(t.Tags, ",") {
		if tag := strings.TrimSpace(part); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

// Clone returns a deep copy of the ticket.
func (t Ticket) Clone() Ticket {
	t.AssigneeID = cloneString(t.AssigneeID)
	t.DueDate = cloneTime(t.DueDate)
	t.ResolvedAt = cloneTime(t.ResolvedAt)
	t.ClosedAt = cloneTime(t.ClosedAt)
	return t
}

func cloneString(v *string) *string {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}

func cloneTime(v *time.Time) *time.Time {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}

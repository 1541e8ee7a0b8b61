package dto

import (
	"time"

	"github.com/spec-kit/helpdesk/internal/access"
	"github.com/spec-kit/helpdesk/internal/domain"
)

// CreateTicketRequest payload. submitter_id, assigned_to and due_date are
// honored for staff only.
type CreateTicketRequest struct {
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	DepartmentID string     `json:"department_id"`
	CategoryID   string     `json:"category_id"`
	PriorityID   string     `json:"priority_id"`
	Tags         string     `json:"tags"`
	SubmitterID  string     `json:"submitter_id"`
	AssignedTo   *string    `json:"assigned_to"`
	DueDate      *time.Time `json:"due_date"`
}

// UpdateTicketRequest payload; omitted fields stay unchanged.
type UpdateTicketRequest struct {
	Title        *string              `json:"title"`
	Description  *string              `json:"description"`
	Tags         *string              `json:"tags"`
	DepartmentID *string              `json:"department_id"`
	CategoryID   *string              `json:"category_id"`
	PriorityID   *string              `json:"priority_id"`
	Status       *domain.TicketStatus `json:"status"`
	AssignedTo   *string              `json:"assigned_to"`
	Unassign     bool                 `json:"unassign"`
	Resolution   *string              `json:"resolution"`
	DueDate      *time.Time           `json:"due_date"`
}

// CreateCommentRequest payload.
type CreateCommentRequest struct {
	Body       string `json:"body"`
	IsInternal bool   `json:"is_internal"`
}

// TicketSummary response.
type TicketSummary struct {
	ID           string              `json:"id"`
	TicketNumber string              `json:"ticket_number"`
	Title        string              `json:"title"`
	Status       domain.TicketStatus `json:"status"`
	StatusLabel  string              `json:"status_label"`
	PriorityID   string              `json:"priority_id"`
	DepartmentID string              `json:"department_id"`
	CategoryID   string              `json:"category_id"`
	SubmitterID  string              `json:"submitter_id"`
	AssignedTo   *string             `json:"assigned_to"`
	Tags         []string            `json:"tags"`
	DueDate      *time.Time          `json:"due_date"`
	IsOverdue    bool                `json:"is_overdue"`
	Version      int64               `json:"version"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
}

// TicketListResponse is one page of tickets.
type TicketListResponse struct {
	Data []TicketSummary `json:"data"`
	Meta PageMeta        `json:"meta"`
}

// PageMeta describes the page returned.
type PageMeta struct {
	Total    int `json:"total"`
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

// TicketDetailResponse provides full ticket info.
type TicketDetailResponse struct {
	TicketSummary
	Description string                   `json:"description"`
	Resolution  string                   `json:"resolution"`
	ResolvedAt  *time.Time               `json:"resolved_at"`
	ClosedAt    *time.Time               `json:"closed_at"`
	Comments    []CommentResponse        `json:"comments"`
	Attachments []AttachmentResponse     `json:"attachments"`
	History     []TicketHistoryResponse  `json:"history"`
	Permissions access.TicketPermissions `json:"permissions"`
}

// CommentResponse is one visible comment.
type CommentResponse struct {
	ID         string    `json:"id"`
	AuthorID   string    `json:"author_id"`
	Body       string    `json:"body"`
	IsInternal bool      `json:"is_internal"`
	CreatedAt  time.Time `json:"created_at"`
}

// AttachmentResponse metadata.
type AttachmentResponse struct {
	ID         string    `json:"id"`
	Filename   string    `json:"filename"`
	SizeBytes  int64     `json:"size_bytes"`
	UploadedBy string    `json:"uploaded_by"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// TicketHistoryResponse is one audit entry.
type TicketHistoryResponse struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	Action       string    `json:"action"`
	FieldChanged string    `json:"field_changed,omitempty"`
	OldValue     string    `json:"old_value,omitempty"`
	NewValue     string    `json:"new_value,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

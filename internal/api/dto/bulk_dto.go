package dto

import "github.com/spec-kit/helpdesk/internal/domain"

// BulkActionRequest payload. Only the parameter matching action is read.
type BulkActionRequest struct {
	TicketIDs  []string            `json:"ticket_ids"`
	Action     string              `json:"action"`
	AssignedTo string              `json:"assigned_to"`
	Status     domain.TicketStatus `json:"status"`
	PriorityID string              `json:"priority_id"`
}

// BulkActionResponse reports how many tickets changed.
type BulkActionResponse struct {
	Action   string `json:"action"`
	Affected int    `json:"affected"`
}

// Package lifecycle applies the save-time rules of a ticket: number
// assignment, due date derivation, one-shot resolution and close stamps.
package lifecycle

import (
	"context"
	"fmt"
	"time"

	"github.com/spec-kit/helpdesk/internal/domain"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

// NumberSource allocates ticket numbers.
type NumberSource interface {
	Generate(ctx context.Context) (string, error)
}

// Machine runs the before-save steps. Any status may follow any other; only
// membership in the known set is checked.
type Machine struct {
	numbers NumberSource
	now     func() time.Time
}

// NewMachine builds a Machine. A nil clock uses time.Now.
func NewMachine(numbers NumberSource, now func() time.Time) *Machine {
	if now == nil {
		now = time.Now
	}
	return &Machine{numbers: numbers, now: now}
}

// Now returns the machine clock.
func (m *Machine) Now() time.Time {
	return m.now()
}

// ValidateStatus rejects values outside the six known statuses.
func ValidateStatus(status domain.TicketStatus) error {
	if !status.Valid() {
		return apperrors.NewValidationError("invalid status", map[string]any{"status": string(status)})
	}
	return nil
}

// BeforeSave mutates ticket in place ahead of a write. priority must be the
// ticket's current priority; it is only read when the due date is unset.
func (m *Machine) BeforeSave(ctx context.Context, ticket *domain.Ticket, priority *domain.Priority) error {
	if err := ValidateStatus(ticket.Status); err != nil {
		return err
	}
	now := m.now()
	if ticket.CreatedAt.IsZero() {
		ticket.CreatedAt = now
	}

	if ticket.TicketNumber == "" {
		number, err := m.numbers.Generate(ctx)
		if err != nil {
			return fmt.Errorf("assign ticket number: %w", err)
		}
		ticket.TicketNumber = number
	}

	if ticket.DueDate == nil && priority != nil {
		due := ticket.CreatedAt.Add(priority.ResponseTime())
		ticket.DueDate = &due
	}

	if ticket.Status == domain.TicketStatusResolved && ticket.ResolvedAt == nil {
		stamp := now
		ticket.ResolvedAt = &stamp
	}
	if ticket.Status == domain.TicketStatusClosed && ticket.ClosedAt == nil {
		stamp := now
		ticket.ClosedAt = &stamp
	}

	ticket.UpdatedAt = now
	return nil
}

// ForceClose sets the ticket closed and stamps closed_at with now even when
// already stamped. Used by bulk close.
func (m *Machine) ForceClose(ctx context.Context, ticket *domain.Ticket, priority *domain.Priority) error {
	ticket.Status = domain.TicketStatusClosed
	stamp := m.now()
	ticket.ClosedAt = &stamp
	return m.BeforeSave(ctx, ticket, priority)
}

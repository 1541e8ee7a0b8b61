package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/access"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/lifecycle"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

// BulkAction names one of the supported bulk operations.
type BulkAction string

const (
	BulkAssign   BulkAction = "assign"
	BulkStatus   BulkAction = "status"
	BulkPriority BulkAction = "priority"
	BulkClose    BulkAction = "close"
)

// BulkRequest selects tickets and the action to apply to them. Only the
// parameter of the chosen action is read.
type BulkRequest struct {
	TicketIDs  []string
	Action     BulkAction
	AssigneeID string
	Status     domain.TicketStatus
	PriorityID string
}

// BulkService applies one action to many tickets in a single transaction.
type BulkService struct {
	store      repository.Store
	access     *access.Evaluator
	machine    *lifecycle.Machine
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// BulkDependencies bundles collaborators for the bulk service.
type BulkDependencies struct {
	Store      repository.Store
	Evaluator  *access.Evaluator
	Machine    *lifecycle.Machine
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// NewBulkService constructs the service.
func NewBulkService(deps BulkDependencies) *BulkService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BulkService{
		store:      deps.Store,
		access:     deps.Evaluator,
		machine:    deps.Machine,
		dispatcher: deps.Dispatcher,
		logger:     logger,
	}
}

// Apply mutates every requested ticket inside the caller's scope and returns
// how many were changed. Ids outside the scope are skipped silently. Either
// all matched tickets and their history rows are written, or none.
func (s *BulkService) Apply(ctx context.Context, principal *domain.Principal, req BulkRequest) (int, error) {
	if !s.access.CanBulk(principal) {
		return 0, denied(principal, "bulk actions are staff only")
	}
	if len(req.TicketIDs) == 0 {
		return 0, apperrors.NewValidationError("no tickets selected", nil)
	}
	if err := validateBulkParams(req); err != nil {
		return 0, err
	}

	var affected []string
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		affected = affected[:0]
		if err := s.checkBulkTarget(ctx, tx, req); err != nil {
			return err
		}
		query := access.Scope(principal, repository.TicketQuery{}.WithIDs(req.TicketIDs...))
		tickets, err := tx.Tickets().ListForUpdate(ctx, query)
		if err != nil {
			return err
		}

		priorities := map[string]*domain.Priority{}
		for i := range tickets {
			ticket := &tickets[i]
			if !s.access.CanEdit(principal, ticket) || !s.access.CanEditProtected(principal, ticket) {
				continue
			}
			field, oldValue, newValue, err := s.mutate(ctx, tx, ticket, req, priorities)
			if err != nil {
				return err
			}
			if err := tx.Tickets().Update(ctx, ticket, repository.UpdateOptions{ForceClosedAt: req.Action == BulkClose}); err != nil {
				return err
			}
			if err := tx.History().Create(ctx, &domain.TicketHistory{
				TicketID:     ticket.ID,
				UserID:       principal.UserID,
				Action:       domain.HistoryActionBulkPrefix + string(req.Action),
				FieldChanged: field,
				OldValue:     oldValue,
				NewValue:     newValue,
				CreatedAt:    ticket.UpdatedAt,
			}); err != nil {
				return err
			}
			affected = append(affected, ticket.ID)
		}
		return nil
	})
	if errors.Is(err, repository.ErrStaleTicket) {
		return 0, apperrors.NewConcurrencyConflict("ticket was modified during bulk action", err)
	}
	if err != nil {
		return 0, err
	}

	s.logger.Info("bulk action applied",
		zap.String("action", string(req.Action)),
		zap.Int("requested", len(req.TicketIDs)),
		zap.Int("affected", len(affected)))
	publish(ctx, s.dispatcher, s.logger, events.Event{
		Type:  events.EventBulkActionApplied,
		Actor: events.ActorFrom(principal),
		Payload: events.BulkActionPayload{
			Action:    string(req.Action),
			TicketIDs: affected,
			Affected:  len(affected),
		},
	})
	return len(affected), nil
}

// mutate applies the action to ticket and runs the save rules. It returns
// the changed field with its old and new values.
func (s *BulkService) mutate(ctx context.Context, tx repository.Store, ticket *domain.Ticket, req BulkRequest, priorities map[string]*domain.Priority) (string, string, string, error) {
	var field, oldValue, newValue string
	switch req.Action {
	case BulkAssign:
		field, oldValue, newValue = "assigned_to", derefString(ticket.AssigneeID), req.AssigneeID
		assignee := req.AssigneeID
		ticket.AssigneeID = &assignee
	case BulkStatus:
		field, oldValue, newValue = "status", string(ticket.Status), string(req.Status)
		ticket.Status = req.Status
	case BulkPriority:
		field, oldValue, newValue = "priority", ticket.PriorityID, req.PriorityID
		ticket.PriorityID = req.PriorityID
	case BulkClose:
		field, oldValue, newValue = "status", string(ticket.Status), string(domain.TicketStatusClosed)
	}

	priority, ok := priorities[ticket.PriorityID]
	if !ok {
		loaded, err := tx.Priorities().GetByID(ctx, ticket.PriorityID)
		if err != nil {
			return "", "", "", lookupErr("priority", ticket.PriorityID, err)
		}
		priorities[ticket.PriorityID] = loaded
		priority = loaded
	}

	if req.Action == BulkClose {
		return field, oldValue, newValue, s.machine.ForceClose(ctx, ticket, priority)
	}
	return field, oldValue, newValue, s.machine.BeforeSave(ctx, ticket, priority)
}

// checkBulkTarget verifies the referenced assignee or priority exists.
func (s *BulkService) checkBulkTarget(ctx context.Context, tx repository.Store, req BulkRequest) error {
	switch req.Action {
	case BulkAssign:
		return validateAssignee(ctx, tx, req.AssigneeID)
	case BulkPriority:
		if _, err := tx.Priorities().GetByID(ctx, req.PriorityID); err != nil {
			return lookupErr("priority", req.PriorityID, err)
		}
	}
	return nil
}

func validateBulkParams(req BulkRequest) error {
	switch req.Action {
	case BulkAssign:
		if req.AssigneeID == "" {
			return apperrors.NewValidationError("assign requires an assignee", nil)
		}
	case BulkStatus:
		if req.Status == "" {
			return apperrors.NewValidationError("status action requires a status", nil)
		}
		return lifecycle.ValidateStatus(req.Status)
	case BulkPriority:
		if req.PriorityID == "" {
			return apperrors.NewValidationError("priority action requires a priority", nil)
		}
	case BulkClose:
	default:
		return apperrors.NewValidationError("unknown bulk action", map[string]any{"action": string(req.Action)})
	}
	return nil
}

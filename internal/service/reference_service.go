package service

import (
	"context"
	"errors"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository"
)

// ReferenceService exposes the read-only lookup tables ticket forms need.
type ReferenceService struct {
	store repository.Store
}

// NewReferenceService constructs the service.
func NewReferenceService(store repository.Store) *ReferenceService {
	return &ReferenceService{store: store}
}

// Departments lists departments by name.
func (s *ReferenceService) Departments(ctx context.Context, activeOnly bool) ([]domain.Department, error) {
	return s.store.Departments().List(ctx, activeOnly)
}

// Categories lists the active categories of a department. When ticketID
// names an existing ticket, its current category is kept in the list even
// if inactive.
func (s *ReferenceService) Categories(ctx context.Context, departmentID, ticketID string) ([]domain.Category, error) {
	if _, err := s.store.Departments().GetByID(ctx, departmentID); err != nil {
		return nil, lookupErr("department", departmentID, err)
	}
	var include *string
	if ticketID != "" {
		ticket, err := s.store.Tickets().GetByID(ctx, ticketID)
		switch {
		case err == nil:
			include = &ticket.CategoryID
		case !errors.Is(err, repository.ErrNotFound):
			return nil, err
		}
	}
	return s.store.Categories().ListByDepartment(ctx, departmentID, include)
}

// Priorities lists priorities by level.
func (s *ReferenceService) Priorities(ctx context.Context) ([]domain.Priority, error) {
	return s.store.Priorities().List(ctx)
}

// SLAs lists the service level targets.
func (s *ReferenceService) SLAs(ctx context.Context) ([]domain.SLA, error) {
	return s.store.SLAs().List(ctx)
}

package service

import (
	"context"
	"errors"
	"time"

	"github.com/spec-kit/helpdesk/internal/access"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository"
)

const exportTimeLayout = "2006-01-02 15:04"

// ExportHeader is the first CSV record of a ticket export.
var ExportHeader = []string{
	"Ticket Number", "Title", "Status", "Priority", "Department",
	"Category", "Submitter", "Assigned To", "Created At", "Resolved At",
}

// ExportRow is one ticket flattened to display strings.
type ExportRow struct {
	TicketNumber string
	Title        string
	Status       string
	Priority     string
	Department   string
	Category     string
	Submitter    string
	AssignedTo   string
	CreatedAt    string
	ResolvedAt   string
}

// Record returns the row in ExportHeader order.
func (r ExportRow) Record() []string {
	return []string{
		r.TicketNumber, r.Title, r.Status, r.Priority, r.Department,
		r.Category, r.Submitter, r.AssignedTo, r.CreatedAt, r.ResolvedAt,
	}
}

// Export flattens the caller's scoped tickets created within the optional
// inclusive date range. Staff only.
func (s *TicketService) Export(ctx context.Context, principal *domain.Principal, from, to *time.Time) ([]ExportRow, error) {
	if !s.access.CanExport(principal) {
		return nil, denied(principal, "export is staff only")
	}
	query := repository.TicketQuery{}
	if from != nil || to != nil {
		query = query.WithCreatedRange(dayRange(from, to, s.loc))
	}
	tickets, err := s.store.Tickets().List(ctx, access.Scope(principal, query))
	if err != nil {
		return nil, err
	}

	names, err := s.exportNames(ctx, tickets)
	if err != nil {
		return nil, err
	}
	rows := make([]ExportRow, 0, len(tickets))
	for i := range tickets {
		ticket := &tickets[i]
		row := ExportRow{
			TicketNumber: ticket.TicketNumber,
			Title:        ticket.Title,
			Status:       ticket.Status.Label(),
			Priority:     names.lookup(names.priorities, ticket.PriorityID),
			Department:   names.lookup(names.departments, ticket.DepartmentID),
			Category:     names.lookup(names.categories, ticket.CategoryID),
			Submitter:    names.lookup(names.users, ticket.SubmitterID),
			AssignedTo:   "Unassigned",
			CreatedAt:    ticket.CreatedAt.In(s.loc).Format(exportTimeLayout),
		}
		if ticket.AssigneeID != nil {
			row.AssignedTo = names.lookup(names.users, *ticket.AssigneeID)
		}
		if ticket.ResolvedAt != nil {
			row.ResolvedAt = ticket.ResolvedAt.In(s.loc).Format(exportTimeLayout)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

type exportNames struct {
	departments map[string]string
	categories  map[string]string
	priorities  map[string]string
	users       map[string]string
}

func (exportNames) lookup(names map[string]string, id string) string {
	if name, ok := names[id]; ok {
		return name
	}
	return id
}

func (s *TicketService) exportNames(ctx context.Context, tickets []domain.Ticket) (*exportNames, error) {
	names := &exportNames{
		departments: map[string]string{},
		categories:  map[string]string{},
		priorities:  map[string]string{},
		users:       map[string]string{},
	}
	departments, err := s.store.Departments().List(ctx, false)
	if err != nil {
		return nil, err
	}
	for _, dept := range departments {
		names.departments[dept.ID] = dept.Name
	}
	priorities, err := s.store.Priorities().List(ctx)
	if err != nil {
		return nil, err
	}
	for _, priority := range priorities {
		names.priorities[priority.ID] = priority.Name
	}

	userIDs := []string{}
	seen := map[string]struct{}{}
	addUser := func(id string) {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			userIDs = append(userIDs, id)
		}
	}
	for i := range tickets {
		ticket := &tickets[i]
		addUser(ticket.SubmitterID)
		if ticket.AssigneeID != nil {
			addUser(*ticket.AssigneeID)
		}
		if _, ok := names.categories[ticket.CategoryID]; ok {
			continue
		}
		category, err := s.store.Categories().GetByID(ctx, ticket.CategoryID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				continue
			}
			return nil, err
		}
		names.categories[category.ID] = category.Name
	}
	profiles, err := s.store.Profiles().ListByUserIDs(ctx, userIDs)
	if err != nil {
		return nil, err
	}
	for _, profile := range profiles {
		names.users[profile.UserID] = profile.DisplayName()
	}
	return names, nil
}

// Package memory is an in-process repository.Store. It backs tests and runs
// the service when no Postgres DSN is configured.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository"
)

type data struct {
	tickets     map[string]domain.Ticket
	comments    []domain.TicketComment
	attachments []domain.TicketAttachment
	history     []domain.TicketHistory
	departments map[string]domain.Department
	categories  map[string]domain.Category
	priorities  map[string]domain.Priority
	slas        map[string]domain.SLA
	profiles    map[string]domain.Profile
}

func newData() *data {
	return &data{
		tickets:     map[string]domain.Ticket{},
		departments: map[string]domain.Department{},
		categories:  map[string]domain.Category{},
		priorities:  map[string]domain.Priority{},
		slas:        map[string]domain.SLA{},
		profiles:    map[string]domain.Profile{},
	}
}

func (d *data) clone() *data {
	out := newData()
	for k, v := range d.tickets {
		out.tickets[k] = v.Clone()
	}
	out.comments = append(out.comments, d.comments...)
	out.attachments = append(out.attachments, d.attachments...)
	out.history = append(out.history, d.history...)
	for k, v := range d.departments {
		out.departments[k] = v
	}
	for k, v := range d.categories {
		out.categories[k] = v
	}
	for k, v := range d.priorities {
		out.priorities[k] = v
	}
	for k, v := range d.slas {
		out.slas[k] = v
	}
	for k, v := range d.profiles {
		if v.DepartmentID != nil {
			dept := *v.DepartmentID
			v.DepartmentID = &dept
		}
		out.profiles[k] = v
	}
	return out
}

// Store keeps all rows in maps guarded by one mutex. WithinTx works on a
// copy and publishes it only when the callback succeeds.
type Store struct {
	mu   *sync.Mutex
	root **data
	tx   *data
}

// NewStore returns an empty store.
func NewStore() *Store {
	d := newData()
	return &Store{mu: &sync.Mutex{}, root: &d}
}

func (s *Store) do(fn func(d *data) error) error {
	if s.tx != nil {
		return fn(s.tx)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(*s.root)
}

// WithinTx serializes transactions; nested calls join the outer one.
func (s *Store) WithinTx(ctx context.Context, fn func(repository.Store) error) error {
	if s.tx != nil {
		return fn(s)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := (*s.root).clone()
	if err := fn(&Store{mu: s.mu, root: s.root, tx: snapshot}); err != nil {
		return err
	}
	*s.root = snapshot
	return nil
}

func (s *Store) Tickets() repository.TicketRepository         { return &ticketRepository{s: s} }
func (s *Store) Comments() repository.TicketCommentRepository { return &commentRepository{s: s} }
func (s *Store) Attachments() repository.AttachmentRepository { return &attachmentRepository{s: s} }
func (s *Store) History() repository.TicketHistoryRepository  { return &historyRepository{s: s} }
func (s *Store) Departments() repository.DepartmentRepository { return &departmentRepository{s: s} }
func (s *Store) Categories() repository.CategoryRepository    { return &categoryRepository{s: s} }
func (s *Store) Priorities() repository.PriorityRepository    { return &priorityRepository{s: s} }
func (s *Store) SLAs() repository.SLARepository               { return &slaRepository{s: s} }
func (s *Store) Profiles() repository.ProfileRepository       { return &profileRepository{s: s} }

func newID() string {
	return uuid.NewString()
}

type ticketRepository struct{ s *Store }

func (r *ticketRepository) Create(_ context.Context, ticket *domain.Ticket) error {
	return r.s.do(func(d *data) error {
		for _, existing := range d.tickets {
			if existing.TicketNumber == ticket.TicketNumber {
				return repository.ErrDuplicateTicketNumber
			}
		}
		ticket.ID = newID()
		ticket.Version = 1
		d.tickets[ticket.ID] = ticket.Clone()
		return nil
	})
}

func (r *ticketRepository) Update(_ context.Context, ticket *domain.Ticket, opts repository.UpdateOptions) error {
	return r.s.do(func(d *data) error {
		stored, ok := d.tickets[ticket.ID]
		if !ok {
			return repository.ErrNotFound
		}
		if stored.Version != ticket.Version {
			return repository.ErrStaleTicket
		}
		next := ticket.Clone()
		if !opts.ForceDueDate && stored.DueDate != nil {
			next.DueDate = stored.DueDate
		}
		if stored.ResolvedAt != nil {
			next.ResolvedAt = stored.ResolvedAt
		}
		if !opts.ForceClosedAt && stored.ClosedAt != nil {
			next.ClosedAt = stored.ClosedAt
		}
		next.TicketNumber = stored.TicketNumber
		next.SubmitterID = stored.SubmitterID
		next.CreatedAt = stored.CreatedAt
		next.Version = stored.Version + 1
		d.tickets[ticket.ID] = next

		out := next.Clone()
		ticket.DueDate = out.DueDate
		ticket.ResolvedAt = out.ResolvedAt
		ticket.ClosedAt = out.ClosedAt
		ticket.Version = out.Version
		return nil
	})
}

func (r *ticketRepository) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	var out domain.Ticket
	err := r.s.do(func(d *data) error {
		ticket, ok := d.tickets[id]
		if !ok {
			return repository.ErrNotFound
		}
		out = ticket.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *ticketRepository) TicketNumberExists(_ context.Context, number string) (bool, error) {
	var exists bool
	err := r.s.do(func(d *data) error {
		for _, ticket := range d.tickets {
			if ticket.TicketNumber == number {
				exists = true
				return nil
			}
		}
		return nil
	})
	return exists, err
}

func (r *ticketRepository) List(_ context.Context, query repository.TicketQuery) ([]domain.Ticket, error) {
	var result []domain.Ticket
	err := r.s.do(func(d *data) error {
		result = filterTickets(d, query)
		sort.Slice(result, func(i, j int) bool {
			if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
				return result[i].CreatedAt.After(result[j].CreatedAt)
			}
			return result[i].ID < result[j].ID
		})
		result = page(result, query)
		return nil
	})
	return result, err
}

func (r *ticketRepository) ListForUpdate(_ context.Context, query repository.TicketQuery) ([]domain.Ticket, error) {
	var result []domain.Ticket
	err := r.s.do(func(d *data) error {
		result = filterTickets(d, query)
		sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
		result = page(result, query)
		return nil
	})
	return result, err
}

func (r *ticketRepository) Count(_ context.Context, query repository.TicketQuery) (int, error) {
	var count int
	err := r.s.do(func(d *data) error {
		count = len(filterTickets(d, query.Unpaged()))
		return nil
	})
	return count, err
}

func filterTickets(d *data, query repository.TicketQuery) []domain.Ticket {
	result := []domain.Ticket{}
	for _, ticket := range d.tickets {
		if query.Matches(&ticket) {
			result = append(result, ticket.Clone())
		}
	}
	return result
}

func page(tickets []domain.Ticket, query repository.TicketQuery) []domain.Ticket {
	if query.Limit <= 0 {
		return tickets
	}
	if query.Offset >= len(tickets) {
		return []domain.Ticket{}
	}
	end := query.Offset + query.Limit
	if end > len(tickets) {
		end = len(tickets)
	}
	return tickets[query.Offset:end]
}

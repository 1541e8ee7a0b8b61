package memory

import (
	"context"
	"sort"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository"
)

type commentRepository struct{ s *Store }

func (r *commentRepository) Create(_ context.Context, comment *domain.TicketComment) error {
	return r.s.do(func(d *data) error {
		comment.ID = newID()
		d.comments = append(d.comments, *comment)
		return nil
	})
}

func (r *commentRepository) ListByTicket(_ context.Context, ticketID string, includeInternal bool) ([]domain.TicketComment, error) {
	var result []domain.TicketComment
	err := r.s.do(func(d *data) error {
		for _, comment := range d.comments {
			if comment.TicketID != ticketID || (comment.IsInternal && !includeInternal) {
				continue
			}
			result = append(result, comment)
		}
		return nil
	})
	return result, err
}

type attachmentRepository struct{ s *Store }

func (r *attachmentRepository) Create(_ context.Context, attachment *domain.TicketAttachment) error {
	return r.s.do(func(d *data) error {
		attachment.ID = newID()
		d.attachments = append(d.attachments, *attachment)
		return nil
	})
}

func (r *attachmentRepository) ListByTicket(_ context.Context, ticketID string) ([]domain.TicketAttachment, error) {
	var result []domain.TicketAttachment
	err := r.s.do(func(d *data) error {
		for _, attachment := range d.attachments {
			if attachment.TicketID == ticketID {
				result = append(result, attachment)
			}
		}
		return nil
	})
	return result, err
}

type historyRepository struct{ s *Store }

func (r *historyRepository) Create(_ context.Context, history *domain.TicketHistory) error {
	return r.s.do(func(d *data) error {
		history.ID = newID()
		d.history = append(d.history, *history)
		return nil
	})
}

func (r *historyRepository) ListByTicket(_ context.Context, ticketID string, limit int) ([]domain.TicketHistory, error) {
	var result []domain.TicketHistory
	err := r.s.do(func(d *data) error {
		for i := len(d.history) - 1; i >= 0; i-- {
			if d.history[i].TicketID != ticketID {
				continue
			}
			result = append(result, d.history[i])
			if limit > 0 && len(result) == limit {
				break
			}
		}
		return nil
	})
	return result, err
}

type departmentRepository struct{ s *Store }

func (r *departmentRepository) GetByID(_ context.Context, id string) (*domain.Department, error) {
	var out domain.Department
	err := r.s.do(func(d *data) error {
		dept, ok := d.departments[id]
		if !ok {
			return repository.ErrNotFound
		}
		out = dept
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *departmentRepository) List(_ context.Context, activeOnly bool) ([]domain.Department, error) {
	var result []domain.Department
	err := r.s.do(func(d *data) error {
		for _, dept := range d.departments {
			if activeOnly && !dept.IsActive {
				continue
			}
			result = append(result, dept)
		}
		return nil
	})
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, err
}

func (r *departmentRepository) Upsert(_ context.Context, dept *domain.Department) error {
	return r.s.do(func(d *data) error {
		for id, existing := range d.departments {
			if existing.Name == dept.Name {
				dept.ID = id
				dept.CreatedAt = existing.CreatedAt
				d.departments[id] = *dept
				return nil
			}
		}
		if dept.ID == "" {
			dept.ID = newID()
		}
		d.departments[dept.ID] = *dept
		return nil
	})
}

type categoryRepository struct{ s *Store }

func (r *categoryRepository) GetByID(_ context.Context, id string) (*domain.Category, error) {
	var out domain.Category
	err := r.s.do(func(d *data) error {
		category, ok := d.categories[id]
		if !ok {
			return repository.ErrNotFound
		}
		out = category
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *categoryRepository) ListByDepartment(_ context.Context, departmentID string, includeID *string) ([]domain.Category, error) {
	var result []domain.Category
	err := r.s.do(func(d *data) error {
		for _, category := range d.categories {
			if category.DepartmentID != departmentID {
				continue
			}
			if category.IsActive || (includeID != nil && category.ID == *includeID) {
				result = append(result, category)
			}
		}
		return nil
	})
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, err
}

func (r *categoryRepository) Upsert(_ context.Context, category *domain.Category) error {
	return r.s.do(func(d *data) error {
		for id, existing := range d.categories {
			if existing.DepartmentID == category.DepartmentID && existing.Name == category.Name {
				category.ID = id
				category.CreatedAt = existing.CreatedAt
				d.categories[id] = *category
				return nil
			}
		}
		if category.ID == "" {
			category.ID = newID()
		}
		d.categories[category.ID] = *category
		return nil
	})
}

type priorityRepository struct{ s *Store }

func (r *priorityRepository) GetByID(_ context.Context, id string) (*domain.Priority, error) {
	var out domain.Priority
	err := r.s.do(func(d *data) error {
		priority, ok := d.priorities[id]
		if !ok {
			return repository.ErrNotFound
		}
		out = priority
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *priorityRepository) List(_ context.Context) ([]domain.Priority, error) {
	var result []domain.Priority
	err := r.s.do(func(d *data) error {
		for _, priority := range d.priorities {
			result = append(result, priority)
		}
		return nil
	})
	sort.Slice(result, func(i, j int) bool { return result[i].Level < result[j].Level })
	return result, err
}

func (r *priorityRepository) Upsert(_ context.Context, priority *domain.Priority) error {
	return r.s.do(func(d *data) error {
		for id, existing := range d.priorities {
			if existing.Level == priority.Level {
				priority.ID = id
				d.priorities[id] = *priority
				return nil
			}
		}
		if priority.ID == "" {
			priority.ID = newID()
		}
		d.priorities[priority.ID] = *priority
		return nil
	})
}

type slaRepository struct{ s *Store }

func (r *slaRepository) List(_ context.Context) ([]domain.SLA, error) {
	var result []domain.SLA
	err := r.s.do(func(d *data) error {
		for _, sla := range d.slas {
			result = append(result, sla)
		}
		return nil
	})
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, err
}

func (r *slaRepository) Upsert(_ context.Context, sla *domain.SLA) error {
	return r.s.do(func(d *data) error {
		for id, existing := range d.slas {
			if existing.DepartmentID == sla.DepartmentID && existing.PriorityID == sla.PriorityID {
				sla.ID = id
				d.slas[id] = *sla
				return nil
			}
		}
		if sla.ID == "" {
			sla.ID = newID()
		}
		d.slas[sla.ID] = *sla
		return nil
	})
}

type profileRepository struct{ s *Store }

func (r *profileRepository) GetByUserID(_ context.Context, userID string) (*domain.Profile, error) {
	var out domain.Profile
	err := r.s.do(func(d *data) error {
		profile, ok := d.profiles[userID]
		if !ok {
			return repository.ErrNotFound
		}
		out = profile
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *profileRepository) ListByUserIDs(_ context.Context, userIDs []string) ([]domain.Profile, error) {
	var result []domain.Profile
	err := r.s.do(func(d *data) error {
		for _, id := range userIDs {
			if profile, ok := d.profiles[id]; ok {
				result = append(result, profile)
			}
		}
		return nil
	})
	sort.Slice(result, func(i, j int) bool { return result[i].UserID < result[j].UserID })
	return result, err
}

func (r *profileRepository) Upsert(_ context.Context, profile *domain.Profile) error {
	return r.s.do(func(d *data) error {
		d.profiles[profile.UserID] = *profile
		return nil
	})
}

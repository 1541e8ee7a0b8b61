package repository

import (
	"strings"
	"time"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// ScopeKind selects which role restriction a TicketQuery carries.
type ScopeKind int

const (
	// ScopeNone matches nothing. It is the zero value so an unscoped query
	// never leaks tickets.
	ScopeNone ScopeKind = iota
	// ScopeAll applies no role restriction.
	ScopeAll
	// ScopeAgent matches tickets assigned to the user or in the department.
	ScopeAgent
	// ScopeSubmitter matches tickets submitted by the user.
	ScopeSubmitter
	// ScopeDepartment matches tickets of the department only.
	ScopeDepartment
)

// TicketScope is the role restriction part of a TicketQuery.
type TicketScope struct {
	Kind         ScopeKind
	UserID       string
	DepartmentID *string
}

// TicketQuery is an immutable predicate over tickets. All set predicates are
// combined with AND. Limit zero means no limit.
type TicketQuery struct {
	Scope         TicketScope
	IDs           []string
	Statuses      []domain.TicketStatus
	PriorityID    *string
	DepartmentID  *string
	CategoryID    *string
	AssigneeID    *string
	CreatedFrom   *time.Time
	CreatedBefore *time.Time
	DueBefore     *time.Time
	Search        string
	Limit         int
	Offset        int
}

// WithScope returns a copy restricted by scope.
func (q TicketQuery) WithScope(scope TicketScope) TicketQuery {
	scope.DepartmentID = copyString(scope.DepartmentID)
	q.Scope = scope
	return q
}

// WithIDs returns a copy restricted to ids.
func (q TicketQuery) WithIDs(ids ...string) TicketQuery {
	q.IDs = append([]string(nil), ids...)
	return q
}

// WithStatuses returns a copy restricted to statuses.
func (q TicketQuery) WithStatuses(statuses ...domain.TicketStatus) TicketQuery {
	q.Statuses = append([]domain.TicketStatus(nil), statuses...)
	return q
}

// WithPriority returns a copy restricted to a priority.
func (q TicketQuery) WithPriority(id string) TicketQuery {
	q.PriorityID = &id
	return q
}

// WithDepartment returns a copy restricted to a department.
func (q TicketQuery) WithDepartment(id string) TicketQuery {
	q.DepartmentID = &id
	return q
}

// WithCategory returns a copy restricted to a category.
func (q TicketQuery) WithCategory(id string) TicketQuery {
	q.CategoryID = &id
	return q
}

// WithAssignee returns a copy restricted to an assignee.
func (q TicketQuery) WithAssignee(id string) TicketQuery {
	q.AssigneeID = &id
	return q
}

// WithCreatedRange returns a copy bounded to created_at in [from, before).
// Either bound may be nil.
func (q TicketQuery) WithCreatedRange(from, before *time.Time) TicketQuery {
	q.CreatedFrom = copyTime(from)
	q.CreatedBefore = copyTime(before)
	return q
}

// WithDueBefore returns a copy restricted to tickets due strictly before t.
func (q TicketQuery) WithDueBefore(t time.Time) TicketQuery {
	q.DueBefore = &t
	return q
}

// WithSearch returns a copy with a case-insensitive text search.
func (q TicketQuery) WithSearch(term string) TicketQuery {
	q.Search = strings.TrimSpace(term)
	return q
}

// WithPage returns a copy with pagination applied.
func (q TicketQuery) WithPage(limit, offset int) TicketQuery {
	if limit < 0 {
		limit = 0
	}
	if offset < 0 {
		offset = 0
	}
	q.Limit = limit
	q.Offset = offset
	return q
}

// Unpaged drops pagination, for counting.
func (q TicketQuery) Unpaged() TicketQuery {
	q.Limit = 0
	q.Offset = 0
	return q
}

// Matches evaluates the predicate against a single ticket.
func (q TicketQuery) Matches(t *domain.Ticket) bool {
	if !q.Scope.matches(t) {
		return false
	}
	if len(q.IDs) > 0 && !containsString(q.IDs, t.ID) {
		return false
	}
	if len(q.Statuses) > 0 && !containsStatus(q.Statuses, t.Status) {
		return false
	}
	if q.PriorityID != nil && t.PriorityID != *q.PriorityID {
		return false
	}
	if q.DepartmentID != nil && t.DepartmentID != *q.DepartmentID {
		return false
	}
	if q.CategoryID != nil && t.CategoryID != *q.CategoryID {
		return false
	}
	if q.AssigneeID != nil && !t.IsAssignedTo(*q.AssigneeID) {
		return false
	}
	if q.CreatedFrom != nil && t.CreatedAt.Before(*q.CreatedFrom) {
		return false
	}
	if q.CreatedBefore != nil && !t.CreatedAt.Before(*q.CreatedBefore) {
		return false
	}
	if q.DueBefore != nil && (t.DueDate == nil || !t.DueDate.Before(*q.DueBefore)) {
		return false
	}
	if q.Search != "" {
		term := strings.ToLower(q.Search)
		if !strings.Contains(strings.ToLower(t.Title), term) &&
			!strings.Contains(strings.ToLower(t.Description), term) &&
			!strings.Contains(strings.ToLower(t.TicketNumber), term) {
			return false
		}
	}
	return true
}

func (s TicketScope) matches(t *domain.Ticket) bool {
	switch s.Kind {
	case ScopeAll:
		return true
	case ScopeAgent:
		if t.IsAssignedTo(s.UserID) {
			return true
		}
		return s.DepartmentID != nil && t.DepartmentID == *s.DepartmentID
	case ScopeSubmitter:
		return s.UserID != "" && t.SubmitterID == s.UserID
	case ScopeDepartment:
		return s.DepartmentID != nil && t.DepartmentID == *s.DepartmentID
	default:
		return false
	}
}

func containsString(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}

func containsStatus(values []domain.TicketStatus, v domain.TicketStatus) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}

func copyString(v *string) *string {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}

func copyTime(v *time.Time) *time.Time {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}

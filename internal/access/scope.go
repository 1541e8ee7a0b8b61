package access

import (
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository"
)

// Scope narrows base to the tickets principal may see. List, detail, stats,
// export and bulk all go through here.
func Scope(principal *domain.Principal, base repository.TicketQuery) repository.TicketQuery {
	if principal == nil {
		return base.WithScope(repository.TicketScope{Kind: repository.ScopeNone})
	}
	switch principal.Role {
	case domain.RoleSupervisor:
		return base.WithScope(repository.TicketScope{Kind: repository.ScopeAll})
	case domain.RoleAgent:
		return base.WithScope(repository.TicketScope{
			Kind:         repository.ScopeAgent,
			UserID:       principal.UserID,
			DepartmentID: principal.DepartmentID,
		})
	default:
		return base.WithScope(repository.TicketScope{
			Kind:   repository.ScopeSubmitter,
			UserID: principal.UserID,
		})
	}
}

// ReportScope narrows base for reporting: supervisors see everything, anyone
// else only their own department.
func ReportScope(principal *domain.Principal, base repository.TicketQuery) repository.TicketQuery {
	if principal == nil {
		return base.WithScope(repository.TicketScope{Kind: repository.ScopeNone})
	}
	if principal.Role == domain.RoleSupervisor {
		return base.WithScope(repository.TicketScope{Kind: repository.ScopeAll})
	}
	return base.WithScope(repository.TicketScope{
		Kind:         repository.ScopeDepartment,
		DepartmentID: principal.DepartmentID,
	})
}

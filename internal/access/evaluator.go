// Package access decides what a principal may do with tickets and which
// tickets a principal may see.
package access

import (
	"fmt"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// Action is a ticket level or global capability.
type Action string

const (
	ActionView             Action = "view"
	ActionEdit             Action = "edit"
	ActionComment          Action = "comment"
	ActionUpload           Action = "upload"
	ActionEditProtected    Action = "edit_protected"
	ActionInternalComments Action = "internal_comments"
	ActionCreateOnBehalf   Action = "create_on_behalf"
	ActionBulk             Action = "bulk"
	ActionViewReports      Action = "view_reports"
	ActionExport           Action = "export"
)

// Relation is how a principal relates to a ticket.
type Relation string

const (
	RelationAny        Relation = "any"
	RelationAssigned   Relation = "assigned"
	RelationDepartment Relation = "department"
	RelationSubmitter  Relation = "submitter"
	RelationGlobal     Relation = "global"
	relationNone       Relation = "none"
)

const modelText = `
[request_definition]
r = sub, act, rel

[policy_definition]
p = sub, act, rel

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = r.sub == p.sub && r.act == p.act && (p.rel == "any" || r.rel == p.rel)
`

// DefaultPolicy is the role capability matrix.
func DefaultPolicy() [][]string {
	var rules [][]string
	add := func(role domain.Role, rel Relation, actions ...Action) {
		for _, act := range actions {
			rules = append(rules, []string{string(role), string(act), string(rel)})
		}
	}
	ticketActions := []Action{ActionView, ActionEdit, ActionComment, ActionUpload}

	add(domain.RoleSupervisor, RelationAny, ticketActions...)
	add(domain.RoleSupervisor, RelationAny, ActionEditProtected)
	add(domain.RoleSupervisor, RelationGlobal,
		ActionInternalComments, ActionCreateOnBehalf, ActionBulk, ActionViewReports, ActionExport)

	add(domain.RoleAgent, RelationAssigned, ticketActions...)
	add(domain.RoleAgent, RelationDepartment, ticketActions...)
	add(domain.RoleAgent, RelationAssigned, ActionEditProtected)
	add(domain.RoleAgent, RelationDepartment, ActionEditProtected)
	add(domain.RoleAgent, RelationGlobal,
		ActionInternalComments, ActionCreateOnBehalf, ActionBulk, ActionViewReports, ActionExport)

	add(domain.RoleSubmitter, RelationSubmitter, ticketActions...)
	return rules
}

// Evaluator answers permission questions. It has no side effects and is safe
// for concurrent use.
type Evaluator struct {
	enforcer *casbin.SyncedEnforcer
}

// NewEvaluator builds an evaluator over DefaultPolicy.
func NewEvaluator() (*Evaluator, error) {
	return NewEvaluatorWithPolicy(DefaultPolicy())
}

// NewEvaluatorWithPolicy builds an evaluator over explicit policy rows of
// (role, action, relation).
func NewEvaluatorWithPolicy(rules [][]string) (*Evaluator, error) {
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, fmt.Errorf("access model: %w", err)
	}
	enforcer, err := casbin.NewSyncedEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("access enforcer: %w", err)
	}
	if len(rules) > 0 {
		if _, err := enforcer.AddPolicies(rules); err != nil {
			return nil, fmt.Errorf("access policy: %w", err)
		}
	}
	return &Evaluator{enforcer: enforcer}, nil
}

// Relations lists how principal relates to ticket.
func Relations(principal *domain.Principal, ticket *domain.Ticket) []Relation {
	if principal == nil || ticket == nil {
		return nil
	}
	var rels []Relation
	if ticket.IsAssignedTo(principal.UserID) {
		rels = append(rels, RelationAssigned)
	}
	if principal.InDepartment(ticket.DepartmentID) {
		rels = append(rels, RelationDepartment)
	}
	if ticket.SubmitterID == principal.UserID {
		rels = append(rels, RelationSubmitter)
	}
	return rels
}

// Can reports whether principal may perform act on ticket.
func (e *Evaluator) Can(principal *domain.Principal, act Action, ticket *domain.Ticket) bool {
	if principal == nil || ticket == nil {
		return false
	}
	rels := Relations(principal, ticket)
	if len(rels) == 0 {
		rels = []Relation{relationNone}
	}
	for _, rel := range rels {
		if e.enforce(principal.Role, act, rel) {
			return true
		}
	}
	return false
}

// Has reports whether principal holds a global capability.
func (e *Evaluator) Has(principal *domain.Principal, act Action) bool {
	if principal == nil {
		return false
	}
	return e.enforce(principal.Role, act, RelationGlobal)
}

func (e *Evaluator) enforce(role domain.Role, act Action, rel Relation) bool {
	ok, err := e.enforcer.Enforce(string(role), string(act), string(rel))
	return err == nil && ok
}

// CanView reports whether p may read t.
func (e *Evaluator) CanView(p *domain.Principal, t *domain.Ticket) bool { return e.Can(p, ActionView, t) }

// CanEdit reports whether p may change the non-protected fields of t.
func (e *Evaluator) CanEdit(p *domain.Principal, t *domain.Ticket) bool { return e.Can(p, ActionEdit, t) }

// CanComment reports whether p may add a public comment to t.
func (e *Evaluator) CanComment(p *domain.Principal, t *domain.Ticket) bool {
	return e.Can(p, ActionComment, t)
}

// CanUpload reports whether p may attach files to t.
func (e *Evaluator) CanUpload(p *domain.Principal, t *domain.Ticket) bool { return e.Can(p, ActionUpload, t) }

// CanEditProtected covers status, priority, assignment, resolution and due date.
func (e *Evaluator) CanEditProtected(p *domain.Principal, t *domain.Ticket) bool {
	return e.Can(p, ActionEditProtected, t)
}

// CanUseInternalComments covers both reading and writing internal comments.
func (e *Evaluator) CanUseInternalComments(p *domain.Principal) bool {
	return e.Has(p, ActionInternalComments)
}

// CanCreateOnBehalf reports whether p may file tickets for other users and
// preset assignee or due date.
func (e *Evaluator) CanCreateOnBehalf(p *domain.Principal) bool { return e.Has(p, ActionCreateOnBehalf) }

// CanBulk reports whether p may run bulk actions.
func (e *Evaluator) CanBulk(p *domain.Principal) bool { return e.Has(p, ActionBulk) }

// CanViewReports reports whether p may read aggregate reports.
func (e *Evaluator) CanViewReports(p *domain.Principal) bool { return e.Has(p, ActionViewReports) }

// CanExport reports whether p may download the CSV export.
func (e *Evaluator) CanExport(p *domain.Principal) bool { return e.Has(p, ActionExport) }

// TicketPermissions are the per-ticket flags handed to the presentation layer.
type TicketPermissions struct {
	CanEdit          bool `json:"can_edit"`
	CanComment       bool `json:"can_comment"`
	CanUpload        bool `json:"can_upload"`
	CanEditProtected bool `json:"can_edit_protected"`
}

// Permissions evaluates the presentation flags for ticket.
func (e *Evaluator) Permissions(p *domain.Principal, t *domain.Ticket) TicketPermissions {
	return TicketPermissions{
		CanEdit:          e.CanEdit(p, t),
		CanComment:       e.CanComment(p, t),
		CanUpload:        e.CanUpload(p, t),
		CanEditProtected: e.CanEditProtected(p, t),
	}
}

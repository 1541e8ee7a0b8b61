package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// UpdateOptions lifts the set-if-null rule for explicitly overridden fields.
type UpdateOptions struct {
	ForceDueDate  bool
	ForceClosedAt bool
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	// Create inserts the ticket and fills ID and Version. A taken ticket
	// number yields ErrDuplicateTicketNumber.
	Create(ctx context.Context, ticket *domain.Ticket) error
	// Update writes the ticket if its Version is current. DueDate, ResolvedAt
	// and ClosedAt are only written when still null in the store, unless
	// forced by opts. The stored values and the new Version are copied back.
	Update(ctx context.Context, ticket *domain.Ticket, opts UpdateOptions) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	TicketNumberExists(ctx context.Context, number string) (bool, error)
	List(ctx context.Context, query TicketQuery) ([]domain.Ticket, error)
	Count(ctx context.Context, query TicketQuery) (int, error)
	// ListForUpdate is List with row locks, for use inside WithinTx.
	ListForUpdate(ctx context.Context, query TicketQuery) ([]domain.Ticket, error)
}

const ticketColumns = `id, ticket_number, title, description, submitter_id, assigned_to_id, department_id,
               category_id, priority_id, status, tags, resolution, due_date, resolved_at, closed_at,
               created_at, updated_at, version`

type ticketRepository struct {
	db DBTX
}

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (ticket_number, title, description, submitter_id, assigned_to_id, department_id,
            category_id, priority_id, status, tags, resolution, due_date, resolved_at, closed_at, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
        RETURNING id, version`
	err := r.db.QueryRow(ctx, query,
		ticket.TicketNumber,
		ticket.Title,
		ticket.Description,
		ticket.SubmitterID,
		ticket.AssigneeID,
		ticket.DepartmentID,
		ticket.CategoryID,
		ticket.PriorityID,
		string(ticket.Status),
		ticket.Tags,
		ticket.Resolution,
		ticket.DueDate,
		ticket.ResolvedAt,
		ticket.ClosedAt,
		ticket.CreatedAt,
		ticket.UpdatedAt,
	).Scan(&ticket.ID, &ticket.Version)
	if isUniqueViolation(err, ticketNumberConstraint) {
		return ErrDuplicateTicketNumber
	}
	return err
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket, opts UpdateOptions) error {
	const query = `
        UPDATE tickets SET title=$1, description=$2, assigned_to_id=$3, department_id=$4, category_id=$5,
            priority_id=$6, status=$7, tags=$8, resolution=$9,
            due_date = CASE WHEN $10::boolean THEN $11::timestamptz ELSE COALESCE(due_date, $11::timestamptz) END,
            resolved_at = COALESCE(resolved_at, $12::timestamptz),
            closed_at = CASE WHEN $13::boolean THEN $14::timestamptz ELSE COALESCE(closed_at, $14::timestamptz) END,
            updated_at=$15, version = version + 1
        WHERE id=$16 AND version=$17
        RETURNING due_date, resolved_at, closed_at, version`
	err := r.db.QueryRow(ctx, query,
		ticket.Title,
		ticket.Description,
		ticket.AssigneeID,
		ticket.DepartmentID,
		ticket.CategoryID,
		ticket.PriorityID,
		string(ticket.Status),
		ticket.Tags,
		ticket.Resolution,
		opts.ForceDueDate,
		ticket.DueDate,
		ticket.ResolvedAt,
		opts.ForceClosedAt,
		ticket.ClosedAt,
		ticket.UpdatedAt,
		ticket.ID,
		ticket.Version,
	).Scan(&ticket.DueDate, &ticket.ResolvedAt, &ticket.ClosedAt, &ticket.Version)
	if err == nil {
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}
	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM tickets WHERE id=$1)`, ticket.ID).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}
	return ErrStaleTicket
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id=$1`
	ticket, err := scanTicket(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, notFound(err)
	}
	return ticket, nil
}

func (r *ticketRepository) TicketNumberExists(ctx context.Context, number string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM tickets WHERE ticket_number=$1)`, number).Scan(&exists)
	return exists, err
}

func (r *ticketRepository) List(ctx context.Context, query TicketQuery) ([]domain.Ticket, error) {
	where, args := buildTicketWhere(query)
	sql := fmt.Sprintf(`SELECT %s FROM tickets WHERE %s ORDER BY created_at DESC, id%s`,
		ticketColumns, where, pageClause(query))
	return r.query(ctx, sql, args)
}

func (r *ticketRepository) ListForUpdate(ctx context.Context, query TicketQuery) ([]domain.Ticket, error) {
	where, args := buildTicketWhere(query)
	sql := fmt.Sprintf(`SELECT %s FROM tickets WHERE %s ORDER BY id%s FOR UPDATE`,
		ticketColumns, where, pageClause(query))
	return r.query(ctx, sql, args)
}

func (r *ticketRepository) Count(ctx context.Context, query TicketQuery) (int, error) {
	where, args := buildTicketWhere(query.Unpaged())
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM tickets WHERE `+where, args...).Scan(&count)
	return count, err
}

func (r *ticketRepository) query(ctx context.Context, sql string, args []any) ([]domain.Ticket, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

// buildTicketWhere renders a TicketQuery as a WHERE clause with $n args.
func buildTicketWhere(q TicketQuery) (string, []any) {
	clauses := []string{}
	args := []any{}
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	switch q.Scope.Kind {
	case ScopeAll:
	case ScopeAgent:
		if q.Scope.DepartmentID != nil {
			clauses = append(clauses, fmt.Sprintf("(assigned_to_id=%s OR department_id=%s)",
				arg(q.Scope.UserID), arg(*q.Scope.DepartmentID)))
		} else {
			clauses = append(clauses, "assigned_to_id="+arg(q.Scope.UserID))
		}
	case ScopeSubmitter:
		clauses = append(clauses, "submitter_id="+arg(q.Scope.UserID))
	case ScopeDepartment:
		if q.Scope.DepartmentID == nil {
			clauses = append(clauses, "FALSE")
		} else {
			clauses = append(clauses, "department_id="+arg(*q.Scope.DepartmentID))
		}
	default:
		clauses = append(clauses, "FALSE")
	}

	if len(q.IDs) > 0 {
		clauses = append(clauses, fmt.Sprintf("id = ANY(%s)", arg(q.IDs)))
	}
	if len(q.Statuses) > 0 {
		statuses := make([]string, len(q.Statuses))
		for i, status := range q.Statuses {
			statuses[i] = string(status)
		}
		clauses = append(clauses, fmt.Sprintf("status = ANY(%s)", arg(statuses)))
	}
	if q.PriorityID != nil {
		clauses = append(clauses, "priority_id="+arg(*q.PriorityID))
	}
	if q.DepartmentID != nil {
		clauses = append(clauses, "department_id="+arg(*q.DepartmentID))
	}
	if q.CategoryID != nil {
		clauses = append(clauses, "category_id="+arg(*q.CategoryID))
	}
	if q.AssigneeID != nil {
		clauses = append(clauses, "assigned_to_id="+arg(*q.AssigneeID))
	}
	if q.CreatedFrom != nil {
		clauses = append(clauses, "created_at >= "+arg(*q.CreatedFrom))
	}
	if q.CreatedBefore != nil {
		clauses = append(clauses, "created_at < "+arg(*q.CreatedBefore))
	}
	if q.DueBefore != nil {
		clauses = append(clauses, "due_date < "+arg(*q.DueBefore))
	}
	if q.Search != "" {
		placeholder := arg("%" + escapeLike(strings.ToLower(q.Search)) + "%")
		clauses = append(clauses, fmt.Sprintf("(LOWER(title) LIKE %s OR LOWER(description) LIKE %s OR LOWER(ticket_number) LIKE %s)",
			placeholder, placeholder, placeholder))
	}

	if len(clauses) == 0 {
		return "TRUE", args
	}
	return strings.Join(clauses, " AND "), args
}

func pageClause(q TicketQuery) string {
	if q.Limit <= 0 {
		return ""
	}
	return fmt.Sprintf(" LIMIT %d OFFSET %d", q.Limit, q.Offset)
}

func escapeLike(term string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(term)
}

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var ticket domain.Ticket
	var status string
	if err := row.Scan(
		&ticket.ID,
		&ticket.TicketNumber,
		&ticket.Title,
		&ticket.Description,
		&ticket.SubmitterID,
		&ticket.AssigneeID,
		&ticket.DepartmentID,
		&ticket.CategoryID,
		&ticket.PriorityID,
		&status,
		&ticket.Tags,
		&ticket.Resolution,
		&ticket.DueDate,
		&ticket.ResolvedAt,
		&ticket.ClosedAt,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
		&ticket.Version,
	); err != nil {
		return nil, err
	}
	ticket.Status = domain.TicketStatus(status)
	return &ticket, nil
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ticket)
	}
	return result, rows.Err()
}

package repository

import (
	"context"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// PriorityRepository manages priority levels.
type PriorityRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Priority, error)
	// List returns priorities ordered by level.
	List(ctx context.Context) ([]domain.Priority, error)
	// Upsert inserts or updates by level and fills ID.
	Upsert(ctx context.Context, priority *domain.Priority) error
}

type priorityRepository struct {
	db DBTX
}

func (r *priorityRepository) GetByID(ctx context.Context, id string) (*domain.Priority, error) {
	const query = `SELECT id, name, level, response_time_hours, color FROM priorities WHERE id=$1`
	var priority domain.Priority
	if err := r.db.QueryRow(ctx, query, id).Scan(
		&priority.ID,
		&priority.Name,
		&priority.Level,
		&priority.ResponseTimeHours,
		&priority.Color,
	); err != nil {
		return nil, notFound(err)
	}
	return &priority, nil
}

func (r *priorityRepository) List(ctx context.Context) ([]domain.Priority, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name, level, response_time_hours, color FROM priorities ORDER BY level`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Priority
	for rows.Next() {
		var priority domain.Priority
		if err := rows.Scan(&priority.ID, &priority.Name, &priority.Level, &priority.ResponseTimeHours, &priority.Color); err != nil {
			return nil, err
		}
		result = append(result, priority)
	}
	return result, rows.Err()
}

func (r *priorityRepository) Upsert(ctx context.Context, priority *domain.Priority) error {
	const query = `
        INSERT INTO priorities (name, level, response_time_hours, color)
        VALUES ($1,$2,$3,$4)
        ON CONFLICT (level) DO UPDATE SET name=EXCLUDED.name, response_time_hours=EXCLUDED.response_time_hours, color=EXCLUDED.color
        RETURNING id`
	return r.db.QueryRow(ctx, query,
		priority.Name,
		priority.Level,
		priority.ResponseTimeHours,
		priority.Color,
	).Scan(&priority.ID)
}

// SLARepository exposes read-only SLA reference data. Upsert exists for seeding.
type SLARepository interface {
	List(ctx context.Context) ([]domain.SLA, error)
	Upsert(ctx context.Context, sla *domain.SLA) error
}

type slaRepository struct {
	db DBTX
}

func (r *slaRepository) List(ctx context.Context) ([]domain.SLA, error) {
	const query = `
        SELECT id, name, department_id, priority_id, response_time_hours, resolution_time_hours, is_active
        FROM slas ORDER BY name`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.SLA
	for rows.Next() {
		var sla domain.SLA
		if err := rows.Scan(
			&sla.ID,
			&sla.Name,
			&sla.DepartmentID,
			&sla.PriorityID,
			&sla.ResponseTimeHours,
			&sla.ResolutionTimeHours,
			&sla.IsActive,
		); err != nil {
			return nil, err
		}
		result = append(result, sla)
	}
	return result, rows.Err()
}

func (r *slaRepository) Upsert(ctx context.Context, sla *domain.SLA) error {
	const query = `
        INSERT INTO slas (name, department_id, priority_id, response_time_hours, resolution_time_hours, is_active)
        VALUES ($1,$2,$3,$4,$5,$6)
        ON CONFLICT (department_id, priority_id) DO UPDATE SET name=EXCLUDED.name,
            response_time_hours=EXCLUDED.response_time_hours,
            resolution_time_hours=EXCLUDED.resolution_time_hours,
            is_active=EXCLUDED.is_active
        RETURNING id`
	return r.db.QueryRow(ctx, query,
		sla.Name,
		sla.DepartmentID,
		sla.PriorityID,
		sla.ResponseTimeHours,
		sla.ResolutionTimeHours,
		sla.IsActive,
	).Scan(&sla.ID)
}

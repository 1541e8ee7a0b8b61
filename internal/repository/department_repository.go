package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// DepartmentRepository manages department persistence.
type DepartmentRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Department, error)
	List(ctx context.Context, activeOnly bool) ([]domain.Department, error)
	// Upsert inserts or updates by name and fills ID.
	Upsert(ctx context.Context, dept *domain.Department) error
}

type departmentRepository struct {
	db DBTX
}

func (r *departmentRepository) GetByID(ctx context.Context, id string) (*domain.Department, error) {
	const query = `
        SELECT id, name, description, email, is_active, created_at
        FROM departments WHERE id=$1`
	var dept domain.Department
	if err := r.db.QueryRow(ctx, query, id).Scan(
		&dept.ID,
		&dept.Name,
		&dept.Description,
		&dept.Email,
		&dept.IsActive,
		&dept.CreatedAt,
	); err != nil {
		return nil, notFound(err)
	}
	return &dept, nil
}

func (r *departmentRepository) List(ctx context.Context, activeOnly bool) ([]domain.Department, error) {
	const query = `
        SELECT id, name, description, email, is_active, created_at
        FROM departments WHERE ($1::boolean = FALSE OR is_active = TRUE) ORDER BY name`
	rows, err := r.db.Query(ctx, query, activeOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Department
	for rows.Next() {
		var dept domain.Department
		if err := rows.Scan(&dept.ID, &dept.Name, &dept.Description, &dept.Email, &dept.IsActive, &dept.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, dept)
	}
	return result, rows.Err()
}

func (r *departmentRepository) Upsert(ctx context.Context, dept *domain.Department) error {
	const query = `
        INSERT INTO departments (name, description, email, is_active)
        VALUES ($1,$2,$3,$4)
        ON CONFLICT (name) DO UPDATE SET description=EXCLUDED.description, email=EXCLUDED.email, is_active=EXCLUDED.is_active
        RETURNING id, created_at`
	return r.db.QueryRow(ctx, query,
		dept.Name,
		dept.Description,
		dept.Email,
		dept.IsActive,
	).Scan(&dept.ID, &dept.CreatedAt)
}

// CategoryRepository manages ticket categories.
type CategoryRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Category, error)
	// ListByDepartment returns the active categories of a department ordered
	// by name, plus includeID when it belongs to the department even if
	// inactive.
	ListByDepartment(ctx context.Context, departmentID string, includeID *string) ([]domain.Category, error)
	// Upsert inserts or updates by (department, name) and fills ID.
	Upsert(ctx context.Context, category *domain.Category) error
}

type categoryRepository struct {
	db DBTX
}

func (r *categoryRepository) GetByID(ctx context.Context, id string) (*domain.Category, error) {
	const query = `
        SELECT id, name, description, department_id, is_active, created_at
        FROM categories WHERE id=$1`
	category, err := scanCategory(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, notFound(err)
	}
	return category, nil
}

func (r *categoryRepository) ListByDepartment(ctx context.Context, departmentID string, includeID *string) ([]domain.Category, error) {
	const query = `
        SELECT id, name, description, department_id, is_active, created_at
        FROM categories
        WHERE department_id=$1 AND (is_active = TRUE OR id = $2)
        ORDER BY name`
	rows, err := r.db.Query(ctx, query, departmentID, includeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Category
	for rows.Next() {
		category, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *category)
	}
	return result, rows.Err()
}

func (r *categoryRepository) Upsert(ctx context.Context, category *domain.Category) error {
	const query = `
        INSERT INTO categories (name, description, department_id, is_active)
        VALUES ($1,$2,$3,$4)
        ON CONFLICT (department_id, name) DO UPDATE SET description=EXCLUDED.description, is_active=EXCLUDED.is_active
        RETURNING id, created_at`
	return r.db.QueryRow(ctx, query,
		category.Name,
		category.Description,
		category.DepartmentID,
		category.IsActive,
	).Scan(&category.ID, &category.CreatedAt)
}

func scanCategory(row pgx.Row) (*domain.Category, error) {
	var category domain.Category
	if err := row.Scan(
		&category.ID,
		&category.Name,
		&category.Description,
		&category.DepartmentID,
		&category.IsActive,
		&category.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &category, nil
}

package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// ProfileRepository reads the role flags kept by profile management.
type ProfileRepository interface {
	GetByUserID(ctx context.Context, userID string) (*domain.Profile, error)
	ListByUserIDs(ctx context.Context, userIDs []string) ([]domain.Profile, error)
	Upsert(ctx context.Context, profile *domain.Profile) error
}

type profileRepository struct {
	db DBTX
}

const profileColumns = `user_id, full_name, email, department_id, job_title, phone, is_agent, is_supervisor`

func (r *profileRepository) GetByUserID(ctx context.Context, userID string) (*domain.Profile, error) {
	profile, err := scanProfile(r.db.QueryRow(ctx, `SELECT `+profileColumns+` FROM profiles WHERE user_id=$1`, userID))
	if err != nil {
		return nil, notFound(err)
	}
	return profile, nil
}

func (r *profileRepository) ListByUserIDs(ctx context.Context, userIDs []string) ([]domain.Profile, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	rows, err := r.db.Query(ctx, `SELECT `+profileColumns+` FROM profiles WHERE user_id = ANY($1) ORDER BY user_id`, userIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Profile
	for rows.Next() {
		profile, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *profile)
	}
	return result, rows.Err()
}

func (r *profileRepository) Upsert(ctx context.Context, profile *domain.Profile) error {
	const query = `
        INSERT INTO profiles (user_id, full_name, email, department_id, job_title, phone, is_agent, is_supervisor)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        ON CONFLICT (user_id) DO UPDATE SET full_name=EXCLUDED.full_name, email=EXCLUDED.email,
            department_id=EXCLUDED.department_id, job_title=EXCLUDED.job_title, phone=EXCLUDED.phone,
            is_agent=EXCLUDED.is_agent, is_supervisor=EXCLUDED.is_supervisor`
	_, err := r.db.Exec(ctx, query,
		profile.UserID,
		profile.FullName,
		profile.Email,
		profile.DepartmentID,
		profile.JobTitle,
		profile.Phone,
		profile.IsAgent,
		profile.IsSupervisor,
	)
	return err
}

func scanProfile(row pgx.Row) (*domain.Profile, error) {
	var profile domain.Profile
	if err := row.Scan(
		&profile.UserID,
		&profile.FullName,
		&profile.Email,
		&profile.DepartmentID,
		&profile.JobTitle,
		&profile.Phone,
		&profile.IsAgent,
		&profile.IsSupervisor,
	); err != nil {
		return nil, err
	}
	return &profile, nil
}

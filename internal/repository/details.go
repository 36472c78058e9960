package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/hr-onboarding/employee-wizard/backend/internal/domain"
)

func (r *Repository) CreateDetails(details *domain.Details) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		INSERT INTO details (id, email, photo, employment_type, location, notes)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	details.ID = uuid.NewString()

	args := []any{details.ID, details.Email, details.Photo, details.EmploymentType, details.Location, details.Notes}
	if _, err := r.dbpool.ExecContext(ctx, query, args...); err != nil {
		return err
	}

	return nil
}

func (r *Repository) GetAllDetails() ([]*domain.Details, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		SELECT id, email, photo, employment_type, location, notes
		FROM details
		ORDER BY created_at, id
	`

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := make([]*domain.Details, 0)
	for rows.Next() {
		d := &domain.Details{}
		dst := []any{&d.ID, &d.Email, &d.Photo, &d.EmploymentType, &d.Location, &d.Notes}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		list = append(list, d)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return list, nil
}

package repository

import (
	"context"
	"time"

	"github.com/hr-onboarding/employee-wizard/backend/internal/domain"
)

func (r *Repository) GetOperatorByID(id int64) (*domain.Operator, error) {
	query := `
		SELECT username, password_hash, full_name, email, role, is_active, created_at, version
		FROM operators WHERE id = $1
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	op := &domain.Operator{
		ID: id,
	}

	dst := []any{&op.Username, &op.PasswordHash, &op.FullName, &op.Email, &op.Role, &op.IsActive, &op.CreatedAt, &op.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, id).Scan(dst...); err != nil {
		return nil, err
	}

	return op, nil
}

func (r *Repository) GetOperatorByUsername(username string) (*domain.Operator, error) {
	query := `
		SELECT id, password_hash, full_name, email, role, is_active, created_at, version
		FROM operators WHERE username = $1
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	op := &domain.Operator{
		Username: username,
	}

	dst := []any{&op.ID, &op.PasswordHash, &op.FullName, &op.Email, &op.Role, &op.IsActive, &op.CreatedAt, &op.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, username).Scan(dst...); err != nil {
		return nil, err
	}

	return op, nil
}

func (r *Repository) CreateOperator(op *domain.Operator) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		INSERT INTO operators (username, password_hash, full_name, email, role)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, is_active, created_at, version
	`

	args := []any{op.Username, op.PasswordHash, op.FullName, op.Email, op.Role}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&op.ID, &op.IsActive, &op.CreatedAt, &op.Version); err != nil {
		return err
	}

	return nil
}

// UpdateOperator 使用 version 做乐观锁，版本不一致时返回 sql.ErrNoRows
func (r *Repository) UpdateOperator(op *domain.Operator) error {
	query := `
		UPDATE operators
		SET
			password_hash = $1,
			full_name = $2,
			email = $3,
			role = $4,
			is_active = $5,
			version = version + 1
		WHERE id = $6 AND version = $7
		RETURNING username, created_at, version
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	args := []any{op.PasswordHash, op.FullName, op.Email, op.Role, op.IsActive, op.ID, op.Version}
	dst := []any{&op.Username, &op.CreatedAt, &op.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(dst...); err != nil {
		return err
	}

	return nil
}

func (r *Repository) GetAllOperators() ([]*domain.Operator, error) {
	query := `
		SELECT id, username, full_name, email, role, is_active, created_at, version
		FROM operators ORDER BY id
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	operators := make([]*domain.Operator, 0)
	for rows.Next() {
		op := &domain.Operator{}
		dst := []any{&op.ID, &op.Username, &op.FullName, &op.Email, &op.Role, &op.IsActive, &op.CreatedAt, &op.Version}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		operators = append(operators, op)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return operators, nil
}

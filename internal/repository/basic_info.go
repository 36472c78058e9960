package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/hr-onboarding/employee-wizard/backend/internal/domain"
)

func (r *Repository) CreateBasicInfo(info *domain.BasicInfo) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		INSERT INTO basic_info (id, full_name, email, role, department, employee_id)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	// id 总是由记录库分配，忽略客户端传来的值
	info.ID = uuid.NewString()

	args := []any{info.ID, info.FullName, info.Email, info.Role, info.Department, info.EmployeeID}
	if _, err := r.dbpool.ExecContext(ctx, query, args...); err != nil {
		return err
	}

	return nil
}

// GetAllBasicInfo 返回所有基本信息，department 不为空时只返回该部门的记录
func (r *Repository) GetAllBasicInfo(department string) ([]*domain.BasicInfo, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		SELECT id, full_name, email, role, department, employee_id
		FROM basic_info
		WHERE $1 = '' OR department = $1
		ORDER BY created_at, id
	`

	rows, err := r.dbpool.QueryContext(ctx, query, department)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	infos := make([]*domain.BasicInfo, 0)
	for rows.Next() {
		info := &domain.BasicInfo{}
		dst := []any{&info.ID, &info.FullName, &info.Email, &info.Role, &info.Department, &info.EmployeeID}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		infos = append(infos, info)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return infos, nil
}

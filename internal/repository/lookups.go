package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hr-onboarding/employee-wizard/backend/internal/domain"
)

// LookupTable 是可以用于自动补全的表，只允许下面两个值，避免拼接任意表名
type LookupTable string

const (
	LookupDepartments LookupTable = "departments"
	LookupLocations   LookupTable = "locations"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// SearchLookup 按名称做不区分大小写的子串匹配，最多返回 limit 条
func (r *Repository) SearchLookup(table LookupTable, nameLike string, limit int) ([]*domain.Suggestion, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := fmt.Sprintf(`
		SELECT id, name FROM %s
		WHERE name ILIKE '%%' || $1 || '%%'
		ORDER BY name
		LIMIT $2
	`, table)

	rows, err := r.dbpool.QueryContext(ctx, query, likeEscaper.Replace(nameLike), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	suggestions := make([]*domain.Suggestion, 0)
	for rows.Next() {
		s := &domain.Suggestion{}
		if err := rows.Scan(&s.ID, &s.Name); err != nil {
			return nil, err
		}
		suggestions = append(suggestions, s)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return suggestions, nil
}

// UpsertLookup 插入一个名称，名称已存在时返回已有的记录
func (r *Repository) UpsertLookup(table LookupTable, name string) (*domain.Suggestion, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := fmt.Sprintf(`
		INSERT INTO %s (id, name) VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id, name
	`, table)

	s := &domain.Suggestion{}
	if err := r.dbpool.QueryRowContext(ctx, query, uuid.NewString(), name).Scan(&s.ID, &s.Name); err != nil {
		return nil, err
	}

	return s, nil
}

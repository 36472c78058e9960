package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"time"

	"github.com/hr-onboarding/employee-wizard/backend/internal/config"
)

//go:embed schema.sql
var schema string

type Repository struct {
	cfg    *config.Config
	dbpool *sql.DB
}

func NewRepository(cfg *config.Config, dbpool *sql.DB) *Repository {
	return &Repository{
		cfg:    cfg,
		dbpool: dbpool,
	}
}

// Migrate 创建所有的表，表已存在时不做任何事
func (r *Repository) Migrate() error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	_, err := r.dbpool.ExecContext(ctx, schema)
	return err
}

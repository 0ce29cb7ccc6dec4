package persistence

import (
	"context"
	"database/sql"

	"github.com/dfryer1193/blogsphere/blog/domain"
	"github.com/dfryer1193/blogsphere/shared/db"
)

var _ domain.Transactor = (*SQLTransactor)(nil)

// SQLTransactor exposes db.RunInTransaction to the application layer
type SQLTransactor struct {
	db *sql.DB
}

func NewTransactor(sqlDB *sql.DB) *SQLTransactor {
	return &SQLTransactor{db: sqlDB}
}

func (t *SQLTransactor) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return db.RunInTransaction(ctx, t.db, fn)
}

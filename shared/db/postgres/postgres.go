// Package postgres connects to Postgres through a pgx pool exposed as a *sql.DB.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/dfryer1193/blogsphere/shared/db"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
)

const defaultMaxConns = 20

type PostgresConfig struct {
	DSN      string
	MaxConns int32
}

func NewPostgresConfig() *PostgresConfig {
	return &PostgresConfig{
		DSN:      os.Getenv("DB_DSN"),
		MaxConns: defaultMaxConns,
	}
}

var _ db.Database = (*PostgresDB)(nil)

type PostgresDB struct {
	cfg  *PostgresConfig
	pool *pgxpool.Pool
	db   *sql.DB
}

func NewPostgresDB(cfg *PostgresConfig) *PostgresDB {
	return &PostgresDB{cfg: cfg}
}

// poolConfig parses the DSN and applies pool sizing and statement caching
func (p *PostgresDB) poolConfig() (*pgxpool.Config, error) {
	if p.cfg.DSN == "" {
		return nil, fmt.Errorf("postgres DSN cannot be empty")
	}

	cfg, err := pgxpool.ParseConfig(p.cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}

	if p.cfg.MaxConns > 0 {
		cfg.MaxConns = p.cfg.MaxConns
	}
	cfg.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeCacheStatement
	cfg.ConnConfig.StatementCacheCapacity = 256

	return cfg, nil
}

func (p *PostgresDB) Connect() error {
	if p.db != nil {
		return fmt.Errorf("database already connected")
	}

	cfg, err := p.poolConfig()
	if err != nil {
		return err
	}

	ctx := context.Background()
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}

	sqlDB := stdlib.OpenDBFromPool(pool)
	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		pool.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	if err := db.RunMigrations(ctx, sqlDB, p.Dialect(), migrations); err != nil {
		sqlDB.Close()
		pool.Close()
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	p.pool = pool
	p.db = sqlDB
	return nil
}

func (p *PostgresDB) Close() error {
	if p.db == nil {
		return nil
	}

	err := p.db.Close()
	p.pool.Close()
	p.db = nil
	p.pool = nil
	return err
}

func (p *PostgresDB) DB() *sql.DB {
	return p.db
}

func (p *PostgresDB) Dialect() db.Dialect {
	return db.DollarDialect{}
}

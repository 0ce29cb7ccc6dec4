// Package mysql connects to MySQL through go-sql-driver/mysql.
package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	"github.com/dfryer1193/blogsphere/shared/db"
	driver "github.com/go-sql-driver/mysql"
)

type MySQLConfig struct {
	DSN      string
	MaxConns int
}

func NewMySQLConfig() *MySQLConfig {
	return &MySQLConfig{
		DSN:      os.Getenv("DB_DSN"),
		MaxConns: 20,
	}
}

var _ db.Database = (*MySQLDB)(nil)

type MySQLDB struct {
	cfg *MySQLConfig
	db  *sql.DB
}

func NewMySQLDB(cfg *MySQLConfig) *MySQLDB {
	return &MySQLDB{cfg: cfg}
}

// driverConfig parses the DSN and forces the options the repositories rely on:
// DATETIME columns scanned as time.Time in UTC, and RowsAffected counting matched rows.
func (m *MySQLDB) driverConfig() (*driver.Config, error) {
	if m.cfg.DSN == "" {
		return nil, fmt.Errorf("mysql DSN cannot be empty")
	}

	cfg, err := driver.ParseDSN(m.cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse mysql dsn: %w", err)
	}

	cfg.ParseTime = true
	cfg.Loc = time.UTC
	cfg.ClientFoundRows = true
	return cfg, nil
}

func (m *MySQLDB) Connect() error {
	if m.db != nil {
		return fmt.Errorf("database already connected")
	}

	cfg, err := m.driverConfig()
	if err != nil {
		return err
	}

	connector, err := driver.NewConnector(cfg)
	if err != nil {
		return fmt.Errorf("failed to create connector: %w", err)
	}

	sqlDB := sql.OpenDB(connector)
	if m.cfg.MaxConns > 0 {
		sqlDB.SetMaxOpenConns(m.cfg.MaxConns)
	}

	ctx := context.Background()
	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	if err := db.RunMigrations(ctx, sqlDB, m.Dialect(), migrations); err != nil {
		sqlDB.Close()
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	m.db = sqlDB
	return nil
}

func (m *MySQLDB) Close() error {
	if m.db == nil {
		return nil
	}

	err := m.db.Close()
	m.db = nil
	return err
}

func (m *MySQLDB) DB() *sql.DB {
	return m.db
}

func (m *MySQLDB) Dialect() db.Dialect {
	return db.MySQLDialect{}
}

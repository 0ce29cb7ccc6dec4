package db

import (
	"database/sql"
	"fmt"
	"strings"
)

type Database interface {
	Connect() error
	Close() error
	DB() *sql.DB
	Dialect() Dialect
}

// Dialect hides the SQL differences between the supported drivers.
// Queries are written with ? placeholders and passed through Rebind.
type Dialect interface {
	Name() string
	Rebind(query string) string
	// InsertIgnore builds an INSERT that silently skips rows violating a unique key
	InsertIgnore(table string, columns ...string) string
}

// Placeholders returns n comma-separated ? markers
func Placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// QuestionDialect serves drivers that take ? placeholders and ON CONFLICT DO NOTHING (SQLite)
type QuestionDialect struct{}

func (QuestionDialect) Name() string { return "sqlite" }

func (QuestionDialect) Rebind(query string) string { return query }

func (QuestionDialect) InsertIgnore(table string, columns ...string) string {
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) ON CONFLICT DO NOTHING",
		table, strings.Join(columns, ", "), Placeholders(len(columns)))
}

// DollarDialect serves Postgres, which numbers its placeholders
type DollarDialect struct{}

func (DollarDialect) Name() string { return "postgres" }

func (DollarDialect) Rebind(query string) string {
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (d DollarDialect) InsertIgnore(table string, columns ...string) string {
	return d.Rebind(QuestionDialect{}.InsertIgnore(table, columns...))
}

// MySQLDialect uses ? placeholders and INSERT IGNORE
type MySQLDialect struct{}

func (MySQLDialect) Name() string { return "mysql" }

func (MySQLDialect) Rebind(query string) string { return query }

func (MySQLDialect) InsertIgnore(table string, columns ...string) string {
	return fmt.Sprintf("INSERT IGNORE INTO %s (%s) VALUES (%s)",
		table, strings.Join(columns, ", "), Placeholders(len(columns)))
}

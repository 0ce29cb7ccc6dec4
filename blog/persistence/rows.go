package persistence

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/dfryer1193/blogsphere/blog/domain"
)

// rowScanner is satisfied by *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...any) error
}

// authorColumns holds the LEFT JOINed profile columns; all are NULL when the author has no profile
type authorColumns struct {
	ID             sql.NullString
	Name           sql.NullString
	ProfilePicture sql.NullString
	Bio            sql.NullString
}

func (a authorColumns) toDomain() *domain.AuthorSummary {
	if !a.ID.Valid {
		return nil
	}
	return &domain.AuthorSummary{
		ID:             a.ID.String,
		Name:           a.Name.String,
		ProfilePicture: a.ProfilePicture.String,
		Bio:            a.Bio.String,
	}
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// utc normalizes timestamps before they are written so text-backed columns sort chronologically
func utc(t time.Time) time.Time {
	return t.UTC()
}

func requireRow(res sql.Result, entity string, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", entity, id, domain.ErrNotFound)
	}
	return nil
}

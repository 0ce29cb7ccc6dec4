package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dfryer1193/blogsphere/blog/domain"
	"github.com/dfryer1193/blogsphere/shared/db"
)

var _ domain.ProfileRepository = (*SQLProfileRepository)(nil)

type SQLProfileRepository struct {
	db      *sql.DB
	dialect db.Dialect
}

func NewProfileRepository(sqlDB *sql.DB, dialect db.Dialect) *SQLProfileRepository {
	return &SQLProfileRepository{
		db:      sqlDB,
		dialect: dialect,
	}
}

// EnsureProfile creates the profile if none exists for p.ID. An existing
// profile is left untouched so user edits are never overwritten by token claims.
func (r *SQLProfileRepository) EnsureProfile(ctx context.Context, p *domain.Profile) (bool, error) {
	if p == nil {
		return false, fmt.Errorf("profile cannot be nil")
	}
	if p.ID == "" {
		return false, fmt.Errorf("profile ID cannot be empty")
	}

	query := r.dialect.InsertIgnore("profiles", "id", "name", "bio", "profile_picture", "created_at", "updated_at")

	executor := db.GetExecutor(ctx, r.db)
	res, err := executor.ExecContext(ctx, query,
		p.ID,
		p.Name,
		nullableString(p.Bio),
		nullableString(p.ProfilePicture),
		utc(p.CreatedAt),
		utc(p.UpdatedAt),
	)
	if err != nil {
		return false, fmt.Errorf("failed to ensure profile: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}

	return n > 0, nil
}

const getProfileQuery = `
	SELECT id, name, bio, profile_picture, created_at, updated_at
	FROM profiles
	WHERE id = ?
`

func (r *SQLProfileRepository) GetProfile(ctx context.Context, id string) (*domain.Profile, error) {
	var row profileRow

	executor := db.GetExecutor(ctx, r.db)
	err := executor.QueryRowContext(ctx, r.dialect.Rebind(getProfileQuery), id).Scan(
		&row.ID,
		&row.Name,
		&row.Bio,
		&row.ProfilePicture,
		&row.CreatedAt,
		&row.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("profile %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	return row.toDomain(), nil
}

const updateProfileQuery = `
	UPDATE profiles
	SET name = ?, bio = ?, profile_picture = ?, updated_at = ?
	WHERE id = ?
`

func (r *SQLProfileRepository) UpdateProfile(ctx context.Context, p *domain.Profile) error {
	if p == nil {
		return fmt.Errorf("profile cannot be nil")
	}

	executor := db.GetExecutor(ctx, r.db)
	res, err := executor.ExecContext(ctx, r.dialect.Rebind(updateProfileQuery),
		p.Name,
		nullableString(p.Bio),
		nullableString(p.ProfilePicture),
		utc(p.UpdatedAt),
		p.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}

	return requireRow(res, "profile", p.ID)
}

type profileRow struct {
	ID             string         `db:"id"`
	Name           string         `db:"name"`
	Bio            sql.NullString `db:"bio"`
	ProfilePicture sql.NullString `db:"profile_picture"`
	CreatedAt      sql.NullTime   `db:"created_at"`
	UpdatedAt      sql.NullTime   `db:"updated_at"`
}

func (pr *profileRow) toDomain() *domain.Profile {
	profile := &domain.Profile{
		ID:             pr.ID,
		Name:           pr.Name,
		Bio:            pr.Bio.String,
		ProfilePicture: pr.ProfilePicture.String,
	}
	if pr.CreatedAt.Valid {
		profile.CreatedAt = pr.CreatedAt.Time
	}
	if pr.UpdatedAt.Valid {
		profile.UpdatedAt = pr.UpdatedAt.Time
	}
	return profile
}

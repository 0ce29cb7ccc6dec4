package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dfryer1193/blogsphere/blog/domain"
	"github.com/dfryer1193/blogsphere/shared/db"
)

var _ domain.CommentRepository = (*SQLCommentRepository)(nil)

type SQLCommentRepository struct {
	db      *sql.DB
	dialect db.Dialect
}

func NewCommentRepository(sqlDB *sql.DB, dialect db.Dialect) *SQLCommentRepository {
	return &SQLCommentRepository{
		db:      sqlDB,
		dialect: dialect,
	}
}

const insertCommentQuery = `
	INSERT INTO comments (id, post_id, author_id, content, created_at)
	VALUES (?, ?, ?, ?, ?)
`

// AddComment appends a comment. The post must exist.
func (r *SQLCommentRepository) AddComment(ctx context.Context, c *domain.Comment) error {
	if c == nil {
		return fmt.Errorf("comment cannot be nil")
	}
	if c.ID == "" {
		return fmt.Errorf("comment ID cannot be empty")
	}

	executor := db.GetExecutor(ctx, r.db)
	_, err := executor.ExecContext(ctx, r.dialect.Rebind(insertCommentQuery),
		c.ID,
		c.PostID,
		c.AuthorID,
		c.Content,
		utc(c.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert comment: %w", err)
	}

	return nil
}

const selectCommentColumns = `
	SELECT c.id, c.post_id, c.author_id, c.content, c.created_at,
		pr.id, pr.name, pr.profile_picture, pr.bio
	FROM comments c
	LEFT JOIN profiles pr ON pr.id = c.author_id
`

const getCommentQuery = selectCommentColumns + `
	WHERE c.id = ?
`

func (r *SQLCommentRepository) GetComment(ctx context.Context, id string) (*domain.Comment, error) {
	executor := db.GetExecutor(ctx, r.db)
	comment, err := scanComment(executor.QueryRowContext(ctx, r.dialect.Rebind(getCommentQuery), id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("comment %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get comment: %w", err)
	}

	return comment, nil
}

const listCommentsQuery = selectCommentColumns + `
	WHERE c.post_id = ?
	ORDER BY c.created_at ASC, c.seq ASC
`

// ListComments returns the comments on a post, oldest first
func (r *SQLCommentRepository) ListComments(ctx context.Context, postID string) ([]*domain.Comment, error) {
	executor := db.GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, r.dialect.Rebind(listCommentsQuery), postID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	defer rows.Close()

	comments := make([]*domain.Comment, 0)
	for rows.Next() {
		comment, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan comment row: %w", err)
		}
		comments = append(comments, comment)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating comment rows: %w", err)
	}

	return comments, nil
}

const deleteCommentsForPostQuery = `
	DELETE FROM comments WHERE post_id = ?
`

func (r *SQLCommentRepository) DeleteCommentsForPost(ctx context.Context, postID string) error {
	executor := db.GetExecutor(ctx, r.db)
	if _, err := executor.ExecContext(ctx, r.dialect.Rebind(deleteCommentsForPostQuery), postID); err != nil {
		return fmt.Errorf("failed to delete comments: %w", err)
	}
	return nil
}

type commentRow struct {
	ID        string       `db:"id"`
	PostID    string       `db:"post_id"`
	AuthorID  string       `db:"author_id"`
	Content   string       `db:"content"`
	CreatedAt sql.NullTime `db:"created_at"`

	author authorColumns
}

func scanComment(s rowScanner) (*domain.Comment, error) {
	var row commentRow
	err := s.Scan(
		&row.ID,
		&row.PostID,
		&row.AuthorID,
		&row.Content,
		&row.CreatedAt,
		&row.author.ID,
		&row.author.Name,
		&row.author.ProfilePicture,
		&row.author.Bio,
	)
	if err != nil {
		return nil, err
	}

	comment := &domain.Comment{
		ID:       row.ID,
		PostID:   row.PostID,
		AuthorID: row.AuthorID,
		Content:  row.Content,
		Author:   row.author.toDomain(),
	}
	if row.CreatedAt.Valid {
		comment.CreatedAt = row.CreatedAt.Time
	}

	return comment, nil
}

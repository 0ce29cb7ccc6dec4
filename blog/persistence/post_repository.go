package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dfryer1193/blogsphere/blog/domain"
	"github.com/dfryer1193/blogsphere/shared/db"
)

var _ domain.PostRepository = (*SQLPostRepository)(nil)

// SQLPostRepository implements domain.PostRepository on any supported SQL dialect
type SQLPostRepository struct {
	db      *sql.DB
	dialect db.Dialect
}

// NewPostRepository creates a new SQLPostRepository from a standard sql.DB
func NewPostRepository(sqlDB *sql.DB, dialect db.Dialect) *SQLPostRepository {
	return &SQLPostRepository{
		db:      sqlDB,
		dialect: dialect,
	}
}

const insertPostQuery = `
	INSERT INTO posts (id, title, content, author_id, tags, image, likes, views, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

// CreatePost inserts a new post row
func (r *SQLPostRepository) CreatePost(ctx context.Context, p *domain.Post) error {
	if p == nil {
		return fmt.Errorf("post cannot be nil")
	}
	if p.ID == "" {
		return fmt.Errorf("post ID cannot be empty")
	}

	tags, err := encodeTags(p.Tags)
	if err != nil {
		return err
	}

	executor := db.GetExecutor(ctx, r.db)
	_, err = executor.ExecContext(ctx, r.dialect.Rebind(insertPostQuery),
		p.ID,
		p.Title,
		p.Content,
		p.AuthorID,
		tags,
		nullableString(p.Image),
		p.Likes,
		p.Views,
		utc(p.CreatedAt),
		utc(p.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert post: %w", err)
	}

	return nil
}

const selectPostColumns = `
	SELECT p.id, p.title, p.content, p.author_id, p.tags, p.image, p.likes, p.views, p.created_at, p.updated_at,
		pr.id, pr.name, pr.profile_picture, pr.bio
	FROM posts p
	LEFT JOIN profiles pr ON pr.id = p.author_id
`

const getPostQuery = selectPostColumns + `
	WHERE p.id = ?
`

// GetPost retrieves a single post joined with its author's profile
func (r *SQLPostRepository) GetPost(ctx context.Context, id string) (*domain.Post, error) {
	if id == "" {
		return nil, fmt.Errorf("post ID cannot be empty")
	}

	executor := db.GetExecutor(ctx, r.db)
	post, err := scanPost(executor.QueryRowContext(ctx, r.dialect.Rebind(getPostQuery), id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("post %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get post: %w", err)
	}

	return post, nil
}

const getAuthorIDQuery = `
	SELECT author_id FROM posts WHERE id = ?
`

// GetAuthorID reads the authoritative owner of a post
func (r *SQLPostRepository) GetAuthorID(ctx context.Context, id string) (string, error) {
	var authorID string
	executor := db.GetExecutor(ctx, r.db)
	err := executor.QueryRowContext(ctx, r.dialect.Rebind(getAuthorIDQuery), id).Scan(&authorID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("post %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("failed to get post author: %w", err)
	}

	return authorID, nil
}

const listPostsQuery = selectPostColumns + `
	ORDER BY p.created_at DESC, p.seq DESC
`

// ListPosts returns every post, newest first
func (r *SQLPostRepository) ListPosts(ctx context.Context) ([]*domain.Post, error) {
	return r.queryPosts(ctx, listPostsQuery)
}

const listPostsByAuthorQuery = selectPostColumns + `
	WHERE p.author_id = ?
	ORDER BY p.created_at DESC, p.seq DESC
`

// ListPostsByAuthor returns the posts written by authorID, newest first
func (r *SQLPostRepository) ListPostsByAuthor(ctx context.Context, authorID string) ([]*domain.Post, error) {
	return r.queryPosts(ctx, listPostsByAuthorQuery, authorID)
}

func (r *SQLPostRepository) queryPosts(ctx context.Context, query string, args ...any) ([]*domain.Post, error) {
	executor := db.GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, r.dialect.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	defer rows.Close()

	posts := make([]*domain.Post, 0)
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan post row: %w", err)
		}
		posts = append(posts, post)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating post rows: %w", err)
	}

	return posts, nil
}

const updatePostQuery = `
	UPDATE posts
	SET title = ?, content = ?, tags = ?, image = ?, updated_at = ?
	WHERE id = ?
`

// UpdatePost overwrites the mutable fields of a post. AuthorID, counters and CreatedAt are never written.
func (r *SQLPostRepository) UpdatePost(ctx context.Context, p *domain.Post) error {
	if p == nil {
		return fmt.Errorf("post cannot be nil")
	}

	tags, err := encodeTags(p.Tags)
	if err != nil {
		return err
	}

	executor := db.GetExecutor(ctx, r.db)
	res, err := executor.ExecContext(ctx, r.dialect.Rebind(updatePostQuery),
		p.Title,
		p.Content,
		tags,
		nullableString(p.Image),
		utc(p.UpdatedAt),
		p.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update post: %w", err)
	}

	return requireRow(res, "post", p.ID)
}

const (
	deletePostLikesQuery = `DELETE FROM post_likes WHERE post_id = ?`
	deletePostQuery      = `DELETE FROM posts WHERE id = ?`
)

// DeletePost removes a post and its likes. Comments are removed by the
// comment repository in the caller's transaction, and by ON DELETE CASCADE.
func (r *SQLPostRepository) DeletePost(ctx context.Context, id string) error {
	return db.RunInTransaction(ctx, r.db, func(txCtx context.Context) error {
		executor := db.GetExecutor(txCtx, r.db)
		if _, err := executor.ExecContext(txCtx, r.dialect.Rebind(deletePostLikesQuery), id); err != nil {
			return fmt.Errorf("failed to delete post likes: %w", err)
		}

		res, err := executor.ExecContext(txCtx, r.dialect.Rebind(deletePostQuery), id)
		if err != nil {
			return fmt.Errorf("failed to delete post: %w", err)
		}

		return requireRow(res, "post", id)
	})
}

const (
	incrementViewsQuery = `UPDATE posts SET views = views + 1 WHERE id = ?`
	incrementLikesQuery = `UPDATE posts SET likes = likes + 1 WHERE id = ?`
)

// IncrementViews atomically adds one view
func (r *SQLPostRepository) IncrementViews(ctx context.Context, id string) error {
	return r.increment(ctx, incrementViewsQuery, id)
}

// IncrementLikes atomically adds one like
func (r *SQLPostRepository) IncrementLikes(ctx context.Context, id string) error {
	return r.increment(ctx, incrementLikesQuery, id)
}

func (r *SQLPostRepository) increment(ctx context.Context, query string, id string) error {
	executor := db.GetExecutor(ctx, r.db)
	res, err := executor.ExecContext(ctx, r.dialect.Rebind(query), id)
	if err != nil {
		return fmt.Errorf("failed to increment counter: %w", err)
	}

	return requireRow(res, "post", id)
}

const countImageReferencesQuery = `SELECT COUNT(*) FROM posts WHERE image = ?`

func (r *SQLPostRepository) CountImageReferences(ctx context.Context, url string) (int64, error) {
	var n int64
	executor := db.GetExecutor(ctx, r.db)
	if err := executor.QueryRowContext(ctx, r.dialect.Rebind(countImageReferencesQuery), url).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count image references: %w", err)
	}
	return n, nil
}

// RecordLike inserts a (post, user) like row, reporting false when the pair already exists
func (r *SQLPostRepository) RecordLike(ctx context.Context, postID string, userID string, at time.Time) (bool, error) {
	query := r.dialect.InsertIgnore("post_likes", "post_id", "user_id", "created_at")

	executor := db.GetExecutor(ctx, r.db)
	res, err := executor.ExecContext(ctx, query, postID, userID, utc(at))
	if err != nil {
		return false, fmt.Errorf("failed to record like: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}

	return n > 0, nil
}

// postRow is a private struct used to scan joined post rows
type postRow struct {
	ID        string         `db:"id"`
	Title     string         `db:"title"`
	Content   string         `db:"content"`
	AuthorID  string         `db:"author_id"`
	Tags      string         `db:"tags"`
	Image     sql.NullString `db:"image"`
	Likes     int64          `db:"likes"`
	Views     int64          `db:"views"`
	CreatedAt sql.NullTime   `db:"created_at"`
	UpdatedAt sql.NullTime   `db:"updated_at"`

	author authorColumns
}

func scanPost(s rowScanner) (*domain.Post, error) {
	var row postRow
	err := s.Scan(
		&row.ID,
		&row.Title,
		&row.Content,
		&row.AuthorID,
		&row.Tags,
		&row.Image,
		&row.Likes,
		&row.Views,
		&row.CreatedAt,
		&row.UpdatedAt,
		&row.author.ID,
		&row.author.Name,
		&row.author.ProfilePicture,
		&row.author.Bio,
	)
	if err != nil {
		return nil, err
	}

	return row.toDomain()
}

// toDomain converts a postRow to a domain.Post, handling nullable columns
func (pr *postRow) toDomain() (*domain.Post, error) {
	tags, err := decodeTags(pr.Tags)
	if err != nil {
		return nil, fmt.Errorf("post %s: %w", pr.ID, err)
	}

	post := &domain.Post{
		ID:       pr.ID,
		Title:    pr.Title,
		Content:  pr.Content,
		AuthorID: pr.AuthorID,
		Tags:     tags,
		Image:    pr.Image.String,
		Likes:    pr.Likes,
		Views:    pr.Views,
		Author:   pr.author.toDomain(),
	}

	if pr.CreatedAt.Valid {
		post.CreatedAt = pr.CreatedAt.Time
	}
	if pr.UpdatedAt.Valid {
		post.UpdatedAt = pr.UpdatedAt.Time
	}

	return post, nil
}

func encodeTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("failed to encode tags: %w", err)
	}
	return string(b), nil
}

func decodeTags(raw string) ([]string, error) {
	tags := []string{}
	if raw == "" {
		return tags, nil
	}
	if err := json.Unmarshal([]byte(raw), &tags); err != nil {
		return nil, fmt.Errorf("failed to decode tags: %w", err)
	}
	if tags == nil {
		tags = []string{}
	}
	return tags, nil
}

package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/dfryer1193/blogsphere/blog/domain"
	"github.com/dfryer1193/blogsphere/shared/db"
	"github.com/dfryer1193/blogsphere/shared/db/sqlite"
	"github.com/google/uuid"
)

// setupTestDB creates a migrated SQLite database in a temp directory
func setupTestDB(t *testing.T) (*sql.DB, db.Dialect) {
	t.Helper()

	database := sqlite.NewSQLiteDB(&sqlite.SQLiteConfig{
		Path: filepath.Join(t.TempDir(), "test.db"),
	})
	if err := database.Connect(); err != nil {
		t.Fatalf("failed to connect test database: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	return database.DB(), database.Dialect()
}

func newTestPost(authorID string, createdAt time.Time) *domain.Post {
	return &domain.Post{
		ID:        uuid.NewString(),
		Title:     "Test Post",
		Content:   "This is a test post",
		AuthorID:  authorID,
		Tags:      []string{"go", "sql"},
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
}

func TestPostRepository_CreateAndGet(t *testing.T) {
	sqlDB, dialect := setupTestDB(t)
	repo := NewPostRepository(sqlDB, dialect)
	profiles := NewProfileRepository(sqlDB, dialect)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Microsecond)
	if _, err := profiles.EnsureProfile(ctx, &domain.Profile{
		ID: "alice", Name: "Alice", Bio: "writes things", CreatedAt: now, UpdatedAt: now,
	}); err != nil {
		t.Fatalf("EnsureProfile failed: %v", err)
	}

	post := newTestPost("alice", now)
	post.Image = "https://img.example/a.png"
	if err := repo.CreatePost(ctx, post); err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}

	got, err := repo.GetPost(ctx, post.ID)
	if err != nil {
		t.Fatalf("GetPost failed: %v", err)
	}

	if got.Title != post.Title {
		t.Errorf("Title = %q, want %q", got.Title, post.Title)
	}
	if got.AuthorID != "alice" {
		t.Errorf("AuthorID = %q, want %q", got.AuthorID, "alice")
	}
	if fmt.Sprint(got.Tags) != fmt.Sprint(post.Tags) {
		t.Errorf("Tags = %v, want %v", got.Tags, post.Tags)
	}
	if got.Image != post.Image {
		t.Errorf("Image = %q, want %q", got.Image, post.Image)
	}
	if !got.CreatedAt.Equal(now) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, now)
	}
	if got.Author == nil {
		t.Fatal("Author not joined")
	}
	if got.Author.Name != "Alice" || got.Author.Bio != "writes things" {
		t.Errorf("Author = %+v, want Alice with bio", got.Author)
	}
}

func TestPostRepository_GetPost_NotFound(t *testing.T) {
	sqlDB, dialect := setupTestDB(t)
	repo := NewPostRepository(sqlDB, dialect)

	_, err := repo.GetPost(context.Background(), uuid.NewString())
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("GetPost error = %v, want ErrNotFound", err)
	}

	_, err = repo.GetAuthorID(context.Background(), uuid.NewString())
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("GetAuthorID error = %v, want ErrNotFound", err)
	}
}

func TestPostRepository_MissingProfileLeavesAuthorNil(t *testing.T) {
	sqlDB, dialect := setupTestDB(t)
	repo := NewPostRepository(sqlDB, dialect)
	ctx := context.Background()

	post := newTestPost("ghost", time.Now().UTC())
	post.Tags = nil
	if err := repo.CreatePost(ctx, post); err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}

	got, err := repo.GetPost(ctx, post.ID)
	if err != nil {
		t.Fatalf("GetPost failed: %v", err)
	}
	if got.Author != nil {
		t.Errorf("Author = %+v, want nil", got.Author)
	}
	if got.Tags == nil || len(got.Tags) != 0 {
		t.Errorf("Tags = %#v, want empty non-nil slice", got.Tags)
	}
}

func TestPostRepository_ListOrdering(t *testing.T) {
	sqlDB, dialect := setupTestDB(t)
	repo := NewPostRepository(sqlDB, dialect)
	ctx := context.Background()

	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	older := newTestPost("alice", base)
	newer := newTestPost("bob", base.Add(time.Hour))
	// same timestamp as newer, inserted later
	tied := newTestPost("alice", base.Add(time.Hour))

	for _, p := range []*domain.Post{older, newer, tied} {
		if err := repo.CreatePost(ctx, p); err != nil {
			t.Fatalf("CreatePost failed: %v", err)
		}
	}

	tests := []struct {
		name    string
		list    func() ([]*domain.Post, error)
		wantIDs []string
	}{
		{
			name:    "all posts newest first",
			list:    func() ([]*domain.Post, error) { return repo.ListPosts(ctx) },
			wantIDs: []string{tied.ID, newer.ID, older.ID},
		},
		{
			name:    "by author",
			list:    func() ([]*domain.Post, error) { return repo.ListPostsByAuthor(ctx, "alice") },
			wantIDs: []string{tied.ID, older.ID},
		},
		{
			name:    "unknown author",
			list:    func() ([]*domain.Post, error) { return repo.ListPostsByAuthor(ctx, "nobody") },
			wantIDs: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			posts, err := tt.list()
			if err != nil {
				t.Fatalf("list failed: %v", err)
			}
			if posts == nil {
				t.Fatal("list returned nil slice")
			}
			if len(posts) != len(tt.wantIDs) {
				t.Fatalf("got %d posts, want %d", len(posts), len(tt.wantIDs))
			}
			for i, id := range tt.wantIDs {
				if posts[i].ID != id {
					t.Errorf("posts[%d].ID = %s, want %s", i, posts[i].ID, id)
				}
			}
		})
	}
}

func TestPostRepository_UpdatePost(t *testing.T) {
	sqlDB, dialect := setupTestDB(t)
	repo := NewPostRepository(sqlDB, dialect)
	ctx := context.Background()

	created := time.Now().UTC().Add(-time.Hour)
	post := newTestPost("alice", created)
	if err := repo.CreatePost(ctx, post); err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}
	if err := repo.IncrementViews(ctx, post.ID); err != nil {
		t.Fatalf("IncrementViews failed: %v", err)
	}

	post.Title = "Updated"
	post.Tags = []string{"edited"}
	post.AuthorID = "mallory"
	post.Views = 0
	post.UpdatedAt = time.Now().UTC()
	if err := repo.UpdatePost(ctx, post); err != nil {
		t.Fatalf("UpdatePost failed: %v", err)
	}

	got, err := repo.GetPost(ctx, post.ID)
	if err != nil {
		t.Fatalf("GetPost failed: %v", err)
	}
	if got.Title != "Updated" {
		t.Errorf("Title = %q, want %q", got.Title, "Updated")
	}
	if got.AuthorID != "alice" {
		t.Errorf("AuthorID = %q, want %q", got.AuthorID, "alice")
	}
	if got.Views != 1 {
		t.Errorf("Views = %d, want 1", got.Views)
	}
	if !got.UpdatedAt.After(got.CreatedAt) {
		t.Errorf("UpdatedAt %v not after CreatedAt %v", got.UpdatedAt, got.CreatedAt)
	}

	missing := newTestPost("alice", created)
	if err := repo.UpdatePost(ctx, missing); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("UpdatePost missing error = %v, want ErrNotFound", err)
	}
}

func TestPostRepository_DeletePostCascades(t *testing.T) {
	sqlDB, dialect := setupTestDB(t)
	repo := NewPostRepository(sqlDB, dialect)
	comments := NewCommentRepository(sqlDB, dialect)
	ctx := context.Background()

	post := newTestPost("alice", time.Now().UTC())
	if err := repo.CreatePost(ctx, post); err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}
	if err := comments.AddComment(ctx, &domain.Comment{
		ID: uuid.NewString(), PostID: post.ID, AuthorID: "bob", Content: "hi", CreatedAt: time.Now().UTC(),
	}); err != nil {
		t.Fatalf("AddComment failed: %v", err)
	}
	if _, err := repo.RecordLike(ctx, post.ID, "bob", time.Now()); err != nil {
		t.Fatalf("RecordLike failed: %v", err)
	}

	if err := repo.DeletePost(ctx, post.ID); err != nil {
		t.Fatalf("DeletePost failed: %v", err)
	}

	if _, err := repo.GetPost(ctx, post.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("GetPost after delete error = %v, want ErrNotFound", err)
	}

	remaining, err := comments.ListComments(ctx, post.ID)
	if err != nil {
		t.Fatalf("ListComments failed: %v", err)
	}
	if len(remaining) != 0 {
		t.Errorf("got %d comments after delete, want 0", len(remaining))
	}

	var likes int
	if err := sqlDB.QueryRow(`SELECT COUNT(*) FROM post_likes WHERE post_id = ?`, post.ID).Scan(&likes); err != nil {
		t.Fatalf("count likes failed: %v", err)
	}
	if likes != 0 {
		t.Errorf("got %d like rows after delete, want 0", likes)
	}

	if err := repo.DeletePost(ctx, post.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("second DeletePost error = %v, want ErrNotFound", err)
	}
}

func TestPostRepository_ConcurrentIncrements(t *testing.T) {
	sqlDB, dialect := setupTestDB(t)
	repo := NewPostRepository(sqlDB, dialect)
	ctx := context.Background()

	post := newTestPost("alice", time.Now().UTC())
	if err := repo.CreatePost(ctx, post); err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}

	const n = 25
	var wg sync.WaitGroup
	errs := make(chan error, 2*n)
	for i := 0; i < n; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			errs <- repo.IncrementViews(ctx, post.ID)
		}()
		go func() {
			defer wg.Done()
			errs <- repo.IncrementLikes(ctx, post.ID)
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("increment failed: %v", err)
		}
	}

	got, err := repo.GetPost(ctx, post.ID)
	if err != nil {
		t.Fatalf("GetPost failed: %v", err)
	}
	if got.Views != n || got.Likes != n {
		t.Errorf("Views, Likes = %d, %d, want %d, %d", got.Views, got.Likes, n, n)
	}

	if err := repo.IncrementViews(ctx, uuid.NewString()); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("IncrementViews missing error = %v, want ErrNotFound", err)
	}
}

func TestPostRepository_RecordLike(t *testing.T) {
	sqlDB, dialect := setupTestDB(t)
	repo := NewPostRepository(sqlDB, dialect)
	ctx := context.Background()

	post := newTestPost("alice", time.Now().UTC())
	if err := repo.CreatePost(ctx, post); err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}

	tests := []struct {
		user string
		want bool
	}{
		{user: "bob", want: true},
		{user: "bob", want: false},
		{user: "carol", want: true},
	}

	for _, tt := range tests {
		got, err := repo.RecordLike(ctx, post.ID, tt.user, time.Now())
		if err != nil {
			t.Fatalf("RecordLike(%s) failed: %v", tt.user, err)
		}
		if got != tt.want {
			t.Errorf("RecordLike(%s) = %v, want %v", tt.user, got, tt.want)
		}
	}
}

func TestPostRepository_CountImageReferences(t *testing.T) {
	sqlDB, dialect := setupTestDB(t)
	repo := NewPostRepository(sqlDB, dialect)
	ctx := context.Background()
	now := time.Now().UTC()

	for i, image := range []string{"/images/bob/1.png", "/images/bob/1.png", "/images/bob/2.png", ""} {
		p := newTestPost("bob", now.Add(time.Duration(i)*time.Second))
		p.Image = image
		if err := repo.CreatePost(ctx, p); err != nil {
			t.Fatalf("CreatePost failed: %v", err)
		}
	}

	tests := []struct {
		url  string
		want int64
	}{
		{url: "/images/bob/1.png", want: 2},
		{url: "/images/bob/2.png", want: 1},
		{url: "/images/bob/3.png", want: 0},
	}
	for _, tt := range tests {
		got, err := repo.CountImageReferences(ctx, tt.url)
		if err != nil {
			t.Fatalf("CountImageReferences(%q) failed: %v", tt.url, err)
		}
		if got != tt.want {
			t.Errorf("CountImageReferences(%q) = %d, want %d", tt.url, got, tt.want)
		}
	}
}

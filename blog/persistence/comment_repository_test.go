package persistence

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dfryer1193/blogsphere/blog/domain"
	"github.com/google/uuid"
)

func TestCommentRepository_AddAndList(t *testing.T) {
	sqlDB, dialect := setupTestDB(t)
	posts := NewPostRepository(sqlDB, dialect)
	comments := NewCommentRepository(sqlDB, dialect)
	profiles := NewProfileRepository(sqlDB, dialect)
	ctx := context.Background()

	now := time.Now().UTC()
	if _, err := profiles.EnsureProfile(ctx, &domain.Profile{ID: "bob", Name: "Bob", CreatedAt: now, UpdatedAt: now}); err != nil {
		t.Fatalf("EnsureProfile failed: %v", err)
	}

	post := newTestPost("alice", now)
	if err := posts.CreatePost(ctx, post); err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}

	base := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	first := &domain.Comment{ID: uuid.NewString(), PostID: post.ID, AuthorID: "bob", Content: "first", CreatedAt: base}
	second := &domain.Comment{ID: uuid.NewString(), PostID: post.ID, AuthorID: "carol", Content: "second", CreatedAt: base.Add(time.Minute)}
	tied := &domain.Comment{ID: uuid.NewString(), PostID: post.ID, AuthorID: "bob", Content: "third", CreatedAt: base.Add(time.Minute)}

	// inserted out of chronological order
	for _, c := range []*domain.Comment{second, first, tied} {
		if err := comments.AddComment(ctx, c); err != nil {
			t.Fatalf("AddComment failed: %v", err)
		}
	}

	got, err := comments.ListComments(ctx, post.ID)
	if err != nil {
		t.Fatalf("ListComments failed: %v", err)
	}

	wantIDs := []string{first.ID, second.ID, tied.ID}
	if len(got) != len(wantIDs) {
		t.Fatalf("got %d comments, want %d", len(got), len(wantIDs))
	}
	for i, id := range wantIDs {
		if got[i].ID != id {
			t.Errorf("comments[%d].ID = %s, want %s", i, got[i].ID, id)
		}
	}

	if got[0].Author == nil || got[0].Author.Name != "Bob" {
		t.Errorf("comments[0].Author = %+v, want Bob", got[0].Author)
	}
	if got[1].Author != nil {
		t.Errorf("comments[1].Author = %+v, want nil for author without profile", got[1].Author)
	}
}

func TestCommentRepository_GetComment(t *testing.T) {
	sqlDB, dialect := setupTestDB(t)
	posts := NewPostRepository(sqlDB, dialect)
	comments := NewCommentRepository(sqlDB, dialect)
	ctx := context.Background()

	post := newTestPost("alice", time.Now().UTC())
	if err := posts.CreatePost(ctx, post); err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}

	c := &domain.Comment{ID: uuid.NewString(), PostID: post.ID, AuthorID: "bob", Content: "hello", CreatedAt: time.Now().UTC()}
	if err := comments.AddComment(ctx, c); err != nil {
		t.Fatalf("AddComment failed: %v", err)
	}

	got, err := comments.GetComment(ctx, c.ID)
	if err != nil {
		t.Fatalf("GetComment failed: %v", err)
	}
	if got.Content != "hello" || got.PostID != post.ID {
		t.Errorf("GetComment = %+v, want content hello on post %s", got, post.ID)
	}

	if _, err := comments.GetComment(ctx, uuid.NewString()); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("GetComment missing error = %v, want ErrNotFound", err)
	}
}

func TestCommentRepository_RequiresExistingPost(t *testing.T) {
	sqlDB, dialect := setupTestDB(t)
	comments := NewCommentRepository(sqlDB, dialect)

	err := comments.AddComment(context.Background(), &domain.Comment{
		ID: uuid.NewString(), PostID: uuid.NewString(), AuthorID: "bob", Content: "orphan", CreatedAt: time.Now(),
	})
	if err == nil {
		t.Error("AddComment on missing post succeeded, want foreign key error")
	}
}

func TestCommentRepository_DeleteCommentsForPost(t *testing.T) {
	sqlDB, dialect := setupTestDB(t)
	posts := NewPostRepository(sqlDB, dialect)
	comments := NewCommentRepository(sqlDB, dialect)
	ctx := context.Background()

	keep := newTestPost("alice", time.Now().UTC())
	drop := newTestPost("alice", time.Now().UTC())
	for _, p := range []*domain.Post{keep, drop} {
		if err := posts.CreatePost(ctx, p); err != nil {
			t.Fatalf("CreatePost failed: %v", err)
		}
		if err := comments.AddComment(ctx, &domain.Comment{
			ID: uuid.NewString(), PostID: p.ID, AuthorID: "bob", Content: "c", CreatedAt: time.Now().UTC(),
		}); err != nil {
			t.Fatalf("AddComment failed: %v", err)
		}
	}

	if err := comments.DeleteCommentsForPost(ctx, drop.ID); err != nil {
		t.Fatalf("DeleteCommentsForPost failed: %v", err)
	}

	tests := []struct {
		postID string
		want   int
	}{
		{postID: keep.ID, want: 1},
		{postID: drop.ID, want: 0},
	}
	for _, tt := range tests {
		got, err := comments.ListComments(ctx, tt.postID)
		if err != nil {
			t.Fatalf("ListComments failed: %v", err)
		}
		if len(got) != tt.want {
			t.Errorf("ListComments(%s) returned %d, want %d", tt.postID, len(got), tt.want)
		}
	}
}

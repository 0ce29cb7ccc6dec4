package domain

import (
	"context"
	"time"
)

// Comment is an append-only annotation on a Post
type Comment struct {
	ID        string
	PostID    string
	AuthorID  string
	Content   string
	CreatedAt time.Time

	Author *AuthorSummary
}

type CommentRepository interface {
	AddComment(ctx context.Context, c *Comment) error
	GetComment(ctx context.Context, id string) (*Comment, error)
	ListComments(ctx context.Context, postID string) ([]*Comment, error)
	DeleteCommentsForPost(ctx context.Context, postID string) error
}

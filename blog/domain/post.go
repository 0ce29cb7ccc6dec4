package domain

import (
	"context"
	"time"
)

// Post is an authored content entity. AuthorID never changes after creation,
// and Likes and Views only ever grow.
type Post struct {
	ID        string
	Title     string
	Content   string
	AuthorID  string
	Tags      []string
	Image     string
	Likes     int64
	Views     int64
	CreatedAt time.Time
	UpdatedAt time.Time

	// Author is populated by reads that join the author's profile. It is nil when the profile is missing.
	Author *AuthorSummary

	// Rendered from Content on read, never stored
	ContentHTML string
	Excerpt     string
}

// AuthorSummary is the slice of a Profile embedded in posts and comments
type AuthorSummary struct {
	ID             string
	Name           string
	ProfilePicture string
	Bio            string
}

type PostInput struct {
	Title   string
	Content string
	Tags    []string
	Image   string
}

// PostPatch carries the fields an update supplies. Nil means unchanged.
type PostPatch struct {
	Title   *string
	Content *string
	Tags    *[]string
	Image   *string
}

// PostDetail is a single post with its comments, oldest first
type PostDetail struct {
	Post     *Post
	Comments []*Comment
}

type LikeResult struct {
	PostID       string
	Likes        int64
	Views        int64
	AlreadyLiked bool
}

type PostRepository interface {
	CreatePost(ctx context.Context, p *Post) error
	GetPost(ctx context.Context, id string) (*Post, error)
	GetAuthorID(ctx context.Context, id string) (string, error)
	ListPosts(ctx context.Context) ([]*Post, error)
	ListPostsByAuthor(ctx context.Context, authorID string) ([]*Post, error)
	UpdatePost(ctx context.Context, p *Post) error
	DeletePost(ctx context.Context, id string) error

	IncrementViews(ctx context.Context, id string) error
	IncrementLikes(ctx context.Context, id string) error
	// CountImageReferences counts the posts whose image is url
	CountImageReferences(ctx context.Context, url string) (int64, error)

	// RecordLike stores a (post, user) like and reports false if it already existed.
	RecordLike(ctx context.Context, postID string, userID string, at time.Time) (bool, error)
}

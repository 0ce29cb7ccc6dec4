package api

import (
	"time"

	"github.com/dfryer1193/blogsphere/blog/domain"
)

type Comment struct {
	ID        string    `json:"id"`
	PostID    string    `json:"post_id"`
	AuthorID  string    `json:"author_id"`
	Author    *Author   `json:"author"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// CommentRequest is the body of POST /posts/:id/comment
type CommentRequest struct {
	Content string `json:"content"`
}

func NewComment(c *domain.Comment) Comment {
	return Comment{
		ID:        c.ID,
		PostID:    c.PostID,
		AuthorID:  c.AuthorID,
		Author:    NewAuthor(c.Author),
		Content:   c.Content,
		CreatedAt: c.CreatedAt,
	}
}

package api

import (
	"time"

	"github.com/dfryer1193/blogsphere/blog/domain"
)

type Author struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	ProfilePicture string `json:"profile_picture,omitempty"`
	Bio            string `json:"bio,omitempty"`
}

type Post struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	ContentHTML string    `json:"content_html,omitempty"`
	Excerpt     string    `json:"excerpt"`
	AuthorID    string    `json:"author_id"`
	Author      *Author   `json:"author"`
	Tags        []string  `json:"tags"`
	Image       *string   `json:"image"`
	Likes       int64     `json:"likes"`
	Views       int64     `json:"views"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// PostDetail is a post with its comments, oldest first
type PostDetail struct {
	Post
	Comments []Comment `json:"comments"`
}

// PostRequest is the body of POST /posts. Author fields are never read from it.
type PostRequest struct {
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Tags    []string `json:"tags"`
	Image   string   `json:"image"`
}

// PostPatchRequest is the body of PUT /posts/:id. Absent fields are left unchanged.
type PostPatchRequest struct {
	Title   *string   `json:"title"`
	Content *string   `json:"content"`
	Tags    *[]string `json:"tags"`
	Image   *string   `json:"image"`
}

type LikeResponse struct {
	ID           string `json:"id"`
	Likes        int64  `json:"likes"`
	Views        int64  `json:"views"`
	AlreadyLiked bool   `json:"already_liked"`
}

type ImageUploadResponse struct {
	Message  string `json:"message"`
	ImageURL string `json:"imageUrl"`
}

func (r PostRequest) ToDomain() domain.PostInput {
	return domain.PostInput{
		Title:   r.Title,
		Content: r.Content,
		Tags:    r.Tags,
		Image:   r.Image,
	}
}

func (r PostPatchRequest) ToDomain() domain.PostPatch {
	return domain.PostPatch{
		Title:   r.Title,
		Content: r.Content,
		Tags:    r.Tags,
		Image:   r.Image,
	}
}

func NewAuthor(a *domain.AuthorSummary) *Author {
	if a == nil {
		return nil
	}
	return &Author{
		ID:             a.ID,
		Name:           a.Name,
		ProfilePicture: a.ProfilePicture,
		Bio:            a.Bio,
	}
}

func NewPost(p *domain.Post) Post {
	post := Post{
		ID:          p.ID,
		Title:       p.Title,
		Content:     p.Content,
		ContentHTML: p.ContentHTML,
		Excerpt:     p.Excerpt,
		AuthorID:    p.AuthorID,
		Author:      NewAuthor(p.Author),
		Tags:        p.Tags,
		Likes:       p.Likes,
		Views:       p.Views,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
	if post.Tags == nil {
		post.Tags = []string{}
	}
	if p.Image != "" {
		image := p.Image
		post.Image = &image
	}
	return post
}

// NewPostSummary drops the rendered body and the author bio for list views
func NewPostSummary(p *domain.Post) Post {
	post := NewPost(p)
	post.ContentHTML = ""
	if post.Author != nil {
		post.Author.Bio = ""
	}
	return post
}

func NewPostList(posts []*domain.Post) []Post {
	out := make([]Post, 0, len(posts))
	for _, p := range posts {
		out = append(out, NewPostSummary(p))
	}
	return out
}

func NewPostDetail(d *domain.PostDetail) PostDetail {
	comments := make([]Comment, 0, len(d.Comments))
	for _, c := range d.Comments {
		comments = append(comments, NewComment(c))
	}
	return PostDetail{
		Post:     NewPost(d.Post),
		Comments: comments,
	}
}

func NewLikeResponse(r *domain.LikeResult) LikeResponse {
	return LikeResponse{
		ID:           r.PostID,
		Likes:        r.Likes,
		Views:        r.Views,
		AlreadyLiked: r.AlreadyLiked,
	}
}

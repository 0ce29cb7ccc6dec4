package application

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dfryer1193/blogsphere/blog/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const defaultMaxImageBytes = 5 << 20

// imageExtensions maps the sniffed content types accepted for upload to file extensions
var imageExtensions = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/gif":  "gif",
	"image/webp": "webp",
}

type PostServiceOptions struct {
	Limits Limits
	// UniqueLikes records one like per (post, user); repeats leave the counter alone
	UniqueLikes   bool
	MaxImageBytes int64
}

type PostService struct {
	posts    domain.PostRepository
	comments domain.CommentRepository
	tx       domain.Transactor
	images   domain.ImageStore
	markdown MarkdownRenderer
	opts     PostServiceOptions

	now   func() time.Time
	newID func() string
}

func NewPostService(
	posts domain.PostRepository,
	comments domain.CommentRepository,
	tx domain.Transactor,
	images domain.ImageStore,
	markdown MarkdownRenderer,
	opts PostServiceOptions,
) *PostService {
	if opts.MaxImageBytes <= 0 {
		opts.MaxImageBytes = defaultMaxImageBytes
	}

	return &PostService{
		posts:    posts,
		comments: comments,
		tx:       tx,
		images:   images,
		markdown: markdown,
		opts:     opts,
		now:      func() time.Time { return time.Now().UTC() },
		newID:    uuid.NewString,
	}
}

// MaxImageBytes is the largest upload UploadImage accepts
func (s *PostService) MaxImageBytes() int64 {
	return s.opts.MaxImageBytes
}

// ListPosts returns every post newest first, each with an excerpt
func (s *PostService) ListPosts(ctx context.Context) ([]*domain.Post, error) {
	posts, err := s.posts.ListPosts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}

	s.renderExcerpts(posts)
	return posts, nil
}

// ListPostsByAuthor returns authorID's posts. Only the author may list them.
func (s *PostService) ListPostsByAuthor(ctx context.Context, callerID string, authorID string) ([]*domain.Post, error) {
	if err := ValidateUserID(authorID); err != nil {
		return nil, err
	}
	if callerID == "" {
		return nil, domain.ErrUnauthenticated
	}
	if callerID != authorID {
		return nil, fmt.Errorf("list posts of %s: %w", authorID, domain.ErrForbidden)
	}

	posts, err := s.posts.ListPostsByAuthor(ctx, authorID)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts by author: %w", err)
	}

	s.renderExcerpts(posts)
	return posts, nil
}

// GetPost counts a view and returns the post with its comments, oldest first.
// The increment and both reads share one transaction.
func (s *PostService) GetPost(ctx context.Context, id string) (*domain.PostDetail, error) {
	id, err := ParseEntityID("post id", id)
	if err != nil {
		return nil, err
	}

	detail := &domain.PostDetail{}
	err = s.tx.RunInTransaction(ctx, func(txCtx context.Context) error {
		if err := s.posts.IncrementViews(txCtx, id); err != nil {
			return err
		}

		post, err := s.posts.GetPost(txCtx, id)
		if err != nil {
			return err
		}

		comments, err := s.comments.ListComments(txCtx, id)
		if err != nil {
			return err
		}

		detail.Post = post
		detail.Comments = comments
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.render(detail.Post)
	return detail, nil
}

// CreatePost stores a new post owned by authorID. Counters start at zero.
func (s *PostService) CreatePost(ctx context.Context, authorID string, input domain.PostInput) (*domain.Post, error) {
	if authorID == "" {
		return nil, domain.ErrUnauthenticated
	}

	now := s.now()
	post := &domain.Post{
		ID:        s.newID(),
		Title:     strings.TrimSpace(input.Title),
		Content:   input.Content,
		AuthorID:  authorID,
		Tags:      normalizeTags(input.Tags),
		Image:     strings.TrimSpace(input.Image),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.opts.Limits.checkPost(post); err != nil {
		return nil, err
	}

	if err := s.posts.CreatePost(ctx, post); err != nil {
		return nil, fmt.Errorf("failed to create post: %w", err)
	}

	created, err := s.posts.GetPost(ctx, post.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to read created post: %w", err)
	}

	s.render(created)
	return created, nil
}

// UpdatePost applies the supplied fields of patch. The stored author must be callerID.
func (s *PostService) UpdatePost(ctx context.Context, id string, callerID string, patch domain.PostPatch) (*domain.Post, error) {
	id, err := ParseEntityID("post id", id)
	if err != nil {
		return nil, err
	}

	var replacedImage string
	var updated *domain.Post
	err = s.tx.RunInTransaction(ctx, func(txCtx context.Context) error {
		if err := s.authorize(txCtx, id, callerID); err != nil {
			return err
		}

		post, err := s.posts.GetPost(txCtx, id)
		if err != nil {
			return err
		}
		oldImage := post.Image

		if patch.Title != nil {
			post.Title = strings.TrimSpace(*patch.Title)
		}
		if patch.Content != nil {
			post.Content = *patch.Content
		}
		if patch.Tags != nil {
			post.Tags = normalizeTags(*patch.Tags)
		}
		if patch.Image != nil {
			post.Image = strings.TrimSpace(*patch.Image)
		}

		if err := s.opts.Limits.checkPost(post); err != nil {
			return err
		}

		post.UpdatedAt = s.now()
		if !post.UpdatedAt.After(post.CreatedAt) {
			post.UpdatedAt = post.CreatedAt.Add(time.Microsecond)
		}

		if err := s.posts.UpdatePost(txCtx, post); err != nil {
			return err
		}

		if oldImage != "" && oldImage != post.Image {
			replacedImage = oldImage
		}

		updated, err = s.posts.GetPost(txCtx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.discardImage(ctx, callerID, replacedImage)
	s.render(updated)
	return updated, nil
}

// DeletePost removes a post with its comments and likes. The stored author must be callerID.
func (s *PostService) DeletePost(ctx context.Context, id string, callerID string) error {
	id, err := ParseEntityID("post id", id)
	if err != nil {
		return err
	}

	var image string
	err = s.tx.RunInTransaction(ctx, func(txCtx context.Context) error {
		if err := s.authorize(txCtx, id, callerID); err != nil {
			return err
		}

		post, err := s.posts.GetPost(txCtx, id)
		if err != nil {
			return err
		}
		image = post.Image

		if err := s.comments.DeleteCommentsForPost(txCtx, id); err != nil {
			return err
		}

		return s.posts.DeletePost(txCtx, id)
	})
	if err != nil {
		return err
	}

	s.discardImage(ctx, callerID, image)
	return nil
}

// AddComment appends a comment by authorID to an existing post
func (s *PostService) AddComment(ctx context.Context, postID string, authorID string, content string) (*domain.Comment, error) {
	postID, err := ParseEntityID("post id", postID)
	if err != nil {
		return nil, err
	}
	if authorID == "" {
		return nil, domain.ErrUnauthenticated
	}

	content = strings.TrimSpace(content)
	if err := requireText("content", content); err != nil {
		return nil, err
	}
	if err := checkLength("content", content, s.opts.Limits.MaxCommentLength); err != nil {
		return nil, err
	}

	var added *domain.Comment
	err = s.tx.RunInTransaction(ctx, func(txCtx context.Context) error {
		if _, err := s.posts.GetAuthorID(txCtx, postID); err != nil {
			return err
		}

		comment := &domain.Comment{
			ID:        s.newID(),
			PostID:    postID,
			AuthorID:  authorID,
			Content:   content,
			CreatedAt: s.now(),
		}
		if err := s.comments.AddComment(txCtx, comment); err != nil {
			return err
		}

		var err error
		added, err = s.comments.GetComment(txCtx, comment.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	return added, nil
}

// LikePost adds a like from userID and returns the post's counters
func (s *PostService) LikePost(ctx context.Context, postID string, userID string) (*domain.LikeResult, error) {
	postID, err := ParseEntityID("post id", postID)
	if err != nil {
		return nil, err
	}
	if userID == "" {
		return nil, domain.ErrUnauthenticated
	}

	result := &domain.LikeResult{PostID: postID}
	err = s.tx.RunInTransaction(ctx, func(txCtx context.Context) error {
		if s.opts.UniqueLikes {
			if _, err := s.posts.GetAuthorID(txCtx, postID); err != nil {
				return err
			}

			inserted, err := s.posts.RecordLike(txCtx, postID, userID, s.now())
			if err != nil {
				return err
			}
			result.AlreadyLiked = !inserted
		}

		if !result.AlreadyLiked {
			if err := s.posts.IncrementLikes(txCtx, postID); err != nil {
				return err
			}
		}

		post, err := s.posts.GetPost(txCtx, postID)
		if err != nil {
			return err
		}
		result.Likes = post.Likes
		result.Views = post.Views
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// UploadImage stores an image for userID and returns its public URL.
// The type is sniffed from content; the client-declared type is ignored.
func (s *PostService) UploadImage(ctx context.Context, userID string, content []byte) (string, error) {
	if userID == "" {
		return "", domain.ErrUnauthenticated
	}
	if err := ValidateUserID(userID); err != nil {
		return "", err
	}
	if len(content) == 0 {
		return "", domain.NewValidationError("image", "no image uploaded")
	}
	if int64(len(content)) > s.opts.MaxImageBytes {
		return "", fmt.Errorf("image of %d bytes: %w", len(content), domain.ErrPayloadTooLarge)
	}

	contentType := http.DetectContentType(content)
	ext, ok := imageExtensions[contentType]
	if !ok {
		return "", domain.NewValidationError("image", "image must be jpeg, png, gif or webp")
	}

	now := s.now()
	img := &domain.Image{
		Key:         fmt.Sprintf("%s/%d-%s.%s", userID, now.UnixMilli(), s.newID()[:8], ext),
		ContentType: contentType,
		Content:     content,
		CreatedAt:   now,
	}

	url, err := s.images.SaveImage(ctx, img)
	if err != nil {
		return "", fmt.Errorf("failed to save image: %w", err)
	}

	log.Info().Str("user_id", userID).Str("key", img.Key).Int("bytes", len(content)).Msg("Image uploaded")
	return url, nil
}

// authorize loads the stored author of a post and compares it with callerID
func (s *PostService) authorize(ctx context.Context, postID string, callerID string) error {
	if callerID == "" {
		return domain.ErrUnauthenticated
	}

	authorID, err := s.posts.GetAuthorID(ctx, postID)
	if err != nil {
		return err
	}

	if authorID != callerID {
		return fmt.Errorf("post %s: %w", postID, domain.ErrForbidden)
	}

	return nil
}

// discardImage deletes a stored image that no post references any more.
// Only images uploaded by ownerID are removed; keys are <uploader>/<name>.
// Failures are only logged.
func (s *PostService) discardImage(ctx context.Context, ownerID string, url string) {
	if url == "" || s.images == nil {
		return
	}

	key, ok := s.images.KeyOf(url)
	if !ok {
		return
	}
	if uploader, _, _ := strings.Cut(key, "/"); uploader != ownerID {
		return
	}

	refs, err := s.posts.CountImageReferences(ctx, url)
	if err != nil {
		log.Warn().Err(err).Str("url", url).Msg("Failed to check image references")
		return
	}
	if refs > 0 {
		return
	}

	if err := s.images.DeleteImage(ctx, url); err != nil {
		log.Warn().Err(err).Str("url", url).Msg("Failed to delete unreferenced image")
	}
}

func (s *PostService) render(post *domain.Post) {
	if post == nil {
		return
	}

	result, err := s.markdown.Render([]byte(post.Content))
	if err != nil {
		log.Error().Err(err).Str("post_id", post.ID).Msg("Failed to render post content")
		return
	}

	post.ContentHTML = string(result.HTMLContent)
	post.Excerpt = result.Excerpt
}

func (s *PostService) renderExcerpts(posts []*domain.Post) {
	for _, post := range posts {
		post.Excerpt = extractExcerpt([]byte(post.Content))
	}
}

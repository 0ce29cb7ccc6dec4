package rest

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/dfryer1193/blogsphere/api"
	"github.com/dfryer1193/blogsphere/blog/application"
	"github.com/dfryer1193/blogsphere/blog/domain"
	"github.com/dfryer1193/blogsphere/internal/middleware"
	"github.com/gin-gonic/gin"
)

const (
	imageFormField = "image"
	// multipartOverhead allows for boundaries and part headers around the file itself
	multipartOverhead = 64 << 10
)

type ImageHandler struct {
	posts *application.PostService
	auth  *middleware.Authenticator
}

func NewImageHandler(posts *application.PostService, auth *middleware.Authenticator) *ImageHandler {
	return &ImageHandler{
		posts: posts,
		auth:  auth,
	}
}

func (h *ImageHandler) RegisterRoutes(r gin.IRouter) {
	r.POST("/posts/upload-image", h.auth.RequireAuth(), h.UploadImage)
}

// UploadImage accepts a multipart form with the file in the "image" field
func (h *ImageHandler) UploadImage(c *gin.Context) {
	maxBytes := h.posts.MaxImageBytes()
	bodyLimit := maxBytes + multipartOverhead

	if c.Request.ContentLength > bodyLimit {
		respondError(c, fmt.Errorf("upload of %d bytes: %w", c.Request.ContentLength, domain.ErrPayloadTooLarge))
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, bodyLimit)

	header, err := c.FormFile(imageFormField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(c, fmt.Errorf("upload body: %w", domain.ErrPayloadTooLarge))
			return
		}
		respondError(c, domain.NewValidationError(imageFormField, "no image uploaded"))
		return
	}
	if header.Size > maxBytes {
		respondError(c, fmt.Errorf("image of %d bytes: %w", header.Size, domain.ErrPayloadTooLarge))
		return
	}

	file, err := header.Open()
	if err != nil {
		respondError(c, fmt.Errorf("failed to open uploaded image: %w", err))
		return
	}
	defer file.Close()

	content, err := io.ReadAll(io.LimitReader(file, maxBytes+1))
	if err != nil {
		respondError(c, fmt.Errorf("failed to read uploaded image: %w", err))
		return
	}

	url, err := h.posts.UploadImage(c.Request.Context(), callerID(c), content)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, api.ImageUploadResponse{
		Message:  "Image uploaded successfully",
		ImageURL: url,
	})
}

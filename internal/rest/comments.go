package rest

import (
	"net/http"

	"github.com/dfryer1193/blogsphere/api"
	"github.com/dfryer1193/blogsphere/blog/application"
	"github.com/dfryer1193/blogsphere/internal/middleware"
	"github.com/gin-gonic/gin"
)

type CommentHandler struct {
	posts *application.PostService
	auth  *middleware.Authenticator
}

func NewCommentHandler(posts *application.PostService, auth *middleware.Authenticator) *CommentHandler {
	return &CommentHandler{
		posts: posts,
		auth:  auth,
	}
}

func (h *CommentHandler) RegisterRoutes(r gin.IRouter) {
	r.POST("/posts/:id/comment", h.auth.RequireAuth(), h.AddComment)
}

func (h *CommentHandler) AddComment(c *gin.Context) {
	var req api.CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errInvalidBody)
		return
	}

	comment, err := h.posts.AddComment(c.Request.Context(), c.Param("id"), callerID(c), req.Content)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, api.NewComment(comment))
}

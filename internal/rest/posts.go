package rest

import (
	"net/http"

	"github.com/dfryer1193/blogsphere/api"
	"github.com/dfryer1193/blogsphere/blog/application"
	"github.com/dfryer1193/blogsphere/internal/middleware"
	"github.com/gin-gonic/gin"
)

type PostHandler struct {
	posts *application.PostService
	auth  *middleware.Authenticator
}

func NewPostHandler(posts *application.PostService, auth *middleware.Authenticator) *PostHandler {
	return &PostHandler{
		posts: posts,
		auth:  auth,
	}
}

func (h *PostHandler) RegisterRoutes(r gin.IRouter) {
	posts := r.Group("/posts")
	{
		posts.GET("", h.auth.OptionalAuth(), h.ListPosts)
		posts.GET("/:id", h.auth.OptionalAuth(), h.GetPost)
		posts.GET("/user/:userId", h.auth.RequireAuth(), h.ListPostsByAuthor)
		posts.POST("", h.auth.RequireAuth(), h.CreatePost)
		posts.PUT("/:id", h.auth.RequireAuth(), h.UpdatePost)
		posts.DELETE("/:id", h.auth.RequireAuth(), h.DeletePost)
		posts.POST("/:id/like", h.auth.RequireAuth(), h.LikePost)
	}
}

func (h *PostHandler) ListPosts(c *gin.Context) {
	posts, err := h.posts.ListPosts(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, api.NewPostList(posts))
}

func (h *PostHandler) GetPost(c *gin.Context) {
	detail, err := h.posts.GetPost(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, api.NewPostDetail(detail))
}

func (h *PostHandler) ListPostsByAuthor(c *gin.Context) {
	posts, err := h.posts.ListPostsByAuthor(c.Request.Context(), callerID(c), c.Param("userId"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, api.NewPostList(posts))
}

func (h *PostHandler) CreatePost(c *gin.Context) {
	var req api.PostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errInvalidBody)
		return
	}

	post, err := h.posts.CreatePost(c.Request.Context(), callerID(c), req.ToDomain())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, api.NewPost(post))
}

func (h *PostHandler) UpdatePost(c *gin.Context) {
	var req api.PostPatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errInvalidBody)
		return
	}

	post, err := h.posts.UpdatePost(c.Request.Context(), c.Param("id"), callerID(c), req.ToDomain())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, api.NewPost(post))
}

func (h *PostHandler) DeletePost(c *gin.Context) {
	if err := h.posts.DeletePost(c.Request.Context(), c.Param("id"), callerID(c)); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, api.Message{Message: "Post deleted"})
}

func (h *PostHandler) LikePost(c *gin.Context) {
	result, err := h.posts.LikePost(c.Request.Context(), c.Param("id"), callerID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, api.NewLikeResponse(result))
}

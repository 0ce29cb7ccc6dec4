package rest

import (
	"net/http"

	"github.com/dfryer1193/blogsphere/api"
	"github.com/dfryer1193/blogsphere/blog/application"
	"github.com/dfryer1193/blogsphere/internal/middleware"
	"github.com/gin-gonic/gin"
)

type ProfileHandler struct {
	profiles *application.ProfileService
	auth     *middleware.Authenticator
}

func NewProfileHandler(profiles *application.ProfileService, auth *middleware.Authenticator) *ProfileHandler {
	return &ProfileHandler{
		profiles: profiles,
		auth:     auth,
	}
}

func (h *ProfileHandler) RegisterRoutes(r gin.IRouter) {
	profile := r.Group("/auth/profile", h.auth.RequireAuth())
	{
		profile.GET("", h.GetProfile)
		profile.PUT("", h.UpdateProfile)
	}
}

func (h *ProfileHandler) GetProfile(c *gin.Context) {
	profile, err := h.profiles.GetProfile(c.Request.Context(), callerID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, api.NewProfile(profile))
}

func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	var req api.ProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errInvalidBody)
		return
	}

	profile, err := h.profiles.UpdateProfile(c.Request.Context(), callerID(c), req.ToDomain())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, api.NewProfile(profile))
}

package rest

import (
	"github.com/dfryer1193/blogsphere/blog/application"
	"github.com/dfryer1193/blogsphere/internal/middleware"
	"github.com/gin-gonic/gin"
)

// apiPrefix is the second mount point kept for clients of the original /api routes
const apiPrefix = "/api"

type RouteRegistrar interface {
	RegisterRoutes(r gin.IRouter)
}

type Dependencies struct {
	Posts         *application.PostService
	Profiles      *application.ProfileService
	Authenticator *middleware.Authenticator
	Health        HealthChecker
	Latency       *middleware.LatencyRecorder

	// ImageRoute and ImageDir serve the local image store. Leave them empty for remote stores.
	ImageRoute string
	ImageDir   string
}

// NewApi registers the blog routes at the root and under /api, plus the operational endpoints
func NewApi(router *gin.Engine, deps Dependencies) {
	handlers := []RouteRegistrar{
		NewImageHandler(deps.Posts, deps.Authenticator),
		NewPostHandler(deps.Posts, deps.Authenticator),
		NewCommentHandler(deps.Posts, deps.Authenticator),
		NewProfileHandler(deps.Profiles, deps.Authenticator),
	}

	for _, prefix := range []string{"/", apiPrefix} {
		group := router.Group(prefix)
		for _, h := range handlers {
			h.RegisterRoutes(group)
		}
	}

	NewOpsHandler(deps.Health, deps.Latency).RegisterRoutes(router)

	if deps.ImageRoute != "" && deps.ImageDir != "" {
		router.Static(deps.ImageRoute, deps.ImageDir)
	}
}

// callerID is the verified user id of the request, or "" when anonymous
func callerID(c *gin.Context) string {
	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		return ""
	}
	return identity.ID
}

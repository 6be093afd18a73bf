package http

import (
	"context"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/sujalbistaa/yatube/internal/logger"
)

// RouteOptions carries the settings the router needs besides the handlers.
type RouteOptions struct {
	AdminToken     string
	CORSOrigin     string
	RateLimitRPS   float64
	RateLimitBurst int
	// MediaRoot is served under /media when images are stored locally.
	MediaRoot string
}

// SetupRoutes configures all application routes and middleware. Background
// work started here stops when ctx is done.
func SetupRoutes(ctx context.Context, router *gin.Engine, env *Env, opts RouteOptions) {
	RegisterValidators()

	// --- Middleware ---

	router.Use(logger.Middleware())
	router.Use(gin.Recovery())
	router.Use(SecurityHeadersMiddleware())

	corsConfig := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Admin-Token"},
		ExposeHeaders: []string{"Content-Length", "Location", "X-Cache"},
	}
	if opts.CORSOrigin == "" || opts.CORSOrigin == "*" {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = []string{opts.CORSOrigin}
		corsConfig.AllowCredentials = true
	}
	router.Use(cors.New(corsConfig))

	router.Use(Authenticate(env.Tokens, env.Store))

	// --- Rate Limiter Setup ---
	// Only writes are limited.
	throttle := func(c *gin.Context) { c.Next() }
	if opts.RateLimitRPS > 0 {
		limiter := NewIPRateLimiter(rate.Limit(opts.RateLimitRPS), opts.RateLimitBurst)
		go limiter.Run(ctx, 10*time.Minute)
		throttle = RateLimitMiddleware(limiter)
	}

	// --- Pages ---

	router.GET("/", env.Index)
	router.GET("/group/:slug/", env.GroupPosts)
	router.GET("/groups/", env.ListGroups)
	router.GET("/profile/:username/", env.Profile)
	router.GET("/posts/:id/", env.PostDetail)

	members := router.Group("/", RequireUser())
	{
		members.POST("/create/", throttle, env.CreatePost)
		members.GET("/posts/:id/edit/", env.EditPostForm)
		members.POST("/posts/:id/edit/", throttle, env.EditPost)
		members.POST("/posts/:id/comment/", throttle, env.AddComment)
		members.GET("/follow/", env.FollowIndex)
		for _, method := range []string{"GET", "POST"} {
			members.Handle(method, "/profile/:username/follow/", env.ProfileFollow)
			members.Handle(method, "/profile/:username/unfollow/", env.ProfileUnfollow)
		}
	}

	// --- Accounts ---

	accounts := router.Group("/auth", throttle)
	{
		accounts.POST("/signup/", env.Signup)
		accounts.POST("/login/", env.Login)
	}

	// --- Administration ---

	admin := router.Group("/admin", AdminAuthMiddleware(opts.AdminToken))
	{
		admin.POST("/groups/", env.CreateGroup)
		admin.PUT("/groups/:slug/", env.UpdateGroup)
		admin.DELETE("/groups/:slug/", env.DeleteGroup)
		admin.DELETE("/posts/:id/", env.DeletePost)
		admin.DELETE("/users/:username/", env.DeleteUser)
		admin.DELETE("/cache/", env.ClearCache)
	}

	if opts.MediaRoot != "" {
		router.Static("/media", opts.MediaRoot)
	}

	router.NoRoute(NotFound)
}

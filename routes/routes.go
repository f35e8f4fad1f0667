package routes

import (
	"net/http"
	"strings"
	"time"

	"glammate/handlers"
	"glammate/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type Options struct {
	CORSOrigins []string
	// AuthRateLimit is the number of signup/verify/login attempts allowed
	// per client IP and minute.
	AuthRateLimit int
	// UploadDir, when set, is served under /uploads.
	UploadDir string
}

func SetupRouter(h *handlers.Handler, sessions *middleware.SessionManager, resolver middleware.ViewerResolver, opts Options) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger())

	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/health", h.Health)
	if opts.UploadDir != "" {
		router.Static("/uploads", opts.UploadDir)
	}

	app := router.Group("/")
	app.Use(sessions.Middleware(), middleware.LoadViewer(resolver))

	limit := opts.AuthRateLimit
	if limit <= 0 {
		limit = 10
	}
	authLimit := middleware.RateLimit(middleware.NewIPRateLimiter(limit, time.Minute))

	// Auth
	app.GET("/auth", h.ShowAuth)
	app.POST("/signup", authLimit, h.Signup)
	app.GET("/verify", h.ShowVerify)
	app.POST("/verify", authLimit, h.Verify)
	app.POST("/login", authLimit, h.Login)
	app.GET("/logout", h.Logout)
	app.GET("/auth/google", h.GoogleLogin)
	app.GET("/auth/google/callback", h.GoogleCallback)
	app.POST("/set-username", middleware.RequireLoginJSON(), h.SetUsername)

	// Public pages
	app.GET("/", h.Landing)
	app.GET("/explore", h.Explore)
	app.GET("/explore/post/:id", h.ShowPost)
	app.GET("/profile/:username", h.Profile)
	app.GET("/api/users/search", h.SearchUsers)

	// Interactions
	app.POST("/post/:id/like", middleware.RequireLoginJSON(), h.LikePost)
	app.POST("/post/:id/save", middleware.RequireLoginJSON(), h.SavePost)
	app.POST("/profile/:username/follow", middleware.RequireLoginJSON(), h.Follow)

	// Logged-in pages
	gated := app.Group("/")
	gated.Use(middleware.RequireLogin())
	gated.GET("/posts/add", h.ShowAddPost)
	gated.POST("/posts/add", h.AddPost)
	gated.GET("/posts/view", h.ViewPosts)
	gated.POST("/profile/update", h.UpdateProfile)
	gated.POST("/profile/update-banner", h.UpdateBanner)
	gated.GET("/collections", h.ListCollections)
	gated.POST("/collections", h.CreateCollection)
	gated.POST("/collections/:id/posts/:postId", h.AddToCollection)

	router.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api") {
			c.JSON(http.StatusNotFound, gin.H{"error": "Endpoint not found", "path": c.Request.URL.Path})
			return
		}
		c.String(http.StatusNotFound, "Not found")
	})

	return router
}

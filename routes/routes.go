package routes

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"quill/handlers"
	"quill/middleware"
)

// Deps is everything the router wires together.
type Deps struct {
	Posts          *handlers.PostHandler
	Categories     *handlers.CategoryHandler
	Accounts       *handlers.AuthHandler
	Auth           *middleware.Authenticator
	Limiter        *middleware.IPRateLimiter
	Log            *slog.Logger
	AllowedOrigins []string
	UploadDir      string
}

func SetupRouter(d Deps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(d.Log))

	corsConfig := cors.Config{
		AllowOrigins:     d.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(d.AllowedOrigins) == 0 {
		corsConfig.AllowAllOrigins = true
		corsConfig.AllowCredentials = false
	}
	router.Use(cors.New(corsConfig))

	health := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"time":   time.Now().Unix(),
		})
	}
	router.GET("/health", health)
	router.GET("/api/health", health)

	if d.UploadDir != "" {
		router.Static("/uploads", d.UploadDir)
	}

	api := router.Group("/api")
	limited := middleware.RateLimit(d.Limiter)
	protected := d.Auth.RequireAuth()

	// Auth
	api.POST("/auth/register", limited, d.Accounts.Register)
	api.POST("/auth/login", limited, d.Accounts.Login)
	api.GET("/auth/me", protected, d.Accounts.Me)

	// Posts
	api.GET("/posts", d.Posts.List)
	api.GET("/posts/search", d.Posts.Search)
	api.GET("/posts/:id", d.Auth.OptionalAuth(), d.Posts.Get)
	api.POST("/posts", limited, protected, d.Posts.Create)
	api.PUT("/posts/:id", limited, protected, d.Posts.Update)
	api.DELETE("/posts/:id", limited, protected, d.Posts.Delete)
	api.POST("/posts/:id/comments", limited, protected, d.Posts.AddComment)

	// Categories
	api.GET("/categories", d.Categories.List)
	api.POST("/categories", limited, protected, middleware.RequireAdmin(), d.Categories.Create)

	router.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api") {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Endpoint not found",
				"path":  c.Request.URL.Path,
			})
			return
		}
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	})

	return router
}

package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"quill/posts"
	"quill/uploads"
)

const defaultTimeout = 10 * time.Second

// withTimeout bounds store work for one request.
func withTimeout(c *gin.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return context.WithTimeout(c.Request.Context(), timeout)
}

// respondError writes the status and body for err. Anything unexpected is
// logged and answered with a generic message.
func respondError(c *gin.Context, log *slog.Logger, err error) {
	var valErr *posts.ValidationError
	switch {
	case errors.As(err, &valErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Validation failed", "errors": valErr.Violations})
	case errors.Is(err, posts.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
	case errors.Is(err, posts.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authorized to modify this post"})
	case errors.Is(err, posts.ErrNotAdmin):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authorized as an admin"})
	case errors.Is(err, posts.ErrCategoryNotFound):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Category not found"})
	case errors.Is(err, posts.ErrQueryRequired):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Search query is required"})
	case errors.Is(err, posts.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "Category already exists"})
	case errors.Is(err, uploads.ErrUnsupportedType):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Only image files are allowed"})
	default:
		log.Error("request failed",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"error", err,
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
	}
}

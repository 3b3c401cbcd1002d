package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"quill/middleware"
	"quill/posts"
)

type CategoryHandler struct {
	service *posts.Service
	log     *slog.Logger
	timeout time.Duration
}

func NewCategoryHandler(service *posts.Service, log *slog.Logger, timeout time.Duration) *CategoryHandler {
	return &CategoryHandler{service: service, log: log, timeout: timeout}
}

func (h *CategoryHandler) List(c *gin.Context) {
	ctx, cancel := withTimeout(c, h.timeout)
	defer cancel()

	categories, err := h.service.Categories(ctx)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, categories)
}

func (h *CategoryHandler) Create(c *gin.Context) {
	caller, ok := middleware.Identity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authorized, no token"})
		return
	}

	var in posts.CategoryInput
	if err := c.ShouldBind(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	ctx, cancel := withTimeout(c, h.timeout)
	defer cancel()

	category, err := h.service.CreateCategory(ctx, caller, in)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, category)
}

package handlers

import (
	"context"
	"errors"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"quill/access"
	"quill/middleware"
	"quill/posts"
	"quill/uploads"
)

type PostHandler struct {
	service   *posts.Service
	uploader  uploads.Uploader
	log       *slog.Logger
	timeout   time.Duration
	maxUpload int64
}

func NewPostHandler(service *posts.Service, uploader uploads.Uploader, log *slog.Logger, timeout time.Duration, maxUpload int64) *PostHandler {
	return &PostHandler{
		service:   service,
		uploader:  uploader,
		log:       log,
		timeout:   timeout,
		maxUpload: maxUpload,
	}
}

// List handles GET /api/posts?page=&limit=&category=. Unparsable numbers
// fall back to the defaults.
func (h *PostHandler) List(c *gin.Context) {
	ctx, cancel := withTimeout(c, h.timeout)
	defer cancel()

	page, _ := strconv.ParseInt(c.Query("page"), 10, 64)
	limit, _ := strconv.ParseInt(c.Query("limit"), 10, 64)

	result, err := h.service.List(ctx, posts.ListQuery{
		Page:     page,
		Limit:    limit,
		Category: c.Query("category"),
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *PostHandler) Search(c *gin.Context) {
	ctx, cancel := withTimeout(c, h.timeout)
	defer cancel()

	result, err := h.service.Search(ctx, c.Query("q"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// Get runs behind OptionalAuth so authors can preview their drafts.
func (h *PostHandler) Get(c *gin.Context) {
	ctx, cancel := withTimeout(c, h.timeout)
	defer cancel()

	var caller *access.Identity
	if id, ok := middleware.Identity(c); ok {
		caller = &id
	}

	post, err := h.service.Get(ctx, c.Param("id"), caller)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, post)
}

func (h *PostHandler) Create(c *gin.Context) {
	caller, ok := middleware.Identity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authorized, no token"})
		return
	}

	ctx, cancel := withTimeout(c, h.timeout)
	defer cancel()

	in, file, err := h.bind(c)
	if err != nil {
		h.bindError(c, err)
		return
	}

	if err := h.attach(ctx, file, &in); err != nil {
		respondError(c, h.log, err)
		return
	}

	post, err := h.service.Create(ctx, caller, in)
	if err != nil {
		h.discard(in.FeaturedImage, file)
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, post)
}

func (h *PostHandler) Update(c *gin.Context) {
	caller, ok := middleware.Identity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authorized, no token"})
		return
	}

	ctx, cancel := withTimeout(c, h.timeout)
	defer cancel()

	in, file, err := h.bind(c)
	if err != nil {
		h.bindError(c, err)
		return
	}

	// nothing is uploaded for callers who may not edit the post
	if file != nil {
		if err := h.service.Authorize(ctx, caller, c.Param("id")); err != nil {
			h.updateError(c, err)
			return
		}
	}

	if err := h.attach(ctx, file, &in); err != nil {
		respondError(c, h.log, err)
		return
	}

	post, err := h.service.Update(ctx, caller, c.Param("id"), posts.UpdateInput(in))
	if err != nil {
		h.discard(in.FeaturedImage, file)
		h.updateError(c, err)
		return
	}

	c.JSON(http.StatusOK, post)
}

func (h *PostHandler) Delete(c *gin.Context) {
	caller, ok := middleware.Identity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authorized, no token"})
		return
	}

	ctx, cancel := withTimeout(c, h.timeout)
	defer cancel()

	err := h.service.Delete(ctx, caller, c.Param("id"))
	if errors.Is(err, posts.ErrUnauthorized) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authorized to delete this post"})
		return
	}
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Post removed"})
}

func (h *PostHandler) AddComment(c *gin.Context) {
	caller, ok := middleware.Identity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authorized, no token"})
		return
	}

	var in posts.CommentInput
	if err := c.ShouldBind(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	ctx, cancel := withTimeout(c, h.timeout)
	defer cancel()

	comment, err := h.service.AddComment(ctx, caller, c.Param("id"), in)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, comment)
}

var errBadBody = errors.New("invalid request body")

// bind reads a post body sent either as JSON or as a multipart form. In a
// form, tags are a comma separated list and featuredImage may be a file,
// which is returned unsaved.
func (h *PostHandler) bind(c *gin.Context) (posts.CreateInput, *multipart.FileHeader, error) {
	var in posts.CreateInput

	if !strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		if err := c.ShouldBindJSON(&in); err != nil {
			return in, nil, errBadBody
		}
		return in, nil, nil
	}

	if h.maxUpload > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUpload)
	}
	if _, err := c.MultipartForm(); err != nil {
		return in, nil, errBadBody
	}

	in.Title = c.PostForm("title")
	in.Content = c.PostForm("content")
	in.Category = c.PostForm("category")
	in.Excerpt = c.PostForm("excerpt")
	in.FeaturedImage = c.PostForm("featuredImage")
	if tags, ok := c.GetPostForm("tags"); ok {
		in.Tags = splitTags(tags)
	}
	if v, ok := c.GetPostForm("isPublished"); ok {
		published, err := strconv.ParseBool(v)
		if err != nil {
			return in, nil, errBadBody
		}
		in.IsPublished = &published
	}

	file, err := c.FormFile("featuredImage")
	if errors.Is(err, http.ErrMissingFile) {
		return in, nil, nil
	}
	if err != nil {
		return in, nil, errBadBody
	}

	return in, file, nil
}

// attach uploads file, if any, and points the post at it.
func (h *PostHandler) attach(ctx context.Context, file *multipart.FileHeader, in *posts.CreateInput) error {
	if file == nil {
		return nil
	}

	name, err := h.uploader.Save(ctx, file)
	if err != nil {
		return err
	}
	in.FeaturedImage = name
	return nil
}

// discard removes an image uploaded for a request the service rejected.
func (h *PostHandler) discard(name string, file *multipart.FileHeader) {
	if file == nil || name == "" {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	if err := h.uploader.Remove(ctx, name); err != nil {
		h.log.Warn("failed to remove rejected upload", "file", name, "error", err)
	}
}

func (h *PostHandler) updateError(c *gin.Context, err error) {
	if errors.Is(err, posts.ErrUnauthorized) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authorized to update this post"})
		return
	}
	respondError(c, h.log, err)
}

func (h *PostHandler) bindError(c *gin.Context, err error) {
	if errors.Is(err, errBadBody) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	respondError(c, h.log, err)
}

func splitTags(s string) []string {
	tags := []string{}
	for _, tag := range strings.Split(s, ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

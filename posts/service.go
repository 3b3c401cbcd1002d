// Package posts implements the blog's post and category operations on top
// of the document stores: input validation, ownership checks, pagination
// and the author/category joins of every response.
package posts

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"quill/access"
	"quill/database"
	"quill/models"
)

const (
	// DefaultLimit is the page size used when a list request gives none.
	DefaultLimit = 10
	// MaxLimit bounds the page size a list request may ask for.
	MaxLimit = 100
)

type PostRepository interface {
	Insert(ctx context.Context, post *models.Post) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Post, error)
	List(ctx context.Context, filter database.PostFilter, skip, limit int64) ([]models.Post, error)
	Count(ctx context.Context, filter database.PostFilter) (int64, error)
	Search(ctx context.Context, term string, publishedOnly bool) ([]models.Post, error)
	Update(ctx context.Context, id primitive.ObjectID, fields database.PostFields) (*models.Post, error)
	IncrementViews(ctx context.Context, id primitive.ObjectID) (*models.Post, error)
	AppendComment(ctx context.Context, postID primitive.ObjectID, comment *models.Comment) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type CategoryRepository interface {
	Exists(ctx context.Context, id primitive.ObjectID) (bool, error)
	FindByName(ctx context.Context, name string) (*models.Category, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Category, error)
	List(ctx context.Context) ([]models.Category, error)
	Create(ctx context.Context, name string) (*models.Category, error)
}

// UserDirectory resolves the users referenced by posts and comments.
type UserDirectory interface {
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error)
}

type Service struct {
	posts        PostRepository
	categories   CategoryRepository
	users        UserDirectory
	defaultLimit int64
	maxLimit     int64
}

// NewService builds the service. Non-positive limits fall back to
// DefaultLimit and MaxLimit; the default never exceeds the maximum.
func NewService(posts PostRepository, categories CategoryRepository, users UserDirectory, defaultLimit, maxLimit int) *Service {
	if maxLimit < 1 {
		maxLimit = MaxLimit
	}
	if defaultLimit < 1 {
		defaultLimit = DefaultLimit
	}
	if defaultLimit > maxLimit {
		defaultLimit = maxLimit
	}
	return &Service{
		posts:        posts,
		categories:   categories,
		users:        users,
		defaultLimit: int64(defaultLimit),
		maxLimit:     int64(maxLimit),
	}
}

// ListQuery selects a page of published posts. Zero or negative values
// fall back to page 1 and the default limit; larger limits are capped.
type ListQuery struct {
	Page     int64
	Limit    int64
	Category string
}

type Page struct {
	Posts       []PostView `json:"posts"`
	TotalPages  int64      `json:"totalPages"`
	CurrentPage int64      `json:"currentPage"`
	TotalPosts  int64      `json:"totalPosts"`
}

// List returns one page of published posts, newest first. Category may be
// a category id or name; "" and "all" disable the filter and an unknown
// name yields an empty page.
func (s *Service) List(ctx context.Context, q ListQuery) (*Page, error) {
	page, limit := q.Page, q.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = s.defaultLimit
	}
	if limit > s.maxLimit {
		limit = s.maxLimit
	}

	filter := database.PostFilter{PublishedOnly: true}
	if q.Category != "" && q.Category != "all" {
		id, err := s.resolveCategory(ctx, q.Category)
		if errors.Is(err, database.ErrNotFound) {
			return &Page{Posts: []PostView{}, CurrentPage: page}, nil
		}
		if err != nil {
			return nil, fmt.Errorf("resolve category: %w", err)
		}
		filter.Category = &id
	}

	total, err := s.posts.Count(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("count posts: %w", err)
	}

	result := &Page{
		Posts:       []PostView{},
		TotalPages:  total / limit,
		CurrentPage: page,
		TotalPosts:  total,
	}
	if total%limit != 0 {
		result.TotalPages++
	}

	// pages past the end, including those whose offset would overflow
	if page-1 > (total-1)/limit {
		return result, nil
	}

	list, err := s.posts.List(ctx, filter, (page-1)*limit, limit)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}

	result.Posts, err = s.render(ctx, list, false)
	if err != nil {
		return nil, err
	}

	return result, nil
}

// Get returns a single post and counts the view. Unpublished posts are
// only visible to callers allowed to modify them; caller may be nil for
// anonymous requests.
func (s *Service) Get(ctx context.Context, id string, caller *access.Identity) (*PostView, error) {
	post, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	if !post.Published() && (caller == nil || !access.CanModify(*caller, post.Author)) {
		return nil, ErrNotFound
	}

	post, err = s.posts.IncrementViews(ctx, post.ID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("increment views: %w", err)
	}

	return s.renderOne(ctx, post, true)
}

// Search returns every published post whose title, content, excerpt or
// tags contain q, ignoring case.
func (s *Service) Search(ctx context.Context, q string) ([]PostView, error) {
	term := strings.TrimSpace(q)
	if term == "" {
		return nil, ErrQueryRequired
	}

	list, err := s.posts.Search(ctx, term, true)
	if err != nil {
		return nil, fmt.Errorf("search posts: %w", err)
	}

	return s.render(ctx, list, false)
}

// find loads a post by its hex id. Malformed ids are reported as missing.
func (s *Service) find(ctx context.Context, id string) (*models.Post, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	post, err := s.posts.FindByID(ctx, oid)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find post: %w", err)
	}
	return post, nil
}

func (s *Service) resolveCategory(ctx context.Context, ref string) (primitive.ObjectID, error) {
	if id, err := primitive.ObjectIDFromHex(ref); err == nil {
		return id, nil
	}

	category, err := s.categories.FindByName(ctx, ref)
	if err != nil {
		return primitive.NilObjectID, err
	}
	return category.ID, nil
}

package posts

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"quill/access"
	"quill/database"
	"quill/models"
)

// CreateInput is the body of a new post. The author is always the caller.
type CreateInput struct {
	Title         string   `json:"title" form:"title" validate:"required,max=100"`
	Content       string   `json:"content" form:"content" validate:"required"`
	Category      string   `json:"category" form:"category" validate:"required"`
	Excerpt       string   `json:"excerpt" form:"excerpt"`
	Tags          []string `json:"tags" form:"tags"`
	FeaturedImage string   `json:"featuredImage" form:"featuredImage"`
	IsPublished   *bool    `json:"isPublished" form:"isPublished"`
}

// UpdateInput is a sparse patch. Empty strings leave the stored value as
// it is; Tags and IsPublished apply whenever they are present.
type UpdateInput struct {
	Title         string   `json:"title" form:"title" validate:"omitempty,max=100"`
	Content       string   `json:"content" form:"content"`
	Category      string   `json:"category" form:"category"`
	Excerpt       string   `json:"excerpt" form:"excerpt"`
	Tags          []string `json:"tags" form:"tags"`
	FeaturedImage string   `json:"featuredImage" form:"featuredImage"`
	IsPublished   *bool    `json:"isPublished" form:"isPublished"`
}

type CommentInput struct {
	Content string `json:"content" form:"content" validate:"required"`
}

func (s *Service) Create(ctx context.Context, caller access.Identity, in CreateInput) (*PostView, error) {
	if err := check(in); err != nil {
		return nil, err
	}

	category, err := s.checkCategory(ctx, in.Category)
	if err != nil {
		return nil, err
	}

	published := true
	if in.IsPublished != nil {
		published = *in.IsPublished
	}

	post := &models.Post{
		Title:         in.Title,
		Content:       in.Content,
		Excerpt:       in.Excerpt,
		Category:      category,
		Author:        caller.ID,
		Tags:          in.Tags,
		FeaturedImage: in.FeaturedImage,
		IsPublished:   &published,
	}

	if err := s.posts.Insert(ctx, post); err != nil {
		return nil, fmt.Errorf("insert post: %w", err)
	}

	return s.renderOne(ctx, post, false)
}

func (s *Service) Update(ctx context.Context, caller access.Identity, id string, in UpdateInput) (*PostView, error) {
	if err := check(in); err != nil {
		return nil, err
	}

	post, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	if !access.CanModify(caller, post.Author) {
		return nil, ErrUnauthorized
	}

	var fields database.PostFields
	if in.Category != "" {
		category, err := s.checkCategory(ctx, in.Category)
		if err != nil {
			return nil, err
		}
		fields.Category = &category
	}
	if in.Title != "" {
		fields.Title = &in.Title
	}
	if in.Content != "" {
		fields.Content = &in.Content
	}
	if in.Excerpt != "" {
		fields.Excerpt = &in.Excerpt
	}
	if in.FeaturedImage != "" {
		fields.FeaturedImage = &in.FeaturedImage
	}
	fields.Tags = in.Tags
	fields.IsPublished = in.IsPublished

	updated, err := s.posts.Update(ctx, post.ID, fields)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update post: %w", err)
	}

	return s.renderOne(ctx, updated, false)
}

// Authorize checks that the post exists and caller may modify it, with
// the same errors Update and Delete report.
func (s *Service) Authorize(ctx context.Context, caller access.Identity, id string) error {
	post, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if !access.CanModify(caller, post.Author) {
		return ErrUnauthorized
	}
	return nil
}

func (s *Service) Delete(ctx context.Context, caller access.Identity, id string) error {
	post, err := s.find(ctx, id)
	if err != nil {
		return err
	}

	if !access.CanModify(caller, post.Author) {
		return ErrUnauthorized
	}

	err = s.posts.Delete(ctx, post.ID)
	if errors.Is(err, database.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	return nil
}

// AddComment appends a comment by caller to the post. Any authenticated
// user may comment on a published post; drafts behave as missing for
// callers who cannot see them.
func (s *Service) AddComment(ctx context.Context, caller access.Identity, id string, in CommentInput) (*CommentView, error) {
	if err := check(in); err != nil {
		return nil, err
	}

	post, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	// drafts are hidden from everyone who may not edit them
	if !post.Published() && !access.CanModify(caller, post.Author) {
		return nil, ErrNotFound
	}

	comment := &models.Comment{
		User:    caller.ID,
		Content: in.Content,
	}

	err = s.posts.AppendComment(ctx, post.ID, comment)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("append comment: %w", err)
	}

	users, err := s.userRefs(ctx, []primitive.ObjectID{caller.ID})
	if err != nil {
		return nil, err
	}

	view := newCommentView(*comment, users)
	return &view, nil
}

// checkCategory parses ref and makes sure the category exists. Malformed
// ids count as unknown categories.
func (s *Service) checkCategory(ctx context.Context, ref string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(ref)
	if err != nil {
		return primitive.NilObjectID, ErrCategoryNotFound
	}

	ok, err := s.categories.Exists(ctx, id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("check category: %w", err)
	}
	if !ok {
		return primitive.NilObjectID, ErrCategoryNotFound
	}
	return id, nil
}

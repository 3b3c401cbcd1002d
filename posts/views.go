package posts

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"quill/models"
)

// UserRef is the joined view of a user: name and email only.
type UserRef struct {
	ID    primitive.ObjectID `json:"id"`
	Name  string             `json:"name,omitempty"`
	Email string             `json:"email,omitempty"`
}

type CategoryRef struct {
	ID   primitive.ObjectID `json:"id"`
	Name string             `json:"name"`
}

type CommentView struct {
	ID        primitive.ObjectID `json:"id"`
	User      *UserRef           `json:"user"`
	Content   string             `json:"content"`
	CreatedAt time.Time          `json:"createdAt"`
}

// PostView is a post with its author and category joined. References to
// deleted users or categories render as null.
type PostView struct {
	ID            primitive.ObjectID `json:"id"`
	Title         string             `json:"title"`
	Content       string             `json:"content"`
	Excerpt       string             `json:"excerpt,omitempty"`
	Category      *CategoryRef       `json:"category"`
	Author        *UserRef           `json:"author"`
	Tags          []string           `json:"tags"`
	FeaturedImage string             `json:"featuredImage,omitempty"`
	ViewCount     int64              `json:"viewCount"`
	Comments      []CommentView      `json:"comments"`
	IsPublished   bool               `json:"isPublished"`
	CreatedAt     time.Time          `json:"createdAt"`
	UpdatedAt     time.Time          `json:"updatedAt"`
}

// Model returns the stored shape of the post, for callers that want the
// helpers on models.Post.
func (v *PostView) Model() *models.Post {
	published := v.IsPublished
	post := &models.Post{
		ID:            v.ID,
		Title:         v.Title,
		Content:       v.Content,
		Excerpt:       v.Excerpt,
		Tags:          v.Tags,
		FeaturedImage: v.FeaturedImage,
		ViewCount:     v.ViewCount,
		IsPublished:   &published,
		CreatedAt:     v.CreatedAt,
		UpdatedAt:     v.UpdatedAt,
	}
	if v.Category != nil {
		post.Category = v.Category.ID
	}
	if v.Author != nil {
		post.Author = v.Author.ID
	}
	return post
}

func (s *Service) renderOne(ctx context.Context, post *models.Post, withCommenters bool) (*PostView, error) {
	views, err := s.render(ctx, []models.Post{*post}, withCommenters)
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// render joins authors and categories into list. Comment authors are only
// resolved when withCommenters is set; otherwise comments carry bare ids.
func (s *Service) render(ctx context.Context, list []models.Post, withCommenters bool) ([]PostView, error) {
	var userIDs, categoryIDs []primitive.ObjectID
	for _, post := range list {
		userIDs = append(userIDs, post.Author)
		categoryIDs = append(categoryIDs, post.Category)
		if withCommenters {
			for _, comment := range post.Comments {
				userIDs = append(userIDs, comment.User)
			}
		}
	}

	users, err := s.userRefs(ctx, userIDs)
	if err != nil {
		return nil, err
	}

	categories, err := s.categories.FindByIDs(ctx, unique(categoryIDs))
	if err != nil {
		return nil, fmt.Errorf("join categories: %w", err)
	}
	categoryRefs := make(map[primitive.ObjectID]*CategoryRef, len(categories))
	for _, c := range categories {
		categoryRefs[c.ID] = &CategoryRef{ID: c.ID, Name: c.Name}
	}

	views := make([]PostView, 0, len(list))
	for _, post := range list {
		view := PostView{
			ID:            post.ID,
			Title:         post.Title,
			Content:       post.Content,
			Excerpt:       post.Excerpt,
			Category:      categoryRefs[post.Category],
			Author:        users[post.Author],
			Tags:          post.Tags,
			FeaturedImage: post.FeaturedImage,
			ViewCount:     post.ViewCount,
			Comments:      make([]CommentView, 0, len(post.Comments)),
			IsPublished:   post.Published(),
			CreatedAt:     post.CreatedAt,
			UpdatedAt:     post.UpdatedAt,
		}
		if view.Tags == nil {
			view.Tags = []string{}
		}
		for _, comment := range post.Comments {
			view.Comments = append(view.Comments, newCommentView(comment, users))
		}
		views = append(views, view)
	}

	return views, nil
}

func (s *Service) userRefs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*UserRef, error) {
	users, err := s.users.FindByIDs(ctx, unique(ids))
	if err != nil {
		return nil, fmt.Errorf("join users: %w", err)
	}

	refs := make(map[primitive.ObjectID]*UserRef, len(users))
	for _, u := range users {
		refs[u.ID] = &UserRef{ID: u.ID, Name: u.Name, Email: u.Email}
	}
	return refs, nil
}

func newCommentView(comment models.Comment, users map[primitive.ObjectID]*UserRef) CommentView {
	user, ok := users[comment.User]
	if !ok {
		user = &UserRef{ID: comment.User}
	}
	return CommentView{
		ID:        comment.ID,
		User:      user,
		Content:   comment.Content,
		CreatedAt: comment.CreatedAt,
	}
}

func unique(ids []primitive.ObjectID) []primitive.ObjectID {
	seen := make(map[primitive.ObjectID]bool, len(ids))
	out := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

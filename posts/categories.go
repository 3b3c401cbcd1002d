package posts

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"quill/access"
	"quill/database"
	"quill/models"
)

type CategoryInput struct {
	Name string `json:"name" form:"name" validate:"required"`
}

func (s *Service) Categories(ctx context.Context) ([]models.Category, error) {
	list, err := s.categories.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return list, nil
}

// CreateCategory is reserved for admins. Names are unique.
func (s *Service) CreateCategory(ctx context.Context, caller access.Identity, in CategoryInput) (*models.Category, error) {
	if !access.IsAdmin(caller) {
		return nil, ErrNotAdmin
	}

	in.Name = strings.TrimSpace(in.Name)
	if err := check(in); err != nil {
		return nil, err
	}

	category, err := s.categories.Create(ctx, in.Name)
	if errors.Is(err, database.ErrDuplicate) {
		return nil, ErrConflict
	}
	if err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	return category, nil
}

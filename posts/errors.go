package posts

import (
	"errors"
	"strings"
)

var (
	// ErrNotFound is returned when the post does not exist or is hidden
	// from the caller.
	ErrNotFound = errors.New("post not found")

	// ErrUnauthorized is returned when the caller is neither the author nor
	// an admin.
	ErrUnauthorized = errors.New("not authorized to modify this post")

	// ErrNotAdmin is returned when an admin-only operation is attempted by
	// a regular user.
	ErrNotAdmin = errors.New("not authorized as an admin")

	// ErrCategoryNotFound is returned when a post references a category
	// that does not exist.
	ErrCategoryNotFound = errors.New("category not found")

	// ErrConflict is returned when a category name is already taken.
	ErrConflict = errors.New("category already exists")

	// ErrQueryRequired is returned by Search for an empty query.
	ErrQueryRequired = errors.New("search query is required")
)

// Violation describes one failed input rule.
type Violation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError carries every rule the input broke, not only the first.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		msgs = append(msgs, v.Message)
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// Package uploads stores featured images. Posts only keep the name an
// Uploader returns.
package uploads

import (
	"context"
	"errors"
	"mime/multipart"
	"path/filepath"
	"strings"
)

// ErrUnsupportedType is returned for files that are not images.
var ErrUnsupportedType = errors.New("only image files are allowed")

type Uploader interface {
	// Save stores the file and returns the name posts should reference.
	Save(ctx context.Context, file *multipart.FileHeader) (string, error)
	// Remove deletes a file returned by Save.
	Remove(ctx context.Context, name string) error
}

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

func checkImage(name string) error {
	if !imageExtensions[strings.ToLower(filepath.Ext(name))] {
		return ErrUnsupportedType
	}
	return nil
}

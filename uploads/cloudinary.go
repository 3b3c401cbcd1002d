package uploads

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/url"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// Cloudinary stores uploads remotely and hands back the secure URL.
type Cloudinary struct {
	cld    *cloudinary.Cloudinary
	folder string
}

// NewCloudinary configures the uploader from a cloudinary:// URL.
func NewCloudinary(url, folder string) (*Cloudinary, error) {
	cld, err := cloudinary.NewFromURL(url)
	if err != nil {
		return nil, fmt.Errorf("cloudinary configuration: %w", err)
	}
	return &Cloudinary{cld: cld, folder: folder}, nil
}

func (u *Cloudinary) Save(ctx context.Context, header *multipart.FileHeader) (string, error) {
	if err := checkImage(header.Filename); err != nil {
		return "", err
	}

	file, err := header.Open()
	if err != nil {
		return "", err
	}
	defer file.Close()

	result, err := u.cld.Upload.Upload(ctx, file, uploader.UploadParams{
		Folder:         u.folder,
		PublicID:       time.Now().Format("20060102150405.000000000"),
		Transformation: "c_limit,w_1600,q_auto",
	})
	if err != nil {
		return "", err
	}
	if result.Error.Message != "" {
		return "", errors.New(result.Error.Message)
	}

	return result.SecureURL, nil
}

// Remove destroys the asset behind a URL returned by Save.
func (u *Cloudinary) Remove(ctx context.Context, name string) error {
	publicID, err := publicIDFromURL(name)
	if err != nil {
		return err
	}

	result, err := u.cld.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: publicID})
	if err != nil {
		return err
	}
	if result.Error.Message != "" {
		return errors.New(result.Error.Message)
	}
	return nil
}

var versionSegment = regexp.MustCompile(`^v\d+/`)

// publicIDFromURL turns a delivery URL such as
// https://res.cloudinary.com/demo/image/upload/v17/blog/a.png into the
// asset's public id, blog/a.
func publicIDFromURL(raw string) (string, error) {
	parsed, err := url.Parse(raw)
	if err != nil {
		return "", err
	}

	_, rest, ok := strings.Cut(parsed.Path, "/upload/")
	if !ok || rest == "" {
		return "", fmt.Errorf("not a cloudinary upload url: %q", raw)
	}

	rest = versionSegment.ReplaceAllString(rest, "")
	return strings.TrimSuffix(rest, path.Ext(rest)), nil
}

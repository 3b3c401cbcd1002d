package uploads

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Disk keeps uploads in a local directory that the router serves under
// /uploads.
type Disk struct {
	Dir string
}

func NewDisk(dir string) *Disk {
	return &Disk{Dir: dir}
}

func (d *Disk) Save(_ context.Context, header *multipart.FileHeader) (string, error) {
	if err := checkImage(header.Filename); err != nil {
		return "", err
	}

	file, err := header.Open()
	if err != nil {
		return "", err
	}
	defer file.Close()

	if err := os.MkdirAll(d.Dir, os.ModePerm); err != nil {
		return "", err
	}

	base := strings.ReplaceAll(filepath.Base(header.Filename), " ", "_")
	fileName := fmt.Sprintf("%d_%s", time.Now().UnixNano(), base)

	if err := writeFile(filepath.Join(d.Dir, fileName), file); err != nil {
		return "", err
	}

	return fileName, nil
}

// Remove deletes a file written by Save. Missing files are not an error.
func (d *Disk) Remove(_ context.Context, name string) error {
	err := os.Remove(filepath.Join(d.Dir, filepath.Base(name)))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// writeFile copies src to path. A failed copy leaves no file behind.
func writeFile(path string, src io.Reader) error {
	dst, err := os.Create(path)
	if err != nil {
		return err
	}

	_, err = io.Copy(dst, src)
	if closeErr := dst.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(path)
		return err
	}
	return nil
}

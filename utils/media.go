package utils

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var (
	ErrNotImage     = errors.New("upload a valid image")
	ErrFileTooLarge = errors.New("file is too large")
)

const postImageDir = "posts"

// MediaStorage writes post images below a root directory and hands back paths
// relative to it, which is what models.Post.Image stores.
type MediaStorage struct {
	Root     string
	URL      string
	MaxBytes int64
}

func NewMediaStorage(root, url string, maxMB int) *MediaStorage {
	if maxMB <= 0 {
		maxMB = 5
	}
	if !strings.HasSuffix(url, "/") {
		url += "/"
	}
	return &MediaStorage{Root: root, URL: url, MaxBytes: int64(maxMB) << 20}
}

// SaveImage validates the upload by content sniffing plus a header decode and
// stores it under a random name. Truncated or corrupted images are rejected.
func (m *MediaStorage) SaveImage(fh *multipart.FileHeader) (string, error) {
	if fh.Size > m.MaxBytes {
		return "", ErrFileTooLarge
	}
	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, m.MaxBytes+1))
	if err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > m.MaxBytes {
		return "", ErrFileTooLarge
	}

	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return "", ErrNotImage
	}
	if _, _, err := image.DecodeConfig(bytes.NewReader(data)); err != nil {
		return "", ErrNotImage
	}

	dir := filepath.Join(m.Root, postImageDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create media directory: %w", err)
	}
	name := uuid.NewString() + mt.Extension()
	dst := filepath.Join(dir, name)
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return "", fmt.Errorf("write upload: %w", err)
	}
	return path.Join(postImageDir, name), nil
}

// Remove deletes a stored file; missing files are ignored.
func (m *MediaStorage) Remove(rel string) {
	if rel == "" {
		return
	}
	p := filepath.Join(m.Root, filepath.FromSlash(rel))
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		Sugar.Warnf("remove media file failed path=%s err=%v", p, err)
	}
}

// PublicURL maps a stored relative path to its URL.
func (m *MediaStorage) PublicURL(rel string) string {
	if rel == "" {
		return ""
	}
	return m.URL + rel
}

// Exists reports whether the stored file is present; used by tests and the seeder.
func (m *MediaStorage) Exists(rel string) bool {
	_, err := os.Stat(filepath.Join(m.Root, filepath.FromSlash(rel)))
	return err == nil
}

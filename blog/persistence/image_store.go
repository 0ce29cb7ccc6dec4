package persistence

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/dfryer1193/blogsphere/blog/domain"
)

var _ domain.ImageStore = (*LocalImageStore)(nil)

// LocalImageStore implements domain.ImageStore on the local filesystem.
// Files are written under dir and served from baseURL.
type LocalImageStore struct {
	dir     string
	baseURL string
}

func NewLocalImageStore(dir string, baseURL string) *LocalImageStore {
	return &LocalImageStore{
		dir:     dir,
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}
}

// Dir is the directory images are written to
func (s *LocalImageStore) Dir() string {
	return s.dir
}

// SaveImage writes img.Content to <dir>/<key> and returns its public URL
func (s *LocalImageStore) SaveImage(ctx context.Context, img *domain.Image) (string, error) {
	if img == nil {
		return "", fmt.Errorf("image cannot be nil")
	}

	localPath, err := s.localPath(img.Key)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(localPath), 0755); err != nil {
		return "", fmt.Errorf("failed to create image directory: %w", err)
	}

	if err := os.WriteFile(localPath, img.Content, 0644); err != nil {
		return "", fmt.Errorf("failed to write image file: %w", err)
	}

	return s.baseURL + "/" + img.Key, nil
}

// KeyOf strips baseURL from url. Keys that would escape dir are not owned.
func (s *LocalImageStore) KeyOf(url string) (string, bool) {
	key, ok := strings.CutPrefix(url, s.baseURL+"/")
	if !ok || key == "" {
		return "", false
	}
	if _, err := s.localPath(key); err != nil {
		return "", false
	}
	return key, true
}

// DeleteImage removes the file behind url. URLs outside baseURL are ignored.
func (s *LocalImageStore) DeleteImage(ctx context.Context, url string) error {
	key, ok := s.KeyOf(url)
	if !ok {
		return nil
	}

	localPath, err := s.localPath(key)
	if err != nil {
		return nil
	}

	if err := os.Remove(localPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove image file: %w", err)
	}

	return nil
}

func (s *LocalImageStore) localPath(key string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("image key cannot be empty")
	}

	clean := path.Clean("/" + key)[1:]
	if clean != key || strings.HasPrefix(key, "/") {
		return "", fmt.Errorf("invalid image key: %q", key)
	}

	return filepath.Join(s.dir, filepath.FromSlash(clean)), nil
}

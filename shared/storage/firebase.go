package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	gcs "cloud.google.com/go/storage"
	firebase "firebase.google.com/go/v4"
	"github.com/dfryer1193/blogsphere/blog/domain"
)

const publicHost = "https://storage.googleapis.com"

var _ domain.ImageStore = (*FirebaseImageStore)(nil)

// FirebaseImageStore keeps images in a Firebase Cloud Storage bucket
type FirebaseImageStore struct {
	bucket     *gcs.BucketHandle
	bucketName string
}

func NewFirebaseImageStore(ctx context.Context, app *firebase.App, bucketName string) (*FirebaseImageStore, error) {
	if bucketName == "" {
		return nil, fmt.Errorf("bucket name is required")
	}

	client, err := app.Storage(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	bucket, err := client.Bucket(bucketName)
	if err != nil {
		return nil, fmt.Errorf("failed to open bucket: %w", err)
	}

	return &FirebaseImageStore{
		bucket:     bucket,
		bucketName: bucketName,
	}, nil
}

func (s *FirebaseImageStore) SaveImage(ctx context.Context, img *domain.Image) (string, error) {
	if img == nil {
		return "", fmt.Errorf("image cannot be nil")
	}
	if img.Key == "" {
		return "", fmt.Errorf("image key cannot be empty")
	}

	w := s.bucket.Object(img.Key).NewWriter(ctx)
	w.ContentType = img.ContentType
	w.CacheControl = "public, max-age=31536000"

	if _, err := w.Write(img.Content); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("failed to upload image: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize image upload: %w", err)
	}

	return publicURL(s.bucketName, img.Key), nil
}

func (s *FirebaseImageStore) KeyOf(url string) (string, bool) {
	return objectKey(s.bucketName, url)
}

// DeleteImage removes the object behind url. URLs outside the bucket are ignored.
func (s *FirebaseImageStore) DeleteImage(ctx context.Context, url string) error {
	key, ok := s.KeyOf(url)
	if !ok {
		return nil
	}

	err := s.bucket.Object(key).Delete(ctx)
	if err != nil && !errors.Is(err, gcs.ErrObjectNotExist) {
		return fmt.Errorf("failed to delete image: %w", err)
	}

	return nil
}

func publicURL(bucket string, key string) string {
	segments := strings.Split(key, "/")
	for i, segment := range segments {
		segments[i] = url.PathEscape(segment)
	}
	return fmt.Sprintf("%s/%s/%s", publicHost, bucket, strings.Join(segments, "/"))
}

// objectKey reverses publicURL
func objectKey(bucket string, rawURL string) (string, bool) {
	escaped, ok := strings.CutPrefix(rawURL, publicHost+"/"+bucket+"/")
	if !ok || escaped == "" {
		return "", false
	}

	key, err := url.PathUnescape(escaped)
	if err != nil {
		return "", false
	}

	return key, true
}

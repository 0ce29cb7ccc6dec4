package domain

import (
	"context"
	"time"
)

// Image represents an uploaded image headed for the object store
type Image struct {
	Key         string
	ContentType string
	Content     []byte
	CreatedAt   time.Time
}

type ImageStore interface {
	// SaveImage stores the image under img.Key and returns its public URL
	SaveImage(ctx context.Context, img *Image) (string, error)

	// KeyOf returns the object key behind a URL returned by SaveImage.
	// ok is false for URLs the store does not own.
	KeyOf(url string) (key string, ok bool)

	// DeleteImage removes the object behind a URL returned by SaveImage.
	// URLs the store does not own are ignored.
	DeleteImage(ctx context.Context, url string) error
}

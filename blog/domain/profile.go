package domain

import (
	"context"
	"time"
)

// Profile is the durable user record linked to an external identity
type Profile struct {
	ID             string
	Name           string
	Bio            string
	ProfilePicture string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ProfilePatch carries the fields a profile update supplies. Nil means unchanged.
type ProfilePatch struct {
	Name           *string
	Bio            *string
	ProfilePicture *string
}

type ProfileRepository interface {
	// EnsureProfile inserts p unless a profile with the same ID exists, and reports whether it inserted.
	EnsureProfile(ctx context.Context, p *Profile) (bool, error)
	GetProfile(ctx context.Context, id string) (*Profile, error)
	UpdateProfile(ctx context.Context, p *Profile) error
}

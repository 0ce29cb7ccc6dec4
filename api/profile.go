package api

import (
	"time"

	"github.com/dfryer1193/blogsphere/blog/domain"
)

type Profile struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Bio            string    `json:"bio"`
	ProfilePicture string    `json:"profile_picture"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// ProfileRequest is the body of PUT /auth/profile. Absent fields are left unchanged.
type ProfileRequest struct {
	Name           *string `json:"name"`
	Bio            *string `json:"bio"`
	ProfilePicture *string `json:"profile_picture"`
}

func (r ProfileRequest) ToDomain() domain.ProfilePatch {
	return domain.ProfilePatch{
		Name:           r.Name,
		Bio:            r.Bio,
		ProfilePicture: r.ProfilePicture,
	}
}

func NewProfile(p *domain.Profile) Profile {
	return Profile{
		ID:             p.ID,
		Name:           p.Name,
		Bio:            p.Bio,
		ProfilePicture: p.ProfilePicture,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

type Message struct {
	Message string `json:"message"`
}

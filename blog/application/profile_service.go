package application

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dfryer1193/blogsphere/blog/domain"
	"github.com/rs/zerolog/log"
)

type ProfileService struct {
	profiles domain.ProfileRepository
	limits   Limits

	now func() time.Time
}

func NewProfileService(profiles domain.ProfileRepository, limits Limits) *ProfileService {
	return &ProfileService{
		profiles: profiles,
		limits:   limits,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// EnsureProfile creates the caller's profile on first sight. An existing profile is returned unchanged.
func (s *ProfileService) EnsureProfile(ctx context.Context, identity *domain.Identity) (*domain.Profile, error) {
	if identity == nil || identity.ID == "" {
		return nil, domain.ErrUnauthenticated
	}

	now := s.now()
	created, err := s.profiles.EnsureProfile(ctx, &domain.Profile{
		ID:        identity.ID,
		Name:      defaultProfileName(identity),
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to ensure profile: %w", err)
	}

	if created {
		log.Info().Str("user_id", identity.ID).Msg("Provisioned profile")
	}

	return s.profiles.GetProfile(ctx, identity.ID)
}

func (s *ProfileService) GetProfile(ctx context.Context, id string) (*domain.Profile, error) {
	if err := ValidateUserID(id); err != nil {
		return nil, err
	}
	return s.profiles.GetProfile(ctx, id)
}

// UpdateProfile applies the supplied fields of patch to the profile with the given id
func (s *ProfileService) UpdateProfile(ctx context.Context, id string, patch domain.ProfilePatch) (*domain.Profile, error) {
	profile, err := s.GetProfile(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if err := requireText("name", name); err != nil {
			return nil, err
		}
		profile.Name = name
	}
	if patch.Bio != nil {
		profile.Bio = strings.TrimSpace(*patch.Bio)
	}
	if patch.ProfilePicture != nil {
		profile.ProfilePicture = strings.TrimSpace(*patch.ProfilePicture)
	}

	if err := checkLength("name", profile.Name, s.limits.MaxNameLength); err != nil {
		return nil, err
	}
	if err := checkLength("bio", profile.Bio, s.limits.MaxBioLength); err != nil {
		return nil, err
	}

	profile.UpdatedAt = s.now()
	if err := s.profiles.UpdateProfile(ctx, profile); err != nil {
		return nil, err
	}

	return s.profiles.GetProfile(ctx, id)
}

// defaultProfileName picks the display name, then the email local part, then the id
func defaultProfileName(identity *domain.Identity) string {
	if name := strings.TrimSpace(identity.Name); name != "" {
		return name
	}
	if local, _, ok := strings.Cut(identity.Email, "@"); ok && local != "" {
		return local
	}
	return identity.ID
}

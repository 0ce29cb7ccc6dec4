package application

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/dfryer1193/blogsphere/blog/domain"
	"github.com/google/uuid"
)

var userIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,128}$`)

// Limits caps user-supplied field sizes, in characters. Zero disables a limit.
type Limits struct {
	MaxTitleLength   int
	MaxContentLength int
	MaxCommentLength int
	MaxNameLength    int
	MaxBioLength     int
	MaxTagLength     int
	MaxTags          int
}

// ParseEntityID accepts a canonical UUID and returns it lower-cased
func ParseEntityID(field string, id string) (string, error) {
	if len(id) != 36 {
		return "", domain.NewValidationError(field, fmt.Sprintf("invalid %s", field))
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return "", domain.NewValidationError(field, fmt.Sprintf("invalid %s", field))
	}
	return parsed.String(), nil
}

// ValidateUserID checks the shape of an identity-provider user id
func ValidateUserID(id string) error {
	if !userIDPattern.MatchString(id) {
		return domain.NewValidationError("user_id", "invalid user id")
	}
	return nil
}

// normalizeTags trims each tag, drops empties and keeps the first of any duplicates.
// The result is never nil.
func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}

func requireText(field string, value string) error {
	if strings.TrimSpace(value) == "" {
		return domain.NewValidationError(field, fmt.Sprintf("%s is required", field))
	}
	return nil
}

func checkLength(field string, value string, max int) error {
	if max > 0 && utf8.RuneCountInString(value) > max {
		return domain.NewValidationError(field, fmt.Sprintf("%s must be at most %d characters", field, max))
	}
	return nil
}

func (l Limits) checkTags(tags []string) error {
	if l.MaxTags > 0 && len(tags) > l.MaxTags {
		return domain.NewValidationError("tags", fmt.Sprintf("at most %d tags are allowed", l.MaxTags))
	}
	for _, tag := range tags {
		if err := checkLength("tag", tag, l.MaxTagLength); err != nil {
			return err
		}
	}
	return nil
}

func (l Limits) checkPost(p *domain.Post) error {
	if err := requireText("title", p.Title); err != nil {
		return err
	}
	if err := requireText("content", p.Content); err != nil {
		return err
	}
	if err := checkLength("title", p.Title, l.MaxTitleLength); err != nil {
		return err
	}
	if err := checkLength("content", p.Content, l.MaxContentLength); err != nil {
		return err
	}
	return l.checkTags(p.Tags)
}

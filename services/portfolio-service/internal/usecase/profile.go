package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/vasapolrittideah/portfolio-api/services/portfolio-service/internal/model"
	"github.com/vasapolrittideah/portfolio-api/services/portfolio-service/internal/repository"
	"github.com/vasapolrittideah/portfolio-api/shared/cache"
	"github.com/vasapolrittideah/portfolio-api/shared/sanitize"
)

// ProfileUsecase manages the signed-in user's profile and the public profile
// rendered by the site.
type ProfileUsecase interface {
	GetMe(ctx context.Context, userID string) (*model.User, error)
	UpdateMe(ctx context.Context, userID string, params UpdateProfileParams) (*model.User, error)
	GetPublicProfile(ctx context.Context) (*PublicProfile, error)
}

// UpdateProfileParams holds a partial profile update. Nil fields are left
// untouched and slices replace the stored value.
type UpdateProfileParams struct {
	Email        *string
	Name         *string
	Headline     *string
	Bio          *string
	Affiliation  *string
	Location     *string
	AvatarURL    *string
	CVURL        *string
	Education    *[]model.Education
	Experience   *[]model.Experience
	Skills       *[]string
	Certificates *[]model.Certificate
	Links        *model.SocialLinks
}

// PublicProfile is the owner's profile without account fields.
type PublicProfile struct {
	model.Profile
	Email string `json:"email"`
}

var ErrProfileNotFound = errors.New("profile not found")

const (
	publicProfileCacheKey = "profile:public"
	publicProfileCacheTTL = 5 * time.Minute
)

type profileUsecase struct {
	userRepo repository.UserRepository
	cache    *cache.Client
	logger   *zerolog.Logger
}

func NewProfileUsecase(userRepo repository.UserRepository, cache *cache.Client, logger *zerolog.Logger) ProfileUsecase {
	return &profileUsecase{userRepo: userRepo, cache: cache, logger: logger}
}

func (u *profileUsecase) GetMe(ctx context.Context, userID string) (*model.User, error) {
	user, err := u.userRepo.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (u *profileUsecase) UpdateMe(ctx context.Context, userID string, params UpdateProfileParams) (*model.User, error) {
	update := params.toRepository()
	if err := validateUserUpdate(update); err != nil {
		return nil, err
	}

	user, err := u.userRepo.UpdateUser(ctx, userID, update)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNoUpdates):
			return u.GetMe(ctx, userID)
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrUserNotFound
		case errors.Is(err, repository.ErrDuplicateKey):
			return nil, ErrUserAlreadyExists
		default:
			return nil, err
		}
	}

	_ = u.cache.Delete(ctx, publicProfileCacheKey)

	return user, nil
}

func (u *profileUsecase) GetPublicProfile(ctx context.Context) (*PublicProfile, error) {
	if data, _ := u.cache.Get(ctx, publicProfileCacheKey); data != nil {
		var cached PublicProfile
		if err := json.Unmarshal(data, &cached); err == nil {
			return &cached, nil
		}
	}

	owner, err := u.userRepo.GetOwner(ctx)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}

	profile := &PublicProfile{Profile: owner.Profile, Email: owner.Email}

	if data, err := json.Marshal(profile); err == nil {
		_ = u.cache.Set(ctx, publicProfileCacheKey, data, publicProfileCacheTTL)
	}

	return profile, nil
}

func (p UpdateProfileParams) toRepository() repository.UpdateUserParams {
	out := repository.UpdateUserParams{
		Name:        plainTextPtr(p.Name),
		Headline:    plainTextPtr(p.Headline),
		Affiliation: plainTextPtr(p.Affiliation),
		Location:    plainTextPtr(p.Location),
		AvatarURL:   trimPtr(p.AvatarURL),
		CVURL:       trimPtr(p.CVURL),
		Links:       p.Links,
	}

	if p.Email != nil {
		email := NormalizeEmail(*p.Email)
		out.Email = &email
	}
	if p.Bio != nil {
		bio := sanitize.RichText(*p.Bio)
		out.Bio = &bio
	}
	if p.Education != nil {
		education := make([]model.Education, 0, len(*p.Education))
		for _, e := range *p.Education {
			e.Degree = sanitize.PlainText(e.Degree)
			e.Field = sanitize.PlainText(e.Field)
			e.Institution = sanitize.PlainText(e.Institution)
			e.Description = sanitize.RichText(e.Description)
			education = append(education, e)
		}
		out.Education = &education
	}
	if p.Experience != nil {
		experience := make([]model.Experience, 0, len(*p.Experience))
		for _, e := range *p.Experience {
			e.Position = sanitize.PlainText(e.Position)
			e.Organization = sanitize.PlainText(e.Organization)
			e.Location = sanitize.PlainText(e.Location)
			e.Description = sanitize.RichText(e.Description)
			experience = append(experience, e)
		}
		out.Experience = &experience
	}
	if p.Skills != nil {
		skills := uniqueStrings(*p.Skills, sanitize.PlainText)
		out.Skills = &skills
	}
	if p.Certificates != nil {
		certificates := make([]model.Certificate, 0, len(*p.Certificates))
		for _, c := range *p.Certificates {
			c.Name = sanitize.PlainText(c.Name)
			c.Issuer = sanitize.PlainText(c.Issuer)
			certificates = append(certificates, c)
		}
		out.Certificates = &certificates
	}

	return out
}

func plainTextPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := sanitize.PlainText(*s)
	return &v
}

func trimPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}

// uniqueStrings applies normalize to each value and drops empties and
// repeats, keeping first-seen order.
func uniqueStrings(values []string, normalize func(string) string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = normalize(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

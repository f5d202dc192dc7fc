package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/vasapolrittideah/portfolio-api/services/portfolio-service/internal/model"
	"github.com/vasapolrittideah/portfolio-api/services/portfolio-service/internal/repository"
	"github.com/vasapolrittideah/portfolio-api/shared/cache"
	"github.com/vasapolrittideah/portfolio-api/shared/sanitize"
)

// PublicationUsecase defines the publication CRUD operations.
type PublicationUsecase interface {
	CreatePublication(ctx context.Context, actor Actor, params CreatePublicationParams) (*model.Publication, error)
	GetPublication(ctx context.Context, id string) (*model.Publication, error)
	ListPublications(ctx context.Context, params ListPublicationsParams) (*PublicationPage, error)
	UpdatePublication(
		ctx context.Context,
		actor Actor,
		id string,
		params UpdatePublicationParams,
	) (*model.Publication, error)
	DeletePublication(ctx context.Context, actor Actor, id string) error
	GetPublicationStats(ctx context.Context) (*model.PublicationStats, error)
}

// Actor is the authenticated user performing a write.
type Actor struct {
	UserID string
	Role   model.Role
}

// CreatePublicationParams defines the fields of a new publication.
type CreatePublicationParams struct {
	Title     string
	Authors   []string
	Type      model.PublicationType
	Year      int
	Venue     string
	Tags      []string
	Citations int
	DOI       string
	URL       string
	Abstract  string
	Featured  bool
}

// UpdatePublicationParams is a partial publication update.
type UpdatePublicationParams = repository.UpdatePublicationParams

// ListPublicationsParams defines the public list query. Page is 1-based.
type ListPublicationsParams struct {
	Type     *model.PublicationType
	Year     *int
	Tag      *string
	Featured *bool
	Query    *string
	SortBy   *string
	SortDesc bool
	Page     int
	Limit    int
}

// PublicationPage is one page of the publication list.
type PublicationPage struct {
	Items []*model.Publication `json:"items"`
	Total int64                `json:"total"`
	Page  int                  `json:"page"`
	Limit int                  `json:"limit"`
}

const (
	DefaultPublicationPageSize = 20
	MaxPublicationPageSize     = 100
	MaxPublicationPage         = 100_000
)

var (
	ErrPublicationNotFound = errors.New("publication not found")
	ErrForbidden           = errors.New("you are not allowed to perform this action")
)

const (
	publicationCacheTTL        = 10 * time.Minute
	publicationItemKeyPrefix   = "publications:item:"
	publicationListKeyPrefix   = "publications:list:"
	publicationStatsKeyPrefix  = "publications:stats:"
	publicationVersionCacheKey = "publications:version"
)

type publicationUsecase struct {
	publicationRepo repository.PublicationRepository
	cache           *cache.Client
	logger          *zerolog.Logger
}

func NewPublicationUsecase(
	publicationRepo repository.PublicationRepository,
	cache *cache.Client,
	logger *zerolog.Logger,
) PublicationUsecase {
	return &publicationUsecase{
		publicationRepo: publicationRepo,
		cache:           cache,
		logger:          logger,
	}
}

func (u *publicationUsecase) CreatePublication(
	ctx context.Context,
	actor Actor,
	params CreatePublicationParams,
) (*model.Publication, error) {
	createdBy, err := bson.ObjectIDFromHex(actor.UserID)
	if err != nil {
		return nil, ErrForbidden
	}

	publication := &model.Publication{
		Title:     sanitize.PlainText(params.Title),
		Authors:   uniqueStrings(params.Authors, sanitize.PlainText),
		Type:      params.Type,
		Year:      params.Year,
		Venue:     sanitize.PlainText(params.Venue),
		Tags:      NormalizeTags(params.Tags),
		Citations: params.Citations,
		DOI:       strings.TrimSpace(params.DOI),
		URL:       strings.TrimSpace(params.URL),
		Abstract:  sanitize.RichText(params.Abstract),
		Featured:  params.Featured,
		CreatedBy: createdBy,
	}
	if err := validatePublication(publication); err != nil {
		return nil, err
	}

	publication, err = u.publicationRepo.CreatePublication(ctx, publication)
	if err != nil {
		return nil, err
	}

	u.invalidateLists(ctx)

	return publication, nil
}

func (u *publicationUsecase) GetPublication(ctx context.Context, id string) (*model.Publication, error) {
	key := publicationItemKeyPrefix + id
	var cached model.Publication
	if u.readCache(ctx, key, &cached) {
		return &cached, nil
	}

	publication, err := u.publicationRepo.GetPublication(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPublicationNotFound
		}
		return nil, err
	}

	u.writeCache(ctx, key, publication)

	return publication, nil
}

func (u *publicationUsecase) ListPublications(
	ctx context.Context,
	params ListPublicationsParams,
) (*PublicationPage, error) {
	params = params.withDefaults()

	key := publicationListKeyPrefix + u.cacheVersion(ctx) + ":" + params.cacheKey()
	var cached PublicationPage
	if u.readCache(ctx, key, &cached) {
		return &cached, nil
	}

	items, total, err := u.publicationRepo.ListPublications(ctx, repository.FilterPublicationsParams{
		Type:     params.Type,
		Year:     params.Year,
		Tag:      params.Tag,
		Featured: params.Featured,
		Query:    params.Query,
		SortBy:   params.SortBy,
		SortDesc: params.SortDesc,
		Limit:    int64(params.Limit),
		Offset:   int64(params.Page-1) * int64(params.Limit),
	})
	if err != nil {
		return nil, err
	}

	page := &PublicationPage{Items: items, Total: total, Page: params.Page, Limit: params.Limit}
	u.writeCache(ctx, key, page)

	return page, nil
}

func (u *publicationUsecase) UpdatePublication(
	ctx context.Context,
	actor Actor,
	id string,
	params UpdatePublicationParams,
) (*model.Publication, error) {
	params = normalizeUpdate(params)
	if err := validatePublicationUpdate(params); err != nil {
		return nil, err
	}

	existing, err := u.publicationRepo.GetPublication(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPublicationNotFound
		}
		return nil, err
	}
	if !actor.canModify(existing) {
		return nil, ErrForbidden
	}

	publication, err := u.publicationRepo.UpdatePublication(ctx, id, params)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNoUpdates):
			return existing, nil
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrPublicationNotFound
		default:
			return nil, err
		}
	}

	u.invalidate(ctx, id)

	return publication, nil
}

func (u *publicationUsecase) DeletePublication(ctx context.Context, actor Actor, id string) error {
	existing, err := u.publicationRepo.GetPublication(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrPublicationNotFound
		}
		return err
	}
	if !actor.canModify(existing) {
		return ErrForbidden
	}

	if _, err := u.publicationRepo.DeletePublication(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrPublicationNotFound
		}
		return err
	}

	u.invalidate(ctx, id)

	return nil
}

func (u *publicationUsecase) GetPublicationStats(ctx context.Context) (*model.PublicationStats, error) {
	key := publicationStatsKeyPrefix + u.cacheVersion(ctx)
	var cached model.PublicationStats
	if u.readCache(ctx, key, &cached) {
		return &cached, nil
	}

	stats, err := u.publicationRepo.PublicationStats(ctx)
	if err != nil {
		return nil, err
	}

	u.writeCache(ctx, key, stats)

	return stats, nil
}

// canModify allows superadmins to edit anything and managers to edit what
// they created.
func (a Actor) canModify(p *model.Publication) bool {
	return a.Role == model.RoleSuperAdmin || p.CreatedBy.Hex() == a.UserID
}

// NormalizeTags lower-cases tags and removes blanks and duplicates.
func NormalizeTags(tags []string) []string {
	return uniqueStrings(tags, func(s string) string {
		return strings.ToLower(sanitize.PlainText(s))
	})
}

func normalizeUpdate(p UpdatePublicationParams) UpdatePublicationParams {
	p.Title = plainTextPtr(p.Title)
	p.Venue = plainTextPtr(p.Venue)
	p.DOI = trimPtr(p.DOI)
	p.URL = trimPtr(p.URL)
	if p.Authors != nil {
		authors := uniqueStrings(*p.Authors, sanitize.PlainText)
		p.Authors = &authors
	}
	if p.Tags != nil {
		tags := NormalizeTags(*p.Tags)
		p.Tags = &tags
	}
	if p.Abstract != nil {
		abstract := sanitize.RichText(*p.Abstract)
		p.Abstract = &abstract
	}
	return p
}

func (p ListPublicationsParams) withDefaults() ListPublicationsParams {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Page > MaxPublicationPage {
		p.Page = MaxPublicationPage
	}
	if p.Limit < 1 {
		p.Limit = DefaultPublicationPageSize
	}
	if p.Limit > MaxPublicationPageSize {
		p.Limit = MaxPublicationPageSize
	}
	if p.Tag != nil {
		tag := strings.ToLower(strings.TrimSpace(*p.Tag))
		p.Tag = &tag
	}
	return p
}

func (p ListPublicationsParams) cacheKey() string {
	var b strings.Builder
	field := func(name, value string) {
		b.WriteString(name)
		b.WriteByte('=')
		b.WriteString(strconv.Quote(value))
		b.WriteByte(';')
	}

	if p.Type != nil {
		field("type", string(*p.Type))
	}
	if p.Year != nil {
		field("year", strconv.Itoa(*p.Year))
	}
	if p.Tag != nil {
		field("tag", *p.Tag)
	}
	if p.Featured != nil {
		field("featured", strconv.FormatBool(*p.Featured))
	}
	if p.Query != nil {
		field("q", *p.Query)
	}
	if p.SortBy != nil {
		field("sort", *p.SortBy)
	}
	field("desc", strconv.FormatBool(p.SortDesc))
	field("page", strconv.Itoa(p.Page))
	field("limit", strconv.Itoa(p.Limit))

	return b.String()
}

// cacheVersion scopes list and stats entries. Bumping it on every write
// retires all of them at once.
func (u *publicationUsecase) cacheVersion(ctx context.Context) string {
	return strconv.FormatInt(u.cache.GetInt64(ctx, publicationVersionCacheKey), 10)
}

func (u *publicationUsecase) invalidateLists(ctx context.Context) {
	u.cache.Incr(ctx, publicationVersionCacheKey)
}

func (u *publicationUsecase) invalidate(ctx context.Context, id string) {
	_ = u.cache.Delete(ctx, publicationItemKeyPrefix+id)
	u.invalidateLists(ctx)
}

func (u *publicationUsecase) readCache(ctx context.Context, key string, dst any) bool {
	data, _ := u.cache.Get(ctx, key)
	if data == nil {
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		u.logger.Warn().Err(err).Str("key", key).Msg("discarding unreadable cache entry")
		_ = u.cache.Delete(ctx, key)
		return false
	}
	return true
}

func (u *publicationUsecase) writeCache(ctx context.Context, key string, value any) {
	data, err := json.Marshal(value)
	if err != nil {
		u.logger.Warn().Err(err).Str("key", key).Msg("failed to encode cache entry")
		return
	}
	_ = u.cache.Set(ctx, key, data, publicationCacheTTL)
}

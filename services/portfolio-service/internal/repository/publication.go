package repository

import (
	"context"
	"regexp"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/vasapolrittideah/portfolio-api/services/portfolio-service/internal/model"
)

// PublicationRepository defines the interface for publication-related database operations.
type PublicationRepository interface {
	CreatePublication(ctx context.Context, publication *model.Publication) (*model.Publication, error)
	GetPublication(ctx context.Context, id string) (*model.Publication, error)
	ListPublications(ctx context.Context, params FilterPublicationsParams) ([]*model.Publication, int64, error)
	UpdatePublication(ctx context.Context, id string, params UpdatePublicationParams) (*model.Publication, error)
	DeletePublication(ctx context.Context, id string) (*model.Publication, error)
	PublicationStats(ctx context.Context) (*model.PublicationStats, error)
}

// UpdatePublicationParams defines the optional parameters for updating a publication.
// Only the fields that are not nil will be updated.
type UpdatePublicationParams struct {
	Title     *string
	Authors   *[]string
	Type      *model.PublicationType
	Year      *int
	Venue     *string
	Tags      *[]string
	Citations *int
	DOI       *string
	URL       *string
	Abstract  *string
	Featured  *bool
}

// FilterPublicationsParams defines the parameters for filtering and paginating publications.
type FilterPublicationsParams struct {
	Type     *model.PublicationType
	Year     *int
	Tag      *string
	Featured *bool
	Query    *string
	Limit    int64
	Offset   int64
	SortBy   *string
	SortDesc bool
}

// Sortable publication fields.
const (
	SortByYear      = "year"
	SortByCitations = "citations"
	SortByTitle     = "title"
	SortByCreatedAt = "created_at"
)

const (
	defaultPublicationLimit = 20
	maxPublicationLimit     = 100
)

const publicationCollection = "publications"

type publicationMongoRepository struct {
	db *mongo.Database
}

func NewPublicationMongoRepository(
	ctx context.Context,
	logger *zerolog.Logger,
	db *mongo.Database,
) PublicationRepository {
	collection := db.Collection(publicationCollection)

	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "year", Value: -1}, {Key: "created_at", Value: -1}},
		},
		{
			Keys: bson.D{{Key: "type", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "tags", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "featured", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "created_by", Value: 1}},
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create publication indexes")
	}

	return &publicationMongoRepository{db: db}
}

func (r *publicationMongoRepository) CreatePublication(
	ctx context.Context,
	publication *model.Publication,
) (*model.Publication, error) {
	now := time.Now().UTC()
	publication.CreatedAt = now
	publication.UpdatedAt = now
	publication.Authors = emptyIfNil(publication.Authors)
	publication.Tags = emptyIfNil(publication.Tags)

	result, err := r.db.Collection(publicationCollection).InsertOne(ctx, publication)
	if err != nil {
		return nil, translateError(err)
	}

	publication.ID, err = insertedObjectID(result)
	if err != nil {
		return nil, err
	}

	return publication, nil
}

func (r *publicationMongoRepository) GetPublication(ctx context.Context, id string) (*model.Publication, error) {
	objectID, err := objectIDFromHex(id)
	if err != nil {
		return nil, err
	}

	var publication model.Publication
	err = r.db.Collection(publicationCollection).FindOne(ctx, bson.M{"_id": objectID}).Decode(&publication)
	if err != nil {
		return nil, translateError(err)
	}

	return &publication, nil
}

func (r *publicationMongoRepository) ListPublications(
	ctx context.Context,
	params FilterPublicationsParams,
) ([]*model.Publication, int64, error) {
	collection := r.db.Collection(publicationCollection)
	filter := params.filter()

	total, err := collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	limit := params.Limit
	if limit <= 0 {
		limit = defaultPublicationLimit
	}
	if limit > maxPublicationLimit {
		limit = maxPublicationLimit
	}

	findOptions := options.Find().SetLimit(limit).SetSort(params.sort())
	if params.Offset > 0 {
		findOptions.SetSkip(params.Offset)
	}

	cursor, err := collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	publications := make([]*model.Publication, 0, limit)
	for cursor.Next(ctx) {
		var publication model.Publication
		if err := cursor.Decode(&publication); err != nil {
			return nil, 0, err
		}
		publications = append(publications, &publication)
	}

	if err := cursor.Err(); err != nil {
		return nil, 0, err
	}

	return publications, total, nil
}

func (r *publicationMongoRepository) UpdatePublication(
	ctx context.Context,
	id string,
	params UpdatePublicationParams,
) (*model.Publication, error) {
	objectID, err := objectIDFromHex(id)
	if err != nil {
		return nil, err
	}

	updateMap := params.setDocument()
	if len(updateMap) == 0 {
		return nil, ErrNoUpdates
	}
	updateMap["updated_at"] = time.Now().UTC()

	var publication model.Publication
	err = r.db.Collection(publicationCollection).FindOneAndUpdate(
		ctx,
		bson.M{"_id": objectID},
		bson.M{"$set": updateMap},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&publication)
	if err != nil {
		return nil, translateError(err)
	}

	return &publication, nil
}

func (r *publicationMongoRepository) DeletePublication(ctx context.Context, id string) (*model.Publication, error) {
	objectID, err := objectIDFromHex(id)
	if err != nil {
		return nil, err
	}

	var publication model.Publication
	err = r.db.Collection(publicationCollection).FindOneAndDelete(ctx, bson.M{"_id": objectID}).Decode(&publication)
	if err != nil {
		return nil, translateError(err)
	}

	return &publication, nil
}

func (r *publicationMongoRepository) PublicationStats(ctx context.Context) (*model.PublicationStats, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$type"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
			{Key: "citations", Value: bson.D{{Key: "$sum", Value: "$citations"}}},
		}}},
	}

	cursor, err := r.db.Collection(publicationCollection).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var groups []struct {
		Type      model.PublicationType `bson:"_id"`
		Count     int64                 `bson:"count"`
		Citations int64                 `bson:"citations"`
	}
	if err := cursor.All(ctx, &groups); err != nil {
		return nil, err
	}

	stats := &model.PublicationStats{ByType: make(map[model.PublicationType]int64, len(model.PublicationTypes))}
	for _, t := range model.PublicationTypes {
		stats.ByType[t] = 0
	}
	for _, g := range groups {
		stats.ByType[g.Type] = g.Count
		stats.Total += g.Count
		stats.TotalCitations += g.Citations
	}

	return stats, nil
}

func (p FilterPublicationsParams) filter() bson.M {
	filter := bson.M{}
	if p.Type != nil {
		filter["type"] = *p.Type
	}
	if p.Year != nil {
		filter["year"] = *p.Year
	}
	if p.Tag != nil {
		filter["tags"] = *p.Tag
	}
	if p.Featured != nil {
		filter["featured"] = *p.Featured
	}
	if p.Query != nil && *p.Query != "" {
		pattern := bson.Regex{Pattern: regexp.QuoteMeta(*p.Query), Options: "i"}
		filter["$or"] = bson.A{
			bson.M{"title": pattern},
			bson.M{"venue": pattern},
			bson.M{"authors": pattern},
		}
	}
	return filter
}

// sort defaults to newest first. The id is always the final key so paging is stable.
func (p FilterPublicationsParams) sort() bson.D {
	order := 1
	if p.SortDesc {
		order = -1
	}

	if p.SortBy == nil {
		return bson.D{{Key: "year", Value: -1}, {Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}
	}

	switch *p.SortBy {
	case SortByYear:
		return bson.D{{Key: "year", Value: order}, {Key: "created_at", Value: order}, {Key: "_id", Value: order}}
	case SortByCitations, SortByTitle, SortByCreatedAt:
		return bson.D{{Key: *p.SortBy, Value: order}, {Key: "_id", Value: order}}
	default:
		return bson.D{{Key: "year", Value: -1}, {Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}
	}
}

func (p UpdatePublicationParams) setDocument() bson.M {
	set := bson.M{}
	if p.Title != nil {
		set["title"] = *p.Title
	}
	if p.Authors != nil {
		set["authors"] = emptyIfNil(*p.Authors)
	}
	if p.Type != nil {
		set["type"] = *p.Type
	}
	if p.Year != nil {
		set["year"] = *p.Year
	}
	if p.Venue != nil {
		set["venue"] = *p.Venue
	}
	if p.Tags != nil {
		set["tags"] = emptyIfNil(*p.Tags)
	}
	if p.Citations != nil {
		set["citations"] = *p.Citations
	}
	if p.DOI != nil {
		set["doi"] = *p.DOI
	}
	if p.URL != nil {
		set["url"] = *p.URL
	}
	if p.Abstract != nil {
		set["abstract"] = *p.Abstract
	}
	if p.Featured != nil {
		set["featured"] = *p.Featured
	}
	return set
}

package repository

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/vasapolrittideah/portfolio-api/services/portfolio-service/internal/model"
)

// UserRepository defines the interface for user-related database operations.
type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) (*model.User, error)
	GetUser(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetOwner(ctx context.Context) (*model.User, error)
	UpdateUser(ctx context.Context, id string, params UpdateUserParams) (*model.User, error)
	TouchLastLogin(ctx context.Context, id string, at time.Time) error
	CountUsers(ctx context.Context) (int64, error)
}

// UpdateUserParams defines the optional parameters for updating a user.
// Only the fields that are not nil will be updated. Slices replace the stored
// value wholesale.
type UpdateUserParams struct {
	Email        *string
	PasswordHash *string
	Role         *model.Role

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

func (p UpdateUserParams) setDocument() bson.M {
	set := bson.M{}

	if p.Email != nil {
		set["email"] = *p.Email
	}
	if p.PasswordHash != nil {
		set["password_hash"] = *p.PasswordHash
	}
	if p.Role != nil {
		set["role"] = *p.Role
	}
	if p.Name != nil {
		set["profile.name"] = *p.Name
	}
	if p.Headline != nil {
		set["profile.headline"] = *p.Headline
	}
	if p.Bio != nil {
		set["profile.bio"] = *p.Bio
	}
	if p.Affiliation != nil {
		set["profile.affiliation"] = *p.Affiliation
	}
	if p.Location != nil {
		set["profile.location"] = *p.Location
	}
	if p.AvatarURL != nil {
		set["profile.avatar_url"] = *p.AvatarURL
	}
	if p.CVURL != nil {
		set["profile.cv_url"] = *p.CVURL
	}
	if p.Education != nil {
		set["profile.education"] = emptyIfNil(*p.Education)
	}
	if p.Experience != nil {
		set["profile.experience"] = emptyIfNil(*p.Experience)
	}
	if p.Skills != nil {
		set["profile.skills"] = emptyIfNil(*p.Skills)
	}
	if p.Certificates != nil {
		set["profile.certificates"] = emptyIfNil(*p.Certificates)
	}
	if p.Links != nil {
		set["profile.links"] = *p.Links
	}

	return set
}

func emptyIfNil[T any](v []T) []T {
	if v == nil {
		return []T{}
	}
	return v
}

const userCollection = "users"

type userMongoRepository struct {
	db *mongo.Database
}

func NewUserMongoRepository(ctx context.Context, logger *zerolog.Logger, db *mongo.Database) UserRepository {
	collection := db.Collection(userCollection)

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "role", Value: 1}, {Key: "created_at", Value: 1}},
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create user indexes")
	}

	return &userMongoRepository{db: db}
}

func (r *userMongoRepository) CreateUser(ctx context.Context, user *model.User) (*model.User, error) {
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now
	normalizeProfile(&user.Profile)

	result, err := r.db.Collection(userCollection).InsertOne(ctx, user)
	if err != nil {
		return nil, translateError(err)
	}

	user.ID, err = insertedObjectID(result)
	if err != nil {
		return nil, err
	}

	return user, nil
}

func (r *userMongoRepository) GetUser(ctx context.Context, id string) (*model.User, error) {
	objectID, err := objectIDFromHex(id)
	if err != nil {
		return nil, err
	}

	return r.findOne(ctx, bson.M{"_id": objectID})
}

func (r *userMongoRepository) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

// GetOwner returns the earliest registered superadmin, whose profile is the
// one the public site renders.
func (r *userMongoRepository) GetOwner(ctx context.Context) (*model.User, error) {
	return r.findOne(
		ctx,
		bson.M{"role": model.RoleSuperAdmin},
		options.FindOne().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}),
	)
}

func (r *userMongoRepository) UpdateUser(
	ctx context.Context,
	id string,
	params UpdateUserParams,
) (*model.User, error) {
	objectID, err := objectIDFromHex(id)
	if err != nil {
		return nil, err
	}

	updateMap := params.setDocument()
	if len(updateMap) == 0 {
		return nil, ErrNoUpdates
	}
	updateMap["updated_at"] = time.Now().UTC()

	result := r.db.Collection(userCollection).FindOneAndUpdate(
		ctx,
		bson.M{"_id": objectID},
		bson.M{"$set": updateMap},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)
	if result.Err() != nil {
		return nil, translateError(result.Err())
	}

	var user model.User
	if err := result.Decode(&user); err != nil {
		return nil, err
	}

	return &user, nil
}

func (r *userMongoRepository) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	objectID, err := objectIDFromHex(id)
	if err != nil {
		return err
	}

	result, err := r.db.Collection(userCollection).UpdateOne(
		ctx,
		bson.M{"_id": objectID},
		bson.M{"$set": bson.M{"last_login_at": at.UTC()}},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *userMongoRepository) CountUsers(ctx context.Context) (int64, error) {
	return r.db.Collection(userCollection).CountDocuments(ctx, bson.M{})
}

func (r *userMongoRepository) findOne(
	ctx context.Context,
	filter bson.M,
	opts ...options.Lister[options.FindOneOptions],
) (*model.User, error) {
	result := r.db.Collection(userCollection).FindOne(ctx, filter, opts...)
	if result.Err() != nil {
		return nil, translateError(result.Err())
	}

	var user model.User
	if err := result.Decode(&user); err != nil {
		return nil, err
	}

	return &user, nil
}

// normalizeProfile stores empty arrays instead of null so clients can iterate
// without guards.
func normalizeProfile(p *model.Profile) {
	if p.Education == nil {
		p.Education = []model.Education{}
	}
	if p.Experience == nil {
		p.Experience = []model.Experience{}
	}
	if p.Skills == nil {
		p.Skills = []string{}
	}
	if p.Certificates == nil {
		p.Certificates = []model.Certificate{}
	}
}

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

// SessionRepository defines the interface for session-related database operations.
type SessionRepository interface {
	CreateSession(ctx context.Context, session *model.Session) (*model.Session, error)
	GetSession(ctx context.Context, id string) (*model.Session, error)
	RotateRefreshToken(ctx context.Context, id string, params RotateRefreshTokenParams) (*model.Session, error)
	DeleteSession(ctx context.Context, id string) error
	DeleteSessionsByUser(ctx context.Context, userID string) (int64, error)
	DeleteSessionsByUserExcept(ctx context.Context, userID string, keepID string) (int64, error)
}

// RotateRefreshTokenParams swaps the accepted refresh token of a session.
// The swap only happens when the stored token id still equals CurrentTokenID.
type RotateRefreshTokenParams struct {
	CurrentTokenID string
	NewTokenID     string
	ExpiresAt      time.Time
}

const sessionCollection = "sessions"

type sessionMongoRepository struct {
	db *mongo.Database
}

func NewSessionMongoRepository(ctx context.Context, logger *zerolog.Logger, db *mongo.Database) SessionRepository {
	collection := db.Collection(sessionCollection)

	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "user_id", Value: 1}},
		},
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0),
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create session indexes")
	}

	return &sessionMongoRepository{db: db}
}

func (r *sessionMongoRepository) CreateSession(ctx context.Context, session *model.Session) (*model.Session, error) {
	now := time.Now().UTC()
	session.CreatedAt = now
	session.UpdatedAt = now

	result, err := r.db.Collection(sessionCollection).InsertOne(ctx, session)
	if err != nil {
		return nil, translateError(err)
	}

	session.ID, err = insertedObjectID(result)
	if err != nil {
		return nil, err
	}

	return session, nil
}

func (r *sessionMongoRepository) GetSession(ctx context.Context, id string) (*model.Session, error) {
	objectID, err := objectIDFromHex(id)
	if err != nil {
		return nil, err
	}

	var session model.Session
	err = r.db.Collection(sessionCollection).FindOne(ctx, bson.M{"_id": objectID}).Decode(&session)
	if err != nil {
		return nil, translateError(err)
	}

	return &session, nil
}

func (r *sessionMongoRepository) RotateRefreshToken(
	ctx context.Context,
	id string,
	params RotateRefreshTokenParams,
) (*model.Session, error) {
	objectID, err := objectIDFromHex(id)
	if err != nil {
		return nil, err
	}

	result := r.db.Collection(sessionCollection).FindOneAndUpdate(
		ctx,
		bson.M{"_id": objectID, "refresh_token_id": params.CurrentTokenID},
		bson.M{"$set": bson.M{
			"refresh_token_id": params.NewTokenID,
			"expires_at":       params.ExpiresAt.UTC(),
			"updated_at":       time.Now().UTC(),
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)
	if result.Err() != nil {
		return nil, translateError(result.Err())
	}

	var session model.Session
	if err := result.Decode(&session); err != nil {
		return nil, err
	}

	return &session, nil
}

func (r *sessionMongoRepository) DeleteSession(ctx context.Context, id string) error {
	objectID, err := objectIDFromHex(id)
	if err != nil {
		return err
	}

	result, err := r.db.Collection(sessionCollection).DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *sessionMongoRepository) DeleteSessionsByUser(ctx context.Context, userID string) (int64, error) {
	objectID, err := objectIDFromHex(userID)
	if err != nil {
		return 0, err
	}

	result, err := r.db.Collection(sessionCollection).DeleteMany(ctx, bson.M{"user_id": objectID})
	if err != nil {
		return 0, err
	}

	return result.DeletedCount, nil
}

func (r *sessionMongoRepository) DeleteSessionsByUserExcept(
	ctx context.Context,
	userID string,
	keepID string,
) (int64, error) {
	userObjectID, err := objectIDFromHex(userID)
	if err != nil {
		return 0, err
	}
	keepObjectID, err := objectIDFromHex(keepID)
	if err != nil {
		return 0, err
	}

	result, err := r.db.Collection(sessionCollection).DeleteMany(ctx, bson.M{
		"user_id": userObjectID,
		"_id":     bson.M{"$ne": keepObjectID},
	})
	if err != nil {
		return 0, err
	}

	return result.DeletedCount, nil
}

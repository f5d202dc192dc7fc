package repository

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/vasapolrittideah/portfolio-api/services/portfolio-service/internal/model"
)

// OTPRepository defines the operations on pending password-reset codes.
type OTPRepository interface {
	// ReplaceOTP stores otp as the only pending code for its email.
	ReplaceOTP(ctx context.Context, otp *model.OTP) (*model.OTP, error)

	// GetOTPByEmail returns the pending code for email.
	GetOTPByEmail(ctx context.Context, email string) (*model.OTP, error)

	// IncrementAttempts records a failed verification and returns the new count.
	IncrementAttempts(ctx context.Context, id string) (int, error)

	// ConsumeOTP deletes the code. It returns ErrNotFound when another request
	// consumed it first.
	ConsumeOTP(ctx context.Context, id string) error
}

const otpCollection = "otps"

type otpMongoRepository struct {
	db *mongo.Database
}

// NewOTPMongoRepository creates the repository and ensures the TTL index that
// lets MongoDB drop codes once expires_at passes.
func NewOTPMongoRepository(ctx context.Context, logger *zerolog.Logger, db *mongo.Database) OTPRepository {
	collection := db.Collection(otpCollection)

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0), // TTL index
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create otp indexes")
	}

	return &otpMongoRepository{db: db}
}

// otpReplaceAttempts bounds retries when a concurrent request for the same
// email inserts between our delete and insert.
const otpReplaceAttempts = 3

// ReplaceOTP deletes any pending code for the email and inserts otp under a
// fresh _id, so ids handed out for the old code no longer match anything.
func (r *otpMongoRepository) ReplaceOTP(ctx context.Context, otp *model.OTP) (*model.OTP, error) {
	collection := r.db.Collection(otpCollection)

	stored := *otp
	stored.CreatedAt = time.Now().UTC()
	stored.ExpiresAt = otp.ExpiresAt.UTC()
	stored.Attempts = 0

	var err error
	for attempt := 0; attempt < otpReplaceAttempts; attempt++ {
		if _, err = collection.DeleteMany(ctx, bson.M{"email": stored.Email}); err != nil {
			return nil, err
		}

		stored.ID = bson.NewObjectID()
		_, err = collection.InsertOne(ctx, &stored)
		if err = translateError(err); !errors.Is(err, ErrDuplicateKey) {
			break
		}
	}
	if err != nil {
		return nil, err
	}

	return &stored, nil
}

func (r *otpMongoRepository) GetOTPByEmail(ctx context.Context, email string) (*model.OTP, error) {
	var otp model.OTP
	err := r.db.Collection(otpCollection).FindOne(ctx, bson.M{"email": email}).Decode(&otp)
	if err != nil {
		return nil, translateError(err)
	}

	return &otp, nil
}

func (r *otpMongoRepository) IncrementAttempts(ctx context.Context, id string) (int, error) {
	objectID, err := objectIDFromHex(id)
	if err != nil {
		return 0, err
	}

	var otp model.OTP
	err = r.db.Collection(otpCollection).FindOneAndUpdate(
		ctx,
		bson.M{"_id": objectID},
		bson.M{"$inc": bson.M{"attempts": 1}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&otp)
	if err != nil {
		return 0, translateError(err)
	}

	return otp.Attempts, nil
}

func (r *otpMongoRepository) ConsumeOTP(ctx context.Context, id string) error {
	objectID, err := objectIDFromHex(id)
	if err != nil {
		return err
	}

	result, err := r.db.Collection(otpCollection).DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}

	return nil
}

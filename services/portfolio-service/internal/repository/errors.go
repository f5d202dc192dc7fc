package repository

import (
	"errors"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

var (
	ErrNotFound     = errors.New("document not found")
	ErrDuplicateKey = errors.New("duplicate key")
	ErrNoUpdates    = errors.New("no fields to update")
)

// translateError maps driver errors onto the repository sentinels so callers
// never import the driver to inspect failures.
func translateError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return ErrDuplicateKey
	default:
		return err
	}
}

// objectIDFromHex treats a malformed id like a missing document.
func objectIDFromHex(id string) (bson.ObjectID, error) {
	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return bson.NilObjectID, ErrNotFound
	}
	return objectID, nil
}

func insertedObjectID(result *mongo.InsertOneResult) (bson.ObjectID, error) {
	if objectID, ok := result.InsertedID.(bson.ObjectID); ok {
		return objectID, nil
	}
	return bson.NilObjectID, errors.New("failed to convert inserted ID to ObjectID")
}

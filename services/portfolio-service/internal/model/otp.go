package model

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// OTP is a pending password-reset code. The document is removed by a TTL
// index once ExpiresAt passes.
type OTP struct {
	ID        bson.ObjectID `bson:"_id,omitempty"`
	Email     string        `bson:"email"`
	CodeHash  string        `bson:"code_hash"`
	Attempts  int           `bson:"attempts"`
	ExpiresAt time.Time     `bson:"expires_at"`
	CreatedAt time.Time     `bson:"created_at"`
}

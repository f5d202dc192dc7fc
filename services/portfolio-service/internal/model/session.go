package model

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Session represents a refresh-token lineage for one login. RefreshTokenID is
// the jti of the only refresh token currently accepted for the session.
type Session struct {
	ID             bson.ObjectID `bson:"_id,omitempty"`
	UserID         bson.ObjectID `bson:"user_id"`
	RefreshTokenID string        `bson:"refresh_token_id"`
	IPAddress      string        `bson:"ip_address,omitempty"`
	UserAgent      string        `bson:"user_agent,omitempty"`
	ExpiresAt      time.Time     `bson:"expires_at"`
	CreatedAt      time.Time     `bson:"created_at"`
	UpdatedAt      time.Time     `bson:"updated_at"`
}
